package campaign

import (
	"strings"
	"time"
)

type Aspect string

const (
	AspectSquare    Aspect = "square"
	AspectPortrait  Aspect = "portrait"
	AspectLandscape Aspect = "landscape"
)

// ParseAspect accepts the enum names, their Portuguese labels and the ratio
// strings themselves. Anything else is square.
func ParseAspect(value string) Aspect {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "portrait", "retrato", "vertical", "story", "stories", "9:16":
		return AspectPortrait
	case "landscape", "paisagem", "horizontal", "16:9":
		return AspectLandscape
	default:
		return AspectSquare
	}
}

// Ratio is the wire-level aspect ratio requested from the image model.
func (a Aspect) Ratio() string {
	switch a {
	case AspectPortrait:
		return "9:16"
	case AspectLandscape:
		return "16:9"
	default:
		return "1:1"
	}
}

// Dimensions is the pixel size used for fallback images.
func (a Aspect) Dimensions() (width, height int) {
	switch a {
	case AspectPortrait:
		return 768, 1344
	case AspectLandscape:
		return 1280, 720
	default:
		return 1024, 1024
	}
}

func Aspects() []NamedOption {
	return []NamedOption{
		{Key: string(AspectSquare), Name: "Quadrado (1:1)"},
		{Key: string(AspectPortrait), Name: "Retrato (9:16)"},
		{Key: string(AspectLandscape), Name: "Paisagem (16:9)"},
	}
}

type Request struct {
	OfferText     string `json:"offerText"`
	HighlightText string `json:"highlightText"`
	Aspect        Aspect `json:"aspect"`
	CustomPrompt  string `json:"customPrompt,omitempty"`
	// ReferenceImage is a data URI; when set the run is a remix of it.
	ReferenceImage string `json:"referenceImage,omitempty"`
	SkipImages     bool   `json:"skipImages,omitempty"`
	Pro            bool   `json:"pro,omitempty"`
	Style          string `json:"style,omitempty"`
	IsolateProduct bool   `json:"isolateProduct,omitempty"`
	BrandColor     string `json:"brandColor,omitempty"`
	Strategy       string `json:"strategy,omitempty"`
	// Complex asks for the content calendar and the sales scripts too.
	Complex bool `json:"complex,omitempty"`
}

type Content struct {
	Headline  string `json:"headline" validate:"required"`
	Subtext   string `json:"subtext" validate:"required"`
	Highlight string `json:"highlight" validate:"required"`
}

type Audit struct {
	Score        int      `json:"score" validate:"gte=0,lte=100"`
	Strengths    []string `json:"strengths" validate:"required,min=1,dive,required"`
	Improvements []string `json:"improvements" validate:"required,min=1,dive,required"`
	Verdict      string   `json:"verdict" validate:"required"`
}

type SocialPost struct {
	Caption  string   `json:"caption" validate:"required"`
	Hashtags []string `json:"hashtags" validate:"required,min=1,dive,required"`
}

type DayPlan struct {
	Day   string `json:"day"`
	Theme string `json:"theme" validate:"required"`
	Idea  string `json:"idea" validate:"required"`
}

type SalesScripts struct {
	Approach  string `json:"approach" validate:"required"`
	Objection string `json:"objection" validate:"required"`
	Closing   string `json:"closing" validate:"required"`
}

type Status string

const (
	// StatusOK means every stage produced model output.
	StatusOK Status = "ok"
	// StatusDegraded means some field or image was replaced by a default.
	StatusDegraded Status = "degraded"
	// StatusFailed means the text stage failed outright and the result is a
	// placeholder.
	StatusFailed Status = "failed"
)

type Origin string

const (
	OriginPrimary     Origin = "primary"
	OriginFallback    Origin = "fallback"
	OriginPlaceholder Origin = "placeholder"
)

// Slot describes where Images[i] came from.
type Slot struct {
	Index  int    `json:"index"`
	Origin Origin `json:"origin"`
	Error  string `json:"error,omitempty"`
}

type Result struct {
	ID          string       `json:"id"`
	Images      []string     `json:"images"`
	Slots       []Slot       `json:"slots"`
	Content     Content      `json:"content"`
	Audit       Audit        `json:"audit"`
	Social      SocialPost   `json:"socialPost"`
	Calendar    []DayPlan    `json:"calendar"`
	Scripts     SalesScripts `json:"salesScripts"`
	ImagePrompt string       `json:"imagePrompt"`
	Status      Status       `json:"status"`
	// Err is the diagnostic of a failed run. Never shown as copy.
	Err       string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	Elapsed   string    `json:"elapsed"`
}

// InlineImage is decoded image data passed to a model alongside a prompt.
type InlineImage struct {
	MIMEType string
	Data     []byte
}

// ImageRequest is one image model call.
type ImageRequest struct {
	Prompt      string
	AspectRatio string
	Reference   *InlineImage
}

type NamedOption struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}
