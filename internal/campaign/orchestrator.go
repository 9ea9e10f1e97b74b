package campaign

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"oferta-studio/internal/batch"
	"oferta-studio/internal/dataurl"
	"oferta-studio/internal/logging"
)

const (
	DefaultVariants       = 4
	DefaultVariantTimeout = 60 * time.Second

	failurePrompt = "abstract gradient background"
	floorPrompt   = "abstract"
)

// TextRequest is one JSON-mode text model call.
type TextRequest struct {
	Prompt        string
	Reference     *InlineImage
	ReferenceNote string
}

type TextModel interface {
	GenerateJSON(ctx context.Context, req TextRequest) (string, error)
}

// ImageModel returns one generated image as a data URI.
type ImageModel interface {
	GenerateImage(ctx context.Context, req ImageRequest) (string, error)
}

// FallbackImages builds a prompt-to-image URL. It does no network I/O.
type FallbackImages interface {
	URL(prompt string, width, height, seedOffset int) (string, error)
}

type Options struct {
	Text     TextModel
	Image    ImageModel
	Fallback FallbackImages

	Variants       int
	VariantTimeout time.Duration
	Concurrency    int

	Logger *zap.Logger
	Now    func() time.Time
	NewID  func() string
}

type Orchestrator struct {
	text     TextModel
	image    ImageModel
	fallback FallbackImages

	variants       int
	variantTimeout time.Duration
	concurrency    int

	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

var (
	errNoTextModel  = errors.New("text model not configured")
	errNoImageModel = errors.New("image model not configured")
	errEmptyImage   = errors.New("image model returned no image")
)

func NewOrchestrator(opts Options) *Orchestrator {
	o := &Orchestrator{
		text:           opts.Text,
		image:          opts.Image,
		fallback:       opts.Fallback,
		variants:       opts.Variants,
		variantTimeout: opts.VariantTimeout,
		concurrency:    opts.Concurrency,
		logger:         logging.OrNop(opts.Logger).Named("campaign"),
		now:            opts.Now,
		newID:          opts.NewID,
	}
	if o.variants <= 0 {
		o.variants = DefaultVariants
	}
	if o.variantTimeout <= 0 {
		o.variantTimeout = DefaultVariantTimeout
	}
	if o.concurrency <= 0 {
		o.concurrency = o.variants
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.newID == nil {
		o.newID = uuid.NewString
	}
	return o
}

// Concurrency is the number of image variants in flight at once.
func (o *Orchestrator) Concurrency() int {
	return o.concurrency
}

// Generate runs the whole campaign pipeline. It never fails: problems are
// absorbed into defaults and reported through Status, Slots and Err.
func (o *Orchestrator) Generate(ctx context.Context, req Request) (res Result) {
	start := o.now()
	req.Aspect = ParseAspect(string(req.Aspect))

	log := o.logger.With(zap.String("aspect", string(req.Aspect)), zap.Bool("pro", req.Pro))

	res.ID = o.newID()
	res.CreatedAt = start
	defer func() {
		if p := recover(); p != nil {
			res = o.failed(res, req, fmt.Errorf("panic: %v", p))
		}
		res.Elapsed = o.now().Sub(start).String()
	}()

	ref := o.reference(req)
	if ref == nil {
		req.ReferenceImage = ""
	}

	draft, err := o.draft(ctx, req, ref)
	if err != nil {
		log.Error("campaign text stage failed", zap.Error(err))
		return o.failed(res, req, err)
	}

	res.Content = draft.Content
	res.Audit = draft.Audit
	res.Social = draft.Social
	res.Calendar = draft.Calendar
	res.Scripts = draft.Scripts
	res.ImagePrompt = draft.ImagePrompt
	res.Images = []string{}
	res.Slots = []Slot{}

	degraded := len(draft.Defaulted) > 0
	if degraded {
		log.Warn("campaign sections defaulted", zap.Strings("sections", draft.Defaulted))
	}

	if !req.SkipImages {
		res.Images, res.Slots = o.images(ctx, req, draft.ImagePrompt, ref)
		for _, s := range res.Slots {
			if s.Origin != OriginPrimary {
				degraded = true
			}
		}
	}

	res.Status = StatusOK
	if degraded {
		res.Status = StatusDegraded
	}

	log.Info("campaign generated",
		zap.String("id", res.ID),
		zap.String("status", string(res.Status)),
		zap.Int("images", len(res.Images)),
	)
	return res
}

// RegenerateCopy asks for fresh copy only. Failures yield the
// "Nova Oferta" defaults.
func (o *Orchestrator) RegenerateCopy(ctx context.Context, offerText, style string) Content {
	if o.text == nil {
		c, _ := ParseCopy("", offerText)
		return c
	}

	raw, err := o.text.GenerateJSON(ctx, TextRequest{Prompt: CopyInstruction(offerText, style)})
	if err != nil {
		o.logger.Warn("copy regeneration failed", zap.Error(err))
		c, _ := ParseCopy("", offerText)
		return c
	}

	c, ok := ParseCopy(raw, offerText)
	if !ok {
		o.logger.Warn("copy response was not json", zap.Int("length", len(raw)))
	}
	return c
}

func (o *Orchestrator) reference(req Request) *InlineImage {
	if strings.TrimSpace(req.ReferenceImage) == "" {
		return nil
	}
	mimeType, data, err := dataurl.Decode(req.ReferenceImage)
	if err != nil {
		o.logger.Warn("reference image dropped", zap.Error(err))
		return nil
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return &InlineImage{MIMEType: mimeType, Data: data}
}

func (o *Orchestrator) draft(ctx context.Context, req Request, ref *InlineImage) (Draft, error) {
	if o.text == nil {
		return Draft{}, errNoTextModel
	}

	treq := TextRequest{Prompt: BuildInstruction(req)}
	if ref != nil {
		treq.Reference = ref
		treq.ReferenceNote = ReferenceInstruction(req)
	}

	raw, err := o.text.GenerateJSON(ctx, treq)
	if err != nil {
		return Draft{}, fmt.Errorf("generate copy: %w", err)
	}

	draft, ok := ParseModelOutput(raw, req)
	if !ok {
		o.logger.Warn("campaign json parse failed, using defaults", zap.Int("length", len(raw)))
	}
	return draft, nil
}

type variantImage struct {
	url  string
	slot Slot
}

func (o *Orchestrator) images(ctx context.Context, req Request, prompt string, ref *InlineImage) ([]string, []Slot) {
	composed := ComposeImagePrompt(prompt, req)
	width, height := req.Aspect.Dimensions()

	runner := batch.Runner{Concurrency: o.concurrency, Timeout: o.variantTimeout}
	outcomes := batch.Run(ctx, runner, o.variants, func(ctx context.Context, i int) (variantImage, error) {
		return o.variant(ctx, req, prompt, composed, ref, i)
	})

	for _, out := range outcomes {
		if !out.OK() {
			o.logger.Warn("variant dropped", zap.Int("variant", out.Index), zap.Error(out.Err))
		}
	}

	done := batch.Succeeded(outcomes)
	images := make([]string, 0, len(done))
	slots := make([]Slot, 0, len(done))
	for _, v := range done {
		images = append(images, v.url)
		slots = append(slots, v.slot)
	}

	if len(images) == 0 {
		url := o.placeholder(coalesce(composed, floorPrompt), width, height, 0)
		images = append(images, url)
		slots = append(slots, Slot{Index: 0, Origin: OriginPlaceholder, Error: "all variants failed"})
	}
	return images, slots
}

func (o *Orchestrator) variant(ctx context.Context, req Request, prompt, composed string, ref *InlineImage, i int) (variantImage, error) {
	primaryErr := errNoImageModel
	if o.image != nil {
		img, err := o.image.GenerateImage(ctx, ImageRequest{
			Prompt:      VariantPrompt(prompt, req, i),
			AspectRatio: req.Aspect.Ratio(),
			Reference:   ref,
		})
		if err == nil && img != "" {
			return variantImage{url: img, slot: Slot{Index: i, Origin: OriginPrimary}}, nil
		}
		if err == nil {
			err = errEmptyImage
		}
		primaryErr = err
		o.logger.Warn("image variant failed, using fallback", zap.Int("variant", i), zap.Error(err))
	}

	if o.fallback == nil {
		return variantImage{}, fmt.Errorf("variant %d: %w", i, primaryErr)
	}
	width, height := req.Aspect.Dimensions()
	url, err := o.fallback.URL(composed, width, height, i*100)
	if err != nil {
		return variantImage{}, fmt.Errorf("variant %d: primary: %v, fallback: %w", i, primaryErr, err)
	}
	return variantImage{url: url, slot: Slot{Index: i, Origin: OriginFallback, Error: primaryErr.Error()}}, nil
}

// placeholder always returns an image: the fallback service URL, or the
// built-in gradient when no URL can be built.
func (o *Orchestrator) placeholder(prompt string, width, height, seedOffset int) string {
	if o.fallback != nil {
		url, err := o.fallback.URL(prompt, width, height, seedOffset)
		if err == nil {
			return url
		}
		o.logger.Error("fallback image unavailable", zap.Error(err))
	}
	return PlaceholderImage
}

func (o *Orchestrator) failed(res Result, req Request, err error) Result {
	width, height := req.Aspect.Dimensions()

	res.Images = []string{o.placeholder(failurePrompt, width, height, 999)}
	res.Slots = []Slot{{Index: 0, Origin: OriginPlaceholder, Error: err.Error()}}
	res.Content = Content{
		Headline:  "Erro na IA",
		Subtext:   offerOrDefault(req.OfferText),
		Highlight: "Tente Novamente",
	}
	res.Audit = defaultAudit()
	res.Social = defaultSocial(req)
	res.Calendar = defaultCalendar(req)
	res.Scripts = defaultScripts(req)
	res.ImagePrompt = failurePrompt
	res.Status = StatusFailed
	res.Err = err.Error()
	return res
}

const placeholderSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="1024" height="1024">` +
	`<defs><linearGradient id="g" x1="0" y1="0" x2="1" y2="1">` +
	`<stop offset="0" stop-color="#1e3a8a"/><stop offset="1" stop-color="#9333ea"/>` +
	`</linearGradient></defs><rect width="100%" height="100%" fill="url(#g)"/></svg>`

// PlaceholderImage is a gradient used when not even a fallback URL can be built.
var PlaceholderImage = dataurl.Encode("image/svg+xml", []byte(placeholderSVG))
