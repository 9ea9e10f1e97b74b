package campaign

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Draft is the text stage output after every section has been checked.
type Draft struct {
	Content     Content
	Audit       Audit
	Social      SocialPost
	Calendar    []DayPlan
	Scripts     SalesScripts
	ImagePrompt string
	// Defaulted names the sections that were replaced by their defaults.
	Defaulted []string
}

var fenceReplacer = strings.NewReplacer("```json", "", "```JSON", "", "```", "")

// CleanJSON strips markdown code fences and any prose around the outermost
// JSON object.
func CleanJSON(text string) string {
	text = strings.TrimSpace(fenceReplacer.Replace(text))
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start >= 0 && end > start {
		text = text[start : end+1]
	}
	return text
}

// ParseModelOutput decodes the model's JSON for req. Each section is decoded
// and validated on its own; a section that is missing or invalid takes its
// default. ok is false when the text was not a JSON object at all.
func ParseModelOutput(text string, req Request) (draft Draft, ok bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(CleanJSON(text)), &fields); err != nil || fields == nil {
		return fallbackDraft(req), false
	}

	d := Draft{}
	mark := func(section string) { d.Defaulted = append(d.Defaulted, section) }

	d.Content = parseContent(fields, req, mark)

	if a, err := decodeAudit(fields["audit"]); err == nil {
		d.Audit = a
	} else {
		d.Audit = defaultAudit()
		mark("audit")
	}

	if s, err := decodeSocial(fields["socialPost"]); err == nil {
		d.Social = s
	} else {
		d.Social = defaultSocial(req)
		mark("socialPost")
	}

	cal, complete := decodeCalendar(fields["calendar"], req)
	d.Calendar = cal
	if !complete && req.Complex {
		mark("calendar")
	}

	if s, err := decodeSection[SalesScripts](fields["salesScripts"]); err == nil {
		d.Scripts = s
	} else {
		d.Scripts = defaultScripts(req)
		if req.Complex {
			mark("salesScripts")
		}
	}

	var prompt flexText
	if err := decodeField(fields["imagePrompt"], &prompt); err == nil && strings.TrimSpace(string(prompt)) != "" {
		d.ImagePrompt = strings.TrimSpace(string(prompt))
	} else {
		d.ImagePrompt = defaultImagePrompt
		mark("imagePrompt")
	}

	return d, true
}

// ParseCopy decodes a copy-only response. On failure the copy reads
// "Nova Oferta" / offer text / "Confira".
func ParseCopy(text, offerText string) (Content, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(CleanJSON(text)), &fields); err != nil || fields == nil {
		return Content{Headline: "Nova Oferta", Subtext: offerOrDefault(offerText), Highlight: "Confira"}, false
	}

	return Content{
		Headline:  coalesce(textField(fields, "headline"), "Oferta"),
		Subtext:   coalesce(textField(fields, "subtext"), offerOrDefault(offerText)),
		Highlight: coalesce(textField(fields, "highlight"), "Confira"),
	}, true
}

const defaultImagePrompt = "Simple background"

func fallbackDraft(req Request) Draft {
	firstLine := strings.TrimSpace(strings.SplitN(req.OfferText, "\n", 2)[0])
	return Draft{
		Content: Content{
			Headline:  coalesce(truncateRunes(firstLine, 20), "Oferta"),
			Subtext:   offerOrDefault(req.OfferText),
			Highlight: coalesce(strings.TrimSpace(req.HighlightText), "Oferta"),
		},
		Audit:       defaultAudit(),
		Social:      defaultSocial(req),
		Calendar:    defaultCalendar(req),
		Scripts:     defaultScripts(req),
		ImagePrompt: defaultImagePrompt,
		Defaulted:   []string{"content", "audit", "socialPost", "calendar", "salesScripts", "imagePrompt"},
	}
}

func parseContent(fields map[string]json.RawMessage, req Request, mark func(string)) Content {
	c := Content{
		Headline:  textField(fields, "headline"),
		Subtext:   textField(fields, "subtext"),
		Highlight: textField(fields, "highlight"),
	}
	if validate.Struct(c) == nil {
		return c
	}

	mark("content")
	return Content{
		Headline:  coalesce(c.Headline, "Oferta"),
		Subtext:   coalesce(c.Subtext, offerOrDefault(req.OfferText)),
		Highlight: coalesce(c.Highlight, strings.TrimSpace(req.HighlightText), "Confira"),
	}
}

type auditWire struct {
	Score        json.RawMessage `json:"score"`
	Strengths    flexList        `json:"strengths"`
	Improvements flexList        `json:"improvements"`
	Verdict      flexText        `json:"verdict"`
}

func decodeAudit(raw json.RawMessage) (Audit, error) {
	var w auditWire
	if err := decodeField(raw, &w); err != nil {
		return Audit{}, err
	}
	score, err := parseScore(w.Score)
	if err != nil {
		return Audit{}, err
	}
	a := Audit{
		Score:        score,
		Strengths:    []string(w.Strengths),
		Improvements: []string(w.Improvements),
		Verdict:      strings.TrimSpace(string(w.Verdict)),
	}
	if err := validate.Struct(a); err != nil {
		return Audit{}, err
	}
	return a, nil
}

type socialWire struct {
	Caption  flexText `json:"caption"`
	Hashtags flexList `json:"hashtags"`
}

func decodeSocial(raw json.RawMessage) (SocialPost, error) {
	var w socialWire
	if err := decodeField(raw, &w); err != nil {
		return SocialPost{}, err
	}
	s := SocialPost{
		Caption:  strings.TrimSpace(string(w.Caption)),
		Hashtags: normalizeHashtags(w.Hashtags),
	}
	if err := validate.Struct(s); err != nil {
		return SocialPost{}, err
	}
	return s, nil
}

// decodeCalendar keeps the valid model entries, renumbers them and pads or
// trims the plan to exactly five days.
func decodeCalendar(raw json.RawMessage, req Request) ([]DayPlan, bool) {
	defaults := defaultCalendar(req)

	var entries []DayPlan
	if err := decodeField(raw, &entries); err != nil {
		return defaults, false
	}

	out := make([]DayPlan, 0, calendarDays)
	for _, e := range entries {
		if len(out) == calendarDays {
			break
		}
		e.Theme, e.Idea = strings.TrimSpace(e.Theme), strings.TrimSpace(e.Idea)
		if validate.Struct(e) != nil {
			continue
		}
		out = append(out, e)
	}

	complete := len(out) == calendarDays
	for len(out) < calendarDays {
		out = append(out, defaults[len(out)])
	}
	for i := range out {
		out[i].Day = fmt.Sprintf("Dia %d", i+1)
	}
	return out, complete
}

func decodeSection[T any](raw json.RawMessage) (T, error) {
	var v T
	if err := decodeField(raw, &v); err != nil {
		return v, err
	}
	if err := validate.Struct(v); err != nil {
		return v, err
	}
	return v, nil
}

var errMissing = errors.New("missing field")

func decodeField(raw json.RawMessage, v any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return errMissing
	}
	return json.Unmarshal(raw, v)
}

func textField(fields map[string]json.RawMessage, key string) string {
	var v flexText
	if err := decodeField(fields[key], &v); err != nil {
		return ""
	}
	return strings.TrimSpace(string(v))
}

func parseScore(raw json.RawMessage) (int, error) {
	var n float64
	if err := decodeField(raw, &n); err != nil {
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return 0, fmt.Errorf("score: %w", err)
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "%")
		if n, err = strconv.ParseFloat(s, 64); err != nil {
			return 0, fmt.Errorf("score: %w", err)
		}
	}
	return int(math.Max(0, math.Min(100, math.Round(n)))), nil
}

func normalizeHashtags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		tag = strings.TrimLeft(tag, "#")
		tag = strings.ReplaceAll(tag, " ", "")
		if tag == "" {
			continue
		}
		out = append(out, "#"+tag)
	}
	return out
}

// flexText accepts a JSON string, a list of strings (joined by newlines) or a
// number.
type flexText string

func (t *flexText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*t = ""
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = flexText(s)
		return nil
	case data[0] == '[':
		var items []string
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*t = flexText(strings.Join(items, "\n"))
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*t = flexText(n.String())
		return nil
	}
}

// flexList accepts a list of strings or one string separated by commas,
// newlines or spaces (hashtags).
type flexList []string

func (l *flexList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		sep := func(r rune) bool { return r == ',' || r == '\n' || r == ';' }
		if strings.HasPrefix(strings.TrimSpace(s), "#") {
			sep = func(r rune) bool { return r == ',' || r == '\n' || r == ' ' }
		}
		*l = trimAll(strings.FieldsFunc(s, sep))
		return nil
	}
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*l = trimAll(items)
	return nil
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func coalesce(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func offerOrDefault(offer string) string {
	return coalesce(strings.TrimSpace(offer), "Oferta")
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func offerHeadline(req Request) string {
	first := strings.TrimSpace(strings.SplitN(req.OfferText, "\n", 2)[0])
	return coalesce(first, "nossa oferta")
}

func defaultAudit() Audit {
	return Audit{
		Score:        0,
		Strengths:    []string{"Oferta objetiva"},
		Improvements: []string{"Reforce o benefício principal e adicione um prazo para a oferta"},
		Verdict:      "Análise indisponível no momento.",
	}
}

func defaultSocial(req Request) SocialPost {
	caption := offerOrDefault(req.OfferText)
	if h := strings.TrimSpace(req.HighlightText); h != "" {
		caption += "\n\n" + h
	}
	return SocialPost{
		Caption:  caption,
		Hashtags: []string{"#oferta", "#promocao", "#compreagora"},
	}
}

var calendarThemes = []struct{ theme, idea string }{
	{"Apresentação", "Apresente %s com uma foto de destaque e o benefício principal."},
	{"Educativo", "Mostre como usar %s no dia a dia em um vídeo curto."},
	{"Prova Social", "Compartilhe a opinião de um cliente satisfeito sobre %s."},
	{"Bastidores", "Mostre os bastidores da preparação de %s."},
	{"Última Chamada", "Reforce a oferta de %s e avise que está acabando."},
}

func defaultCalendar(req Request) []DayPlan {
	subject := offerHeadline(req)
	out := make([]DayPlan, 0, calendarDays)
	for i, t := range calendarThemes {
		out = append(out, DayPlan{
			Day:   fmt.Sprintf("Dia %d", i+1),
			Theme: t.theme,
			Idea:  fmt.Sprintf(t.idea, subject),
		})
	}
	return out
}

func defaultScripts(req Request) SalesScripts {
	subject := offerHeadline(req)
	return SalesScripts{
		Approach:  fmt.Sprintf("Olá! Vi que você se interessou por %s. Posso te mostrar os detalhes?", subject),
		Objection: "Entendo a sua dúvida. Pense no quanto você ganha com esse benefício: o investimento se paga rápido.",
		Closing:   "A condição é por tempo limitado. Posso garantir o seu agora?",
	}
}
