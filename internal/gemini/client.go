// Package gemini adapts the Gemini API to the campaign model ports: one
// JSON-mode text model and one image model.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"oferta-studio/internal/campaign"
	"oferta-studio/internal/logging"
)

const (
	DefaultTextModel  = "gemini-2.5-flash"
	DefaultImageModel = "gemini-2.5-flash-image"
)

var (
	ErrMissingAPIKey = errors.New("gemini api key is not configured")
	ErrNoImage       = errors.New("gemini response has no image")
	ErrBlocked       = errors.New("gemini response was blocked")
	ErrEmptyText     = errors.New("gemini response has no text")
)

const imageOnlyHint = "Return the result only as an image (inlineData). Do not write text, JSON or links."

// contentGenerator is the slice of the SDK the client uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Options struct {
	APIKey     string
	TextModel  string
	ImageModel string
	// Temperature for the text model. Zero keeps the model default.
	Temperature float32
	HTTPClient  *http.Client
	Logger      *zap.Logger
}

type Client struct {
	models      contentGenerator
	textModel   string
	imageModel  string
	temperature float32
	logger      *zap.Logger
}

// New builds a client. An empty API key is not an error: every call then
// fails with ErrMissingAPIKey so callers degrade instead of refusing to start.
func New(ctx context.Context, opts Options) (*Client, error) {
	c := newClient(nil, opts)

	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		c.logger.Warn("gemini api key missing, generation will use fallbacks")
		return c, nil
	}

	sdk, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	c.models = sdk.Models
	return c, nil
}

func newClient(models contentGenerator, opts Options) *Client {
	textModel := strings.TrimSpace(opts.TextModel)
	if textModel == "" {
		textModel = DefaultTextModel
	}
	imageModel := strings.TrimSpace(opts.ImageModel)
	if imageModel == "" {
		imageModel = DefaultImageModel
	}

	return &Client{
		models:      models,
		textModel:   textModel,
		imageModel:  imageModel,
		temperature: opts.Temperature,
		logger:      logging.OrNop(opts.Logger).Named("gemini"),
	}
}

// GenerateJSON sends one JSON-mode request and returns the raw response text.
func (c *Client) GenerateJSON(ctx context.Context, req campaign.TextRequest) (string, error) {
	if c.models == nil {
		return "", ErrMissingAPIKey
	}

	cfg := &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}
	if c.temperature > 0 {
		cfg.Temperature = genai.Ptr(c.temperature)
	}

	contents := []*genai.Content{userContent(req.Prompt, req.Reference, req.ReferenceNote)}

	resp, err := c.models.GenerateContent(ctx, c.textModel, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("generate json: %w", err)
	}
	if err := blocked(resp); err != nil {
		return "", err
	}

	text, _ := extractParts(resp)
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}
	c.logger.Debug("text response", zap.String("model", c.textModel), zap.Int("length", len(text)))
	return text, nil
}

// GenerateImage requests one image at req.AspectRatio and returns it as a
// data URI. A text-only answer is retried once with an image-only hint.
func (c *Client) GenerateImage(ctx context.Context, req campaign.ImageRequest) (string, error) {
	if c.models == nil {
		return "", ErrMissingAPIKey
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return "", errors.New("prompt is empty")
	}

	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
	}
	if req.AspectRatio != "" {
		cfg.ImageConfig = &genai.ImageConfig{AspectRatio: req.AspectRatio}
	}

	img, err := c.generateImage(ctx, imagePromptContent(prompt, req.Reference), cfg)
	if errors.Is(err, ErrNoImage) {
		c.logger.Debug("image model answered with text, retrying", zap.String("model", c.imageModel))
		img, err = c.generateImage(ctx, imagePromptContent(prompt+"\n\n"+imageOnlyHint, req.Reference), cfg)
	}
	return img, err
}

func (c *Client) generateImage(ctx context.Context, content *genai.Content, cfg *genai.GenerateContentConfig) (string, error) {
	resp, err := c.models.GenerateContent(ctx, c.imageModel, []*genai.Content{content}, cfg)
	if err != nil && cfg.ImageConfig != nil && isUnknownFieldError(err, "imageConfig") {
		retry := *cfg
		retry.ImageConfig = nil
		resp, err = c.models.GenerateContent(ctx, c.imageModel, []*genai.Content{content}, &retry)
	}
	if err != nil {
		return "", fmt.Errorf("generate image: %w", err)
	}

	if _, images := extractParts(resp); len(images) > 0 {
		return images[0], nil
	}
	if err := blocked(resp); err != nil {
		return "", err
	}
	return "", ErrNoImage
}

func isUnknownFieldError(err error, field string) bool {
	message := err.Error()
	return strings.Contains(message, "Unknown name") && strings.Contains(message, field)
}
