// Package transport exposes the studio over HTTP.
package transport

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"oferta-studio/internal/assets"
	"oferta-studio/internal/campaign"
	"oferta-studio/internal/logging"
	"oferta-studio/internal/palette"
	"oferta-studio/internal/quota"
)

const (
	DefaultMaxBodyBytes   = 25 << 20
	DefaultRequestTimeout = 180 * time.Second

	headerUserID = "X-User-ID"
	headerPlan   = "X-User-Plan"
)

type Studio interface {
	Generate(ctx context.Context, req campaign.Request) campaign.Result
	RegenerateCopy(ctx context.Context, offerText, style string) campaign.Content
}

type PaletteExtractor interface {
	ExtractBytes(ctx context.Context, data []byte) []string
	ExtractDataURL(ctx context.Context, value string) []string
}

type Options struct {
	Studio    Studio
	Palette   PaletteExtractor
	Quota     *quota.Limiter
	Publisher *assets.Publisher
	Logger    *zap.Logger

	RequestTimeout time.Duration
	MaxBodyBytes   int64
	Version        string
	// Static, when set, is served for every unmatched GET.
	Static fs.FS
}

type server struct {
	studio    Studio
	palette   PaletteExtractor
	quota     *quota.Limiter
	publisher *assets.Publisher
	logger    *zap.Logger
	timeout   time.Duration
	version   string
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type CampaignRequest struct {
	OfferText      string `json:"offerText" binding:"required,max=2000"`
	HighlightText  string `json:"highlightText" binding:"max=200"`
	Aspect         string `json:"aspect"`
	CustomPrompt   string `json:"customPrompt" binding:"max=2000"`
	ReferenceImage string `json:"referenceImage"`
	SkipImages     bool   `json:"skipImages"`
	Style          string `json:"style"`
	IsolateProduct bool   `json:"isolateProduct"`
	BrandColor     string `json:"brandColor" binding:"omitempty,hexcolor"`
	Strategy       string `json:"strategy"`
	Complex        bool   `json:"complex"`
}

type CampaignResponse struct {
	campaign.Result
	Usage quota.Usage `json:"usage"`
}

type PaletteRequest struct {
	Image string `json:"image" binding:"required"`
}

type PaletteResponse struct {
	Palette  []string         `json:"palette"`
	Swatches []palette.Swatch `json:"swatches"`
}

type CopyRequest struct {
	OfferText string `json:"offerText" binding:"required,max=2000"`
	Style     string `json:"style"`
}

func NewHandler(opts Options) http.Handler {
	logger := logging.OrNop(opts.Logger).Named("http")

	s := &server{
		studio:    opts.Studio,
		palette:   opts.Palette,
		quota:     opts.Quota,
		publisher: opts.Publisher,
		logger:    logger,
		timeout:   opts.RequestTimeout,
		version:   opts.Version,
	}
	if s.quota == nil {
		s.quota = quota.New(quota.Options{})
	}
	if s.timeout <= 0 {
		s.timeout = DefaultRequestTimeout
	}
	if s.version == "" {
		s.version = "dev"
	}
	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(
		gin.Recovery(),
		requestLogger(logger),
		requestSizeLimiter(maxBody),
	)

	r.GET("/health", s.health)

	api := r.Group("/api")
	api.GET("/styles", s.options)
	api.POST("/palette", s.extractPalette)
	api.POST("/campaigns", s.generate)
	api.POST("/copy", s.regenerateCopy)

	if opts.Static != nil {
		files := http.FileServer(http.FS(opts.Static))
		r.NoRoute(func(c *gin.Context) {
			if c.Request.Method != http.MethodGet {
				respondError(c, http.StatusNotFound, "not found", nil)
				return
			}
			files.ServeHTTP(c.Writer, c.Request)
		})
	}

	return r
}

func (s *server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": s.version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *server) options(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"styles":     campaign.Styles(),
		"strategies": campaign.Strategies(),
		"aspects":    campaign.Aspects(),
	})
}

func (s *server) generate(c *gin.Context) {
	var body CampaignRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, bindStatus(err), "invalid request format", err)
		return
	}
	if strings.TrimSpace(body.OfferText) == "" {
		respondError(c, http.StatusBadRequest, "offerText is required", nil)
		return
	}

	userID, pro := caller(c)
	usage, release, err := s.quota.Reserve(userID, pro)
	if err != nil {
		c.Header("Retry-After", strconv.Itoa(secondsUntilTomorrow()))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": "daily generation limit reached",
			"usage": usage,
		})
		return
	}
	committed := false
	defer func() { release(committed) }()

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.timeout)
	defer cancel()

	req := campaign.Request{
		OfferText:      body.OfferText,
		HighlightText:  body.HighlightText,
		Aspect:         campaign.ParseAspect(body.Aspect),
		CustomPrompt:   body.CustomPrompt,
		ReferenceImage: body.ReferenceImage,
		SkipImages:     body.SkipImages,
		Pro:            pro,
		Style:          body.Style,
		IsolateProduct: body.IsolateProduct,
		BrandColor:     body.BrandColor,
		Strategy:       body.Strategy,
		Complex:        body.Complex,
	}

	res := s.studio.Generate(ctx, req)
	committed = res.Status != campaign.StatusFailed
	release(committed)
	if !committed {
		usage, _ = s.quota.Check(userID, pro)
	}
	if n := s.publisher.Publish(ctx, &res); n > 0 {
		s.logger.Debug("images published", zap.String("id", res.ID), zap.Int("count", n))
	}

	s.logger.Info("campaign served",
		zap.String("id", res.ID),
		zap.String("user", userID),
		zap.String("status", string(res.Status)),
	)
	c.JSON(http.StatusOK, CampaignResponse{Result: res, Usage: usage})
}

// extractPalette accepts a multipart "logo" file or a JSON data URL.
func (s *server) extractPalette(c *gin.Context) {
	if s.palette == nil {
		respondError(c, http.StatusServiceUnavailable, "palette extraction unavailable", nil)
		return
	}

	var colors []string
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		header, err := c.FormFile("logo")
		if err != nil {
			respondError(c, bindStatus(err), "missing logo", err)
			return
		}
		f, err := header.Open()
		if err != nil {
			respondError(c, http.StatusBadRequest, "failed to read logo", err)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			respondError(c, bindStatus(err), "failed to read logo", err)
			return
		}
		colors = s.palette.ExtractBytes(c.Request.Context(), data)
	} else {
		var body PaletteRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			respondError(c, bindStatus(err), "invalid request format", err)
			return
		}
		colors = s.palette.ExtractDataURL(c.Request.Context(), body.Image)
	}

	c.JSON(http.StatusOK, PaletteResponse{Palette: colors, Swatches: palette.Swatches(colors)})
}

func (s *server) regenerateCopy(c *gin.Context) {
	var body CopyRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, bindStatus(err), "invalid request format", err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.timeout)
	defer cancel()

	c.JSON(http.StatusOK, s.studio.RegenerateCopy(ctx, body.OfferText, body.Style))
}

// caller identifies the quota bucket. Anonymous callers share their IP.
func caller(c *gin.Context) (userID string, pro bool) {
	userID = strings.TrimSpace(c.GetHeader(headerUserID))
	if userID == "" {
		userID = "ip:" + c.ClientIP()
	}
	pro = strings.EqualFold(strings.TrimSpace(c.GetHeader(headerPlan)), "pro")
	return userID, pro
}

func secondsUntilTomorrow() int {
	now := time.Now().UTC()
	tomorrow := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)
	return int(tomorrow.Sub(now).Seconds()) + 1
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.String("ip", c.ClientIP()),
			zap.Duration("elapsed", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("error", c.Errors.String()))
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Error("http", fields...)
			return
		}
		logger.Info("http", fields...)
	}
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func bindStatus(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func respondError(c *gin.Context, code int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Message = err.Error()
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(code, resp)
}
