package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"oferta-studio/internal/app"
	"oferta-studio/internal/campaign"
	"oferta-studio/internal/config"
	"oferta-studio/internal/dataurl"
	"oferta-studio/internal/logging"
	"oferta-studio/internal/palette"
)

type cli struct {
	verbose bool
	timeout time.Duration

	cfg    config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "studio",
		Short: "Generate marketing campaigns for small-business offers",
		Long: `studio turns an offer text into ad images, copy, a quality audit and a
social post. It reads the same environment as the web server and the bot
(GEMINI_API_KEY, STUDIO_TUNING_FILE, ...).`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			level := cfg.LogLevel
			if c.verbose {
				level = "debug"
			}
			logger, err := logging.New(level, false)
			if err != nil {
				return err
			}
			c.cfg = cfg
			c.logger = logger
			return nil
		},
	}

	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().DurationVar(&c.timeout, "timeout", 3*time.Minute, "Operation timeout")

	root.AddCommand(
		c.paletteCmd(),
		c.generateCmd(),
		c.copyCmd(),
		c.stylesCmd(),
	)
	return root
}

func (c *cli) paletteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "palette [image-file]",
		Short: "Extract the brand palette of a logo",
		Long: `Prints up to five dominant colors of the logo, most frequent first.
Transparent and near-white/near-black background pixels are ignored.

Example:
  studio palette logo.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			extractor := palette.New(c.cfg.Palette, c.logger)
			colors := extractor.Extract(cmd.Context(), f)
			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"palette":  colors,
				"swatches": palette.Swatches(colors),
			})
		},
	}
}

func (c *cli) generateCmd() *cobra.Command {
	var (
		req    campaign.Request
		aspect string
		ref    string
		outDir string
	)

	cmd := &cobra.Command{
		Use:   "generate [offer text]",
		Short: "Run a full campaign generation",
		Long: `Generates images, copy, audit and social post for the offer and prints
the result as JSON. With --out, inline images are written to files and
replaced by their paths.

Example:
  studio generate "Pizza grande por R$39,90" --highlight "Só hoje" --style gourmet --aspect 9:16`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.context(cmd)
			defer cancel()

			req.OfferText = strings.Join(args, " ")
			req.Aspect = campaign.ParseAspect(aspect)
			if ref != "" {
				data, err := os.ReadFile(ref)
				if err != nil {
					return fmt.Errorf("read reference image: %w", err)
				}
				req.ReferenceImage = dataurl.Encode("", data)
			}

			studio, err := app.New(ctx, c.cfg, c.logger)
			if err != nil {
				return err
			}

			res := studio.Orchestrator.Generate(ctx, req)
			if studio.Publisher != nil {
				studio.Publisher.Publish(ctx, &res)
			}
			if outDir != "" {
				if err := saveImages(outDir, &res); err != nil {
					return err
				}
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}

	f := cmd.Flags()
	f.StringVar(&req.HighlightText, "highlight", "", "Highlight phrase")
	f.StringVar(&aspect, "aspect", "square", "square, portrait, landscape or a ratio like 9:16")
	f.StringVar(&req.Style, "style", "", "Visual style tag")
	f.StringVar(&req.Strategy, "strategy", "", "Sales strategy tag")
	f.StringVar(&req.BrandColor, "brand-color", "", "Brand color as #rrggbb")
	f.StringVar(&req.CustomPrompt, "prompt", "", "Extra art direction")
	f.StringVar(&ref, "reference", "", "Reference image file to remix")
	f.BoolVar(&req.IsolateProduct, "isolate", false, "Isolate the product on a clean background")
	f.BoolVar(&req.Pro, "pro", false, "Use the pro quality tier")
	f.BoolVar(&req.Complex, "complex", false, "Also produce the content calendar and sales scripts")
	f.BoolVar(&req.SkipImages, "skip-images", false, "Only generate text")
	f.StringVarP(&outDir, "out", "o", "", "Directory for generated images")
	return cmd
}

func (c *cli) copyCmd() *cobra.Command {
	var style string

	cmd := &cobra.Command{
		Use:   "copy [offer text]",
		Short: "Regenerate headline, subtext and highlight only",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.context(cmd)
			defer cancel()

			studio, err := app.New(ctx, c.cfg, c.logger)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), studio.Orchestrator.RegenerateCopy(ctx, strings.Join(args, " "), style))
		},
	}
	cmd.Flags().StringVar(&style, "style", "", "Visual style tag")
	return cmd
}

func (c *cli) stylesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "styles",
		Short: "List styles, strategies and aspect ratios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"styles":     campaign.Styles(),
				"strategies": campaign.Strategies(),
				"aspects":    campaign.Aspects(),
			})
		},
	}
}

func (c *cli) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

// saveImages writes inline images to dir and swaps in the file paths.
func saveImages(dir string, res *campaign.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for i, img := range res.Images {
		if !dataurl.IsDataURL(img) {
			continue
		}
		mimeType, data, err := dataurl.Decode(img)
		if err != nil {
			continue
		}
		path := filepath.Join(dir, fmt.Sprintf("%s-%d%s", res.ID, i+1, extension(mimeType)))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return err
		}
		res.Images[i] = path
	}
	return nil
}

func extension(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/svg+xml":
		return ".svg"
	default:
		return ".jpg"
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
