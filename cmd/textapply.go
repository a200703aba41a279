package cmd

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/launchbrief/campaigner/internal/concept"
	"github.com/launchbrief/campaigner/internal/config"
	"github.com/launchbrief/campaigner/internal/fetch"
	"github.com/launchbrief/campaigner/internal/render"
	"github.com/spf13/cobra"
)

func newTextApplyCmd() *cobra.Command {
	var (
		imagePath   string
		conceptPath string
		headline    string
		body        string
		cta         string
		position    string
		fontName    string
		fontDir     string
		textColor   string
		outPath     string
	)

	cmd := &cobra.Command{
		Use:   "textapply",
		Short: "Apply text overlay to an existing image",
		Long: `Apply text overlay to an existing image without regenerating it.

Copy comes from a concept file (--concept) or from the --headline, --body,
and --cta flags. The result is written next to the input with a _with_text
suffix unless --out is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}

			opts := render.TextOptions{
				Headline:     headline,
				Body:         body,
				CallToAction: cta,
				Position:     position,
				FontName:     firstNonEmpty(fontName, cfg.Render.Font),
				FontDir:      firstNonEmpty(fontDir, cfg.Render.FontDir),
				Color:        firstNonEmpty(textColor, cfg.Render.TextColor),
			}

			if conceptPath != "" {
				c, err := concept.Load(conceptPath)
				if err != nil {
					return err
				}
				opts.Headline = firstNonEmpty(opts.Headline, c.Copy.Headline)
				opts.Body = firstNonEmpty(opts.Body, c.Copy.Body)
				opts.CallToAction = firstNonEmpty(opts.CallToAction, c.Copy.CallToAction)

				if o := c.Overlay; o != nil {
					if !cmd.Flags().Changed("position") && o.Position != "" {
						opts.Position = o.Position
					}
					if fontName == "" && o.Font != "" {
						opts.FontName = o.Font
					}
					if textColor == "" && o.Color != "" {
						opts.Color = o.Color
					}
					opts.NoShadow = o.NoShadow
				}
			}

			img, err := fetch.NewFetcher().Image(imagePath)
			if err != nil {
				return err
			}

			out, err := render.ApplyText(img, opts)
			if err != nil {
				return err
			}

			if outPath == "" {
				ext := filepath.Ext(imagePath)
				outPath = strings.TrimSuffix(imagePath, ext) + "_with_text.png"
			}

			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("failed to create output: %w", err)
			}
			defer f.Close()

			if err := png.Encode(f, out); err != nil {
				return fmt.Errorf("failed to encode output: %w", err)
			}

			fmt.Printf("Wrote %s\n", outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&imagePath, "image", "", "image to annotate (required)")
	cmd.Flags().StringVar(&conceptPath, "concept", "", "concept file providing the copy")
	cmd.Flags().StringVar(&headline, "headline", "", "headline text")
	cmd.Flags().StringVar(&body, "body", "", "body text")
	cmd.Flags().StringVar(&cta, "cta", "", "call to action text")
	cmd.Flags().StringVar(&position, "position", "bottom", "text position: top, center, or bottom")
	cmd.Flags().StringVar(&fontName, "font", "", "font name")
	cmd.Flags().StringVar(&fontDir, "font-dir", "", "directory searched for font files")
	cmd.Flags().StringVar(&textColor, "color", "", "text color as #RRGGBB or #RRGGBBAA")
	cmd.Flags().StringVar(&outPath, "out", "", "output path")

	if err := cmd.MarkFlagRequired("image"); err != nil {
		panic(err)
	}

	return cmd
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
