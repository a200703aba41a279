package cmd

import (
	"fmt"
	"image/png"
	"os"

	"github.com/launchbrief/campaigner/internal/config"
	"github.com/launchbrief/campaigner/internal/imagegen"
	"github.com/spf13/cobra"
)

func newGenerateCmd() *cobra.Command {
	var (
		prompt   string
		negative string
		ratio    string
		model    string
		seed     int64
		outPath  string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Render a single image from a prompt",
		Long: `Render a single image from a prompt, outside the concept workflow.

Useful for trying prompts and aspect ratios before committing them to a
campaign. The image is written as PNG.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if model == "" {
				model = cfg.Image.Model
			}

			client, err := imagegen.NewClient(imagegen.Options{Model: model})
			if err != nil {
				return err
			}

			generated, err := client.Generate(cmd.Context(), imagegen.Request{
				Prompt:         prompt,
				NegativePrompt: negative,
				AspectRatio:    ratio,
				Seed:           seed,
			})
			if err != nil {
				return err
			}

			img, err := imagegen.Decode(generated.Data)
			if err != nil {
				return err
			}

			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", outPath, err)
			}
			defer f.Close()
			if err := png.Encode(f, img); err != nil {
				return fmt.Errorf("failed to encode %s: %w", outPath, err)
			}

			fmt.Printf("Wrote %s\n", outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&prompt, "prompt", "", "text-to-image prompt (required)")
	cmd.Flags().StringVar(&negative, "negative", "", "elements the image must avoid")
	cmd.Flags().StringVar(&ratio, "ratio", "1:1", "aspect ratio: 1:1, 9:16, or 16:9")
	cmd.Flags().StringVar(&model, "model", "", "image generation model")
	cmd.Flags().Int64Var(&seed, "seed", 0, "generation seed")
	cmd.Flags().StringVar(&outPath, "out", "generated.png", "output PNG path")

	if err := cmd.MarkFlagRequired("prompt"); err != nil {
		panic(err)
	}

	return cmd
}
