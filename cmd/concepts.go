package cmd

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/launchbrief/campaigner/internal/brief"
	"github.com/launchbrief/campaigner/internal/concept"
	"github.com/launchbrief/campaigner/internal/config"
	"github.com/launchbrief/campaigner/internal/llm"
	"github.com/spf13/cobra"
)

func newConceptsCmd() *cobra.Command {
	var (
		briefPath   string
		outDir      string
		count       int
		model       string
		temperature float64
		languages   []string
		strict      bool
	)

	cmd := &cobra.Command{
		Use:   "concepts",
		Short: "Generate creative concepts from a campaign brief",
		Long: `Generate creative concepts from a campaign brief.

For each product in the brief, an LLM drafts the requested number of concepts
(visual prompt, copy, rationale). Concepts are written as JSON files under
the output directory, one per product and aspect ratio. When the LLM is
unavailable the command falls back to deterministic template concepts unless
--strict is set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if model == "" {
				model = cfg.LLM.Model
			}
			if !cmd.Flags().Changed("temperature") {
				temperature = cfg.LLM.Temperature
			}

			return runConcepts(cmd, briefPath, outDir, concept.GeneratorOptions{
				Count:       count,
				Model:       model,
				Temperature: temperature,
				MaxTokens:   cfg.LLM.MaxTokens,
				Languages:   languages,
				Strict:      strict,
			})
		},
	}

	cmd.Flags().StringVar(&briefPath, "brief", "", "path to the campaign brief JSON (required)")
	cmd.Flags().StringVar(&outDir, "out", "output", "output directory")
	cmd.Flags().IntVar(&count, "count", 3, "concepts per product and aspect ratio")
	cmd.Flags().StringVar(&model, "model", "", "LLM model for concept generation")
	cmd.Flags().Float64Var(&temperature, "temperature", 0.7, "LLM sampling temperature")
	cmd.Flags().StringSliceVar(&languages, "language", nil, "extra target languages for localized copy (repeatable)")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail instead of falling back to template concepts")

	if err := cmd.MarkFlagRequired("brief"); err != nil {
		panic(err)
	}

	return cmd
}

func runConcepts(cmd *cobra.Command, briefPath, outDir string, opts concept.GeneratorOptions) error {
	b, err := brief.Load(briefPath)
	if err != nil {
		return err
	}

	if len(opts.Languages) == 0 {
		opts.Languages = b.TargetLanguages
	}

	slog.Info("Generating concepts", "campaign", b.CampaignID, "products", len(b.Products), "ratios", b.AspectRatios, "count", opts.Count)

	generator := concept.NewGenerator(llm.NewGemini())
	written := 0

	for _, product := range b.Products {
		for _, ratio := range b.AspectRatios {
			concepts, err := generator.Generate(cmd.Context(), b, product, ratio, opts)
			if err != nil {
				return fmt.Errorf("concept generation for %s at %s: %w", product.Name, ratio, err)
			}

			dir := concept.Dir(outDir, b.CampaignID, product.Name, ratio)
			next, err := concept.NextNumber(dir)
			if err != nil {
				return err
			}

			for i, c := range concepts {
				number := next + i
				// The saved ID carries the assigned file number, so a
				// rerun that appends files never reissues an ID.
				c.ConceptID = concept.ID(b.CampaignID, product.Name, ratio, number)
				path := filepath.Join(dir, concept.FileName(number, ratio))
				if err := concept.Save(c, path); err != nil {
					return err
				}
				slog.Info("Wrote concept", "path", path, "model", c.Model)
				written++
			}
		}
	}

	fmt.Printf("\nWrote %d concept(s) under %s\n", written, outDir)
	return nil
}
