package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "campaigner",
		Short: "Marketing asset generation from campaign briefs",
		Long: `Campaigner turns JSON campaign briefs into finished marketing assets.

An LLM drafts creative concepts for each product, a text-to-image API renders
base images, and a local pipeline applies logo overlays, copy, and color
adjustments. Compliance checks scan copy for prohibited language and score
rendered assets for logo presence.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	cmd.PersistentFlags().String("config", "", "path to a campaigner.yaml settings file")

	// Add subcommands
	cmd.AddCommand(newConceptsCmd())
	cmd.AddCommand(newAssetsCmd())
	cmd.AddCommand(newGenerateCmd())
	cmd.AddCommand(newTextApplyCmd())
	cmd.AddCommand(newReviewCmd())
	cmd.AddCommand(newStatsCmd())

	return cmd
}
