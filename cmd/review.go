package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/launchbrief/campaigner/internal/brief"
	"github.com/launchbrief/campaigner/internal/compliance"
	"github.com/launchbrief/campaigner/internal/config"
	"github.com/launchbrief/campaigner/internal/fetch"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newReviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Compliance checks for generated campaign content",
	}

	cmd.AddCommand(newReviewLanguageCmd())
	cmd.AddCommand(newReviewLogoCmd())

	return cmd
}

func newReviewLanguageCmd() *cobra.Command {
	var (
		filesGlob string
		briefPath string
		lists     []string
		wordsFile string
		outPath   string
	)

	cmd := &cobra.Command{
		Use:   "language",
		Short: "Scan concept and brief files for prohibited words",
		Long: `Scan concept and brief JSON files for prohibited words.

Every string value is checked against the selected word lists using
case-insensitive whole-word matching. Findings carry the JSON path and the
surrounding text. The command exits non-zero when any finding exists, so it
can gate a publishing step.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("lists") && len(cfg.Compliance.WordLists) > 0 {
				lists = cfg.Compliance.WordLists
			}

			var extra []string
			if wordsFile != "" {
				extra, err = readWordsFile(wordsFile)
				if err != nil {
					return err
				}
			}
			if briefPath != "" {
				b, err := brief.Load(briefPath)
				if err != nil {
					return err
				}
				if b.BrandGuidelines != nil {
					extra = append(extra, b.BrandGuidelines.ProhibitedWords...)
				}
			}

			paths, err := doublestar.FilepathGlob(filesGlob)
			if err != nil {
				return fmt.Errorf("bad files glob: %w", err)
			}
			if len(paths) == 0 {
				return fmt.Errorf("no files match %q", filesGlob)
			}

			scanner, err := compliance.NewLanguageScanner(lists, extra)
			if err != nil {
				return err
			}

			report := scanner.ScanFiles(paths)

			if outPath != "" {
				if err := writeYAML(report, outPath); err != nil {
					return err
				}
				fmt.Printf("Report written to %s\n", outPath)
			}

			printLanguageReport(report)
			if report.TotalFindings > 0 {
				return fmt.Errorf("%d prohibited word finding(s)", report.TotalFindings)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&filesGlob, "files", "", "glob matching JSON files to scan (required)")
	cmd.Flags().StringVar(&briefPath, "brief", "", "campaign brief whose prohibited words are added to the scan")
	cmd.Flags().StringSliceVar(&lists, "lists", []string{"general"}, "word lists to apply: general, health, legal")
	cmd.Flags().StringVar(&wordsFile, "words", "", "file with extra prohibited words, one per line")
	cmd.Flags().StringVar(&outPath, "out", "", "write the YAML report here")

	if err := cmd.MarkFlagRequired("files"); err != nil {
		panic(err)
	}

	return cmd
}

func newReviewLogoCmd() *cobra.Command {
	var (
		assetsGlob string
		logoSource string
		briefPath  string
		threshold  float64
		outPath    string
	)

	cmd := &cobra.Command{
		Use:   "logo",
		Short: "Score rendered assets for logo presence",
		Long: `Score rendered assets for logo presence.

Each matched image is compared against the logo using perceptual hashes over
the canonical placement regions. Assets scoring below the threshold fail the
check.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("threshold") {
				threshold = cfg.Compliance.LogoThreshold
			}

			if logoSource == "" && briefPath != "" {
				b, err := brief.Load(briefPath)
				if err != nil {
					return err
				}
				if b.CampaignAssets != nil {
					logoSource = b.CampaignAssets.Logo
				}
			}
			if logoSource == "" {
				return fmt.Errorf("no logo: pass --logo or a --brief with campaign_assets.logo")
			}

			paths, err := doublestar.FilepathGlob(assetsGlob)
			if err != nil {
				return fmt.Errorf("bad assets glob: %w", err)
			}
			if len(paths) == 0 {
				return fmt.Errorf("no assets match %q", assetsGlob)
			}

			fetcher := fetch.NewFetcher()
			logo, err := fetcher.Image(logoSource)
			if err != nil {
				return fmt.Errorf("failed to load logo: %w", err)
			}

			checker := compliance.NewLogoChecker(threshold)
			report := &compliance.LogoReport{
				CheckedAt: time.Now().UTC(),
				Threshold: checker.Threshold,
			}

			for _, path := range paths {
				result := compliance.AssetResult{File: path}

				asset, err := fetcher.Image(path)
				if err != nil {
					result.Error = err.Error()
					report.Failed++
					report.Assets = append(report.Assets, result)
					continue
				}

				checked, err := checker.Check(asset, logo)
				if err != nil {
					result.Error = err.Error()
					report.Failed++
					report.Assets = append(report.Assets, result)
					continue
				}

				result.Confidence = checked.Confidence
				result.Passed = checked.Passed
				if result.Passed {
					report.Passed++
				} else {
					report.Failed++
				}
				report.Assets = append(report.Assets, result)
				slog.Debug("Checked asset", "file", path, "confidence", result.Confidence, "passed", result.Passed)
			}

			if outPath != "" {
				if err := writeYAML(report, outPath); err != nil {
					return err
				}
				fmt.Printf("Report written to %s\n", outPath)
			}

			printLogoReport(report)
			if report.Failed > 0 {
				return fmt.Errorf("%d asset(s) failed the logo check", report.Failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&assetsGlob, "assets", "", "glob matching rendered images (required)")
	cmd.Flags().StringVar(&logoSource, "logo", "", "logo file path or URL")
	cmd.Flags().StringVar(&briefPath, "brief", "", "campaign brief providing the logo")
	cmd.Flags().Float64Var(&threshold, "threshold", compliance.DefaultLogoThreshold, "pass mark on a 0-1 scale")
	cmd.Flags().StringVar(&outPath, "out", "", "write the YAML report here")

	if err := cmd.MarkFlagRequired("assets"); err != nil {
		panic(err)
	}

	return cmd
}

func readWordsFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read words file: %w", err)
	}

	var words []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			words = append(words, line)
		}
	}
	return words, nil
}

func writeYAML(v any, path string) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func printLanguageReport(report *compliance.LanguageReport) {
	fmt.Printf("\nScanned %d file(s), %d finding(s)\n", report.FilesScanned, report.TotalFindings)
	for _, fr := range report.Files {
		if fr.Error != "" {
			fmt.Printf("  %s: ERROR %s\n", fr.File, fr.Error)
			continue
		}
		for _, f := range fr.Findings {
			fmt.Printf("  %s: %q at %s\n      %s\n", fr.File, f.Word, f.Path, f.Context)
		}
	}
}

func printLogoReport(report *compliance.LogoReport) {
	fmt.Printf("\nChecked %d asset(s): %d passed, %d failed (threshold %.2f)\n",
		len(report.Assets), report.Passed, report.Failed, report.Threshold)
	for _, a := range report.Assets {
		status := "PASS"
		if !a.Passed {
			status = "FAIL"
		}
		if a.Error != "" {
			fmt.Printf("  FAIL %s: %s\n", a.File, a.Error)
			continue
		}
		fmt.Printf("  %s %s (%.1f)\n", status, a.File, a.Confidence)
	}
}
