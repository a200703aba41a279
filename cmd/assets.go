package cmd

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/launchbrief/campaigner/internal/brief"
	"github.com/launchbrief/campaigner/internal/concept"
	"github.com/launchbrief/campaigner/internal/config"
	"github.com/launchbrief/campaigner/internal/fetch"
	"github.com/launchbrief/campaigner/internal/imagegen"
	"github.com/launchbrief/campaigner/internal/ledger"
	"github.com/launchbrief/campaigner/internal/pipeline"
	"github.com/launchbrief/campaigner/internal/render"
	"github.com/spf13/cobra"
)

func newAssetsCmd() *cobra.Command {
	var (
		conceptsGlob string
		briefPath    string
		logoSource   string
		model        string
		seed         int64
		numImages    int
		concurrency  int
		force        bool
		fallback     bool
		strict       bool
		noText       bool
		noLogo       bool
		noAdjust     bool
	)

	cmd := &cobra.Command{
		Use:   "assets",
		Short: "Render concepts into finished marketing assets",
		Long: `Render concepts into finished marketing assets.

Each concept file matched by the glob is rendered through the image API at
its aspect ratio, then post-processed: logo overlay, text overlay, and color
adjustments. Every stage's output is written next to the concept file. One
render's failure does not stop the batch; failures are reported in the
summary. The command exits non-zero when every render failed, or on any
failure with --strict.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if model == "" {
				model = cfg.Image.Model
			}

			return runAssets(cmd.Context(), assetsParams{
				conceptsGlob: conceptsGlob,
				briefPath:    briefPath,
				logoSource:   logoSource,
				model:        model,
				seed:         seed,
				numImages:    numImages,
				concurrency:  concurrency,
				force:        force,
				fallback:     fallback,
				strict:       strict,
				noText:       noText,
				noLogo:       noLogo,
				noAdjust:     noAdjust,
				cfg:          cfg,
			})
		},
	}

	cmd.Flags().StringVar(&conceptsGlob, "concepts", "", "glob matching concept JSON files, e.g. 'output/**/concept*.json' (required)")
	cmd.Flags().StringVar(&briefPath, "brief", "", "campaign brief for brand guidelines and the logo")
	cmd.Flags().StringVar(&logoSource, "logo", "", "logo file path or URL (overrides the brief)")
	cmd.Flags().StringVar(&model, "model", "", "image generation model")
	cmd.Flags().Int64Var(&seed, "seed", 0, "generation seed for reproducible base images")
	cmd.Flags().IntVar(&numImages, "num-images", 3, "image variants rendered per concept")
	cmd.Flags().IntVar(&concurrency, "concurrency", 2, "renders run in parallel")
	cmd.Flags().BoolVar(&force, "force", false, "regenerate base images even when they exist")
	cmd.Flags().BoolVar(&fallback, "fallback", false, "use a placeholder image when the base render fails")
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when any render fails")
	cmd.Flags().BoolVar(&noText, "no-text", false, "skip the text overlay stage")
	cmd.Flags().BoolVar(&noLogo, "no-logo", false, "skip the logo overlay stage")
	cmd.Flags().BoolVar(&noAdjust, "no-adjust", false, "skip the color adjustment stage")

	if err := cmd.MarkFlagRequired("concepts"); err != nil {
		panic(err)
	}

	return cmd
}

type assetsParams struct {
	conceptsGlob string
	briefPath    string
	logoSource   string
	model        string
	seed         int64
	numImages    int
	concurrency  int
	force        bool
	fallback     bool
	strict       bool
	noText       bool
	noLogo       bool
	noAdjust     bool
	cfg          *config.Config
}

type assetResult struct {
	ConceptPath string
	ImageIndex  int
	Result      *pipeline.Result
	Error       string
}

func runAssets(ctx context.Context, p assetsParams) error {
	paths, err := doublestar.FilepathGlob(p.conceptsGlob)
	if err != nil {
		return fmt.Errorf("bad concepts glob: %w", err)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no concept files match %q", p.conceptsGlob)
	}
	if p.numImages < 1 {
		p.numImages = 1
	}

	slog.Info("Rendering assets", "concepts", len(paths), "images_per_concept", p.numImages, "model", p.model, "concurrency", p.concurrency)

	var b *brief.CampaignBrief
	if p.briefPath != "" {
		b, err = brief.Load(p.briefPath)
		if err != nil {
			return err
		}
	}

	// An unreadable logo skips the overlay stage rather than sinking the
	// whole batch.
	logo, err := resolveLogo(p.logoSource, b, p.noLogo)
	if err != nil {
		slog.Warn("Skipping logo overlay", "error", err)
		logo = nil
	}

	client, err := imagegen.NewClient(imagegen.Options{Model: p.model})
	if err != nil {
		return err
	}
	runner := pipeline.NewRunner(client)

	logoOpts := render.LogoOptions{
		Position:  p.cfg.Logo.Position,
		Opacity:   p.cfg.Logo.Opacity,
		WidthFrac: p.cfg.Logo.WidthFrac,
	}
	textOpts := render.TextOptions{
		Position: p.cfg.Render.TextPosition,
		FontName: p.cfg.Render.Font,
		FontDir:  p.cfg.Render.FontDir,
		Color:    p.cfg.Render.TextColor,
	}
	if b != nil && b.BrandGuidelines != nil {
		if logoOpts.Position == "" {
			logoOpts.Position = b.BrandGuidelines.LogoPosition
		}
		if textOpts.FontName == "" {
			textOpts.FontName = b.BrandGuidelines.Font
		}
		if textOpts.Color == "" {
			textOpts.Color = b.BrandGuidelines.PrimaryColor
		}
	}
	if b != nil && b.Output != nil && textOpts.Position == "" {
		textOpts.Position = b.Output.TextPosition
	}
	adjust := render.Adjustments{
		Brightness: p.cfg.Adjust.Brightness,
		Contrast:   p.cfg.Adjust.Contrast,
		Saturation: p.cfg.Adjust.Saturation,
		BlurRadius: p.cfg.Adjust.Blur,
	}

	if p.concurrency < 1 {
		p.concurrency = 1
	}

	// Each concept renders numImages variants; every (concept, index) pair
	// is an independent task.
	type renderTask struct {
		path  string
		index int
	}
	var tasks []renderTask
	for _, path := range paths {
		for k := 1; k <= p.numImages; k++ {
			tasks = append(tasks, renderTask{path: path, index: k})
		}
	}

	// Process tasks with concurrency control; one failure never stops the
	// batch.
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, p.concurrency)
	resultsChan := make(chan assetResult, len(tasks))

	for i, task := range tasks {
		wg.Add(1)
		go func(idx int, task renderTask) {
			defer wg.Done()
			semaphore <- struct{}{}        // Acquire
			defer func() { <-semaphore }() // Release

			slog.Info("Processing concept", "path", task.path, "image", task.index, "progress", fmt.Sprintf("%d/%d", idx+1, len(tasks)))
			resultsChan <- processConcept(ctx, runner, task.path, pipeline.Options{
				OutDir:     filepath.Dir(task.path),
				BaseName:   concept.BaseName(task.path),
				Model:      p.model,
				Logo:       logo,
				LogoOpts:   logoOpts,
				TextOpts:   textOpts,
				Adjust:     adjust,
				SkipLogo:   p.noLogo || logo == nil,
				SkipText:   p.noText,
				SkipAdjust: p.noAdjust,
				ImageIndex: task.index,
				Force:      p.force,
				Fallback:   p.fallback,
				Seed:       p.seed,
			})
		}(i, task)
	}

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	var results []assetResult
	for result := range resultsChan {
		results = append(results, result)
	}

	if err := appendLedger(p.cfg.Ledger.Dir, results); err != nil {
		slog.Warn("Failed to record run ledger", "error", err)
	}

	failed := printAssetSummary(results)
	return assetsExitError(p.strict, failed, len(results))
}

// assetsExitError decides the batch exit status: strict mode fails on any
// render failure, otherwise only a fully failed batch is an error.
func assetsExitError(strict bool, failed, total int) error {
	switch {
	case failed == 0:
		return nil
	case strict:
		return fmt.Errorf("%d of %d render(s) failed", failed, total)
	case failed == total:
		return fmt.Errorf("all %d render(s) failed", failed)
	}
	return nil
}

func processConcept(ctx context.Context, runner *pipeline.Runner, path string, opts pipeline.Options) assetResult {
	result := assetResult{ConceptPath: path, ImageIndex: opts.ImageIndex}

	c, err := concept.Load(path)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	runResult, err := runner.Run(ctx, c, opts)
	result.Result = runResult
	if err != nil {
		result.Error = err.Error()
	}
	return result
}

// resolveLogo loads the logo from the flag, falling back to the brief's
// campaign assets. No logo is fine; the stage is skipped.
func resolveLogo(source string, b *brief.CampaignBrief, skip bool) (image.Image, error) {
	if skip {
		return nil, nil
	}
	if source == "" && b != nil && b.CampaignAssets != nil {
		source = b.CampaignAssets.Logo
	}
	if source == "" {
		return nil, nil
	}

	logo, err := fetch.NewFetcher().Image(source)
	if err != nil {
		return nil, fmt.Errorf("failed to load logo: %w", err)
	}
	return logo, nil
}

func appendLedger(dir string, results []assetResult) error {
	var records []ledger.Record
	now := time.Now().UnixMilli()

	for _, r := range results {
		if r.Result == nil {
			continue
		}
		records = append(records, ledger.Record{
			RunID:           r.Result.RunID,
			ConceptID:       r.Result.ConceptID,
			CampaignID:      r.Result.CampaignID,
			AspectRatio:     r.Result.AspectRatio,
			ImageIndex:      int32(r.Result.ImageIndex),
			StagesCompleted: int32(r.Result.StagesCompleted()),
			FailedStage:     r.Result.FailedStage(),
			BaseReused:      r.Result.BaseReused,
			DurationMS:      r.Result.DurationMS,
			BytesWritten:    r.Result.BytesWritten,
			CreatedAtMS:     now,
		})
	}

	_, err := ledger.New(dir).Append(records)
	return err
}

func printAssetSummary(results []assetResult) int {
	succeeded := 0
	failed := 0
	var totalDuration time.Duration

	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("Asset Generation Summary")
	fmt.Println(strings.Repeat("=", 60))

	for _, r := range results {
		if r.Error != "" {
			failed++
			fmt.Printf("FAIL %s [i%d]\n     %s\n", r.ConceptPath, r.ImageIndex, r.Error)
			continue
		}
		succeeded++
		totalDuration += time.Duration(r.Result.DurationMS) * time.Millisecond
		fmt.Printf("OK   %s [i%d] -> %s\n", r.ConceptPath, r.ImageIndex, r.Result.FinalPath)
	}

	fmt.Println(strings.Repeat("-", 60))
	fmt.Printf("Processed: %d\n", len(results))
	fmt.Printf("Succeeded: %d\n", succeeded)
	fmt.Printf("Failed:    %d\n", failed)
	fmt.Printf("Total Duration: %s\n", totalDuration)
	fmt.Println(strings.Repeat("=", 60))

	return failed
}
