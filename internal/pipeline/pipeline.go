// Package pipeline runs the post-processing stages that turn a concept's
// base render into finished assets.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/launchbrief/campaigner/internal/apperr"
	"github.com/launchbrief/campaigner/internal/brief"
	"github.com/launchbrief/campaigner/internal/concept"
	"github.com/launchbrief/campaigner/internal/fetch"
	"github.com/launchbrief/campaigner/internal/imagegen"
	"github.com/launchbrief/campaigner/internal/render"
)

// Stage names in execution order.
const (
	StageBase   = "base"
	StageLogo   = "logo"
	StageText   = "text"
	StageAdjust = "adjust"
)

// Generator renders a base image for a prompt.
type Generator interface {
	Generate(ctx context.Context, req imagegen.Request) (*imagegen.Image, error)
}

// Options controls one pipeline run for one concept.
type Options struct {
	OutDir   string
	BaseName string // file stem shared by all outputs, e.g. concept1_1x1
	Model    string // image model, recorded in the run metrics

	Logo     image.Image
	LogoOpts render.LogoOptions
	TextOpts render.TextOptions // copy fields are filled from the concept
	Adjust   render.Adjustments

	SkipLogo   bool
	SkipText   bool
	SkipAdjust bool

	// ImageIndex distinguishes sibling renders of the same concept. Output
	// names carry it so each variant overwrites only itself. Values below 1
	// are treated as 1.
	ImageIndex int

	// Force regenerates the base image even when one already exists.
	Force bool
	Seed  int64

	// Fallback substitutes a solid-color placeholder when the base render
	// fails, so the batch still yields an artifact per concept.
	Fallback bool
}

// StageRecord captures one stage's outcome for the run metrics.
type StageRecord struct {
	Name       string `json:"name"`
	DurationMS int64  `json:"duration_ms"`
	OutputPath string `json:"output_path,omitempty"`
	Skipped    bool   `json:"skipped,omitempty"`
	Fallback   bool   `json:"fallback,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Result summarizes a pipeline run.
type Result struct {
	RunID        string        `json:"run_id"`
	ConceptID    string        `json:"concept_id"`
	CampaignID   string        `json:"campaign_id"`
	AspectRatio  string        `json:"aspect_ratio"`
	Model        string        `json:"model,omitempty"`
	PromptHash   string        `json:"prompt_hash"`
	ImageIndex   int           `json:"image_index"`
	Stages       []StageRecord `json:"stages"`
	FinalPath    string        `json:"final_path"`
	BaseReused   bool          `json:"base_reused,omitempty"`
	BytesWritten int64         `json:"bytes_written"`
	StartedAt    time.Time     `json:"started_at"`
	DurationMS   int64         `json:"duration_ms"`
}

// StagesCompleted counts stages that ran and produced output.
func (r *Result) StagesCompleted() int {
	n := 0
	for _, s := range r.Stages {
		if !s.Skipped && s.Error == "" {
			n++
		}
	}
	return n
}

// FailedStage returns the first failed stage name, or "".
func (r *Result) FailedStage() string {
	for _, s := range r.Stages {
		if s.Error != "" {
			return s.Name
		}
	}
	return ""
}

// Runner executes the pipeline.
type Runner struct {
	gen     Generator
	fetcher *fetch.Fetcher
}

// NewRunner creates a pipeline runner backed by the given image generator.
func NewRunner(gen Generator) *Runner {
	return &Runner{gen: gen, fetcher: fetch.NewFetcher()}
}

// Run renders and post-processes one concept. Stage failures after the base
// render are recoverable: the previous stage's image carries forward and the
// failure is recorded in the result.
func (r *Runner) Run(ctx context.Context, c *concept.Concept, opts Options) (*Result, error) {
	start := time.Now()
	identity := c.VisualPrompt
	if c.NegativePrompt != "" {
		identity += "\n" + c.NegativePrompt
	}
	hash := PromptHash(identity)
	if opts.ImageIndex < 1 {
		opts.ImageIndex = 1
	}
	result := &Result{
		RunID:       uuid.NewString(),
		ConceptID:   c.ConceptID,
		CampaignID:  c.CampaignID,
		AspectRatio: c.AspectRatio,
		Model:       opts.Model,
		PromptHash:  hash,
		ImageIndex:  opts.ImageIndex,
		StartedAt:   start.UTC(),
	}

	// The file stem carries the concept's ratio slug. A concept whose ratio
	// disagrees with it was moved or edited and must not render into the
	// wrong directory.
	if slug := brief.RatioSlug(c.AspectRatio); !strings.HasSuffix(opts.BaseName, "_"+slug) {
		return nil, fmt.Errorf("concept %s has aspect ratio %s but output stem %q", c.ConceptID, c.AspectRatio, opts.BaseName)
	}

	// Output names embed the prompt hash and image index so reruns
	// overwrite their own files and an edited prompt gets a fresh base
	// render.
	opts.BaseName = fmt.Sprintf("%s_%s_i%d", opts.BaseName, hash, opts.ImageIndex)

	if err := os.MkdirAll(opts.OutDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	current, err := r.baseStage(ctx, c, opts, result)
	if err != nil {
		result.DurationMS = time.Since(start).Milliseconds()
		return result, err
	}

	current = r.logoStage(current, c, opts, result)
	current = r.textStage(current, c, opts, result)
	r.adjustStage(current, opts, result)

	result.DurationMS = time.Since(start).Milliseconds()

	if err := writeMetrics(result, filepath.Join(opts.OutDir, opts.BaseName+"_metrics.json")); err != nil {
		slog.Warn("Failed to write run metrics", "concept", c.ConceptID, "error", err)
	}

	return result, nil
}

// PromptHash returns a short stable hash of a visual prompt, used to key
// output filenames and the run metrics.
func PromptHash(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:4])
}

// baseStage produces the starting image, reusing an existing base render
// unless Force is set. A base failure is fatal: there is nothing to fall
// back to.
func (r *Runner) baseStage(ctx context.Context, c *concept.Concept, opts Options, result *Result) (image.Image, error) {
	stageStart := time.Now()
	basePath := filepath.Join(opts.OutDir, opts.BaseName+".png")

	if !opts.Force {
		if img, err := loadPNG(basePath); err == nil {
			slog.Info("Reusing existing base image", "concept", c.ConceptID, "path", basePath)
			result.BaseReused = true
			result.Stages = append(result.Stages, StageRecord{
				Name:       StageBase,
				DurationMS: time.Since(stageStart).Milliseconds(),
				OutputPath: basePath,
			})
			return img, nil
		}
	}

	// Seeded runs offset the seed by the image index so sibling variants
	// of one concept still differ.
	seed := opts.Seed
	if seed != 0 {
		seed += int64(opts.ImageIndex - 1)
	}

	req := imagegen.Request{
		Prompt:         c.VisualPrompt,
		NegativePrompt: c.NegativePrompt,
		AspectRatio:    c.AspectRatio,
		Seed:           seed,
		Strength:       c.ReferenceStrength,
	}
	if c.ReferenceImage != "" {
		ref, err := r.fetcher.Bytes(c.ReferenceImage)
		if err != nil {
			slog.Warn("Failed to load reference image, rendering without it", "concept", c.ConceptID, "source", c.ReferenceImage, "error", err)
		} else {
			req.ReferenceImage = ref
		}
	}

	generated, err := r.gen.Generate(ctx, req)
	if err != nil {
		return r.baseFailure(c, opts, result, stageStart, basePath, fmt.Errorf("base render for %s: %w", c.ConceptID, err))
	}

	img, err := imagegen.Decode(generated.Data)
	if err != nil {
		return r.baseFailure(c, opts, result, stageStart, basePath, fmt.Errorf("base decode for %s: %w", c.ConceptID, err))
	}

	written, err := savePNG(img, basePath)
	if err != nil {
		return nil, err
	}
	result.BytesWritten += written
	result.FinalPath = basePath
	result.Stages = append(result.Stages, StageRecord{
		Name:       StageBase,
		DurationMS: time.Since(stageStart).Milliseconds(),
		OutputPath: basePath,
	})
	return img, nil
}

// baseFailure either fails the run or, in fallback mode, writes a placeholder
// image at the concept's dimensions so post-processing can still run.
func (r *Runner) baseFailure(c *concept.Concept, opts Options, result *Result, stageStart time.Time, basePath string, failure error) (image.Image, error) {
	if !opts.Fallback {
		result.Stages = append(result.Stages, StageRecord{
			Name:       StageBase,
			DurationMS: time.Since(stageStart).Milliseconds(),
			Error:      failure.Error(),
		})
		return nil, failure
	}

	slog.Warn("Base render failed, using placeholder", "concept", c.ConceptID, "error", failure)

	w, h, err := brief.Dimensions(c.AspectRatio)
	if err != nil {
		return nil, err
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{72, 72, 80, 255}), image.Point{}, draw.Src)

	written, err := savePNG(img, basePath)
	if err != nil {
		return nil, err
	}
	result.BytesWritten += written
	result.FinalPath = basePath
	result.Stages = append(result.Stages, StageRecord{
		Name:       StageBase,
		DurationMS: time.Since(stageStart).Milliseconds(),
		OutputPath: basePath,
		Fallback:   true,
	})
	return img, nil
}

func (r *Runner) logoStage(current image.Image, c *concept.Concept, opts Options, result *Result) image.Image {
	stageStart := time.Now()
	if opts.SkipLogo || opts.Logo == nil {
		result.Stages = append(result.Stages, StageRecord{Name: StageLogo, Skipped: true})
		return current
	}

	out, err := render.ApplyLogo(current, opts.Logo, opts.LogoOpts)
	if err != nil {
		r.recordRecoverable(result, StageLogo, stageStart, c, err)
		return current
	}

	path := filepath.Join(opts.OutDir, opts.BaseName+"_with_logo.png")
	written, err := savePNG(out, path)
	if err != nil {
		r.recordRecoverable(result, StageLogo, stageStart, c, err)
		return current
	}

	result.BytesWritten += written
	result.FinalPath = path
	result.Stages = append(result.Stages, StageRecord{
		Name:       StageLogo,
		DurationMS: time.Since(stageStart).Milliseconds(),
		OutputPath: path,
	})
	return out
}

func (r *Runner) textStage(current image.Image, c *concept.Concept, opts Options, result *Result) image.Image {
	stageStart := time.Now()
	if opts.SkipText || (c.Copy.Headline == "" && c.Copy.Body == "" && c.Copy.CallToAction == "") {
		result.Stages = append(result.Stages, StageRecord{Name: StageText, Skipped: true})
		return current
	}

	textOpts := opts.TextOpts
	textOpts.Headline = c.Copy.Headline
	textOpts.Body = c.Copy.Body
	textOpts.CallToAction = c.Copy.CallToAction
	if o := c.Overlay; o != nil {
		if o.Position != "" {
			textOpts.Position = o.Position
		}
		if o.Font != "" {
			textOpts.FontName = o.Font
		}
		if o.Color != "" {
			textOpts.Color = o.Color
		}
		textOpts.NoShadow = o.NoShadow
	}

	out, err := render.ApplyText(current, textOpts)
	if err != nil {
		r.recordRecoverable(result, StageText, stageStart, c, err)
		return current
	}

	path := filepath.Join(opts.OutDir, opts.BaseName+"_with_text.png")
	written, err := savePNG(out, path)
	if err != nil {
		r.recordRecoverable(result, StageText, stageStart, c, err)
		return current
	}
	result.BytesWritten += written
	result.FinalPath = path

	// Localized variants render against the same pre-text image so each
	// language gets clean copy.
	for lang, localized := range c.LocalizedCopy {
		locOpts := textOpts
		locOpts.Headline = localized.Headline
		locOpts.Body = localized.Body
		locOpts.CallToAction = localized.CallToAction

		locImg, err := render.ApplyText(current, locOpts)
		if err != nil {
			slog.Warn("Failed to render localized variant", "concept", c.ConceptID, "lang", lang, "error", err)
			continue
		}
		locPath := filepath.Join(opts.OutDir, fmt.Sprintf("%s_localized_%s.png", opts.BaseName, lang))
		if written, err := savePNG(locImg, locPath); err == nil {
			result.BytesWritten += written
		} else {
			slog.Warn("Failed to write localized variant", "concept", c.ConceptID, "lang", lang, "error", err)
		}
	}

	result.Stages = append(result.Stages, StageRecord{
		Name:       StageText,
		DurationMS: time.Since(stageStart).Milliseconds(),
		OutputPath: path,
	})
	return out
}

func (r *Runner) adjustStage(current image.Image, opts Options, result *Result) {
	stageStart := time.Now()
	if opts.SkipAdjust || opts.Adjust.IsZero() {
		result.Stages = append(result.Stages, StageRecord{Name: StageAdjust, Skipped: true})
		return
	}

	out := render.Apply(current, opts.Adjust)
	path := filepath.Join(opts.OutDir, opts.BaseName+"_adjusted.png")
	written, err := savePNG(out, path)
	if err != nil {
		result.Stages = append(result.Stages, StageRecord{
			Name:       StageAdjust,
			DurationMS: time.Since(stageStart).Milliseconds(),
			Error:      err.Error(),
		})
		return
	}

	result.BytesWritten += written
	result.FinalPath = path
	result.Stages = append(result.Stages, StageRecord{
		Name:       StageAdjust,
		DurationMS: time.Since(stageStart).Milliseconds(),
		OutputPath: path,
	})
}

func (r *Runner) recordRecoverable(result *Result, stage string, start time.Time, c *concept.Concept, err error) {
	stageErr := &apperr.StageError{Stage: stage, Err: err}
	slog.Warn("Stage failed, carrying previous image forward", "concept", c.ConceptID, "stage", stage, "error", stageErr)
	result.Stages = append(result.Stages, StageRecord{
		Name:       stage,
		DurationMS: time.Since(start).Milliseconds(),
		Error:      err.Error(),
	})
}

func savePNG(img image.Image, path string) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return 0, fmt.Errorf("failed to encode %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		return 0, nil
	}
	return info.Size(), nil
}

func loadPNG(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return imagegen.Decode(data)
}

func writeMetrics(result *Result, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metrics: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
