// Package ledger persists per-concept run records as parquet datasets and
// aggregates them into summary statistics.
package ledger

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
)

// Record is one processed concept in an asset generation run.
type Record struct {
	RunID           string `parquet:"run_id"`
	ConceptID       string `parquet:"concept_id"`
	CampaignID      string `parquet:"campaign_id"`
	AspectRatio     string `parquet:"aspect_ratio"`
	ImageIndex      int32  `parquet:"image_index"`
	StagesCompleted int32  `parquet:"stages_completed"`
	FailedStage     string `parquet:"failed_stage"`
	BaseReused      bool   `parquet:"base_reused"`
	DurationMS      int64  `parquet:"duration_ms"`
	BytesWritten    int64  `parquet:"bytes_written"`
	CreatedAtMS     int64  `parquet:"created_at_ms"`
}

// Ledger reads and writes run records under one directory.
type Ledger struct {
	dir string
}

// New creates a ledger rooted at dir.
func New(dir string) *Ledger {
	return &Ledger{dir: dir}
}

// Append writes a batch of records as a new parquet file. Each batch gets
// its own file; parquet files are immutable once written.
func (l *Ledger) Append(records []Record) (string, error) {
	if len(records) == 0 {
		return "", nil
	}

	if err := os.MkdirAll(l.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create ledger directory: %w", err)
	}

	name := fmt.Sprintf("runs-%s.parquet", time.Now().UTC().Format("20060102-150405.000"))
	path := filepath.Join(l.dir, name)

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create ledger file: %w", err)
	}
	defer file.Close()

	writer := parquet.NewGenericWriter[Record](file)
	if _, err := writer.Write(records); err != nil {
		return "", fmt.Errorf("failed to write ledger records: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize ledger file: %w", err)
	}

	slog.Debug("Appended ledger batch", "path", path, "records", len(records))
	return path, nil
}

// Load reads every parquet file in the ledger directory.
func (l *Ledger) Load() ([]Record, error) {
	paths, err := filepath.Glob(filepath.Join(l.dir, "*.parquet"))
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger files: %w", err)
	}

	var records []Record
	for _, path := range paths {
		batch, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		records = append(records, batch...)
	}
	return records, nil
}

// LoadSince reads records created at or after the cutoff.
func (l *Ledger) LoadSince(cutoff time.Time) ([]Record, error) {
	all, err := l.Load()
	if err != nil {
		return nil, err
	}

	cutoffMS := cutoff.UnixMilli()
	var filtered []Record
	for _, r := range all {
		if r.CreatedAtMS >= cutoffMS {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

func loadFile(path string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat ledger file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet %s: %w", path, err)
	}

	reader := parquet.NewGenericReader[Record](pf)
	defer reader.Close()

	var records []Record
	rows := make([]Record, 64)
	for {
		n, err := reader.Read(rows)
		if n > 0 {
			records = append(records, rows[:n]...)
		}
		if err != nil {
			break
		}
	}
	return records, nil
}
