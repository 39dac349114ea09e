package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"codeberg.org/snonux/worldly/internal/country"
	"codeberg.org/snonux/worldly/internal/errs"
	"codeberg.org/snonux/worldly/internal/logging"
	"codeberg.org/snonux/worldly/internal/metrics"
)

// LockFile is created in the audio directory for the duration of a run.
const LockFile = ".worldly.lock"

// Enricher completes a parsed record.
type Enricher interface {
	Enrich(ctx context.Context, rec *country.Record) error
}

// Paths are the files a run reads and writes.
type Paths struct {
	Input      string
	OutputJSON string
	AudioDir   string
}

// Summary counts what happened to the input rows.
type Summary struct {
	Total        int
	Emitted      int
	ParseFailed  int
	EnrichFailed int
}

// Options tune a Driver.
type Options struct {
	Delimiter rune             // Input field delimiter, ',' when zero
	FailFast  bool             // Abort on the first failed row instead of skipping it
	Metrics   *metrics.Metrics // Optional
	Stdout    io.Writer        // Progress output, os.Stdout when nil
	Stderr    io.Writer        // Per-row warnings, os.Stderr when nil
}

// Driver processes an input file record by record.
type Driver struct {
	enricher Enricher
	opts     Options
	logger   *slog.Logger
}

// New creates a Driver.
func New(enricher Enricher, opts Options) *Driver {
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	return &Driver{
		enricher: enricher,
		opts:     opts,
		logger:   logging.WithComponent("pipeline"),
	}
}

// Run processes paths.Input and writes paths.OutputJSON. Rows that fail to
// parse or enrich are skipped unless FailFast is set; failures for which
// errs.Fatal is true always end the run. The returned summary is valid
// even when err is not nil.
func (d *Driver) Run(ctx context.Context, paths Paths) (summary Summary, err error) {
	unlock, err := d.lock(paths.AudioDir)
	if err != nil {
		return summary, err
	}
	defer unlock()

	in, err := os.Open(paths.Input)
	if err != nil {
		return summary, errs.New(errs.ErrIO, "open input", err)
	}
	defer in.Close()

	reader, err := country.NewReader(in, d.opts.Delimiter)
	if err != nil {
		return summary, fmt.Errorf("read header of %s: %w", paths.Input, err)
	}

	out, err := createOutput(paths.OutputJSON)
	if err != nil {
		return summary, err
	}
	array, err := newArrayWriter(out)
	if err != nil {
		out.Close()
		return summary, errs.New(errs.ErrIO, "write output", err)
	}
	defer func() {
		closeErr := array.Close()
		if cerr := out.Close(); closeErr == nil {
			closeErr = cerr
		}
		if closeErr != nil && err == nil {
			err = errs.New(errs.ErrIO, "close output", closeErr)
		}
	}()

	d.logger.Info("run started", "input", paths.Input, "output", paths.OutputJSON, "audio_dir", paths.AudioDir)

	id := 0
	for {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		rec, readErr := reader.Next()
		if errors.Is(readErr, io.EOF) {
			break
		}
		id++
		summary.Total++

		if readErr != nil {
			if !errors.Is(readErr, errs.ErrParse) {
				return summary, readErr
			}
			summary.ParseFailed++
			d.count(metrics.OutcomeParseFailed)
			if d.opts.FailFast {
				return summary, fmt.Errorf("row %d: %w", id, readErr)
			}
			fmt.Fprintf(d.opts.Stderr, "Warning: skipping row %d: %v\n", id, readErr)
			continue
		}

		rec.ID = id
		fmt.Fprintf(d.opts.Stdout, "Processing %d: Country: '%s' Capital: '%s'\n",
			rec.ID, rec.CountryShortFormName, rec.CapitalCity)

		if err := d.enricher.Enrich(ctx, &rec); err != nil {
			summary.EnrichFailed++
			d.count(metrics.OutcomeEnrichFailed)
			if errs.Fatal(err) || d.opts.FailFast {
				return summary, err
			}
			fmt.Fprintf(d.opts.Stderr, "Warning: skipping %s: %v\n", rec.CountryShortFormName, err)
			d.logger.Debug("record skipped", "id", rec.ID, "kind", errs.Kind(err))
			continue
		}

		if err := array.Write(rec); err != nil {
			return summary, errs.New(errs.ErrIO, "write output", err)
		}
		summary.Emitted++
		d.count(metrics.OutcomeEmitted)
	}

	d.logger.Info("run finished", "total", summary.Total, "emitted", summary.Emitted,
		"parse_failed", summary.ParseFailed, "enrich_failed", summary.EnrichFailed)
	return summary, nil
}

func (d *Driver) count(outcome string) {
	if d.opts.Metrics != nil {
		d.opts.Metrics.Record(outcome)
	}
}

// lock takes the run lock in dir, creating dir when needed.
func (d *Driver) lock(dir string) (func(), error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errs.New(errs.ErrIO, "create audio directory", err)
	}

	fl := flock.New(filepath.Join(dir, LockFile))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, errs.New(errs.ErrIO, "acquire run lock", err)
	}
	if !ok {
		return nil, errs.New(errs.ErrLocked, dir, nil)
	}
	return func() {
		if err := fl.Unlock(); err != nil {
			d.logger.Warn("failed to release run lock", "path", fl.Path(), "error", err)
		}
	}, nil
}

func createOutput(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errs.New(errs.ErrIO, "create output directory", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, errs.New(errs.ErrIO, "create output", err)
	}
	return f, nil
}

// PrintSummary writes the end-of-run report.
func PrintSummary(w io.Writer, s Summary) {
	fmt.Fprintf(w, "\n=== Run Summary ===\n")
	fmt.Fprintf(w, "Total rows: %d\n", s.Total)
	fmt.Fprintf(w, "Emitted: %d\n", s.Emitted)
	if s.ParseFailed > 0 {
		fmt.Fprintf(w, "Skipped (unparseable): %d\n", s.ParseFailed)
	}
	if s.EnrichFailed > 0 {
		fmt.Fprintf(w, "Skipped (enrichment failed): %d\n", s.EnrichFailed)
	}
	fmt.Fprintf(w, "===================\n")
}
