package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"codeberg.org/snonux/worldly/internal/audio"
	"codeberg.org/snonux/worldly/internal/cli"
	"codeberg.org/snonux/worldly/internal/enrich"
	"codeberg.org/snonux/worldly/internal/geo"
	"codeberg.org/snonux/worldly/internal/httpx"
	"codeberg.org/snonux/worldly/internal/logging"
	"codeberg.org/snonux/worldly/internal/manifest"
	"codeberg.org/snonux/worldly/internal/metrics"
	"codeberg.org/snonux/worldly/internal/models"
	"codeberg.org/snonux/worldly/internal/pipeline"
)

// latencyObserver is implemented by providers that report request latency.
type latencyObserver interface {
	ObserveLatency(fn func(time.Duration))
}

func runCommand(cmd *cobra.Command, flags *cli.Flags) error {
	ctx := cmd.Context()

	// Handle --list-models flag
	if flags.ListModels {
		lister := models.NewLister(cli.GetOpenAIKey(), "")
		return lister.ListAvailableModels(ctx, os.Stdout)
	}

	settings, err := cli.LoadSettings()
	if err != nil {
		return err
	}

	logger := logging.Setup(settings.LogLevel, settings.LogFormat).With("run_id", uuid.NewString())
	slog.SetDefault(logger)

	m := metrics.New()
	start := time.Now()
	defer func() {
		if settings.MetricsFile == "" {
			return
		}
		m.RunDurationSeconds.Set(time.Since(start).Seconds())
		if err := m.WriteTextfile(settings.MetricsFile); err != nil {
			logger.Warn("writing metrics failed", "path", settings.MetricsFile, "error", err)
		}
	}()

	client := httpx.NewClient(settings.Timeout)

	resolver := geo.NewNominatimResolver(settings.Geocoder, client)
	resolver.ObserveLatency(m.ObserveProvider("nominatim"))

	provider, err := audio.NewProvider(ctx, &settings.Audio, client)
	if err != nil {
		return fmt.Errorf("failed to create audio provider: %w", err)
	}
	if err := provider.IsAvailable(ctx); err != nil {
		return fmt.Errorf("audio provider %s is not available: %w", provider.Name(), err)
	}
	if o, ok := provider.(latencyObserver); ok {
		o.ObserveLatency(m.ObserveProvider(provider.Name()))
	}

	cache, closeCache, err := buildCache(ctx, settings, provider)
	if err != nil {
		return err
	}
	defer closeCache()
	cache.OnLookup(m.AudioLookup)

	enricher := enrich.New(resolver, cache, enrich.Options{Parallel: settings.Parallel})
	driver := pipeline.New(enricher, pipeline.Options{
		Delimiter: settings.Delimiter,
		FailFast:  settings.FailFast,
		Metrics:   m,
	})

	logger.Debug("audio provider ready", "provider", provider.Name())
	if err := runAndReport(ctx, driver, settings.Paths, os.Stdout); err != nil {
		return err
	}

	fmt.Printf("\nDone! Output written to %s, audio in %s\n", settings.Paths.OutputJSON, settings.Paths.AudioDir)
	return nil
}

// runAndReport runs the driver and prints its summary, also when the run
// was aborted.
func runAndReport(ctx context.Context, driver *pipeline.Driver, paths pipeline.Paths, w io.Writer) error {
	summary, err := driver.Run(ctx, paths)
	pipeline.PrintSummary(w, summary)
	return err
}

// buildCache assembles the audio cache: a file store, optionally tiered
// over Redis, with an optional sqlite manifest recording new artifacts.
func buildCache(ctx context.Context, settings cli.Settings, provider audio.Provider) (*audio.Cache, func(), error) {
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	files := audio.NewFileStore(settings.Paths.AudioDir)
	var store audio.Store = files
	if settings.RedisAddr != "" {
		rdb, err := audio.NewRedisClient(ctx, settings.RedisAddr)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		closers = append(closers, func() { rdb.Close() })
		// Artifacts are content addressed and never go stale.
		store = audio.NewRedisStore(files, rdb, 0)
	}

	cache := audio.NewCache(provider, store)

	if settings.Manifest {
		if err := os.MkdirAll(settings.Paths.AudioDir, 0755); err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("failed to create audio directory: %w", err)
		}
		ledger, err := manifest.Open(filepath.Join(settings.Paths.AudioDir, manifest.FileName))
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, func() { ledger.Close() })
		cache.SetRecorder(ledger)
	}

	return cache, closeAll, nil
}
