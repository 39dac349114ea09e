// Package enrich completes a country record with the capital's coordinates
// and spoken audio for the country and capital names.
package enrich

import (
	"context"
	"fmt"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"codeberg.org/snonux/worldly/internal/country"
	"codeberg.org/snonux/worldly/internal/geo"
)

// Fetcher returns the path of an audio artifact for text.
type Fetcher interface {
	Fetch(ctx context.Context, logicalKey, text string) (string, error)
}

// Options tune an Enricher.
type Options struct {
	// Parallel fetches the country and capital audio concurrently.
	Parallel bool
}

// Enricher runs the lookups for one record at a time.
type Enricher struct {
	resolver geo.Resolver
	audio    Fetcher
	opts     Options
}

// New creates an Enricher.
func New(resolver geo.Resolver, audio Fetcher, opts Options) *Enricher {
	return &Enricher{resolver: resolver, audio: audio, opts: opts}
}

// Enrich resolves the capital, fetches both audio artifacts and only then
// merges the results into rec. On error rec is left unchanged.
func (e *Enricher) Enrich(ctx context.Context, rec *country.Record) error {
	coord, err := e.resolver.Resolve(ctx, rec.CapitalCity, rec.CountryCode2Letter)
	if err != nil {
		return fmt.Errorf("resolve capital of record %d: %w", rec.ID, err)
	}

	countryKey := rec.CountryCode2Letter + "-country"
	capitalKey := rec.CountryCode2Letter + "-capital"

	var countryPath, capitalPath string
	if e.opts.Parallel {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			countryPath, err = e.audio.Fetch(gctx, countryKey, rec.CountryShortFormName)
			return err
		})
		g.Go(func() error {
			var err error
			capitalPath, err = e.audio.Fetch(gctx, capitalKey, rec.CapitalCity)
			return err
		})
		if err := g.Wait(); err != nil {
			return fmt.Errorf("audio for record %d: %w", rec.ID, err)
		}
	} else {
		countryPath, err = e.audio.Fetch(ctx, countryKey, rec.CountryShortFormName)
		if err != nil {
			return fmt.Errorf("country audio for record %d: %w", rec.ID, err)
		}
		capitalPath, err = e.audio.Fetch(ctx, capitalKey, rec.CapitalCity)
		if err != nil {
			return fmt.Errorf("capital audio for record %d: %w", rec.ID, err)
		}
	}

	rec.SetCoordinates(coord.Lat, coord.Lon)
	rec.SetAudioFilenames(filepath.Base(countryPath), filepath.Base(capitalPath))
	return nil
}
