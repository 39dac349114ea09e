package pipeline

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/oauth2"

	"codeberg.org/snonux/worldly/internal/audio"
	"codeberg.org/snonux/worldly/internal/enrich"
	"codeberg.org/snonux/worldly/internal/geo"
	"codeberg.org/snonux/worldly/internal/metrics"
	"codeberg.org/snonux/worldly/internal/testutil"
)

// TestRunOverHTTP drives the real geocoder and Google provider against
// local fake servers.
func TestRunOverHTTP(t *testing.T) {
	f := newFixture(t, rowAurelia, rowBorealis)

	geoSrv, geoCalls := testutil.NewNominatimServer(t, map[string]geo.Coordinate{
		"Starhaven": {Lat: 10.5, Lon: 20.25},
		"Frostgate": {Lat: 64.1, Lon: -21.9},
	})
	ttsSrv, ttsCalls := testutil.NewTextToSpeechServer(t)

	resolver := geo.NewNominatimResolver(geo.Config{BaseURL: geoSrv.URL, UserAgent: "worldly-test"}, nil)
	cfg := audio.DefaultProviderConfig()
	cfg.Endpoint = ttsSrv.URL
	provider := audio.NewGoogleProviderWithTokenSource(cfg, nil,
		oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test-token"}))

	m := metrics.New()
	cache := audio.NewCache(provider, audio.NewFileStore(f.paths.AudioDir))
	cache.OnLookup(m.AudioLookup)
	driver := New(enrich.New(resolver, cache, enrich.Options{Parallel: true}), Options{
		Metrics: m,
		Stdout:  f.stdout,
		Stderr:  f.stderr,
	})

	summary, err := driver.Run(context.Background(), f.paths)
	if err != nil {
		t.Fatalf("Run() error = %v\nstderr: %s", err, f.stderr.String())
	}
	if summary.Emitted != 2 {
		t.Fatalf("summary = %+v", summary)
	}
	if got := geoCalls.Load(); got != 2 {
		t.Errorf("geocoder calls = %d, want 2", got)
	}
	if got := ttsCalls.Load(); got != 4 {
		t.Errorf("synthesize calls = %d, want 4", got)
	}

	testutil.AssertFileContains(t, f.paths.OutputJSON, `"capital_latitude":64.1`)
	name := audio.FileName("Aurelia", provider.Encoding())
	testutil.AssertFileContent(t, filepath.Join(f.paths.AudioDir, name), testutil.GenerateAudioData("Aurelia"))

	// A second run is served from the audio directory.
	if _, err := driver.Run(context.Background(), f.paths); err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if got := ttsCalls.Load(); got != 4 {
		t.Errorf("synthesize calls after rerun = %d, want 4", got)
	}

	stdout, _ := testutil.CaptureOutput(t, func() {
		PrintSummary(os.Stdout, summary)
	})
	if !strings.Contains(stdout, "Emitted") {
		t.Errorf("summary output = %q", stdout)
	}
}

func TestRunSkipsNonFiniteCoordinates(t *testing.T) {
	f := newFixture(t, rowAurelia, rowBorealis)

	geoSrv, _ := testutil.NewNominatimServer(t, map[string]geo.Coordinate{
		"Starhaven": {Lat: math.NaN(), Lon: 20.25},
		"Frostgate": {Lat: 64.1, Lon: -21.9},
	})
	resolver := geo.NewNominatimResolver(geo.Config{BaseURL: geoSrv.URL, UserAgent: "worldly-test"}, nil)
	cache := audio.NewCache(f.provider, audio.NewFileStore(f.paths.AudioDir))
	driver := New(enrich.New(resolver, cache, enrich.Options{}), Options{Stdout: f.stdout, Stderr: f.stderr})

	summary, err := driver.Run(context.Background(), f.paths)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary != (Summary{Total: 2, Emitted: 1, EnrichFailed: 1}) {
		t.Errorf("summary = %+v", summary)
	}

	out := testutil.ReadJSONArray(t, f.paths.OutputJSON)
	if len(out) != 1 || out[0]["capital_city"] != "Frostgate" {
		t.Errorf("output = %v", out)
	}
}
