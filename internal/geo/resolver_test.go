package geo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"codeberg.org/snonux/worldly/internal/errs"
)

func newTestResolver(t *testing.T, handler http.HandlerFunc, cfg Config) *NominatimResolver {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg.BaseURL = srv.URL
	return NewNominatimResolver(cfg, srv.Client())
}

func TestResolveSendsQueryAndParsesFirstMatch(t *testing.T) {
	var got *http.Request
	r := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
		got = req
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"place_id":1,"lat":"10.5","lon":"20.25","display_name":"Starhaven, Aurelia"}]`))
	}, Config{APIKey: "secret", UserAgent: "worldly-test/1.0"})

	c, err := r.Resolve(context.Background(), "Starhaven", "AU2")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if c.Lat != 10.5 || c.Lon != 20.25 {
		t.Errorf("Resolve() = %+v, want {10.5 20.25}", c)
	}

	if got.URL.Path != "/search" {
		t.Errorf("path = %s, want /search", got.URL.Path)
	}
	q := got.URL.Query()
	want := map[string]string{"city": "Starhaven", "country": "AU2", "format": "json", "limit": "1", "key": "secret"}
	for k, v := range want {
		if q.Get(k) != v {
			t.Errorf("query %s = %q, want %q", k, q.Get(k), v)
		}
	}
	if ua := got.Header.Get("User-Agent"); ua != "worldly-test/1.0" {
		t.Errorf("User-Agent = %q", ua)
	}
}

func TestResolveOmitsKeyWhenUnset(t *testing.T) {
	var hasKey bool
	r := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
		_, hasKey = req.URL.Query()["key"]
		w.Write([]byte(`[{"lat":"1","lon":"2"}]`))
	}, Config{})

	if _, err := r.Resolve(context.Background(), "Starhaven", "AU2"); err != nil {
		t.Fatal(err)
	}
	if hasKey {
		t.Error("key parameter sent without an API key configured")
	}
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"no results", http.StatusOK, `[]`, errs.ErrNotFound},
		{"bad latitude", http.StatusOK, `[{"lat":"north","lon":"2"}]`, errs.ErrParse},
		{"bad longitude", http.StatusOK, `[{"lat":"1","lon":""}]`, errs.ErrParse},
		{"nan latitude", http.StatusOK, `[{"lat":"NaN","lon":"20.25"}]`, errs.ErrParse},
		{"infinite longitude", http.StatusOK, `[{"lat":"10.5","lon":"inf"}]`, errs.ErrParse},
		{"infinity latitude", http.StatusOK, `[{"lat":"-Infinity","lon":"1"}]`, errs.ErrParse},
		{"malformed json", http.StatusOK, `{"error":`, errs.ErrDecode},
		{"server error", http.StatusBadGateway, `oops`, errs.ErrTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}, Config{})

			_, err := r.Resolve(context.Background(), "Starhaven", "AU2")
			if !errors.Is(err, tt.want) {
				t.Errorf("Resolve() error = %v, want kind %v", err, tt.want)
			}
		})
	}
}

func TestResolveRejectsEmptyInput(t *testing.T) {
	var calls atomic.Int32
	r := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
		calls.Add(1)
	}, Config{})

	for _, in := range [][2]string{{"", "AU2"}, {"Starhaven", ""}, {"  ", " "}} {
		_, err := r.Resolve(context.Background(), in[0], in[1])
		if !errors.Is(err, errs.ErrInvalidInput) {
			t.Errorf("Resolve(%q, %q) error = %v, want ErrInvalidInput", in[0], in[1], err)
		}
	}
	if calls.Load() != 0 {
		t.Errorf("provider called %d times for invalid input", calls.Load())
	}
}

func TestResolveNotFoundDoesNotTripBreaker(t *testing.T) {
	r := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`[]`))
	}, Config{TripAfter: 2})

	for i := 0; i < 5; i++ {
		_, err := r.Resolve(context.Background(), "Nowhere", "XX")
		if !errors.Is(err, errs.ErrNotFound) {
			t.Fatalf("call %d: error = %v, want ErrNotFound", i, err)
		}
	}
}

func TestResolveOpensBreakerOnRepeatedTransportFailures(t *testing.T) {
	var calls atomic.Int32
	r := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}, Config{TripAfter: 2})

	for i := 0; i < 2; i++ {
		if _, err := r.Resolve(context.Background(), "Starhaven", "AU2"); !errors.Is(err, errs.ErrTransport) {
			t.Fatalf("call %d: error = %v, want ErrTransport", i, err)
		}
	}
	_, err := r.Resolve(context.Background(), "Starhaven", "AU2")
	if !errors.Is(err, errs.ErrProviderDown) {
		t.Errorf("error = %v, want ErrProviderDown", err)
	}
	if calls.Load() != 2 {
		t.Errorf("provider called %d times, want 2", calls.Load())
	}
}

func TestResolveObservesLatency(t *testing.T) {
	r := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`[{"lat":"1","lon":"2"}]`))
	}, Config{})

	var observed []time.Duration
	r.ObserveLatency(func(d time.Duration) { observed = append(observed, d) })

	if _, err := r.Resolve(context.Background(), "Starhaven", "AU2"); err != nil {
		t.Fatal(err)
	}
	if len(observed) != 1 {
		t.Errorf("observed %d latencies, want 1", len(observed))
	}
}

func TestResolveIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	if _, ok := os.LookupEnv("WORLDLY_TEST_NOMINATIM"); !ok {
		t.Skip("Skipping integration test: WORLDLY_TEST_NOMINATIM not set")
	}

	r := NewNominatimResolver(Config{UserAgent: "worldly-integration-test"}, nil)
	c, err := r.Resolve(context.Background(), "Paris", "FR")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if c.Lat < 48 || c.Lat > 49 || c.Lon < 2 || c.Lon > 3 {
		t.Errorf("Paris resolved to %+v", c)
	}
}
