package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"codeberg.org/snonux/worldly/internal/errs"
	"codeberg.org/snonux/worldly/internal/httpx"
	"codeberg.org/snonux/worldly/internal/logging"
)

const (
	DefaultBaseURL     = "https://nominatim.openstreetmap.org"
	DefaultMinInterval = time.Second
)

// Coordinate is a resolved position in decimal degrees.
type Coordinate struct {
	Lat float64
	Lon float64
}

// Resolver looks up the position of a city within a country.
type Resolver interface {
	Resolve(ctx context.Context, city, countryCode string) (Coordinate, error)
}

// Config configures a NominatimResolver.
type Config struct {
	BaseURL     string        // Endpoint root; /search is appended
	APIKey      string        // Sent as "key" when set (LocationIQ style)
	UserAgent   string        // Required by the Nominatim usage policy
	MinInterval time.Duration // Minimum delay between requests
	TripAfter   int           // Consecutive transport failures before giving up on the provider
}

// NominatimResolver implements Resolver against the Nominatim search API.
type NominatimResolver struct {
	cfg      Config
	client   *http.Client
	throttle *httpx.Throttle
	breaker  *httpx.Breaker
	logger   *slog.Logger
	observe  func(time.Duration)
}

type place struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// NewNominatimResolver creates a resolver using client for transport.
func NewNominatimResolver(cfg Config, client *http.Client) *NominatimResolver {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if client == nil {
		client = httpx.NewClient(0)
	}
	return &NominatimResolver{
		cfg:      cfg,
		client:   client,
		throttle: httpx.NewThrottle(cfg.MinInterval),
		breaker:  httpx.NewBreaker("geocoder", cfg.TripAfter),
		logger:   logging.WithComponent("geo"),
	}
}

// ObserveLatency registers a callback receiving the duration of every request.
func (r *NominatimResolver) ObserveLatency(fn func(time.Duration)) {
	r.observe = fn
}

// Resolve returns the first match for city in countryCode.
func (r *NominatimResolver) Resolve(ctx context.Context, city, countryCode string) (Coordinate, error) {
	city = strings.TrimSpace(city)
	countryCode = strings.TrimSpace(countryCode)
	op := fmt.Sprintf("geocode %q (%s)", city, countryCode)
	if city == "" || countryCode == "" {
		return Coordinate{}, errs.Newf(errs.ErrInvalidInput, op, "city and country code are required")
	}

	if err := r.throttle.Wait(ctx); err != nil {
		return Coordinate{}, err
	}

	endpoint, err := r.searchURL(city, countryCode)
	if err != nil {
		return Coordinate{}, errs.New(errs.ErrInvalidInput, op, err)
	}

	var places []place
	var decodeErr error
	err = r.breaker.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return errs.New(errs.ErrTransport, op, err)
		}
		req.Header.Set("User-Agent", r.userAgent())
		req.Header.Set("Accept", "application/json")

		start := time.Now()
		resp, err := httpx.Do(r.client, req, op)
		if r.observe != nil {
			r.observe(time.Since(start))
		}
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		decodeErr = json.NewDecoder(resp.Body).Decode(&places)
		return nil
	})
	if err != nil {
		return Coordinate{}, err
	}
	if decodeErr != nil {
		return Coordinate{}, errs.New(errs.ErrDecode, op, decodeErr)
	}

	if len(places) == 0 {
		return Coordinate{}, errs.New(errs.ErrNotFound, op, nil)
	}

	lat, err := parseDegrees(places[0].Lat)
	if err != nil {
		return Coordinate{}, errs.Newf(errs.ErrParse, op, "latitude %q: %v", places[0].Lat, err)
	}
	lon, err := parseDegrees(places[0].Lon)
	if err != nil {
		return Coordinate{}, errs.Newf(errs.ErrParse, op, "longitude %q: %v", places[0].Lon, err)
	}

	r.logger.Debug("resolved capital", "city", city, "country", countryCode,
		"lat", lat, "lon", lon, "match", places[0].DisplayName)
	return Coordinate{Lat: lat, Lon: lon}, nil
}

// parseDegrees parses a decimal degree string. NaN and infinities are
// rejected since they cannot be encoded as JSON numbers.
func parseDegrees(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a finite number")
	}
	return v, nil
}

func (r *NominatimResolver) searchURL(city, countryCode string) (string, error) {
	base, err := url.Parse(strings.TrimRight(r.cfg.BaseURL, "/") + "/search")
	if err != nil {
		return "", err
	}
	params := url.Values{}
	params.Set("city", city)
	params.Set("country", countryCode)
	params.Set("format", "json")
	params.Set("limit", "1")
	if r.cfg.APIKey != "" {
		params.Set("key", r.cfg.APIKey)
	}
	base.RawQuery = params.Encode()
	return base.String(), nil
}

func (r *NominatimResolver) userAgent() string {
	if r.cfg.UserAgent != "" {
		return r.cfg.UserAgent
	}
	return "worldly/0.1"
}
