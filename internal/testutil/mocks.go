package testutil

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"codeberg.org/snonux/worldly/internal/errs"
	"codeberg.org/snonux/worldly/internal/geo"
)

// MockProvider mocks a speech provider
type MockProvider struct {
	Responses    map[string][]byte
	Errors       map[string]error
	AvailableErr error

	mu    sync.Mutex
	Calls []string
}

// Synthesize mocks synthesizing text
func (m *MockProvider) Synthesize(ctx context.Context, text string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, text)

	if err, ok := m.Errors[text]; ok {
		return nil, err
	}

	if data, ok := m.Responses[text]; ok {
		return data, nil
	}

	return []byte("mock audio data for " + text), nil
}

func (m *MockProvider) Encoding() string { return "MP3" }

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) IsAvailable(ctx context.Context) error { return m.AvailableErr }

// CallCount returns the number of Synthesize calls
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// MockResolver mocks the coordinate lookup
type MockResolver struct {
	Coordinates map[string]geo.Coordinate
	Errors      map[string]error

	mu    sync.Mutex
	Calls []string
}

// Resolve returns the configured coordinate for city, or an errs.ErrNotFound
func (m *MockResolver) Resolve(ctx context.Context, city, countryCode string) (geo.Coordinate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, fmt.Sprintf("%s,%s", city, countryCode))

	if err, ok := m.Errors[city]; ok {
		return geo.Coordinate{}, err
	}
	if c, ok := m.Coordinates[city]; ok {
		return c, nil
	}
	return geo.Coordinate{}, errs.New(errs.ErrNotFound, "geocode "+city, nil)
}

// NewNominatimServer serves /search from places, keyed by city name. Unknown
// cities yield an empty result list.
func NewNominatimServer(t *testing.T, places map[string]geo.Coordinate) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		c, ok := places[r.URL.Query().Get("city")]
		if !ok {
			w.Write([]byte("[]"))
			return
		}
		json.NewEncoder(w).Encode([]map[string]string{{
			"lat":          fmt.Sprintf("%g", c.Lat),
			"lon":          fmt.Sprintf("%g", c.Lon),
			"display_name": r.URL.Query().Get("city"),
		}})
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

// NewTextToSpeechServer answers synthesize requests with base64 encoded
// audio derived from the input text.
func NewTextToSpeechServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req struct {
			Input struct {
				Text string `json:"text"`
			} `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{
			"audioContent": base64.StdEncoding.EncodeToString(GenerateAudioData(req.Input.Text)),
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

// GenerateAudioData returns a fake MP3 frame followed by text
func GenerateAudioData(text string) []byte {
	return append([]byte{0xFF, 0xFB, 0x90, 0x00}, text...)
}
