package audio

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	"golang.org/x/oauth2"

	"codeberg.org/snonux/worldly/internal/errs"
)

func newTestGoogleProvider(t *testing.T, handler http.HandlerFunc) *GoogleProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	config := DefaultProviderConfig()
	config.Endpoint = srv.URL + "/v1beta1/text:synthesize"
	tokens := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test-token"})
	return NewGoogleProviderWithTokenSource(config, srv.Client(), tokens)
}

func TestGoogleSynthesizeSendsRequestAndDecodesAudio(t *testing.T) {
	var gotAuth, gotMethod string
	var gotBody map[string]map[string]string
	p := newTestGoogleProvider(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotMethod = r.Method
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]string{
			"audioContent": base64.StdEncoding.EncodeToString([]byte("ID3-audio")),
		})
	})

	audio, err := p.Synthesize(context.Background(), "Aurelia")
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if string(audio) != "ID3-audio" {
		t.Errorf("Synthesize() = %q, want %q", audio, "ID3-audio")
	}

	if gotMethod != http.MethodPost {
		t.Errorf("method = %s, want POST", gotMethod)
	}
	if gotAuth != "Bearer test-token" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	checks := []struct{ section, field, want string }{
		{"input", "text", "Aurelia"},
		{"voice", "languageCode", "en-GB"},
		{"voice", "name", "en-GB-Chirp-HD-O"},
		{"audioConfig", "audioEncoding", "MP3"},
	}
	for _, c := range checks {
		if got := gotBody[c.section][c.field]; got != c.want {
			t.Errorf("%s.%s = %q, want %q", c.section, c.field, got, c.want)
		}
	}
}

func TestGoogleSynthesizeErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind error
	}{
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`, errs.ErrTransport},
		{"unauthorized", http.StatusUnauthorized, `{"error":"denied"}`, errs.ErrCredential},
		{"forbidden", http.StatusForbidden, `{"error":"denied"}`, errs.ErrCredential},
		{"not json", http.StatusOK, `<html>`, errs.ErrDecode},
		{"bad base64", http.StatusOK, `{"audioContent":"!!!not-base64"}`, errs.ErrDecode},
		{"empty audio", http.StatusOK, `{"audioContent":""}`, errs.ErrDecode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestGoogleProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := p.Synthesize(context.Background(), "Starhaven")
			if !errors.Is(err, tt.wantKind) {
				t.Errorf("Synthesize() error = %v, want kind %v", err, tt.wantKind)
			}
		})
	}
}

func TestGoogleSynthesizeRejectsEmptyText(t *testing.T) {
	var calls atomic.Int32
	p := newTestGoogleProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	_, err := p.Synthesize(context.Background(), "  ")
	if !errors.Is(err, errs.ErrInvalidInput) {
		t.Errorf("Synthesize() error = %v, want ErrInvalidInput", err)
	}
	if calls.Load() != 0 {
		t.Errorf("expected no request, got %d", calls.Load())
	}
}

func TestGoogleSynthesizeOpensBreakerAfterRepeatedFailures(t *testing.T) {
	var calls atomic.Int32
	p := newTestGoogleProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	for i := 0; i < 5; i++ {
		if _, err := p.Synthesize(context.Background(), "Aurelia"); !errors.Is(err, errs.ErrTransport) {
			t.Fatalf("call %d: error = %v, want ErrTransport", i+1, err)
		}
	}

	_, err := p.Synthesize(context.Background(), "Aurelia")
	if !errors.Is(err, errs.ErrProviderDown) {
		t.Errorf("error = %v, want ErrProviderDown", err)
	}
	if calls.Load() != 5 {
		t.Errorf("server saw %d requests, want 5", calls.Load())
	}
}

func TestGoogleCredentialErrorsDoNotTripBreaker(t *testing.T) {
	p := newTestGoogleProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	for i := 0; i < 8; i++ {
		_, err := p.Synthesize(context.Background(), "Aurelia")
		if !errors.Is(err, errs.ErrCredential) {
			t.Fatalf("call %d: error = %v, want ErrCredential", i+1, err)
		}
	}
}

type failingTokenSource struct{}

func (failingTokenSource) Token() (*oauth2.Token, error) {
	return nil, errors.New("invalid_grant")
}

func TestGoogleTokenFailureIsCredentialError(t *testing.T) {
	p := NewGoogleProviderWithTokenSource(DefaultProviderConfig(), nil, failingTokenSource{})

	if _, err := p.Synthesize(context.Background(), "Aurelia"); !errors.Is(err, errs.ErrCredential) {
		t.Errorf("Synthesize() error = %v, want ErrCredential", err)
	}
	if err := p.IsAvailable(context.Background()); !errors.Is(err, errs.ErrCredential) {
		t.Errorf("IsAvailable() error = %v, want ErrCredential", err)
	}
}

func TestGoogleProviderFromInvalidCredentialsFile(t *testing.T) {
	path := t.TempDir() + "/credentials.json"
	if err := os.WriteFile(path, []byte("not json"), 0600); err != nil {
		t.Fatal(err)
	}

	config := DefaultProviderConfig()
	config.CredentialsFile = path
	if _, err := NewGoogleProvider(context.Background(), config, nil); !errors.Is(err, errs.ErrCredential) {
		t.Errorf("NewGoogleProvider() error = %v, want ErrCredential", err)
	}
}

func TestGoogleSynthesizeIntegration(t *testing.T) {
	credentials, ok := os.LookupEnv("WORLDLY_TEST_GOOGLE_CREDENTIALS")
	if !ok {
		t.Skip("WORLDLY_TEST_GOOGLE_CREDENTIALS not set")
	}

	config := DefaultProviderConfig()
	config.CredentialsFile = credentials
	p, err := NewGoogleProvider(context.Background(), config, nil)
	if err != nil {
		t.Fatalf("NewGoogleProvider() error = %v", err)
	}

	audio, err := p.Synthesize(context.Background(), "Paris")
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if len(audio) == 0 {
		t.Error("expected audio bytes")
	}
}
