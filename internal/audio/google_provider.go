package audio

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"codeberg.org/snonux/worldly/internal/errs"
	"codeberg.org/snonux/worldly/internal/httpx"
	"codeberg.org/snonux/worldly/internal/logging"
)

const (
	// GoogleSynthesizeURL is the Cloud Text-to-Speech synthesize endpoint.
	GoogleSynthesizeURL = "https://texttospeech.googleapis.com/v1beta1/text:synthesize"

	cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"
)

// GoogleProvider implements Provider for Google Cloud Text-to-Speech
type GoogleProvider struct {
	config  *Config
	client  *http.Client
	tokens  oauth2.TokenSource
	breaker *httpx.Breaker
	logger  *slog.Logger
	observe func(time.Duration)
}

type synthesizeRequest struct {
	Input struct {
		Text string `json:"text"`
	} `json:"input"`
	Voice struct {
		LanguageCode string `json:"languageCode"`
		Name         string `json:"name,omitempty"`
	} `json:"voice"`
	AudioConfig struct {
		AudioEncoding string `json:"audioEncoding"`
	} `json:"audioConfig"`
}

type synthesizeResponse struct {
	AudioContent string `json:"audioContent"`
}

// NewGoogleProvider creates a Google TTS provider. Credentials come from
// config.CredentialsFile or, when empty, from application default credentials.
func NewGoogleProvider(ctx context.Context, config *Config, client *http.Client) (Provider, error) {
	tokens, err := googleTokenSource(ctx, config.CredentialsFile)
	if err != nil {
		return nil, err
	}
	return NewGoogleProviderWithTokenSource(config, client, tokens), nil
}

// NewGoogleProviderWithTokenSource creates a Google TTS provider that
// authenticates with tokens.
func NewGoogleProviderWithTokenSource(config *Config, client *http.Client, tokens oauth2.TokenSource) *GoogleProvider {
	if client == nil {
		client = httpx.NewClient(0)
	}
	return &GoogleProvider{
		config:  config,
		client:  client,
		tokens:  oauth2.ReuseTokenSource(nil, tokens),
		breaker: httpx.NewBreaker("google-tts", config.TripAfter),
		logger:  logging.WithComponent("audio").With("provider", "google"),
	}
}

func googleTokenSource(ctx context.Context, credentialsFile string) (oauth2.TokenSource, error) {
	if credentialsFile != "" {
		data, err := os.ReadFile(credentialsFile)
		if err != nil {
			return nil, errs.New(errs.ErrCredential, "read credentials file", err)
		}
		creds, err := google.CredentialsFromJSON(ctx, data, cloudPlatformScope)
		if err != nil {
			return nil, errs.New(errs.ErrCredential, "parse credentials file", err)
		}
		return creds.TokenSource, nil
	}

	creds, err := google.FindDefaultCredentials(ctx, cloudPlatformScope)
	if err != nil {
		return nil, errs.New(errs.ErrCredential, "find default credentials", err)
	}
	return creds.TokenSource, nil
}

// ObserveLatency registers a callback receiving the duration of every request.
func (p *GoogleProvider) ObserveLatency(fn func(time.Duration)) {
	p.observe = fn
}

// Synthesize generates audio for text and returns the decoded bytes
func (p *GoogleProvider) Synthesize(ctx context.Context, text string) ([]byte, error) {
	op := fmt.Sprintf("synthesize %q", text)
	if err := ValidateText(text); err != nil {
		return nil, errs.New(errs.ErrInvalidInput, op, err)
	}

	token, err := p.tokens.Token()
	if err != nil {
		return nil, errs.New(errs.ErrCredential, "fetch access token", err)
	}

	body, err := json.Marshal(p.request(text))
	if err != nil {
		return nil, errs.New(errs.ErrInvalidInput, op, err)
	}

	var raw []byte
	var authErr error
	err = p.breaker.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint(), bytes.NewReader(body))
		if err != nil {
			return errs.New(errs.ErrTransport, op, err)
		}
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
		token.SetAuthHeader(req)

		start := time.Now()
		resp, err := httpx.Do(p.client, req, op)
		if p.observe != nil {
			p.observe(time.Since(start))
		}
		if err != nil {
			var status *httpx.StatusError
			if errors.As(err, &status) && status.Unauthorized() {
				authErr = errs.New(errs.ErrCredential, op, status)
				return nil
			}
			return err
		}
		defer resp.Body.Close()

		raw, err = io.ReadAll(resp.Body)
		if err != nil {
			return errs.New(errs.ErrTransport, op, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if authErr != nil {
		return nil, authErr
	}

	var decoded synthesizeResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, errs.New(errs.ErrDecode, op, err)
	}
	audio, err := base64.StdEncoding.DecodeString(decoded.AudioContent)
	if err != nil {
		return nil, errs.New(errs.ErrDecode, op, err)
	}
	if len(audio) == 0 {
		return nil, errs.Newf(errs.ErrDecode, op, "no audio content in response")
	}

	p.logger.Debug("synthesized", "text", text, "bytes", len(audio))
	return audio, nil
}

func (p *GoogleProvider) request(text string) synthesizeRequest {
	var r synthesizeRequest
	r.Input.Text = text
	r.Voice.LanguageCode = p.config.LanguageCode
	r.Voice.Name = p.config.Voice
	r.AudioConfig.AudioEncoding = p.Encoding()
	return r
}

func (p *GoogleProvider) endpoint() string {
	if strings.TrimSpace(p.config.Endpoint) != "" {
		return p.config.Endpoint
	}
	return GoogleSynthesizeURL
}

// Encoding returns the configured audio encoding
func (p *GoogleProvider) Encoding() string {
	if p.config.Encoding == "" {
		return "MP3"
	}
	return strings.ToUpper(p.config.Encoding)
}

// Name returns the provider name
func (p *GoogleProvider) Name() string {
	return "google"
}

// IsAvailable checks that an access token can be obtained
func (p *GoogleProvider) IsAvailable(ctx context.Context) error {
	if p.config.LanguageCode == "" {
		return fmt.Errorf("google TTS language code not configured")
	}
	if _, err := p.tokens.Token(); err != nil {
		return errs.New(errs.ErrCredential, "fetch access token", err)
	}
	return ctx.Err()
}

// Voice returns the configured voice name
func (p *GoogleProvider) Voice() string {
	return p.config.Voice
}
