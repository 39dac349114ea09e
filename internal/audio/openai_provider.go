package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"codeberg.org/snonux/worldly/internal/errs"
	"codeberg.org/snonux/worldly/internal/httpx"
	"codeberg.org/snonux/worldly/internal/logging"
)

// OpenAIProvider implements Provider interface for OpenAI TTS
type OpenAIProvider struct {
	client  *openai.Client
	config  *Config
	breaker *httpx.Breaker
	logger  *slog.Logger
	observe func(time.Duration)
}

// NewOpenAIProvider creates a new OpenAI TTS provider
func NewOpenAIProvider(config *Config, httpClient *http.Client) (*OpenAIProvider, error) {
	if config.OpenAIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.OpenAIKey)
	if config.OpenAIBaseURL != "" {
		clientConfig.BaseURL = config.OpenAIBaseURL
	}
	if httpClient != nil {
		clientConfig.HTTPClient = httpClient
	}

	return &OpenAIProvider{
		client:  openai.NewClientWithConfig(clientConfig),
		config:  config,
		breaker: httpx.NewBreaker("openai-tts", config.TripAfter),
		logger:  logging.WithComponent("audio").With("provider", "openai"),
	}, nil
}

// ObserveLatency registers a callback receiving the duration of every request.
func (p *OpenAIProvider) ObserveLatency(fn func(time.Duration)) {
	p.observe = fn
}

// Synthesize generates audio using OpenAI TTS
func (p *OpenAIProvider) Synthesize(ctx context.Context, text string) ([]byte, error) {
	op := fmt.Sprintf("synthesize %q", text)
	if err := ValidateText(text); err != nil {
		return nil, errs.New(errs.ErrInvalidInput, op, err)
	}

	req := openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(p.config.OpenAIModel),
		Input:          strings.TrimSpace(text),
		Voice:          openai.SpeechVoice(p.config.OpenAIVoice),
		Speed:          p.config.OpenAISpeed,
		ResponseFormat: p.responseFormat(),
	}

	var audio []byte
	var authErr error
	err := p.breaker.Execute(func() error {
		start := time.Now()
		response, err := p.client.CreateSpeech(ctx, req)
		if p.observe != nil {
			p.observe(time.Since(start))
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			var apiErr *openai.APIError
			if errors.As(err, &apiErr) &&
				(apiErr.HTTPStatusCode == http.StatusUnauthorized || apiErr.HTTPStatusCode == http.StatusForbidden) {
				authErr = errs.New(errs.ErrCredential, op, err)
				return nil
			}
			return errs.New(errs.ErrTransport, op, err)
		}
		defer response.Close()

		audio, err = io.ReadAll(response)
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
	if len(audio) == 0 {
		return nil, errs.Newf(errs.ErrDecode, op, "no audio data received from OpenAI")
	}

	p.logger.Debug("synthesized", "text", text, "model", p.config.OpenAIModel,
		"voice", p.config.OpenAIVoice, "bytes", len(audio))
	return audio, nil
}

func (p *OpenAIProvider) responseFormat() openai.SpeechResponseFormat {
	switch strings.ToLower(p.config.Encoding) {
	case "wav", "linear16":
		return openai.SpeechResponseFormatWav
	case "opus", "ogg_opus":
		return openai.SpeechResponseFormatOpus
	case "aac":
		return openai.SpeechResponseFormatAac
	case "flac":
		return openai.SpeechResponseFormatFlac
	default:
		return openai.SpeechResponseFormatMp3
	}
}

// Encoding returns the configured audio encoding
func (p *OpenAIProvider) Encoding() string {
	return string(p.responseFormat())
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// IsAvailable checks if the OpenAI API is configured
func (p *OpenAIProvider) IsAvailable(ctx context.Context) error {
	if p.config.OpenAIKey == "" {
		return fmt.Errorf("OpenAI API key not configured")
	}

	// A test call would cost credits; a configured key is all we check.
	return ctx.Err()
}

// Voice returns the configured voice name
func (p *OpenAIProvider) Voice() string {
	return p.config.OpenAIVoice
}
