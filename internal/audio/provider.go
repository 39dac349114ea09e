package audio

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// Provider defines the interface for text-to-speech providers
type Provider interface {
	// Synthesize returns the raw audio bytes for text
	Synthesize(ctx context.Context, text string) ([]byte, error)

	// Encoding returns the audio encoding produced, e.g. "MP3"
	Encoding() string

	// Name returns the provider name
	Name() string

	// IsAvailable checks if the provider is properly configured and available
	IsAvailable(ctx context.Context) error
}

// Config holds common configuration for audio providers
type Config struct {
	Provider string // Provider name: "google" or "openai"
	Encoding string // Audio encoding: "MP3", "OGG_OPUS", "LINEAR16", ...

	// Google Cloud Text-to-Speech settings
	Endpoint        string // Overrides the synthesize URL
	LanguageCode    string // e.g. "en-GB"
	Voice           string // e.g. "en-GB-Chirp-HD-O"
	CredentialsFile string // Service account JSON; empty uses application default credentials

	// OpenAI-specific settings
	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string  // "tts-1", "tts-1-hd", or "gpt-4o-mini-tts"
	OpenAIVoice   string  // "alloy", "ash", "coral", "echo", "fable", "nova", "onyx", "sage", "shimmer"
	OpenAISpeed   float64 // 0.25 to 4.0

	TripAfter int // Consecutive transport failures before the provider is given up
}

// DefaultProviderConfig returns default configuration
func DefaultProviderConfig() *Config {
	return &Config{
		Provider:     "google",
		Encoding:     "MP3",
		Endpoint:     GoogleSynthesizeURL,
		LanguageCode: "en-GB",
		Voice:        "en-GB-Chirp-HD-O",
		OpenAIModel:  "gpt-4o-mini-tts",
		OpenAIVoice:  "alloy",
		OpenAISpeed:  1.0,
	}
}

// NewProvider creates the appropriate audio provider based on configuration
func NewProvider(ctx context.Context, config *Config, client *http.Client) (Provider, error) {
	if config == nil {
		config = DefaultProviderConfig()
	}

	switch strings.ToLower(config.Provider) {
	case "google", "":
		return NewGoogleProvider(ctx, config, client)

	case "openai":
		provider, err := NewOpenAIProvider(config, client)
		if err != nil {
			return nil, err
		}
		return provider, nil

	default:
		return nil, fmt.Errorf("unknown audio provider: %s", config.Provider)
	}
}

// Extension returns the artifact file extension for an encoding name.
func Extension(encoding string) string {
	switch e := strings.ToLower(strings.TrimSpace(encoding)); e {
	case "", "mp3", "mp3_64_kbps":
		return "mp3"
	case "ogg_opus", "opus":
		return "ogg"
	case "linear16", "wav":
		return "wav"
	case "mulaw", "alaw":
		return "wav"
	default:
		return e
	}
}
