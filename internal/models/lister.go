package models

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// SpeechVoices are the voices accepted by the OpenAI speech endpoint.
var SpeechVoices = []string{"alloy", "ash", "coral", "echo", "fable", "nova", "onyx", "sage", "shimmer"}

// Lister handles listing available OpenAI models
type Lister struct {
	apiKey string
	client *openai.Client
}

// NewLister creates a new model lister. An empty baseURL uses the public API.
func NewLister(apiKey, baseURL string) *Lister {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Lister{
		apiKey: apiKey,
		client: openai.NewClientWithConfig(config),
	}
}

// SpeechModels returns the sorted IDs of all text-to-speech models
func (l *Lister) SpeechModels(ctx context.Context) ([]string, error) {
	if l.apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key not found. Set WORLDLY_AUDIO_OPENAI_KEY or OPENAI_API_KEY, or configure audio.openai_key in .worldly.yaml")
	}

	models, err := l.client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}

	ttsModels := []string{}
	for _, model := range models.Models {
		if strings.Contains(model.ID, "tts") {
			ttsModels = append(ttsModels, model.ID)
		}
	}
	sort.Strings(ttsModels)
	return ttsModels, nil
}

// ListAvailableModels prints the speech models and voices to w
func (l *Lister) ListAvailableModels(ctx context.Context, w io.Writer) error {
	ttsModels, err := l.SpeechModels(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "Available OpenAI Speech Models:")
	if len(ttsModels) == 0 {
		fmt.Fprintln(w, "  No TTS models found")
	} else {
		for _, model := range ttsModels {
			fmt.Fprintf(w, "  %s\n", model)
		}
	}

	fmt.Fprintln(w, "\nVoices:")
	fmt.Fprintf(w, "  %s\n", strings.Join(SpeechVoices, ", "))
	return nil
}
