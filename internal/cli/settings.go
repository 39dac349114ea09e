package cli

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spf13/viper"

	"codeberg.org/snonux/worldly/internal/audio"
	"codeberg.org/snonux/worldly/internal/geo"
	"codeberg.org/snonux/worldly/internal/pipeline"
)

// Settings is the resolved configuration of a run. Flags win over
// environment variables, which win over the config file.
type Settings struct {
	Paths     pipeline.Paths
	Delimiter rune
	FailFast  bool

	Audio     audio.Config
	Parallel  bool
	Manifest  bool
	RedisAddr string

	Geocoder geo.Config
	Timeout  time.Duration

	LogLevel    string
	LogFormat   string
	MetricsFile string
}

// LoadSettings reads the settings from viper
func LoadSettings() (Settings, error) {
	delimiter := viper.GetString("input.delimiter")
	if delimiter == `\t` {
		delimiter = "\t"
	}
	if utf8.RuneCountInString(delimiter) != 1 {
		return Settings{}, fmt.Errorf("delimiter must be a single character, got %q", delimiter)
	}
	d, _ := utf8.DecodeRuneInString(delimiter)

	provider := strings.ToLower(viper.GetString("audio.provider"))
	if provider != "google" && provider != "openai" {
		return Settings{}, fmt.Errorf("unknown audio provider: %s", provider)
	}

	s := Settings{
		Paths: pipeline.Paths{
			Input:      viper.GetString("input.file"),
			OutputJSON: viper.GetString("output.json"),
			AudioDir:   viper.GetString("output.audio_dir"),
		},
		Delimiter: d,
		FailFast:  viper.GetBool("run.fail_fast"),

		Audio: audio.Config{
			Provider:        provider,
			Encoding:        viper.GetString("audio.encoding"),
			Endpoint:        audio.GoogleSynthesizeURL,
			LanguageCode:    viper.GetString("audio.language_code"),
			Voice:           viper.GetString("audio.voice"),
			CredentialsFile: viper.GetString("audio.credentials_file"),
			OpenAIKey:       GetOpenAIKey(),
			OpenAIModel:     viper.GetString("audio.openai_model"),
			OpenAIVoice:     viper.GetString("audio.openai_voice"),
			OpenAISpeed:     viper.GetFloat64("audio.openai_speed"),
		},
		Parallel:  viper.GetBool("audio.parallel"),
		Manifest:  viper.GetBool("audio.manifest"),
		RedisAddr: viper.GetString("cache.redis_addr"),

		Geocoder: geo.Config{
			BaseURL:     viper.GetString("geocoder.base_url"),
			APIKey:      viper.GetString("geocoder.api_key"),
			UserAgent:   viper.GetString("geocoder.user_agent"),
			MinInterval: viper.GetDuration("geocoder.min_interval"),
		},
		Timeout: viper.GetDuration("http.timeout"),

		LogLevel:    viper.GetString("log.level"),
		LogFormat:   viper.GetString("log.format"),
		MetricsFile: viper.GetString("metrics.file"),
	}

	if s.Paths.Input == "" || s.Paths.OutputJSON == "" || s.Paths.AudioDir == "" {
		return Settings{}, fmt.Errorf("input file, output file and audio directory must be set")
	}
	if s.Audio.OpenAISpeed < 0.25 || s.Audio.OpenAISpeed > 4.0 {
		return Settings{}, fmt.Errorf("openai speed must be between 0.25 and 4.0, got %g", s.Audio.OpenAISpeed)
	}
	return s, nil
}
