package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"codeberg.org/snonux/worldly/internal"
)

// CreateRootCommand creates and configures the root cobra command
func CreateRootCommand(flags *Flags) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "worldly",
		Short: "Country and capital enrichment pipeline",
		Long: `worldly reads a list of independent states and enriches every country
with the coordinates of its capital and spoken audio for the country
and capital names.

Coordinates come from a Nominatim compatible geocoder. Audio is
synthesized with Google Cloud Text-to-Speech (or OpenAI) and cached by
content, so a text is only ever synthesized once per audio directory.

Examples:
  worldly                                   # Read independent-countries.csv, write output.json
  worldly -i states.csv -o states.json      # Custom input and output
  worldly --audio-provider openai           # Use OpenAI TTS instead of Google
  worldly cache list                        # Show synthesized artifacts`,
		Args:          cobra.NoArgs,
		Version:       internal.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Set up flags
	setupFlags(rootCmd, flags)

	return rootCmd
}

func setupFlags(cmd *cobra.Command, flags *Flags) {
	// Global flags
	cmd.PersistentFlags().StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.worldly.yaml)")
	cmd.PersistentFlags().StringVar(&flags.AudioDir, "audio-dir", flags.AudioDir, "Directory for synthesized audio artifacts")
	cmd.PersistentFlags().StringVar(&flags.LogLevel, "log-level", flags.LogLevel, "Log level: debug, info, warn, error")
	cmd.PersistentFlags().StringVar(&flags.LogFormat, "log-format", flags.LogFormat, "Log format: text, json or auto")

	// Local flags
	cmd.Flags().StringVarP(&flags.InputFile, "input", "i", flags.InputFile, "Input CSV file")
	cmd.Flags().StringVar(&flags.Delimiter, "delimiter", flags.Delimiter, "Input field delimiter")
	cmd.Flags().StringVarP(&flags.OutputJSON, "output", "o", flags.OutputJSON, "Output JSON file")
	cmd.Flags().BoolVar(&flags.FailFast, "fail-fast", false, "Abort on the first row that cannot be parsed or enriched")
	cmd.Flags().BoolVar(&flags.ListModels, "list-models", false, "List available OpenAI speech models for the current API key")
	cmd.Flags().StringVar(&flags.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile after the run")
	cmd.Flags().DurationVar(&flags.Timeout, "timeout", flags.Timeout, "Timeout for each provider request")

	// Audio flags
	cmd.Flags().StringVar(&flags.AudioProvider, "audio-provider", flags.AudioProvider, "Speech provider: google or openai")
	cmd.Flags().StringVar(&flags.LanguageCode, "language-code", flags.LanguageCode, "Google TTS language code")
	cmd.Flags().StringVar(&flags.Voice, "voice", flags.Voice, "Google TTS voice name")
	cmd.Flags().StringVar(&flags.Encoding, "encoding", flags.Encoding, "Audio encoding (MP3, OGG_OPUS, LINEAR16)")
	cmd.Flags().StringVar(&flags.CredentialsFile, "credentials", "", "Google service account JSON (default: application default credentials)")
	cmd.Flags().BoolVar(&flags.ParallelAudio, "parallel-audio", false, "Fetch country and capital audio concurrently")
	cmd.Flags().BoolVar(&flags.Manifest, "manifest", false, "Record synthesized artifacts in a sqlite manifest")
	cmd.Flags().StringVar(&flags.RedisAddr, "redis-addr", "", "Share the audio cache through Redis at this address")

	// OpenAI flags
	cmd.Flags().StringVar(&flags.OpenAIModel, "openai-model", flags.OpenAIModel, "OpenAI TTS model: tts-1, tts-1-hd, gpt-4o-mini-tts")
	cmd.Flags().StringVar(&flags.OpenAIVoice, "openai-voice", flags.OpenAIVoice, "OpenAI voice: alloy, ash, coral, echo, fable, nova, onyx, sage, shimmer")
	cmd.Flags().Float64Var(&flags.OpenAISpeed, "openai-speed", flags.OpenAISpeed, "OpenAI speech speed (0.25 to 4.0)")

	// Geocoder flags
	cmd.Flags().StringVar(&flags.GeocoderURL, "geocoder-url", flags.GeocoderURL, "Nominatim compatible geocoder base URL")
	cmd.Flags().StringVar(&flags.GeocoderKey, "geocoder-key", "", "Geocoder API key (LocationIQ style endpoints)")
	cmd.Flags().DurationVar(&flags.GeocoderInterval, "geocoder-interval", flags.GeocoderInterval, "Minimum delay between geocoder requests")

	// Bind flags to viper
	bindFlagsToViper(cmd)
}

func bindFlagsToViper(cmd *cobra.Command) {
	bindings := map[string]string{
		"input.file":             "input",
		"input.delimiter":        "delimiter",
		"output.json":            "output",
		"run.fail_fast":          "fail-fast",
		"metrics.file":           "metrics-file",
		"http.timeout":           "timeout",
		"audio.provider":         "audio-provider",
		"audio.language_code":    "language-code",
		"audio.voice":            "voice",
		"audio.encoding":         "encoding",
		"audio.credentials_file": "credentials",
		"audio.parallel":         "parallel-audio",
		"audio.manifest":         "manifest",
		"cache.redis_addr":       "redis-addr",
		"audio.openai_model":     "openai-model",
		"audio.openai_voice":     "openai-voice",
		"audio.openai_speed":     "openai-speed",
		"geocoder.base_url":      "geocoder-url",
		"geocoder.api_key":       "geocoder-key",
		"geocoder.min_interval":  "geocoder-interval",
	}
	for key, name := range bindings {
		if f := cmd.Flags().Lookup(name); f != nil {
			viper.BindPFlag(key, f)
		}
	}

	persistent := map[string]string{
		"output.audio_dir": "audio-dir",
		"log.level":        "log-level",
		"log.format":       "log-format",
	}
	for key, name := range persistent {
		if f := cmd.PersistentFlags().Lookup(name); f != nil {
			viper.BindPFlag(key, f)
		}
	}

	viper.SetDefault("geocoder.user_agent", "worldly/"+internal.Version)
}

// InitConfig initializes viper configuration
func InitConfig(cfgFile string) {
	// A missing .env is fine
	_ = godotenv.Load()

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
			return
		}

		// Search config in home directory with name ".worldly" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".worldly")
	}

	// Environment variables
	viper.SetEnvPrefix("WORLDLY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// GetOpenAIKey retrieves the OpenAI API key from environment or config
func GetOpenAIKey() string {
	// First check environment variable
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return key
	}

	// Then check config file
	return viper.GetString("audio.openai_key")
}
