package cli

import "time"

// Flags holds all command-line flag values
type Flags struct {
	// General flags
	CfgFile     string
	InputFile   string
	Delimiter   string
	OutputJSON  string
	AudioDir    string
	FailFast    bool
	ListModels  bool
	LogLevel    string
	LogFormat   string
	MetricsFile string
	Timeout     time.Duration

	// Audio flags
	AudioProvider   string
	LanguageCode    string
	Voice           string
	Encoding        string
	CredentialsFile string
	ParallelAudio   bool
	Manifest        bool
	RedisAddr       string

	// OpenAI flags
	OpenAIModel string
	OpenAIVoice string
	OpenAISpeed float64

	// Geocoder flags
	GeocoderURL      string
	GeocoderKey      string
	GeocoderInterval time.Duration
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	return &Flags{
		InputFile:        "independent-countries.csv",
		Delimiter:        ",",
		OutputJSON:       "output.json",
		AudioDir:         "output/audio",
		LogLevel:         "info",
		LogFormat:        "auto",
		Timeout:          30 * time.Second,
		AudioProvider:    "google",
		LanguageCode:     "en-GB",
		Voice:            "en-GB-Chirp-HD-O",
		Encoding:         "MP3",
		OpenAIModel:      "gpt-4o-mini-tts",
		OpenAIVoice:      "alloy",
		OpenAISpeed:      1.0,
		GeocoderURL:      "https://nominatim.openstreetmap.org",
		GeocoderInterval: time.Second,
	}
}
