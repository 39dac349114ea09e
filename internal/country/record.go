package country

// Record is one country/capital row plus its enrichment.
// Enrichment fields stay nil until the corresponding lookup succeeded.
type Record struct {
	ID                   int    `json:"id"`
	CountryShortFormName string `json:"country_short_form_name"`
	CountryLongFormName  string `json:"country_long_form_name"`
	CountryCode2Letter   string `json:"country_code_2letter"`
	CountryCode3Letter   string `json:"country_code_3letter"`
	CapitalCity          string `json:"capital_city"`
	Independent          bool   `json:"independent"`
	MemberOfUN           bool   `json:"member_of_un"`

	CapitalLatitude      *float64 `json:"capital_latitude"`
	CapitalLongitude     *float64 `json:"capital_longitude"`
	CountryAudioFilename *string  `json:"country_audio_filename"`
	CapitalAudioFilename *string  `json:"capital_audio_filename"`
}

// SetCoordinates merges a resolved capital position.
func (r *Record) SetCoordinates(lat, lon float64) {
	r.CapitalLatitude = &lat
	r.CapitalLongitude = &lon
}

// SetAudioFilenames merges both synthesized artifact names.
func (r *Record) SetAudioFilenames(countryAudio, capitalAudio string) {
	r.CountryAudioFilename = &countryAudio
	r.CapitalAudioFilename = &capitalAudio
}

// Enriched reports whether coordinates and both audio names are present.
func (r *Record) Enriched() bool {
	return r.CapitalLatitude != nil && r.CapitalLongitude != nil &&
		r.CountryAudioFilename != nil && r.CapitalAudioFilename != nil
}
