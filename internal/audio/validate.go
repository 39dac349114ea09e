package audio

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxTextBytes is the largest input the synthesize endpoints accept.
const MaxTextBytes = 5000

// ValidateText checks that text can be sent to a speech provider
func ValidateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("text cannot be empty")
	}

	if !utf8.ValidString(text) {
		return fmt.Errorf("text must be valid UTF-8")
	}

	if len(text) > MaxTextBytes {
		return fmt.Errorf("text exceeds %d bytes", MaxTextBytes)
	}

	return nil
}
