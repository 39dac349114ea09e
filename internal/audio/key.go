package audio

import (
	"crypto/md5"
	"encoding/hex"
)

// Key returns the content address of text: the md5 hex digest of its exact bytes.
func Key(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}

// FileName returns the artifact base name for text in the given encoding.
func FileName(text, encoding string) string {
	return Key(text) + "." + Extension(encoding)
}
