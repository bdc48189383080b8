package util

import (
	"unicode/utf8"

	"github.com/pkg/errors"
)

// ErrInvalidUTF8 is returned by DecodeText when the payload is not valid UTF-8
var ErrInvalidUTF8 = errors.New("payload is not valid UTF-8")

// EncodeText converts chat text into the raw characteristic value
func EncodeText(text string) []byte {
	return []byte(text)
}

// DecodeText converts a raw characteristic value back into chat text
func DecodeText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", errors.Wrapf(ErrInvalidUTF8, "%d bytes", len(data))
	}
	return string(data), nil
}
