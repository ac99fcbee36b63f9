package extractor

import (
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// readTextFile decodes a code/text file and trims the trailing edge. UTF-8
// is tried first; anything else goes through a BOM-aware decoder that
// handles UTF-16 files and falls back to Windows-1252, which accepts any
// byte sequence, so non-empty input always yields something.
func readTextFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	if utf8.Valid(data) {
		return normalize(string(data)), nil
	}

	decoder := unicode.BOMOverride(charmap.Windows1252.NewDecoder())
	decoded, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return "", nil
	}
	return normalize(string(decoded)), nil
}

func normalize(text string) string {
	return strings.TrimRight(cleanText(text), " \t\n")
}
