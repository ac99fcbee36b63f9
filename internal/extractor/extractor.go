// Package extractor turns a staged file into normalized plain text. Every
// reader degrades to an empty string instead of failing the ingestion run;
// an unavailable format is treated the same as an empty file.
package extractor

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"codegenius/internal/archive"
)

const DefaultMaxFileBytes = 500_000

// documentSizeFactor grants document formats a larger ceiling than code
// files; a PDF carries far less extractable text per byte.
const documentSizeFactor = 4

type reader func(path string) (string, error)

// Extractor dispatches to a format-specific reader by extension, defaulting
// to a plain text decode with encoding fallback.
type Extractor struct {
	maxFileBytes int64
	readers      map[string]reader
}

func New(maxFileBytes int64) *Extractor {
	if maxFileBytes <= 0 {
		maxFileBytes = DefaultMaxFileBytes
	}
	e := &Extractor{maxFileBytes: maxFileBytes}
	e.readers = map[string]reader{
		".pdf":  readPDF,
		".docx": readDOCX,
		".doc":  readUnavailable,
		".pptx": readPPTX,
		".ppt":  readUnavailable,
		".xlsx": readXLSX,
		".xlsm": readWorkbook,
		".xls":  readUnavailable,
		".ods":  readWorkbook,
		".odt":  readUnavailable,
		".odp":  readUnavailable,
		".csv":  readTextFile,
	}
	return e
}

// Extract reads path and returns its plain text content, or "" when the
// file is empty, oversized, unreadable, or in a format without a reader.
func (e *Extractor) Extract(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		log.Debug().Err(err).Str("path", path).Msg("could not stat file")
		return ""
	}
	if info.Size() == 0 {
		return ""
	}

	ext := strings.ToLower(filepath.Ext(path))
	limit := e.maxFileBytes
	if archive.DocumentExtensions[ext] {
		limit *= documentSizeFactor
	}
	if info.Size() > limit {
		log.Debug().Str("path", path).Int64("size", info.Size()).Msg("skipping oversized file")
		return ""
	}

	read := e.readers[ext]
	if read == nil {
		read = readTextFile
	}

	content, err := read(path)
	if err != nil {
		log.Debug().Err(err).Str("path", path).Msg("could not read file")
		return ""
	}
	return content
}

func readUnavailable(string) (string, error) {
	// Legacy binary formats without a usable pure-Go reader.
	return "", nil
}

// cleanText removes null bytes and normalizes line endings to LF. It does
// not collapse whitespace; code indentation must survive chunking.
func cleanText(text string) string {
	text = strings.ReplaceAll(text, "\x00", "")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return text
}
