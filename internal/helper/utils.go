package helper

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// SanitizeName reduces a user-supplied repository or file name to a safe
// token usable as a collection name and path component. Returns "" when
// nothing safe remains.
func SanitizeName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	name = unsafeNameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._-")
	if name == "." || name == ".." {
		return ""
	}
	return name
}

// RepoNameFromFilename derives a default repository name from an uploaded
// archive's filename.
func RepoNameFromFilename(filename string) string {
	base := filepath.Base(filename)
	return SanitizeName(strings.TrimSuffix(base, filepath.Ext(base)))
}

// UniqueFilename prefixes a sanitized filename with a random id so
// successive uploads of the same archive never collide on disk.
func UniqueFilename(filename string) string {
	safe := SanitizeName(filename)
	if safe == "" {
		safe = "upload.zip"
	}
	return uuid.NewString() + "_" + safe
}
