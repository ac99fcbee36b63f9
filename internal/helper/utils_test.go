package helper

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "myrepo", "myrepo"},
		{"spaces become underscores", "my repo v2", "my_repo_v2"},
		{"path components stripped", "/etc/passwd", "passwd"},
		{"traversal stripped", "../../secret", "secret"},
		{"unicode replaced", "répo♥name", "r_po_name"},
		{"surrounding junk trimmed", "..._repo_...", "repo"},
		{"empty", "", ""},
		{"only unsafe chars", "♥♥♥", ""},
		{"keeps dots and dashes inside", "my-repo.v2", "my-repo.v2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeName(tt.in))
		})
	}
}

func TestRepoNameFromFilename(t *testing.T) {
	assert.Equal(t, "project", RepoNameFromFilename("project.zip"))
	assert.Equal(t, "my_app", RepoNameFromFilename("uploads/my app.zip"))
	assert.Equal(t, "archive.tar", RepoNameFromFilename("archive.tar.gz"))
}

func TestUniqueFilename(t *testing.T) {
	a := UniqueFilename("code.zip")
	b := UniqueFilename("code.zip")

	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasSuffix(a, "_code.zip"))

	// Unusable names still produce a workable filename.
	assert.True(t, strings.HasSuffix(UniqueFilename("♥♥"), "_upload.zip"))
}
