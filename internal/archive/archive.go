// Package archive stages an uploaded ZIP into an isolated directory and
// discovers the supported files inside it.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// CodeExtensions are the plain text / source extensions read directly.
var CodeExtensions = map[string]bool{
	".py": true, ".js": true, ".jsx": true, ".ts": true, ".tsx": true,
	".java": true, ".c": true, ".cpp": true, ".cc": true, ".cxx": true,
	".h": true, ".hpp": true, ".cs": true,
	".go": true, ".rs": true, ".rb": true, ".php": true,
	".json": true, ".xml": true, ".yaml": true, ".yml": true,
	".md": true, ".txt": true, ".rst": true, ".sh": true, ".bash": true,
	".sql": true, ".html": true, ".css": true, ".scss": true,
	".env": true, ".properties": true, ".gradle": true, ".maven": true, ".pom": true,
}

// DocumentExtensions need a format-specific reader and get a larger size
// ceiling since they are denser per byte of extracted text.
var DocumentExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true, ".docx": true,
	".ppt": true, ".pptx": true,
	".xls": true, ".xlsx": true, ".xlsm": true, ".csv": true,
	".odt": true, ".ods": true, ".odp": true,
}

// excludedDirs are infrastructure directories pruned during discovery.
var excludedDirs = map[string]bool{
	".git": true, ".env": true, "__pycache__": true, "node_modules": true,
	".venv": true, "venv": true, "dist": true, "build": true,
	".next": true, ".nuxt": true, ".idea": true, ".vscode": true,
	"target": true, "coverage": true, ".pytest_cache": true,
}

// Supported reports whether ext (lowercased, with dot) is ingestible.
func Supported(ext string) bool {
	return CodeExtensions[ext] || DocumentExtensions[ext]
}

// FileEntry is one discovered file, addressed both absolutely and relative
// to the staging directory.
type FileEntry struct {
	AbsPath string
	RelPath string
}

// Stage extracts the ZIP at zipPath into destDir. Entries whose normalized
// path is absolute or escapes destDir via parent traversal are skipped, not
// fatal; everything else is extracted preserving relative structure.
func Stage(zipPath, destDir string) error {
	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("invalid ZIP file: %v", err)
	}
	defer reader.Close()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("failed to create extraction dir: %v", err)
	}

	for _, member := range reader.File {
		name := filepath.Clean(filepath.FromSlash(member.Name))
		if filepath.IsAbs(name) || name == ".." || strings.HasPrefix(name, ".."+string(filepath.Separator)) {
			log.Warn().Str("entry", member.Name).Msg("skipping unsafe ZIP path")
			continue
		}

		target := filepath.Join(destDir, name)
		if member.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("failed to extract ZIP: %v", err)
			}
			continue
		}

		if err := extractFile(member, target); err != nil {
			return fmt.Errorf("failed to extract ZIP: %v", err)
		}
	}
	return nil
}

func extractFile(member *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	rc, err := member.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, rc)
	return err
}

// Discover walks dir recursively, pruning infrastructure directories, and
// returns every file with a supported extension in walk order.
func Discover(dir string) ([]FileEntry, error) {
	var entries []FileEntry

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && excludedDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		ext := strings.ToLower(filepath.Ext(d.Name()))
		if !Supported(ext) {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		entries = append(entries, FileEntry{AbsPath: path, RelPath: rel})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan directory: %v", err)
	}
	return entries, nil
}

// Cleanup removes a staging directory, logging rather than failing when the
// removal itself has trouble.
func Cleanup(dir string) {
	if dir == "" {
		return
	}
	if err := os.RemoveAll(dir); err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("could not clean up staging directory")
	}
}
