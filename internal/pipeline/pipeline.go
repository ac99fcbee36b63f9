// Package pipeline composes staging, extraction, chunking, embedding and
// indexing into the ingestion run, and answers retrieval queries against
// the resulting collection.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"codegenius/internal/archive"
	"codegenius/internal/chunker"
	"codegenius/internal/extractor"
	"codegenius/internal/models"
	"codegenius/internal/vectorstore"
)

var (
	// ErrNoSupportedFiles means the archive contained nothing ingestible.
	ErrNoSupportedFiles = errors.New("no supported code files found in ZIP")
	// ErrNoChunksProduced means every file was empty or unreadable.
	ErrNoChunksProduced = errors.New("failed to create chunks from files")
)

// ProgressFunc receives (message, percent) events during an ingestion run.
// Percentages are non-decreasing within one run.
type ProgressFunc func(message string, percent int)

// Store is the slice of the vector store the pipeline needs.
type Store interface {
	CreateOrReplace(name string) error
	Add(ctx context.Context, documents []string, metadatas []map[string]string, ids []string, onProgress vectorstore.ProgressFunc) (int, error)
	Query(ctx context.Context, text string, n int) ([]vectorstore.QueryResult, error)
}

// Pipeline is the ingestion orchestrator plus retriever.
type Pipeline struct {
	store          Store
	extractor      *extractor.Extractor
	splitter       *chunker.Splitter
	uploadDir      string
	manifestDir    string
	embeddingDim   int
	mu             sync.Mutex
	repositoryMeta map[string]models.RepositorySummary
}

func New(store Store, ex *extractor.Extractor, splitter *chunker.Splitter, uploadDir, manifestDir string, embeddingDim int) *Pipeline {
	return &Pipeline{
		store:          store,
		extractor:      ex,
		splitter:       splitter,
		uploadDir:      uploadDir,
		manifestDir:    manifestDir,
		embeddingDim:   embeddingDim,
		repositoryMeta: make(map[string]models.RepositorySummary),
	}
}

// Process runs the full ingestion for one uploaded archive: extract, scan,
// chunk, persist the manifest, then embed and index. The staging directory
// is removed on every exit path. Errors are wrapped with their cause.
func (p *Pipeline) Process(ctx context.Context, zipPath, repoName string, onProgress ProgressFunc) (*models.ProcessResult, error) {
	cb := func(msg string, pct int) {
		if onProgress != nil {
			onProgress(msg, pct)
		}
	}

	extractDir := filepath.Join(p.uploadDir, "extracted_"+repoName)
	defer archive.Cleanup(extractDir)

	log.Info().Str("repo", repoName).Msg("processing repository")
	totalStart := time.Now()

	cb("Extracting ZIP file...", 60)
	if err := archive.Stage(zipPath, extractDir); err != nil {
		return nil, fmt.Errorf("pipeline error: %w", err)
	}

	cb("Scanning for code files...", 63)
	files, err := archive.Discover(extractDir)
	if err != nil {
		return nil, fmt.Errorf("pipeline error: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("pipeline error: %w", ErrNoSupportedFiles)
	}
	log.Info().Int("files", len(files)).Msg("found supported files")

	cb(fmt.Sprintf("Chunking %d files...", len(files)), 65)
	chunkStart := time.Now()
	chunks, metadatas := p.chunkFiles(files, cb)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("pipeline error: %w", ErrNoChunksProduced)
	}
	chunkTime := time.Since(chunkStart)

	if err := p.writeManifest(repoName, files, chunks, metadatas, chunkTime); err != nil {
		return nil, fmt.Errorf("pipeline error: %w", err)
	}

	cb(fmt.Sprintf("Embedding %d chunks into vector DB...", len(chunks)), 80)
	if err := p.store.CreateOrReplace(repoName); err != nil {
		return nil, fmt.Errorf("pipeline error: %w", err)
	}
	rawMetas := make([]map[string]string, len(metadatas))
	for i, m := range metadatas {
		rawMetas[i] = m.Metadata()
	}
	if _, err := p.store.Add(ctx, chunks, rawMetas, nil, vectorstore.ProgressFunc(cb)); err != nil {
		return nil, fmt.Errorf("pipeline error: embedding/storage failed: %w", err)
	}

	cb(fmt.Sprintf("Done! %d files → %d chunks", len(files), len(chunks)), 99)
	log.Info().
		Str("repo", repoName).
		Int("files", len(files)).
		Int("chunks", len(chunks)).
		Dur("elapsed", time.Since(totalStart)).
		Msg("processing complete")

	relPaths := make([]string, len(files))
	for i, f := range files {
		relPaths[i] = f.RelPath
	}
	p.mu.Lock()
	p.repositoryMeta[repoName] = models.RepositorySummary{
		FileCount:  len(files),
		ChunkCount: len(chunks),
		Files:      relPaths,
	}
	p.mu.Unlock()

	return &models.ProcessResult{
		Status:     models.StatusSuccess,
		RepoName:   repoName,
		FileCount:  len(files),
		ChunkCount: len(chunks),
		Message:    fmt.Sprintf("Successfully processed %d files into %d chunks", len(files), len(chunks)),
	}, nil
}

// chunkFiles extracts and splits every discovered file. Per-file failures
// are logged and skipped; a best-effort partial ingestion beats an
// all-or-nothing one.
func (p *Pipeline) chunkFiles(files []archive.FileEntry, cb ProgressFunc) ([]string, []models.Chunk) {
	var allChunks []string
	var allMetas []models.Chunk
	skipped := 0
	totalFiles := len(files)

	for idx, file := range files {
		fileNum := idx + 1

		content := p.extractor.Extract(file.AbsPath)
		if content == "" {
			log.Debug().Str("file", file.RelPath).Msg("skipping empty or unreadable file")
			skipped++
			continue
		}

		chunks := p.splitter.Split(content)
		if len(chunks) == 0 {
			log.Debug().Str("file", file.RelPath).Msg("no chunks produced")
			skipped++
			continue
		}

		for chunkIdx, chunk := range chunks {
			allChunks = append(allChunks, chunk)
			allMetas = append(allMetas, models.Chunk{
				Text:       chunk,
				Filename:   filepath.Base(file.AbsPath),
				Filepath:   file.RelPath,
				ChunkIndex: chunkIdx,
				Extension:  filepath.Ext(file.AbsPath),
			})
		}

		// Chunking owns the 65-78% band, apportioned per file.
		pct := 65 + int(float64(fileNum)/float64(totalFiles)*13)
		cb(fmt.Sprintf("Chunking files: %d/%d (%d chunks)...", fileNum, totalFiles, len(allChunks)), pct)
	}

	if skipped > 0 {
		log.Info().Int("skipped", skipped).Msg("skipped files (empty or unreadable)")
	}
	return allChunks, allMetas
}

// writeManifest persists the full chunk listing for this run; downstream
// features read it without touching the live index.
func (p *Pipeline) writeManifest(repoName string, files []archive.FileEntry, chunks []string, metadatas []models.Chunk, chunkTime time.Duration) error {
	manifest := models.Manifest{
		RepoName:            repoName,
		TotalChunks:         len(chunks),
		TotalFiles:          len(files),
		EmbeddingDimension:  p.embeddingDim,
		ChunkingTimeSeconds: math.Round(chunkTime.Seconds()*100) / 100,
		Chunks:              make([]models.ManifestChunk, len(chunks)),
	}
	for i, meta := range metadatas {
		manifest.Chunks[i] = models.ManifestChunk{
			Index:      i,
			Filename:   meta.Filename,
			Filepath:   meta.Filepath,
			ChunkIndex: meta.ChunkIndex,
			Text:       chunks[i],
		}
	}

	if err := os.MkdirAll(p.manifestDir, 0o755); err != nil {
		return fmt.Errorf("failed to create manifest dir: %v", err)
	}
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %v", err)
	}
	path := ManifestPath(p.manifestDir, repoName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %v", err)
	}
	log.Info().Str("path", path).Int("chunks", len(chunks)).Msg("saved chunk manifest")
	return nil
}

// ManifestPath is the manifest artifact location for a repository name.
func ManifestPath(manifestDir, repoName string) string {
	return filepath.Join(manifestDir, repoName+".json")
}

// Summary returns the in-memory record for a processed repository.
func (p *Pipeline) Summary(repoName string) (models.RepositorySummary, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.repositoryMeta[repoName]
	return s, ok
}

// ClearSummaries forgets every in-memory repository record.
func (p *Pipeline) ClearSummaries() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.repositoryMeta = make(map[string]models.RepositorySummary)
}
