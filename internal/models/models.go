package models

import "strconv"

// Chunk is one bounded slice of a file's extracted text, the unit of
// embedding and retrieval.
type Chunk struct {
	Text       string `json:"text"`
	Filename   string `json:"filename"`
	Filepath   string `json:"filepath"`
	ChunkIndex int    `json:"chunk_index"`
	Extension  string `json:"file_extension"`
}

// Metadata returns the chunk's metadata map as stored in the vector index.
func (c Chunk) Metadata() map[string]string {
	return map[string]string{
		"filename":       c.Filename,
		"filepath":       c.Filepath,
		"chunk_index":    strconv.Itoa(c.ChunkIndex),
		"file_extension": c.Extension,
	}
}

// ProcessResult summarizes one completed ingestion run.
type ProcessResult struct {
	Status     string `json:"status"`
	RepoName   string `json:"repo_name"`
	FileCount  int    `json:"file_count"`
	ChunkCount int    `json:"chunk_count"`
	Message    string `json:"message"`
}

// RetrievedChunk is a single ranked match from the vector index.
type RetrievedChunk struct {
	Chunk     string  `json:"chunk"`
	Source    string  `json:"source"`
	Filename  string  `json:"filename"`
	Relevance float64 `json:"relevance"`
}

// RetrievalResult is the uniform retrieval response shape.
type RetrievalResult struct {
	Status  string           `json:"status,omitempty"`
	Query   string           `json:"query,omitempty"`
	Results []RetrievedChunk `json:"results"`
	Error   string           `json:"error,omitempty"`
}

// Source attributes a retrieved chunk back to its file.
type Source struct {
	Filename  string  `json:"filename"`
	Filepath  string  `json:"filepath"`
	Relevance float64 `json:"relevance"`
}

// Answer is the uniform result of the answer generation chain. Model
// identifies which chain stage produced it.
type Answer struct {
	Answer    string `json:"answer"`
	Model     string `json:"model"`
	ModelName string `json:"model_name"`
}

// RepositorySummary is the in-memory record of one processed repository.
// It is not persisted; a restart clears it while the manifest survives.
type RepositorySummary struct {
	FileCount  int      `json:"file_count"`
	ChunkCount int      `json:"chunk_count"`
	Files      []string `json:"files"`
}

// Manifest is the durable record of everything one ingestion run produced,
// written as one JSON artifact per repository name.
type Manifest struct {
	RepoName            string          `json:"repo_name"`
	TotalChunks         int             `json:"total_chunks"`
	TotalFiles          int             `json:"total_files"`
	EmbeddingDimension  int             `json:"embedding_dimension"`
	ChunkingTimeSeconds float64         `json:"chunking_time_seconds"`
	Chunks              []ManifestChunk `json:"chunks"`
}

// ManifestChunk is one chunk entry inside the manifest.
type ManifestChunk struct {
	Index      int    `json:"index"`
	Filename   string `json:"filename"`
	Filepath   string `json:"filepath"`
	ChunkIndex int    `json:"chunk_index"`
	Text       string `json:"text"`
}
