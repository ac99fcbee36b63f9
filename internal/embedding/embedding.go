// Package embedding converts chunk text into fixed-dimension vectors using
// an Ollama embedding model behind langchaingo.
package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"

	"codegenius/internal/config"
)

const DefaultBatchSize = 64

// Embedder is the embedding capability the pipeline depends on.
type Embedder interface {
	// EmbedTexts returns one vector per input text, in input order. Blank
	// inputs map to the zero vector without touching the model; a model
	// failure fails the whole call.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	// EmbedQuery embeds a single query string.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	// Dimension is the fixed width of every returned vector.
	Dimension() int
}

// OllamaEmbedder batches texts through an Ollama embedding model. A failed
// batch fails the call; the vector store skips work at its own batch
// granularity, so a transient model failure costs one store batch, never
// the whole ingestion. Zero vectors are reserved for blank inputs, which
// the store filters out before anything is persisted.
type OllamaEmbedder struct {
	embedder  *embeddings.EmbedderImpl
	dimension int
	batchSize int
}

// NewOllamaEmbedder creates an embedder for the configured model.
func NewOllamaEmbedder(cfg *config.EmbeddingConfig) (*OllamaEmbedder, error) {
	llm, err := ollama.New(
		ollama.WithServerURL(cfg.BaseURL),
		ollama.WithModel(cfg.Model),
	)
	if err != nil {
		log.Error().Err(err).Msg("Error initializing embedding LLM")
		return nil, err
	}
	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		log.Error().Err(err).Msg("Error creating embedder")
		return nil, err
	}

	batch := cfg.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	return &OllamaEmbedder{embedder: embedder, dimension: cfg.Dimension, batchSize: batch}, nil
}

func (e *OllamaEmbedder) Dimension() int { return e.dimension }

func (e *OllamaEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return make([]float32, e.dimension), nil
	}
	return e.embedder.EmbedQuery(ctx, text)
}

func (e *OllamaEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	return embedBatched(ctx, e.embedder.EmbedDocuments, texts, e.dimension, e.batchSize)
}

// embedBatched runs the batching and blank-skipping policy over any
// underlying batch embed call. Any failed model batch fails the call;
// partial results must never be mistaken for stored-ready vectors.
func embedBatched(
	ctx context.Context,
	embed func(ctx context.Context, texts []string) ([][]float32, error),
	texts []string,
	dimension, batchSize int,
) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	// Blank inputs are resolved locally; only real text reaches the model.
	validIdx := make([]int, 0, len(texts))
	validTexts := make([]string, 0, len(texts))
	for i, t := range texts {
		if strings.TrimSpace(t) != "" {
			validIdx = append(validIdx, i)
			validTexts = append(validTexts, t)
		}
	}

	result := make([][]float32, len(texts))
	for i := range result {
		result[i] = make([]float32, dimension)
	}
	if len(validTexts) == 0 {
		return result, nil
	}

	totalBatches := (len(validTexts) + batchSize - 1) / batchSize
	out := 0
	for start := 0; start < len(validTexts); start += batchSize {
		end := start + batchSize
		if end > len(validTexts) {
			end = len(validTexts)
		}
		batchNum := start/batchSize + 1

		vectors, err := embed(ctx, validTexts[start:end])
		if err != nil {
			log.Error().Err(err).Msgf("Embedding batch %d/%d failed", batchNum, totalBatches)
			return nil, fmt.Errorf("embedding batch %d/%d failed: %v", batchNum, totalBatches, err)
		}
		if len(vectors) != end-start {
			return nil, fmt.Errorf("embedding batch %d/%d returned %d vectors for %d inputs", batchNum, totalBatches, len(vectors), end-start)
		}
		for _, vec := range vectors {
			result[validIdx[out]] = vec
			out++
		}
	}
	return result, nil
}
