package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codegenius/internal/models"
	"codegenius/internal/vectorstore"
)

func TestRelevance(t *testing.T) {
	assert.Equal(t, 1.0, Relevance(0))
	assert.Equal(t, 0.5, Relevance(0.5))
	assert.Equal(t, 0.0, Relevance(1))
	// Distances past 1 clamp instead of going negative.
	assert.Equal(t, 0.0, Relevance(1.5))
	assert.Equal(t, 0.0, Relevance(2))
	// Rounded to four decimal places.
	assert.InDelta(t, 0.8766, Relevance(0.12345), 0.0001)
}

func TestRetrieve_Success(t *testing.T) {
	store := &fakeStore{queryResults: []vectorstore.QueryResult{
		{
			Document: "func main() {}",
			Metadata: map[string]string{"filename": "main.go", "filepath": "cmd/main.go"},
			Distance: 0.2,
		},
		{
			Document: "package util",
			Metadata: map[string]string{},
			Distance: 0.6,
		},
	}}
	p := newTestPipeline(t, store)

	result := p.Retrieve(context.Background(), "what does main do", 5)
	assert.Equal(t, models.StatusSuccess, result.Status)
	assert.Equal(t, "what does main do", result.Query)
	require.Len(t, result.Results, 2)

	assert.Equal(t, "main.go", result.Results[0].Filename)
	assert.Equal(t, "cmd/main.go", result.Results[0].Source)
	assert.Equal(t, 0.8, result.Results[0].Relevance)

	// Missing metadata falls back rather than producing empty attributions.
	assert.Equal(t, "unknown", result.Results[1].Filename)
	assert.Equal(t, "unknown", result.Results[1].Source)
}

func TestRetrieve_Error(t *testing.T) {
	store := &fakeStore{queryErr: errors.New("collection gone")}
	p := newTestPipeline(t, store)

	result := p.Retrieve(context.Background(), "anything", 5)
	assert.Empty(t, result.Status)
	assert.Contains(t, result.Error, "Retrieval failed")
	assert.NotNil(t, result.Results)
	assert.Empty(t, result.Results)
}

func TestDedupSources(t *testing.T) {
	results := []models.RetrievedChunk{
		{Filename: "a.go", Source: "pkg/a.go", Relevance: 0.9},
		{Filename: "b.go", Source: "pkg/b.go", Relevance: 0.8},
		{Filename: "a.go", Source: "pkg/a.go", Relevance: 0.9},
		{Filename: "a.go", Source: "pkg/a.go", Relevance: 0.7},
	}

	sources := DedupSources(results)
	require.Len(t, sources, 3)
	assert.Equal(t, models.Source{Filename: "a.go", Filepath: "pkg/a.go", Relevance: 0.9}, sources[0])
	assert.Equal(t, models.Source{Filename: "b.go", Filepath: "pkg/b.go", Relevance: 0.8}, sources[1])
	assert.Equal(t, models.Source{Filename: "a.go", Filepath: "pkg/a.go", Relevance: 0.7}, sources[2])
}

func TestDedupSources_Empty(t *testing.T) {
	assert.Empty(t, DedupSources(nil))
}
