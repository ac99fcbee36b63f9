package pipeline

import (
	"context"
	"math"

	"github.com/rs/zerolog/log"

	"codegenius/internal/models"
)

// Retrieve runs a similarity query and converts raw distances into
// relevance scores and source attributions. Failures come back inside the
// result shape, never as a panic past this layer.
func (p *Pipeline) Retrieve(ctx context.Context, query string, n int) models.RetrievalResult {
	matches, err := p.store.Query(ctx, query, n)
	if err != nil {
		log.Error().Err(err).Msg("retrieval failed")
		return models.RetrievalResult{
			Error:   "Retrieval failed: " + err.Error(),
			Results: []models.RetrievedChunk{},
		}
	}

	results := make([]models.RetrievedChunk, 0, len(matches))
	for _, m := range matches {
		results = append(results, models.RetrievedChunk{
			Chunk:     m.Document,
			Source:    metaOr(m.Metadata, "filepath", "unknown"),
			Filename:  metaOr(m.Metadata, "filename", "unknown"),
			Relevance: Relevance(m.Distance),
		})
	}

	return models.RetrievalResult{
		Status:  models.StatusSuccess,
		Query:   query,
		Results: results,
	}
}

// Relevance maps a cosine distance in [0,2] to a score in [0,1]. Distances
// past 1 would go negative, so they clamp to zero.
func Relevance(distance float64) float64 {
	r := 1 - distance
	if r < 0 {
		r = 0
	}
	return math.Round(r*10000) / 10000
}

// DedupSources collapses repeated (filename, filepath, relevance) triples,
// preserving first-seen order.
func DedupSources(results []models.RetrievedChunk) []models.Source {
	seen := make(map[models.Source]struct{}, len(results))
	sources := make([]models.Source, 0, len(results))
	for _, r := range results {
		src := models.Source{Filename: r.Filename, Filepath: r.Source, Relevance: r.Relevance}
		if _, ok := seen[src]; ok {
			continue
		}
		seen[src] = struct{}{}
		sources = append(sources, src)
	}
	return sources
}

func metaOr(meta map[string]string, key, fallback string) string {
	if v, ok := meta[key]; ok && v != "" {
		return v
	}
	return fallback
}
