// Package llm produces the final answer from retrieved context through a
// layered fallback chain: Groq, then a local Ollama, then a context-only
// answer that cannot fail.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"codegenius/internal/config"
	"codegenius/internal/models"
)

// stageFunc is one backend attempt. A nil error means the stage produced
// the answer; otherwise the error is the unavailability reason and the
// chain moves on.
type stageFunc func(ctx context.Context, contextText, query string) (models.Answer, error)

type stage struct {
	name string
	run  stageFunc
}

// Chain tries its stages in order and returns the first answer. The last
// stage always succeeds, so Generate never fails.
type Chain struct {
	stages []stage
}

func NewChain(cfg *config.Config) *Chain {
	groq := &groqBackend{cfg: &cfg.Groq}
	ollama := newOllamaBackend(&cfg.Ollama)
	return &Chain{
		stages: []stage{
			{name: "Groq", run: groq.generate},
			{name: "Ollama", run: ollama.generate},
			{name: "Context", run: contextOnly},
		},
	}
}

// Generate walks the fallback chain.
func (c *Chain) Generate(ctx context.Context, contextText, query string) models.Answer {
	for _, s := range c.stages {
		answer, err := s.run(ctx, contextText, query)
		if err == nil {
			log.Info().Str("model", answer.Model).Msg("answer generated")
			return answer
		}
		log.Warn().Str("stage", s.name).Str("reason", err.Error()).Msg("backend unavailable, falling back")
	}
	// Unreachable: contextOnly never errors. Kept so a misconfigured chain
	// still returns something sensible.
	return models.Answer{Answer: models.NoContextAnswer, Model: models.ModelContext, ModelName: models.ContextOnlyModelName}
}

// contextOnly is the terminal stage: quote the most relevant retrieved
// sections verbatim.
func contextOnly(_ context.Context, contextText, _ string) (models.Answer, error) {
	if strings.TrimSpace(contextText) == "" {
		return models.Answer{
			Answer:    models.NoContextAnswer,
			Model:     models.ModelContext,
			ModelName: models.ContextOnlyModelName,
		}, nil
	}

	lines := strings.Split(strings.TrimSpace(contextText), "\n")
	if len(lines) > 30 {
		lines = lines[:30]
	}
	snippet := strings.Join(lines, "\n")

	return models.Answer{
		Answer:    fmt.Sprintf(models.ContextOnlyAnswerTemplate, snippet),
		Model:     models.ModelContext,
		ModelName: models.ContextOnlyModelName,
	}, nil
}

// truncate caps context forwarded to an inference backend at n bytes.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
