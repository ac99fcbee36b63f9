package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"codegenius/internal/config"
	"codegenius/internal/models"
)

// groqContextLimit caps the context forwarded to the hosted model.
const groqContextLimit = 4000

// groqBackend is the primary answer backend: Groq's OpenAI-compatible API
// driven through the langchaingo openai client with a custom base URL.
type groqBackend struct {
	cfg *config.GroqConfig
}

func (g *groqBackend) generate(ctx context.Context, contextText, query string) (models.Answer, error) {
	key := strings.TrimSpace(g.cfg.APIKey)
	if key == "" {
		return models.Answer{}, errors.New("GROQ_API_KEY not configured")
	}

	log.Debug().Str("model", g.cfg.Model).Msg("trying Groq API")

	llm, err := openai.New(
		openai.WithBaseURL(g.cfg.BaseURL),
		openai.WithToken(strings.TrimPrefix(key, "Bearer ")),
		openai.WithModel(g.cfg.Model),
	)
	if err != nil {
		return models.Answer{}, fmt.Errorf("Groq error: %v", err)
	}

	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextContent{Text: models.AnswerSystemPrompt}},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextContent{
				Text: fmt.Sprintf("Code Context:\n%s\n\nQuestion: %s", truncate(contextText, groqContextLimit), query),
			}},
		},
	}

	res, err := llm.GenerateContent(ctx, messages, llms.WithMaxTokens(1024), llms.WithTemperature(0.5))
	if err != nil {
		return models.Answer{}, fmt.Errorf("Groq error: %v", err)
	}
	if len(res.Choices) == 0 || strings.TrimSpace(res.Choices[0].Content) == "" {
		return models.Answer{}, errors.New("Groq returned empty response")
	}

	return models.Answer{
		Answer:    res.Choices[0].Content,
		Model:     models.ModelGroq,
		ModelName: g.cfg.Model,
	}, nil
}
