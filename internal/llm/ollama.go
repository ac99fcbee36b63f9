package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"codegenius/internal/config"
	"codegenius/internal/models"
)

const ollamaContextLimit = 3000

// ollamaBackend talks to a local Ollama directly over HTTP. The raw
// transport errors matter here: the reachability probe must tell apart
// connection-refused, timeout and a bad status so the caller gets a
// message explaining how to fix each.
type ollamaBackend struct {
	cfg         *config.OllamaConfig
	probeClient *http.Client
	genClient   *http.Client
}

func newOllamaBackend(cfg *config.OllamaConfig) *ollamaBackend {
	return &ollamaBackend{
		cfg:         cfg,
		probeClient: &http.Client{Timeout: 5 * time.Second},
		genClient:   &http.Client{Timeout: 120 * time.Second},
	}
}

func (o *ollamaBackend) checkReachable(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.cfg.BaseURL+"/api/tags", nil)
	if err != nil {
		return err
	}
	resp, err := o.probeClient.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return fmt.Errorf("Ollama at %s timed out", o.cfg.BaseURL)
		}
		return fmt.Errorf("Ollama not running at %s. Start it with: ollama serve", o.cfg.BaseURL)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Ollama returned status %d", resp.StatusCode)
	}
	return nil
}

func (o *ollamaBackend) generate(ctx context.Context, contextText, query string) (models.Answer, error) {
	log.Debug().Str("model", o.cfg.Model).Msg("trying Ollama")

	if err := o.checkReachable(ctx); err != nil {
		return models.Answer{}, err
	}

	prompt := fmt.Sprintf(models.OllamaPromptTemplate, truncate(contextText, ollamaContextLimit), query)
	payload, err := json.Marshal(map[string]any{
		"model":  o.cfg.Model,
		"prompt": prompt,
		"stream": false,
	})
	if err != nil {
		return models.Answer{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.cfg.BaseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return models.Answer{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.genClient.Do(req)
	if err != nil {
		return models.Answer{}, fmt.Errorf("Ollama error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return models.Answer{}, fmt.Errorf("Model '%s' not found. Run: ollama pull %s", o.cfg.Model, o.cfg.Model)
	}
	if resp.StatusCode != http.StatusOK {
		return models.Answer{}, fmt.Errorf("Ollama error: HTTP %d", resp.StatusCode)
	}

	var body struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return models.Answer{}, fmt.Errorf("Ollama error: %v", err)
	}

	answer := strings.TrimSpace(body.Response)
	if answer == "" {
		return models.Answer{}, errors.New("Ollama returned empty response")
	}

	return models.Answer{
		Answer:    answer,
		Model:     models.ModelOllama,
		ModelName: o.cfg.Model,
	}, nil
}
