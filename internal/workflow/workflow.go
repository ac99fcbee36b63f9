// Package workflow derives a flowchart of a processed repository from its
// chunk manifest, without touching the live vector index.
package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"codegenius/internal/config"
	"codegenius/internal/models"
	"codegenius/internal/pipeline"
)

// Node is one flowchart step.
type Node struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

// Edge connects two nodes.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Graph is the generated flowchart.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Generator builds workflow graphs, preferring the hosted model and
// falling back to an extension-based heuristic.
type Generator struct {
	cfg         *config.GroqConfig
	manifestDir string
}

func NewGenerator(cfg *config.GroqConfig, manifestDir string) *Generator {
	return &Generator{cfg: cfg, manifestDir: manifestDir}
}

// Generate loads the repository's manifest and produces a graph. The
// manifest must exist; everything after that is best-effort.
func (g *Generator) Generate(ctx context.Context, repo string) (*Graph, error) {
	data, err := os.ReadFile(pipeline.ManifestPath(g.manifestDir, repo))
	if err != nil {
		return nil, fmt.Errorf("no chunks found for %q: %v", repo, err)
	}
	var manifest models.Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to read chunks: %v", err)
	}

	filenames := uniqueFilenames(manifest.Chunks)

	if graph := g.tryGroq(ctx, repo, &manifest, filenames); graph != nil {
		return graph, nil
	}
	return heuristicGraph(filenames), nil
}

func (g *Generator) tryGroq(ctx context.Context, repo string, manifest *models.Manifest, filenames []string) *Graph {
	if strings.TrimSpace(g.cfg.APIKey) == "" {
		return nil
	}

	fileList := make([]string, 0, 50)
	for _, fn := range filenames {
		fileList = append(fileList, "- "+fn)
		if len(fileList) == 50 {
			break
		}
	}

	prompt := fmt.Sprintf(models.WorkflowPromptTemplate,
		repo, manifest.TotalFiles, manifest.TotalChunks,
		strings.Join(fileList, "\n"), snippets(manifest.Chunks))

	llm, err := openai.New(
		openai.WithBaseURL(g.cfg.BaseURL),
		openai.WithToken(g.cfg.APIKey),
		openai.WithModel(g.cfg.Model),
	)
	if err != nil {
		log.Warn().Err(err).Msg("workflow: Groq client init failed, using heuristic")
		return nil
	}

	res, err := llm.GenerateContent(ctx,
		[]llms.MessageContent{{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextContent{Text: prompt}},
		}},
		llms.WithTemperature(0.3), llms.WithMaxTokens(1500))
	if err != nil || len(res.Choices) == 0 {
		log.Warn().Err(err).Msg("workflow: Groq failed, using heuristic")
		return nil
	}

	graph := parseGraph(res.Choices[0].Content)
	if graph == nil {
		log.Warn().Msg("workflow: Groq returned invalid graph structure, using heuristic")
		return nil
	}
	log.Info().Int("nodes", len(graph.Nodes)).Msg("workflow: Groq generated graph")
	return graph
}

var jsonObjectRe = regexp.MustCompile(`\{[\s\S]*\}`)

// parseGraph strips any markdown fencing around the model output and
// validates the shape.
func parseGraph(raw string) *Graph {
	if m := jsonObjectRe.FindString(raw); m != "" {
		raw = m
	}
	var graph Graph
	if err := json.Unmarshal([]byte(raw), &graph); err != nil {
		return nil
	}
	if len(graph.Nodes) < 2 || len(graph.Edges) == 0 {
		return nil
	}
	return &graph
}

func uniqueFilenames(chunks []models.ManifestChunk) []string {
	set := make(map[string]struct{})
	for _, c := range chunks {
		if c.Filename != "" {
			set[c.Filename] = struct{}{}
		}
	}
	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// snippets picks up to 8 representative samples from different files.
func snippets(chunks []models.ManifestChunk) string {
	seen := make(map[string]struct{})
	var parts []string
	for _, c := range chunks {
		text := strings.TrimSpace(c.Text)
		if c.Filename == "" || len(text) <= 60 {
			continue
		}
		if _, ok := seen[c.Filename]; ok {
			continue
		}
		seen[c.Filename] = struct{}{}
		if len(text) > 300 {
			text = text[:300]
		}
		preview := strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
		parts = append(parts, fmt.Sprintf("[%s]: %s", c.Filename, preview))
		if len(parts) == 8 {
			break
		}
	}
	if len(parts) == 0 {
		return "(no code snippets available)"
	}
	return strings.Join(parts, "\n\n")
}
