package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Server.Port)
	assert.Equal(t, "./uploads", cfg.Server.UploadDir)
	assert.Equal(t, int64(100_000_000), cfg.Server.MaxUploadBytes)
	assert.Equal(t, "./chroma_data", cfg.Storage.VectorDBPath)
	assert.Equal(t, 800, cfg.RAG.ChunkSize)
	assert.Equal(t, 100, cfg.RAG.ChunkOverlap)
	assert.Equal(t, 5, cfg.RAG.TopK)
	assert.Equal(t, int64(500_000), cfg.RAG.MaxFileBytes)
	assert.Equal(t, "nomic-embed-text", cfg.Embedding.Model)
	assert.Equal(t, 768, cfg.Embedding.Dimension)
	assert.Equal(t, "https://api.groq.com/openai/v1", cfg.Groq.BaseURL)
}

func TestLoadConfig_FileValuesKept(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  port: "8080"
rag:
  chunk_size: 400
  top_k: 3
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 400, cfg.RAG.ChunkSize)
	assert.Equal(t, 3, cfg.RAG.TopK)
	// Unset fields still default.
	assert.Equal(t, 100, cfg.RAG.ChunkOverlap)
	assert.Equal(t, "./uploads", cfg.Server.UploadDir)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("GROQ_API_KEY", "gsk_test")
	t.Setenv("MAX_UPLOAD_SIZE", "1234567")
	t.Setenv("OLLAMA_MODEL", "llama3")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.Server.Port)
	assert.Equal(t, "gsk_test", cfg.Groq.APIKey)
	assert.Equal(t, int64(1234567), cfg.Server.MaxUploadBytes)
	assert.Equal(t, "llama3", cfg.Ollama.Model)
}

func TestLoadConfig_BadEnvIntIgnored(t *testing.T) {
	t.Setenv("MAX_UPLOAD_SIZE", "not-a-number")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, int64(100_000_000), cfg.Server.MaxUploadBytes)
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}
