package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	RAG       RAGConfig       `yaml:"rag"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Groq      GroqConfig      `yaml:"groq"`
	Ollama    OllamaConfig    `yaml:"ollama"`
}

type ServerConfig struct {
	Port           string `yaml:"port"`
	UploadDir      string `yaml:"upload_dir"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
	CorsOrigins    string `yaml:"cors_origins"`
}

type StorageConfig struct {
	VectorDBPath string `yaml:"vector_db_path"`
	ManifestDir  string `yaml:"manifest_dir"`
}

type RAGConfig struct {
	ChunkSize    int   `yaml:"chunk_size"`
	ChunkOverlap int   `yaml:"chunk_overlap"`
	TopK         int   `yaml:"top_k"`
	MaxFileBytes int64 `yaml:"max_file_bytes"`
}

type EmbeddingConfig struct {
	BaseURL   string `yaml:"base_url"`
	Model     string `yaml:"model"`
	Dimension int    `yaml:"dimension"`
	BatchSize int    `yaml:"batch_size"`
}

type GroqConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

type OllamaConfig struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// LoadConfig reads the YAML config file, fills in defaults for anything
// unset, and applies environment overrides last. A missing file is not an
// error; the defaults plus environment are enough to run.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	cfg.applyDefaults()
	cfg.applyEnv()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "5000"
	}
	if c.Server.UploadDir == "" {
		c.Server.UploadDir = "./uploads"
	}
	if c.Server.MaxUploadBytes == 0 {
		c.Server.MaxUploadBytes = 100_000_000
	}
	if c.Server.CorsOrigins == "" {
		c.Server.CorsOrigins = "*"
	}
	if c.Storage.VectorDBPath == "" {
		c.Storage.VectorDBPath = "./chroma_data"
	}
	if c.Storage.ManifestDir == "" {
		c.Storage.ManifestDir = "./chunks"
	}
	if c.RAG.ChunkSize == 0 {
		c.RAG.ChunkSize = 800
	}
	if c.RAG.ChunkOverlap == 0 {
		c.RAG.ChunkOverlap = 100
	}
	if c.RAG.TopK == 0 {
		c.RAG.TopK = 5
	}
	if c.RAG.MaxFileBytes == 0 {
		c.RAG.MaxFileBytes = 500_000
	}
	if c.Embedding.BaseURL == "" {
		c.Embedding.BaseURL = "http://localhost:11434"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "nomic-embed-text"
	}
	if c.Embedding.Dimension == 0 {
		c.Embedding.Dimension = 768
	}
	if c.Embedding.BatchSize == 0 {
		c.Embedding.BatchSize = 64
	}
	if c.Groq.BaseURL == "" {
		c.Groq.BaseURL = "https://api.groq.com/openai/v1"
	}
	if c.Groq.Model == "" {
		c.Groq.Model = "llama-3.1-8b-instant"
	}
	if c.Ollama.BaseURL == "" {
		c.Ollama.BaseURL = "http://localhost:11434"
	}
	if c.Ollama.Model == "" {
		c.Ollama.Model = "tinyllama"
	}
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Server.UploadDir = getEnv("UPLOAD_FOLDER", c.Server.UploadDir)
	c.Server.MaxUploadBytes = getEnvAsInt64("MAX_UPLOAD_SIZE", c.Server.MaxUploadBytes)
	c.Storage.VectorDBPath = getEnv("VECTOR_STORE_PATH", c.Storage.VectorDBPath)
	c.Storage.ManifestDir = getEnv("CHUNKS_DIR", c.Storage.ManifestDir)
	c.Embedding.BaseURL = getEnv("EMBEDDING_BASE_URL", c.Embedding.BaseURL)
	c.Embedding.Model = getEnv("EMBEDDING_MODEL", c.Embedding.Model)
	c.Groq.APIKey = getEnv("GROQ_API_KEY", c.Groq.APIKey)
	c.Groq.Model = getEnv("GROQ_MODEL", c.Groq.Model)
	c.Ollama.BaseURL = getEnv("OLLAMA_BASE_URL", c.Ollama.BaseURL)
	c.Ollama.Model = getEnv("OLLAMA_MODEL", c.Ollama.Model)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}
