package main

import (
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"codegenius/internal/chunker"
	"codegenius/internal/config"
	"codegenius/internal/embedding"
	"codegenius/internal/extractor"
	"codegenius/internal/llm"
	"codegenius/internal/pipeline"
	"codegenius/internal/progress"
	"codegenius/internal/server"
	"codegenius/internal/vectorstore"
	"codegenius/internal/workflow"
)

const defaultConfigPath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	configPath := flag.String("config", defaultConfigPath, "Path to the config file")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, using system environment")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}

	if err := os.MkdirAll(cfg.Server.UploadDir, 0o755); err != nil {
		log.Fatal().Err(err).Msg("Error creating upload folder")
	}

	embedder, err := embedding.NewOllamaEmbedder(&cfg.Embedding)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	store, err := vectorstore.NewStore(cfg.Storage.VectorDBPath, embedder)
	if err != nil {
		log.Fatal().Err(err).Msg("Error creating vector store")
	}

	pipe := pipeline.New(
		store,
		extractor.New(cfg.RAG.MaxFileBytes),
		chunker.NewSplitter(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap),
		cfg.Server.UploadDir,
		cfg.Storage.ManifestDir,
		cfg.Embedding.Dimension,
	)

	srv := server.New(
		cfg,
		store,
		pipe,
		llm.NewChain(cfg),
		workflow.NewGenerator(&cfg.Groq, cfg.Storage.ManifestDir),
		progress.NewTracker(),
	)

	log.Info().
		Str("upload_dir", cfg.Server.UploadDir).
		Str("vector_store", cfg.Storage.VectorDBPath).
		Int64("max_upload_mb", cfg.Server.MaxUploadBytes/1_000_000).
		Msg("starting codegenius backend")

	if err := srv.Run(); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}
