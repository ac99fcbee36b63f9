// Package server exposes the ingestion and retrieval core over HTTP. The
// handlers stay thin; all pipeline logic lives below them.
package server

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/rs/zerolog/log"

	"codegenius/internal/config"
	"codegenius/internal/llm"
	"codegenius/internal/pipeline"
	"codegenius/internal/progress"
	"codegenius/internal/vectorstore"
	"codegenius/internal/workflow"
)

type Server struct {
	app      *fiber.App
	cfg      *config.Config
	store    *vectorstore.Store
	pipeline *pipeline.Pipeline
	chain    *llm.Chain
	workflow *workflow.Generator
	tracker  *progress.Tracker

	mu          sync.Mutex
	currentRepo string
}

func New(
	cfg *config.Config,
	store *vectorstore.Store,
	pipe *pipeline.Pipeline,
	chain *llm.Chain,
	wf *workflow.Generator,
	tracker *progress.Tracker,
) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit: int(cfg.Server.MaxUploadBytes),
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.CorsOrigins,
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	s := &Server{
		app:      app,
		cfg:      cfg,
		store:    store,
		pipeline: pipe,
		chain:    chain,
		workflow: wf,
		tracker:  tracker,
	}
	// The store may have auto-reconnected on startup; adopt its binding so
	// chat works without a fresh upload.
	s.currentRepo = store.CurrentName()

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	api := s.app.Group("/api")

	api.Get("/health", s.handleHealth)
	api.Get("/progress", s.handleProgress)
	api.Post("/upload", s.handleUpload)
	api.Post("/chat", s.handleChat)
	api.Get("/repository-info", s.handleRepositoryInfo)
	api.Post("/reset", s.handleReset)
	api.Get("/workflow", s.handleWorkflow)
}

func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	log.Info().Str("port", s.cfg.Server.Port).Msg("server listening")
	return s.app.Listen(":" + s.cfg.Server.Port)
}

func (s *Server) setCurrentRepo(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentRepo = name
}

func (s *Server) getCurrentRepo() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentRepo
}
