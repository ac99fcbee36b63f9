package server

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"codegenius/internal/helper"
	"codegenius/internal/models"
	"codegenius/internal/pipeline"
	"codegenius/internal/progress"
)

func errorJSON(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	groqAvailable := strings.TrimSpace(s.cfg.Groq.APIKey) != ""

	ollamaAvailable := false
	client := &http.Client{Timeout: 3 * time.Second}
	if resp, err := client.Get(s.cfg.Ollama.BaseURL + "/api/tags"); err == nil {
		ollamaAvailable = resp.StatusCode == http.StatusOK
		resp.Body.Close()
	}

	return c.JSON(fiber.Map{
		"status":           "healthy",
		"groq_available":   groqAvailable,
		"ollama_available": ollamaAvailable,
		"vector_store":     s.store.Info(),
	})
}

func (s *Server) handleProgress(c *fiber.Ctx) error {
	return c.JSON(s.tracker.Snapshot())
}

func (s *Server) handleUpload(c *fiber.Ctx) error {
	// One ingestion at a time; the tracker doubles as the guard.
	if snap := s.tracker.Snapshot(); snap.Status == progress.StatusUploading || snap.Status == progress.StatusProcessing {
		return errorJSON(c, fiber.StatusConflict, "An upload is already being processed")
	}

	s.tracker.Set(progress.StatusUploading, "Receiving file...", 52)
	log.Info().Msg("upload request received")

	fileHeader, err := c.FormFile("file")
	if err != nil {
		s.tracker.Set(progress.StatusError, "No file part in request", 0)
		return errorJSON(c, fiber.StatusBadRequest, "No file part in request")
	}
	if fileHeader.Filename == "" {
		s.tracker.Set(progress.StatusError, "No file selected", 0)
		return errorJSON(c, fiber.StatusBadRequest, "No file selected")
	}
	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".zip") {
		s.tracker.Set(progress.StatusError, "Only ZIP files allowed", 0)
		return errorJSON(c, fiber.StatusBadRequest, "Only ZIP files are allowed")
	}
	if fileHeader.Size == 0 {
		s.tracker.Set(progress.StatusError, "File is empty", 0)
		return errorJSON(c, fiber.StatusBadRequest, "Uploaded file is empty")
	}
	if fileHeader.Size > s.cfg.Server.MaxUploadBytes {
		s.tracker.Set(progress.StatusError, "File too large", 0)
		return errorJSON(c, fiber.StatusRequestEntityTooLarge,
			fmt.Sprintf("File too large (%.1f MB). Max: %d MB", float64(fileHeader.Size)/1024/1024, s.cfg.Server.MaxUploadBytes/1_000_000))
	}

	repoName := helper.SanitizeName(c.FormValue("repo_name"))
	if repoName == "" {
		repoName = helper.RepoNameFromFilename(fileHeader.Filename)
	}
	if repoName == "" {
		s.tracker.Set(progress.StatusError, "Invalid filename", 0)
		return errorJSON(c, fiber.StatusBadRequest, "Invalid filename")
	}

	if err := os.MkdirAll(s.cfg.Server.UploadDir, 0o755); err != nil {
		s.tracker.Set(progress.StatusError, "File failed to save", 0)
		return errorJSON(c, fiber.StatusInternalServerError, "File failed to save")
	}
	zipPath := filepath.Join(s.cfg.Server.UploadDir, helper.UniqueFilename(fileHeader.Filename))

	s.tracker.Set(progress.StatusProcessing, "Saving file to disk...", 55)
	if err := c.SaveFile(fileHeader, zipPath); err != nil {
		s.tracker.Set(progress.StatusError, "File failed to save", 0)
		return errorJSON(c, fiber.StatusInternalServerError, "File failed to save")
	}
	defer func() {
		if err := os.Remove(zipPath); err != nil {
			log.Warn().Err(err).Msg("could not remove uploaded ZIP")
		}
	}()

	s.tracker.Set(progress.StatusProcessing, "Extracting ZIP & scanning files...", 60)
	log.Info().Str("repo", repoName).Int64("bytes", fileHeader.Size).Msg("processing upload")

	onProgress := func(msg string, pct int) {
		s.tracker.Set(progress.StatusProcessing, msg, pct)
	}
	result, err := s.pipeline.Process(c.Context(), zipPath, repoName, onProgress)
	if err != nil {
		s.tracker.Set(progress.StatusError, err.Error(), 0)
		log.Error().Err(err).Str("repo", repoName).Msg("processing failed")
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}

	s.tracker.Set(progress.StatusDone, "Processing complete!", 100)
	s.setCurrentRepo(repoName)
	return c.JSON(result)
}

type chatRequest struct {
	Query string `json:"query"`
}

func (s *Server) handleChat(c *fiber.Ctx) error {
	repo := s.getCurrentRepo()
	if repo == "" {
		return errorJSON(c, fiber.StatusBadRequest, "No repository loaded. Please upload a ZIP file first.")
	}

	// The vector index can lose its binding across a restart; try to rebind
	// by the remembered name before telling the user to re-upload.
	if s.store.CurrentName() == "" {
		if !s.store.TryReconnect(repo) {
			s.setCurrentRepo("")
			return errorJSON(c, fiber.StatusBadRequest,
				"Repository data was lost (server may have restarted). Please re-upload your ZIP file.")
		}
	}

	var req chatRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid JSON body")
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return errorJSON(c, fiber.StatusBadRequest, "Empty query")
	}

	log.Info().Str("query", query).Msg("retrieving context")
	retrieval := s.pipeline.Retrieve(c.Context(), query, s.cfg.RAG.TopK)
	if retrieval.Error != "" {
		return c.Status(fiber.StatusInternalServerError).JSON(retrieval)
	}

	contextParts := make([]string, 0, len(retrieval.Results))
	for _, r := range retrieval.Results {
		contextParts = append(contextParts, fmt.Sprintf("[%s]\n%s", r.Filename, r.Chunk))
	}
	sources := pipeline.DedupSources(retrieval.Results)

	answer := s.chain.Generate(c.Context(), strings.Join(contextParts, "\n\n"), query)

	return c.JSON(fiber.Map{
		"status":     models.StatusSuccess,
		"query":      query,
		"answer":     answer.Answer,
		"model":      answer.Model,
		"model_name": answer.ModelName,
		"sources":    sources,
		"repository": repo,
	})
}

func (s *Server) handleRepositoryInfo(c *fiber.Ctx) error {
	repo := s.getCurrentRepo()
	if repo == "" {
		return c.JSON(fiber.Map{"loaded": false})
	}

	summary, ok := s.pipeline.Summary(repo)
	if !ok {
		return c.JSON(fiber.Map{"loaded": true, "repository": repo, "info": fiber.Map{"status": "Repository not found"}})
	}
	return c.JSON(fiber.Map{"loaded": true, "repository": repo, "info": summary})
}

func (s *Server) handleReset(c *fiber.Ctx) error {
	if err := s.store.Reset(); err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}
	s.setCurrentRepo("")
	s.pipeline.ClearSummaries()
	s.tracker.Reset()

	return c.JSON(fiber.Map{
		"status":  models.StatusSuccess,
		"message": "Vector store cleared",
	})
}

func (s *Server) handleWorkflow(c *fiber.Ctx) error {
	repo := helper.SanitizeName(c.Query("repo"))
	if repo == "" {
		return errorJSON(c, fiber.StatusBadRequest, "Missing ?repo= parameter")
	}

	graph, err := s.workflow.Generate(c.Context(), repo)
	if err != nil {
		return errorJSON(c, fiber.StatusNotFound, err.Error())
	}
	return c.JSON(graph)
}
