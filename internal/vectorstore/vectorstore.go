// Package vectorstore manages named, persistent chromem-go collections of
// embedded chunks, one collection per processed repository.
package vectorstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"codegenius/internal/embedding"
)

const addBatchSize = 100

var (
	// ErrNoActiveCollection is returned when a query arrives before any
	// collection is bound (e.g. after a restart with lost state).
	ErrNoActiveCollection = errors.New("no collection initialized, upload a repository first")
	// ErrAllBatchesFailed is returned when not a single batch of an Add
	// call could be stored.
	ErrAllBatchesFailed = errors.New("all batches failed, no documents were stored")
)

// QueryResult is one ranked match. Distance is a cosine distance in [0,2];
// lower is closer.
type QueryResult struct {
	ID       string
	Document string
	Metadata map[string]string
	Distance float64
}

// Info describes the active collection, or reports that none is loaded.
type Info struct {
	Collection    string `json:"collection,omitempty"`
	DocumentCount int    `json:"document_count"`
	Status        string `json:"status,omitempty"`
}

// ProgressFunc receives progress events while documents are embedded and
// stored.
type ProgressFunc func(message string, percent int)

// Store wraps a persistent chromem database plus the single active
// collection. Reads of the binding and all writes are mutex-guarded.
type Store struct {
	mu          sync.Mutex
	db          *chromem.DB
	collection  *chromem.Collection
	currentName string
	embedder    embedding.Embedder
	path        string
}

type storeState struct {
	CurrentCollection string `json:"current_collection"`
}

// NewStore opens (or creates) the persistent database at path and tries to
// rebind the previously active collection. Reconnect failure is not an
// error; the store simply starts unbound.
func NewStore(path string, embedder embedding.Embedder) (*Store, error) {
	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector database: %v", err)
	}

	s := &Store{db: db, embedder: embedder, path: path}
	s.autoReconnect()
	return s, nil
}

// autoReconnect rebinds the collection recorded in the state file, falling
// back to the only existing collection when the state file is gone. With
// several collections and no state, the store stays unbound and the caller
// sees the lost-state path.
func (s *Store) autoReconnect() {
	name := s.readState()
	if name != "" {
		if c := s.db.GetCollection(name, s.embeddingFunc()); c != nil {
			s.collection = c
			s.currentName = name
			log.Info().Str("collection", name).Int("docs", c.Count()).Msg("auto-reconnected to collection")
			return
		}
		log.Warn().Str("collection", name).Msg("recorded collection no longer exists")
	}

	collections := s.db.ListCollections()
	if len(collections) == 1 {
		for n, c := range collections {
			s.collection = c
			s.currentName = n
			s.writeState(n)
			log.Info().Str("collection", n).Int("docs", c.Count()).Msg("auto-reconnected to sole collection")
		}
		return
	}
	log.Info().Int("collections", len(collections)).Msg("no collection bound, waiting for upload")
}

// TryReconnect binds a specific previously created collection by name.
func (s *Store) TryReconnect(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.db.GetCollection(name, s.embeddingFunc())
	if c == nil {
		log.Warn().Str("collection", name).Msg("could not reconnect to collection")
		return false
	}
	s.collection = c
	s.currentName = name
	s.writeState(name)
	log.Info().Str("collection", name).Msg("reconnected to collection")
	return true
}

// CreateOrReplace deletes any existing collection of that name, creates a
// fresh one, and binds it as active.
func (s *Store) CreateOrReplace(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.DeleteCollection(name); err != nil {
		// Absent collections are fine; this keeps the call idempotent.
		log.Debug().Err(err).Str("collection", name).Msg("delete before create")
	}

	c, err := s.db.CreateCollection(name, nil, s.embeddingFunc())
	if err != nil {
		return fmt.Errorf("failed to create collection: %v", err)
	}
	s.collection = c
	s.currentName = name
	s.writeState(name)
	log.Info().Str("collection", name).Msg("created collection")
	return nil
}

// Add embeds documents and upserts them with their metadata in batches.
// A failing batch is logged and skipped; only a totally failed call is an
// error. Returns the number of documents actually stored.
func (s *Store) Add(ctx context.Context, documents []string, metadatas []map[string]string, ids []string, onProgress ProgressFunc) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.collection == nil {
		return 0, ErrNoActiveCollection
	}
	if len(documents) != len(metadatas) {
		return 0, fmt.Errorf("documents and metadatas length mismatch: %d != %d", len(documents), len(metadatas))
	}

	if ids == nil {
		ids = sequentialIDs(len(documents))
	}
	// Duplicate ids silently overwrite in the underlying store, so any
	// collision regenerates the whole set.
	if hasDuplicates(ids) {
		log.Warn().Msg("duplicate document ids supplied, regenerating")
		ids = regeneratedIDs(len(documents))
	}

	totalBatches := (len(documents) + addBatchSize - 1) / addBatchSize
	successfulDocs := 0
	failedBatches := 0

	log.Info().Msgf("Adding %d documents in %d batches (size=%d)", len(documents), totalBatches, addBatchSize)

	for batchNum := 0; batchNum < totalBatches; batchNum++ {
		start := batchNum * addBatchSize
		end := start + addBatchSize
		if end > len(documents) {
			end = len(documents)
		}

		// Blank documents would error the embedding stage.
		var batch []chromem.Document
		var texts []string
		for i := start; i < end; i++ {
			if strings.TrimSpace(documents[i]) == "" {
				continue
			}
			texts = append(texts, documents[i])
			batch = append(batch, chromem.Document{
				ID:       ids[i],
				Content:  documents[i],
				Metadata: metadatas[i],
			})
		}
		if len(batch) == 0 {
			log.Debug().Msgf("Batch %d/%d: all empty, skipping", batchNum+1, totalBatches)
			continue
		}

		if err := s.addBatch(ctx, texts, batch); err != nil {
			failedBatches++
			log.Error().Err(err).Msgf("Batch %d/%d failed", batchNum+1, totalBatches)
			continue
		}

		successfulDocs += len(batch)
		if onProgress != nil {
			pct := 80 + int(float64(batchNum+1)/float64(totalBatches)*18)
			onProgress(fmt.Sprintf("Embedding & storing: %d/%d chunks done...", successfulDocs, len(documents)), pct)
		}
	}

	if successfulDocs == 0 {
		return 0, ErrAllBatchesFailed
	}
	log.Info().Msgf("Stored %d/%d documents (%d batches failed)", successfulDocs, len(documents), failedBatches)
	return successfulDocs, nil
}

func (s *Store) addBatch(ctx context.Context, texts []string, batch []chromem.Document) error {
	vectors, err := s.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed batch: %v", err)
	}
	for i := range batch {
		batch[i].Embedding = vectors[i]
	}
	if err := s.collection.AddDocuments(ctx, batch, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %v", err)
	}
	return nil
}

// Query runs a similarity search against the active collection. n is
// clamped to the collection size; an empty collection or a non-positive n
// returns no results and no error.
func (s *Store) Query(ctx context.Context, text string, n int) ([]QueryResult, error) {
	s.mu.Lock()
	collection := s.collection
	s.mu.Unlock()

	if collection == nil {
		return nil, ErrNoActiveCollection
	}
	if n <= 0 {
		return nil, nil
	}

	count := collection.Count()
	if count == 0 {
		return nil, nil
	}
	if n > count {
		n = count
	}

	vector, err := s.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %v", err)
	}

	results, err := collection.QueryEmbedding(ctx, vector, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query failed: %v", err)
	}

	out := make([]QueryResult, 0, len(results))
	for _, r := range results {
		out = append(out, QueryResult{
			ID:       r.ID,
			Document: r.Content,
			Metadata: r.Metadata,
			// chromem reports cosine similarity; callers want a distance.
			Distance: float64(1 - r.Similarity),
		})
	}
	return out, nil
}

// Count returns the document count of the active collection.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.collection == nil {
		return 0
	}
	return s.collection.Count()
}

// Info reports the active collection name and size.
func (s *Store) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.collection == nil {
		return Info{Status: "No collection loaded"}
	}
	return Info{Collection: s.currentName, DocumentCount: s.collection.Count()}
}

// CurrentName returns the name of the active collection, or "".
func (s *Store) CurrentName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentName
}

// Reset deletes every collection and unbinds the active one.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0)
	for name := range s.db.ListCollections() {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := s.db.DeleteCollection(name); err != nil {
			return fmt.Errorf("failed to delete collection %s: %v", name, err)
		}
	}
	s.collection = nil
	s.currentName = ""
	s.clearState()
	log.Info().Msg("vector store reset")
	return nil
}

// embeddingFunc lets chromem embed query text itself if a caller ever uses
// text queries directly; stored documents always carry explicit embeddings.
func (s *Store) embeddingFunc() chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return s.embedder.EmbedQuery(ctx, text)
	}
}

func sequentialIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("doc_%d", i)
	}
	return ids
}

func regeneratedIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("doc_%d_%s", i, uuid.NewString())
	}
	return ids
}

func hasDuplicates(ids []string) bool {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return true
		}
		seen[id] = struct{}{}
	}
	return false
}

func (s *Store) statePath() string {
	return filepath.Join(s.path, "state.json")
}

func (s *Store) readState() string {
	data, err := os.ReadFile(s.statePath())
	if err != nil {
		return ""
	}
	var st storeState
	if err := json.Unmarshal(data, &st); err != nil {
		return ""
	}
	return st.CurrentCollection
}

func (s *Store) writeState(name string) {
	data, err := json.Marshal(storeState{CurrentCollection: name})
	if err == nil {
		err = os.WriteFile(s.statePath(), data, 0o644)
	}
	if err != nil {
		log.Warn().Err(err).Msg("could not persist active collection name")
	}
}

func (s *Store) clearState() {
	if err := os.Remove(s.statePath()); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("could not remove state file")
	}
}
