package repositories

import (
	"context"
	"fmt"
	"log"
	"sync"

	"pdfchat/internal/db"
)

// ChromaAPI is the subset of the ChromaDB client used by the repository
type ChromaAPI interface {
	Heartbeat(ctx context.Context) error
	GetOrCreateCollection(ctx context.Context, name string, metadata map[string]interface{}) (*db.ChromaCollection, error)
	DeleteCollection(ctx context.Context, name string) error
	CountCollection(ctx context.Context, name string) (int, error)
	UpsertDocuments(ctx context.Context, name string, ids []string, documents []string, embeddings [][]float32, metadatas []map[string]interface{}) error
	Query(ctx context.Context, name string, queryEmbeddings [][]float32, nResults int, where map[string]interface{}) (*db.ChromaQueryResponse, error)
	GetDocuments(ctx context.Context, name string, where map[string]interface{}, limit int) (*db.ChromaGetResponse, error)
	DeleteDocuments(ctx context.Context, name string, ids []string) error
	Close()
}

// ChromaVectorRepository implements VectorRepository using ChromaDB.
// ChromaDB supports metadata-filtered queries and gets natively, so both
// Search filters and document deletes push down to the server.
type ChromaVectorRepository struct {
	client     ChromaAPI
	embedder   Embedder
	collection string
	dimension  int
	logger     *log.Logger

	mu    sync.RWMutex
	ready bool
}

// NewChromaVectorRepository creates a ChromaDB-backed vector repository.
// Call Init before use; until Init succeeds every operation reports
// ErrBackendUnavailable.
func NewChromaVectorRepository(client ChromaAPI, embedder Embedder, collection string, dimension int, logger *log.Logger) *ChromaVectorRepository {
	return &ChromaVectorRepository{
		client:     client,
		embedder:   embedder,
		collection: collection,
		dimension:  dimension,
		logger:     logger,
	}
}

// Init ensures the collection exists, creating it on first run. A failed
// Init leaves the repository in degraded mode rather than crashing the
// server; callers may retry Init later.
func (r *ChromaVectorRepository) Init(ctx context.Context) error {
	if err := r.client.Heartbeat(ctx); err != nil {
		return NewVectorRepositoryError("init", err, "ChromaDB is unreachable")
	}

	_, err := r.client.GetOrCreateCollection(ctx, r.collection, map[string]interface{}{
		"hnsw:space": "cosine",
	})
	if err != nil {
		return NewVectorRepositoryError("init", err, "failed to get or create collection: "+r.collection)
	}

	r.mu.Lock()
	r.ready = true
	r.mu.Unlock()

	r.logger.Printf("[ChromaVectorRepository] Collection %s ready (dimension %d)", r.collection, r.dimension)
	return nil
}

func (r *ChromaVectorRepository) checkReady(operation string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.ready {
		return NewVectorRepositoryError(operation, ErrBackendUnavailable, "")
	}
	return nil
}

// Upsert writes records into the collection, embedding any that arrive
// without an embedding
func (r *ChromaVectorRepository) Upsert(ctx context.Context, records []*VectorRecord) error {
	if err := r.checkReady("upsert"); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	if err := ensureEmbeddings(ctx, r.embedder, records, r.dimension); err != nil {
		return NewVectorRepositoryError("upsert", err, "")
	}

	ids := make([]string, len(records))
	documents := make([]string, len(records))
	embeddings := make([][]float32, len(records))
	metadatas := make([]map[string]interface{}, len(records))

	for i, rec := range records {
		ids[i] = rec.ID
		documents[i] = rec.Text
		embeddings[i] = rec.Embedding
		metadatas[i] = rec.Metadata
	}

	if err := r.client.UpsertDocuments(ctx, r.collection, ids, documents, embeddings, metadatas); err != nil {
		return NewVectorRepositoryError("upsert", err, fmt.Sprintf("failed to upsert %d records", len(records)))
	}

	return nil
}

// Search embeds the query and runs a filtered similarity query. Distances
// come back as cosine distance; they are converted to a similarity score
// via 1/(1+distance) so higher always means more similar.
func (r *ChromaVectorRepository) Search(ctx context.Context, queryText string, topK int, filter map[string]interface{}) ([]*SearchResult, error) {
	if err := r.checkReady("search"); err != nil {
		return nil, err
	}
	if topK <= 0 {
		return []*SearchResult{}, nil
	}

	queryEmbedding, err := embedQuery(ctx, r.embedder, queryText, r.dimension)
	if err != nil {
		return nil, NewVectorRepositoryError("search", err, "")
	}

	resp, err := r.client.Query(ctx, r.collection, [][]float32{queryEmbedding}, topK, filter)
	if err != nil {
		return nil, NewVectorRepositoryError("search", err, "query failed")
	}

	results := make([]*SearchResult, 0, topK)
	if len(resp.IDs) == 0 {
		return results, nil
	}

	for i, id := range resp.IDs[0] {
		var text string
		if len(resp.Documents) > 0 && i < len(resp.Documents[0]) {
			text = resp.Documents[0][i]
		}

		metadata := map[string]interface{}{}
		if len(resp.Metadatas) > 0 && i < len(resp.Metadatas[0]) && resp.Metadatas[0][i] != nil {
			metadata = resp.Metadatas[0][i]
		}

		var distance float32
		if len(resp.Distances) > 0 && i < len(resp.Distances[0]) {
			distance = resp.Distances[0][i]
		}

		results = append(results, &SearchResult{
			ID:       id,
			Text:     text,
			Score:    1.0 / (1.0 + distance),
			Metadata: metadata,
		})
	}

	return results, nil
}

// DeleteByDocument removes every record whose metadata carries the given
// document id. ChromaDB has no filtered delete, so ids are fetched by a
// where filter first and then deleted in one call.
func (r *ChromaVectorRepository) DeleteByDocument(ctx context.Context, documentID string) (int, error) {
	if err := r.checkReady("delete_by_document"); err != nil {
		return 0, err
	}

	where := map[string]interface{}{MetaDocumentID: documentID}
	resp, err := r.client.GetDocuments(ctx, r.collection, where, 0)
	if err != nil {
		return 0, NewVectorRepositoryError("delete_by_document", err, "failed to list records for document")
	}

	if len(resp.IDs) == 0 {
		return 0, nil
	}

	if err := r.client.DeleteDocuments(ctx, r.collection, resp.IDs); err != nil {
		return 0, NewVectorRepositoryError("delete_by_document", err, fmt.Sprintf("failed to delete %d records", len(resp.IDs)))
	}

	return len(resp.IDs), nil
}

// DeleteByIDs removes exactly the given records
func (r *ChromaVectorRepository) DeleteByIDs(ctx context.Context, ids []string) error {
	if err := r.checkReady("delete_by_ids"); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	if err := r.client.DeleteDocuments(ctx, r.collection, ids); err != nil {
		return NewVectorRepositoryError("delete_by_ids", err, fmt.Sprintf("failed to delete %d records", len(ids)))
	}

	return nil
}

// Stats reports the record count of the collection
func (r *ChromaVectorRepository) Stats(ctx context.Context) (*IndexStats, error) {
	if err := r.checkReady("stats"); err != nil {
		return nil, err
	}

	count, err := r.client.CountCollection(ctx, r.collection)
	if err != nil {
		return nil, NewVectorRepositoryError("stats", err, "failed to count collection: "+r.collection)
	}

	return &IndexStats{Count: count}, nil
}

// Clear drops and recreates the collection
func (r *ChromaVectorRepository) Clear(ctx context.Context) error {
	if err := r.checkReady("clear"); err != nil {
		return err
	}

	if err := r.client.DeleteCollection(ctx, r.collection); err != nil {
		return NewVectorRepositoryError("clear", err, "failed to delete collection: "+r.collection)
	}

	_, err := r.client.GetOrCreateCollection(ctx, r.collection, map[string]interface{}{
		"hnsw:space": "cosine",
	})
	if err != nil {
		r.mu.Lock()
		r.ready = false
		r.mu.Unlock()
		return NewVectorRepositoryError("clear", err, "failed to recreate collection: "+r.collection)
	}

	return nil
}

// Ping checks if ChromaDB is alive
func (r *ChromaVectorRepository) Ping(ctx context.Context) error {
	if err := r.client.Heartbeat(ctx); err != nil {
		return NewVectorRepositoryError("ping", err, "ChromaDB heartbeat failed")
	}
	return nil
}

// Close closes the underlying client
func (r *ChromaVectorRepository) Close() error {
	r.client.Close()
	return nil
}
