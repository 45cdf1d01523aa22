package repositories

import (
	"context"
	"errors"
)

// Metadata keys shared by every vector backend
const (
	MetaDocumentID = "document_id"
	MetaPageNumber = "page_number"
	MetaChunkIndex = "chunk_index"
	MetaStartChar  = "start_char"
	MetaEndChar    = "end_char"
)

// Embedder produces embedding vectors for chunk text and queries
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorRepository is the backend-agnostic interface over the vector index.
// Two implementations exist (Pinecone and ChromaDB) with materially
// different native capabilities; the interface papers over the gaps so
// callers never branch on the backend.
type VectorRepository interface {
	// Upsert embeds records lacking embeddings (one batched call) and
	// writes them. Idempotent per id: re-upserting replaces.
	Upsert(ctx context.Context, records []*VectorRecord) error

	// Search returns up to topK results ordered by descending score.
	// filter constrains on metadata equality (typically document_id).
	// Scores are comparable within a backend, not across backends.
	Search(ctx context.Context, queryText string, topK int, filter map[string]interface{}) ([]*SearchResult, error)

	// DeleteByDocument removes every record belonging to the document and
	// returns how many were deleted. Complete even on backends without
	// native filtered delete.
	DeleteByDocument(ctx context.Context, documentID string) (int, error)

	// DeleteByIDs removes exactly the given records (used for rollback of
	// partially indexed documents)
	DeleteByIDs(ctx context.Context, ids []string) error

	Stats(ctx context.Context) (*IndexStats, error)
	Clear(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// VectorRecord is one embedded chunk as stored by a backend
type VectorRecord struct {
	ID        string                 `json:"id"`
	Embedding []float32              `json:"embedding,omitempty"`
	Metadata  map[string]interface{} `json:"metadata"`
	Text      string                 `json:"text"`
}

// SearchResult represents a single similarity search hit
type SearchResult struct {
	ID       string                 `json:"id"`
	Text     string                 `json:"text"`
	Score    float32                `json:"score"` // higher is more similar
	Metadata map[string]interface{} `json:"metadata"`
}

// DocumentID extracts the owning document id from result metadata
func (r *SearchResult) DocumentID() string {
	return metadataString(r.Metadata, MetaDocumentID)
}

// PageNumber extracts the source page from result metadata
func (r *SearchResult) PageNumber() int {
	return metadataInt(r.Metadata, MetaPageNumber)
}

// IndexStats reports the record count of the index
type IndexStats struct {
	Count int `json:"count"`
}

// Sentinel errors
var (
	// ErrBackendUnavailable means the vector index is not initialized or
	// unreachable (Chroma degraded mode)
	ErrBackendUnavailable = errors.New("vector backend unavailable")

	// ErrDimensionMismatch means an embedding's length differs from the
	// index dimension; the write is rejected rather than truncated
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// VectorRepositoryError wraps backend failures with the operation that
// produced them
type VectorRepositoryError struct {
	Operation string
	Err       error
	Message   string
}

func (e *VectorRepositoryError) Error() string {
	if e.Message != "" {
		return e.Operation + ": " + e.Message
	}
	if e.Err != nil {
		return e.Operation + ": " + e.Err.Error()
	}
	return e.Operation + ": unknown error"
}

func (e *VectorRepositoryError) Unwrap() error {
	return e.Err
}

// NewVectorRepositoryError creates a new vector repository error
func NewVectorRepositoryError(operation string, err error, message string) *VectorRepositoryError {
	return &VectorRepositoryError{
		Operation: operation,
		Err:       err,
		Message:   message,
	}
}

// metadataString reads a string metadata value, tolerating absence
func metadataString(m map[string]interface{}, key string) string {
	if m == nil {
		return ""
	}
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

// metadataInt reads an int metadata value; JSON decoding yields float64,
// so both are accepted
func metadataInt(m map[string]interface{}, key string) int {
	if m == nil {
		return 0
	}
	switch v := m[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	case float32:
		return int(v)
	}
	return 0
}
