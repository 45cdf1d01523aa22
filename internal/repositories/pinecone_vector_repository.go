package repositories

import (
	"context"
	"fmt"
	"log"

	"pdfchat/internal/db"
)

// metaText is where Pinecone keeps chunk text. Pinecone stores vectors
// plus metadata only, so the text rides along as a metadata field.
const metaText = "text"

// Pinecone caps per-request delete ids well above this; the sweep query
// uses the service's maximum topK so a document's records are collected
// in one pass.
const deleteSweepTopK = 10000

// When a metadata filter is in play the query over-fetches so enough
// matching records survive the in-memory filter.
const filterOverFetchFactor = 5
const filterOverFetchCap = 100

// PineconeAPI is the subset of the Pinecone client used by the repository
type PineconeAPI interface {
	EnsureIndex(ctx context.Context, name string, dimension int) error
	DescribeIndex(ctx context.Context, name string) (*db.PineconeIndexDescription, error)
	Upsert(ctx context.Context, vectors []db.PineconeVector) error
	Query(ctx context.Context, vector []float32, topK int) (*db.PineconeQueryResponse, error)
	DeleteByIDs(ctx context.Context, ids []string) error
	DeleteAll(ctx context.Context) error
	DescribeIndexStats(ctx context.Context) (*db.PineconeIndexStats, error)
	Close()
}

// PineconeVectorRepository implements VectorRepository using Pinecone.
// Pinecone's serverless query API does not filter on metadata here, so
// filtered searches over-fetch and filter in memory, and document deletes
// sweep the index with a zero-vector query before deleting by id.
type PineconeVectorRepository struct {
	client    PineconeAPI
	embedder  Embedder
	index     string
	dimension int
	logger    *log.Logger
}

// NewPineconeVectorRepository creates a Pinecone-backed vector repository.
// Call Init before use.
func NewPineconeVectorRepository(client PineconeAPI, embedder Embedder, index string, dimension int, logger *log.Logger) *PineconeVectorRepository {
	return &PineconeVectorRepository{
		client:    client,
		embedder:  embedder,
		index:     index,
		dimension: dimension,
		logger:    logger,
	}
}

// Init ensures the index exists with the expected dimension, creating it
// on first run and waiting until it is ready to serve
func (r *PineconeVectorRepository) Init(ctx context.Context) error {
	if err := r.client.EnsureIndex(ctx, r.index, r.dimension); err != nil {
		return NewVectorRepositoryError("init", err, "failed to ensure index: "+r.index)
	}
	r.logger.Printf("[PineconeVectorRepository] Index %s ready (dimension %d)", r.index, r.dimension)
	return nil
}

// Upsert writes records into the index, embedding any that arrive without
// an embedding. Chunk text is folded into metadata under "text".
func (r *PineconeVectorRepository) Upsert(ctx context.Context, records []*VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	if err := ensureEmbeddings(ctx, r.embedder, records, r.dimension); err != nil {
		return NewVectorRepositoryError("upsert", err, "")
	}

	vectors := make([]db.PineconeVector, len(records))
	for i, rec := range records {
		metadata := make(map[string]interface{}, len(rec.Metadata)+1)
		for k, v := range rec.Metadata {
			metadata[k] = v
		}
		metadata[metaText] = rec.Text

		vectors[i] = db.PineconeVector{
			ID:       rec.ID,
			Values:   rec.Embedding,
			Metadata: metadata,
		}
	}

	if err := r.client.Upsert(ctx, vectors); err != nil {
		return NewVectorRepositoryError("upsert", err, fmt.Sprintf("failed to upsert %d records", len(records)))
	}

	return nil
}

// Search embeds the query, over-fetches when a filter is present, applies
// the filter in memory, and truncates to topK. Pinecone scores are cosine
// similarities already, so they pass through unchanged.
func (r *PineconeVectorRepository) Search(ctx context.Context, queryText string, topK int, filter map[string]interface{}) ([]*SearchResult, error) {
	if topK <= 0 {
		return []*SearchResult{}, nil
	}

	queryEmbedding, err := embedQuery(ctx, r.embedder, queryText, r.dimension)
	if err != nil {
		return nil, NewVectorRepositoryError("search", err, "")
	}

	fetchK := topK
	if len(filter) > 0 {
		fetchK = topK * filterOverFetchFactor
		if fetchK > filterOverFetchCap {
			fetchK = filterOverFetchCap
		}
	}

	resp, err := r.client.Query(ctx, queryEmbedding, fetchK)
	if err != nil {
		return nil, NewVectorRepositoryError("search", err, "query failed")
	}

	results := make([]*SearchResult, 0, topK)
	for _, match := range resp.Matches {
		if !metadataMatches(match.Metadata, filter) {
			continue
		}

		metadata := match.Metadata
		text := metadataString(metadata, metaText)
		if metadata != nil {
			// text is transport detail, not chunk metadata
			cleaned := make(map[string]interface{}, len(metadata))
			for k, v := range metadata {
				if k == metaText {
					continue
				}
				cleaned[k] = v
			}
			metadata = cleaned
		}

		results = append(results, &SearchResult{
			ID:       match.ID,
			Text:     text,
			Score:    match.Score,
			Metadata: metadata,
		})
		if len(results) == topK {
			break
		}
	}

	return results, nil
}

// DeleteByDocument removes every record belonging to the document. The
// index is swept with a zero-vector query (which matches everything under
// cosine ranking), candidate ids are filtered by document id in memory,
// and the survivors are deleted by id.
func (r *PineconeVectorRepository) DeleteByDocument(ctx context.Context, documentID string) (int, error) {
	zero := make([]float32, r.dimension)

	resp, err := r.client.Query(ctx, zero, deleteSweepTopK)
	if err != nil {
		return 0, NewVectorRepositoryError("delete_by_document", err, "sweep query failed")
	}

	var ids []string
	for _, match := range resp.Matches {
		if metadataString(match.Metadata, MetaDocumentID) == documentID {
			ids = append(ids, match.ID)
		}
	}

	if len(ids) == 0 {
		return 0, nil
	}

	if err := r.client.DeleteByIDs(ctx, ids); err != nil {
		return 0, NewVectorRepositoryError("delete_by_document", err, fmt.Sprintf("failed to delete %d records", len(ids)))
	}

	return len(ids), nil
}

// DeleteByIDs removes exactly the given records
func (r *PineconeVectorRepository) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := r.client.DeleteByIDs(ctx, ids); err != nil {
		return NewVectorRepositoryError("delete_by_ids", err, fmt.Sprintf("failed to delete %d records", len(ids)))
	}
	return nil
}

// Stats reports the record count of the index
func (r *PineconeVectorRepository) Stats(ctx context.Context) (*IndexStats, error) {
	stats, err := r.client.DescribeIndexStats(ctx)
	if err != nil {
		return nil, NewVectorRepositoryError("stats", err, "failed to describe index stats")
	}
	return &IndexStats{Count: stats.TotalVectorCount}, nil
}

// Clear removes every record from the index without dropping it
func (r *PineconeVectorRepository) Clear(ctx context.Context) error {
	if err := r.client.DeleteAll(ctx); err != nil {
		return NewVectorRepositoryError("clear", err, "failed to clear index")
	}
	return nil
}

// Ping verifies the index is reachable and ready
func (r *PineconeVectorRepository) Ping(ctx context.Context) error {
	desc, err := r.client.DescribeIndex(ctx, r.index)
	if err != nil {
		return NewVectorRepositoryError("ping", err, "failed to describe index: "+r.index)
	}
	if !desc.Status.Ready {
		return NewVectorRepositoryError("ping", ErrBackendUnavailable, "index is not ready: "+r.index)
	}
	return nil
}

// Close closes the underlying client
func (r *PineconeVectorRepository) Close() error {
	r.client.Close()
	return nil
}

// metadataMatches reports whether metadata satisfies every equality in
// filter. Numeric values are compared loosely since JSON decoding turns
// ints into float64.
func metadataMatches(metadata, filter map[string]interface{}) bool {
	if len(filter) == 0 {
		return true
	}
	for key, want := range filter {
		got, ok := metadata[key]
		if !ok {
			return false
		}
		if fmt.Sprintf("%v", got) != fmt.Sprintf("%v", want) {
			return false
		}
	}
	return true
}
