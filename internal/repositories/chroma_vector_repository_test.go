package repositories

import (
	"context"
	"errors"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pdfchat/internal/db"
)

// ============================================================================
// Test Setup
// ============================================================================

const testCollection = "pdf_documents"
const testDimension = 4

func setupChromaRepo(t *testing.T) (*ChromaVectorRepository, *MockChromaAPI, *MockEmbedder) {
	client := new(MockChromaAPI)
	embedder := new(MockEmbedder)
	logger := log.New(os.Stdout, "[TEST] ", log.LstdFlags)

	repo := NewChromaVectorRepository(client, embedder, testCollection, testDimension, logger)

	client.On("Heartbeat", mock.Anything).Return(nil).Once()
	client.On("GetOrCreateCollection", mock.Anything, testCollection, mock.Anything).
		Return(&db.ChromaCollection{ID: "col-1", Name: testCollection}, nil).Once()
	require.NoError(t, repo.Init(context.Background()))

	return repo, client, embedder
}

func testVec(base float32) []float32 {
	return []float32{base, base + 0.1, base + 0.2, base + 0.3}
}

// ============================================================================
// Degraded Mode
// ============================================================================

func TestChromaVectorRepository_DegradedBeforeInit(t *testing.T) {
	client := new(MockChromaAPI)
	embedder := new(MockEmbedder)
	logger := log.New(os.Stdout, "[TEST] ", log.LstdFlags)
	repo := NewChromaVectorRepository(client, embedder, testCollection, testDimension, logger)

	ctx := context.Background()

	err := repo.Upsert(ctx, []*VectorRecord{{ID: "a", Text: "x"}})
	assert.ErrorIs(t, err, ErrBackendUnavailable)

	_, err = repo.Search(ctx, "query", 5, nil)
	assert.ErrorIs(t, err, ErrBackendUnavailable)

	_, err = repo.DeleteByDocument(ctx, "doc-1")
	assert.ErrorIs(t, err, ErrBackendUnavailable)

	_, err = repo.Stats(ctx)
	assert.ErrorIs(t, err, ErrBackendUnavailable)

	// No backend call should have been attempted
	client.AssertNotCalled(t, "UpsertDocuments", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestChromaVectorRepository_InitFailureLeavesDegraded(t *testing.T) {
	client := new(MockChromaAPI)
	embedder := new(MockEmbedder)
	logger := log.New(os.Stdout, "[TEST] ", log.LstdFlags)
	repo := NewChromaVectorRepository(client, embedder, testCollection, testDimension, logger)

	client.On("Heartbeat", mock.Anything).Return(errors.New("connection refused")).Once()

	err := repo.Init(context.Background())
	require.Error(t, err)

	_, err = repo.Search(context.Background(), "query", 5, nil)
	assert.ErrorIs(t, err, ErrBackendUnavailable)
}

func TestChromaVectorRepository_InitRetrySucceeds(t *testing.T) {
	client := new(MockChromaAPI)
	embedder := new(MockEmbedder)
	logger := log.New(os.Stdout, "[TEST] ", log.LstdFlags)
	repo := NewChromaVectorRepository(client, embedder, testCollection, testDimension, logger)

	client.On("Heartbeat", mock.Anything).Return(errors.New("connection refused")).Once()
	require.Error(t, repo.Init(context.Background()))

	client.On("Heartbeat", mock.Anything).Return(nil).Once()
	client.On("GetOrCreateCollection", mock.Anything, testCollection, mock.Anything).
		Return(&db.ChromaCollection{ID: "col-1", Name: testCollection}, nil).Once()
	require.NoError(t, repo.Init(context.Background()))

	client.On("CountCollection", mock.Anything, testCollection).Return(3, nil).Once()
	stats, err := repo.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Count)
}

// ============================================================================
// Upsert
// ============================================================================

func TestChromaVectorRepository_UpsertEmbedsMissing(t *testing.T) {
	repo, client, embedder := setupChromaRepo(t)

	records := []*VectorRecord{
		{ID: "doc1_chunk_0", Text: "first chunk", Embedding: testVec(0.1), Metadata: map[string]interface{}{MetaDocumentID: "doc1"}},
		{ID: "doc1_chunk_1", Text: "second chunk", Metadata: map[string]interface{}{MetaDocumentID: "doc1"}},
		{ID: "doc1_chunk_2", Text: "third chunk", Metadata: map[string]interface{}{MetaDocumentID: "doc1"}},
	}

	// Only the two records without embeddings go to the provider, batched
	embedder.On("EmbedBatch", mock.Anything, []string{"second chunk", "third chunk"}).
		Return([][]float32{testVec(0.2), testVec(0.3)}, nil).Once()

	client.On("UpsertDocuments", mock.Anything, testCollection,
		[]string{"doc1_chunk_0", "doc1_chunk_1", "doc1_chunk_2"},
		[]string{"first chunk", "second chunk", "third chunk"},
		mock.Anything, mock.Anything).Return(nil).Once()

	err := repo.Upsert(context.Background(), records)
	require.NoError(t, err)

	assert.Equal(t, testVec(0.2), records[1].Embedding)
	embedder.AssertExpectations(t)
	client.AssertExpectations(t)
}

func TestChromaVectorRepository_UpsertRejectsWrongDimension(t *testing.T) {
	repo, client, _ := setupChromaRepo(t)

	records := []*VectorRecord{
		{ID: "doc1_chunk_0", Text: "chunk", Embedding: []float32{0.1, 0.2}},
	}

	err := repo.Upsert(context.Background(), records)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
	client.AssertNotCalled(t, "UpsertDocuments", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestChromaVectorRepository_UpsertEmpty(t *testing.T) {
	repo, client, _ := setupChromaRepo(t)

	err := repo.Upsert(context.Background(), nil)
	require.NoError(t, err)
	client.AssertNotCalled(t, "UpsertDocuments", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// ============================================================================
// Search
// ============================================================================

func TestChromaVectorRepository_SearchConvertsDistanceToScore(t *testing.T) {
	repo, client, embedder := setupChromaRepo(t)

	embedder.On("Embed", mock.Anything, "what is chunking").Return(testVec(0.5), nil).Once()

	client.On("Query", mock.Anything, testCollection, [][]float32{testVec(0.5)}, 2, mock.Anything).
		Return(&db.ChromaQueryResponse{
			IDs:       [][]string{{"doc1_chunk_0", "doc1_chunk_3"}},
			Documents: [][]string{{"alpha text", "beta text"}},
			Metadatas: [][]map[string]interface{}{{
				{MetaDocumentID: "doc1", MetaPageNumber: float64(1)},
				{MetaDocumentID: "doc1", MetaPageNumber: float64(4)},
			}},
			Distances: [][]float32{{0.0, 1.0}},
		}, nil).Once()

	results, err := repo.Search(context.Background(), "what is chunking", 2, map[string]interface{}{MetaDocumentID: "doc1"})
	require.NoError(t, err)
	require.Len(t, results, 2)

	// score = 1/(1+distance)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	assert.InDelta(t, 0.5, results[1].Score, 1e-6)
	assert.Equal(t, "doc1", results[0].DocumentID())
	assert.Equal(t, 4, results[1].PageNumber())
	assert.Equal(t, "alpha text", results[0].Text)
}

func TestChromaVectorRepository_SearchPassesFilterThrough(t *testing.T) {
	repo, client, embedder := setupChromaRepo(t)

	filter := map[string]interface{}{MetaDocumentID: "doc-42"}

	embedder.On("Embed", mock.Anything, "query").Return(testVec(0.5), nil).Once()
	client.On("Query", mock.Anything, testCollection, mock.Anything, 5, filter).
		Return(&db.ChromaQueryResponse{}, nil).Once()

	results, err := repo.Search(context.Background(), "query", 5, filter)
	require.NoError(t, err)
	assert.Empty(t, results)
	client.AssertExpectations(t)
}

func TestChromaVectorRepository_SearchEmbedFailure(t *testing.T) {
	repo, client, embedder := setupChromaRepo(t)

	embedder.On("Embed", mock.Anything, "query").Return(nil, errors.New("provider down")).Once()

	_, err := repo.Search(context.Background(), "query", 5, nil)
	require.Error(t, err)

	var repoErr *VectorRepositoryError
	require.ErrorAs(t, err, &repoErr)
	assert.Equal(t, "search", repoErr.Operation)
	client.AssertNotCalled(t, "Query", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// ============================================================================
// Delete
// ============================================================================

func TestChromaVectorRepository_DeleteByDocument(t *testing.T) {
	repo, client, _ := setupChromaRepo(t)

	where := map[string]interface{}{MetaDocumentID: "doc-7"}

	client.On("GetDocuments", mock.Anything, testCollection, where, 0).
		Return(&db.ChromaGetResponse{IDs: []string{"doc-7_chunk_0", "doc-7_chunk_1", "doc-7_chunk_2"}}, nil).Once()
	client.On("DeleteDocuments", mock.Anything, testCollection,
		[]string{"doc-7_chunk_0", "doc-7_chunk_1", "doc-7_chunk_2"}).Return(nil).Once()

	count, err := repo.DeleteByDocument(context.Background(), "doc-7")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	client.AssertExpectations(t)
}

func TestChromaVectorRepository_DeleteByDocumentNoRecords(t *testing.T) {
	repo, client, _ := setupChromaRepo(t)

	client.On("GetDocuments", mock.Anything, testCollection, mock.Anything, 0).
		Return(&db.ChromaGetResponse{}, nil).Once()

	count, err := repo.DeleteByDocument(context.Background(), "unknown-doc")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	client.AssertNotCalled(t, "DeleteDocuments", mock.Anything, mock.Anything, mock.Anything)
}

// ============================================================================
// Stats and Clear
// ============================================================================

func TestChromaVectorRepository_Clear(t *testing.T) {
	repo, client, _ := setupChromaRepo(t)

	client.On("DeleteCollection", mock.Anything, testCollection).Return(nil).Once()
	client.On("GetOrCreateCollection", mock.Anything, testCollection, mock.Anything).
		Return(&db.ChromaCollection{ID: "col-2", Name: testCollection}, nil).Once()

	err := repo.Clear(context.Background())
	require.NoError(t, err)
	client.AssertExpectations(t)
}
