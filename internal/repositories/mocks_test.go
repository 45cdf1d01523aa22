package repositories

import (
	"context"

	"github.com/stretchr/testify/mock"

	"pdfchat/internal/db"
)

// ============================================================================
// Mock Embedder
// ============================================================================

type MockEmbedder struct {
	mock.Mock
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

func (m *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

// ============================================================================
// Mock ChromaDB client
// ============================================================================

type MockChromaAPI struct {
	mock.Mock
}

func (m *MockChromaAPI) Heartbeat(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockChromaAPI) GetOrCreateCollection(ctx context.Context, name string, metadata map[string]interface{}) (*db.ChromaCollection, error) {
	args := m.Called(ctx, name, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.ChromaCollection), args.Error(1)
}

func (m *MockChromaAPI) DeleteCollection(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

func (m *MockChromaAPI) CountCollection(ctx context.Context, name string) (int, error) {
	args := m.Called(ctx, name)
	return args.Int(0), args.Error(1)
}

func (m *MockChromaAPI) UpsertDocuments(ctx context.Context, name string, ids []string, documents []string, embeddings [][]float32, metadatas []map[string]interface{}) error {
	args := m.Called(ctx, name, ids, documents, embeddings, metadatas)
	return args.Error(0)
}

func (m *MockChromaAPI) Query(ctx context.Context, name string, queryEmbeddings [][]float32, nResults int, where map[string]interface{}) (*db.ChromaQueryResponse, error) {
	args := m.Called(ctx, name, queryEmbeddings, nResults, where)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.ChromaQueryResponse), args.Error(1)
}

func (m *MockChromaAPI) GetDocuments(ctx context.Context, name string, where map[string]interface{}, limit int) (*db.ChromaGetResponse, error) {
	args := m.Called(ctx, name, where, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.ChromaGetResponse), args.Error(1)
}

func (m *MockChromaAPI) DeleteDocuments(ctx context.Context, name string, ids []string) error {
	args := m.Called(ctx, name, ids)
	return args.Error(0)
}

func (m *MockChromaAPI) Close() {
	m.Called()
}

// ============================================================================
// Mock Pinecone client
// ============================================================================

type MockPineconeAPI struct {
	mock.Mock
}

func (m *MockPineconeAPI) EnsureIndex(ctx context.Context, name string, dimension int) error {
	args := m.Called(ctx, name, dimension)
	return args.Error(0)
}

func (m *MockPineconeAPI) DescribeIndex(ctx context.Context, name string) (*db.PineconeIndexDescription, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.PineconeIndexDescription), args.Error(1)
}

func (m *MockPineconeAPI) Upsert(ctx context.Context, vectors []db.PineconeVector) error {
	args := m.Called(ctx, vectors)
	return args.Error(0)
}

func (m *MockPineconeAPI) Query(ctx context.Context, vector []float32, topK int) (*db.PineconeQueryResponse, error) {
	args := m.Called(ctx, vector, topK)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.PineconeQueryResponse), args.Error(1)
}

func (m *MockPineconeAPI) DeleteByIDs(ctx context.Context, ids []string) error {
	args := m.Called(ctx, ids)
	return args.Error(0)
}

func (m *MockPineconeAPI) DeleteAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockPineconeAPI) DescribeIndexStats(ctx context.Context) (*db.PineconeIndexStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.PineconeIndexStats), args.Error(1)
}

func (m *MockPineconeAPI) Close() {
	m.Called()
}
