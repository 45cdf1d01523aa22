package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"pdfchat/internal/models"
	"pdfchat/internal/repositories"
)

// ============================================================================
// Mock VectorRepository
// ============================================================================

type MockVectorRepository struct {
	mock.Mock
}

func (m *MockVectorRepository) Upsert(ctx context.Context, records []*repositories.VectorRecord) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

func (m *MockVectorRepository) Search(ctx context.Context, queryText string, topK int, filter map[string]interface{}) ([]*repositories.SearchResult, error) {
	args := m.Called(ctx, queryText, topK, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repositories.SearchResult), args.Error(1)
}

func (m *MockVectorRepository) DeleteByDocument(ctx context.Context, documentID string) (int, error) {
	args := m.Called(ctx, documentID)
	return args.Int(0), args.Error(1)
}

func (m *MockVectorRepository) DeleteByIDs(ctx context.Context, ids []string) error {
	args := m.Called(ctx, ids)
	return args.Error(0)
}

func (m *MockVectorRepository) Stats(ctx context.Context) (*repositories.IndexStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repositories.IndexStats), args.Error(1)
}

func (m *MockVectorRepository) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockVectorRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockVectorRepository) Close() error {
	args := m.Called()
	return args.Error(0)
}

// ============================================================================
// Mock CompletionProvider
// ============================================================================

type MockCompletionProvider struct {
	mock.Mock
}

func (m *MockCompletionProvider) ChatCompletion(ctx context.Context, messages []models.HistoryEntry) (string, error) {
	args := m.Called(ctx, messages)
	return args.String(0), args.Error(1)
}

// ============================================================================
// Mock ExtractorAPI
// ============================================================================

type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) ExtractPDF(ctx context.Context, fileData []byte, filename string) (*ExtractionResult, error) {
	args := m.Called(ctx, fileData, filename)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ExtractionResult), args.Error(1)
}

func (m *MockExtractor) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
