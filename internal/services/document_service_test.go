package services

import (
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pdfchat/internal/chunker"
	"pdfchat/internal/models"
	"pdfchat/internal/repositories"
)

// ============================================================================
// Test Setup
// ============================================================================

func setupDocumentService(t *testing.T) (*DocumentService, *MockVectorRepository, *MockExtractor, *repositories.DocumentRegistry) {
	logger := log.New(os.Stdout, "[TEST] ", log.LstdFlags)

	registry := repositories.NewDocumentRegistry(logger)
	vectors := new(MockVectorRepository)
	extractor := new(MockExtractor)

	wordChunker, err := chunker.New(chunker.StrategyWords, 4, 1)
	require.NoError(t, err)

	service := NewDocumentService(registry, vectors, extractor, wordChunker, t.TempDir(), logger)
	return service, vectors, extractor, registry
}

func twoPageExtraction() *ExtractionResult {
	return &ExtractionResult{
		Pages: []models.ExtractedPage{
			{PageNumber: 1, Text: "alpha bravo charlie delta echo", StartChar: 0, EndChar: 30},
			{PageNumber: 2, Text: "foxtrot golf hotel", StartChar: 30, EndChar: 48},
		},
		TotalPages: 2,
	}
}

var pdfBytes = []byte("%PDF-1.4 fake content")

// ============================================================================
// ProcessUpload
// ============================================================================

func TestDocumentService_ProcessUpload(t *testing.T) {
	service, vectors, extractor, _ := setupDocumentService(t)

	extractor.On("ExtractPDF", mock.Anything, pdfBytes, "report.pdf").
		Return(twoPageExtraction(), nil).Once()

	var upserted []*repositories.VectorRecord
	vectors.On("Upsert", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			upserted = append(upserted, args.Get(1).([]*repositories.VectorRecord)...)
		}).Return(nil)

	doc, err := service.ProcessUpload(context.Background(), "report.pdf", pdfBytes, "sess-1")
	require.NoError(t, err)

	assert.Equal(t, models.DocumentStatusReady, doc.Status)
	assert.Equal(t, 2, doc.PageCount)
	assert.Equal(t, "report.pdf", doc.OriginalName)
	assert.Equal(t, "sess-1", doc.SessionID)
	require.NotNil(t, doc.ProcessedAt)

	// The saved file exists and carries the upload bytes
	saved, err := os.ReadFile(doc.Path)
	require.NoError(t, err)
	assert.Equal(t, pdfBytes, saved)

	// Records carry chunk text and full metadata
	require.NotEmpty(t, upserted)
	first := upserted[0]
	assert.Equal(t, doc.ID+"_chunk_0", first.ID)
	assert.Equal(t, doc.ID, first.Metadata[repositories.MetaDocumentID])
	assert.Equal(t, 1, first.Metadata[repositories.MetaPageNumber])
	assert.NotEmpty(t, first.Text)
}

func TestDocumentService_ProcessUploadExtractionFailure(t *testing.T) {
	service, vectors, extractor, registry := setupDocumentService(t)

	extractor.On("ExtractPDF", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("corrupt PDF")).Once()

	_, err := service.ProcessUpload(context.Background(), "bad.pdf", pdfBytes, "")
	require.Error(t, err)

	// The registry entry survives in error state for status polling
	docs := registry.List()
	require.Len(t, docs, 1)
	assert.Equal(t, models.DocumentStatusError, docs[0].Status)

	// The stored file was cleaned up
	_, statErr := os.Stat(docs[0].Path)
	assert.True(t, os.IsNotExist(statErr))

	vectors.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestDocumentService_ProcessUploadIndexFailureRollsBack(t *testing.T) {
	service, vectors, extractor, registry := setupDocumentService(t)

	// Enough words for several chunks so multiple batch boundaries exist
	extractor.On("ExtractPDF", mock.Anything, mock.Anything, mock.Anything).
		Return(twoPageExtraction(), nil).Once()

	vectors.On("Upsert", mock.Anything, mock.Anything).
		Return(errors.New("dimension mismatch")).Once()

	_, err := service.ProcessUpload(context.Background(), "report.pdf", pdfBytes, "")
	require.Error(t, err)

	docs := registry.List()
	require.Len(t, docs, 1)
	assert.Equal(t, models.DocumentStatusError, docs[0].Status)

	// Nothing was written before the failure, so no rollback delete
	vectors.AssertNotCalled(t, "DeleteByIDs", mock.Anything, mock.Anything)
}

func TestDocumentService_ProcessUploadEmptyDocument(t *testing.T) {
	service, vectors, extractor, registry := setupDocumentService(t)

	extractor.On("ExtractPDF", mock.Anything, mock.Anything, mock.Anything).
		Return(&ExtractionResult{Pages: []models.ExtractedPage{}, TotalPages: 0}, nil).Once()

	_, err := service.ProcessUpload(context.Background(), "empty.pdf", pdfBytes, "")
	require.Error(t, err)

	docs := registry.List()
	require.Len(t, docs, 1)
	assert.Equal(t, models.DocumentStatusError, docs[0].Status)
	vectors.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

// ============================================================================
// Lifecycle operations
// ============================================================================

func TestDocumentService_GetMetadataNotFound(t *testing.T) {
	service, _, _, _ := setupDocumentService(t)

	_, err := service.GetMetadata("missing")
	assert.True(t, models.IsNotFound(err))
}

func TestDocumentService_GetFile(t *testing.T) {
	service, vectors, extractor, _ := setupDocumentService(t)

	extractor.On("ExtractPDF", mock.Anything, mock.Anything, mock.Anything).
		Return(twoPageExtraction(), nil).Once()
	vectors.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	doc, err := service.ProcessUpload(context.Background(), "report.pdf", pdfBytes, "")
	require.NoError(t, err)

	got, content, err := service.GetFile(doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, got.ID)
	assert.Equal(t, pdfBytes, content)
}

func TestDocumentService_DeleteDocument(t *testing.T) {
	service, vectors, extractor, registry := setupDocumentService(t)

	extractor.On("ExtractPDF", mock.Anything, mock.Anything, mock.Anything).
		Return(twoPageExtraction(), nil).Once()
	vectors.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	doc, err := service.ProcessUpload(context.Background(), "report.pdf", pdfBytes, "")
	require.NoError(t, err)

	vectors.On("DeleteByDocument", mock.Anything, doc.ID).Return(4, nil).Once()

	require.NoError(t, service.DeleteDocument(context.Background(), doc.ID))

	_, err = registry.Get(doc.ID)
	assert.True(t, models.IsNotFound(err))

	_, statErr := os.Stat(doc.Path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestDocumentService_DeleteDocumentVectorFailureKeepsEntry(t *testing.T) {
	service, vectors, extractor, registry := setupDocumentService(t)

	extractor.On("ExtractPDF", mock.Anything, mock.Anything, mock.Anything).
		Return(twoPageExtraction(), nil).Once()
	vectors.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	doc, err := service.ProcessUpload(context.Background(), "report.pdf", pdfBytes, "")
	require.NoError(t, err)

	vectors.On("DeleteByDocument", mock.Anything, doc.ID).
		Return(0, errors.New("backend down")).Once()

	err = service.DeleteDocument(context.Background(), doc.ID)
	require.Error(t, err)

	// Entry and file stay so the delete can be retried
	_, err = registry.Get(doc.ID)
	require.NoError(t, err)
	_, statErr := os.Stat(doc.Path)
	assert.NoError(t, statErr)
}

func TestDocumentService_DeleteDocumentUnknown(t *testing.T) {
	service, vectors, _, _ := setupDocumentService(t)

	err := service.DeleteDocument(context.Background(), "missing")
	assert.True(t, models.IsNotFound(err))
	vectors.AssertNotCalled(t, "DeleteByDocument", mock.Anything, mock.Anything)
}

func TestDocumentService_ListBySession(t *testing.T) {
	service, vectors, extractor, _ := setupDocumentService(t)

	extractor.On("ExtractPDF", mock.Anything, mock.Anything, mock.Anything).
		Return(twoPageExtraction(), nil)
	vectors.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	first, err := service.ProcessUpload(context.Background(), "a.pdf", pdfBytes, "sess-1")
	require.NoError(t, err)
	_, err = service.ProcessUpload(context.Background(), "b.pdf", pdfBytes, "sess-2")
	require.NoError(t, err)

	docs := service.ListDocumentsBySession("sess-1")
	require.Len(t, docs, 1)
	assert.Equal(t, first.ID, docs[0].ID)

	assert.Len(t, service.ListDocuments(), 2)

	// The filename on disk is the generated id, not the upload name
	assert.Equal(t, first.ID+".pdf", filepath.Base(first.Path))
}
