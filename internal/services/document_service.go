package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"pdfchat/internal/chunker"
	"pdfchat/internal/models"
	"pdfchat/internal/repositories"
)

// upsertBatchSize bounds how many records go to the vector backend per call
const upsertBatchSize = 100

// DocumentService owns the upload-to-ready pipeline and document lifecycle
type DocumentService struct {
	registry  *repositories.DocumentRegistry
	vectors   repositories.VectorRepository
	extractor ExtractorAPI
	chunker   chunker.Chunker
	uploadDir string
	logger    *log.Logger
}

// NewDocumentService creates a document service
func NewDocumentService(
	registry *repositories.DocumentRegistry,
	vectors repositories.VectorRepository,
	extractor ExtractorAPI,
	chunker chunker.Chunker,
	uploadDir string,
	logger *log.Logger,
) *DocumentService {
	return &DocumentService{
		registry:  registry,
		vectors:   vectors,
		extractor: extractor,
		chunker:   chunker,
		uploadDir: uploadDir,
		logger:    logger,
	}
}

// ProcessUpload ingests an uploaded PDF end to end: persist the file,
// extract pages, chunk, embed, index, then mark the document ready. Any
// failure marks the document as errored and rolls back whatever vectors
// were already written, so a failed upload never leaves partial records
// behind in the index.
func (s *DocumentService) ProcessUpload(ctx context.Context, originalName string, content []byte, sessionID string) (*models.DocumentMetadata, error) {
	id := uuid.New().String()
	filename := id + ".pdf"
	path := filepath.Join(s.uploadDir, filename)

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return nil, fmt.Errorf("failed to save upload: %w", err)
	}

	doc := &models.DocumentMetadata{
		ID:           id,
		Filename:     filename,
		OriginalName: originalName,
		Path:         path,
		Size:         int64(len(content)),
		UploadedAt:   time.Now().UTC(),
		Status:       models.DocumentStatusUploading,
		SessionID:    sessionID,
	}
	if err := s.registry.Put(doc); err != nil {
		s.removeFile(path)
		return nil, err
	}

	if err := s.registry.SetStatus(id, models.DocumentStatusProcessing); err != nil {
		return nil, err
	}

	if err := s.index(ctx, id, originalName, content); err != nil {
		s.logger.Printf("[DocumentService] Processing failed for %s: %v", id, err)
		if statusErr := s.registry.SetStatus(id, models.DocumentStatusError); statusErr != nil {
			s.logger.Printf("[DocumentService] Failed to mark %s as errored: %v", id, statusErr)
		}
		s.removeFile(path)
		return nil, err
	}

	if err := s.registry.SetStatus(id, models.DocumentStatusReady); err != nil {
		return nil, err
	}

	s.logger.Printf("[DocumentService] Document %s ready (%s, %d bytes)", id, originalName, len(content))
	return s.registry.Get(id)
}

// index runs extraction, chunking and vector writes for one document.
// Vector ids written so far are tracked so a mid-batch failure can be
// rolled back completely.
func (s *DocumentService) index(ctx context.Context, id, originalName string, content []byte) error {
	extraction, err := s.extractor.ExtractPDF(ctx, content, originalName)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	if err := s.registry.Update(id, func(doc *models.DocumentMetadata) {
		doc.PageCount = extraction.TotalPages
	}); err != nil {
		return err
	}

	chunks, err := s.chunker.Chunk(extraction.Pages, id)
	if err != nil {
		return fmt.Errorf("chunking failed: %w", err)
	}
	if len(chunks) == 0 {
		return fmt.Errorf("document %s produced no chunks", id)
	}

	records := make([]*repositories.VectorRecord, len(chunks))
	for i, chunk := range chunks {
		records[i] = &repositories.VectorRecord{
			ID:   chunk.ID,
			Text: chunk.Text,
			Metadata: map[string]interface{}{
				repositories.MetaDocumentID: chunk.DocumentID,
				repositories.MetaPageNumber: chunk.PageNumber,
				repositories.MetaChunkIndex: chunk.ChunkIndex,
				repositories.MetaStartChar:  chunk.StartChar,
				repositories.MetaEndChar:    chunk.EndChar,
			},
		}
	}

	var written []string
	for start := 0; start < len(records); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]

		if err := s.vectors.Upsert(ctx, batch); err != nil {
			s.rollback(ctx, id, written)
			return fmt.Errorf("indexing failed at record %d of %d: %w", start, len(records), err)
		}
		for _, rec := range batch {
			written = append(written, rec.ID)
		}
	}

	processed := time.Now().UTC()
	return s.registry.Update(id, func(doc *models.DocumentMetadata) {
		doc.ProcessedAt = &processed
	})
}

// rollback removes exactly the vectors written for a failed ingest
func (s *DocumentService) rollback(ctx context.Context, id string, written []string) {
	if len(written) == 0 {
		return
	}
	if err := s.vectors.DeleteByIDs(ctx, written); err != nil {
		s.logger.Printf("[DocumentService] Rollback of %d records for %s failed: %v", len(written), id, err)
		return
	}
	s.logger.Printf("[DocumentService] Rolled back %d records for %s", len(written), id)
}

// GetMetadata returns a document's registry entry
func (s *DocumentService) GetMetadata(id string) (*models.DocumentMetadata, error) {
	return s.registry.Get(id)
}

// GetFile returns the stored PDF bytes for a document
func (s *DocumentService) GetFile(id string) (*models.DocumentMetadata, []byte, error) {
	doc, err := s.registry.Get(id)
	if err != nil {
		return nil, nil, err
	}

	content, err := os.ReadFile(doc.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read stored file for %s: %w", id, err)
	}
	return doc, content, nil
}

// ListDocuments returns all registered documents, newest first
func (s *DocumentService) ListDocuments() []*models.DocumentMetadata {
	return s.registry.List()
}

// ListDocumentsBySession returns documents uploaded under a session
func (s *DocumentService) ListDocumentsBySession(sessionID string) []*models.DocumentMetadata {
	return s.registry.ListBySession(sessionID)
}

// DeleteDocument removes a document's vectors, file and registry entry.
// Vectors go first so a partial delete can be retried; file removal is
// best-effort.
func (s *DocumentService) DeleteDocument(ctx context.Context, id string) error {
	doc, err := s.registry.Get(id)
	if err != nil {
		return err
	}

	deleted, err := s.vectors.DeleteByDocument(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete vectors for %s: %w", id, err)
	}
	s.logger.Printf("[DocumentService] Deleted %d vectors for document %s", deleted, id)

	s.removeFile(doc.Path)
	s.registry.Delete(id)
	return nil
}

func (s *DocumentService) removeFile(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.Printf("[DocumentService] Failed to remove file %s: %v", path, err)
	}
}
