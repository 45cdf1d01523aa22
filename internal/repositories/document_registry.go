package repositories

import (
	"fmt"
	"log"
	"sort"
	"sync"

	"pdfchat/internal/models"
)

// DocumentRegistry tracks document metadata in memory for the lifetime of
// the process. The uploaded files and indexed vectors are durable; the
// registry entries are not.
type DocumentRegistry struct {
	mu        sync.RWMutex
	documents map[string]*models.DocumentMetadata
	logger    *log.Logger
}

// NewDocumentRegistry creates an empty in-memory document registry
func NewDocumentRegistry(logger *log.Logger) *DocumentRegistry {
	return &DocumentRegistry{
		documents: make(map[string]*models.DocumentMetadata),
		logger:    logger,
	}
}

// Put registers or replaces a document entry
func (r *DocumentRegistry) Put(doc *models.DocumentMetadata) error {
	if err := doc.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	stored := *doc
	r.documents[doc.ID] = &stored
	r.mu.Unlock()
	return nil
}

// Get returns a copy of the document entry
func (r *DocumentRegistry) Get(id string) (*models.DocumentMetadata, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.documents[id]
	if !ok {
		return nil, models.NewNotFoundError("document", id)
	}

	out := *doc
	return &out, nil
}

// SetStatus advances a document's status. Transitions only move forward:
// a document can never leave ready or error, and processing never returns
// to uploading.
func (r *DocumentRegistry) SetStatus(id string, status models.DocumentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.documents[id]
	if !ok {
		return models.NewNotFoundError("document", id)
	}

	if !doc.Status.CanTransitionTo(status) {
		return fmt.Errorf("invalid status transition for document %s: %s -> %s", id, doc.Status, status)
	}

	doc.Status = status
	r.logger.Printf("[DocumentRegistry] Document %s status: %s", id, status)
	return nil
}

// Update applies fn to the stored entry under the lock. Used for fields
// that change during processing (page count, processed timestamp).
func (r *DocumentRegistry) Update(id string, fn func(*models.DocumentMetadata)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.documents[id]
	if !ok {
		return models.NewNotFoundError("document", id)
	}

	fn(doc)
	return nil
}

// Delete removes a document entry. Deleting an unknown id is a no-op.
func (r *DocumentRegistry) Delete(id string) {
	r.mu.Lock()
	delete(r.documents, id)
	r.mu.Unlock()
}

// List returns copies of all document entries, newest upload first
func (r *DocumentRegistry) List() []*models.DocumentMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	docs := make([]*models.DocumentMetadata, 0, len(r.documents))
	for _, doc := range r.documents {
		out := *doc
		docs = append(docs, &out)
	}

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].UploadedAt.After(docs[j].UploadedAt)
	})
	return docs
}

// ListBySession returns copies of all documents uploaded under a session,
// newest first
func (r *DocumentRegistry) ListBySession(sessionID string) []*models.DocumentMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var docs []*models.DocumentMetadata
	for _, doc := range r.documents {
		if doc.SessionID == sessionID {
			out := *doc
			docs = append(docs, &out)
		}
	}

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].UploadedAt.After(docs[j].UploadedAt)
	})
	return docs
}

// Count returns the number of registered documents
func (r *DocumentRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.documents)
}
