package models

import (
	"time"
)

// DocumentStatus represents the processing status of an uploaded document
type DocumentStatus string

const (
	DocumentStatusUploading  DocumentStatus = "uploading"
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusReady      DocumentStatus = "ready"
	DocumentStatusError      DocumentStatus = "error"
)

// IsValid checks if document status is valid
func (s DocumentStatus) IsValid() bool {
	switch s {
	case DocumentStatusUploading, DocumentStatusProcessing, DocumentStatusReady, DocumentStatusError:
		return true
	default:
		return false
	}
}

// String returns the string representation of document status
func (s DocumentStatus) String() string {
	return string(s)
}

// rank orders statuses along the forward-only state machine:
// uploading -> processing -> {ready|error}
func (s DocumentStatus) rank() int {
	switch s {
	case DocumentStatusUploading:
		return 0
	case DocumentStatusProcessing:
		return 1
	case DocumentStatusReady, DocumentStatusError:
		return 2
	default:
		return -1
	}
}

// CanTransitionTo reports whether a transition from s to next is allowed.
// Transitions never go backward, and ready/error are terminal.
func (s DocumentStatus) CanTransitionTo(next DocumentStatus) bool {
	if !next.IsValid() {
		return false
	}
	return next.rank() > s.rank()
}

// DocumentMetadata represents an uploaded document and its processing state
type DocumentMetadata struct {
	ID           string         `json:"id"`
	Filename     string         `json:"filename"`
	OriginalName string         `json:"original_name"`
	Path         string         `json:"path"`
	Size         int64          `json:"size"`
	UploadedAt   time.Time      `json:"uploaded_at"`
	ProcessedAt  *time.Time     `json:"processed_at,omitempty"`
	PageCount    int            `json:"page_count"`
	Status       DocumentStatus `json:"status"`
	SessionID    string         `json:"session_id"`
}

// Validate checks if the document metadata is valid
func (d *DocumentMetadata) Validate() error {
	if d.ID == "" {
		return &ValidationError{Field: "id", Message: "document ID is required"}
	}
	if d.Filename == "" {
		return &ValidationError{Field: "filename", Message: "filename is required"}
	}
	if !d.Status.IsValid() {
		return &ValidationError{Field: "status", Message: "invalid status: " + string(d.Status)}
	}
	return nil
}

// ExtractedPage is one page of text as produced by the extraction service
type ExtractedPage struct {
	PageNumber int    `json:"page_number"`
	Text       string `json:"text"`
	StartChar  int    `json:"start_char"`
	EndChar    int    `json:"end_char"`
}
