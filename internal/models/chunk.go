package models

// Chunk represents a bounded span of a document's extracted text, the unit
// of embedding and retrieval. Chunk IDs are deterministic
// ("{document_id}_chunk_{index}") and immutable once created.
//
// StartChar/EndChar are approximate: they are the page's start offset plus
// the rendered chunk length, not exact source offsets, because word
// splitting discards the original whitespace. Citations only surface page
// numbers, so the approximation is not load-bearing.
type Chunk struct {
	ID         string `json:"id"`
	DocumentID string `json:"document_id"`
	PageNumber int    `json:"page_number"`
	ChunkIndex int    `json:"chunk_index"`
	Text       string `json:"text"`
	StartChar  int    `json:"start_char"`
	EndChar    int    `json:"end_char"`
}

// Validate checks if the chunk is valid
func (c *Chunk) Validate() error {
	if c.ID == "" {
		return &ValidationError{Field: "id", Message: "chunk ID is required"}
	}
	if c.DocumentID == "" {
		return &ValidationError{Field: "document_id", Message: "document ID is required"}
	}
	if c.Text == "" {
		return &ValidationError{Field: "text", Message: "text is required"}
	}
	if c.ChunkIndex < 0 {
		return &ValidationError{Field: "chunk_index", Message: "chunk index cannot be negative"}
	}
	return nil
}
