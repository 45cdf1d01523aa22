package chunker

import (
	"strings"

	"pdfchat/internal/models"
)

// CharChunker splits page text into fixed character-count windows with a
// fixed character overlap. Boundaries land mid-word; useful when the input
// has no meaningful whitespace structure.
type CharChunker struct {
	size    int
	overlap int
}

// NewCharChunker creates a character-windowed chunker. size and overlap
// are in characters; overlap is clamped below size to keep the cursor
// advancing.
func NewCharChunker(size, overlap int) *CharChunker {
	if size <= 0 {
		size = 2500
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size - 1
	}
	return &CharChunker{size: size, overlap: overlap}
}

// Chunk splits each page independently
func (c *CharChunker) Chunk(pages []models.ExtractedPage, documentID string) ([]models.Chunk, error) {
	var chunks []models.Chunk
	index := 0

	for _, page := range pages {
		start := 0
		for start < len(page.Text) {
			end := start + c.size
			if end > len(page.Text) {
				end = len(page.Text)
			}

			text := strings.TrimSpace(page.Text[start:end])
			if text != "" {
				chunks = append(chunks, models.Chunk{
					ID:         chunkID(documentID, index),
					DocumentID: documentID,
					PageNumber: page.PageNumber,
					ChunkIndex: index,
					Text:       text,
					StartChar:  page.StartChar + start,
					EndChar:    page.StartChar + end,
				})
				index++
			}

			if end == len(page.Text) {
				break
			}
			start = end - c.overlap
		}
	}

	return chunks, nil
}
