package chunker

import (
	"strings"

	"github.com/jdkato/prose/v2"

	"pdfchat/internal/models"
)

// SentenceChunker packs whole sentences into chunks up to a target size,
// so chunk boundaries never split a sentence. Sentence segmentation is
// done with prose; a page that yields no sentences is kept as one chunk.
type SentenceChunker struct {
	targetSize int // characters
}

// NewSentenceChunker creates a sentence-packing chunker
func NewSentenceChunker(targetSize int) *SentenceChunker {
	if targetSize <= 0 {
		targetSize = 2500
	}
	return &SentenceChunker{targetSize: targetSize}
}

// Chunk splits each page independently
func (c *SentenceChunker) Chunk(pages []models.ExtractedPage, documentID string) ([]models.Chunk, error) {
	var chunks []models.Chunk
	index := 0

	for _, page := range pages {
		sentences, err := c.sentences(page.Text)
		if err != nil {
			return nil, err
		}
		if len(sentences) == 0 {
			continue
		}

		var current []string
		currentLen := 0
		offset := 0

		flush := func() {
			if len(current) == 0 {
				return
			}
			text := strings.Join(current, " ")
			chunks = append(chunks, models.Chunk{
				ID:         chunkID(documentID, index),
				DocumentID: documentID,
				PageNumber: page.PageNumber,
				ChunkIndex: index,
				Text:       text,
				StartChar:  page.StartChar + offset,
				EndChar:    page.StartChar + offset + len(text),
			})
			index++
			offset += len(text)
			current = nil
			currentLen = 0
		}

		for _, sentence := range sentences {
			if currentLen > 0 && currentLen+len(sentence) > c.targetSize {
				flush()
			}
			current = append(current, sentence)
			currentLen += len(sentence)
		}
		flush()
	}

	return chunks, nil
}

func (c *SentenceChunker) sentences(text string) ([]string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, nil
	}

	doc, err := prose.NewDocument(trimmed,
		prose.WithTagging(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return nil, err
	}

	var sentences []string
	for _, s := range doc.Sentences() {
		if t := strings.TrimSpace(s.Text); t != "" {
			sentences = append(sentences, t)
		}
	}

	if len(sentences) == 0 {
		sentences = []string{trimmed}
	}

	return sentences, nil
}
