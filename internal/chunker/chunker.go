package chunker

import (
	"fmt"
	"strings"

	"pdfchat/internal/models"
)

// Chunker splits extracted pages into retrieval units. Implementations
// differ only in boundary policy; all produce chunks with deterministic
// "{documentID}_chunk_{index}" ids, monotonically increasing across pages.
type Chunker interface {
	Chunk(pages []models.ExtractedPage, documentID string) ([]models.Chunk, error)
}

// Strategy names
const (
	StrategyWords     = "words"
	StrategyChars     = "chars"
	StrategySentences = "sentences"
)

// New returns the chunker for the given strategy. size and overlap are in
// words; character-based strategies scale them by an approximate
// words-to-chars factor internally.
func New(strategy string, size, overlap int) (Chunker, error) {
	switch strategy {
	case StrategyWords:
		return NewWordChunker(size, overlap), nil
	case StrategyChars:
		return NewCharChunker(size*charsPerWord, overlap*charsPerWord), nil
	case StrategySentences:
		return NewSentenceChunker(size * charsPerWord), nil
	default:
		return nil, fmt.Errorf("unknown chunking strategy: %q", strategy)
	}
}

// Rough average used to translate a word budget into a character budget
const charsPerWord = 5

// WordChunker is the default strategy: a sliding window of size words per
// page, with successive windows sharing an overlap-word band.
type WordChunker struct {
	size    int
	overlap int
}

// NewWordChunker creates a word-windowed chunker
func NewWordChunker(size, overlap int) *WordChunker {
	if size <= 0 {
		size = 500
	}
	if overlap < 0 {
		overlap = 0
	}
	return &WordChunker{size: size, overlap: overlap}
}

// Chunk splits each page independently; pages never share chunks
func (c *WordChunker) Chunk(pages []models.ExtractedPage, documentID string) ([]models.Chunk, error) {
	var chunks []models.Chunk
	index := 0

	for _, page := range pages {
		pageChunks := c.chunkPage(page, documentID, index)
		chunks = append(chunks, pageChunks...)
		index += len(pageChunks)
	}

	return chunks, nil
}

func (c *WordChunker) chunkPage(page models.ExtractedPage, documentID string, startIndex int) []models.Chunk {
	words := strings.Fields(page.Text)
	if len(words) == 0 {
		return nil
	}

	var chunks []models.Chunk
	index := startIndex
	wordIndex := 0

	for wordIndex < len(words) {
		end := wordIndex + c.size
		if end > len(words) {
			end = len(words)
		}
		window := words[wordIndex:end]
		wordIndex = end

		text := strings.Join(window, " ")
		chunks = append(chunks, models.Chunk{
			ID:         chunkID(documentID, index),
			DocumentID: documentID,
			PageNumber: page.PageNumber,
			ChunkIndex: index,
			Text:       text,
			// Approximate offsets: word splitting discards the source
			// whitespace, so endChar is start plus the rendered length
			StartChar: page.StartChar,
			EndChar:   page.StartChar + len(text),
		})
		index++

		// Rewind so the next window shares an overlap-word prefix. The
		// rewind is capped below the window size so the cursor always
		// advances, even when overlap >= size.
		if wordIndex < len(words) && c.overlap > 0 {
			rewind := c.overlap
			if rewind >= len(window) {
				rewind = len(window) - 1
			}
			wordIndex -= rewind
		}
	}

	return chunks
}

func chunkID(documentID string, index int) string {
	return fmt.Sprintf("%s_chunk_%d", documentID, index)
}
