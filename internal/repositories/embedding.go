package repositories

import (
	"context"
	"fmt"
)

// ensureEmbeddings fills in missing record embeddings with one batched
// provider call and validates every embedding against the index dimension.
// A wrong-length embedding is rejected outright, never truncated or padded.
func ensureEmbeddings(ctx context.Context, embedder Embedder, records []*VectorRecord, dimension int) error {
	var missing []int
	var texts []string

	for i, rec := range records {
		if len(rec.Embedding) == 0 {
			missing = append(missing, i)
			texts = append(texts, rec.Text)
			continue
		}
		if len(rec.Embedding) != dimension {
			return fmt.Errorf("%w: record %s has dimension %d, index expects %d",
				ErrDimensionMismatch, rec.ID, len(rec.Embedding), dimension)
		}
	}

	if len(missing) == 0 {
		return nil
	}

	embeddings, err := embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed %d records: %w", len(texts), err)
	}
	if len(embeddings) != len(texts) {
		return fmt.Errorf("embedding provider returned %d vectors for %d texts", len(embeddings), len(texts))
	}

	for j, i := range missing {
		if len(embeddings[j]) != dimension {
			return fmt.Errorf("%w: record %s embedded to dimension %d, index expects %d",
				ErrDimensionMismatch, records[i].ID, len(embeddings[j]), dimension)
		}
		records[i].Embedding = embeddings[j]
	}

	return nil
}

// embedQuery embeds a query string and validates its dimension
func embedQuery(ctx context.Context, embedder Embedder, query string, dimension int) ([]float32, error) {
	embedding, err := embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(embedding) != dimension {
		return nil, fmt.Errorf("%w: query embedded to dimension %d, index expects %d",
			ErrDimensionMismatch, len(embedding), dimension)
	}
	return embedding, nil
}
