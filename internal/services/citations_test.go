package services

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfchat/internal/repositories"
)

func searchResult(id string, page int, text string, score float32) *repositories.SearchResult {
	return &repositories.SearchResult{
		ID:    id,
		Text:  text,
		Score: score,
		Metadata: map[string]interface{}{
			repositories.MetaDocumentID: "doc-1",
			repositories.MetaPageNumber: page,
		},
	}
}

func TestExtractCitations_MentionedPages(t *testing.T) {
	results := []*repositories.SearchResult{
		searchResult("c0", 1, "intro text", 0.9),
		searchResult("c1", 3, "methods text", 0.8),
		searchResult("c2", 7, "appendix text", 0.7),
	}

	answer := "The methodology is described in detail [Page 3], with further data in the appendix [Page 7]."
	citations := ExtractCitations(answer, results)

	require.Len(t, citations, 2)
	assert.Equal(t, "c1", citations[0].ID)
	assert.Equal(t, 3, citations[0].PageNumber)
	assert.Equal(t, "c2", citations[1].ID)
	assert.Equal(t, float32(0.7), citations[1].Score)
}

func TestExtractCitations_OrderFollowsResults(t *testing.T) {
	results := []*repositories.SearchResult{
		searchResult("c0", 5, "later page ranked higher", 0.95),
		searchResult("c1", 2, "earlier page ranked lower", 0.80),
	}

	// Mention order in the answer is 2 then 5; citations still follow
	// search ranking
	answer := "See [Page 2] and also [Page 5]."
	citations := ExtractCitations(answer, results)

	require.Len(t, citations, 2)
	assert.Equal(t, "c0", citations[0].ID)
	assert.Equal(t, "c1", citations[1].ID)
}

func TestExtractCitations_FallbackTopThree(t *testing.T) {
	results := []*repositories.SearchResult{
		searchResult("c0", 1, "a", 0.9),
		searchResult("c1", 2, "b", 0.8),
		searchResult("c2", 3, "c", 0.7),
		searchResult("c3", 4, "d", 0.6),
	}

	citations := ExtractCitations("The answer mentions no pages at all.", results)

	require.Len(t, citations, 3)
	assert.Equal(t, "c0", citations[0].ID)
	assert.Equal(t, "c2", citations[2].ID)
}

func TestExtractCitations_FallbackFewerResults(t *testing.T) {
	results := []*repositories.SearchResult{
		searchResult("c0", 1, "only one", 0.9),
	}

	citations := ExtractCitations("No page mentions here.", results)
	require.Len(t, citations, 1)
	assert.Equal(t, "c0", citations[0].ID)
}

func TestExtractCitations_MentionsWithoutMatchingResults(t *testing.T) {
	results := []*repositories.SearchResult{
		searchResult("c0", 1, "a", 0.9),
		searchResult("c1", 2, "b", 0.8),
	}

	// Pages cited in the answer that retrieval never returned still yield
	// the fallback citations
	citations := ExtractCitations("As stated on [Page 99].", results)
	require.Len(t, citations, 2)
}

func TestExtractCitations_NoResults(t *testing.T) {
	citations := ExtractCitations("Anything [Page 1].", nil)
	assert.Empty(t, citations)
}

func TestExtractCitations_PreviewTruncated(t *testing.T) {
	long := strings.Repeat("x", 500)
	results := []*repositories.SearchResult{
		searchResult("c0", 4, long, 0.9),
	}

	citations := ExtractCitations("Found it [Page 4].", results)
	require.Len(t, citations, 1)
	assert.Len(t, citations[0].Text, 200)
}

func TestExtractCitations_PreviewKeepsValidUTF8(t *testing.T) {
	// 199 ASCII bytes, then 2-byte runes straddling the cutoff
	long := strings.Repeat("x", 199) + strings.Repeat("é", 60)
	results := []*repositories.SearchResult{
		searchResult("c0", 4, long, 0.9),
	}

	citations := ExtractCitations("Found it [Page 4].", results)
	require.Len(t, citations, 1)
	assert.True(t, utf8.ValidString(citations[0].Text))
	assert.LessOrEqual(t, len(citations[0].Text), 200)
}

func TestExtractCitations_DuplicateMentionsCitedOnce(t *testing.T) {
	results := []*repositories.SearchResult{
		searchResult("c0", 2, "text", 0.9),
	}

	citations := ExtractCitations("[Page 2] and again [Page 2].", results)
	require.Len(t, citations, 1)
}
