package services

import (
	"regexp"
	"strconv"
	"unicode/utf8"

	"pdfchat/internal/models"
	"pdfchat/internal/repositories"
)

var pageRefPattern = regexp.MustCompile(`\[Page (\d+)\]`)

const citationPreviewLen = 200
const fallbackCitations = 3

// ExtractCitations maps [Page N] mentions in an answer back to the search
// results the answer was grounded on. Results whose page the answer
// mentions become citations, in result order. An answer with no page
// mentions falls back to citing the top results so the UI always has
// something to show next to a grounded reply.
func ExtractCitations(answer string, results []*repositories.SearchResult) []models.Citation {
	if len(results) == 0 {
		return []models.Citation{}
	}

	mentioned := make(map[int]bool)
	for _, match := range pageRefPattern.FindAllStringSubmatch(answer, -1) {
		if page, err := strconv.Atoi(match[1]); err == nil {
			mentioned[page] = true
		}
	}

	var citations []models.Citation
	if len(mentioned) > 0 {
		for _, result := range results {
			if mentioned[result.PageNumber()] {
				citations = append(citations, toCitation(result))
			}
		}
	}

	// No overlap between mentions and results, or no mentions at all:
	// cite the top results instead
	if len(citations) == 0 {
		limit := fallbackCitations
		if len(results) < limit {
			limit = len(results)
		}
		for _, result := range results[:limit] {
			citations = append(citations, toCitation(result))
		}
	}

	return citations
}

func toCitation(result *repositories.SearchResult) models.Citation {
	text := result.Text
	if len(text) > citationPreviewLen {
		// Cut on a rune boundary so the preview stays valid UTF-8
		cut := citationPreviewLen
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	return models.Citation{
		ID:         result.ID,
		PageNumber: result.PageNumber(),
		Text:       text,
		Score:      result.Score,
	}
}
