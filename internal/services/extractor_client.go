package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"pdfchat/internal/models"
)

// ExtractorAPI defines the interface to the PDF extraction service
type ExtractorAPI interface {
	ExtractPDF(ctx context.Context, fileData []byte, filename string) (*ExtractionResult, error)
	HealthCheck(ctx context.Context) error
}

// ExtractionResult holds per-page text for one extracted document
type ExtractionResult struct {
	Pages      []models.ExtractedPage `json:"pages"`
	TotalPages int                    `json:"total_pages"`
}

// ExtractorClient talks to the PDF extraction sidecar service. Extraction
// stays out of process because the PDF parsers worth using live there.
type ExtractorClient struct {
	baseURL    string
	httpClient *http.Client
	retries    int
}

// NewExtractorClient creates an extraction service client
func NewExtractorClient(baseURL string, timeout time.Duration) *ExtractorClient {
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &ExtractorClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		retries: 3,
	}
}

// extractResponse is the wire shape of the /extract endpoint
type extractResponse struct {
	Pages []struct {
		PageNumber int    `json:"page_number"`
		Text       string `json:"text"`
	} `json:"pages"`
	TotalPages int `json:"total_pages"`
}

// ExtractPDF uploads a PDF and returns its text split by page. Page
// character offsets are computed here so downstream chunking can map
// chunks back into the full document.
func (c *ExtractorClient) ExtractPDF(ctx context.Context, fileData []byte, filename string) (*ExtractionResult, error) {
	url := c.baseURL + "/extract"

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt*attempt) * time.Second
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		// Fresh multipart body per attempt, the previous one is consumed
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)

		part, err := writer.CreateFormFile("file", filename)
		if err != nil {
			return nil, fmt.Errorf("failed to create form file: %w", err)
		}
		if _, err := io.Copy(part, bytes.NewReader(fileData)); err != nil {
			return nil, fmt.Errorf("failed to write file data: %w", err)
		}
		if err := writer.Close(); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, "POST", url, body)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", writer.FormDataContentType())
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("extraction request failed: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read extraction response: %w", err)
			continue
		}

		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("extraction service returned status %d: %s", resp.StatusCode, string(respBody))
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("extraction service returned status %d: %s", resp.StatusCode, string(respBody))
		}

		var parsed extractResponse
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			return nil, fmt.Errorf("failed to parse extraction response: %w", err)
		}

		return buildResult(&parsed), nil
	}

	return nil, fmt.Errorf("extraction failed after %d attempts: %w", c.retries+1, lastErr)
}

// HealthCheck verifies the extraction service is reachable
func (c *ExtractorClient) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("extraction service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("extraction service unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

// buildResult assigns running character offsets across pages in page order
func buildResult(parsed *extractResponse) *ExtractionResult {
	result := &ExtractionResult{
		Pages:      make([]models.ExtractedPage, len(parsed.Pages)),
		TotalPages: parsed.TotalPages,
	}

	offset := 0
	for i, page := range parsed.Pages {
		result.Pages[i] = models.ExtractedPage{
			PageNumber: page.PageNumber,
			Text:       page.Text,
			StartChar:  offset,
			EndChar:    offset + len(page.Text),
		}
		offset += len(page.Text)
	}

	if result.TotalPages == 0 {
		result.TotalPages = len(result.Pages)
	}

	return result
}
