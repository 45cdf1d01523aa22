package db

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// PineconeClient wraps HTTP calls to the Pinecone REST API (control plane
// for index management, data plane for vector operations). Written against
// the 2024-07 API; serverless indexes only.
type PineconeClient struct {
	apiKey     string
	controlURL string
	indexHost  string // data-plane host, set by EnsureIndex
	httpClient *http.Client
}

// PineconeConfig holds configuration for the Pinecone connection
type PineconeConfig struct {
	APIKey     string
	ControlURL string // default: https://api.pinecone.io
	Timeout    time.Duration
}

// PineconeVector is one record in the index
type PineconeVector struct {
	ID       string                 `json:"id"`
	Values   []float32              `json:"values"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// PineconeMatch is one query result
type PineconeMatch struct {
	ID       string                 `json:"id"`
	Score    float32                `json:"score"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// PineconeQueryResponse is the response shape of /query
type PineconeQueryResponse struct {
	Matches []PineconeMatch `json:"matches"`
}

// PineconeIndexDescription is the control-plane view of an index
type PineconeIndexDescription struct {
	Name      string `json:"name"`
	Dimension int    `json:"dimension"`
	Metric    string `json:"metric"`
	Host      string `json:"host"`
	Status    struct {
		Ready bool   `json:"ready"`
		State string `json:"state"`
	} `json:"status"`
}

// PineconeIndexStats is the response shape of /describe_index_stats
type PineconeIndexStats struct {
	Dimension        int `json:"dimension"`
	TotalVectorCount int `json:"totalVectorCount"`
}

// NewPineconeClient creates a Pinecone client
func NewPineconeClient(config PineconeConfig) *PineconeClient {
	if config.ControlURL == "" {
		config.ControlURL = "https://api.pinecone.io"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	return &PineconeClient{
		apiKey:     config.APIKey,
		controlURL: config.ControlURL,
		httpClient: &http.Client{Timeout: config.Timeout},
	}
}

// DescribeIndex fetches the control-plane description of an index
func (c *PineconeClient) DescribeIndex(ctx context.Context, name string) (*PineconeIndexDescription, error) {
	var desc PineconeIndexDescription
	url := fmt.Sprintf("%s/indexes/%s", c.controlURL, name)
	if err := c.do(ctx, http.MethodGet, url, nil, &desc); err != nil {
		return nil, fmt.Errorf("describe index %q: %w", name, err)
	}
	return &desc, nil
}

// CreateIndex creates a serverless index with cosine metric
func (c *PineconeClient) CreateIndex(ctx context.Context, name string, dimension int) error {
	payload := map[string]interface{}{
		"name":      name,
		"dimension": dimension,
		"metric":    "cosine",
		"spec": map[string]interface{}{
			"serverless": map[string]interface{}{
				"cloud":  "aws",
				"region": "us-east-1",
			},
		},
	}

	url := fmt.Sprintf("%s/indexes", c.controlURL)
	if err := c.do(ctx, http.MethodPost, url, payload, nil); err != nil {
		return fmt.Errorf("create index %q: %w", name, err)
	}
	return nil
}

// EnsureIndex creates the index when absent and polls until it is ready to
// accept queries, then pins the data-plane host for subsequent calls.
func (c *PineconeClient) EnsureIndex(ctx context.Context, name string, dimension int) error {
	desc, err := c.DescribeIndex(ctx, name)
	if err != nil {
		if createErr := c.CreateIndex(ctx, name, dimension); createErr != nil {
			return createErr
		}
	} else if desc.Dimension != dimension {
		return fmt.Errorf("index %q has dimension %d, expected %d", name, desc.Dimension, dimension)
	}

	// Serverless indexes come up asynchronously
	for i := 0; i < 30; i++ {
		desc, err = c.DescribeIndex(ctx, name)
		if err == nil && desc.Status.Ready && desc.Host != "" {
			c.indexHost = "https://" + desc.Host
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}

	return fmt.Errorf("index %q did not become ready", name)
}

// Upsert writes vectors to the index, replacing existing ids
func (c *PineconeClient) Upsert(ctx context.Context, vectors []PineconeVector) error {
	if len(vectors) == 0 {
		return nil
	}
	if c.indexHost == "" {
		return fmt.Errorf("index host not set, call EnsureIndex first")
	}

	payload := map[string]interface{}{"vectors": vectors}
	if err := c.do(ctx, http.MethodPost, c.indexHost+"/vectors/upsert", payload, nil); err != nil {
		return fmt.Errorf("upsert %d vectors: %w", len(vectors), err)
	}
	return nil
}

// Query searches the index for nearest neighbors of the given vector
func (c *PineconeClient) Query(ctx context.Context, vector []float32, topK int) (*PineconeQueryResponse, error) {
	if c.indexHost == "" {
		return nil, fmt.Errorf("index host not set, call EnsureIndex first")
	}

	payload := map[string]interface{}{
		"vector":          vector,
		"topK":            topK,
		"includeMetadata": true,
	}

	var resp PineconeQueryResponse
	if err := c.do(ctx, http.MethodPost, c.indexHost+"/query", payload, &resp); err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return &resp, nil
}

// DeleteByIDs deletes vectors by explicit id list
func (c *PineconeClient) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if c.indexHost == "" {
		return fmt.Errorf("index host not set, call EnsureIndex first")
	}

	payload := map[string]interface{}{"ids": ids}
	if err := c.do(ctx, http.MethodPost, c.indexHost+"/vectors/delete", payload, nil); err != nil {
		return fmt.Errorf("delete %d vectors: %w", len(ids), err)
	}
	return nil
}

// DeleteAll removes every vector from the index
func (c *PineconeClient) DeleteAll(ctx context.Context) error {
	if c.indexHost == "" {
		return fmt.Errorf("index host not set, call EnsureIndex first")
	}

	payload := map[string]interface{}{"deleteAll": true}
	if err := c.do(ctx, http.MethodPost, c.indexHost+"/vectors/delete", payload, nil); err != nil {
		return fmt.Errorf("delete all vectors: %w", err)
	}
	return nil
}

// DescribeIndexStats returns record counts for the index
func (c *PineconeClient) DescribeIndexStats(ctx context.Context) (*PineconeIndexStats, error) {
	if c.indexHost == "" {
		return nil, fmt.Errorf("index host not set, call EnsureIndex first")
	}

	var stats PineconeIndexStats
	if err := c.do(ctx, http.MethodPost, c.indexHost+"/describe_index_stats", map[string]interface{}{}, &stats); err != nil {
		return nil, fmt.Errorf("describe index stats: %w", err)
	}
	return &stats, nil
}

// Close closes idle HTTP connections
func (c *PineconeClient) Close() {
	c.httpClient.CloseIdleConnections()
}

// do performs one JSON request/response round trip with API key auth
func (c *PineconeClient) do(ctx context.Context, method, url string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Api-Key", c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
