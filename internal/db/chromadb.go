package db

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// ChromaClient wraps HTTP calls to the ChromaDB v2 API.
// The official Go client (v0.3.0-alpha.1) has v1/v2 API compatibility
// issues, so we talk to the REST API directly.
type ChromaClient struct {
	baseURL    string
	rootURL    string
	httpClient *http.Client

	mu            sync.Mutex
	collectionIDs map[string]string // name -> id, filled on first lookup
}

// ChromaConfig holds configuration for the ChromaDB connection
type ChromaConfig struct {
	Host     string
	Port     int
	Tenant   string // default: "default_tenant"
	Database string // default: "default_database"
	Timeout  time.Duration
}

// ChromaCollection represents a ChromaDB collection
type ChromaCollection struct {
	ID       string                 `json:"id"`
	Name     string                 `json:"name"`
	Metadata map[string]interface{} `json:"metadata"`
}

// ChromaGetResponse is the response shape of /get
type ChromaGetResponse struct {
	IDs       []string                 `json:"ids"`
	Documents []string                 `json:"documents"`
	Metadatas []map[string]interface{} `json:"metadatas"`
}

// ChromaQueryResponse is the response shape of /query
type ChromaQueryResponse struct {
	IDs       [][]string                 `json:"ids"`
	Documents [][]string                 `json:"documents"`
	Metadatas [][]map[string]interface{} `json:"metadatas"`
	Distances [][]float32                `json:"distances"`
}

// NewChromaClient creates a ChromaDB client against the v2 API
func NewChromaClient(config ChromaConfig) *ChromaClient {
	if config.Tenant == "" {
		config.Tenant = "default_tenant"
	}
	if config.Database == "" {
		config.Database = "default_database"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	rootURL := fmt.Sprintf("http://%s:%d", config.Host, config.Port)
	baseURL := fmt.Sprintf("%s/api/v2/tenants/%s/databases/%s",
		rootURL, config.Tenant, config.Database)

	return &ChromaClient{
		baseURL:       baseURL,
		rootURL:       rootURL,
		httpClient:    &http.Client{Timeout: config.Timeout},
		collectionIDs: make(map[string]string),
	}
}

// Heartbeat checks if ChromaDB is alive
func (c *ChromaClient) Heartbeat(ctx context.Context) error {
	var out map[string]interface{}
	if err := c.do(ctx, http.MethodGet, c.rootURL+"/api/v2/heartbeat", nil, &out); err != nil {
		return fmt.Errorf("heartbeat failed: %w", err)
	}
	return nil
}

// GetCollection retrieves a collection by name
func (c *ChromaClient) GetCollection(ctx context.Context, name string) (*ChromaCollection, error) {
	var collection ChromaCollection
	url := fmt.Sprintf("%s/collections/%s", c.baseURL, name)
	if err := c.do(ctx, http.MethodGet, url, nil, &collection); err != nil {
		return nil, fmt.Errorf("get collection %q: %w", name, err)
	}

	c.mu.Lock()
	c.collectionIDs[name] = collection.ID
	c.mu.Unlock()

	return &collection, nil
}

// CreateCollection creates a new collection with cosine distance
func (c *ChromaClient) CreateCollection(ctx context.Context, name string, metadata map[string]interface{}) (*ChromaCollection, error) {
	if metadata == nil {
		metadata = map[string]interface{}{"hnsw:space": "cosine"}
	}

	payload := map[string]interface{}{
		"name":     name,
		"metadata": metadata,
	}

	var collection ChromaCollection
	url := fmt.Sprintf("%s/collections", c.baseURL)
	if err := c.do(ctx, http.MethodPost, url, payload, &collection); err != nil {
		return nil, fmt.Errorf("create collection %q: %w", name, err)
	}

	c.mu.Lock()
	c.collectionIDs[name] = collection.ID
	c.mu.Unlock()

	return &collection, nil
}

// GetOrCreateCollection fetches a collection, creating it when absent
func (c *ChromaClient) GetOrCreateCollection(ctx context.Context, name string, metadata map[string]interface{}) (*ChromaCollection, error) {
	collection, err := c.GetCollection(ctx, name)
	if err == nil {
		return collection, nil
	}
	return c.CreateCollection(ctx, name, metadata)
}

// DeleteCollection deletes a collection by name
func (c *ChromaClient) DeleteCollection(ctx context.Context, name string) error {
	url := fmt.Sprintf("%s/collections/%s", c.baseURL, name)
	if err := c.do(ctx, http.MethodDelete, url, nil, nil); err != nil {
		return fmt.Errorf("delete collection %q: %w", name, err)
	}

	c.mu.Lock()
	delete(c.collectionIDs, name)
	c.mu.Unlock()

	return nil
}

// CountCollection returns the number of records in a collection
func (c *ChromaClient) CountCollection(ctx context.Context, name string) (int, error) {
	id, err := c.collectionID(ctx, name)
	if err != nil {
		return 0, err
	}

	var count int
	url := fmt.Sprintf("%s/collections/%s/count", c.baseURL, id)
	if err := c.do(ctx, http.MethodGet, url, nil, &count); err != nil {
		return 0, fmt.Errorf("count collection %q: %w", name, err)
	}

	return count, nil
}

// UpsertDocuments writes records (ids, texts, embeddings, metadata) to a
// collection, replacing any existing records with the same ids
func (c *ChromaClient) UpsertDocuments(ctx context.Context, name string, ids []string, documents []string, embeddings [][]float32, metadatas []map[string]interface{}) error {
	id, err := c.collectionID(ctx, name)
	if err != nil {
		return err
	}

	payload := map[string]interface{}{
		"ids":        ids,
		"documents":  documents,
		"embeddings": embeddings,
	}
	if metadatas != nil {
		payload["metadatas"] = metadatas
	}

	url := fmt.Sprintf("%s/collections/%s/upsert", c.baseURL, id)
	if err := c.do(ctx, http.MethodPost, url, payload, nil); err != nil {
		return fmt.Errorf("upsert %d documents to %q: %w", len(ids), name, err)
	}

	return nil
}

// Query searches a collection for nearest neighbors, optionally constrained
// by a metadata where-filter
func (c *ChromaClient) Query(ctx context.Context, name string, queryEmbeddings [][]float32, nResults int, where map[string]interface{}) (*ChromaQueryResponse, error) {
	id, err := c.collectionID(ctx, name)
	if err != nil {
		return nil, err
	}

	payload := map[string]interface{}{
		"query_embeddings": queryEmbeddings,
		"n_results":        nResults,
		"include":          []string{"documents", "metadatas", "distances"},
	}
	if len(where) > 0 {
		payload["where"] = where
	}

	var resp ChromaQueryResponse
	url := fmt.Sprintf("%s/collections/%s/query", c.baseURL, id)
	if err := c.do(ctx, http.MethodPost, url, payload, &resp); err != nil {
		return nil, fmt.Errorf("query %q: %w", name, err)
	}

	return &resp, nil
}

// GetDocuments fetches records matching a where-filter (no similarity ranking)
func (c *ChromaClient) GetDocuments(ctx context.Context, name string, where map[string]interface{}, limit int) (*ChromaGetResponse, error) {
	id, err := c.collectionID(ctx, name)
	if err != nil {
		return nil, err
	}

	payload := map[string]interface{}{
		"include": []string{"documents", "metadatas"},
	}
	if len(where) > 0 {
		payload["where"] = where
	}
	if limit > 0 {
		payload["limit"] = limit
	} else {
		payload["limit"] = 100000
	}

	var resp ChromaGetResponse
	url := fmt.Sprintf("%s/collections/%s/get", c.baseURL, id)
	if err := c.do(ctx, http.MethodPost, url, payload, &resp); err != nil {
		return nil, fmt.Errorf("get documents from %q: %w", name, err)
	}

	return &resp, nil
}

// DeleteDocuments deletes records from a collection by explicit id list
func (c *ChromaClient) DeleteDocuments(ctx context.Context, name string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	id, err := c.collectionID(ctx, name)
	if err != nil {
		return err
	}

	payload := map[string]interface{}{"ids": ids}

	url := fmt.Sprintf("%s/collections/%s/delete", c.baseURL, id)
	if err := c.do(ctx, http.MethodPost, url, payload, nil); err != nil {
		return fmt.Errorf("delete %d documents from %q: %w", len(ids), name, err)
	}

	return nil
}

// Close closes idle HTTP connections
func (c *ChromaClient) Close() {
	c.httpClient.CloseIdleConnections()
}

// collectionID resolves a collection name to its id, using the cache when warm
func (c *ChromaClient) collectionID(ctx context.Context, name string) (string, error) {
	c.mu.Lock()
	id, ok := c.collectionIDs[name]
	c.mu.Unlock()
	if ok {
		return id, nil
	}

	collection, err := c.GetCollection(ctx, name)
	if err != nil {
		return "", err
	}
	return collection.ID, nil
}

// do performs one JSON request/response round trip
func (c *ChromaClient) do(ctx context.Context, method, url string, payload, out interface{}) error {
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
