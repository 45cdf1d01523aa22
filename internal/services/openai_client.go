package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"

	"pdfchat/internal/models"
)

const (
	queryEmbedCacheTTL     = 5 * time.Minute
	queryEmbedCacheCleanup = 10 * time.Minute
)

// CompletionProvider generates a chat completion from an ordered message list
type CompletionProvider interface {
	ChatCompletion(ctx context.Context, messages []models.HistoryEntry) (string, error)
}

// OpenAIClient talks to the OpenAI REST API for embeddings and chat
// completions. It implements repositories.Embedder and CompletionProvider.
type OpenAIClient struct {
	baseURL        string
	apiKey         string
	embeddingModel string
	chatModel      string
	maxTokens      int
	temperature    float64
	httpClient     *http.Client
	logger         *log.Logger

	// Repeated questions hit the same query embedding; cache them briefly
	queryCache *cache.Cache
}

// OpenAIConfig holds client settings
type OpenAIConfig struct {
	BaseURL        string
	APIKey         string
	EmbeddingModel string
	ChatModel      string
	MaxTokens      int
	Temperature    float64
	Timeout        time.Duration
}

// NewOpenAIClient creates an OpenAI API client
func NewOpenAIClient(config OpenAIConfig, logger *log.Logger) *OpenAIClient {
	if config.Timeout == 0 {
		config.Timeout = 120 * time.Second // completions can be slow
	}

	return &OpenAIClient{
		baseURL:        config.BaseURL,
		apiKey:         config.APIKey,
		embeddingModel: config.EmbeddingModel,
		chatModel:      config.ChatModel,
		maxTokens:      config.MaxTokens,
		temperature:    config.Temperature,
		httpClient:     &http.Client{Timeout: config.Timeout},
		logger:         logger,
		queryCache:     cache.New(queryEmbedCacheTTL, queryEmbedCacheCleanup),
	}
}

// ============================================================================
// Request/Response Models
// ============================================================================

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Usage struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
}

type chatCompletionRequest struct {
	Model       string                `json:"model"`
	Messages    []models.HistoryEntry `json:"messages"`
	Temperature float64               `json:"temperature"`
	MaxTokens   int                   `json:"max_tokens"`
	Stream      bool                  `json:"stream"`
}

type chatCompletionResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// ============================================================================
// Embeddings
// ============================================================================

// Embed embeds a single query string. Results are cached for a few minutes
// keyed by model and text.
func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	cacheKey := c.embeddingModel + "|" + text
	if cached, found := c.queryCache.Get(cacheKey); found {
		return cached.([]float32), nil
	}

	embeddings, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(embeddings) != 1 {
		return nil, fmt.Errorf("expected 1 embedding, got %d", len(embeddings))
	}

	c.queryCache.Set(cacheKey, embeddings[0], cache.DefaultExpiration)
	return embeddings[0], nil
}

// EmbedBatch embeds texts in one API call, preserving input order
func (c *OpenAIClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	var response embeddingResponse
	err := c.post(ctx, "/embeddings", embeddingRequest{
		Model: c.embeddingModel,
		Input: texts,
	}, &response)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}

	if len(response.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(response.Data))
	}

	// The API documents order by index; honor it explicitly
	embeddings := make([][]float32, len(texts))
	for _, item := range response.Data {
		if item.Index < 0 || item.Index >= len(texts) {
			return nil, fmt.Errorf("embedding index %d out of range", item.Index)
		}
		embeddings[item.Index] = item.Embedding
	}

	return embeddings, nil
}

// ============================================================================
// Chat Completions
// ============================================================================

// ChatCompletion sends the message list as-is and returns the assistant's
// reply text
func (c *OpenAIClient) ChatCompletion(ctx context.Context, messages []models.HistoryEntry) (string, error) {
	var response chatCompletionResponse
	err := c.post(ctx, "/chat/completions", chatCompletionRequest{
		Model:       c.chatModel,
		Messages:    messages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		Stream:      false,
	}, &response)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no choices in completion response")
	}

	c.logger.Printf("[OpenAIClient] Completion used %d tokens (%s)",
		response.Usage.TotalTokens, response.Model)
	return response.Choices[0].Message.Content, nil
}

// ============================================================================
// HTTP plumbing
// ============================================================================

func (c *OpenAIClient) post(ctx context.Context, path string, payload, out interface{}) error {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewBuffer(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("OpenAI returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return nil
}
