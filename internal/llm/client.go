// Package llm wraps the Gemini API for text generation, structured JSON
// output, and embeddings, with retry, rate limiting, and a concurrency cap
// shared by every caller in the pipeline.
package llm

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"newsmesh/internal/config"
	"newsmesh/internal/core"
	"newsmesh/internal/jsonx"
)

const (
	// DefaultModel is the default Gemini model for generation.
	DefaultModel = "gemini-flash-lite-latest"
	// DefaultGroundedModel is the search-capable model used for enrichment.
	DefaultGroundedModel = "gemini-flash-latest"
	// DefaultEmbeddingModel is the default model for generating embeddings.
	DefaultEmbeddingModel = "gemini-embedding-001"
)

// ErrRateLimited marks a 429 from the vendor after retries were exhausted.
var ErrRateLimited = errors.New("llm: rate limited")

// ErrUnusableResponse marks a response that could not be decoded even after
// JSON recovery. Callers drop the affected items rather than inventing data.
var ErrUnusableResponse = errors.New("llm: unusable response")

// Client is a shared Gemini client. All pipeline stages call through one
// instance so the rate limiter and concurrency cap apply vendor-wide.
type Client struct {
	gClient        *genai.Client
	model          string
	groundedModel  string
	embeddingModel string
	temperature    float32
	maxRetries     int
	limiter        *rate.Limiter
	sem            *semaphore.Weighted
}

// GenerateRequest describes one generation call.
type GenerateRequest struct {
	Prompt      string
	Model       string  // Defaults to the client's model
	Temperature float32 // Defaults to the client's temperature
	MaxTokens   int32   // 0 means vendor default
	Grounded    bool    // Route to the search-capable model with the search tool enabled
	JSONOutput  bool    // Request application/json response MIME type
}

// New creates a Gemini client from config.
func New(cfg config.LLM) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required; set GEMINI_API_KEY")
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	groundedModel := cfg.GroundedModel
	if groundedModel == "" {
		groundedModel = DefaultGroundedModel
	}
	embeddingModel := cfg.EmbeddingModel
	if embeddingModel == "" {
		embeddingModel = DefaultEmbeddingModel
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	rpm := cfg.RequestsPerMin
	if rpm <= 0 {
		rpm = 60
	}
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 8
	}

	gClient, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Client{
		gClient:        gClient,
		model:          model,
		groundedModel:  groundedModel,
		embeddingModel: embeddingModel,
		temperature:    cfg.Temperature,
		maxRetries:     maxRetries,
		limiter:        rate.NewLimiter(rate.Limit(float64(rpm)/60.0), rpm/6+1),
		sem:            semaphore.NewWeighted(int64(maxConcurrent)),
	}, nil
}

// Generate runs one generation call with retry and rate limiting and returns
// the raw response text.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	model := req.Model
	if model == "" {
		if req.Grounded {
			model = c.groundedModel
		} else {
			model = c.model
		}
	}
	temperature := req.Temperature
	if temperature == 0 {
		temperature = c.temperature
	}

	genConfig := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(temperature),
	}
	if req.MaxTokens > 0 {
		genConfig.MaxOutputTokens = req.MaxTokens
	}
	if req.Grounded {
		genConfig.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	} else if req.JSONOutput {
		// The search tool and JSON MIME type are mutually exclusive; grounded
		// callers recover JSON via jsonx instead.
		genConfig.ResponseMIMEType = "application/json"
	}

	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: req.Prompt}},
		Role:  "user",
	}}

	var text string
	err := c.withRetry(ctx, func() error {
		resp, err := c.gClient.Models.GenerateContent(ctx, model, contents, genConfig)
		if err != nil {
			return err
		}
		text = resp.Text()
		if text == "" {
			return fmt.Errorf("empty response from model %s", model)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

// GenerateJSON runs a generation call and decodes the response into v via the
// permissive JSON extractor.
func (c *Client) GenerateJSON(ctx context.Context, req GenerateRequest, v any) error {
	req.JSONOutput = true
	text, err := c.Generate(ctx, req)
	if err != nil {
		return err
	}
	if err := jsonx.Unmarshal(text, v); err != nil {
		return fmt.Errorf("%w: %v", ErrUnusableResponse, err)
	}
	return nil
}

// Embed generates a vector embedding of fixed dimensionality for text.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: text}},
	}}
	embedConfig := &genai.EmbedContentConfig{
		OutputDimensionality: genai.Ptr(int32(core.EmbeddingDimensions)),
	}

	var values []float32
	err := c.withRetry(ctx, func() error {
		resp, err := c.gClient.Models.EmbedContent(ctx, c.embeddingModel, contents, embedConfig)
		if err != nil {
			return err
		}
		if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
			return fmt.Errorf("empty embedding response")
		}
		values = resp.Embeddings[0].Values
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out, nil
}

// withRetry enforces the concurrency cap and rate limit, then runs fn with
// exponential backoff and jitter on retryable failures.
func (c *Client) withRetry(ctx context.Context, fn func() error) error {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer c.sem.Release(1)

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !isRetryable(lastErr) {
			return lastErr
		}
		if attempt == c.maxRetries {
			break
		}

		delay := backoffDelay(attempt, isRateLimit(lastErr))
		if hint, ok := retryHint(lastErr); ok {
			delay = hint
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	if isRateLimit(lastErr) {
		return fmt.Errorf("%w: %v", ErrRateLimited, lastErr)
	}
	return lastErr
}

// backoffDelay computes exponential backoff with jitter; rate-limit hits start
// from a longer base.
func backoffDelay(attempt int, rateLimited bool) time.Duration {
	base := time.Second
	if rateLimited {
		base = 5 * time.Second
	}
	delay := base << attempt
	jitter := time.Duration(rand.Int63n(int64(delay) / 2))
	return delay + jitter
}

// retryHint extracts the wait the vendor asked for on a 429, carried as a
// google.rpc.RetryInfo detail on the API error.
func retryHint(err error) (time.Duration, bool) {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return 0, false
	}
	for _, detail := range apiErr.Details {
		typ, _ := detail["@type"].(string)
		if !strings.HasSuffix(typ, "RetryInfo") {
			continue
		}
		raw, _ := detail["retryDelay"].(string)
		if d, parseErr := time.ParseDuration(raw); parseErr == nil && d > 0 {
			return d, true
		}
	}
	return 0, false
}

func isRateLimit(err error) bool {
	if err == nil {
		return false
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == 429
	}
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "RESOURCE_EXHAUSTED")
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if isRateLimit(err) {
		return true
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code >= 500
	}
	msg := err.Error()
	for _, transient := range []string{"timeout", "connection reset", "EOF", "503", "500", "502", "504", "UNAVAILABLE", "DEADLINE_EXCEEDED"} {
		if strings.Contains(msg, transient) {
			return true
		}
	}
	return false
}
