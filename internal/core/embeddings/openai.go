package embeddings

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

// OpenAI model constants.
const (
	ModelTextEmbedding3Small = "text-embedding-3-small"
	ModelTextEmbedding3Large = "text-embedding-3-large"

	// API limit on inputs per embeddings request.
	openaiMaxBatchSize = 2048

	// Default rate limiter burst.
	openaiRateLimiterBurst = 5
)

// ErrOpenAIEmptyResponse means the API returned fewer vectors than inputs.
var ErrOpenAIEmptyResponse = errors.New("incomplete embedding response from OpenAI")

// OpenAIBackend encodes texts through the OpenAI embeddings API.
type OpenAIBackend struct {
	client      *openai.Client
	model       string
	rateLimiter *rate.Limiter
}

// OpenAIConfig holds configuration for the OpenAI backend.
type OpenAIConfig struct {
	APIKey    string
	Model     string // "text-embedding-3-small" or "text-embedding-3-large"
	RateLimit int    // Requests per second
}

func NewOpenAIBackend(cfg OpenAIConfig) *OpenAIBackend {
	if cfg.Model == "" {
		cfg.Model = ModelTextEmbedding3Small
	}

	if cfg.RateLimit == 0 {
		cfg.RateLimit = 1
	}

	return &OpenAIBackend{
		client:      openai.NewClient(cfg.APIKey),
		model:       cfg.Model,
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), openaiRateLimiterBurst),
	}
}

func (b *OpenAIBackend) Name() string {
	return BackendOpenAI
}

// Encode embeds texts in API-sized batches, respecting the rate limit.
func (b *OpenAIBackend) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += openaiMaxBatchSize {
		end := start + openaiMaxBatchSize
		if end > len(texts) {
			end = len(texts)
		}

		batch, err := b.encodeBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}

		vectors = append(vectors, batch...)
	}

	return vectors, nil
}

func (b *OpenAIBackend) encodeBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := b.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("embedding rate limiter: %w", err)
	}

	resp, err := b.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(b.model),
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}

	if len(resp.Data) != len(texts) {
		return nil, ErrOpenAIEmptyResponse
	}

	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		vectors[d.Index] = d.Embedding
	}

	return vectors, nil
}
