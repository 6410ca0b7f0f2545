package service

import (
	"context"
	"math"
	"time"

	"github.com/feastly/feastly/internal/domain"
	"github.com/go-resty/resty/v2"
)

// EmbeddingProvider turns text into a fixed-length dense vector. For all
// inputs it either returns a length-768 finite vector or an
// embedding-unavailable error; malformed output never reaches a caller.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// EmbeddingClient calls the embedding oracle over HTTP. The oracle is
// opaque; one call per text, no caching or deduplication. Keystroke-driven
// autocomplete therefore pays one oracle round trip per keystroke - a known
// latency and cost property of this design, not something this client
// mitigates.
type EmbeddingClient struct {
	client   *resty.Client
	endpoint string
}

// EmbeddingClientConfig holds configuration for the oracle client.
type EmbeddingClientConfig struct {
	Endpoint string
	Timeout  time.Duration
}

// NewEmbeddingClient creates a new embedding oracle client.
func NewEmbeddingClient(cfg *EmbeddingClientConfig) *EmbeddingClient {
	client := resty.New()
	client.SetHeader("Content-Type", "application/json")
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	return &EmbeddingClient{
		client:   client,
		endpoint: cfg.Endpoint,
	}
}

type embedRequest struct {
	Text string `json:"text"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed generates an embedding for a single text. Empty text is a valid
// input. Transport failures, non-2xx statuses, and malformed bodies (wrong
// length, non-finite values) all surface as embedding-unavailable errors so
// the enclosing operation aborts instead of persisting or ranking garbage.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - text: arbitrary UTF-8 input.
// Returns:
//   - []float32: length-768 vector of finite values.
//   - error: embedding-unavailable kinded error on any failure.
func (c *EmbeddingClient) Embed(ctx context.Context, text string) ([]float32, error) {
	var resp embedResponse
	httpResp, err := c.client.R().
		SetContext(ctx).
		SetBody(embedRequest{Text: text}).
		SetResult(&resp).
		Post(c.endpoint)

	if err != nil {
		return nil, domain.Wrap(domain.KindEmbeddingUnavailable, "failed to call embedding oracle", err)
	}

	if httpResp.IsError() {
		return nil, domain.Ef(domain.KindEmbeddingUnavailable, "embedding oracle returned status %d", httpResp.StatusCode())
	}

	if err := validateEmbedding(resp.Embedding); err != nil {
		return nil, err
	}

	return resp.Embedding, nil
}

// validateEmbedding rejects vectors of the wrong length or with non-finite
// values.
func validateEmbedding(vector []float32) error {
	if len(vector) != domain.EmbeddingDim {
		return domain.Ef(domain.KindEmbeddingUnavailable, "embedding oracle returned %d dimensions, expected %d", len(vector), domain.EmbeddingDim)
	}
	for i, v := range vector {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return domain.Ef(domain.KindEmbeddingUnavailable, "embedding oracle returned non-finite value at index %d", i)
		}
	}
	return nil
}
