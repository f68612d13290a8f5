package models

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"FilingFlow/app/utils/restclient"
)

const embeddingEndpoint = "/v1/embeddings"

var _ Embedder = &EmbeddingClient{}

// EmbeddingClient talks to an OpenAI-compatible embeddings endpoint
// (LM Studio, text-embeddings-inference, vLLM and friends all speak it).
type EmbeddingClient struct {
	restClient   *restclient.RestClient
	model        string
	maxSeqLength int
}

func NewEmbeddingClient(baseURL, model string, maxSeqLength int) (*EmbeddingClient, error) {
	if model == "" {
		return nil, errors.New("embeddings model is empty")
	}
	return &EmbeddingClient{
		restClient:   restclient.NewRestClient(baseURL, nil),
		model:        model,
		maxSeqLength: maxSeqLength,
	}, nil
}

func (c *EmbeddingClient) MaxSequenceLength() int {
	return c.maxSeqLength
}

// EmbedBatch embeds all texts in one request and returns vectors in
// input order. The server reports each vector's position, so the
// response is reordered by index before returning.
func (c *EmbeddingClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	req := embeddingRequestPayload{
		Model: c.model,
		Input: texts,
	}
	resp, err := c.sendEmbeddings(ctx, req, 3)
	if err != nil {
		return nil, err
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: sent %d texts, got %d vectors", len(texts), len(resp.Data))
	}

	sort.Slice(resp.Data, func(i, j int) bool {
		return resp.Data[i].Index < resp.Data[j].Index
	})

	vectors := make([][]float32, len(resp.Data))
	for i, item := range resp.Data {
		vectors[i] = item.Embedding
	}
	return vectors, nil
}

func (c *EmbeddingClient) sendEmbeddings(ctx context.Context, payload embeddingRequestPayload, maxRetries int) (*embeddingResponse, error) {
	var (
		lastErr error
		out     embeddingResponse
	)

	for i := 0; i < maxRetries; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if i > 0 {
			sleep := time.Duration(100*(1<<uint(i))) * time.Millisecond
			sleep += time.Duration(time.Now().UnixNano() % int64(100*time.Millisecond))
			time.Sleep(sleep)
		}

		body, status, err := c.restClient.Post(ctx, embeddingEndpoint, payload, nil)
		if err != nil {
			lastErr = err
			log.Printf("⚠️ embed attempt %d failed: http=%d err=%v", i+1, status, err)
			continue
		}
		if status < 200 || status >= 300 {
			lastErr = fmt.Errorf("embeddings endpoint returned %d", status)
			log.Printf("⚠️ embed attempt %d failed: %v", i+1, lastErr)
			continue
		}
		if err = json.Unmarshal(body, &out); err != nil {
			lastErr = fmt.Errorf("parse embeddings json: %w", err)
			log.Printf("⚠️ %v", lastErr)
			continue
		}

		return &out, nil
	}
	return nil, fmt.Errorf("embeddings request failed after %d retries: %w", maxRetries, lastErr)
}
