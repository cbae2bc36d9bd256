package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/yz181x/dify/internal/core/domain"
	"github.com/yz181x/dify/internal/infrastructure/resilience"
)

// ollamaEmbedder produces query vectors through the ollama embed endpoint.
type ollamaEmbedder struct {
	baseURL    string
	model      string
	httpClient *http.Client
	executor   *resilience.Executor
}

func newOllamaEmbedder(baseURL, model string, timeout time.Duration, executor *resilience.Executor) *ollamaEmbedder {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &ollamaEmbedder{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		executor:   executor,
	}
}

func (e *ollamaEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	var vector []float32
	call := func(ctx context.Context) error {
		embedded, err := e.embed(ctx, text)
		if err != nil {
			return err
		}
		vector = embedded
		return nil
	}

	var err error
	if e.executor != nil {
		err = e.executor.Execute(ctx, "embed_query", call)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, err
	}
	return vector, nil
}

func (e *ollamaEmbedder) embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(map[string]any{
		"model": e.model,
		"input": text,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal embed body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, domain.WrapError(domain.ErrServiceUnavailable, "embed_query", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, domain.WrapError(domain.ErrServiceUnavailable, "embed_query",
			fmt.Errorf("ollama embed status: %s", resp.Status))
	}

	var embedResp struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&embedResp); err != nil {
		return nil, fmt.Errorf("decode embed response: %w", err)
	}
	if len(embedResp.Embeddings) == 0 || len(embedResp.Embeddings[0]) == 0 {
		return nil, fmt.Errorf("ollama embed: empty embedding for model %s", e.model)
	}
	return embedResp.Embeddings[0], nil
}
