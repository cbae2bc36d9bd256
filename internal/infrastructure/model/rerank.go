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

// httpReranker scores candidates through a cohere-compatible rerank endpoint.
// Results come back keyed by document index, so the response order never leaks
// into the scored slice: it always mirrors the input order.
type httpReranker struct {
	baseURL    string
	model      string
	httpClient *http.Client
	executor   *resilience.Executor
}

func newHTTPReranker(baseURL, model string, timeout time.Duration, executor *resilience.Executor) *httpReranker {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &httpReranker{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		executor:   executor,
	}
}

func (r *httpReranker) Rerank(ctx context.Context, query string, candidates []domain.Candidate) ([]domain.ScoredCandidate, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	var scored []domain.ScoredCandidate
	call := func(ctx context.Context) error {
		result, err := r.rerank(ctx, query, candidates)
		if err != nil {
			return err
		}
		scored = result
		return nil
	}

	var err error
	if r.executor != nil {
		err = r.executor.Execute(ctx, "rerank", call)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, err
	}
	return scored, nil
}

func (r *httpReranker) rerank(ctx context.Context, query string, candidates []domain.Candidate) ([]domain.ScoredCandidate, error) {
	documents := make([]string, len(candidates))
	for i, candidate := range candidates {
		documents[i] = candidate.Text
	}

	body, err := json.Marshal(map[string]any{
		"model":     r.model,
		"query":     query,
		"documents": documents,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal rerank body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/rerank", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, domain.WrapError(domain.ErrServiceUnavailable, "rerank", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, domain.WrapError(domain.ErrServiceUnavailable, "rerank",
			fmt.Errorf("rerank status: %s", resp.Status))
	}

	var rerankResp struct {
		Results []struct {
			Index          int     `json:"index"`
			RelevanceScore float64 `json:"relevance_score"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rerankResp); err != nil {
		return nil, fmt.Errorf("decode rerank response: %w", err)
	}

	scored := make([]domain.ScoredCandidate, len(candidates))
	for i, candidate := range candidates {
		scored[i] = domain.ScoredCandidate{Candidate: candidate}
	}
	for _, result := range rerankResp.Results {
		if result.Index < 0 || result.Index >= len(scored) {
			return nil, fmt.Errorf("rerank result index %d out of range", result.Index)
		}
		scored[result.Index].FusedScore = result.RelevanceScore
	}
	return scored, nil
}
