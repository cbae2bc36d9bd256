package qdrant

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

// Client queries qdrant for both search legs of a vector-indexed collection:
// dense similarity for the semantic leg and a sparse term vector for the
// full-text leg. All collections share one qdrant collection, partitioned by
// a group_id payload field.
type Client struct {
	baseURL    string
	collection string
	httpClient *http.Client
	executor   *resilience.Executor
}

type Options struct {
	Collection         string
	Timeout            time.Duration
	ResilienceExecutor *resilience.Executor
}

func New(baseURL string, options Options) *Client {
	collection := options.Collection
	if collection == "" {
		collection = "segments"
	}
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: &http.Client{Timeout: timeout},
		executor:   options.ResilienceExecutor,
	}
}

func (c *Client) SemanticSearch(
	ctx context.Context,
	collectionID, _ string,
	vector []float32,
	k int,
	scoreThreshold *float64,
) ([]domain.Candidate, error) {
	reqBody := map[string]any{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
		"filter":       groupFilter(collectionID),
	}
	if scoreThreshold != nil {
		reqBody["score_threshold"] = *scoreThreshold
	}
	return c.search(ctx, "semantic_search", collectionID, reqBody)
}

func (c *Client) FullTextSearch(
	ctx context.Context,
	collectionID, query string,
	k int,
	scoreThreshold *float64,
) ([]domain.Candidate, error) {
	sparse := encodeSparseQuery(query)
	if len(sparse.Indices) == 0 {
		return nil, nil
	}
	reqBody := map[string]any{
		"vector": map[string]any{
			"name":   "text",
			"vector": sparse,
		},
		"limit":        k,
		"with_payload": true,
		"filter":       groupFilter(collectionID),
	}
	if scoreThreshold != nil {
		reqBody["score_threshold"] = *scoreThreshold
	}
	return c.search(ctx, "full_text_search", collectionID, reqBody)
}

func (c *Client) search(ctx context.Context, operation, collectionID string, reqBody map[string]any) ([]domain.Candidate, error) {
	var candidates []domain.Candidate
	call := func(ctx context.Context) error {
		found, err := c.doSearch(ctx, operation, reqBody)
		if err != nil {
			return err
		}
		candidates = found
		return nil
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, operation, call)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, err
	}

	for i := range candidates {
		candidates[i].CollectionID = collectionID
	}
	return candidates, nil
}

func (c *Client) doSearch(ctx context.Context, operation string, reqBody map[string]any) ([]domain.Candidate, error) {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal search body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points/search", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.WrapError(domain.ErrServiceUnavailable, operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, domain.WrapError(domain.ErrServiceUnavailable, operation,
			fmt.Errorf("qdrant search status: %s", resp.Status))
	}

	var searchResp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := make([]domain.Candidate, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		score := r.Score
		out = append(out, domain.Candidate{
			NodeID: getStringPayload(r.Payload, "node_id"),
			Text:   getStringPayload(r.Payload, "text"),
			Score:  &score,
		})
	}
	return out, nil
}

func groupFilter(collectionID string) map[string]any {
	return map[string]any{
		"must": []map[string]any{
			{
				"key": "group_id",
				"match": map[string]any{
					"value": collectionID,
				},
			},
		},
	}
}

func getStringPayload(payload map[string]any, key string) string {
	if payload == nil {
		return ""
	}
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}
