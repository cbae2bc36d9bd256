package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yz181x/dify/internal/core/domain"
)

func searchResponse(results ...map[string]any) string {
	body, _ := json.Marshal(map[string]any{"result": results})
	return string(body)
}

func TestSemanticSearchBuildsRequestAndMapsCandidates(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/collections/segments/points/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(searchResponse(
			map[string]any{"score": 0.92, "payload": map[string]any{"node_id": "n1", "text": "passage", "group_id": "col-1"}},
		)))
	}))
	defer server.Close()

	client := New(server.URL, Options{})
	threshold := 0.4
	candidates, err := client.SemanticSearch(context.Background(), "col-1", "q", []float32{0.1, 0.2}, 5, &threshold)
	if err != nil {
		t.Fatalf("SemanticSearch() error = %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].NodeID != "n1" || candidates[0].CollectionID != "col-1" {
		t.Fatalf("unexpected candidate: %+v", candidates[0])
	}
	if candidates[0].Score == nil || *candidates[0].Score != 0.92 {
		t.Fatalf("score not mapped: %v", candidates[0].Score)
	}
	if gotBody["score_threshold"] != 0.4 {
		t.Fatalf("threshold not forwarded: %v", gotBody["score_threshold"])
	}
	if gotBody["limit"] != float64(5) {
		t.Fatalf("limit not forwarded: %v", gotBody["limit"])
	}
	if gotBody["filter"] == nil {
		t.Fatalf("group filter missing")
	}
}

func TestFullTextSearchSendsSparseVector(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(searchResponse()))
	}))
	defer server.Close()

	client := New(server.URL, Options{})
	if _, err := client.FullTextSearch(context.Background(), "col-1", "release notes", 3, nil); err != nil {
		t.Fatalf("FullTextSearch() error = %v", err)
	}

	named, ok := gotBody["vector"].(map[string]any)
	if !ok || named["name"] != "text" {
		t.Fatalf("expected named sparse vector, got %v", gotBody["vector"])
	}
	sparse, ok := named["vector"].(map[string]any)
	if !ok {
		t.Fatalf("sparse vector missing: %v", named)
	}
	indices, ok := sparse["indices"].([]any)
	if !ok || len(indices) != 2 {
		t.Fatalf("expected 2 sparse terms, got %v", sparse["indices"])
	}
}

func TestFullTextSearchEmptyQueryShortCircuits(t *testing.T) {
	client := New("http://unreachable.invalid", Options{})
	candidates, err := client.FullTextSearch(context.Background(), "col-1", "!!!", 3, nil)
	if err != nil {
		t.Fatalf("FullTextSearch() error = %v", err)
	}
	if candidates != nil {
		t.Fatalf("expected nil for tokenless query")
	}
}

func TestSearchMapsBackendErrorToServiceUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := New(server.URL, Options{})
	_, err := client.SemanticSearch(context.Background(), "col-1", "q", []float32{0.1}, 2, nil)
	if !domain.IsKind(err, domain.ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable, got %v", err)
	}
}

func TestEncodeSparseQueryDeterministicOrder(t *testing.T) {
	a := encodeSparseQuery("alpha beta gamma")
	b := encodeSparseQuery("gamma beta alpha")
	if len(a.Indices) != 3 || len(b.Indices) != 3 {
		t.Fatalf("expected 3 terms, got %d and %d", len(a.Indices), len(b.Indices))
	}
	for i := range a.Indices {
		if a.Indices[i] != b.Indices[i] {
			t.Fatalf("sparse encoding must be order-independent")
		}
	}
}

func TestEncodeSparseQueryRepeatedTermsSaturate(t *testing.T) {
	single := encodeSparseQuery("alpha")
	repeated := encodeSparseQuery("alpha alpha alpha")
	if len(single.Values) != 1 || len(repeated.Values) != 1 {
		t.Fatalf("expected single term vectors")
	}
	if repeated.Values[0] <= single.Values[0] {
		t.Fatalf("repeated term weight must grow")
	}
	if repeated.Values[0] >= float32(queryBM25K+1.0) {
		t.Fatalf("weight must saturate below k+1")
	}
}
