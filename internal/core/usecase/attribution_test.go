package usecase

import (
	"context"
	"testing"

	"github.com/yz181x/dify/internal/core/domain"
)

func TestBuildAttributionsAdvancesPositionPastSkippedDocuments(t *testing.T) {
	f := newRetrieveFixture()
	f.collections.collections["col-1"] = keywordCollection("col-1")
	f.documents.documents["doc-1"] = &domain.Document{ID: "doc-1", Name: "first.txt", DataSourceType: "upload_file"}
	f.documents.documents["doc-3"] = &domain.Document{ID: "doc-3", Name: "third.txt", DataSourceType: "upload_file"}

	segments := []domain.Segment{
		retrievableSegment("n1", "col-1", "doc-1"),
		retrievableSegment("n2", "col-1", "doc-2"), // document record gone
		retrievableSegment("n3", "col-1", "doc-3"),
	}
	scored := []domain.ScoredCandidate{
		scoredCandidate("n1", 0.9),
		scoredCandidate("n2", 0.8),
		scoredCandidate("n3", 0.7),
	}

	req := baseRequest("col-1")
	req.ReturnResource = true

	attributions := f.uc.buildAttributions(context.Background(), req, segments, scored)
	if len(attributions) != 2 {
		t.Fatalf("expected 2 attributions, got %d", len(attributions))
	}
	// The counter advances for the skipped segment too.
	if attributions[0].Position != 1 || attributions[1].Position != 3 {
		t.Fatalf("positions = %d, %d; want 1, 3", attributions[0].Position, attributions[1].Position)
	}
	if attributions[1].DocumentName != "third.txt" {
		t.Fatalf("unexpected document on position 3: %s", attributions[1].DocumentName)
	}
}

func TestBuildAttributionsCarriesFusedScore(t *testing.T) {
	f := newRetrieveFixture()
	f.collections.collections["col-1"] = keywordCollection("col-1")
	f.documents.documents["doc-1"] = &domain.Document{ID: "doc-1", Name: "a.txt"}

	segments := []domain.Segment{retrievableSegment("n1", "col-1", "doc-1")}
	scored := []domain.ScoredCandidate{scoredCandidate("n1", 0.42)}

	attributions := f.uc.buildAttributions(context.Background(), baseRequest("col-1"), segments, scored)
	if len(attributions) != 1 {
		t.Fatalf("expected 1 attribution, got %d", len(attributions))
	}
	if attributions[0].Score == nil || *attributions[0].Score != 0.42 {
		t.Fatalf("expected fused score 0.42, got %v", attributions[0].Score)
	}
}

func TestBuildAttributionsDevOriginAttachesDiagnostics(t *testing.T) {
	f := newRetrieveFixture()
	f.collections.collections["col-1"] = keywordCollection("col-1")
	f.documents.documents["doc-1"] = &domain.Document{ID: "doc-1", Name: "a.txt"}

	segment := retrievableSegment("n1", "col-1", "doc-1")
	segment.HitCount = 7
	segment.WordCount = 120
	segment.Position = 3
	segment.NodeHash = "hash-n1"

	req := baseRequest("col-1")
	req.RetrieverOrigin = domain.RetrieverOriginDev

	attributions := f.uc.buildAttributions(context.Background(), req,
		[]domain.Segment{segment}, []domain.ScoredCandidate{scoredCandidate("n1", 0.5)})
	if len(attributions) != 1 {
		t.Fatalf("expected 1 attribution, got %d", len(attributions))
	}
	a := attributions[0]
	if a.HitCount == nil || *a.HitCount != 7 {
		t.Fatalf("hit count diagnostic missing")
	}
	if a.WordCount == nil || *a.WordCount != 120 {
		t.Fatalf("word count diagnostic missing")
	}
	if a.SegmentPosition == nil || *a.SegmentPosition != 3 {
		t.Fatalf("segment position diagnostic missing")
	}
	if a.NodeHash == nil || *a.NodeHash != "hash-n1" {
		t.Fatalf("node hash diagnostic missing")
	}
}

func TestBuildAttributionsNonDevOriginOmitsDiagnostics(t *testing.T) {
	f := newRetrieveFixture()
	f.collections.collections["col-1"] = keywordCollection("col-1")
	f.documents.documents["doc-1"] = &domain.Document{ID: "doc-1", Name: "a.txt"}

	segment := retrievableSegment("n1", "col-1", "doc-1")
	segment.HitCount = 7

	attributions := f.uc.buildAttributions(context.Background(), baseRequest("col-1"),
		[]domain.Segment{segment}, []domain.ScoredCandidate{scoredCandidate("n1", 0.5)})
	if attributions[0].HitCount != nil {
		t.Fatalf("diagnostics must be dev-only")
	}
}
