package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/yz181x/dify/internal/core/domain"
)

func collectionColumns() []string {
	return []string{
		"id", "tenant_id", "name", "indexing_technique",
		"embedding_model_provider", "embedding_model", "retrieval_model",
		"created_at", "updated_at",
	}
}

func TestFindCollectionReturnsDomainNotFound(t *testing.T) {
	db, mock, done := newMockDB(t)
	defer done()
	repo := NewCollectionRepository(db)

	mock.ExpectQuery("SELECT id, tenant_id, name, indexing_technique").
		WithArgs("tenant-1", "missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindCollection(context.Background(), "tenant-1", "missing")
	if !domain.IsKind(err, domain.ErrCollectionNotFound) {
		t.Fatalf("expected ErrCollectionNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestFindCollectionParsesRetrievalModel(t *testing.T) {
	db, mock, done := newMockDB(t)
	defer done()
	repo := NewCollectionRepository(db)

	now := time.Now().UTC()
	retrievalJSON := []byte(`{"search_method":"hybrid_search","reranking_enable":true,"top_k":6,"score_threshold_enabled":true,"score_threshold":0.4}`)
	mock.ExpectQuery("SELECT id, tenant_id, name, indexing_technique").
		WithArgs("tenant-1", "col-1").
		WillReturnRows(sqlmock.NewRows(collectionColumns()).AddRow(
			"col-1", "tenant-1", "docs", "high_quality",
			"ollama", "nomic-embed-text", retrievalJSON, now, now,
		))

	collection, err := repo.FindCollection(context.Background(), "tenant-1", "col-1")
	if err != nil {
		t.Fatalf("FindCollection() error = %v", err)
	}
	if collection.IndexingTechnique != domain.IndexingHighQuality {
		t.Fatalf("indexing technique = %s", collection.IndexingTechnique)
	}
	cfg := collection.RetrievalModel()
	if cfg.SearchMethod != domain.SearchMethodHybrid || cfg.TopK != 6 {
		t.Fatalf("unexpected retrieval config: %+v", cfg)
	}
	threshold := cfg.EffectiveScoreThreshold()
	if threshold == nil || *threshold != 0.4 {
		t.Fatalf("unexpected threshold: %v", threshold)
	}
}

func TestFindCollectionWithoutRetrievalModelFallsBackToDefaults(t *testing.T) {
	db, mock, done := newMockDB(t)
	defer done()
	repo := NewCollectionRepository(db)

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT id, tenant_id, name, indexing_technique").
		WithArgs("tenant-1", "col-1").
		WillReturnRows(sqlmock.NewRows(collectionColumns()).AddRow(
			"col-1", "tenant-1", "docs", "economy", "", "", nil, now, now,
		))

	collection, err := repo.FindCollection(context.Background(), "tenant-1", "col-1")
	if err != nil {
		t.Fatalf("FindCollection() error = %v", err)
	}
	if collection.Retrieval != nil {
		t.Fatalf("expected no stored retrieval model")
	}
	if collection.RetrievalModel().SearchMethod != domain.SearchMethodSemantic {
		t.Fatalf("expected semantic default")
	}
}
