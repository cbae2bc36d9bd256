package postgres

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestKeywordSearchRanksByMatchedKeywordCount(t *testing.T) {
	db, mock, done := newMockDB(t)
	defer done()
	index := NewKeywordIndex(db)

	tableJSON := []byte(`{"release":["n1","n2"],"notes":["n2"],"archive":["n3"]}`)
	mock.ExpectQuery("SELECT table_data FROM keyword_tables").
		WithArgs("col-1").
		WillReturnRows(sqlmock.NewRows([]string{"table_data"}).AddRow(tableJSON))
	mock.ExpectQuery("SELECT index_node_id, content").
		WithArgs("col-1", []string{"n2", "n1"}).
		WillReturnRows(sqlmock.NewRows([]string{"index_node_id", "content"}).
			AddRow("n1", "first passage").
			AddRow("n2", "second passage"))

	candidates, err := index.Search(context.Background(), "col-1", "Release Notes", 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}
	// n2 matches both query keywords, n1 only one.
	if candidates[0].NodeID != "n2" || candidates[1].NodeID != "n1" {
		t.Fatalf("unexpected ranking: %s, %s", candidates[0].NodeID, candidates[1].NodeID)
	}
	if candidates[0].Score != nil {
		t.Fatalf("keyword candidates carry no score")
	}
}

func TestKeywordSearchMissingTableYieldsEmpty(t *testing.T) {
	db, mock, done := newMockDB(t)
	defer done()
	index := NewKeywordIndex(db)

	mock.ExpectQuery("SELECT table_data FROM keyword_tables").
		WithArgs("col-1").
		WillReturnError(sql.ErrNoRows)

	candidates, err := index.Search(context.Background(), "col-1", "anything", 3)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(candidates) != 0 {
		t.Fatalf("expected empty result, got %d", len(candidates))
	}
}

func TestKeywordSearchZeroKSkipsLookup(t *testing.T) {
	db, mock, done := newMockDB(t)
	defer done()
	index := NewKeywordIndex(db)

	candidates, err := index.Search(context.Background(), "col-1", "anything", 0)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if candidates != nil {
		t.Fatalf("expected nil, got %v", candidates)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestKeywordSearchDropsNodesWithoutEligibleSegments(t *testing.T) {
	db, mock, done := newMockDB(t)
	defer done()
	index := NewKeywordIndex(db)

	tableJSON := []byte(`{"release":["n1","n2"]}`)
	mock.ExpectQuery("SELECT table_data FROM keyword_tables").
		WithArgs("col-1").
		WillReturnRows(sqlmock.NewRows([]string{"table_data"}).AddRow(tableJSON))
	mock.ExpectQuery("SELECT index_node_id, content").
		WithArgs("col-1", []string{"n1", "n2"}).
		WillReturnRows(sqlmock.NewRows([]string{"index_node_id", "content"}).
			AddRow("n1", "only eligible passage"))

	candidates, err := index.Search(context.Background(), "col-1", "release", 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(candidates) != 1 || candidates[0].NodeID != "n1" {
		t.Fatalf("expected only n1, got %+v", candidates)
	}
}
