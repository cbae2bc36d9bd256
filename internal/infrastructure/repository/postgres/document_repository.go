package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/yz181x/dify/internal/core/domain"
)

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// FindEnabledDocument resolves a document for attribution. Disabled and
// archived documents are indistinguishable from missing ones by design.
func (r *DocumentRepository) FindEnabledDocument(ctx context.Context, documentID string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, collection_id, name, data_source_type, enabled, archived, created_at
FROM documents
WHERE id = $1 AND enabled AND NOT archived
`, documentID)

	var document domain.Document
	err := row.Scan(
		&document.ID, &document.CollectionID, &document.Name, &document.DataSourceType,
		&document.Enabled, &document.Archived, &document.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "find document", err)
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	return &document, nil
}
