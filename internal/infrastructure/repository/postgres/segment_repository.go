package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/yz181x/dify/internal/core/domain"
)

type SegmentRepository struct {
	db *sql.DB
}

func NewSegmentRepository(db *sql.DB) *SegmentRepository {
	return &SegmentRepository{db: db}
}

// FindRetrievable applies the context-reconstruction eligibility predicate in
// the query itself: enabled, not archived, completed. Tenant scope comes from
// the owning collection.
func (r *SegmentRepository) FindRetrievable(
	ctx context.Context,
	tenantID string,
	collectionIDs, nodeIDs []string,
) ([]domain.Segment, error) {
	if len(nodeIDs) == 0 {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT s.id, s.collection_id, s.document_id, s.index_node_id, s.index_node_hash, s.position,
	s.content, s.answer, s.word_count, s.hit_count, s.enabled, s.archived, s.status, s.completed_at
FROM segments s
JOIN collections c ON c.id = s.collection_id
WHERE c.tenant_id = $1
	AND s.collection_id = ANY($2)
	AND s.index_node_id = ANY($3)
	AND s.enabled
	AND NOT s.archived
	AND s.status = 'completed'
	AND s.completed_at IS NOT NULL
`, tenantID, collectionIDs, nodeIDs)
	if err != nil {
		return nil, fmt.Errorf("query segments: %w", err)
	}
	defer rows.Close()

	var segments []domain.Segment
	for rows.Next() {
		var segment domain.Segment
		var completedAt sql.NullTime
		if err := rows.Scan(
			&segment.ID, &segment.CollectionID, &segment.DocumentID, &segment.NodeID,
			&segment.NodeHash, &segment.Position, &segment.Content, &segment.Answer,
			&segment.WordCount, &segment.HitCount, &segment.Enabled, &segment.Archived,
			&segment.Status, &completedAt,
		); err != nil {
			return nil, fmt.Errorf("scan segment: %w", err)
		}
		if completedAt.Valid {
			t := completedAt.Time
			segment.CompletedAt = &t
		}
		segments = append(segments, segment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate segments: %w", err)
	}
	return segments, nil
}

func (r *SegmentRepository) IncrementHitCounts(ctx context.Context, nodeIDs []string) error {
	if len(nodeIDs) == 0 {
		return nil
	}
	_, err := r.db.ExecContext(ctx, `
UPDATE segments
SET hit_count = hit_count + 1
WHERE index_node_id = ANY($1)
`, nodeIDs)
	if err != nil {
		return fmt.Errorf("increment hit counts: %w", err)
	}
	return nil
}
