package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/yz181x/dify/internal/core/domain"
)

// KeywordIndex is the compact lookup used by economy-indexed collections: a
// per-collection keyword table mapping extracted keywords to segment node
// ids. Ranking is by matched-keyword count, no model calls involved.
type KeywordIndex struct {
	db *sql.DB
}

func NewKeywordIndex(db *sql.DB) *KeywordIndex {
	return &KeywordIndex{db: db}
}

func (r *KeywordIndex) Search(ctx context.Context, collectionID, query string, k int) ([]domain.Candidate, error) {
	if k <= 0 {
		return nil, nil
	}

	table, err := r.loadTable(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	if len(table) == 0 {
		return nil, nil
	}

	hits := make(map[string]int)
	for _, token := range tokenizeQuery(query) {
		for _, nodeID := range table[token] {
			hits[nodeID]++
		}
	}
	if len(hits) == 0 {
		return nil, nil
	}

	ranked := make([]string, 0, len(hits))
	for nodeID := range hits {
		ranked = append(ranked, nodeID)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if hits[ranked[i]] != hits[ranked[j]] {
			return hits[ranked[i]] > hits[ranked[j]]
		}
		return ranked[i] < ranked[j]
	})
	if len(ranked) > k {
		ranked = ranked[:k]
	}

	contents, err := r.loadContents(ctx, collectionID, ranked)
	if err != nil {
		return nil, err
	}

	candidates := make([]domain.Candidate, 0, len(ranked))
	for _, nodeID := range ranked {
		content, ok := contents[nodeID]
		if !ok {
			continue
		}
		candidates = append(candidates, domain.Candidate{
			NodeID:       nodeID,
			Text:         content,
			CollectionID: collectionID,
		})
	}
	return candidates, nil
}

func (r *KeywordIndex) loadTable(ctx context.Context, collectionID string) (map[string][]string, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT table_data FROM keyword_tables WHERE collection_id = $1
`, collectionID)

	var raw []byte
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan keyword table: %w", err)
	}

	table := make(map[string][]string)
	if err := json.Unmarshal(raw, &table); err != nil {
		return nil, fmt.Errorf("unmarshal keyword table: %w", err)
	}
	return table, nil
}

func (r *KeywordIndex) loadContents(ctx context.Context, collectionID string, nodeIDs []string) (map[string]string, error) {
	if len(nodeIDs) == 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT index_node_id, content
FROM segments
WHERE collection_id = $1
	AND index_node_id = ANY($2)
	AND enabled
	AND NOT archived
	AND status = 'completed'
`, collectionID, nodeIDs)
	if err != nil {
		return nil, fmt.Errorf("query segment contents: %w", err)
	}
	defer rows.Close()

	contents := make(map[string]string, len(nodeIDs))
	for rows.Next() {
		var nodeID, content string
		if err := rows.Scan(&nodeID, &content); err != nil {
			return nil, fmt.Errorf("scan segment content: %w", err)
		}
		contents[nodeID] = content
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate segment contents: %w", err)
	}
	return contents, nil
}

func tokenizeQuery(s string) []string {
	if s == "" {
		return nil
	}

	seen := make(map[string]struct{}, 16)
	tokens := make([]string, 0, 16)
	var b strings.Builder
	flush := func() {
		if b.Len() == 0 {
			return
		}
		token := b.String()
		b.Reset()
		if _, ok := seen[token]; ok {
			return
		}
		seen[token] = struct{}{}
		tokens = append(tokens, token)
	}

	for _, r := range s {
		r = unicode.ToLower(r)
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		flush()
	}
	flush()
	return tokens
}
