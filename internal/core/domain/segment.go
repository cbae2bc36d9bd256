package domain

import "time"

// SegmentStatusCompleted marks a segment whose indexing finished.
const SegmentStatusCompleted = "completed"

// Segment is the persisted storage unit a candidate's node id resolves to.
// Read-only from the retrieval core; only the hit counter is updated, and
// that happens asynchronously in the worker.
type Segment struct {
	ID           string     `json:"id"`
	CollectionID string     `json:"collection_id"`
	DocumentID   string     `json:"document_id"`
	NodeID       string     `json:"index_node_id"`
	NodeHash     string     `json:"index_node_hash"`
	Position     int        `json:"position"`
	Content      string     `json:"content"`
	Answer       string     `json:"answer,omitempty"`
	WordCount    int        `json:"word_count"`
	HitCount     int64      `json:"hit_count"`
	Enabled      bool       `json:"enabled"`
	Archived     bool       `json:"archived"`
	Status       string     `json:"status"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// FormatContext renders the segment for context assembly. Question/answer
// segments use the paired form, plain segments return content verbatim.
func (s *Segment) FormatContext() string {
	if s.Answer != "" {
		return "question:" + s.Content + " answer:" + s.Answer
	}
	return s.Content
}

// Document is the owning record of a segment, read for attribution only.
type Document struct {
	ID             string    `json:"id"`
	CollectionID   string    `json:"collection_id"`
	Name           string    `json:"name"`
	DataSourceType string    `json:"data_source_type"`
	Enabled        bool      `json:"enabled"`
	Archived       bool      `json:"archived"`
	CreatedAt      time.Time `json:"created_at"`
}
