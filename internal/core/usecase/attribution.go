package usecase

import (
	"context"

	"github.com/yz181x/dify/internal/core/domain"
)

// buildAttributions emits citation metadata for each rank-ordered segment.
// The position counter advances once per segment considered, so positions
// stay aligned with the ranked order even when an attribution is skipped
// because its document or collection record is gone.
func (uc *RetrieveUseCase) buildAttributions(
	ctx context.Context,
	req domain.RetrievalRequest,
	segments []domain.Segment,
	scored []domain.ScoredCandidate,
) []domain.ResourceAttribution {
	scoreByNode := make(map[string]float64, len(scored))
	for _, sc := range scored {
		scoreByNode[sc.NodeID] = sc.FusedScore
	}

	attributions := make([]domain.ResourceAttribution, 0, len(segments))
	position := 0
	for i := range segments {
		segment := &segments[i]
		position++

		collection, err := uc.collections.FindCollection(ctx, req.TenantID, segment.CollectionID)
		if err != nil {
			uc.logger.Debug("attribution skipped, collection missing",
				"segment_id", segment.ID, "collection_id", segment.CollectionID)
			continue
		}
		document, err := uc.documents.FindEnabledDocument(ctx, segment.DocumentID)
		if err != nil {
			uc.logger.Debug("attribution skipped, document missing or disabled",
				"segment_id", segment.ID, "document_id", segment.DocumentID)
			continue
		}

		attribution := domain.ResourceAttribution{
			Position:       position,
			CollectionID:   collection.ID,
			CollectionName: collection.Name,
			DocumentID:     document.ID,
			DocumentName:   document.Name,
			DataSourceType: document.DataSourceType,
			SegmentID:      segment.ID,
			RetrieverFrom:  req.RetrieverOrigin,
			Content:        segment.FormatContext(),
		}
		if score, ok := scoreByNode[segment.NodeID]; ok {
			attribution.Score = &score
		}
		if req.RetrieverOrigin == domain.RetrieverOriginDev {
			hitCount := segment.HitCount
			wordCount := segment.WordCount
			segmentPosition := segment.Position
			nodeHash := segment.NodeHash
			attribution.HitCount = &hitCount
			attribution.WordCount = &wordCount
			attribution.SegmentPosition = &segmentPosition
			attribution.NodeHash = &nodeHash
		}
		attributions = append(attributions, attribution)
	}
	return attributions
}
