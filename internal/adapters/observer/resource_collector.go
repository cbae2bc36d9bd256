package observer

import (
	"sync"

	"github.com/yz181x/dify/internal/core/domain"
)

// ResourceCollector captures the attribution set of a single retrieval call so
// the transport layer can return it alongside the context text. One collector
// serves one request.
type ResourceCollector struct {
	mu           sync.Mutex
	attributions []domain.ResourceAttribution
}

func NewResourceCollector() *ResourceCollector {
	return &ResourceCollector{}
}

func (c *ResourceCollector) OnQuery(_, _ string) {}

func (c *ResourceCollector) OnResult(_ []domain.ScoredCandidate) {}

func (c *ResourceCollector) OnResource(attributions []domain.ResourceAttribution) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attributions = append(c.attributions, attributions...)
}

func (c *ResourceCollector) Attributions() []domain.ResourceAttribution {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.ResourceAttribution, len(c.attributions))
	copy(out, c.attributions)
	return out
}
