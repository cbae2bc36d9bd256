package model

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yz181x/dify/internal/core/domain"
	"github.com/yz181x/dify/internal/core/ports"
	"github.com/yz181x/dify/internal/infrastructure/resilience"
)

// Gateway resolves embedding and rerank model instances per provider name.
// Providers are configured once at startup; resolution is cheap and safe for
// concurrent use.
type Gateway struct {
	embedders map[string]embedderFactory
	rerankers map[string]rerankerFactory

	defaultEmbedProvider  string
	defaultRerankProvider string
}

type embedderFactory func(model string) ports.Embedder

type rerankerFactory func(model string) ports.Reranker

type GatewayConfig struct {
	OllamaURL   string
	OllamaModel string
	RerankURL   string
	Timeout     time.Duration
	Executor    *resilience.Executor
}

func NewGateway(cfg GatewayConfig) *Gateway {
	g := &Gateway{
		embedders: make(map[string]embedderFactory),
		rerankers: make(map[string]rerankerFactory),
	}
	if cfg.OllamaURL != "" {
		g.embedders["ollama"] = func(model string) ports.Embedder {
			if model == "" {
				model = cfg.OllamaModel
			}
			return newOllamaEmbedder(cfg.OllamaURL, model, cfg.Timeout, cfg.Executor)
		}
		g.defaultEmbedProvider = "ollama"
	}
	if cfg.RerankURL != "" {
		g.rerankers["rerank-http"] = func(model string) ports.Reranker {
			return newHTTPReranker(cfg.RerankURL, model, cfg.Timeout, cfg.Executor)
		}
		g.defaultRerankProvider = "rerank-http"
	}
	return g
}

func (g *Gateway) ResolveEmbedder(_ context.Context, tenantID, provider, model string) (ports.Embedder, error) {
	provider = normalizeProvider(provider, g.defaultEmbedProvider)
	factory, ok := g.embedders[provider]
	if !ok {
		return nil, domain.WrapError(domain.ErrModelNotConfigured, "resolve_embedder",
			fmt.Errorf("tenant %s: no embedding provider %q", tenantID, provider))
	}
	return factory(model), nil
}

func (g *Gateway) ResolveReranker(_ context.Context, tenantID, provider, model string) (ports.Reranker, error) {
	provider = normalizeProvider(provider, g.defaultRerankProvider)
	factory, ok := g.rerankers[provider]
	if !ok {
		return nil, domain.WrapError(domain.ErrModelNotConfigured, "resolve_reranker",
			fmt.Errorf("tenant %s: no rerank provider %q", tenantID, provider))
	}
	return factory(model), nil
}

func normalizeProvider(provider, fallback string) string {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		return fallback
	}
	return provider
}
