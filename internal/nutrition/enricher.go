package nutrition

import (
	"context"

	"github.com/recipebox/webapp/config"
	"github.com/recipebox/webapp/internal/metrics"
	"github.com/recipebox/webapp/types"
	"go.uber.org/zap"
)

// Analyzer computes nutrition for a title and ingredient lines.
type Analyzer interface {
	Configured() bool
	Analyze(ctx context.Context, title string, lines []string) (types.Nutrition, error)
}

// Cache stores analyzed results.
type Cache interface {
	Get(ctx context.Context, key string) (types.Nutrition, bool, error)
	Set(ctx context.Context, key string, n types.Nutrition) error
}

// Enricher is the best-effort lookup used by the recipe detail view.
type Enricher struct {
	analyzer Analyzer
	cache    Cache
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewEnricher wires an analyzer with an optional cache. cache, m and logger
// may be nil.
func NewEnricher(analyzer Analyzer, cache Cache, m *metrics.Metrics, logger *zap.Logger) *Enricher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enricher{analyzer: analyzer, cache: cache, metrics: m, logger: logger}
}

// NewFromConfig builds the HTTP client and, when Redis is configured, the
// result cache. The returned close function releases both.
func NewFromConfig(cfg config.Config, m *metrics.Metrics, logger *zap.Logger) (*Enricher, func() error) {
	client := NewClient(cfg.Nutrition)
	redisCache := NewRedisCache(cfg.Redis, cfg.Nutrition.CacheTTL)

	closeFn := func() error {
		client.Close()
		if redisCache != nil {
			return redisCache.Close()
		}
		return nil
	}

	// Keep the interface nil when Redis is disabled.
	var cache Cache
	if redisCache != nil {
		cache = redisCache
	}
	return NewEnricher(client, cache, m, logger), closeFn
}

// Lookup returns nutrition for the recipe. It returns nil, nil when the
// analyzer is not configured or the recipe has no ingredients. Cache failures
// are logged and never fail the lookup.
func (e *Enricher) Lookup(ctx context.Context, title string, ingredients []types.Ingredient) (*types.Nutrition, error) {
	lines := types.FormatIngredients(ingredients)
	if !e.analyzer.Configured() || len(lines) == 0 {
		e.metrics.NutritionLookup(metrics.OutcomeSkipped)
		return nil, nil
	}

	key := CacheKey(title, lines)
	if e.cache != nil {
		cached, found, err := e.cache.Get(ctx, key)
		switch {
		case err != nil:
			e.logger.Warn("nutrition cache read failed", zap.Error(err))
		case found:
			e.metrics.NutritionLookup(metrics.OutcomeCached)
			return &cached, nil
		}
	}

	result, err := e.analyzer.Analyze(ctx, title, lines)
	if err != nil {
		e.metrics.NutritionLookup(metrics.OutcomeError)
		return nil, err
	}
	e.metrics.NutritionLookup(metrics.OutcomeOK)

	if e.cache != nil {
		if err := e.cache.Set(ctx, key, result); err != nil {
			e.logger.Warn("nutrition cache write failed", zap.Error(err))
		}
	}
	return &result, nil
}
