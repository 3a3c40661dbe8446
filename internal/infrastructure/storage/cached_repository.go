package storage

import (
	"context"
	"log/slog"

	"TragedyWatch/internal/domain"
	"TragedyWatch/internal/ports"
)

// CachedRepository consults a SeenCache before touching the database. A cache
// hit short-circuits to a duplicate; cache failures fall through to the
// underlying repository, which stays the source of truth.
type CachedRepository struct {
	next   ports.ArticleRepository
	cache  ports.SeenCache
	logger *slog.Logger
}

var _ ports.ArticleRepository = (*CachedRepository)(nil)

// NewCachedRepository decorates next with cache. A nil cache returns next
// unchanged. URLs are marked only after a successful insert, so the cache
// must never hold more entries than the store; a larger cache belongs to a
// different or recreated store and is reset before use.
func NewCachedRepository(ctx context.Context, next ports.ArticleRepository, cache ports.SeenCache, logger *slog.Logger) ports.ArticleRepository {
	if cache == nil {
		return next
	}
	if logger != nil {
		logger = logger.With("component", "seen_cache")
	}
	r := &CachedRepository{next: next, cache: cache, logger: logger}
	r.reconcile(ctx)
	return r
}

func (r *CachedRepository) reconcile(ctx context.Context) {
	cached, err := r.cache.Size(ctx)
	if err != nil {
		r.warn("seen size failed", "error", err)
		return
	}
	stored, err := r.next.Count(ctx)
	switch {
	case err != nil:
		r.warn("store count failed, resetting seen cache", "error", err)
	case cached <= int64(stored):
		return
	default:
		r.warn("seen cache larger than store, resetting", "cached", cached, "stored", stored)
	}
	if err := r.cache.Reset(ctx); err != nil {
		r.warn("seen reset failed", "error", err)
	}
}

// SaveIfNew skips the insert for URLs the cache has already seen.
func (r *CachedRepository) SaveIfNew(ctx context.Context, title, url string) (domain.SaveResult, error) {
	seen, err := r.cache.Seen(ctx, url)
	if err != nil {
		r.warn("seen lookup failed", "url", url, "error", err)
	} else if seen {
		return domain.SaveResult{Created: false}, nil
	}

	res, err := r.next.SaveIfNew(ctx, title, url)
	if err != nil {
		return res, err
	}

	if markErr := r.cache.Mark(ctx, url); markErr != nil {
		r.warn("seen mark failed", "url", url, "error", markErr)
	}
	return res, nil
}

// ListRecent delegates to the underlying repository.
func (r *CachedRepository) ListRecent(ctx context.Context, limit int) ([]domain.Article, error) {
	return r.next.ListRecent(ctx, limit)
}

// Count delegates to the underlying repository.
func (r *CachedRepository) Count(ctx context.Context) (int, error) {
	return r.next.Count(ctx)
}

func (r *CachedRepository) warn(msg string, args ...interface{}) {
	if r.logger != nil {
		r.logger.Warn(msg, args...)
	}
}
