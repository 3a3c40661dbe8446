package ports

import (
	"context"
	"time"

	"TragedyWatch/internal/domain"
)

// HeadlineSource pulls candidate headlines from upstream providers.
// An error means the fetch sequence as a whole could not run.
type HeadlineSource interface {
	FetchHeadlines(ctx context.Context) (domain.FetchResult, error)
}

// Classifier decides whether a headline describes a tragedy.
type Classifier interface {
	IsTragedy(title string) bool
}

// ArticleRepository persists tragedy matches keyed by URL.
// SaveIfNew must be atomic: concurrent callers racing on one URL observe
// exactly one Created result.
type ArticleRepository interface {
	SaveIfNew(ctx context.Context, title, url string) (domain.SaveResult, error)
	ListRecent(ctx context.Context, limit int) ([]domain.Article, error)
	Count(ctx context.Context) (int, error)
}

// SeenCache remembers URLs that are known to exist in the repository.
// Size and Reset let the cache be reconciled against a store it outgrew.
type SeenCache interface {
	Seen(ctx context.Context, url string) (bool, error)
	Mark(ctx context.Context, url string) error
	Size(ctx context.Context) (int64, error)
	Reset(ctx context.Context) error
}

// Notifier broadcasts a single alert for a newly stored article and returns
// the gateway delivery id.
type Notifier interface {
	Send(ctx context.Context, title, url string) (string, error)
}

// Schedule computes the next activation time after the given instant.
type Schedule interface {
	Next(time.Time) time.Time
}
