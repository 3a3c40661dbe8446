package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"TragedyWatch/internal/domain"
)

type fakeSource struct {
	result domain.FetchResult
	err    error
	panic  bool
	calls  atomic.Int32
}

func (s *fakeSource) FetchHeadlines(context.Context) (domain.FetchResult, error) {
	s.calls.Add(1)
	if s.panic {
		panic("feed parser exploded")
	}
	return s.result, s.err
}

type memoryRepo struct {
	mu       sync.Mutex
	articles []domain.Article
	byURL    map[string]bool
	failURL  map[string]error
	countErr error
}

func (r *memoryRepo) SaveIfNew(_ context.Context, title, url string) (domain.SaveResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failURL[url]; err != nil {
		return domain.SaveResult{}, err
	}
	if r.byURL == nil {
		r.byURL = map[string]bool{}
	}
	if r.byURL[url] {
		return domain.SaveResult{}, nil
	}
	r.byURL[url] = true
	a := domain.Article{ID: int64(len(r.articles) + 1), Title: title, URL: url}
	r.articles = append(r.articles, a)
	return domain.SaveResult{Article: a, Created: true}, nil
}

func (r *memoryRepo) ListRecent(context.Context, int) ([]domain.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Article(nil), r.articles...), nil
}

func (r *memoryRepo) Count(context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.countErr != nil {
		return 0, r.countErr
	}
	return len(r.articles), nil
}

type sent struct {
	Title string
	URL   string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sent
	err  error
}

func (n *fakeNotifier) Send(_ context.Context, title, url string) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sent{Title: title, URL: url})
	if n.err != nil {
		return "", n.err
	}
	return "msg-" + url, nil
}

func (n *fakeNotifier) Sent() []sent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sent(nil), n.sent...)
}

var errBoom = errors.New("boom")
