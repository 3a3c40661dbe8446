package parser

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"TragedyWatch/internal/config"
	"TragedyWatch/internal/domain"
	"TragedyWatch/internal/logging"
	"TragedyWatch/internal/scanner"
)

// stubScanner serves canned results keyed by site name.
type stubScanner struct {
	name    string
	results map[string][]domain.Headline
	errs    map[string]error
	calls   atomic.Int32

	mu     sync.Mutex
	limits map[string]int
}

func (s *stubScanner) Name() string { return s.name }

func (s *stubScanner) Scan(_ context.Context, req scanner.Request) ([]domain.Headline, error) {
	s.calls.Add(1)
	s.mu.Lock()
	if s.limits == nil {
		s.limits = map[string]int{}
	}
	s.limits[req.SiteName] = req.Limit
	s.mu.Unlock()
	if err := s.errs[req.SiteName]; err != nil {
		return nil, err
	}
	return s.results[req.SiteName], nil
}

func sources() config.SourcesConfig {
	return config.SourcesConfig{
		Primary: config.SiteConfig{Name: "newsapi", Scanner: "newsapi", URL: "https://newsapi.example"},
		Fallback: []config.SiteConfig{
			{Name: "bbc", Scanner: "feed", URL: "https://bbc.example/rss"},
			{Name: "broken", Scanner: "feed", URL: "https://broken.example/rss"},
			{Name: "cnn", Scanner: "feed", URL: "https://cnn.example/rss"},
		},
		EntryLimit: 10,
	}
}

func newSource(primary, feeds *stubScanner) *FallbackSource {
	reg := scanner.NewRegistry()
	reg.Register(primary)
	reg.Register(feeds)
	return NewFallbackSource(reg, sources(), logging.Discard())
}

func TestFallbackSourcePrefersPrimary(t *testing.T) {
	t.Parallel()

	primary := &stubScanner{name: "newsapi", results: map[string][]domain.Headline{
		"newsapi": {{Title: "Deadly crash kills 5", URL: "u1"}},
	}}
	feeds := &stubScanner{name: "feed"}

	res, err := newSource(primary, feeds).FetchHeadlines(context.Background())
	if err != nil {
		t.Fatalf("FetchHeadlines error: %v", err)
	}
	if res.Stage != domain.StagePrimary || len(res.Headlines) != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if feeds.calls.Load() != 0 {
		t.Fatalf("fallback feeds must not be fetched when primary succeeds")
	}
}

func TestFallbackSourceUsesFeedsWhenPrimaryFails(t *testing.T) {
	t.Parallel()

	primary := &stubScanner{name: "newsapi", errs: map[string]error{"newsapi": errors.New("connection refused")}}
	feeds := &stubScanner{
		name: "feed",
		results: map[string][]domain.Headline{
			"bbc": {{Title: "Flood warnings issued", URL: "b1"}, {Title: "Local team wins", URL: "b2"}},
			"cnn": {{Title: "Shooting reported at mall", URL: "c1"}},
		},
		errs: map[string]error{"broken": errors.New("parse feed: unexpected EOF")},
	}

	res, err := newSource(primary, feeds).FetchHeadlines(context.Background())
	if err != nil {
		t.Fatalf("FetchHeadlines error: %v", err)
	}

	want := []domain.Headline{
		{Title: "Flood warnings issued", URL: "b1"},
		{Title: "Local team wins", URL: "b2"},
		{Title: "Shooting reported at mall", URL: "c1"},
	}
	if res.Stage != domain.StageFallback {
		t.Fatalf("expected fallback stage, got %s", res.Stage)
	}
	if diff := cmp.Diff(want, res.Headlines); diff != "" {
		t.Fatalf("headlines mismatch (-want +got):\n%s", diff)
	}
	if feeds.limits["bbc"] != 10 {
		t.Fatalf("feed entry limit not forwarded: %d", feeds.limits["bbc"])
	}
}

func TestFallbackSourceEmptyPrimaryFallsBack(t *testing.T) {
	t.Parallel()

	primary := &stubScanner{name: "newsapi"}
	feeds := &stubScanner{name: "feed", results: map[string][]domain.Headline{
		"cnn": {{Title: "Explosion rocks downtown", URL: "c9"}},
	}}

	res, err := newSource(primary, feeds).FetchHeadlines(context.Background())
	if err != nil {
		t.Fatalf("FetchHeadlines error: %v", err)
	}
	if res.Stage != domain.StageFallback || len(res.Headlines) != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestFallbackSourceEverythingFails(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	primary := &stubScanner{name: "newsapi", errs: map[string]error{"newsapi": boom}}
	feeds := &stubScanner{name: "feed", errs: map[string]error{"bbc": boom, "broken": boom, "cnn": boom}}

	res, err := newSource(primary, feeds).FetchHeadlines(context.Background())
	if err != nil {
		t.Fatalf("FetchHeadlines must degrade, got error: %v", err)
	}
	if res.Stage != domain.StageNone || len(res.Headlines) != 0 {
		t.Fatalf("expected empty result, got %+v", res)
	}
}

func TestFallbackSourceUnknownScanner(t *testing.T) {
	t.Parallel()

	reg := scanner.NewRegistry()
	reg.Register(&stubScanner{name: "newsapi"})
	src := NewFallbackSource(reg, sources(), logging.Discard())

	if _, err := src.FetchHeadlines(context.Background()); !errors.Is(err, scanner.ErrUnknownScanner) {
		t.Fatalf("expected ErrUnknownScanner, got %v", err)
	}
}

func TestFallbackSourceCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	primary := &stubScanner{name: "newsapi", errs: map[string]error{"newsapi": context.Canceled}}
	feeds := &stubScanner{name: "feed"}

	if _, err := newSource(primary, feeds).FetchHeadlines(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
