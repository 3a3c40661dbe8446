package parser

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"TragedyWatch/internal/config"
	"TragedyWatch/internal/domain"
	"TragedyWatch/internal/ports"
	"TragedyWatch/internal/scanner"
)

// FallbackSource implements HeadlineSource as a two-stage chain: the primary
// site first, and the fallback feeds only when the primary yields nothing.
// Site-level failures are logged and degrade to empty results.
type FallbackSource struct {
	registry   *scanner.Registry
	primary    config.SiteConfig
	fallback   []config.SiteConfig
	entryLimit int
	logger     *slog.Logger
}

var _ ports.HeadlineSource = (*FallbackSource)(nil)

// NewFallbackSource wires scanner registry with config-defined sites.
func NewFallbackSource(reg *scanner.Registry, sources config.SourcesConfig, log *slog.Logger) *FallbackSource {
	return &FallbackSource{
		registry:   reg,
		primary:    sources.Primary,
		fallback:   sources.Fallback,
		entryLimit: sources.EntryLimit,
		logger:     log,
	}
}

// FetchHeadlines returns primary headlines when there are any, otherwise the
// concatenation of fallback feeds in configuration order. The error return is
// reserved for cancellation and unresolvable scanner names.
func (s *FallbackSource) FetchHeadlines(ctx context.Context) (domain.FetchResult, error) {
	if s.registry == nil {
		return domain.FetchResult{}, fmt.Errorf("scanner registry is not configured")
	}

	primary, err := s.fetchPrimary(ctx)
	if err != nil {
		return domain.FetchResult{}, err
	}
	if len(primary) > 0 {
		s.debug("primary source produced headlines", "site", s.primary.Name, "count", len(primary))
		return domain.FetchResult{Headlines: primary, Stage: domain.StagePrimary}, nil
	}

	s.info("primary source empty, falling back to feeds", "feeds", len(s.fallback))
	fallback, err := s.fetchFallback(ctx)
	if err != nil {
		return domain.FetchResult{}, err
	}
	if len(fallback) == 0 {
		return domain.FetchResult{Stage: domain.StageNone}, nil
	}

	s.debug("fallback feeds produced headlines", "count", len(fallback))
	return domain.FetchResult{Headlines: fallback, Stage: domain.StageFallback}, nil
}

func (s *FallbackSource) fetchPrimary(ctx context.Context) ([]domain.Headline, error) {
	if s.primary.URL == "" {
		return nil, nil
	}

	strategy, err := s.registry.Resolve(s.primary.Scanner)
	if err != nil {
		return nil, fmt.Errorf("site %s: %w", s.primary.Name, err)
	}

	headlines, err := strategy.Scan(ctx, s.request(s.primary, 0))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.warn("primary source failed", "site", s.primary.Name, "error", err)
		return nil, nil
	}
	return headlines, nil
}

func (s *FallbackSource) fetchFallback(ctx context.Context) ([]domain.Headline, error) {
	strategies := make([]scanner.Scanner, len(s.fallback))
	for i, site := range s.fallback {
		strategy, err := s.registry.Resolve(site.Scanner)
		if err != nil {
			return nil, fmt.Errorf("site %s: %w", site.Name, err)
		}
		strategies[i] = strategy
	}

	perSite := make([][]domain.Headline, len(s.fallback))
	g, gctx := errgroup.WithContext(ctx)
	for i, site := range s.fallback {
		g.Go(func() error {
			headlines, err := strategies[i].Scan(gctx, s.request(site, s.entryLimit))
			if err != nil {
				s.warn("feed skipped", "site", site.Name, "url", site.URL, "error", err)
				return nil
			}
			s.debug("feed produced headlines", "site", site.Name, "count", len(headlines))
			perSite[i] = headlines
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var aggregated []domain.Headline
	for _, headlines := range perSite {
		aggregated = append(aggregated, headlines...)
	}
	return aggregated, nil
}

func (s *FallbackSource) request(site config.SiteConfig, limit int) scanner.Request {
	return scanner.Request{
		SiteName: site.Name,
		URL:      site.URL,
		Options:  site.Options,
		Limit:    limit,
	}
}

func (s *FallbackSource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *FallbackSource) info(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

func (s *FallbackSource) warn(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
