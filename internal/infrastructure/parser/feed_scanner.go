package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"TragedyWatch/internal/domain"
	"TragedyWatch/internal/scanner"
)

const maxFeedBytes = 8 << 20

// ErrNoFeedDiscovered is returned when an HTML page advertises no feed link.
var ErrNoFeedDiscovered = errors.New("no rss or atom feed advertised on page")

// FeedScanner parses RSS/Atom feeds and takes the first entries in feed order.
// A URL that serves an HTML page is searched for an advertised feed instead.
type FeedScanner struct {
	client *http.Client
}

var _ scanner.Scanner = (*FeedScanner)(nil)

// NewFeedScanner wires an HTTP client; nil defaults to a 20s timeout client.
func NewFeedScanner(client *http.Client) *FeedScanner {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &FeedScanner{client: client}
}

// Name identifies the strategy inside the registry.
func (f *FeedScanner) Name() string {
	return "feed"
}

// Scan fetches one feed and converts up to req.Limit entries into headlines.
func (f *FeedScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Headline, error) {
	feed, err := f.fetchFeed(ctx, req.URL, true)
	if err != nil {
		return nil, fmt.Errorf("site %s: %w", req.SiteName, err)
	}

	items := feed.Items
	if req.Limit > 0 && len(items) > req.Limit {
		items = items[:req.Limit]
	}

	headlines := make([]domain.Headline, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		headlines = append(headlines, domain.Headline{
			Title:  strings.TrimSpace(item.Title),
			URL:    strings.TrimSpace(item.Link),
			Source: req.SiteName,
		})
	}

	return scanner.Complete(headlines), nil
}

func (f *FeedScanner) fetchFeed(ctx context.Context, feedURL string, allowDiscovery bool) (*gofeed.Feed, error) {
	body, err := f.fetchBody(ctx, feedURL)
	if err != nil {
		return nil, err
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err == nil {
		return feed, nil
	}
	if !allowDiscovery || !errors.Is(err, gofeed.ErrFeedTypeNotDetected) {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	discovered, derr := discoverFeedURL(body, feedURL)
	if derr != nil {
		return nil, fmt.Errorf("parse feed: %w (%v)", err, derr)
	}
	return f.fetchFeed(ctx, discovered, false)
}

func (f *FeedScanner) fetchBody(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "TragedyWatch/1.0")
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, text/html;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("read feed: %w", err)
	}
	return body, nil
}

// discoverFeedURL finds the first <link rel="alternate"> pointing at a feed
// and resolves it against the page URL.
func discoverFeedURL(page []byte, pageURL string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("parse document: %w", err)
	}

	var href string
	doc.Find(`link[rel="alternate"]`).EachWithBreak(func(_ int, link *goquery.Selection) bool {
		typ := strings.ToLower(link.AttrOr("type", ""))
		if !strings.Contains(typ, "rss+xml") && !strings.Contains(typ, "atom+xml") {
			return true
		}
		href = strings.TrimSpace(link.AttrOr("href", ""))
		return href == ""
	})
	if href == "" {
		return "", ErrNoFeedDiscovered
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("invalid page url %s: %w", pageURL, err)
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("invalid feed link %s: %w", href, err)
	}
	return base.ResolveReference(ref).String(), nil
}
