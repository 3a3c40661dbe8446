package newsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"TragedyWatch/internal/config"
	"TragedyWatch/internal/domain"
	"TragedyWatch/internal/scanner"
)

const (
	defaultCountry  = "us"
	defaultPageSize = "20"
	defaultTimeout  = 10 * time.Second
)

var (
	// ErrMissingAPIKey disables the primary source without contacting it.
	ErrMissingAPIKey = errors.New("newsapi: api key is not configured")
	// ErrUpstreamStatus is returned when the payload status is not "ok".
	ErrUpstreamStatus = errors.New("newsapi: upstream reported failure")
)

// Client fetches top headlines from a NewsAPI-compatible endpoint.
type Client struct {
	apiKey string
	http   *http.Client
}

var _ scanner.Scanner = (*Client)(nil)

// NewClient creates a reusable HTTP client; a zero timeout defaults to 10s.
func NewClient(cfg config.NewsAPIConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		apiKey: cfg.APIKey,
		http:   &http.Client{Timeout: timeout},
	}
}

// Name identifies the strategy inside the registry.
func (c *Client) Name() string {
	return "newsapi"
}

type topHeadlinesResponse struct {
	Status   string `json:"status"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Articles []struct {
		Title  string `json:"title"`
		URL    string `json:"url"`
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

// Scan requests the top headlines for the configured country.
func (c *Client) Scan(ctx context.Context, req scanner.Request) ([]domain.Headline, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return nil, ErrMissingAPIKey
	}

	endpoint, err := buildRequestURL(req, c.apiKey)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", "TragedyWatch/1.0")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("newsapi error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var body topHeadlinesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if body.Status != "ok" {
		return nil, fmt.Errorf("%w: status=%q code=%q %s", ErrUpstreamStatus, body.Status, body.Code, body.Message)
	}

	headlines := make([]domain.Headline, 0, len(body.Articles))
	for _, a := range body.Articles {
		headlines = append(headlines, domain.Headline{
			Title:  a.Title,
			URL:    a.URL,
			Source: req.SiteName,
		})
	}
	headlines = scanner.Complete(headlines)

	if req.Limit > 0 && len(headlines) > req.Limit {
		headlines = headlines[:req.Limit]
	}
	return headlines, nil
}

func buildRequestURL(req scanner.Request, apiKey string) (string, error) {
	parsed, err := url.Parse(req.URL)
	if err != nil || parsed.Host == "" {
		return "", fmt.Errorf("invalid newsapi endpoint %q", req.URL)
	}

	query := parsed.Query()
	query.Set("apiKey", apiKey)
	query.Set("country", option(req.Options, "country", defaultCountry))
	query.Set("pageSize", option(req.Options, "pageSize", defaultPageSize))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func option(opts map[string]string, key, fallback string) string {
	if v := strings.TrimSpace(opts[key]); v != "" {
		return v
	}
	return fallback
}
