package newsapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"TragedyWatch/internal/config"
	"TragedyWatch/internal/domain"
	"TragedyWatch/internal/scanner"
)

func TestClientScan(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("apiKey") != "secret" || q.Get("country") != "us" || q.Get("pageSize") != "20" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{
			"status": "ok",
			"articles": [
				{"title": "Deadly crash kills 5", "url": "https://news.example/u1", "source": {"name": "Wire"}},
				{"title": "", "url": "https://news.example/no-title"},
				{"title": "No link"},
				{"title": "Stocks rise", "url": "https://news.example/u2"}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient(config.NewsAPIConfig{APIKey: "secret"})
	got, err := client.Scan(context.Background(), scanner.Request{
		SiteName: "newsapi",
		URL:      server.URL + "/v2/top-headlines",
	})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}

	want := []domain.Headline{
		{Title: "Deadly crash kills 5", URL: "https://news.example/u1", Source: "newsapi"},
		{Title: "Stocks rise", URL: "https://news.example/u2", Source: "newsapi"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("headlines mismatch (-want +got):\n%s", diff)
	}
}

func TestClientScanMissingKey(t *testing.T) {
	t.Parallel()

	client := NewClient(config.NewsAPIConfig{})
	_, err := client.Scan(context.Background(), scanner.Request{URL: "http://127.0.0.1:1/"})
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestClientScanUpstreamFailures(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"error status in payload", http.StatusOK, `{"status":"error","code":"apiKeyInvalid","message":"bad key"}`, ErrUpstreamStatus},
		{"non-2xx", http.StatusTooManyRequests, `{"status":"error"}`, nil},
		{"garbage", http.StatusOK, `<html>`, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			client := NewClient(config.NewsAPIConfig{APIKey: "k"})
			headlines, err := client.Scan(context.Background(), scanner.Request{URL: server.URL})
			if err == nil {
				t.Fatalf("expected error, got %d headlines", len(headlines))
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestBuildRequestURLOptions(t *testing.T) {
	t.Parallel()

	u, err := buildRequestURL(scanner.Request{
		URL:     "https://newsapi.org/v2/top-headlines",
		Options: map[string]string{"country": "gb", "pageSize": "50"},
	}, "k")
	if err != nil {
		t.Fatalf("buildRequestURL error: %v", err)
	}
	if !strings.Contains(u, "country=gb") || !strings.Contains(u, "pageSize=50") {
		t.Fatalf("options not applied: %s", u)
	}

	if _, err := buildRequestURL(scanner.Request{URL: "not a url"}, "k"); err == nil {
		t.Fatal("expected error for invalid endpoint")
	}
}
