package scanner

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"TragedyWatch/internal/domain"
)

type namedScanner string

func (n namedScanner) Name() string { return string(n) }

func (n namedScanner) Scan(context.Context, Request) ([]domain.Headline, error) { return nil, nil }

func TestRegistryResolve(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register(namedScanner("feed"))
	reg.Register(namedScanner("newsapi"))

	if _, err := reg.Resolve("feed"); err != nil {
		t.Fatalf("Resolve(feed) error: %v", err)
	}
	if _, err := reg.Resolve("arxiv"); !errors.Is(err, ErrUnknownScanner) {
		t.Fatalf("expected ErrUnknownScanner, got %v", err)
	}
	if diff := cmp.Diff([]string{"feed", "newsapi"}, reg.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestComplete(t *testing.T) {
	t.Parallel()

	in := []domain.Headline{
		{Title: "a", URL: "u1"},
		{Title: "", URL: "u2"},
		{Title: "c", URL: ""},
		{Title: "d", URL: "u4"},
	}
	want := []domain.Headline{{Title: "a", URL: "u1"}, {Title: "d", URL: "u4"}}
	if diff := cmp.Diff(want, Complete(in)); diff != "" {
		t.Fatalf("Complete mismatch (-want +got):\n%s", diff)
	}
}
