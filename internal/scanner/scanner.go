package scanner

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"TragedyWatch/internal/domain"
)

// ErrUnknownScanner is returned by Resolve for unregistered strategy names.
var ErrUnknownScanner = errors.New("scanner is not registered")

// Request carries all parameters required to execute a scan of one site.
type Request struct {
	SiteName string
	URL      string
	Options  map[string]string
	// Limit caps the number of headlines taken from the site; zero means no cap.
	Limit int
}

// Scanner captures a single strategy implementation (NewsAPI, RSS/Atom, etc.).
type Scanner interface {
	Name() string
	Scan(ctx context.Context, req Request) ([]domain.Headline, error)
}

// Registry keeps a mapping from scanner names to their implementations.
type Registry struct {
	scanners map[string]Scanner
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{scanners: map[string]Scanner{}}
}

// Register adds or replaces a scanner implementation.
func (r *Registry) Register(scanner Scanner) {
	if r.scanners == nil {
		r.scanners = map[string]Scanner{}
	}
	r.scanners[scanner.Name()] = scanner
}

// Resolve returns a scanner by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Scanner, error) {
	if scanner, ok := r.scanners[name]; ok {
		return scanner, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownScanner, name)
}

// Names lists registered strategies in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.scanners))
	for name := range r.scanners {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Complete drops headlines lacking a title or URL.
func Complete(headlines []domain.Headline) []domain.Headline {
	kept := headlines[:0]
	for _, h := range headlines {
		if h.Title == "" || h.URL == "" {
			continue
		}
		kept = append(kept, h)
	}
	return kept
}
