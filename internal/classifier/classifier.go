// Package classifier flags headlines that describe a tragedy.
package classifier

import (
	"strings"

	"TragedyWatch/internal/ports"
)

// DefaultKeywords are the trigger words matched against lower-cased titles.
var DefaultKeywords = []string{
	"deadly", "attack", "crash", "explosion",
	"earthquake", "flood", "disaster",
	"massacre", "tragedy", "shooting",
}

// Keyword matches titles by plain substring, so "attacking" matches "attack".
type Keyword struct {
	keywords []string
}

var _ ports.Classifier = (*Keyword)(nil)

// New builds a classifier over the given keywords; an empty list falls back
// to DefaultKeywords.
func New(keywords []string) *Keyword {
	normalized := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			normalized = append(normalized, kw)
		}
	}
	if len(normalized) == 0 {
		normalized = append(normalized, DefaultKeywords...)
	}
	return &Keyword{keywords: normalized}
}

// IsTragedy reports whether any keyword occurs anywhere in the title.
func (k *Keyword) IsTragedy(title string) bool {
	if strings.TrimSpace(title) == "" {
		return false
	}
	lower := strings.ToLower(title)
	for _, kw := range k.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Keywords returns a copy of the configured keywords.
func (k *Keyword) Keywords() []string {
	return append([]string(nil), k.keywords...)
}

var defaultClassifier = New(DefaultKeywords)

// IsTragedy classifies a title against DefaultKeywords.
func IsTragedy(title string) bool {
	return defaultClassifier.IsTragedy(title)
}
