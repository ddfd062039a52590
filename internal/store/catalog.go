// Package store holds the question catalogue: questions grouped by topic,
// each with an answer and optional picture file names.
package store

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

var ErrQuestionNotFound = errors.New("question not found")

// Entry is one catalogue question. Pictures are bare file names; callers add
// the URL prefix.
type Entry struct {
	Group    string
	Question string
	Answer   string
	Pictures []string
}

// Catalog is implemented by MemoryStore and DatabaseStore.
type Catalog interface {
	// Questions lists every question in insertion order.
	Questions(ctx context.Context) ([]string, error)
	// Answer looks a question up by its exact text.
	Answer(ctx context.Context, question string) (Entry, error)
	// Upsert adds e or replaces the entry with the same question text.
	Upsert(ctx context.Context, e Entry) error
}

func validate(e Entry) error {
	if strings.TrimSpace(e.Question) == "" {
		return errors.New("question is required")
	}
	for _, p := range e.Pictures {
		if p == "" || strings.Contains(p, picturesSeparator) {
			return errors.Errorf("invalid picture name %q", p)
		}
	}
	return nil
}

const picturesSeparator = ";"

func joinPictures(pictures []string) string {
	return strings.Join(pictures, picturesSeparator)
}

func splitPictures(links string) []string {
	out := []string{}
	for _, p := range strings.Split(links, picturesSeparator) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
