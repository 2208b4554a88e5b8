// Package capture turns free text into a stored, categorized thought. It is
// the single path shared by the HTTP API and the chat relays.
package capture

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mklimuk/thoughtflow/pkg/ai"
	"github.com/mklimuk/thoughtflow/pkg/db"
	"github.com/mklimuk/thoughtflow/pkg/thought"
)

// ErrEmptyContent is returned when a capture request carries no text.
var ErrEmptyContent = errors.New("thought content is empty")

// Service captures thoughts: it stores the raw text, resolves a destination
// (explicit or classified) and files the processed thought.
type Service struct {
	repo       *db.Repository
	classifier *ai.Classifier
}

// NewService creates a capture service.
func NewService(repo *db.Repository, classifier *ai.Classifier) *Service {
	return &Service{repo: repo, classifier: classifier}
}

// Capture stores content as a raw thought and files it under dest, or under
// the classified destination when dest is nil. A nil order appends at the
// tail of the destination group. The raw thought row is committed before
// classification runs; a classification failure can therefore never lose the
// captured text.
func (s *Service) Capture(ctx context.Context, content string, dest *thought.Destination, order *int) (*thought.ProcessedThought, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}

	th, err := s.repo.InsertThought(content, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to store thought: %w", err)
	}

	d := thought.DefaultDestination
	switch {
	case dest != nil:
		d = *dest
	case s.classifier != nil:
		d = s.classifier.Classify(ctx, content)
	}

	pt, err := s.repo.InsertProcessedThought(th.ID, content, d, th.CreatedAt, order)
	if err != nil {
		return nil, fmt.Errorf("failed to file thought: %w", err)
	}
	return pt, nil
}
