package ai

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/mklimuk/thoughtflow/pkg/thought"
)

const defaultClassifyTimeout = 10 * time.Second

// Classifier turns free text into a destination using a Generator. It is
// fail-open: any failure of the underlying call resolves to the default
// destination, so classification can never fail a capture.
type Classifier struct {
	gen     Generator
	timeout time.Duration
}

// NewClassifier creates a Classifier over the given generator.
func NewClassifier(gen Generator) *Classifier {
	return &Classifier{gen: gen, timeout: defaultClassifyTimeout}
}

// classification carries either a resolved destination or the reason the
// call fell back to the default. Callers of Classify only ever see the
// destination; the failure reason exists for logging.
type classification struct {
	dest    thought.Destination
	failure string
}

// Classify returns the destination for the given text. Failures are logged
// and resolve to thought.DefaultDestination.
func (c *Classifier) Classify(ctx context.Context, text string) thought.Destination {
	res := c.classify(ctx, text)
	if res.failure != "" {
		log.Printf("ai: classification fell back to %s: %s", res.dest, res.failure)
	}
	return res.dest
}

func (c *Classifier) classify(ctx context.Context, text string) classification {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	raw, err := c.gen.GenerateText(ctx, ClassifyPrompt(text))
	if err != nil {
		return classification{dest: thought.DefaultDestination, failure: fmt.Sprintf("generator error: %v", err)}
	}

	label := cleanLabel(raw)
	if label == "" {
		return classification{dest: thought.DefaultDestination, failure: "empty reply"}
	}
	dest, ok := thought.ParseDestination(label)
	if !ok {
		return classification{dest: thought.DefaultDestination, failure: fmt.Sprintf("unrecognized label %q", label)}
	}
	return classification{dest: dest}
}

// cleanLabel strips code fences, quotes and trailing punctuation that models
// tend to wrap single-word replies in.
func cleanLabel(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.Trim(s, "\"'`")
	s = strings.TrimSuffix(s, ".")
	return strings.TrimSpace(s)
}
