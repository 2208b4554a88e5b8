package capture

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/mklimuk/thoughtflow/pkg/ai"
	"github.com/mklimuk/thoughtflow/pkg/db"
	"github.com/mklimuk/thoughtflow/pkg/thought"
)

type mockGenerator struct {
	response string
	err      error
}

func (m *mockGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	return m.response, m.err
}

func setupService(t *testing.T, gen ai.Generator) (*Service, *db.Repository) {
	t.Helper()
	database, err := db.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	if err := database.InitSchema(); err != nil {
		t.Fatalf("failed to init schema: %v", err)
	}
	repo := db.NewRepository(database)
	return NewService(repo, ai.NewClassifier(gen)), repo
}

func TestCaptureClassifies(t *testing.T) {
	svc, _ := setupService(t, &mockGenerator{response: "Todos"})

	pt, err := svc.Capture(context.Background(), "buy milk", nil, nil)
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if pt.Destination != thought.DestinationTodos {
		t.Errorf("destination = %q, want todos", pt.Destination)
	}
	if pt.Order != 0 {
		t.Errorf("order = %d, want 0", pt.Order)
	}
}

func TestCaptureExplicitDestinationSkipsClassifier(t *testing.T) {
	// A generator error must not matter when the destination is explicit.
	svc, _ := setupService(t, &mockGenerator{err: errors.New("down")})

	dest := thought.DestinationBlog
	pt, err := svc.Capture(context.Background(), "write post", &dest, nil)
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if pt.Destination != thought.DestinationBlog {
		t.Errorf("destination = %q, want blog", pt.Destination)
	}
}

func TestCaptureClassifierFailureFallsBack(t *testing.T) {
	svc, _ := setupService(t, &mockGenerator{err: errors.New("network error")})

	pt, err := svc.Capture(context.Background(), "some note", nil, nil)
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if pt.Destination != thought.DefaultDestination {
		t.Errorf("destination = %q, want default %q", pt.Destination, thought.DefaultDestination)
	}
}

func TestCaptureStoresRawThought(t *testing.T) {
	svc, repo := setupService(t, &mockGenerator{response: "Todos"})

	if _, err := svc.Capture(context.Background(), "  remember this  ", nil, nil); err != nil {
		t.Fatalf("capture: %v", err)
	}
	thoughts, err := repo.ListThoughts()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(thoughts) != 1 || thoughts[0].Content != "remember this" {
		t.Fatalf("unexpected raw thoughts: %+v", thoughts)
	}
}

func TestCaptureEmptyContent(t *testing.T) {
	svc, repo := setupService(t, &mockGenerator{response: "Todos"})

	if _, err := svc.Capture(context.Background(), "   ", nil, nil); !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("expected ErrEmptyContent, got %v", err)
	}
	thoughts, _ := repo.ListThoughts()
	if len(thoughts) != 0 {
		t.Errorf("expected no thoughts stored, got %+v", thoughts)
	}
}

func TestCaptureIndependentGroupOrdering(t *testing.T) {
	svc, _ := setupService(t, &mockGenerator{response: "Reading list"})
	ctx := context.Background()

	todos := thought.DestinationTodos
	blog := thought.DestinationBlog

	first, err := svc.Capture(ctx, "buy milk", &todos, nil)
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if first.Destination != thought.DestinationTodos || first.Order != 0 {
		t.Errorf("first = %+v, want todos order 0", first)
	}

	second, err := svc.Capture(ctx, "write post", &blog, nil)
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if second.Destination != thought.DestinationBlog || second.Order != 0 {
		t.Errorf("second = %+v, want blog order 0", second)
	}

	third, err := svc.Capture(ctx, "call the plumber", &todos, nil)
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if third.Order != 1 {
		t.Errorf("third order = %d, want 1", third.Order)
	}
}
