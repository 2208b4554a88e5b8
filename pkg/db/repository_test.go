package db

import (
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/mklimuk/thoughtflow/pkg/thought"
)

func setupTestDB(t *testing.T) *Repository {
	t.Helper()
	database, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := database.InitSchema(); err != nil {
		t.Fatalf("failed to init schema: %v", err)
	}
	return NewRepository(database)
}

func mustInsert(t *testing.T, repo *Repository, content string, dest thought.Destination, order *int) *thought.ProcessedThought {
	t.Helper()
	th, err := repo.InsertThought(content, time.Now().UTC())
	if err != nil {
		t.Fatalf("insert thought: %v", err)
	}
	pt, err := repo.InsertProcessedThought(th.ID, content, dest, th.CreatedAt, order)
	if err != nil {
		t.Fatalf("insert processed thought: %v", err)
	}
	return pt
}

func TestThoughts(t *testing.T) {
	repo := setupTestDB(t)

	created := time.Now().UTC().Truncate(time.Second)
	th, err := repo.InsertThought("buy milk", created)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if th.ID <= 0 {
		t.Fatalf("expected positive id, got %d", th.ID)
	}

	all, err := repo.ListThoughts()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 || all[0].Content != "buy milk" {
		t.Fatalf("unexpected thoughts: %+v", all)
	}
}

func TestInsertAssignsSequentialOrders(t *testing.T) {
	repo := setupTestDB(t)

	for i := 0; i < 3; i++ {
		pt := mustInsert(t, repo, "todo item", thought.DestinationTodos, nil)
		if pt.Order != i {
			t.Errorf("insert %d: order = %d, want %d", i, pt.Order, i)
		}
	}

	// Independent group starts at zero.
	pt := mustInsert(t, repo, "write post", thought.DestinationBlog, nil)
	if pt.Order != 0 {
		t.Errorf("blog order = %d, want 0", pt.Order)
	}

	// Another todos insert keeps counting.
	pt = mustInsert(t, repo, "one more", thought.DestinationTodos, nil)
	if pt.Order != 3 {
		t.Errorf("todos order = %d, want 3", pt.Order)
	}
}

func TestInsertExplicitOrderUsedVerbatim(t *testing.T) {
	repo := setupTestDB(t)

	mustInsert(t, repo, "first", thought.DestinationTodos, nil)

	order := 0
	pt := mustInsert(t, repo, "colliding", thought.DestinationTodos, &order)
	if pt.Order != 0 {
		t.Fatalf("explicit order = %d, want 0", pt.Order)
	}

	// The duplicate slot does not disturb the tail computation.
	pt = mustInsert(t, repo, "third", thought.DestinationTodos, nil)
	if pt.Order != 1 {
		t.Errorf("order after collision = %d, want 1", pt.Order)
	}
}

func TestReorder(t *testing.T) {
	repo := setupTestDB(t)

	a := mustInsert(t, repo, "a", thought.DestinationTodos, nil)
	b := mustInsert(t, repo, "b", thought.DestinationTodos, nil)
	c := mustInsert(t, repo, "c", thought.DestinationTodos, nil)
	untouched := mustInsert(t, repo, "untouched", thought.DestinationTodos, nil)

	updated, err := repo.ReorderProcessedThoughts(thought.DestinationTodos, []int64{c.ID, a.ID, b.ID})
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if len(updated) != 3 {
		t.Fatalf("expected 3 updated, got %d", len(updated))
	}
	wantOrders := map[int64]int{c.ID: 0, a.ID: 1, b.ID: 2}
	for _, pt := range updated {
		if pt.Order != wantOrders[pt.ID] {
			t.Errorf("id %d: order = %d, want %d", pt.ID, pt.Order, wantOrders[pt.ID])
		}
	}

	// Unnamed thoughts keep their prior order.
	got, err := repo.GetProcessedThought(untouched.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Order != untouched.Order {
		t.Errorf("untouched order = %d, want %d", got.Order, untouched.Order)
	}
}

func TestReorderSkipsUnmatchedIDs(t *testing.T) {
	repo := setupTestDB(t)

	a := mustInsert(t, repo, "a", thought.DestinationTodos, nil)
	c := mustInsert(t, repo, "c", thought.DestinationTodos, nil)
	other := mustInsert(t, repo, "elsewhere", thought.DestinationBlog, nil)

	// Middle id does not exist; positions are not renumbered to close the gap.
	updated, err := repo.ReorderProcessedThoughts(thought.DestinationTodos, []int64{a.ID, 9999, c.ID})
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if len(updated) != 2 {
		t.Fatalf("expected 2 updated, got %d", len(updated))
	}
	if updated[0].ID != a.ID || updated[0].Order != 0 {
		t.Errorf("first = %+v, want id %d order 0", updated[0], a.ID)
	}
	if updated[1].ID != c.ID || updated[1].Order != 2 {
		t.Errorf("second = %+v, want id %d order 2", updated[1], c.ID)
	}

	// An id filed under another destination is skipped too.
	updated, err = repo.ReorderProcessedThoughts(thought.DestinationTodos, []int64{other.ID})
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if len(updated) != 0 {
		t.Fatalf("expected no updates, got %+v", updated)
	}
	got, _ := repo.GetProcessedThought(other.ID)
	if got.Order != other.Order || got.Destination != thought.DestinationBlog {
		t.Errorf("foreign thought changed: %+v", got)
	}
}

func TestUpdateRelocatesToTailOfNewGroup(t *testing.T) {
	repo := setupTestDB(t)

	mustInsert(t, repo, "blog 0", thought.DestinationBlog, nil)
	blog1 := mustInsert(t, repo, "blog 1", thought.DestinationBlog, nil)
	moved := mustInsert(t, repo, "moving", thought.DestinationTodos, nil)
	stays := mustInsert(t, repo, "stays", thought.DestinationTodos, nil)

	moved.Destination = thought.DestinationBlog
	updated, err := repo.UpdateProcessedThought(moved, true)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated == nil {
		t.Fatal("expected updated thought, got nil")
	}
	if updated.Order != 2 {
		t.Errorf("relocated order = %d, want 2", updated.Order)
	}

	// No other thought's order changed in either group.
	for _, id := range []int64{blog1.ID, stays.ID} {
		got, err := repo.GetProcessedThought(id)
		if err != nil {
			t.Fatalf("get %d: %v", id, err)
		}
		want := map[int64]int{blog1.ID: 1, stays.ID: 1}[id]
		if got.Order != want {
			t.Errorf("id %d: order = %d, want %d", id, got.Order, want)
		}
	}
}

func TestUpdateRelocateIntoEmptyGroup(t *testing.T) {
	repo := setupTestDB(t)

	pt := mustInsert(t, repo, "meeting", thought.DestinationTodos, nil)
	pt.Destination = thought.DestinationCalendar
	updated, err := repo.UpdateProcessedThought(pt, true)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Order != 0 {
		t.Errorf("order = %d, want 0", updated.Order)
	}
}

func TestUpdateMissingProcessedThought(t *testing.T) {
	repo := setupTestDB(t)

	pt := &thought.ProcessedThought{ID: 42, Content: "ghost", Destination: thought.DestinationTodos}
	updated, err := repo.UpdateProcessedThought(pt, false)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated != nil {
		t.Errorf("expected nil, got %+v", updated)
	}
}

func TestListProcessedThoughtsIsDeterministic(t *testing.T) {
	repo := setupTestDB(t)

	order := 5
	mustInsert(t, repo, "a", thought.DestinationTodos, &order)
	mustInsert(t, repo, "b", thought.DestinationTodos, &order)
	mustInsert(t, repo, "c", thought.DestinationBlog, nil)

	first, err := repo.ListProcessedThoughts(nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	second, err := repo.ListProcessedThoughts(nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("two reads differ:\n%+v\n%+v", first, second)
	}

	// Colliding orders break ties by id ascending.
	dest := thought.DestinationTodos
	todos, err := repo.ListProcessedThoughts(&dest)
	if err != nil {
		t.Fatalf("list todos: %v", err)
	}
	if len(todos) != 2 || todos[0].Content != "a" || todos[1].Content != "b" {
		t.Errorf("unexpected tie-break: %+v", todos)
	}
}

func TestDeleteProcessedThought(t *testing.T) {
	repo := setupTestDB(t)

	pt := mustInsert(t, repo, "doomed", thought.DestinationTodos, nil)
	doc, err := repo.InsertDocument("bundle", []int64{pt.ID}, time.Now().UTC())
	if err != nil {
		t.Fatalf("insert document: %v", err)
	}

	ok, err := repo.DeleteProcessedThought(pt.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !ok {
		t.Fatal("expected delete to report true")
	}

	got, err := repo.GetProcessedThought(pt.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil after delete, got %+v", got)
	}

	// Document references are cascade-removed, not left dangling.
	refreshed, err := repo.GetDocument(doc.ID)
	if err != nil {
		t.Fatalf("get document: %v", err)
	}
	if len(refreshed.Thoughts) != 0 {
		t.Errorf("expected no referenced thoughts, got %+v", refreshed.Thoughts)
	}

	// Deleting again reports not found.
	ok, err = repo.DeleteProcessedThought(pt.ID)
	if err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if ok {
		t.Error("expected second delete to report false")
	}
}

func TestInsertDocument(t *testing.T) {
	repo := setupTestDB(t)

	a := mustInsert(t, repo, "a", thought.DestinationTodos, nil)
	b := mustInsert(t, repo, "b", thought.DestinationBlog, nil)

	// No resolvable ids: no document is created.
	doc, err := repo.InsertDocument("empty", []int64{777}, time.Now().UTC())
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if doc != nil {
		t.Fatalf("expected nil, got %+v", doc)
	}
	docs, err := repo.ListDocuments()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(docs) != 0 {
		t.Fatalf("expected no documents, got %+v", docs)
	}

	// Unresolvable ids are dropped, matched ones kept.
	doc, err = repo.InsertDocument("weekend", []int64{a.ID, 777, b.ID}, time.Now().UTC())
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if doc == nil {
		t.Fatal("expected document")
	}
	if doc.Label != "weekend" || len(doc.Thoughts) != 2 {
		t.Fatalf("unexpected document: %+v", doc)
	}

	docs, err = repo.ListDocuments()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(docs) != 1 || len(docs[0].Thoughts) != 2 {
		t.Fatalf("unexpected documents: %+v", docs)
	}
}
