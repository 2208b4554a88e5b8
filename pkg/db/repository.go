package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/mklimuk/thoughtflow/pkg/thought"
)

// Repository handles data access
type Repository struct {
	db *DB
}

// NewRepository creates a new Repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

const selectProcessed = `SELECT id, thought_id, content, destination, created_at, sort_order FROM processed_thoughts`

// queryRower is satisfied by *sql.DB and *sql.Tx.
type queryRower interface {
	QueryRow(query string, args ...interface{}) *sql.Row
}

// InsertThought stores a raw thought and returns it with its assigned id.
func (r *Repository) InsertThought(content string, createdAt time.Time) (*thought.Thought, error) {
	res, err := r.db.Exec(`INSERT INTO thoughts (content, created_at) VALUES (?, ?)`, content, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert thought: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read thought id: %w", err)
	}
	return &thought.Thought{ID: id, Content: content, CreatedAt: createdAt}, nil
}

// ListThoughts returns all raw thoughts in creation order.
func (r *Repository) ListThoughts() ([]thought.Thought, error) {
	rows, err := r.db.Query(`SELECT id, content, created_at FROM thoughts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list thoughts: %w", err)
	}
	defer rows.Close()

	thoughts := []thought.Thought{}
	for rows.Next() {
		var t thought.Thought
		if err := rows.Scan(&t.ID, &t.Content, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan thought: %w", err)
		}
		thoughts = append(thoughts, t)
	}
	return thoughts, rows.Err()
}

// nextOrder computes the tail position of a destination group: one past the
// current maximum, or 0 for an empty group.
func nextOrder(q queryRower, dest thought.Destination) (int, error) {
	var next int
	err := q.QueryRow(`SELECT COALESCE(MAX(sort_order) + 1, 0) FROM processed_thoughts WHERE destination = ?`, string(dest)).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("failed to compute next order: %w", err)
	}
	return next, nil
}

// InsertProcessedThought files a thought under a destination. When
// explicitOrder is nil the thought is appended at the tail of its destination
// group; the max-order read and the insert run in one transaction so
// concurrent inserts into the same group cannot both claim the same slot.
// Explicit orders are used verbatim, duplicates included.
func (r *Repository) InsertProcessedThought(thoughtID int64, content string, dest thought.Destination, createdAt time.Time, explicitOrder *int) (*thought.ProcessedThought, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	order := 0
	if explicitOrder != nil {
		order = *explicitOrder
	} else {
		order, err = nextOrder(tx, dest)
		if err != nil {
			return nil, err
		}
	}

	res, err := tx.Exec(
		`INSERT INTO processed_thoughts (thought_id, content, destination, created_at, sort_order) VALUES (?, ?, ?, ?, ?)`,
		thoughtID, content, string(dest), createdAt, order,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert processed thought: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read processed thought id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	return &thought.ProcessedThought{
		ID:          id,
		ThoughtID:   thoughtID,
		Content:     content,
		Destination: dest,
		CreatedAt:   createdAt,
		Order:       order,
	}, nil
}

// GetProcessedThought returns the processed thought with the given id, or
// nil when it does not exist.
func (r *Repository) GetProcessedThought(id int64) (*thought.ProcessedThought, error) {
	row := r.db.QueryRow(selectProcessed+` WHERE id = ?`, id)
	pt, err := scanProcessed(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get processed thought: %w", err)
	}
	return pt, nil
}

// UpdateProcessedThought replaces the stored record with pt. When relocate is
// set the thought is appended at the tail of its (new) destination group and
// pt.Order is overwritten with the assigned position; the vacated slot in the
// old group is left as-is. Returns nil when the id no longer exists.
func (r *Repository) UpdateProcessedThought(pt *thought.ProcessedThought, relocate bool) (*thought.ProcessedThought, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if relocate {
		pt.Order, err = nextOrder(tx, pt.Destination)
		if err != nil {
			return nil, err
		}
	}

	res, err := tx.Exec(
		`UPDATE processed_thoughts SET content = ?, destination = ?, sort_order = ? WHERE id = ?`,
		pt.Content, string(pt.Destination), pt.Order, pt.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update processed thought: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return nil, nil
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return pt, nil
}

// DeleteProcessedThought removes a processed thought and any document
// references to it. The reported bool is false when the id did not exist.
func (r *Repository) DeleteProcessedThought(id int64) (bool, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM document_thoughts WHERE thought_id = ?`, id); err != nil {
		return false, fmt.Errorf("failed to delete document references: %w", err)
	}
	res, err := tx.Exec(`DELETE FROM processed_thoughts WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete processed thought: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit: %w", err)
	}
	return n > 0, nil
}

// ReorderProcessedThoughts assigns each listed id its 0-based position in ids
// as the new order, restricted to thoughts currently filed under dest. Ids
// that do not exist, or that belong to another destination, are skipped
// without closing the gap. Returns the thoughts actually updated, in the
// order they were matched. Thoughts in dest not named in ids keep their
// prior order values.
func (r *Repository) ReorderProcessedThoughts(dest thought.Destination, ids []int64) ([]thought.ProcessedThought, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	updated := []thought.ProcessedThought{}
	for idx, id := range ids {
		res, err := tx.Exec(
			`UPDATE processed_thoughts SET sort_order = ? WHERE id = ? AND destination = ?`,
			idx, id, string(dest),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to reorder processed thought %d: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("failed to read rows affected: %w", err)
		}
		if n == 0 {
			continue
		}
		pt, err := scanProcessed(tx.QueryRow(selectProcessed+` WHERE id = ?`, id))
		if err != nil {
			return nil, fmt.Errorf("failed to read reordered thought %d: %w", id, err)
		}
		updated = append(updated, *pt)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return updated, nil
}

// ListProcessedThoughts returns processed thoughts sorted by destination and
// order, with the id as a deterministic tie-break. A non-nil dest restricts
// the result to one destination group.
func (r *Repository) ListProcessedThoughts(dest *thought.Destination) ([]thought.ProcessedThought, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if dest != nil {
		rows, err = r.db.Query(selectProcessed+` WHERE destination = ? ORDER BY destination, sort_order, id`, string(*dest))
	} else {
		rows, err = r.db.Query(selectProcessed + ` ORDER BY destination, sort_order, id`)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list processed thoughts: %w", err)
	}
	defer rows.Close()

	return collectProcessed(rows)
}

// InsertDocument creates a document referencing the processed thoughts whose
// ids appear in thoughtIDs. Ids that resolve to nothing are ignored; when
// none resolve, no document is created and nil is returned.
func (r *Repository) InsertDocument(label string, thoughtIDs []int64, createdAt time.Time) (*thought.Document, error) {
	if len(thoughtIDs) == 0 {
		return nil, nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	args := make([]interface{}, len(thoughtIDs))
	for i, id := range thoughtIDs {
		args[i] = id
	}
	rows, err := tx.Query(
		selectProcessed+` WHERE id IN (`+placeholders(len(thoughtIDs))+`) ORDER BY destination, sort_order, id`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve document thoughts: %w", err)
	}
	resolved, err := collectProcessed(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}
	if len(resolved) == 0 {
		return nil, nil
	}

	res, err := tx.Exec(`INSERT INTO documents (label, created_at) VALUES (?, ?)`, label, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert document: %w", err)
	}
	docID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read document id: %w", err)
	}
	for _, pt := range resolved {
		if _, err := tx.Exec(`INSERT INTO document_thoughts (document_id, thought_id) VALUES (?, ?)`, docID, pt.ID); err != nil {
			return nil, fmt.Errorf("failed to link thought %d: %w", pt.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	return &thought.Document{ID: docID, Label: label, CreatedAt: createdAt, Thoughts: resolved}, nil
}

// GetDocument returns the document with the given id and its resolved
// thoughts, or nil when it does not exist.
func (r *Repository) GetDocument(id int64) (*thought.Document, error) {
	row := r.db.QueryRow(`SELECT id, label, created_at FROM documents WHERE id = ?`, id)
	var doc thought.Document
	if err := row.Scan(&doc.ID, &doc.Label, &doc.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	thoughts, err := r.documentThoughts(doc.ID)
	if err != nil {
		return nil, err
	}
	doc.Thoughts = thoughts
	return &doc, nil
}

// ListDocuments returns all documents with their resolved thoughts.
func (r *Repository) ListDocuments() ([]thought.Document, error) {
	rows, err := r.db.Query(`SELECT id, label, created_at FROM documents ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	docs := []thought.Document{}
	for rows.Next() {
		var doc thought.Document
		if err := rows.Scan(&doc.ID, &doc.Label, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range docs {
		thoughts, err := r.documentThoughts(docs[i].ID)
		if err != nil {
			return nil, err
		}
		docs[i].Thoughts = thoughts
	}
	return docs, nil
}

func (r *Repository) documentThoughts(docID int64) ([]thought.ProcessedThought, error) {
	rows, err := r.db.Query(
		`SELECT pt.id, pt.thought_id, pt.content, pt.destination, pt.created_at, pt.sort_order
		FROM processed_thoughts pt
		JOIN document_thoughts dt ON dt.thought_id = pt.id
		WHERE dt.document_id = ?
		ORDER BY pt.destination, pt.sort_order, pt.id`,
		docID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list document thoughts: %w", err)
	}
	defer rows.Close()

	return collectProcessed(rows)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProcessed(row rowScanner) (*thought.ProcessedThought, error) {
	var (
		pt   thought.ProcessedThought
		dest string
	)
	if err := row.Scan(&pt.ID, &pt.ThoughtID, &pt.Content, &dest, &pt.CreatedAt, &pt.Order); err != nil {
		return nil, err
	}
	pt.Destination = thought.Destination(dest)
	return &pt, nil
}

func collectProcessed(rows *sql.Rows) ([]thought.ProcessedThought, error) {
	thoughts := []thought.ProcessedThought{}
	for rows.Next() {
		pt, err := scanProcessed(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan processed thought: %w", err)
		}
		thoughts = append(thoughts, *pt)
	}
	return thoughts, rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
