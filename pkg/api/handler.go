package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mklimuk/thoughtflow/pkg/capture"
	"github.com/mklimuk/thoughtflow/pkg/db"
	"github.com/mklimuk/thoughtflow/pkg/export"
	"github.com/mklimuk/thoughtflow/pkg/sync"
	"github.com/mklimuk/thoughtflow/pkg/thought"
)

// Handler holds dependencies for API handlers
type Handler struct {
	Repo     *db.Repository
	Capture  *capture.Service
	Exporter *export.Exporter
	Git      *sync.GitManager
}

type createThoughtRequest struct {
	Content     string  `json:"content"`
	Destination *string `json:"destination"`
	Order       *int    `json:"order"`
}

// updateProcessedThoughtRequest is a partial update: absent fields preserve
// the stored value.
type updateProcessedThoughtRequest struct {
	Content     *string `json:"content"`
	Destination *string `json:"destination"`
	Order       *int    `json:"order"`
}

type reorderRequest struct {
	Destination string  `json:"destination"`
	IDs         []int64 `json:"ids"`
}

type createDocumentRequest struct {
	Label      string  `json:"label"`
	ThoughtIDs []int64 `json:"thought_ids"`
}

// HandleCreateThought handles POST /thoughts
func (h *Handler) HandleCreateThought(w http.ResponseWriter, r *http.Request) {
	var req createThoughtRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var dest *thought.Destination
	if req.Destination != nil {
		d, ok := thought.ParseDestination(*req.Destination)
		if !ok {
			http.Error(w, "unknown destination", http.StatusBadRequest)
			return
		}
		dest = &d
	}

	pt, err := h.Capture.Capture(r.Context(), req.Content, dest, req.Order)
	if err != nil {
		if errors.Is(err, capture.ErrEmptyContent) {
			http.Error(w, "content is required", http.StatusBadRequest)
			return
		}
		http.Error(w, "failed to capture thought: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, pt)
}

// HandleListThoughts handles GET /thoughts
func (h *Handler) HandleListThoughts(w http.ResponseWriter, r *http.Request) {
	thoughts, err := h.Repo.ListThoughts()
	if err != nil {
		http.Error(w, "failed to list thoughts: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"thoughts": thoughts})
}

// HandleListProcessedThoughts handles GET /processed-thoughts, optionally
// filtered by ?destination=.
func (h *Handler) HandleListProcessedThoughts(w http.ResponseWriter, r *http.Request) {
	var dest *thought.Destination
	if raw := r.URL.Query().Get("destination"); raw != "" {
		d, ok := thought.ParseDestination(raw)
		if !ok {
			http.Error(w, "unknown destination", http.StatusBadRequest)
			return
		}
		dest = &d
	}

	thoughts, err := h.Repo.ListProcessedThoughts(dest)
	if err != nil {
		http.Error(w, "failed to list processed thoughts: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"processed_thoughts": thoughts})
}

// HandleUpdateProcessedThought handles PATCH /processed-thoughts/{id}. A
// destination change appends the thought at the tail of its new group unless
// the payload also carries an explicit order, which always wins.
func (h *Handler) HandleUpdateProcessedThought(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDPath(w, r)
	if !ok {
		return
	}
	current, err := h.Repo.GetProcessedThought(id)
	if err != nil {
		http.Error(w, "failed to load processed thought: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if current == nil {
		http.Error(w, "processed thought not found", http.StatusNotFound)
		return
	}

	var req updateProcessedThoughtRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	relocate := false
	if req.Content != nil {
		content := strings.TrimSpace(*req.Content)
		if content == "" {
			http.Error(w, "content must not be empty", http.StatusBadRequest)
			return
		}
		current.Content = content
	}
	if req.Destination != nil {
		d, ok := thought.ParseDestination(*req.Destination)
		if !ok {
			http.Error(w, "unknown destination", http.StatusBadRequest)
			return
		}
		if d != current.Destination {
			current.Destination = d
			relocate = true
		}
	}
	if req.Order != nil {
		current.Order = *req.Order
		relocate = false
	}

	updated, err := h.Repo.UpdateProcessedThought(current, relocate)
	if err != nil {
		http.Error(w, "failed to update processed thought: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if updated == nil {
		http.Error(w, "processed thought not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// HandleDeleteProcessedThought handles DELETE /processed-thoughts/{id}
func (h *Handler) HandleDeleteProcessedThought(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDPath(w, r)
	if !ok {
		return
	}
	deleted, err := h.Repo.DeleteProcessedThought(id)
	if err != nil {
		http.Error(w, "failed to delete processed thought: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if !deleted {
		http.Error(w, "processed thought not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// HandleReorderProcessedThoughts handles POST /processed-thoughts/reorder.
// Ids that do not resolve within the destination are skipped, not errors.
func (h *Handler) HandleReorderProcessedThoughts(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	dest, ok := thought.ParseDestination(req.Destination)
	if !ok {
		http.Error(w, "unknown destination", http.StatusBadRequest)
		return
	}

	updated, err := h.Repo.ReorderProcessedThoughts(dest, req.IDs)
	if err != nil {
		http.Error(w, "failed to reorder: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"processed_thoughts": updated})
}

// HandleCreateDocument handles POST /documents
func (h *Handler) HandleCreateDocument(w http.ResponseWriter, r *http.Request) {
	var req createDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	label := strings.TrimSpace(req.Label)
	if label == "" {
		http.Error(w, "label is required", http.StatusBadRequest)
		return
	}

	doc, err := h.Repo.InsertDocument(label, req.ThoughtIDs, time.Now().UTC())
	if err != nil {
		http.Error(w, "failed to create document: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if doc == nil {
		http.Error(w, "no processed thoughts found for given ids", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

// HandleListDocuments handles GET /documents
func (h *Handler) HandleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.Repo.ListDocuments()
	if err != nil {
		http.Error(w, "failed to list documents: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"documents": docs})
}

// HandleExportDocument handles POST /documents/{id}/export
func (h *Handler) HandleExportDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDPath(w, r)
	if !ok {
		return
	}
	if h.Exporter == nil {
		http.Error(w, "export is not configured", http.StatusServiceUnavailable)
		return
	}
	doc, err := h.Repo.GetDocument(id)
	if err != nil {
		http.Error(w, "failed to load document: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if doc == nil {
		http.Error(w, "document not found", http.StatusNotFound)
		return
	}

	filename, err := h.Exporter.ExportDocument(doc)
	if err != nil {
		http.Error(w, "failed to export document: "+err.Error(), http.StatusInternalServerError)
		return
	}

	if h.Git != nil {
		go func() {
			if err := h.Git.Sync("Export document: " + doc.Label); err != nil {
				log.Printf("git sync failed: %v", err)
			}
		}()
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "exported", "file": filename})
}

// HandleListDestinations handles GET /destinations
func (h *Handler) HandleListDestinations(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(thought.Destinations()))
	for _, d := range thought.Destinations() {
		names = append(names, d.Display())
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"destinations": names})
}

func parseIDPath(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := r.PathValue("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
