package api

import (
	"net/http"

	"github.com/mklimuk/thoughtflow/pkg/capture"
	"github.com/mklimuk/thoughtflow/pkg/db"
	"github.com/mklimuk/thoughtflow/pkg/export"
	"github.com/mklimuk/thoughtflow/pkg/sync"
)

// NewRouter creates a new HTTP router
func NewRouter(repo *db.Repository, svc *capture.Service, exporter *export.Exporter, gitManager *sync.GitManager) *http.ServeMux {
	mux := http.NewServeMux()

	h := &Handler{
		Repo:     repo,
		Capture:  svc,
		Exporter: exporter,
		Git:      gitManager,
	}

	mux.HandleFunc("POST /thoughts", h.HandleCreateThought)
	mux.HandleFunc("GET /thoughts", h.HandleListThoughts)
	mux.HandleFunc("GET /processed-thoughts", h.HandleListProcessedThoughts)
	mux.HandleFunc("PATCH /processed-thoughts/{id}", h.HandleUpdateProcessedThought)
	mux.HandleFunc("DELETE /processed-thoughts/{id}", h.HandleDeleteProcessedThought)
	mux.HandleFunc("POST /processed-thoughts/reorder", h.HandleReorderProcessedThoughts)
	mux.HandleFunc("POST /documents", h.HandleCreateDocument)
	mux.HandleFunc("GET /documents", h.HandleListDocuments)
	mux.HandleFunc("POST /documents/{id}/export", h.HandleExportDocument)
	mux.HandleFunc("GET /destinations", h.HandleListDestinations)

	return mux
}
