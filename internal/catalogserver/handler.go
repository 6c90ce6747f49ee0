package catalogserver

import (
	"encoding/json"
	"net/http"

	"github.com/andresuchdata/quotemanager/internal/backend"
	"github.com/andresuchdata/quotemanager/internal/catalog"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

// Handler serves catalog rows in the script backend's wire format, so the API
// and CLI can run against a local workbook, bucket or database.
type Handler struct {
	source catalog.Source
}

func NewHandler(source catalog.Source) *Handler {
	return &Handler{source: source}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/exec", h.Exec).Methods(http.MethodGet)
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
}

// Exec answers ?action=getMaterials|getProducts with a JSON array of rows.
// ?envelope=1 wraps the rows as {"data": [...]}.
func (h *Handler) Exec(w http.ResponseWriter, r *http.Request) {
	action := r.URL.Query().Get("action")

	var (
		rows [][]any
		err  error
	)
	switch action {
	case backend.ActionMaterials:
		rows, err = h.source.MaterialRows(r.Context())
	case backend.ActionProducts:
		rows, err = h.source.ProductRows(r.Context())
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown action: " + action})
		return
	}
	if err != nil {
		log.Error().Err(err).Str("action", action).Str("source", h.source.Name()).Msg("catalogd: fetch failed")
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	if rows == nil {
		rows = [][]any{}
	}

	if r.URL.Query().Get("envelope") == "1" {
		writeJSON(w, http.StatusOK, map[string]any{"data": rows})
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "source": h.source.Name()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("catalogd: write response failed")
	}
}
