package assignments

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/moodmap/pkg/handlers"
	"github.com/JaimeStill/moodmap/pkg/pagination"
	"github.com/JaimeStill/moodmap/pkg/routes"
)

var errCollectionRequired = errors.New("collection query parameter required")

// Handler provides read-only HTTP endpoints over assignment records.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// NewHandler creates a Handler with the given system, logger, and pagination config.
func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "assignments"),
		pagination: pagination,
	}
}

// Routes returns the route group definition for assignment endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/assignments",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/distribution", Handler: h.Distribution},
			{Method: "GET", Pattern: "/{documentId}", Handler: h.Find},
		},
	}
}

// List returns a paginated list of assignments with optional query parameter filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Find returns the assignment for a single document.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	rec, err := h.sys.Find(r.Context(), r.PathValue("documentId"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, rec)
}

// Distribution returns per-category document counts for a collection.
func (h *Handler) Distribution(w http.ResponseWriter, r *http.Request) {
	collection := r.URL.Query().Get("collection")
	if collection == "" {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errCollectionRequired)
		return
	}

	counts, err := h.sys.Distribution(r.Context(), collection)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, counts)
}
