package corpus

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/moodmap/pkg/formatting"
	"github.com/JaimeStill/moodmap/pkg/handlers"
	"github.com/JaimeStill/moodmap/pkg/middleware"
	"github.com/JaimeStill/moodmap/pkg/pagination"
	"github.com/JaimeStill/moodmap/pkg/routes"
)

// Handler provides HTTP endpoints for browsing documents and managing
// their ground-truth labels.
type Handler struct {
	sys           System
	logger        *slog.Logger
	pagination    pagination.Config
	maxUploadSize int64
}

// ImportResult reports the outcome of a CSV import.
type ImportResult struct {
	Rows    int `json:"rows"`
	Dropped int `json:"dropped"`
	InsertResult
}

// NewHandler creates a Handler with the given system, logger, pagination config, and upload size limit.
func NewHandler(
	sys System,
	logger *slog.Logger,
	pagination pagination.Config,
	maxUploadSize int64,
) *Handler {
	return &Handler{
		sys:           sys,
		logger:        logger.With("handler", "documents"),
		pagination:    pagination,
		maxUploadSize: maxUploadSize,
	}
}

// Routes returns the route group for document endpoints. guard wraps the
// import and label mutation routes.
func (h *Handler) Routes(guard ...func(http.Handler) http.Handler) routes.Group {
	return routes.Group{
		Prefix: "/documents",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
		},
		Children: []routes.Group{
			{
				Prefix:     "/import",
				Middleware: guard,
				Routes: []routes.Route{
					{Method: "POST", Pattern: "", Handler: h.Import},
				},
			},
			{
				Prefix:     "/{id}/label",
				Middleware: guard,
				Routes: []routes.Route{
					{Method: "PUT", Pattern: "", Handler: h.SetLabel},
					{Method: "DELETE", Pattern: "", Handler: h.DeleteLabel},
				},
			},
		},
	}
}

// List returns a paginated list of documents with optional query parameter filters.
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

// Find returns a single document by id.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	doc, err := h.sys.Find(r.Context(), r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, doc)
}

// Import ingests a CSV export sent as the multipart field "file". The
// collection form value is required; encoding is "utf-8" or "latin1".
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		handlers.RespondError(
			w, h.logger,
			http.StatusRequestEntityTooLarge,
			fmt.Errorf("%w: limit %s", ErrFileTooLarge, formatting.FormatBytes(h.maxUploadSize, 0)),
		)
		return
	}

	collection := r.FormValue("collection")
	if collection == "" {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrNoCollection)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidCSV)
		return
	}
	defer file.Close()

	parsed, err := ReadCSV(file, CSVOptions{
		Collection: collection,
		Encoding:   r.FormValue("encoding"),
	})
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	inserted, err := h.sys.Insert(r.Context(), parsed.Documents)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, ImportResult{
		Rows:         parsed.Rows,
		Dropped:      parsed.Dropped,
		InsertResult: inserted,
	})
}

// SetLabel assigns a ground-truth category to a document. When the caller
// is authenticated and labeled_by is empty, the token subject is recorded.
func (h *Handler) SetLabel(w http.ResponseWriter, r *http.Request) {
	var cmd LabelCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidLabel)
		return
	}

	if cmd.LabeledBy == "" {
		if sub, ok := middleware.Subject(r.Context()); ok {
			cmd.LabeledBy = sub
		}
	}

	id := r.PathValue("id")
	if err := h.sys.SetLabel(r.Context(), id, cmd); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	doc, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, doc)
}

// DeleteLabel removes a document's ground-truth label.
func (h *Handler) DeleteLabel(w http.ResponseWriter, r *http.Request) {
	if err := h.sys.DeleteLabel(r.Context(), r.PathValue("id")); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusNoContent, nil)
}
