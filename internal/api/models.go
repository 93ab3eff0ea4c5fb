package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strconv"

	"github.com/JaimeStill/moodmap/internal/pipeline"
	"github.com/JaimeStill/moodmap/pkg/handlers"
	"github.com/JaimeStill/moodmap/pkg/routes"
	"github.com/JaimeStill/moodmap/pkg/storage"
)

// modelsHandler exposes archived model snapshots from blob storage.
type modelsHandler struct {
	store       storage.System
	archive     *pipeline.Archive
	logger      *slog.Logger
	maxListSize int32
}

func newModelsHandler(
	store storage.System,
	archive *pipeline.Archive,
	logger *slog.Logger,
	maxListSize int32,
) *modelsHandler {
	return &modelsHandler{
		store:       store,
		archive:     archive,
		logger:      logger.With("handler", "models"),
		maxListSize: maxListSize,
	}
}

func (h *modelsHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/models",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.list},
			{Method: "GET", Pattern: "/latest/{collection}", Handler: h.latest},
			{Method: "GET", Pattern: "/download/{key...}", Handler: h.download},
		},
	}
}

// list pages through snapshot blobs. ?collection= narrows to one collection.
func (h *modelsHandler) list(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("collection")
	marker := r.URL.Query().Get("marker")

	maxResults, err := storage.ParseMaxResults(
		r.URL.Query().Get("max_results"),
		h.maxListSize,
	)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	result, err := h.store.List(r.Context(), prefix, marker, maxResults)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

func (h *modelsHandler) latest(w http.ResponseWriter, r *http.Request) {
	snap, err := h.archive.Latest(r.Context(), r.PathValue("collection"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, pipeline.ErrNoModel) {
			status = http.StatusNotFound
		}
		handlers.RespondError(w, h.logger, status, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, snap)
}

func (h *modelsHandler) download(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	result, err := h.store.Download(r.Context(), key)
	if err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}
	defer result.Body.Close()

	w.Header().Set("Content-Type", result.ContentType)
	if result.ContentLength > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(result.ContentLength, 10))
	}
	w.Header().Set(
		"Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", path.Base(key)),
	)
	w.WriteHeader(http.StatusOK)
	io.Copy(w, result.Body)
}
