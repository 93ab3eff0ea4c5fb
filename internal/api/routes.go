package api

import (
	"net/http"

	"github.com/JaimeStill/moodmap/internal/config"
	"github.com/JaimeStill/moodmap/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
	runtime *Runtime,
	guard func(http.Handler) http.Handler,
) error {
	spec, err := serveSpec(cfg)
	if err != nil {
		return err
	}

	models := newModelsHandler(
		runtime.Storage,
		domain.Archive,
		runtime.Logger,
		cfg.Storage.MaxListSize,
	)

	routes.Register(
		mux,
		domain.Categories.Handler().Routes(),
		domain.Corpus.Handler(cfg.API.MaxUploadSizeBytes()).Routes(guard),
		domain.Assignments.Handler().Routes(),
		domain.Runs.Handler().Routes(guard),
		models.routes(),
		routes.Group{
			Routes: []routes.Route{
				{Method: "GET", Pattern: "/openapi.json", Handler: spec},
			},
		},
	)
	return nil
}
