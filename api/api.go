package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"hermannm.dev/widgets/db"
)

type WidgetAPI struct {
	executor   db.QueryExecutor
	store      db.ReportStore
	statements db.StatementLibrary
	sessions   *sessionRegistry
	router     chi.Router
	config     Config
}

type Config struct {
	Port string
}

func NewWidgetAPI(
	executor db.QueryExecutor,
	store db.ReportStore,
	statements db.StatementLibrary,
	config Config,
) WidgetAPI {
	api := WidgetAPI{
		executor:   executor,
		store:      store,
		statements: statements,
		sessions:   newSessionRegistry(),
		router:     chi.NewRouter(),
		config:     config,
	}

	api.router.Route("/sessions", func(router chi.Router) {
		router.Post("/", api.CreateSession)
		router.Route("/{sessionID}", func(router chi.Router) {
			router.Get("/", api.GetSession)
			router.Delete("/", api.DiscardSession)
			router.Put("/statement", api.SelectStatement)
			router.Put("/sql", api.SetSQL)
			router.Post("/sql/inline", api.UseInlineSQL)
			router.Post("/sql/resync", api.ResyncSQL)
			router.Post("/run", api.RunQuery)
			router.Put("/visualization", api.SetVisualization)
			router.Put("/name", api.SetName)
			router.Post("/next", api.NextStep)
			router.Post("/back", api.PreviousStep)
			router.Post("/goto", api.GoToStep)
			router.Post("/apply", api.ApplyStep)
			router.Post("/finish", api.FinishReport)
			router.Get("/preview", api.GetPreview)
			router.Get("/export", api.ExportSession)
		})
	})

	api.router.Route("/reports", func(router chi.Router) {
		router.Get("/", api.ListReports)
		router.Get("/{reportID}", api.GetReport)
		router.Delete("/{reportID}", api.DeleteReport)
		router.Get("/{reportID}/export", api.ExportReport)
	})

	api.router.Route("/statements", func(router chi.Router) {
		router.Get("/", api.ListStatements)
		router.Post("/", api.CreateStatement)
	})

	return api
}

func (api WidgetAPI) Handler() http.Handler {
	return api.router
}

func (api WidgetAPI) ListenAndServe() error {
	return http.ListenAndServe(fmt.Sprintf(":%s", api.config.Port), api.router)
}
