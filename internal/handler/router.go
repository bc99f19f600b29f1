package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter registers every route on a chi router.
func NewRouter(d *Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(recoverer(d.Log))
	r.Use(requestLogger(d.Log))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Get("/kinds", d.HandleListKinds)
		r.Get("/kinds/{kind}", d.HandleGetKind)

		r.Post("/sessions", d.HandleCreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", d.HandleGetSession)
			r.Delete("/", d.HandleDeleteSession)
			r.Get("/watch", d.HandleWatchSession)
			r.Post("/create", d.HandleStartCreate)
			r.Post("/edit", d.HandleStartEdit)
			r.Post("/kind", d.HandleSetKind)
			r.Post("/asset", d.HandleSetAsset)
			r.Post("/field", d.HandleSetField)
			r.Post("/cancel", d.HandleCancel)
			r.Post("/submit", d.HandleSubmit)
			r.Post("/suggest", d.HandleSuggest)
			r.Post("/upload", d.HandleSessionUpload)
		})

		r.Delete("/transactions/{id}", d.HandleDeleteTransaction)
		r.Post("/upload", d.HandleUpload)
	})

	// Azure Functions custom-handler triggers.
	r.Post("/HttpTrigger", d.HandleHttpTrigger(r))
	r.Post("/ProcessImport", d.ProcessImport)
	r.Post("/MaintenanceTrigger", d.HandleMaintenanceTrigger)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		log := d.log(r)
		log.Warn().Str("method", r.Method).Str("path", r.URL.Path).Msg("unmatched request")
		WriteError(w, http.StatusNotFound, "not found")
	})
	return r
}
