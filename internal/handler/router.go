package handler

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	analysisHandler "github.com/legallink/backend/internal/handler/analysis"
	chatHandler "github.com/legallink/backend/internal/handler/chat"
	streamHandler "github.com/legallink/backend/internal/handler/stream"
	wsHandler "github.com/legallink/backend/internal/handler/ws"
	middlewarePkg "github.com/legallink/backend/internal/middleware"
	"github.com/legallink/backend/internal/service/history"
	"github.com/legallink/backend/internal/service/ingest"
	"github.com/legallink/backend/internal/service/rag"
	"github.com/legallink/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services. indexReady feeds the
// health endpoint so load balancers can hold traffic until the corpus
// is indexed.
func NewRouter(ctrl *rag.Controller, store history.Store, ingestSvc *ingest.Service, indexReady func() bool) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"status":     "ok",
			"indexReady": indexReady(),
		})
	})
	r.Handle("/metrics", promhttp.Handler())

	sseHandler := streamHandler.New(ctrl)

	r.Route("/api", func(api chi.Router) {
		chatHandler.New(ctrl, store).RegisterRoutes(api)
		analysisHandler.New(ingestSvc).RegisterRoutes(api)
		wsHandler.New(ctrl).RegisterRoutes(api)

		api.Get("/stream/{sessionID}", func(w http.ResponseWriter, r *http.Request) {
			sessionID := chi.URLParam(r, "sessionID")
			userMessage := r.URL.Query().Get("message")

			if userMessage == "" {
				utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
				return
			}

			if err := sseHandler.HandleStreamRequest(r.Context(), w, sessionID, userMessage); err != nil {
				log.Printf("[stream] error handling request: %v", err)
			}
		})
	})

	return r
}
