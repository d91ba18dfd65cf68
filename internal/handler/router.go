package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/dampiermike/cortex-chat/backend/internal/handler/events"
	"github.com/dampiermike/cortex-chat/backend/internal/handler/session"
	semanticmodelHandler "github.com/dampiermike/cortex-chat/backend/internal/handler/semanticmodel"
	middlewarePkg "github.com/dampiermike/cortex-chat/backend/internal/middleware"
	semanticmodelStore "github.com/dampiermike/cortex-chat/backend/internal/model/semanticmodel"
	conversationService "github.com/dampiermike/cortex-chat/backend/internal/service/conversation"
	"github.com/dampiermike/cortex-chat/backend/internal/service/warehouse"
	"github.com/dampiermike/cortex-chat/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(models semanticmodelStore.Store, convSvc *conversationService.Service, warehouseClient *warehouse.Client) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	modelHandler := semanticmodelHandler.New(models)
	sessionHandler := session.New(convSvc, models)
	eventsHandler := events.New(convSvc)

	r.Route("/api", func(api chi.Router) {
		modelHandler.RegisterRoutes(api)
		sessionHandler.RegisterRoutes(api)
		eventsHandler.RegisterRoutes(api)

		// Connectivity probe against the warehouse, kept from the original
		// deployment checks.
		api.Get("/warehouse/ping", func(w http.ResponseWriter, r *http.Request) {
			if warehouseClient == nil {
				utils.RespondError(w, http.StatusServiceUnavailable, "warehouse unavailable")
				return
			}

			result, err := warehouseClient.Ping(r.Context())
			if err != nil {
				logrus.WithError(err).Warn("warehouse ping failed")
				utils.RespondError(w, http.StatusBadGateway, err.Error())
				return
			}

			utils.RespondJSON(w, http.StatusOK, map[string]any{
				"message": "successfully connected to the warehouse",
				"result":  result,
			})
		})
	})

	return r
}
