package semanticmodel

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dampiermike/cortex-chat/backend/internal/model/semanticmodel"
	"github.com/dampiermike/cortex-chat/backend/pkg/utils"
)

// Handler lists the semantic models a session can bind to.
type Handler struct {
	models semanticmodel.Store
}

// New creates a semantic model handler.
func New(models semanticmodel.Store) *Handler {
	return &Handler{models: models}
}

// RegisterRoutes registers the semantic model routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/models", h.handleListModels)
}

func (h *Handler) handleListModels(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.models.List())
}
