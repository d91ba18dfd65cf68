package session

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dampiermike/cortex-chat/backend/internal/model/semanticmodel"
	conversationService "github.com/dampiermike/cortex-chat/backend/internal/service/conversation"
	"github.com/dampiermike/cortex-chat/backend/pkg/utils"
)

// Handler exposes the conversation service over HTTP.
type Handler struct {
	convSvc *conversationService.Service
	models  semanticmodel.Store
}

// New creates a session handler.
func New(convSvc *conversationService.Service, models semanticmodel.Store) *Handler {
	return &Handler{convSvc: convSvc, models: models}
}

// RegisterRoutes registers the session routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleCreateSession)
	r.Get("/session/{sessionID}", h.handleGetSession)
	r.Post("/session/{sessionID}/messages", h.handleSubmit)
	r.Post("/session/{sessionID}/suggestions", h.handleSuggestion)
	r.Get("/session/{sessionID}/transcript", h.handleTranscript)
	r.Post("/session/{sessionID}/reset", h.handleReset)
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SemanticModelID string `json:"semanticModelId"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if payload.SemanticModelID == "" {
		utils.RespondError(w, http.StatusBadRequest, "semanticModelId is required")
		return
	}

	model, ok := h.models.FindByID(payload.SemanticModelID)
	if !ok {
		utils.RespondError(w, http.StatusBadRequest, "semantic model not found")
		return
	}

	session, err := h.convSvc.CreateSession(r.Context(), model.Path)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusCreated, session)
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.convSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}

	busy, _ := h.convSvc.Busy(sessionID)
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"session": session,
		"busy":    busy,
	})
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text string `json:"text"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.submit(w, r, payload.Text)
}

// handleSuggestion re-enters the dispatcher exactly as if the selected
// option had been typed and submitted.
func (h *Handler) handleSuggestion(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Option string `json:"option"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.submit(w, r, payload.Option)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request, text string) {
	sessionID := chi.URLParam(r, "sessionID")

	index, err := h.convSvc.Submit(r.Context(), sessionID, text)
	if err != nil {
		switch {
		case errors.Is(err, conversationService.ErrSessionNotFound):
			utils.RespondError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, conversationService.ErrEmptyInput):
			utils.RespondError(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, conversationService.ErrBusy):
			utils.RespondError(w, http.StatusConflict, err.Error())
		default:
			utils.RespondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	transcript, err := h.convSvc.Transcript(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"analystTurnIndex": index,
		"transcript":       transcript,
	})
}

func (h *Handler) handleTranscript(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	transcript, err := h.convSvc.Transcript(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{"transcript": transcript})
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if err := h.convSvc.Reset(r.Context(), sessionID); err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}
