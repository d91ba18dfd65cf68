package events

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	conversationService "github.com/dampiermike/cortex-chat/backend/internal/service/conversation"
	"github.com/dampiermike/cortex-chat/backend/pkg/utils"
)

// Handler pushes query outcome transitions to renderers over WebSocket so
// they do not have to poll the transcript while a query executes.
type Handler struct {
	convSvc  *conversationService.Service
	upgrader websocket.Upgrader
}

// New creates a WebSocket events handler.
func New(convSvc *conversationService.Service) *Handler {
	return &Handler{
		convSvc: convSvc,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes registers the events route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/session/{sessionID}/events", h.handleEvents)
}

func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	events, cancel, err := h.convSvc.Subscribe(sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		cancel()
		logrus.WithError(err).Warn("websocket upgrade failed")
		return
	}

	logrus.WithField("session", sessionID).Info("events stream opened")

	// Reads are only consumed to detect the client going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	defer func() {
		cancel()
		conn.Close()
		logrus.WithField("session", sessionID).Info("events stream closed")
	}()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				logrus.WithError(err).Warn("failed to write event")
				return
			}
		}
	}
}
