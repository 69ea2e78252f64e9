package stream

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	chatService "github.com/zhouzirui/threebody-chat/internal/service/chat"
	"github.com/zhouzirui/threebody-chat/pkg/utils"
)

// heartbeatInterval keeps idle proxies from closing the feed.
const heartbeatInterval = 15 * time.Second

// Handler streams conversation events via Server-Sent Events
type Handler struct {
	chatSvc   *chatService.Service
	heartbeat time.Duration
}

// New creates a new stream handler
func New(chatSvc *chatService.Service) *Handler {
	return &Handler{
		chatSvc:   chatSvc,
		heartbeat: heartbeatInterval,
	}
}

// RegisterRoutes mounts the event feed.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/session/{sessionID}/events", h.handleEvents)
}

// handleEvents sends the current snapshot, then every event of the session
// until the client goes away or the session is deleted.
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	events, cancel, err := h.chatSvc.Subscribe(sessionID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, chatService.ErrSessionNotFound) {
			status = http.StatusNotFound
		}
		utils.RespondError(w, status, err.Error())
		return
	}
	defer cancel()

	session, err := h.chatSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	ctx := r.Context()
	log.Printf("[sse] opening event stream for session=%s", sessionID)

	if err := utils.SendSSEEvent(w, flusher, "snapshot", session); err != nil {
		log.Printf("[sse] %v", err)
		return
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("[sse] closing event stream for session=%s", sessionID)
			return
		case ev, ok := <-events:
			if !ok {
				_ = utils.SendSSEEvent(w, flusher, "closed", map[string]string{"sessionId": sessionID})
				log.Printf("[sse] session=%s deleted, closing stream", sessionID)
				return
			}
			if err := utils.SendSSEEvent(w, flusher, string(ev.Type), ev); err != nil {
				log.Printf("[sse] %v", err)
				return
			}
		case <-ticker.C:
			if err := utils.SendSSEComment(w, flusher, "heartbeat"); err != nil {
				log.Printf("[sse] %v", err)
				return
			}
		}
	}
}
