package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"ms-eventhub/internal/auth"
	"ms-eventhub/internal/logger"
	"ms-eventhub/internal/models"
	"ms-eventhub/internal/utils"

	"github.com/go-chi/chi/v5"
)

const heartbeatInterval = 25 * time.Second

type OrganizerCheck interface {
	AuthorizeOrganizer(ctx context.Context, actingID, eventID string) (*models.Event, error)
}

type Handler struct {
	Stream    *OrderStream
	Events    OrganizerCheck
	Logger    *logger.Logger
	heartbeat time.Duration
}

func NewHandler(stream *OrderStream, events OrganizerCheck, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Discard()
	}
	return &Handler{Stream: stream, Events: events, Logger: log, heartbeat: heartbeatInterval}
}

// EventOrders streams orders for {id} as they are recorded. Only the event's
// organizer may listen.
func (h *Handler) EventOrders(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "id")
	if _, err := h.Events.AuthorizeOrganizer(r.Context(), auth.UserID(r.Context()), eventID); err != nil {
		utils.WriteError(w, err)
		return
	}

	rc := http.NewResponseController(w)
	// The stream outlives the server's write timeout.
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		h.Logger.Warn("SSE", fmt.Sprintf("orders stream of %s keeps the server write timeout: %v", eventID, err))
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	if err := rc.Flush(); err != nil {
		h.Logger.Error("SSE", fmt.Sprintf("orders stream of %s cannot flush: %v", eventID, err))
		return
	}

	items := h.Stream.Subscribe(r.Context(), eventID)
	h.Logger.Info("SSE", fmt.Sprintf("Client subscribed to orders of %s (%d listening)", eventID, h.Stream.ClientCount(eventID)))

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			h.Logger.Debug("SSE", fmt.Sprintf("Client left orders stream of %s", eventID))
			return
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			if rc.Flush() != nil {
				return
			}
		case item, ok := <-items:
			if !ok {
				return
			}
			data, err := json.Marshal(item)
			if err != nil {
				h.Logger.Error("SSE", fmt.Sprintf("marshal order %s: %v", item.OrderID, err))
				continue
			}
			fmt.Fprintf(w, "event: order\ndata: %s\n\n", data)
			if rc.Flush() != nil {
				return
			}
		}
	}
}
