package event_api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"ms-eventhub/internal/apperr"
	"ms-eventhub/internal/auth"
	"ms-eventhub/internal/logger"
	"ms-eventhub/internal/models"
	"ms-eventhub/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Service interface {
	GetEventByID(ctx context.Context, id string) (*models.Event, error)
	CreateEvent(ctx context.Context, actingID string, in models.EventInput, path string) (*models.Event, error)
	UpdateEvent(ctx context.Context, actingID, eventID string, in models.EventInput, path string) (*models.Event, error)
	DeleteEvent(ctx context.Context, actingID, eventID, path string) (bool, error)
	ListAllEvents(ctx context.Context, query, category string, page, pageSize int) (*models.EventPage, error)
	ListEventsByOrganizer(ctx context.Context, actingID string, page, pageSize int) (*models.EventPage, error)
	ListRelatedEventsByCategory(ctx context.Context, categoryID, excludeEventID string, page, pageSize int) (*models.EventPage, error)
}

type Handler struct {
	Service Service
	Logger  *logger.Logger
}

func NewHandler(s Service, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Discard()
	}
	return &Handler{Service: s, Logger: log}
}

type eventRequest struct {
	Event models.EventInput `json:"event"`
	Path  string            `json:"path"`
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.Service.ListAllEvents(r.Context(), q.Get("query"), q.Get("category"), intParam(q.Get("page")), intParam(q.Get("limit")))
	h.writePage(w, "ListEvents", page, err)
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	e, err := h.Service.GetEventByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, e)
}

// RelatedEvents lists other events in the same category as {id}.
func (h *Handler) RelatedEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	e, err := h.Service.GetEventByID(r.Context(), id)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	if e.CategoryID == nil {
		utils.WriteJSON(w, http.StatusOK, models.EventPage{Data: []models.Event{}})
		return
	}

	q := r.URL.Query()
	page, err := h.Service.ListRelatedEventsByCategory(r.Context(), *e.CategoryID, id, intParam(q.Get("page")), intParam(q.Get("limit")))
	h.writePage(w, "RelatedEvents", page, err)
}

func (h *Handler) MyEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.Service.ListEventsByOrganizer(r.Context(), auth.UserID(r.Context()), intParam(q.Get("page")), intParam(q.Get("limit")))
	h.writePage(w, "MyEvents", page, err)
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateEvent: failed to decode request body: %v", err))
		utils.WriteError(w, apperr.Invalid("invalid request body"))
		return
	}

	e, err := h.Service.CreateEvent(r.Context(), auth.UserID(r.Context()), req.Event, req.Path)
	if err != nil {
		h.Logger.Warn("API", fmt.Sprintf("CreateEvent: %v", err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, e)
}

func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateEvent: failed to decode request body: %v", err))
		utils.WriteError(w, apperr.Invalid("invalid request body"))
		return
	}

	e, err := h.Service.UpdateEvent(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "id"), req.Event, req.Path)
	if err != nil {
		h.Logger.Warn("API", fmt.Sprintf("UpdateEvent: %v", err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, e)
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.Service.DeleteEvent(r.Context(), auth.UserID(r.Context()), id, r.URL.Query().Get("path")); err != nil {
		h.Logger.Warn("API", fmt.Sprintf("DeleteEvent %s: %v", id, err))
		utils.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writePage renders a listing. A transient store failure shows as an empty
// page instead of an error.
func (h *Handler) writePage(w http.ResponseWriter, op string, page *models.EventPage, err error) {
	if err != nil {
		if !apperr.IsTransient(err) {
			utils.WriteError(w, err)
			return
		}
		h.Logger.Warn("API", fmt.Sprintf("%s: degrading to empty page: %v", op, err))
		page = &models.EventPage{Data: []models.Event{}}
	}
	utils.WriteJSON(w, http.StatusOK, page)
}

func intParam(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
