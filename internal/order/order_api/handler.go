package order_api

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
	ListOrdersByEvent(ctx context.Context, eventID, search string) ([]models.OrderItem, error)
	ListOrdersByUser(ctx context.Context, buyerExternalID string, page, pageSize int) (*models.OrderPage, error)
	Checkout(ctx context.Context, buyerExternalID, eventID string) (string, error)
	TicketQR(ctx context.Context, buyerExternalID, orderID string) ([]byte, error)
}

type Handler struct {
	OrderService Service
	Logger       *logger.Logger
}

func NewHandler(s Service, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Discard()
	}
	return &Handler{OrderService: s, Logger: log}
}

type checkoutRequest struct {
	EventID string `json:"eventId"`
}

type checkoutResponse struct {
	URL string `json:"url"`
}

// EventOrders lists the orders placed for {id}, optionally narrowed by buyer
// name.
func (h *Handler) EventOrders(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "id")
	items, err := h.OrderService.ListOrdersByEvent(r.Context(), eventID, r.URL.Query().Get("search"))
	if err != nil {
		if !apperr.IsTransient(err) {
			utils.WriteError(w, err)
			return
		}
		h.Logger.Warn("API", fmt.Sprintf("EventOrders %s: degrading to empty list: %v", eventID, err))
		items = []models.OrderItem{}
	}
	utils.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) MyOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.OrderService.ListOrdersByUser(r.Context(), auth.UserID(r.Context()), intParam(q.Get("page")), intParam(q.Get("limit")))
	if err != nil {
		if !apperr.IsTransient(err) {
			utils.WriteError(w, err)
			return
		}
		h.Logger.Warn("API", fmt.Sprintf("MyOrders: degrading to empty page: %v", err))
		page = &models.OrderPage{Data: []models.Order{}}
	}
	utils.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("Checkout: failed to decode request body: %v", err))
		utils.WriteError(w, apperr.Invalid("invalid request body"))
		return
	}
	if req.EventID == "" {
		utils.WriteError(w, apperr.Invalid("eventId is required"))
		return
	}

	url, err := h.OrderService.Checkout(r.Context(), auth.UserID(r.Context()), req.EventID)
	if err != nil {
		h.Logger.Warn("API", fmt.Sprintf("Checkout: %v", err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, checkoutResponse{URL: url})
}

// Ticket serves the order's QR code as a PNG.
func (h *Handler) Ticket(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	png, err := h.OrderService.TicketQR(r.Context(), auth.UserID(r.Context()), orderID)
	if err != nil {
		h.Logger.Warn("API", fmt.Sprintf("Ticket %s: %v", orderID, err))
		utils.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

func intParam(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
