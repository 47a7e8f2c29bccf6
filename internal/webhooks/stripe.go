package webhooks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"ms-eventhub/internal/apperr"
	"ms-eventhub/internal/logger"
	"ms-eventhub/internal/metrics"
	"ms-eventhub/internal/models"
	"ms-eventhub/internal/utils"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

type OrderActions interface {
	CreateOrder(ctx context.Context, p models.OrderParams) (*models.Order, error)
}

type StripeHandler struct {
	Orders OrderActions
	Secret string
	Logger *logger.Logger
}

func NewStripeHandler(orders OrderActions, secret string, log *logger.Logger) *StripeHandler {
	if log == nil {
		log = logger.Discard()
	}
	return &StripeHandler{Orders: orders, Secret: secret, Logger: log}
}

func (h *StripeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	evtType, body, werr := h.process(w, r)
	if werr != nil {
		h.Logger.Error("WEBHOOK", fmt.Sprintf("[stripe] %s %s: %s", evtType, werr.Category, werr.InternalError))
		metrics.ObserveWebhook("stripe", evtType, werr.Category)
		writeWebhookError(w, werr)
		return
	}
	metrics.ObserveWebhook("stripe", evtType, "ok")
	utils.WriteJSON(w, http.StatusOK, body)
}

func (h *StripeHandler) process(w http.ResponseWriter, r *http.Request) (string, ack, *WebhookError) {
	if h.Secret == "" {
		return "", ack{}, configurationErr("STRIPE_WEBHOOK_SECRET is not configured")
	}

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
	if err != nil {
		return "", ack{}, validationErr("Invalid webhook payload", err)
	}

	event, err := webhook.ConstructEventWithOptions(payload, r.Header.Get("Stripe-Signature"), h.Secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return "", ack{}, validationErr("Webhook signature verification failed", err)
	}
	evtType := string(event.Type)
	h.Logger.LogWebhook("stripe", evtType, "received "+event.ID)

	if event.Type != stripe.EventTypeCheckoutSessionCompleted {
		return evtType, ack{Message: "Event processed", Type: evtType}, nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return evtType, ack{}, validationErr("Invalid event data", err)
	}

	eventID, buyerID := session.Metadata["eventId"], session.Metadata["buyerId"]
	if eventID == "" || buyerID == "" {
		return evtType, ack{}, validationErr("Missing required metadata: eventId or buyerId", apperr.ErrMissingMetadata)
	}
	if !models.ValidID(eventID) {
		return evtType, ack{}, validationErr("Invalid eventId format", nil)
	}

	order, err := h.Orders.CreateOrder(r.Context(), models.OrderParams{
		StripeID:        session.ID,
		EventID:         eventID,
		BuyerExternalID: buyerID,
		TotalAmount:     utils.FormatMinorUnits(session.AmountTotal),
		CreatedAt:       utils.UnixTimeToTime(session.Created),
	})
	if errors.Is(err, apperr.ErrDuplicateOrder) {
		h.Logger.LogWebhook("stripe", evtType, "already processed "+session.ID)
		return evtType, ack{Message: "already processed", Type: evtType}, nil
	}
	if err != nil {
		return evtType, ack{}, processingErr("create order", err)
	}

	metrics.OrdersCreated.Inc()
	return evtType, ack{Message: "Order created successfully", Type: evtType, Data: order}, nil
}
