// Package router assembles the HTTP surface.
package router

import (
	"context"
	"net/http"
	"time"

	"ms-eventhub/internal/analytics/analytics_api"
	"ms-eventhub/internal/auth"
	"ms-eventhub/internal/category/category_api"
	"ms-eventhub/internal/event/event_api"
	"ms-eventhub/internal/logger"
	"ms-eventhub/internal/metrics"
	"ms-eventhub/internal/order/order_api"
	"ms-eventhub/internal/sse"
	"ms-eventhub/internal/user/user_api"
	"ms-eventhub/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Pinger reports store health for /healthz.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Handlers struct {
	Categories    *category_api.Handler
	Events        *event_api.Handler
	Orders        *order_api.Handler
	Users         *user_api.Handler
	OrderStream   *sse.Handler
	Sales         *analytics_api.Handler
	ClerkWebhook  http.Handler
	StripeWebhook http.Handler
	Metrics       http.Handler

	// AllowedOrigins are the presentation-layer origins allowed to call the
	// API from a browser. Empty disables CORS headers.
	AllowedOrigins []string
}

func New(h Handlers, verifier auth.TokenVerifier, db Pinger, log *logger.Logger) http.Handler {
	if log == nil {
		log = logger.Discard()
	}
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Recover(log))
	r.Use(AccessLog(log))
	r.Use(metrics.Middleware)
	if len(h.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Authorization", "Content-Type", RequestIDHeader},
			ExposedHeaders:   []string{RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/healthz", health(db))
	if h.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		// Signed deliveries authenticate themselves.
		r.Method(http.MethodPost, "/webhook/clerk", h.ClerkWebhook)
		r.Method(http.MethodPost, "/webhook/stripe", h.StripeWebhook)

		r.Get("/categories", h.Categories.ListCategories)
		r.Get("/events", h.Events.ListEvents)
		r.Get("/events/{id}", h.Events.GetEvent)
		r.Get("/events/{id}/related", h.Events.RelatedEvents)
		r.Get("/users/{id}", h.Users.GetUser)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(verifier, log))

			r.Post("/categories", h.Categories.CreateCategory)

			r.Post("/events", h.Events.CreateEvent)
			r.Put("/events/{id}", h.Events.UpdateEvent)
			r.Delete("/events/{id}", h.Events.DeleteEvent)
			r.Get("/events/{id}/orders", h.Orders.EventOrders)
			if h.OrderStream != nil {
				r.Get("/events/{id}/orders/stream", h.OrderStream.EventOrders)
			}

			r.Get("/me/events", h.Events.MyEvents)
			r.Get("/me/orders", h.Orders.MyOrders)
			if h.Sales != nil {
				r.Get("/me/sales", h.Sales.MySales)
			}

			r.Post("/orders/checkout", h.Orders.Checkout)
			r.Get("/orders/{id}/ticket", h.Orders.Ticket)
		})
	})
	return r
}

func health(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			utils.WriteJSON(w, http.StatusServiceUnavailable, utils.ErrorResponse("unhealthy", "database unreachable"))
			return
		}
		utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("ok", nil))
	}
}
