package order

import (
	"context"
	"errors"
	"fmt"

	"ms-eventhub/internal/apperr"
	"ms-eventhub/internal/kafka"
	"ms-eventhub/internal/logger"
	"ms-eventhub/internal/models"
	orderdb "ms-eventhub/internal/order/db"
	"ms-eventhub/internal/utils"
)

const DefaultPageSize = 3

type DBLayer interface {
	CreateOrder(ctx context.Context, o *models.Order) error
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
	ListOrdersByEvent(ctx context.Context, eventID, buyerSearch string) ([]models.OrderItem, error)
	ListOrdersByBuyer(ctx context.Context, buyerID string, limit, offset int) ([]models.Order, int, error)
}

type UserLookup interface {
	GetUserByClerkID(ctx context.Context, clerkID string) (*models.User, error)
}

// EventLookup returns (nil, nil) for an unknown event.
type EventLookup interface {
	GetEventByID(ctx context.Context, id string) (*models.Event, error)
}

type Publisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// SessionLocker serialises concurrent deliveries of one checkout session.
type SessionLocker interface {
	Acquire(ctx context.Context, sessionID, owner string) (bool, error)
	Release(ctx context.Context, sessionID, owner string) error
}

// LiveFeed receives each order as it is recorded.
type LiveFeed interface {
	Publish(item models.OrderItem)
}

type TicketRenderer interface {
	Generate(order *models.Order) ([]byte, error)
}

type OrderService struct {
	DB       DBLayer
	Users    UserLookup
	Events   EventLookup
	Sessions CheckoutSessionCreator
	Tickets  TicketRenderer
	Kafka    Publisher
	Live     LiveFeed
	Locks    SessionLocker
	Logger   *logger.Logger

	AppURL   string
	Currency string
}

func NewOrderService(db DBLayer, users UserLookup, events EventLookup, sessions CheckoutSessionCreator, tickets TicketRenderer, pub Publisher, log *logger.Logger) *OrderService {
	if log == nil {
		log = logger.Discard()
	}
	return &OrderService{
		DB:       db,
		Users:    users,
		Events:   events,
		Sessions: sessions,
		Tickets:  tickets,
		Kafka:    pub,
		Logger:   log,
		AppURL:   "http://localhost:3000",
		Currency: "usd",
	}
}

// CreateOrder records a completed checkout session. A second call with the
// same StripeID yields ErrDuplicateOrder and leaves the first order intact.
func (s *OrderService) CreateOrder(ctx context.Context, p models.OrderParams) (*models.Order, error) {
	buyer, err := s.Users.GetUserByClerkID(ctx, p.BuyerExternalID)
	if err != nil {
		return nil, s.storeErr("lookup buyer", err)
	}
	if buyer == nil {
		return nil, apperr.ErrUserNotFound
	}
	if !models.ValidID(p.EventID) {
		return nil, apperr.ErrInvalidID
	}
	e, err := s.Events.GetEventByID(ctx, p.EventID)
	if err != nil {
		return nil, s.storeErr("lookup event", err)
	}
	if e == nil {
		return nil, apperr.ErrEventNotFound
	}

	o := &models.Order{
		ID:          models.NewID(),
		StripeID:    p.StripeID,
		TotalAmount: p.TotalAmount,
		CreatedAt:   p.CreatedAt.UTC(),
		EventID:     e.ID,
		BuyerID:     &buyer.ID,
	}
	if s.Locks != nil {
		held, err := s.Locks.Acquire(ctx, p.StripeID, o.ID)
		switch {
		case err != nil:
			s.Logger.Warn("ORDER", fmt.Sprintf("Session lock for %s unavailable, relying on the unique index: %v", p.StripeID, err))
		case !held:
			s.Logger.Info("ORDER", fmt.Sprintf("Session %s is being recorded by another delivery", p.StripeID))
			return nil, apperr.ErrSessionInFlight
		default:
			defer func() {
				if err := s.Locks.Release(context.WithoutCancel(ctx), p.StripeID, o.ID); err != nil {
					s.Logger.Warn("ORDER", fmt.Sprintf("Release session lock %s: %v", p.StripeID, err))
				}
			}()
		}
	}
	if err := s.DB.CreateOrder(ctx, o); err != nil {
		if errors.Is(err, orderdb.ErrDuplicate) {
			s.Logger.Info("ORDER", fmt.Sprintf("Order for session %s already recorded", p.StripeID))
			return nil, apperr.ErrDuplicateOrder
		}
		return nil, s.storeErr("create order", err)
	}
	s.Logger.Info("ORDER", fmt.Sprintf("Order created: id=%s event=%s buyer=%s amount=%s", o.ID, o.EventID, buyer.ID, o.TotalAmount))

	if err := s.Kafka.Publish(ctx, kafka.NewMessage(kafka.TypeOrderCreated, o.ID, o)); err != nil {
		s.Logger.Warn("ORDER", fmt.Sprintf("Publish order.created for %s failed: %v", o.ID, err))
	}
	if s.Live != nil {
		s.Live.Publish(models.OrderItem{
			OrderID:     o.ID,
			TotalAmount: o.TotalAmount,
			CreatedAt:   o.CreatedAt,
			EventTitle:  e.Title,
			EventID:     e.ID,
			BuyerName:   buyer.FirstName + " " + buyer.LastName,
		})
	}
	return o, nil
}

// ListOrdersByEvent is lenient: a malformed or unknown event id gives an
// empty list.
func (s *OrderService) ListOrdersByEvent(ctx context.Context, eventID, search string) ([]models.OrderItem, error) {
	empty := []models.OrderItem{}
	if !models.ValidID(eventID) {
		s.Logger.Debug("ORDER", fmt.Sprintf("Invalid event id format: %q", eventID))
		return empty, nil
	}
	e, err := s.Events.GetEventByID(ctx, eventID)
	if err != nil {
		return nil, s.storeErr("lookup event", err)
	}
	if e == nil {
		return empty, nil
	}
	items, err := s.DB.ListOrdersByEvent(ctx, eventID, search)
	if err != nil {
		return nil, s.storeErr("list orders by event", err)
	}
	return items, nil
}

func (s *OrderService) ListOrdersByUser(ctx context.Context, buyerExternalID string, page, pageSize int) (*models.OrderPage, error) {
	buyer, err := s.Users.GetUserByClerkID(ctx, buyerExternalID)
	if err != nil {
		return nil, s.storeErr("lookup buyer", err)
	}
	if buyer == nil {
		return nil, apperr.ErrUserNotFound
	}
	_, size, skip := utils.Page(page, pageSize, DefaultPageSize)
	orders, count, err := s.DB.ListOrdersByBuyer(ctx, buyer.ID, size, skip)
	if err != nil {
		return nil, s.storeErr("list orders by user", err)
	}
	return &models.OrderPage{Data: orders, TotalPages: utils.TotalPages(count, size)}, nil
}

// Checkout opens a hosted checkout session for one ticket and returns
// the URL the buyer should be sent to.
func (s *OrderService) Checkout(ctx context.Context, buyerExternalID, eventID string) (string, error) {
	buyer, err := s.Users.GetUserByClerkID(ctx, buyerExternalID)
	if err != nil {
		return "", s.storeErr("lookup buyer", err)
	}
	if buyer == nil {
		return "", apperr.ErrUserNotFound
	}
	if !models.ValidID(eventID) {
		return "", apperr.ErrEventNotFound
	}
	e, err := s.Events.GetEventByID(ctx, eventID)
	if err != nil {
		return "", s.storeErr("lookup event", err)
	}
	if e == nil {
		return "", apperr.ErrEventNotFound
	}

	var amount int64
	if !e.IsFree && e.Price != "" {
		amount, err = utils.ParseMinorUnits(e.Price)
		if err != nil {
			return "", apperr.Invalid("event has an invalid price")
		}
	}

	url, err := s.Sessions.CreateCheckoutSession(ctx, CheckoutRequest{
		EventID:    e.ID,
		EventTitle: e.Title,
		BuyerID:    buyerExternalID,
		UnitAmount: amount,
		Currency:   s.Currency,
		SuccessURL: s.AppURL + "/profile",
		CancelURL:  s.AppURL + "/",
	})
	if err != nil {
		s.Logger.Error("PAYMENT", fmt.Sprintf("Checkout session for event %s failed: %v", e.ID, err))
		return "", apperr.TransientErr("create checkout session", err)
	}
	s.Logger.Info("PAYMENT", fmt.Sprintf("Checkout session opened for event %s by %s", e.ID, buyer.ID))
	return url, nil
}

// TicketQR renders the ticket for an order. Only its buyer may see it.
func (s *OrderService) TicketQR(ctx context.Context, buyerExternalID, orderID string) ([]byte, error) {
	buyer, err := s.Users.GetUserByClerkID(ctx, buyerExternalID)
	if err != nil {
		return nil, s.storeErr("lookup buyer", err)
	}
	if buyer == nil {
		return nil, apperr.ErrUnauthorized
	}
	if !models.ValidID(orderID) {
		return nil, apperr.ErrOrderNotFound
	}
	o, err := s.DB.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, s.storeErr("get order", err)
	}
	if o == nil {
		return nil, apperr.ErrOrderNotFound
	}
	if o.BuyerID == nil || *o.BuyerID != buyer.ID {
		s.Logger.LogSecurity("TICKET_ACCESS", fmt.Sprintf("user %s requested ticket of order %s", buyer.ID, orderID))
		return nil, apperr.ErrUnauthorized
	}

	png, err := s.Tickets.Generate(o)
	if err != nil {
		s.Logger.Error("ORDER", fmt.Sprintf("QR generation for order %s failed: %v", orderID, err))
		return nil, fmt.Errorf("generate ticket: %w", err)
	}
	return png, nil
}

func (s *OrderService) storeErr(op string, err error) error {
	s.Logger.Error("ORDER", fmt.Sprintf("%s: %v", op, err))
	return apperr.TransientErr(op, err)
}
