package order_api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ms-eventhub/internal/apperr"
	"ms-eventhub/internal/auth"
	"ms-eventhub/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) ListOrdersByEvent(ctx context.Context, eventID, search string) ([]models.OrderItem, error) {
	args := m.Called(ctx, eventID, search)
	items, _ := args.Get(0).([]models.OrderItem)
	return items, args.Error(1)
}

func (m *MockService) ListOrdersByUser(ctx context.Context, buyerExternalID string, page, pageSize int) (*models.OrderPage, error) {
	args := m.Called(ctx, buyerExternalID, page, pageSize)
	p, _ := args.Get(0).(*models.OrderPage)
	return p, args.Error(1)
}

func (m *MockService) Checkout(ctx context.Context, buyerExternalID, eventID string) (string, error) {
	args := m.Called(ctx, buyerExternalID, eventID)
	return args.String(0), args.Error(1)
}

func (m *MockService) TicketQR(ctx context.Context, buyerExternalID, orderID string) ([]byte, error) {
	args := m.Called(ctx, buyerExternalID, orderID)
	b, _ := args.Get(0).([]byte)
	return b, args.Error(1)
}

func router(s Service) http.Handler {
	h := NewHandler(s, nil)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), "user_bob")))
		})
	})
	r.Get("/api/events/{id}/orders", h.EventOrders)
	r.Get("/api/me/orders", h.MyOrders)
	r.Post("/api/orders/checkout", h.Checkout)
	r.Get("/api/orders/{id}/ticket", h.Ticket)
	return r
}

func serve(s Service, method, target, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router(s).ServeHTTP(rec, httptest.NewRequest(method, target, strings.NewReader(body)))
	return rec
}

func TestEventOrders(t *testing.T) {
	s := new(MockService)
	s.On("ListOrdersByEvent", mock.Anything, "e1", "alice").
		Return([]models.OrderItem{{OrderID: "o1", EventID: "e1", EventTitle: "Tango", BuyerName: "Alice Smith", TotalAmount: "10"}}, nil)

	rec := serve(s, http.MethodGet, "/api/events/e1/orders?search=alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"buyerName":"Alice Smith"`)
	assert.Contains(t, rec.Body.String(), `"orderId":"o1"`)
}

func TestEventOrders_DegradesOnTransientError(t *testing.T) {
	s := new(MockService)
	s.On("ListOrdersByEvent", mock.Anything, "e1", "").Return(nil, apperr.TransientErr("list", errors.New("down")))

	rec := serve(s, http.MethodGet, "/api/events/e1/orders", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestMyOrders_UsesCaller(t *testing.T) {
	s := new(MockService)
	s.On("ListOrdersByUser", mock.Anything, "user_bob", 2, 0).Return(&models.OrderPage{Data: []models.Order{{ID: "o1"}}, TotalPages: 2}, nil)

	rec := serve(s, http.MethodGet, "/api/me/orders?page=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"totalPages":2`)

	s2 := new(MockService)
	s2.On("ListOrdersByUser", mock.Anything, "user_bob", 0, 0).Return(nil, apperr.ErrUserNotFound)
	rec = serve(s2, http.MethodGet, "/api/me/orders", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCheckout(t *testing.T) {
	s := new(MockService)
	s.On("Checkout", mock.Anything, "user_bob", "e1").Return("https://checkout.stripe.com/c/pay/cs_1", nil)

	rec := serve(s, http.MethodPost, "/api/orders/checkout", `{"eventId":"e1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"url":"https://checkout.stripe.com/c/pay/cs_1"}`, rec.Body.String())
}

func TestCheckout_BadBody(t *testing.T) {
	s := new(MockService)

	assert.Equal(t, http.StatusBadRequest, serve(s, http.MethodPost, "/api/orders/checkout", `{`).Code)
	assert.Equal(t, http.StatusBadRequest, serve(s, http.MethodPost, "/api/orders/checkout", `{}`).Code)
	s.AssertNotCalled(t, "Checkout", mock.Anything, mock.Anything, mock.Anything)
}

func TestTicket(t *testing.T) {
	s := new(MockService)
	s.On("TicketQR", mock.Anything, "user_bob", "o1").Return([]byte("\x89PNG"), nil)
	s.On("TicketQR", mock.Anything, "user_bob", "o2").Return(nil, apperr.ErrUnauthorized)

	rec := serve(s, http.MethodGet, "/api/orders/o1/ticket", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "\x89PNG", rec.Body.String())

	rec = serve(s, http.MethodGet, "/api/orders/o2/ticket", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
