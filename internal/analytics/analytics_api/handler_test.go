package analytics_api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"ms-eventhub/internal/apperr"
	"ms-eventhub/internal/auth"
	"ms-eventhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) OrganizerSales(ctx context.Context, actingID string) (*models.SalesSummary, error) {
	args := m.Called(ctx, actingID)
	s, _ := args.Get(0).(*models.SalesSummary)
	return s, args.Error(1)
}

func get(h *Handler, user string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/me/sales", nil)
	req = req.WithContext(auth.WithUserID(req.Context(), user))
	rec := httptest.NewRecorder()
	h.MySales(rec, req)
	return rec
}

func TestMySales(t *testing.T) {
	svc := new(MockService)
	svc.On("OrganizerSales", mock.Anything, "user_olga").Return(&models.SalesSummary{
		TotalOrders:  2,
		TotalRevenue: "20",
		Events:       []models.EventSales{{EventID: "e1", Title: "Tango", Orders: 2, Revenue: "20"}},
		DailySales:   []models.DailySales{},
	}, nil)

	rec := get(NewHandler(svc, nil), "user_olga")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"totalOrders":2,"totalRevenue":"20","events":[{"eventId":"e1","title":"Tango","orders":2,"revenue":"20"}],"dailySales":[]}`, rec.Body.String())
}

func TestMySales_UnknownOrganizer(t *testing.T) {
	svc := new(MockService)
	svc.On("OrganizerSales", mock.Anything, "ghost").Return(nil, apperr.ErrOrganizerNotFound)

	rec := get(NewHandler(svc, nil), "ghost")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
