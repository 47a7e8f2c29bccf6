package category_api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ms-eventhub/internal/apperr"
	"ms-eventhub/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	args := m.Called(ctx, name)
	c, _ := args.Get(0).(*models.Category)
	return c, args.Error(1)
}

func (m *MockService) ListCategories(ctx context.Context) ([]models.Category, error) {
	args := m.Called(ctx)
	c, _ := args.Get(0).([]models.Category)
	return c, args.Error(1)
}

func router(s Service) http.Handler {
	h := NewHandler(s, nil)
	r := chi.NewRouter()
	r.Get("/api/categories", h.ListCategories)
	r.Post("/api/categories", h.CreateCategory)
	return r
}

func TestListCategories(t *testing.T) {
	s := new(MockService)
	s.On("ListCategories", mock.Anything).Return([]models.Category{{ID: "1", Name: "Music"}}, nil)

	rec := httptest.NewRecorder()
	router(s).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/categories", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got []models.Category
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Music", got[0].Name)
}

func TestListCategories_DegradesOnTransientError(t *testing.T) {
	s := new(MockService)
	s.On("ListCategories", mock.Anything).Return(nil, apperr.TransientErr("list", errors.New("down")))

	rec := httptest.NewRecorder()
	router(s).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/categories", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestCreateCategory(t *testing.T) {
	s := new(MockService)
	s.On("CreateCategory", mock.Anything, "Music").Return(&models.Category{ID: "1", Name: "Music"}, nil)
	s.On("CreateCategory", mock.Anything, "Dup").Return(nil, apperr.ErrCategoryExists)

	rec := httptest.NewRecorder()
	router(s).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/categories", strings.NewReader(`{"name":"Music"}`)))
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	router(s).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/categories", strings.NewReader(`{"name":"Dup"}`)))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = httptest.NewRecorder()
	router(s).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/categories", strings.NewReader(`{`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
