package category_api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"ms-eventhub/internal/apperr"
	"ms-eventhub/internal/logger"
	"ms-eventhub/internal/models"
	"ms-eventhub/internal/utils"
)

type Service interface {
	CreateCategory(ctx context.Context, name string) (*models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
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

// ListCategories never fails the page: a store outage yields an empty list.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Service.ListCategories(r.Context())
	if err != nil {
		if !apperr.IsTransient(err) {
			utils.WriteError(w, err)
			return
		}
		h.Logger.Warn("API", fmt.Sprintf("ListCategories: degrading to empty list: %v", err))
		categories = []models.Category{}
	}
	utils.WriteJSON(w, http.StatusOK, categories)
}

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateCategory: failed to decode request body: %v", err))
		utils.WriteError(w, apperr.Invalid("invalid request body"))
		return
	}

	c, err := h.Service.CreateCategory(r.Context(), body.Name)
	if err != nil {
		h.Logger.Warn("API", fmt.Sprintf("CreateCategory: %v", err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, c)
}
