package user_api

import (
	"context"
	"fmt"
	"net/http"

	"ms-eventhub/internal/logger"
	"ms-eventhub/internal/models"
	"ms-eventhub/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Service interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
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

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	user, err := h.Service.GetUserByID(r.Context(), id)
	if err != nil {
		h.Logger.Debug("API", fmt.Sprintf("GetUser %s: %v", id, err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, user)
}
