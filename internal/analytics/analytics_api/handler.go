package analytics_api

import (
	"context"
	"fmt"
	"net/http"

	"ms-eventhub/internal/auth"
	"ms-eventhub/internal/logger"
	"ms-eventhub/internal/models"
	"ms-eventhub/internal/utils"
)

type Service interface {
	OrganizerSales(ctx context.Context, actingID string) (*models.SalesSummary, error)
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

// MySales handles GET /api/me/sales.
func (h *Handler) MySales(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	summary, err := h.Service.OrganizerSales(r.Context(), userID)
	if err != nil {
		h.Logger.Debug("API", fmt.Sprintf("MySales %s: %v", userID, err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, summary)
}
