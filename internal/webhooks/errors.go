// Package webhooks turns signed identity-provider and payment-provider
// deliveries into user and order actions.
package webhooks

import (
	"fmt"
	"net/http"

	"ms-eventhub/internal/apperr"
	"ms-eventhub/internal/utils"
)

const (
	CategoryConfiguration = "configuration"
	CategoryValidation    = "validation"
	CategoryProcessing    = "processing"
)

// WebhookError represents an error that occurred during webhook processing.
type WebhookError struct {
	Category      string
	StatusCode    int
	PublicError   string // safe to expose to the sender
	InternalError string // logs only
	OriginalErr   error
}

func (e *WebhookError) Error() string {
	return e.InternalError
}

func (e *WebhookError) Unwrap() error {
	return e.OriginalErr
}

func validationErr(public string, err error) *WebhookError {
	internal := public
	if err != nil {
		internal = fmt.Sprintf("%s: %v", public, err)
	}
	return &WebhookError{
		Category:      CategoryValidation,
		StatusCode:    http.StatusBadRequest,
		PublicError:   public,
		InternalError: internal,
		OriginalErr:   err,
	}
}

func configurationErr(internal string) *WebhookError {
	return &WebhookError{
		Category:      CategoryConfiguration,
		StatusCode:    http.StatusInternalServerError,
		PublicError:   "Webhook processing error",
		InternalError: internal,
	}
}

// processingErr keeps the status of a typed action error so that a missing
// user reads as 404 rather than 500.
func processingErr(op string, err error) *WebhookError {
	status := apperr.HTTPStatus(err)
	return &WebhookError{
		Category:      CategoryProcessing,
		StatusCode:    status,
		PublicError:   apperr.Public(err),
		InternalError: fmt.Sprintf("%s: %v", op, err),
		OriginalErr:   err,
	}
}

type ack struct {
	Message string      `json:"message"`
	Type    string      `json:"type,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func writeWebhookError(w http.ResponseWriter, err *WebhookError) {
	utils.WriteJSON(w, err.StatusCode, utils.ErrorResponse(err.Category, err.PublicError))
}
