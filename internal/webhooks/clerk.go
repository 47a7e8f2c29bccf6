package webhooks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"ms-eventhub/internal/apperr"
	"ms-eventhub/internal/logger"
	"ms-eventhub/internal/metrics"
	"ms-eventhub/internal/models"
	"ms-eventhub/internal/utils"

	svix "github.com/svix/svix-webhooks/go"
)

const maxPayloadBytes = 1 << 20

var svixHeaders = []string{"svix-id", "svix-timestamp", "svix-signature"}

type UserActions interface {
	UpsertUser(ctx context.Context, params models.UserParams) (*models.User, error)
	UpdateUser(ctx context.Context, clerkID string, upd models.UserUpdate) (*models.User, error)
	DeleteUser(ctx context.Context, clerkID string) (*models.User, error)
}

type ClerkHandler struct {
	Users  UserActions
	Secret string
	Logger *logger.Logger
}

func NewClerkHandler(users UserActions, secret string, log *logger.Logger) *ClerkHandler {
	if log == nil {
		log = logger.Discard()
	}
	return &ClerkHandler{Users: users, Secret: secret, Logger: log}
}

type clerkEvent struct {
	Type string    `json:"type"`
	Data clerkUser `json:"data"`
}

type clerkUser struct {
	ID             string `json:"id"`
	EmailAddresses []struct {
		EmailAddress string `json:"email_address"`
	} `json:"email_addresses"`
	ImageURL  string `json:"image_url"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
}

func (h *ClerkHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	evtType, body, werr := h.process(w, r)
	if werr != nil {
		h.Logger.Error("WEBHOOK", fmt.Sprintf("[clerk] %s %s: %s", evtType, werr.Category, werr.InternalError))
		metrics.ObserveWebhook("clerk", evtType, werr.Category)
		writeWebhookError(w, werr)
		return
	}
	metrics.ObserveWebhook("clerk", evtType, "ok")
	utils.WriteJSON(w, http.StatusOK, body)
}

func (h *ClerkHandler) process(w http.ResponseWriter, r *http.Request) (string, ack, *WebhookError) {
	if h.Secret == "" {
		return "", ack{}, configurationErr("CLERK_WEBHOOK_SECRET is not configured")
	}
	for _, name := range svixHeaders {
		if r.Header.Get(name) == "" {
			return "", ack{}, validationErr("Missing svix headers", nil)
		}
	}

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
	if err != nil {
		return "", ack{}, validationErr("Invalid webhook payload", err)
	}

	wh, err := svix.NewWebhook(h.Secret)
	if err != nil {
		return "", ack{}, configurationErr(fmt.Sprintf("invalid clerk webhook secret: %v", err))
	}
	if err := wh.Verify(payload, r.Header); err != nil {
		return "", ack{}, validationErr("Webhook signature verification failed", err)
	}

	var evt clerkEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return "", ack{}, validationErr("Invalid event data", err)
	}
	h.Logger.LogWebhook("clerk", evt.Type, "received for "+evt.Data.ID)

	switch evt.Type {
	case "user.created", "user.updated", "user.deleted":
		if evt.Data.ID == "" {
			return evt.Type, ack{}, validationErr("Missing user ID", nil)
		}
	default:
		h.Logger.Info("WEBHOOK", fmt.Sprintf("Unhandled clerk event type: %s", evt.Type))
		return evt.Type, ack{Message: "OK", Type: evt.Type}, nil
	}

	ctx := r.Context()
	switch evt.Type {
	case "user.created":
		user, err := h.Users.UpsertUser(ctx, newUserParams(evt.Data))
		if err != nil {
			return evt.Type, ack{}, processingErr("upsert user", err)
		}
		return evt.Type, ack{Message: "User created", Type: evt.Type, Data: user}, nil

	case "user.updated":
		p := newUserParams(evt.Data)
		user, err := h.Users.UpdateUser(ctx, evt.Data.ID, models.UserUpdate{
			FirstName: p.FirstName,
			LastName:  p.LastName,
			Username:  p.Username,
			Photo:     p.Photo,
		})
		if err != nil {
			return evt.Type, ack{}, processingErr("update user", err)
		}
		return evt.Type, ack{Message: "User updated", Type: evt.Type, Data: user}, nil

	default: // user.deleted
		user, err := h.Users.DeleteUser(ctx, evt.Data.ID)
		if errors.Is(err, apperr.ErrUserNotFound) {
			return evt.Type, ack{Message: "User already deleted", Type: evt.Type}, nil
		}
		if err != nil {
			return evt.Type, ack{}, processingErr("delete user", err)
		}
		return evt.Type, ack{Message: "User deleted", Type: evt.Type, Data: user}, nil
	}
}

// newUserParams fills the profile gaps identity providers commonly leave.
func newUserParams(d clerkUser) models.UserParams {
	email := ""
	if len(d.EmailAddresses) > 0 {
		email = d.EmailAddresses[0].EmailAddress
	}

	username := d.Username
	if username == "" && email != "" {
		username = strings.SplitN(email, "@", 2)[0]
	}
	if username == "" {
		username = d.ID
	}
	if email == "" {
		email = d.ID + "@example.com"
	}

	first := d.FirstName
	if first == "" {
		first = username
	}

	photo := d.ImageURL
	if photo == "" {
		photo = "https://ui-avatars.com/api/?name=" + url.QueryEscape(username) + "&background=random"
	}

	return models.UserParams{
		ClerkID:   d.ID,
		Email:     email,
		Username:  username,
		FirstName: first,
		LastName:  d.LastName,
		Photo:     photo,
	}
}
