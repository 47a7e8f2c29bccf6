package event

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ms-eventhub/internal/apperr"
	eventdb "ms-eventhub/internal/event/db"
	"ms-eventhub/internal/kafka"
	"ms-eventhub/internal/logger"
	"ms-eventhub/internal/models"
	"ms-eventhub/internal/utils"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultPageSize        = 6
	DefaultRelatedPageSize = 3
)

type DBLayer interface {
	CreateEvent(ctx context.Context, e *models.Event) error
	GetEventByID(ctx context.Context, id string) (*models.Event, error)
	UpdateEvent(ctx context.Context, e *models.Event) error
	DeleteEvent(ctx context.Context, id string) (bool, error)
	ListEvents(ctx context.Context, f eventdb.Filter, limit, offset int) ([]models.Event, int, error)
}

type UserLookup interface {
	GetUserByClerkID(ctx context.Context, clerkID string) (*models.User, error)
}

type CategoryLookup interface {
	GetCategoryByID(ctx context.Context, id string) (*models.Category, error)
}

type Revalidator interface {
	Revalidate(ctx context.Context, path string) error
}

type Publisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type EventService struct {
	DB          DBLayer
	Users       UserLookup
	Categories  CategoryLookup
	Revalidator Revalidator
	Publisher   Publisher
	Images      *ImageURLValidator
	Logger      *logger.Logger

	validate *validator.Validate
	now      func() time.Time
}

func NewEventService(db DBLayer, users UserLookup, categories CategoryLookup, reval Revalidator, pub Publisher, images *ImageURLValidator, log *logger.Logger) *EventService {
	if log == nil {
		log = logger.Discard()
	}
	return &EventService{
		DB:          db,
		Users:       users,
		Categories:  categories,
		Revalidator: reval,
		Publisher:   pub,
		Images:      images,
		Logger:      log,
		validate:    validator.New(),
		now:         time.Now,
	}
}

// GetEventByID never errors on a malformed id; it is simply not found.
func (s *EventService) GetEventByID(ctx context.Context, id string) (*models.Event, error) {
	if !models.ValidID(id) {
		return nil, apperr.ErrEventNotFound
	}
	e, err := s.DB.GetEventByID(ctx, id)
	if err != nil {
		return nil, s.storeErr("get event", err)
	}
	if e == nil {
		return nil, apperr.ErrEventNotFound
	}
	return e, nil
}

func (s *EventService) CreateEvent(ctx context.Context, actingID string, in models.EventInput, path string) (*models.Event, error) {
	organizer, err := s.Users.GetUserByClerkID(ctx, actingID)
	if err != nil {
		return nil, s.storeErr("lookup organizer", err)
	}
	if organizer == nil {
		return nil, apperr.ErrOrganizerNotFound
	}

	if err := s.checkInput(ctx, in); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	e := &models.Event{
		ID:          models.NewID(),
		OrganizerID: &organizer.ID,
		CreatedAt:   now,
	}
	apply(e, in, now)

	if err := s.DB.CreateEvent(ctx, e); err != nil {
		return nil, s.storeErr("create event", err)
	}
	s.Logger.Info("EVENT", fmt.Sprintf("Created event %s by %s", e.ID, organizer.ID))

	s.afterWrite(ctx, orDefault(path, "/"), kafka.NewMessage(kafka.TypeEventCreated, e.ID, e))
	return e, nil
}

func (s *EventService) UpdateEvent(ctx context.Context, actingID, eventID string, in models.EventInput, path string) (*models.Event, error) {
	e, err := s.authorize(ctx, actingID, eventID)
	if err != nil {
		return nil, err
	}
	if err := s.checkInput(ctx, in); err != nil {
		return nil, err
	}

	apply(e, in, s.now().UTC())
	if err := s.DB.UpdateEvent(ctx, e); err != nil {
		return nil, s.storeErr("update event", err)
	}
	s.Logger.Info("EVENT", fmt.Sprintf("Updated event %s", e.ID))

	updated, err := s.GetEventByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	s.afterWrite(ctx, orDefault(path, "/events/"+eventID), kafka.NewMessage(kafka.TypeEventUpdated, eventID, updated))
	return updated, nil
}

// DeleteEvent removes an event the caller organises, together with its
// orders.
func (s *EventService) DeleteEvent(ctx context.Context, actingID, eventID, path string) (bool, error) {
	if _, err := s.authorize(ctx, actingID, eventID); err != nil {
		return false, err
	}

	deleted, err := s.DB.DeleteEvent(ctx, eventID)
	if err != nil {
		return false, s.storeErr("delete event", err)
	}
	if !deleted {
		return false, apperr.ErrEventNotFound
	}
	s.Logger.Info("EVENT", fmt.Sprintf("Deleted event %s and its orders", eventID))

	s.afterWrite(ctx, orDefault(path, "/"), kafka.NewMessage(kafka.TypeEventDeleted, eventID, nil))
	return true, nil
}

// AuthorizeOrganizer returns the event when actingID is its organizer.
func (s *EventService) AuthorizeOrganizer(ctx context.Context, actingID, eventID string) (*models.Event, error) {
	return s.authorize(ctx, actingID, eventID)
}

// authorize resolves the caller by external id only and requires it to be the
// event's organizer.
func (s *EventService) authorize(ctx context.Context, actingID, eventID string) (*models.Event, error) {
	if actingID == "" {
		return nil, apperr.ErrUnauthorized
	}
	user, err := s.Users.GetUserByClerkID(ctx, actingID)
	if err != nil {
		return nil, s.storeErr("lookup acting user", err)
	}
	if user == nil {
		s.Logger.LogSecurity("UNKNOWN_USER", fmt.Sprintf("%s tried to modify event %s", actingID, eventID))
		return nil, apperr.ErrUnauthorized
	}

	e, err := s.GetEventByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if e.OrganizerID == nil || *e.OrganizerID != user.ID {
		s.Logger.LogSecurity("NOT_ORGANIZER", fmt.Sprintf("user %s is not the organizer of %s", user.ID, eventID))
		return nil, apperr.ErrUnauthorized
	}
	return e, nil
}

func (s *EventService) ListAllEvents(ctx context.Context, query, category string, page, pageSize int) (*models.EventPage, error) {
	f := eventdb.Filter{
		Title:        strings.TrimSpace(query),
		CategoryName: strings.TrimSpace(category),
	}
	return s.list(ctx, "list events", f, page, pageSize, DefaultPageSize)
}

func (s *EventService) ListEventsByOrganizer(ctx context.Context, actingID string, page, pageSize int) (*models.EventPage, error) {
	organizer, err := s.Users.GetUserByClerkID(ctx, actingID)
	if err != nil {
		return nil, s.storeErr("lookup organizer", err)
	}
	if organizer == nil {
		return nil, apperr.ErrOrganizerNotFound
	}
	return s.list(ctx, "list organizer events", eventdb.Filter{OrganizerID: organizer.ID}, page, pageSize, DefaultPageSize)
}

func (s *EventService) ListRelatedEventsByCategory(ctx context.Context, categoryID, excludeEventID string, page, pageSize int) (*models.EventPage, error) {
	if !models.ValidID(categoryID) {
		return &models.EventPage{Data: []models.Event{}}, nil
	}
	f := eventdb.Filter{CategoryID: categoryID, ExcludeID: excludeEventID}
	return s.list(ctx, "list related events", f, page, pageSize, DefaultRelatedPageSize)
}

func (s *EventService) list(ctx context.Context, op string, f eventdb.Filter, page, pageSize, def int) (*models.EventPage, error) {
	_, size, skip := utils.Page(page, pageSize, def)
	events, count, err := s.DB.ListEvents(ctx, f, size, skip)
	if err != nil {
		return nil, s.storeErr(op, err)
	}
	return &models.EventPage{Data: events, TotalPages: utils.TotalPages(count, size)}, nil
}

func (s *EventService) checkInput(ctx context.Context, in models.EventInput) error {
	if err := s.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
			}
			return apperr.Invalid("invalid event: " + strings.Join(fields, ", "))
		}
		return apperr.Invalid(err.Error())
	}

	if in.ImageURL != "" && !s.Images.Valid(in.ImageURL) {
		return apperr.ErrInvalidImageURL
	}

	if !in.IsFree && in.Price != "" {
		if _, err := utils.ParseMinorUnits(in.Price); err != nil {
			return apperr.Invalid("invalid price: " + err.Error())
		}
	}

	if in.CategoryID != "" {
		if !models.ValidID(in.CategoryID) {
			return apperr.ErrInvalidID
		}
		c, err := s.Categories.GetCategoryByID(ctx, in.CategoryID)
		if err != nil {
			return s.storeErr("lookup category", err)
		}
		if c == nil {
			return apperr.ErrCategoryNotFound
		}
	}
	return nil
}

func apply(e *models.Event, in models.EventInput, now time.Time) {
	e.Title = in.Title
	e.Description = in.Description
	e.Location = in.Location
	e.ImageURL = in.ImageURL
	e.StartDateTime = in.StartDateTime.UTC()
	e.EndDateTime = in.EndDateTime.UTC()
	e.IsFree = in.IsFree
	e.Price = in.Price
	if in.IsFree {
		e.Price = ""
	}
	e.URL = in.URL
	e.CategoryID = nil
	if in.CategoryID != "" {
		id := in.CategoryID
		e.CategoryID = &id
	}
	e.UpdatedAt = now
}

// afterWrite sends the cache and bus notifications. Neither may fail the
// write that already committed.
func (s *EventService) afterWrite(ctx context.Context, path string, msg kafka.Message) {
	if err := s.Revalidator.Revalidate(ctx, path); err != nil {
		s.Logger.Warn("EVENT", fmt.Sprintf("Revalidate %s failed: %v", path, err))
	}
	if err := s.Publisher.Publish(ctx, msg); err != nil {
		s.Logger.Warn("EVENT", fmt.Sprintf("Publish %s failed: %v", msg.Type, err))
	}
}

func (s *EventService) storeErr(op string, err error) error {
	s.Logger.Error("EVENT", fmt.Sprintf("%s: %v", op, err))
	return apperr.TransientErr(op, err)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
