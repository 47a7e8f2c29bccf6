package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ms-eventhub/internal/apperr"
	"ms-eventhub/internal/kafka"
	"ms-eventhub/internal/logger"
	"ms-eventhub/internal/models"
	userdb "ms-eventhub/internal/user/db"
)

type DBLayer interface {
	GetUserByClerkID(ctx context.Context, clerkID string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	TouchUser(ctx context.Context, id string, at time.Time) error
	UpdateUser(ctx context.Context, clerkID string, upd models.UserUpdate, at time.Time) (bool, error)
	DeleteUser(ctx context.Context, id string) error
}

type Revalidator interface {
	Revalidate(ctx context.Context, path string) error
}

type Publisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type UserService struct {
	DB          DBLayer
	Revalidator Revalidator
	Publisher   Publisher
	Logger      *logger.Logger
	now         func() time.Time
}

func NewUserService(db DBLayer, reval Revalidator, pub Publisher, log *logger.Logger) *UserService {
	if log == nil {
		log = logger.Discard()
	}
	return &UserService{DB: db, Revalidator: reval, Publisher: pub, Logger: log, now: time.Now}
}

// UpsertUser returns the user carrying params.ClerkID, creating it on first
// sight. A concurrent create that wins the unique index is re-read rather
// than duplicated.
func (s *UserService) UpsertUser(ctx context.Context, params models.UserParams) (*models.User, error) {
	if params.ClerkID == "" {
		return nil, apperr.Invalid("clerk id is required")
	}
	now := s.now().UTC()

	existing, err := s.DB.GetUserByClerkID(ctx, params.ClerkID)
	if err != nil {
		return nil, s.storeErr("lookup user", err)
	}
	if existing != nil {
		return s.touch(ctx, existing, now)
	}

	user := &models.User{
		ID:        models.NewID(),
		ClerkID:   params.ClerkID,
		Email:     params.Email,
		Username:  params.Username,
		FirstName: params.FirstName,
		LastName:  params.LastName,
		Photo:     params.Photo,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = s.DB.CreateUser(ctx, user)
	if errors.Is(err, userdb.ErrDuplicate) {
		s.Logger.Info("USER", fmt.Sprintf("Concurrent create for %s, re-reading", params.ClerkID))
		winner, err := s.DB.GetUserByClerkID(ctx, params.ClerkID)
		if err != nil {
			return nil, s.storeErr("re-read user", err)
		}
		if winner == nil {
			return nil, apperr.TransientErr("re-read user", fmt.Errorf("user %s vanished after duplicate insert", params.ClerkID))
		}
		return s.touch(ctx, winner, now)
	}
	if err != nil {
		return nil, s.storeErr("create user", err)
	}

	s.Logger.Info("USER", fmt.Sprintf("Created user %s for %s", user.ID, user.ClerkID))
	return user, nil
}

func (s *UserService) touch(ctx context.Context, user *models.User, at time.Time) (*models.User, error) {
	if err := s.DB.TouchUser(ctx, user.ID, at); err != nil {
		return nil, s.storeErr("touch user", err)
	}
	user.UpdatedAt = at
	return user, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if !models.ValidID(id) {
		return nil, apperr.ErrUserNotFound
	}
	user, err := s.DB.GetUserByID(ctx, id)
	if err != nil {
		return nil, s.storeErr("get user", err)
	}
	if user == nil {
		return nil, apperr.ErrUserNotFound
	}
	return user, nil
}

// UpdateUser applies profile changes to the user with the given external id.
func (s *UserService) UpdateUser(ctx context.Context, clerkID string, upd models.UserUpdate) (*models.User, error) {
	ok, err := s.DB.UpdateUser(ctx, clerkID, upd, s.now().UTC())
	if err != nil {
		return nil, s.storeErr("update user", err)
	}
	if !ok {
		return nil, apperr.ErrUpdateFailed
	}
	user, err := s.DB.GetUserByClerkID(ctx, clerkID)
	if err != nil {
		return nil, s.storeErr("re-read user", err)
	}
	if user == nil {
		return nil, apperr.ErrUpdateFailed
	}
	return user, nil
}

// DeleteUser removes the user after unlinking its events and orders.
func (s *UserService) DeleteUser(ctx context.Context, clerkID string) (*models.User, error) {
	user, err := s.DB.GetUserByClerkID(ctx, clerkID)
	if err != nil {
		return nil, s.storeErr("lookup user", err)
	}
	if user == nil {
		return nil, apperr.ErrUserNotFound
	}

	if err := s.DB.DeleteUser(ctx, user.ID); err != nil {
		return nil, s.storeErr("delete user", err)
	}
	s.Logger.Info("USER", fmt.Sprintf("Deleted user %s (%s)", user.ID, clerkID))

	if err := s.Revalidator.Revalidate(ctx, "/"); err != nil {
		s.Logger.Warn("USER", fmt.Sprintf("Revalidate after delete failed: %v", err))
	}
	if err := s.Publisher.Publish(ctx, kafka.NewMessage(kafka.TypeUserDeleted, user.ID, user)); err != nil {
		s.Logger.Warn("USER", fmt.Sprintf("Publish user.deleted failed: %v", err))
	}
	return user, nil
}

func (s *UserService) storeErr(op string, err error) error {
	s.Logger.Error("USER", fmt.Sprintf("%s: %v", op, err))
	return apperr.TransientErr(op, err)
}
