package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"ms-eventhub/internal/apperr"
	"ms-eventhub/internal/database/dbtest"
	"ms-eventhub/internal/kafka"
	"ms-eventhub/internal/models"
	userdb "ms-eventhub/internal/user/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockDB struct {
	mock.Mock
}

func (m *MockDB) GetUserByClerkID(ctx context.Context, clerkID string) (*models.User, error) {
	args := m.Called(ctx, clerkID)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *MockDB) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *MockDB) CreateUser(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockDB) TouchUser(ctx context.Context, id string, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *MockDB) UpdateUser(ctx context.Context, clerkID string, upd models.UserUpdate, at time.Time) (bool, error) {
	args := m.Called(ctx, clerkID, upd, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockDB) DeleteUser(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockRevalidator struct {
	mock.Mock
}

func (m *MockRevalidator) Revalidate(ctx context.Context, path string) error {
	return m.Called(ctx, path).Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, msg kafka.Message) error {
	return m.Called(ctx, msg).Error(0)
}

var fixedNow = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func newService(db DBLayer, reval Revalidator, pub Publisher) *UserService {
	s := NewUserService(db, reval, pub, nil)
	s.now = func() time.Time { return fixedNow }
	return s
}

func TestUpsertUser_CreatesNewUser(t *testing.T) {
	db := new(MockDB)
	db.On("GetUserByClerkID", mock.Anything, "user_1").Return(nil, nil).Once()
	db.On("CreateUser", mock.Anything, mock.AnythingOfType("*models.User")).Return(nil)

	s := newService(db, new(MockRevalidator), new(MockPublisher))
	u, err := s.UpsertUser(context.Background(), models.UserParams{ClerkID: "user_1", Email: "a@b.c", Username: "a"})

	require.NoError(t, err)
	assert.True(t, models.ValidID(u.ID))
	assert.Equal(t, fixedNow, u.CreatedAt)
	db.AssertExpectations(t)
}

func TestUpsertUser_ExistingIsTouched(t *testing.T) {
	existing := &models.User{ID: models.NewID(), ClerkID: "user_1"}
	db := new(MockDB)
	db.On("GetUserByClerkID", mock.Anything, "user_1").Return(existing, nil)
	db.On("TouchUser", mock.Anything, existing.ID, fixedNow).Return(nil)

	s := newService(db, new(MockRevalidator), new(MockPublisher))
	u, err := s.UpsertUser(context.Background(), models.UserParams{ClerkID: "user_1"})

	require.NoError(t, err)
	assert.Equal(t, existing.ID, u.ID)
	assert.Equal(t, fixedNow, u.UpdatedAt)
	db.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
}

func TestUpsertUser_RecoversFromConcurrentCreate(t *testing.T) {
	winner := &models.User{ID: models.NewID(), ClerkID: "user_1"}
	db := new(MockDB)
	db.On("GetUserByClerkID", mock.Anything, "user_1").Return(nil, nil).Once()
	db.On("CreateUser", mock.Anything, mock.Anything).Return(userdb.ErrDuplicate)
	db.On("GetUserByClerkID", mock.Anything, "user_1").Return(winner, nil).Once()
	db.On("TouchUser", mock.Anything, winner.ID, fixedNow).Return(nil)

	s := newService(db, new(MockRevalidator), new(MockPublisher))
	u, err := s.UpsertUser(context.Background(), models.UserParams{ClerkID: "user_1"})

	require.NoError(t, err)
	assert.Equal(t, winner.ID, u.ID)
	db.AssertExpectations(t)
}

func TestUpsertUser_StoreFailureIsTransient(t *testing.T) {
	db := new(MockDB)
	db.On("GetUserByClerkID", mock.Anything, "user_1").Return(nil, errors.New("connection reset"))

	s := newService(db, new(MockRevalidator), new(MockPublisher))
	_, err := s.UpsertUser(context.Background(), models.UserParams{ClerkID: "user_1"})

	assert.True(t, apperr.IsTransient(err))
}

func TestUpsertUser_TwiceKeepsOneRecord(t *testing.T) {
	bunDB := dbtest.New(t)
	s := NewUserService(&userdb.DB{Bun: bunDB}, new(MockRevalidator), new(MockPublisher), nil)
	ctx := context.Background()

	first, err := s.UpsertUser(ctx, models.UserParams{ClerkID: "user_1", Email: "a@b.c", Username: "a"})
	require.NoError(t, err)
	second, err := s.UpsertUser(ctx, models.UserParams{ClerkID: "user_1", Email: "a@b.c", Username: "a"})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	count, err := bunDB.NewSelect().Model((*models.User)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestUpdateUser(t *testing.T) {
	upd := models.UserUpdate{FirstName: "Ada"}

	t.Run("no match", func(t *testing.T) {
		db := new(MockDB)
		db.On("UpdateUser", mock.Anything, "ghost", upd, fixedNow).Return(false, nil)

		_, err := newService(db, nil, nil).UpdateUser(context.Background(), "ghost", upd)
		assert.ErrorIs(t, err, apperr.ErrUpdateFailed)
	})

	t.Run("returns fresh copy", func(t *testing.T) {
		fresh := &models.User{ID: models.NewID(), ClerkID: "user_1", FirstName: "Ada"}
		db := new(MockDB)
		db.On("UpdateUser", mock.Anything, "user_1", upd, fixedNow).Return(true, nil)
		db.On("GetUserByClerkID", mock.Anything, "user_1").Return(fresh, nil)

		u, err := newService(db, nil, nil).UpdateUser(context.Background(), "user_1", upd)
		require.NoError(t, err)
		assert.Equal(t, "Ada", u.FirstName)
	})
}

func TestDeleteUser(t *testing.T) {
	t.Run("unknown user", func(t *testing.T) {
		db := new(MockDB)
		db.On("GetUserByClerkID", mock.Anything, "ghost").Return(nil, nil)

		_, err := newService(db, nil, nil).DeleteUser(context.Background(), "ghost")
		assert.ErrorIs(t, err, apperr.ErrUserNotFound)
		db.AssertNotCalled(t, "DeleteUser", mock.Anything, mock.Anything)
	})

	t.Run("deletes and signals", func(t *testing.T) {
		u := &models.User{ID: models.NewID(), ClerkID: "user_1"}
		db := new(MockDB)
		db.On("GetUserByClerkID", mock.Anything, "user_1").Return(u, nil)
		db.On("DeleteUser", mock.Anything, u.ID).Return(nil)
		reval := new(MockRevalidator)
		reval.On("Revalidate", mock.Anything, "/").Return(nil)
		pub := new(MockPublisher)
		pub.On("Publish", mock.Anything, mock.MatchedBy(func(m kafka.Message) bool {
			return m.Type == kafka.TypeUserDeleted && m.Key == u.ID
		})).Return(errors.New("kafka down"))

		deleted, err := newService(db, reval, pub).DeleteUser(context.Background(), "user_1")
		require.NoError(t, err, "publish failures are not fatal")
		assert.Equal(t, u.ID, deleted.ID)
		reval.AssertExpectations(t)
		pub.AssertExpectations(t)
	})
}

func TestGetUserByID_MalformedID(t *testing.T) {
	db := new(MockDB)
	_, err := newService(db, nil, nil).GetUserByID(context.Background(), "not-a-valid-id")
	assert.ErrorIs(t, err, apperr.ErrUserNotFound)
	db.AssertNotCalled(t, "GetUserByID", mock.Anything, mock.Anything)
}
