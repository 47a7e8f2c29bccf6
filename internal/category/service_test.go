package category

import (
	"context"
	"errors"
	"testing"

	"ms-eventhub/internal/apperr"
	categorydb "ms-eventhub/internal/category/db"
	"ms-eventhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockDB struct {
	mock.Mock
}

func (m *MockDB) CreateCategory(ctx context.Context, c *models.Category) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockDB) GetCategoryByName(ctx context.Context, name string) (*models.Category, error) {
	args := m.Called(ctx, name)
	c, _ := args.Get(0).(*models.Category)
	return c, args.Error(1)
}

func (m *MockDB) ListCategories(ctx context.Context) ([]models.Category, error) {
	args := m.Called(ctx)
	c, _ := args.Get(0).([]models.Category)
	return c, args.Error(1)
}

func TestCreateCategory(t *testing.T) {
	db := new(MockDB)
	db.On("GetCategoryByName", mock.Anything, "Music").Return(nil, nil)
	db.On("CreateCategory", mock.Anything, mock.AnythingOfType("*models.Category")).Return(nil)

	c, err := NewCategoryService(db, nil).CreateCategory(context.Background(), "  Music ")
	require.NoError(t, err)
	assert.Equal(t, "Music", c.Name)
	assert.True(t, models.ValidID(c.ID))
}

func TestCreateCategory_Rejections(t *testing.T) {
	t.Run("blank", func(t *testing.T) {
		_, err := NewCategoryService(new(MockDB), nil).CreateCategory(context.Background(), "   ")
		assert.Equal(t, apperr.InvalidInput, apperr.KindOf(err))
	})

	t.Run("exists", func(t *testing.T) {
		db := new(MockDB)
		db.On("GetCategoryByName", mock.Anything, "music").Return(&models.Category{Name: "Music"}, nil)
		_, err := NewCategoryService(db, nil).CreateCategory(context.Background(), "music")
		assert.ErrorIs(t, err, apperr.ErrCategoryExists)
	})

	t.Run("lost race", func(t *testing.T) {
		db := new(MockDB)
		db.On("GetCategoryByName", mock.Anything, "Music").Return(nil, nil)
		db.On("CreateCategory", mock.Anything, mock.Anything).Return(categorydb.ErrDuplicate)
		_, err := NewCategoryService(db, nil).CreateCategory(context.Background(), "Music")
		assert.ErrorIs(t, err, apperr.ErrCategoryExists)
	})
}

func TestListCategories_TransientFailure(t *testing.T) {
	db := new(MockDB)
	db.On("ListCategories", mock.Anything).Return(nil, errors.New("timeout"))

	_, err := NewCategoryService(db, nil).ListCategories(context.Background())
	assert.True(t, apperr.IsTransient(err))
}
