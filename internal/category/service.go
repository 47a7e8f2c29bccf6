package category

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ms-eventhub/internal/apperr"
	categorydb "ms-eventhub/internal/category/db"
	"ms-eventhub/internal/logger"
	"ms-eventhub/internal/models"
)

type DBLayer interface {
	CreateCategory(ctx context.Context, c *models.Category) error
	GetCategoryByName(ctx context.Context, name string) (*models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
}

type CategoryService struct {
	DB     DBLayer
	Logger *logger.Logger
}

func NewCategoryService(db DBLayer, log *logger.Logger) *CategoryService {
	if log == nil {
		log = logger.Discard()
	}
	return &CategoryService{DB: db, Logger: log}
}

func (s *CategoryService) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Invalid("category name is required")
	}

	existing, err := s.DB.GetCategoryByName(ctx, name)
	if err != nil {
		return nil, s.storeErr("lookup category", err)
	}
	if existing != nil {
		return nil, apperr.ErrCategoryExists
	}

	c := &models.Category{ID: models.NewID(), Name: name, CreatedAt: time.Now().UTC()}
	err = s.DB.CreateCategory(ctx, c)
	if errors.Is(err, categorydb.ErrDuplicate) {
		return nil, apperr.ErrCategoryExists
	}
	if err != nil {
		return nil, s.storeErr("create category", err)
	}
	s.Logger.Info("CATEGORY", fmt.Sprintf("Created category %q (%s)", c.Name, c.ID))
	return c, nil
}

func (s *CategoryService) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.DB.ListCategories(ctx)
	if err != nil {
		return nil, s.storeErr("list categories", err)
	}
	return categories, nil
}

func (s *CategoryService) storeErr(op string, err error) error {
	s.Logger.Error("CATEGORY", fmt.Sprintf("%s: %v", op, err))
	return apperr.TransientErr(op, err)
}
