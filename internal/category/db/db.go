package db

import (
	"context"
	"database/sql"
	"errors"

	"ms-eventhub/internal/database"
	"ms-eventhub/internal/models"

	"github.com/uptrace/bun"
)

var ErrDuplicate = errors.New("category already exists")

type DB struct {
	Bun *bun.DB
}

func (d *DB) CreateCategory(ctx context.Context, c *models.Category) error {
	_, err := d.Bun.NewInsert().Model(c).Exec(ctx)
	if database.IsUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// GetCategoryByName matches ignoring case; (nil, nil) when absent.
func (d *DB) GetCategoryByName(ctx context.Context, name string) (*models.Category, error) {
	var c models.Category
	err := d.Bun.NewSelect().
		Model(&c).
		Where("lower(c.name) = lower(?)", name).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (d *DB) GetCategoryByID(ctx context.Context, id string) (*models.Category, error) {
	var c models.Category
	err := d.Bun.NewSelect().
		Model(&c).
		Where("c.id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (d *DB) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	err := d.Bun.NewSelect().
		Model(&categories).
		OrderExpr("c.name ASC").
		Scan(ctx)
	return categories, err
}
