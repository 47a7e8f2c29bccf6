package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ms-eventhub/internal/database"
	"ms-eventhub/internal/models"

	"github.com/uptrace/bun"
)

// ErrDuplicate is returned by CreateUser when the clerk id already exists.
var ErrDuplicate = errors.New("user already exists")

type DB struct {
	Bun *bun.DB
}

// GetUserByClerkID returns (nil, nil) when no user carries the external id.
func (d *DB) GetUserByClerkID(ctx context.Context, clerkID string) (*models.User, error) {
	var user models.User
	err := d.Bun.NewSelect().
		Model(&user).
		Where("u.clerk_id = ?", clerkID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByID returns (nil, nil) when the internal id is unknown.
func (d *DB) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := d.Bun.NewSelect().
		Model(&user).
		Where("u.id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (d *DB) CreateUser(ctx context.Context, user *models.User) error {
	_, err := d.Bun.NewInsert().Model(user).Exec(ctx)
	if database.IsUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (d *DB) TouchUser(ctx context.Context, id string, at time.Time) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.User)(nil)).
		Set("updated_at = ?", at).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

// UpdateUser applies the mutable profile fields and reports whether a row
// matched.
func (d *DB) UpdateUser(ctx context.Context, clerkID string, upd models.UserUpdate, at time.Time) (bool, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.User)(nil)).
		Set("first_name = ?", upd.FirstName).
		Set("last_name = ?", upd.LastName).
		Set("username = ?", upd.Username).
		Set("photo = ?", upd.Photo).
		Set("updated_at = ?", at).
		Where("clerk_id = ?", clerkID).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteUser unlinks the user from the events it organises and the orders it
// bought, then removes it. All three statements share one transaction.
func (d *DB) DeleteUser(ctx context.Context, id string) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewUpdate().
			Model((*models.Event)(nil)).
			Set("organizer_id = NULL").
			Where("organizer_id = ?", id).
			Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewUpdate().
			Model((*models.Order)(nil)).
			Set("buyer_id = NULL").
			Where("buyer_id = ?", id).
			Exec(ctx); err != nil {
			return err
		}
		_, err := tx.NewDelete().
			Model((*models.User)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		return err
	})
}
