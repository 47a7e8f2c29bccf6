package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"ms-eventhub/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

// Filter narrows an event listing. Empty fields are ignored; set fields are
// combined with AND.
type Filter struct {
	Title        string // case-insensitive substring
	CategoryName string // exact, case-insensitive
	CategoryID   string
	OrganizerID  string
	ExcludeID    string
}

func (d *DB) CreateEvent(ctx context.Context, e *models.Event) error {
	_, err := d.Bun.NewInsert().Model(e).Exec(ctx)
	return err
}

// GetEventByID loads the event with its organizer and category; (nil, nil)
// when absent.
func (d *DB) GetEventByID(ctx context.Context, id string) (*models.Event, error) {
	var e models.Event
	err := d.Bun.NewSelect().
		Model(&e).
		Relation("Organizer").
		Relation("Category").
		Where("e.id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (d *DB) UpdateEvent(ctx context.Context, e *models.Event) error {
	_, err := d.Bun.NewUpdate().
		Model(e).
		Column("title", "description", "location", "image_url", "start_date_time",
			"end_date_time", "price", "is_free", "url", "category_id", "updated_at").
		WherePK().
		Exec(ctx)
	return err
}

// DeleteEvent removes the event and every order placed for it. Either both
// go or neither does.
func (d *DB) DeleteEvent(ctx context.Context, id string) (bool, error) {
	var deleted bool
	err := d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*models.Order)(nil)).
			Where("event_id = ?", id).
			Exec(ctx); err != nil {
			return err
		}
		res, err := tx.NewDelete().
			Model((*models.Event)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		deleted = n > 0
		return nil
	})
	return deleted, err
}

// ListEvents returns one page, newest first, plus the total match count.
func (d *DB) ListEvents(ctx context.Context, f Filter, limit, offset int) ([]models.Event, int, error) {
	events := []models.Event{}
	q := d.Bun.NewSelect().
		Model(&events).
		Relation("Organizer").
		Relation("Category")

	if f.Title != "" {
		q = q.Where("lower(e.title) LIKE ? ESCAPE '!'", "%"+escapeLike(strings.ToLower(f.Title))+"%")
	}
	if f.CategoryName != "" {
		q = q.Where("e.category_id IN (SELECT cn.id FROM categories AS cn WHERE lower(cn.name) = lower(?))", f.CategoryName)
	}
	if f.CategoryID != "" {
		q = q.Where("e.category_id = ?", f.CategoryID)
	}
	if f.OrganizerID != "" {
		q = q.Where("e.organizer_id = ?", f.OrganizerID)
	}
	if f.ExcludeID != "" {
		q = q.Where("e.id <> ?", f.ExcludeID)
	}

	count, err := q.
		OrderExpr("e.created_at DESC, e.id DESC").
		Limit(limit).
		Offset(offset).
		ScanAndCount(ctx)
	if err != nil {
		return nil, 0, err
	}
	return events, count, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}
