package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"ms-eventhub/internal/apperr"
	"ms-eventhub/internal/database/dbtest"
	"ms-eventhub/internal/models"
	userdb "ms-eventhub/internal/user/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

var t0 = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func insert(t *testing.T, db *bun.DB, rows ...interface{}) {
	for _, m := range rows {
		_, err := db.NewInsert().Model(m).Exec(context.Background())
		require.NoError(t, err)
	}
}

func order(e *models.Event, stripeID, amount string, at time.Time, buyer *models.User) *models.Order {
	return &models.Order{ID: models.NewID(), StripeID: stripeID, TotalAmount: amount, CreatedAt: at, EventID: e.ID, BuyerID: &buyer.ID}
}

func TestOrganizerSales(t *testing.T) {
	bunDB := dbtest.New(t)
	olga := &models.User{ID: models.NewID(), ClerkID: "user_olga", Username: "olga", CreatedAt: t0, UpdatedAt: t0}
	other := &models.User{ID: models.NewID(), ClerkID: "user_other", Username: "other", CreatedAt: t0, UpdatedAt: t0}
	tango := &models.Event{ID: models.NewID(), Title: "Tango Night", StartDateTime: t0, EndDateTime: t0, OrganizerID: &olga.ID, CreatedAt: t0, UpdatedAt: t0}
	quiet := &models.Event{ID: models.NewID(), Title: "Quiet Reading", StartDateTime: t0, EndDateTime: t0, OrganizerID: &olga.ID, CreatedAt: t0.Add(time.Hour), UpdatedAt: t0}
	foreign := &models.Event{ID: models.NewID(), Title: "Not Mine", StartDateTime: t0, EndDateTime: t0, OrganizerID: &other.ID, CreatedAt: t0, UpdatedAt: t0}
	insert(t, bunDB, olga, other, tango, quiet, foreign,
		order(tango, "cs_1", "12.5", t0, other),
		order(tango, "cs_2", "10", t0.Add(2*time.Hour), other),
		order(tango, "cs_3", "0.05", t0.Add(24*time.Hour), other),
		order(foreign, "cs_4", "99", t0, olga),
	)

	svc := NewService(&DB{Bun: bunDB}, &userdb.DB{Bun: bunDB}, nil)
	got, err := svc.OrganizerSales(context.Background(), "user_olga")
	require.NoError(t, err)

	assert.Equal(t, 3, got.TotalOrders)
	assert.Equal(t, "22.55", got.TotalRevenue)
	assert.Equal(t, []models.EventSales{
		{EventID: quiet.ID, Title: "Quiet Reading", Orders: 0, Revenue: "0"},
		{EventID: tango.ID, Title: "Tango Night", Orders: 3, Revenue: "22.55"},
	}, got.Events)
	assert.Equal(t, []models.DailySales{
		{Date: "2024-06-01", Orders: 2, Revenue: "22.5"},
		{Date: "2024-06-02", Orders: 1, Revenue: "0.05"},
	}, got.DailySales)
}

func TestOrganizerSales_NoEvents(t *testing.T) {
	bunDB := dbtest.New(t)
	insert(t, bunDB, &models.User{ID: models.NewID(), ClerkID: "user_new", Username: "new", CreatedAt: t0, UpdatedAt: t0})

	got, err := NewService(&DB{Bun: bunDB}, &userdb.DB{Bun: bunDB}, nil).OrganizerSales(context.Background(), "user_new")
	require.NoError(t, err)
	assert.Zero(t, got.TotalOrders)
	assert.Equal(t, "0", got.TotalRevenue)
	assert.Empty(t, got.Events)
	assert.NotNil(t, got.Events)
}

func TestOrganizerSales_UnknownOrganizer(t *testing.T) {
	bunDB := dbtest.New(t)
	_, err := NewService(&DB{Bun: bunDB}, &userdb.DB{Bun: bunDB}, nil).OrganizerSales(context.Background(), "ghost")
	assert.ErrorIs(t, err, apperr.ErrOrganizerNotFound)
}

type failingDB struct{}

func (failingDB) OrganizerEvents(context.Context, string) ([]EventRow, error) {
	return nil, errors.New("connection reset")
}
func (failingDB) OrganizerSales(context.Context, string) ([]SaleRow, error) { return nil, nil }

func TestOrganizerSales_StoreFailureIsTransient(t *testing.T) {
	bunDB := dbtest.New(t)
	insert(t, bunDB, &models.User{ID: models.NewID(), ClerkID: "user_olga", Username: "olga", CreatedAt: t0, UpdatedAt: t0})

	_, err := NewService(failingDB{}, &userdb.DB{Bun: bunDB}, nil).OrganizerSales(context.Background(), "user_olga")
	require.Error(t, err)
	assert.True(t, apperr.IsTransient(err))
}

func TestAmount_IgnoresGarbage(t *testing.T) {
	svc := NewService(nil, nil, nil)
	assert.Equal(t, int64(0), svc.amount(SaleRow{TotalAmount: ""}))
	assert.Equal(t, int64(0), svc.amount(SaleRow{TotalAmount: "abc"}))
	assert.Equal(t, int64(1999), svc.amount(SaleRow{TotalAmount: "19.99"}))
}
