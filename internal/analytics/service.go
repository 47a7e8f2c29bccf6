// Package analytics summarises ticket sales for organizers.
package analytics

import (
	"context"
	"fmt"

	"ms-eventhub/internal/apperr"
	"ms-eventhub/internal/logger"
	"ms-eventhub/internal/models"
	"ms-eventhub/internal/utils"
)

const dayLayout = "2006-01-02"

type DBLayer interface {
	OrganizerEvents(ctx context.Context, organizerID string) ([]EventRow, error)
	OrganizerSales(ctx context.Context, organizerID string) ([]SaleRow, error)
}

type UserLookup interface {
	GetUserByClerkID(ctx context.Context, clerkID string) (*models.User, error)
}

type Service struct {
	DB     DBLayer
	Users  UserLookup
	Logger *logger.Logger
}

func NewService(db DBLayer, users UserLookup, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{DB: db, Users: users, Logger: log}
}

// OrganizerSales aggregates orders and revenue per event and per day for the
// caller's events. Events without orders are listed with zero totals.
func (s *Service) OrganizerSales(ctx context.Context, actingID string) (*models.SalesSummary, error) {
	organizer, err := s.Users.GetUserByClerkID(ctx, actingID)
	if err != nil {
		return nil, s.storeErr("lookup organizer", err)
	}
	if organizer == nil {
		return nil, apperr.ErrOrganizerNotFound
	}

	events, err := s.DB.OrganizerEvents(ctx, organizer.ID)
	if err != nil {
		return nil, s.storeErr("list organizer events", err)
	}
	sales, err := s.DB.OrganizerSales(ctx, organizer.ID)
	if err != nil {
		return nil, s.storeErr("list organizer sales", err)
	}

	type tally struct {
		orders  int
		revenue int64
	}
	perEvent := make(map[string]*tally, len(events))
	var days []string
	perDay := map[string]*tally{}
	var total tally

	for _, sale := range sales {
		amount := s.amount(sale)

		t := perEvent[sale.EventID]
		if t == nil {
			t = &tally{}
			perEvent[sale.EventID] = t
		}
		t.orders++
		t.revenue += amount

		day := sale.CreatedAt.UTC().Format(dayLayout)
		d := perDay[day]
		if d == nil {
			d = &tally{}
			perDay[day] = d
			days = append(days, day)
		}
		d.orders++
		d.revenue += amount

		total.orders++
		total.revenue += amount
	}

	summary := &models.SalesSummary{
		TotalOrders:  total.orders,
		TotalRevenue: utils.FormatMinorUnits(total.revenue),
		Events:       make([]models.EventSales, 0, len(events)),
		DailySales:   make([]models.DailySales, 0, len(days)),
	}
	for _, e := range events {
		es := models.EventSales{EventID: e.ID, Title: e.Title, Revenue: "0"}
		if t := perEvent[e.ID]; t != nil {
			es.Orders = t.orders
			es.Revenue = utils.FormatMinorUnits(t.revenue)
		}
		summary.Events = append(summary.Events, es)
	}
	// sales arrive oldest first, so days is already ordered
	for _, day := range days {
		d := perDay[day]
		summary.DailySales = append(summary.DailySales, models.DailySales{
			Date:    day,
			Orders:  d.orders,
			Revenue: utils.FormatMinorUnits(d.revenue),
		})
	}
	return summary, nil
}

// amount counts an unparseable or empty total as zero revenue.
func (s *Service) amount(sale SaleRow) int64 {
	if sale.TotalAmount == "" {
		return 0
	}
	cents, err := utils.ParseMinorUnits(sale.TotalAmount)
	if err != nil {
		s.Logger.Warn("ANALYTICS", fmt.Sprintf("Order amount %q for event %s ignored: %v", sale.TotalAmount, sale.EventID, err))
		return 0
	}
	return cents
}

func (s *Service) storeErr(op string, err error) error {
	s.Logger.Error("ANALYTICS", fmt.Sprintf("%s: %v", op, err))
	return apperr.TransientErr(op, err)
}
