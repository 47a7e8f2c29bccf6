package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Order struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	ID          string    `bun:"id,pk" json:"id"`
	StripeID    string    `bun:"stripe_id,unique,notnull" json:"stripeId"`
	TotalAmount string    `bun:"total_amount,notnull,default:''" json:"totalAmount"`
	CreatedAt   time.Time `bun:"created_at,notnull" json:"createdAt"`
	EventID     string    `bun:"event_id,notnull" json:"eventId"`
	BuyerID     *string   `bun:"buyer_id" json:"buyerId,omitempty"`

	Event *Event `bun:"rel:belongs-to,join:event_id=id" json:"event,omitempty"`
	Buyer *User  `bun:"rel:belongs-to,join:buyer_id=id" json:"buyer,omitempty"`
}

// OrderParams is what a completed checkout session yields.
type OrderParams struct {
	StripeID        string
	EventID         string
	BuyerExternalID string
	TotalAmount     string
	CreatedAt       time.Time
}

// OrderItem is the flattened row shown on an event's orders page.
type OrderItem struct {
	OrderID     string    `bun:"order_id" json:"orderId"`
	TotalAmount string    `bun:"total_amount" json:"totalAmount"`
	CreatedAt   time.Time `bun:"created_at" json:"createdAt"`
	EventTitle  string    `bun:"event_title" json:"eventTitle"`
	EventID     string    `bun:"event_id" json:"eventId"`
	BuyerName   string    `bun:"buyer_name" json:"buyerName"`
}

type OrderPage struct {
	Data       []Order `json:"data"`
	TotalPages int     `json:"totalPages"`
}
