package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Event struct {
	bun.BaseModel `bun:"table:events,alias:e"`

	ID            string    `bun:"id,pk" json:"id"`
	Title         string    `bun:"title,notnull" json:"title"`
	Description   string    `bun:"description,notnull,default:''" json:"description"`
	Location      string    `bun:"location,notnull,default:''" json:"location"`
	ImageURL      string    `bun:"image_url,notnull,default:''" json:"imageUrl"`
	StartDateTime time.Time `bun:"start_date_time,notnull" json:"startDateTime"`
	EndDateTime   time.Time `bun:"end_date_time,notnull" json:"endDateTime"`
	Price         string    `bun:"price,notnull,default:''" json:"price"`
	IsFree        bool      `bun:"is_free,notnull,default:false" json:"isFree"`
	URL           string    `bun:"url,notnull,default:''" json:"url"`
	CategoryID    *string   `bun:"category_id" json:"categoryId,omitempty"`
	OrganizerID   *string   `bun:"organizer_id" json:"organizerId,omitempty"`
	CreatedAt     time.Time `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt     time.Time `bun:"updated_at,notnull" json:"updatedAt"`

	Organizer *User     `bun:"rel:belongs-to,join:organizer_id=id" json:"organizer,omitempty"`
	Category  *Category `bun:"rel:belongs-to,join:category_id=id" json:"category,omitempty"`
}

// EventInput is the event form as submitted by an organizer.
type EventInput struct {
	Title         string    `json:"title" validate:"required,min=3"`
	Description   string    `json:"description" validate:"min=3,max=400"`
	Location      string    `json:"location" validate:"min=3,max=400"`
	ImageURL      string    `json:"imageUrl"`
	StartDateTime time.Time `json:"startDateTime" validate:"required"`
	EndDateTime   time.Time `json:"endDateTime" validate:"required,gtefield=StartDateTime"`
	CategoryID    string    `json:"categoryId"`
	Price         string    `json:"price"`
	IsFree        bool      `json:"isFree"`
	URL           string    `json:"url" validate:"omitempty,url"`
}

// EventPage is one page of a filtered event listing.
type EventPage struct {
	Data       []Event `json:"data"`
	TotalPages int     `json:"totalPages"`
}
