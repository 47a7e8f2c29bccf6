package models

import (
	"time"

	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID        string    `bun:"id,pk" json:"id"`
	ClerkID   string    `bun:"clerk_id,unique,notnull" json:"clerkId"`
	Email     string    `bun:"email,notnull" json:"email"`
	Username  string    `bun:"username,notnull" json:"username"`
	FirstName string    `bun:"first_name,notnull,default:''" json:"firstName"`
	LastName  string    `bun:"last_name,notnull,default:''" json:"lastName"`
	Photo     string    `bun:"photo,notnull,default:''" json:"photo"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt time.Time `bun:"updated_at,notnull" json:"updatedAt"`
}

// UserParams carries identity-provider profile fields. ClerkID is only read on
// create; it never changes afterwards.
type UserParams struct {
	ClerkID   string `json:"clerkId"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Photo     string `json:"photo"`
}

// UserUpdate lists the mutable profile fields.
type UserUpdate struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Username  string `json:"username"`
	Photo     string `json:"photo"`
}
