package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User is the owning side of an order. Guest checkouts synthesize an
// inactive user with an empty credential solely to satisfy this relation.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Phone        string
	IsActive     bool
	IsAdmin      bool
	CreatedAt    time.Time
}

// Guest reports whether this is a synthesized placeholder account.
func (u *User) Guest() bool {
	return !u.IsActive && u.PasswordHash == ""
}

// UserStore resolves users and addresses referenced by orders. Services use
// it to build gateway requests and notification payloads.
type UserStore interface {
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	GetAddress(ctx context.Context, id uuid.UUID) (*Address, error)
}

// Address is a shipping address referenced by orders.
type Address struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	FullName  string
	Line1     string
	Line2     string
	City      string
	District  string
	PostCode  string
	Phone     string
	CreatedAt time.Time
}
