package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/elmalimarket/elmali/internal/domain"
)

// GetUser loads a user by ID. Guest placeholder accounts are returned like
// any other user.
func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	const op = "user.get"

	var u domain.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, first_name, last_name, phone, is_active, is_admin, created_at
		 FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
			&u.Phone, &u.IsActive, &u.IsAdmin, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NotFound(op, "user", id.String())
	}
	if err != nil {
		return nil, domain.Internal(err, op, "failed to load user")
	}
	return &u, nil
}

// GetAddress loads a shipping address by ID.
func (s *Store) GetAddress(ctx context.Context, id uuid.UUID) (*domain.Address, error) {
	const op = "address.get"

	var a domain.Address
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, full_name, line1, line2, city, district, post_code, phone, created_at
		 FROM addresses WHERE id = $1`, id).
		Scan(&a.ID, &a.UserID, &a.FullName, &a.Line1, &a.Line2, &a.City,
			&a.District, &a.PostCode, &a.Phone, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NotFound(op, "address", id.String())
	}
	if err != nil {
		return nil, domain.Internal(err, op, "failed to load address")
	}
	return &a, nil
}
