package recipecost

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultRestaurantName = "My Restaurant"

func AddRestaurant(ctx context.Context, db *sql.DB, r *Restaurant) (uuid.UUID, error) {
	if strings.TrimSpace(r.OwnerSubject) == "" {
		return uuid.Nil, &InvalidInputError{Field: "owner subject", Value: `""`, Reason: "empty"}
	}
	if r.UUID == uuid.Nil {
		id, err := uuid.NewV6()
		if err != nil {
			return uuid.Nil, err
		}
		r.UUID = id
	}
	if r.Name == "" {
		r.Name = defaultRestaurantName
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = nowFunc()
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO restaurants (uuid, name, owner_subject, created_at) VALUES (?, ?, ?, ?)`,
		r.UUID, r.Name, r.OwnerSubject, toMillis(r.CreatedAt))
	if err != nil {
		return uuid.Nil, fmt.Errorf("add restaurant: %w", err)
	}
	Logger().Info("restaurant added", zap.Stringer("restaurant", r.UUID), zap.String("owner", r.OwnerSubject))
	return r.UUID, nil
}

func GetRestaurant(ctx context.Context, db *sql.DB, id uuid.UUID) (*Restaurant, error) {
	return scanRestaurant(db.QueryRowContext(ctx,
		`SELECT uuid, name, owner_subject, created_at FROM restaurants WHERE uuid = ?`, id))
}

func GetRestaurantBySubject(ctx context.Context, db *sql.DB, subject string) (*Restaurant, error) {
	return scanRestaurant(db.QueryRowContext(ctx,
		`SELECT uuid, name, owner_subject, created_at FROM restaurants WHERE owner_subject = ?`, subject))
}

// EnsureRestaurant returns the restaurant owned by subject, creating it on
// first use.
func EnsureRestaurant(ctx context.Context, db *sql.DB, subject, name string) (*Restaurant, error) {
	r, err := GetRestaurantBySubject(ctx, db, subject)
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	r = &Restaurant{Name: name, OwnerSubject: subject}
	if _, err := AddRestaurant(ctx, db, r); err != nil {
		return nil, err
	}
	return r, nil
}

func scanRestaurant(row *sql.Row) (*Restaurant, error) {
	var r Restaurant
	var createdAt int64
	err := row.Scan(&r.UUID, &r.Name, &r.OwnerSubject, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("restaurant: %w", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	r.CreatedAt = fromMillis(createdAt)
	return &r, nil
}
