package recipecost

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const dishColumns = `uuid, restaurant_uuid, name, description, price_cents, status, created_at`

func AddDish(ctx context.Context, db *sql.DB, dish *Dish) (uuid.UUID, error) {
	if dish.RestaurantUUID == uuid.Nil {
		return uuid.Nil, &InvalidInputError{Field: "restaurant", Value: dish.RestaurantUUID, Reason: "missing"}
	}
	if strings.TrimSpace(dish.Name) == "" {
		return uuid.Nil, &InvalidInputError{Field: "name", Value: `""`, Reason: "empty"}
	}
	if dish.Status == "" {
		dish.Status = DishStatusPotential
	}
	if _, err := ParseDishStatus(string(dish.Status)); err != nil {
		return uuid.Nil, err
	}
	if dish.Price != nil && *dish.Price < 0 {
		return uuid.Nil, &InvalidInputError{Field: "price", Value: *dish.Price, Reason: "must not be negative"}
	}
	if dish.UUID == uuid.Nil {
		id, err := uuid.NewV6()
		if err != nil {
			return uuid.Nil, err
		}
		dish.UUID = id
	}
	if dish.CreatedAt.IsZero() {
		dish.CreatedAt = nowFunc()
	}

	var price sql.NullInt64
	if dish.Price != nil {
		price = sql.NullInt64{Int64: int64(*dish.Price), Valid: true}
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO dishes (`+dishColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		dish.UUID, dish.RestaurantUUID, dish.Name, dish.Description, price, string(dish.Status), toMillis(dish.CreatedAt))
	if err != nil {
		return uuid.Nil, fmt.Errorf("add dish: %w", err)
	}
	Logger().Info("dish added", zap.Stringer("dish", dish.UUID), zap.String("status", string(dish.Status)))
	return dish.UUID, nil
}

func GetDish(ctx context.Context, db *sql.DB, restaurantID, dishID uuid.UUID) (*Dish, error) {
	return getDish(ctx, db, restaurantID, dishID)
}

func getDish(ctx context.Context, q queryer, restaurantID, dishID uuid.UUID) (*Dish, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+dishColumns+` FROM dishes WHERE uuid = ? AND restaurant_uuid = ?`, dishID, restaurantID)
	dish, err := scanDish(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("dish %s: %w", dishID, ErrNotFound)
	}
	return dish, err
}

// ListDishes returns the restaurant's dishes; an empty status lists all of them.
func ListDishes(ctx context.Context, db *sql.DB, restaurantID uuid.UUID, status DishStatus) ([]Dish, error) {
	query := `SELECT ` + dishColumns + ` FROM dishes WHERE restaurant_uuid = ?`
	args := []any{restaurantID}
	if status != "" {
		if _, err := ParseDishStatus(string(status)); err != nil {
			return nil, err
		}
		query += ` AND status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY name, created_at`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dishes []Dish
	for rows.Next() {
		d, err := scanDish(rows)
		if err != nil {
			return nil, err
		}
		dishes = append(dishes, *d)
	}
	return dishes, rows.Err()
}

func SetDishStatus(ctx context.Context, db *sql.DB, restaurantID, dishID uuid.UUID, status DishStatus) error {
	if _, err := ParseDishStatus(string(status)); err != nil {
		return err
	}
	res, err := db.ExecContext(ctx,
		`UPDATE dishes SET status = ? WHERE uuid = ? AND restaurant_uuid = ?`, string(status), dishID, restaurantID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("dish %s: %w", dishID, ErrNotFound)
	}
	return nil
}

// AddDishIngredient adds a recipe line. The dish and the ingredient must both
// belong to restaurantID.
func AddDishIngredient(ctx context.Context, db *sql.DB, restaurantID uuid.UUID, line *RecipeLine) (uuid.UUID, error) {
	if math.IsNaN(line.Quantity) || math.IsInf(line.Quantity, 0) || line.Quantity <= 0 {
		return uuid.Nil, &InvalidInputError{Field: "quantity", Value: line.Quantity, Reason: "must be a positive number"}
	}
	if err := ValidateUnit(line.Unit); err != nil {
		return uuid.Nil, err
	}
	if line.UUID == uuid.Nil {
		id, err := uuid.NewV6()
		if err != nil {
			return uuid.Nil, err
		}
		line.UUID = id
	}
	if line.CreatedAt.IsZero() {
		line.CreatedAt = nowFunc()
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return uuid.Nil, err
	}
	defer tx.Rollback()

	if _, err := getDish(ctx, tx, restaurantID, line.DishUUID); err != nil {
		return uuid.Nil, err
	}
	if _, err := getIngredient(ctx, tx, restaurantID, line.IngredientUUID); err != nil {
		return uuid.Nil, err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO dish_ingredients (uuid, dish_uuid, ingredient_uuid, quantity, unit, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		line.UUID, line.DishUUID, line.IngredientUUID, line.Quantity, line.Unit, toMillis(line.CreatedAt))
	if err != nil {
		return uuid.Nil, fmt.Errorf("add dish ingredient: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return uuid.Nil, err
	}
	return line.UUID, nil
}

func RemoveDishIngredient(ctx context.Context, db *sql.DB, restaurantID, lineID uuid.UUID) error {
	res, err := db.ExecContext(ctx,
		`DELETE FROM dish_ingredients WHERE uuid = ? AND dish_uuid IN (SELECT uuid FROM dishes WHERE restaurant_uuid = ?)`,
		lineID, restaurantID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("dish ingredient %s: %w", lineID, ErrNotFound)
	}
	return nil
}

// DishLines returns the recipe lines of a dish in the order they were added.
func DishLines(ctx context.Context, db *sql.DB, restaurantID, dishID uuid.UUID) ([]RecipeLine, error) {
	if _, err := GetDish(ctx, db, restaurantID, dishID); err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx,
		`SELECT uuid, dish_uuid, ingredient_uuid, quantity, unit, created_at
		FROM dish_ingredients WHERE dish_uuid = ? ORDER BY created_at, rowid`, dishID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []RecipeLine
	for rows.Next() {
		var l RecipeLine
		var createdAt int64
		if err := rows.Scan(&l.UUID, &l.DishUUID, &l.IngredientUUID, &l.Quantity, &l.Unit, &createdAt); err != nil {
			return nil, err
		}
		l.CreatedAt = fromMillis(createdAt)
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func scanDish(s scanner) (*Dish, error) {
	var d Dish
	var price sql.NullInt64
	var status string
	var createdAt int64
	if err := s.Scan(&d.UUID, &d.RestaurantUUID, &d.Name, &d.Description, &price, &status, &createdAt); err != nil {
		return nil, err
	}
	if price.Valid {
		p := Cents(price.Int64)
		d.Price = &p
	}
	d.Status = DishStatus(status)
	d.CreatedAt = fromMillis(createdAt)
	return &d, nil
}
