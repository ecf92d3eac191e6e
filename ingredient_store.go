package recipecost

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const ingredientColumns = `uuid, restaurant_uuid, name, unit, current_cost_per_unit_cents, is_archived, created_at, archived_at`

// AddIngredient stores the ingredient together with its first price history
// entry.
func AddIngredient(ctx context.Context, db *sql.DB, ing *Ingredient, note string) (uuid.UUID, error) {
	if ing.RestaurantUUID == uuid.Nil {
		return uuid.Nil, &InvalidInputError{Field: "restaurant", Value: ing.RestaurantUUID, Reason: "missing"}
	}
	if strings.TrimSpace(ing.Name) == "" {
		return uuid.Nil, &InvalidInputError{Field: "name", Value: `""`, Reason: "empty"}
	}
	if err := ValidateUnit(ing.Unit); err != nil {
		return uuid.Nil, err
	}
	if ing.CurrentCostPerUnit < 0 {
		return uuid.Nil, &InvalidInputError{Field: "cost per unit", Value: ing.CurrentCostPerUnit, Reason: "must not be negative"}
	}
	if ing.UUID == uuid.Nil {
		id, err := uuid.NewV6()
		if err != nil {
			return uuid.Nil, err
		}
		ing.UUID = id
	}
	if ing.CreatedAt.IsZero() {
		ing.CreatedAt = nowFunc()
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return uuid.Nil, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO ingredients (`+ingredientColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, NULL)`,
		ing.UUID, ing.RestaurantUUID, ing.Name, ing.Unit, ing.CurrentCostPerUnit, false, toMillis(ing.CreatedAt))
	if err != nil {
		return uuid.Nil, fmt.Errorf("add ingredient: %w", err)
	}
	if _, err := insertPriceHistory(ctx, tx, ing.UUID, ing.CurrentCostPerUnit, ing.CreatedAt, note); err != nil {
		return uuid.Nil, err
	}
	if err := tx.Commit(); err != nil {
		return uuid.Nil, err
	}
	Logger().Info("ingredient added",
		zap.Stringer("ingredient", ing.UUID),
		zap.String("unit", ing.Unit),
		zap.Stringer("cost", ing.CurrentCostPerUnit))
	return ing.UUID, nil
}

// RecordIngredientPrice appends a history entry and moves the ingredient's
// current cost to it in the same transaction.
func RecordIngredientPrice(ctx context.Context, db *sql.DB, restaurantID, ingredientID uuid.UUID, cost Cents, note string) (*PriceHistoryEntry, error) {
	if cost < 0 {
		return nil, &InvalidInputError{Field: "cost per unit", Value: cost, Reason: "must not be negative"}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := getIngredient(ctx, tx, restaurantID, ingredientID); err != nil {
		return nil, err
	}
	entry, err := insertPriceHistory(ctx, tx, ingredientID, cost, nowFunc(), note)
	if err != nil {
		return nil, err
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE ingredients SET current_cost_per_unit_cents = ? WHERE uuid = ?`, cost, ingredientID)
	if err != nil {
		return nil, fmt.Errorf("update ingredient cost: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	Logger().Info("ingredient price recorded", zap.Stringer("ingredient", ingredientID), zap.Stringer("cost", cost))
	return entry, nil
}

func insertPriceHistory(ctx context.Context, q queryer, ingredientID uuid.UUID, cost Cents, at time.Time, note string) (*PriceHistoryEntry, error) {
	id, err := uuid.NewV6()
	if err != nil {
		return nil, err
	}
	entry := &PriceHistoryEntry{
		UUID:           id,
		IngredientUUID: ingredientID,
		CostPerUnit:    cost,
		RecordedAt:     fromMillis(toMillis(at)),
		Note:           note,
	}
	_, err = q.ExecContext(ctx,
		`INSERT INTO ingredient_price_history (uuid, ingredient_uuid, cost_per_unit_cents, recorded_at, note) VALUES (?, ?, ?, ?, ?)`,
		entry.UUID, entry.IngredientUUID, entry.CostPerUnit, toMillis(entry.RecordedAt), entry.Note)
	if err != nil {
		return nil, fmt.Errorf("insert price history: %w", err)
	}
	return entry, nil
}

func GetIngredient(ctx context.Context, db *sql.DB, restaurantID, ingredientID uuid.UUID) (*Ingredient, error) {
	return getIngredient(ctx, db, restaurantID, ingredientID)
}

func getIngredient(ctx context.Context, q queryer, restaurantID, ingredientID uuid.UUID) (*Ingredient, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+ingredientColumns+` FROM ingredients WHERE uuid = ? AND restaurant_uuid = ?`,
		ingredientID, restaurantID)
	ing, err := scanIngredient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("ingredient %s: %w", ingredientID, ErrNotFound)
	}
	return ing, err
}

func ListIngredients(ctx context.Context, db *sql.DB, restaurantID uuid.UUID, includeArchived bool) ([]Ingredient, error) {
	query := `SELECT ` + ingredientColumns + ` FROM ingredients WHERE restaurant_uuid = ?`
	if !includeArchived {
		query += ` AND is_archived = 0`
	}
	query += ` ORDER BY name, created_at`

	rows, err := db.QueryContext(ctx, query, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ings []Ingredient
	for rows.Next() {
		ing, err := scanIngredient(rows)
		if err != nil {
			return nil, err
		}
		ings = append(ings, *ing)
	}
	return ings, rows.Err()
}

func ArchiveIngredient(ctx context.Context, db *sql.DB, restaurantID, ingredientID uuid.UUID) error {
	res, err := db.ExecContext(ctx,
		`UPDATE ingredients SET is_archived = 1, archived_at = ? WHERE uuid = ? AND restaurant_uuid = ? AND is_archived = 0`,
		toMillis(nowFunc()), ingredientID, restaurantID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// either missing, foreign, or already archived
		if _, err := GetIngredient(ctx, db, restaurantID, ingredientID); err != nil {
			return err
		}
	}
	return nil
}

// PriceHistory returns every recorded price of the ingredient, oldest first.
func PriceHistory(ctx context.Context, db *sql.DB, restaurantID, ingredientID uuid.UUID) ([]PriceHistoryEntry, error) {
	if _, err := GetIngredient(ctx, db, restaurantID, ingredientID); err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx,
		`SELECT uuid, ingredient_uuid, cost_per_unit_cents, recorded_at, note
		FROM ingredient_price_history WHERE ingredient_uuid = ?
		ORDER BY recorded_at, rowid`, ingredientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []PriceHistoryEntry
	for rows.Next() {
		e, err := scanPriceHistory(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// PriceAt returns the latest price recorded at or before at.
func PriceAt(ctx context.Context, db *sql.DB, restaurantID, ingredientID uuid.UUID, at time.Time) (*PriceHistoryEntry, error) {
	if _, err := GetIngredient(ctx, db, restaurantID, ingredientID); err != nil {
		return nil, err
	}
	return priceAt(ctx, db, ingredientID, at)
}

func priceAt(ctx context.Context, q queryer, ingredientID uuid.UUID, at time.Time) (*PriceHistoryEntry, error) {
	row := q.QueryRowContext(ctx,
		`SELECT uuid, ingredient_uuid, cost_per_unit_cents, recorded_at, note
		FROM ingredient_price_history WHERE ingredient_uuid = ? AND recorded_at <= ?
		ORDER BY recorded_at DESC, rowid DESC LIMIT 1`, ingredientID, toMillis(at))
	e, err := scanPriceHistory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("price of ingredient %s at %s: %w", ingredientID, at.Format(time.RFC3339), ErrNotFound)
	}
	return e, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanIngredient(s scanner) (*Ingredient, error) {
	var ing Ingredient
	var createdAt int64
	var archivedAt sql.NullInt64
	err := s.Scan(&ing.UUID, &ing.RestaurantUUID, &ing.Name, &ing.Unit, &ing.CurrentCostPerUnit,
		&ing.IsArchived, &createdAt, &archivedAt)
	if err != nil {
		return nil, err
	}
	ing.CreatedAt = fromMillis(createdAt)
	if archivedAt.Valid {
		t := fromMillis(archivedAt.Int64)
		ing.ArchivedAt = &t
	}
	return &ing, nil
}

func scanPriceHistory(s scanner) (*PriceHistoryEntry, error) {
	var e PriceHistoryEntry
	var recordedAt int64
	if err := s.Scan(&e.UUID, &e.IngredientUUID, &e.CostPerUnit, &recordedAt, &e.Note); err != nil {
		return nil, err
	}
	e.RecordedAt = fromMillis(recordedAt)
	return &e, nil
}
