package recipecost

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CostDish costs a dish with current ingredient prices and the stored
// conversion table.
func CostDish(ctx context.Context, db *sql.DB, restaurantID, dishID uuid.UUID) (DishCost, error) {
	dish, lines, err := loadDishInputs(ctx, db, restaurantID, dishID)
	if err != nil {
		return DishCost{}, err
	}
	return costLoaded(ctx, db, dish, lines)
}

// CostDishAt costs a dish with the prices that were in effect at the given
// time. Recipe lines and conversions are the current ones.
func CostDishAt(ctx context.Context, db *sql.DB, restaurantID, dishID uuid.UUID, at time.Time) (DishCost, error) {
	dish, lines, err := loadDishInputs(ctx, db, restaurantID, dishID)
	if err != nil {
		return DishCost{}, err
	}
	for i := range lines {
		entry, err := priceAt(ctx, db, lines[i].Ingredient.UUID, at)
		if err != nil {
			return DishCost{}, err
		}
		lines[i].Ingredient = lines[i].Ingredient.WithCost(entry.CostPerUnit)
	}
	return costLoaded(ctx, db, dish, lines)
}

func costLoaded(ctx context.Context, db *sql.DB, dish *Dish, lines []LineInput) (DishCost, error) {
	reg, err := LoadRegistry(ctx, db)
	if err != nil {
		return DishCost{}, err
	}
	dc, err := NewEngine(reg).CostOfDish(*dish, lines)
	if err != nil {
		Logger().Warn("dish costing failed", zap.Stringer("dish", dish.UUID), zap.Error(err))
		return DishCost{}, err
	}
	Logger().Debug("dish costed",
		zap.Stringer("dish", dish.UUID),
		zap.Int("lines", len(dc.Lines)),
		zap.Stringer("total", dc.Total))
	return dc, nil
}

func loadDishInputs(ctx context.Context, db *sql.DB, restaurantID, dishID uuid.UUID) (*Dish, []LineInput, error) {
	dish, err := GetDish(ctx, db, restaurantID, dishID)
	if err != nil {
		return nil, nil, err
	}
	rows, err := db.QueryContext(ctx,
		`SELECT di.quantity, di.unit,
			i.uuid, i.restaurant_uuid, i.name, i.unit, i.current_cost_per_unit_cents, i.is_archived, i.created_at, i.archived_at
		FROM dish_ingredients di
		JOIN ingredients i ON i.uuid = di.ingredient_uuid
		WHERE di.dish_uuid = ?
		ORDER BY di.created_at, di.rowid`, dishID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var lines []LineInput
	for rows.Next() {
		var in LineInput
		var createdAt int64
		var archivedAt sql.NullInt64
		ing := &in.Ingredient
		err := rows.Scan(&in.Quantity, &in.Unit,
			&ing.UUID, &ing.RestaurantUUID, &ing.Name, &ing.Unit, &ing.CurrentCostPerUnit, &ing.IsArchived, &createdAt, &archivedAt)
		if err != nil {
			return nil, nil, err
		}
		if ing.RestaurantUUID != restaurantID {
			return nil, nil, fmt.Errorf("dish %s line uses ingredient %s of another restaurant: %w", dishID, ing.UUID, ErrNotFound)
		}
		ing.CreatedAt = fromMillis(createdAt)
		if archivedAt.Valid {
			t := fromMillis(archivedAt.Int64)
			ing.ArchivedAt = &t
		}
		lines = append(lines, in)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return dish, lines, nil
}
