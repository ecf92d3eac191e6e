package recipecost

import (
	"time"

	"github.com/google/uuid"
)

// Restaurant is the tenant every other record belongs to.
type Restaurant struct {
	UUID         uuid.UUID
	Name         string
	OwnerSubject string
	CreatedAt    time.Time
}

// Ingredient prices are always quoted per one Unit, the ingredient's native unit.
type Ingredient struct {
	UUID               uuid.UUID
	RestaurantUUID     uuid.UUID
	Name               string
	Unit               string
	CurrentCostPerUnit Cents
	IsArchived         bool
	CreatedAt          time.Time
	ArchivedAt         *time.Time
}

// PriceHistoryEntry is append-only; one is written for every price change.
type PriceHistoryEntry struct {
	UUID           uuid.UUID
	IngredientUUID uuid.UUID
	CostPerUnit    Cents
	RecordedAt     time.Time
	Note           string
}

// WithCost returns a copy priced at cost, used to cost against a historical price.
func (ing Ingredient) WithCost(cost Cents) Ingredient {
	ing.CurrentCostPerUnit = cost
	return ing
}
