package recipecost

import (
	"time"

	"github.com/google/uuid"
)

type DishStatus string

const (
	DishStatusLive      DishStatus = "live"
	DishStatusPotential DishStatus = "potential"
	DishStatusArchive   DishStatus = "archive"
)

func ParseDishStatus(s string) (DishStatus, error) {
	switch DishStatus(s) {
	case DishStatusLive, DishStatusPotential, DishStatusArchive:
		return DishStatus(s), nil
	}
	return "", &InvalidInputError{Field: "status", Value: s, Reason: "must be live, potential or archive"}
}

type Dish struct {
	UUID           uuid.UUID
	RestaurantUUID uuid.UUID
	Name           string
	Description    string
	Price          *Cents // selling price, nil when not set
	Status         DishStatus
	CreatedAt      time.Time
}

// RecipeLine is one ingredient quantity of a dish, in any unit.
type RecipeLine struct {
	UUID           uuid.UUID
	DishUUID       uuid.UUID
	IngredientUUID uuid.UUID
	Quantity       float64
	Unit           string
	CreatedAt      time.Time
}
