package recipecost

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrConversionNotFound = errors.New("conversion not found")
	ErrIncompatibleUnits  = errors.New("incompatible units")
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotFound           = errors.New("not found")
)

// ConversionNotFoundError is returned when two distinct units have no stored edge.
type ConversionNotFoundError struct {
	From string
	To   string
}

func (e *ConversionNotFoundError) Error() string {
	return fmt.Sprintf("no conversion from %s to %s", e.From, e.To)
}

func (e *ConversionNotFoundError) Is(target error) bool {
	return target == ErrConversionNotFound
}

// IncompatibleUnitsError attaches the recipe line context to a missing conversion.
type IncompatibleUnitsError struct {
	IngredientUUID uuid.UUID
	RecipeUnit     string
	NativeUnit     string
	Err            error
}

func (e *IncompatibleUnitsError) Error() string {
	return fmt.Sprintf("ingredient %s: cannot convert %s to %s: %v", e.IngredientUUID, e.RecipeUnit, e.NativeUnit, e.Err)
}

func (e *IncompatibleUnitsError) Unwrap() error {
	return e.Err
}

func (e *IncompatibleUnitsError) Is(target error) bool {
	return target == ErrIncompatibleUnits
}

type InvalidInputError struct {
	Field  string
	Value  any
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}
