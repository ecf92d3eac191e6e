package recipecost

import (
	"errors"
	"math"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Converter resolves conversion factors. *Registry is the usual implementation.
type Converter interface {
	Factor(fromUnit, toUnit string) (float64, error)
}

// LineInput is a recipe quantity together with the ingredient it draws on.
type LineInput struct {
	Ingredient Ingredient
	Quantity   float64
	Unit       string
}

type LineCost struct {
	IngredientUUID uuid.UUID
	IngredientName string
	Quantity       float64
	Unit           string
	NativeUnit     string
	// Factor is 0 only for a zero-quantity line whose unit has no conversion.
	Factor         float64
	NativeQuantity float64
	CostPerUnit    Cents
	Cost           Cents
}

type Margin struct {
	Cents             Cents
	// Percent is meaningful only when PercentApplicable; a zero price leaves it unset.
	Percent           float64
	PercentApplicable bool
}

type DishCost struct {
	DishUUID uuid.UUID
	DishName string
	Lines    []LineCost
	Total    Cents
	Price    *Cents
	Margin   *Margin
}

// Engine costs recipe lines and dishes against a fixed set of conversions.
// It holds no state of its own beyond the converter.
type Engine struct {
	conv Converter
}

var maxCents = decimal.NewFromInt(math.MaxInt64)

func NewEngine(conv Converter) *Engine {
	return &Engine{conv: conv}
}

func (e *Engine) CostOfLine(in LineInput) (LineCost, error) {
	ing := in.Ingredient
	if math.IsNaN(in.Quantity) || math.IsInf(in.Quantity, 0) {
		return LineCost{}, &InvalidInputError{Field: "quantity", Value: in.Quantity, Reason: "not finite"}
	}
	if in.Quantity < 0 {
		return LineCost{}, &InvalidInputError{Field: "quantity", Value: in.Quantity, Reason: "must not be negative"}
	}
	if ing.CurrentCostPerUnit < 0 {
		return LineCost{}, &InvalidInputError{Field: "cost per unit", Value: ing.CurrentCostPerUnit, Reason: "must not be negative"}
	}
	if err := ValidateUnit(in.Unit); err != nil {
		return LineCost{}, err
	}
	if err := ValidateUnit(ing.Unit); err != nil {
		return LineCost{}, err
	}

	lc := LineCost{
		IngredientUUID: ing.UUID,
		IngredientName: ing.Name,
		Quantity:       in.Quantity,
		Unit:           in.Unit,
		NativeUnit:     ing.Unit,
		CostPerUnit:    ing.CurrentCostPerUnit,
	}

	factor := 1.0
	if in.Unit != ing.Unit {
		f, err := e.conv.Factor(in.Unit, ing.Unit)
		if err != nil {
			if !errors.Is(err, ErrConversionNotFound) {
				return LineCost{}, err
			}
			if in.Quantity == 0 {
				return lc, nil
			}
			return LineCost{}, &IncompatibleUnitsError{
				IngredientUUID: ing.UUID,
				RecipeUnit:     in.Unit,
				NativeUnit:     ing.Unit,
				Err:            err,
			}
		}
		if err := ValidateFactor(f); err != nil {
			return LineCost{}, err
		}
		factor = f
	}

	nativeQty := decimal.NewFromFloat(in.Quantity).Mul(decimal.NewFromFloat(factor))
	cost := nativeQty.Mul(ing.CurrentCostPerUnit.Decimal()).RoundBank(0)
	if cost.IsNegative() || cost.GreaterThan(maxCents) {
		return LineCost{}, &InvalidInputError{Field: "cost", Value: cost, Reason: "overflows cents"}
	}

	lc.Factor = factor
	lc.NativeQuantity = nativeQty.InexactFloat64()
	lc.Cost = Cents(cost.IntPart())
	return lc, nil
}

// CostOfDish stops at the first line that cannot be costed; there is no
// partial total.
func (e *Engine) CostOfDish(dish Dish, lines []LineInput) (DishCost, error) {
	dc := DishCost{
		DishUUID: dish.UUID,
		DishName: dish.Name,
		Lines:    make([]LineCost, 0, len(lines)),
	}
	for _, in := range lines {
		lc, err := e.CostOfLine(in)
		if err != nil {
			return DishCost{}, err
		}
		if dc.Total > math.MaxInt64-lc.Cost {
			return DishCost{}, &InvalidInputError{Field: "total", Value: dish.UUID, Reason: "overflows cents"}
		}
		dc.Lines = append(dc.Lines, lc)
		dc.Total += lc.Cost
	}

	if dish.Price != nil {
		price := *dish.Price
		dc.Price = &price
		dc.Margin = computeMargin(price, dc.Total)
	}
	return dc, nil
}

func computeMargin(price, total Cents) *Margin {
	m := &Margin{Cents: price - total}
	if price == 0 {
		return m
	}
	pct := m.Cents.Decimal().Div(price.Decimal()).Mul(decimal.NewFromInt(100))
	m.Percent = pct.InexactFloat64()
	m.PercentApplicable = true
	return m
}
