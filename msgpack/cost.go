package recipecostmsgpack

import (
	"recipecost"
	"time"

	"github.com/google/uuid"
)

type ConversionEdge struct {
	FromUnit string  `msgpack:"from_unit,omitempty"`
	ToUnit   string  `msgpack:"to_unit,omitempty"`
	Factor   float64 `msgpack:"factor,omitempty"`
}

type RejectedEdge struct {
	Edge  ConversionEdge `msgpack:"edge"`
	Error string         `msgpack:"error,omitempty"`
}

type SeedReport struct {
	Inserted []ConversionEdge `msgpack:"inserted,omitempty"`
	Skipped  []ConversionEdge `msgpack:"skipped,omitempty"`
	Rejected []RejectedEdge   `msgpack:"rejected,omitempty"`
}

type PriceChange struct {
	RestaurantUUID string `msgpack:"restaurant_uuid,omitempty"`
	IngredientUUID string `msgpack:"ingredient_uuid,omitempty"`
	CostPerUnit    int64  `msgpack:"cost_per_unit"`
	Note           string `msgpack:"note,omitempty"`
}

type PriceHistoryEntry struct {
	UUID           string `msgpack:"uuid,omitempty"`
	IngredientUUID string `msgpack:"ingredient_uuid,omitempty"`
	CostPerUnit    int64  `msgpack:"cost_per_unit"`
	DatetimeMs     int64  `msgpack:"date,omitempty"`
	Note           string `msgpack:"note,omitempty"`
}

type LineCost struct {
	IngredientUUID string  `msgpack:"ingredient_uuid,omitempty"`
	IngredientName string  `msgpack:"ingredient_name,omitempty"`
	Quantity       float64 `msgpack:"quantity"`
	Unit           string  `msgpack:"unit,omitempty"`
	NativeUnit     string  `msgpack:"native_unit,omitempty"`
	Factor         float64 `msgpack:"factor"`
	NativeQuantity float64 `msgpack:"native_quantity"`
	CostPerUnit    int64   `msgpack:"cost_per_unit"`
	Cost           int64   `msgpack:"cost"`
}

type Margin struct {
	Cents             int64   `msgpack:"cents"`
	Percent           float64 `msgpack:"percent"`
	PercentApplicable bool    `msgpack:"percent_applicable"`
}

type DishCost struct {
	DishUUID string     `msgpack:"dish_uuid,omitempty"`
	DishName string     `msgpack:"dish_name,omitempty"`
	Lines    []LineCost `msgpack:"lines,omitempty"`
	Total    int64      `msgpack:"total"`
	Price    *int64     `msgpack:"price,omitempty"`
	Margin   *Margin    `msgpack:"margin,omitempty"`
}

func NewConversionEdge(c recipecost.UnitConversion) ConversionEdge {
	return ConversionEdge{FromUnit: c.FromUnit, ToUnit: c.ToUnit, Factor: c.Factor}
}

func ToUnitConversion(e ConversionEdge) recipecost.UnitConversion {
	return recipecost.UnitConversion{FromUnit: e.FromUnit, ToUnit: e.ToUnit, Factor: e.Factor}
}

func ToUnitConversions(edges []ConversionEdge) []recipecost.UnitConversion {
	convs := make([]recipecost.UnitConversion, 0, len(edges))
	for _, e := range edges {
		convs = append(convs, ToUnitConversion(e))
	}
	return convs
}

func newConversionEdges(convs []recipecost.UnitConversion) []ConversionEdge {
	var edges []ConversionEdge
	for _, c := range convs {
		edges = append(edges, NewConversionEdge(c))
	}
	return edges
}

func NewSeedReport(r recipecost.SeedReport) SeedReport {
	report := SeedReport{
		Inserted: newConversionEdges(r.Inserted),
		Skipped:  newConversionEdges(r.Skipped),
	}
	for _, rej := range r.Rejected {
		report.Rejected = append(report.Rejected, RejectedEdge{
			Edge:  NewConversionEdge(rej.Conversion),
			Error: rej.Err.Error(),
		})
	}
	return report
}

func NewPriceHistoryEntry(e *recipecost.PriceHistoryEntry) PriceHistoryEntry {
	return PriceHistoryEntry{
		UUID:           e.UUID.String(),
		IngredientUUID: e.IngredientUUID.String(),
		CostPerUnit:    int64(e.CostPerUnit),
		DatetimeMs:     e.RecordedAt.UnixMilli(),
		Note:           e.Note,
	}
}

func ToPriceHistoryEntry(e *PriceHistoryEntry) (*recipecost.PriceHistoryEntry, error) {
	id, err := uuid.Parse(e.UUID)
	if err != nil {
		return nil, err
	}
	ingID, err := uuid.Parse(e.IngredientUUID)
	if err != nil {
		return nil, err
	}
	return &recipecost.PriceHistoryEntry{
		UUID:           id,
		IngredientUUID: ingID,
		CostPerUnit:    recipecost.Cents(e.CostPerUnit),
		RecordedAt:     time.UnixMilli(e.DatetimeMs).UTC(),
		Note:           e.Note,
	}, nil
}

func NewLineCost(lc recipecost.LineCost) LineCost {
	return LineCost{
		IngredientUUID: lc.IngredientUUID.String(),
		IngredientName: lc.IngredientName,
		Quantity:       lc.Quantity,
		Unit:           lc.Unit,
		NativeUnit:     lc.NativeUnit,
		Factor:         lc.Factor,
		NativeQuantity: lc.NativeQuantity,
		CostPerUnit:    int64(lc.CostPerUnit),
		Cost:           int64(lc.Cost),
	}
}

func NewDishCost(dc recipecost.DishCost) DishCost {
	out := DishCost{
		DishUUID: dc.DishUUID.String(),
		DishName: dc.DishName,
		Total:    int64(dc.Total),
	}
	for _, lc := range dc.Lines {
		out.Lines = append(out.Lines, NewLineCost(lc))
	}
	if dc.Price != nil {
		p := int64(*dc.Price)
		out.Price = &p
	}
	if dc.Margin != nil {
		out.Margin = &Margin{
			Cents:             int64(dc.Margin.Cents),
			Percent:           dc.Margin.Percent,
			PercentApplicable: dc.Margin.PercentApplicable,
		}
	}
	return out
}

func ToDishCost(dc *DishCost) (recipecost.DishCost, error) {
	dishID, err := uuid.Parse(dc.DishUUID)
	if err != nil {
		return recipecost.DishCost{}, err
	}
	out := recipecost.DishCost{
		DishUUID: dishID,
		DishName: dc.DishName,
		Lines:    make([]recipecost.LineCost, 0, len(dc.Lines)),
		Total:    recipecost.Cents(dc.Total),
	}
	for _, lc := range dc.Lines {
		ingID, err := uuid.Parse(lc.IngredientUUID)
		if err != nil {
			return recipecost.DishCost{}, err
		}
		out.Lines = append(out.Lines, recipecost.LineCost{
			IngredientUUID: ingID,
			IngredientName: lc.IngredientName,
			Quantity:       lc.Quantity,
			Unit:           lc.Unit,
			NativeUnit:     lc.NativeUnit,
			Factor:         lc.Factor,
			NativeQuantity: lc.NativeQuantity,
			CostPerUnit:    recipecost.Cents(lc.CostPerUnit),
			Cost:           recipecost.Cents(lc.Cost),
		})
	}
	if dc.Price != nil {
		p := recipecost.Cents(*dc.Price)
		out.Price = &p
	}
	if dc.Margin != nil {
		out.Margin = &recipecost.Margin{
			Cents:             recipecost.Cents(dc.Margin.Cents),
			Percent:           dc.Margin.Percent,
			PercentApplicable: dc.Margin.PercentApplicable,
		}
	}
	return out, nil
}
