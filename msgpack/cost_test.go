package recipecostmsgpack

import (
	"recipecost"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func TestDishCost_OverTheWire(t *testing.T) {
	price := recipecost.Cents(0)
	dc := recipecost.DishCost{
		DishUUID: uuid.New(),
		DishName: "Water",
		Lines: []recipecost.LineCost{{
			IngredientUUID: uuid.New(),
			IngredientName: "Tap water",
			Quantity:       250,
			Unit:           "ml",
			NativeUnit:     "l",
			Factor:         0.001,
			NativeQuantity: 0.25,
			CostPerUnit:    2,
			Cost:           0,
		}},
		Price:  &price,
		Margin: &recipecost.Margin{Cents: 0, PercentApplicable: false},
	}

	data, err := msgpack.Marshal(NewDishCost(dc))
	require.NoError(t, err)
	var wire DishCost
	require.NoError(t, msgpack.Unmarshal(data, &wire))

	got, err := ToDishCost(&wire)
	require.NoError(t, err)
	assert.Equal(t, dc, got)
}

func TestToDishCost_BadUUID(t *testing.T) {
	_, err := ToDishCost(&DishCost{DishUUID: "x"})
	assert.Error(t, err)

	_, err = ToDishCost(&DishCost{DishUUID: uuid.NewString(), Lines: []LineCost{{IngredientUUID: ""}}})
	assert.Error(t, err)
}

func TestNewSeedReport_CarriesRejectionReason(t *testing.T) {
	_, report := recipecost.NewRegistryFromConversions([]recipecost.UnitConversion{
		{FromUnit: "kg", ToUnit: "g", Factor: 1000},
		{FromUnit: "kg", ToUnit: "g", Factor: 999},
		{FromUnit: "g", ToUnit: "", Factor: 1},
	})

	wire := NewSeedReport(report)
	assert.Equal(t, []ConversionEdge{{FromUnit: "kg", ToUnit: "g", Factor: 1000}}, wire.Inserted)
	assert.Equal(t, []ConversionEdge{{FromUnit: "kg", ToUnit: "g", Factor: 999}}, wire.Skipped)
	require.Len(t, wire.Rejected, 1)
	assert.Contains(t, wire.Rejected[0].Error, "empty unit")
}
