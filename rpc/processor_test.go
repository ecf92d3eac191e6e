package recipecostrpc

import (
	"context"
	"database/sql"
	"fmt"
	"recipecost"
	recipecostmsgpack "recipecost/msgpack"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := recipecost.OpenDB(context.Background(), fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func process(t *testing.T, p *ServerProcessor, function string, arg any) *Packet {
	t.Helper()
	req, err := NewRequest(function, arg)
	require.NoError(t, err)
	resp := p.ProcessPkt(context.Background(), req)
	assert.Equal(t, req.UUID(), resp.UUID())
	return resp
}

func TestProcessPkt_RequestErrors(t *testing.T) {
	p := NewServerProcessor(openTestDB(t), nil)

	resp := p.ProcessPkt(context.Background(), &Packet{H: map[string][]byte{}})
	assert.Equal(t, CodeNoFunc, resp.Code())

	resp = process(t, p, "DropTables", recipecostmsgpack.ConversionEdge{})
	assert.Equal(t, CodeNoSuchFunc, resp.Code())

	resp = process(t, p, FuncGetConversionFactor, nil)
	assert.Equal(t, CodeNoArg, resp.Code())

	req, err := NewRequest(FuncGetConversionFactor, nil)
	require.NoError(t, err)
	req.B[BodyArg] = []byte{0xc1}
	resp = p.ProcessPkt(context.Background(), req)
	assert.Equal(t, CodeUnmarshal, resp.Code())

	resp = process(t, p, FuncCostDish, CostDishRequest{RestaurantUUID: "nope", DishUUID: uuid.NewString()})
	assert.Equal(t, CodeUnmarshal, resp.Code())
}

func TestProcessPkt_Conversions(t *testing.T) {
	p := NewServerProcessor(openTestDB(t), nil)

	resp := process(t, p, FuncGetConversionFactor, recipecostmsgpack.ConversionEdge{FromUnit: "cup", ToUnit: "g"})
	assert.Equal(t, CodeConversionNotFound, resp.Code())
	assert.Equal(t, "no conversion from cup to g", resp.Message())
	assert.ErrorIs(t, ResponseError(resp), recipecost.ErrConversionNotFound)

	resp = process(t, p, FuncSeedConversions, []recipecostmsgpack.ConversionEdge{
		{FromUnit: "kg", ToUnit: "g", Factor: 1000},
		{FromUnit: "g", ToUnit: "kg", Factor: -1},
	})
	require.Equal(t, CodeOK, resp.Code(), resp.Message())
	var report recipecostmsgpack.SeedReport
	require.NoError(t, resp.DecodeBody("report", &report))
	assert.Len(t, report.Inserted, 1)
	require.Len(t, report.Rejected, 1)
	assert.Contains(t, report.Rejected[0].Error, "must be positive")

	resp = process(t, p, FuncGetConversionFactor, recipecostmsgpack.ConversionEdge{FromUnit: "kg", ToUnit: "g"})
	require.Equal(t, CodeOK, resp.Code(), resp.Message())
	var factor float64
	require.NoError(t, resp.DecodeBody("factor", &factor))
	assert.Equal(t, 1000.0, factor)
}

func TestProcessPkt_CostDish(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	p := NewServerProcessor(db, nil)

	_, err := recipecost.SeedConversions(ctx, db, recipecost.DefaultConversions())
	require.NoError(t, err)
	r, err := recipecost.EnsureRestaurant(ctx, db, "owner", "Bistro")
	require.NoError(t, err)
	flourID, err := recipecost.AddIngredient(ctx, db, &recipecost.Ingredient{RestaurantUUID: r.UUID, Name: "Flour", Unit: "kg", CurrentCostPerUnit: 200}, "")
	require.NoError(t, err)
	sugarID, err := recipecost.AddIngredient(ctx, db, &recipecost.Ingredient{RestaurantUUID: r.UUID, Name: "Sugar", Unit: "g", CurrentCostPerUnit: 1}, "")
	require.NoError(t, err)
	price := recipecost.Cents(1000)
	breadID, err := recipecost.AddDish(ctx, db, &recipecost.Dish{RestaurantUUID: r.UUID, Name: "Bread", Price: &price})
	require.NoError(t, err)
	_, err = recipecost.AddDishIngredient(ctx, db, r.UUID, &recipecost.RecipeLine{DishUUID: breadID, IngredientUUID: flourID, Quantity: 500, Unit: "g"})
	require.NoError(t, err)
	cookieID, err := recipecost.AddDish(ctx, db, &recipecost.Dish{RestaurantUUID: r.UUID, Name: "Cookie"})
	require.NoError(t, err)
	_, err = recipecost.AddDishIngredient(ctx, db, r.UUID, &recipecost.RecipeLine{DishUUID: cookieID, IngredientUUID: sugarID, Quantity: 1, Unit: "cup"})
	require.NoError(t, err)

	resp := process(t, p, FuncCostDish, CostDishRequest{RestaurantUUID: r.UUID.String(), DishUUID: breadID.String()})
	require.Equal(t, CodeOK, resp.Code(), resp.Message())
	var wire recipecostmsgpack.DishCost
	require.NoError(t, resp.DecodeBody("cost", &wire))
	assert.Equal(t, int64(100), wire.Total)
	require.NotNil(t, wire.Margin)
	assert.Equal(t, int64(900), wire.Margin.Cents)
	assert.Equal(t, 90.0, wire.Margin.Percent)

	resp = process(t, p, FuncCostDish, CostDishRequest{RestaurantUUID: r.UUID.String(), DishUUID: cookieID.String()})
	assert.Equal(t, CodeIncompatibleUnits, resp.Code())
	assert.Contains(t, resp.Message(), "no conversion from cup to g")

	resp = process(t, p, FuncCostDish, CostDishRequest{RestaurantUUID: uuid.NewString(), DishUUID: breadID.String()})
	assert.Equal(t, CodeNotFound, resp.Code())

	resp = process(t, p, FuncRecordIngredientPrice, recipecostmsgpack.PriceChange{
		RestaurantUUID: r.UUID.String(), IngredientUUID: flourID.String(), CostPerUnit: 400, Note: "new supplier",
	})
	require.Equal(t, CodeOK, resp.Code(), resp.Message())
	var entry recipecostmsgpack.PriceHistoryEntry
	require.NoError(t, resp.DecodeBody("entry", &entry))
	assert.Equal(t, int64(400), entry.CostPerUnit)
	assert.Equal(t, "new supplier", entry.Note)

	resp = process(t, p, FuncRecordIngredientPrice, recipecostmsgpack.PriceChange{
		RestaurantUUID: r.UUID.String(), IngredientUUID: flourID.String(), CostPerUnit: -5,
	})
	assert.Equal(t, CodeInvalidInput, resp.Code())
}
