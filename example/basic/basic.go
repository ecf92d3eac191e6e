package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"recipecost"
)

func main() {
	if err := run(context.Background(), "file:recipecost_example.db?cache=shared&mode=rwc", os.Stdout); err != nil {
		panic(err)
	}
}

func run(ctx context.Context, dsn string, w io.Writer) error {
	// Initialize SQLite DB
	db, err := recipecost.OpenDB(ctx, dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	// Seed the default conversion table; reruns only skip
	report, err := recipecost.SeedConversions(ctx, db, recipecost.DefaultConversions())
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "conversions: %d inserted, %d already stored\n", len(report.Inserted), len(report.Skipped))

	// Add a site-specific conversion
	if _, err := recipecost.SeedConversions(ctx, db, []recipecost.UnitConversion{
		{FromUnit: "cup", ToUnit: recipecost.UnitMilliliter, Factor: 240}, // 1 cup = 240 ml
	}); err != nil {
		return err
	}

	restaurant, err := recipecost.EnsureRestaurant(ctx, db, "example", "Corner Bakery")
	if err != nil {
		return err
	}

	// Register ingredients priced in their native units
	flourID, err := recipecost.AddIngredient(ctx, db, &recipecost.Ingredient{
		RestaurantUUID:     restaurant.UUID,
		Name:               "Flour",
		Unit:               recipecost.UnitKilogram,
		CurrentCostPerUnit: 180,
	}, "opening stock")
	if err != nil {
		return err
	}
	milkID, err := recipecost.AddIngredient(ctx, db, &recipecost.Ingredient{
		RestaurantUUID:     restaurant.UUID,
		Name:               "Milk",
		Unit:               recipecost.UnitLiter,
		CurrentCostPerUnit: 120,
	}, "opening stock")
	if err != nil {
		return err
	}

	creamID, err := recipecost.AddIngredient(ctx, db, &recipecost.Ingredient{
		RestaurantUUID:     restaurant.UUID,
		Name:               "Cream",
		Unit:               recipecost.UnitMilliliter,
		CurrentCostPerUnit: 1,
	}, "opening stock")
	if err != nil {
		return err
	}

	price := recipecost.Cents(650)
	dishID, err := recipecost.AddDish(ctx, db, &recipecost.Dish{
		RestaurantUUID: restaurant.UUID,
		Name:           "Pancakes",
		Price:          &price,
		Status:         recipecost.DishStatusLive,
	})
	if err != nil {
		return err
	}

	// Recipe lines use whatever unit the cook thinks in
	for _, line := range []recipecost.RecipeLine{
		{DishUUID: dishID, IngredientUUID: flourID, Quantity: 250, Unit: recipecost.UnitGram},
		{DishUUID: dishID, IngredientUUID: milkID, Quantity: 300, Unit: recipecost.UnitMilliliter},
		{DishUUID: dishID, IngredientUUID: creamID, Quantity: 0.5, Unit: "cup"},
	} {
		if _, err := recipecost.AddDishIngredient(ctx, db, restaurant.UUID, &line); err != nil {
			return err
		}
	}

	dc, err := recipecost.CostDish(ctx, db, restaurant.UUID, dishID)
	if err != nil {
		return err
	}
	for _, lc := range dc.Lines {
		fmt.Fprintf(w, "%-6s %6g %-2s -> %6g %-2s @ %s = %s\n",
			lc.IngredientName, lc.Quantity, lc.Unit, lc.NativeQuantity, lc.NativeUnit, lc.CostPerUnit, lc.Cost)
	}
	fmt.Fprintf(w, "Pancakes cost %s, sell at %s, margin %s (%.1f%%)\n",
		dc.Total, *dc.Price, dc.Margin.Cents, dc.Margin.Percent)

	// The same costing without a database
	reg, _ := recipecost.NewRegistryFromConversions(recipecost.DefaultConversions())
	engine := recipecost.NewEngine(reg)
	butter := recipecost.Ingredient{Name: "Butter", Unit: recipecost.UnitPound, CurrentCostPerUnit: 450}
	lc, err := engine.CostOfLine(recipecost.LineInput{Ingredient: butter, Quantity: 4, Unit: recipecost.UnitOunce})
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "4 oz of butter costs %s\n", lc.Cost)
	return nil
}
