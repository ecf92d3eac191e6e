package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"recipecost"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCommands(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "recipecost.db")
	common := []string{"--db", dbPath, "--log-level", "error", "--restaurant", "chef"}

	out, err := execute(t, append([]string{"seed"}, common...)...)
	require.NoError(t, err)
	assert.Equal(t, "inserted 20, skipped 0, rejected 0\n", out)

	out, err = execute(t, append([]string{"seed"}, common...)...)
	require.NoError(t, err)
	assert.Equal(t, "inserted 0, skipped 20, rejected 0\n", out)

	out, err = execute(t, append([]string{"factor", "kg", "g"}, common...)...)
	require.NoError(t, err)
	assert.Equal(t, "1 kg = 1000 g\n", out)

	_, err = execute(t, append([]string{"factor", "cup", "g"}, common...)...)
	assert.ErrorIs(t, err, recipecost.ErrConversionNotFound)

	ctx := context.Background()
	db, err := recipecost.OpenDB(ctx, dbPath)
	require.NoError(t, err)
	r, err := recipecost.EnsureRestaurant(ctx, db, "chef", "")
	require.NoError(t, err)
	flourID, err := recipecost.AddIngredient(ctx, db, &recipecost.Ingredient{RestaurantUUID: r.UUID, Name: "Flour", Unit: "kg", CurrentCostPerUnit: 200}, "")
	require.NoError(t, err)
	price := recipecost.Cents(1000)
	dishID, err := recipecost.AddDish(ctx, db, &recipecost.Dish{RestaurantUUID: r.UUID, Name: "Bread", Price: &price})
	require.NoError(t, err)
	_, err = recipecost.AddDishIngredient(ctx, db, r.UUID, &recipecost.RecipeLine{DishUUID: dishID, IngredientUUID: flourID, Quantity: 500, Unit: "g"})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	out, err = execute(t, append([]string{"cost", dishID.String()}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Bread")
	assert.Contains(t, out, "Flour")
	assert.Contains(t, out, "0.5 kg")
	assert.Contains(t, out, "9.00 (90.00%)")

	_, err = execute(t, append([]string{"cost", "not-a-uuid"}, common...)...)
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		logger, err := newLogger(level)
		require.NoError(t, err, level)
		assert.NotNil(t, logger)
	}
	_, err := newLogger("loud")
	assert.Error(t, err)
}
