package recipecost

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_IdentityWithoutEdges(t *testing.T) {
	reg := NewRegistry()
	for _, unit := range []string{"g", "kg", "piece", "cup", "anything"} {
		f, err := reg.Factor(unit, unit)
		require.NoError(t, err)
		assert.Equal(t, 1.0, f, unit)
	}
	assert.Equal(t, 0, reg.Len())
}

func TestRegistry_IdentityIgnoresStoredEdge(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.UpsertEdge("g", "g", 2)
	require.NoError(t, err)

	f, err := reg.Factor("g", "g")
	require.NoError(t, err)
	assert.Equal(t, 1.0, f)
}

func TestRegistry_NoImplicitInversion(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.UpsertEdge("kg", "g", 1000)
	require.NoError(t, err)

	f, err := reg.Factor("kg", "g")
	require.NoError(t, err)
	assert.Equal(t, 1000.0, f)

	_, err = reg.Factor("g", "kg")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConversionNotFound)

	var notFound *ConversionNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "g", notFound.From)
	assert.Equal(t, "kg", notFound.To)
	assert.Equal(t, "no conversion from g to kg", err.Error())
}

func TestRegistry_NoImplicitTransitivity(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.UpsertEdge("lb", "oz", 16)
	require.NoError(t, err)
	_, err = reg.UpsertEdge("oz", "g", 28.35)
	require.NoError(t, err)

	_, err = reg.Factor("lb", "g")
	assert.ErrorIs(t, err, ErrConversionNotFound)
}

func TestRegistry_FirstWriteWins(t *testing.T) {
	reg := NewRegistry()

	inserted, err := reg.UpsertEdge("kg", "g", 1000)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = reg.UpsertEdge("kg", "g", 1000)
	require.NoError(t, err)
	assert.False(t, inserted)

	inserted, err = reg.UpsertEdge("kg", "g", 999)
	require.NoError(t, err)
	assert.False(t, inserted)

	assert.Equal(t, 1, reg.Len())
	f, err := reg.Factor("kg", "g")
	require.NoError(t, err)
	assert.Equal(t, 1000.0, f)
}

func TestRegistry_RejectsBadFactor(t *testing.T) {
	tests := []struct {
		name   string
		factor float64
	}{
		{name: "zero", factor: 0},
		{name: "negative", factor: -1},
		{name: "nan", factor: math.NaN()},
		{name: "positive infinity", factor: math.Inf(1)},
		{name: "negative infinity", factor: math.Inf(-1)},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			reg := NewRegistry()
			inserted, err := reg.UpsertEdge("a", "b", test.factor)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.False(t, inserted)
			assert.Equal(t, 0, reg.Len())
		})
	}
}

func TestRegistry_RejectsMalformedUnit(t *testing.T) {
	tests := []struct {
		name string
		from string
		to   string
	}{
		{name: "empty from", from: "", to: "g"},
		{name: "empty to", from: "g", to: ""},
		{name: "padded", from: " g", to: "kg"},
		{name: "control character", from: "g\n", to: "kg"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			reg := NewRegistry()
			_, err := reg.UpsertEdge(test.from, test.to, 1)
			assert.ErrorIs(t, err, ErrInvalidInput)

			_, err = reg.Factor(test.from, test.to)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestRegistry_SeedKeepsGoodRows(t *testing.T) {
	reg, report := NewRegistryFromConversions([]UnitConversion{
		{FromUnit: "kg", ToUnit: "g", Factor: 1000},
		{FromUnit: "g", ToUnit: "kg", Factor: 0},
		{FromUnit: "kg", ToUnit: "g", Factor: 5},
		{FromUnit: "l", ToUnit: "ml", Factor: 1000},
	})

	assert.Len(t, report.Inserted, 2)
	assert.Len(t, report.Skipped, 1)
	require.Len(t, report.Rejected, 1)
	assert.Equal(t, "g", report.Rejected[0].Conversion.FromUnit)
	assert.ErrorIs(t, report.Rejected[0].Err, ErrInvalidInput)

	assert.Equal(t, []UnitConversion{
		{FromUnit: "kg", ToUnit: "g", Factor: 1000},
		{FromUnit: "l", ToUnit: "ml", Factor: 1000},
	}, reg.Edges())
}

func TestRegistry_DefaultConversions(t *testing.T) {
	reg, report := NewRegistryFromConversions(DefaultConversions())
	assert.Empty(t, report.Rejected)
	assert.Empty(t, report.Skipped)
	assert.Equal(t, 20, reg.Len())

	tests := []struct {
		from     string
		to       string
		expected float64
	}{
		{from: "oz", to: "g", expected: 28.35},
		{from: "lb", to: "kg", expected: 0.453592},
		{from: "l", to: "ml", expected: 1000},
		{from: "piece", to: "piece", expected: 1},
	}
	for _, test := range tests {
		f, err := reg.Factor(test.from, test.to)
		require.NoError(t, err)
		assert.Equal(t, test.expected, f, "%s->%s", test.from, test.to)
	}

	_, err := reg.Factor("piece", "g")
	assert.ErrorIs(t, err, ErrConversionNotFound)
	_, err = reg.Factor("l", "g")
	assert.ErrorIs(t, err, ErrConversionNotFound)
}

func TestRegistry_ConcurrentLookups(t *testing.T) {
	reg, _ := NewRegistryFromConversions(DefaultConversions())

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f, err := reg.Factor("kg", "g")
			if err != nil {
				errs <- err
				return
			}
			if f != 1000 {
				errs <- assert.AnError
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
