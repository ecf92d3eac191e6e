package recipecost

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCents_String(t *testing.T) {
	assert.Equal(t, "12.50", Cents(1250).String())
	assert.Equal(t, "0.05", Cents(5).String())
	assert.Equal(t, "-0.05", Cents(-5).String())
	assert.Equal(t, "0.00", Cents(0).String())
}

func TestNewCentsFromStr(t *testing.T) {
	tests := []struct {
		input    string
		expected Cents
		wantErr  bool
	}{
		{input: "12.50", expected: 1250},
		{input: "12.5", expected: 1250},
		{input: "3", expected: 300},
		{input: "0.07", expected: 7},
		{input: "12.505", wantErr: true},
		{input: "abc", wantErr: true},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			c, err := NewCentsFromStr(test.input)
			if test.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.expected, c)
		})
	}
}

func TestCents_Scan(t *testing.T) {
	var c Cents
	require.NoError(t, c.Scan(int64(420)))
	assert.Equal(t, Cents(420), c)
	assert.Error(t, c.Scan("420"))

	v, err := c.Value()
	require.NoError(t, err)
	assert.Equal(t, int64(420), v)
}
