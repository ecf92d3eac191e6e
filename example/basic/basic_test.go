package main

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	var out bytes.Buffer
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	require.NoError(t, run(context.Background(), dsn, &out))

	assert.Contains(t, out.String(), "conversions: 20 inserted, 0 already stored")
	// 0.5 cup of cream is priced through the cup->ml row
	assert.Contains(t, out.String(), "Cream     0.5 cup ->    120 ml @ 0.01 = 1.20")
	assert.Contains(t, out.String(), "Pancakes cost 2.01, sell at 6.50, margin 4.49 (69.1%)")
	assert.Contains(t, out.String(), "4 oz of butter costs 1.12")
}
