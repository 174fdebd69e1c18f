package duckdb

import (
	"math/big"
	"testing"

	"github.com/marcboeker/go-duckdb"
	"github.com/stretchr/testify/assert"
)

func TestConvertValue(t *testing.T) {
	assert.Equal(t, int64(7), convertValue(big.NewInt(7)))
	assert.Equal(
		t,
		"1 months 2 days 3 microseconds",
		convertValue(duckdb.Interval{Months: 1, Days: 2, Micros: 3}),
	)
	assert.Equal(t, "EU", convertValue("EU"))
	assert.Nil(t, convertValue(nil))
}
