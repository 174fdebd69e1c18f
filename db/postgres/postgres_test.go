package postgres

import (
	"math/big"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertValue(t *testing.T) {
	var numeric pgtype.Numeric
	require.NoError(t, numeric.Scan("12.5"))

	id := uuid.MustParse("7f0c8c1e-2b1d-4c1a-9f3e-6a1b2c3d4e5f")
	hugeInt, _ := new(big.Int).SetString("123456789012345678901234567890", 10)

	tests := []struct {
		name     string
		value    any
		expected any
	}{
		{"numeric", numeric, 12.5},
		{"null numeric", pgtype.Numeric{}, nil},
		{"uuid", [16]byte(id), id.String()},
		{"small big int", big.NewInt(42), int64(42)},
		{"huge big int", hugeInt, "123456789012345678901234567890"},
		{
			"time of day",
			pgtype.Time{Microseconds: int64(90 * time.Minute / time.Microsecond), Valid: true},
			"1h30m0s",
		},
		{
			"interval",
			pgtype.Interval{Months: 1, Days: 2, Microseconds: 3_000_000, Valid: true},
			"1 months 2 days 3s",
		},
		{"text", "EU", "EU"},
		{"null", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, convertValue(tt.value))
		})
	}
}
