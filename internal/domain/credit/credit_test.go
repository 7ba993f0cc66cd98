package credit

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func TestApply(t *testing.T) {
	t.Run("single credit offsets the charge", func(t *testing.T) {
		result := Apply(decimal.RequireFromString("139500"), []Credit{
			{CreditID: "cr-1", Type: CreditTypeFree, Balance: decimal.NewFromInt(20000)},
		}, now)

		assert.Equal(t, "119500.00", result.FinalAmount.StringFixed(2))
		assert.Equal(t, "20000.00", result.AppliedTotal.StringFixed(2))
		require.Len(t, result.Applications, 1)
		assert.Equal(t, "cr-1", result.Applications[0].CreditID)
	})

	t.Run("free and promotional credits are spent before paid", func(t *testing.T) {
		result := Apply(decimal.NewFromInt(100), []Credit{
			{CreditID: "paid", Type: CreditTypePaid, Balance: decimal.NewFromInt(100)},
			{CreditID: "free", Type: CreditTypeFree, Balance: decimal.NewFromInt(60)},
			{CreditID: "promo", Type: CreditTypePromotional, Balance: decimal.NewFromInt(30)},
		}, now)

		require.Len(t, result.Applications, 3)
		assert.Equal(t, "free", result.Applications[0].CreditID)
		assert.Equal(t, "promo", result.Applications[1].CreditID)
		assert.Equal(t, "paid", result.Applications[2].CreditID)
		assert.Equal(t, "10", result.Applications[2].Applied.String())
		assert.True(t, result.FinalAmount.IsZero())
	})

	t.Run("charge never goes negative", func(t *testing.T) {
		result := Apply(decimal.NewFromInt(50), []Credit{
			{CreditID: "cr-1", Type: CreditTypeFree, Balance: decimal.NewFromInt(500)},
		}, now)

		assert.True(t, result.FinalAmount.IsZero())
		assert.Equal(t, "50.00", result.AppliedTotal.StringFixed(2))
	})

	t.Run("expired credits are skipped", func(t *testing.T) {
		expired := now.Add(-time.Hour)
		result := Apply(decimal.NewFromInt(100), []Credit{
			{CreditID: "old", Type: CreditTypeFree, Balance: decimal.NewFromInt(100), ExpiresAt: &expired},
		}, now)

		assert.Equal(t, "100.00", result.FinalAmount.StringFixed(2))
		assert.Empty(t, result.Applications)
	})

	t.Run("zero and negative balances are skipped", func(t *testing.T) {
		result := Apply(decimal.NewFromInt(100), []Credit{
			{CreditID: "empty", Type: CreditTypeFree, Balance: decimal.Zero},
			{CreditID: "bogus", Type: CreditTypeFree, Balance: decimal.NewFromInt(-10)},
		}, now)

		assert.Equal(t, "100.00", result.FinalAmount.StringFixed(2))
		assert.Empty(t, result.Applications)
	})

	t.Run("no credits leaves the charge unchanged", func(t *testing.T) {
		result := Apply(decimal.RequireFromString("42.42"), nil, now)
		assert.Equal(t, "42.42", result.FinalAmount.StringFixed(2))
	})
}
