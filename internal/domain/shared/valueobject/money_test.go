package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrency(t *testing.T) {
	t.Run("supported currencies are valid", func(t *testing.T) {
		for _, c := range SupportedCurrencies() {
			assert.True(t, c.IsValid(), "expected %s to be valid", c)
		}
	})

	t.Run("unknown currency is invalid", func(t *testing.T) {
		assert.False(t, Currency("GBP").IsValid())
		assert.False(t, Currency("").IsValid())
	})

	t.Run("zero decimal currencies", func(t *testing.T) {
		assert.Equal(t, int32(0), KRW.DecimalPlaces())
		assert.Equal(t, int32(0), JPY.DecimalPlaces())
		assert.Equal(t, int32(2), USD.DecimalPlaces())
		assert.Equal(t, int32(2), EUR.DecimalPlaces())
	})
}

func TestRoundAmount(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"half rounds up", "10.005", "10.01"},
		{"below half rounds down", "10.004", "10"},
		{"already at scale", "10.01", "10.01"},
		{"integer unchanged", "100", "100"},
		{"negative half away from zero", "-10.005", "-10.01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := decimal.RequireFromString(tt.input)
			assert.True(t, RoundAmount(d).Equal(decimal.RequireFromString(tt.expected)),
				"RoundAmount(%s) = %s", tt.input, RoundAmount(d))
		})
	}

	t.Run("idempotent", func(t *testing.T) {
		for _, s := range []string{"333.333", "0.005", "99.999", "-1.115", "1234567.891"} {
			once := RoundAmount(decimal.RequireFromString(s))
			twice := RoundAmount(once)
			assert.True(t, once.Equal(twice), "rounding %s twice changed the value", s)
		}
	})
}

func TestMoney(t *testing.T) {
	t.Run("create money", func(t *testing.T) {
		m, err := NewMoney(decimal.NewFromInt(1000), KRW)
		require.NoError(t, err)
		assert.True(t, m.Amount().Equal(decimal.NewFromInt(1000)))
		assert.Equal(t, KRW, m.Currency())
	})

	t.Run("empty currency rejected", func(t *testing.T) {
		_, err := NewMoney(decimal.NewFromInt(1000), "")
		assert.Error(t, err)
	})

	t.Run("from string", func(t *testing.T) {
		m, err := NewMoneyFromString("99.99", USD)
		require.NoError(t, err)
		assert.True(t, m.Amount().Equal(decimal.RequireFromString("99.99")))

		_, err = NewMoneyFromString("not-a-number", USD)
		assert.Error(t, err)
	})

	t.Run("add same currency", func(t *testing.T) {
		a := NewMoneyKRW(decimal.NewFromInt(1000))
		b := NewMoneyKRW(decimal.NewFromInt(500))
		sum, err := a.Add(b)
		require.NoError(t, err)
		assert.True(t, sum.Amount().Equal(decimal.NewFromInt(1500)))
	})

	t.Run("add different currency fails", func(t *testing.T) {
		a := NewMoneyKRW(decimal.NewFromInt(1000))
		b, _ := NewMoney(decimal.NewFromInt(10), USD)
		_, err := a.Add(b)
		assert.Error(t, err)
	})

	t.Run("subtract", func(t *testing.T) {
		a := NewMoneyKRW(decimal.NewFromInt(1000))
		b := NewMoneyKRW(decimal.NewFromInt(300))
		diff, err := a.Subtract(b)
		require.NoError(t, err)
		assert.True(t, diff.Amount().Equal(decimal.NewFromInt(700)))
	})

	t.Run("multiply and round", func(t *testing.T) {
		m := NewMoneyKRW(decimal.RequireFromString("333.33"))
		result := m.Multiply(decimal.RequireFromString("0.075")).Round()
		assert.True(t, result.Amount().Equal(decimal.RequireFromString("25.00")),
			"got %s", result.Amount())
	})

	t.Run("immutability", func(t *testing.T) {
		original := NewMoneyKRW(decimal.NewFromInt(100))
		_ = original.Multiply(decimal.NewFromInt(5))
		assert.True(t, original.Amount().Equal(decimal.NewFromInt(100)))
	})

	t.Run("equals", func(t *testing.T) {
		a := NewMoneyKRW(decimal.NewFromInt(100))
		b := NewMoneyKRW(decimal.NewFromInt(100))
		c, _ := NewMoney(decimal.NewFromInt(100), USD)
		assert.True(t, a.Equals(b))
		assert.False(t, a.Equals(c))
	})

	t.Run("json round trip", func(t *testing.T) {
		m, _ := NewMoney(decimal.RequireFromString("131450"), KRW)
		data, err := json.Marshal(m)
		require.NoError(t, err)

		var decoded Money
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.True(t, m.Equals(decoded))
	})

	t.Run("zero", func(t *testing.T) {
		z := Zero(EUR)
		assert.True(t, z.IsZero())
		assert.False(t, z.IsNegative())
		assert.False(t, z.IsPositive())
		assert.Equal(t, EUR, z.Currency())
		assert.True(t, NewMoneyKRW(decimal.NewFromInt(1)).IsPositive())
	})
}
