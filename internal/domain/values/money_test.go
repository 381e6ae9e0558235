package values

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	tests := []struct {
		name       string
		minorUnits int64
		currency   string
		wantErr    bool
		errMsg     string
	}{
		{
			name:       "valid USD amount",
			minorUnits: 500000,
			currency:   "USD",
			wantErr:    false,
		},
		{
			name:       "zero amount is valid",
			minorUnits: 0,
			currency:   "EUR",
			wantErr:    false,
		},
		{
			name:       "negative amount allowed for adjustments",
			minorUnits: -1500,
			currency:   "USD",
			wantErr:    false,
		},
		{
			name:       "lowercase currency normalized",
			minorUnits: 100,
			currency:   "usd",
			wantErr:    false,
		},
		{
			name:       "empty currency",
			minorUnits: 100,
			currency:   "",
			wantErr:    true,
			errMsg:     "currency cannot be empty",
		},
		{
			name:       "invalid currency length",
			minorUnits: 100,
			currency:   "US",
			wantErr:    true,
			errMsg:     "currency code must be 3 characters",
		},
		{
			name:       "unsupported currency",
			minorUnits: 100,
			currency:   "XXX",
			wantErr:    true,
			errMsg:     "unsupported currency",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMoney(tt.minorUnits, tt.currency)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.minorUnits, m.MinorUnits())
			assert.Equal(t, "USD", MustNewMoney(1, "usd").Currency())
		})
	}
}

func TestMoney_Decimal(t *testing.T) {
	m := MustNewMoney(500000, "USD")
	assert.Equal(t, "5000.00 USD", m.String())
	assert.Equal(t, "5000", m.Decimal().String())
}

func TestMoney_IsRound(t *testing.T) {
	assert.True(t, MustNewMoney(500000, "USD").IsRound())
	assert.True(t, MustNewMoney(0, "USD").IsRound())
	assert.False(t, MustNewMoney(500099, "USD").IsRound())
	assert.False(t, MustNewMoney(50, "USD").IsRound())
}

func TestMoney_Exceeds(t *testing.T) {
	highValue := int64(1000000)
	assert.False(t, MustNewMoney(1000000, "USD").Exceeds(highValue), "threshold is exclusive")
	assert.True(t, MustNewMoney(1000001, "USD").Exceeds(highValue))
	assert.False(t, MustNewMoney(999999, "USD").Exceeds(highValue))
}

func TestMoney_Add(t *testing.T) {
	a := MustNewMoney(1000, "USD")
	b := MustNewMoney(250, "USD")

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, int64(1250), sum.MinorUnits())

	_, err = a.Add(MustNewMoney(100, "EUR"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot add different currencies")
}

func TestMoney_JSON(t *testing.T) {
	m := MustNewMoney(123456, "GBP")

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":123456,"currency":"GBP"}`, string(data))

	var decoded Money
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, m.Equal(decoded))
}
