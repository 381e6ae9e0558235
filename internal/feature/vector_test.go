package feature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssembleVector(t *testing.T) {
	t.Run("empty map yields the zero vector", func(t *testing.T) {
		vec := AssembleVector(nil)
		require.Len(t, vec, Count)

		for i, v := range vec {
			assert.Zero(t, v, "position %d", i)
		}

		// Missing entries never take a sentinel, only zero. Sentinel
		// values like days_since_last_transaction=9999 come out of the
		// feature computer, not out of vector assembly.
		assert.Zero(t, vec[9], "amount_ratio_to_avg")
		assert.Zero(t, vec[31], "days_since_last_transaction")
	})

	t.Run("values placed in catalog order", func(t *testing.T) {
		vec := AssembleVector(map[string]float64{
			TransactionCount1h:      12,
			AmountZScore:            3.4,
			ShippingAddressMismatch: 1,
		})

		assert.Equal(t, 12.0, vec[0])
		assert.Equal(t, 3.4, vec[10])
		assert.Equal(t, 1.0, vec[44])
	})

	t.Run("unknown names ignored", func(t *testing.T) {
		vec := AssembleVector(map[string]float64{"made_up_feature": 99})
		require.Len(t, vec, Count)
		for _, v := range vec {
			assert.NotEqual(t, 99.0, v)
		}
	})
}

func TestNormalize(t *testing.T) {
	in := map[string]float64{
		TransactionCount1h: 5,
		"made_up_feature":  99,
	}
	out := Normalize(in)

	require.Len(t, out, Count)
	assert.Equal(t, 5.0, out[TransactionCount1h])
	assert.Zero(t, out[AmountRatioToAvg])
	assert.Zero(t, out[DaysSinceLastTransaction])

	_, leaked := out["made_up_feature"]
	assert.False(t, leaked)

	// input untouched
	assert.Len(t, in, 2)
}
