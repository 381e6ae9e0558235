package feature

import (
	"github.com/davidleathers/fraud-scoring-backend/internal/domain/transaction"
)

func (c *Computer) computeAmount(features map[string]float64, txn *transaction.Transaction, sig RawSignals) {
	amount := float64(txn.Amount.MinorUnits())
	a := sig.Amount

	// Without qualifying history the current amount stands in for the
	// 7d average and 30d max, which pins ratio to 1.0 and z-score to 0.
	avg7d := amount
	if a.AvgAmount7d != nil && *a.AvgAmount7d > 0 {
		avg7d = *a.AvgAmount7d
	}
	stddev7d := 0.0
	if a.StddevAmount7d != nil {
		stddev7d = *a.StddevAmount7d
	}
	max30d := amount
	if a.MaxAmount30d != nil && *a.MaxAmount30d > 0 {
		max30d = *a.MaxAmount30d
	}

	ratio := 1.0
	if avg7d > 0 {
		ratio = amount / avg7d
	}
	zscore := 0.0
	if stddev7d > 0 {
		zscore = (amount - avg7d) / stddev7d
	}
	percentile := 0.5
	if a.Percentile != nil {
		percentile = *a.Percentile
	}

	features[AvgAmount7d] = avg7d
	features[StddevAmount7d] = stddev7d
	features[MaxAmount30d] = max30d
	features[AmountRatioToAvg] = ratio
	features[AmountZScore] = zscore
	features[RoundAmount] = boolToFloat(txn.Amount.IsRound())
	features[HighValueFlag] = boolToFloat(txn.Amount.Exceeds(c.lists.HighValueThreshold))
	features[AmountPercentile] = percentile
}
