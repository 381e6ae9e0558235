package feature

func (c *Computer) computeCustomerHistory(features map[string]float64, sig RawSignals) {
	h := sig.Customer

	ageDays := int64(0)
	if h.CustomerAgeDays != nil {
		ageDays = *h.CustomerAgeDays
	}

	successRate := 0.0
	if h.TotalTransactions > 0 {
		successRate = float64(h.SuccessCount) / float64(h.TotalTransactions)
	}

	daysSinceLast := int64(9999)
	if h.DaysSinceLast != nil {
		daysSinceLast = *h.DaysSinceLast
	}

	avgPerMonth := 0.0
	if ageDays > 0 {
		avgPerMonth = float64(h.TotalTransactions) / (float64(ageDays) / 30)
	}

	features[CustomerAgeDays] = float64(ageDays)
	features[FirstTransactionCustomer] = boolToFloat(h.TotalTransactions == 0)
	features[CustomerDisputeHistory] = float64(h.DisputeCount)
	features[CustomerSuccessRate] = successRate
	features[DaysSinceLastTransaction] = float64(daysSinceLast)
	features[CustomerLifetimeValue] = h.LifetimeValue
	features[AvgTransactionPerMonth] = avgPerMonth
	features[ChargebackRate30d] = h.ChargebackRate30d
}
