package feature

func (c *Computer) computeVelocity(features map[string]float64, sig RawSignals) {
	v := sig.Velocity
	features[TransactionCount1h] = float64(v.Count1h)
	features[TransactionCount24h] = float64(v.Count24h)
	features[TransactionCount7d] = float64(v.Count7d)
	features[TransactionCount30d] = float64(v.Count30d)
	features[UniqueCards30d] = float64(v.UniqueCards30d)
	features[UniqueMerchants30d] = float64(v.UniqueMerchants30d)
}
