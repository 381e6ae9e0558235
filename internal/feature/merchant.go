package feature

import "strings"

func (c *Computer) computeMerchantRisk(features map[string]float64, sig RawSignals) {
	m := sig.Merchant

	ageDays := int64(0)
	if m.MerchantAgeDays != nil {
		ageDays = *m.MerchantAgeDays
	}

	industry := strings.ToLower(m.Industry)
	industryRisk := 0.0
	switch {
	case c.lists.HighRiskIndustries[industry]:
		industryRisk = 2
	case c.lists.MediumRiskIndustries[industry]:
		industryRisk = 1
	}

	features[MerchantAgeDays] = float64(ageDays)
	features[MerchantDisputeRate30d] = m.DisputeRate30d
	features[MerchantChargebackRate] = m.ChargebackRate
	features[MerchantAvgTicket] = m.AvgTicket
	features[MerchantIndustryRisk] = industryRisk
}
