package scoring

import (
	"github.com/davidleathers/fraud-scoring-backend/internal/feature"
)

const maxReasons = 5

const fallbackReason = "Pattern analysis indicates elevated risk"

type reasonRule struct {
	text    string
	matches func(features map[string]float64) bool
}

// reasonRules is evaluated in priority order; the first five matches
// win. The order is part of the engine contract — analysts triage on
// the leading reason.
var reasonRules = []reasonRule{
	{
		text:    "High transaction velocity (>10 in 1 hour)",
		matches: greaterThan(feature.TransactionCount1h, 10),
	},
	{
		text:    "Card country doesn't match IP country",
		matches: flagSet(feature.CardCountryMismatch),
	},
	{
		text:    "IP country doesn't match billing country",
		matches: flagSet(feature.IPCountryMismatch),
	},
	{
		text:    "Impossible travel velocity detected",
		matches: greaterThan(feature.VelocityKmPerHour, 500),
	},
	{
		text:    "New device fingerprint",
		matches: flagSet(feature.DeviceFingerprintNew),
	},
	{
		text:    "Disposable email domain",
		matches: flagSet(feature.EmailDomainDisposable),
	},
	{
		text:    "First transaction for customer",
		matches: flagSet(feature.FirstTransactionCustomer),
	},
	{
		text:    "Customer has dispute history",
		matches: greaterThan(feature.CustomerDisputeHistory, 0),
	},
	{
		text:    "High transaction amount (>$10,000)",
		matches: flagSet(feature.HighValueFlag),
	},
	{
		text:    "Transaction amount significantly above customer average",
		matches: greaterThan(feature.AmountZScore, 3),
	},
	{
		text:    "Transaction from high-risk country",
		matches: flagSet(feature.HighRiskCountry),
	},
}

// rankReasons returns up to five matched explanations in priority
// order, or the generic fallback when nothing matched.
func rankReasons(features map[string]float64) []string {
	reasons := make([]string, 0, maxReasons)
	for _, rule := range reasonRules {
		if !rule.matches(features) {
			continue
		}
		reasons = append(reasons, rule.text)
		if len(reasons) == maxReasons {
			break
		}
	}
	if len(reasons) == 0 {
		return []string{fallbackReason}
	}
	return reasons
}

func greaterThan(name string, limit float64) func(map[string]float64) bool {
	return func(features map[string]float64) bool {
		return features[name] > limit
	}
}

func flagSet(name string) func(map[string]float64) bool {
	return func(features map[string]float64) bool {
		return features[name] == 1
	}
}
