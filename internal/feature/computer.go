package feature

import (
	"github.com/davidleathers/fraud-scoring-backend/internal/domain/transaction"
)

// Computer derives the full 45-feature map from a transaction and its
// raw signals. Derivation is pure: no I/O, no clock reads — time comes
// from the transaction timestamp, history from RawSignals.
type Computer struct {
	lists Lists
}

// NewComputer creates a Computer with the given classification lists.
func NewComputer(lists Lists) *Computer {
	return &Computer{lists: lists}
}

// Compute returns a map containing every catalog feature name. Absent
// signals resolve to per-feature sentinels, never to an error.
func (c *Computer) Compute(txn *transaction.Transaction, sig RawSignals) map[string]float64 {
	features := make(map[string]float64, Count)

	c.computeVelocity(features, sig)
	c.computeAmount(features, txn, sig)
	c.computeGeography(features, txn, sig)
	c.computeDeviceEmail(features, txn, sig)
	c.computeCustomerHistory(features, sig)
	c.computeMerchantRisk(features, sig)
	c.computeContextual(features, txn)

	return features
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
