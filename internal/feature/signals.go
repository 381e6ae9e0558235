package feature

import (
	"time"

	"github.com/davidleathers/fraud-scoring-backend/internal/domain/transaction"
)

// RawSignals carries everything the computer needs that is not on the
// transaction itself. Pointer fields distinguish "store had no record"
// (nil) from a legitimate zero; the computer maps nil to the feature's
// sentinel.
type RawSignals struct {
	Velocity VelocitySignals
	Amount   AmountSignals
	Geo      GeoSignals
	Device   DeviceSignals
	Customer CustomerSignals
	Merchant MerchantSignals
}

// VelocitySignals are recent-activity counters for the customer.
// Counters are absolute counts; a customer with no history reads 0.
type VelocitySignals struct {
	Count1h            int64
	Count24h           int64
	Count7d            int64
	Count30d           int64
	UniqueCards30d     int64
	UniqueMerchants30d int64
}

// AmountSignals are aggregate statistics over the customer's recent
// successful payments, in minor units. Nil means no qualifying history.
type AmountSignals struct {
	AvgAmount7d    *float64
	StddevAmount7d *float64
	MaxAmount30d   *float64
	Percentile     *float64
}

// GeoSignals resolve the transaction's IP and the customer's last
// known position.
type GeoSignals struct {
	IPLocation       *transaction.Location
	LastLocation     *transaction.Location
	LastSeenAt       *time.Time
	CountryChange24h bool
	// ActiveHours is the set of UTC hours (0..23) the customer has
	// historically transacted in. Empty means no history.
	ActiveHours map[int]bool
}

// DeviceSignals cover the device fingerprint and email domain.
type DeviceSignals struct {
	DeviceAgeDays      *int64
	EmailDomainAgeDays *int64
}

// CustomerSignals summarize the customer's lifetime payment history.
type CustomerSignals struct {
	CustomerAgeDays   *int64
	TotalTransactions int64
	SuccessCount      int64
	LifetimeValue     float64
	DaysSinceLast     *int64
	DisputeCount      int64
	ChargebackRate30d float64
}

// MerchantSignals summarize the receiving merchant's standing.
type MerchantSignals struct {
	MerchantAgeDays *int64
	Industry        string
	DisputeRate30d  float64
	ChargebackRate  float64
	AvgTicket       float64
}
