package signal

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/davidleathers/fraud-scoring-backend/internal/domain/transaction"
	"github.com/davidleathers/fraud-scoring-backend/internal/feature"
)

// Counts are the customer's transaction counters over the sliding
// windows the velocity features use.
type Counts struct {
	Count1h  int64
	Count24h int64
	Count7d  int64
	Count30d int64
}

// GeoHistory is the customer's recent movement as seen by the velocity
// store.
type GeoHistory struct {
	LastLocation     *transaction.Location
	LastSeenAt       *time.Time
	CountryChange24h bool
	ActiveHours      map[int]bool
}

// TransactionRecord is the write-back after scoring, so subsequent
// lookups for the same customer see this transaction.
type TransactionRecord struct {
	PaymentID         string
	CustomerID        string
	DeviceFingerprint string
	Location          *transaction.Location
	Timestamp         time.Time
}

// ActivityStore serves the low-latency per-customer state: sliding
// window counters, device first-seen, last-known position. Backed by
// Redis in production.
type ActivityStore interface {
	TransactionCounts(ctx context.Context, customerID string, at time.Time) (Counts, error)
	DeviceAgeDays(ctx context.Context, customerID, fingerprint string, at time.Time) (*int64, error)
	GeoHistory(ctx context.Context, customerID string, at time.Time) (GeoHistory, error)
	RecordTransaction(ctx context.Context, rec TransactionRecord) error
}

// CustomerStore serves relational aggregates over the customer's
// payment history. Backed by PostgreSQL.
type CustomerStore interface {
	InstrumentFanout(ctx context.Context, customerID string, at time.Time) (cards, merchants int64, err error)
	AmountStats(ctx context.Context, customerID string, amountMinorUnits int64, at time.Time) (feature.AmountSignals, error)
	CustomerProfile(ctx context.Context, customerID string, at time.Time) (feature.CustomerSignals, error)
}

// MerchantStore serves the receiving merchant's standing. Backed by
// PostgreSQL.
type MerchantStore interface {
	MerchantProfile(ctx context.Context, merchantID string, at time.Time) (feature.MerchantSignals, error)
}

// ScoreRecord is one row of the decision audit trail.
type ScoreRecord struct {
	ID           uuid.UUID
	PaymentID    string
	CustomerID   string
	MerchantID   string
	FraudScore   float64
	RiskLevel    string
	Decision     string
	Reasons      []string
	ModelVersion string
	LatencyMS    float64
	ScoredAt     time.Time
}

// ScoreWriter persists scoring decisions for offline analysis.
type ScoreWriter interface {
	SaveScore(ctx context.Context, rec ScoreRecord) error
}

// GeoResolver maps an IP address to a location. Nil location means the
// address could not be resolved.
type GeoResolver interface {
	Resolve(ctx context.Context, ipAddress string) (*transaction.Location, error)
}

// DomainAgeResolver reports the registration age of an email domain in
// days. Nil means unknown.
type DomainAgeResolver interface {
	DomainAgeDays(ctx context.Context, domain string) (*int64, error)
}
