package signal

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/davidleathers/fraud-scoring-backend/internal/feature"
)

// postgresStore implements CustomerStore and MerchantStore over the
// payments schema. All aggregates are computed relative to the
// transaction timestamp so replayed traffic scores deterministically.
type postgresStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresStore creates the relational signal store.
func NewPostgresStore(pool *pgxpool.Pool, logger *zap.Logger) (*postgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("database pool is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &postgresStore{pool: pool, logger: logger}, nil
}

// InstrumentFanout counts distinct payment methods and merchants the
// customer used in the trailing 30 days.
func (s *postgresStore) InstrumentFanout(ctx context.Context, customerID string, at time.Time) (int64, int64, error) {
	query := `
		SELECT
			COUNT(DISTINCT payment_method),
			COUNT(DISTINCT merchant_id)
		FROM payments
		WHERE customer_id = $1
		  AND created_at >= $2
		  AND created_at < $3`

	var cards, merchants int64
	err := s.pool.QueryRow(ctx, query, customerID, at.AddDate(0, 0, -30), at).Scan(&cards, &merchants)
	if err != nil {
		s.logger.Error("instrument fanout query failed",
			zap.String("customer_id", customerID),
			zap.Error(err))
		return 0, 0, fmt.Errorf("instrument fanout query failed: %w", err)
	}

	return cards, merchants, nil
}

// AmountStats computes the trailing amount aggregates over succeeded
// payments. NULL aggregates (no qualifying history) come back as nil
// pointers for the computer to resolve.
func (s *postgresStore) AmountStats(ctx context.Context, customerID string, amountMinorUnits int64, at time.Time) (feature.AmountSignals, error) {
	query := `
		SELECT
			AVG(amount) FILTER (WHERE created_at >= $2),
			STDDEV(amount) FILTER (WHERE created_at >= $2),
			MAX(amount),
			CASE WHEN COUNT(*) > 0
				THEN COUNT(*) FILTER (WHERE amount <= $4)::float8 / COUNT(*)
			END
		FROM payments
		WHERE customer_id = $1
		  AND status = 'succeeded'
		  AND created_at >= $3
		  AND created_at < $5`

	var stats feature.AmountSignals
	err := s.pool.QueryRow(ctx, query,
		customerID,
		at.AddDate(0, 0, -7),
		at.AddDate(0, 0, -30),
		amountMinorUnits,
		at,
	).Scan(&stats.AvgAmount7d, &stats.StddevAmount7d, &stats.MaxAmount30d, &stats.Percentile)
	if err != nil {
		s.logger.Error("amount stats query failed",
			zap.String("customer_id", customerID),
			zap.Error(err))
		return feature.AmountSignals{}, fmt.Errorf("amount stats query failed: %w", err)
	}

	return stats, nil
}

// CustomerProfile summarizes the customer's lifetime payment history.
// An unknown customer returns zero-valued signals, not an error.
func (s *postgresStore) CustomerProfile(ctx context.Context, customerID string, at time.Time) (feature.CustomerSignals, error) {
	var profile feature.CustomerSignals

	ageQuery := `
		SELECT EXTRACT(DAY FROM $2::timestamptz - created_at)::bigint
		FROM customers
		WHERE customer_id = $1`

	rows, err := s.pool.Query(ctx, ageQuery, customerID, at)
	if err != nil {
		return profile, s.profileErr(customerID, "customer age", err)
	}
	for rows.Next() {
		var age int64
		if err := rows.Scan(&age); err != nil {
			rows.Close()
			return profile, s.profileErr(customerID, "customer age", err)
		}
		profile.CustomerAgeDays = &age
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return profile, s.profileErr(customerID, "customer age", err)
	}

	historyQuery := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'succeeded'),
			COALESCE(SUM(amount), 0),
			EXTRACT(DAY FROM $2::timestamptz - MAX(created_at))::bigint
		FROM payments
		WHERE customer_id = $1
		  AND created_at < $2`

	var daysSinceLast *int64
	err = s.pool.QueryRow(ctx, historyQuery, customerID, at).Scan(
		&profile.TotalTransactions,
		&profile.SuccessCount,
		&profile.LifetimeValue,
		&daysSinceLast,
	)
	if err != nil {
		return profile, s.profileErr(customerID, "payment history", err)
	}
	profile.DaysSinceLast = daysSinceLast

	disputeQuery := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE d.is_chargeback AND d.created_at >= $2)
		FROM disputes d
		JOIN payments p ON p.payment_id = d.payment_id
		WHERE p.customer_id = $1
		  AND d.created_at < $3`

	var chargebacks30d int64
	err = s.pool.QueryRow(ctx, disputeQuery, customerID, at.AddDate(0, 0, -30), at).Scan(
		&profile.DisputeCount,
		&chargebacks30d,
	)
	if err != nil {
		return profile, s.profileErr(customerID, "dispute history", err)
	}

	countQuery := `
		SELECT COUNT(*)
		FROM payments
		WHERE customer_id = $1
		  AND created_at >= $2
		  AND created_at < $3`

	var payments30d int64
	if err := s.pool.QueryRow(ctx, countQuery, customerID, at.AddDate(0, 0, -30), at).Scan(&payments30d); err != nil {
		return profile, s.profileErr(customerID, "trailing payment count", err)
	}
	if payments30d > 0 {
		profile.ChargebackRate30d = float64(chargebacks30d) / float64(payments30d)
	}

	return profile, nil
}

// MerchantProfile summarizes the receiving merchant's trailing-30-day
// standing. An unknown merchant returns zero-valued signals.
func (s *postgresStore) MerchantProfile(ctx context.Context, merchantID string, at time.Time) (feature.MerchantSignals, error) {
	query := `
		SELECT
			EXTRACT(DAY FROM $3::timestamptz - m.created_at)::bigint,
			m.industry,
			CASE WHEN COUNT(p.payment_id) > 0
				THEN COUNT(d.dispute_id)::float8 / COUNT(p.payment_id)
				ELSE 0
			END,
			CASE WHEN COUNT(p.payment_id) > 0
				THEN COUNT(d.dispute_id) FILTER (WHERE d.is_chargeback)::float8 / COUNT(p.payment_id)
				ELSE 0
			END,
			COALESCE(AVG(p.amount), 0)
		FROM merchants m
		LEFT JOIN payments p ON p.merchant_id = m.merchant_id
			AND p.created_at >= $2 AND p.created_at < $3
		LEFT JOIN disputes d ON d.payment_id = p.payment_id
		WHERE m.merchant_id = $1
		GROUP BY m.created_at, m.industry`

	var profile feature.MerchantSignals
	var ageDays int64
	rows, err := s.pool.Query(ctx, query, merchantID, at.AddDate(0, 0, -30), at)
	if err != nil {
		s.logger.Error("merchant profile query failed",
			zap.String("merchant_id", merchantID),
			zap.Error(err))
		return profile, fmt.Errorf("merchant profile query failed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := rows.Scan(
			&ageDays,
			&profile.Industry,
			&profile.DisputeRate30d,
			&profile.ChargebackRate,
			&profile.AvgTicket,
		); err != nil {
			return feature.MerchantSignals{}, fmt.Errorf("merchant profile scan failed: %w", err)
		}
		profile.MerchantAgeDays = &ageDays
	}
	if err := rows.Err(); err != nil {
		return feature.MerchantSignals{}, fmt.Errorf("merchant profile rows failed: %w", err)
	}

	return profile, nil
}

// SaveScore appends a decision record to the audit trail.
func (s *postgresStore) SaveScore(ctx context.Context, rec ScoreRecord) error {
	query := `
		INSERT INTO fraud_scores (
			id, payment_id, customer_id, merchant_id,
			fraud_score, risk_level, decision, reasons,
			model_version, latency_ms, scored_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := s.pool.Exec(ctx, query,
		rec.ID,
		rec.PaymentID,
		rec.CustomerID,
		rec.MerchantID,
		rec.FraudScore,
		rec.RiskLevel,
		rec.Decision,
		rec.Reasons,
		rec.ModelVersion,
		rec.LatencyMS,
		rec.ScoredAt,
	)
	if err != nil {
		s.logger.Error("save score failed",
			zap.String("payment_id", rec.PaymentID),
			zap.Error(err))
		return fmt.Errorf("save score failed: %w", err)
	}

	return nil
}

func (s *postgresStore) profileErr(customerID, stage string, err error) error {
	s.logger.Error("customer profile query failed",
		zap.String("customer_id", customerID),
		zap.String("stage", stage),
		zap.Error(err))
	return fmt.Errorf("customer profile %s query failed: %w", stage, err)
}
