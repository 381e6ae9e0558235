package signal

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/davidleathers/fraud-scoring-backend/internal/domain/transaction"
	"github.com/davidleathers/fraud-scoring-backend/internal/feature"
	"github.com/davidleathers/fraud-scoring-backend/internal/metrics"
)

const defaultSourceTimeout = 50 * time.Millisecond

// Gateway fans a transaction out to every signal source concurrently
// and assembles the RawSignals the feature computer consumes.
//
// The gateway never fails a scoring request: a source that errors or
// times out resolves to its zero value, which the computer turns into
// per-feature sentinels. Failures are logged and counted so operators
// see degradation without callers seeing errors.
type Gateway struct {
	activity  ActivityStore
	customers CustomerStore
	merchants MerchantStore
	geo       GeoResolver
	domains   DomainAgeResolver

	metrics *metrics.Registry
	logger  *slog.Logger
	timeout time.Duration
}

// NewGateway creates a Gateway. Any store may be nil; its signals then
// always resolve to sentinels. A zero timeout uses the default.
func NewGateway(
	activity ActivityStore,
	customers CustomerStore,
	merchants MerchantStore,
	geo GeoResolver,
	domains DomainAgeResolver,
	m *metrics.Registry,
	logger *slog.Logger,
	timeout time.Duration,
) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = defaultSourceTimeout
	}
	return &Gateway{
		activity:  activity,
		customers: customers,
		merchants: merchants,
		geo:       geo,
		domains:   domains,
		metrics:   m,
		logger:    logger,
		timeout:   timeout,
	}
}

// Collect gathers all raw signals for a transaction. Each source runs
// in its own goroutine under its own timeout; each goroutine writes a
// disjoint set of fields.
func (g *Gateway) Collect(ctx context.Context, txn *transaction.Transaction) feature.RawSignals {
	var sig feature.RawSignals
	var wg sync.WaitGroup

	g.fetch(ctx, &wg, g.activity != nil, "activity_counts", func(ctx context.Context) error {
		counts, err := g.activity.TransactionCounts(ctx, txn.CustomerID, txn.Timestamp)
		if err != nil {
			return err
		}
		sig.Velocity.Count1h = counts.Count1h
		sig.Velocity.Count24h = counts.Count24h
		sig.Velocity.Count7d = counts.Count7d
		sig.Velocity.Count30d = counts.Count30d
		return nil
	})

	g.fetch(ctx, &wg, g.customers != nil, "instrument_fanout", func(ctx context.Context) error {
		cards, merchants, err := g.customers.InstrumentFanout(ctx, txn.CustomerID, txn.Timestamp)
		if err != nil {
			return err
		}
		sig.Velocity.UniqueCards30d = cards
		sig.Velocity.UniqueMerchants30d = merchants
		return nil
	})

	g.fetch(ctx, &wg, g.customers != nil, "amount_stats", func(ctx context.Context) error {
		stats, err := g.customers.AmountStats(ctx, txn.CustomerID, txn.Amount.MinorUnits(), txn.Timestamp)
		if err != nil {
			return err
		}
		sig.Amount = stats
		return nil
	})

	g.fetch(ctx, &wg, g.customers != nil, "customer_profile", func(ctx context.Context) error {
		profile, err := g.customers.CustomerProfile(ctx, txn.CustomerID, txn.Timestamp)
		if err != nil {
			return err
		}
		sig.Customer = profile
		return nil
	})

	g.fetch(ctx, &wg, g.merchants != nil, "merchant_profile", func(ctx context.Context) error {
		profile, err := g.merchants.MerchantProfile(ctx, txn.MerchantID, txn.Timestamp)
		if err != nil {
			return err
		}
		sig.Merchant = profile
		return nil
	})

	g.fetch(ctx, &wg, g.geo != nil && txn.IPAddress != "", "geoip", func(ctx context.Context) error {
		loc, err := g.geo.Resolve(ctx, txn.IPAddress)
		if err != nil {
			return err
		}
		sig.Geo.IPLocation = loc
		return nil
	})

	g.fetch(ctx, &wg, g.activity != nil, "geo_history", func(ctx context.Context) error {
		hist, err := g.activity.GeoHistory(ctx, txn.CustomerID, txn.Timestamp)
		if err != nil {
			return err
		}
		sig.Geo.LastLocation = hist.LastLocation
		sig.Geo.LastSeenAt = hist.LastSeenAt
		sig.Geo.CountryChange24h = hist.CountryChange24h
		sig.Geo.ActiveHours = hist.ActiveHours
		return nil
	})

	g.fetch(ctx, &wg, g.activity != nil && txn.HasDeviceFingerprint(), "device_age", func(ctx context.Context) error {
		age, err := g.activity.DeviceAgeDays(ctx, txn.CustomerID, txn.DeviceFingerprint, txn.Timestamp)
		if err != nil {
			return err
		}
		sig.Device.DeviceAgeDays = age
		return nil
	})

	domain := txn.EmailDomain()
	g.fetch(ctx, &wg, g.domains != nil && domain != "", "domain_age", func(ctx context.Context) error {
		age, err := g.domains.DomainAgeDays(ctx, domain)
		if err != nil {
			return err
		}
		sig.Device.EmailDomainAgeDays = age
		return nil
	})

	wg.Wait()
	return sig
}

// RecordTransaction writes the scored transaction back into the
// activity store so later lookups see it. Failures degrade the next
// score's signals, not this one's result, so they are swallowed here.
func (g *Gateway) RecordTransaction(ctx context.Context, txn *transaction.Transaction, loc *transaction.Location) {
	if g.activity == nil {
		return
	}

	cctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	rec := TransactionRecord{
		PaymentID:         txn.PaymentID,
		CustomerID:        txn.CustomerID,
		DeviceFingerprint: txn.DeviceFingerprint,
		Location:          loc,
		Timestamp:         txn.Timestamp,
	}
	if err := g.activity.RecordTransaction(cctx, rec); err != nil {
		g.noteFailure(ctx, "activity_record", err)
	}
}

func (g *Gateway) fetch(ctx context.Context, wg *sync.WaitGroup, enabled bool, source string, fn func(context.Context) error) {
	if !enabled {
		return
	}

	wg.Add(1)
	go func() {
		defer wg.Done()

		cctx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()

		if err := fn(cctx); err != nil {
			g.noteFailure(ctx, source, err)
		}
	}()
}

func (g *Gateway) noteFailure(ctx context.Context, source string, err error) {
	g.logger.WarnContext(ctx, "signal source unavailable, resolving to sentinels",
		"source", source,
		"error", err,
	)
	if g.metrics != nil {
		g.metrics.RecordSignalFailure(ctx, source)
	}
}
