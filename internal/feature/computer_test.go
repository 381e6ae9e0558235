package feature

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidleathers/fraud-scoring-backend/internal/domain/transaction"
	"github.com/davidleathers/fraud-scoring-backend/internal/domain/values"
)

func testLists() Lists {
	return NewLists(
		[]string{"KP", "IR"},
		[]string{"gmail.com", "yahoo.com", "hotmail.com", "outlook.com", "aol.com"},
		[]string{"tempmail.com", "10minutemail.com", "guerrillamail.com"},
		[]string{"gambling", "cryptocurrency", "adult_content"},
		[]string{"travel", "electronics", "jewelry"},
		[]string{"01-01", "07-04", "12-25"},
		1_000_000,
	)
}

func testTransaction(t *testing.T, amountMinor int64, ts time.Time) *transaction.Transaction {
	t.Helper()
	txn, err := transaction.New("pi_123", "cus_456", "acct_789", values.MustNewMoney(amountMinor, "USD"), ts)
	require.NoError(t, err)
	return txn
}

func f64(v float64) *float64 { return &v }
func i64(v int64) *int64     { return &v }

func TestComputer_EmitsEveryFeature(t *testing.T) {
	c := NewComputer(testLists())
	txn := testTransaction(t, 5000, time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC))

	features := c.Compute(txn, RawSignals{})

	require.Len(t, features, Count)
	for _, name := range Names() {
		_, ok := features[name]
		assert.True(t, ok, "missing feature %s", name)
	}
}

func TestComputer_Amount(t *testing.T) {
	c := NewComputer(testLists())
	ts := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

	t.Run("with history", func(t *testing.T) {
		txn := testTransaction(t, 20000, ts)
		sig := RawSignals{Amount: AmountSignals{
			AvgAmount7d:    f64(10000),
			StddevAmount7d: f64(2500),
			MaxAmount30d:   f64(15000),
			Percentile:     f64(0.92),
		}}

		features := c.Compute(txn, sig)
		assert.Equal(t, 10000.0, features[AvgAmount7d])
		assert.Equal(t, 2500.0, features[StddevAmount7d])
		assert.Equal(t, 15000.0, features[MaxAmount30d])
		assert.Equal(t, 2.0, features[AmountRatioToAvg])
		assert.Equal(t, 4.0, features[AmountZScore])
		assert.Equal(t, 0.92, features[AmountPercentile])
		assert.Equal(t, 1.0, features[RoundAmount])
		assert.Equal(t, 0.0, features[HighValueFlag])
	})

	t.Run("no history pins ratio and zscore", func(t *testing.T) {
		txn := testTransaction(t, 73455, ts)
		features := c.Compute(txn, RawSignals{})

		assert.Equal(t, 73455.0, features[AvgAmount7d], "current amount stands in for missing average")
		assert.Equal(t, 73455.0, features[MaxAmount30d])
		assert.Equal(t, 1.0, features[AmountRatioToAvg])
		assert.Equal(t, 0.0, features[AmountZScore])
		assert.Equal(t, 0.5, features[AmountPercentile])
		assert.Equal(t, 0.0, features[RoundAmount])
	})

	t.Run("zero stddev yields zero zscore", func(t *testing.T) {
		txn := testTransaction(t, 20000, ts)
		sig := RawSignals{Amount: AmountSignals{
			AvgAmount7d:    f64(10000),
			StddevAmount7d: f64(0),
		}}
		features := c.Compute(txn, sig)
		assert.Equal(t, 0.0, features[AmountZScore])
	})

	t.Run("high value flag is strictly above threshold", func(t *testing.T) {
		at := c.Compute(testTransaction(t, 1_000_000, ts), RawSignals{})
		above := c.Compute(testTransaction(t, 1_000_001, ts), RawSignals{})
		assert.Equal(t, 0.0, at[HighValueFlag])
		assert.Equal(t, 1.0, above[HighValueFlag])
	})
}

func TestComputer_Geography(t *testing.T) {
	c := NewComputer(testLists())
	ts := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

	sf := &transaction.Location{Latitude: 37.7749, Longitude: -122.4194, Country: "US"}
	nyc := &transaction.Location{Latitude: 40.7128, Longitude: -74.0060, Country: "US"}

	t.Run("distance and velocity", func(t *testing.T) {
		txn := testTransaction(t, 5000, ts)
		lastSeen := ts.Add(-2 * time.Hour)
		sig := RawSignals{Geo: GeoSignals{
			IPLocation:   nyc,
			LastLocation: sf,
			LastSeenAt:   &lastSeen,
		}}

		features := c.Compute(txn, sig)
		// SF to NYC is roughly 4130 km great-circle.
		assert.InDelta(t, 4130, features[DistanceKm], 20)
		assert.InDelta(t, 2065, features[VelocityKmPerHour], 10)
	})

	t.Run("velocity zero when elapsed not positive", func(t *testing.T) {
		txn := testTransaction(t, 5000, ts)
		lastSeen := ts
		sig := RawSignals{Geo: GeoSignals{
			IPLocation:   nyc,
			LastLocation: sf,
			LastSeenAt:   &lastSeen,
		}}
		features := c.Compute(txn, sig)
		assert.Equal(t, 0.0, features[VelocityKmPerHour])
	})

	t.Run("country mismatches", func(t *testing.T) {
		txn := testTransaction(t, 5000, ts)
		txn.CardCountry = "GB"
		txn.BillingCountry = "US"
		sig := RawSignals{Geo: GeoSignals{IPLocation: &transaction.Location{Country: "FR"}}}

		features := c.Compute(txn, sig)
		assert.Equal(t, 1.0, features[CardCountryMismatch])
		assert.Equal(t, 1.0, features[IPCountryMismatch])
	})

	t.Run("no ip resolution means no mismatch evidence", func(t *testing.T) {
		txn := testTransaction(t, 5000, ts)
		txn.CardCountry = "GB"
		txn.BillingCountry = "US"

		features := c.Compute(txn, RawSignals{})
		assert.Equal(t, 0.0, features[CardCountryMismatch])
		assert.Equal(t, 0.0, features[IPCountryMismatch])
		assert.Equal(t, 0.0, features[DistanceKm])
		assert.Equal(t, 0.0, features[HighRiskCountry])
	})

	t.Run("high risk country", func(t *testing.T) {
		txn := testTransaction(t, 5000, ts)
		sig := RawSignals{Geo: GeoSignals{IPLocation: &transaction.Location{Country: "kp"}}}
		features := c.Compute(txn, sig)
		assert.Equal(t, 1.0, features[HighRiskCountry])
	})

	t.Run("timezone anomaly against active hours", func(t *testing.T) {
		txn := testTransaction(t, 5000, ts) // 14:00 UTC
		active := map[int]bool{9: true, 10: true, 11: true}

		features := c.Compute(txn, RawSignals{Geo: GeoSignals{ActiveHours: active}})
		assert.Equal(t, 1.0, features[TimezoneAnomaly])

		active[14] = true
		features = c.Compute(txn, RawSignals{Geo: GeoSignals{ActiveHours: active}})
		assert.Equal(t, 0.0, features[TimezoneAnomaly])

		// no observed history, no anomaly
		features = c.Compute(txn, RawSignals{})
		assert.Equal(t, 0.0, features[TimezoneAnomaly])
	})
}

func TestComputer_DeviceEmail(t *testing.T) {
	c := NewComputer(testLists())
	ts := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

	t.Run("unseen device is new", func(t *testing.T) {
		txn := testTransaction(t, 5000, ts)
		features := c.Compute(txn, RawSignals{})
		assert.Equal(t, 0.0, features[DeviceFingerprintAgeDays])
		assert.Equal(t, 1.0, features[DeviceFingerprintNew])
	})

	t.Run("aged device", func(t *testing.T) {
		txn := testTransaction(t, 5000, ts)
		sig := RawSignals{Device: DeviceSignals{DeviceAgeDays: i64(45)}}
		features := c.Compute(txn, sig)
		assert.Equal(t, 45.0, features[DeviceFingerprintAgeDays])
		assert.Equal(t, 0.0, features[DeviceFingerprintNew])
	})

	t.Run("email domain classification", func(t *testing.T) {
		txn := testTransaction(t, 5000, ts)
		txn.Email = "someone@GMAIL.com"
		features := c.Compute(txn, RawSignals{})
		assert.Equal(t, 1.0, features[EmailDomainFree])
		assert.Equal(t, 0.0, features[EmailDomainDisposable])

		txn.Email = "x@tempmail.com"
		features = c.Compute(txn, RawSignals{})
		assert.Equal(t, 0.0, features[EmailDomainFree])
		assert.Equal(t, 1.0, features[EmailDomainDisposable])

		txn.Email = ""
		features = c.Compute(txn, RawSignals{})
		assert.Equal(t, 0.0, features[EmailDomainFree])
		assert.Equal(t, 0.0, features[EmailDomainDisposable])
	})
}

func TestComputer_CustomerHistory(t *testing.T) {
	c := NewComputer(testLists())
	ts := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	txn := testTransaction(t, 5000, ts)

	t.Run("new customer sentinels", func(t *testing.T) {
		features := c.Compute(txn, RawSignals{})
		assert.Equal(t, 1.0, features[FirstTransactionCustomer])
		assert.Equal(t, 0.0, features[CustomerSuccessRate])
		assert.Equal(t, 9999.0, features[DaysSinceLastTransaction])
		assert.Equal(t, 0.0, features[AvgTransactionPerMonth])
	})

	t.Run("established customer", func(t *testing.T) {
		sig := RawSignals{Customer: CustomerSignals{
			CustomerAgeDays:   i64(300),
			TotalTransactions: 40,
			SuccessCount:      38,
			LifetimeValue:     480000,
			DaysSinceLast:     i64(3),
			DisputeCount:      2,
			ChargebackRate30d: 0.01,
		}}
		features := c.Compute(txn, sig)
		assert.Equal(t, 0.0, features[FirstTransactionCustomer])
		assert.Equal(t, 0.95, features[CustomerSuccessRate])
		assert.Equal(t, 3.0, features[DaysSinceLastTransaction])
		assert.Equal(t, 2.0, features[CustomerDisputeHistory])
		assert.InDelta(t, 4.0, features[AvgTransactionPerMonth], 0.001)
		assert.Equal(t, 0.01, features[ChargebackRate30d])
	})
}

func TestComputer_MerchantRisk(t *testing.T) {
	c := NewComputer(testLists())
	ts := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	txn := testTransaction(t, 5000, ts)

	tests := []struct {
		industry string
		want     float64
	}{
		{"gambling", 2},
		{"Cryptocurrency", 2},
		{"travel", 1},
		{"groceries", 0},
		{"", 0},
	}

	for _, tt := range tests {
		sig := RawSignals{Merchant: MerchantSignals{Industry: tt.industry}}
		features := c.Compute(txn, sig)
		assert.Equal(t, tt.want, features[MerchantIndustryRisk], "industry=%q", tt.industry)
	}
}

func TestComputer_Contextual(t *testing.T) {
	c := NewComputer(testLists())

	t.Run("weekday numbering", func(t *testing.T) {
		monday := testTransaction(t, 5000, time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC))
		sunday := testTransaction(t, 5000, time.Date(2026, 3, 8, 8, 0, 0, 0, time.UTC))
		saturday := testTransaction(t, 5000, time.Date(2026, 3, 7, 8, 0, 0, 0, time.UTC))

		mf := c.Compute(monday, RawSignals{})
		assert.Equal(t, 0.0, mf[DayOfWeek])
		assert.Equal(t, 0.0, mf[IsWeekend])

		sf := c.Compute(sunday, RawSignals{})
		assert.Equal(t, 6.0, sf[DayOfWeek])
		assert.Equal(t, 1.0, sf[IsWeekend])

		saf := c.Compute(saturday, RawSignals{})
		assert.Equal(t, 5.0, saf[DayOfWeek])
		assert.Equal(t, 1.0, saf[IsWeekend])
	})

	t.Run("holiday", func(t *testing.T) {
		christmas := testTransaction(t, 5000, time.Date(2026, 12, 25, 10, 0, 0, 0, time.UTC))
		ordinary := testTransaction(t, 5000, time.Date(2026, 12, 24, 10, 0, 0, 0, time.UTC))

		assert.Equal(t, 1.0, c.Compute(christmas, RawSignals{})[IsHoliday])
		assert.Equal(t, 0.0, c.Compute(ordinary, RawSignals{})[IsHoliday])
	})

	t.Run("time of day and shipping mismatch", func(t *testing.T) {
		txn := testTransaction(t, 5000, time.Date(2026, 3, 10, 23, 30, 0, 0, time.UTC))
		txn.BillingAddress = "1 Main St"
		txn.ShippingAddress = "9 Other Rd"

		features := c.Compute(txn, RawSignals{})
		assert.Equal(t, 23.0, features[TimeOfDay])
		assert.Equal(t, 1.0, features[ShippingAddressMismatch])
	})
}

func TestHaversineKm(t *testing.T) {
	points := []struct {
		name     string
		lat, lon float64
	}{
		{"san francisco", 37.7749, -122.4194},
		{"new york", 40.7128, -74.0060},
		{"sydney", -33.8688, 151.2093},
		{"reykjavik", 64.1466, -21.9426},
		{"equator antimeridian", 0, 180},
		{"north pole", 90, 0},
	}

	t.Run("zero for identical points", func(t *testing.T) {
		for _, p := range points {
			assert.Zero(t, haversineKm(p.lat, p.lon, p.lat, p.lon), p.name)
		}
	})

	t.Run("symmetric", func(t *testing.T) {
		for i, a := range points {
			for _, b := range points[i+1:] {
				ab := haversineKm(a.lat, a.lon, b.lat, b.lon)
				ba := haversineKm(b.lat, b.lon, a.lat, a.lon)
				assert.InDelta(t, ab, ba, 1e-9, "%s<->%s", a.name, b.name)
				assert.Positive(t, ab, "%s<->%s", a.name, b.name)
			}
		}
	})
}
