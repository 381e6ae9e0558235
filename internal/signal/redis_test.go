package signal

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/davidleathers/fraud-scoring-backend/internal/domain/transaction"
)

func setupActivityStore(t *testing.T) (ActivityStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store, err := NewRedisActivityStore(client, zap.NewNop())
	require.NoError(t, err)
	return store, mr
}

func TestRedisActivityStore_TransactionCounts(t *testing.T) {
	store, _ := setupActivityStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

	record := func(id string, ts time.Time) {
		require.NoError(t, store.RecordTransaction(ctx, TransactionRecord{
			PaymentID:  id,
			CustomerID: "cus_1",
			Timestamp:  ts,
		}))
	}

	record("pi_a", now.Add(-30*time.Minute))
	record("pi_b", now.Add(-2*time.Hour))
	record("pi_c", now.Add(-3*24*time.Hour))
	record("pi_d", now.Add(-20*24*time.Hour))

	counts, err := store.TransactionCounts(ctx, "cus_1", now)
	require.NoError(t, err)

	assert.Equal(t, int64(1), counts.Count1h)
	assert.Equal(t, int64(2), counts.Count24h)
	assert.Equal(t, int64(3), counts.Count7d)
	assert.Equal(t, int64(4), counts.Count30d)

	// unseen customer reads zero
	counts, err = store.TransactionCounts(ctx, "cus_other", now)
	require.NoError(t, err)
	assert.Equal(t, Counts{}, counts)
}

func TestRedisActivityStore_DeviceAgeDays(t *testing.T) {
	store, _ := setupActivityStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

	age, err := store.DeviceAgeDays(ctx, "cus_1", "fp_x", now)
	require.NoError(t, err)
	assert.Nil(t, age, "never-seen fingerprint")

	require.NoError(t, store.RecordTransaction(ctx, TransactionRecord{
		PaymentID:         "pi_a",
		CustomerID:        "cus_1",
		DeviceFingerprint: "fp_x",
		Timestamp:         now.AddDate(0, 0, -45),
	}))

	age, err = store.DeviceAgeDays(ctx, "cus_1", "fp_x", now)
	require.NoError(t, err)
	require.NotNil(t, age)
	assert.Equal(t, int64(45), *age)

	// first sighting wins over later re-records
	require.NoError(t, store.RecordTransaction(ctx, TransactionRecord{
		PaymentID:         "pi_b",
		CustomerID:        "cus_1",
		DeviceFingerprint: "fp_x",
		Timestamp:         now,
	}))
	age, err = store.DeviceAgeDays(ctx, "cus_1", "fp_x", now)
	require.NoError(t, err)
	require.NotNil(t, age)
	assert.Equal(t, int64(45), *age)
}

func TestRedisActivityStore_GeoHistory(t *testing.T) {
	store, _ := setupActivityStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

	hist, err := store.GeoHistory(ctx, "cus_1", now)
	require.NoError(t, err)
	assert.Nil(t, hist.LastLocation)
	assert.Nil(t, hist.LastSeenAt)
	assert.False(t, hist.CountryChange24h)
	assert.Empty(t, hist.ActiveHours)

	require.NoError(t, store.RecordTransaction(ctx, TransactionRecord{
		PaymentID:  "pi_a",
		CustomerID: "cus_1",
		Location:   &transaction.Location{Latitude: 37.7, Longitude: -122.4, Country: "US"},
		Timestamp:  now.Add(-6 * time.Hour),
	}))
	require.NoError(t, store.RecordTransaction(ctx, TransactionRecord{
		PaymentID:  "pi_b",
		CustomerID: "cus_1",
		Location:   &transaction.Location{Latitude: 51.5, Longitude: -0.1, Country: "GB"},
		Timestamp:  now.Add(-1 * time.Hour),
	}))

	hist, err = store.GeoHistory(ctx, "cus_1", now)
	require.NoError(t, err)

	require.NotNil(t, hist.LastLocation)
	assert.Equal(t, "GB", hist.LastLocation.Country)
	assert.Equal(t, 51.5, hist.LastLocation.Latitude)
	require.NotNil(t, hist.LastSeenAt)
	assert.True(t, hist.LastSeenAt.Equal(now.Add(-1*time.Hour)))
	assert.True(t, hist.CountryChange24h, "US then GB within 24h")
	assert.True(t, hist.ActiveHours[8])
	assert.True(t, hist.ActiveHours[13])
	assert.False(t, hist.ActiveHours[3])
}

func TestRedisActivityStore_SingleCountryNoChange(t *testing.T) {
	store, _ := setupActivityStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

	for i, id := range []string{"pi_a", "pi_b", "pi_c"} {
		require.NoError(t, store.RecordTransaction(ctx, TransactionRecord{
			PaymentID:  id,
			CustomerID: "cus_1",
			Location:   &transaction.Location{Country: "US"},
			Timestamp:  now.Add(-time.Duration(i+1) * time.Hour),
		}))
	}

	hist, err := store.GeoHistory(ctx, "cus_1", now)
	require.NoError(t, err)
	assert.False(t, hist.CountryChange24h)
}
