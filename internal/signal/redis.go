package signal

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/davidleathers/fraud-scoring-backend/internal/domain/transaction"
)

// Key layout for per-customer activity state.
const (
	timelineKeyPrefix    = "fsb:txn:timeline:"
	deviceSeenKeyPrefix  = "fsb:device:first_seen:"
	lastGeoKeyPrefix     = "fsb:geo:last:"
	countryLogKeyPrefix  = "fsb:geo:countries:"
	activeHoursKeyPrefix = "fsb:activity:hours:"

	timelineRetention   = 31 * 24 * time.Hour
	countryLogRetention = 48 * time.Hour
	deviceRetention     = 180 * 24 * time.Hour
	activeHoursTTL      = 90 * 24 * time.Hour
)

// redisActivityStore implements ActivityStore on Redis. Sliding-window
// counters use a sorted-set timeline scored by unix nanos; device
// first-seen uses SetNX so the original sighting wins.
type redisActivityStore struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisActivityStore creates the Redis-backed activity store.
func NewRedisActivityStore(client *redis.Client, logger *zap.Logger) (ActivityStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &redisActivityStore{client: client, logger: logger}, nil
}

type lastGeoRecord struct {
	Latitude  float64   `json:"lat"`
	Longitude float64   `json:"lon"`
	Country   string    `json:"country"`
	SeenAt    time.Time `json:"seen_at"`
}

// TransactionCounts reads the four sliding-window counters from the
// customer's timeline in a single pipeline round trip.
func (s *redisActivityStore) TransactionCounts(ctx context.Context, customerID string, at time.Time) (Counts, error) {
	key := timelineKeyPrefix + customerID
	max := strconv.FormatInt(at.UnixNano(), 10)

	since := func(d time.Duration) string {
		return strconv.FormatInt(at.Add(-d).UnixNano(), 10)
	}

	pipe := s.client.Pipeline()
	c1h := pipe.ZCount(ctx, key, since(time.Hour), max)
	c24h := pipe.ZCount(ctx, key, since(24*time.Hour), max)
	c7d := pipe.ZCount(ctx, key, since(7*24*time.Hour), max)
	c30d := pipe.ZCount(ctx, key, since(30*24*time.Hour), max)

	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Error("transaction counts pipeline failed",
			zap.String("customer_id", customerID),
			zap.Error(err))
		return Counts{}, fmt.Errorf("transaction counts pipeline failed: %w", err)
	}

	return Counts{
		Count1h:  c1h.Val(),
		Count24h: c24h.Val(),
		Count7d:  c7d.Val(),
		Count30d: c30d.Val(),
	}, nil
}

// DeviceAgeDays returns full days since the fingerprint was first seen
// for this customer, or nil when it has never been seen.
func (s *redisActivityStore) DeviceAgeDays(ctx context.Context, customerID, fingerprint string, at time.Time) (*int64, error) {
	key := deviceSeenKey(customerID, fingerprint)

	val, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		s.logger.Error("device first-seen lookup failed",
			zap.String("customer_id", customerID),
			zap.Error(err))
		return nil, fmt.Errorf("device first-seen lookup failed: %w", err)
	}

	firstSeenUnix, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt device first-seen value: %w", err)
	}

	age := int64(at.Sub(time.Unix(firstSeenUnix, 0)).Hours() / 24)
	if age < 0 {
		age = 0
	}
	return &age, nil
}

// GeoHistory reads the last known location, the distinct countries
// seen in the last 24h, and the customer's active-hour set.
func (s *redisActivityStore) GeoHistory(ctx context.Context, customerID string, at time.Time) (GeoHistory, error) {
	pipe := s.client.Pipeline()
	lastGeoCmd := pipe.Get(ctx, lastGeoKeyPrefix+customerID)
	countriesCmd := pipe.ZRangeByScore(ctx, countryLogKeyPrefix+customerID, &redis.ZRangeBy{
		Min: strconv.FormatInt(at.Add(-24*time.Hour).UnixNano(), 10),
		Max: "+inf",
	})
	hoursCmd := pipe.SMembers(ctx, activeHoursKeyPrefix+customerID)

	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		s.logger.Error("geo history pipeline failed",
			zap.String("customer_id", customerID),
			zap.Error(err))
		return GeoHistory{}, fmt.Errorf("geo history pipeline failed: %w", err)
	}

	var hist GeoHistory

	if raw, err := lastGeoCmd.Result(); err == nil {
		var rec lastGeoRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return GeoHistory{}, fmt.Errorf("corrupt last-geo record: %w", err)
		}
		hist.LastLocation = &transaction.Location{
			Latitude:  rec.Latitude,
			Longitude: rec.Longitude,
			Country:   rec.Country,
		}
		seenAt := rec.SeenAt
		hist.LastSeenAt = &seenAt
	}

	countries := countriesCmd.Val()
	distinct := make(map[string]bool, len(countries))
	for _, c := range countries {
		distinct[c] = true
	}
	hist.CountryChange24h = len(distinct) > 1

	hours := hoursCmd.Val()
	if len(hours) > 0 {
		hist.ActiveHours = make(map[int]bool, len(hours))
		for _, h := range hours {
			hour, err := strconv.Atoi(h)
			if err != nil || hour < 0 || hour > 23 {
				continue
			}
			hist.ActiveHours[hour] = true
		}
	}

	return hist, nil
}

// RecordTransaction appends the transaction to the customer's timeline
// and refreshes device, geo and active-hour state.
func (s *redisActivityStore) RecordTransaction(ctx context.Context, rec TransactionRecord) error {
	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	pipe := s.client.Pipeline()

	timelineKey := timelineKeyPrefix + rec.CustomerID
	pipe.ZAdd(ctx, timelineKey, redis.Z{
		Score:  float64(ts.UnixNano()),
		Member: rec.PaymentID,
	})
	pipe.ZRemRangeByScore(ctx, timelineKey, "-inf",
		strconv.FormatInt(ts.Add(-timelineRetention).UnixNano(), 10))
	pipe.Expire(ctx, timelineKey, timelineRetention)

	if rec.DeviceFingerprint != "" {
		pipe.SetNX(ctx, deviceSeenKey(rec.CustomerID, rec.DeviceFingerprint),
			strconv.FormatInt(ts.Unix(), 10), deviceRetention)
	}

	if rec.Location != nil {
		geo, err := json.Marshal(lastGeoRecord{
			Latitude:  rec.Location.Latitude,
			Longitude: rec.Location.Longitude,
			Country:   rec.Location.Country,
			SeenAt:    ts,
		})
		if err != nil {
			return fmt.Errorf("marshal last-geo record: %w", err)
		}
		pipe.Set(ctx, lastGeoKeyPrefix+rec.CustomerID, geo, timelineRetention)

		if rec.Location.Country != "" {
			countryKey := countryLogKeyPrefix + rec.CustomerID
			pipe.ZAdd(ctx, countryKey, redis.Z{
				Score:  float64(ts.UnixNano()),
				Member: rec.Location.Country,
			})
			pipe.ZRemRangeByScore(ctx, countryKey, "-inf",
				strconv.FormatInt(ts.Add(-countryLogRetention).UnixNano(), 10))
			pipe.Expire(ctx, countryKey, countryLogRetention)
		}
	}

	hoursKey := activeHoursKeyPrefix + rec.CustomerID
	pipe.SAdd(ctx, hoursKey, ts.UTC().Hour())
	pipe.Expire(ctx, hoursKey, activeHoursTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Error("record transaction pipeline failed",
			zap.String("payment_id", rec.PaymentID),
			zap.String("customer_id", rec.CustomerID),
			zap.Error(err))
		return fmt.Errorf("record transaction pipeline failed: %w", err)
	}

	return nil
}

func deviceSeenKey(customerID, fingerprint string) string {
	return deviceSeenKeyPrefix + customerID + ":" + fingerprint
}
