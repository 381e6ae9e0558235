package signal

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/davidleathers/fraud-scoring-backend/internal/feature"
	"github.com/davidleathers/fraud-scoring-backend/internal/infrastructure/cache"
)

// cachedMerchantStore caches merchant profiles in Redis. Merchant
// standing moves on the order of days while the same merchant shows up
// on every payment it receives, so a short TTL removes most of the
// aggregate queries from the hot path.
type cachedMerchantStore struct {
	next   MerchantStore
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedMerchantStore wraps a MerchantStore with a read-through
// Redis cache. Cache failures fall through to the underlying store.
func NewCachedMerchantStore(next MerchantStore, c cache.Cache, logger *zap.Logger) MerchantStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &cachedMerchantStore{
		next:   next,
		cache:  c,
		ttl:    cache.MerchantProfileTTL,
		logger: logger,
	}
}

func (s *cachedMerchantStore) MerchantProfile(ctx context.Context, merchantID string, at time.Time) (feature.MerchantSignals, error) {
	key := cache.MerchantPrefix + merchantID

	var cached feature.MerchantSignals
	if err := s.cache.GetJSON(ctx, key, &cached); err == nil {
		return cached, nil
	}

	sig, err := s.next.MerchantProfile(ctx, merchantID, at)
	if err != nil {
		return feature.MerchantSignals{}, err
	}

	if err := s.cache.SetJSON(ctx, key, sig, s.ttl); err != nil {
		s.logger.Warn("merchant profile cache write failed",
			zap.String("merchant_id", merchantID),
			zap.Error(err))
	}

	return sig, nil
}
