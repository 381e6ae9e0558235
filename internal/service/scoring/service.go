package scoring

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/davidleathers/fraud-scoring-backend/internal/domain/errors"
	"github.com/davidleathers/fraud-scoring-backend/internal/domain/transaction"
	"github.com/davidleathers/fraud-scoring-backend/internal/feature"
	"github.com/davidleathers/fraud-scoring-backend/internal/metrics"
	"github.com/davidleathers/fraud-scoring-backend/internal/model"
	"github.com/davidleathers/fraud-scoring-backend/internal/signal"
)

// SignalCollector gathers raw signals for a transaction and records
// scored transactions back into the activity state.
type SignalCollector interface {
	Collect(ctx context.Context, txn *transaction.Transaction) feature.RawSignals
	RecordTransaction(ctx context.Context, txn *transaction.Transaction, loc *transaction.Location)
}

const persistTimeout = 2 * time.Second

// Service is the scoring engine: it turns a transaction (or a caller
// supplied feature map) into a ScoreResult.
type Service struct {
	collector SignalCollector
	computer  *feature.Computer
	predictor model.Predictor
	scores    signal.ScoreWriter

	thresholds   Thresholds
	batchWorkers int
	metrics      *metrics.Registry
	logger       *slog.Logger
}

// NewService creates the scoring engine. The collector, score writer
// and metrics registry may be nil; the predictor may be nil only until
// a model is loaded, and every scoring call fails ModelUnavailable
// until then.
func NewService(
	collector SignalCollector,
	computer *feature.Computer,
	predictor model.Predictor,
	scores signal.ScoreWriter,
	thresholds Thresholds,
	batchWorkers int,
	m *metrics.Registry,
	logger *slog.Logger,
) (*Service, error) {
	if computer == nil {
		return nil, errors.NewInternalError("feature computer is required")
	}
	if err := thresholds.Validate(); err != nil {
		return nil, errors.NewInvalidInputError("INVALID_THRESHOLDS", err.Error())
	}
	if batchWorkers <= 0 {
		batchWorkers = defaultBatchWorkers
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		collector:    collector,
		computer:     computer,
		predictor:    predictor,
		scores:       scores,
		thresholds:   thresholds,
		batchWorkers: batchWorkers,
		metrics:      m,
		logger:       logger,
	}, nil
}

// ModelInfo exposes the loaded model's metadata, or false when no
// model is loaded.
func (s *Service) ModelInfo() (model.Info, bool) {
	if s.predictor == nil {
		return model.Info{}, false
	}
	return s.predictor.Info(), true
}

// Thresholds returns the active threshold policy.
func (s *Service) Thresholds() Thresholds {
	return s.thresholds
}

// Score runs the full pipeline for a raw transaction: collect signals,
// derive features, predict, band, explain, then write back and persist
// off the request path.
func (s *Service) Score(ctx context.Context, txn *transaction.Transaction) (*ScoreResult, error) {
	start := time.Now()

	if s.predictor == nil {
		return nil, errors.ErrModelNotLoaded
	}

	var sig feature.RawSignals
	if s.collector != nil {
		sig = s.collector.Collect(ctx, txn)
	}
	features := s.computer.Compute(txn, sig)

	result, err := s.score(ctx, txn.PaymentID, txn.CustomerID, txn.MerchantID, features, start)
	if err != nil {
		return nil, err
	}

	if s.collector != nil {
		// Write-back so the next transaction's velocity and geo
		// signals see this one. Detached from the request context:
		// the response must not wait on it.
		go s.collector.RecordTransaction(context.WithoutCancel(ctx), txn, sig.Geo.IPLocation)
	}

	return result, nil
}

// ScoreFeatures scores a caller-supplied feature map, bypassing signal
// collection. Missing catalog names are treated as zero.
func (s *Service) ScoreFeatures(ctx context.Context, paymentID string, features map[string]float64) (*ScoreResult, error) {
	start := time.Now()

	if strings.TrimSpace(paymentID) == "" {
		return nil, errors.ErrMissingPaymentID
	}
	if len(features) == 0 {
		return nil, errors.NewInvalidInputError("MISSING_FEATURES", "features map is required")
	}
	if s.predictor == nil {
		return nil, errors.ErrModelNotLoaded
	}

	// Restrict to catalog names so vector assembly and reason ranking
	// see the same map.
	features = feature.Normalize(features)

	return s.score(ctx, paymentID, "", "", features, start)
}

func (s *Service) score(ctx context.Context, paymentID, customerID, merchantID string, features map[string]float64, start time.Time) (*ScoreResult, error) {
	vector := feature.AssembleVector(features)

	score, err := s.predictor.Predict(vector)
	if err != nil {
		return nil, errors.NewInternalError("model prediction failed").WithCause(err)
	}

	riskLevel, decision := s.thresholds.Classify(score)
	reasons := rankReasons(features)
	info := s.predictor.Info()

	latencyMS := float64(time.Since(start).Microseconds()) / 1000

	result := &ScoreResult{
		PaymentID:    paymentID,
		FraudScore:   round(score, 4),
		RiskLevel:    riskLevel,
		Decision:     decision,
		Reasons:      reasons,
		ModelVersion: info.Version,
		Timestamp:    time.Now().UTC(),
		LatencyMS:    round(latencyMS, 2),
	}

	s.logger.InfoContext(ctx, "transaction scored",
		"payment_id", paymentID,
		"fraud_score", result.FraudScore,
		"decision", decision,
		"latency_ms", result.LatencyMS,
	)

	if s.metrics != nil {
		s.metrics.RecordScore(ctx, score, string(decision), latencyMS)
	}

	if s.scores != nil {
		go s.persist(context.WithoutCancel(ctx), customerID, merchantID, result)
	}

	return result, nil
}

// persist appends the decision to the audit trail. Failure is logged,
// never surfaced: a scoring result that was already returned cannot be
// failed retroactively.
func (s *Service) persist(ctx context.Context, customerID, merchantID string, result *ScoreResult) {
	ctx, cancel := context.WithTimeout(ctx, persistTimeout)
	defer cancel()

	rec := signal.ScoreRecord{
		ID:           uuid.New(),
		PaymentID:    result.PaymentID,
		CustomerID:   customerID,
		MerchantID:   merchantID,
		FraudScore:   result.FraudScore,
		RiskLevel:    string(result.RiskLevel),
		Decision:     string(result.Decision),
		Reasons:      result.Reasons,
		ModelVersion: result.ModelVersion,
		LatencyMS:    result.LatencyMS,
		ScoredAt:     result.Timestamp,
	}
	if err := s.scores.SaveScore(ctx, rec); err != nil {
		s.logger.ErrorContext(ctx, "score persistence failed",
			"payment_id", result.PaymentID,
			"error", err,
		)
	}
}

func round(v float64, decimals int) float64 {
	factor := math.Pow(10, float64(decimals))
	return math.Round(v*factor) / factor
}
