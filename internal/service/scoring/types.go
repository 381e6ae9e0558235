package scoring

import (
	"fmt"
	"time"
)

// RiskLevel bands a fraud score for human consumption.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Decision is the action the caller should take.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionMonitor Decision = "monitor"
	DecisionReview  Decision = "review"
	DecisionDecline Decision = "decline"
)

// Thresholds are the inclusive lower bounds of the monitor, review and
// decline bands. Scores below Monitor approve.
type Thresholds struct {
	Monitor float64
	Review  float64
	Decline float64
}

// DefaultThresholds returns the production policy.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Monitor: 0.40,
		Review:  0.70,
		Decline: 0.95,
	}
}

// Validate rejects non-monotonic or out-of-range thresholds. A policy
// where bands overlap would silently misroute decisions, so this runs
// at config load, not at score time.
func (t Thresholds) Validate() error {
	for name, v := range map[string]float64{
		"monitor": t.Monitor,
		"review":  t.Review,
		"decline": t.Decline,
	} {
		if v <= 0 || v > 1 {
			return fmt.Errorf("%s threshold %v out of range (0, 1]", name, v)
		}
	}
	if !(t.Monitor < t.Review && t.Review < t.Decline) {
		return fmt.Errorf("thresholds must be strictly increasing: monitor=%v review=%v decline=%v",
			t.Monitor, t.Review, t.Decline)
	}
	return nil
}

// Classify maps a score to its band. Lower bounds are inclusive.
func (t Thresholds) Classify(score float64) (RiskLevel, Decision) {
	switch {
	case score >= t.Decline:
		return RiskCritical, DecisionDecline
	case score >= t.Review:
		return RiskHigh, DecisionReview
	case score >= t.Monitor:
		return RiskMedium, DecisionMonitor
	default:
		return RiskLow, DecisionApprove
	}
}

// ScoreResult is the scoring engine's contract with callers. FraudScore
// is rounded to 4 decimals and LatencyMS to 2, matching what the
// decision consumers were built against.
type ScoreResult struct {
	PaymentID    string    `json:"payment_id"`
	FraudScore   float64   `json:"fraud_score"`
	RiskLevel    RiskLevel `json:"risk_level"`
	Decision     Decision  `json:"decision"`
	Reasons      []string  `json:"reasons"`
	ModelVersion string    `json:"model_version"`
	Timestamp    time.Time `json:"timestamp"`
	LatencyMS    float64   `json:"latency_ms"`
}
