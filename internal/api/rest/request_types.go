package rest

import (
	"time"

	"github.com/davidleathers/fraud-scoring-backend/internal/domain/transaction"
	"github.com/davidleathers/fraud-scoring-backend/internal/domain/values"
	"github.com/davidleathers/fraud-scoring-backend/internal/service/scoring"
)

// ScoreRequest is the body of POST /api/v1/fraud/score. Callers either
// submit a pre-computed features map, or the raw transaction fields and
// let the signal gateway derive the features.
type ScoreRequest struct {
	PaymentID  string `json:"payment_id" validate:"required,max=128"`
	CustomerID string `json:"customer_id" validate:"omitempty,max=128"`
	MerchantID string `json:"merchant_id" validate:"omitempty,max=128"`

	// Amount is in minor units of Currency.
	Amount   int64  `json:"amount" validate:"omitempty,gt=0"`
	Currency string `json:"currency" validate:"omitempty,iso4217"`

	CardCountry       string `json:"card_country" validate:"omitempty,len=2"`
	BillingCountry    string `json:"billing_country" validate:"omitempty,len=2"`
	IPAddress         string `json:"ip_address" validate:"omitempty,ip"`
	DeviceFingerprint string `json:"device_fingerprint" validate:"omitempty,max=256"`
	Email             string `json:"email" validate:"omitempty,email"`
	BillingAddress    string `json:"billing_address" validate:"omitempty,max=512"`
	ShippingAddress   string `json:"shipping_address" validate:"omitempty,max=512"`

	Timestamp *time.Time `json:"timestamp"`

	Features map[string]float64 `json:"features"`
}

// BatchRequest is the body of POST /api/v1/fraud/batch.
type BatchRequest struct {
	Transactions []ScoreRequest `json:"transactions" validate:"required,dive"`
}

// toTransaction builds the domain transaction for the gateway pipeline.
func (r *ScoreRequest) toTransaction() (*transaction.Transaction, error) {
	currency := r.Currency
	if currency == "" {
		currency = "USD"
	}

	amount, err := values.NewMoney(r.Amount, currency)
	if err != nil {
		return nil, err
	}

	var ts time.Time
	if r.Timestamp != nil {
		ts = *r.Timestamp
	}

	txn, err := transaction.New(r.PaymentID, r.CustomerID, r.MerchantID, amount, ts)
	if err != nil {
		return nil, err
	}

	txn.CardCountry = r.CardCountry
	txn.BillingCountry = r.BillingCountry
	txn.IPAddress = r.IPAddress
	txn.DeviceFingerprint = r.DeviceFingerprint
	txn.Email = r.Email
	txn.BillingAddress = r.BillingAddress
	txn.ShippingAddress = r.ShippingAddress

	return txn, nil
}

// toBatchInput maps one batch entry onto the scoring service's input.
// Feature-map entries skip transaction validation entirely, matching
// the single-score endpoint.
func (r *ScoreRequest) toBatchInput() (scoring.BatchInput, error) {
	if len(r.Features) > 0 {
		return scoring.BatchInput{PaymentID: r.PaymentID, Features: r.Features}, nil
	}

	txn, err := r.toTransaction()
	if err != nil {
		return scoring.BatchInput{}, err
	}
	return scoring.BatchInput{Transaction: txn}, nil
}
