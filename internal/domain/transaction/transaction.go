package transaction

import (
	"strings"
	"time"

	"github.com/davidleathers/fraud-scoring-backend/internal/domain/errors"
	"github.com/davidleathers/fraud-scoring-backend/internal/domain/values"
)

// Transaction is the immutable scoring input. Optional attributes use
// the zero value to mean "not supplied"; downstream feature derivation
// treats absent attributes with per-feature sentinels rather than
// failing the request.
type Transaction struct {
	PaymentID         string
	CustomerID        string
	MerchantID        string
	Amount            values.Money
	CardCountry       string
	BillingCountry    string
	IPAddress         string
	DeviceFingerprint string
	Email             string
	BillingAddress    string
	ShippingAddress   string
	Timestamp         time.Time
}

// New validates identity and amount and returns an immutable Transaction.
// A zero timestamp is replaced with the current UTC time.
func New(paymentID, customerID, merchantID string, amount values.Money, ts time.Time) (*Transaction, error) {
	if strings.TrimSpace(paymentID) == "" {
		return nil, errors.ErrMissingPaymentID
	}
	if strings.TrimSpace(customerID) == "" {
		return nil, errors.NewInvalidInputError("MISSING_CUSTOMER_ID", "customer_id is required")
	}
	if strings.TrimSpace(merchantID) == "" {
		return nil, errors.NewInvalidInputError("MISSING_MERCHANT_ID", "merchant_id is required")
	}
	if !amount.IsPositive() {
		return nil, errors.NewInvalidInputError("INVALID_AMOUNT", "amount must be positive")
	}
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	return &Transaction{
		PaymentID:  paymentID,
		CustomerID: customerID,
		MerchantID: merchantID,
		Amount:     amount,
		Timestamp:  ts.UTC(),
	}, nil
}

// EmailDomain returns the part after '@', or "" when the email is
// absent or malformed.
func (t *Transaction) EmailDomain() string {
	at := strings.LastIndex(t.Email, "@")
	if at < 0 || at == len(t.Email)-1 {
		return ""
	}
	return strings.ToLower(t.Email[at+1:])
}

// HasDeviceFingerprint reports whether a fingerprint was supplied.
func (t *Transaction) HasDeviceFingerprint() bool {
	return t.DeviceFingerprint != ""
}

// ShippingMismatch reports whether shipping and billing addresses
// differ. Two absent addresses compare equal, matching the historical
// behavior the model was trained on.
func (t *Transaction) ShippingMismatch() bool {
	return t.ShippingAddress != t.BillingAddress
}

// Location is a geographic point resolved from an IP address or a
// stored transaction record.
type Location struct {
	Latitude  float64
	Longitude float64
	Country   string
}
