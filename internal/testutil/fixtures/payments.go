package fixtures

import (
	"time"

	"github.com/google/uuid"
)

// CustomerRow seeds a customers row.
type CustomerRow struct {
	CustomerID string
	Email      string
	CreatedAt  time.Time
}

// NewCustomer creates a customer row created 365 days before now.
func NewCustomer(customerID string, now time.Time) *CustomerRow {
	return &CustomerRow{
		CustomerID: customerID,
		Email:      customerID + "@example.com",
		CreatedAt:  now.AddDate(0, 0, -365),
	}
}

// WithCreatedAt overrides the account creation time.
func (r *CustomerRow) WithCreatedAt(t time.Time) *CustomerRow {
	r.CreatedAt = t
	return r
}

func (r *CustomerRow) TableName() string { return "customers" }

func (r *CustomerRow) InsertQuery() string {
	return `INSERT INTO customers (customer_id, email, created_at) VALUES ($1, $2, $3)`
}

func (r *CustomerRow) Values() []interface{} {
	return []interface{}{r.CustomerID, r.Email, r.CreatedAt}
}

// MerchantRow seeds a merchants row.
type MerchantRow struct {
	MerchantID string
	Industry   string
	CreatedAt  time.Time
}

// NewMerchant creates a merchant row created 500 days before now.
func NewMerchant(merchantID, industry string, now time.Time) *MerchantRow {
	return &MerchantRow{
		MerchantID: merchantID,
		Industry:   industry,
		CreatedAt:  now.AddDate(0, 0, -500),
	}
}

// WithCreatedAt overrides the merchant creation time.
func (r *MerchantRow) WithCreatedAt(t time.Time) *MerchantRow {
	r.CreatedAt = t
	return r
}

func (r *MerchantRow) TableName() string { return "merchants" }

func (r *MerchantRow) InsertQuery() string {
	return `INSERT INTO merchants (merchant_id, industry, created_at) VALUES ($1, $2, $3)`
}

func (r *MerchantRow) Values() []interface{} {
	return []interface{}{r.MerchantID, r.Industry, r.CreatedAt}
}

// PaymentRow seeds a payments row. Amounts are minor units.
type PaymentRow struct {
	PaymentID     string
	CustomerID    string
	MerchantID    string
	Amount        int64
	Currency      string
	PaymentMethod string
	Status        string
	CreatedAt     time.Time
}

// NewPayment creates a succeeded card payment with a fresh payment ID.
func NewPayment(customerID, merchantID string, amount int64, createdAt time.Time) *PaymentRow {
	return &PaymentRow{
		PaymentID:     "pi_" + uuid.New().String()[:12],
		CustomerID:    customerID,
		MerchantID:    merchantID,
		Amount:        amount,
		Currency:      "USD",
		PaymentMethod: "card_visa_4242",
		Status:        "succeeded",
		CreatedAt:     createdAt,
	}
}

// WithStatus overrides the payment status.
func (r *PaymentRow) WithStatus(status string) *PaymentRow {
	r.Status = status
	return r
}

// WithMethod overrides the payment method fingerprint.
func (r *PaymentRow) WithMethod(method string) *PaymentRow {
	r.PaymentMethod = method
	return r
}

func (r *PaymentRow) TableName() string { return "payments" }

func (r *PaymentRow) InsertQuery() string {
	return `INSERT INTO payments (payment_id, customer_id, merchant_id, amount, currency, payment_method, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
}

func (r *PaymentRow) Values() []interface{} {
	return []interface{}{
		r.PaymentID, r.CustomerID, r.MerchantID, r.Amount,
		r.Currency, r.PaymentMethod, r.Status, r.CreatedAt,
	}
}

// DisputeRow seeds a disputes row against an existing payment.
type DisputeRow struct {
	DisputeID    string
	PaymentID    string
	IsChargeback bool
	CreatedAt    time.Time
}

// NewDispute creates a dispute for the given payment.
func NewDispute(paymentID string, chargeback bool, createdAt time.Time) *DisputeRow {
	return &DisputeRow{
		DisputeID:    "dp_" + uuid.New().String()[:12],
		PaymentID:    paymentID,
		IsChargeback: chargeback,
		CreatedAt:    createdAt,
	}
}

func (r *DisputeRow) TableName() string { return "disputes" }

func (r *DisputeRow) InsertQuery() string {
	return `INSERT INTO disputes (dispute_id, payment_id, is_chargeback, created_at) VALUES ($1, $2, $3, $4)`
}

func (r *DisputeRow) Values() []interface{} {
	return []interface{}{r.DisputeID, r.PaymentID, r.IsChargeback, r.CreatedAt}
}
