package feature

// Feature names. Downstream code refers to features by these constants;
// the model vector is assembled from Definitions order, never from map
// iteration order.
const (
	TransactionCount1h  = "transaction_count_1h"
	TransactionCount24h = "transaction_count_24h"
	TransactionCount7d  = "transaction_count_7d"
	TransactionCount30d = "transaction_count_30d"
	UniqueCards30d      = "unique_cards_30d"
	UniqueMerchants30d  = "unique_merchants_30d"

	AvgAmount7d      = "avg_amount_7d"
	StddevAmount7d   = "stddev_amount_7d"
	MaxAmount30d     = "max_amount_30d"
	AmountRatioToAvg = "amount_ratio_to_avg"
	AmountZScore     = "amount_zscore"
	RoundAmount      = "round_amount"
	HighValueFlag    = "high_value_flag"
	AmountPercentile = "amount_percentile"

	CardCountryMismatch = "card_country_mismatch"
	IPCountryMismatch   = "ip_country_mismatch"
	DistanceKm          = "distance_km"
	VelocityKmPerHour   = "velocity_km_per_hour"
	HighRiskCountry     = "high_risk_country"
	CountryChange24h    = "country_change_24h"
	TimezoneAnomaly     = "timezone_anomaly"

	DeviceFingerprintAgeDays = "device_fingerprint_age_days"
	DeviceFingerprintNew     = "device_fingerprint_new"
	EmailDomainAgeDays       = "email_domain_age_days"
	EmailDomainFree          = "email_domain_free"
	EmailDomainDisposable    = "email_domain_disposable"
	BrowserVersionOutdated   = "browser_version_outdated"

	CustomerAgeDays          = "customer_age_days"
	FirstTransactionCustomer = "first_transaction_customer"
	CustomerDisputeHistory   = "customer_dispute_history"
	CustomerSuccessRate      = "customer_success_rate"
	DaysSinceLastTransaction = "days_since_last_transaction"
	CustomerLifetimeValue    = "customer_lifetime_value"
	AvgTransactionPerMonth   = "avg_transaction_per_month"
	ChargebackRate30d        = "chargeback_rate_30d"

	MerchantAgeDays         = "merchant_age_days"
	MerchantDisputeRate30d  = "merchant_dispute_rate_30d"
	MerchantChargebackRate  = "merchant_chargeback_rate"
	MerchantAvgTicket       = "merchant_avg_ticket"
	MerchantIndustryRisk    = "merchant_industry_risk"
	TimeOfDay               = "time_of_day"
	DayOfWeek               = "day_of_week"
	IsWeekend               = "is_weekend"
	IsHoliday               = "is_holiday"
	ShippingAddressMismatch = "shipping_address_mismatch"
)

// Count is the width of the model input vector.
const Count = 45

// Category groups features by the signal domain they derive from.
type Category string

const (
	CategoryVelocity        Category = "velocity"
	CategoryAmount          Category = "amount"
	CategoryGeography       Category = "geography"
	CategoryDeviceEmail     Category = "device_email"
	CategoryCustomerHistory Category = "customer_history"
	CategoryMerchantRisk    Category = "merchant_risk"
	CategoryContextual      Category = "contextual"
)

// Definition describes one catalog entry: its name and the category it
// belongs to. Names absent from a caller-supplied feature map are
// treated as zero when the model vector is assembled, exactly as the
// model was trained.
type Definition struct {
	Name     string
	Category Category
}

// definitions is the catalog in model training order. The position of
// each entry is the position of that feature in the input vector; do
// not reorder.
var definitions = [Count]Definition{
	{TransactionCount1h, CategoryVelocity},
	{TransactionCount24h, CategoryVelocity},
	{TransactionCount7d, CategoryVelocity},
	{TransactionCount30d, CategoryVelocity},
	{UniqueCards30d, CategoryVelocity},
	{UniqueMerchants30d, CategoryVelocity},
	{AvgAmount7d, CategoryAmount},
	{StddevAmount7d, CategoryAmount},
	{MaxAmount30d, CategoryAmount},
	{AmountRatioToAvg, CategoryAmount},
	{AmountZScore, CategoryAmount},
	{RoundAmount, CategoryAmount},
	{HighValueFlag, CategoryAmount},
	{AmountPercentile, CategoryAmount},
	{CardCountryMismatch, CategoryGeography},
	{IPCountryMismatch, CategoryGeography},
	{DistanceKm, CategoryGeography},
	{VelocityKmPerHour, CategoryGeography},
	{HighRiskCountry, CategoryGeography},
	{CountryChange24h, CategoryGeography},
	{TimezoneAnomaly, CategoryGeography},
	{DeviceFingerprintAgeDays, CategoryDeviceEmail},
	{DeviceFingerprintNew, CategoryDeviceEmail},
	{EmailDomainAgeDays, CategoryDeviceEmail},
	{EmailDomainFree, CategoryDeviceEmail},
	{EmailDomainDisposable, CategoryDeviceEmail},
	{BrowserVersionOutdated, CategoryDeviceEmail},
	{CustomerAgeDays, CategoryCustomerHistory},
	{FirstTransactionCustomer, CategoryCustomerHistory},
	{CustomerDisputeHistory, CategoryCustomerHistory},
	{CustomerSuccessRate, CategoryCustomerHistory},
	{DaysSinceLastTransaction, CategoryCustomerHistory},
	{CustomerLifetimeValue, CategoryCustomerHistory},
	{AvgTransactionPerMonth, CategoryCustomerHistory},
	{ChargebackRate30d, CategoryCustomerHistory},
	{MerchantAgeDays, CategoryMerchantRisk},
	{MerchantDisputeRate30d, CategoryMerchantRisk},
	{MerchantChargebackRate, CategoryMerchantRisk},
	{MerchantAvgTicket, CategoryMerchantRisk},
	{MerchantIndustryRisk, CategoryMerchantRisk},
	{TimeOfDay, CategoryContextual},
	{DayOfWeek, CategoryContextual},
	{IsWeekend, CategoryContextual},
	{IsHoliday, CategoryContextual},
	{ShippingAddressMismatch, CategoryContextual},
}

var knownNames = func() map[string]struct{} {
	m := make(map[string]struct{}, Count)
	for _, d := range definitions {
		m[d.Name] = struct{}{}
	}
	return m
}()

// Definitions returns the catalog in model order.
func Definitions() []Definition {
	out := make([]Definition, Count)
	copy(out, definitions[:])
	return out
}

// Names returns the feature names in model order.
func Names() []string {
	out := make([]string, Count)
	for i, d := range definitions {
		out[i] = d.Name
	}
	return out
}

// IsKnown reports whether a name is in the catalog.
func IsKnown(name string) bool {
	_, ok := knownNames[name]
	return ok
}
