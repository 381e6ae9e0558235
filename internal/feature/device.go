package feature

import (
	"github.com/davidleathers/fraud-scoring-backend/internal/domain/transaction"
)

func (c *Computer) computeDeviceEmail(features map[string]float64, txn *transaction.Transaction, sig RawSignals) {
	d := sig.Device

	// A fingerprint the store has never seen is a brand-new device.
	deviceAge := int64(0)
	if d.DeviceAgeDays != nil {
		deviceAge = *d.DeviceAgeDays
	}

	domainAge := int64(0)
	if d.EmailDomainAgeDays != nil {
		domainAge = *d.EmailDomainAgeDays
	}

	domain := txn.EmailDomain()

	features[DeviceFingerprintAgeDays] = float64(deviceAge)
	features[DeviceFingerprintNew] = boolToFloat(deviceAge < 1)
	features[EmailDomainAgeDays] = float64(domainAge)
	features[EmailDomainFree] = boolToFloat(domain != "" && c.lists.FreeEmailDomains[domain])
	features[EmailDomainDisposable] = boolToFloat(domain != "" && c.lists.DisposableEmailDomains[domain])
	// Browser detection needs client hints the payload does not carry.
	features[BrowserVersionOutdated] = 0
}
