package feature

import (
	"math"
	"strings"

	"github.com/davidleathers/fraud-scoring-backend/internal/domain/transaction"
)

const earthRadiusKm = 6371

func (c *Computer) computeGeography(features map[string]float64, txn *transaction.Transaction, sig RawSignals) {
	g := sig.Geo

	cardCountry := strings.ToUpper(txn.CardCountry)
	billingCountry := strings.ToUpper(txn.BillingCountry)

	ipCountry := ""
	if g.IPLocation != nil {
		ipCountry = strings.ToUpper(g.IPLocation.Country)
	}

	// Mismatches require a resolved IP country; an unresolvable IP is
	// not evidence of anything.
	cardMismatch := ipCountry != "" && cardCountry != "" && cardCountry != ipCountry
	ipMismatch := ipCountry != "" && billingCountry != "" && ipCountry != billingCountry

	distanceKm := 0.0
	if g.IPLocation != nil && g.LastLocation != nil {
		distanceKm = haversineKm(
			g.LastLocation.Latitude, g.LastLocation.Longitude,
			g.IPLocation.Latitude, g.IPLocation.Longitude,
		)
	}

	velocityKmh := 0.0
	if g.LastSeenAt != nil {
		elapsedHours := txn.Timestamp.Sub(*g.LastSeenAt).Hours()
		if elapsedHours > 0 {
			velocityKmh = distanceKm / elapsedHours
		}
	}

	anomaly := false
	if len(g.ActiveHours) > 0 {
		anomaly = !g.ActiveHours[txn.Timestamp.UTC().Hour()]
	}

	features[CardCountryMismatch] = boolToFloat(cardMismatch)
	features[IPCountryMismatch] = boolToFloat(ipMismatch)
	features[DistanceKm] = distanceKm
	features[VelocityKmPerHour] = velocityKmh
	features[HighRiskCountry] = boolToFloat(c.lists.HighRiskCountries[ipCountry])
	features[CountryChange24h] = boolToFloat(g.CountryChange24h)
	features[TimezoneAnomaly] = boolToFloat(anomaly)
}

func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
