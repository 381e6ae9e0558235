package signal

import (
	"context"
	"fmt"
	"net/netip"

	"github.com/davidleathers/fraud-scoring-backend/internal/domain/transaction"
)

// GeoEntry maps an IP prefix to a location. Entries come from
// configuration; production deployments point the resolver interface
// at a real GeoIP provider instead.
type GeoEntry struct {
	CIDR      string
	Latitude  float64
	Longitude float64
	Country   string
}

type geoPrefix struct {
	prefix   netip.Prefix
	location transaction.Location
}

// staticGeoResolver resolves IPs against a fixed prefix table.
// Longest prefix wins.
type staticGeoResolver struct {
	prefixes []geoPrefix
}

// NewStaticGeoResolver builds a resolver from configured entries.
func NewStaticGeoResolver(entries []GeoEntry) (GeoResolver, error) {
	prefixes := make([]geoPrefix, 0, len(entries))
	for _, e := range entries {
		p, err := netip.ParsePrefix(e.CIDR)
		if err != nil {
			return nil, fmt.Errorf("invalid geo table entry %q: %w", e.CIDR, err)
		}
		prefixes = append(prefixes, geoPrefix{
			prefix: p,
			location: transaction.Location{
				Latitude:  e.Latitude,
				Longitude: e.Longitude,
				Country:   e.Country,
			},
		})
	}
	return &staticGeoResolver{prefixes: prefixes}, nil
}

// Resolve returns the location for the longest matching prefix, or
// nil when the address is unparsable or matches nothing.
func (r *staticGeoResolver) Resolve(_ context.Context, ipAddress string) (*transaction.Location, error) {
	addr, err := netip.ParseAddr(ipAddress)
	if err != nil {
		return nil, nil
	}

	var best *geoPrefix
	for i := range r.prefixes {
		p := &r.prefixes[i]
		if !p.prefix.Contains(addr) {
			continue
		}
		if best == nil || p.prefix.Bits() > best.prefix.Bits() {
			best = p
		}
	}
	if best == nil {
		return nil, nil
	}

	loc := best.location
	return &loc, nil
}
