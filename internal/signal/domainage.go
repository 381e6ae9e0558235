package signal

import (
	"context"
	"strings"
)

// staticDomainAgeResolver answers domain-age lookups from a fixed
// table. Unknown domains resolve to nil; a WHOIS-backed implementation
// can replace this behind the same interface.
type staticDomainAgeResolver struct {
	ages map[string]int64
}

// NewStaticDomainAgeResolver builds a resolver from a configured
// domain -> age-in-days table.
func NewStaticDomainAgeResolver(ages map[string]int64) DomainAgeResolver {
	normalized := make(map[string]int64, len(ages))
	for domain, age := range ages {
		normalized[strings.ToLower(strings.TrimSpace(domain))] = age
	}
	return &staticDomainAgeResolver{ages: normalized}
}

func (r *staticDomainAgeResolver) DomainAgeDays(_ context.Context, domain string) (*int64, error) {
	age, ok := r.ages[strings.ToLower(domain)]
	if !ok {
		return nil, nil
	}
	return &age, nil
}
