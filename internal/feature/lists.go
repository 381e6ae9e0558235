package feature

import "strings"

// Lists holds the classification tables the computer consults. All of
// them come from configuration so risk teams can update them without a
// code change.
type Lists struct {
	HighRiskCountries      map[string]bool
	FreeEmailDomains       map[string]bool
	DisposableEmailDomains map[string]bool
	HighRiskIndustries     map[string]bool
	MediumRiskIndustries   map[string]bool
	// Holidays are "MM-DD" dates, compared against the transaction
	// timestamp's UTC calendar date.
	Holidays map[string]bool
	// HighValueThreshold is in minor units; amounts strictly above it
	// set high_value_flag.
	HighValueThreshold int64
}

// NewLists normalizes slices from configuration into lookup sets.
// Country codes are uppercased; domains, industries and holiday dates
// are lowercased.
func NewLists(highRiskCountries, freeDomains, disposableDomains, highRiskIndustries, mediumRiskIndustries, holidays []string, highValueThreshold int64) Lists {
	return Lists{
		HighRiskCountries:      toSet(highRiskCountries, strings.ToUpper),
		FreeEmailDomains:       toSet(freeDomains, strings.ToLower),
		DisposableEmailDomains: toSet(disposableDomains, strings.ToLower),
		HighRiskIndustries:     toSet(highRiskIndustries, strings.ToLower),
		MediumRiskIndustries:   toSet(mediumRiskIndustries, strings.ToLower),
		Holidays:               toSet(holidays, strings.ToLower),
		HighValueThreshold:     highValueThreshold,
	}
}

func toSet(items []string, normalize func(string) string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		set[normalize(item)] = true
	}
	return set
}
