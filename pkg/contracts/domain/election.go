package domain

import (
	"fmt"
	"sort"
)

// ElectionRecord is one county/election-year observation from the fact table.
// FIPS stays nil until the resolver matches the canonical name against the
// reference set; unresolved rows continue downstream with a nil key.
type ElectionRecord struct {
	CountyRaw        string  `json:"county_raw"`
	CountyCanonical  string  `json:"county_canonical" validate:"required"`
	FIPS             *int    `json:"fips,omitempty"`
	Year             int     `json:"year" validate:"required"`
	RegisteredVoters int     `json:"registered_voters" validate:"min=0"`
	VotesCast        int     `json:"votes_cast" validate:"min=0"`
	TurnoutPercent   float64 `json:"turnout_percent" validate:"min=0,max=100"`
}

// Key returns the county/year identity used by duplicate and range reporting.
func (r ElectionRecord) Key() string {
	return fmt.Sprintf("%s/%d", r.CountyCanonical, r.Year)
}

// ReferenceEntity is one row of the immutable FIPS reference table.
// FIPS is the primary key of the whole system; CountyName is the single
// canonical spelling all textual variants normalize to.
type ReferenceEntity struct {
	FIPS       int    `json:"fips" validate:"required"`
	CountyName string `json:"county_name" validate:"required"`
}

// IntegratedRecord is an ElectionRecord extended with the enrichment values
// and derived categorical labels attached during integration. A nil value
// means the enrichment failed to match for this row; completeness is the
// validator's concern, not the integrator's.
type IntegratedRecord struct {
	ElectionRecord

	Values map[string]*float64 `json:"values"`
	Labels map[string]string   `json:"labels,omitempty"`
}

// NewIntegratedRecord wraps an election record with empty enrichment maps.
func NewIntegratedRecord(e ElectionRecord) IntegratedRecord {
	return IntegratedRecord{
		ElectionRecord: e,
		Values:         make(map[string]*float64),
		Labels:         make(map[string]string),
	}
}

// Clone returns a deep copy; the integrator duplicates rows on one-to-many
// matches and must not share maps between copies.
func (r IntegratedRecord) Clone() IntegratedRecord {
	out := r
	out.Values = make(map[string]*float64, len(r.Values))
	for k, v := range r.Values {
		out.Values[k] = v
	}
	out.Labels = make(map[string]string, len(r.Labels))
	for k, v := range r.Labels {
		out.Labels[k] = v
	}
	return out
}

// VariableColumns returns the union of enrichment variable names across the
// record set, sorted for deterministic reporting.
func VariableColumns(records []IntegratedRecord) []string {
	seen := make(map[string]bool)
	for _, r := range records {
		for name := range r.Values {
			seen[name] = true
		}
	}
	cols := make([]string, 0, len(seen))
	for name := range seen {
		cols = append(cols, name)
	}
	sort.Strings(cols)
	return cols
}
