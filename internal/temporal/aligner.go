// Package temporal aligns wide-form source extractions to election years.
//
// Rather than attaching one cross-sectional snapshot to every record, each
// election year is mapped to a source-year label (the mapping need not be
// the identity: 2024 is intentionally mapped to "2023" when no same-year
// source exists) and the value from that label's column is selected per
// record. The mapping is static configuration, never computed.
package temporal

import (
	"fmt"
	"log/slog"
	"sort"

	"countydata/internal/adapter"
)

// YearMap maps an election year to the source-table year label carrying the
// data aligned to it.
type YearMap map[int]string

// Labels returns the mapped labels keyed by election year in ascending
// election-year order.
func (m YearMap) Labels() []string {
	years := make([]int, 0, len(m))
	for y := range m {
		years = append(years, y)
	}
	sort.Ints(years)
	labels := make([]string, 0, len(years))
	for _, y := range years {
		labels = append(labels, m[y])
	}
	return labels
}

// Series is one year-aligned variable: for each election year, the county
// values selected from the mapped source-year column. A county present in
// the source but missing a value for the mapped label keeps a nil entry.
type Series struct {
	Variable string
	// values[electionYear][fips]
	values map[int]map[int]*float64
	// covered marks election years whose mapped label exists in the source.
	covered map[int]bool
}

// Value returns the aligned value for one county and election year. The
// second return is false when the county has no observation for the mapped
// label (including years whose label is absent from the source entirely).
func (s *Series) Value(fips, electionYear int) (*float64, bool) {
	byFIPS, ok := s.values[electionYear]
	if !ok {
		return nil, false
	}
	v, ok := byFIPS[fips]
	return v, ok
}

// Covered reports whether the mapped source-year label for the given
// election year was present in the source table.
func (s *Series) Covered(electionYear int) bool {
	return s.covered[electionYear]
}

// CountyKeys returns the FIPS keys with an observation for the given
// election year, sorted for deterministic folding.
func (s *Series) CountyKeys(electionYear int) []int {
	byFIPS := s.values[electionYear]
	keys := make([]int, 0, len(byFIPS))
	for fips := range byFIPS {
		keys = append(keys, fips)
	}
	sort.Ints(keys)
	return keys
}

// Aligner selects per-record values from multi-year extractions.
type Aligner struct {
	yearMap YearMap
	logger  *slog.Logger
}

// New creates an Aligner over a static election-year mapping.
func New(yearMap YearMap, logger *slog.Logger) *Aligner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aligner{yearMap: yearMap, logger: logger}
}

// Align indexes a wide-form extraction by election year. Election years
// whose mapped label is absent from the source produce a note and missing
// values for every record of that year, never an error.
func (a *Aligner) Align(ext adapter.Extraction) (*Series, []string) {
	series := &Series{
		Variable: ext.Variable,
		values:   make(map[int]map[int]*float64),
		covered:  make(map[int]bool),
	}

	byLabel := make(map[string]map[int]*float64)
	for _, o := range ext.Observations {
		if byLabel[o.YearLabel] == nil {
			byLabel[o.YearLabel] = make(map[int]*float64)
		}
		byLabel[o.YearLabel][o.FIPS] = o.Value
	}

	var notes []string
	electionYears := make([]int, 0, len(a.yearMap))
	for y := range a.yearMap {
		electionYears = append(electionYears, y)
	}
	sort.Ints(electionYears)

	for _, year := range electionYears {
		label := a.yearMap[year]
		byFIPS, ok := byLabel[label]
		if !ok {
			note := fmt.Sprintf("year %s not found in source %s for variable %s (election year %d)",
				label, ext.Source, ext.Variable, year)
			notes = append(notes, note)
			a.logger.Warn("mapped source year absent",
				"variable", ext.Variable,
				"source", ext.Source,
				"election_year", year,
				"source_year", label,
			)
			series.values[year] = make(map[int]*float64)
			continue
		}
		series.covered[year] = true
		series.values[year] = byFIPS
	}

	return series, notes
}
