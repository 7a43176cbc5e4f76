// Package resolver assigns the canonical FIPS key to election records by
// exact-match joining canonical county names against the reference entity
// set. The join is a left join: every record survives, matched or not.
// Unresolved rows keep a nil FIPS and flow downstream, where enrichment joins
// on the nil key simply attach nothing. Partial data loss is preferable to
// aborting the run.
package resolver

import (
	"log/slog"
	"sort"

	"countydata/pkg/contracts/domain"
)

// Report describes resolution gaps: the distinct canonical names with no
// reference entity, and how many rows they affect.
type Report struct {
	UnmatchedNames []string `json:"unmatched_names,omitempty"`
	UnmatchedRows  int      `json:"unmatched_rows"`
}

// Resolver holds the immutable reference table, indexed by canonical name.
type Resolver struct {
	byName map[string]int
	logger *slog.Logger
}

// New builds a Resolver over the reference entity set. The set is loaded once
// per run and treated as immutable configuration.
func New(reference []domain.ReferenceEntity, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	byName := make(map[string]int, len(reference))
	for _, e := range reference {
		byName[e.CountyName] = e.FIPS
	}
	return &Resolver{byName: byName, logger: logger}
}

// Resolve looks up one canonical name. The second return reports whether a
// reference entity with that exact name exists.
func (r *Resolver) Resolve(canonical string) (int, bool) {
	fips, ok := r.byName[canonical]
	return fips, ok
}

// ResolveRecords assigns FIPS in place for every record and reports the
// unmatched names. Unmatched rows are not dropped and not an error.
func (r *Resolver) ResolveRecords(records []domain.ElectionRecord) Report {
	unmatched := make(map[string]int)

	for i := range records {
		fips, ok := r.byName[records[i].CountyCanonical]
		if !ok {
			records[i].FIPS = nil
			unmatched[records[i].CountyCanonical]++
			continue
		}
		f := fips
		records[i].FIPS = &f
	}

	report := Report{}
	for name, rows := range unmatched {
		report.UnmatchedNames = append(report.UnmatchedNames, name)
		report.UnmatchedRows += rows
	}
	sort.Strings(report.UnmatchedNames)

	if report.UnmatchedRows > 0 {
		r.logger.Warn("counties not matched to reference set",
			"unmatched_names", report.UnmatchedNames,
			"affected_rows", report.UnmatchedRows,
		)
	}

	return report
}
