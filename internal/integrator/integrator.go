// Package integrator merges enrichment tables into the election fact records
// with left-join semantics on the resolved FIPS key.
//
// The left-hand row count is sacrosanct: a merge never drops left rows and
// only multiplies them when a non-unique right-hand key naturally matches a
// row more than once. Missing matches leave the enrichment variables nil;
// completeness is the validator's concern. Merge order does not affect the
// result content.
package integrator

import (
	"log/slog"
	"math"

	"countydata/internal/adapter"
	"countydata/internal/temporal"
	"countydata/pkg/contracts/domain"
)

// EnrichmentRow is one right-hand row of a merge. ElectionYear is zero for
// static snapshot rows, which match records of every year; year-varying rows
// match only records of their election year.
type EnrichmentRow struct {
	FIPS         int                 `json:"fips"`
	ElectionYear int                 `json:"election_year,omitempty"`
	Values       map[string]*float64 `json:"values"`
}

// EnrichmentTable is one merge input: the rows plus the full set of variable
// names the source contributes, so unmatched records still gain the columns.
type EnrichmentTable struct {
	Name      string          `json:"name"`
	Variables []string        `json:"variables"`
	Rows      []EnrichmentRow `json:"rows"`
}

// FromSnapshot converts a snapshot extraction into a merge input attached to
// every election year.
func FromSnapshot(ext adapter.Extraction) EnrichmentTable {
	t := EnrichmentTable{Name: ext.Source, Variables: []string{ext.Variable}}
	for _, o := range ext.Observations {
		t.Rows = append(t.Rows, EnrichmentRow{
			FIPS:   o.FIPS,
			Values: map[string]*float64{ext.Variable: o.Value},
		})
	}
	return t
}

// FromSeries converts a year-aligned series into a merge input keyed by
// (fips, election year). Election years whose mapped source year was absent
// contribute no rows, so those records keep a nil value.
func FromSeries(name string, series *temporal.Series, electionYears []int) EnrichmentTable {
	t := EnrichmentTable{Name: name, Variables: []string{series.Variable}}
	for _, year := range electionYears {
		if !series.Covered(year) {
			continue
		}
		for _, fips := range seriesFIPS(series, year) {
			v, _ := series.Value(fips, year)
			t.Rows = append(t.Rows, EnrichmentRow{
				FIPS:         fips,
				ElectionYear: year,
				Values:       map[string]*float64{series.Variable: v},
			})
		}
	}
	return t
}

func seriesFIPS(series *temporal.Series, year int) []int {
	return series.CountyKeys(year)
}

// Integrator applies sequential left joins to the fact records.
type Integrator struct {
	logger *slog.Logger
}

// New creates an Integrator.
func New(logger *slog.Logger) *Integrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Integrator{logger: logger}
}

// Merge left-joins one enrichment table into the records. Records with a nil
// FIPS match nothing and keep nil variables. Multiple right rows sharing a
// key duplicate the left row, one output row per match.
func (g *Integrator) Merge(records []domain.IntegratedRecord, enr EnrichmentTable) []domain.IntegratedRecord {
	type joinKey struct {
		fips int
		year int
	}
	index := make(map[joinKey][]EnrichmentRow, len(enr.Rows))
	for _, row := range enr.Rows {
		k := joinKey{fips: row.FIPS, year: row.ElectionYear}
		index[k] = append(index[k], row)
	}

	out := make([]domain.IntegratedRecord, 0, len(records))
	unmatched := 0
	for _, rec := range records {
		var matches []EnrichmentRow
		if rec.FIPS != nil {
			matches = append(matches, index[joinKey{fips: *rec.FIPS, year: rec.Year}]...)
			matches = append(matches, index[joinKey{fips: *rec.FIPS}]...)
		}

		if len(matches) == 0 {
			r := rec.Clone()
			fillMissing(&r, enr.Variables)
			out = append(out, r)
			unmatched++
			continue
		}
		for _, m := range matches {
			r := rec.Clone()
			fillMissing(&r, enr.Variables)
			for name, v := range m.Values {
				r.Values[name] = v
			}
			out = append(out, r)
		}
	}

	g.logger.Info("merged enrichment table",
		"table", enr.Name,
		"variables", enr.Variables,
		"left_rows", len(records),
		"out_rows", len(out),
		"unmatched_rows", unmatched,
	)

	return out
}

// MergeAll applies the enrichment tables sequentially in the given order.
func (g *Integrator) MergeAll(records []domain.IntegratedRecord, tables []EnrichmentTable) []domain.IntegratedRecord {
	for _, t := range tables {
		records = g.Merge(records, t)
	}
	return records
}

func fillMissing(r *domain.IntegratedRecord, variables []string) {
	for _, v := range variables {
		if _, ok := r.Values[v]; !ok {
			r.Values[v] = nil
		}
	}
}

// CodeBand maps an inclusive range of ordinal codes to a coarse category.
type CodeBand struct {
	Min   int    `json:"min"`
	Max   int    `json:"max"`
	Label string `json:"label"`
}

// CodeLookup is the static code→description/category configuration for one
// coded enrichment variable, e.g. the 1-9 rural-urban continuum collapsed
// into three bands.
type CodeLookup struct {
	Variable          string         `json:"variable"`
	DescriptionColumn string         `json:"description_column"`
	CategoryColumn    string         `json:"category_column"`
	Descriptions      map[int]string `json:"descriptions"`
	Bands             []CodeBand     `json:"bands"`
}

// ApplyCodeLabels attaches the description and category labels for one coded
// variable in place. Records whose code is missing gain no labels; the
// missingness check reports them.
func (g *Integrator) ApplyCodeLabels(records []domain.IntegratedRecord, lookup CodeLookup) {
	labeled := 0
	for i := range records {
		v, ok := records[i].Values[lookup.Variable]
		if !ok || v == nil {
			continue
		}
		code := int(math.Round(*v))
		if desc, ok := lookup.Descriptions[code]; ok {
			records[i].Labels[lookup.DescriptionColumn] = desc
		}
		for _, band := range lookup.Bands {
			if code >= band.Min && code <= band.Max {
				records[i].Labels[lookup.CategoryColumn] = band.Label
				break
			}
		}
		labeled++
	}

	g.logger.Info("applied code labels",
		"variable", lookup.Variable,
		"labeled_rows", labeled,
		"total_rows", len(records),
	)
}
