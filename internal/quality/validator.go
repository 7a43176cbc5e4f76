// Package quality runs invariant checks over the integrated table and
// reports findings as data, never as control flow. Validate is a total
// function: any input, including zero rows, yields the table back plus an
// issue list, and every check runs regardless of what earlier checks found.
// An empty issue list is the pass signal.
package quality

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"countydata/pkg/contracts/domain"
)

// Thresholds are the policy constants of the checks. The shipped values are
// defaults, not law; callers may tune them per run.
type Thresholds struct {
	// LowTurnout flags rows below this percentage as the stronger signal.
	LowTurnout float64 `json:"low_turnout" validate:"min=0,max=100"`
	// HighTurnout flags rows above this percentage.
	HighTurnout float64 `json:"high_turnout" validate:"min=0,max=100"`
	// TurnoutTolerance is the absolute percentage-point tolerance between
	// reported and recomputed turnout.
	TurnoutTolerance float64 `json:"turnout_tolerance" validate:"min=0"`
	// ExpectedCountiesPerYear is the distinct-county count every election
	// year must carry.
	ExpectedCountiesPerYear int `json:"expected_counties_per_year" validate:"min=1"`
}

// DefaultThresholds returns the policy constants from the source system:
// 30/95 turnout bounds, 0.5 point tolerance, 67 Florida counties.
func DefaultThresholds() Thresholds {
	return Thresholds{
		LowTurnout:              30,
		HighTurnout:             95,
		TurnoutTolerance:        0.5,
		ExpectedCountiesPerYear: 67,
	}
}

// Validator runs the checks.
type Validator struct {
	thresholds Thresholds
	logger     *slog.Logger
}

// New creates a Validator with the given thresholds.
func New(thresholds Thresholds, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{thresholds: thresholds, logger: logger}
}

// Validate runs every check over the integrated records and returns the
// records untouched alongside the union of all findings. Helper values for
// the recomputation check are locals and never persisted as columns.
func (v *Validator) Validate(ctx context.Context, records []domain.IntegratedRecord) ([]domain.IntegratedRecord, []domain.QualityIssue) {
	var issues []domain.QualityIssue

	issues = append(issues, v.checkMissingness(records)...)
	issues = append(issues, v.checkCardinality(records)...)
	issues = append(issues, v.checkTurnoutRange(records)...)
	issues = append(issues, v.checkRecomputation(records)...)
	issues = append(issues, v.checkDuplicates(records)...)

	if len(issues) == 0 {
		v.logger.InfoContext(ctx, "all quality checks passed", "rows", len(records))
	} else {
		v.logger.WarnContext(ctx, "quality checks found issues",
			"rows", len(records),
			"issue_count", len(issues),
		)
	}

	return records, issues
}

// checkMissingness counts nil values per column: the FIPS key, every
// enrichment variable, and every derived label column.
func (v *Validator) checkMissingness(records []domain.IntegratedRecord) []domain.QualityIssue {
	var issues []domain.QualityIssue

	missingFIPS := 0
	for _, r := range records {
		if r.FIPS == nil {
			missingFIPS++
		}
	}
	if missingFIPS > 0 {
		issues = append(issues, domain.QualityIssue{
			Category:    domain.IssueMissingValues,
			Description: fmt.Sprintf("missing values in FIPS: %d", missingFIPS),
		})
	}

	for _, col := range domain.VariableColumns(records) {
		missing := 0
		for _, r := range records {
			if v, ok := r.Values[col]; !ok || v == nil {
				missing++
			}
		}
		if missing > 0 {
			issues = append(issues, domain.QualityIssue{
				Category:    domain.IssueMissingValues,
				Description: fmt.Sprintf("missing values in %s: %d", col, missing),
			})
		}
	}

	for _, col := range labelColumns(records) {
		missing := 0
		for _, r := range records {
			if _, ok := r.Labels[col]; !ok {
				missing++
			}
		}
		if missing > 0 {
			issues = append(issues, domain.QualityIssue{
				Category:    domain.IssueMissingValues,
				Description: fmt.Sprintf("missing values in %s: %d", col, missing),
			})
		}
	}

	return issues
}

// checkCardinality verifies the distinct-county count per election year.
func (v *Validator) checkCardinality(records []domain.IntegratedRecord) []domain.QualityIssue {
	counties := make(map[int]map[string]bool)
	for _, r := range records {
		if counties[r.Year] == nil {
			counties[r.Year] = make(map[string]bool)
		}
		counties[r.Year][r.CountyCanonical] = true
	}

	years := make([]int, 0, len(counties))
	for y := range counties {
		years = append(years, y)
	}
	sort.Ints(years)

	var issues []domain.QualityIssue
	for _, y := range years {
		if got := len(counties[y]); got != v.thresholds.ExpectedCountiesPerYear {
			issues = append(issues, domain.QualityIssue{
				Category: domain.IssueCardinality,
				Description: fmt.Sprintf("year %d has %d counties, expected %d",
					y, got, v.thresholds.ExpectedCountiesPerYear),
			})
		}
	}
	return issues
}

// checkTurnoutRange itemizes rows outside the configured turnout bounds.
func (v *Validator) checkTurnoutRange(records []domain.IntegratedRecord) []domain.QualityIssue {
	var issues []domain.QualityIssue
	for _, r := range records {
		switch {
		case r.TurnoutPercent < v.thresholds.LowTurnout:
			issues = append(issues, domain.QualityIssue{
				Category: domain.IssueLowTurnout,
				Description: fmt.Sprintf("turnout %.1f%% below %.0f%%",
					r.TurnoutPercent, v.thresholds.LowTurnout),
				AffectedKeys: []string{r.Key()},
			})
		case r.TurnoutPercent > v.thresholds.HighTurnout:
			issues = append(issues, domain.QualityIssue{
				Category: domain.IssueHighTurnout,
				Description: fmt.Sprintf("turnout %.1f%% above %.0f%%",
					r.TurnoutPercent, v.thresholds.HighTurnout),
				AffectedKeys: []string{r.Key()},
			})
		}
	}
	return issues
}

// checkRecomputation compares the reported turnout against an independently
// recomputed votes/registered ratio, rounded to one decimal, within the
// configured absolute tolerance. Rows with zero registered voters are
// skipped here; the ratio is undefined and the range check already flags
// their turnout.
func (v *Validator) checkRecomputation(records []domain.IntegratedRecord) []domain.QualityIssue {
	var issues []domain.QualityIssue
	for _, r := range records {
		if r.RegisteredVoters <= 0 {
			continue
		}
		recomputed := math.Round(float64(r.VotesCast)/float64(r.RegisteredVoters)*1000) / 10
		if math.Abs(recomputed-r.TurnoutPercent) > v.thresholds.TurnoutTolerance {
			issues = append(issues, domain.QualityIssue{
				Category: domain.IssueTurnoutMismatch,
				Description: fmt.Sprintf("reported turnout %.1f%% but recomputed %.1f%%",
					r.TurnoutPercent, recomputed),
				AffectedKeys: []string{r.Key()},
			})
		}
	}
	return issues
}

// checkDuplicates reports every (county, year) key appearing more than once.
// All rows of a duplicated key are included in the report.
func (v *Validator) checkDuplicates(records []domain.IntegratedRecord) []domain.QualityIssue {
	counts := make(map[string]int)
	for _, r := range records {
		counts[r.Key()]++
	}

	var keys []string
	total := 0
	for _, r := range records {
		if counts[r.Key()] > 1 {
			keys = append(keys, r.Key())
			total++
		}
	}
	if total == 0 {
		return nil
	}
	sort.Strings(keys)

	return []domain.QualityIssue{{
		Category:     domain.IssueDuplicateKey,
		Description:  fmt.Sprintf("found %d duplicate county/year rows", total),
		AffectedKeys: keys,
	}}
}

func labelColumns(records []domain.IntegratedRecord) []string {
	seen := make(map[string]bool)
	for _, r := range records {
		for name := range r.Labels {
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
