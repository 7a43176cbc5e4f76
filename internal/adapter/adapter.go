package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"countydata/pkg/contracts/domain"
)

// Adapter converts external source tables into canonical long-form
// observations scoped to one state's counties.
type Adapter struct {
	geo    Geography
	logger *slog.Logger
}

// New creates an Adapter for the given geographic scope.
func New(geo Geography, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{geo: geo, logger: logger}
}

// DetectShape inspects the declared column names once and classifies the
// table. An explicit attribute/value column pair wins; otherwise any
// calendar-year column marks the table wide; everything else is a snapshot.
func DetectShape(t domain.Table, spec VariableSpec) Shape {
	attrCol, valCol := "Attribute", "Value"
	if spec.Attribute != nil {
		attrCol = spec.Attribute.attributeColumn()
		valCol = spec.Attribute.valueColumn()
	}
	if t.HasColumn(attrCol) && t.HasColumn(valCol) {
		return ShapeLong
	}
	for _, c := range t.Columns {
		if isYearColumn(c) {
			return ShapeWide
		}
	}
	return ShapeSnapshot
}

// Extract pulls one variable out of one source table. It never returns an
// error: a source whose expected attribute, description, or column is absent
// yields StatusUnavailable with a note, and callers proceed without it.
func (a *Adapter) Extract(ctx context.Context, t domain.Table, spec VariableSpec) Extraction {
	ext := Extraction{
		Source:   t.Name,
		Variable: spec.Name,
		Shape:    DetectShape(t, spec),
		Status:   StatusExtracted,
	}

	switch ext.Shape {
	case ShapeLong:
		a.extractLong(&ext, t, spec)
	case ShapeWide:
		a.extractWide(&ext, t, spec)
	case ShapeSnapshot:
		a.extractSnapshot(&ext, t, spec)
	}

	if ext.Status == StatusUnavailable {
		a.logger.WarnContext(ctx, "enrichment source unavailable",
			"source", t.Name,
			"variable", spec.Name,
			"shape", string(ext.Shape),
			"note", ext.Note,
		)
	} else {
		a.logger.InfoContext(ctx, "extracted source variable",
			"source", t.Name,
			"variable", spec.Name,
			"shape", string(ext.Shape),
			"observations", len(ext.Observations),
		)
	}

	return ext
}

func (e *Extraction) unavailable(format string, args ...any) {
	e.Status = StatusUnavailable
	e.Note = fmt.Sprintf(format, args...)
	e.Observations = nil
}

// extractLong filters an attribute/value table to one exact attribute name.
func (a *Adapter) extractLong(ext *Extraction, t domain.Table, spec VariableSpec) {
	sel := spec.Attribute
	if sel == nil {
		ext.unavailable("source %s is long-form but variable %s has no attribute selector", t.Name, spec.Name)
		return
	}
	if !t.HasColumn(sel.fipsColumn()) {
		ext.unavailable("source %s has no %s column", t.Name, sel.fipsColumn())
		return
	}

	attrSeen := false
	for _, row := range t.Rows {
		if strings.TrimSpace(row[sel.attributeColumn()]) != sel.Attribute {
			continue
		}
		attrSeen = true
		code := cleanGeoCode(row[sel.fipsColumn()])
		fips, ok := a.geo.countyFIPS(code)
		if !ok {
			continue
		}
		ext.Observations = append(ext.Observations, Observation{
			FIPS:     fips,
			Variable: spec.Name,
			Value:    coerceNumeric(row[sel.valueColumn()]),
		})
	}

	if !attrSeen {
		ext.unavailable("attribute %q not found in source %s", sel.Attribute, t.Name)
	}
}

// extractWide selects statistic rows by description substring and emits one
// observation per county per year column.
func (a *Adapter) extractWide(ext *Extraction, t domain.Table, spec VariableSpec) {
	sel := spec.Series
	if sel == nil {
		ext.unavailable("source %s is wide-form but variable %s has no series selector", t.Name, spec.Name)
		return
	}
	if !t.HasColumn(sel.geoColumn()) {
		ext.unavailable("source %s has no %s column", t.Name, sel.geoColumn())
		return
	}
	if !t.HasColumn(sel.descriptionColumn()) {
		ext.unavailable("source %s has no %s column", t.Name, sel.descriptionColumn())
		return
	}

	var yearCols []string
	for _, c := range t.Columns {
		if isYearColumn(c) {
			yearCols = append(yearCols, c)
		}
	}

	needle := strings.ToLower(sel.DescriptionContains)
	matched := false
	for _, row := range t.Rows {
		desc := strings.ToLower(strings.TrimSpace(row[sel.descriptionColumn()]))
		if !strings.Contains(desc, needle) {
			continue
		}
		matched = true
		code := cleanGeoCode(row[sel.geoColumn()])
		fips, ok := a.geo.countyFIPS(code)
		if !ok {
			continue
		}
		for _, yc := range yearCols {
			ext.Observations = append(ext.Observations, Observation{
				FIPS:      fips,
				Variable:  spec.Name,
				YearLabel: yc,
				Value:     coerceNumeric(row[yc]),
			})
		}
	}

	if !matched {
		ext.unavailable("description %q not found in source %s", sel.DescriptionContains, t.Name)
	}
}

// extractSnapshot pulls a coded estimate column, or a derived ratio over
// several coded columns, from a one-row-per-entity table.
func (a *Adapter) extractSnapshot(ext *Extraction, t domain.Table, spec VariableSpec) {
	sel := spec.Estimate
	if sel == nil {
		ext.unavailable("source %s is a snapshot but variable %s has no estimate selector", t.Name, spec.Name)
		return
	}
	if !t.HasColumn(sel.geoIDColumn()) {
		ext.unavailable("source %s has no %s column", t.Name, sel.geoIDColumn())
		return
	}

	if sel.ColumnCode != "" {
		col, ok := findEstimateColumn(t, sel.ColumnCode, sel.estimateSuffix())
		if !ok {
			ext.unavailable("no estimate column matching %q in source %s", sel.ColumnCode, t.Name)
			return
		}
		for _, row := range t.Rows {
			fips, ok := a.geo.countyFIPSFromGeoID(row[sel.geoIDColumn()])
			if !ok {
				continue
			}
			ext.Observations = append(ext.Observations, Observation{
				FIPS:     fips,
				Variable: spec.Name,
				Value:    coerceNumeric(row[col]),
			})
		}
		return
	}

	denomCol, ok := findEstimateColumn(t, sel.DenominatorCode, sel.estimateSuffix())
	if !ok {
		ext.unavailable("no estimate column matching %q in source %s", sel.DenominatorCode, t.Name)
		return
	}
	// Numerator codes whose column is absent contribute zero; only the
	// denominator is mandatory.
	var numerCols []string
	for _, code := range sel.NumeratorCodes {
		if c, ok := findEstimateColumn(t, code, sel.estimateSuffix()); ok {
			numerCols = append(numerCols, c)
		}
	}
	if len(numerCols) == 0 {
		ext.unavailable("no estimate columns matching numerators %v in source %s", sel.NumeratorCodes, t.Name)
		return
	}

	for _, row := range t.Rows {
		fips, ok := a.geo.countyFIPSFromGeoID(row[sel.geoIDColumn()])
		if !ok {
			continue
		}
		ext.Observations = append(ext.Observations, Observation{
			FIPS:     fips,
			Variable: spec.Name,
			Value:    deriveRatio(row, numerCols, denomCol, sel.scale()),
		})
	}
}

// findEstimateColumn locates the estimate column carrying a table code: the
// column name contains the code and ends with the estimate suffix.
func findEstimateColumn(t domain.Table, code, suffix string) (string, bool) {
	if code == "" {
		return "", false
	}
	for _, c := range t.Columns {
		if strings.Contains(c, code) && strings.HasSuffix(c, suffix) {
			return c, true
		}
	}
	return "", false
}

// deriveRatio computes sum(numerators)/denominator*scale rounded to two
// decimals. A missing or zero denominator yields a missing value.
func deriveRatio(row domain.Row, numerCols []string, denomCol string, scale float64) *float64 {
	denom := coerceNumeric(row[denomCol])
	if denom == nil || *denom == 0 {
		return nil
	}
	var sum float64
	for _, c := range numerCols {
		if v := coerceNumeric(row[c]); v != nil {
			sum += *v
		}
	}
	ratio := math.Round(sum/(*denom)*scale*100) / 100
	return &ratio
}
