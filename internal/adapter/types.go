package adapter

// Shape identifies one source-table layout from the closed variant set.
type Shape string

const (
	// ShapeLong has an explicit attribute/value column pair.
	ShapeLong Shape = "long"
	// ShapeWide has one column per calendar year.
	ShapeWide Shape = "wide"
	// ShapeSnapshot has one row per entity with coded estimate columns.
	ShapeSnapshot Shape = "snapshot"
)

// Status reports whether a source produced data at all. StatusUnavailable
// means the expected attribute/description/column was absent entirely, which
// is different from an extracted result with zero observations.
type Status string

const (
	StatusExtracted   Status = "extracted"
	StatusUnavailable Status = "unavailable"
)

// Observation is one canonical long-form tuple. YearLabel is empty for
// static snapshot variables that apply to every election year. A nil Value
// records a cell that existed but did not parse as a number.
type Observation struct {
	FIPS      int      `json:"fips"`
	Variable  string   `json:"variable"`
	YearLabel string   `json:"year_label,omitempty"`
	Value     *float64 `json:"value"`
}

// Extraction is the adapter's result for one variable of one source table.
type Extraction struct {
	Source       string        `json:"source"`
	Variable     string        `json:"variable"`
	Shape        Shape         `json:"shape"`
	Status       Status        `json:"status"`
	Note         string        `json:"note,omitempty"`
	Observations []Observation `json:"observations,omitempty"`
}

// Available reports whether the source produced data for this variable.
func (e Extraction) Available() bool {
	return e.Status == StatusExtracted
}

// YearLabels returns the distinct year labels present, in column order of
// first appearance.
func (e Extraction) YearLabels() []string {
	seen := make(map[string]bool)
	var labels []string
	for _, o := range e.Observations {
		if o.YearLabel == "" || seen[o.YearLabel] {
			continue
		}
		seen[o.YearLabel] = true
		labels = append(labels, o.YearLabel)
	}
	return labels
}

// Geography carries the run's geographic scope: which state's counties to
// keep and how entity keys are encoded in each source family.
type Geography struct {
	// StatePrefix is the two-digit state FIPS prefix, e.g. "12" for Florida.
	StatePrefix string `json:"state_prefix"`
	// GeoIDPrefix is the census geography id prefix for county summary
	// levels, e.g. "0500000US"; the state prefix is appended when filtering.
	GeoIDPrefix string `json:"geo_id_prefix"`
}

// AggregateCode returns the state-total geography code excluded from
// county-level extraction, e.g. "12000".
func (g Geography) AggregateCode() string {
	return g.StatePrefix + "000"
}

// VariableSpec describes which logical variable to pull from a source table.
// Exactly one selector is normally set; the adapter picks the selector that
// matches the detected shape and reports the source unavailable when the
// shapes disagree.
type VariableSpec struct {
	// Name is the output variable name, e.g. "Per_Capita_Income".
	Name string `json:"name" validate:"required"`

	Series    *SeriesSelector    `json:"series,omitempty"`
	Attribute *AttributeSelector `json:"attribute,omitempty"`
	Estimate  *EstimateSelector  `json:"estimate,omitempty"`
}

// SeriesSelector selects a statistic row from a wide year-columned table.
type SeriesSelector struct {
	// DescriptionContains is matched case-insensitively against the trimmed
	// row description, e.g. "Per capita personal income".
	DescriptionContains string `json:"description_contains" validate:"required"`
	// DescriptionColumn defaults to "Description".
	DescriptionColumn string `json:"description_column,omitempty"`
	// GeoColumn defaults to "GeoFIPS".
	GeoColumn string `json:"geo_column,omitempty"`
}

// AttributeSelector selects rows of a long attribute/value table.
type AttributeSelector struct {
	// Attribute is matched exactly against the trimmed attribute cell,
	// e.g. "RUCC_2023".
	Attribute string `json:"attribute" validate:"required"`
	// AttributeColumn defaults to "Attribute".
	AttributeColumn string `json:"attribute_column,omitempty"`
	// ValueColumn defaults to "Value".
	ValueColumn string `json:"value_column,omitempty"`
	// FIPSColumn defaults to "FIPS".
	FIPSColumn string `json:"fips_column,omitempty"`
}

// EstimateSelector selects coded estimate columns from a snapshot table.
// Either ColumnCode (single value) or NumeratorCodes/DenominatorCode
// (derived ratio) is set.
type EstimateSelector struct {
	// ColumnCode selects the single estimate column containing this code,
	// e.g. "B19013".
	ColumnCode string `json:"column_code,omitempty"`
	// NumeratorCodes and DenominatorCode derive a ratio variable: the sum of
	// the numerator estimates over the denominator estimate. Numerator codes
	// whose column is absent contribute zero.
	NumeratorCodes  []string `json:"numerator_codes,omitempty"`
	DenominatorCode string   `json:"denominator_code,omitempty"`
	// Scale multiplies the ratio, e.g. 100 for a percentage share. Zero
	// means no scaling.
	Scale float64 `json:"scale,omitempty"`
	// GeoIDColumn defaults to "GEO_ID".
	GeoIDColumn string `json:"geo_id_column,omitempty"`
	// EstimateSuffix defaults to "E"; margin-of-error columns end in "M" and
	// are never selected.
	EstimateSuffix string `json:"estimate_suffix,omitempty"`
}

func (s *SeriesSelector) descriptionColumn() string {
	if s.DescriptionColumn != "" {
		return s.DescriptionColumn
	}
	return "Description"
}

func (s *SeriesSelector) geoColumn() string {
	if s.GeoColumn != "" {
		return s.GeoColumn
	}
	return "GeoFIPS"
}

func (s *AttributeSelector) attributeColumn() string {
	if s.AttributeColumn != "" {
		return s.AttributeColumn
	}
	return "Attribute"
}

func (s *AttributeSelector) valueColumn() string {
	if s.ValueColumn != "" {
		return s.ValueColumn
	}
	return "Value"
}

func (s *AttributeSelector) fipsColumn() string {
	if s.FIPSColumn != "" {
		return s.FIPSColumn
	}
	return "FIPS"
}

func (s *EstimateSelector) geoIDColumn() string {
	if s.GeoIDColumn != "" {
		return s.GeoIDColumn
	}
	return "GEO_ID"
}

func (s *EstimateSelector) estimateSuffix() string {
	if s.EstimateSuffix != "" {
		return s.EstimateSuffix
	}
	return "E"
}

func (s *EstimateSelector) scale() float64 {
	if s.Scale != 0 {
		return s.Scale
	}
	return 1
}
