package adapter

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"countydata/pkg/contracts/domain"
)

func testGeography() Geography {
	return Geography{StatePrefix: "12", GeoIDPrefix: "0500000US"}
}

func testAdapter() *Adapter {
	return New(testGeography(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func fp(v float64) *float64 { return &v }

func TestDetectShape(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
		spec    VariableSpec
		want    Shape
	}{
		{
			name:    "attribute value pair is long",
			columns: []string{"FIPS", "County_Name", "Attribute", "Value"},
			spec:    VariableSpec{Attribute: &AttributeSelector{Attribute: "RUCC_2023"}},
			want:    ShapeLong,
		},
		{
			name:    "year columns are wide",
			columns: []string{"GeoFIPS", "GeoName", "Description", "2022", "2023"},
			spec:    VariableSpec{Series: &SeriesSelector{DescriptionContains: "per capita"}},
			want:    ShapeWide,
		},
		{
			name:    "coded estimates are a snapshot",
			columns: []string{"GEO_ID", "NAME", "B19013_001E", "B19013_001M"},
			spec:    VariableSpec{Estimate: &EstimateSelector{ColumnCode: "B19013"}},
			want:    ShapeSnapshot,
		},
		{
			name:    "attribute pair wins over year columns",
			columns: []string{"FIPS", "Attribute", "Value", "2020"},
			spec:    VariableSpec{Attribute: &AttributeSelector{Attribute: "RUCC_2023"}},
			want:    ShapeLong,
		},
		{
			name:    "five digit column is not a year",
			columns: []string{"GEO_ID", "12345", "B01001_001E"},
			spec:    VariableSpec{},
			want:    ShapeSnapshot,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := domain.Table{Name: "src", Columns: tt.columns}
			assert.Equal(t, tt.want, DetectShape(table, tt.spec))
		})
	}
}

func incomeTable() domain.Table {
	return domain.Table{
		Name:    "regional_income",
		Columns: []string{"GeoFIPS", "GeoName", "Description", "2022", "2023"},
		Rows: []domain.Row{
			{"GeoFIPS": `"12001"`, "GeoName": "Alachua, FL", "Description": "Per capita personal income (dollars) 2/", "2022": "54,091", "2023": "56,213"},
			{"GeoFIPS": `"12003"`, "GeoName": "Baker, FL", "Description": "Per capita personal income (dollars) 2/", "2022": "41,850", "2023": "(NA)"},
			{"GeoFIPS": `"12000"`, "GeoName": "Florida", "Description": "Per capita personal income (dollars) 2/", "2022": "63,597", "2023": "65,003"},
			{"GeoFIPS": `"13001"`, "GeoName": "Appling, GA", "Description": "Per capita personal income (dollars) 2/", "2022": "39,000", "2023": "40,000"},
			{"GeoFIPS": `"12001"`, "GeoName": "Alachua, FL", "Description": "Population (persons) 1/", "2022": "284,030", "2023": "287,525"},
		},
	}
}

func TestExtractWide(t *testing.T) {
	a := testAdapter()
	spec := VariableSpec{
		Name:   "Per_Capita_Income",
		Series: &SeriesSelector{DescriptionContains: "per capita personal income"},
	}

	ext := a.Extract(context.Background(), incomeTable(), spec)

	require.Equal(t, StatusExtracted, ext.Status)
	assert.Equal(t, ShapeWide, ext.Shape)
	assert.Equal(t, []string{"2022", "2023"}, ext.YearLabels())

	// Two in-state counties, two year columns each. The state aggregate and
	// the out-of-state county are dropped.
	require.Len(t, ext.Observations, 4)
	for _, o := range ext.Observations {
		assert.Contains(t, []int{12001, 12003}, o.FIPS)
		assert.Equal(t, "Per_Capita_Income", o.Variable)
	}

	byKey := make(map[string]*float64)
	for _, o := range ext.Observations {
		byKey[o.YearLabel+"/"+strconv.Itoa(o.FIPS)] = o.Value
	}
	require.NotNil(t, byKey["2022/12001"])
	assert.InDelta(t, 54091, *byKey["2022/12001"], 1e-9)
	assert.Nil(t, byKey["2023/12003"], "non-numeric cell must yield a missing value")
}

func TestExtractWideDescriptionNotFound(t *testing.T) {
	a := testAdapter()
	spec := VariableSpec{
		Name:   "Population",
		Series: &SeriesSelector{DescriptionContains: "median household wealth"},
	}

	ext := a.Extract(context.Background(), incomeTable(), spec)

	assert.Equal(t, StatusUnavailable, ext.Status)
	assert.False(t, ext.Available())
	assert.Empty(t, ext.Observations)
	assert.Contains(t, ext.Note, "median household wealth")
}

func TestExtractWideMissingGeoColumn(t *testing.T) {
	a := testAdapter()
	table := domain.Table{
		Name:    "regional_income",
		Columns: []string{"Region", "Description", "2022"},
		Rows:    []domain.Row{{"Region": "12001", "Description": "Per capita personal income", "2022": "1"}},
	}
	spec := VariableSpec{Name: "Per_Capita_Income", Series: &SeriesSelector{DescriptionContains: "per capita"}}

	ext := a.Extract(context.Background(), table, spec)

	assert.Equal(t, StatusUnavailable, ext.Status)
	assert.Contains(t, ext.Note, "GeoFIPS")
}

func ruralUrbanTable() domain.Table {
	return domain.Table{
		Name:    "rural_urban_codes",
		Columns: []string{"FIPS", "State", "County_Name", "Attribute", "Value"},
		Rows: []domain.Row{
			{"FIPS": "12001", "State": "FL", "County_Name": "Alachua County", "Attribute": "RUCC_2023", "Value": "2"},
			{"FIPS": "12001", "State": "FL", "County_Name": "Alachua County", "Attribute": "Population_2020", "Value": "278468"},
			{"FIPS": "12003", "State": "FL", "County_Name": "Baker County", "Attribute": " RUCC_2023 ", "Value": "2"},
			{"FIPS": "12000", "State": "FL", "County_Name": "Florida", "Attribute": "RUCC_2023", "Value": "1"},
			{"FIPS": "48001", "State": "TX", "County_Name": "Anderson County", "Attribute": "RUCC_2023", "Value": "6"},
		},
	}
}

func TestExtractLong(t *testing.T) {
	a := testAdapter()
	spec := VariableSpec{
		Name:      "Rural_Urban_Code",
		Attribute: &AttributeSelector{Attribute: "RUCC_2023"},
	}

	ext := a.Extract(context.Background(), ruralUrbanTable(), spec)

	require.Equal(t, StatusExtracted, ext.Status)
	assert.Equal(t, ShapeLong, ext.Shape)
	require.Len(t, ext.Observations, 2, "state aggregate and other states must be excluded")

	assert.Equal(t, 12001, ext.Observations[0].FIPS)
	require.NotNil(t, ext.Observations[0].Value)
	assert.InDelta(t, 2, *ext.Observations[0].Value, 1e-9)
	assert.Equal(t, 12003, ext.Observations[1].FIPS, "padded attribute cell must still match after trimming")
}

func TestExtractLongAttributeAbsent(t *testing.T) {
	a := testAdapter()
	spec := VariableSpec{
		Name:      "Rural_Urban_Code",
		Attribute: &AttributeSelector{Attribute: "RUCC_2013"},
	}

	ext := a.Extract(context.Background(), ruralUrbanTable(), spec)

	assert.Equal(t, StatusUnavailable, ext.Status)
	assert.Contains(t, ext.Note, "RUCC_2013")
}

func censusTable() domain.Table {
	return domain.Table{
		Name: "acs_profile",
		Columns: []string{
			"GEO_ID", "NAME",
			"B19013_001E", "B19013_001M",
			"B15003_001E", "B15003_022E", "B15003_023E", "B15003_025E",
		},
		Rows: []domain.Row{
			{
				"GEO_ID": "0500000US12001", "NAME": "Alachua County, Florida",
				"B19013_001E": "59216", "B19013_001M": "2110",
				"B15003_001E": "180000", "B15003_022E": "45000", "B15003_023E": "18000", "B15003_025E": "9000",
			},
			{
				"GEO_ID": "0500000US12003", "NAME": "Baker County, Florida",
				"B19013_001E": "62085", "B19013_001M": "5400",
				"B15003_001E": "0", "B15003_022E": "100", "B15003_023E": "50", "B15003_025E": "10",
			},
			{
				"GEO_ID": "0500000US13001", "NAME": "Appling County, Georgia",
				"B19013_001E": "45000", "B19013_001M": "4000",
				"B15003_001E": "12000", "B15003_022E": "900", "B15003_023E": "200", "B15003_025E": "40",
			},
			{
				"GEO_ID": "0400000US12", "NAME": "Florida",
				"B19013_001E": "67917", "B19013_001M": "300",
				"B15003_001E": "15000000", "B15003_022E": "3000000", "B15003_023E": "1200000", "B15003_025E": "500000",
			},
		},
	}
}

func TestExtractSnapshotSingleColumn(t *testing.T) {
	a := testAdapter()
	spec := VariableSpec{
		Name:     "Median_Household_Income",
		Estimate: &EstimateSelector{ColumnCode: "B19013"},
	}

	ext := a.Extract(context.Background(), censusTable(), spec)

	require.Equal(t, StatusExtracted, ext.Status)
	assert.Equal(t, ShapeSnapshot, ext.Shape)
	require.Len(t, ext.Observations, 2, "state summary and other states must be excluded")

	require.NotNil(t, ext.Observations[0].Value)
	assert.InDelta(t, 59216, *ext.Observations[0].Value, 1e-9, "estimate column must be used, not the margin of error")
	assert.Empty(t, ext.Observations[0].YearLabel)
}

func TestExtractSnapshotDerivedRatio(t *testing.T) {
	a := testAdapter()
	spec := VariableSpec{
		Name: "Bachelors_Or_Higher_Pct",
		Estimate: &EstimateSelector{
			NumeratorCodes:  []string{"B15003_022", "B15003_023", "B15003_024", "B15003_025"},
			DenominatorCode: "B15003_001",
			Scale:           100,
		},
	}

	ext := a.Extract(context.Background(), censusTable(), spec)

	require.Equal(t, StatusExtracted, ext.Status)
	require.Len(t, ext.Observations, 2)

	// (45000+18000+9000)/180000*100 = 40.00; the absent B15003_024 column
	// contributes zero.
	require.NotNil(t, ext.Observations[0].Value)
	assert.InDelta(t, 40.0, *ext.Observations[0].Value, 1e-9)

	// Zero denominator yields missing, not a division error.
	assert.Nil(t, ext.Observations[1].Value)
}

func TestExtractSnapshotDenominatorMissing(t *testing.T) {
	a := testAdapter()
	spec := VariableSpec{
		Name: "Bachelors_Or_Higher_Pct",
		Estimate: &EstimateSelector{
			NumeratorCodes:  []string{"B15003_022"},
			DenominatorCode: "B99999_001",
			Scale:           100,
		},
	}

	ext := a.Extract(context.Background(), censusTable(), spec)

	assert.Equal(t, StatusUnavailable, ext.Status)
	assert.Contains(t, ext.Note, "B99999_001")
}

func TestExtractSelectorShapeMismatch(t *testing.T) {
	a := testAdapter()
	// A snapshot table paired with a series selector cannot be extracted.
	spec := VariableSpec{
		Name:   "Median_Household_Income",
		Series: &SeriesSelector{DescriptionContains: "median household income"},
	}

	ext := a.Extract(context.Background(), censusTable(), spec)

	assert.Equal(t, StatusUnavailable, ext.Status)
}

func TestCountyFIPS(t *testing.T) {
	geo := testGeography()

	tests := []struct {
		name     string
		code     string
		wantFIPS int
		wantOK   bool
	}{
		{"plain county code", "12001", 12001, true},
		{"state aggregate excluded", "12000", 0, false},
		{"other state excluded", "13001", 0, false},
		{"too short", "1201", 0, false},
		{"too long", "120011", 0, false},
		{"non-numeric", "12abc", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fips, ok := geo.countyFIPS(tt.code)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantFIPS, fips)
		})
	}
}

func TestCountyFIPSFromGeoID(t *testing.T) {
	geo := testGeography()

	tests := []struct {
		name     string
		geoID    string
		wantFIPS int
		wantOK   bool
	}{
		{"county summary level", "0500000US12001", 12001, true},
		{"state summary level excluded", "0400000US12", 0, false},
		{"other state excluded", "0500000US13001", 0, false},
		{"empty", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fips, ok := geo.countyFIPSFromGeoID(tt.geoID)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantFIPS, fips)
		})
	}
}

func TestCleanGeoCode(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"quoted and padded", ` "12001" `, "12001"},
		{"quotes only", `"12001"`, "12001"},
		{"padding inside quotes", `" 12001 "`, "12001"},
		{"already clean", "12001", "12001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanGeoCode(tt.raw))
		})
	}
}

func TestCoerceNumeric(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want *float64
	}{
		{"integer", "42", fp(42)},
		{"decimal", "56.3", fp(56.3)},
		{"thousands separators", "1,234,567", fp(1234567)},
		{"padded", " 12 ", fp(12)},
		{"suppressed marker", "(NA)", nil},
		{"empty cell", "", nil},
		{"text", "n/a", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := coerceNumeric(tt.raw)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 1e-9)
		})
	}
}
