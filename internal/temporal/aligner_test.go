package temporal

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"countydata/internal/adapter"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fp(v float64) *float64 { return &v }

func incomeExtraction() adapter.Extraction {
	return adapter.Extraction{
		Source:   "regional_income",
		Variable: "Per_Capita_Income",
		Shape:    adapter.ShapeWide,
		Status:   adapter.StatusExtracted,
		Observations: []adapter.Observation{
			{FIPS: 12001, Variable: "Per_Capita_Income", YearLabel: "2022", Value: fp(54091)},
			{FIPS: 12001, Variable: "Per_Capita_Income", YearLabel: "2023", Value: fp(56213)},
			{FIPS: 12003, Variable: "Per_Capita_Income", YearLabel: "2022", Value: fp(41850)},
			{FIPS: 12003, Variable: "Per_Capita_Income", YearLabel: "2023", Value: nil},
		},
	}
}

func TestYearMapLabels(t *testing.T) {
	m := YearMap{2024: "2023", 2022: "2022", 2020: "2020"}
	assert.Equal(t, []string{"2020", "2022", "2023"}, m.Labels())
}

func TestAlignMapsElectionYearToSourceLabel(t *testing.T) {
	a := New(YearMap{2022: "2022", 2024: "2023"}, testLogger())

	series, notes := a.Align(incomeExtraction())

	assert.Empty(t, notes)
	assert.Equal(t, "Per_Capita_Income", series.Variable)
	assert.True(t, series.Covered(2022))
	assert.True(t, series.Covered(2024))

	v, ok := series.Value(12001, 2022)
	require.True(t, ok)
	require.NotNil(t, v)
	assert.InDelta(t, 54091, *v, 1e-9)

	// 2024 draws from the 2023 column, not from 2022.
	v, ok = series.Value(12001, 2024)
	require.True(t, ok)
	require.NotNil(t, v)
	assert.InDelta(t, 56213, *v, 1e-9)

	// A county observed with a non-numeric cell stays present with a nil
	// value, distinct from not being observed at all.
	v, ok = series.Value(12003, 2024)
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestAlignMissingSourceYear(t *testing.T) {
	a := New(YearMap{2016: "2016", 2022: "2022"}, testLogger())

	series, notes := a.Align(incomeExtraction())

	require.Len(t, notes, 1)
	assert.Contains(t, notes[0], "2016")
	assert.Contains(t, notes[0], "regional_income")
	assert.Contains(t, notes[0], "Per_Capita_Income")

	assert.False(t, series.Covered(2016))
	assert.True(t, series.Covered(2022))

	// The uncovered year resolves to missing for every county rather than
	// failing the run.
	v, ok := series.Value(12001, 2016)
	assert.False(t, ok)
	assert.Nil(t, v)
}

func TestAlignUnmappedYear(t *testing.T) {
	a := New(YearMap{2022: "2022"}, testLogger())

	series, _ := a.Align(incomeExtraction())

	_, ok := series.Value(12001, 2020)
	assert.False(t, ok, "years outside the mapping carry no values")
	assert.False(t, series.Covered(2020))
}

func TestCountyKeysSorted(t *testing.T) {
	a := New(YearMap{2022: "2022"}, testLogger())

	ext := incomeExtraction()
	ext.Observations = append(ext.Observations,
		adapter.Observation{FIPS: 12133, Variable: "Per_Capita_Income", YearLabel: "2022", Value: fp(38000)},
	)
	series, _ := a.Align(ext)

	assert.Equal(t, []int{12001, 12003, 12133}, series.CountyKeys(2022))
	assert.Empty(t, series.CountyKeys(2016))
}
