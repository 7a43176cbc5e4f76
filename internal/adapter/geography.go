package adapter

import (
	"strconv"
	"strings"
)

// cleanGeoCode strips the surrounding quote characters and padding that BEA
// region identifiers carry, e.g. `"12001 "` becomes "12001".
func cleanGeoCode(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, `"`)
	return strings.TrimSpace(s)
}

// countyFIPS extracts the county FIPS key from a cleaned geography code.
// County-level codes are exactly 5 numeric characters, carry the state
// prefix, and are not the state-aggregate row.
func (g Geography) countyFIPS(code string) (int, bool) {
	if len(code) != 5 {
		return 0, false
	}
	if !strings.HasPrefix(code, g.StatePrefix) {
		return 0, false
	}
	if code == g.AggregateCode() {
		return 0, false
	}
	fips, err := strconv.Atoi(code)
	if err != nil {
		return 0, false
	}
	return fips, true
}

// countyFIPSFromGeoID extracts the trailing 5-digit county key from a census
// geography id such as "0500000US12001".
func (g Geography) countyFIPSFromGeoID(geoID string) (int, bool) {
	id := strings.TrimSpace(geoID)
	if !strings.HasPrefix(id, g.GeoIDPrefix+g.StatePrefix) {
		return 0, false
	}
	if len(id) < 5 {
		return 0, false
	}
	return g.countyFIPS(id[len(id)-5:])
}

// coerceNumeric parses one value cell. Unparseable cells (including BEA
// placeholders like "(NA)") become a missing value, not a failure.
func coerceNumeric(raw string) *float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// isYearColumn reports whether a column name is a calendar-year label.
func isYearColumn(name string) bool {
	if len(name) != 4 {
		return false
	}
	for _, r := range name {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
