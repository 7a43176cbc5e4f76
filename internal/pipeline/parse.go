package pipeline

import (
	"fmt"
	"strconv"
	"strings"

	"countydata/internal/config"
	"countydata/pkg/contracts/domain"
)

// ConfigError is a fatal structural problem with a required input table: a
// missing column or an unusable fact-table cell. Unlike resolution gaps and
// quality anomalies, these abort the run with the offending source named.
type ConfigError struct {
	Source  string
	Column  string
	Row     int // 1-based data row, 0 when not row-specific
	Message string
}

func (e *ConfigError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("source %s, column %s, row %d: %s", e.Source, e.Column, e.Row, e.Message)
	}
	return fmt.Sprintf("source %s, column %s: %s", e.Source, e.Column, e.Message)
}

// parseElections materializes the election fact table. The fact table is the
// spine of the run: a missing required column or an unparseable numeric cell
// is a configuration error, not a recoverable gap.
func parseElections(t domain.Table, cols config.ColumnsConfig) ([]domain.ElectionRecord, error) {
	required := []string{cols.County, cols.Year, cols.RegisteredVoters, cols.VotesCast, cols.TurnoutPercent}
	for _, c := range required {
		if !t.HasColumn(c) {
			return nil, &ConfigError{Source: t.Name, Column: c, Message: "required column not found"}
		}
	}

	records := make([]domain.ElectionRecord, 0, len(t.Rows))
	for i, row := range t.Rows {
		year, err := parseInt(row[cols.Year])
		if err != nil {
			return nil, &ConfigError{Source: t.Name, Column: cols.Year, Row: i + 1, Message: err.Error()}
		}
		registered, err := parseInt(row[cols.RegisteredVoters])
		if err != nil {
			return nil, &ConfigError{Source: t.Name, Column: cols.RegisteredVoters, Row: i + 1, Message: err.Error()}
		}
		votes, err := parseInt(row[cols.VotesCast])
		if err != nil {
			return nil, &ConfigError{Source: t.Name, Column: cols.VotesCast, Row: i + 1, Message: err.Error()}
		}
		turnout, err := parseFloat(row[cols.TurnoutPercent])
		if err != nil {
			return nil, &ConfigError{Source: t.Name, Column: cols.TurnoutPercent, Row: i + 1, Message: err.Error()}
		}

		records = append(records, domain.ElectionRecord{
			CountyRaw:        row[cols.County],
			Year:             year,
			RegisteredVoters: registered,
			VotesCast:        votes,
			TurnoutPercent:   turnout,
		})
	}
	return records, nil
}

// parseReference materializes the immutable FIPS reference table.
func parseReference(t domain.Table, cols config.ColumnsConfig) ([]domain.ReferenceEntity, error) {
	for _, c := range []string{cols.ReferenceFIPS, cols.ReferenceCounty} {
		if !t.HasColumn(c) {
			return nil, &ConfigError{Source: t.Name, Column: c, Message: "required column not found"}
		}
	}

	entities := make([]domain.ReferenceEntity, 0, len(t.Rows))
	for i, row := range t.Rows {
		fips, err := parseInt(row[cols.ReferenceFIPS])
		if err != nil {
			return nil, &ConfigError{Source: t.Name, Column: cols.ReferenceFIPS, Row: i + 1, Message: err.Error()}
		}
		entities = append(entities, domain.ReferenceEntity{
			FIPS:       fips,
			CountyName: strings.TrimSpace(row[cols.ReferenceCounty]),
		})
	}
	return entities, nil
}

func parseInt(raw string) (int, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("value %q is not an integer", raw)
	}
	return v, nil
}

func parseFloat(raw string) (float64, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("value %q is not numeric", raw)
	}
	return v, nil
}
