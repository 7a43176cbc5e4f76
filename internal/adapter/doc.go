// Package adapter normalizes heterogeneous external source tables into
// canonical long-form observations (fips, variable, year-or-none, value).
//
// # Shapes
//
// Source tables arrive in a small closed set of shapes, detected once by
// probing the declared column names and dispatched to the matching
// extraction strategy:
//
//  1. Long: one row per (entity, attribute, value) tuple, e.g. the USDA
//     rural-urban continuum file. Rows are filtered to one exact attribute.
//  2. Wide: one row per described statistic, one column per calendar year,
//     e.g. BEA CAINC/CAGDP county files. Rows are selected by a
//     case-insensitive description substring and a geography filter.
//  3. Snapshot: one row per entity with coded estimate columns, e.g. Census
//     ACS extracts. A variable is a single coded column or a derived ratio
//     over several coded columns.
//
// # Failure policy
//
// The adapter never fails a run. A source whose expected attribute,
// description, or column is absent yields an Extraction with
// StatusUnavailable and a note; a source that is structurally fine but
// matches zero rows yields StatusExtracted with no observations. Callers can
// tell the two apart without exceptions for control flow. Unparseable value
// cells become missing values, never errors.
package adapter
