package domain

// IssueCategory classifies a quality finding. Issues are data, not control
// flow: the validator returns them alongside the table and never raises.
type IssueCategory string

const (
	IssueMissingValues   IssueCategory = "missing_values"
	IssueCardinality     IssueCategory = "cardinality"
	IssueLowTurnout      IssueCategory = "low_turnout"
	IssueHighTurnout     IssueCategory = "high_turnout"
	IssueTurnoutMismatch IssueCategory = "turnout_mismatch"
	IssueDuplicateKey    IssueCategory = "duplicate_key"
)

// QualityIssue is one found-not-thrown anomaly in the integrated table.
type QualityIssue struct {
	Category     IssueCategory `json:"category"`
	Description  string        `json:"description"`
	AffectedKeys []string      `json:"affected_keys,omitempty"`
}

// Note is a recoverable processing remark emitted by a pipeline stage:
// unmatched names, unavailable sources, missing year labels. Notes never
// abort a run; they travel with the result for the caller's report layer.
type Note struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
}
