// Package normalizer canonicalizes free-text county names so that downstream
// key resolution can join on exact string equality. The alias table is caller
// supplied configuration; unknown names pass through unchanged.
package normalizer

import (
	"log/slog"
	"sort"
	"strings"

	"countydata/pkg/contracts/domain"
)

// Change is one distinct original→canonical rewrite applied during a run,
// kept for audit reporting.
type Change struct {
	Original  string `json:"original"`
	Canonical string `json:"canonical"`
}

// Report summarizes what normalization changed. RowsChanged counts affected
// rows; Changes lists the distinct rewrites.
type Report struct {
	RowsChanged int      `json:"rows_changed"`
	Changes     []Change `json:"changes,omitempty"`
}

// Normalizer rewrites county name variants to one canonical spelling.
type Normalizer struct {
	aliases map[string]string
	logger  *slog.Logger
}

// New creates a Normalizer with the given alias table. The table maps known
// spelling/punctuation variants to the canonical form and is case sensitive.
func New(aliases map[string]string, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{aliases: aliases, logger: logger}
}

// Normalize returns the canonical form of one raw county name: surrounding
// whitespace is trimmed, then the alias table is consulted. Names without an
// alias entry pass through trimmed but otherwise unchanged.
func (n *Normalizer) Normalize(raw string) string {
	name := strings.TrimSpace(raw)
	if canonical, ok := n.aliases[name]; ok {
		return canonical
	}
	return name
}

// NormalizeRecords canonicalizes CountyCanonical in place for every record,
// starting from CountyRaw, and returns the audit report.
func (n *Normalizer) NormalizeRecords(records []domain.ElectionRecord) Report {
	distinct := make(map[Change]bool)
	report := Report{}

	for i := range records {
		canonical := n.Normalize(records[i].CountyRaw)
		records[i].CountyCanonical = canonical
		if canonical != records[i].CountyRaw {
			report.RowsChanged++
			distinct[Change{Original: records[i].CountyRaw, Canonical: canonical}] = true
		}
	}

	for c := range distinct {
		report.Changes = append(report.Changes, c)
	}
	sort.Slice(report.Changes, func(i, j int) bool {
		return report.Changes[i].Original < report.Changes[j].Original
	})

	if report.RowsChanged > 0 {
		n.logger.Info("standardized county names",
			"rows_changed", report.RowsChanged,
			"distinct_changes", len(report.Changes),
		)
		for _, c := range report.Changes {
			n.logger.Debug("county name rewritten",
				"original", c.Original,
				"canonical", c.Canonical,
			)
		}
	}

	return report
}
