// Package reporting renders stored simulation results for humans
// (Markdown) and downstream tooling (CSV).
package reporting

import (
	"sort"
	"time"

	"tokensim/internal/domain"
)

// Report is one run's renderable view.
type Report struct {
	Run         *domain.RunRecord
	GeneratedAt time.Time

	// Variables holds each variable's per-step aggregates, sorted by
	// variable name, steps ascending.
	Variables []VariableSection
}

// VariableSection is one variable's aggregate series.
type VariableSection struct {
	Name  string
	Stats []domain.VariableStats
}

// Final returns the last step's aggregate.
func (s VariableSection) Final() domain.VariableStats {
	return s.Stats[len(s.Stats)-1]
}

// Build assembles a Report from a run record and its stored aggregates.
func Build(run *domain.RunRecord, aggregates []*domain.VariableStats) *Report {
	byVar := make(map[string][]domain.VariableStats)
	for _, st := range aggregates {
		byVar[st.Variable] = append(byVar[st.Variable], *st)
	}

	names := make([]string, 0, len(byVar))
	for name := range byVar {
		names = append(names, name)
	}
	sort.Strings(names)

	sections := make([]VariableSection, 0, len(names))
	for _, name := range names {
		stats := byVar[name]
		sort.Slice(stats, func(i, j int) bool { return stats[i].Step < stats[j].Step })
		sections = append(sections, VariableSection{Name: name, Stats: stats})
	}

	return &Report{
		Run:         run,
		GeneratedAt: time.Now().UTC(),
		Variables:   sections,
	}
}
