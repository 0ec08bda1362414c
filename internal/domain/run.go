package domain

import "time"

// UnitOfTime is the duration one simulation step represents.
type UnitOfTime string

const (
	UnitDay   UnitOfTime = "day"
	UnitWeek  UnitOfTime = "week"
	UnitMonth UnitOfTime = "month"
	UnitYear  UnitOfTime = "year"
)

// Valid reports whether u is one of the supported units.
func (u UnitOfTime) Valid() bool {
	switch u {
	case UnitDay, UnitWeek, UnitMonth, UnitYear:
		return true
	}
	return false
}

// RunRecord is one completed Monte-Carlo run of a scenario.
type RunRecord struct {
	RunID       string
	ScenarioID  string
	Scenario    string
	Token       string
	UnitOfTime  UnitOfTime
	Iterations  int
	Repetitions int
	Failures    int
	Seed        int64
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Point is one recorded value: variable x repetition x step.
type Point struct {
	RunID      string
	Variable   string
	Repetition int
	Step       int
	Value      float64
}

// VariableStats is the per-step summary of one variable across
// the successful repetitions of a run.
type VariableStats struct {
	RunID    string
	Variable string
	Step     int
	Mean     float64
	Median   float64
	Stddev   float64
	P10      float64
	P90      float64
	Min      float64
	Max      float64
}
