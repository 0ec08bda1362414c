package reporting

import (
	"strings"
	"testing"
	"time"

	"tokensim/internal/domain"
)

func testReport() *Report {
	run := &domain.RunRecord{
		RunID:       "run-1",
		ScenarioID:  "scenario-a",
		Scenario:    "baseline",
		Token:       "gem",
		UnitOfTime:  domain.UnitDay,
		Iterations:  2,
		Repetitions: 30,
		Failures:    1,
		Seed:        42,
		StartedAt:   time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
		FinishedAt:  time.Date(2026, 3, 14, 10, 0, 3, 0, time.UTC),
	}
	aggregates := []*domain.VariableStats{
		{RunID: "run-1", Variable: "gem_price", Step: 1, Mean: 0.4, Median: 0.39, Max: 0.5},
		{RunID: "run-1", Variable: "gem_price", Step: 0, Mean: 0.3, Median: 0.29, Max: 0.4},
		{RunID: "run-1", Variable: "gem_supply", Step: 0, Mean: 1e6, Median: 1e6},
		{RunID: "run-1", Variable: "gem_supply", Step: 1, Mean: 1e6, Median: 1e6},
		{RunID: "run-1", Variable: "holding_time", Step: 0, Mean: 20},
		{RunID: "run-1", Variable: "holding_time", Step: 1, Mean: 21},
	}
	return Build(run, aggregates)
}

func TestBuild_SortsVariablesAndSteps(t *testing.T) {
	r := testReport()

	if len(r.Variables) != 3 {
		t.Fatalf("expected 3 variables, got %d", len(r.Variables))
	}
	if r.Variables[0].Name != "gem_price" || r.Variables[1].Name != "gem_supply" || r.Variables[2].Name != "holding_time" {
		t.Errorf("unexpected variable order: %v", []string{r.Variables[0].Name, r.Variables[1].Name, r.Variables[2].Name})
	}

	price := r.Variables[0]
	if price.Stats[0].Step != 0 || price.Stats[1].Step != 1 {
		t.Errorf("expected steps sorted ascending, got %d then %d", price.Stats[0].Step, price.Stats[1].Step)
	}
	if price.Final().Mean != 0.4 {
		t.Errorf("expected final mean 0.4, got %f", price.Final().Mean)
	}
}

func TestRenderMarkdown(t *testing.T) {
	out := RenderMarkdown(testReport())

	for _, want := range []string{
		"# Simulation Report",
		"| Run ID | run-1 |",
		"| Scenario | baseline |",
		"| Failed Repetitions | 1 |",
		"## Final Step Summary",
		"## gem_price",
		"## gem_supply",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected markdown to contain %q", want)
		}
	}

	// Only the headline series get per-step tables.
	if strings.Contains(out, "## holding_time") {
		t.Error("expected no per-step section for holding_time")
	}
}

func TestRenderCSV(t *testing.T) {
	out := RenderCSV(testReport())

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if lines[0] != "run_id,variable,step,mean,median,stddev,p10,p90,min,max" {
		t.Errorf("unexpected header: %q", lines[0])
	}
	// 6 aggregate rows plus the header.
	if len(lines) != 7 {
		t.Errorf("expected 7 lines, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[1], "run-1,gem_price,0,") {
		t.Errorf("expected first row to be gem_price step 0, got %q", lines[1])
	}
}
