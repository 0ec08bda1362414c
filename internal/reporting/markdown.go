package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders the report as a Markdown string: run metadata,
// then each variable's final-step summary, then the per-step detail of
// the price and supply series.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Simulation Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))

	// Run metadata
	sb.WriteString("## Run\n\n")
	sb.WriteString("| Field | Value |\n")
	sb.WriteString("|-------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Run ID | %s |\n", r.Run.RunID))
	sb.WriteString(fmt.Sprintf("| Scenario | %s |\n", r.Run.Scenario))
	sb.WriteString(fmt.Sprintf("| Token | %s |\n", r.Run.Token))
	sb.WriteString(fmt.Sprintf("| Unit of Time | %s |\n", r.Run.UnitOfTime))
	sb.WriteString(fmt.Sprintf("| Iterations | %d |\n", r.Run.Iterations))
	sb.WriteString(fmt.Sprintf("| Repetitions | %d |\n", r.Run.Repetitions))
	sb.WriteString(fmt.Sprintf("| Failed Repetitions | %d |\n", r.Run.Failures))
	sb.WriteString(fmt.Sprintf("| Seed | %d |\n", r.Run.Seed))
	sb.WriteString(fmt.Sprintf("| Started | %s |\n", r.Run.StartedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("| Finished | %s |\n", r.Run.FinishedAt.Format(time.RFC3339)))
	sb.WriteString("\n")

	// Final-step summary across variables
	sb.WriteString("## Final Step Summary\n\n")
	if len(r.Variables) > 0 {
		sb.WriteString("| Variable | Mean | Median | Stddev | P10 | P90 | Min | Max |\n")
		sb.WriteString("|----------|------|--------|--------|-----|-----|-----|-----|\n")
		for _, v := range r.Variables {
			f := v.Final()
			sb.WriteString(fmt.Sprintf("| %s | %.6g | %.6g | %.6g | %.6g | %.6g | %.6g | %.6g |\n",
				v.Name, f.Mean, f.Median, f.Stddev, f.P10, f.P90, f.Min, f.Max))
		}
	} else {
		sb.WriteString("No aggregates available.\n")
	}
	sb.WriteString("\n")

	// Per-step detail for the headline series
	priceVar := r.Run.Token + "_price"
	supplyVar := r.Run.Token + "_supply"
	for _, v := range r.Variables {
		if v.Name != priceVar && v.Name != supplyVar {
			continue
		}
		sb.WriteString(fmt.Sprintf("## %s\n\n", v.Name))
		sb.WriteString("| Step | Mean | Median | Stddev | P10 | P90 | Min | Max |\n")
		sb.WriteString("|------|------|--------|--------|-----|-----|-----|-----|\n")
		for _, st := range v.Stats {
			sb.WriteString(fmt.Sprintf("| %d | %.6g | %.6g | %.6g | %.6g | %.6g | %.6g | %.6g |\n",
				st.Step, st.Mean, st.Median, st.Stddev, st.P10, st.P90, st.Min, st.Max))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
