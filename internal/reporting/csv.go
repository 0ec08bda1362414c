package reporting

import (
	"fmt"
	"strings"
)

// RenderCSV renders every variable's per-step aggregates as CSV string.
func RenderCSV(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("run_id,variable,step,mean,median,stddev,p10,p90,min,max\n")

	// Rows
	for _, v := range r.Variables {
		for _, st := range v.Stats {
			sb.WriteString(fmt.Sprintf("%s,%s,%d,%.6g,%.6g,%.6g,%.6g,%.6g,%.6g,%.6g\n",
				st.RunID,
				st.Variable,
				st.Step,
				st.Mean,
				st.Median,
				st.Stddev,
				st.P10,
				st.P90,
				st.Min,
				st.Max,
			))
		}
	}

	return sb.String()
}
