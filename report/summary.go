package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"
	"github.com/pkg/errors"
)

// severityTag renders a fixed-width, colored severity label.
func severityTag(s Severity) string {
	switch s {
	case Critical:
		return color.New(color.FgRed, color.Bold).Sprintf("%-8s", s)
	case Error:
		return color.RedString("%-8s", s)
	case Warning:
		return color.YellowString("%-8s", s)
	default:
		return color.CyanString("%-8s", s)
	}
}

// WriteSummary writes a human-readable summary of the report to w.
// Colors follow the package-wide color.NoColor setting.
func (r *Report) WriteSummary(w io.Writer) error {
	head := color.New(color.Bold)
	m := r.Metrics
	if _, err := head.Fprintln(w, "analysis"); err != nil {
		return errors.Wrap(err, "report: cannot write summary")
	}
	fmt.Fprintf(w, "  files %d  lines %d  functions %d  total complexity %d\n",
		m.Files, m.Lines, m.Functions, m.TotalComplexity)
	fmt.Fprintf(w, "  issues: %d security, %d performance\n",
		m.SecurityIssues, m.PerformanceIssues)

	if len(m.Reduced) > 0 {
		head.Fprintln(w, "optimization")
		passes := make([]string, 0, len(m.Reduced))
		for pass := range m.Reduced {
			passes = append(passes, pass)
		}
		sort.Strings(passes)
		for _, pass := range passes {
			fmt.Fprintf(w, "  %-8s %d instructions removed\n", pass, m.Reduced[pass])
		}
	}

	if len(r.Diagnostics) > 0 {
		head.Fprintln(w, "diagnostics")
		for _, d := range r.Diagnostics {
			fmt.Fprintf(w, "  %s %s [%s] %s\n", severityTag(d.Severity), d.Pos, d.Rule, d.Message)
			if d.Fix != "" {
				fmt.Fprintf(w, "  %-8s fix: %s\n", "", d.Fix)
			}
		}
	}

	if len(r.Errors) > 0 {
		head.Fprintln(w, "errors")
		for _, e := range r.Errors {
			fmt.Fprintf(w, "  %s\n", e.Error())
		}
	}
	return nil
}
