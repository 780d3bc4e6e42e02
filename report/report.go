// Package report defines diagnostics, metrics and the aggregated report
// produced by an engine run.
//
// The Aggregator is the single shared sink for concurrent passes: a coarse
// mutex guards the diagnostic list and result map, scalar metrics are
// atomic counters. A Report snapshot taken at the end of a run is
// immutable and is the only artifact that outlives the run.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/pkg/errors"

	"github.com/rlange/anneal/source"
)

// Severity classifies a Diagnostic.
type Severity int

const (
	Info Severity = iota
	Warning
	Error
	Critical
)

var sevNames = [...]string{
	Info:     "info",
	Warning:  "warning",
	Error:    "error",
	Critical: "critical",
}

// ErrBadSeverity is returned when decoding an unrecognized severity name.
var ErrBadSeverity = errors.New("report: unknown severity")

func (s Severity) String() string {
	if s < Info || s > Critical {
		return "unknown"
	}
	return sevNames[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(text []byte) error {
	name := string(text)
	for i, n := range sevNames {
		if n == name {
			*s = Severity(i)
			return nil
		}
	}
	return errors.Wrapf(ErrBadSeverity, "%q", name)
}

// Diagnostic is one finding reported against a source position.
// Diagnostics are immutable once reported; identity for deduplication is
// the (Rule, Pos) pair.
type Diagnostic struct {
	Rule     string     `json:"rule"`
	Severity Severity   `json:"severity"`
	Message  string     `json:"message"`
	Pos      source.Pos `json:"pos,omitempty"`
	Fix      string     `json:"fix,omitempty"` // optional suggested fix
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s %s [%s] %s", d.Severity, d.Pos, d.Rule, d.Message)
}

// UnitError records a per-unit pass failure. It implements error so a
// caller can fold the collected failures into a single error value.
type UnitError struct {
	Pass string
	Unit string
	Err  error
}

func (e UnitError) Error() string {
	return fmt.Sprintf("%s: unit %s: %v", e.Pass, e.Unit, e.Err)
}

// Unwrap exposes the underlying failure to errors.Is and errors.As.
func (e UnitError) Unwrap() error { return e.Err }

// MarshalJSON flattens the wrapped error into its message.
func (e UnitError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Pass  string `json:"pass"`
		Unit  string `json:"unit"`
		Error string `json:"error"`
	}{e.Pass, e.Unit, e.Err.Error()})
}

// Key is the result-map key for a (pass, unit) pair.
func Key(pass, unit string) string {
	return pass + ":" + unit
}

// Report is the immutable output of an engine run. Results maps
// "pass-name:unit-id" to each pass's own payload type.
type Report struct {
	Metrics     MetricsSnapshot        `json:"metrics"`
	Diagnostics []Diagnostic           `json:"diagnostics"`
	Results     map[string]interface{} `json:"results,omitempty"`
	Errors      []UnitError            `json:"errors,omitempty"`
}

// WriteJSON writes the report in the structured serialization format.
// Result payloads serialize however the producing pass defines.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return errors.Wrap(err, "report: cannot encode")
	}
	return nil
}

// sortDiagnostics orders diagnostics by position, then rule, then message.
func sortDiagnostics(ds []Diagnostic) {
	sort.Slice(ds, func(i, j int) bool {
		if ds[i].Pos != ds[j].Pos {
			return ds[i].Pos.Before(ds[j].Pos)
		}
		if ds[i].Rule != ds[j].Rule {
			return ds[i].Rule < ds[j].Rule
		}
		return ds[i].Message < ds[j].Message
	})
}
