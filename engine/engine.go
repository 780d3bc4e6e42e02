// Package engine wires the program model, rule engine, analysis passes
// and optimization pipeline into one configured run.
package engine

import (
	"context"
	"io"

	"go.uber.org/multierr"

	"github.com/rlange/anneal/analysis"
	"github.com/rlange/anneal/model"
	"github.com/rlange/anneal/optim"
	"github.com/rlange/anneal/report"
	"github.com/rlange/anneal/sched"
)

// Engine is the main analysis entry point.
type Engine struct {
	Config  Config         // validated run configuration
	Program *model.Program // program model under analysis

	descs []sched.Descriptor
	agg   *report.Aggregator
	sch   *sched.Scheduler

	outWriter io.Writer // report stream
	errWriter io.Writer // debug stream
	*sched.Logger
}

// New returns a new Engine over prog, and uses w for logging messages.
// Configuration problems, including a bad pass dependency graph, are
// reported here so nothing partial ever runs.
func New(prog *model.Program, conf Config, w io.Writer) (*Engine, error) {
	if err := conf.validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		Config:    conf,
		Program:   prog,
		agg:       report.NewAggregator(),
		sch:       sched.New(),
		outWriter: io.Discard,
		errWriter: io.Discard,
		Logger:    newLogger(),
	}
	if w != nil {
		e.errWriter = w
		e.agg.SetLog(w)
	}
	e.sch.SetWorkers(conf.Concurrency)
	e.sch.SetLogger(e.Logger)
	e.descs = e.assemble()
	if _, err := sched.Waves(e.descs); err != nil {
		return nil, err
	}
	return e, nil
}

// assemble builds the descriptor set the configuration asks for. When
// both are enabled, the optimize pass runs after the call graph pass and
// feeds its recursion gate from that unoptimized graph.
func (e *Engine) assemble() []sched.Descriptor {
	var descs []sched.Descriptor
	if e.Config.enabled(analysis.PassComplexity) {
		descs = append(descs, analysis.Complexity(e.Config.ComplexityThreshold))
	}
	if e.Config.enabled(analysis.PassSecurity) {
		descs = append(descs, analysis.Security(nil))
	}
	if e.Config.enabled(analysis.PassCallGraph) {
		descs = append(descs, analysis.CallGraph())
	}
	if e.Config.enabled(optim.PassOptimize) {
		o := optim.Options{
			Passes: e.Config.Optimizations,
			Rounds: e.Config.OptimizeRounds,
			Gates:  e.Config.Inline,
		}
		if e.Config.enabled(analysis.PassCallGraph) {
			o.CallGraphFrom = analysis.PassCallGraph
		}
		opt := optim.Optimize(o)
		if o.CallGraphFrom != "" {
			opt.Requires = []string{analysis.PassCallGraph}
		}
		descs = append(descs, opt)
	}
	return descs
}

// Run executes every enabled pass over every unit and returns the final
// report. A report is always returned; the error joins the scheduler
// stopping early with every recorded per-unit failure.
func (e *Engine) Run(ctx context.Context) (*report.Report, error) {
	// Sync error ignored. See https://github.com/uber-go/zap/issues/328
	defer e.Logger.Sync()

	m := e.agg.Metrics()
	for _, u := range e.Program.Units {
		m.AddFiles(int64(len(u.Files)))
		for _, f := range u.Files {
			m.AddLines(int64(f.Lines))
		}
	}

	pc := sched.NewContext(e.Program, e.agg, e.Logger)
	err := e.sch.Run(ctx, pc, e.descs, e.Program.Units)

	rep := e.agg.Snapshot()
	for _, ue := range rep.Errors {
		err = multierr.Append(err, ue)
	}
	return rep, err
}

// Write renders rep to the engine's output stream in the configured
// format.
func (e *Engine) Write(rep *report.Report) error {
	if e.Config.Format == FormatJSON {
		return rep.WriteJSON(e.outWriter)
	}
	return rep.WriteSummary(e.outWriter)
}

// SetOutput sets the report output stream.
func (e *Engine) SetOutput(w io.Writer) {
	if w != nil {
		e.outWriter = w
	}
}

// AddLogFiles extends current Logger and writes additional log to files.
func (e *Engine) AddLogFiles(file ...string) {
	e.Logger = newFileLogger(file...)
	e.sch.SetLogger(e.Logger)
}
