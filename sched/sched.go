package sched

import (
	"context"
	"runtime"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/rlange/anneal/model"
)

// Scheduler runs pass descriptors over program units with a fixed pool of
// workers. Passes are grouped into dependency waves; a wave's tasks all
// finish before the next wave starts.
type Scheduler struct {
	workers int
	log     *Logger
}

// New returns a Scheduler sized to the available hardware parallelism.
func New() *Scheduler {
	return &Scheduler{
		workers: runtime.GOMAXPROCS(0),
		log:     NopLogger(),
	}
}

// SetWorkers bounds the pool. Values below one reset it to the hardware
// default.
func (s *Scheduler) SetWorkers(n int) {
	if n < 1 {
		n = runtime.GOMAXPROCS(0)
	}
	s.workers = n
}

// SetLogger replaces the scheduler logger.
func (s *Scheduler) SetLogger(l *Logger) {
	if l == nil {
		l = NopLogger()
	}
	s.log = l.Named("sched")
}

// Run executes the descriptors over every unit. The dependency graph is
// resolved once up front; a bad graph is a configuration error and
// nothing runs. A failing task is recorded against its (pass, unit) pair
// in the aggregator and does not stop other tasks. Cancellation is
// observed between waves: in-flight tasks finish, no further wave starts.
func (s *Scheduler) Run(ctx context.Context, pc *Context, descs []Descriptor, units []*model.Unit) error {
	waves, err := Waves(descs)
	if err != nil {
		return err
	}
	for i, wave := range waves {
		if err := ctx.Err(); err != nil {
			s.log.Debugf("stopping before wave %d: %v", i, err)
			return errors.Wrap(err, "scheduler stopped")
		}
		s.log.Debugf("wave %d: %d passes over %d units", i, len(wave), len(units))
		g := new(errgroup.Group)
		g.SetLimit(s.workers)
		for _, d := range wave {
			for _, u := range units {
				d, u := d, u
				g.Go(func() error {
					s.runTask(pc, d, u)
					return nil
				})
			}
		}
		g.Wait()
	}
	return nil
}

// runTask runs one (pass, unit) task, converting a panic into a recorded
// task failure so one bad unit cannot take down the run.
func (s *Scheduler) runTask(pc *Context, d Descriptor, u *model.Unit) {
	defer func() {
		if r := recover(); r != nil {
			pc.Agg.AddError(d.Name, u.Name, errors.Errorf("panic: %v", r))
		}
	}()
	res, err := d.Run(pc, u)
	if err != nil {
		pc.Agg.AddError(d.Name, u.Name, err)
		return
	}
	pc.Agg.PutResult(d.Name, u.Name, res)
}
