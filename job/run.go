package job

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/minispark/engine"
	"github.com/kbukum/minispark/errors"
	"github.com/kbukum/minispark/logger"
)

// Result describes one job run.
type Result struct {
	RunID    string
	Job      string
	Action   string
	Target   string
	Count    int
	Elements []any
	Duration time.Duration
}

// Build constructs the graph on e. It returns every dataset by name,
// inputs included.
func (d *Definition) Build(e *engine.Engine, reg *Registry) (map[string]*engine.RDD, error) {
	rdds := make(map[string]*engine.RDD, len(d.Inputs)+len(d.Steps))

	// Sorted so input RDD ids do not depend on map order.
	names := make([]string, 0, len(d.Inputs))
	for name := range d.Inputs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		r, err := e.FromFiles(d.Inputs[name]...)
		if err != nil {
			return nil, err
		}
		rdds[name] = r
	}

	for i, s := range d.Steps {
		from, ok := rdds[s.From]
		if !ok {
			return nil, errors.NotFound("dataset", s.From)
		}
		r, err := buildStep(e, reg, s, from, rdds)
		if err != nil {
			return nil, fmt.Errorf("job: step %d (%s): %w", i, s.Name, err)
		}
		rdds[s.Name] = r
	}
	return rdds, nil
}

func buildStep(e *engine.Engine, reg *Registry, s Step, from *engine.RDD, rdds map[string]*engine.RDD) (*engine.RDD, error) {
	var arg any
	if s.Arg != "" {
		arg = s.Arg
	}
	switch s.Op {
	case OpMap:
		fn, err := reg.Map(s.Fn)
		if err != nil {
			return nil, err
		}
		return e.Map(from, fn), nil
	case OpFilter:
		fn, err := reg.Filter(s.Fn)
		if err != nil {
			return nil, err
		}
		return e.Filter(from, fn, arg), nil
	case OpJoin:
		with, ok := rdds[s.With]
		if !ok {
			return nil, errors.NotFound("dataset", s.With)
		}
		fn, err := reg.Join(s.Fn)
		if err != nil {
			return nil, err
		}
		return e.Join(from, with, fn, arg), nil
	case OpPartitionBy:
		fn, err := reg.Partition(s.Fn)
		if err != nil {
			return nil, err
		}
		if s.Partitions < 1 {
			return nil, errors.InvalidInput("partitions", "must be at least 1")
		}
		return e.PartitionBy(from, fn, s.Partitions, arg), nil
	default:
		return nil, errors.InvalidInput("op", fmt.Sprintf("unknown operation %q", s.Op))
	}
}

// Run builds def on e and executes its action. Printed elements go to out,
// one per line.
func Run(ctx context.Context, e *engine.Engine, def *Definition, reg *Registry, out io.Writer) (*Result, error) {
	res := &Result{
		RunID:  uuid.NewString(),
		Job:    def.Name,
		Action: def.Action.Op,
		Target: def.Action.Target,
	}
	log := logger.Get("job").WithFields(logger.Fields(
		logger.FieldJob, def.Name,
		"run_id", res.RunID,
	))

	start := time.Now()
	rdds, err := def.Build(e, reg)
	if err != nil {
		log.Error("job build failed", logger.ErrorFields("build", err))
		return nil, err
	}
	target := rdds[def.Action.Target]

	switch def.Action.Op {
	case ActionCount:
		res.Count, err = e.Count(ctx, target)
	case ActionPrint:
		var werr error
		err = e.Print(ctx, target, func(x any) {
			res.Count++
			if werr == nil {
				_, werr = fmt.Fprintln(out, x)
			}
		})
		if err == nil && werr != nil {
			err = errors.Internal(werr)
		}
	case ActionCollect:
		res.Elements, err = e.Collect(ctx, target)
		res.Count = len(res.Elements)
	default:
		err = errors.InvalidInput("action.op", fmt.Sprintf("unknown action %q", def.Action.Op))
	}
	res.Duration = time.Since(start)
	if err != nil {
		log.Error("job failed", logger.ErrorFields(def.Action.Op, err))
		return nil, err
	}

	log.Info("job finished", logger.Fields(
		logger.FieldOperation, def.Action.Op,
		"target", def.Action.Target,
		"count", res.Count,
		logger.FieldDuration, res.Duration.Milliseconds(),
	))
	return res, nil
}
