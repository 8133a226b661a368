package bsp

import "context"

// Executor runs supersteps on a Graph until an error occurs, the context
// is cancelled or one of its hooks asks it to stop.
type Executor[VT, ET any] struct {
	g  *Graph[VT, ET]
	cb ExecutorHooks[VT, ET]
}

// ExecutorFactory creates an Executor for a graph.
type ExecutorFactory[VT, ET any] func(*Graph[VT, ET], ExecutorHooks[VT, ET]) *Executor[VT, ET]

// NewExecutor returns an Executor for g that invokes cb around every
// superstep.
func NewExecutor[VT, ET any](g *Graph[VT, ET], cb ExecutorHooks[VT, ET]) *Executor[VT, ET] {
	if cb.PreStep == nil {
		cb.PreStep = func(context.Context, *Graph[VT, ET]) error { return nil }
	}
	if cb.PostStep == nil {
		cb.PostStep = func(context.Context, *Graph[VT, ET], int) error { return nil }
	}
	if cb.PostStepKeepRunning == nil {
		cb.PostStepKeepRunning = func(context.Context, *Graph[VT, ET], int) (bool, error) { return true, nil }
	}
	g.superstep = 0
	return &Executor[VT, ET]{
		g:  g,
		cb: cb,
	}
}

// ExecutorHooks are the optional callbacks of an Executor.
type ExecutorHooks[VT, ET any] struct {
	// PreStep runs before each superstep. Aggregators that are reset per
	// superstep should be reset here.
	PreStep func(ctx context.Context, g *Graph[VT, ET]) error

	// PostStep runs after each superstep.
	PostStep func(ctx context.Context, g *Graph[VT, ET], activeInStep int) error

	// PostStepKeepRunning runs after PostStep and decides whether another
	// superstep is needed.
	PostStepKeepRunning func(ctx context.Context, g *Graph[VT, ET], activeInStep int) (bool, error)
}

// RunToCompletion executes supersteps until a hook stops the run, an error
// occurs or ctx is done.
func (ex *Executor[VT, ET]) RunToCompletion(ctx context.Context) error {
	return ex.run(ctx, -1)
}

// RunSteps executes at most numSteps supersteps.
func (ex *Executor[VT, ET]) RunSteps(ctx context.Context, numSteps int) error {
	return ex.run(ctx, numSteps)
}

// Graph returns the graph driven by the executor.
func (ex *Executor[VT, ET]) Graph() *Graph[VT, ET] {
	return ex.g
}

// Superstep returns the current superstep of the graph.
func (ex *Executor[VT, ET]) Superstep() int {
	return ex.g.Superstep()
}

func (ex *Executor[VT, ET]) run(ctx context.Context, maxSteps int) error {
	var (
		activeInStep int
		err          error
		keepRunning  bool
		cb           = ex.cb
	)

	for ; maxSteps != 0; ex.g.superstep, maxSteps = ex.g.superstep+1, maxSteps-1 {
		if err = ctx.Err(); err != nil {
			return err
		}

		if err = cb.PreStep(ctx, ex.g); err != nil {
			return err
		} else if activeInStep, err = ex.g.step(); err != nil {
			return err
		} else if err = cb.PostStep(ctx, ex.g, activeInStep); err != nil {
			return err
		} else if keepRunning, err = cb.PostStepKeepRunning(ctx, ex.g, activeInStep); !keepRunning || err != nil {
			return err
		}
	}
	return nil
}
