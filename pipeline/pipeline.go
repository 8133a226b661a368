/*
   Multi-stage asynchronous processing of payloads. A Source feeds payloads
   through a chain of StageRunners, each running on its own goroutine, and
   the results are handed to a Sink.
*/
package pipeline

import (
	"context"
	"sync"

	"github.com/hashicorp/go-multierror"
)

// Payload is implemented by values that can be sent through the pipeline.
type Payload interface {
	// Clone returns a new Payload that is a deep copy of the original.
	Clone() Payload

	// MarkAsProcessed is called by the pipeline when the payload reaches
	// the sink or is discarded by a stage.
	MarkAsProcessed()
}

// Processor is implemented by types that process a Payload as part of a
// pipeline stage.
type Processor interface {
	// Process takes the input Payload and returns the Payload for the next
	// stage or the sink. Returning a nil Payload drops it from the pipeline.
	Process(context.Context, Payload) (Payload, error)
}

// ProcessorFunc adapts a plain function to the Processor interface.
type ProcessorFunc func(context.Context, Payload) (Payload, error)

func (f ProcessorFunc) Process(ctx context.Context, p Payload) (Payload, error) {
	return f(ctx, p)
}

// StageParams carries what a stage needs to run. An instance is passed to
// the Run method of each stage.
type StageParams interface {
	// StageIndex returns the position of a stage in the pipeline.
	StageIndex() int
	// Input returns the channel the stage reads payloads from.
	Input() <-chan Payload
	// Output returns the channel the stage writes its results to.
	Output() chan<- Payload
	// Error returns the channel for reporting processing errors.
	Error() chan<- error
}

// StageRunner is implemented by types that can be chained together to form
// a multi-stage pipeline.
type StageRunner interface {
	// Run reads payloads from the Input channel and writes results to the
	// Output channel. It blocks until the input channel is closed or the
	// context is cancelled.
	Run(context.Context, StageParams)
}

// Source feeds payloads into the pipeline.
type Source interface {
	// Next fetches the next Payload. It returns false when the source is
	// exhausted or an error occurred.
	Next(context.Context) bool

	// Payload returns the payload fetched by Next.
	Payload() Payload

	// Error returns the last error observed by the source.
	Error() error
}

// Sink receives the payloads that made it through every stage.
type Sink interface {
	Consume(context.Context, Payload) error
}

// Pipeline is a chain of stages.
type Pipeline struct {
	stages []StageRunner
}

// New returns a Pipeline whose payloads traverse stages in order.
func New(stages ...StageRunner) *Pipeline {
	return &Pipeline{
		stages: stages,
	}
}

// Process reads the contents of source, sends them through the stages of
// the pipeline and hands the results to sink. It blocks until the source is
// drained, an error occurs or ctx is done, and returns every error observed.
//
// It is safe to call Process concurrently with different sources and sinks.
func (p *Pipeline) Process(ctx context.Context, source Source, sink Sink) error {
	var wg sync.WaitGroup
	ctx, ctxCancel := context.WithCancel(ctx)
	defer ctxCancel()

	// Channel i feeds stage i; the extra channel links the last stage to
	// the sink.
	stageCh := make([]chan Payload, len(p.stages)+1)
	errCh := make(chan error, len(p.stages)+2)
	for i := range stageCh {
		stageCh[i] = make(chan Payload)
	}

	wg.Add(len(p.stages))
	for i := range p.stages {
		go func(stageIdx int) {
			defer wg.Done()
			p.stages[stageIdx].Run(
				ctx,
				&WorkerParams{
					Stage: stageIdx,
					InCh:  stageCh[stageIdx],
					OutCh: stageCh[stageIdx+1],
					ErrCh: errCh,
				},
			)
			close(stageCh[stageIdx+1])
		}(i)
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		sourceWorker(ctx, source, stageCh[0], errCh)
		close(stageCh[0])
	}()

	go func() {
		defer wg.Done()
		sinkWorker(ctx, sink, stageCh[len(stageCh)-1], errCh)
	}()

	// Close the error channel once every worker has exited.
	go func() {
		wg.Wait()
		close(errCh)
		ctxCancel()
	}()

	var err error
	for pErr := range errCh {
		err = multierror.Append(err, pErr)
		ctxCancel()
	}
	return err
}
