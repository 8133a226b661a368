package bsp

import (
	"github.com/Ahmed-Sermani/citerank/bsp/message"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/xerrors"
)

// GraphConfig encapsulates the parameters for creating a new Graph.
type GraphConfig[VT, ET any] struct {
	// QueueFactory creates the per-vertex message queues. If not
	// specified, in-memory queues are used.
	QueueFactory message.QueueFactory

	// ComputeFn is invoked for each vertex on every superstep.
	ComputeFn ComputeFunc[VT, ET]

	// ComputeWorkers is the number of goroutines that run ComputeFn. If
	// not specified, a single worker is used.
	ComputeWorkers int
}

func (c *GraphConfig[VT, ET]) validate() error {
	var err error
	if c.QueueFactory == nil {
		c.QueueFactory = message.NewInMemoryQueueFactory()
	}
	if c.ComputeWorkers <= 0 {
		c.ComputeWorkers = 1
	}
	if c.ComputeFn == nil {
		err = multierror.Append(err, xerrors.New("compute function not specified"))
	}
	return err
}
