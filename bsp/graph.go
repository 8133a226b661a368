package bsp

import (
	"sync"
	"sync/atomic"

	"github.com/Ahmed-Sermani/citerank/bsp/message"
	"golang.org/x/xerrors"
)

// ComputeFunc is invoked on each vertex during a superstep. msgIt yields the
// messages sent to v during the previous superstep.
type ComputeFunc[VT, ET any] func(g *Graph[VT, ET], v *Vertex[VT, ET], msgIt message.Iterator) error

// Vertex is a graph vertex carrying a value of type VT and owning its
// outgoing edges.
type Vertex[VT, ET any] struct {
	id     string
	value  VT
	active bool

	// The queue at superstep%2 holds the messages delivered for the current
	// superstep; the other one buffers messages for the next superstep.
	msgQueue [2]message.Queue
	edges    []*Edge[ET]
}

func (v *Vertex[VT, ET]) ID() string { return v.id }

// Edges returns the outgoing edges of v. Parallel edges to the same
// destination are kept as separate entries.
func (v *Vertex[VT, ET]) Edges() []*Edge[ET] { return v.edges }

// Freeze marks the vertex as inactive. An inactive vertex is skipped until
// it receives a message.
func (v *Vertex[VT, ET]) Freeze() { v.active = false }

func (v *Vertex[VT, ET]) Value() VT { return v.value }

func (v *Vertex[VT, ET]) SetValue(val VT) { v.value = val }

// Edge is a directed edge owned by its source vertex.
type Edge[ET any] struct {
	value ET
	dstID string
}

func (e *Edge[ET]) DstID() string { return e.dstID }

func (e *Edge[ET]) Value() ET { return e.value }

func (e *Edge[ET]) SetValue(val ET) { e.value = val }

// Graph is a Pregel style graph processor
// (https://15799.courses.cs.cmu.edu/fall2013/static/papers/p135-malewicz.pdf).
type Graph[VT, ET any] struct {
	superstep    int
	vertices     map[string]*Vertex[VT, ET]
	queueFactory message.QueueFactory
	aggregators  map[string]Aggregator
	computeFunc  ComputeFunc[VT, ET]

	wg sync.WaitGroup

	// vertexCh feeds the vertices of the current superstep to the workers.
	vertexCh chan *Vertex[VT, ET]

	// errCh holds the first compute error of a superstep; later errors of
	// the same superstep are dropped.
	errCh chan error

	// stepCompletedCh is signalled once the last vertex of a superstep has
	// been processed.
	stepCompletedCh chan struct{}

	activeInStep  int64
	pendingInStep int64
}

// NewGraph creates a new Graph using cfg. Callers must Close the graph to
// stop its compute workers.
func NewGraph[VT, ET any](cfg GraphConfig[VT, ET]) (*Graph[VT, ET], error) {
	if err := cfg.validate(); err != nil {
		return nil, xerrors.Errorf("graph config validation failed: %w", err)
	}

	g := &Graph[VT, ET]{
		computeFunc:  cfg.ComputeFn,
		queueFactory: cfg.QueueFactory,
		aggregators:  make(map[string]Aggregator),
		vertices:     make(map[string]*Vertex[VT, ET]),
	}
	g.startWorkers(cfg.ComputeWorkers)

	return g, nil
}

// Close stops the compute workers and releases the graph contents.
func (g *Graph[VT, ET]) Close() error {
	close(g.vertexCh)
	g.wg.Wait()

	return g.Reset()
}

// Reset removes all vertices and aggregators and rewinds the superstep
// counter.
func (g *Graph[VT, ET]) Reset() error {
	g.superstep = 0
	for _, v := range g.vertices {
		for i := 0; i < 2; i++ {
			if err := v.msgQueue[i].Close(); err != nil {
				return xerrors.Errorf("closing message queue #%d for vertex %v: %w", i, v.ID(), err)
			}
		}
	}
	g.vertices = make(map[string]*Vertex[VT, ET])
	g.aggregators = make(map[string]Aggregator)
	return nil
}

// AddVertex inserts a vertex with the given id and initial value. Adding an
// existing vertex only overwrites its value.
func (g *Graph[VT, ET]) AddVertex(id string, initValue VT) {
	v := g.vertices[id]
	if v == nil {
		v = &Vertex[VT, ET]{
			id: id,
			msgQueue: [2]message.Queue{
				g.queueFactory(),
				g.queueFactory(),
			},
			active: true,
		}
		g.vertices[id] = v
	}
	v.SetValue(initValue)
}

// AddEdge inserts a directed edge from srcID to dstID. The source vertex
// must already exist. Adding the same edge twice creates a parallel edge.
func (g *Graph[VT, ET]) AddEdge(srcID, dstID string, initValue ET) error {
	srcVertex := g.vertices[srcID]
	if srcVertex == nil {
		return xerrors.Errorf("create edge from %q to %q: %w", srcID, dstID, ErrUnknownEdgeSource)
	}

	srcVertex.edges = append(srcVertex.edges, &Edge[ET]{
		dstID: dstID,
		value: initValue,
	})
	return nil
}

func (g *Graph[VT, ET]) RegisterAggregator(name string, aggregator Aggregator) {
	g.aggregators[name] = aggregator
}

func (g *Graph[VT, ET]) Aggregator(name string) Aggregator {
	return g.aggregators[name]
}

func (g *Graph[VT, ET]) Aggregators() map[string]Aggregator { return g.aggregators }

func (g *Graph[VT, ET]) Superstep() int { return g.superstep }

func (g *Graph[VT, ET]) Vertices() map[string]*Vertex[VT, ET] { return g.vertices }

// BroadcastToNeighbors sends msg along every outgoing edge of v. A
// destination reached by k parallel edges receives k copies.
func (g *Graph[VT, ET]) BroadcastToNeighbors(v *Vertex[VT, ET], msg message.Message) error {
	for _, e := range v.edges {
		if err := g.SendMessage(e.DstID(), msg); err != nil {
			return err
		}
	}
	return nil
}

// SendMessage queues msg for delivery to dst in the next superstep.
func (g *Graph[VT, ET]) SendMessage(dst string, msg message.Message) error {
	dstVertex := g.vertices[dst]
	if dstVertex == nil {
		return xerrors.Errorf("can't deliver message to %q: %w", dst, ErrInvalidMessageDestination)
	}
	return dstVertex.msgQueue[(g.superstep+1)%2].Enqueue(msg)
}

func (g *Graph[VT, ET]) startWorkers(numWorkers int) {
	g.vertexCh = make(chan *Vertex[VT, ET])
	g.errCh = make(chan error, 1)
	g.stepCompletedCh = make(chan struct{})

	g.wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go g.stepWorker()
	}
}

// stepWorker runs the compute function for every vertex it receives until
// vertexCh is closed.
func (g *Graph[VT, ET]) stepWorker() {
	defer g.wg.Done()
	for v := range g.vertexCh {
		buffer := g.superstep % 2
		if v.active || v.msgQueue[buffer].PendingMessages() {
			_ = atomic.AddInt64(&g.activeInStep, 1)
			v.active = true

			if err := g.computeFunc(g, v, v.msgQueue[buffer].Messages()); err != nil {
				emitError(g.errCh, xerrors.Errorf("error while running compute function for vertex %q: %w", v.ID(), err))
			} else if err := v.msgQueue[buffer].DiscardMessages(); err != nil {
				emitError(g.errCh, xerrors.Errorf("failed discarding unprocessed messages for vertex %q: %w", v.ID(), err))
			}
		}
		if atomic.AddInt64(&g.pendingInStep, -1) == 0 {
			g.stepCompletedCh <- struct{}{}
		}
	}
}

// step executes a single superstep and returns the number of vertices that
// were processed.
func (g *Graph[VT, ET]) step() (int, error) {
	g.activeInStep = 0
	g.pendingInStep = int64(len(g.vertices))

	if g.pendingInStep == 0 {
		return 0, nil
	}

	for _, v := range g.vertices {
		g.vertexCh <- v
	}

	// Barrier: every vertex has been processed once this returns.
	<-g.stepCompletedCh

	var err error
	select {
	case err = <-g.errCh:
	default:
	}

	return int(g.activeInStep), err
}

func emitError(errCh chan<- error, err error) {
	select {
	case errCh <- err:
	default: // an error is already pending
	}
}
