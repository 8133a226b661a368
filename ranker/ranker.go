/*
   PageRank (https://en.wikipedia.org/wiki/PageRank) over citation graphs.

   Under the random surfer model a reader starts at a random paper and, with
   probability equal to the damping factor, follows one of its citations;
   otherwise they jump to a paper chosen uniformly at random. A paper that
   cites nothing sends the reader to a random paper. The score of a paper is
   the probability of finding the reader there, so every score lies in
   [0, 1] and the scores of a graph sum to 1.

   The scores are computed by power iteration on the bsp engine: each
   superstep reads the vector of the previous superstep and writes the next
   one, and the per-vertex updates of a superstep run on ComputeWorkers
   goroutines.
*/
package ranker

import (
	"context"
	"sort"
	"time"

	"github.com/Ahmed-Sermani/citerank/bsp"
	"github.com/Ahmed-Sermani/citerank/bsp/aggregators"
	"github.com/Ahmed-Sermani/citerank/citation"
	"golang.org/x/xerrors"
	"gonum.org/v1/gonum/floats"
)

// Supersteps 0 and 1 initialise the graph; iteration i runs in superstep i+1.
const setupSteps = 2

// Ranker executes the iterative version of the PageRank algorithm on a
// graph until the scores converge or the iteration budget is spent.
type Ranker struct {
	g   *bsp.Graph[float64, any]
	cfg Config

	executorFactory bsp.ExecutorFactory[float64, any]

	edges      int
	selfLoops  int
	iterations int
	residual   float64
	converged  bool
}

// NewRanker returns a new Ranker instance using the provided config options.
func NewRanker(cfg Config) (*Ranker, error) {
	if err := cfg.validate(); err != nil {
		return nil, xerrors.Errorf("PageRank ranker config validation failed: %w", err)
	}

	g, err := bsp.NewGraph(bsp.GraphConfig[float64, any]{
		ComputeWorkers: cfg.ComputeWorkers,
		ComputeFn:      makeRankerComputeFunc(cfg.DampingFactor),
	})
	if err != nil {
		return nil, err
	}

	return &Ranker{
		cfg:             cfg,
		g:               g,
		executorFactory: bsp.NewExecutor[float64, any],
	}, nil
}

// Close releases the compute workers of the ranker.
func (r *Ranker) Close() error {
	return r.g.Close()
}

// SetExecutorFactory makes Executor use a custom executor factory.
func (r *Ranker) SetExecutorFactory(factory bsp.ExecutorFactory[float64, any]) {
	r.executorFactory = factory
}

// AddVertex inserts a vertex with the given id. Adding a known id is a no-op.
func (r *Ranker) AddVertex(id string) {
	if _, known := r.g.Vertices()[id]; known {
		return
	}
	r.g.AddVertex(id, 0.0)
}

// AddEdge inserts a directed edge from src to dst. Self loops are ordinary
// edges and repeated calls add parallel edges.
func (r *Ranker) AddEdge(src, dst string) error {
	if err := r.g.AddEdge(src, dst, nil); err != nil {
		return err
	}
	r.edges++
	if src == dst {
		r.selfLoops++
	}
	return nil
}

// Graph returns the underlying bsp.Graph instance.
func (r *Ranker) Graph() *bsp.Graph[float64, any] {
	return r.g
}

// Executor creates a bsp.Executor for running the PageRank algorithm once
// the graph layout has been set up.
func (r *Ranker) Executor() *bsp.Executor[float64, any] {
	r.registerAggregators()
	r.iterations, r.residual, r.converged = 0, 0, false

	cb := bsp.ExecutorHooks[float64, any]{
		PreStep: func(_ context.Context, g *bsp.Graph[float64, any]) error {
			g.Aggregator(sadAgg).Set(0.0)
			g.Aggregator(maxDiffAgg).Set(0.0)
			g.Aggregator(residualOutputAccName(g.Superstep())).Set(0.0)
			return nil
		},
		PostStep: func(_ context.Context, g *bsp.Graph[float64, any], _ int) error {
			if g.Superstep() < setupSteps {
				return nil
			}
			r.iterations = g.Superstep() - setupSteps + 1
			r.residual = r.delta(g)
			return nil
		},
		PostStepKeepRunning: func(_ context.Context, g *bsp.Graph[float64, any], _ int) (bool, error) {
			if r.cfg.FixedIterations > 0 || g.Superstep() < setupSteps {
				return true, nil
			}
			r.converged = r.residual <= r.cfg.Tolerance
			return !r.converged, nil
		},
	}

	return r.executorFactory(r.g, cb)
}

func (r *Ranker) delta(g *bsp.Graph[float64, any]) float64 {
	if r.cfg.Norm == Max {
		return g.Aggregator(maxDiffAgg).Get().(float64)
	}
	return g.Aggregator(sadAgg).Get().(float64)
}

// registerAggregators creates and registers the aggregator instances needed
// by the compute function.
func (r *Ranker) registerAggregators() {
	r.g.RegisterAggregator(pageCountAgg, new(aggregators.IntAggregator))
	r.g.RegisterAggregator("residual_0", new(aggregators.Float64Aggregator))
	r.g.RegisterAggregator("residual_1", new(aggregators.Float64Aggregator))
	r.g.RegisterAggregator(sadAgg, new(aggregators.Float64Aggregator))
	r.g.RegisterAggregator(maxDiffAgg, new(aggregators.Float64MaxAggregator))
}

// Run executes the algorithm on the current graph and collects the result.
// Hitting MaxIterations is not an error; the result is flagged as not
// converged instead.
func (r *Ranker) Run(ctx context.Context) (*Result, error) {
	start := r.cfg.Clock.Now()
	res := &Result{
		Scores:    make(map[string]float64, len(r.g.Vertices())),
		Nodes:     len(r.g.Vertices()),
		Edges:     r.edges,
		SelfLoops: r.selfLoops,
	}
	if res.Nodes == 0 {
		res.Converged = true
		return res, nil
	}

	steps := r.cfg.MaxIterations
	if r.cfg.FixedIterations > 0 {
		steps = r.cfg.FixedIterations
	}
	if err := r.Executor().RunSteps(ctx, steps+setupSteps); err != nil {
		return nil, xerrors.Errorf("rank %d nodes: %w", res.Nodes, err)
	}

	if r.cfg.FixedIterations > 0 {
		r.converged = r.residual <= r.cfg.Tolerance
	}
	res.Iterations, res.Residual, res.Converged = r.iterations, r.residual, r.converged

	ids := make([]string, 0, res.Nodes)
	for id, v := range r.g.Vertices() {
		if len(v.Edges()) == 0 {
			res.DanglingNodes++
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	values := make([]float64, len(ids))
	for i, id := range ids {
		values[i] = r.g.Vertices()[id].Value()
		res.Scores[id] = values[i]
	}
	res.Mass = floats.Sum(values)
	res.Elapsed = r.cfg.Clock.Now().Sub(start)
	return res, nil
}

// Scores invokes visitFn for each vertex in the graph.
func (r *Ranker) Scores(visitFn func(id string, score float64) error) error {
	for id, v := range r.g.Vertices() {
		if err := visitFn(id, v.Value()); err != nil {
			return err
		}
	}
	return nil
}

// Result is the outcome of ranking one graph.
type Result struct {
	// Scores maps every node to its raw score. Raw scores sum to 1.
	Scores map[string]float64

	Iterations int
	Converged  bool
	// Residual is the convergence norm measured after the last iteration.
	Residual float64

	Nodes         int
	Edges         int
	DanglingNodes int
	SelfLoops     int

	// Mass is the sum of the raw scores.
	Mass    float64
	Elapsed time.Duration
}

// Normalized returns the scores multiplied by the node count, so that the
// average score is 1.
func (r *Result) Normalized() map[string]float64 {
	out := make(map[string]float64, len(r.Scores))
	if len(r.Scores) == 0 {
		return out
	}
	ids := make([]string, 0, len(r.Scores))
	values := make([]float64, 0, len(r.Scores))
	for id, score := range r.Scores {
		ids = append(ids, id)
		values = append(values, score)
	}
	floats.Scale(float64(len(values)), values)
	for i, id := range ids {
		out[id] = values[i]
	}
	return out
}

// Graph is a directed multigraph given as an edge list. Nodes lists
// vertices that may have no incident edges; edge endpoints are always
// vertices.
type Graph struct {
	Nodes []string
	Edges []citation.Edge
}

// FromEdges returns the graph spanned by edges.
func FromEdges(edges []citation.Edge) Graph {
	return Graph{Edges: edges}
}

// Rank computes the PageRank scores of g using a dedicated Ranker.
func Rank(ctx context.Context, g Graph, cfg Config) (*Result, error) {
	r, err := NewRanker(cfg)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	for _, id := range g.Nodes {
		r.AddVertex(id)
	}
	for _, e := range g.Edges {
		r.AddVertex(e.Src)
		r.AddVertex(e.Dst)
	}
	for _, e := range g.Edges {
		if err := r.AddEdge(e.Src, e.Dst); err != nil {
			return nil, err
		}
	}
	return r.Run(ctx)
}
