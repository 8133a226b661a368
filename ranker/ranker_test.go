package ranker_test

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"strconv"
	"testing"
	"time"

	"github.com/Ahmed-Sermani/citerank/bsp"
	"github.com/Ahmed-Sermani/citerank/citation"
	"github.com/Ahmed-Sermani/citerank/ranker"
	"github.com/juju/clock/testclock"
	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/simple"
	gc "gopkg.in/check.v1"
)

var _ = gc.Suite(new(RankerTestSuite))

func Test(t *testing.T) {
	gc.TestingT(t)
}

type RankerTestSuite struct{}

func (s *RankerTestSuite) TestEmptyGraph(c *gc.C) {
	res, err := ranker.Rank(context.TODO(), ranker.Graph{}, ranker.Config{})
	c.Assert(err, gc.IsNil)
	c.Assert(res.Scores, gc.HasLen, 0)
	c.Assert(res.Normalized(), gc.HasLen, 0)
	c.Assert(res.Converged, gc.Equals, true)
	c.Assert(res.Iterations, gc.Equals, 0)
}

func (s *RankerTestSuite) TestNoEdgesIsUniform(c *gc.C) {
	res, err := ranker.Rank(context.TODO(), ranker.Graph{Nodes: []string{"a", "b", "c", "d"}}, ranker.Config{})
	c.Assert(err, gc.IsNil)
	c.Assert(res.Converged, gc.Equals, true)
	c.Assert(res.DanglingNodes, gc.Equals, 4)
	for id, score := range res.Scores {
		assertClose(c, score, 0.25, 1e-12, id)
	}
	for id, score := range res.Normalized() {
		assertClose(c, score, 1.0, 1e-9, id)
	}
}

func (s *RankerTestSuite) TestThreeCycleIsUniformForAnyDamping(c *gc.C) {
	cycle := ranker.FromEdges([]citation.Edge{{Src: "a", Dst: "b"}, {Src: "b", Dst: "c"}, {Src: "c", Dst: "a"}})
	for _, damping := range []float64{0.1, 0.5, 0.85, 0.99, 1.0} {
		res, err := ranker.Rank(context.TODO(), cycle, ranker.Config{DampingFactor: damping})
		c.Assert(err, gc.IsNil)
		c.Assert(res.Converged, gc.Equals, true, gc.Commentf("damping %v", damping))
		for id, score := range res.Normalized() {
			assertClose(c, score, 1.0, 1e-9, id)
		}
	}
}

func (s *RankerTestSuite) TestMassIsConserved(c *gc.C) {
	g := ranker.FromEdges([]citation.Edge{
		{Src: "a", Dst: "b"}, {Src: "a", Dst: "b"}, {Src: "a", Dst: "a"},
		{Src: "b", Dst: "c"}, {Src: "d", Dst: "c"}, {Src: "e", Dst: "e"},
	})
	res, err := ranker.Rank(context.TODO(), g, ranker.Config{ComputeWorkers: 4})
	c.Assert(err, gc.IsNil)
	c.Assert(res.Nodes, gc.Equals, 5)
	c.Assert(res.Edges, gc.Equals, 6)
	c.Assert(res.SelfLoops, gc.Equals, 2)
	c.Assert(res.DanglingNodes, gc.Equals, 1)
	assertClose(c, res.Mass, 1.0, 1e-6, "mass")

	var normSum float64
	for id, score := range res.Normalized() {
		c.Assert(score >= 0, gc.Equals, true, gc.Commentf("node %s", id))
		normSum += score
	}
	assertClose(c, normSum, 5.0, 1e-5, "normalized mass")
}

func (s *RankerTestSuite) TestParallelEdgesCountMultiplicatively(c *gc.C) {
	g := ranker.FromEdges([]citation.Edge{{Src: "a", Dst: "b"}, {Src: "a", Dst: "b"}, {Src: "a", Dst: "c"}})
	res, err := ranker.Rank(context.TODO(), g, ranker.Config{})
	c.Assert(err, gc.IsNil)

	// b receives two thirds of the share of a, c one third.
	got := res.Scores["b"] - res.Scores["c"]
	assertClose(c, got, ranker.DefaultDampingFactor*res.Scores["a"]/3, 1e-9, "b-c")
}

func (s *RankerTestSuite) TestAgreesWithGonum(c *gc.C) {
	var (
		rnd      = rand.New(rand.NewSource(42))
		numNodes = 60
		oracle   = simple.NewDirectedGraph()
		graph    ranker.Graph
	)
	for i := 0; i < numNodes; i++ {
		oracle.AddNode(simple.Node(i))
		graph.Nodes = append(graph.Nodes, strconv.Itoa(i))
	}
	for i := 0; i < numNodes; i++ {
		// Roughly one node in five is dangling.
		if rnd.Intn(5) == 0 {
			continue
		}
		for _, j := range rnd.Perm(numNodes)[:1+rnd.Intn(6)] {
			if i == j {
				continue
			}
			oracle.SetEdge(oracle.NewEdge(simple.Node(i), simple.Node(j)))
			graph.Edges = append(graph.Edges, citation.Edge{Src: strconv.Itoa(i), Dst: strconv.Itoa(j)})
		}
	}

	exp := network.PageRank(oracle, 0.85, 1e-14)
	res, err := ranker.Rank(context.TODO(), graph, ranker.Config{Tolerance: 1e-13, ComputeWorkers: 3})
	c.Assert(err, gc.IsNil)
	c.Assert(res.Converged, gc.Equals, true)
	c.Assert(res.Scores, gc.HasLen, numNodes)
	for id, score := range exp {
		assertClose(c, res.Scores[strconv.FormatInt(id, 10)], score, 1e-6, strconv.FormatInt(id, 10))
	}
}

func (s *RankerTestSuite) TestWorkerCountDoesNotChangeScores(c *gc.C) {
	g := ranker.FromEdges([]citation.Edge{
		{Src: "1", Dst: "2"}, {Src: "2", Dst: "3"}, {Src: "3", Dst: "1"},
		{Src: "4", Dst: "1"}, {Src: "5", Dst: "4"}, {Src: "5", Dst: "6"},
	})
	single, err := ranker.Rank(context.TODO(), g, ranker.Config{ComputeWorkers: 1})
	c.Assert(err, gc.IsNil)
	multi, err := ranker.Rank(context.TODO(), g, ranker.Config{ComputeWorkers: 8})
	c.Assert(err, gc.IsNil)
	for id, score := range single.Scores {
		assertClose(c, multi.Scores[id], score, 1e-9, id)
	}
}

func (s *RankerTestSuite) TestFixedIterations(c *gc.C) {
	cycle := ranker.FromEdges([]citation.Edge{{Src: "a", Dst: "b"}, {Src: "b", Dst: "c"}, {Src: "c", Dst: "a"}})
	res, err := ranker.Rank(context.TODO(), cycle, ranker.Config{FixedIterations: 7})
	c.Assert(err, gc.IsNil)
	c.Assert(res.Iterations, gc.Equals, 7)
	c.Assert(res.Converged, gc.Equals, true)
}

func (s *RankerTestSuite) TestIterationCapFlagsNonConvergence(c *gc.C) {
	chain := ranker.FromEdges([]citation.Edge{{Src: "a", Dst: "b"}, {Src: "b", Dst: "c"}, {Src: "c", Dst: "d"}})
	res, err := ranker.Rank(context.TODO(), chain, ranker.Config{MaxIterations: 2, Tolerance: 1e-15})
	c.Assert(err, gc.IsNil)
	c.Assert(res.Converged, gc.Equals, false)
	c.Assert(res.Iterations, gc.Equals, 2)
	c.Assert(res.Residual > 1e-15, gc.Equals, true)
	assertClose(c, res.Mass, 1.0, 1e-9, "mass")
}

func (s *RankerTestSuite) TestMaxNorm(c *gc.C) {
	g := ranker.FromEdges([]citation.Edge{{Src: "a", Dst: "b"}, {Src: "b", Dst: "c"}, {Src: "c", Dst: "b"}, {Src: "d", Dst: "a"}})
	l1, err := ranker.Rank(context.TODO(), g, ranker.Config{})
	c.Assert(err, gc.IsNil)
	max, err := ranker.Rank(context.TODO(), g, ranker.Config{Norm: ranker.Max})
	c.Assert(err, gc.IsNil)
	c.Assert(max.Converged, gc.Equals, true)
	c.Assert(max.Residual <= ranker.DefaultTolerance, gc.Equals, true)
	for id, score := range l1.Scores {
		assertClose(c, max.Scores[id], score, 1e-8, id)
	}
}

func (s *RankerTestSuite) TestElapsedUsesConfiguredClock(c *gc.C) {
	clk := testclock.NewClock(time.Date(2003, 1, 1, 0, 0, 0, 0, time.UTC))
	r, err := ranker.NewRanker(ranker.Config{Clock: clk, FixedIterations: 3})
	c.Assert(err, gc.IsNil)
	defer func() { c.Assert(r.Close(), gc.IsNil) }()

	r.SetExecutorFactory(func(g *bsp.Graph[float64, any], cb bsp.ExecutorHooks[float64, any]) *bsp.Executor[float64, any] {
		postStep := cb.PostStep
		cb.PostStep = func(ctx context.Context, g *bsp.Graph[float64, any], active int) error {
			clk.Advance(time.Second)
			return postStep(ctx, g, active)
		}
		return bsp.NewExecutor(g, cb)
	})

	r.AddVertex("a")
	r.AddVertex("b")
	c.Assert(r.AddEdge("a", "b"), gc.IsNil)

	res, err := r.Run(context.TODO())
	c.Assert(err, gc.IsNil)
	c.Assert(res.Iterations, gc.Equals, 3)
	c.Assert(res.Elapsed, gc.Equals, 5*time.Second)

	visited := 0
	c.Assert(r.Scores(func(id string, score float64) error {
		visited++
		assertClose(c, score, res.Scores[id], 0, id)
		return nil
	}), gc.IsNil)
	c.Assert(visited, gc.Equals, 2)
}

func (s *RankerTestSuite) TestCancelledContext(c *gc.C) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ranker.Rank(ctx, ranker.FromEdges([]citation.Edge{{Src: "a", Dst: "b"}}), ranker.Config{})
	c.Assert(errors.Is(err, context.Canceled), gc.Equals, true)
}

func (s *RankerTestSuite) TestConfigValidation(c *gc.C) {
	_, err := ranker.NewRanker(ranker.Config{DampingFactor: 1.5, Tolerance: -1, MaxIterations: -1, Norm: ranker.Norm(7)})
	c.Assert(err, gc.ErrorMatches, "(?s)PageRank ranker config validation failed:.*"+
		"DampingFactor must be in the range.*Tolerance must be in the range.*"+
		"unsupported convergence norm 7.*MaxIterations must not be negative.*")
}

func (s *RankerTestSuite) TestParseNorm(c *gc.C) {
	n, err := ranker.ParseNorm("max")
	c.Assert(err, gc.IsNil)
	c.Assert(n, gc.Equals, ranker.Max)
	c.Assert(n.String(), gc.Equals, "max")

	n, err = ranker.ParseNorm("")
	c.Assert(err, gc.IsNil)
	c.Assert(n, gc.Equals, ranker.L1)

	_, err = ranker.ParseNorm("l2")
	c.Assert(err, gc.ErrorMatches, `unknown convergence norm "l2"`)
}

func assertClose(c *gc.C, got, exp, tol float64, what string) {
	c.Assert(math.Abs(got-exp) <= tol, gc.Equals, true, gc.Commentf("%s: got %v, want %v", what, got, exp))
}
