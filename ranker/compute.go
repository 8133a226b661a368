package ranker

import (
	"math"

	"github.com/Ahmed-Sermani/citerank/bsp"
	"github.com/Ahmed-Sermani/citerank/bsp/message"
)

// Aggregator names.
const (
	pageCountAgg = "page_count"
	sadAgg       = "SAD"
	maxDiffAgg   = "max_diff"
)

// IncomingScoreMessage carries the share of a vertex score sent along one
// outgoing edge.
type IncomingScoreMessage struct {
	Score float64
}

func (pr IncomingScoreMessage) Type() string { return "score" }

// makeRankerComputeFunc returns a ComputeFunc running one PageRank update per
// superstep with the given damping factor.
//
// Superstep 0 counts the vertices and superstep 1 assigns the uniform 1/N
// start vector. Every later superstep is one power iteration.
func makeRankerComputeFunc(dampingFactor float64) bsp.ComputeFunc[float64, any] {
	return func(g *bsp.Graph[float64, any], v *bsp.Vertex[float64, any], msgIt message.Iterator) error {
		superstep := g.Superstep()
		pageCount := g.Aggregator(pageCountAgg)

		if superstep == 0 {
			pageCount.Aggregate(1)
			return nil
		}

		var (
			n        = float64(pageCount.Get().(int))
			newScore float64
		)
		switch superstep {
		case 1:
			newScore = 1.0 / n
		default:
			newScore = (1.0 - dampingFactor) / n
			for msgIt.Next() {
				newScore += dampingFactor * msgIt.Message().(IncomingScoreMessage).Score
			}

			// Mass of the dangling vertices of the previous superstep,
			// already divided by n.
			newScore += dampingFactor * g.Aggregator(residualInputAccName(superstep)).Get().(float64)
		}

		absDelta := math.Abs(v.Value() - newScore)
		g.Aggregator(sadAgg).Aggregate(absDelta)
		g.Aggregator(maxDiffAgg).Aggregate(absDelta)

		v.SetValue(newScore)

		// A dangling vertex behaves as if it cited every vertex, itself
		// included. Its share is spread through an aggregator instead of
		// n messages.
		outDegree := float64(len(v.Edges()))
		if outDegree == 0 {
			g.Aggregator(residualOutputAccName(superstep)).Aggregate(newScore / n)
			return nil
		}

		// Parallel edges and self loops each receive their own share.
		return g.BroadcastToNeighbors(v, IncomingScoreMessage{newScore / outDegree})
	}
}

// residualOutputAccName returns the aggregator that collects the dangling
// mass produced during superstep.
func residualOutputAccName(superstep int) string {
	if superstep%2 == 0 {
		return "residual_0"
	}
	return "residual_1"
}

// residualInputAccName returns the aggregator holding the dangling mass
// produced by the superstep preceding superstep.
func residualInputAccName(superstep int) string {
	if (superstep+1)%2 == 0 {
		return "residual_0"
	}
	return "residual_1"
}
