package ranker_test

import (
	"github.com/Ahmed-Sermani/citerank/ranker"
	gc "gopkg.in/check.v1"
)

var _ = gc.Suite(new(TopKTestSuite))

type TopKTestSuite struct{}

func (s *TopKTestSuite) TestOrderAndTies(c *gc.C) {
	scores := map[string]float64{
		"0000005": 0.1,
		"0000003": 0.4,
		"0000001": 0.4,
		"0000002": 0.2,
		"0000004": 0.4,
	}
	c.Assert(ranker.TopK(scores, 4), gc.DeepEquals, []ranker.Scored{
		{ID: "0000001", Score: 0.4},
		{ID: "0000003", Score: 0.4},
		{ID: "0000004", Score: 0.4},
		{ID: "0000002", Score: 0.2},
	})

	// Map iteration order must not leak into the result.
	for i := 0; i < 20; i++ {
		c.Assert(ranker.TopK(scores, 2), gc.DeepEquals, []ranker.Scored{
			{ID: "0000001", Score: 0.4},
			{ID: "0000003", Score: 0.4},
		})
	}
}

func (s *TopKTestSuite) TestLength(c *gc.C) {
	scores := map[string]float64{"a": 1, "b": 2}
	c.Assert(ranker.TopK(scores, 10), gc.HasLen, 2)
	c.Assert(ranker.TopK(scores, 0), gc.HasLen, 0)
	c.Assert(ranker.TopK(scores, -3), gc.HasLen, 0)
	c.Assert(ranker.TopK(nil, 5), gc.HasLen, 0)
}
