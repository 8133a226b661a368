package ranking

import (
	"context"

	"github.com/Ahmed-Sermani/citerank/pipeline"
	"github.com/Ahmed-Sermani/citerank/ranker"
	"github.com/Ahmed-Sermani/citerank/report"
	"github.com/sirupsen/logrus"
	"golang.org/x/xerrors"
)

// rankProcessor runs PageRank on the partition of a payload. Every payload
// gets its own ranker so workers share nothing.
type rankProcessor struct {
	cfg    ranker.Config
	logger *logrus.Entry
}

func newRankProcessor(cfg ranker.Config, logger *logrus.Entry) *rankProcessor {
	return &rankProcessor{cfg: cfg, logger: logger}
}

func (p *rankProcessor) Process(ctx context.Context, payload pipeline.Payload) (pipeline.Payload, error) {
	rp := payload.(*rankPayload)
	res, err := ranker.Rank(ctx, ranker.FromEdges(rp.Edges), p.cfg)
	if err != nil {
		return nil, xerrors.Errorf("rank partition %s: %w", rp.Key, err)
	}
	rp.Result = res

	p.logger.WithFields(logrus.Fields{
		"partition":  rp.Key.String(),
		"nodes":      res.Nodes,
		"edges":      res.Edges,
		"iterations": res.Iterations,
		"rank_time":  res.Elapsed.String(),
	}).Debug("ranked partition")
	if !res.Converged {
		p.logger.WithFields(logrus.Fields{
			"partition":  rp.Key.String(),
			"iterations": res.Iterations,
			"residual":   res.Residual,
		}).Warn("PageRank did not converge; keeping best-effort scores")
	}
	return rp, nil
}

// topKProcessor turns a ranking result into a report entry holding the k
// best normalized scores.
type topKProcessor struct {
	k int
}

func newTopKProcessor(k int) *topKProcessor {
	return &topKProcessor{k: k}
}

func (p *topKProcessor) Process(_ context.Context, payload pipeline.Payload) (pipeline.Payload, error) {
	rp := payload.(*rankPayload)
	res := rp.Result
	rp.Entry = report.Entry{
		Year:           rp.Key.Year,
		Mode:           rp.Key.Mode.String(),
		Nodes:          res.Nodes,
		Edges:          res.Edges,
		DanglingNodes:  res.DanglingNodes,
		SelfLoops:      res.SelfLoops,
		Iterations:     res.Iterations,
		Converged:      res.Converged,
		Residual:       res.Residual,
		ElapsedSeconds: res.Elapsed.Seconds(),
		Top:            ranker.TopK(res.Normalized(), p.k),
	}
	return rp, nil
}
