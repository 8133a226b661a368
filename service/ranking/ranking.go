/*
   Ranks every partition of a run and publishes the top papers of each as
   a single report.
*/
package ranking

import (
	"context"
	"io"
	"runtime"
	"sort"

	"github.com/Ahmed-Sermani/citerank/partition"
	"github.com/Ahmed-Sermani/citerank/pipeline"
	"github.com/Ahmed-Sermani/citerank/pipeline/runners"
	"github.com/Ahmed-Sermani/citerank/ranker"
	"github.com/Ahmed-Sermani/citerank/report"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/juju/clock"
	"github.com/sirupsen/logrus"
	"golang.org/x/xerrors"
)

//go:generate mockgen -package mocks -destination mocks/mocks.go github.com/Ahmed-Sermani/citerank/report Sink

// DefaultTopK is the number of papers reported per partition.
const DefaultTopK = 5

// Config encapsulates the settings for the ranking service.
type Config struct {
	// Partitions to rank.
	Partitions []partition.Partition

	// Ranker configures every PageRank run.
	Ranker ranker.Config

	// Workers is the number of partitions ranked concurrently. Defaults
	// to the number of CPUs.
	Workers int

	// TopK is the number of papers reported per partition. Defaults to
	// DefaultTopK.
	TopK int

	// RunID identifies the report. A random one is used if not set.
	RunID uuid.UUID

	// Ingestion statistics copied into the report.
	Ingestion report.Ingestion

	// Sink receiving the report.
	Sink report.Sink

	// Clock used for report timestamps. Defaults to the wall clock.
	Clock clock.Clock

	Logger *logrus.Entry
}

func (cfg *Config) validate() error {
	var err error
	if cfg.Sink == nil {
		err = multierror.Append(err, xerrors.New("report sink has not been provided"))
	}
	if cfg.TopK < 0 {
		err = multierror.Append(err, xerrors.New("top-k must not be negative"))
	} else if cfg.TopK == 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.RunID == uuid.Nil {
		cfg.RunID = uuid.New()
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.WallClock
	}
	if cfg.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		cfg.Logger = logrus.NewEntry(l)
	}
	return err
}

// Service ranks the partitions of a run once and returns.
type Service struct {
	cfg      Config
	pipeline *pipeline.Pipeline
}

// NewService creates a ranking service with the given config.
func NewService(cfg Config) (*Service, error) {
	if err := cfg.validate(); err != nil {
		return nil, xerrors.Errorf("ranking service: config validation failed: %w", err)
	}
	return &Service{
		cfg:      cfg,
		pipeline: assembleRankingPipeline(cfg),
	}, nil
}

func assembleRankingPipeline(cfg Config) *pipeline.Pipeline {
	return pipeline.New(
		runners.FixedWorkerPool(newRankProcessor(cfg.Ranker, cfg.Logger), cfg.Workers),
		runners.FIFO(newTopKProcessor(cfg.TopK)),
	)
}

func (svc *Service) Name() string { return "ranking" }

// Run ranks every partition, orders the entries by year and mode and hands
// the report to the sink.
func (svc *Service) Run(ctx context.Context) error {
	start := svc.cfg.Clock.Now()
	sink := new(collectingSink)
	source := &partitionSource{parts: svc.cfg.Partitions}
	if err := svc.pipeline.Process(ctx, source, sink); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	entries := sink.entries
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Year != entries[j].Year {
			return entries[i].Year < entries[j].Year
		}
		return modeOrder(entries[i].Mode) < modeOrder(entries[j].Mode)
	})

	var nonConverged int
	for _, e := range entries {
		if !e.Converged {
			nonConverged++
		}
	}

	rep := &report.Report{
		RunID:       svc.cfg.RunID,
		GeneratedAt: svc.cfg.Clock.Now().UTC(),
		K:           svc.cfg.TopK,
		Ingestion:   svc.cfg.Ingestion,
		Partitions:  entries,
	}
	if err := svc.cfg.Sink.WriteReport(ctx, rep); err != nil {
		return xerrors.Errorf("write report: %w", err)
	}

	svc.cfg.Logger.WithFields(logrus.Fields{
		"run_id":        rep.RunID.String(),
		"partitions":    len(entries),
		"non_converged": nonConverged,
		"rank_time":     svc.cfg.Clock.Now().Sub(start).String(),
	}).Info("ranked partitions")
	return nil
}

func modeOrder(name string) partition.Mode {
	m, err := partition.ParseMode(name)
	if err != nil {
		return partition.Mode(len(partition.Modes))
	}
	return m
}
