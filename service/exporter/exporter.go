/*
   Writes the partitions of a run to a partition sink.
*/
package exporter

import (
	"context"
	"io"
	"runtime"

	"github.com/Ahmed-Sermani/citerank/partition"
	"github.com/hashicorp/go-multierror"
	"github.com/juju/clock"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"
)

//go:generate mockgen -package mocks -destination mocks/mocks.go github.com/Ahmed-Sermani/citerank/partition Sink

// Config encapsulates the settings for the exporter service.
type Config struct {
	// Partitions to export.
	Partitions []partition.Partition

	// Sink receiving the partitions.
	Sink partition.Sink

	// Workers bounds the number of partitions written concurrently.
	// Defaults to the number of CPUs.
	Workers int

	// Clock used for timing the export. Defaults to the wall clock.
	Clock clock.Clock

	Logger *logrus.Entry
}

func (cfg *Config) validate() error {
	var err error
	if cfg.Sink == nil {
		err = multierror.Append(err, xerrors.New("partition sink has not been provided"))
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
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

// Service exports partitions once and returns.
type Service struct {
	cfg Config
}

// NewService creates an exporter service with the given config.
func NewService(cfg Config) (*Service, error) {
	if err := cfg.validate(); err != nil {
		return nil, xerrors.Errorf("exporter service: config validation failed: %w", err)
	}
	return &Service{cfg: cfg}, nil
}

func (svc *Service) Name() string { return "exporter" }

// Run writes every partition to the sink with at most Workers writes in
// flight. The first failure cancels the remaining writes.
func (svc *Service) Run(ctx context.Context) error {
	start := svc.cfg.Clock.Now()
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(svc.cfg.Workers)

	var edges int
	for _, p := range svc.cfg.Partitions {
		p := p
		edges += len(p.Edges)
		g.Go(func() error {
			if err := svc.cfg.Sink.WritePartition(gCtx, p); err != nil {
				return xerrors.Errorf("export partition %s: %w", p.Key, err)
			}
			svc.cfg.Logger.WithFields(logrus.Fields{
				"partition": p.Key.String(),
				"edges":     len(p.Edges),
			}).Debug("exported partition")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	svc.cfg.Logger.WithFields(logrus.Fields{
		"partitions":     len(svc.cfg.Partitions),
		"edges":          edges,
		"export_time_ms": svc.cfg.Clock.Now().Sub(start).Milliseconds(),
	}).Info("exported partitions")
	return nil
}
