package main

import (
	"context"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/Ahmed-Sermani/citerank/citation"
	"github.com/Ahmed-Sermani/citerank/config"
	"github.com/Ahmed-Sermani/citerank/partition"
	"github.com/Ahmed-Sermani/citerank/report"
	"github.com/Ahmed-Sermani/citerank/service"
	"github.com/Ahmed-Sermani/citerank/service/exporter"
	"github.com/Ahmed-Sermani/citerank/service/ranking"
	"github.com/Ahmed-Sermani/citerank/source"
	"github.com/Ahmed-Sermani/citerank/store"
	"github.com/Ahmed-Sermani/citerank/store/cdb"
	fsstore "github.com/Ahmed-Sermani/citerank/store/fs"
	memstore "github.com/Ahmed-Sermani/citerank/store/memory"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"golang.org/x/xerrors"
)

func setupPartitionServices(cfg config.Config, logger *logrus.Entry) (service.Group, func(), error) {
	osFs := afero.NewOsFs()
	parts, _, err := ingest(osFs, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	runID := cfg.Run()
	partStore, err := getPartitionStore(osFs, cfg.PartitionStoreURI(), runID, true, logger)
	if err != nil {
		return nil, nil, err
	}
	logger.WithField("run_id", runID.String()).Info("exporting partitions")

	exportSvc, err := newExporter(cfg, parts, partStore, logger)
	if err != nil {
		closeStore(partStore, logger)
		return nil, nil, err
	}
	return service.Group{exportSvc}, func() { closeStore(partStore, logger) }, nil
}

func setupRankServices(cfg config.Config, logger *logrus.Entry) (service.Group, func(), error) {
	osFs := afero.NewOsFs()
	runID := cfg.Run()
	partStore, err := getPartitionStore(osFs, cfg.PartitionStoreURI(), runID, false, logger)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { closeStore(partStore, logger) }

	parts, err := loadPartitions(context.Background(), partStore)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	if len(parts) == 0 {
		logger.WithField("store_uri", cfg.PartitionStoreURI()).Warn("no partitions found; run the partition command first")
	}

	rankSvc, err := newRanking(cfg, runID, parts, report.Ingestion{}, partStore, osFs, os.Stdout, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return service.Group{rankSvc}, cleanup, nil
}

func setupRunServices(cfg config.Config, logger *logrus.Entry) (service.Group, func(), error) {
	osFs := afero.NewOsFs()
	parts, stats, err := ingest(osFs, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	runID := cfg.Run()
	partStore, err := getPartitionStore(osFs, cfg.PartitionStoreURI(), runID, true, logger)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { closeStore(partStore, logger) }

	var svcGroup service.Group
	if svc, err := newExporter(cfg, parts, partStore, logger); err == nil {
		svcGroup = append(svcGroup, svc)
	} else {
		cleanup()
		return nil, nil, err
	}
	if svc, err := newRanking(cfg, runID, parts, stats, partStore, osFs, os.Stdout, logger); err == nil {
		svcGroup = append(svcGroup, svc)
	} else {
		cleanup()
		return nil, nil, err
	}
	return svcGroup, cleanup, nil
}

// ingest reads both listings and partitions the admissible citations.
func ingest(fs afero.Fs, cfg config.Config, logger *logrus.Entry) ([]partition.Partition, report.Ingestion, error) {
	datesSrc, err := source.Open(fs, cfg.DatesFile)
	if err != nil {
		return nil, report.Ingestion{}, err
	}
	defer func() { _ = datesSrc.Close() }()

	idx, err := citation.BuildIndex(datesSrc)
	if err != nil {
		return nil, report.Ingestion{}, xerrors.Errorf("%s: %w", cfg.DatesFile, err)
	}

	citesSrc, err := source.Open(fs, cfg.CitationsFile)
	if err != nil {
		return nil, report.Ingestion{}, err
	}
	defer func() { _ = citesSrc.Close() }()

	cites, err := citation.FilterEdges(citesSrc, idx)
	if err != nil {
		return nil, report.Ingestion{}, xerrors.Errorf("%s: %w", cfg.CitationsFile, err)
	}

	logger.WithFields(logrus.Fields{
		"entities":            idx.Len(),
		"citations":           cites.Stats.Total,
		"admitted":            cites.Stats.Admitted,
		"unknown_endpoint":    cites.Stats.UnknownEndpoint,
		"temporally_inverted": cites.Stats.TemporallyInverted,
	}).Info("ingested citation graph")

	set, err := partition.Build(idx, cites, cfg.YearRange())
	if err != nil {
		return nil, report.Ingestion{}, err
	}
	parts := set.Partitions()
	for _, p := range parts {
		logger.WithFields(logrus.Fields{
			"partition": p.Key.String(),
			"edges":     len(p.Edges),
		}).Info("built partition")
	}

	return parts, report.Ingestion{
		Entities:           idx.Len(),
		Citations:          cites.Stats.Total,
		Admitted:           cites.Stats.Admitted,
		UnknownEndpoint:    cites.Stats.UnknownEndpoint,
		TemporallyInverted: cites.Stats.TemporallyInverted,
	}, nil
}

func loadPartitions(ctx context.Context, st store.Store) ([]partition.Partition, error) {
	keys, err := st.Keys(ctx)
	if err != nil {
		return nil, xerrors.Errorf("list partitions: %w", err)
	}
	parts := make([]partition.Partition, 0, len(keys))
	for _, key := range keys {
		edges, err := st.Partition(ctx, key)
		if err != nil {
			return nil, err
		}
		parts = append(parts, partition.Partition{Key: key, Edges: edges})
	}
	return parts, nil
}

func newExporter(cfg config.Config, parts []partition.Partition, sink partition.Sink, logger *logrus.Entry) (service.Service, error) {
	return exporter.NewService(exporter.Config{
		Partitions: parts,
		Sink:       sink,
		Workers:    cfg.ExportWorkers,
		Logger:     logger.WithField("service", "exporter"),
	})
}

func newRanking(
	cfg config.Config,
	runID uuid.UUID,
	parts []partition.Partition,
	stats report.Ingestion,
	partStore store.Store,
	fs afero.Fs,
	out io.Writer,
	logger *logrus.Entry,
) (service.Service, error) {
	sinks := report.MultiSink{report.NewWriterSink(out, cfg.Format())}
	if cfg.ReportParquet != "" {
		sinks = append(sinks, report.NewParquetSink(fs, cfg.ReportParquet))
	}
	if rs, ok := partStore.(report.Sink); ok {
		sinks = append(sinks, rs)
	}

	return ranking.NewService(ranking.Config{
		Partitions: parts,
		Ranker:     cfg.RankerConfig(),
		Workers:    cfg.RankWorkers,
		TopK:       cfg.TopK,
		RunID:      runID,
		Ingestion:  stats,
		Sink:       sinks,
		Logger:     logger.WithField("service", "ranking"),
	})
}

// getPartitionStore selects the store named by storeURI. With reset set a
// filesystem store starts from empty mode directories.
func getPartitionStore(fs afero.Fs, storeURI string, runID uuid.UUID, reset bool, logger *logrus.Entry) (store.Store, error) {
	if storeURI == "" {
		return nil, xerrors.Errorf("partition store URI must be specified with --store-uri")
	}

	uri, err := url.Parse(storeURI)
	if err != nil {
		return nil, xerrors.Errorf("could not parse partition store URI: %w", err)
	}

	switch uri.Scheme {
	case "fs":
		root := strings.TrimPrefix(storeURI, "fs://")
		logger.WithField("root", root).Info("using filesystem partition store")
		if !reset {
			return fsstore.OpenStore(fs, root), nil
		}
		return fsstore.NewStore(fs, root)
	case "in-memory":
		logger.Info("using in-memory partition store")
		return memstore.NewStore(), nil
	case "postgresql":
		logger.Info("using CDB partition store")
		return cdb.NewStore(storeURI, runID)
	default:
		return nil, xerrors.Errorf("unsupported partition store URI scheme: %q", uri.Scheme)
	}
}

func closeStore(st store.Store, logger *logrus.Entry) {
	c, ok := st.(io.Closer)
	if !ok {
		return
	}
	if err := c.Close(); err != nil {
		logger.WithField("err", err).Warn("closing partition store")
	}
}
