package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Ahmed-Sermani/citerank/config"
	"github.com/Ahmed-Sermani/citerank/service"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/xerrors"
)

var (
	appName = "citerank"
	appSha  = ""
)

func main() {
	logger := logrus.WithFields(logrus.Fields{
		"app": appName,
		"sha": appSha,
	})

	if err := newRootCmd(logger).Execute(); err != nil {
		logger.WithField("err", err).Error("shutting down due to error")
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func newRootCmd(logger *logrus.Entry) *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:   appName,
		Short: "Per-year PageRank over a temporal citation graph",
		Long: "citerank partitions a citation graph by publication year and ranks " +
			"every cumulative and incremental partition with PageRank.",
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (default .citerank.yaml)")
	flags.BoolP("verbose", "v", false, "log at debug level")
	flags.String("dates-file", "", "paper timestamp listing")
	flags.String("citations-file", "", "citation listing")
	flags.String("output-dir", "", "directory receiving the batch/ and incremental/ partitions")
	flags.String("store-uri", "", "partition store (supported URIs: fs://<dir>, in-memory://, postgresql://user@host:26257/citerank?sslmode=disable)")
	flags.String("run-id", "", "run ID scoping the rows of a postgresql store")
	flags.Int("year-lo", 0, "first partitioned year")
	flags.Int("year-hi", 0, "last partitioned year")
	flags.Float64("damping", 0, "PageRank damping factor")
	flags.Float64("tolerance", 0, "PageRank convergence tolerance")
	flags.Int("max-iterations", 0, "iteration cap for a PageRank run")
	flags.Int("fixed-iterations", 0, "run exactly this many iterations, ignoring the tolerance")
	flags.String("convergence-norm", "", "convergence norm (l1 or max)")
	flags.Int("compute-workers", 0, "workers per PageRank superstep")
	flags.Int("rank-workers", 0, "partitions ranked concurrently (defaults to number of CPUs)")
	flags.Int("export-workers", 0, "partitions exported concurrently (defaults to number of CPUs)")
	flags.Int("top-k", 0, "papers reported per partition")
	flags.String("report-format", "", "report format (text, json or yaml)")
	flags.String("report-parquet", "", "also write the report as a parquet file at this path")

	cobra.OnInitialize(func() {
		initConfig(v, root)
	})

	root.AddCommand(
		&cobra.Command{
			Use:   "partition",
			Short: "Build and export the per-year partitions",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runWithConfig(v, logger, setupPartitionServices)
			},
		},
		&cobra.Command{
			Use:   "rank",
			Short: "Rank the partitions of a previous partition run",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runWithConfig(v, logger, setupRankServices)
			},
		},
		&cobra.Command{
			Use:   "run",
			Short: "Partition, export and rank in one go",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runWithConfig(v, logger, setupRunServices)
			},
		},
	)
	return root
}

func initConfig(v *viper.Viper, root *cobra.Command) {
	if cfgFile, _ := root.PersistentFlags().GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(".citerank")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	v.SetEnvPrefix(config.EnvPrefix)
	v.AutomaticEnv()

	// Only explicitly passed flags override the file and the defaults.
	root.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		if f.Name == "config" || !f.Changed {
			return
		}
		_ = v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
	})

	_ = v.ReadInConfig()
}

type setupFunc func(cfg config.Config, logger *logrus.Entry) (service.Group, func(), error)

func runWithConfig(v *viper.Viper, logger *logrus.Entry, setup setupFunc) error {
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	if cfg.Verbose {
		logger.Logger.SetLevel(logrus.DebugLevel)
	}
	if used := v.ConfigFileUsed(); used != "" {
		logger.WithField("file", used).Debug("loaded config file")
	}

	svcGroup, cleanup, err := setup(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGHUP, syscall.SIGTERM)
	defer cancel()

	if err := svcGroup.Run(ctx); err != nil {
		return xerrors.Errorf("%s: %w", appName, err)
	}
	return nil
}
