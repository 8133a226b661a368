/*
   Run configuration, read from .citerank.yaml, CITERANK_* environment
   variables and command line flags.
*/
package config

import (
	"net/url"
	"runtime"

	"github.com/Ahmed-Sermani/citerank/partition"
	"github.com/Ahmed-Sermani/citerank/ranker"
	"github.com/Ahmed-Sermani/citerank/report"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/viper"
	"golang.org/x/xerrors"
)

// EnvPrefix prefixes the environment variables that override config keys.
const EnvPrefix = "CITERANK"

// Config holds the settings of a run.
type Config struct {
	DatesFile     string `mapstructure:"dates_file"`
	CitationsFile string `mapstructure:"citations_file"`
	OutputDir     string `mapstructure:"output_dir"`
	// StoreURI selects the partition store: fs://<dir>, in-memory:// or
	// postgresql://... An empty value means fs://<OutputDir>.
	StoreURI string `mapstructure:"store_uri"`
	// RunID scopes the rows of a database store. The rank command needs
	// the ID logged by the partition run; other commands pick a new one
	// when it is empty.
	RunID string `mapstructure:"run_id"`

	YearLo int `mapstructure:"year_lo"`
	YearHi int `mapstructure:"year_hi"`

	Damping         float64 `mapstructure:"damping"`
	Tolerance       float64 `mapstructure:"tolerance"`
	MaxIterations   int     `mapstructure:"max_iterations"`
	FixedIterations int     `mapstructure:"fixed_iterations"`
	ConvergenceNorm string  `mapstructure:"convergence_norm"`

	ComputeWorkers int `mapstructure:"compute_workers"`
	RankWorkers    int `mapstructure:"rank_workers"`
	ExportWorkers  int `mapstructure:"export_workers"`

	TopK          int    `mapstructure:"top_k"`
	ReportFormat  string `mapstructure:"report_format"`
	ReportParquet string `mapstructure:"report_parquet"`

	Verbose bool `mapstructure:"verbose"`
}

// SetDefaults registers the built-in defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("dates_file", "cit-HepPh-dates.txt")
	v.SetDefault("citations_file", "cit-HepPh.txt")
	v.SetDefault("output_dir", ".")
	v.SetDefault("store_uri", "")
	v.SetDefault("run_id", "")
	v.SetDefault("year_lo", partition.DefaultYearLo)
	v.SetDefault("year_hi", partition.DefaultYearHi)
	v.SetDefault("damping", ranker.DefaultDampingFactor)
	v.SetDefault("tolerance", ranker.DefaultTolerance)
	v.SetDefault("max_iterations", ranker.DefaultMaxIterations)
	v.SetDefault("fixed_iterations", 0)
	v.SetDefault("convergence_norm", ranker.L1.String())
	v.SetDefault("compute_workers", 1)
	v.SetDefault("rank_workers", runtime.NumCPU())
	v.SetDefault("export_workers", runtime.NumCPU())
	v.SetDefault("top_k", 5)
	v.SetDefault("report_format", string(report.Text))
	v.SetDefault("report_parquet", "")
	v.SetDefault("verbose", false)
}

// Load applies the defaults to v and decodes the result.
func Load(v *viper.Viper) (Config, error) {
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, xerrors.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, xerrors.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var err error
	if c.DatesFile == "" {
		err = multierror.Append(err, xerrors.New("dates_file must be set"))
	}
	if c.CitationsFile == "" {
		err = multierror.Append(err, xerrors.New("citations_file must be set"))
	}
	if _, rErr := partition.NewYearRange(c.YearLo, c.YearHi); rErr != nil {
		err = multierror.Append(err, rErr)
	}
	if c.Damping <= 0 || c.Damping > 1 {
		err = multierror.Append(err, xerrors.New("damping must be in the range (0, 1]"))
	}
	if c.Tolerance <= 0 || c.Tolerance >= 1 {
		err = multierror.Append(err, xerrors.New("tolerance must be in the range (0, 1)"))
	}
	if c.MaxIterations <= 0 {
		err = multierror.Append(err, xerrors.New("max_iterations must be positive"))
	}
	if c.FixedIterations < 0 {
		err = multierror.Append(err, xerrors.New("fixed_iterations must not be negative"))
	}
	if _, nErr := ranker.ParseNorm(c.ConvergenceNorm); nErr != nil {
		err = multierror.Append(err, nErr)
	}
	for name, n := range map[string]int{
		"compute_workers": c.ComputeWorkers,
		"rank_workers":    c.RankWorkers,
		"export_workers":  c.ExportWorkers,
	} {
		if n <= 0 {
			err = multierror.Append(err, xerrors.Errorf("%s must be positive", name))
		}
	}
	if c.TopK < 0 {
		err = multierror.Append(err, xerrors.New("top_k must not be negative"))
	}
	if _, fErr := report.ParseFormat(c.ReportFormat); fErr != nil {
		err = multierror.Append(err, fErr)
	}
	if c.StoreURI != "" {
		if _, uErr := url.Parse(c.StoreURI); uErr != nil {
			err = multierror.Append(err, xerrors.Errorf("store_uri: %w", uErr))
		}
	}
	if c.RunID != "" {
		if _, uErr := uuid.Parse(c.RunID); uErr != nil {
			err = multierror.Append(err, xerrors.Errorf("run_id: %w", uErr))
		}
	}
	return err
}

// Run returns the configured run ID or a new random one.
func (c Config) Run() uuid.UUID {
	if id, err := uuid.Parse(c.RunID); err == nil {
		return id
	}
	return uuid.New()
}

// YearRange returns the configured partition range.
func (c Config) YearRange() partition.YearRange {
	return partition.YearRange{Lo: c.YearLo, Hi: c.YearHi}
}

// RankerConfig returns the PageRank settings.
func (c Config) RankerConfig() ranker.Config {
	norm, _ := ranker.ParseNorm(c.ConvergenceNorm)
	return ranker.Config{
		DampingFactor:   c.Damping,
		Tolerance:       c.Tolerance,
		Norm:            norm,
		MaxIterations:   c.MaxIterations,
		FixedIterations: c.FixedIterations,
		ComputeWorkers:  c.ComputeWorkers,
	}
}

// Format returns the report format.
func (c Config) Format() report.Format {
	f, _ := report.ParseFormat(c.ReportFormat)
	return f
}

// PartitionStoreURI returns StoreURI, falling back to the output directory.
func (c Config) PartitionStoreURI() string {
	if c.StoreURI != "" {
		return c.StoreURI
	}
	return "fs://" + c.OutputDir
}
