/*
   Rank reports: the top scored papers of every partition together with the
   statistics of the run that produced them.
*/
package report

import (
	"context"
	"strings"
	"time"

	"github.com/Ahmed-Sermani/citerank/ranker"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/xerrors"
)

// Format selects how a report is rendered.
type Format string

const (
	Text Format = "text"
	JSON Format = "json"
	YAML Format = "yaml"
)

// ParseFormat maps a format name to a Format.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(name)); f {
	case Text, JSON, YAML:
		return f, nil
	case "":
		return Text, nil
	}
	return "", xerrors.Errorf("unsupported report format %q", name)
}

// Report is the outcome of one ranking run.
type Report struct {
	RunID       uuid.UUID `json:"run_id" yaml:"run_id"`
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`
	K           int       `json:"k" yaml:"k"`
	Ingestion   Ingestion `json:"ingestion" yaml:"ingestion"`
	Partitions  []Entry   `json:"partitions" yaml:"partitions"`
}

// Ingestion summarises the input the partitions were built from.
type Ingestion struct {
	Entities           int `json:"entities" yaml:"entities"`
	Citations          int `json:"citations" yaml:"citations"`
	Admitted           int `json:"admitted" yaml:"admitted"`
	UnknownEndpoint    int `json:"unknown_endpoint" yaml:"unknown_endpoint"`
	TemporallyInverted int `json:"temporally_inverted" yaml:"temporally_inverted"`
}

// Entry holds the ranking of a single partition. Top carries normalized
// scores.
type Entry struct {
	Year           int             `json:"year" yaml:"year"`
	Mode           string          `json:"mode" yaml:"mode"`
	Nodes          int             `json:"nodes" yaml:"nodes"`
	Edges          int             `json:"edges" yaml:"edges"`
	DanglingNodes  int             `json:"dangling_nodes" yaml:"dangling_nodes"`
	SelfLoops      int             `json:"self_loops" yaml:"self_loops"`
	Iterations     int             `json:"iterations" yaml:"iterations"`
	Converged      bool            `json:"converged" yaml:"converged"`
	Residual       float64         `json:"residual" yaml:"residual"`
	ElapsedSeconds float64         `json:"elapsed_seconds" yaml:"elapsed_seconds"`
	Top            []ranker.Scored `json:"top" yaml:"top"`
}

// Sink receives finished reports.
type Sink interface {
	WriteReport(ctx context.Context, r *Report) error
}

// MultiSink writes every report to each of its sinks and reports all
// failures together.
type MultiSink []Sink

func (m MultiSink) WriteReport(ctx context.Context, r *Report) error {
	var err error
	for _, s := range m {
		if sErr := s.WriteReport(ctx, r); sErr != nil {
			err = multierror.Append(err, sErr)
		}
	}
	return err
}
