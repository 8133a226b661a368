package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"golang.org/x/xerrors"
	"gopkg.in/yaml.v3"
)

// Render writes r to w in the given format.
func Render(w io.Writer, r *Report, format Format) error {
	var err error
	switch format {
	case Text, "":
		err = renderText(w, r)
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(r)
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err = enc.Encode(r); err == nil {
			err = enc.Close()
		}
	default:
		return xerrors.Errorf("unsupported report format %q", format)
	}
	if err != nil {
		return xerrors.Errorf("render %s report: %w", format, err)
	}
	return nil
}

// renderText prints one block per partition:
//
//	--- year 1995 top 5 (cumulative) ---
//	0001234 has rank: 3.25
func renderText(w io.Writer, r *Report) error {
	for _, e := range r.Partitions {
		if _, err := fmt.Fprintf(w, "--- year %d top %d (%s) ---\n", e.Year, r.K, e.Mode); err != nil {
			return err
		}
		for _, s := range e.Top {
			if _, err := fmt.Fprintf(w, "%s has rank: %s\n", s.ID, strconv.FormatFloat(s.Score, 'g', -1, 64)); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriterSink renders reports to an io.Writer.
type WriterSink struct {
	w      io.Writer
	format Format
}

// NewWriterSink returns a Sink rendering reports to w.
func NewWriterSink(w io.Writer, format Format) *WriterSink {
	return &WriterSink{w: w, format: format}
}

func (s *WriterSink) WriteReport(_ context.Context, r *Report) error {
	return Render(s.w, r, s.format)
}
