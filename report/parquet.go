package report

import (
	"bytes"
	"context"
	"path/filepath"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/memory"
	"github.com/apache/arrow/go/v14/parquet"
	"github.com/apache/arrow/go/v14/parquet/compress"
	"github.com/apache/arrow/go/v14/parquet/pqarrow"
	"github.com/spf13/afero"
	"golang.org/x/xerrors"
)

// ParquetSchema is the layout of exported rank rows: one row per
// (partition, position).
var ParquetSchema = arrow.NewSchema([]arrow.Field{
	{Name: "run_id", Type: arrow.BinaryTypes.String},
	{Name: "year", Type: arrow.PrimitiveTypes.Int32},
	{Name: "mode", Type: arrow.BinaryTypes.String},
	{Name: "position", Type: arrow.PrimitiveTypes.Int32},
	{Name: "id", Type: arrow.BinaryTypes.String},
	{Name: "score", Type: arrow.PrimitiveTypes.Float64},
	{Name: "converged", Type: arrow.FixedWidthTypes.Boolean},
}, nil)

// ParquetSink exports the ranked rows of a report as a parquet file.
type ParquetSink struct {
	fs   afero.Fs
	path string
	mem  memory.Allocator
}

// NewParquetSink returns a sink writing to path on fs. An existing file is
// replaced.
func NewParquetSink(fs afero.Fs, path string) *ParquetSink {
	return &ParquetSink{fs: fs, path: path, mem: memory.NewGoAllocator()}
}

func (s *ParquetSink) WriteReport(_ context.Context, r *Report) error {
	rec := s.buildRecord(r)
	defer rec.Release()

	var buf bytes.Buffer
	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	w, err := pqarrow.NewFileWriter(ParquetSchema, &buf, props, pqarrow.DefaultWriterProps())
	if err != nil {
		return xerrors.Errorf("parquet writer: %w", err)
	}
	if err = w.Write(rec); err != nil {
		_ = w.Close()
		return xerrors.Errorf("write parquet rows: %w", err)
	}
	if err = w.Close(); err != nil {
		return xerrors.Errorf("close parquet writer: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err = s.fs.MkdirAll(dir, 0o755); err != nil {
			return xerrors.Errorf("create %s: %w", dir, err)
		}
	}
	if err = afero.WriteFile(s.fs, s.path, buf.Bytes(), 0o644); err != nil {
		return xerrors.Errorf("write %s: %w", s.path, err)
	}
	return nil
}

func (s *ParquetSink) buildRecord(r *Report) arrow.Record {
	b := array.NewRecordBuilder(s.mem, ParquetSchema)
	defer b.Release()

	var (
		runID     = b.Field(0).(*array.StringBuilder)
		year      = b.Field(1).(*array.Int32Builder)
		mode      = b.Field(2).(*array.StringBuilder)
		position  = b.Field(3).(*array.Int32Builder)
		id        = b.Field(4).(*array.StringBuilder)
		score     = b.Field(5).(*array.Float64Builder)
		converged = b.Field(6).(*array.BooleanBuilder)
	)
	for _, e := range r.Partitions {
		for i, top := range e.Top {
			runID.Append(r.RunID.String())
			year.Append(int32(e.Year))
			mode.Append(e.Mode)
			position.Append(int32(i + 1))
			id.Append(top.ID)
			score.Append(top.Score)
			converged.Append(e.Converged)
		}
	}
	return b.NewRecord()
}
