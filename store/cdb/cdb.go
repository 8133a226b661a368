/*
   PostgreSQL/CockroachDB store for partitions and rank reports. Rows are
   scoped by a run ID so several runs can share a database.
*/
package cdb

import (
	"context"
	"database/sql"

	"github.com/Ahmed-Sermani/citerank/citation"
	"github.com/Ahmed-Sermani/citerank/partition"
	"github.com/Ahmed-Sermani/citerank/ranker"
	"github.com/Ahmed-Sermani/citerank/report"
	"github.com/Ahmed-Sermani/citerank/store"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"golang.org/x/xerrors"
)

const (
	schemaQuery = `
  CREATE TABLE IF NOT EXISTS partitions (
    run_id UUID NOT NULL,
    year INT NOT NULL,
    mode TEXT NOT NULL,
    edges INT NOT NULL,
    PRIMARY KEY (run_id, year, mode)
  );
  CREATE TABLE IF NOT EXISTS partition_edges (
    run_id UUID NOT NULL,
    year INT NOT NULL,
    mode TEXT NOT NULL,
    seq INT NOT NULL,
    citing TEXT NOT NULL,
    cited TEXT NOT NULL,
    PRIMARY KEY (run_id, year, mode, seq)
  );
  CREATE TABLE IF NOT EXISTS partition_ranks (
    run_id UUID NOT NULL,
    year INT NOT NULL,
    mode TEXT NOT NULL,
    position INT NOT NULL,
    paper_id TEXT NOT NULL,
    score DOUBLE PRECISION NOT NULL,
    converged BOOL NOT NULL,
    PRIMARY KEY (run_id, year, mode, position)
  );
  `
	deletePartitionQuery = `
  DELETE FROM partitions WHERE run_id=$1 AND year=$2 AND mode=$3
  `
	deleteEdgesQuery = `
  DELETE FROM partition_edges WHERE run_id=$1 AND year=$2 AND mode=$3
  `
	insertPartitionQuery = `
  INSERT INTO partitions (run_id, year, mode, edges) VALUES ($1, $2, $3, $4)
  `
	partitionExistsQuery = `
  SELECT edges FROM partitions WHERE run_id=$1 AND year=$2 AND mode=$3
  `
	partitionEdgesQuery = `
  SELECT citing, cited FROM partition_edges WHERE run_id=$1 AND year=$2 AND mode=$3 ORDER BY seq
  `
	keysQuery = `
  SELECT year, mode FROM partitions WHERE run_id=$1
  `
	deleteRanksQuery = `
  DELETE FROM partition_ranks WHERE run_id=$1
  `
	topQuery = `
  SELECT paper_id, score FROM partition_ranks WHERE run_id=$1 AND year=$2 AND mode=$3 ORDER BY position
  `
)

var (
	_ store.Store = (*Store)(nil)
	_ report.Sink = (*Store)(nil)
)

// Store persists partitions and reports of a single run.
type Store struct {
	db    *sql.DB
	runID uuid.UUID
}

// NewStore connects to the database at dsn, creates the schema if needed
// and scopes all rows to runID. A nil runID selects a new random one.
func NewStore(dsn string, runID uuid.UUID) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if runID == uuid.Nil {
		runID = uuid.New()
	}

	s := &Store{db: db, runID: runID}
	if err = s.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaQuery); err != nil {
		return xerrors.Errorf("ensure schema: %w", err)
	}
	return nil
}

// RunID returns the run the store writes to.
func (s *Store) RunID() uuid.UUID { return s.runID }

func (s *Store) Close() error {
	return s.db.Close()
}

// WritePartition replaces the stored edges of p.Key within one transaction.
// Edges are bulk loaded with COPY.
func (s *Store) WritePartition(ctx context.Context, p partition.Partition) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return xerrors.Errorf("write partition %s: %w", p.Key, err)
	}
	if err = s.writePartition(ctx, tx, p); err != nil {
		_ = tx.Rollback()
		return xerrors.Errorf("write partition %s: %w", p.Key, err)
	}
	if err = tx.Commit(); err != nil {
		return xerrors.Errorf("write partition %s: %w", p.Key, err)
	}
	return nil
}

func (s *Store) writePartition(ctx context.Context, tx *sql.Tx, p partition.Partition) error {
	mode := p.Mode.String()
	if _, err := tx.ExecContext(ctx, deleteEdgesQuery, s.runID, p.Year, mode); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, deletePartitionQuery, s.runID, p.Year, mode); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, insertPartitionQuery, s.runID, p.Year, mode, len(p.Edges)); err != nil {
		return err
	}
	if len(p.Edges) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("partition_edges", "run_id", "year", "mode", "seq", "citing", "cited"))
	if err != nil {
		return err
	}
	for seq, e := range p.Edges {
		if _, err = stmt.ExecContext(ctx, s.runID.String(), p.Year, mode, seq, e.Src, e.Dst); err != nil {
			_ = stmt.Close()
			return err
		}
	}
	// An Exec without arguments flushes the buffered COPY data.
	if _, err = stmt.ExecContext(ctx); err != nil {
		_ = stmt.Close()
		return err
	}
	return stmt.Close()
}

func (s *Store) Partition(ctx context.Context, key partition.Key) ([]citation.Edge, error) {
	var count int
	row := s.db.QueryRowContext(ctx, partitionExistsQuery, s.runID, key.Year, key.Mode.String())
	if err := row.Scan(&count); err != nil {
		if xerrors.Is(err, sql.ErrNoRows) {
			return nil, xerrors.Errorf("partition %s: %w", key, store.ErrNotFound)
		}
		return nil, xerrors.Errorf("partition %s: %w", key, err)
	}

	rows, err := s.db.QueryContext(ctx, partitionEdgesQuery, s.runID, key.Year, key.Mode.String())
	if err != nil {
		return nil, xerrors.Errorf("partition %s: %w", key, err)
	}
	defer func() { _ = rows.Close() }()

	edges := make([]citation.Edge, 0, count)
	for rows.Next() {
		var e citation.Edge
		if err = rows.Scan(&e.Src, &e.Dst); err != nil {
			return nil, xerrors.Errorf("partition %s: %w", key, err)
		}
		edges = append(edges, e)
	}
	if err = rows.Err(); err != nil {
		return nil, xerrors.Errorf("partition %s: %w", key, err)
	}
	return edges, nil
}

func (s *Store) Keys(ctx context.Context) ([]partition.Key, error) {
	rows, err := s.db.QueryContext(ctx, keysQuery, s.runID)
	if err != nil {
		return nil, xerrors.Errorf("keys: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var keys []partition.Key
	for rows.Next() {
		var (
			year int
			mode string
		)
		if err = rows.Scan(&year, &mode); err != nil {
			return nil, xerrors.Errorf("keys: %w", err)
		}
		m, err := partition.ParseMode(mode)
		if err != nil {
			return nil, xerrors.Errorf("keys: %w", err)
		}
		keys = append(keys, partition.Key{Year: year, Mode: m})
	}
	if err = rows.Err(); err != nil {
		return nil, xerrors.Errorf("keys: %w", err)
	}
	store.SortKeys(keys)
	return keys, nil
}

// WriteReport stores the ranked rows of r under the store's run,
// replacing any previous report of that run.
func (s *Store) WriteReport(ctx context.Context, r *report.Report) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return xerrors.Errorf("write report: %w", err)
	}
	if err = s.writeRanks(ctx, tx, r); err != nil {
		_ = tx.Rollback()
		return xerrors.Errorf("write report: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return xerrors.Errorf("write report: %w", err)
	}
	return nil
}

func (s *Store) writeRanks(ctx context.Context, tx *sql.Tx, r *report.Report) error {
	if _, err := tx.ExecContext(ctx, deleteRanksQuery, s.runID); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("partition_ranks", "run_id", "year", "mode", "position", "paper_id", "score", "converged"))
	if err != nil {
		return err
	}
	for _, e := range r.Partitions {
		for i, top := range e.Top {
			if _, err = stmt.ExecContext(ctx, s.runID.String(), e.Year, e.Mode, i+1, top.ID, top.Score, e.Converged); err != nil {
				_ = stmt.Close()
				return err
			}
		}
	}
	if _, err = stmt.ExecContext(ctx); err != nil {
		_ = stmt.Close()
		return err
	}
	return stmt.Close()
}

// Top returns the stored ranking of a partition, best first.
func (s *Store) Top(ctx context.Context, key partition.Key) ([]ranker.Scored, error) {
	rows, err := s.db.QueryContext(ctx, topQuery, s.runID, key.Year, key.Mode.String())
	if err != nil {
		return nil, xerrors.Errorf("top %s: %w", key, err)
	}
	defer func() { _ = rows.Close() }()

	var top []ranker.Scored
	for rows.Next() {
		var sc ranker.Scored
		if err = rows.Scan(&sc.ID, &sc.Score); err != nil {
			return nil, xerrors.Errorf("top %s: %w", key, err)
		}
		top = append(top, sc)
	}
	if err = rows.Err(); err != nil {
		return nil, xerrors.Errorf("top %s: %w", key, err)
	}
	return top, nil
}
