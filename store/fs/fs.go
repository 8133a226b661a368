/*
   Filesystem partition store. Partitions are written as text files, one
   "<citing> <cited>" pair per line:

	<root>/batch/<year>-edges.txt        cumulative partitions
	<root>/incremental/<year>-edges.txt  incremental partitions
*/
package fs

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Ahmed-Sermani/citerank/citation"
	"github.com/Ahmed-Sermani/citerank/partition"
	"github.com/Ahmed-Sermani/citerank/source"
	"github.com/Ahmed-Sermani/citerank/store"
	"github.com/spf13/afero"
	"golang.org/x/xerrors"
)

const fileExt = ".txt"

var _ store.Store = (*Store)(nil)

// Store writes partitions below a root directory of an afero.Fs.
type Store struct {
	fs   afero.Fs
	root string
}

// NewStore returns a store rooted at root. The mode directories are
// recreated, so partitions of a previous run never linger.
func NewStore(fs afero.Fs, root string) (*Store, error) {
	for _, mode := range partition.Modes {
		dir := filepath.Join(root, mode.Dir())
		if err := fs.RemoveAll(dir); err != nil {
			return nil, xerrors.Errorf("reset %s: %w", dir, err)
		}
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return nil, xerrors.Errorf("create %s: %w", dir, err)
		}
	}
	return OpenStore(fs, root), nil
}

// OpenStore returns a store over the partitions already written below
// root.
func OpenStore(fs afero.Fs, root string) *Store {
	return &Store{fs: fs, root: root}
}

// Path returns the file a partition is written to.
func (s *Store) Path(key partition.Key) string {
	return filepath.Join(s.root, key.Mode.Dir(), key.Name()+fileExt)
}

func (s *Store) WritePartition(ctx context.Context, p partition.Partition) error {
	path := s.Path(p.Key)
	f, err := s.fs.Create(path)
	if err != nil {
		return xerrors.Errorf("write partition %s: %w", p.Key, err)
	}

	w := bufio.NewWriter(f)
	for i, e := range p.Edges {
		if i%4096 == 0 && ctx.Err() != nil {
			_ = f.Close()
			return ctx.Err()
		}
		_, _ = w.WriteString(e.Src)
		_ = w.WriteByte(' ')
		_, _ = w.WriteString(e.Dst)
		_ = w.WriteByte('\n')
	}
	if err = w.Flush(); err != nil {
		_ = f.Close()
		return xerrors.Errorf("write partition %s: %w", p.Key, err)
	}
	if err = f.Close(); err != nil {
		return xerrors.Errorf("close %s: %w", path, err)
	}
	return nil
}

func (s *Store) Partition(_ context.Context, key partition.Key) ([]citation.Edge, error) {
	src, err := source.Open(s.fs, s.Path(key))
	if err != nil {
		if xerrors.Is(err, os.ErrNotExist) {
			return nil, xerrors.Errorf("partition %s: %w", key, store.ErrNotFound)
		}
		return nil, err
	}
	defer func() { _ = src.Close() }()

	edges := []citation.Edge{}
	for src.Next() {
		tokens := strings.Fields(src.Record())
		if len(tokens) != 2 {
			return nil, xerrors.Errorf("partition %s: line %d: %w", key, src.LineNumber(), citation.ErrMalformedRecord)
		}
		edges = append(edges, citation.Edge{Src: tokens[0], Dst: tokens[1]})
	}
	if err := src.Error(); err != nil {
		return nil, xerrors.Errorf("read partition %s: %w", key, err)
	}
	return edges, nil
}

func (s *Store) Keys(_ context.Context) ([]partition.Key, error) {
	var keys []partition.Key
	for _, mode := range partition.Modes {
		infos, err := afero.ReadDir(s.fs, filepath.Join(s.root, mode.Dir()))
		if err != nil {
			return nil, xerrors.Errorf("list %s partitions: %w", mode, err)
		}
		for _, info := range infos {
			year, ok := yearOf(info.Name())
			if info.IsDir() || !ok {
				continue
			}
			keys = append(keys, partition.Key{Year: year, Mode: mode})
		}
	}
	store.SortKeys(keys)
	return keys, nil
}

// yearOf extracts the year from a "<year>-edges.txt" file name.
func yearOf(name string) (int, bool) {
	stem := strings.TrimSuffix(name, "-edges"+fileExt)
	if stem == name {
		return 0, false
	}
	year, err := strconv.Atoi(stem)
	return year, err == nil
}
