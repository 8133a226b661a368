/*
   Line oriented record sources for the timestamp and citation listings.
*/
package source

import (
	"bufio"
	"io"

	"github.com/Ahmed-Sermani/citerank/citation"
	"github.com/spf13/afero"
	"golang.org/x/xerrors"
)

var _ citation.RecordSource = (*LineSource)(nil)

// LineSource yields the lines of an io.Reader one at a time.
type LineSource struct {
	scanner *bufio.Scanner
	closer  io.Closer

	line    string
	lineNum int
	err     error
}

// NewLineSource returns a LineSource that reads from r.
func NewLineSource(r io.Reader) *LineSource {
	return &LineSource{scanner: bufio.NewScanner(r)}
}

// Open returns a LineSource for the file at path on fs. Callers must Close
// the returned source.
func Open(fs afero.Fs, path string) (*LineSource, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, xerrors.Errorf("open source %q: %w", path, err)
	}
	src := NewLineSource(f)
	src.closer = f
	return src, nil
}

func (s *LineSource) Next() bool {
	if s.err != nil || !s.scanner.Scan() {
		if s.err == nil {
			s.err = s.scanner.Err()
		}
		return false
	}
	s.line = s.scanner.Text()
	s.lineNum++
	return true
}

func (s *LineSource) Record() string  { return s.line }
func (s *LineSource) LineNumber() int { return s.lineNum }
func (s *LineSource) Error() error    { return s.err }

// Close releases the underlying file, if any.
func (s *LineSource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
