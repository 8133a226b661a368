package source_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/Ahmed-Sermani/citerank/source"
	"github.com/spf13/afero"
	gc "gopkg.in/check.v1"
)

var _ = gc.Suite(new(SourceTestSuite))

func Test(t *testing.T) {
	gc.TestingT(t)
}

type SourceTestSuite struct{}

func (s *SourceTestSuite) TestLines(c *gc.C) {
	src := source.NewLineSource(strings.NewReader("a b\n\n# note\nc d"))
	var (
		lines   []string
		numbers []int
	)
	for src.Next() {
		lines = append(lines, src.Record())
		numbers = append(numbers, src.LineNumber())
	}
	c.Assert(src.Error(), gc.IsNil)
	c.Assert(lines, gc.DeepEquals, []string{"a b", "", "# note", "c d"})
	c.Assert(numbers, gc.DeepEquals, []int{1, 2, 3, 4})
	c.Assert(src.Close(), gc.IsNil)
}

func (s *SourceTestSuite) TestOpen(c *gc.C) {
	fs := afero.NewMemMapFs()
	c.Assert(afero.WriteFile(fs, "/data/dates.txt", []byte("9201001 1992-02-01\n"), 0o644), gc.IsNil)

	src, err := source.Open(fs, "/data/dates.txt")
	c.Assert(err, gc.IsNil)
	c.Assert(src.Next(), gc.Equals, true)
	c.Assert(src.Record(), gc.Equals, "9201001 1992-02-01")
	c.Assert(src.Next(), gc.Equals, false)
	c.Assert(src.Close(), gc.IsNil)
}

func (s *SourceTestSuite) TestOpenMissingFile(c *gc.C) {
	_, err := source.Open(afero.NewMemMapFs(), "/nope.txt")
	c.Assert(err, gc.ErrorMatches, `open source "/nope.txt": .*`)
}

func (s *SourceTestSuite) TestReadError(c *gc.C) {
	src := source.NewLineSource(failingReader{})
	c.Assert(src.Next(), gc.Equals, false)
	c.Assert(src.Error(), gc.ErrorMatches, "disk on fire")
	c.Assert(src.Next(), gc.Equals, false)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }
