// Package storetest holds the conformance suite shared by every store
// implementation.
package storetest

import (
	"context"

	"github.com/Ahmed-Sermani/citerank/citation"
	"github.com/Ahmed-Sermani/citerank/partition"
	"github.com/Ahmed-Sermani/citerank/store"
	"golang.org/x/xerrors"
	gc "gopkg.in/check.v1"
)

// SuiteBase defines a re-usable set of store tests. Embedding suites must
// call SetStore before each test with an empty store.
type SuiteBase struct {
	s store.Store
}

// SetStore configures the store under test.
func (s *SuiteBase) SetStore(st store.Store) {
	s.s = st
}

func (s *SuiteBase) TestWriteAndReadPartition(c *gc.C) {
	p := partition.Partition{
		Key: partition.Key{Year: 1994, Mode: partition.Cumulative},
		Edges: []citation.Edge{
			{Src: "0000003", Dst: "0000001"},
			{Src: "0000003", Dst: "0000001"},
			{Src: "0000002", Dst: "0000002"},
			{Src: "0000001", Dst: "0000009"},
		},
	}
	c.Assert(s.s.WritePartition(context.TODO(), p), gc.IsNil)

	got, err := s.s.Partition(context.TODO(), p.Key)
	c.Assert(err, gc.IsNil)
	c.Assert(got, gc.DeepEquals, p.Edges)
}

func (s *SuiteBase) TestRewriteReplacesPartition(c *gc.C) {
	key := partition.Key{Year: 1995, Mode: partition.Incremental}
	c.Assert(s.s.WritePartition(context.TODO(), partition.Partition{
		Key:   key,
		Edges: []citation.Edge{{Src: "0000001", Dst: "0000002"}, {Src: "0000003", Dst: "0000004"}},
	}), gc.IsNil)

	replacement := []citation.Edge{{Src: "0000005", Dst: "0000006"}}
	c.Assert(s.s.WritePartition(context.TODO(), partition.Partition{Key: key, Edges: replacement}), gc.IsNil)

	got, err := s.s.Partition(context.TODO(), key)
	c.Assert(err, gc.IsNil)
	c.Assert(got, gc.DeepEquals, replacement)
}

func (s *SuiteBase) TestEmptyPartition(c *gc.C) {
	key := partition.Key{Year: 1992, Mode: partition.Incremental}
	c.Assert(s.s.WritePartition(context.TODO(), partition.Partition{Key: key}), gc.IsNil)

	got, err := s.s.Partition(context.TODO(), key)
	c.Assert(err, gc.IsNil)
	c.Assert(got, gc.HasLen, 0)

	keys, err := s.s.Keys(context.TODO())
	c.Assert(err, gc.IsNil)
	c.Assert(keys, gc.DeepEquals, []partition.Key{key})
}

func (s *SuiteBase) TestUnknownPartition(c *gc.C) {
	_, err := s.s.Partition(context.TODO(), partition.Key{Year: 2042})
	c.Assert(xerrors.Is(err, store.ErrNotFound), gc.Equals, true, gc.Commentf("got %v", err))
}

func (s *SuiteBase) TestKeysAreOrdered(c *gc.C) {
	written := []partition.Key{
		{Year: 2001, Mode: partition.Incremental},
		{Year: 1999, Mode: partition.Cumulative},
		{Year: 2001, Mode: partition.Cumulative},
		{Year: 1999, Mode: partition.Incremental},
	}
	for _, k := range written {
		c.Assert(s.s.WritePartition(context.TODO(), partition.Partition{
			Key:   k,
			Edges: []citation.Edge{{Src: "0000001", Dst: "0000002"}},
		}), gc.IsNil)
	}

	keys, err := s.s.Keys(context.TODO())
	c.Assert(err, gc.IsNil)
	c.Assert(keys, gc.DeepEquals, []partition.Key{
		{Year: 1999, Mode: partition.Cumulative},
		{Year: 1999, Mode: partition.Incremental},
		{Year: 2001, Mode: partition.Cumulative},
		{Year: 2001, Mode: partition.Incremental},
	})
}
