package partition

import (
	"github.com/Ahmed-Sermani/citerank/citation"
	"golang.org/x/xerrors"
)

// Set holds both partitions of every year of a YearRange. Slots are indexed
// by year - Range().Lo.
type Set struct {
	rng         YearRange
	cumulative  [][]citation.Edge
	incremental [][]citation.Edge
}

// accumulator owns the growing cumulative edge list. extend returns the next
// accumulator together with a snapshot whose capacity is capped to its
// length, so appends made by later years never show through it.
type accumulator struct {
	edges []citation.Edge
}

func (a accumulator) extend(edges []citation.Edge) (accumulator, []citation.Edge) {
	next := accumulator{edges: append(a.edges, edges...)}
	n := len(next.edges)
	return next, next.edges[:n:n]
}

// Build partitions the admissible citations by the publication year of the
// citing paper. Years are visited in ascending order; inside a year papers
// follow the index order and their edges follow the citation source order.
func Build(idx *citation.Index, cites *citation.Citations, rng YearRange) (*Set, error) {
	if err := rng.validate(); err != nil {
		return nil, xerrors.Errorf("build partitions: %w", err)
	}

	set := &Set{
		rng:         rng,
		cumulative:  make([][]citation.Edge, rng.Len()),
		incremental: make([][]citation.Edge, rng.Len()),
	}

	var acc accumulator
	for slot, year := range rng.Years() {
		inc := yearEdges(idx, cites, year)
		set.incremental[slot] = inc
		acc, set.cumulative[slot] = acc.extend(inc)
	}
	return set, nil
}

func yearEdges(idx *citation.Index, cites *citation.Citations, year int) []citation.Edge {
	var edges []citation.Edge
	for _, src := range idx.Entities(year) {
		for _, dst := range cites.Out(src) {
			edges = append(edges, citation.Edge{Src: src, Dst: dst})
		}
	}
	return edges
}

// Range returns the years covered by the set.
func (s *Set) Range() YearRange { return s.rng }

// Get returns the partition for year and mode. The second value is false
// when the year lies outside the range.
func (s *Set) Get(year int, mode Mode) (Partition, bool) {
	if !s.rng.Contains(year) {
		return Partition{}, false
	}
	slot := year - s.rng.Lo
	p := Partition{Key: Key{Year: year, Mode: mode}}
	switch mode {
	case Cumulative:
		p.Edges = s.cumulative[slot]
	case Incremental:
		p.Edges = s.incremental[slot]
	default:
		return Partition{}, false
	}
	return p, true
}

// Partitions returns every partition ordered by year, cumulative first.
func (s *Set) Partitions() []Partition {
	parts := make([]Partition, 0, 2*s.rng.Len())
	for _, year := range s.rng.Years() {
		for _, mode := range Modes {
			p, _ := s.Get(year, mode)
			parts = append(parts, p)
		}
	}
	return parts
}
