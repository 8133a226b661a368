package citation

import "golang.org/x/xerrors"

// FilterStats counts what happened to the raw citation records. Dropped
// edges are expected noise and are only reported through these counters.
type FilterStats struct {
	Total              int
	Admitted           int
	UnknownEndpoint    int
	TemporallyInverted int
}

// Dropped returns the number of citations that were not admitted.
func (s FilterStats) Dropped() int { return s.UnknownEndpoint + s.TemporallyInverted }

// Citations holds the admissible out-edges of every citing paper in the
// order they appear in the citation source.
type Citations struct {
	out   map[string][]string
	Stats FilterStats
}

// Out returns the papers cited by id.
func (c *Citations) Out(id string) []string { return c.out[id] }

// FilterEdges reads raw citation lines from src and keeps only those whose
// endpoints are both present in idx and where the citing paper is not older
// than the cited one.
func FilterEdges(src RecordSource, idx *Index) (*Citations, error) {
	cites := &Citations{out: make(map[string][]string)}

	for src.Next() {
		tokens := fields(src.Record())
		if tokens == nil {
			continue
		}
		if len(tokens) != 2 {
			return nil, malformed(src, "expected <citing> <cited>")
		}
		cites.Stats.Total++

		e := Edge{Src: PadID(tokens[0]), Dst: PadID(tokens[1])}
		if !Admissible(e, idx, &cites.Stats) {
			continue
		}
		cites.out[e.Src] = append(cites.out[e.Src], e.Dst)
		cites.Stats.Admitted++
	}

	if err := src.Error(); err != nil {
		return nil, xerrors.Errorf("read citations: %w", err)
	}
	return cites, nil
}

// Admissible reports whether e may enter the citation graph. When stats is
// not nil the reason for rejecting e is counted.
func Admissible(e Edge, idx *Index, stats *FilterStats) bool {
	srcDate, srcOK := idx.Date(e.Src)
	dstDate, dstOK := idx.Date(e.Dst)
	if !srcOK || !dstOK {
		if stats != nil {
			stats.UnknownEndpoint++
		}
		return false
	}

	// A paper cannot cite one published after it.
	if srcDate.Before(dstDate) {
		if stats != nil {
			stats.TemporallyInverted++
		}
		return false
	}
	return true
}
