/*
   Splits the admissible citation graph into per-year partitions. For every
   year of the configured range two edge lists are produced: the cumulative
   one (all citations made up to and including that year) and the
   incremental one (citations made by papers published in that year).
*/
package partition

import (
	"context"
	"fmt"

	"github.com/Ahmed-Sermani/citerank/citation"
	"golang.org/x/xerrors"
)

const (
	// DefaultYearLo is the first year of the default partition range.
	DefaultYearLo = 1992
	// DefaultYearHi is the last year of the default partition range.
	DefaultYearHi = 2002
)

// Mode selects which edge list of a year a partition holds.
type Mode int

const (
	// Cumulative partitions hold every edge up to and including the year.
	Cumulative Mode = iota
	// Incremental partitions hold the edges of the year alone.
	Incremental
)

func (m Mode) String() string {
	switch m {
	case Cumulative:
		return "cumulative"
	case Incremental:
		return "incremental"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode maps a mode name, as returned by String or Dir, to its Mode.
func ParseMode(name string) (Mode, error) {
	switch name {
	case "cumulative", "batch":
		return Cumulative, nil
	case "incremental":
		return Incremental, nil
	}
	return 0, xerrors.Errorf("unknown partition mode %q", name)
}

// Dir returns the directory name used when a partition of this mode is
// exported.
func (m Mode) Dir() string {
	if m == Cumulative {
		return "batch"
	}
	return "incremental"
}

// Modes lists the modes in the order partitions are emitted for each year.
var Modes = []Mode{Cumulative, Incremental}

// Key names a partition.
type Key struct {
	Year int
	Mode Mode
}

// Name returns the artifact name of the partition inside its mode directory.
func (k Key) Name() string { return fmt.Sprintf("%d-edges", k.Year) }

func (k Key) String() string { return fmt.Sprintf("%d/%s", k.Year, k.Mode) }

// Less orders keys by year and then by mode.
func (k Key) Less(other Key) bool {
	if k.Year != other.Year {
		return k.Year < other.Year
	}
	return k.Mode < other.Mode
}

// Partition is a named, ordered list of admissible edges. Partitions share
// their backing arrays and must be treated as read-only.
type Partition struct {
	Key
	Edges []citation.Edge
}

// Sink is implemented by types that persist partitions.
type Sink interface {
	WritePartition(ctx context.Context, p Partition) error
}

// YearRange is the closed interval of years [Lo, Hi] to partition.
type YearRange struct {
	Lo int
	Hi int
}

// DefaultYearRange returns the 1992-2002 range.
func DefaultYearRange() YearRange {
	return YearRange{Lo: DefaultYearLo, Hi: DefaultYearHi}
}

// NewYearRange returns the range [lo, hi].
func NewYearRange(lo, hi int) (YearRange, error) {
	r := YearRange{Lo: lo, Hi: hi}
	if err := r.validate(); err != nil {
		return YearRange{}, err
	}
	return r, nil
}

func (r YearRange) validate() error {
	if r.Lo > r.Hi {
		return xerrors.Errorf("year range start %d must not be after its end %d", r.Lo, r.Hi)
	}
	return nil
}

// Len returns the number of years in the range.
func (r YearRange) Len() int { return r.Hi - r.Lo + 1 }

// Contains reports whether year lies inside the range.
func (r YearRange) Contains(year int) bool { return year >= r.Lo && year <= r.Hi }

// Years returns every year of the range in ascending order.
func (r YearRange) Years() []int {
	years := make([]int, 0, r.Len())
	for y := r.Lo; y <= r.Hi; y++ {
		years = append(years, y)
	}
	return years
}
