package citation

import (
	"sort"
	"time"

	"golang.org/x/xerrors"
)

// DateLayout is the calendar format used by the timestamp source.
const DateLayout = "2006-01-02"

// Index maps every paper to its publication date and groups the papers by
// publication year. Both views are filled in the same pass.
type Index struct {
	dates  map[string]time.Time
	byYear map[int][]string
}

// BuildIndex consumes src and returns the temporal index for the listed
// papers. Any line that cannot be parsed aborts the build with an error
// wrapping ErrMalformedRecord.
func BuildIndex(src RecordSource) (*Index, error) {
	idx := &Index{
		dates:  make(map[string]time.Time),
		byYear: make(map[int][]string),
	}

	for src.Next() {
		tokens := fields(src.Record())
		if tokens == nil {
			continue
		}
		if len(tokens) != 2 {
			return nil, malformed(src, "expected <id> <date>")
		}

		date, err := time.Parse(DateLayout, tokens[1])
		if err != nil {
			return nil, malformed(src, "bad date "+tokens[1])
		}

		id, err := NormalizeID(tokens[0], date)
		if err != nil {
			return nil, xerrors.Errorf("line %d: %w", src.LineNumber(), err)
		}

		idx.dates[id] = date
		idx.byYear[date.Year()] = append(idx.byYear[date.Year()], id)
	}

	if err := src.Error(); err != nil {
		return nil, xerrors.Errorf("read timestamps: %w", err)
	}
	return idx, nil
}

// Date returns the publication date of id.
func (idx *Index) Date(id string) (time.Time, bool) {
	d, ok := idx.dates[id]
	return d, ok
}

// Entities returns the papers dated in year in the order they were listed.
// A paper listed more than once appears once per listing.
func (idx *Index) Entities(year int) []string {
	return idx.byYear[year]
}

// Len returns the number of distinct papers in the index.
func (idx *Index) Len() int { return len(idx.dates) }

// Years returns the years that have at least one paper, in ascending order.
func (idx *Index) Years() []int {
	years := make([]int, 0, len(idx.byYear))
	for y := range idx.byYear {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}
