package citation

import (
	"strings"
	"time"

	"golang.org/x/xerrors"
)

// IDWidth is the length of every canonical identifier.
const IDWidth = 7

const (
	crossListPrefix     = "11"
	crossList2000Prefix = "011"
)

// crossList2000Dates holds the submission dates whose identifiers carry the
// "011" cross-list prefix. It is empty, so the prefix is never stripped.
var crossList2000Dates = map[time.Time]struct{}{}

// NormalizeID converts a raw identifier from the timestamp source into its
// canonical 7 digit form. A leading "11" cross-list marker is removed before
// the identifier is left-padded with zeros.
func NormalizeID(raw string, date time.Time) (string, error) {
	id := raw
	if strings.HasPrefix(id, crossListPrefix) {
		id = id[len(crossListPrefix):]
	} else if _, inWindow := crossList2000Dates[date]; inWindow && strings.HasPrefix(id, crossList2000Prefix) {
		id = id[len(crossList2000Prefix):]
	}

	id = PadID(id)
	if !IsCanonical(id) {
		return "", xerrors.Errorf("identifier %q: %w", raw, ErrMalformedRecord)
	}
	return id, nil
}

// PadID left-pads raw with zeros up to IDWidth. Identifiers that are already
// IDWidth characters or longer are returned unchanged.
func PadID(raw string) string {
	if len(raw) >= IDWidth {
		return raw
	}
	return strings.Repeat("0", IDWidth-len(raw)) + raw
}

// IsCanonical reports whether id is exactly IDWidth ASCII digits.
func IsCanonical(id string) bool {
	if len(id) != IDWidth {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < '0' || id[i] > '9' {
			return false
		}
	}
	return true
}
