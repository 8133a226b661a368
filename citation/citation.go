/*
   Turns the raw paper timestamp and citation listings into a temporal
   index and a set of admissible citation edges.
*/
package citation

import (
	"strings"

	"golang.org/x/xerrors"
)

// ErrMalformedRecord is returned when a source line cannot be parsed. It is
// fatal for the source being ingested.
var ErrMalformedRecord = xerrors.New("malformed record")

// CommentMarker starts a line that is ignored by the ingestion code.
const CommentMarker = "#"

// RecordSource is implemented by types that yield the raw lines of a
// timestamp or citation listing.
type RecordSource interface {
	// Next advances the source. It returns false when the source is
	// exhausted or an error occurred.
	Next() bool

	// Record returns the current raw line.
	Record() string

	// LineNumber returns the 1-based position of the current line.
	LineNumber() int

	// Error returns the last error observed by the source.
	Error() error
}

// Edge is a directed citation from Src (the citing paper) to Dst (the cited
// paper). Both ends are canonical identifiers.
type Edge struct {
	Src string
	Dst string
}

// fields returns the whitespace separated fields of a raw line or nil when
// the line is blank or a comment.
func fields(line string) []string {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, CommentMarker) {
		return nil
	}
	return strings.Fields(line)
}

func malformed(src RecordSource, reason string) error {
	return xerrors.Errorf("line %d: %s: %w", src.LineNumber(), reason, ErrMalformedRecord)
}
