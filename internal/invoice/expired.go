package invoice

import (
	"fmt"
	"os"
	"strings"
)

// ExpiredSet holds the ids of invoices flagged as expired.
// It is never modified after construction.
type ExpiredSet struct {
	ids map[int64]struct{}
}

// NewExpiredSet builds a set from the given ids.
func NewExpiredSet(ids ...int64) ExpiredSet {
	set := ExpiredSet{ids: make(map[int64]struct{}, len(ids))}
	for _, id := range ids {
		set.ids[id] = struct{}{}
	}
	return set
}

// Contains reports whether id is in the set.
func (s ExpiredSet) Contains(id int64) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of distinct ids.
func (s ExpiredSet) Len() int {
	return len(s.ids)
}

// ParseExpired parses a comma-separated list of invoice ids.
//
// The whole text is trimmed before splitting and every token must be an
// integer; the first malformed token fails the parse with a *ParseError
// matching ErrMalformedExpiredID. Note that empty text yields a single empty
// token and therefore fails as well.
func ParseExpired(text string) (ExpiredSet, error) {
	tokens := strings.Split(strings.TrimSpace(text), ",")
	ids := make([]int64, 0, len(tokens))
	for i, tok := range tokens {
		id, err := parseIntString(tok)
		if err != nil {
			return ExpiredSet{}, &ParseError{Token: tok, Position: i, Err: err}
		}
		ids = append(ids, id)
	}
	return NewExpiredSet(ids...), nil
}

// LoadExpired reads and parses an expired invoice id file.
func LoadExpired(path string) (ExpiredSet, error) {
	const op = "LoadExpired"

	data, err := os.ReadFile(path)
	if err != nil {
		return ExpiredSet{}, &ExtractionError{Op: op, Err: err, Source: path}
	}

	set, err := ParseExpired(string(data))
	if err != nil {
		return ExpiredSet{}, NewExtractionError(op, err, fmt.Sprintf("parse %s", path))
	}
	return set, nil
}
