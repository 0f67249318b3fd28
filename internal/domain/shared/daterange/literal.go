package daterange

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ErrBadLiteral reports a persisted range value that cannot be decoded.
var ErrBadLiteral = errors.New("daterange: malformed range literal")

// literalPattern matches both forms the store emits: quoted timestamp pairs
// ["<iso>","<iso>") and unquoted plain-date pairs [2024-06-10,2024-06-15).
var literalPattern = regexp.MustCompile(`^\["?([^",]+)"?,[ "]*"?([^")]+)"?\)$`)

// Literal encodes the range as an inclusive-exclusive range literal,
// the same form the relational range column produces.
func (dr DateRange) Literal() string {
	return fmt.Sprintf("[%s,%s)", dr.CheckIn.UTC().Format(time.RFC3339), dr.CheckOut.UTC().Format(time.RFC3339))
}

// ParseLiteral decodes a stored range literal back into a DateRange.
// Malformed input, including structurally valid literals whose bounds are
// not real calendar instants, yields ErrBadLiteral. It never panics.
func ParseLiteral(raw string) (DateRange, error) {
	matches := literalPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if len(matches) < 3 {
		return DateRange{}, fmt.Errorf("%w: %q", ErrBadLiteral, raw)
	}
	checkIn, err := parseInstant(matches[1])
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: start of %q: %v", ErrBadLiteral, raw, err)
	}
	checkOut, err := parseInstant(matches[2])
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: end of %q: %v", ErrBadLiteral, raw, err)
	}
	return DateRange{CheckIn: checkIn.UTC(), CheckOut: checkOut.UTC()}, nil
}

func parseInstant(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05-07:00",
		"2006-01-02 15:04:05-07",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized instant %q", value)
}
