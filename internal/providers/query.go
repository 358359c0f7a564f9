package providers

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the MM/DD/YY format every caller uses. Single-digit months and
// days are accepted as well.
const DateLayout = "1/2/06"

// Query is one availability question: a stay [Start, End) and a party.
type Query struct {
	Start  time.Time
	End    time.Time
	Adults int
	Kids   int
}

var (
	ErrInvalidDate  = errors.New("invalid date")
	ErrInvalidRange = errors.New("end date must be after start date")
	ErrInvalidParty = errors.New("party counts must not be negative")
)

// ParseDate parses an MM/DD/YY date to UTC midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q: expected MM/DD/YY", ErrInvalidDate, s)
	}
	return t.UTC(), nil
}

// ParseQuery validates raw request values into a Query.
func ParseQuery(start, end string, adults, kids int) (Query, error) {
	s, err := ParseDate(start)
	if err != nil {
		return Query{}, err
	}
	e, err := ParseDate(end)
	if err != nil {
		return Query{}, err
	}
	return NewQuery(s, e, adults, kids)
}

// NewQuery validates an already parsed stay.
func NewQuery(start, end time.Time, adults, kids int) (Query, error) {
	start = normalizeDay(start)
	end = normalizeDay(end)
	if !end.After(start) {
		return Query{}, ErrInvalidRange
	}
	if adults < 0 || kids < 0 {
		return Query{}, ErrInvalidParty
	}
	return Query{Start: start, End: end, Adults: adults, Kids: kids}, nil
}

// PartySize is adults plus kids.
func (q Query) PartySize() int { return q.Adults + q.Kids }

// Nights is the number of nights in the stay.
func (q Query) Nights() int {
	return int(q.End.Sub(q.Start).Hours() / 24)
}

// NightDates lists each night of the stay, excluding the checkout day.
func (q Query) NightDates() []time.Time {
	var out []time.Time
	for d := q.Start; d.Before(q.End); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

// Key identifies the query for caching and logging.
func (q Query) Key() string {
	return fmt.Sprintf("%s|%s|%d|%d", q.Start.Format(time.DateOnly), q.End.Format(time.DateOnly), q.Adults, q.Kids)
}

// FormatShort renders a date the way itineraries print them (M/D/YY).
func FormatShort(t time.Time) string { return t.Format(DateLayout) }

func normalizeDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// seasonOpen returns a precondition error when the stay starts before a venue's
// opening date.
func seasonOpen(q Query, opens time.Time) error {
	if q.Start.Before(opens) {
		return &PreconditionError{Msg: "Not available before " + opens.Format("January 2, 2006")}
	}
	return nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
