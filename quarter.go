package thirteenf

import (
	"fmt"
	"strconv"
	"time"
)

// Quarter identifies a 13F reporting period as a (year, quarter number) pair.
type Quarter struct {
	Year int
	Num  int // 1-4
}

// ParseQuarter parses a quarter string like "2024Q4".
// The string must be exactly 6 characters with a quarter digit of 1-4 and a
// year between 2000 and 2030; anything else is a validation error.
func ParseQuarter(s string) (Quarter, error) {
	if len(s) != 6 || s[4] != 'Q' {
		return Quarter{}, fmt.Errorf("quarter must be in format YYYYQn (e.g. 2024Q4), got %q", s)
	}

	year, err := strconv.Atoi(s[:4])
	if err != nil {
		return Quarter{}, fmt.Errorf("invalid year in quarter %q: %w", s, err)
	}
	num, err := strconv.Atoi(s[5:])
	if err != nil {
		return Quarter{}, fmt.Errorf("invalid quarter number in %q: %w", s, err)
	}

	if num < 1 || num > 4 {
		return Quarter{}, fmt.Errorf("quarter number must be 1-4, got %d", num)
	}
	if year < 2000 || year > 2030 {
		return Quarter{}, fmt.Errorf("year must be between 2000 and 2030, got %d", year)
	}

	return Quarter{Year: year, Num: num}, nil
}

// String formats the quarter as "YYYYQn", the inverse of ParseQuarter.
func (q Quarter) String() string {
	return fmt.Sprintf("%dQ%d", q.Year, q.Num)
}

// IsZero reports whether q is the zero Quarter.
func (q Quarter) IsZero() bool {
	return q.Year == 0 && q.Num == 0
}

// Before reports whether q is strictly earlier than other.
func (q Quarter) Before(other Quarter) bool {
	if q.Year != other.Year {
		return q.Year < other.Year
	}
	return q.Num < other.Num
}

// FilingQuarter maps a filing date to the fiscal quarter the filing reports
// on. 13F filings are due after the quarter ends, so a filing dated in
// January-March covers Q4 of the preceding year, April-June covers Q1, and
// so on. This deliberately does not follow the plain calendar-quarter
// mapping.
func FilingQuarter(t time.Time) Quarter {
	year := t.Year()
	switch {
	case t.Month() <= 3:
		return Quarter{Year: year - 1, Num: 4}
	case t.Month() <= 6:
		return Quarter{Year: year, Num: 1}
	case t.Month() <= 9:
		return Quarter{Year: year, Num: 2}
	default:
		return Quarter{Year: year, Num: 3}
	}
}

// LatestQuarter returns the most recent quarter for which 13F filings are
// likely to be available as of now. Filings lag the reporting period, so
// this steps back one quarter from the period the current date falls into.
func LatestQuarter(now time.Time) Quarter {
	q := FilingQuarter(now)
	if q.Num == 1 {
		return Quarter{Year: q.Year - 1, Num: 4}
	}
	return Quarter{Year: q.Year, Num: q.Num - 1}
}
