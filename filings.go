package thirteenf

import (
	"time"

	"go.uber.org/zap"
)

// filingQuarter maps a filing's date string to its reporting quarter.
// Returns ok=false when the date does not parse; callers skip such records
// with a warning rather than failing the run.
func filingQuarter(f *Filing) (Quarter, bool) {
	t, err := time.Parse("2006-01-02", f.FilingDate)
	if err != nil {
		return Quarter{}, false
	}
	return FilingQuarter(t), true
}

// SelectFiling picks the 13F filing that reports on the target quarter.
// Only 13F-HR and 13F-HR/A records qualify. When both an original and an
// amendment (or several) land in the same quarter, the one with the
// greatest filing date wins: the most recently filed supersedes earlier
// ones. ISO dates sort correctly as strings, so the comparison is
// lexicographic.
func SelectFiling(filings []Filing, target Quarter, log *zap.Logger) (Filing, bool) {
	if log == nil {
		log = zap.NewNop()
	}

	var best Filing
	found := false
	for _, f := range filings {
		if !f.Is13F() {
			continue
		}
		q, ok := filingQuarter(&f)
		if !ok {
			log.Warn("skipping filing with unparsable date",
				zap.String("accession", f.AccessionNumber),
				zap.String("filingDate", f.FilingDate))
			continue
		}
		if q != target {
			continue
		}
		if !found || f.FilingDate > best.FilingDate {
			best = f
			found = true
		}
	}
	return best, found
}

// FirstTimeFiler scans the entire history for 13F records reporting on a
// quarter strictly earlier than target. It returns (true, zero Quarter)
// when none exist, which also covers an empty or malformed submission
// payload; missing data deliberately classifies as first-time rather than
// as an error. Otherwise it returns false and the earliest prior quarter.
func FirstTimeFiler(filings []Filing, target Quarter, log *zap.Logger) (bool, Quarter) {
	if log == nil {
		log = zap.NewNop()
	}

	var earliest Quarter
	found := false
	for _, f := range filings {
		if !f.Is13F() {
			continue
		}
		q, ok := filingQuarter(&f)
		if !ok {
			log.Warn("skipping filing with unparsable date",
				zap.String("accession", f.AccessionNumber),
				zap.String("filingDate", f.FilingDate))
			continue
		}
		if !q.Before(target) {
			continue
		}
		if !found || q.Before(earliest) {
			earliest = q
			found = true
		}
	}

	if !found {
		return true, Quarter{}
	}
	return false, earliest
}
