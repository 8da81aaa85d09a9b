package thirteenf

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Form types relevant to this module. Every other form type in a company's
// history is ignored.
const (
	Form13F          = "13F-HR"
	Form13FAmendment = "13F-HR/A"
)

// Submissions is the complete SEC submissions payload for a CIK.
type Submissions struct {
	CIK     string      `json:"cik"`
	Name    string      `json:"name"`
	Filings FilingsData `json:"filings"`
}

// FilingsData contains the recent filing history.
type FilingsData struct {
	Recent FilingArrays `json:"recent"`
}

// FilingArrays holds the submission history as parallel arrays; each index
// across the arrays describes one filing.
type FilingArrays struct {
	AccessionNumber []string `json:"accessionNumber"`
	FilingDate      []string `json:"filingDate"`
	Form            []string `json:"form"`
	PrimaryDocument []string `json:"primaryDocument"`
}

// Filing is one disclosure event, reconstructed from the parallel arrays.
type Filing struct {
	CIK             string
	AccessionNumber string
	FilingDate      string // YYYY-MM-DD
	Form            string
	PrimaryDocument string
}

// Filings reconstructs the parallel arrays into Filing values, index by
// index. Indices beyond the shortest array are discarded so a truncated
// payload can never mis-align fields across filings.
func (fa *FilingArrays) Filings(cik string) []Filing {
	count := len(fa.AccessionNumber)
	for _, n := range []int{len(fa.FilingDate), len(fa.Form), len(fa.PrimaryDocument)} {
		if n < count {
			count = n
		}
	}

	filings := make([]Filing, count)
	for i := 0; i < count; i++ {
		filings[i] = Filing{
			CIK:             cik,
			AccessionNumber: fa.AccessionNumber[i],
			FilingDate:      fa.FilingDate[i],
			Form:            fa.Form[i],
			PrimaryDocument: fa.PrimaryDocument[i],
		}
	}
	return filings
}

// RecentFilings returns the reconstructed filing history.
func (s *Submissions) RecentFilings() []Filing {
	return s.Filings.Recent.Filings(s.CIK)
}

// Is13F reports whether f is a 13F holdings report or its amendment.
func (f *Filing) Is13F() bool {
	return f.Form == Form13F || f.Form == Form13FAmendment
}

func (f *Filing) archivePath() string {
	// https://www.sec.gov/Archives/edgar/data/{CIK}/{ACCESSION}/...
	// CIK loses its leading zeros and the accession its hyphens.
	return fmt.Sprintf("/Archives/edgar/data/%s/%s",
		strings.TrimLeft(f.CIK, "0"),
		strings.ReplaceAll(f.AccessionNumber, "-", ""))
}

// DocumentURL returns the URL of the full submission text file. The
// holdings table is embedded in this document, which makes it the
// authoritative source for parsing.
func (f *Filing) DocumentURL(baseURL string) string {
	return fmt.Sprintf("%s%s/%s.txt", baseURL, f.archivePath(), f.AccessionNumber)
}

// InformationTableURL returns the URL of the standalone information table.
// Not every filing exposes one; it is derived for diagnostics only.
func (f *Filing) InformationTableURL(baseURL string) string {
	return fmt.Sprintf("%s%s/informationtable.xml", baseURL, f.archivePath())
}

// ParseSubmissions parses a submissions JSON payload from a reader.
func ParseSubmissions(r io.Reader) (*Submissions, error) {
	var subs Submissions
	if err := json.NewDecoder(r).Decode(&subs); err != nil {
		return nil, fmt.Errorf("failed to parse submissions JSON: %w", err)
	}
	return &subs, nil
}

// GetSubmissions fetches and parses the submissions JSON for a CIK.
func (c *Client) GetSubmissions(ctx context.Context, cik string) (*Submissions, error) {
	url := fmt.Sprintf("%s/submissions/CIK%s.json", c.dataURL, NormalizeCIK(cik))
	body, err := c.Fetch(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch submissions for CIK %s: %w", cik, err)
	}

	var subs Submissions
	if err := json.Unmarshal(body, &subs); err != nil {
		return nil, fmt.Errorf("failed to parse submissions JSON: %w", err)
	}
	return &subs, nil
}

// GetFilingDocument fetches the full submission text for a filing.
func (c *Client) GetFilingDocument(ctx context.Context, f *Filing) ([]byte, error) {
	body, err := c.Fetch(ctx, "GET", f.DocumentURL(c.baseURL), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch document %s: %w", f.AccessionNumber, err)
	}
	return body, nil
}
