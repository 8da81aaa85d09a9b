package thirteenf

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// FilingMetadata is the descriptive metadata of one filing, extracted from
// an archive URL or from the filing's index file.
type FilingMetadata struct {
	CIK             string
	AccessionNumber string
	CompanyName     string
	FormType        string
	FilingDate      string
}

var archiveURLPattern = regexp.MustCompile(`/edgar/data/(\d+)/(\d+)/`)

// ExtractMetadataFromURL parses an EDGAR archive URL into CIK and
// accession number, e.g.
// https://www.sec.gov/Archives/edgar/data/1067983/000095012324011775/0000950123-24-011775.txt
func ExtractMetadataFromURL(rawURL string) (*FilingMetadata, error) {
	matches := archiveURLPattern.FindStringSubmatch(rawURL)
	if len(matches) < 3 {
		return nil, fmt.Errorf("not an EDGAR archive URL: %s", rawURL)
	}

	accession := matches[2]
	if len(accession) == 18 {
		// Restore the canonical XXXXXXXXXX-XX-XXXXXX form.
		accession = accession[:10] + "-" + accession[10:12] + "-" + accession[12:]
	}

	return &FilingMetadata{
		CIK:             NormalizeCIK(matches[1]),
		AccessionNumber: accession,
	}, nil
}

// GetFilingMetadata fetches and parses a filing's index file. The index is
// pipe-delimited; the first well-formed data line carries the form type,
// company name, CIK and filing date.
func (c *Client) GetFilingMetadata(ctx context.Context, f *Filing) (*FilingMetadata, error) {
	url := fmt.Sprintf("%s%s/%s-index.txt", c.baseURL, f.archivePath(), f.AccessionNumber)
	body, err := c.Fetch(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch index for %s: %w", f.AccessionNumber, err)
	}

	meta := parseIndexFile(body)
	meta.AccessionNumber = f.AccessionNumber
	if meta.CIK == "" {
		meta.CIK = NormalizeCIK(f.CIK)
	}
	return meta, nil
}

func parseIndexFile(data []byte) *FilingMetadata {
	meta := &FilingMetadata{}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !strings.Contains(line, "|") {
			continue
		}
		parts := strings.Split(line, "|")
		if len(parts) < 4 {
			continue
		}
		meta.FormType = strings.TrimSpace(parts[0])
		meta.CompanyName = strings.TrimSpace(parts[1])
		meta.CIK = NormalizeCIK(parts[2])
		meta.FilingDate = strings.TrimSpace(parts[3])
		break
	}
	return meta
}
