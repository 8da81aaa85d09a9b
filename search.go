package thirteenf

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/url"
	"strings"
)

// Company is one match from the EDGAR company search endpoint.
type Company struct {
	CIK  string // 10-digit, zero-padded
	Name string
}

// companyInfoXML mirrors the companyInfo element of the browse-edgar XML
// output. Only the fields this module needs are decoded.
type companyInfoXML struct {
	CIK  string `xml:"CIK"`
	Name string `xml:"name"`
}

// SearchCompanies queries the EDGAR company search for 13F filers matching
// name. Results are filtered to plausible matches: the query contained in
// the candidate name (or vice versa), or any query word appearing in the
// candidate. Order is EDGAR's own, so the first result is the best match.
func (c *Client) SearchCompanies(ctx context.Context, name string) ([]Company, error) {
	params := url.Values{
		"company": {name},
		"type":    {Form13F},
		"owner":   {"exclude"},
		"action":  {"getcompany"},
		"output":  {"xml"},
	}
	body, err := c.Fetch(ctx, "GET", c.baseURL+"/cgi-bin/browse-edgar", params)
	if err != nil {
		return nil, fmt.Errorf("failed to search companies: %w", err)
	}
	return parseCompanySearch(body, name)
}

// ResolveCIK resolves a fund name to its CIK via company search. The first
// match wins; no matches is an error rather than an empty result so
// callers report the failed fund by name.
func (c *Client) ResolveCIK(ctx context.Context, name string) (string, error) {
	companies, err := c.SearchCompanies(ctx, name)
	if err != nil {
		return "", err
	}
	if len(companies) == 0 {
		return "", fmt.Errorf("no 13F filer found matching %q", name)
	}
	return companies[0].CIK, nil
}

func parseCompanySearch(data []byte, query string) ([]Company, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	// The endpoint declares ISO-8859-1; the fields read here are ASCII, so
	// bytes pass through as-is.
	dec.CharsetReader = passthroughCharset

	var companies []Company
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse company search XML: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "companyInfo" {
			continue
		}

		var info companyInfoXML
		if err := dec.DecodeElement(&info, &start); err != nil {
			return nil, fmt.Errorf("failed to decode companyInfo element: %w", err)
		}

		cik := strings.TrimSpace(info.CIK)
		name := strings.TrimSpace(info.Name)
		if cik == "" || name == "" {
			continue
		}
		if !nameMatches(query, name) {
			continue
		}
		companies = append(companies, Company{CIK: NormalizeCIK(cik), Name: name})
	}
	return companies, nil
}

// nameMatches reports whether candidate plausibly names the queried fund:
// containment in either direction, or any query word present.
func nameMatches(query, candidate string) bool {
	q := strings.ToUpper(strings.TrimSpace(query))
	c := strings.ToUpper(candidate)
	if q == "" {
		return false
	}
	if strings.Contains(c, q) || strings.Contains(q, c) {
		return true
	}
	for _, word := range strings.Fields(q) {
		if strings.Contains(c, word) {
			return true
		}
	}
	return false
}
