package thirteenf

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// extractHTMLHoldings parses an information table rendered as an HTML
// table. The first row supplies the headers; each later row is paired
// with them positionally and mapped through canonicalColumn. Rows with
// fewer cells than headers are skipped as layout artifacts.
func extractHTMLHoldings(data []byte) ([]Holding, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, nil
	}

	rows := table.Find("tr")
	if rows.Length() < 2 {
		return nil, nil
	}

	var headers []string
	rows.First().Find("th, td").Each(func(_ int, cell *goquery.Selection) {
		headers = append(headers, strings.ToLower(strings.TrimSpace(cell.Text())))
	})
	if len(headers) == 0 {
		return nil, nil
	}

	var holdings []Holding
	rows.Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return
		}
		var cells []string
		row.Find("td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(cell.Text()))
		})
		if len(cells) < len(headers) {
			return
		}

		rec := make(map[string]string, len(headers))
		for j, header := range headers {
			key := canonicalColumn(header)
			if key == "" {
				continue
			}
			// First matching header wins when two map to the same field.
			if _, exists := rec[key]; !exists {
				rec[key] = cells[j]
			}
		}
		holdings = append(holdings, holdingFromRecord(rec))
	})

	return holdings, nil
}

// hasHTMLTable reports whether data contains a table element, which decides
// between the table and line-oriented text strategies.
func hasHTMLTable(data []byte) bool {
	return bytes.Contains(bytes.ToLower(data), []byte("<table"))
}
