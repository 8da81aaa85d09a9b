package thirteenf

import (
	"bytes"
	"strings"

	"go.uber.org/zap"
)

// InformationTable is the parsed, cleaned holdings table of one filing.
// Holdings are deduplicated by CUSIP, so HoldingsCount is the number of
// distinct securities rather than raw table rows.
type InformationTable struct {
	Holdings []Holding
}

// HoldingsCount returns the number of distinct securities held.
func (t *InformationTable) HoldingsCount() int {
	return len(t.Holdings)
}

// Parser extracts the information table from a raw 13F filing document.
// The zero value is not usable; construct with NewParser.
type Parser struct {
	log *zap.Logger
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithParserLogger sets the logger. The default is a no-op logger.
func WithParserLogger(log *zap.Logger) ParserOption {
	return func(p *Parser) { p.log = log }
}

// NewParser creates a Parser.
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = zap.NewNop()
	}
	return p
}

// Parse normalizes a raw filing document, isolates the embedded
// information table, and extracts its holdings. Extraction strategies run
// in order (XML, HTML table, line-oriented text) and the first non-empty
// result wins; malformed XML falls through rather than failing. Documents
// whose table cannot be located go through the same chain over the whole
// text, so a filing with zero recognizable holdings yields an empty
// table, not an error.
func (p *Parser) Parse(doc []byte) (*InformationTable, error) {
	text := NormalizeText(doc)
	section := extractInformationTable(text)

	var holdings []Holding
	if isStructuredMarkup(section) {
		parsed, err := extractXMLHoldings(section)
		if err != nil {
			p.log.Warn("information table XML did not parse, trying text strategies",
				zap.Error(err))
		} else {
			holdings = parsed
		}
	}
	if len(holdings) == 0 && hasHTMLTable(section) {
		parsed, err := extractHTMLHoldings(section)
		if err != nil {
			p.log.Warn("HTML table did not parse, trying line-oriented strategy",
				zap.Error(err))
		} else {
			holdings = parsed
		}
	}
	if len(holdings) == 0 {
		holdings = extractTextHoldings(section)
	}

	cleaned := cleanHoldings(holdings)
	p.log.Debug("parsed information table",
		zap.Int("rawRows", len(holdings)),
		zap.Int("holdings", len(cleaned)))
	return &InformationTable{Holdings: cleaned}, nil
}

// sectionTags are the information table delimiters, in priority order.
// Namespaced wrappers come first because full submission files usually
// embed the namespaced schema.
var sectionTags = []struct {
	open, close string
}{
	{"<ns1:informationTable", "</ns1:informationTable>"},
	{"<informationTable", "</informationTable>"},
	{"<ns1:infoTable", "</ns1:infoTable>"},
}

// extractInformationTable isolates the information table section of a full
// submission document. When no known delimiters are present the whole
// document is returned, leaving the format detection to sort it out.
func extractInformationTable(text []byte) []byte {
	for _, tag := range sectionTags {
		start := bytes.Index(text, []byte(tag.open))
		if start == -1 {
			continue
		}
		end := bytes.Index(text[start:], []byte(tag.close))
		if end == -1 {
			continue
		}
		return text[start : start+end+len(tag.close)]
	}
	return text
}

// isStructuredMarkup decides whether a section is worth handing to the
// XML strategy. Only the first 100 characters are examined: an XML
// declaration or an information table open tag (bare or namespaced) there
// marks structured markup.
func isStructuredMarkup(section []byte) bool {
	head := strings.ToLower(string(bytes.TrimSpace(section)))
	if len(head) > 100 {
		head = head[:100]
	}
	return strings.HasPrefix(head, "<?xml") || strings.Contains(head, "informationtable")
}
