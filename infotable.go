package thirteenf

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// Holding is one row of a 13F information table.
type Holding struct {
	CUSIP                string
	IssuerName           string
	ClassTitle           string
	Value                float64 // market value in whole dollars
	Shares               int64
	SharesType           string // "SH" or "PRN"
	PutCall              string
	InvestmentDiscretion string
	OtherManagers        string
	VotingSole           int64
	VotingShared         int64
	VotingNone           int64
}

// infoTableEntry mirrors the EDGAR information table XML schema. Element
// names match the schema's local names, so both the ns1-prefixed and bare
// forms decode into it.
type infoTableEntry struct {
	NameOfIssuer         string `xml:"nameOfIssuer"`
	TitleOfClass         string `xml:"titleOfClass"`
	CUSIP                string `xml:"cusip"`
	Value                string `xml:"value"`
	ShrsOrPrnAmt         struct {
		SshPrnamt     string `xml:"sshPrnamt"`
		SshPrnamtType string `xml:"sshPrnamtType"`
	} `xml:"shrsOrPrnAmt"`
	PutCall              string `xml:"putCall"`
	InvestmentDiscretion string `xml:"investmentDiscretion"`
	OtherManager         string `xml:"otherManager"`
	VotingAuthority      struct {
		Sole   string `xml:"Sole"`
		Shared string `xml:"Shared"`
		None   string `xml:"None"`
	} `xml:"votingAuthority"`
}

func (e *infoTableEntry) toHolding() Holding {
	return Holding{
		CUSIP:                strings.TrimSpace(e.CUSIP),
		IssuerName:           strings.TrimSpace(e.NameOfIssuer),
		ClassTitle:           strings.TrimSpace(e.TitleOfClass),
		Value:                parseFloatDefault(e.Value, 0),
		Shares:               parseIntDefault(e.ShrsOrPrnAmt.SshPrnamt, 0),
		SharesType:           strings.TrimSpace(e.ShrsOrPrnAmt.SshPrnamtType),
		PutCall:              strings.TrimSpace(e.PutCall),
		InvestmentDiscretion: strings.TrimSpace(e.InvestmentDiscretion),
		OtherManagers:        strings.TrimSpace(e.OtherManager),
		VotingSole:           parseIntDefault(e.VotingAuthority.Sole, 0),
		VotingShared:         parseIntDefault(e.VotingAuthority.Shared, 0),
		VotingNone:           parseIntDefault(e.VotingAuthority.None, 0),
	}
}

// extractXMLHoldings decodes every infoTable row element in data. The
// decoder walks the token stream rather than requiring a particular root,
// so a bare <infoTable> fragment parses the same as a full
// <informationTable> wrapper. A ParseError is returned so the caller can
// fall back to a text-based strategy.
func extractXMLHoldings(data []byte) ([]Holding, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	dec.CharsetReader = passthroughCharset

	var holdings []Holding
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse information table XML: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "infoTable" {
			continue
		}

		var entry infoTableEntry
		if err := dec.DecodeElement(&entry, &start); err != nil {
			return nil, fmt.Errorf("failed to decode infoTable element: %w", err)
		}
		holdings = append(holdings, entry.toHolding())
	}
	return holdings, nil
}

// passthroughCharset accepts any declared XML encoding and reads the bytes
// unchanged. EDGAR serves ISO-8859-1 declarations whose relevant content is
// ASCII, which UTF-8 decoding handles byte-for-byte.
func passthroughCharset(_ string, input io.Reader) (io.Reader, error) {
	return input, nil
}

// Canonical column keys shared by the table and line-oriented extractors.
const (
	colCUSIP        = "cusip"
	colIssuer       = "issuerName"
	colClass        = "classTitle"
	colValue        = "value"
	colShares       = "shares"
	colSharesType   = "sharesType"
	colPutCall      = "putCall"
	colDiscretion   = "investmentDiscretion"
	colManagers     = "otherManagers"
	colVotingSole   = "votingSole"
	colVotingShared = "votingShared"
	colVotingNone   = "votingNone"
)

// canonicalColumn maps a free-form header or key string to a canonical
// column key by substring matching, in priority order. Headers that match
// nothing are dropped. The order matters: "sole voting authority" must hit
// the voting rule before the generic issuer-name rule could claim it.
func canonicalColumn(name string) string {
	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, "cusip"):
		return colCUSIP
	case strings.Contains(n, "voting") && strings.Contains(n, "sole"):
		return colVotingSole
	case strings.Contains(n, "voting") && strings.Contains(n, "shared"):
		return colVotingShared
	case strings.Contains(n, "voting") && strings.Contains(n, "none"):
		return colVotingNone
	case strings.Contains(n, "issuer"), strings.Contains(n, "name"), strings.Contains(n, "company"):
		return colIssuer
	case strings.Contains(n, "class"), strings.Contains(n, "title"), strings.Contains(n, "security"):
		return colClass
	case strings.Contains(n, "value"):
		return colValue
	case strings.Contains(n, "shares"), strings.Contains(n, "amount"), strings.Contains(n, "quantity"):
		return colShares
	case strings.Contains(n, "type"):
		return colSharesType
	case strings.Contains(n, "put"), strings.Contains(n, "call"):
		return colPutCall
	case strings.Contains(n, "discretion"):
		return colDiscretion
	case strings.Contains(n, "manager"):
		return colManagers
	default:
		return ""
	}
}

// holdingFromRecord builds a Holding from canonical-keyed cell text.
// Numeric cells degrade to zero when unparsable.
func holdingFromRecord(rec map[string]string) Holding {
	return Holding{
		CUSIP:                strings.TrimSpace(rec[colCUSIP]),
		IssuerName:           strings.TrimSpace(rec[colIssuer]),
		ClassTitle:           strings.TrimSpace(rec[colClass]),
		Value:                parseFloatDefault(rec[colValue], 0),
		Shares:               parseIntDefault(rec[colShares], 0),
		SharesType:           strings.TrimSpace(rec[colSharesType]),
		PutCall:              strings.TrimSpace(rec[colPutCall]),
		InvestmentDiscretion: strings.TrimSpace(rec[colDiscretion]),
		OtherManagers:        strings.TrimSpace(rec[colManagers]),
		VotingSole:           parseIntDefault(rec[colVotingSole], 0),
		VotingShared:         parseIntDefault(rec[colVotingShared], 0),
		VotingNone:           parseIntDefault(rec[colVotingNone], 0),
	}
}

// cleanHoldings enforces the output invariants: rows without a CUSIP or
// issuer name are dropped, CUSIPs are stripped to alphanumerics, negative
// voting counts are clamped to zero, and repeated CUSIPs are collapsed to
// their first occurrence.
func cleanHoldings(holdings []Holding) []Holding {
	seen := make(map[string]bool, len(holdings))
	cleaned := make([]Holding, 0, len(holdings))
	for _, h := range holdings {
		h.CUSIP = NormalizeCUSIP(h.CUSIP)
		h.IssuerName = strings.TrimSpace(h.IssuerName)
		if h.CUSIP == "" || h.IssuerName == "" {
			continue
		}
		if seen[h.CUSIP] {
			continue
		}
		seen[h.CUSIP] = true

		if h.VotingSole < 0 {
			h.VotingSole = 0
		}
		if h.VotingShared < 0 {
			h.VotingShared = 0
		}
		if h.VotingNone < 0 {
			h.VotingNone = 0
		}
		cleaned = append(cleaned, h)
	}
	return cleaned
}
