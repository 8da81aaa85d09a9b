package thirteenf

import (
	"strings"
)

// extractTextHoldings parses a line-oriented "key: value" information
// table. A CUSIP key while a CUSIP is already pending starts a new record;
// records missing a CUSIP or issuer name are discarded at flush time.
// Voting lines carry the authority kind in the value ("sole", "shared",
// "none") rather than the key, and record presence as a count of 1.
func extractTextHoldings(data []byte) []Holding {
	var holdings []Holding
	current := make(map[string]string)

	flush := func() {
		if current[colCUSIP] != "" && current[colIssuer] != "" {
			holdings = append(holdings, holdingFromRecord(current))
		}
		current = make(map[string]string)
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch {
		case strings.Contains(key, "cusip"):
			if current[colCUSIP] != "" {
				flush()
			}
			current[colCUSIP] = value
		case strings.Contains(key, "issuer"), strings.Contains(key, "name"):
			current[colIssuer] = value
		case strings.Contains(key, "class"), strings.Contains(key, "title"):
			current[colClass] = value
		case strings.Contains(key, "value"):
			current[colValue] = value
		case strings.Contains(key, "shares"), strings.Contains(key, "amount"):
			current[colShares] = value
		case strings.Contains(key, "put"), strings.Contains(key, "call"):
			current[colPutCall] = value
		case strings.Contains(key, "discretion"):
			current[colDiscretion] = value
		case strings.Contains(key, "voting"):
			switch v := strings.ToLower(value); {
			case strings.Contains(v, "sole"):
				current[colVotingSole] = "1"
			case strings.Contains(v, "shared"):
				current[colVotingShared] = "1"
			case strings.Contains(v, "none"):
				current[colVotingNone] = "1"
			}
		}
	}
	flush()

	return holdings
}
