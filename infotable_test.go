package thirteenf

import "testing"

func TestCanonicalColumn(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"CUSIP", colCUSIP},
		{"Cusip Number", colCUSIP},
		{"Name of Issuer", colIssuer},
		{"Company", colIssuer},
		{"Title of Class", colClass},
		{"Security Description", colClass},
		{"Market Value (x$1000)", colValue},
		{"Shares or Principal Amount", colShares},
		{"Quantity", colShares},
		{"SH/PRN Type", colSharesType},
		{"Put/Call", colPutCall},
		{"Investment Discretion", colDiscretion},
		{"Other Managers", colManagers},
		// The voting rules must win over the generic issuer-name rule.
		{"Sole Voting Authority", colVotingSole},
		{"Shared Voting Authority", colVotingShared},
		{"None Voting Authority", colVotingNone},
		{"Footnotes", ""},
	}

	for _, tt := range tests {
		if got := canonicalColumn(tt.header); got != tt.want {
			t.Errorf("canonicalColumn(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

func TestCleanHoldings(t *testing.T) {
	raw := []Holding{
		{CUSIP: "037-833 100", IssuerName: " APPLE INC ", VotingSole: -5},
		{CUSIP: "037833100", IssuerName: "APPLE INC DUPLICATE"},
		{CUSIP: "", IssuerName: "NO IDENTIFIER"},
		{CUSIP: "594918104", IssuerName: ""},
		{CUSIP: "594918104", IssuerName: "MICROSOFT CORP"},
	}

	cleaned := cleanHoldings(raw)
	if len(cleaned) != 2 {
		t.Fatalf("len = %d, want 2", len(cleaned))
	}
	if cleaned[0].CUSIP != "037833100" {
		t.Errorf("CUSIP = %q", cleaned[0].CUSIP)
	}
	if cleaned[0].IssuerName != "APPLE INC" {
		t.Errorf("IssuerName = %q", cleaned[0].IssuerName)
	}
	if cleaned[0].VotingSole != 0 {
		t.Errorf("negative voting count should clamp to zero, got %d", cleaned[0].VotingSole)
	}
	if cleaned[1].IssuerName != "MICROSOFT CORP" {
		t.Errorf("IssuerName = %q", cleaned[1].IssuerName)
	}
}
