package thirteenf_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	thirteenf "github.com/RxDataLab/go-thirteenf"
)

const processorSubmissionsJSON = `{
	"cik": "1067983",
	"name": "BERKSHIRE HATHAWAY INC",
	"filings": {
		"recent": {
			"accessionNumber": ["0000950123-24-011775", "0000950123-23-008740"],
			"filingDate": ["2024-11-14", "2023-08-10"],
			"form": ["13F-HR", "13F-HR"],
			"primaryDocument": ["primary_doc.xml", "primary_doc.xml"]
		}
	}
}`

// processorCounters tracks how often each upstream endpoint was hit.
type processorCounters struct {
	search      atomic.Int64
	submissions atomic.Int64
	documents   atomic.Int64
}

func newProcessorServer(t *testing.T) (*httptest.Server, *processorCounters) {
	t.Helper()
	counters := &processorCounters{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/cgi-bin/browse-edgar":
			counters.search.Add(1)
			w.Write([]byte(companySearchXML))
		case r.URL.Path == "/submissions/CIK0001067983.json":
			counters.submissions.Add(1)
			w.Write([]byte(processorSubmissionsJSON))
		case strings.HasSuffix(r.URL.Path, ".txt"):
			counters.documents.Add(1)
			w.Write([]byte(xmlFiling))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, counters
}

func newProcessor(t *testing.T, srv *httptest.Server) *thirteenf.Processor {
	t.Helper()
	client := thirteenf.NewClient(
		thirteenf.WithUserAgent("Test Suite test@example.com"),
		thirteenf.WithBaseURL(srv.URL),
		thirteenf.WithDataBaseURL(srv.URL),
	)
	cache, err := thirteenf.NewCache(t.TempDir())
	require.NoError(t, err)
	return thirteenf.NewProcessor(client, cache)
}

func TestProcessFunds_ByCIK(t *testing.T) {
	srv, _ := newProcessorServer(t)
	p := newProcessor(t, srv)

	results, err := p.ProcessFunds(context.Background(), thirteenf.ProcessRequest{
		CIKs:    []string{"1067983"},
		Quarter: "2024Q3",
	})
	require.NoError(t, err)
	require.Len(t, results, 1)

	summary := results[0].Summary
	assert.Equal(t, "0001067983", summary.CIK)
	assert.Equal(t, "2024Q3", summary.Period)
	assert.Equal(t, "2024-11-14", summary.PeriodEnd)
	assert.Equal(t, 2, summary.NumHoldings)
	assert.False(t, summary.IsFirstTimeFiler)
	assert.Equal(t, "2023Q2", summary.EarliestFilingPeriod)
	assert.Contains(t, summary.FilingURL, "/Archives/edgar/data/1067983/000095012324011775/0000950123-24-011775.txt")
	assert.Contains(t, summary.InfoTableURL, "/informationtable.xml")

	require.Len(t, results[0].Holdings, 2)
	assert.Equal(t, "037833100", results[0].Holdings[0].CUSIP)
}

func TestProcessFunds_ByName(t *testing.T) {
	srv, counters := newProcessorServer(t)
	p := newProcessor(t, srv)

	results, err := p.ProcessFunds(context.Background(), thirteenf.ProcessRequest{
		Funds:   []string{"Berkshire Hathaway"},
		Quarter: "2024Q3",
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Berkshire Hathaway", results[0].Summary.FundName)
	assert.Equal(t, "0001067983", results[0].Summary.CIK)

	// A second run on the same processor reuses the memoized name
	// resolution and the on-disk cache: no extra upstream requests.
	_, err = p.ProcessFunds(context.Background(), thirteenf.ProcessRequest{
		Funds:   []string{"Berkshire Hathaway"},
		Quarter: "2024Q3",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), counters.search.Load())
	assert.Equal(t, int64(1), counters.submissions.Load())
	assert.Equal(t, int64(1), counters.documents.Load())
}

func TestProcessFunds_DuplicateFundsCollapse(t *testing.T) {
	srv, _ := newProcessorServer(t)
	p := newProcessor(t, srv)

	results, err := p.ProcessFunds(context.Background(), thirteenf.ProcessRequest{
		CIKs:    []string{"1067983", "0001067983"},
		Funds:   []string{"Berkshire Hathaway"},
		Quarter: "2024Q3",
	})
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestProcessFunds_InvalidQuarter(t *testing.T) {
	srv, _ := newProcessorServer(t)
	p := newProcessor(t, srv)

	_, err := p.ProcessFunds(context.Background(), thirteenf.ProcessRequest{
		CIKs:    []string{"1067983"},
		Quarter: "2024Q9",
	})
	assert.Error(t, err)
}

func TestProcessFunds_HoldingsFilter(t *testing.T) {
	srv, _ := newProcessorServer(t)
	p := newProcessor(t, srv)

	// The fixture filing has 2 distinct holdings; a 10-50 range excludes it.
	results, err := p.ProcessFunds(context.Background(), thirteenf.ProcessRequest{
		CIKs:    []string{"1067983"},
		Quarter: "2024Q3",
		Filter:  &thirteenf.HoldingsFilter{Between: &thirteenf.HoldingsRange{Min: 10, Max: 50}},
	})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestProcessFunds_OnlyFirstTime(t *testing.T) {
	srv, _ := newProcessorServer(t)
	p := newProcessor(t, srv)

	// The fund filed in 2023Q2, so it is not a first-time filer for 2024Q3.
	results, err := p.ProcessFunds(context.Background(), thirteenf.ProcessRequest{
		CIKs:          []string{"1067983"},
		Quarter:       "2024Q3",
		OnlyFirstTime: true,
	})
	require.NoError(t, err)
	assert.Empty(t, results)

	// For the fund's own earliest quarter there is no prior history.
	results, err = p.ProcessFunds(context.Background(), thirteenf.ProcessRequest{
		CIKs:          []string{"1067983"},
		Quarter:       "2023Q2",
		OnlyFirstTime: true,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Summary.IsFirstTimeFiler)
	assert.Empty(t, results[0].Summary.EarliestFilingPeriod)
}

func TestProcessFunds_SkipsUnresolvableFund(t *testing.T) {
	srv, _ := newProcessorServer(t)
	p := newProcessor(t, srv)

	// "Ghost Fund" matches nothing in the search fixture; the batch still
	// completes for the resolvable fund.
	results, err := p.ProcessFunds(context.Background(), thirteenf.ProcessRequest{
		Funds:   []string{"Ghost Fund", "Berkshire Hathaway"},
		Quarter: "2024Q3",
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Berkshire Hathaway", results[0].Summary.FundName)
}

func TestProcessFunds_NoQualifyingQuarter(t *testing.T) {
	srv, _ := newProcessorServer(t)
	p := newProcessor(t, srv)

	results, err := p.ProcessFunds(context.Background(), thirteenf.ProcessRequest{
		CIKs:    []string{"1067983"},
		Quarter: "2020Q1",
	})
	require.NoError(t, err)
	assert.Empty(t, results)
}
