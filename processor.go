package thirteenf

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// FilingSummary is the per-fund result of a processing run.
type FilingSummary struct {
	FundName         string `json:"fundName"`
	CIK              string `json:"cik"`
	Period           string `json:"period"`    // YYYYQn
	PeriodEnd        string `json:"periodEnd"` // filing date, YYYY-MM-DD
	IsFirstTimeFiler bool   `json:"isFirstTimeFiler"`
	NumHoldings      int    `json:"numHoldings"`
	FilingURL        string `json:"filingUrl"`
	InfoTableURL     string `json:"infoTableUrl"`

	// EarliestFilingPeriod is the fund's earliest prior quarter, empty for
	// first-time filers.
	EarliestFilingPeriod string `json:"earliestFilingPeriod,omitempty"`
}

// FundResult pairs a filing summary with its deduplicated holdings table.
type FundResult struct {
	Summary  FilingSummary
	Holdings []Holding
}

// ProcessRequest describes one processing run. Funds are free-form names
// resolved through company search; CIKs are used as-is after
// normalization. Quarter is a YYYYQn string; empty means the most recent
// complete quarter.
type ProcessRequest struct {
	Funds         []string
	CIKs          []string
	Quarter       string
	OnlyFirstTime bool
	Filter        *HoldingsFilter
}

// Processor runs the full pipeline for a batch of funds: resolve to CIK,
// locate the target quarter's filing, parse its holdings, detect
// first-time filers, and apply holdings filters. One fund's failure never
// aborts the batch; failed funds are logged and omitted from the results.
type Processor struct {
	client      *Client
	cache       *Cache
	parser      *Parser
	log         *zap.Logger
	concurrency int
	now         func() time.Time

	// nameToCIK memoizes company search results for the run, keyed by
	// normalized fund name.
	mu        sync.Mutex
	nameToCIK map[string]string
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithProcessorLogger sets the logger. The default is a no-op logger.
func WithProcessorLogger(log *zap.Logger) ProcessorOption {
	return func(p *Processor) { p.log = log }
}

// WithConcurrency sets how many funds are processed in parallel. The
// default is 1 (strictly sequential). Outbound pacing is unaffected:
// every worker funnels through the shared client rate limiter.
func WithConcurrency(n int) ProcessorOption {
	return func(p *Processor) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// NewProcessor creates a Processor over a fetch client and cache.
func NewProcessor(client *Client, cache *Cache, opts ...ProcessorOption) *Processor {
	p := &Processor{
		client:      client,
		cache:       cache,
		concurrency: 1,
		now:         time.Now,
		nameToCIK:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = zap.NewNop()
	}
	p.parser = NewParser(WithParserLogger(p.log))
	return p
}

// fundRef is one resolved entry of the processing list.
type fundRef struct {
	cik  string
	name string
}

// ProcessFunds runs the pipeline for every fund in the request and returns
// results in input order. A malformed quarter string is a validation error
// and fails the whole run; per-fund failures are logged and skipped.
func (p *Processor) ProcessFunds(ctx context.Context, req ProcessRequest) ([]FundResult, error) {
	var target Quarter
	if req.Quarter == "" {
		target = LatestQuarter(p.now())
	} else {
		q, err := ParseQuarter(req.Quarter)
		if err != nil {
			return nil, err
		}
		target = q
	}

	refs := p.resolveFunds(ctx, req)
	if len(refs) == 0 {
		return nil, fmt.Errorf("no funds could be resolved")
	}

	results := make([]*FundResult, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, ref := range refs {
		i, ref := i, ref
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := p.processFund(gctx, ref, target, &req)
			results[i] = res
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]FundResult, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out, nil
}

// resolveFunds builds the deduplicated fund list: explicit CIKs first,
// then names resolved via company search. Unresolvable names are logged
// and dropped.
func (p *Processor) resolveFunds(ctx context.Context, req ProcessRequest) []fundRef {
	var refs []fundRef
	for _, cik := range req.CIKs {
		normalized := NormalizeCIK(cik)
		refs = append(refs, fundRef{cik: normalized, name: normalized})
	}
	for _, name := range req.Funds {
		cik, err := p.resolveCIK(ctx, name)
		if err != nil {
			p.log.Warn("could not resolve fund name, skipping",
				zap.String("fund", name), zap.Error(err))
			continue
		}
		refs = append(refs, fundRef{cik: cik, name: name})
	}

	seen := make(map[string]bool, len(refs))
	deduped := refs[:0]
	for _, ref := range refs {
		if seen[ref.cik] {
			continue
		}
		seen[ref.cik] = true
		deduped = append(deduped, ref)
	}
	return deduped
}

// resolveCIK resolves a fund name through company search, memoizing per
// normalized name for the run.
func (p *Processor) resolveCIK(ctx context.Context, name string) (string, error) {
	key := NormalizeFundName(name)

	p.mu.Lock()
	cik, ok := p.nameToCIK[key]
	p.mu.Unlock()
	if ok {
		return cik, nil
	}

	cik, err := p.client.ResolveCIK(ctx, name)
	if err != nil {
		return "", err
	}

	p.mu.Lock()
	p.nameToCIK[key] = cik
	p.mu.Unlock()
	return cik, nil
}

// processFund runs the pipeline for one fund. A nil return means the fund
// was skipped; the reason has already been logged.
func (p *Processor) processFund(ctx context.Context, ref fundRef, target Quarter, req *ProcessRequest) *FundResult {
	log := p.log.With(zap.String("fund", ref.name), zap.String("cik", ref.cik))
	log.Info("processing fund", zap.String("quarter", target.String()))

	subs, err := p.fetchSubmissions(ctx, ref.cik)
	if err != nil {
		log.Warn("failed to fetch submissions, skipping fund", zap.Error(err))
		return nil
	}

	filings := subs.RecentFilings()
	filing, ok := SelectFiling(filings, target, log)
	if !ok {
		log.Info("no 13F filing for quarter, skipping fund",
			zap.String("quarter", target.String()))
		return nil
	}

	isFirstTime, earliest := FirstTimeFiler(filings, target, log)
	if req.OnlyFirstTime && !isFirstTime {
		log.Info("not a first-time filer, skipping fund")
		return nil
	}

	doc, err := p.fetchDocument(ctx, &filing)
	if err != nil {
		log.Warn("failed to fetch filing document, skipping fund", zap.Error(err))
		return nil
	}

	table, err := p.parser.Parse(doc)
	if err != nil {
		log.Warn("failed to parse holdings, skipping fund", zap.Error(err))
		return nil
	}

	count := table.HoldingsCount()
	if !req.Filter.Passes(count) {
		log.Info("filtered out by holdings count", zap.Int("holdings", count))
		return nil
	}

	summary := FilingSummary{
		FundName:         ref.name,
		CIK:              ref.cik,
		Period:           target.String(),
		PeriodEnd:        filing.FilingDate,
		IsFirstTimeFiler: isFirstTime,
		NumHoldings:      count,
		FilingURL:        filing.DocumentURL(p.client.baseURL),
		InfoTableURL:     filing.InformationTableURL(p.client.baseURL),
	}
	if !isFirstTime {
		summary.EarliestFilingPeriod = earliest.String()
	}

	log.Info("processed fund", zap.Int("holdings", count),
		zap.Bool("firstTime", isFirstTime))
	return &FundResult{Summary: summary, Holdings: table.Holdings}
}

// fetchSubmissions loads a fund's submission history through the cache.
func (p *Processor) fetchSubmissions(ctx context.Context, cik string) (*Submissions, error) {
	key := "submissions_" + cik
	payload, err := p.cache.GetOrFetch(key, func() ([]byte, error) {
		subs, err := p.client.GetSubmissions(ctx, cik)
		if err != nil {
			return nil, err
		}
		return json.Marshal(subs)
	})
	if err != nil {
		return nil, err
	}

	var subs Submissions
	if err := json.Unmarshal(payload, &subs); err != nil {
		return nil, fmt.Errorf("failed to decode cached submissions: %w", err)
	}
	if subs.CIK == "" {
		subs.CIK = cik
	}
	return &subs, nil
}

// fetchDocument loads a filing's full submission text through the cache.
func (p *Processor) fetchDocument(ctx context.Context, f *Filing) ([]byte, error) {
	key := fmt.Sprintf("document_%s_%s", f.CIK, f.AccessionNumber)
	return p.cache.GetOrFetch(key, func() ([]byte, error) {
		return p.client.GetFilingDocument(ctx, f)
	})
}
