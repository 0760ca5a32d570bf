package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"aniscan/internal/anime"
	"aniscan/internal/namer"
	"aniscan/internal/ratelimit"
)

// BatchSink receives each batch's compacted records and error entries
// as soon as the batch completes, enabling incremental persistence and
// resumable runs. Returning an error aborts the run.
type BatchSink func(records []Record, errs []ErrorEntry) error

// Engine drives the pipeline. It holds injected collaborator handles
// and is constructed once per run; there is no ambient global state.
type Engine struct {
	cfg     Config
	fetcher Fetcher
	parser  Parser
	lookup  Lookup
	limiter *ratelimit.Limiter
	offset  OffsetFunc
	sink    BatchSink
	sleep   func(time.Duration)
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithOffsetPolicy replaces the numbering-reconciliation policy.
func WithOffsetPolicy(fn OffsetFunc) EngineOption {
	return func(e *Engine) {
		if fn != nil {
			e.offset = fn
		}
	}
}

// WithBatchSink installs a per-batch persistence callback.
func WithBatchSink(sink BatchSink) EngineOption {
	return func(e *Engine) { e.sink = sink }
}

// WithRateLimiter replaces the site fetch limiter.
func WithRateLimiter(limiter *ratelimit.Limiter) EngineOption {
	return func(e *Engine) {
		if limiter != nil {
			e.limiter = limiter
		}
	}
}

// New creates an Engine, validating the configuration before any work
// is dispatched.
func New(cfg Config, fetcher Fetcher, parser Parser, lookup Lookup, opts ...EngineOption) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:     cfg,
		fetcher: fetcher,
		parser:  parser,
		lookup:  lookup,
		limiter: ratelimit.New("site", cfg.RequestsPerSecond),
		offset:  DefaultOffset,
		sleep:   time.Sleep,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e, nil
}

// Result is the aggregate outcome of one run.
type Result struct {
	Records []Record
	Errors  []ErrorEntry
	Summary Summary
}

// Run processes all identifiers in fixed-size batches, each driven to
// full completion before the next begins. Cancellation stops dispatch;
// identifiers already dispatched resolve as cancelled error entries and
// the partial result is returned alongside ctx.Err().
func (e *Engine) Run(ctx context.Context, ids []int) (*Result, error) {
	if len(ids) == 0 {
		return nil, &ConfigError{Field: "identifiers", Reason: "nothing to process"}
	}

	result := &Result{
		Summary: Summary{Failed: make(map[Classification]int)},
	}

	serial := e.cfg.StartSerial
	batches := (len(ids) + e.cfg.BatchSize - 1) / e.cfg.BatchSize

	for start, batchNo := 0, 1; start < len(ids); start, batchNo = start+e.cfg.BatchSize, batchNo+1 {
		if err := ctx.Err(); err != nil {
			e.finishSummary(result, ids[:start])
			return result, err
		}

		end := start + e.cfg.BatchSize
		if end > len(ids) {
			end = len(ids)
		}
		chunk := ids[start:end]

		slog.Info("Processing batch", "batch", batchNo, "of", batches, "identifiers", len(chunk))

		records, errs, degraded, err := e.runBatch(ctx, chunk, serial)
		if err != nil {
			return result, err
		}

		serial += len(records)
		result.Records = append(result.Records, records...)
		result.Errors = append(result.Errors, errs...)
		result.Summary.Degraded += degraded
		for _, entry := range errs {
			result.Summary.Failed[entry.Class]++
		}

		if e.sink != nil {
			if err := e.sink(records, errs); err != nil {
				return result, err
			}
		}

		slog.Info("Batch complete",
			"batch", batchNo,
			"records", len(records),
			"failures", len(errs))
	}

	e.finishSummary(result, ids)
	sort.Slice(result.Errors, func(i, j int) bool {
		return result.Errors[i].Identifier < result.Errors[j].Identifier
	})
	return result, ctx.Err()
}

func (e *Engine) finishSummary(result *Result, attempted []int) {
	result.Summary.Attempted = len(attempted)
	result.Summary.Succeeded = len(result.Records)
}

// parsedItem travels from the fetch pool to the enrichment pool.
type parsedItem struct {
	idx      int
	id       int
	episodes anime.EpisodeList
}

// runBatch drives one batch through the Dispatched -> InFlight ->
// Draining -> Compacted phases and returns its compacted records and
// error entries.
func (e *Engine) runBatch(ctx context.Context, ids []int, serialBase int) ([]Record, []ErrorEntry, int, error) {
	slots := newSlotTable(len(ids))
	tracker := newErrorTracker()

	var degraded atomic.Int64

	var slotMu sync.Mutex
	var slotViolation error
	recordSlotErr := func(err error) {
		if err == nil {
			return
		}
		slotMu.Lock()
		if slotViolation == nil {
			slotViolation = err
		}
		slotMu.Unlock()
	}

	setPhase := func(p batchPhase) {
		slog.Debug("Batch phase", "phase", p.String())
	}

	setPhase(phaseDispatched)
	jobs := make(chan int)
	parsed := make(chan parsedItem)

	var fetchWG sync.WaitGroup
	for i := 0; i < e.cfg.FetchWorkers; i++ {
		fetchWG.Add(1)
		go func() {
			defer fetchWG.Done()
			for idx := range jobs {
				id := ids[idx]
				outcome := e.fetchOne(ctx, id)
				switch outcome.Kind {
				case OutcomeSuccess:
					parsed <- parsedItem{idx: idx, id: id, episodes: outcome.Episodes}
				default:
					tracker.report(id, e.fetcher.URL(id), outcome.Reason, outcome.Class)
					recordSlotErr(slots.fail(idx))
				}
			}
		}()
	}

	var enrichWG sync.WaitGroup
	for i := 0; i < e.cfg.EnrichWorkers; i++ {
		enrichWG.Add(1)
		go func() {
			defer enrichWG.Done()
			for item := range parsed {
				record, wasDegraded := e.enrichOne(ctx, item.id, item.episodes)
				if wasDegraded {
					degraded.Add(1)
				}
				recordSlotErr(slots.fill(item.idx, record))
			}
		}()
	}

	setPhase(phaseInFlight)
	for idx := range ids {
		jobs <- idx
	}
	close(jobs)

	setPhase(phaseDraining)
	fetchWG.Wait()
	close(parsed)
	enrichWG.Wait()

	if slotViolation != nil {
		return nil, nil, 0, slotViolation
	}
	if ctx.Err() == nil {
		if missing := slots.unresolved(); len(missing) > 0 {
			return nil, nil, 0, fmt.Errorf("%d identifiers left unresolved after drain", len(missing))
		}
	}

	setPhase(phaseCompacted)
	return slots.compact(serialBase), tracker.export(), int(degraded.Load()), nil
}

// fetchOne runs the per-identifier attempt loop: acquire a rate-limit
// permit, fetch under a timeout, parse, and retry retryable failures
// with exponential backoff until the attempt budget runs out.
func (e *Engine) fetchOne(ctx context.Context, id int) FetchOutcome {
	var outcome FetchOutcome
	for attempt := 1; attempt <= e.cfg.FetchAttempts; attempt++ {
		if err := e.limiter.Wait(ctx); err != nil {
			return FetchOutcome{Kind: OutcomeFetchFailed, Reason: "run cancelled", Class: ClassOther}
		}

		fetchCtx, cancel := context.WithTimeout(ctx, e.cfg.FetchTimeout)
		doc, err := e.fetcher.Fetch(fetchCtx, id)
		cancel()

		if err != nil {
			outcome = classifyFetchError(err)
			if outcome.Kind == OutcomeParseFailed {
				return outcome
			}
			if !outcome.Retryable || attempt == e.cfg.FetchAttempts || ctx.Err() != nil {
				return outcome
			}
			delay := backoffDelay(attempt)
			if outcome.RateLimited {
				// Rate-limit responses get a longer breather.
				delay *= 4
			}
			slog.Debug("Retrying fetch", "identifier", id, "attempt", attempt, "delay", delay, "reason", outcome.Reason)
			e.sleep(delay)
			continue
		}

		episodes, perr := e.parser.Parse(doc)
		if perr != nil {
			return parseFailedOutcome(perr.Error())
		}
		return successOutcome(episodes)
	}
	return outcome
}

// enrichOne resolves metadata for a parsed item. Lookup failure and
// "no match" both degrade to fallback naming; they never fail the item.
func (e *Engine) enrichOne(ctx context.Context, id int, ep anime.EpisodeList) (Record, bool) {
	record := Record{
		Identifier:    id,
		Name:          ep.Slug,
		Episodes:      formatEpisodes(ep),
		EpisodeOffset: e.offset(ep.First, ep.Last),
	}

	match, err := e.lookup.Lookup(ctx, namer.Clean(ep.Slug))
	if err != nil {
		record.Title = namer.FallbackTitle(ep.Slug)
		slog.Debug("Enrichment degraded", "slug", ep.Slug, "reason", err)
		return record, true
	}

	record.Title = match.Title
	if record.Title == "" {
		record.Title = namer.FallbackTitle(ep.Slug)
	}
	if match.TMDBID != 0 {
		tmdbID := match.TMDBID
		record.TMDBID = &tmdbID
	}
	if match.IMDBID != "" {
		imdbID := match.IMDBID
		record.IMDBID = &imdbID
	}
	if match.Year != 0 {
		year := match.Year
		record.Year = &year
	}
	return record, false
}

func formatEpisodes(ep anime.EpisodeList) string {
	if ep.First == ep.Last {
		return strconv.Itoa(ep.First)
	}
	return strconv.Itoa(ep.First) + "-" + strconv.Itoa(ep.Last)
}

func backoffDelay(attempt int) time.Duration {
	// exponential backoff capped at 10 seconds
	delay := time.Duration(1<<uint(attempt-1)) * time.Second
	if delay > 10*time.Second {
		return 10 * time.Second
	}
	return delay
}

type batchPhase int

const (
	phaseDispatched batchPhase = iota
	phaseInFlight
	phaseDraining
	phaseCompacted
)

func (p batchPhase) String() string {
	switch p {
	case phaseDispatched:
		return "dispatched"
	case phaseInFlight:
		return "in-flight"
	case phaseDraining:
		return "draining"
	case phaseCompacted:
		return "compacted"
	default:
		return "unknown"
	}
}
