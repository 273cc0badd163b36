// Package scanner drives one geo-grid visibility scan: every keyword is
// searched from every grid point and the business is ranked on each result
// list.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/rendis/geogrid/internal/engine/provider"
	"github.com/rendis/geogrid/internal/engine/rank"
	"github.com/rendis/geogrid/internal/engine/storage"
	"github.com/rendis/geogrid/internal/model"
)

const (
	defaultBatchSize    = 25
	maxConsecutiveRL    = 50
	progressInterval    = 2 * time.Second
	logProgressInterval = 10 * time.Second
)

// Params configures a scan run.
type Params struct {
	ScanID        string
	Keywords      []string
	Target        rank.Target
	Concurrency   int
	RatePerSecond float64 // 0 disables pacing
	Burst         int
}

type Stats struct {
	JobsTotal  int
	JobsDone   atomic.Int64
	Found      atomic.Int64 // records where the business ranked on any channel
	Stored     atomic.Int64
	Errors     atomic.Int64
	RateLimits atomic.Int64
}

// Job is one (point, keyword) search. Seq is its position in scan order.
type Job struct {
	Seq     int
	Point   model.GridPoint
	Keyword string
}

// RunOptions provides optional callbacks for the scan pipeline.
type RunOptions struct {
	// OnRecord is called from worker goroutines for every record produced.
	OnRecord func(seq int, r model.VisibilityRecord)
	// SuppressStderr disables the built-in stderr progress reporter.
	SuppressStderr bool
	// Stats allows passing an external Stats object for live progress tracking.
	Stats *Stats
	// BatchSize is the number of records buffered before a store write.
	BatchSize int
}

// Result is the caller-owned outcome of a scan. Records are in job order;
// failed jobs leave no record.
type Result struct {
	Records []model.VisibilityRecord
	Stats   *Stats
}

// Jobs expands points x keywords in point-major order.
func Jobs(points []model.GridPoint, keywords []string) []Job {
	jobs := make([]Job, 0, len(points)*len(keywords))
	for _, p := range points {
		for _, kw := range keywords {
			jobs = append(jobs, Job{Seq: len(jobs), Point: p, Keyword: kw})
		}
	}
	return jobs
}

// Run executes the scan. store and logger may be nil. On cancellation the
// records gathered so far are returned together with ctx.Err().
//
// A failed search produces no record; it is counted in Stats.Errors. Summary
// percentages over Result.Records therefore cover successful checks only.
func Run(ctx context.Context, points []model.GridPoint, params Params, prov provider.SearchProvider, store *storage.Store, logger *log.Logger, opts *RunOptions) (*Result, error) {
	if opts == nil {
		opts = &RunOptions{}
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if store != nil && params.ScanID == "" {
		return nil, fmt.Errorf("a scan id is required to persist records")
	}

	jobs := Jobs(points, params.Keywords)

	stats := opts.Stats
	if stats == nil {
		stats = &Stats{}
	}
	stats.JobsTotal = len(jobs)

	concurrency := params.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	limit := rate.Inf
	if params.RatePerSecond > 0 {
		limit = rate.Limit(params.RatePerSecond)
	}
	burst := params.Burst
	if burst <= 0 {
		burst = 1
	}
	limiter := rate.NewLimiter(limit, burst)

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	sink := &batcher{store: store, scanID: params.ScanID, size: batchSize, stats: stats, logger: logger}

	slots := make([]*model.VisibilityRecord, len(jobs))

	done := make(chan struct{})
	go reportProgress(stats, logger, !opts.SuppressStderr, done)

	var wg sync.WaitGroup
	sem := make(chan struct{}, concurrency)
	var consecutiveRL atomic.Int64
	var runErr error

dispatch:
	for _, job := range jobs {
		select {
		case <-ctx.Done():
			runErr = ctx.Err()
			break dispatch
		default:
		}

		if consecutiveRL.Load() > maxConsecutiveRL {
			logger.Printf("ABORT: persistent rate limiting (%d+ consecutive), stopping", maxConsecutiveRL)
			if !opts.SuppressStderr {
				fmt.Fprintf(os.Stderr, "\n[!] Persistent rate limiting detected, aborting. Try again later or lower -rate.\n")
			}
			runErr = fmt.Errorf("aborted after %d consecutive rate limits", maxConsecutiveRL)
			break
		}

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			runErr = ctx.Err()
			break dispatch
		}
		wg.Add(1)
		go func(j Job) {
			defer wg.Done()
			defer func() { <-sem }()

			rec, err := processJob(ctx, prov, limiter, j, params.Target, stats, logger)
			if err != nil {
				if provider.IsRateLimit(err) {
					consecutiveRL.Add(1)
				}
				return
			}
			consecutiveRL.Store(0)

			slots[j.Seq] = &rec
			if opts.OnRecord != nil {
				opts.OnRecord(j.Seq, rec)
			}
			sink.add(storage.Indexed{Seq: j.Seq, Record: rec})
		}(job)
	}

	wg.Wait()
	sink.flush()
	close(done)

	if !opts.SuppressStderr {
		fmt.Fprintf(os.Stderr, "\r[%d/%d searches] %d ranked | %d errors\n",
			stats.JobsDone.Load(), stats.JobsTotal, stats.Found.Load(), stats.Errors.Load())
	}

	res := &Result{Stats: stats}
	for _, r := range slots {
		if r != nil {
			res.Records = append(res.Records, *r)
		}
	}
	return res, runErr
}

func processJob(ctx context.Context, prov provider.SearchProvider, limiter *rate.Limiter, job Job, target rank.Target, stats *Stats, logger *log.Logger) (model.VisibilityRecord, error) {
	defer stats.JobsDone.Add(1)

	if err := limiter.Wait(ctx); err != nil {
		return model.VisibilityRecord{}, err
	}

	obs, err := prov.Search(ctx, job.Keyword, job.Point)
	if err != nil {
		stats.Errors.Add(1)
		var rl *provider.RateLimitError
		switch {
		case errors.As(err, &rl):
			stats.RateLimits.Add(1)
			logger.Printf("RATE_LIMIT job=%d status=%d keyword=%q", job.Seq, rl.StatusCode, job.Keyword)
		case errors.Is(err, context.Canceled):
		default:
			logger.Printf("ERROR job=%d lat=%.6f lng=%.6f keyword=%q err=%v",
				job.Seq, job.Point.Lat, job.Point.Lng, job.Keyword, err)
		}
		return model.VisibilityRecord{}, err
	}

	ranks := target.Channels(obs.Organic, obs.LocalPack, obs.Maps)
	rec := model.VisibilityRecord{
		Keyword:       job.Keyword,
		Point:         job.Point,
		OrganicRank:   ranks.Organic,
		LocalPackRank: ranks.LocalPack,
		MapRank:       ranks.Maps,
		ObservedAt:    time.Now().UTC(),
	}
	if rec.OrganicRank != nil || rec.LocalPackRank != nil || rec.MapRank != nil {
		stats.Found.Add(1)
	}
	return rec, nil
}

// batcher buffers records and writes them to the store in batches.
type batcher struct {
	mu      sync.Mutex
	pending []storage.Indexed
	store   *storage.Store
	scanID  string
	size    int
	stats   *Stats
	logger  *log.Logger
}

func (b *batcher) add(ix storage.Indexed) {
	if b.store == nil {
		return
	}
	b.mu.Lock()
	b.pending = append(b.pending, ix)
	var batch []storage.Indexed
	if len(b.pending) >= b.size {
		batch, b.pending = b.pending, nil
	}
	b.mu.Unlock()

	if batch != nil {
		b.write(batch)
	}
}

func (b *batcher) flush() {
	if b.store == nil {
		return
	}
	b.mu.Lock()
	batch := b.pending
	b.pending = nil
	b.mu.Unlock()

	if len(batch) > 0 {
		b.write(batch)
	}
}

func (b *batcher) write(batch []storage.Indexed) {
	n, err := b.store.InsertRecords(b.scanID, batch)
	if err != nil {
		b.stats.Errors.Add(1)
		b.logger.Printf("ERROR storing %d records: %v", len(batch), err)
		return
	}
	b.stats.Stored.Add(int64(n))
}

func reportProgress(stats *Stats, logger *log.Logger, toStderr bool, done <-chan struct{}) {
	startTime := time.Now()
	ticker := time.NewTicker(progressInterval)
	logTicker := time.NewTicker(logProgressInterval)
	defer ticker.Stop()
	defer logTicker.Stop()

	for {
		select {
		case <-ticker.C:
			if !toStderr {
				continue
			}
			elapsed := time.Since(startTime).Truncate(time.Second)
			fmt.Fprintf(os.Stderr, "\r[%d/%d searches] %d ranked | %d errors | %d rate-limited | %s",
				stats.JobsDone.Load(), stats.JobsTotal, stats.Found.Load(),
				stats.Errors.Load(), stats.RateLimits.Load(), elapsed)
		case <-logTicker.C:
			elapsed := time.Since(startTime).Truncate(time.Second)
			logger.Printf("PROGRESS jobs=%d/%d found=%d stored=%d errors=%d rate_limits=%d elapsed=%s",
				stats.JobsDone.Load(), stats.JobsTotal, stats.Found.Load(), stats.Stored.Load(),
				stats.Errors.Load(), stats.RateLimits.Load(), elapsed)
		case <-done:
			return
		}
	}
}
