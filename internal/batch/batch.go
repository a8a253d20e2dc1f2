// Package batch orchestrates synthesis and persistence of the full name
// permutation set against the active TTS provider.
package batch

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/book-expert/logger"
	"github.com/namecast/namecast/internal/core"
	"github.com/namecast/namecast/internal/permutation"
)

// Summary reports the outcome of one batch run.
type Summary struct {
	Total     int  `json:"total"`
	Completed int  `json:"completed"`
	Generated int  `json:"generated"`
	Failed    int  `json:"failed"`
	Cancelled bool `json:"cancelled"`
}

// ProgressFunc is invoked on every item status transition. Index is the
// item's position in the run and total the run size.
type ProgressFunc func(item *permutation.Item, index, total int)

// Runner executes one batch run. Items are processed strictly sequentially
// with a fixed inter-item delay: serializing provider calls keeps the run
// under third-party rate limits, so this is not a place to add concurrency.
type Runner struct {
	synth      core.Synthesizer
	store      core.AudioStore
	delay      time.Duration
	log        *logger.Logger
	onProgress ProgressFunc
	stopped    atomic.Bool
}

// NewRunner creates a runner for one batch run. A runner is single-use:
// create a fresh one per run. onProgress may be nil.
func NewRunner(
	synth core.Synthesizer,
	store core.AudioStore,
	delay time.Duration,
	log *logger.Logger,
	onProgress ProgressFunc,
) *Runner {
	return &Runner{
		synth:      synth,
		store:      store,
		delay:      delay,
		log:        log,
		onProgress: onProgress,
		stopped:    atomic.Bool{},
	}
}

// Stop requests cooperative cancellation. The flag is checked at the top of
// each iteration and again after the inter-item delay, so worst-case
// cancellation latency is one synthesis call plus one delay. The in-flight
// item still reaches a terminal state; unstarted items stay pending.
func (r *Runner) Stop() {
	r.stopped.Store(true)
}

// Run processes every pending item in order and returns a summary. A single
// item's failure never aborts its siblings; only a pre-flight provider
// configuration failure stops the run before any network call is made.
func (r *Runner) Run(ctx context.Context, items []*permutation.Item) Summary {
	summary := Summary{
		Total:     len(items),
		Completed: 0,
		Generated: 0,
		Failed:    0,
		Cancelled: false,
	}

	preflightErr := r.synth.Validate()
	if preflightErr != nil {
		r.log.Error("Provider configuration invalid, aborting batch: %v", preflightErr)

		for index, item := range items {
			item.Status = permutation.StatusError
			item.Err = preflightErr.Error()
			summary.Completed++
			summary.Failed++

			r.notify(item, index, len(items))
		}

		return summary
	}

	for index, item := range items {
		if r.cancelled(ctx) {
			summary.Cancelled = true

			break
		}

		r.processItem(ctx, item, index, &summary)

		if index < len(items)-1 {
			r.sleep(ctx)

			// Second cancellation checkpoint, immediately after the delay.
			if r.cancelled(ctx) {
				summary.Cancelled = true

				break
			}
		}
	}

	r.log.Info("Batch run finished: %d/%d generated, %d failed, cancelled=%t",
		summary.Generated, summary.Total, summary.Failed, summary.Cancelled)

	return summary
}

func (r *Runner) processItem(ctx context.Context, item *permutation.Item, index int, summary *Summary) {
	total := summary.Total

	item.Status = permutation.StatusGenerating
	r.notify(item, index, total)

	payload, err := r.synth.Synthesize(ctx, item.Text)
	if err == nil {
		err = r.store.Put(ctx, item.Text, payload)
	}

	if err != nil {
		item.Status = permutation.StatusError
		item.Err = err.Error()
		summary.Failed++

		r.log.Error("Failed to generate audio for %q: %v", item.Text, err)
	} else {
		item.Status = permutation.StatusGenerated
		item.Payload = payload

		summary.Generated++
	}

	// The progress counter advances regardless of outcome.
	summary.Completed++

	r.notify(item, index, total)
}

func (r *Runner) notify(item *permutation.Item, index, total int) {
	if r.onProgress != nil {
		r.onProgress(item, index, total)
	}
}

func (r *Runner) cancelled(ctx context.Context) bool {
	return r.stopped.Load() || ctx.Err() != nil
}

func (r *Runner) sleep(ctx context.Context) {
	if r.delay <= 0 {
		return
	}

	timer := time.NewTimer(r.delay)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
