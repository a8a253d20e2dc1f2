// Package worker provides a NATS worker that serves the audio-cache command
// surface: batch generation with cancellation, single-utterance playback
// lookups, cache maintenance, and archive import/export.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/book-expert/events"
	"github.com/book-expert/logger"
	"github.com/google/uuid"
	"github.com/namecast/namecast/internal/archive"
	"github.com/namecast/namecast/internal/batch"
	"github.com/namecast/namecast/internal/core"
	"github.com/namecast/namecast/internal/permutation"
	"github.com/nats-io/nats.go"
)

// Static errors.
var (
	// ErrBatchActive indicates that a generate request arrived while a run
	// was already in progress.
	ErrBatchActive = errors.New("a batch run is already active")
	// ErrTextRequired indicates a speech request without text.
	ErrTextRequired = errors.New("text is required")
)

// NatsWorker listens for audio-cache commands on NATS subjects and serves
// them against the store and the active provider.
type NatsWorker struct {
	natsConnection  *nats.Conn
	subjectPrefix   string
	progressSubject string
	store           core.AudioStore
	synth           core.Synthesizer
	names           []permutation.Name
	delay           time.Duration
	log             *logger.Logger

	mu     sync.Mutex
	active *batch.Runner

	runCtx context.Context
}

// NewNatsWorker creates a new instance of a NATS worker.
func NewNatsWorker(
	natsConnection *nats.Conn,
	subjectPrefix string,
	progressSubject string,
	store core.AudioStore,
	synth core.Synthesizer,
	names []permutation.Name,
	delay time.Duration,
	log *logger.Logger,
) (*NatsWorker, error) {
	return &NatsWorker{
		natsConnection:  natsConnection,
		subjectPrefix:   subjectPrefix,
		progressSubject: progressSubject,
		store:           store,
		synth:           synth,
		names:           names,
		delay:           delay,
		log:             log,
		mu:              sync.Mutex{},
		active:          nil,
		runCtx:          context.Background(),
	}, nil
}

// Run starts the worker and begins listening for commands. It blocks until
// the context is cancelled, then drains all subscriptions.
func (w *NatsWorker) Run(ctx context.Context) error {
	w.runCtx = ctx

	handlers := map[string]nats.MsgHandler{
		w.subjectPrefix + SubjectBatchGenerate: w.handleGenerate,
		w.subjectPrefix + SubjectBatchCancel:   w.handleCancel,
		w.subjectPrefix + SubjectCacheStats:    w.handleStats,
		w.subjectPrefix + SubjectCacheClear:    w.handleClear,
		w.subjectPrefix + SubjectSpeechGet:     w.handleSpeech,
		w.subjectPrefix + SubjectArchiveExport: w.handleExport,
		w.subjectPrefix + SubjectArchiveImport: w.handleImport,
	}

	subscriptions := make([]*nats.Subscription, 0, len(handlers))

	for subject, handler := range handlers {
		sub, err := w.natsConnection.Subscribe(subject, handler)
		if err != nil {
			return fmt.Errorf("failed to subscribe to subject %s: %w", subject, err)
		}

		subscriptions = append(subscriptions, sub)
	}

	<-ctx.Done()

	for _, sub := range subscriptions {
		drainErr := sub.Drain()
		if drainErr != nil {
			return fmt.Errorf("failed to drain subscription %s: %w", sub.Subject, drainErr)
		}
	}

	return nil
}

func (w *NatsWorker) handleGenerate(msg *nats.Msg) {
	runID := uuid.NewString()

	runner, err := w.beginRun(runID)
	if err != nil {
		w.respond(msg, GenerateReply{OK: false, Error: err.Error(), RunID: "", Summary: batch.Summary{}})

		return
	}

	items := permutation.Build(w.names)
	summary := runner.Run(w.runCtx, items)

	w.endRun()
	w.publishCompleted(runID, summary)

	w.respond(msg, GenerateReply{OK: true, Error: "", RunID: runID, Summary: summary})
}

func (w *NatsWorker) beginRun(runID string) (*batch.Runner, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.active != nil {
		return nil, ErrBatchActive
	}

	runner := batch.NewRunner(w.synth, w.store, w.delay, w.log, w.progressPublisher(runID))
	w.active = runner

	return runner, nil
}

func (w *NatsWorker) endRun() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.active = nil
}

func (w *NatsWorker) handleCancel(msg *nats.Msg) {
	w.mu.Lock()

	stopped := false

	if w.active != nil {
		w.active.Stop()

		stopped = true
	}

	w.mu.Unlock()

	w.log.Info("Batch cancellation requested, run active: %t", stopped)
	w.respond(msg, CancelReply{OK: true, Error: "", Stopped: stopped})
}

func (w *NatsWorker) handleStats(msg *nats.Msg) {
	count, err := w.store.Count(w.runCtx)
	if err != nil {
		w.respond(msg, StatsReply{OK: false, Error: err.Error(), Count: 0})

		return
	}

	w.respond(msg, StatsReply{OK: true, Error: "", Count: count})
}

func (w *NatsWorker) handleClear(msg *nats.Msg) {
	err := w.store.Clear(w.runCtx)
	if err != nil {
		w.respond(msg, ClearReply{OK: false, Error: err.Error()})

		return
	}

	w.log.Info("Audio cache cleared")
	w.respond(msg, ClearReply{OK: true, Error: ""})
}

// handleSpeech serves the playback path: a cache hit returns the stored
// payload; a miss synthesizes, persists, and returns the fresh payload. A
// failed persistence is logged but does not withhold the audio.
func (w *NatsWorker) handleSpeech(msg *nats.Msg) {
	var req SpeechRequest

	err := json.Unmarshal(msg.Data, &req)
	if err != nil {
		w.respond(msg, SpeechReply{OK: false, Error: err.Error(), Cached: false, Audio: nil})

		return
	}

	if req.Text == "" {
		w.respond(msg, SpeechReply{OK: false, Error: ErrTextRequired.Error(), Cached: false, Audio: nil})

		return
	}

	payload, err := w.store.Get(w.runCtx, req.Text)
	if err == nil {
		w.respond(msg, SpeechReply{OK: true, Error: "", Cached: true, Audio: payload})

		return
	}

	if !errors.Is(err, core.ErrNotFound) {
		w.respond(msg, SpeechReply{OK: false, Error: err.Error(), Cached: false, Audio: nil})

		return
	}

	payload, err = w.synth.Synthesize(w.runCtx, req.Text)
	if err != nil {
		w.respond(msg, SpeechReply{OK: false, Error: err.Error(), Cached: false, Audio: nil})

		return
	}

	putErr := w.store.Put(w.runCtx, req.Text, payload)
	if putErr != nil {
		w.log.Warn("Failed to cache synthesized audio for %q: %v", req.Text, putErr)
	}

	w.respond(msg, SpeechReply{OK: true, Error: "", Cached: false, Audio: payload})
}

func (w *NatsWorker) handleExport(msg *nats.Msg) {
	keys, err := w.store.Keys(w.runCtx)
	if err != nil {
		w.respond(msg, ExportReply{OK: false, Error: err.Error(), Entries: 0, Archive: nil})

		return
	}

	entries := make([]archive.Entry, 0, len(keys))

	for _, key := range keys {
		payload, getErr := w.store.Get(w.runCtx, key)
		if getErr != nil {
			w.log.Warn("Skipping export of %q: %v", key, getErr)

			continue
		}

		entries = append(entries, archive.Entry{Text: key, Payload: payload})
	}

	data, err := archive.Export(entries)
	if err != nil {
		w.respond(msg, ExportReply{OK: false, Error: err.Error(), Entries: 0, Archive: nil})

		return
	}

	w.log.Info("Exported %d cached entries (%d bytes)", len(entries), len(data))
	w.respond(msg, ExportReply{OK: true, Error: "", Entries: len(entries), Archive: data})
}

func (w *NatsWorker) handleImport(msg *nats.Msg) {
	var req ImportRequest

	err := json.Unmarshal(msg.Data, &req)
	if err != nil {
		w.respond(msg, ImportReply{OK: false, Error: err.Error(), Summary: archive.ImportSummary{}})

		return
	}

	summary, err := archive.Import(w.runCtx, req.Archive, w.store, w.log)
	if err != nil {
		w.respond(msg, ImportReply{OK: false, Error: err.Error(), Summary: summary})

		return
	}

	w.respond(msg, ImportReply{OK: true, Error: "", Summary: summary})
}

func (w *NatsWorker) progressPublisher(runID string) batch.ProgressFunc {
	return func(item *permutation.Item, index, total int) {
		event := BatchProgressEvent{
			Header: w.newHeader(runID),
			Text:   item.Text,
			Index:  index,
			Total:  total,
			Status: item.Status.String(),
			Error:  item.Err,
		}

		data, err := json.Marshal(event)
		if err != nil {
			w.log.Error("Failed to marshal progress event: %v", err)

			return
		}

		publishErr := w.natsConnection.Publish(w.progressSubject, data)
		if publishErr != nil {
			w.log.Error("Failed to publish progress event: %v", publishErr)
		}
	}
}

func (w *NatsWorker) publishCompleted(runID string, summary batch.Summary) {
	event := BatchCompletedEvent{
		Header:  w.newHeader(runID),
		Summary: summary,
	}

	data, err := json.Marshal(event)
	if err != nil {
		w.log.Error("Failed to marshal completion event: %v", err)

		return
	}

	publishErr := w.natsConnection.Publish(w.subjectPrefix+SubjectBatchComplete, data)
	if publishErr != nil {
		w.log.Error("Failed to publish completion event: %v", publishErr)
	}
}

func (w *NatsWorker) newHeader(runID string) events.EventHeader {
	return events.EventHeader{
		Timestamp:  time.Now(),
		WorkflowID: runID,
		EventID:    uuid.NewString(),
		UserID:     "",
		TenantID:   "",
	}
}

func (w *NatsWorker) respond(msg *nats.Msg, reply any) {
	data, err := json.Marshal(reply)
	if err != nil {
		w.log.Error("Failed to marshal reply: %v", err)

		return
	}

	respondErr := msg.Respond(data)
	if respondErr != nil {
		w.log.Error("Failed to publish reply: %v", respondErr)
	}
}
