package worker

import (
	"github.com/book-expert/events"
	"github.com/namecast/namecast/internal/archive"
	"github.com/namecast/namecast/internal/batch"
)

// Command subject suffixes, appended to the configured prefix.
const (
	SubjectBatchGenerate = ".batch.generate"
	SubjectBatchCancel   = ".batch.cancel"
	SubjectCacheStats    = ".cache.stats"
	SubjectCacheClear    = ".cache.clear"
	SubjectSpeechGet     = ".speech.get"
	SubjectArchiveExport = ".archive.export"
	SubjectArchiveImport = ".archive.import"
	SubjectBatchComplete = ".batch.completed"
)

// GenerateReply answers a batch-generate request with the run summary.
type GenerateReply struct {
	OK      bool          `json:"ok"`
	Error   string        `json:"error,omitempty"`
	RunID   string        `json:"run_id,omitempty"`
	Summary batch.Summary `json:"summary"`
}

// CancelReply answers a batch-cancel request. Stopped reports whether a run
// was active when the cancellation arrived.
type CancelReply struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
	Stopped bool   `json:"stopped"`
}

// StatsReply answers a cache-stats request.
type StatsReply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	Count int    `json:"count"`
}

// ClearReply answers a cache-clear request.
type ClearReply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// SpeechRequest asks for the audio of a single utterance.
type SpeechRequest struct {
	Text string `json:"text"`
}

// SpeechReply carries the audio for a single utterance. Cached reports
// whether the payload came from the cache or a fresh synthesis call.
type SpeechReply struct {
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
	Cached bool   `json:"cached"`
	Audio  []byte `json:"audio,omitempty"`
}

// ExportReply carries the exported archive bytes.
type ExportReply struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
	Entries int    `json:"entries"`
	Archive []byte `json:"archive,omitempty"`
}

// ImportRequest carries an uploaded archive to import into the cache.
type ImportRequest struct {
	Archive []byte `json:"archive"`
}

// ImportReply answers an archive-import request with per-entry counts.
type ImportReply struct {
	OK      bool                  `json:"ok"`
	Error   string                `json:"error,omitempty"`
	Summary archive.ImportSummary `json:"summary"`
}

// BatchProgressEvent is published for every item status transition of a
// batch run. The header's workflow ID is the run ID.
type BatchProgressEvent struct {
	Header events.EventHeader `json:"header"`
	Text   string             `json:"text"`
	Index  int                `json:"index"`
	Total  int                `json:"total"`
	Status string             `json:"status"`
	Error  string             `json:"error,omitempty"`
}

// BatchCompletedEvent is published once a batch run finishes, whether it ran
// to completion or was cancelled.
type BatchCompletedEvent struct {
	Header  events.EventHeader `json:"header"`
	Summary batch.Summary      `json:"summary"`
}
