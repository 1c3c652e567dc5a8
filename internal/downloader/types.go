package downloader

import "time"

// Metadata is the subset of the extractor's info dict the bot needs to
// present quality options.
type Metadata struct {
	Title    string
	Duration time.Duration
	Formats  []Format
}

// Format describes one downloadable stream variant.
type Format struct {
	ID         string
	Height     int
	VCodec     string
	ACodec     string
	Preference float64
}

// Phase labels a progress event.
type Phase string

const (
	PhaseDownloading Phase = "downloading"
	PhaseFinished    Phase = "finished"
	PhaseError       Phase = "error"
)

// ProgressEvent describes one synchronous callback from the extractor's
// worker. TotalBytes is zero when the extractor has no size estimate;
// Speed and ETA are zero when unknown. Events are transient and never
// persisted.
type ProgressEvent struct {
	Phase           Phase
	DownloadedBytes int64
	TotalBytes      int64
	BytesPerSecond  float64
	ETA             time.Duration
}

// ProgressFunc receives progress events. It is invoked synchronously
// from the worker goroutine running the blocking extractor, potentially
// many times per second; implementations must not block.
type ProgressFunc func(ProgressEvent)
