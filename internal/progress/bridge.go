// Package progress throttles the extractor's high-frequency progress
// callbacks down to a rate a chat transport tolerates.
package progress

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/foxyhq/foxyfetch/internal/downloader"
)

const (
	// minInterval and minDelta gate intermediate updates: both must be
	// exceeded before a new message is emitted.
	minInterval = 1500 * time.Millisecond
	minDelta    = 5.0

	bufferSize = 8
)

// Notifier receives formatted progress lines. Implementations edit the
// status message in chat; they may be slow, which is why delivery is
// decoupled through a bounded buffer.
type Notifier func(text string)

// Bridge converts raw extractor progress events into throttled status
// lines. Handle is safe to call from the extractor's worker goroutine;
// lines that cannot be buffered are dropped rather than blocking the
// download.
type Bridge struct {
	logger *slog.Logger
	now    func() time.Time

	mu          sync.Mutex
	lastEmit    time.Time
	lastPercent float64
	closed      bool

	updates chan string
	drained sync.WaitGroup
}

func NewBridge(log *slog.Logger, notify Notifier) *Bridge {
	b := &Bridge{
		logger:      log.With(slog.String("service", "progress")),
		now:         time.Now,
		lastPercent: -1,
		updates:     make(chan string, bufferSize),
	}
	b.drained.Add(1)
	go func() {
		defer b.drained.Done()
		for text := range b.updates {
			notify(text)
		}
	}()
	return b
}

// Handle is the progress hook given to the extractor.
func (b *Bridge) Handle(ev downloader.ProgressEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}

	if ev.Phase == downloader.PhaseFinished {
		if b.lastPercent < 100 {
			b.lastPercent = 100
			b.send(format(100, 0, 0))
		}
		return
	}
	if ev.Phase != downloader.PhaseDownloading || ev.TotalBytes <= 0 {
		return
	}

	percent := float64(ev.DownloadedBytes) / float64(ev.TotalBytes) * 100
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	switch {
	case b.lastPercent < 0:
		// First event always goes out.
	case percent >= 100 && b.lastPercent < 100:
		// Completion always goes out.
	case b.now().Sub(b.lastEmit) >= minInterval && percent-b.lastPercent >= minDelta:
	default:
		return
	}

	b.lastEmit = b.now()
	b.lastPercent = percent
	b.send(format(percent, ev.BytesPerSecond, ev.ETA))
}

// Close stops delivery after draining whatever is already buffered.
func (b *Bridge) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.updates)
	b.mu.Unlock()
	b.drained.Wait()
}

func (b *Bridge) send(text string) {
	select {
	case b.updates <- text:
	default:
		b.logger.Debug("progress update dropped, buffer full")
	}
}

func format(percent, bytesPerSecond float64, eta time.Duration) string {
	text := fmt.Sprintf("🚀 Downloading... %d%%", int(percent))
	if bytesPerSecond > 0 {
		text += " (" + formatSpeed(bytesPerSecond) + ")"
	}
	if eta > 0 {
		text += fmt.Sprintf(" (ETA: %s)", eta.Round(time.Second))
	}
	return text
}

func formatSpeed(bytesPerSecond float64) string {
	switch {
	case bytesPerSecond >= 1<<20:
		return fmt.Sprintf("%.1f MB/s", bytesPerSecond/(1<<20))
	case bytesPerSecond >= 1<<10:
		return fmt.Sprintf("%.1f KB/s", bytesPerSecond/(1<<10))
	default:
		return fmt.Sprintf("%.0f B/s", bytesPerSecond)
	}
}
