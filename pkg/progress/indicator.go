// Package progress reports how far a poster run has got.
package progress

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Options configure a progress bar.
type Options struct {
	Writer io.Writer // defaults to os.Stderr
	Quiet  bool      // tracks progress without drawing anything
}

// Tracker counts completed items and draws a progress bar.
type Tracker struct {
	mu        sync.Mutex
	bar       *progressbar.ProgressBar
	total     int
	completed int
	current   string
	startTime time.Time
}

// Stats contains progress statistics
type Stats struct {
	Total      int
	Completed  int
	Current    string
	Elapsed    time.Duration
	Rate       float64 // items per second
	Percentage float64
}

// NewTracker creates a tracker for total items labelled with label.
func NewTracker(total int, label string, opts Options) *Tracker {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	bar := progressbar.NewOptions(total,
		progressbar.OptionSetDescription(label),
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetVisibility(!opts.Quiet),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("img"),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)

	return &Tracker{
		bar:       bar,
		total:     total,
		startTime: time.Now(),
	}
}

// Done marks one item as completed.
func (t *Tracker) Done(item string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.completed++
	t.current = item
	_ = t.bar.Add(1)
}

// Finish completes the bar and moves the cursor past it.
func (t *Tracker) Finish() {
	t.mu.Lock()
	defer t.mu.Unlock()

	_ = t.bar.Finish()
	_ = t.bar.Close()
}

// GetStats returns current progress statistics
func (t *Tracker) GetStats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	elapsed := time.Since(t.startTime)
	rate := 0.0
	if elapsed.Seconds() > 0 {
		rate = float64(t.completed) / elapsed.Seconds()
	}
	percentage := 0.0
	if t.total > 0 {
		percentage = float64(t.completed) / float64(t.total) * 100
	}

	return Stats{
		Total:      t.total,
		Completed:  t.completed,
		Current:    t.current,
		Elapsed:    elapsed,
		Rate:       rate,
		Percentage: percentage,
	}
}
