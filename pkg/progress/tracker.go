// Package progress reports byte-level progress for long-running pack,
// unpack, and extract operations. Reports go to stderr so command
// output on stdout stays clean.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

var (
	mu        sync.Mutex
	running   bool
	quiet     bool
	stopCh    chan struct{}
	total     atomic.Uint64
	processed atomic.Uint64
)

// Init starts the background reporter. Calling Init while a reporter
// is already running resets the counters and adopts the new total
// without spawning a second reporter.
func Init(totalBytes uint64) {
	mu.Lock()
	defer mu.Unlock()

	total.Store(totalBytes)
	processed.Store(0)
	if running {
		return
	}

	stopCh = make(chan struct{})
	running = true
	if !quiet {
		go report(stopCh)
	}
}

// Stop ends progress reporting. Safe to call when nothing is running.
func Stop() {
	mu.Lock()
	defer mu.Unlock()

	if running {
		close(stopCh)
		running = false
	}
}

// SetQuiet suppresses all reporter output; used by tests.
func SetQuiet(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	quiet = enabled
}

// AddBytes records n processed bytes.
func AddBytes(n uint64) {
	if n > 0 {
		processed.Add(n)
	}
}

// Processed returns the number of bytes recorded since the last Init.
func Processed() uint64 {
	return processed.Load()
}

func report(stop chan struct{}) {
	const interval = 500 * time.Millisecond
	start := time.Now()
	tick := time.NewTicker(interval)
	defer tick.Stop()

	var last uint64
	for {
		select {
		case <-tick.C:
			cur := processed.Load()
			rate := uint64(float64(cur-last) / interval.Seconds())
			last = cur
			if t := total.Load(); t > 0 {
				pct := float64(cur) / float64(t) * 100
				fmt.Fprintf(os.Stderr, "%s of %s (%.1f%%) at %s/s\n",
					humanBytes(cur), humanBytes(t), pct, humanBytes(rate))
			} else {
				fmt.Fprintf(os.Stderr, "%s at %s/s\n", humanBytes(cur), humanBytes(rate))
			}
		case <-stop:
			elapsed := time.Since(start).Seconds()
			if elapsed < 0.001 {
				elapsed = 0.001
			}
			avg := uint64(float64(processed.Load()) / elapsed)
			fmt.Fprintf(os.Stderr, "done: %s in %.1fs (avg %s/s)\n",
				humanBytes(processed.Load()), elapsed, humanBytes(avg))
			return
		}
	}
}

// humanBytes renders a byte count with a binary-prefix unit.
func humanBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for rest := n / unit; rest >= unit; rest /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// Writer counts the bytes it forwards to W.
type Writer struct {
	W io.Writer
}

func (w *Writer) Write(p []byte) (int, error) {
	n, err := w.W.Write(p)
	if n > 0 {
		AddBytes(uint64(n))
	}
	return n, err
}
