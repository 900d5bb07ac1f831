// Package progress provides a best-effort terminal progress display for the
// embedding stage. It observes a counter; it never blocks producers.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

const barWidth = 40

var filledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("36"))

// Tracker periodically reads a monotonically increasing counter and renders
// a progress bar on interactive terminals, or plain counter lines otherwise.
type Tracker struct {
	out      io.Writer
	total    int64
	read     func() int64
	interval time.Duration
	message  string

	once sync.Once
	done chan struct{}
	wg   sync.WaitGroup
	tty  bool
}

// NewTracker creates a tracker over read, which must be safe to call
// concurrently with the work it observes.
func NewTracker(out io.Writer, total int64, read func() int64, message string) *Tracker {
	tty := false
	if f, ok := out.(*os.File); ok {
		tty = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Tracker{
		out:      out,
		total:    total,
		read:     read,
		interval: 100 * time.Millisecond,
		message:  message,
		done:     make(chan struct{}),
		tty:      tty,
	}
}

// Start begins rendering until Stop is called.
func (t *Tracker) Start() {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()
		var lastPlain int64 = -1
		for {
			select {
			case <-ticker.C:
				if t.tty {
					t.renderBar(t.read())
					continue
				}
				// Plain output: only print on change to avoid log spam.
				if cur := t.read(); cur != lastPlain {
					lastPlain = cur
					fmt.Fprintf(t.out, "[EMBED] %d/%d - %s\n", cur, t.total, t.message)
				}
			case <-t.done:
				return
			}
		}
	}()
}

// Stop halts rendering and prints the final state.
func (t *Tracker) Stop() {
	t.once.Do(func() {
		close(t.done)
		t.wg.Wait()
		if t.tty {
			t.renderBar(t.read())
			fmt.Fprintln(t.out)
			return
		}
		fmt.Fprintf(t.out, "[EMBED] %d/%d - done\n", t.read(), t.total)
	})
}

func (t *Tracker) renderBar(current int64) {
	if current > t.total {
		current = t.total
	}
	filled := 0
	if t.total > 0 {
		filled = int(float64(barWidth) * float64(current) / float64(t.total))
	}
	bar := filledStyle.Render(strings.Repeat("#", filled)) + strings.Repeat("-", barWidth-filled)
	fmt.Fprintf(t.out, "\r[%s] %d/%d %s", bar, current, t.total, t.message)
}
