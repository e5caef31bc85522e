package worker

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/MeKo-Tech/diamondgrid/internal/rng"
)

const barWidth = 24

// Progress follows a batch render seed by seed. It keeps the seeds that
// failed and the slowest render so the batch can be reported afterwards.
type Progress struct {
	out     io.Writer
	enabled bool
	start   time.Time

	mu         sync.Mutex
	total      int
	completed  int
	rendered   int
	renderTime time.Duration
	last       Result
	slowest    Result
	failed     []rng.Seed
}

// NewProgress creates a tracker drawing to stderr.
func NewProgress(total int, enabled bool) *Progress {
	return NewProgressTo(os.Stderr, total, enabled)
}

// NewProgressTo creates a tracker drawing to w.
func NewProgressTo(w io.Writer, total int, enabled bool) *Progress {
	return &Progress{out: w, enabled: enabled, start: time.Now(), total: total}
}

// Observe records one finished render and redraws the line.
func (p *Progress) Observe(r Result, completed, total int) {
	p.mu.Lock()
	p.completed = completed
	p.total = total
	p.last = r
	if r.Err != nil {
		p.failed = append(p.failed, r.Task.Seed)
	} else {
		p.rendered++
		p.renderTime += r.Elapsed
		if r.Elapsed >= p.slowest.Elapsed {
			p.slowest = r
		}
	}
	line := p.lineLocked()
	p.mu.Unlock()

	if p.enabled {
		fmt.Fprint(p.out, "\r"+line)
	}
}

// Callback adapts Observe for Config.OnProgress.
func (p *Progress) Callback() ProgressFunc {
	return p.Observe
}

// Failed returns the seeds whose render failed, in completion order.
func (p *Progress) Failed() []rng.Seed {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]rng.Seed(nil), p.failed...)
}

// lineLocked formats e.g. "[████░░░░] 4/8 seed 4711 1.2s, 1 failed".
func (p *Progress) lineLocked() string {
	filled := 0
	if p.total > 0 {
		filled = p.completed * barWidth / p.total
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s%s] %d/%d", strings.Repeat("█", filled), strings.Repeat("░", barWidth-filled), p.completed, p.total)

	if p.completed > 0 {
		if p.last.Err != nil {
			fmt.Fprintf(&b, " seed %s failed", p.last.Task.Seed)
		} else {
			fmt.Fprintf(&b, " seed %s %s", p.last.Task.Seed, roundDuration(p.last.Elapsed))
		}
	}
	if n := len(p.failed); n > 0 {
		fmt.Fprintf(&b, ", %d failed", n)
	}

	// clear leftovers of a longer previous line
	b.WriteString("    ")
	return b.String()
}

// Done ends the progress line.
func (p *Progress) Done() {
	if p.enabled {
		fmt.Fprintln(p.out)
	}
}

// Summary describes the finished batch.
func (p *Progress) Summary() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := fmt.Sprintf("Rendered %d/%d seeds in %s", p.rendered, p.total, roundDuration(time.Since(p.start)))
	if p.rendered > 0 {
		avg := p.renderTime / time.Duration(p.rendered)
		s += fmt.Sprintf(" (avg %s per seed, slowest %s at %s)",
			roundDuration(avg), p.slowest.Task.Seed, roundDuration(p.slowest.Elapsed))
	}
	if len(p.failed) > 0 {
		seeds := make([]string, len(p.failed))
		for i, seed := range p.failed {
			seeds[i] = seed.String()
		}
		s += "; failed seeds: " + strings.Join(seeds, ", ")
	}
	return s
}

func roundDuration(d time.Duration) time.Duration {
	if d < time.Second {
		return d.Round(time.Millisecond)
	}
	return d.Round(100 * time.Millisecond)
}
