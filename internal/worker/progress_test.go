package worker

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/diamondgrid/internal/rng"
)

func okResult(seed rng.Seed, elapsed time.Duration) Result {
	return Result{Task: Task{Seed: seed}, Path: "diamonds-" + seed.String() + ".png", Elapsed: elapsed}
}

func failedResult(seed rng.Seed) Result {
	return Result{Task: Task{Seed: seed}, Err: errors.New("boom")}
}

func TestProgressLineShowsLatestSeed(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressTo(&buf, 4, true)

	p.Observe(okResult("4711", 1200*time.Millisecond), 1, 4)
	assert.Contains(t, buf.String(), "] 1/4 seed 4711 1.2s")
	assert.True(t, strings.HasPrefix(buf.String(), "\r["))

	buf.Reset()
	p.Observe(failedResult("13"), 2, 4)
	line := buf.String()
	assert.Contains(t, line, "] 2/4 seed 13 failed, 1 failed")
	assert.Equal(t, barWidth/2, strings.Count(line, "█"))
}

func TestProgressDisabledWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressTo(&buf, 2, false)

	p.Observe(okResult("1", time.Second), 1, 2)
	p.Done()

	assert.Zero(t, buf.Len())
}

func TestProgressFailedSeeds(t *testing.T) {
	p := NewProgressTo(&bytes.Buffer{}, 3, false)

	p.Observe(failedResult("7"), 1, 3)
	p.Observe(okResult("8", time.Second), 2, 3)
	p.Observe(failedResult("9"), 3, 3)

	got := p.Failed()
	require.Equal(t, []rng.Seed{"7", "9"}, got)

	got[0] = "changed"
	assert.Equal(t, rng.Seed("7"), p.Failed()[0])
}

func TestProgressSummary(t *testing.T) {
	p := NewProgressTo(&bytes.Buffer{}, 4, false)

	p.Observe(okResult("1", 1*time.Second), 1, 4)
	p.Observe(okResult("2", 3*time.Second), 2, 4)
	p.Observe(failedResult("3"), 3, 4)
	p.Observe(okResult("4", 2*time.Second), 4, 4)

	s := p.Summary()
	assert.True(t, strings.HasPrefix(s, "Rendered 3/4 seeds in "), s)
	assert.Contains(t, s, "(avg 2s per seed, slowest 2 at 3s)")
	assert.True(t, strings.HasSuffix(s, "; failed seeds: 3"), s)
}

func TestProgressSummaryNothingRendered(t *testing.T) {
	p := NewProgressTo(&bytes.Buffer{}, 1, false)
	p.Observe(failedResult("5"), 1, 1)

	s := p.Summary()
	assert.NotContains(t, s, "avg")
	assert.Contains(t, s, "Rendered 0/1 seeds")
}

func TestProgressZeroTotal(t *testing.T) {
	p := NewProgressTo(&bytes.Buffer{}, 0, true)

	p.mu.Lock()
	line := p.lineLocked()
	p.mu.Unlock()

	assert.Contains(t, line, "] 0/0")
	assert.Equal(t, barWidth, strings.Count(line, "░"))
}

func TestProgressWithPool(t *testing.T) {
	gen := &mockGenerator{failSeeds: map[rng.Seed]bool{"2": true}}
	p := NewProgressTo(&bytes.Buffer{}, 3, false)

	pool := New(Config{Workers: 2, Generator: gen, OnProgress: p.Callback()})
	pool.Run(context.Background(), TasksForSeeds(seeds("1", "2", "3"), false))

	assert.Equal(t, []rng.Seed{"2"}, p.Failed())
	assert.Contains(t, p.Summary(), "Rendered 2/3 seeds")
}
