// Package worker renders batches of seeds in parallel.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/MeKo-Tech/diamondgrid/internal/rng"
)

// Generator renders one seed. pipeline.Generator satisfies it.
type Generator interface {
	Generate(ctx context.Context, seed rng.Seed, force bool) (path string, err error)
}

// Task is a single render.
type Task struct {
	Seed  rng.Seed
	Force bool
}

// Result is the outcome of a task.
type Result struct {
	Task    Task
	Path    string
	Err     error
	Elapsed time.Duration
}

// ProgressFunc is called once per finished task, in completion order, with the
// number of tasks finished so far.
type ProgressFunc func(r Result, completed, total int)

// Config configures the worker pool.
type Config struct {
	Workers    int
	Generator  Generator
	OnProgress ProgressFunc
}

// Pool fans whole renders out over a fixed number of goroutines. A single
// render never spans workers.
type Pool struct {
	workers    int
	generator  Generator
	onProgress ProgressFunc
}

// New creates a worker pool with at least one worker.
func New(cfg Config) *Pool {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	return &Pool{
		workers:    workers,
		generator:  cfg.Generator,
		onProgress: cfg.OnProgress,
	}
}

// TasksForSeeds builds one task per seed.
func TasksForSeeds(seeds []rng.Seed, force bool) []Task {
	tasks := make([]Task, len(seeds))
	for i, s := range seeds {
		tasks[i] = Task{Seed: s, Force: force}
	}
	return tasks
}

// FreshSeeds draws n new seeds, skipping duplicates.
func FreshSeeds(n int) []rng.Seed {
	seen := make(map[rng.Seed]struct{}, n)
	seeds := make([]rng.Seed, 0, n)
	for len(seeds) < n {
		s := rng.NewSeed()
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		seeds = append(seeds, s)
	}
	return seeds
}

// Run executes all tasks and blocks until they finish or ctx is cancelled.
// Tasks not started before cancellation are reported with ctx.Err().
func (p *Pool) Run(ctx context.Context, tasks []Task) []Result {
	if len(tasks) == 0 {
		return nil
	}

	taskCh := make(chan Task, len(tasks))
	resultCh := make(chan Result, len(tasks))

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.worker(ctx, taskCh, resultCh)
		}()
	}

	for _, task := range tasks {
		taskCh <- task
	}
	close(taskCh)

	results := make([]Result, 0, len(tasks))
	done := make(chan struct{})

	go func() {
		for result := range resultCh {
			results = append(results, result)
			if p.onProgress != nil {
				p.onProgress(result, len(results), len(tasks))
			}
		}
		close(done)
	}()

	wg.Wait()
	close(resultCh)
	<-done

	return results
}

func (p *Pool) worker(ctx context.Context, tasks <-chan Task, results chan<- Result) {
	for task := range tasks {
		if err := ctx.Err(); err != nil {
			results <- Result{Task: task, Err: err}
			continue
		}

		start := time.Now()
		path, err := p.generator.Generate(ctx, task.Seed, task.Force)

		results <- Result{
			Task:    task,
			Path:    path,
			Err:     err,
			Elapsed: time.Since(start),
		}
	}
}
