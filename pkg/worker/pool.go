// Package worker provides an asynchronous worker pool that runs model round
// trips off the caller's goroutine.
//
// The pool decouples the provider call from the tree mutation path: the user
// node is committed first, the compiled context is enqueued here, and the
// reply re-enters the tree through the job's Done callback.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/papercomputeco/arbor/pkg/llm"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 64
)

// ErrPoolClosed is returned by Enqueue after Close.
var ErrPoolClosed = errors.New("worker pool closed")

// ErrQueueFull is returned by Enqueue when the job was dropped.
var ErrQueueFull = errors.New("worker queue full, job dropped")

// Job is a unit of work for the worker pool to execute against.
type Job struct {
	// ParentID is the user node the reply attaches under.
	ParentID string

	// Messages is the compiled context, prompt last.
	Messages []llm.Message

	Options llm.Options

	// Done receives the result. It runs on the worker goroutine.
	Done func(Result)
}

// Result is the outcome of one round trip.
type Result struct {
	ParentID string
	Text     string
	Model    string
	Elapsed  time.Duration
	Err      error
}

// Config is the configuration options for the worker pool.
type Config struct {
	// Call sends a compiled context to the model.
	Call llm.CallFunc

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 64).
	QueueSize uint

	// Timeout bounds each round trip. Zero means no limit.
	Timeout time.Duration

	Logger *slog.Logger
}

// Pool processes model round trips asynchronously via a worker pool.
type Pool struct {
	config *Config
	queue  chan Job
	wg     sync.WaitGroup
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.Call == nil {
		return nil, errors.New("worker pool requires a CallFunc")
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	if c.Logger == nil {
		c.Logger = slog.Default()
	}

	wp := &Pool{
		config: c,
		queue:  make(chan Job, c.QueueSize),
		logger: c.Logger,
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// Enqueue submits a job for processing by the worker pool. It never blocks:
// a full queue drops the job and returns ErrQueueFull.
func (p *Pool) Enqueue(job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.queue <- job:
		p.logger.Debug("job queued",
			"parent_id", job.ParentID,
			"model", job.Options.Model,
			"messages", len(job.Messages),
		)
		return nil
	default:
		p.logger.Error("job not queued, queue full, job dropped",
			"parent_id", job.ParentID,
			"model", job.Options.Model,
		)
		return ErrQueueFull
	}
}

// Close signals workers to stop and waits for in-flight jobs to drain.
// Queued jobs still run and deliver their results.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
}

// worker is the inner worker thread that continuously pulls jobs off the jobs queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("worker started", "worker_id", id)

	for job := range p.queue {
		p.processJob(job)
	}

	p.logger.Debug("worker stopped", "worker_id", id)
}

// processJob runs one round trip and hands the result to the job.
func (p *Pool) processJob(job Job) {
	ctx := context.Background()
	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := p.config.Call(ctx, job.Messages, job.Options)

	res := Result{
		ParentID: job.ParentID,
		Text:     text,
		Model:    job.Options.Model,
		Elapsed:  time.Since(start),
		Err:      err,
	}

	if err != nil {
		p.logger.Error("model round trip failed",
			"parent_id", job.ParentID,
			"model", job.Options.Model,
			"error", err,
		)
	} else {
		p.logger.Info("reply received",
			"parent_id", job.ParentID,
			"model", job.Options.Model,
			"elapsed", res.Elapsed,
		)
	}

	if job.Done != nil {
		job.Done(res)
	}
}
