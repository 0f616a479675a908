// Package batch coalesces single-item requests into bulk computations.
package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"saju-engine/internal/metrics"
)

var (
	// ErrClosed is returned for items added after Close.
	ErrClosed = errors.New("batch: processor closed")
	// ErrResultCount rejects a batch whose bulk function returned the wrong number of results.
	ErrResultCount = errors.New("batch: result count does not match item count")
)

const (
	DefaultBatchSize = 10
	DefaultDelay     = 50 * time.Millisecond
)

// Func computes results for items; results[i] belongs to items[i].
type Func[T any, R any] func(ctx context.Context, items []T) ([]R, error)

// Result is delivered once per submitted item.
type Result[R any] struct {
	Value R
	Err   error
}

// Options configures a Processor.
type Options struct {
	Name string
	// BatchSize triggers an immediate flush once that many items are queued.
	BatchSize int
	// Delay is measured from the first item of the current batch.
	Delay  time.Duration
	Logger *zap.Logger
}

type pending[T any, R any] struct {
	item T
	ch   chan Result[R]
}

// Processor queues items and runs them through a bulk Func, either when
// BatchSize items are queued or Delay after the first item of the batch.
type Processor[T any, R any] struct {
	fn     Func[T, R]
	name   string
	size   int
	delay  time.Duration
	logger *zap.Logger

	mu     sync.Mutex
	queue  []pending[T, R]
	timer  *time.Timer
	gen    uint64
	closed bool

	running sync.WaitGroup
}

// New creates a processor. No goroutine runs until items arrive.
func New[T any, R any](fn Func[T, R], opts Options) *Processor[T, R] {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Name == "" {
		opts.Name = "batch"
	}
	return &Processor[T, R]{
		fn:     fn,
		name:   opts.Name,
		size:   opts.BatchSize,
		delay:  opts.Delay,
		logger: opts.Logger.Named("batch").With(zap.String("processor", opts.Name)),
	}
}

// Add queues item and waits for its result. If ctx ends first, Add returns
// ctx.Err(); the batch still runs for the other items.
func (p *Processor[T, R]) Add(ctx context.Context, item T) (R, error) {
	select {
	case res := <-p.Submit(item):
		return res.Value, res.Err
	case <-ctx.Done():
		var zero R
		return zero, ctx.Err()
	}
}

// Submit queues item and returns a channel that receives exactly one Result.
func (p *Processor[T, R]) Submit(item T) <-chan Result[R] {
	ch := make(chan Result[R], 1)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		ch <- Result[R]{Err: ErrClosed}
		return ch
	}

	p.queue = append(p.queue, pending[T, R]{item: item, ch: ch})
	if len(p.queue) >= p.size {
		batch := p.takeLocked()
		p.running.Add(1)
		p.mu.Unlock()

		go func() {
			defer p.running.Done()
			p.run(batch, "size")
		}()
		return ch
	}

	if len(p.queue) == 1 {
		gen := p.gen
		p.timer = time.AfterFunc(p.delay, func() { p.flushGen(gen) })
	}
	p.mu.Unlock()
	return ch
}

// Flush processes whatever is queued now and returns once every item in that
// batch has its result.
func (p *Processor[T, R]) Flush() {
	p.mu.Lock()
	batch := p.takeLocked()
	p.mu.Unlock()

	p.run(batch, "manual")
}

// QueueSize is the number of items waiting for the next batch.
func (p *Processor[T, R]) QueueSize() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// Close flushes the queue, waits for running batches and rejects later items
// with ErrClosed. Safe to call more than once.
func (p *Processor[T, R]) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	batch := p.takeLocked()
	p.mu.Unlock()

	p.run(batch, "manual")
	p.running.Wait()
	return nil
}

func (p *Processor[T, R]) flushGen(gen uint64) {
	p.mu.Lock()
	if gen != p.gen {
		// batch already taken by size trigger or Flush
		p.mu.Unlock()
		return
	}
	batch := p.takeLocked()
	p.running.Add(1)
	p.mu.Unlock()

	defer p.running.Done()
	p.run(batch, "delay")
}

// takeLocked detaches the current queue and starts a new generation.
func (p *Processor[T, R]) takeLocked() []pending[T, R] {
	batch := p.queue
	p.queue = nil
	p.gen++
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	return batch
}

func (p *Processor[T, R]) run(batch []pending[T, R], trigger string) {
	if len(batch) == 0 {
		return
	}

	batchID := uuid.NewString()
	start := time.Now()

	items := make([]T, len(batch))
	for i, pd := range batch {
		items[i] = pd.item
	}

	results, err := p.call(items)
	if err == nil && len(results) != len(items) {
		err = fmt.Errorf("%w: got %d results for %d items", ErrResultCount, len(results), len(items))
	}

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.BatchSize.WithLabelValues(p.name).Observe(float64(len(items)))
	metrics.BatchFlushesTotal.WithLabelValues(p.name, trigger, outcome).Inc()

	fields := []zap.Field{
		zap.String("batch_id", batchID),
		zap.String("trigger", trigger),
		zap.Int("batch_size", len(items)),
		zap.Float64("latency_ms", float64(time.Since(start).Microseconds())/1000.0),
	}
	if err != nil {
		p.logger.Warn("batch_failed", append(fields, zap.Error(err))...)
	} else {
		p.logger.Debug("batch_done", fields...)
	}

	for i, pd := range batch {
		if err != nil {
			pd.ch <- Result[R]{Err: err}
			continue
		}
		pd.ch <- Result[R]{Value: results[i]}
	}
}

// call turns a panic in the bulk function into a batch error.
func (p *Processor[T, R]) call(items []T) (results []R, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("batch: bulk function panicked: %v", rec)
		}
	}()
	return p.fn(context.Background(), items)
}
