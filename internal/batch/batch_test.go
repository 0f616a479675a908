package batch

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func upper(calls *atomic.Int32, sizes chan<- int) Func[string, string] {
	return func(ctx context.Context, items []string) ([]string, error) {
		calls.Add(1)
		if sizes != nil {
			sizes <- len(items)
		}
		out := make([]string, len(items))
		for i, it := range items {
			out[i] = strings.ToUpper(it)
		}
		return out, nil
	}
}

func TestBatchSizeTriggersBeforeDelay(t *testing.T) {
	var calls atomic.Int32
	p := New(upper(&calls, nil), Options{Name: "size", BatchSize: 2, Delay: time.Hour, Logger: zaptest.NewLogger(t)})
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	got := make([]string, 2)
	for i, in := range []string{"a", "b"} {
		wg.Add(1)
		go func(i int, in string) {
			defer wg.Done()
			v, err := p.Add(ctx, in)
			if err != nil {
				t.Errorf("add %q: %v", in, err)
			}
			got[i] = v
		}(i, in)
	}
	wg.Wait()

	if got[0] != "A" || got[1] != "B" {
		t.Fatalf("unexpected results %v", got)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one bulk call, got %d", calls.Load())
	}
}

func TestBatchFlushResolvesPending(t *testing.T) {
	var calls atomic.Int32
	p := New(upper(&calls, nil), Options{BatchSize: 10, Delay: time.Hour})
	defer p.Close()

	a := p.Submit("x")
	b := p.Submit("y")
	if p.QueueSize() != 2 {
		t.Fatalf("expected 2 queued, got %d", p.QueueSize())
	}

	p.Flush()

	ra, rb := <-a, <-b
	if ra.Err != nil || ra.Value != "X" || rb.Err != nil || rb.Value != "Y" {
		t.Fatalf("unexpected results %+v %+v", ra, rb)
	}
	if p.QueueSize() != 0 {
		t.Fatalf("queue should be empty after flush")
	}
}

func TestBatchDelayTrigger(t *testing.T) {
	var calls atomic.Int32
	sizes := make(chan int, 4)
	p := New(upper(&calls, sizes), Options{BatchSize: 100, Delay: 20 * time.Millisecond})
	defer p.Close()

	start := time.Now()
	a := p.Submit("a")
	b := p.Submit("b")

	select {
	case <-a:
	case <-time.After(2 * time.Second):
		t.Fatalf("delay flush never happened")
	}
	<-b
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Fatalf("flushed before delay: %v", elapsed)
	}
	if n := <-sizes; n != 2 {
		t.Fatalf("expected both items in one batch, got %d", n)
	}
}

func TestBatchErrorRejectsAllAndRecovers(t *testing.T) {
	boom := errors.New("boom")
	var fail atomic.Bool
	fail.Store(true)

	p := New[int, int](func(ctx context.Context, items []int) ([]int, error) {
		if fail.Load() {
			return nil, boom
		}
		return items, nil
	}, Options{BatchSize: 10, Delay: time.Hour})
	defer p.Close()

	chs := []<-chan Result[int]{p.Submit(1), p.Submit(2), p.Submit(3)}
	p.Flush()
	for _, ch := range chs {
		if r := <-ch; !errors.Is(r.Err, boom) {
			t.Fatalf("expected boom, got %+v", r)
		}
	}

	fail.Store(false)
	ch := p.Submit(4)
	p.Flush()
	if r := <-ch; r.Err != nil || r.Value != 4 {
		t.Fatalf("next batch should start clean, got %+v", r)
	}
}

func TestBatchResultCountMismatch(t *testing.T) {
	p := New[int, int](func(ctx context.Context, items []int) ([]int, error) {
		return items[:1], nil
	}, Options{BatchSize: 10, Delay: time.Hour})
	defer p.Close()

	a, b := p.Submit(1), p.Submit(2)
	p.Flush()
	if r := <-a; !errors.Is(r.Err, ErrResultCount) {
		t.Fatalf("expected ErrResultCount, got %+v", r)
	}
	if r := <-b; !errors.Is(r.Err, ErrResultCount) {
		t.Fatalf("expected ErrResultCount, got %+v", r)
	}
}

func TestBatchPanicBecomesError(t *testing.T) {
	p := New[int, int](func(ctx context.Context, items []int) ([]int, error) {
		panic("kaboom")
	}, Options{BatchSize: 10, Delay: time.Hour})
	defer p.Close()

	ch := p.Submit(1)
	p.Flush()
	if r := <-ch; r.Err == nil || !strings.Contains(r.Err.Error(), "kaboom") {
		t.Fatalf("expected panic error, got %+v", r)
	}
}

func TestBatchCloseFlushesAndRejects(t *testing.T) {
	var calls atomic.Int32
	p := New(upper(&calls, nil), Options{BatchSize: 10, Delay: time.Hour})

	ch := p.Submit("q")
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if r := <-ch; r.Err != nil || r.Value != "Q" {
		t.Fatalf("close should flush pending items, got %+v", r)
	}

	if _, err := p.Add(context.Background(), "late"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestBatchAddCallerCancel(t *testing.T) {
	var calls atomic.Int32
	p := New(upper(&calls, nil), Options{BatchSize: 10, Delay: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Add(ctx, "z"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	// the abandoned item still runs with the batch
	p.Close()
	if calls.Load() != 1 {
		t.Fatalf("expected the queued item to be processed, calls=%d", calls.Load())
	}
}
