package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

type funcJob struct {
	name string
	fn   func()
}

func (f funcJob) Run()         { f.fn() }
func (f funcJob) Name() string { return f.name }

func TestBrokerRunsDispatchedJobs(t *testing.T) {
	b := NewBroker(BrokerConfig{Workers: 2, QueueSize: 10}, nil, zap.NewNop())
	var ran int32
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		ok := b.Dispatch(funcJob{name: "count", fn: func() {
			atomic.AddInt32(&ran, 1)
			wg.Done()
		}})
		if !ok {
			t.Fatalf("dispatch %d rejected", i)
		}
	}
	wg.Wait()
	b.Stop(context.Background())
	if got := atomic.LoadInt32(&ran); got != 5 {
		t.Fatalf("expected 5 runs, got %d", got)
	}
}

func TestBrokerDropsWhenQueueFull(t *testing.T) {
	b := NewBroker(BrokerConfig{Workers: 1, QueueSize: 1}, nil, zap.NewNop())
	started := make(chan struct{})
	release := make(chan struct{})
	b.Dispatch(funcJob{name: "blocker", fn: func() {
		close(started)
		<-release
	}})
	<-started

	var queuedRan int32
	if !b.Dispatch(funcJob{name: "queued", fn: func() { atomic.StoreInt32(&queuedRan, 1) }}) {
		t.Fatal("second job should fit in the queue")
	}
	done := make(chan bool, 1)
	go func() { done <- b.Dispatch(funcJob{name: "overflow", fn: func() {}}) }()
	select {
	case ok := <-done:
		if ok {
			t.Fatal("overflow job should have been dropped")
		}
	case <-time.After(time.Second):
		t.Fatal("Dispatch blocked on a full queue")
	}

	close(release)
	b.Stop(context.Background())
	if atomic.LoadInt32(&queuedRan) != 1 {
		t.Fatal("queued job did not run before stop returned")
	}
	if b.Dispatch(funcJob{name: "late", fn: func() {}}) {
		t.Fatal("dispatch after stop should be rejected")
	}
}

func TestBrokerRecoversFromPanics(t *testing.T) {
	b := NewBroker(BrokerConfig{Workers: 1, QueueSize: 4}, nil, zap.NewNop())
	b.Dispatch(funcJob{name: "boom", fn: func() { panic("boom") }})
	var ran int32
	b.Dispatch(funcJob{name: "after", fn: func() { atomic.StoreInt32(&ran, 1) }})
	b.Stop(context.Background())
	if atomic.LoadInt32(&ran) != 1 {
		t.Fatal("worker died after a panicking job")
	}
}

func TestMailJobSwallowsErrors(t *testing.T) {
	var mu sync.Mutex
	var sent []string
	send := func(to, subject, body string) error {
		mu.Lock()
		sent = append(sent, to)
		mu.Unlock()
		if to == "bad@example.com" {
			return errors.New("smtp down")
		}
		return nil
	}
	b := NewBroker(BrokerConfig{Workers: 1, QueueSize: 4}, send, zap.NewNop())
	b.DispatchMail("bad@example.com", "s", "b")
	b.DispatchMail("good@example.com", "s", "b")
	b.Stop(context.Background())

	mu.Lock()
	defer mu.Unlock()
	if len(sent) != 2 {
		t.Fatalf("expected 2 deliveries attempted, got %v", sent)
	}
}

type fakePurger struct {
	cutoff time.Time
	n      int64
}

func (f *fakePurger) DeleteReadBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return f.n, nil
}

type fakeSweeper struct{ calls int }

func (f *fakeSweeper) Sweep() int { f.calls++; return 2 }

func TestPeriodicJobs(t *testing.T) {
	p := &fakePurger{n: 3}
	job := NewInboxRetentionJob(p, 48*time.Hour, zap.NewNop())
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	job.now = func() time.Time { return now }
	job.Run()
	if want := now.Add(-48 * time.Hour); !p.cutoff.Equal(want) {
		t.Fatalf("cutoff = %v, want %v", p.cutoff, want)
	}

	s := &fakeSweeper{}
	NewSessionSweepJob(s, zap.NewNop()).Run()
	if s.calls != 1 {
		t.Fatalf("sweeper called %d times", s.calls)
	}

	b := NewBroker(BrokerConfig{Workers: 1, QueueSize: 1}, nil, zap.NewNop())
	defer b.Stop(context.Background())
	if err := b.AddPeriodic("*/5 * * * *", job); err != nil {
		t.Fatalf("valid spec rejected: %v", err)
	}
	if err := b.AddPeriodic("not a spec", job); err == nil {
		t.Fatal("invalid spec accepted")
	}
}
