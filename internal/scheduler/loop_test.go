package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestTickOrder(t *testing.T) {
	l := New()
	var order []string
	l.OnTick(func(dt time.Duration) { order = append(order, "a") })
	l.OnTick(func(dt time.Duration) { order = append(order, "b") })

	l.Advance(16 * time.Millisecond)

	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Errorf("expected [a b], got %v", order)
	}
	if l.Now() != 16*time.Millisecond {
		t.Errorf("expected clock 16ms, got %v", l.Now())
	}
}

func TestTickCancel(t *testing.T) {
	l := New()
	calls := 0
	cancel := l.OnTick(func(dt time.Duration) { calls++ })

	l.Advance(time.Millisecond)
	cancel()
	cancel()
	l.Advance(time.Millisecond)

	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestTickCancelDuringTick(t *testing.T) {
	l := New()
	var cancelB CancelFunc
	bCalls := 0
	l.OnTick(func(dt time.Duration) { cancelB() })
	cancelB = l.OnTick(func(dt time.Duration) { bCalls++ })

	l.Advance(time.Millisecond)
	l.Advance(time.Millisecond)

	if bCalls != 0 {
		t.Errorf("expected cancelled callback not to run, ran %d times", bCalls)
	}
}

func TestScheduleFiresWhenDue(t *testing.T) {
	l := New()
	fired := false
	l.Schedule(50*time.Millisecond, func() { fired = true })

	l.Advance(30 * time.Millisecond)
	if fired {
		t.Fatal("timer fired early")
	}
	l.Advance(30 * time.Millisecond)
	if !fired {
		t.Fatal("timer did not fire")
	}
	if l.Pending() != 0 {
		t.Errorf("expected no pending timers, got %d", l.Pending())
	}
}

func TestScheduleCancel(t *testing.T) {
	l := New()
	fired := false
	cancel := l.Schedule(10*time.Millisecond, func() { fired = true })
	cancel()
	l.Advance(20 * time.Millisecond)

	if fired {
		t.Error("cancelled timer fired")
	}
}

func TestTimersFireInDueOrderAfterTicks(t *testing.T) {
	l := New()
	var order []string
	l.Schedule(20*time.Millisecond, func() { order = append(order, "late") })
	l.Schedule(10*time.Millisecond, func() { order = append(order, "early") })
	l.Schedule(10*time.Millisecond, func() { order = append(order, "early2") })
	l.OnTick(func(dt time.Duration) { order = append(order, "tick") })

	l.Advance(25 * time.Millisecond)

	want := []string{"tick", "early", "early2", "late"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], order[i])
		}
	}
}

func TestTimerScheduledWhileFiringWaits(t *testing.T) {
	l := New()
	count := 0
	var again func()
	again = func() {
		count++
		l.Schedule(0, again)
	}
	l.Schedule(0, again)

	l.Advance(time.Millisecond)
	if count != 1 {
		t.Errorf("expected 1 firing in first tick, got %d", count)
	}
	l.Advance(time.Millisecond)
	if count != 2 {
		t.Errorf("expected 2 firings after second tick, got %d", count)
	}
}

func TestPostRunsOnNextAdvance(t *testing.T) {
	l := New()
	var mu sync.Mutex
	ran := 0

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Post(func() {
				mu.Lock()
				ran++
				mu.Unlock()
			})
		}()
	}
	wg.Wait()

	if ran != 0 {
		t.Fatal("posted work ran before Advance")
	}
	l.Advance(time.Millisecond)
	if ran != 10 {
		t.Errorf("expected 10 posted calls, got %d", ran)
	}
}

func TestRunStopsAfterTicks(t *testing.T) {
	l := New()
	calls := 0
	l.OnTick(func(dt time.Duration) { calls++ })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := l.Run(ctx, 200, 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 ticks, got %d", calls)
	}
}

func TestRunHonoursContext(t *testing.T) {
	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := l.Run(ctx, 60, 0); err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
