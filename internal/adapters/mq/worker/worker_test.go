package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/okian/starseed/internal/domain/model"
	"github.com/okian/starseed/internal/domain/window"
	"github.com/okian/starseed/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// mockQueue feeds workers through a plain channel.
type mockQueue struct {
	eventChan chan Event
}

func newMockQueue() *mockQueue {
	return &mockQueue{eventChan: make(chan Event, 100)}
}

func (q *mockQueue) Dequeue(ctx context.Context) <-chan Event {
	return q.eventChan
}

func (q *mockQueue) addEvent(e Event) {
	q.eventChan <- e
}

// mockApplier records applied events behind a mutex.
type mockApplier struct {
	mu      sync.Mutex
	applied []model.StarEvent
	err     error
}

func (a *mockApplier) Apply(ctx context.Context, e model.StarEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.applied = append(a.applied, e)
	return nil
}

func (a *mockApplier) appliedRepos() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	repos := make([]string, 0, len(a.applied))
	for _, e := range a.applied {
		repos = append(repos, e.RepoName)
	}
	return repos
}

func (a *mockApplier) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.applied)
}

func janWindow() window.Window {
	w, err := window.Parse("2026-01-01", "2026-02-01")
	if err != nil {
		panic(err)
	}
	return w
}

func inWindow(repo string) Event {
	return Event{
		DeliveryID: "d-" + repo,
		Actor:      "someone",
		RepoName:   repo,
		StarredAt:  time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC),
	}
}

func waitFor(check func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if check() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return check()
}

func TestWorkerProcessing(t *testing.T) {
	Convey("Given a running worker", t, func() {
		q := newMockQueue()
		applier := &mockApplier{}
		wk := NewInMemoryWorker(q, janWindow(), applier, WithName("test-worker"))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go wk.Run(ctx)

		Convey("When an in-window event arrives", func() {
			q.addEvent(inWindow("octo/a"))

			Convey("Then it is folded into the store", func() {
				So(waitFor(func() bool { return applier.count() == 1 }), ShouldBeTrue)
				So(applier.appliedRepos(), ShouldResemble, []string{"octo/a"})
			})
		})

		Convey("When an event falls outside the window", func() {
			stale := inWindow("octo/stale")
			stale.StarredAt = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
			q.addEvent(stale)
			q.addEvent(inWindow("octo/fresh"))

			Convey("Then only the in-window event is applied", func() {
				So(waitFor(func() bool { return applier.count() == 1 }), ShouldBeTrue)
				So(applier.appliedRepos(), ShouldResemble, []string{"octo/fresh"})
			})
		})

		Convey("When a malformed event arrives", func() {
			q.addEvent(Event{RepoName: "octo/broken"})
			q.addEvent(inWindow("octo/good"))

			Convey("Then the worker skips it and keeps running", func() {
				So(waitFor(func() bool { return applier.count() == 1 }), ShouldBeTrue)
				So(applier.appliedRepos(), ShouldResemble, []string{"octo/good"})
			})
		})
	})
}

func TestWorkerShutdown(t *testing.T) {
	Convey("Given a running worker", t, func() {
		q := newMockQueue()
		applier := &mockApplier{}
		wk := NewInMemoryWorker(q, janWindow(), applier)

		go wk.Run(context.Background())

		Convey("When shutdown is signalled", func() {
			close(wk.shutdown)

			Convey("Then the worker drains out", func() {
				select {
				case <-wk.done:
				case <-time.After(2 * time.Second):
					So("worker did not stop", ShouldBeEmpty)
				}
			})
		})
	})

	Convey("Given a worker whose context is cancelled", t, func() {
		q := newMockQueue()
		wk := NewInMemoryWorker(q, janWindow(), &mockApplier{})

		ctx, cancel := context.WithCancel(context.Background())
		go wk.Run(ctx)
		cancel()

		Convey("Then it exits", func() {
			select {
			case <-wk.done:
			case <-time.After(2 * time.Second):
				So("worker did not stop", ShouldBeEmpty)
			}
		})
	})
}

func TestPool(t *testing.T) {
	Convey("Given a pool of workers over one queue", t, func() {
		q := newMockQueue()
		applier := &mockApplier{}
		pool := NewPool(4, q, janWindow(), applier)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		pool.Start(ctx)

		Convey("When many events flow through", func() {
			const total = 50
			for i := 0; i < total; i++ {
				q.addEvent(inWindow("octo/shared"))
			}

			Convey("Then every event is applied exactly once", func() {
				So(waitFor(func() bool { return applier.count() == total }), ShouldBeTrue)
				So(applier.count(), ShouldEqual, total)
			})
		})

		Convey("When the pool is stopped", func() {
			pool.Stop()

			Convey("Then the workers are all done and Stop is idempotent", func() {
				for _, wk := range pool.workers {
					select {
					case <-wk.done:
					case <-time.After(2 * time.Second):
						So("worker did not stop", ShouldBeEmpty)
					}
				}
				pool.Stop()
			})
		})
	})
}
