package dedupe

import (
	"context"
	"fmt"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSeenAndRecord(t *testing.T) {
	ctx := context.Background()

	Convey("Given a fresh deduper", t, func() {
		d := NewInMemoryDeduper()

		Convey("When an id is recorded for the first time", func() {
			seen := d.SeenAndRecord(ctx, "delivery-1")

			Convey("Then it reports unseen and is counted", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("And the second attempt reports seen", func() {
				So(d.SeenAndRecord(ctx, "delivery-1"), ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When distinct ids are recorded", func() {
			So(d.SeenAndRecord(ctx, "a"), ShouldBeFalse)
			So(d.SeenAndRecord(ctx, "b"), ShouldBeFalse)
			So(d.Size(), ShouldEqual, 2)
		})
	})
}

func TestUnrecord(t *testing.T) {
	ctx := context.Background()

	Convey("Given a recorded id", t, func() {
		d := NewInMemoryDeduper()
		So(d.SeenAndRecord(ctx, "delivery-1"), ShouldBeFalse)

		Convey("When it is unrecorded", func() {
			d.Unrecord(ctx, "delivery-1")

			Convey("Then the id can be recorded again", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "delivery-1"), ShouldBeFalse)
			})
		})

		Convey("When an unknown id is unrecorded", func() {
			d.Unrecord(ctx, "never-seen")

			Convey("Then the size is untouched", func() {
				So(d.Size(), ShouldEqual, 1)
			})
		})
	})
}

func TestEviction(t *testing.T) {
	ctx := context.Background()

	Convey("Given a deduper bounded to three ids", t, func() {
		d := NewInMemoryDeduper(WithMaxSize(3))
		for i := 0; i < 3; i++ {
			So(d.SeenAndRecord(ctx, fmt.Sprintf("id-%d", i)), ShouldBeFalse)
		}

		Convey("When a fourth id arrives", func() {
			So(d.SeenAndRecord(ctx, "id-3"), ShouldBeFalse)

			Convey("Then the oldest id was evicted and the size stays bounded", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "id-0"), ShouldBeFalse) // forgotten
				So(d.SeenAndRecord(ctx, "id-3"), ShouldBeTrue)  // still known
			})
		})

		Convey("When many ids flow through", func() {
			for i := 3; i < 100; i++ {
				d.SeenAndRecord(ctx, fmt.Sprintf("id-%d", i))
			}

			Convey("Then the size never exceeds the bound", func() {
				So(d.Size(), ShouldEqual, 3)
			})
		})
	})

	Convey("Given an unbounded deduper", t, func() {
		d := NewInMemoryDeduper(WithMaxSize(0))
		for i := 0; i < 200; i++ {
			d.SeenAndRecord(ctx, fmt.Sprintf("id-%d", i))
		}

		Convey("Then nothing is evicted", func() {
			So(d.Size(), ShouldEqual, 200)
			So(d.SeenAndRecord(ctx, "id-0"), ShouldBeTrue)
		})
	})
}

func TestConcurrentRecord(t *testing.T) {
	ctx := context.Background()

	Convey("Given concurrent recorders of the same id", t, func() {
		d := NewInMemoryDeduper()

		const goroutines = 32
		var wg sync.WaitGroup
		var mu sync.Mutex
		unseen := 0

		for i := 0; i < goroutines; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if !d.SeenAndRecord(ctx, "shared-id") {
					mu.Lock()
					unseen++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		Convey("Then exactly one recorder wins", func() {
			So(unseen, ShouldEqual, 1)
			So(d.Size(), ShouldEqual, 1)
		})
	})
}
