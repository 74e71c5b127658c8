package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/starseed/internal/domain/model"
	"github.com/okian/starseed/internal/domain/seed"
	. "github.com/smartystreets/goconvey/convey"
)

func event(repo string, epoch int64) model.StarEvent {
	return model.StarEvent{
		Actor:     "somebody",
		RepoName:  repo,
		StarredAt: time.Unix(epoch, 0),
	}
}

func TestApplyAndGet(t *testing.T) {
	ctx := context.Background()

	Convey("Given an empty store", t, func() {
		store := NewShardedStore(ctx)

		Convey("When events are applied for one repository", func() {
			So(store.Apply(ctx, event("octo/a", 100)), ShouldBeNil)
			So(store.Apply(ctx, event("octo/a", 300)), ShouldBeNil)

			Convey("Then Get returns the running aggregate", func() {
				agg, err := store.Get(ctx, "octo/a")
				So(err, ShouldBeNil)
				So(agg.NStars, ShouldEqual, 2)
				So(agg.RepoCenter, ShouldAlmostEqual, 200.0)
			})
		})

		Convey("When a malformed event is applied", func() {
			err := store.Apply(ctx, model.StarEvent{RepoName: "octo/a"})

			Convey("Then the event is rejected", func() {
				So(err, ShouldWrap, seed.ErrMalformedEvent)
				So(store.Count(ctx), ShouldEqual, 0)
			})
		})

		Convey("When an unknown repository is fetched", func() {
			_, err := store.Get(ctx, "nobody/nothing")
			So(err, ShouldWrap, ErrNotFound)
		})
	})
}

func TestSnapshot(t *testing.T) {
	ctx := context.Background()

	Convey("Given a store with repos spread across shards", t, func() {
		store := NewShardedStore(ctx, WithShardCount(4))
		for i := 0; i < 20; i++ {
			repo := fmt.Sprintf("org/repo-%02d", i)
			So(store.Apply(ctx, event(repo, int64(1000+i))), ShouldBeNil)
		}

		Convey("When snapshotting", func() {
			aggs := store.Snapshot(ctx)

			Convey("Then every repository appears exactly once", func() {
				So(aggs, ShouldHaveLength, 20)
				seen := make(map[string]bool)
				for _, agg := range aggs {
					So(seen[agg.RepoName], ShouldBeFalse)
					seen[agg.RepoName] = true
					So(agg.NStars, ShouldEqual, 1)
				}
			})
		})

		Convey("Then Count matches the distinct repo total", func() {
			So(store.Count(ctx), ShouldEqual, 20)
		})
	})
}

func TestTopByStars(t *testing.T) {
	ctx := context.Background()

	Convey("Given repos with differing star counts", t, func() {
		store := NewShardedStore(ctx)
		counts := map[string]int{"a/one": 1, "b/three": 3, "c/two": 2, "d/three": 3}
		for repo, n := range counts {
			for i := 0; i < n; i++ {
				So(store.Apply(ctx, event(repo, int64(100*i))), ShouldBeNil)
			}
		}

		Convey("When asking for the top two", func() {
			top, err := store.TopByStars(ctx, 2)

			Convey("Then ties are broken by name and the limit applies", func() {
				So(err, ShouldBeNil)
				So(top, ShouldHaveLength, 2)
				So(top[0].RepoName, ShouldEqual, "b/three")
				So(top[1].RepoName, ShouldEqual, "d/three")
			})
		})

		Convey("When asking for more than exist", func() {
			top, err := store.TopByStars(ctx, 100)
			So(err, ShouldBeNil)
			So(top, ShouldHaveLength, 4)
		})

		Convey("When the limit is invalid", func() {
			_, err := store.TopByStars(ctx, 0)
			So(err, ShouldWrap, ErrInvalidLimit)
		})
	})
}

func TestConcurrentApply(t *testing.T) {
	ctx := context.Background()

	Convey("Given concurrent writers on one repository", t, func() {
		store := NewShardedStore(ctx, WithShardCount(2))

		const writers = 16
		const perWriter = 50
		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(base int64) {
				defer wg.Done()
				for j := 0; j < perWriter; j++ {
					_ = store.Apply(ctx, event("hot/repo", base+int64(j)))
				}
			}(int64(i * perWriter))
		}
		wg.Wait()

		Convey("Then no events are lost", func() {
			agg, err := store.Get(ctx, "hot/repo")
			So(err, ShouldBeNil)
			So(agg.NStars, ShouldEqual, writers*perWriter)
		})
	})
}
