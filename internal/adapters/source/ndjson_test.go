package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/okian/starseed/internal/domain/model"
	"github.com/okian/starseed/internal/domain/window"
	. "github.com/smartystreets/goconvey/convey"
)

func writePartition(t *testing.T, dir, label string, lines ...string) {
	t.Helper()
	path := filepath.Join(dir, PartitionName(label))
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func rowLine(actor, repo, starredAt string) string {
	return `{"delivery_id":"d1","actor":"` + actor + `","repo_name":"` + repo + `","starred_at":"` + starredAt + `"}`
}

func collect(t *testing.T, src *DirSource, w window.Window) []model.StarEvent {
	t.Helper()
	var out []model.StarEvent
	err := src.Scan(context.Background(), w, func(e model.StarEvent) error {
		out = append(out, e)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func TestDirSourceScan(t *testing.T) {
	Convey("Given partitions inside and outside a window", t, func() {
		dir := t.TempDir()
		writePartition(t, dir, "2025-12-31",
			rowLine("old-actor", "octo/old", "2025-12-31T10:00:00Z"),
		)
		writePartition(t, dir, "2026-01-10",
			rowLine("a1", "octo/a", "2026-01-10T08:00:00Z"),
			rowLine("a2", "octo/b", "2026-01-10T09:00:00Z"),
		)
		writePartition(t, dir, "2026-01-20",
			rowLine("a3", "octo/a", "2026-01-20T10:00:00Z"),
		)
		writePartition(t, dir, "2026-02-01",
			rowLine("late-actor", "octo/late", "2026-02-01T00:00:00Z"),
		)

		w, err := window.Parse("2026-01-01", "2026-02-01")
		So(err, ShouldBeNil)
		src := NewDirSource(dir)

		Convey("When scanning", func() {
			events := collect(t, src, w)

			Convey("Then only in-window partitions contribute, oldest first", func() {
				So(events, ShouldHaveLength, 3)
				So(events[0].RepoName, ShouldEqual, "octo/a")
				So(events[1].RepoName, ShouldEqual, "octo/b")
				So(events[2].RepoName, ShouldEqual, "octo/a")
				So(events[0].StarredAt.Before(events[2].StarredAt), ShouldBeTrue)
			})
		})
	})

	Convey("Given a partition overlapping the window edge", t, func() {
		dir := t.TempDir()
		// Partition label is in-window but some rows are not.
		writePartition(t, dir, "2026-01-31",
			rowLine("a1", "octo/in", "2026-01-31T23:59:59Z"),
			rowLine("a2", "octo/out", "2026-02-01T00:00:01Z"),
		)

		w, err := window.Parse("2026-01-01", "2026-02-01")
		So(err, ShouldBeNil)

		Convey("When scanning", func() {
			events := collect(t, NewDirSource(dir), w)

			Convey("Then rows past the window end are filtered out", func() {
				So(events, ShouldHaveLength, 1)
				So(events[0].RepoName, ShouldEqual, "octo/in")
			})
		})
	})

	Convey("Given unrelated files alongside partitions", t, func() {
		dir := t.TempDir()
		writePartition(t, dir, "2026-01-10", rowLine("a1", "octo/a", "2026-01-10T08:00:00Z"))
		So(os.WriteFile(filepath.Join(dir, "README.md"), []byte("notes"), 0o644), ShouldBeNil)
		So(os.Mkdir(filepath.Join(dir, "stars-2026-01-11.ndjson.d"), 0o755), ShouldBeNil)

		w, _ := window.Parse("2026-01-01", "2026-02-01")

		Convey("When scanning", func() {
			events := collect(t, NewDirSource(dir), w)

			Convey("Then only partition files are read", func() {
				So(events, ShouldHaveLength, 1)
			})
		})
	})

	Convey("Given a partition with blank lines", t, func() {
		dir := t.TempDir()
		writePartition(t, dir, "2026-01-10",
			rowLine("a1", "octo/a", "2026-01-10T08:00:00Z"),
			"",
			rowLine("a2", "octo/b", "2026-01-10T09:00:00Z"),
		)
		w, _ := window.Parse("2026-01-01", "2026-02-01")

		Convey("Then blanks are skipped", func() {
			So(collect(t, NewDirSource(dir), w), ShouldHaveLength, 2)
		})
	})

	Convey("Given a partition with a malformed row", t, func() {
		dir := t.TempDir()
		writePartition(t, dir, "2026-01-10",
			rowLine("a1", "octo/a", "2026-01-10T08:00:00Z"),
			`{"actor": truncated`,
		)
		w, _ := window.Parse("2026-01-01", "2026-02-01")

		Convey("When scanning", func() {
			err := NewDirSource(dir).Scan(context.Background(), w, func(model.StarEvent) error { return nil })

			Convey("Then the bad row is an error, not a silent drop", func() {
				So(err, ShouldWrap, ErrBadRow)
			})
		})
	})

	Convey("Given a row with an unparseable timestamp", t, func() {
		dir := t.TempDir()
		writePartition(t, dir, "2026-01-10", rowLine("a1", "octo/a", "yesterday"))
		w, _ := window.Parse("2026-01-01", "2026-02-01")

		err := NewDirSource(dir).Scan(context.Background(), w, func(model.StarEvent) error { return nil })
		So(err, ShouldWrap, ErrBadRow)
	})

	Convey("Given a missing directory", t, func() {
		w, _ := window.Parse("2026-01-01", "2026-02-01")
		err := NewDirSource(filepath.Join(t.TempDir(), "absent")).Scan(
			context.Background(), w, func(model.StarEvent) error { return nil })
		So(err, ShouldWrap, ErrScan)
	})

	Convey("Given a callback that fails", t, func() {
		dir := t.TempDir()
		writePartition(t, dir, "2026-01-10", rowLine("a1", "octo/a", "2026-01-10T08:00:00Z"))
		w, _ := window.Parse("2026-01-01", "2026-02-01")

		boom := errors.New("downstream full")
		err := NewDirSource(dir).Scan(context.Background(), w, func(model.StarEvent) error { return boom })
		So(err, ShouldWrap, boom)
	})
}

func TestRowRoundTrip(t *testing.T) {
	Convey("Given a domain event", t, func() {
		e := model.StarEvent{
			DeliveryID: "d-42",
			Actor:      "octocat",
			RepoName:   "octo/hello",
			StarredAt:  time.Date(2026, 1, 10, 8, 30, 0, 0, time.UTC),
		}

		Convey("When converted to a row and back", func() {
			back, err := RowOf(e).Event()

			Convey("Then nothing is lost", func() {
				So(err, ShouldBeNil)
				So(back, ShouldResemble, e)
			})
		})
	})
}

func TestPartitionLabel(t *testing.T) {
	Convey("Given partition file names", t, func() {
		label, ok := partitionLabel("stars-2026-01-10.ndjson")
		So(ok, ShouldBeTrue)
		So(label, ShouldEqual, "2026-01-10")

		_, ok = partitionLabel("events-2026-01-10.ndjson")
		So(ok, ShouldBeFalse)

		_, ok = partitionLabel("stars-2026-01-10.json")
		So(ok, ShouldBeFalse)

		So(PartitionName("2026-01-10"), ShouldEqual, "stars-2026-01-10.ndjson")
	})
}
