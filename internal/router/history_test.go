package router

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestBasePaths(t *testing.T) {
	Convey("normalizeBase", t, func() {
		So(normalizeBase(""), ShouldEqual, "/")
		So(normalizeBase("/"), ShouldEqual, "/")
		So(normalizeBase("dash"), ShouldEqual, "/dash")
		So(normalizeBase(" /dash/ "), ShouldEqual, "/dash")
	})

	Convey("stripBase only strips on a segment boundary", t, func() {
		So(stripBase("/dash", "/dash/trends/Oslo"), ShouldEqual, "/trends/Oslo")
		So(stripBase("/dash", "/dash"), ShouldEqual, "/")
		So(stripBase("/dash", "/dash?x=1"), ShouldEqual, "?x=1")
		So(stripBase("/dash", "/dashboard"), ShouldEqual, "/dashboard")
		So(stripBase("/", "/trends/Oslo"), ShouldEqual, "/trends/Oslo")
	})

	Convey("joinBase", t, func() {
		So(joinBase("/", "/trends/Oslo"), ShouldEqual, "/trends/Oslo")
		So(joinBase("/dash", "/"), ShouldEqual, "/dash/")
		So(joinBase("/dash", "/history/Oslo"), ShouldEqual, "/dash/history/Oslo")
	})
}

func TestMemoryHistory(t *testing.T) {
	Convey("Given an empty memory history", t, func() {
		h := NewMemoryHistory("/")

		Convey("Then it has no current entry and cannot move", func() {
			_, ok := h.Current()
			So(ok, ShouldBeFalse)
			_, err := h.Go(0)
			So(errors.Is(err, ErrNoHistory), ShouldBeTrue)
		})

		Convey("When replacing first", func() {
			h.Replace(Entry{Location: "/"})
			cur, ok := h.Current()
			So(ok, ShouldBeTrue)
			So(cur.Location, ShouldEqual, "/")
			So(len(h.Entries()), ShouldEqual, 1)
		})

		Convey("When pushing three entries and going back two", func() {
			h.Push(Entry{Location: "/a"})
			h.Push(Entry{Location: "/b"})
			h.Push(Entry{Location: "/c"})
			e, err := h.Go(-2)
			So(err, ShouldBeNil)
			So(e.Location, ShouldEqual, "/a")

			Convey("Then going past either end fails without moving", func() {
				_, err := h.Go(-1)
				So(errors.Is(err, ErrNoHistory), ShouldBeTrue)
				_, err = h.Go(3)
				So(errors.Is(err, ErrNoHistory), ShouldBeTrue)
				cur, _ := h.Current()
				So(cur.Location, ShouldEqual, "/a")
			})

			Convey("Then a push drops the forward entries", func() {
				h.Push(Entry{Location: "/d"})
				entries := h.Entries()
				So(len(entries), ShouldEqual, 2)
				So(entries[1].Location, ShouldEqual, "/d")
			})
		})
	})
}

func TestMemoryHistoryCap(t *testing.T) {
	Convey("Given a memory history capped at three entries", t, func() {
		h := NewMemoryHistory("/", WithMaxEntries(3))

		Convey("When pushing more entries than the cap", func() {
			for _, loc := range []string{"/a", "/b", "/c", "/d", "/e"} {
				h.Push(Entry{Location: loc})
			}

			Convey("Then only the newest entries are kept", func() {
				entries := h.Entries()
				So(len(entries), ShouldEqual, 3)
				So(entries[0].Location, ShouldEqual, "/c")
				So(entries[2].Location, ShouldEqual, "/e")
				cur, _ := h.Current()
				So(cur.Location, ShouldEqual, "/e")
			})

			Convey("And going back stops at the oldest kept entry", func() {
				e, err := h.Go(-2)
				So(err, ShouldBeNil)
				So(e.Location, ShouldEqual, "/c")
				_, err = h.Go(-1)
				So(errors.Is(err, ErrNoHistory), ShouldBeTrue)
			})
		})
	})

	Convey("Given a memory history with the default cap", t, func() {
		h := NewMemoryHistory("/", WithMaxEntries(0))
		for i := 0; i < DefaultMaxEntries*3; i++ {
			h.Push(Entry{Location: "/trends/Oslo"})
		}
		So(len(h.Entries()), ShouldEqual, DefaultMaxEntries)
	})
}

func TestWebHistory(t *testing.T) {
	Convey("Given a web history", t, func() {
		h := NewWebHistory("/dash/")
		So(h.Base(), ShouldEqual, "/dash")
		So(h.Entries(), ShouldBeEmpty)

		Convey("Then push keeps only the current entry", func() {
			h.Push(Entry{Location: "/dash/"})
			h.Push(Entry{Location: "/dash/trends/Oslo"})
			entries := h.Entries()
			So(len(entries), ShouldEqual, 1)
			So(entries[0].Location, ShouldEqual, "/dash/trends/Oslo")
			_, err := h.Go(-1)
			So(errors.Is(err, ErrNoHistory), ShouldBeTrue)
		})
	})
}

func TestSplitTarget(t *testing.T) {
	Convey("splitTarget", t, func() {
		segs, path, q := splitTarget("trends/a%2Fb/?days=3#x")
		So(segs, ShouldResemble, []string{"trends", "a/b"})
		So(path, ShouldEqual, "/trends/a%2Fb")
		So(q.Get("days"), ShouldEqual, "3")

		segs, path, _ = splitTarget("")
		So(segs, ShouldBeNil)
		So(path, ShouldEqual, "/")
	})
}
