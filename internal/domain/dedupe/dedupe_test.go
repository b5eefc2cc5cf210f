package dedupe_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/okian/arcadepoints/internal/domain/dedupe"
	"github.com/okian/arcadepoints/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func badge(name string, cat model.Category, at time.Time) model.ClassifiedBadge {
	return model.ClassifiedBadge{
		Badge:    model.Badge{Name: name, EarnedDate: at.Format(time.RFC3339)},
		Category: cat,
		EarnedAt: at,
	}
}

func TestKey(t *testing.T) {
	Convey("Given classified badges", t, func() {
		day := time.Date(2025, 8, 10, 15, 0, 0, 0, time.UTC)

		Convey("When the badge is a skill or lab-free badge", func() {
			Convey("Then the key should ignore the date", func() {
				So(dedupe.Key(badge("Skill Badge: Google Sheets", model.CategorySkill, day)), ShouldEqual, "name:google sheets")
				So(dedupe.Key(badge("Attention Mechanism", model.CategoryLabFree, day)), ShouldEqual, "name:attention mechanism")
			})
		})

		Convey("When the badge is any other category", func() {
			Convey("Then the key should include the UTC day", func() {
				So(dedupe.Key(badge("Level 1", model.CategoryGame, day)), ShouldEqual, "name:level 1|day:2025-08-10")
				So(dedupe.Key(badge("Meetup", model.CategoryCompletion, day)), ShouldEqual, "name:meetup|day:2025-08-10")
			})

			Convey("And the day should be taken in UTC", func() {
				ist := time.FixedZone("IST", 5*3600+1800)
				local := time.Date(2025, 8, 11, 2, 0, 0, 0, ist) // 2025-08-10 20:30 UTC
				So(dedupe.Key(badge("Level 1", model.CategoryGame, local)), ShouldEqual, "name:level 1|day:2025-08-10")
			})
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given a badge list with duplicates", t, func() {
		d1 := time.Date(2025, 8, 10, 9, 0, 0, 0, time.UTC)
		d2 := time.Date(2025, 8, 11, 9, 0, 0, 0, time.UTC)

		Convey("When two trivia badges normalize to the same name on the same day", func() {
			in := []model.ClassifiedBadge{
				badge("Skills Boost Trivia Week 1", model.CategoryTrivia, d1),
				badge("trivia week 1", model.CategoryTrivia, d1.Add(3*time.Hour)),
			}
			r := dedupe.Run(in)

			Convey("Then only the first should be kept", func() {
				So(len(r.Kept), ShouldEqual, 1)
				So(r.Kept[0].Name, ShouldEqual, "Skills Boost Trivia Week 1")
				So(r.Duplicates, ShouldEqual, 1)
			})
		})

		Convey("When a game badge repeats on different days", func() {
			in := []model.ClassifiedBadge{
				badge("Level 1", model.CategoryGame, d1),
				badge("Level 1", model.CategoryGame, d2),
			}

			Convey("Then both should be kept", func() {
				So(len(dedupe.Badges(in)), ShouldEqual, 2)
			})
		})

		Convey("When a skill badge repeats on different days", func() {
			in := []model.ClassifiedBadge{
				badge("Google Sheets", model.CategorySkill, d2),
				badge("Skill Badge: Google Sheets", model.CategorySkill, d1),
			}
			kept := dedupe.Badges(in)

			Convey("Then only the first in input order should be kept", func() {
				So(len(kept), ShouldEqual, 1)
				So(kept[0].EarnedAt, ShouldEqual, d2)
			})
		})

		Convey("When some badges have no parsable date", func() {
			in := []model.ClassifiedBadge{
				{Badge: model.Badge{Name: "Level 1", EarnedDate: "soon"}, Category: model.CategoryGame},
				badge("Level 1", model.CategoryGame, d1),
			}
			r := dedupe.Run(in)

			Convey("Then they should be dropped and counted as malformed", func() {
				So(r.Malformed, ShouldEqual, 1)
				So(len(r.Kept), ShouldEqual, 1)
				So(r.Kept[0].Dated(), ShouldBeTrue)
			})
		})

		Convey("When the list is empty", func() {
			r := dedupe.Run(nil)

			Convey("Then nothing should be kept", func() {
				So(r.Kept, ShouldBeEmpty)
				So(r.Malformed, ShouldEqual, 0)
				So(r.Duplicates, ShouldEqual, 0)
			})
		})
	})
}

func TestRun_Invariant(t *testing.T) {
	Convey("Given a large list with many colliding keys", t, func() {
		base := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
		cats := []model.Category{model.CategoryGame, model.CategorySkill, model.CategoryTrivia, model.CategoryLabFree}
		var in []model.ClassifiedBadge
		for i := 0; i < 400; i++ {
			in = append(in, badge(
				fmt.Sprintf("Badge %d", i%17),
				cats[i%len(cats)],
				base.Add(time.Duration(i%5)*24*time.Hour),
			))
		}
		kept := dedupe.Badges(in)

		Convey("Then no two kept badges should share a key", func() {
			keys := map[string]bool{}
			for _, b := range kept {
				So(keys[dedupe.Key(b)], ShouldBeFalse)
				keys[dedupe.Key(b)] = true
			}
		})

		Convey("And each kept badge should be the first occurrence of its key", func() {
			first := map[string]int{}
			for i, b := range in {
				if _, ok := first[dedupe.Key(b)]; !ok {
					first[dedupe.Key(b)] = i
				}
			}
			So(len(kept), ShouldEqual, len(first))
			for _, b := range kept {
				So(in[first[dedupe.Key(b)]], ShouldResemble, b)
			}
		})
	})
}
