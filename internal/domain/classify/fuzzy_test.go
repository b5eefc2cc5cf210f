package classify_test

import (
	"testing"

	"github.com/okian/arcadepoints/internal/domain/classify"
	"github.com/okian/arcadepoints/internal/domain/policy"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMatcher_Matches(t *testing.T) {
	Convey("Given a matcher with the default tolerances", t, func() {
		m := classify.NewMatcher(policy.Default().Fuzzy)

		Convey("When names differ only by prefix and punctuation", func() {
			Convey("Then they should match exactly", func() {
				So(m.Matches("Skill Badge: Prompt Design in Vertex AI", "Prompt Design in Vertex AI"), ShouldBeTrue)
				So(m.Matches("Get Started with Pub/Sub", "get started with pub sub"), ShouldBeTrue)
			})
		})

		Convey("When either side normalizes to empty", func() {
			Convey("Then nothing should match", func() {
				So(m.Matches("", "Google Sheets"), ShouldBeFalse)
				So(m.Matches("Google Sheets", "!!!"), ShouldBeFalse)
				So(m.Matches("", ""), ShouldBeFalse)
			})
		})

		Convey("When one name contains the other and lengths are comparable", func() {
			Convey("Then containment should match", func() {
				So(m.Matches("Create and Manage Cloud Resources: Challenge Lab", "Create and Manage Cloud Resources"), ShouldBeTrue)
				So(m.Matches("Google Sheets", "Google Sheets Basics"), ShouldBeTrue)
			})
		})

		Convey("When a short title is contained in a much longer name", func() {
			Convey("Then the length ratio should block containment", func() {
				So(m.Matches("Build a Data Warehouse with BigQuery", "BigQuery"), ShouldBeFalse)
				So(m.Matches("BigQuery", "Build a Data Warehouse with BigQuery"), ShouldBeFalse)
			})
		})

		Convey("When long names share most significant words", func() {
			Convey("Then word overlap should match", func() {
				So(m.Matches("Load Balancing on Compute Engine Implementation", "Implement Load Balancing on Compute Engine"), ShouldBeTrue)
			})
		})

		Convey("When long names share too few words", func() {
			Convey("Then word overlap should not match", func() {
				So(m.Matches("Build a Secure Google Cloud Network", "Develop your Google Cloud Network"), ShouldBeFalse)
			})
		})
	})

	Convey("Given matchers with tuned tolerances", t, func() {
		Convey("When the word overlap ratio is relaxed", func() {
			f := policy.Default().Fuzzy
			f.WordOverlapRatio = 0.5
			m := classify.NewMatcher(f)

			Convey("Then three of five shared words should be enough", func() {
				So(m.Matches("Build a Secure Google Cloud Network", "Develop your Google Cloud Network"), ShouldBeTrue)
			})
		})

		Convey("When word overlap is disabled by a high length floor", func() {
			f := policy.Default().Fuzzy
			f.MinOverlapLength = 50

			Convey("Then containment alone decides, gated by the length ratio", func() {
				So(classify.NewMatcher(f).Matches("Google Sheets", "Google Sheets Basics"), ShouldBeTrue)

				f.LengthRatio = 0.7
				So(classify.NewMatcher(f).Matches("Google Sheets", "Google Sheets Basics"), ShouldBeFalse)
			})
		})
	})
}
