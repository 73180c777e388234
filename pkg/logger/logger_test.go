package logger_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/lwittrock/tourpoule/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLogger(t *testing.T) {
	Convey("Given an initialized logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(logger.Init(logger.WithWriter(&buf)), ShouldBeNil)
		ctx := context.Background()

		Convey("When logging at info level", func() {
			logger.Get().Info(ctx, "stage processed", logger.Int("stage", 3))

			Convey("Then the message and fields appear in the output", func() {
				out := buf.String()
				So(out, ShouldContainSubstring, "stage processed")
				So(out, ShouldContainSubstring, "stage=3")
			})
		})

		Convey("When the level is raised to error", func() {
			So(logger.SetLevelString("error"), ShouldBeNil)
			logger.Get().Info(ctx, "suppressed")
			logger.Get().Error(ctx, "visible")

			Convey("Then only error output is emitted", func() {
				out := buf.String()
				So(out, ShouldNotContainSubstring, "suppressed")
				So(out, ShouldContainSubstring, "visible")
			})

			// Restore for other tests sharing the global.
			So(logger.SetLevelString("info"), ShouldBeNil)
		})

		Convey("When using a named logger", func() {
			logger.Named("roster").Warn(ctx, "rider withdrawn", logger.String("rider", "x"))

			Convey("Then the group prefixes the field keys", func() {
				So(buf.String(), ShouldContainSubstring, "roster.rider=x")
			})
		})

		Convey("When parsing level strings", func() {
			So(logger.SetLevelString("DEBUG"), ShouldBeNil)
			So(logger.SetLevelString("warning"), ShouldBeNil)
			So(logger.SetLevelString(""), ShouldBeNil)
			err := logger.SetLevelString("loud")
			So(err, ShouldNotBeNil)
			So(strings.Contains(err.Error(), "unknown log level"), ShouldBeTrue)
			So(logger.SetLevelString("info"), ShouldBeNil)
		})

		Convey("When requesting JSON output", func() {
			var jsonBuf bytes.Buffer
			So(logger.Init(logger.WithWriter(&jsonBuf), logger.WithJSON()), ShouldBeNil)
			logger.Get().Info(ctx, "hello")
			So(jsonBuf.String(), ShouldContainSubstring, `"msg":"hello"`)
		})
	})
}
