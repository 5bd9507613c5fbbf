package logger

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/zap/zapcore"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given the global logger", t, func() {
		Convey("When initialized with defaults", func() {
			So(Init(), ShouldBeNil)

			Convey("Then Get returns a usable logger", func() {
				l := Get()
				So(l, ShouldNotBeNil)
				So(func() { l.Info(context.Background(), "test message", String("k", "v")) }, ShouldNotPanic)
				So(Sync(), ShouldBeNil)
			})
		})

		Convey("When initialized with json format", func() {
			So(Init(WithFormat("json")), ShouldBeNil)

			Convey("Then Named loggers work", func() {
				named := Named("test")
				So(named, ShouldNotBeNil)
				So(func() { named.Warn(context.Background(), "named", Int("n", 1)) }, ShouldNotPanic)
			})
		})
	})
}

func TestLoggerOutput(t *testing.T) {
	Convey("Given a logger writing json to a file", t, func() {
		path := filepath.Join(t.TempDir(), "out.log")
		So(Init(WithFormat("json"), WithOutputPaths(path)), ShouldBeNil)
		defer func() { _ = Init() }()

		ctx := context.Background()
		l := Named("engine")
		l.Info(ctx, "rebuilt matches",
			Int64("project_id", 42),
			Bool("ok", true),
			Duration("took", 1500*time.Millisecond),
			Error(errors.New("boom")),
		)
		l.Debug(ctx, "hidden at info level")
		So(Sync(), ShouldBeNil)

		data, err := os.ReadFile(path)
		So(err, ShouldBeNil)
		out := string(data)

		Convey("Then fields are encoded", func() {
			So(out, ShouldContainSubstring, `"msg":"rebuilt matches"`)
			So(out, ShouldContainSubstring, `"logger":"engine"`)
			So(out, ShouldContainSubstring, `"project_id":42`)
			So(out, ShouldContainSubstring, `"error":"boom"`)
			So(out, ShouldContainSubstring, `"took":"1.5s"`)
		})

		Convey("Then debug entries are filtered at info level", func() {
			So(out, ShouldNotContainSubstring, "hidden at info level")
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given level strings", t, func() {
		So(Init(), ShouldBeNil)

		Convey("Then known levels are accepted", func() {
			So(SetLevelString("debug"), ShouldBeNil)
			So(level.Level(), ShouldEqual, zapcore.DebugLevel)
			So(SetLevelString("WARNING"), ShouldBeNil)
			So(level.Level(), ShouldEqual, zapcore.WarnLevel)
			So(SetLevelString(""), ShouldBeNil)
			So(level.Level(), ShouldEqual, zapcore.InfoLevel)
		})

		Convey("Then unknown levels are rejected", func() {
			So(SetLevelString("loud"), ShouldNotBeNil)
		})
	})
}

func TestNop(t *testing.T) {
	Convey("Given a nop logger", t, func() {
		l := Nop()
		So(func() { l.Named("x").Error(context.Background(), "dropped") }, ShouldNotPanic)
	})
}
