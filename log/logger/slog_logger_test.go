package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/hatlonely/webx/log/writer"
)

func newFileLogger(t *testing.T, options *SLogOptions) (*SLog, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.log")
	options.Output = writer.Options{
		Type: "File",
		File: writer.FileOptions{Path: path},
	}
	l, err := NewSLogWithOptions(options)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	return l, path
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	buf, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	return strings.Split(strings.TrimSpace(string(buf)), "\n")
}

func TestSLog(t *testing.T) {
	Convey("测试 slog 日志器", t, func() {
		Convey("json 格式输出结构化字段", func() {
			l, path := newFileLogger(t, &SLogOptions{Format: "json"})
			l.Info("hello", "key", "value")

			lines := readLines(t, path)
			So(len(lines), ShouldEqual, 1)

			var entry map[string]any
			So(json.Unmarshal([]byte(lines[0]), &entry), ShouldBeNil)
			So(entry["msg"], ShouldEqual, "hello")
			So(entry["key"], ShouldEqual, "value")
			So(entry["level"], ShouldEqual, "INFO")
		})

		Convey("低于级别的日志被过滤", func() {
			l, path := newFileLogger(t, &SLogOptions{Level: "warn", Format: "json"})
			l.Debug("dropped")
			l.Info("dropped")
			l.Warn("kept")

			lines := readLines(t, path)
			So(len(lines), ShouldEqual, 1)
			So(lines[0], ShouldContainSubstring, "kept")
		})

		Convey("Fields 附加到每条日志", func() {
			l, path := newFileLogger(t, &SLogOptions{
				Format: "json",
				Fields: map[string]any{"service": "webx"},
			})
			l.Info("hello")

			lines := readLines(t, path)
			So(lines[0], ShouldContainSubstring, `"service":"webx"`)
		})

		Convey("With 派生的日志器带上公共字段", func() {
			l, path := newFileLogger(t, &SLogOptions{Format: "json"})
			l.With("component", "record").Info("hello")

			lines := readLines(t, path)
			So(lines[0], ShouldContainSubstring, `"component":"record"`)
		})

		Convey("WithGroup 给字段加分组前缀", func() {
			l, path := newFileLogger(t, &SLogOptions{Format: "json"})
			l.WithGroup("db").Info("hello", "driver", "sqlite3")

			var entry map[string]any
			So(json.Unmarshal([]byte(readLines(t, path)[0]), &entry), ShouldBeNil)
			group, ok := entry["db"].(map[string]any)
			So(ok, ShouldBeTrue)
			So(group["driver"], ShouldEqual, "sqlite3")
		})

		Convey("非法级别报错", func() {
			_, err := NewSLogWithOptions(&SLogOptions{Level: "verbose"})
			So(err, ShouldNotBeNil)
		})

		Convey("非法格式报错", func() {
			_, err := NewSLogWithOptions(&SLogOptions{Format: "xml"})
			So(err, ShouldNotBeNil)
		})
	})
}
