package logger

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
)

func reset() {
	SetVerbose(false)
	Init(Config{Level: "info", Format: "console"})
	SetOutput(os.Stderr)
}

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	t.Cleanup(reset)
	var buf bytes.Buffer
	SetOutput(&buf)
	Init(Config{Level: "info", Format: "json"})
	return &buf
}

func TestSetVerbose(t *testing.T) {
	defer reset()

	SetVerbose(false)
	if IsVerbose() {
		t.Error("expected verbose to be false initially")
	}

	SetVerbose(true)
	if !IsVerbose() {
		t.Error("expected verbose to be true after SetVerbose(true)")
	}

	SetVerbose(false)
	if IsVerbose() {
		t.Error("expected verbose to be false after SetVerbose(false)")
	}
}

func TestDebug_WhenVerbose(t *testing.T) {
	buf := capture(t)
	SetVerbose(true)

	Debug("test message %s", "arg")

	out := buf.String()
	if !strings.Contains(out, `"level":"debug"`) || !strings.Contains(out, `"message":"test message arg"`) {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestDebug_WhenNotVerbose(t *testing.T) {
	buf := capture(t)

	Debug("test message")
	Section("Search")

	if buf.Len() != 0 {
		t.Errorf("expected no output when not verbose, got %q", buf.String())
	}
}

func TestSection_WhenVerbose(t *testing.T) {
	buf := capture(t)
	SetVerbose(true)

	Section("Retrieval")

	if !strings.Contains(buf.String(), `"section":"Retrieval"`) {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestInfo_AlwaysAtInfoLevel(t *testing.T) {
	buf := capture(t)

	Info("index has %d entries", 3)

	if !strings.Contains(buf.String(), `"message":"index has 3 entries"`) {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestWarn_SuppressedAboveLevel(t *testing.T) {
	buf := capture(t)
	Init(Config{Level: "error"})

	Warn("ignored")
	Error(errors.New("boom"), "failed %s", "op")

	out := buf.String()
	if strings.Contains(out, "ignored") {
		t.Errorf("warn should be suppressed at error level: %q", out)
	}
	if !strings.Contains(out, `"error":"boom"`) || !strings.Contains(out, "failed op") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestConsoleFormat(t *testing.T) {
	buf := capture(t)
	Init(Config{Format: "console"})

	Info("hello")

	if !strings.Contains(buf.String(), "INF") || !strings.Contains(buf.String(), "hello") {
		t.Errorf("unexpected console output: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]string{
		"debug":   "debug",
		"WARN":    "warn",
		"warning": "warn",
		"error":   "error",
		"":        "info",
		"bogus":   "info",
	}
	for in, want := range cases {
		if got := parseLevel(in).String(); got != want {
			t.Errorf("parseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}
