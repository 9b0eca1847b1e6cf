package logger

import (
	"bytes"
	"regexp"
	"strings"
	"testing"
)

func logAt(l *ConsoleLogger, level, msg string) {
	switch level {
	case "trace":
		l.LogTrace(msg)
	case "debug":
		l.LogDebug(msg)
	case "info":
		l.LogInfo(msg)
	case "warn":
		l.LogWarn(msg)
	case "error":
		l.LogError(msg)
	}
}

// TestLogLevelFiltering verifies that messages below the configured level are dropped.
func TestLogLevelFiltering(t *testing.T) {
	levels := []string{"trace", "debug", "info", "warn", "error"}

	for ci, configured := range levels {
		for mi, message := range levels {
			name := configured + " logger, " + message + " message"
			t.Run(name, func(t *testing.T) {
				buf := &bytes.Buffer{}
				logAt(NewConsoleLogger(buf, configured), message, "hello "+message)

				appeared := strings.Contains(buf.String(), "hello "+message)
				if want := mi >= ci; appeared != want {
					t.Errorf("appeared=%v, want %v (output %q)", appeared, want, buf.String())
				}
			})
		}
	}
}

func TestLogFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewConsoleLogger(buf, "trace")

	l.LogTrace("t")
	l.LogWarn("careful")

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	if !regexp.MustCompile(`^\[\d{2}:\d{2}:\d{2}\] \[TRACE\] t$`).MatchString(lines[0]) {
		t.Errorf("Unexpected trace line %q", lines[0])
	}
	if !regexp.MustCompile(`^\[\d{2}:\d{2}:\d{2}\] \[WARN\] careful$`).MatchString(lines[1]) {
		t.Errorf("Unexpected warn line %q", lines[1])
	}
	if strings.Contains(buf.String(), "\x1b[") {
		t.Error("Buffers are not terminals and must not receive color codes")
	}
}

func TestWithFields(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewConsoleLogger(buf, "info").With("template", "audit", "presets", 2)
	l.LogInfo("checked")

	if !strings.HasSuffix(buf.String(), "] [INFO] checked template=audit presets=2\n") {
		t.Errorf("Unexpected output %q", buf.String())
	}
}

func TestNormalizeLevel(t *testing.T) {
	cases := map[string]string{
		"DEBUG":   "debug",
		" info ":  "info",
		"":        DefaultLevel,
		"verbose": DefaultLevel,
	}
	for in, want := range cases {
		if got := NormalizeLevel(in); got != want {
			t.Errorf("NormalizeLevel(%q) = %q, want %q", in, got, want)
		}
	}
	if ValidLevel("verbose") || !ValidLevel("Error") {
		t.Error("ValidLevel mismatch")
	}
}

func TestNilWriterDiscards(t *testing.T) {
	l := NewConsoleLogger(nil, "trace")
	l.LogError("nowhere")
	if l.Level() != "trace" {
		t.Errorf("Level() = %q", l.Level())
	}
	Nop().LogError("nowhere either")
}
