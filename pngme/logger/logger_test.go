package logger

import (
	"bytes"
	"strings"
	"testing"
)

func captureOutput(t *testing.T, level LogLevel) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOut := SetOutput(&buf)
	prevLevel := GetLogLevel()
	SetLogLevel(level)
	t.Cleanup(func() {
		SetOutput(prevOut)
		SetLogLevel(prevLevel)
	})
	return &buf
}

func TestLevels(t *testing.T) {
	buf := captureOutput(t, LogLevelWarn)

	Debug("debug line")
	Info("info line")
	Warn("warn line")
	Error("error line")

	out := buf.String()
	if strings.Contains(out, "debug line") || strings.Contains(out, "info line") {
		t.Errorf("output contains messages below WARN: %q", out)
	}
	if !strings.Contains(out, "WARN: warn line") || !strings.Contains(out, "ERROR: error line") {
		t.Errorf("output missing WARN/ERROR messages: %q", out)
	}
}

func TestSilent(t *testing.T) {
	buf := captureOutput(t, LogLevelSilent)

	Error("should not appear")
	if buf.Len() != 0 {
		t.Errorf("silent logger wrote %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    LogLevel
		wantErr bool
	}{
		{"debug", LogLevelDebug, false},
		{"INFO", LogLevelInfo, false},
		{"Warn", LogLevelWarn, false},
		{"error", LogLevelError, false},
		{"silent", LogLevelSilent, false},
		{"loud", LogLevelError, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestRedactSensitive(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no payload", "encoding chunk RuSt", "encoding chunk RuSt"},
		{"bare value", "type=RuSt message=secret size=6", "type=RuSt message=*** size=6"},
		{"quoted value", `type=RuSt message="top secret" size=10`, "type=RuSt message=*** size=10"},
		{"at end", "message=secret", "message=***"},
		{"unterminated quote", `message="oops`, "message=***"},
		{"escaped quotes", `message="say \"x\" now" size=3`, "message=*** size=3"},
		{"escaped backslash before close", `message="a\\" size=2`, "message=*** size=2"},
		{"key inside quoted value", `message="a message=b c d\"" size=9`, "message=*** size=9"},
		{"two payloads", "message=one then message=two", "message=*** then message=***"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := redactSensitive(tt.in); got != tt.want {
				t.Errorf("redactSensitive(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestLogRedactsPayload(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		secret  string
	}{
		{"plain", "hunter2 is my password", "hunter2"},
		{"inner quotes", `say "launch code 4711" now`, "4711"},
		{"backslashes", `C:\vault\key "k9"`, "vault"},
		{"contains key", `x message=y the code is 8812`, "8812"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureOutput(t, LogLevelDebug)

			Debug("embedding type=%s message=%q (%d bytes)", "ruSt", tt.payload, len(tt.payload))
			out := buf.String()
			if strings.Contains(out, tt.secret) {
				t.Errorf("log output leaked payload: %q", out)
			}
			if !strings.Contains(out, "message=*** (") {
				t.Errorf("log output lost the text after the payload: %q", out)
			}
		})
	}
}
