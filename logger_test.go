package modbus

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestLoggerWrite(t *testing.T) {
	var out bytes.Buffer
	logger := NewLogger(&out, zerolog.DebugLevel, "test")

	if _, err := logger.Write([]byte("modbus: -> 01 03 00 00 00 02 C4 0B\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	line := out.String()
	if !strings.Contains(line, `"level":"debug"`) {
		t.Errorf("frame trace not logged at debug: %s", line)
	}
	if !strings.Contains(line, `"component":"test"`) {
		t.Errorf("component field missing: %s", line)
	}
	if !strings.Contains(line, "01 03 00 00 00 02") {
		t.Errorf("message lost: %s", line)
	}
}

func TestLoggerLevelFilter(t *testing.T) {
	var out bytes.Buffer
	logger := NewLogger(&out, zerolog.ErrorLevel, "test")

	logger.Write([]byte("modbus: discarding stale frame"))
	if out.Len() != 0 {
		t.Errorf("debug message passed an error-level filter: %s", out.String())
	}

	logger.Write([]byte("ERROR: port gone"))
	if !strings.Contains(out.String(), `"level":"error"`) {
		t.Errorf("error message filtered out: %s", out.String())
	}
}

func TestMessageLevel(t *testing.T) {
	testCases := []struct {
		message string
		level   zerolog.Level
	}{
		{"ERROR: boom", zerolog.ErrorLevel},
		{"[ERROR] boom", zerolog.ErrorLevel},
		{"WARN: odd frame", zerolog.WarnLevel},
		{"[WARNING] odd frame", zerolog.WarnLevel},
		{"INFO: connected", zerolog.InfoLevel},
		{"modbus: -> 01 03", zerolog.DebugLevel},
	}
	for _, tc := range testCases {
		if got := messageLevel(tc.message); got != tc.level {
			t.Errorf("messageLevel(%q) = %v, expected %v", tc.message, got, tc.level)
		}
	}
}
