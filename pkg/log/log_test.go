package log

import (
	"bytes"
	"strings"
	"testing"
)

func TestNamedLoggerPrefix(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(nil) // no-op, keeps output as the buffer for other tests

	logger := ForService("heimuer")
	logger.Infof("fetched %d results", 3)

	out := buf.String()
	if !strings.Contains(out, "INFO [heimuer>] fetched 3 results") {
		t.Errorf("Unexpected log line: %q", out)
	}
}

func TestForServiceMemoizes(t *testing.T) {
	a := ForService("memo")
	b := ForService("memo")
	if a != b {
		t.Error("Expected the same logger instance for the same name")
	}
}

func TestForServiceEmptyName(t *testing.T) {
	logger := ForService("")
	if logger == nil {
		t.Fatal("Expected a logger for the empty name")
	}

	var buf bytes.Buffer
	SetOutput(&buf)
	logger.Warnf("boom")
	if !strings.Contains(buf.String(), "[unknown>]") {
		t.Errorf("Expected unknown prefix, got %q", buf.String())
	}
}

func TestDebugGating(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)

	logger := ForService("gated")
	logger.Debugf("hidden")
	if strings.Contains(buf.String(), "hidden") {
		t.Error("Debug output should be suppressed by default")
	}

	EnableDebugFor("gated")
	logger.Debugf("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Error("Debug output should appear once enabled for the name")
	}

	if DebugEnabledFor("other") {
		t.Error("Debug must not leak to other names")
	}

	SetGlobalDebug(true)
	defer SetGlobalDebug(false)
	if !DebugEnabledFor("other") {
		t.Error("Global debug should enable every name")
	}
}
