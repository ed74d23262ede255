package commands

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bacnode-protocol/bacnode-go/pkg/log"
)

func createTestLogFile(t *testing.T, events []log.Event) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.blog")

	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	for _, e := range events {
		logger.Log(e)
	}
	logger.Close()

	return path
}

func TestFormatRequestEvent(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 123456000, time.UTC)
	event := log.Event{
		Timestamp: ts,
		SessionID: "abc12345-6789-0123-4567-890abcdef012",
		Direction: log.DirectionOut,
		Category:  log.CategoryRequest,
		Service:   "read-property",
		DeviceID:  1001,
		Object:    "analog-value:1",
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	if !strings.Contains(output, "2026-01-28T10:15:32.123456Z") {
		t.Errorf("expected microsecond timestamp, got: %s", output)
	}
	if !strings.Contains(output, "[session:abc12345]") {
		t.Errorf("expected shortened session ID, got: %s", output)
	}
	if !strings.Contains(output, "OUT") {
		t.Errorf("expected OUT direction, got: %s", output)
	}
	if !strings.Contains(output, "REQUEST") {
		t.Errorf("expected REQUEST category, got: %s", output)
	}
	if !strings.Contains(output, "Service: read-property") {
		t.Errorf("expected service line, got: %s", output)
	}
	if !strings.Contains(output, "Device: 1001") {
		t.Errorf("expected device line, got: %s", output)
	}
	if !strings.Contains(output, "Object: analog-value:1") {
		t.Errorf("expected object line, got: %s", output)
	}
}

func TestFormatOutcomeEvent(t *testing.T) {
	event := log.Event{
		Timestamp: time.Date(2026, 1, 28, 10, 15, 33, 0, time.UTC),
		SessionID: "abc12345",
		Direction: log.DirectionIn,
		Category:  log.CategoryOutcome,
		DeviceID:  1001,
		Outcome:   "ABORT(3)",
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	if !strings.Contains(output, "OUTCOME") {
		t.Errorf("expected OUTCOME category, got: %s", output)
	}
	if !strings.Contains(output, "Outcome: ABORT(3)") {
		t.Errorf("expected outcome line, got: %s", output)
	}
}

func TestRunViewFilters(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	events := []log.Event{
		{Timestamp: ts, Direction: log.DirectionOut, Category: log.CategoryRequest, DeviceID: 1001, Service: "read-property"},
		{Timestamp: ts, Direction: log.DirectionIn, Category: log.CategoryOutcome, DeviceID: 1001, Outcome: "SUCCESS"},
		{Timestamp: ts, Direction: log.DirectionOut, Category: log.CategoryBroadcast, Service: "who-is"},
	}
	path := createTestLogFile(t, events)

	t.Run("no filter shows all", func(t *testing.T) {
		var buf bytes.Buffer
		if err := RunView(path, ViewFilter{}, &buf); err != nil {
			t.Fatalf("RunView failed: %v", err)
		}
		if got := strings.Count(buf.String(), "[session:"); got != 3 {
			t.Errorf("expected 3 events, got %d", got)
		}
	})

	t.Run("category filter", func(t *testing.T) {
		cat := log.CategoryBroadcast
		var buf bytes.Buffer
		if err := RunView(path, ViewFilter{Category: &cat}, &buf); err != nil {
			t.Fatalf("RunView failed: %v", err)
		}
		output := buf.String()
		if got := strings.Count(output, "[session:"); got != 1 {
			t.Errorf("expected 1 event, got %d", got)
		}
		if !strings.Contains(output, "who-is") {
			t.Errorf("expected who-is broadcast, got: %s", output)
		}
	})

	t.Run("direction filter", func(t *testing.T) {
		dir := log.DirectionIn
		var buf bytes.Buffer
		if err := RunView(path, ViewFilter{Direction: &dir}, &buf); err != nil {
			t.Fatalf("RunView failed: %v", err)
		}
		if got := strings.Count(buf.String(), "[session:"); got != 1 {
			t.Errorf("expected 1 event, got %d", got)
		}
	})
}

func TestParseFlags(t *testing.T) {
	if _, err := ParseDirectionFlag("sideways"); err == nil {
		t.Error("expected error for invalid direction")
	}
	if d, err := ParseDirectionFlag("OUT"); err != nil || d != log.DirectionOut {
		t.Errorf("ParseDirectionFlag(OUT) = %v, %v", d, err)
	}
	if _, err := ParseCategoryFlag("frame"); err == nil {
		t.Error("expected error for invalid category")
	}
	if c, err := ParseCategoryFlag("notification"); err != nil || c != log.CategoryNotification {
		t.Errorf("ParseCategoryFlag(notification) = %v, %v", c, err)
	}
}
