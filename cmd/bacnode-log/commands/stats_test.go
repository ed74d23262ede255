package commands

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/bacnode-protocol/bacnode-go/pkg/log"
)

func TestStatsCountsByCategory(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	events := []log.Event{
		{Timestamp: ts, Category: log.CategoryRequest, Service: "read-property"},
		{Timestamp: ts, Category: log.CategoryOutcome, Outcome: "SUCCESS"},
		{Timestamp: ts, Category: log.CategoryBroadcast, Service: "who-is"},
		{Timestamp: ts, Category: log.CategoryError, Error: "transport closed"},
	}

	path := createTestLogFile(t, events)

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}

	output := buf.String()
	for _, want := range []string{"REQUEST:", "OUTCOME:", "BROADCAST:", "ERROR:"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %s in output, got:\n%s", want, output)
		}
	}
	if !strings.Contains(output, "Total Events: 4") {
		t.Errorf("expected total of 4, got:\n%s", output)
	}
	if !strings.Contains(output, "Errors: 1") {
		t.Errorf("expected error count, got:\n%s", output)
	}
}

func TestStatsCountsServicesAndOutcomes(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	events := []log.Event{
		{Timestamp: ts, Category: log.CategoryRequest, Service: "read-property"},
		{Timestamp: ts, Category: log.CategoryRequest, Service: "read-property"},
		{Timestamp: ts, Category: log.CategoryRequest, Service: "write-property"},
		{Timestamp: ts, Category: log.CategoryOutcome, Outcome: "SUCCESS"},
		{Timestamp: ts, Category: log.CategoryOutcome, Outcome: "TIMEOUT"},
	}

	path := createTestLogFile(t, events)

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "read-property:") || !strings.Contains(output, "write-property:") {
		t.Errorf("expected service breakdown, got:\n%s", output)
	}
	if !strings.Contains(output, "SUCCESS:") || !strings.Contains(output, "TIMEOUT:") {
		t.Errorf("expected outcome breakdown, got:\n%s", output)
	}
}

func TestStatsCountsSessions(t *testing.T) {
	base := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	events := []log.Event{
		{Timestamp: base, SessionID: "aaaa-bbbb-cccc", Category: log.CategoryRequest, DeviceID: 1001},
		{Timestamp: base.Add(time.Minute), SessionID: "aaaa-bbbb-cccc", Category: log.CategoryOutcome, DeviceID: 1001},
		{Timestamp: base.Add(2 * time.Minute), SessionID: "dddd-eeee-ffff", Category: log.CategoryRequest, DeviceID: 1002},
	}

	path := createTestLogFile(t, events)

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "Sessions: 2") {
		t.Errorf("expected 2 sessions, got:\n%s", output)
	}
	if !strings.Contains(output, "[aaaa-bbb]") {
		t.Errorf("expected shortened session ID, got:\n%s", output)
	}
	if !strings.Contains(output, "Device 1001: 2 events") {
		t.Errorf("expected per-device breakdown, got:\n%s", output)
	}
}

func TestStatsEmptyFile(t *testing.T) {
	path := createTestLogFile(t, nil)

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Total Events: 0") {
		t.Errorf("expected zero total, got:\n%s", buf.String())
	}
}
