// Package commands implements the bacnode-log CLI commands.
package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/bacnode-protocol/bacnode-go/pkg/log"
)

// ViewFilter specifies criteria for filtering events in the view command.
type ViewFilter struct {
	Direction *log.Direction
	Category  *log.Category
	DeviceID  uint32
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [session:id] DIRECTION CATEGORY
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	session := shortenSessionID(event.SessionID)
	dir := event.Direction.String()

	fmt.Fprintf(w, "%s [session:%s] %-3s %s\n", ts, session, dir, event.Category.String())

	if event.Service != "" {
		fmt.Fprintf(w, "  Service: %s\n", event.Service)
	}
	if event.DeviceID != 0 {
		fmt.Fprintf(w, "  Device: %d\n", event.DeviceID)
	}
	if event.Object != "" {
		fmt.Fprintf(w, "  Object: %s\n", event.Object)
	}
	if event.Outcome != "" {
		fmt.Fprintf(w, "  Outcome: %s\n", event.Outcome)
	}
	if event.State != "" {
		fmt.Fprintf(w, "  State: %s\n", event.State)
	}
	if event.Error != "" {
		fmt.Fprintf(w, "  Error: %s\n", event.Error)
	}

	fmt.Fprintln(w) // Blank line between events
}

// shortenSessionID returns the first 8 characters of the session ID.
func shortenSessionID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

// ParseDirectionFlag parses a direction string from command-line flag (case-insensitive).
func ParseDirectionFlag(s string) (log.Direction, error) {
	return parseDirection(s)
}

// parseDirection parses a direction string (case-insensitive).
func parseDirection(s string) (log.Direction, error) {
	switch strings.ToLower(s) {
	case "in":
		return log.DirectionIn, nil
	case "out":
		return log.DirectionOut, nil
	default:
		return 0, fmt.Errorf("invalid direction: %s (must be in or out)", s)
	}
}

// ParseCategoryFlag parses a category string from command-line flag (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	return parseCategory(s)
}

// parseCategory parses a category string (case-insensitive).
func parseCategory(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "request":
		return log.CategoryRequest, nil
	case "outcome":
		return log.CategoryOutcome, nil
	case "broadcast":
		return log.CategoryBroadcast, nil
	case "notification":
		return log.CategoryNotification, nil
	case "lifecycle":
		return log.CategoryLifecycle, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be request, outcome, broadcast, notification, lifecycle, or error)", s)
	}
}

// RunView executes the view command.
func RunView(path string, filter ViewFilter, output io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		if filter.Direction != nil && event.Direction != *filter.Direction {
			continue
		}
		if filter.Category != nil && event.Category != *filter.Category {
			continue
		}
		if filter.DeviceID != 0 && event.DeviceID != filter.DeviceID {
			continue
		}

		formatEvent(output, event)
	}

	return nil
}
