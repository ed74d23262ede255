package log

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEvent() Event {
	return Event{
		Timestamp: time.Now().UTC(),
		SessionID: "11111111-2222-3333-4444-555555555555",
		Direction: DirectionOut,
		Category:  CategoryOutcome,
		Service:   "read-property-multiple",
		DeviceID:  1234,
		Object:    "analog-value:1",
		Outcome:   "SUCCESS",
	}
}

func TestEventRoundTrip(t *testing.T) {
	event := testEvent()

	data, err := EncodeEvent(event)
	require.NoError(t, err)

	decoded, err := DecodeEvent(data)
	require.NoError(t, err)

	assert.Equal(t, event.SessionID, decoded.SessionID)
	assert.Equal(t, event.Direction, decoded.Direction)
	assert.Equal(t, event.Category, decoded.Category)
	assert.Equal(t, event.Service, decoded.Service)
	assert.Equal(t, event.DeviceID, decoded.DeviceID)
	assert.Equal(t, event.Object, decoded.Object)
	assert.Equal(t, event.Outcome, decoded.Outcome)
	assert.WithinDuration(t, event.Timestamp, decoded.Timestamp, time.Millisecond)
}

func TestFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "protocol.cbor")

	logger, err := NewFileLogger(path)
	require.NoError(t, err)

	logger.Log(testEvent())
	second := testEvent()
	second.Category = CategoryLifecycle
	second.State = "initialized"
	logger.Log(second)

	require.NoError(t, logger.Close())

	// Closing twice is fine, logging after close is ignored.
	require.NoError(t, logger.Close())
	logger.Log(testEvent())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	dec := NewDecoder(f)
	var events []Event
	for {
		var e Event
		if err := dec.Decode(&e); err != nil {
			break
		}
		events = append(events, e)
	}
	require.Len(t, events, 2)
	assert.Equal(t, CategoryOutcome, events[0].Category)
	assert.Equal(t, "initialized", events[1].State)
}

func TestFileLoggerAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "protocol.cbor")

	for i := 0; i < 2; i++ {
		logger, err := NewFileLogger(path)
		require.NoError(t, err)
		logger.Log(testEvent())
		require.NoError(t, logger.Close())
	}

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	dec := NewDecoder(f)
	count := 0
	for {
		var e Event
		if err := dec.Decode(&e); err != nil {
			break
		}
		count++
	}
	assert.Equal(t, 2, count)
}

func TestMultiLogger(t *testing.T) {
	var first, second []Event
	a := loggerFunc(func(e Event) { first = append(first, e) })
	b := loggerFunc(func(e Event) { second = append(second, e) })

	multi := NewMultiLogger(a, nil, b)
	multi.Log(testEvent())

	assert.Len(t, first, 1)
	assert.Len(t, second, 1)
}

type loggerFunc func(Event)

func (f loggerFunc) Log(e Event) { f(e) }

func TestNoopLogger(t *testing.T) {
	// Must not panic and must accept any event.
	NoopLogger{}.Log(Event{})
}
