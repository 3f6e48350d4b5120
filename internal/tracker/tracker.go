// Package tracker implements the module system's track function: analytics
// events from content modules, stamped with an id and timestamp, written to
// the structured log and optionally appended to a JSONL file.
package tracker

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/coursegrid/coursegrid/internal/course"
	"github.com/coursegrid/coursegrid/internal/logging"
)

// Event is one recorded analytics event.
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"event_type"`
	Student   string                 `json:"student,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Payload   map[string]interface{} `json:"event"`
}

// Tracker records events from content modules.
type Tracker struct {
	logger logging.Logger

	mu   sync.Mutex
	file *os.File
}

// New creates a tracker logging through logger. eventFile may be empty;
// when set, events are also appended there as JSON lines.
func New(logger logging.Logger, eventFile string) (*Tracker, error) {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	t := &Tracker{logger: logger.WithComponent("tracker")}

	if eventFile != "" {
		f, err := os.OpenFile(eventFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, err
		}
		t.file = f
	}

	return t, nil
}

// Close closes the event file, if any.
func (t *Tracker) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.file != nil {
		return t.file.Close()
	}
	return nil
}

// Track records one event.
func (t *Tracker) Track(student, eventType string, payload map[string]interface{}) {
	event := Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Student:   student,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}

	t.logger.Debug(context.Background(), "event tracked",
		"event_id", event.ID, "event_type", eventType, "student", student)

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.file == nil {
		return
	}

	line, err := json.Marshal(event)
	if err != nil {
		t.logger.Error(context.Background(), err, "encoding event", "event_type", eventType)
		return
	}
	line = append(line, '\n')
	if _, err := t.file.Write(line); err != nil {
		t.logger.Error(context.Background(), err, "writing event", "event_type", eventType)
	}
}

// FuncFor returns a course.TrackFunc bound to one student, suitable for a
// module system closure.
func (t *Tracker) FuncFor(student string) course.TrackFunc {
	return func(eventType string, event map[string]interface{}) {
		t.Track(student, eventType, event)
	}
}
