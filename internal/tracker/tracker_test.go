package tracker

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackWritesEventFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")

	tracker, err := New(nil, path)
	require.NoError(t, err)

	tracker.Track("alice", "problem_check", map[string]interface{}{"attempts": 1})
	tracker.Track("bob", "seq_goto", map[string]interface{}{"position": 2})
	require.NoError(t, tracker.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var event Event
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &event))
		events = append(events, event)
	}
	require.NoError(t, scanner.Err())

	require.Len(t, events, 2)
	assert.Equal(t, "problem_check", events[0].Type)
	assert.Equal(t, "alice", events[0].Student)
	assert.NotEmpty(t, events[0].ID)
	assert.False(t, events[0].Timestamp.IsZero())
	assert.Equal(t, float64(1), events[0].Payload["attempts"])
	assert.NotEqual(t, events[0].ID, events[1].ID)
}

func TestTrackWithoutEventFile(t *testing.T) {
	tracker, err := New(nil, "")
	require.NoError(t, err)
	defer tracker.Close()

	// Only logged, never panics.
	tracker.Track("alice", "problem_check", nil)
}

func TestFuncForBindsStudent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	tracker, err := New(nil, path)
	require.NoError(t, err)

	track := tracker.FuncFor("carol")
	track("video_position_saved", map[string]interface{}{"position": 9.5})
	require.NoError(t, tracker.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var event Event
	require.NoError(t, json.Unmarshal(data, &event))
	assert.Equal(t, "carol", event.Student)
	assert.Equal(t, "video_position_saved", event.Type)
}

func TestNewRejectsUnwritablePath(t *testing.T) {
	_, err := New(nil, filepath.Join(t.TempDir(), "missing-dir", "events.jsonl"))
	assert.Error(t, err)
}
