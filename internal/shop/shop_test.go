package shop

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		input    string
		expected Action
	}{
		{"close", ActionClose},
		{" SoftOpen ", ActionSoftOpen},
		{"OPEN", ActionOpen},
		{"clear-checkin", ActionClearCheckin},
	}
	for _, tt := range tests {
		action, err := ParseAction(tt.input)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.expected, action)
	}
}

func TestParseActionUnknown(t *testing.T) {
	_, err := ParseAction("reopen")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reopen")
}

func TestActionStatus(t *testing.T) {
	status, ok := ActionSoftOpen.Status()
	assert.True(t, ok)
	assert.Equal(t, StatusSoftOpen, status)

	_, ok = ActionClearCheckin.Status()
	assert.False(t, ok)
}

func TestPayloadFieldOrder(t *testing.T) {
	data, err := json.Marshal(StatusPayload{ID: "rec1", Status: StatusOpen})
	require.NoError(t, err)
	assert.Equal(t, `{"id":"rec1","status":"Open"}`, string(data))

	data, err = json.Marshal(CheckinPayload{ID: "rec1", Reason: "418"})
	require.NoError(t, err)
	assert.Equal(t, `{"id":"rec1","reason":"418"}`, string(data))
}

func TestStateApply(t *testing.T) {
	var state State
	first := time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)

	state.Apply(ActionOpen, first)
	state.Apply(ActionClearCheckin, second)

	snapshot := state.Snapshot()
	assert.Equal(t, StatusOpen, snapshot.Status)
	assert.Equal(t, first, snapshot.StatusAt)
	assert.Equal(t, second, snapshot.CheckinClearAt)

	state.Apply(ActionClose, second)
	assert.Equal(t, StatusClosed, state.Snapshot().Status)
}
