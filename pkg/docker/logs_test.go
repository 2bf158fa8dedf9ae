package docker

import (
	"net/http"
	"testing"
	"time"

	"github.com/docker/docker/pkg/stdcopy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zorak1103/berth/pkg/opts"
)

func TestContainer_ReadLogs(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /containers/abc/logs", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("timestamps"))
		out := stdcopy.NewStdWriter(w, stdcopy.Stdout)
		errw := stdcopy.NewStdWriter(w, stdcopy.Stderr)
		_, _ = out.Write([]byte("2025-01-01T10:00:00.123456789Z first line\n2025-01-01T10:00:01Z sec"))
		_, _ = errw.Write([]byte("2025-01-01T10:00:01.5Z failure\n"))
		_, _ = out.Write([]byte("ond line\n2025-01-01T10:00:02Z unterminated"))
	})
	c := newTestClient(t, mux)

	entries, err := c.Container("abc").ReadLogs(testContext(t), opts.NewLogsOpts().Stdout(true).Stderr(true).Timestamps(true))
	require.NoError(t, err)

	assert.Equal(t, []LogEntry{
		{Timestamp: "2025-01-01T10:00:00.123456789Z", Stream: "stdout", Message: "first line"},
		{Timestamp: "2025-01-01T10:00:01.5Z", Stream: "stderr", Message: "failure"},
		{Timestamp: "2025-01-01T10:00:01Z", Stream: "stdout", Message: "second line"},
		{Timestamp: "2025-01-01T10:00:02Z", Stream: "stdout", Message: "unterminated"},
	}, entries)

	latest, err := LatestLogTime(entries)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 1, 10, 0, 2, 0, time.UTC), latest)
}

func TestParseLogLine(t *testing.T) {
	tests := []struct {
		name       string
		line       string
		timestamps bool
		expected   LogEntry
	}{
		{
			name:       "with timestamp",
			line:       "2025-01-01T10:00:00Z hello world",
			timestamps: true,
			expected:   LogEntry{Timestamp: "2025-01-01T10:00:00Z", Stream: "stdout", Message: "hello world"},
		},
		{
			name:     "timestamps not requested",
			line:     "2025-01-01T10:00:00Z hello",
			expected: LogEntry{Stream: "stdout", Message: "2025-01-01T10:00:00Z hello"},
		},
		{
			name:       "empty message",
			line:       "2025-01-01T10:00:00Z",
			timestamps: true,
			expected:   LogEntry{Timestamp: "2025-01-01T10:00:00Z", Stream: "stdout"},
		},
		{
			name:       "no space",
			line:       "garbage",
			timestamps: true,
			expected:   LogEntry{Stream: "stdout", Message: "garbage"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLogLine("stdout", tt.line, tt.timestamps))
		})
	}
}

func TestLatestLogTime(t *testing.T) {
	tests := []struct {
		name        string
		entries     []LogEntry
		expected    time.Time
		expectError bool
	}{
		{name: "empty", entries: nil},
		{name: "no timestamp", entries: []LogEntry{{Message: "x"}}},
		{
			name:     "rfc3339",
			entries:  []LogEntry{{Timestamp: "2025-01-01T10:00:00Z"}, {Timestamp: "2025-01-01T11:00:00Z"}},
			expected: time.Date(2025, 1, 1, 11, 0, 0, 0, time.UTC),
		},
		{name: "invalid", entries: []LogEntry{{Timestamp: "yesterday"}}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LatestLogTime(tt.entries)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.expected.Equal(got), "expected %v, got %v", tt.expected, got)
		})
	}
}
