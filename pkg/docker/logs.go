package docker

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/zorak1103/berth/pkg/decode"
	"github.com/zorak1103/berth/pkg/opts"
)

// LogEntry is a single line of container output.
type LogEntry struct {
	Timestamp string // RFC3339Nano, empty unless requested with LogsOpts.Timestamps
	Stream    string // stdout or stderr
	Message   string
}

// ReadLogs reads the container output to the end and splits it into lines.
// It must not be used with LogsOpts.Follow, which never ends.
func (c *Container) ReadLogs(ctx context.Context, o *opts.LogsOpts) ([]LogEntry, error) {
	timestamps := o.HasTimestamps()
	stream, err := c.Logs(ctx, o)
	if err != nil {
		return nil, err
	}
	defer func() { _ = stream.Close() }()

	// Frames do not follow line boundaries; keep a partial line per stream.
	partial := map[decode.StreamType]*bytes.Buffer{}
	var entries []LogEntry
	flush := func(st decode.StreamType, line string) {
		entries = append(entries, parseLogLine(st.String(), line, timestamps))
	}

	for frame, err := range stream.All() {
		if err != nil {
			return entries, fmt.Errorf("error reading logs of container %s after %d entries: %w", c.id, len(entries), err)
		}
		buf := partial[frame.Stream]
		if buf == nil {
			buf = &bytes.Buffer{}
			partial[frame.Stream] = buf
		}
		buf.Write(frame.Payload)
		for {
			line, rest, found := bytes.Cut(buf.Bytes(), []byte{'\n'})
			if !found {
				break
			}
			flush(frame.Stream, strings.TrimSuffix(string(line), "\r"))
			remaining := append([]byte(nil), rest...)
			buf.Reset()
			buf.Write(remaining)
		}
	}
	for _, st := range []decode.StreamType{decode.Stdout, decode.Stderr} {
		if buf := partial[st]; buf != nil && buf.Len() > 0 {
			flush(st, buf.String())
		}
	}
	return entries, nil
}

// parseLogLine splits "2025-11-30T19:00:00.123456789Z message" when the
// daemon was asked for timestamps.
func parseLogLine(stream, line string, timestamps bool) LogEntry {
	if !timestamps {
		return LogEntry{Stream: stream, Message: line}
	}
	timestamp, message, found := strings.Cut(line, " ")
	if !found {
		if _, err := time.Parse(time.RFC3339Nano, line); err == nil {
			return LogEntry{Timestamp: line, Stream: stream}
		}
		return LogEntry{Stream: stream, Message: line}
	}
	return LogEntry{Timestamp: timestamp, Stream: stream, Message: message}
}

// LatestLogTime returns the timestamp of the last entry, or the zero time
// if it has none.
func LatestLogTime(entries []LogEntry) (time.Time, error) {
	if len(entries) == 0 {
		return time.Time{}, nil
	}

	last := entries[len(entries)-1]
	if last.Timestamp == "" {
		return time.Time{}, nil
	}

	t, err := time.Parse(time.RFC3339Nano, last.Timestamp)
	if err != nil {
		t, err = time.Parse(time.RFC3339, last.Timestamp)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to parse timestamp '%s' in log entry %d: %w", last.Timestamp, len(entries)-1, err)
		}
	}
	return t, nil
}
