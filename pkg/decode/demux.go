package decode

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"

	apperrors "github.com/zorak1103/berth/pkg/errors"
)

// StreamType is the discriminant in byte 0 of a frame header.
type StreamType byte

// Stream types used by the daemon.
const (
	Stdin StreamType = iota
	Stdout
	Stderr
	// Systemerr carries a daemon-side error that ended the stream.
	Systemerr
)

func (s StreamType) String() string {
	switch s {
	case Stdin:
		return "stdin"
	case Stdout:
		return "stdout"
	case Stderr:
		return "stderr"
	case Systemerr:
		return "systemerr"
	}
	return fmt.Sprintf("stream(%d)", byte(s))
}

// Frame header layout:
//
//	┌──────────┬─────────────────┬──────────────────────────┐
//	│   Type   │    Reserved     │      Payload length      │
//	│ (1 byte) │ (3 bytes, zero) │ (4 bytes, big endian)    │
//	└──────────┴─────────────────┴──────────────────────────┘
const (
	headerLen    = 8
	sizeOffset   = 4
	rawChunkSize = 32 * 1024
)

// Frame is one unit of multiplexed output.
type Frame struct {
	Stream  StreamType
	Payload []byte
}

// Demuxer reads frames lazily from a daemon stream. It is forward-only and
// not restartable; once it returns an error, every later call returns the
// same error. Consumers that stop early should close the underlying stream.
type Demuxer struct {
	r      io.Reader
	raw    bool
	offset int64
	header [headerLen]byte
	err    error
}

// NewDemuxer reads frames with 8-byte headers from r.
func NewDemuxer(r io.Reader) *Demuxer {
	return &Demuxer{r: r}
}

// NewRawDemuxer wraps a TTY stream, which has no framing: every chunk read
// is reported as stdout.
func NewRawDemuxer(r io.Reader) *Demuxer {
	return &Demuxer{r: r, raw: true}
}

// Offset returns the number of stream bytes consumed so far.
func (d *Demuxer) Offset() int64 {
	return d.offset
}

// Next returns the next frame, io.EOF at a clean end of stream, a
// *apperrors.DecodeError on a framing violation, a *apperrors.DaemonError
// for a system error frame, or a *apperrors.ConnectionError if reading failed.
func (d *Demuxer) Next() (Frame, error) {
	if d.err != nil {
		return Frame{}, d.err
	}
	var f Frame
	if d.raw {
		f, d.err = d.nextRaw()
	} else {
		f, d.err = d.nextFrame()
	}
	if d.err != nil && f.Payload != nil {
		// Deliver the data read before the error; the error comes next call.
		return f, nil
	}
	return f, d.err
}

func (d *Demuxer) nextRaw() (Frame, error) {
	buf := make([]byte, rawChunkSize)
	n, err := d.r.Read(buf)
	d.offset += int64(n)

	var f Frame
	if n > 0 {
		f = Frame{Stream: Stdout, Payload: buf[:n]}
	}
	switch {
	case err == io.EOF:
		return f, io.EOF
	case err != nil:
		return f, readError(err)
	case n == 0:
		return d.nextRaw()
	}
	return f, nil
}

func (d *Demuxer) nextFrame() (Frame, error) {
	n, err := io.ReadFull(d.r, d.header[:])
	switch {
	case err == io.EOF:
		return Frame{}, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		return Frame{}, &apperrors.DecodeError{
			Offset: d.offset + int64(n),
			Err:    fmt.Errorf("%w: header has %d of %d bytes", apperrors.ErrTruncatedFrame, n, headerLen),
		}
	case err != nil:
		return Frame{}, readError(err)
	}

	// Bytes 1-3 are reserved. The daemon's own reader ignores them too, so
	// they are not checked.
	stream := StreamType(d.header[0])
	if stream > Systemerr {
		return Frame{}, &apperrors.DecodeError{
			Offset: d.offset,
			Err:    fmt.Errorf("%w: %d", apperrors.ErrUnknownStream, d.header[0]),
		}
	}
	size := int64(binary.BigEndian.Uint32(d.header[sizeOffset:]))

	// Grow with the data actually received instead of trusting the declared size.
	var payload bytes.Buffer
	copied, err := io.CopyN(&payload, d.r, size)
	if err != nil {
		if err == io.EOF {
			return Frame{}, &apperrors.DecodeError{
				Offset: d.offset + headerLen + copied,
				Err:    fmt.Errorf("%w: payload has %d of %d bytes", apperrors.ErrTruncatedFrame, copied, size),
			}
		}
		return Frame{}, readError(err)
	}
	d.offset += headerLen + size

	if stream == Systemerr {
		return Frame{}, &apperrors.DaemonError{StatusCode: http.StatusInternalServerError, Message: payload.String()}
	}
	return Frame{Stream: stream, Payload: payload.Bytes()}, nil
}

func readError(err error) error {
	return &apperrors.ConnectionError{Op: "read stream", Err: err}
}

// All returns the remaining frames as a sequence. The sequence ends after
// the clean end of stream (which is not yielded) or after the first error.
func (d *Demuxer) All() iter.Seq2[Frame, error] {
	return func(yield func(Frame, error) bool) {
		for {
			f, err := d.Next()
			if err == io.EOF {
				return
			}
			if !yield(f, err) || err != nil {
				return
			}
		}
	}
}

// Split copies stdout (and stdin echo) frames to stdout and stderr frames to
// stderr until the stream ends. It returns the number of payload bytes written.
func (d *Demuxer) Split(stdout, stderr io.Writer) (int64, error) {
	var written int64
	for f, err := range d.All() {
		if err != nil {
			return written, err
		}
		w := stdout
		if f.Stream == Stderr {
			w = stderr
		}
		n, werr := w.Write(f.Payload)
		written += int64(n)
		if werr != nil {
			return written, fmt.Errorf("failed to write %s payload: %w", f.Stream, werr)
		}
	}
	return written, nil
}
