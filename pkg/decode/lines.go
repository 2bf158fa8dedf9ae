package decode

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"iter"

	apperrors "github.com/zorak1103/berth/pkg/errors"
)

// LineDecoder decodes a stream of JSON documents, one per line, as sent by
// the image pull/build/load and events endpoints. A malformed line is an
// error for that line only: the following call moves on to the next line.
type LineDecoder[T any] struct {
	r    *bufio.Reader
	line int
	done bool
}

// NewLineDecoder reads line-delimited JSON documents from r.
func NewLineDecoder[T any](r io.Reader) *LineDecoder[T] {
	return &LineDecoder[T]{r: bufio.NewReader(r)}
}

// Line returns the number of the last line read, starting at 1.
func (d *LineDecoder[T]) Line() int {
	return d.line
}

// Next returns the next document, or io.EOF once the stream is exhausted.
// Blank lines are skipped.
func (d *LineDecoder[T]) Next() (T, error) {
	var zero T
	for {
		if d.done {
			return zero, io.EOF
		}

		raw, err := d.r.ReadBytes('\n')
		switch {
		case err == io.EOF:
			d.done = true
		case err != nil:
			d.done = true
			return zero, readError(err)
		}

		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 {
			continue
		}
		d.line++

		v, err := JSON[T](raw)
		if err != nil {
			var de *apperrors.DecodeError
			if errors.As(err, &de) {
				de.Line = d.line
			}
			return zero, err
		}
		return v, nil
	}
}

// All returns the remaining documents as a sequence. Decode errors are
// yielded and iteration continues; a read error ends the sequence.
func (d *LineDecoder[T]) All() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for {
			v, err := d.Next()
			if err == io.EOF {
				return
			}
			if !yield(v, err) {
				return
			}
			var ce *apperrors.ConnectionError
			if errors.As(err, &ce) {
				return
			}
		}
	}
}
