// Package stream converts an upstream chat-completion event stream into
// plain content fragments, and fragments back into client-facing events.
package stream

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
)

const readSize = 4096

var (
	dataPrefix = []byte("data: ")
	doneMarker = []byte("[DONE]")
)

// chunk is the subset of an OpenAI-compatible streaming chunk we read.
type chunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Transcoder pulls content fragments out of an upstream SSE body.
//
// Lines are delimited by '\n'. Only lines starting with "data: " are
// considered; the "[DONE]" marker and undecodable payloads are skipped.
// A trailing line without a newline when the upstream ends is dropped.
// A Transcoder is not safe for concurrent use.
type Transcoder struct {
	r       io.Reader
	chunk   []byte
	buf     []byte
	pending []string
	err     error
}

// NewTranscoder returns a Transcoder reading from r.
func NewTranscoder(r io.Reader) *Transcoder {
	return &Transcoder{
		r:     r,
		chunk: make([]byte, readSize),
	}
}

// Next returns the next non-empty content fragment. It returns io.EOF
// once the upstream ends cleanly. Any other read error is returned wrapped
// and is returned again by every later call.
func (t *Transcoder) Next() (string, error) {
	for {
		if len(t.pending) > 0 {
			s := t.pending[0]
			t.pending = t.pending[1:]
			return s, nil
		}
		if t.err != nil {
			return "", t.err
		}

		n, err := t.r.Read(t.chunk)
		if n > 0 {
			t.buf = append(t.buf, t.chunk[:n]...)
			t.drain()
		}
		if err != nil {
			t.buf = nil
			if errors.Is(err, io.EOF) {
				t.err = io.EOF
			} else {
				t.err = fmt.Errorf("upstream stream interrupted: %w", err)
			}
		}
	}
}

// drain decodes every complete line in the buffer and keeps the remainder.
func (t *Transcoder) drain() {
	consumed := 0
	for {
		i := bytes.IndexByte(t.buf[consumed:], '\n')
		if i < 0 {
			break
		}
		line := t.buf[consumed : consumed+i]
		consumed += i + 1
		if s, ok := decodeLine(line); ok {
			t.pending = append(t.pending, s)
		}
	}
	n := copy(t.buf, t.buf[consumed:])
	t.buf = t.buf[:n]
}

func decodeLine(line []byte) (string, bool) {
	line = bytes.TrimSuffix(line, []byte("\r"))
	payload, ok := bytes.CutPrefix(line, dataPrefix)
	if !ok || bytes.Equal(payload, doneMarker) {
		return "", false
	}

	var c chunk
	if err := json.Unmarshal(payload, &c); err != nil {
		return "", false
	}
	if len(c.Choices) == 0 || c.Choices[0].Delta.Content == "" {
		return "", false
	}
	return c.Choices[0].Delta.Content, true
}

// All returns an iterator over the remaining fragments. A terminal error
// other than io.EOF is yielded once as the last element.
func (t *Transcoder) All() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for {
			s, err := t.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield("", err)
				return
			}
			if !yield(s, nil) {
				return
			}
		}
	}
}

// Collect concatenates every remaining fragment.
func (t *Transcoder) Collect() (string, error) {
	var b strings.Builder
	for s, err := range t.All() {
		if err != nil {
			return b.String(), err
		}
		b.WriteString(s)
	}
	return b.String(), nil
}
