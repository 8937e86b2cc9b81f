package stream

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Flusher is implemented by writers that can push buffered data to the
// client, such as http.ResponseWriter.
type Flusher interface {
	Flush()
}

// EncodeEvent formats a fragment as one client event: "data: " followed by
// the fragment as a JSON string and a blank line. JSON encoding keeps
// newlines inside the fragment from breaking event framing.
func EncodeEvent(fragment string) ([]byte, error) {
	var b bytes.Buffer
	b.WriteString("data: ")
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(fragment); err != nil {
		return nil, err
	}
	// Encode terminates with a single newline; the event needs two.
	b.WriteByte('\n')
	return b.Bytes(), nil
}

// Relay writes every fragment from t to w as client events, flushing after
// each one when w supports it. It returns the number of fragments written
// and the accumulated text. A clean upstream end returns a nil error; there
// is no terminal marker event.
func Relay(t *Transcoder, w io.Writer) (int, string, error) {
	flusher, _ := w.(Flusher)
	var (
		count int
		text  bytes.Buffer
	)
	for s, err := range t.All() {
		if err != nil {
			return count, text.String(), err
		}
		event, err := EncodeEvent(s)
		if err != nil {
			return count, text.String(), fmt.Errorf("failed to encode event: %w", err)
		}
		if _, err := w.Write(event); err != nil {
			return count, text.String(), fmt.Errorf("failed to write event: %w", err)
		}
		if flusher != nil {
			flusher.Flush()
		}
		count++
		text.WriteString(s)
	}
	return count, text.String(), nil
}
