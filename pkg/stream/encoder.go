// Package stream serializes a turn's step events onto the wire: either as
// an incremental stream of JSON lines, or drained and aggregated into one
// consolidated result.
package stream

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/lyuef/TrafficSenseAgent/pkg/agent"
)

// Encoder writes step events as newline-delimited JSON, one event per line,
// flushed immediately so the client sees each reasoning step as it happens.
type Encoder struct {
	enc     *json.Encoder
	flusher http.Flusher
}

// NewEncoder creates a stream encoder over the writer. When the writer
// implements http.Flusher every event is flushed as it is written.
func NewEncoder(w io.Writer) *Encoder {
	e := &Encoder{enc: json.NewEncoder(w)}
	if f, ok := w.(http.Flusher); ok {
		e.flusher = f
	}
	return e
}

// Encode writes one event and flushes it
func (e *Encoder) Encode(ev agent.StepEvent) error {
	if err := e.enc.Encode(ev); err != nil {
		return err
	}
	if e.flusher != nil {
		e.flusher.Flush()
	}
	return nil
}
