// Package stream implements the ingestion side of one generation: decoding
// the chunked event stream from the model gateway and folding the extracted
// deltas into a single growing text buffer.
package stream

import (
	"encoding/json"
	"strings"

	"pageforge/pkg/logger"
)

const (
	dataPrefix   = "data: "
	doneSentinel = "[DONE]"
)

// deltaRecord mirrors the relevant slice of a chat-completion stream event.
type deltaRecord struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Decoder turns raw network chunks into discrete event records. A chunk
// boundary may fall mid-line, so the final fragment of every chunk is held
// back until the next Feed (or Flush) completes it.
//
// A single malformed line never aborts the stream: it is logged and skipped.
type Decoder struct {
	leftover string
	done     bool

	onDelta func(content string)
	onDone  func()
}

// NewDecoder creates a decoder that reports extracted content deltas to
// onDelta and stream termination to onDone. Either callback may be nil.
func NewDecoder(onDelta func(string), onDone func()) *Decoder {
	return &Decoder{onDelta: onDelta, onDone: onDone}
}

// Feed consumes the next raw chunk from the response stream.
func (d *Decoder) Feed(chunk []byte) {
	d.leftover += string(chunk)
	lines := strings.Split(d.leftover, "\n")
	// The last element is either empty (chunk ended on a newline) or an
	// incomplete line; hold it back either way.
	d.leftover = lines[len(lines)-1]
	for _, line := range lines[:len(lines)-1] {
		d.processLine(line)
	}
}

// Flush pushes any held-back fragment through the per-line logic. Call once
// at end-of-stream: a stream may end without a trailing newline.
func (d *Decoder) Flush() {
	line := d.leftover
	d.leftover = ""
	if strings.TrimSpace(line) != "" {
		d.processLine(line)
	}
}

// Done reports whether the terminator sentinel has been seen.
func (d *Decoder) Done() bool {
	return d.done
}

func (d *Decoder) processLine(line string) {
	if d.done {
		// Nothing after the terminator sentinel may contribute content.
		return
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	if !strings.HasPrefix(line, dataPrefix) {
		// Comment lines, event names and other non-data framing carry no
		// content for us.
		logger.Debugf("stream: ignoring non-data line: %q", line)
		return
	}

	payload := strings.TrimSpace(line[len(dataPrefix):])
	if payload == doneSentinel {
		d.done = true
		if d.onDone != nil {
			d.onDone()
		}
		return
	}

	var rec deltaRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		logger.Warnf("stream: failed to parse event payload, skipping line: %v", err)
		return
	}
	if len(rec.Choices) == 0 {
		return
	}
	if content := rec.Choices[0].Delta.Content; content != "" && d.onDelta != nil {
		d.onDelta(content)
	}
}
