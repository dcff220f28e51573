package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"pageforge/internal/ai"
	"pageforge/internal/resolve"
)

// mockGenerator is a scripted network collaborator.
type mockGenerator struct {
	deltas      []string // emitted one by one on Stream
	full        string   // returned by Complete
	err         error    // returned by either path
	started     chan struct{}
	startedOnce sync.Once
	unblock     chan struct{}
	streamed    int
	completed   int
}

func (m *mockGenerator) Stream(_ context.Context, _ string, onDelta func(string)) error {
	m.streamed++
	if m.started != nil {
		m.startedOnce.Do(func() { close(m.started) })
	}
	if m.unblock != nil {
		<-m.unblock
	}
	for _, d := range m.deltas {
		onDelta(d)
	}
	return m.err
}

func (m *mockGenerator) Complete(context.Context, string) (string, error) {
	m.completed++
	return m.full, m.err
}

func newController(gen Generator, streaming bool) *Controller {
	return New(gen, resolve.SeparatorContract{}, streaming)
}

func TestStart_StreamingSuccess(t *testing.T) {
	gen := &mockGenerator{deltas: []string{"<p>hi</p>", "\n" + resolve.ExplanationSeparator + "\n", "Explanation."}}
	ctrl := newController(gen, true)

	var events []Event
	err := ctrl.Start(context.Background(), "a snake game", func(ev Event) { events = append(events, ev) })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(events) < 3 {
		t.Fatalf("got %d events, want at least initial + snapshots + terminal", len(events))
	}

	first := events[0]
	if first.Phase != PhaseStreaming || first.View != ViewCode {
		t.Errorf("first event = %+v, want Streaming with forced code view", first)
	}
	if first.GenerationID == "" {
		t.Error("events must carry a generation ID")
	}

	// Each snapshot carries the full accumulated text, growing monotonically.
	var partials []string
	for _, ev := range events[1 : len(events)-1] {
		if ev.Phase != PhaseStreaming {
			t.Errorf("mid-stream event has phase %s", ev.Phase)
		}
		partials = append(partials, ev.Partial)
	}
	for i := 1; i < len(partials); i++ {
		if !strings.HasPrefix(partials[i], partials[i-1]) {
			t.Errorf("partial %d (%q) does not extend partial %d (%q)", i, partials[i], i-1, partials[i-1])
		}
	}

	last := events[len(events)-1]
	if last.Phase != PhaseSettled || last.View != ViewPreview {
		t.Fatalf("terminal event = %+v, want Settled with forced preview view", last)
	}
	if last.Result == nil || last.Result.Code != "<p>hi</p>" || last.Result.Explanation != "Explanation." {
		t.Errorf("settled result = %+v", last.Result)
	}
}

func TestStart_NonStreamingSuccess(t *testing.T) {
	gen := &mockGenerator{full: "<p>hi</p>\n" + resolve.ExplanationSeparator + "\nWhy."}
	ctrl := newController(gen, false)

	var events []Event
	if err := ctrl.Start(context.Background(), "landing page", func(ev Event) { events = append(events, ev) }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gen.completed != 1 || gen.streamed != 0 {
		t.Errorf("completed=%d streamed=%d, want the non-streaming path only", gen.completed, gen.streamed)
	}

	last := events[len(events)-1]
	if last.Phase != PhaseSettled || last.Result == nil || last.Result.Code != "<p>hi</p>" {
		t.Fatalf("terminal event = %+v", last)
	}

	// The single response is still mirrored through the text surface.
	sawSnapshot := false
	for _, ev := range events {
		if ev.Phase == PhaseStreaming && ev.Partial != "" {
			sawSnapshot = true
		}
	}
	if !sawSnapshot {
		t.Error("non-streaming result never reached the display observer")
	}
}

func TestStart_BlankPromptIsRejected(t *testing.T) {
	gen := &mockGenerator{}
	ctrl := newController(gen, true)

	for _, prompt := range []string{"", "   ", "\n\t"} {
		events := 0
		err := ctrl.Start(context.Background(), prompt, func(Event) { events++ })
		if !errors.Is(err, ErrEmptyPrompt) {
			t.Errorf("prompt %q: err = %v, want ErrEmptyPrompt", prompt, err)
		}
		if events != 0 {
			t.Errorf("prompt %q: %d events emitted for a rejected call", prompt, events)
		}
	}
	if gen.streamed != 0 {
		t.Error("rejected calls must not reach the network collaborator")
	}
}

func TestStart_SecondCallWhileInFlightIsNoOp(t *testing.T) {
	gen := &mockGenerator{
		deltas:  []string{"<p>ok</p>"},
		started: make(chan struct{}),
		unblock: make(chan struct{}),
	}
	ctrl := newController(gen, true)

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- ctrl.Start(context.Background(), "first", func(Event) {})
	}()
	<-gen.started

	secondEvents := 0
	err := ctrl.Start(context.Background(), "second", func(Event) { secondEvents++ })
	if !errors.Is(err, ErrGenerationInFlight) {
		t.Errorf("second Start: err = %v, want ErrGenerationInFlight", err)
	}
	if secondEvents != 0 {
		t.Errorf("rejected Start emitted %d events", secondEvents)
	}

	close(gen.unblock)
	if err := <-firstDone; err != nil {
		t.Fatalf("first Start failed: %v", err)
	}
	if gen.streamed != 1 {
		t.Errorf("generator invoked %d times, want 1", gen.streamed)
	}

	// The guard clears once the first generation finishes.
	if err := ctrl.Start(context.Background(), "third", func(Event) {}); err != nil {
		t.Errorf("Start after completion: %v", err)
	}
}

func TestStart_EmptyGenerationFails(t *testing.T) {
	gen := &mockGenerator{} // stream completes with zero content
	ctrl := newController(gen, true)

	var events []Event
	if err := ctrl.Start(context.Background(), "anything", func(ev Event) { events = append(events, ev) }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	last := events[len(events)-1]
	if last.Phase != PhaseFailed {
		t.Fatalf("terminal phase = %s, want Failed (never Settled with empty code)", last.Phase)
	}
	if last.Error == "" {
		t.Error("failed event carries no user-facing message")
	}
}

func TestStart_FailureLeavesViewModeAndPartialText(t *testing.T) {
	gen := &mockGenerator{
		deltas: []string{"<p>par"},
		err:    fmt.Errorf("%w (status 504)", ai.ErrGatewayTimeout),
	}
	ctrl := newController(gen, true)

	var events []Event
	if err := ctrl.Start(context.Background(), "big app", func(ev Event) { events = append(events, ev) }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	last := events[len(events)-1]
	if last.Phase != PhaseFailed {
		t.Fatalf("terminal phase = %s, want Failed", last.Phase)
	}
	if last.View != "" {
		t.Errorf("failed event forces view %q; the mode must be left alone", last.View)
	}
	if !strings.Contains(last.Error, "simpler prompt") {
		t.Errorf("timeout message %q should hint at trying a simpler prompt", last.Error)
	}
	if ctrl.PartialText() != "<p>par" {
		t.Errorf("partial text %q was not preserved for inspection", ctrl.PartialText())
	}

	// The render surface only ever executes a settled Result; a failure must
	// not hand it one, and partial text must never ride on a terminal event.
	for _, ev := range events {
		if ev.Phase == PhaseFailed && ev.Result != nil {
			t.Errorf("failed event carries a result: %+v", ev)
		}
		if ev.Phase != PhaseStreaming && ev.Partial != "" {
			t.Errorf("%s event carries partial text: %+v", ev.Phase, ev)
		}
	}
}

func TestStart_MissingAPIKeyMessage(t *testing.T) {
	gen := &mockGenerator{err: ai.ErrMissingAPIKey}
	ctrl := newController(gen, true)

	var last Event
	if err := ctrl.Start(context.Background(), "anything", func(ev Event) { last = ev }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if last.Phase != PhaseFailed || !strings.Contains(last.Error, "OPENAI_API_KEY") {
		t.Errorf("terminal event = %+v, want Failed naming the missing credential", last)
	}
}
