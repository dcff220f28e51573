// Package session owns the state machine of one generation: it is the only
// place display state transitions happen and the only place a user-visible
// failure is set. Exactly one generation may be in flight at a time.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"pageforge/internal/ai"
	"pageforge/internal/resolve"
	"pageforge/internal/stream"
	"pageforge/internal/types"
	"pageforge/internal/utils"
	"pageforge/pkg/logger"
)

// Phase is the display state of the pipeline as observed by any UI surface.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseStreaming Phase = "streaming"
	PhaseSettled   Phase = "settled"
	PhaseFailed    Phase = "failed"
)

// ViewMode is the user-selectable panel layout. The controller forces Code
// when a generation starts and Preview when it settles; on failure the mode
// is left wherever it was so partial output stays inspectable.
type ViewMode string

const (
	ViewCode    ViewMode = "code"
	ViewPreview ViewMode = "preview"
	ViewSplit   ViewMode = "split"
)

// Event is one ordered state notification pushed to the single sink of a
// generation. Partial always carries the full accumulated text so far, never
// a diff.
type Event struct {
	GenerationID string              `json:"generationId"`
	Phase        Phase               `json:"phase"`
	View         ViewMode            `json:"view,omitempty"` // set only when the controller forces a mode
	Partial      string              `json:"partial,omitempty"`
	Result       *types.CodeResponse `json:"result,omitempty"`
	Error        string              `json:"error,omitempty"`
}

// Rejection errors: the call is a no-op, no state was touched.
var (
	ErrEmptyPrompt        = errors.New("prompt is empty")
	ErrGenerationInFlight = errors.New("a generation is already in flight")
)

// Generator is the network collaborator. Stream reports raw content deltas in
// order; Complete returns the whole output at once.
type Generator interface {
	Stream(ctx context.Context, prompt string, onDelta func(string)) error
	Complete(ctx context.Context, prompt string) (string, error)
}

// Controller drives one generation end to end.
type Controller struct {
	gen       Generator
	contract  resolve.Contract
	streaming bool

	mu       sync.Mutex
	inFlight bool

	acc *stream.Accumulator
}

// New builds a controller. The response contract and the streaming choice are
// fixed per deployment at configuration time.
func New(gen Generator, contract resolve.Contract, streaming bool) *Controller {
	return &Controller{
		gen:       gen,
		contract:  contract,
		streaming: streaming,
		acc:       stream.NewAccumulator(),
	}
}

// PartialText returns the accumulated text of the current or most recent
// generation. On failure it is what the user gets to inspect.
func (c *Controller) PartialText() string {
	return c.acc.Text()
}

// Start runs one generation synchronously, pushing ordered events to sink.
//
// It returns an error only when the call is rejected outright (blank prompt,
// generation already in flight); in that case no event is emitted and no
// state is touched. Every pipeline outcome — success or failure — reaches the
// sink as a terminal Settled or Failed event instead.
func (c *Controller) Start(ctx context.Context, prompt string, sink func(Event)) error {
	if strings.TrimSpace(prompt) == "" {
		return ErrEmptyPrompt
	}

	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return ErrGenerationInFlight
	}
	c.inFlight = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.inFlight = false
		c.mu.Unlock()
	}()

	genID := uuid.New().String()
	log := logger.WithField("generation", genID)
	log.Infof("starting generation, %d char prompt", len(prompt))

	// Reset before start; the code view is forced so the user watches the
	// raw output arrive.
	c.acc.Reset()
	sink(Event{GenerationID: genID, Phase: PhaseStreaming, View: ViewCode})

	c.acc.Observe(func(full string) {
		sink(Event{GenerationID: genID, Phase: PhaseStreaming, Partial: full})
	})

	var finalText string
	var err error
	if c.streaming {
		err = c.gen.Stream(ctx, prompt, c.acc.Append)
		finalText = c.acc.Text()
	} else {
		finalText, err = c.gen.Complete(ctx, prompt)
		if err == nil {
			// Mirror the single response through the same observer path so
			// the text surface shows it before the preview takes over.
			c.acc.Append(finalText)
		}
	}

	if err != nil {
		log.Errorf("generation failed: %v", err)
		sink(Event{GenerationID: genID, Phase: PhaseFailed, Error: failureMessage(err)})
		return nil
	}

	result, err := c.contract.Resolve(finalText)
	if err != nil {
		log.Errorf("resolution failed: %v", err)
		sink(Event{GenerationID: genID, Phase: PhaseFailed, Error: failureMessage(err)})
		return nil
	}

	log.Infof("generation settled: %d chars of code", len(result.Code))
	sink(Event{GenerationID: genID, Phase: PhaseSettled, View: ViewPreview, Result: &result})
	return nil
}

// failureMessage maps pipeline errors onto the fixed user-facing messages.
// The user always gets something actionable, never a raw error chain.
func failureMessage(err error) string {
	switch {
	case errors.Is(err, ai.ErrMissingAPIKey):
		return "The model API key is not configured. Set OPENAI_API_KEY and restart the server."
	case errors.Is(err, ai.ErrGatewayTimeout):
		return "The request timed out. Generating complex code can take longer than the gateway allows. Try a simpler prompt or try again."
	case errors.Is(err, resolve.ErrEmptyGeneration):
		return "The model returned no content. Please try again."
	case utils.IsTransient(err):
		return "The model backend is temporarily unavailable. Please try again in a moment."
	default:
		return "Failed to generate code. Please try again."
	}
}
