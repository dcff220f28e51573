// Package resolve turns the final accumulated model output into a structured
// code-plus-explanation artifact. The wire format varies by deployment
// (sentinel-separated text vs a JSON envelope), so each variant is a Contract
// strategy behind the same resolution interface; all format sniffing lives
// here and nowhere else.
package resolve

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"pageforge/config"
	"pageforge/internal/types"
)

// ExplanationSeparator is the literal the model is instructed to print
// between the HTML document and its explanation.
const ExplanationSeparator = "<!-- GEMINI_EXPLANATION_SEPARATOR -->"

const (
	defaultExplanation     = "No explanation provided."
	rawOutputExplanation   = "The model returned raw output without an explanation."
	parseFailedExplanation = "The model response did not match the expected format; showing it as-is."
)

// ErrEmptyGeneration is returned when the stream completed without producing
// any content at all. It is the only hard failure of resolution: every other
// contract violation degrades to a best-effort artifact.
var ErrEmptyGeneration = errors.New("model returned empty content")

// Contract resolves the final accumulated text of one generation into a
// CodeResponse. Implementations must never fail on malformed output other
// than the empty-text case.
type Contract interface {
	Name() string
	Resolve(finalText string) (types.CodeResponse, error)
}

// ForName maps a configured contract name onto its strategy.
func ForName(name string) (Contract, error) {
	switch name {
	case config.ContractSeparator:
		return SeparatorContract{}, nil
	case config.ContractEnvelope:
		return EnvelopeContract{}, nil
	default:
		return nil, fmt.Errorf("unknown response contract %q", name)
	}
}

// SeparatorContract expects plain text: the HTML document, the separator
// literal, then the explanation. A missing separator means the model returned
// code only.
type SeparatorContract struct{}

func (SeparatorContract) Name() string { return config.ContractSeparator }

func (SeparatorContract) Resolve(finalText string) (types.CodeResponse, error) {
	text, err := prepare(finalText)
	if err != nil {
		return types.CodeResponse{}, err
	}

	code, explanation, found := strings.Cut(text, ExplanationSeparator)
	if !found {
		explanation = defaultExplanation
	} else {
		explanation = strings.TrimSpace(explanation)
		if explanation == "" {
			explanation = defaultExplanation
		}
	}

	return types.CodeResponse{
		Code:        strings.TrimSpace(code),
		Explanation: explanation,
		Language:    "html",
	}, nil
}

// EnvelopeContract expects the whole text to be one JSON object with code,
// explanation and language fields. A parse failure falls through to the raw
// fallback instead of surfacing an error.
type EnvelopeContract struct{}

func (EnvelopeContract) Name() string { return config.ContractEnvelope }

func (EnvelopeContract) Resolve(finalText string) (types.CodeResponse, error) {
	text, err := prepare(finalText)
	if err != nil {
		return types.CodeResponse{}, err
	}

	var resp types.CodeResponse
	if jsonErr := json.Unmarshal([]byte(text), &resp); jsonErr == nil && resp.Code != "" {
		if resp.Language == "" {
			resp.Language = "html"
		}
		if resp.Explanation == "" {
			resp.Explanation = defaultExplanation
		}
		return resp, nil
	}

	return rawFallback(text), nil
}

// prepare trims the text and strips a markdown code fence. The upstream
// prompt forbids fences, but models violate instructions often enough that
// stripping defensively is cheaper than failing the generation.
func prepare(finalText string) (string, error) {
	text := strings.TrimSpace(finalText)
	if text == "" {
		return "", ErrEmptyGeneration
	}
	return stripFence(text), nil
}

func stripFence(text string) string {
	text = strings.TrimPrefix(text, "```html")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

// rawFallback wraps unparseable output as a renderable artifact. Failing the
// whole generation on a cosmetic contract violation is worse than showing
// best-effort output.
func rawFallback(text string) types.CodeResponse {
	explanation := parseFailedExplanation
	lower := strings.ToLower(text)
	if strings.HasPrefix(lower, "<!doctype") || strings.HasPrefix(lower, "<html") {
		explanation = rawOutputExplanation
	}
	return types.CodeResponse{
		Code:        text,
		Explanation: explanation,
		Language:    "html",
	}
}
