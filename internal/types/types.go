package types

// GenerationRequest is the payload a user submits to start one generation.
// The prompt is immutable once issued; an empty or whitespace-only prompt is
// rejected before any work happens.
type GenerationRequest struct {
	Prompt string `json:"prompt" binding:"required"`
}

// CodeResponse is the resolved terminal artifact of one generation: a complete
// renderable HTML document plus a prose explanation.
type CodeResponse struct {
	Code        string `json:"code"`
	Explanation string `json:"explanation"`
	Language    string `json:"language"` // always "html" for this service
}
