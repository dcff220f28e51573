// Package ai is the network collaborator of the generation pipeline: it sends
// one prompt to a chat-completion gateway and hands the output back either as
// an event stream of deltas or as a single completed text, depending on how
// the deployment is configured.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"pageforge/config"
	"pageforge/internal/ai/prompts"
	"pageforge/internal/stream"
	"pageforge/pkg/logger"
)

var (
	// ErrMissingAPIKey is returned on the first generation attempt when no
	// credential was configured. Startup only warns about it.
	ErrMissingAPIKey = errors.New("model API key is not configured")

	// ErrGatewayTimeout marks a 504 from the gateway, which usually means the
	// prompt produced more output than the upstream limit allows.
	ErrGatewayTimeout = errors.New("model gateway timed out")
)

// Client talks to an OpenAI-compatible chat-completion endpoint.
type Client struct {
	apiKey   string
	baseURL  string
	model    string
	contract string

	api        *openai.Client
	httpClient *http.Client
}

// NewClient builds a client from the loaded configuration. The configuration
// is passed in explicitly; pipeline code never reads ambient globals.
func NewClient(cfg *config.Config) *Client {
	baseURL := strings.TrimRight(cfg.OpenAIBaseURL, "/")

	var api *openai.Client
	if cfg.OpenAIKey != "" {
		oc := openai.DefaultConfig(cfg.OpenAIKey)
		oc.BaseURL = baseURL + "/v1"
		api = openai.NewClientWithConfig(oc)
	}

	return &Client{
		apiKey:   cfg.OpenAIKey,
		baseURL:  baseURL,
		model:    cfg.ModelID,
		contract: cfg.ResponseContract,
		// No client-level timeout: a streaming response stays open for the
		// whole generation. Cancellation comes from the request context.
		httpClient: &http.Client{},
		api:        api,
	}
}

func (c *Client) systemPrompt() string {
	if c.contract == config.ContractEnvelope {
		return prompts.PageGeneratorSystemJSON
	}
	return prompts.PageGeneratorSystem
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

// Stream sends the prompt with streaming enabled and reports each extracted
// content delta to onDelta, in arrival order. It returns once the response
// stream is fully drained and flushed.
//
// The raw HTTP path is deliberate: the event-stream framing feeds our own
// decoder, whose per-line recovery behavior is part of this service's
// contract (one malformed record never kills the generation).
func (c *Client) Stream(ctx context.Context, prompt string, onDelta func(string)) error {
	if c.apiKey == "" {
		return ErrMissingAPIKey
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: c.systemPrompt()},
			{Role: "user", Content: prompt},
		},
		Stream: true,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal chat request: %w", err)
	}

	url := c.baseURL + "/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("model request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		logger.Warnf("model gateway returned %d: %s", resp.StatusCode, string(detail))
		if resp.StatusCode == http.StatusGatewayTimeout {
			return fmt.Errorf("%w (status 504)", ErrGatewayTimeout)
		}
		return fmt.Errorf("model request failed: status %d %s", resp.StatusCode, resp.Status)
	}

	dec := stream.NewDecoder(onDelta, nil)
	buf := make([]byte, 4096)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			dec.Feed(buf[:n])
		}
		if dec.Done() {
			// The sentinel closes the logical stream; whatever the gateway
			// sends afterwards is not ours to accumulate.
			break
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return fmt.Errorf("reading model stream: %w", readErr)
		}
	}
	dec.Flush()

	return nil
}

// Complete sends the prompt without streaming and returns the full output
// text. The envelope contract additionally asks the gateway for a JSON
// response format.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" || c.api == nil {
		return "", ErrMissingAPIKey
	}

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: c.systemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.3,
	}
	if c.contract == config.ContractEnvelope {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusGatewayTimeout {
			return "", fmt.Errorf("%w: %v", ErrGatewayTimeout, err)
		}
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
