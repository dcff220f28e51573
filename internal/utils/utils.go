package utils

import (
	"errors"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// IsTransient reports whether an upstream model error looks like a passing
// condition (rate limit, upstream 5xx, dropped connection). Nothing retries
// automatically; the classification only shapes the failure message so the
// user knows resubmitting is worthwhile.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "rate limit") ||
		strings.Contains(errMsg, "500 internal server error") ||
		strings.Contains(errMsg, "502 bad gateway") ||
		strings.Contains(errMsg, "503 service unavailable") ||
		strings.Contains(errMsg, "connection reset by peer") {
		return true
	}
	var openAIErr *openai.APIError
	if errors.As(err, &openAIErr) {
		if openAIErr.HTTPStatusCode >= 500 || openAIErr.HTTPStatusCode == 429 {
			return true
		}
	}
	return false
}
