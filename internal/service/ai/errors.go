package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
)

// Code classifies completion failures for callers that need to branch on them.
type Code string

const (
	CodeQuotaExceeded Code = "quota_exceeded"
	CodeUnavailable   Code = "unavailable"
)

// CompletionError is returned by Client.Complete whenever the upstream service fails.
// The message of a quota failure always contains the word "quota".
type CompletionError struct {
	Code Code
	Err  error
}

func (e *CompletionError) Error() string {
	if e.Code == CodeQuotaExceeded {
		return fmt.Sprintf("completion quota exceeded: %v", e.Err)
	}
	return fmt.Sprintf("completion service unavailable: %v", e.Err)
}

func (e *CompletionError) Unwrap() error { return e.Err }

// IsQuota reports whether err carries a quota/rate-limit signal.
func IsQuota(err error) bool {
	var ce *CompletionError
	return errors.As(err, &ce) && ce.Code == CodeQuotaExceeded
}

// statusPattern matches the status the OpenAI-compatible and Ark clients embed
// in their error text, e.g. "error, status code: 429, status: 429 Too Many Requests".
var statusPattern = regexp.MustCompile(`status ?code[:=]\s*(\d{3})\b`)

var quotaMarkers = []string{"insufficient_quota", "quota", "rate limit", "ratelimit", "rate_limit", "too many requests", "toomanyrequests"}

// statusCode returns the HTTP status reported in err's text, or 0.
func statusCode(text string) int {
	m := statusPattern.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	code, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return code
}

// Classify maps an arbitrary provider error to a CompletionError.
// A reported HTTP status wins; otherwise the text is scanned for quota markers.
func Classify(err error) *CompletionError {
	if err == nil {
		return nil
	}

	var ce *CompletionError
	if errors.As(err, &ce) {
		return ce
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &CompletionError{Code: CodeUnavailable, Err: err}
	}

	text := strings.ToLower(err.Error())
	if statusCode(text) == http.StatusTooManyRequests {
		return &CompletionError{Code: CodeQuotaExceeded, Err: err}
	}
	for _, marker := range quotaMarkers {
		if strings.Contains(text, marker) {
			return &CompletionError{Code: CodeQuotaExceeded, Err: err}
		}
	}
	return &CompletionError{Code: CodeUnavailable, Err: err}
}
