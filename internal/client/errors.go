package client

import (
	"errors"
	"fmt"
	"strings"
)

// ErrPlatformCapabilityUnavailable is returned when the host has no speech
// recognizer or synthesizer the client can drive.
var ErrPlatformCapabilityUnavailable = errors.New("platform capability unavailable")

// Guard failures. Neither touches the transcript or the network.
var (
	ErrEmptyPrompt = errors.New("empty prompt")
	ErrTooSoon     = errors.New("request interval not elapsed")
)

// User-facing texts.
const (
	AlertEmptyPrompt      = "Please enter a message."
	AlertTooSoon          = "Please wait a moment before sending another request."
	AlertVoiceUnsupported = "Voice input is not supported in your browser."
	AlertVoiceError       = "Speech recognition error. Please try again."

	ThinkingText       = "Thinking..."
	QuotaFailureText   = "Sorry. The AI is temporarily unavailable. We are working to fix this. Please try again soon."
	ServerFailureText  = "Sorry. There was an error. Please try again."
	NetworkFailureText = "Connection error. Please check your internet."
)

// quotaCode mirrors the server's X-Relay-Error value for exhausted quota.
const quotaCode = "quota_exceeded"

// ServerError is a non-2xx relay response.
type ServerError struct {
	Status int
	Code   string
	Body   string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("relay responded %d: %s", e.Status, e.Body)
}

// Quota reports whether the failure was caused by the completion provider's quota.
func (e *ServerError) Quota() bool {
	return e.Code == quotaCode || strings.Contains(e.Body, "quota")
}

// NetworkError wraps transport and decoding failures.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return "relay unreachable: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error { return e.Err }

// AlertText maps a guard error to the alert shown to the user.
func AlertText(err error) string {
	switch {
	case errors.Is(err, ErrEmptyPrompt):
		return AlertEmptyPrompt
	case errors.Is(err, ErrTooSoon):
		return AlertTooSoon
	case errors.Is(err, ErrPlatformCapabilityUnavailable):
		return AlertVoiceUnsupported
	default:
		return ""
	}
}

// FailureText maps a send failure to the text that replaces the placeholder.
func FailureText(err error) string {
	var se *ServerError
	if errors.As(err, &se) {
		if se.Quota() {
			return QuotaFailureText
		}
		return ServerFailureText
	}
	return NetworkFailureText
}
