package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// ErrorKind classifies a turn-fatal provider failure.
type ErrorKind string

const (
	KindNetwork              ErrorKind = "network"
	KindServer               ErrorKind = "server"
	KindAuthentication       ErrorKind = "authentication"
	KindQuotaExceeded        ErrorKind = "quota_exceeded"
	KindModelAccess          ErrorKind = "model_access"
	KindRateLimit            ErrorKind = "rate_limit"
	KindGenerationInProgress ErrorKind = "generation_in_progress"
	KindUnknown              ErrorKind = "unknown"
)

// StreamError is the structured error surfaced when streaming aborts. The
// parser core is never its source, only its receiver.
type StreamError struct {
	Kind    ErrorKind
	Message string
	Details string
}

func (e *StreamError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// UserMessage is the transcript-friendly rendering of the error.
func (e *StreamError) UserMessage() string {
	switch e.Kind {
	case KindAuthentication:
		return "Authentication failed. Check your API key with 'cellscribe profile show'."
	case KindQuotaExceeded:
		return "Your API quota is exhausted."
	case KindRateLimit:
		return "Rate limited by the provider. Try again in a moment."
	case KindModelAccess:
		return "Your key does not have access to the configured model."
	case KindGenerationInProgress:
		return "A response is already being generated. Please wait for it to finish."
	case KindNetwork:
		return "Network error while contacting the provider."
	case KindServer:
		return "The provider returned a server error."
	}
	return "Unexpected error: " + e.Message
}

// Classify maps transport and API failures onto the error taxonomy.
func Classify(err error) *StreamError {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		se := &StreamError{Message: apiErr.Message, Details: apiErr.Type}
		switch apiErr.HTTPStatusCode {
		case 401:
			se.Kind = KindAuthentication
		case 403:
			se.Kind = KindModelAccess
		case 429:
			if code, ok := apiErr.Code.(string); ok && strings.Contains(code, "insufficient_quota") {
				se.Kind = KindQuotaExceeded
			} else if strings.Contains(apiErr.Type, "insufficient_quota") {
				se.Kind = KindQuotaExceeded
			} else {
				se.Kind = KindRateLimit
			}
		default:
			if apiErr.HTTPStatusCode >= 500 {
				se.Kind = KindServer
			} else {
				se.Kind = KindUnknown
			}
		}
		return se
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode >= 500 {
			return &StreamError{Kind: KindServer, Message: err.Error()}
		}
		return &StreamError{Kind: KindNetwork, Message: err.Error()}
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return &StreamError{Kind: KindNetwork, Message: err.Error()}
	}

	return &StreamError{Kind: KindUnknown, Message: err.Error()}
}
