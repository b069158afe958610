package services

import (
	"errors"
	"fmt"

	"xandpulse/models"
)

// TransportError reports a network failure or a non-2xx HTTP status.
type TransportError struct {
	Endpoint   string
	StatusCode int // 0 when the request never got a response
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("rpc transport error: http %d from %s", e.StatusCode, e.Endpoint)
	}
	return fmt.Sprintf("rpc transport error: %s: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError carries the error object of a JSON-RPC error envelope.
type ProtocolError struct {
	Code    int
	Message string
	Data    any
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("rpc error: %s (code: %d)", e.Message, e.Code)
}

// MalformedResponseError means the peer answered with something that is not a
// usable envelope or result.
type MalformedResponseError struct {
	Reason string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed rpc response: %s: %v", e.Reason, e.Err)
	}
	return "malformed rpc response: " + e.Reason
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// EnrichmentError wraps a failure while deriving synthetic fields for a live node.
type EnrichmentError struct {
	Pubkey string
	Err    error
}

func (e *EnrichmentError) Error() string {
	return fmt.Sprintf("failed to enrich node %s: %v", e.Pubkey, e.Err)
}

func (e *EnrichmentError) Unwrap() error { return e.Err }

// isNonRetryableError reports failures that another attempt cannot fix.
func isNonRetryableError(err error) bool {
	var protoErr *ProtocolError
	if errors.As(err, &protoErr) {
		switch protoErr.Code {
		case models.RPCCodeParseError, models.RPCCodeInvalidRequest, models.RPCCodeMethodNotFound:
			return true
		}
		return false
	}

	var malformed *MalformedResponseError
	if errors.As(err, &malformed) {
		return true
	}
	var enrich *EnrichmentError
	return errors.As(err, &enrich)
}

// errorKind is the metrics label for a fetch failure.
func errorKind(err error) string {
	var (
		transport *TransportError
		protoErr  *ProtocolError
		malformed *MalformedResponseError
		enrich    *EnrichmentError
	)
	switch {
	case errors.As(err, &transport):
		return "transport"
	case errors.As(err, &protoErr):
		return "protocol"
	case errors.As(err, &malformed):
		return "malformed"
	case errors.As(err, &enrich):
		return "enrichment"
	default:
		return "other"
	}
}
