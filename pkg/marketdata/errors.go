// pkg/marketdata/errors.go
package marketdata

import (
	"errors"
	"fmt"
)

// Close codes the server uses to explain why it hung up.
const (
	closeCodeConcurrentConnection = 4000
	closeCodeInvalidSequence      = 4001
	closeCodeRateLimit            = 4009
	closeCodeServerRestart        = 1012
	closeCodeInvalidKey           = 3100
)

// Sentinels for the well-known close reasons. Match with errors.Is against
// the error returned from Run.
var (
	ErrConcurrentConnection = errors.New("concurrent connection")
	ErrInvalidSequence      = errors.New("invalid sequence")
	ErrRateLimit            = errors.New("rate limit reached")
	ErrServerRestart        = errors.New("server restart")
	ErrInvalidKey           = errors.New("invalid access key")

	// ErrUnsupportedMessageType reports an envelope or payload that does not
	// match any known category. It is always wrapped in a DecodeError before
	// leaving the package.
	ErrUnsupportedMessageType = errors.New("unsupported message type")
)

// ConnectionClosedError reports that the remote or the transport closed the
// stream. It is a terminal session signal, not a decode failure.
type ConnectionClosedError struct {
	Code   int
	Reason string
	cause  error
}

func newConnectionClosed(code int, reason string) *ConnectionClosedError {
	var cause error
	switch code {
	case closeCodeConcurrentConnection:
		cause = ErrConcurrentConnection
	case closeCodeInvalidSequence:
		cause = ErrInvalidSequence
	case closeCodeRateLimit:
		cause = ErrRateLimit
	case closeCodeServerRestart:
		cause = ErrServerRestart
	case closeCodeInvalidKey:
		cause = ErrInvalidKey
	}
	return &ConnectionClosedError{Code: code, Reason: reason, cause: cause}
}

func (e *ConnectionClosedError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("disconnected with code %d: %v", e.Code, e.cause)
	}
	return fmt.Sprintf("disconnected with code %d: %s", e.Code, e.Reason)
}

func (e *ConnectionClosedError) Unwrap() error { return e.cause }

// MalformedMessageError reports a frame whose payload is not valid JSON.
// Terminal for the current session; there is no per-message skip.
type MalformedMessageError struct {
	Err error
}

func (e *MalformedMessageError) Error() string {
	return fmt.Sprintf("malformed message: %v", e.Err)
}

func (e *MalformedMessageError) Unwrap() error { return e.Err }

// DecodeError folds heterogeneous routing failures (unknown category,
// missing field, bad decimal) into one coarse class, matching the wire
// protocol's contract that any gap in understanding ends the session.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode data: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
