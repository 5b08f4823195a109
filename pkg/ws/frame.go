// pkg/ws/frame.go
package ws

// FrameKind classifies one transport-level unit received from the server.
type FrameKind int

const (
	// TextFrame carries a UTF-8 JSON payload.
	TextFrame FrameKind = iota + 1
	// BinaryFrame carries raw bytes; the server encodes JSON here too.
	BinaryFrame
	// CloseFrame signals that the stream ended. Code and Reason carry the
	// close status; the payload is empty.
	CloseFrame
)

// Frame is a single received WebSocket frame. It is only valid until the
// next Receive call.
type Frame struct {
	Kind   FrameKind
	Data   []byte
	Code   int    // close status code, set only for CloseFrame
	Reason string // close reason, set only for CloseFrame
}
