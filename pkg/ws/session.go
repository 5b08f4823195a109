// pkg/ws/session.go
package ws

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/CryptologyExchange/cryptology-ws-client-go/pkg/logger"
)

// Session owns one broadcast WebSocket connection: handshake, keep-alive
// pings and raw frame receipt. Decoding is left to the caller.
//
// The session is exclusively owned by a single read loop; Receive must not
// be called concurrently.
type Session struct {
	conn *websocket.Conn
	cfg  Config
	log  *logger.Logger

	closeOnce sync.Once
	done      chan struct{}
}

// Dial connects to the broadcast endpoint and starts the keep-alive ping
// goroutine. The session is shut down when ctx is cancelled or Close is
// called.
func Dial(ctx context.Context, cfg Config, log *logger.Logger) (*Session, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dialer := websocket.Dialer{HandshakeTimeout: cfg.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, cfg.URL, nil)
	if err != nil {
		return nil, err
	}

	s := &Session{
		conn: conn,
		cfg:  cfg,
		log:  log.Named("ws"),
		done: make(chan struct{}),
	}

	_ = conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	})

	go s.pingLoop()
	go func() {
		select {
		case <-ctx.Done():
			s.log.Info("ws: context cancelled, closing connection")
			_ = s.Close()
		case <-s.done:
		}
	}()

	s.log.Info("ws: connected", zap.String("url", cfg.URL))
	return s, nil
}

func (s *Session) pingLoop() {
	ticker := time.NewTicker(s.cfg.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(time.Second)
			if err := s.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				s.log.Warn("ws: ping failed", zap.Error(err))
			}
		}
	}
}

// Receive blocks until the next frame arrives. A remote close is reported
// as a CloseFrame carrying the close code and reason, not as an error;
// transport-level read failures are folded into an abnormal CloseFrame the
// same way. The only error returned is ctx cancellation.
func (s *Session) Receive(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}

	mt, data, err := s.conn.ReadMessage()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Frame{}, ctxErr
		}
		var ce *websocket.CloseError
		if errors.As(err, &ce) {
			return Frame{Kind: CloseFrame, Code: ce.Code, Reason: ce.Text}, nil
		}
		return Frame{Kind: CloseFrame, Code: websocket.CloseAbnormalClosure, Reason: err.Error()}, nil
	}
	_ = s.conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))

	kind := TextFrame
	if mt == websocket.BinaryMessage {
		kind = BinaryFrame
	}
	return Frame{Kind: kind, Data: data}, nil
}

// Close terminates the session. Safe to call more than once.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.conn.Close()
	})
	return err
}
