// pkg/marketdata/client_test.go
package marketdata_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/CryptologyExchange/cryptology-ws-client-go/pkg/logger"
	"github.com/CryptologyExchange/cryptology-ws-client-go/pkg/marketdata"
	"github.com/CryptologyExchange/cryptology-ws-client-go/pkg/ws"
)

// scriptedReceiver feeds a fixed sequence of frames to the read loop.
type scriptedReceiver struct {
	frames []ws.Frame
	pos    int
}

func (r *scriptedReceiver) Receive(_ context.Context) (ws.Frame, error) {
	if r.pos >= len(r.frames) {
		return ws.Frame{Kind: ws.CloseFrame, Code: websocket.CloseNormalClosure}, nil
	}
	f := r.frames[r.pos]
	r.pos++
	return f, nil
}

func textFrame(s string) ws.Frame {
	return ws.Frame{Kind: ws.TextFrame, Data: []byte(s)}
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "debug", DevMode: true})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func TestReadLoop_DeliversTradesThenStopsOnClose(t *testing.T) {
	rcv := &scriptedReceiver{frames: []ws.Frame{
		textFrame(`{"response_type":"BROADCAST","data":{"@type":"AnonymousTrade","time":[1700000000],"current_order_id":42,"trade_pair":"BTC_USD","amount":"1.5","price":"30000.25"}}`),
		{Kind: ws.CloseFrame, Code: 4009, Reason: "slow down"},
	}}

	trades := make(chan marketdata.AnonymousTrade, 1)
	err := marketdata.ReadLoop(context.Background(), rcv, marketdata.Callbacks{
		Trades: func(_ context.Context, tr marketdata.AnonymousTrade) { trades <- tr },
	}, testLogger(t))

	if !errors.Is(err, marketdata.ErrRateLimit) {
		t.Fatalf("expected ErrRateLimit, got %v", err)
	}
	var closed *marketdata.ConnectionClosedError
	if !errors.As(err, &closed) || closed.Code != 4009 {
		t.Fatalf("expected ConnectionClosedError code 4009, got %v", err)
	}

	select {
	case tr := <-trades:
		if tr.CurrentOrderID != 42 || tr.TradePair != "BTC_USD" {
			t.Errorf("unexpected trade %+v", tr)
		}
	case <-time.After(time.Second):
		t.Fatal("trade was not delivered")
	}
}

func TestReadLoop_UnsupportedEnvelopeIsFatal(t *testing.T) {
	rcv := &scriptedReceiver{frames: []ws.Frame{
		textFrame(`{"response_type":"THROTTLING","data":{}}`),
	}}

	err := marketdata.ReadLoop(context.Background(), rcv, marketdata.Callbacks{}, testLogger(t))
	var decodeErr *marketdata.DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if rcv.pos != 1 {
		t.Errorf("loop read %d frames; want 1 (stop on first bad message)", rcv.pos)
	}
}

func TestReadLoop_MalformedFrameIsFatal(t *testing.T) {
	rcv := &scriptedReceiver{frames: []ws.Frame{
		textFrame(`not json`),
		textFrame(`{"response_type":"BROADCAST","data":{"@type":"OrderBookAgg","current_order_id":1,"trade_pair":"p"}}`),
	}}

	invoked := false
	err := marketdata.ReadLoop(context.Background(), rcv, marketdata.Callbacks{
		OrderBook: func(_ context.Context, _ marketdata.OrderBookUpdate) { invoked = true },
	}, testLogger(t))

	var malformed *marketdata.MalformedMessageError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedMessageError, got %v", err)
	}
	if invoked {
		t.Error("no callback may fire after a malformed frame")
	}
}

// Full round-trip against a real WebSocket server: dial, stream, close.
func TestRun_Integration(t *testing.T) {
	upg := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upg.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		envs := []string{
			`{"response_type":"BROADCAST","data":{"@type":"OrderBookAgg","current_order_id":5,"trade_pair":"ETH_USD","buy_levels":{"2000":"1"}}}`,
			`{"response_type":"BROADCAST","data":{"@type":"AnonymousTrade","time":[1700000000],"current_order_id":42,"trade_pair":"BTC_USD","amount":"1.5","price":"30000.25"}}`,
		}
		for _, env := range envs {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(env)); err != nil {
				t.Errorf("write: %v", err)
				return
			}
		}

		deadline := time.Now().Add(time.Second)
		msg := websocket.FormatCloseMessage(1012, "maintenance")
		_ = conn.WriteControl(websocket.CloseMessage, msg, deadline)
		// give the client a moment to read the close frame
		_, _, _ = conn.ReadMessage()
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	books := make(chan marketdata.OrderBookUpdate, 1)
	trades := make(chan marketdata.AnonymousTrade, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := marketdata.Run(ctx, wsURL, marketdata.Callbacks{
		OrderBook: func(_ context.Context, u marketdata.OrderBookUpdate) { books <- u },
		Trades:    func(_ context.Context, tr marketdata.AnonymousTrade) { trades <- tr },
	}, testLogger(t))

	if !errors.Is(err, marketdata.ErrServerRestart) {
		t.Fatalf("expected ErrServerRestart, got %v", err)
	}

	select {
	case u := <-books:
		if u.CurrentOrderID != 5 || u.TradePair != "ETH_USD" {
			t.Errorf("unexpected order book %+v", u)
		}
	case <-time.After(time.Second):
		t.Fatal("order book was not delivered")
	}
	select {
	case tr := <-trades:
		if tr.Amount.String() != "1.5" || tr.Price.String() != "30000.25" {
			t.Errorf("unexpected trade %+v", tr)
		}
	case <-time.After(time.Second):
		t.Fatal("trade was not delivered")
	}
}

func TestRun_DialFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := marketdata.Run(ctx, "ws://127.0.0.1:1", marketdata.Callbacks{}, testLogger(t))
	if err == nil {
		t.Fatal("expected dial error, got nil")
	}
}
