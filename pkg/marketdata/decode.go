// pkg/marketdata/decode.go
package marketdata

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/CryptologyExchange/cryptology-ws-client-go/pkg/ws"
)

// DecodeFrame turns one transport frame into an Envelope. It is a pure
// transform: the same frame always yields the same result.
//
// A close frame fails with ConnectionClosedError carrying the close
// code/reason; the caller must terminate the read loop. A text or binary
// frame that is not valid JSON fails with MalformedMessageError.
func DecodeFrame(f ws.Frame) (*Envelope, error) {
	if f.Kind == ws.CloseFrame {
		return nil, newConnectionClosed(f.Code, f.Reason)
	}

	var env Envelope
	if err := json.Unmarshal(f.Data, &env); err != nil {
		return nil, &MalformedMessageError{Err: err}
	}
	return &env, nil
}

// decodePayload resolves the "@type" discriminator of a broadcast payload
// into one of the known variants. Anything else, including a missing
// discriminator or a missing required field, fails decode.
func decodePayload(data json.RawMessage) (interface{}, error) {
	var head struct {
		Type string `json:"@type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, err
	}

	switch head.Type {
	case payloadTypeOrderBook:
		return decodeOrderBook(data)
	case payloadTypeTrade:
		return decodeTrade(data)
	default:
		return nil, fmt.Errorf("%w: @type %q", ErrUnsupportedMessageType, head.Type)
	}
}

func decodeOrderBook(data json.RawMessage) (OrderBookUpdate, error) {
	var raw struct {
		CurrentOrderID *int64                     `json:"current_order_id"`
		TradePair      string                     `json:"trade_pair"`
		BuyLevels      map[string]decimal.Decimal `json:"buy_levels"`
		SellLevels     map[string]decimal.Decimal `json:"sell_levels"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return OrderBookUpdate{}, err
	}
	if raw.CurrentOrderID == nil {
		return OrderBookUpdate{}, fmt.Errorf("order book: missing current_order_id")
	}
	if raw.TradePair == "" {
		return OrderBookUpdate{}, fmt.Errorf("order book: missing trade_pair")
	}
	if raw.BuyLevels == nil {
		raw.BuyLevels = map[string]decimal.Decimal{}
	}
	if raw.SellLevels == nil {
		raw.SellLevels = map[string]decimal.Decimal{}
	}
	return OrderBookUpdate{
		CurrentOrderID: *raw.CurrentOrderID,
		TradePair:      raw.TradePair,
		BuyLevels:      raw.BuyLevels,
		SellLevels:     raw.SellLevels,
	}, nil
}

func decodeTrade(data json.RawMessage) (AnonymousTrade, error) {
	var raw struct {
		Time           []int64 `json:"time"`
		CurrentOrderID *int64  `json:"current_order_id"`
		TradePair      string  `json:"trade_pair"`
		Amount         string  `json:"amount"`
		Price          string  `json:"price"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return AnonymousTrade{}, err
	}
	if len(raw.Time) == 0 {
		return AnonymousTrade{}, fmt.Errorf("trade: missing time")
	}
	if raw.CurrentOrderID == nil {
		return AnonymousTrade{}, fmt.Errorf("trade: missing current_order_id")
	}
	if raw.TradePair == "" {
		return AnonymousTrade{}, fmt.Errorf("trade: missing trade_pair")
	}

	amount, err := decimal.NewFromString(raw.Amount)
	if err != nil {
		return AnonymousTrade{}, fmt.Errorf("trade: amount %q: %w", raw.Amount, err)
	}
	price, err := decimal.NewFromString(raw.Price)
	if err != nil {
		return AnonymousTrade{}, fmt.Errorf("trade: price %q: %w", raw.Price, err)
	}

	return AnonymousTrade{
		Time:           time.Unix(raw.Time[0], 0).UTC(),
		CurrentOrderID: *raw.CurrentOrderID,
		TradePair:      raw.TradePair,
		Amount:         amount,
		Price:          price,
	}, nil
}
