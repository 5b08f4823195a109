// pkg/marketdata/types.go
package marketdata

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ServerMessageType enumerates the top-level message categories the server
// may send. Only Broadcast is processed by this client.
type ServerMessageType int

const (
	Message ServerMessageType = iota + 1
	Error
	Broadcast
	Throttling
)

var serverMessageTypes = map[string]ServerMessageType{
	"MESSAGE":    Message,
	"ERROR":      Error,
	"BROADCAST":  Broadcast,
	"THROTTLING": Throttling,
}

// ParseServerMessageType maps the wire tag to a category. Unknown tags are
// a decode failure, never silently dropped.
func ParseServerMessageType(s string) (ServerMessageType, error) {
	if t, ok := serverMessageTypes[s]; ok {
		return t, nil
	}
	return 0, fmt.Errorf("%w: response_type %q", ErrUnsupportedMessageType, s)
}

// Envelope is the decoded top-level JSON object. Data stays raw until the
// router inspects the "@type" discriminator.
type Envelope struct {
	ResponseType string          `json:"response_type"`
	Data         json.RawMessage `json:"data"`
}

// Payload discriminator values.
const (
	payloadTypeOrderBook = "OrderBookAgg"
	payloadTypeTrade     = "AnonymousTrade"
)

// OrderBookUpdate is an aggregated buy/sell price-level snapshot for one
// trading pair. Level keys are price levels, values are sizes; key order is
// not meaningful and values replace on update.
type OrderBookUpdate struct {
	CurrentOrderID int64
	TradePair      string
	BuyLevels      map[string]decimal.Decimal
	SellLevels     map[string]decimal.Decimal
}

// AnonymousTrade is a single executed trade tick without counterparty
// identity. Amount and Price are exact decimals taken verbatim from the
// wire; they never pass through binary floating point.
type AnonymousTrade struct {
	Time           time.Time
	CurrentOrderID int64
	TradePair      string
	Amount         decimal.Decimal
	Price          decimal.Decimal
}
