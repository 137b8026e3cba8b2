package order

import (
	"fmt"
	"strings"

	"github.com/Orzeszek091/lighter-trader/pkg/lighter"
)

type Side uint8

const (
	Buy Side = iota + 1
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return "unknown"
	}
}

// ParseSide accepts "buy" or "sell" in any case
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy":
		return Buy, nil
	case "sell":
		return Sell, nil
	}
	return 0, fmt.Errorf("invalid side %q (want buy or sell)", s)
}

type Type uint8

const (
	Market Type = iota + 1
	Limit
)

func (t Type) String() string {
	switch t {
	case Market:
		return "market"
	case Limit:
		return "limit"
	default:
		return "unknown"
	}
}

// ParseType accepts "market" or "limit" in any case
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "market":
		return Market, nil
	case "limit":
		return Limit, nil
	}
	return 0, fmt.Errorf("invalid order type %q (want market or limit)", s)
}

type TimeInForce uint8

const (
	ImmediateOrCancel TimeInForce = iota + 1
	PostOnly
	GoodTillTime
)

func (t TimeInForce) String() string {
	switch t {
	case ImmediateOrCancel:
		return "IOC"
	case PostOnly:
		return "post-only"
	case GoodTillTime:
		return "GTT"
	default:
		return "unknown"
	}
}

// Request is one order in integer base units. Price is zero when unset.
type Request struct {
	MarketID    int64
	Side        Side
	BaseAmount  int64
	Type        Type
	TimeInForce TimeInForce
	Price       int64
}

// Params converts r to the exchange's wire parameters
func (r Request) Params(clientOrderIndex int64) (lighter.CreateOrderParams, error) {
	p := lighter.CreateOrderParams{
		MarketIndex:      r.MarketID,
		ClientOrderIndex: clientOrderIndex,
		BaseAmount:       r.BaseAmount,
		Price:            r.Price,
		IsAsk:            r.Side == Sell,
	}

	switch r.Side {
	case Buy, Sell:
	default:
		return p, fmt.Errorf("invalid side %d", r.Side)
	}

	switch r.Type {
	case Market:
		p.OrderType = lighter.OrderTypeMarket
	case Limit:
		p.OrderType = lighter.OrderTypeLimit
	default:
		return p, fmt.Errorf("invalid order type %d", r.Type)
	}

	switch r.TimeInForce {
	case ImmediateOrCancel:
		p.TimeInForce = lighter.TimeInForceImmediateOrCancel
		p.OrderExpiry = lighter.NoOrderExpiry
	case PostOnly:
		p.TimeInForce = lighter.TimeInForcePostOnly
		p.OrderExpiry = lighter.DefaultOrderExpiry
	case GoodTillTime:
		p.TimeInForce = lighter.TimeInForceGoodTillTime
		p.OrderExpiry = lighter.DefaultOrderExpiry
	default:
		return p, fmt.Errorf("invalid time in force %d", r.TimeInForce)
	}

	if r.BaseAmount <= 0 {
		return p, fmt.Errorf("base amount must be positive, got %d", r.BaseAmount)
	}
	if r.Type == Limit && r.Price <= 0 {
		return p, fmt.Errorf("limit price must be positive, got %d", r.Price)
	}

	return p, nil
}
