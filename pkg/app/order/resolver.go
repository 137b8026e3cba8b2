package order

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Orzeszek091/lighter-trader/pkg/lighter"
)

// DefaultBaseDecimals is used when the exchange reports no size decimals
const DefaultBaseDecimals int32 = 18

var ErrMarketNotFound = errors.New("market not found")

type MarketLister interface {
	OrderBooks(ctx context.Context) ([]lighter.OrderBook, error)
}

type MarketDetailer interface {
	OrderBookDetails(ctx context.Context, marketID int64) (*lighter.OrderBookDetail, error)
}

// Metadata is what the scaler needs to know about a market
type Metadata struct {
	MarketID     int64
	Ticker       string
	BaseDecimals int32
}

// ResolveMarketID returns the id of the first market whose ticker equals
// symbol, ignoring case.
func ResolveMarketID(ctx context.Context, lister MarketLister, symbol string) (int64, error) {
	want := strings.ToUpper(strings.TrimSpace(symbol))
	if want == "" {
		return 0, fmt.Errorf("empty symbol")
	}

	books, err := lister.OrderBooks(ctx)
	if err != nil {
		return 0, fmt.Errorf("list markets: %w", err)
	}
	if len(books) == 0 {
		return 0, fmt.Errorf("list markets: exchange returned no markets")
	}

	for _, b := range books {
		if strings.ToUpper(strings.TrimSpace(b.Symbol)) == want {
			return b.MarketID, nil
		}
	}
	return 0, fmt.Errorf("%w: ticker %q, pass --market-id explicitly", ErrMarketNotFound, symbol)
}

// FetchMetadata reads a market's size decimals, falling back when the
// exchange leaves them out.
func FetchMetadata(ctx context.Context, d MarketDetailer, marketID int64, fallback int32) (Metadata, error) {
	details, err := d.OrderBookDetails(ctx, marketID)
	if err != nil {
		return Metadata{}, fmt.Errorf("market %d details: %w", marketID, err)
	}

	md := Metadata{MarketID: marketID, Ticker: details.Symbol, BaseDecimals: fallback}
	if details.SizeDecimals != nil {
		md.BaseDecimals = *details.SizeDecimals
	}
	return md, nil
}
