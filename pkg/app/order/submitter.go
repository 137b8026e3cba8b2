package order

import (
	"context"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Orzeszek091/lighter-trader/pkg/lighter"
	"github.com/Orzeszek091/lighter-trader/pkg/scale"
	"github.com/Orzeszek091/lighter-trader/pkg/util"
)

// Exchange is the REST surface the submitter needs
type Exchange interface {
	MarketDetailer
	NextNonce(ctx context.Context, accountIndex int64, apiKeyIndex uint8) (*lighter.NextNonce, error)
	SendTx(ctx context.Context, tx *lighter.SignedTx) (*lighter.TxResult, error)
}

// OrderSigner is the minimum a signer must offer: raw signing with an
// explicit nonce.
type OrderSigner interface {
	AccountIndex() int64
	APIKeyIndex() uint8
	SignCreateOrder(p lighter.CreateOrderParams, nonce int64) (*lighter.SignedTx, error)
}

// OrderCreator is implemented by signers that can sign and submit in one call
type OrderCreator interface {
	CreateOrder(ctx context.Context, p lighter.CreateOrderParams) (*lighter.TxResult, error)
}

// MarketOrderCreator is implemented by signers with a market order shortcut
type MarketOrderCreator interface {
	CreateMarketOrder(ctx context.Context, marketIndex, clientOrderIndex, baseAmount, worstPrice int64, isAsk bool) (*lighter.TxResult, error)
}

// submitPath is how a signed order reaches the exchange
type submitPath int

const (
	// signer signs and sends in one call
	pathDirect submitPath = iota
	// nonce fetched here, signer only signs, SendTx here
	pathManual
)

func (p submitPath) String() string {
	if p == pathDirect {
		return "direct"
	}
	return "manual"
}

// MarketOrder is a human-unit market order. BaseDecimals nil means query
// the exchange. WorstPrice nil leaves slippage to the exchange.
type MarketOrder struct {
	MarketID     int64
	Side         Side
	Qty          decimal.Decimal
	BaseDecimals *int32
	WorstPrice   *decimal.Decimal
	PriceExp     int32
}

// LimitOrder is a human-unit post-only limit order
type LimitOrder struct {
	MarketID     int64
	Side         Side
	Qty          decimal.Decimal
	Price        decimal.Decimal
	BaseDecimals *int32
	PriceExp     int32
}

// Submitter scales, signs and submits single orders. It does not retry.
type Submitter struct {
	exchange Exchange
	signer   OrderSigner
	out      io.Writer
	logger   *zap.SugaredLogger

	Clock util.Clock
}

func NewSubmitter(exchange Exchange, signer OrderSigner, out io.Writer, logger *zap.Logger) *Submitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Submitter{
		exchange: exchange,
		signer:   signer,
		out:      out,
		logger:   logger.Sugar(),
		Clock:    util.RealClock{},
	}
}

// PlaceMarketOrder sends an immediate-or-cancel market order
func (s *Submitter) PlaceMarketOrder(ctx context.Context, o MarketOrder) (*lighter.TxResult, error) {
	amount, err := s.baseAmount(ctx, o.MarketID, o.Qty, o.BaseDecimals)
	if err != nil {
		return nil, err
	}

	var price int64
	if o.WorstPrice != nil {
		if price, err = scale.PriceToBase(*o.WorstPrice, o.PriceExp); err != nil {
			return nil, fmt.Errorf("scale price: %w", err)
		}
	}

	req := Request{
		MarketID:    o.MarketID,
		Side:        o.Side,
		BaseAmount:  amount,
		Type:        Market,
		TimeInForce: ImmediateOrCancel,
		Price:       price,
	}
	params, err := req.Params(s.Clock.Now().UnixMilli())
	if err != nil {
		return nil, err
	}

	s.logger.Infow("market_order_submitting",
		"market_id", req.MarketID,
		"side", req.Side.String(),
		"base_amount", req.BaseAmount,
		"worst_price", req.Price)

	var res *lighter.TxResult
	if mc, ok := s.signer.(MarketOrderCreator); ok {
		res, err = mc.CreateMarketOrder(ctx, params.MarketIndex, params.ClientOrderIndex, params.BaseAmount, params.Price, params.IsAsk)
	} else {
		res, _, err = s.submit(ctx, params)
	}
	if err != nil {
		return nil, fmt.Errorf("market order: %w", err)
	}

	fmt.Fprintln(s.out, "Market order result:", res)
	return res, nil
}

// PlaceLimitOrderPostOnly sends a post-only limit order
func (s *Submitter) PlaceLimitOrderPostOnly(ctx context.Context, o LimitOrder) (*lighter.TxResult, error) {
	amount, err := s.baseAmount(ctx, o.MarketID, o.Qty, o.BaseDecimals)
	if err != nil {
		return nil, err
	}

	price, err := scale.PriceToBase(o.Price, o.PriceExp)
	if err != nil {
		return nil, fmt.Errorf("scale price: %w", err)
	}

	req := Request{
		MarketID:    o.MarketID,
		Side:        o.Side,
		BaseAmount:  amount,
		Type:        Limit,
		TimeInForce: PostOnly,
		Price:       price,
	}
	params, err := req.Params(s.Clock.Now().UnixMilli())
	if err != nil {
		return nil, err
	}

	s.logger.Infow("limit_order_submitting",
		"market_id", req.MarketID,
		"side", req.Side.String(),
		"base_amount", req.BaseAmount,
		"price", req.Price,
		"time_in_force", req.TimeInForce.String())

	res, path, err := s.submit(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("limit order (%s): %w", path, err)
	}

	if path == pathDirect {
		fmt.Fprintln(s.out, "Limit order (post-only) result:", res)
	} else {
		fmt.Fprintln(s.out, "Limit order (post-only) sent:", res)
	}
	return res, nil
}

// probe picks the submission path from what the signer implements
func (s *Submitter) probe() submitPath {
	if _, ok := s.signer.(OrderCreator); ok {
		return pathDirect
	}
	return pathManual
}

func (s *Submitter) submit(ctx context.Context, p lighter.CreateOrderParams) (*lighter.TxResult, submitPath, error) {
	path := s.probe()
	s.logger.Debugw("order_submit_path", "path", path.String())

	if path == pathDirect {
		res, err := s.signer.(OrderCreator).CreateOrder(ctx, p)
		return res, path, err
	}

	nn, err := s.exchange.NextNonce(ctx, s.signer.AccountIndex(), s.signer.APIKeyIndex())
	if err != nil {
		return nil, path, fmt.Errorf("next nonce: %w", err)
	}
	nonce := nn.Nonce
	if nonce == 0 {
		nonce = s.Clock.Now().Unix()
		s.logger.Warnw("nonce_fallback_to_time", "nonce", nonce)
	}

	tx, err := s.signer.SignCreateOrder(p, nonce)
	if err != nil {
		return nil, path, fmt.Errorf("sign: %w", err)
	}

	res, err := s.exchange.SendTx(ctx, tx)
	return res, path, err
}

func (s *Submitter) baseAmount(ctx context.Context, marketID int64, qty decimal.Decimal, hint *int32) (int64, error) {
	var decimals int32
	if hint != nil {
		decimals = *hint
	} else {
		md, err := FetchMetadata(ctx, s.exchange, marketID, DefaultBaseDecimals)
		if err != nil {
			return 0, err
		}
		decimals = md.BaseDecimals
		s.logger.Infow("market_metadata", "market_id", marketID, "ticker", md.Ticker, "base_decimals", decimals)
	}

	amount, err := scale.HumanToBase(qty, decimals)
	if err != nil {
		return 0, fmt.Errorf("scale quantity: %w", err)
	}
	if amount == 0 {
		return 0, fmt.Errorf("quantity %s is below one base unit at %d decimals", qty, decimals)
	}
	return amount, nil
}
