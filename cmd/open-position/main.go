package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Orzeszek091/lighter-trader/params"
	"github.com/Orzeszek091/lighter-trader/pkg/app/order"
	"github.com/Orzeszek091/lighter-trader/pkg/crypto"
	"github.com/Orzeszek091/lighter-trader/pkg/lighter"
	"github.com/Orzeszek091/lighter-trader/pkg/util"
)

func main() {
	// Env and .env first, flags override
	base, err := params.LoadFromEnv("")
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}
	cfg, err := params.Parse(base, os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}

	var logger *zap.Logger
	if cfg.Log.File != "" {
		logger, err = util.NewLoggerWithFile(cfg.Log.File, cfg.Log.Level)
	} else {
		logger, err = util.NewLogger(cfg.Log.Level)
	}
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		sugar.Errorw("open_position_failed", "err", err)
		logger.Sync()
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg params.Config, logger *zap.Logger) error {
	sugar := logger.Sugar()

	if cfg.Credentials.EthPrivateKey != "" {
		addr, err := crypto.L1Address(cfg.Credentials.EthPrivateKey)
		if err != nil {
			return fmt.Errorf("eth private key: %w", err)
		}
		sugar.Infow("l1_account", "address", addr)
	}

	api := lighter.NewAPIClient(cfg.BaseURL, logger)

	// Key problems surface before the exchange is contacted
	signer, err := lighter.NewSignerClient(
		api,
		lighter.DomainForURL(cfg.BaseURL),
		cfg.Credentials.APIKeyPrivateKey,
		cfg.Credentials.AccountIndex,
		cfg.Credentials.APIKeyIndex,
	)
	if err != nil {
		return err
	}

	var marketID int64
	if cfg.MarketID != nil {
		marketID = *cfg.MarketID
	} else {
		id, err := order.ResolveMarketID(ctx, api, cfg.Symbol)
		if err != nil {
			return err
		}
		marketID = id
		sugar.Infow("market_resolved", "symbol", cfg.Symbol, "market_id", marketID)
	}

	side, err := order.ParseSide(cfg.Side)
	if err != nil {
		return err
	}
	orderType, err := order.ParseType(cfg.Type)
	if err != nil {
		return err
	}

	sugar.Infow("order_config",
		"base_url", cfg.BaseURL,
		"account_index", cfg.Credentials.AccountIndex,
		"api_key_index", cfg.Credentials.APIKeyIndex,
		"market_id", marketID,
		"side", side.String(),
		"type", orderType.String(),
		"qty", cfg.Qty.String())

	sub := order.NewSubmitter(api, signer, os.Stdout, logger)

	switch orderType {
	case order.Market:
		_, err = sub.PlaceMarketOrder(ctx, order.MarketOrder{
			MarketID:     marketID,
			Side:         side,
			Qty:          cfg.Qty,
			BaseDecimals: cfg.BaseDecimals,
			WorstPrice:   cfg.Price,
			PriceExp:     cfg.PriceExpHint,
		})
	case order.Limit:
		if cfg.Price == nil {
			return params.ErrPriceRequired
		}
		_, err = sub.PlaceLimitOrderPostOnly(ctx, order.LimitOrder{
			MarketID:     marketID,
			Side:         side,
			Qty:          cfg.Qty,
			Price:        *cfg.Price,
			BaseDecimals: cfg.BaseDecimals,
			PriceExp:     cfg.PriceExpHint,
		})
	}
	return err
}
