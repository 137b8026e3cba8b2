package params

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/Orzeszek091/lighter-trader/pkg/crypto"
	"github.com/Orzeszek091/lighter-trader/pkg/lighter"
	"github.com/Orzeszek091/lighter-trader/pkg/scale"
)

var (
	ErrSelectorRequired   = errors.New("pass --market-id or --symbol (e.g. --symbol ETH)")
	ErrPriceRequired      = errors.New("limit orders need --price")
	ErrPrivateKeyRequired = errors.New("api key private key is required (--api-key-private-key or LIGHTER_API_KEY_PRIVATE_KEY)")
	ErrInvalidEnv         = errors.New("invalid environment variable")
)

// MaxAPIKeyIndex is the highest API key slot an account can register
const MaxAPIKeyIndex = 254

// Credentials sign orders. Never log these.
type Credentials struct {
	AccountIndex     int64
	APIKeyIndex      int
	APIKeyPrivateKey string
	EthPrivateKey    string
}

type Log struct {
	Level string
	File  string // empty: stderr only
}

type Config struct {
	BaseURL     string
	Credentials Credentials

	MarketID *int64 // nil: resolve from Symbol
	Symbol   string

	Side  string // "buy" | "sell"
	Type  string // "market" | "limit"
	Qty   decimal.Decimal
	Price *decimal.Decimal

	// PriceExpHint is the number of decimals prices are scaled by
	PriceExpHint int32
	// BaseDecimals overrides the exchange's size decimals when set
	BaseDecimals *int32

	Log Log
}

func Default() Config {
	return Config{
		BaseURL: lighter.DefaultBaseURL,
		Credentials: Credentials{
			AccountIndex: 0,
			APIKeyIndex:  2,
		},
		Type:         "market",
		PriceExpHint: 6,
		Log:          Log{Level: "info"},
	}
}

// LoadFromEnv loads configuration from .env file (if exists) and environment variables
// Priority: ENV > .env file > defaults
// A set but malformed index variable is an error, never a silent default.
func LoadFromEnv(envPath string) (Config, error) {
	cfg := Default()

	// Missing .env is fine
	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	cfg.BaseURL = getEnv("LIGHTER_BASE_URL", cfg.BaseURL)

	if v := os.Getenv("LIGHTER_ACCOUNT_INDEX"); v != "" {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("%w: LIGHTER_ACCOUNT_INDEX=%q is not an integer", ErrInvalidEnv, v)
		}
		cfg.Credentials.AccountIndex = n
	}
	if v := os.Getenv("LIGHTER_API_KEY_INDEX"); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return cfg, fmt.Errorf("%w: LIGHTER_API_KEY_INDEX=%q is not an integer", ErrInvalidEnv, v)
		}
		cfg.Credentials.APIKeyIndex = n
	}

	cfg.Credentials.APIKeyPrivateKey = os.Getenv("LIGHTER_API_KEY_PRIVATE_KEY")
	cfg.Credentials.EthPrivateKey = os.Getenv("ETH_PRIVATE_KEY")

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.File = getEnv("LOG_FILE", cfg.Log.File)

	return cfg, nil
}

// Parse applies command-line flags on top of base and validates the result.
// Nothing here touches the network.
func Parse(base Config, args []string, output io.Writer) (Config, error) {
	cfg := base

	fs := flag.NewFlagSet("open-position", flag.ContinueOnError)
	fs.SetOutput(output)

	fs.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "exchange REST base URL (env LIGHTER_BASE_URL)")
	fs.Int64Var(&cfg.Credentials.AccountIndex, "account-index", cfg.Credentials.AccountIndex, "account index (env LIGHTER_ACCOUNT_INDEX)")
	fs.IntVar(&cfg.Credentials.APIKeyIndex, "api-key-index", cfg.Credentials.APIKeyIndex, "API key index (env LIGHTER_API_KEY_INDEX)")
	fs.StringVar(&cfg.Credentials.APIKeyPrivateKey, "api-key-private-key", cfg.Credentials.APIKeyPrivateKey, "API key private key (env LIGHTER_API_KEY_PRIVATE_KEY)")
	fs.StringVar(&cfg.Credentials.EthPrivateKey, "eth-private-key", cfg.Credentials.EthPrivateKey, "L1 private key, only used to log the account address (env ETH_PRIVATE_KEY)")
	marketID := fs.Int64("market-id", 0, "market id, e.g. ETH=0; otherwise use --symbol")
	fs.StringVar(&cfg.Symbol, "symbol", cfg.Symbol, "ticker to look up when --market-id is not given (ETH, BTC, ...)")
	fs.StringVar(&cfg.Side, "side", cfg.Side, "buy or sell (required)")
	qty := fs.String("qty", "", "quantity in base asset units, decimal (required)")
	fs.StringVar(&cfg.Type, "type", cfg.Type, "market or limit")
	price := fs.String("price", "", "limit price, decimal (required for limit)")
	priceExp := fs.Int("price-exp-hint", int(cfg.PriceExpHint), "decimals used to scale --price")
	baseDecimals := fs.Int("base-decimals", 0, "size decimals of the market; queried from the exchange when omitted")
	fs.StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "debug, info, warn or error (env LOG_LEVEL)")
	fs.StringVar(&cfg.Log.File, "log-file", cfg.Log.File, "also write logs to this file (env LOG_FILE)")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if fs.NArg() > 0 {
		return cfg, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if set["market-id"] {
		cfg.MarketID = marketID
	}
	// Range checks come before the int32 conversion so nothing wraps
	if set["base-decimals"] {
		if *baseDecimals < 0 || *baseDecimals > scale.MaxDecimals {
			return cfg, fmt.Errorf("--base-decimals must be in 0..%d, got %d", scale.MaxDecimals, *baseDecimals)
		}
		d := int32(*baseDecimals)
		cfg.BaseDecimals = &d
	}
	if *priceExp < 0 || *priceExp > scale.MaxDecimals {
		return cfg, fmt.Errorf("--price-exp-hint must be in 0..%d, got %d", scale.MaxDecimals, *priceExp)
	}
	cfg.PriceExpHint = int32(*priceExp)

	if !set["side"] {
		return cfg, fmt.Errorf("--side is required")
	}
	if *qty == "" {
		return cfg, fmt.Errorf("--qty is required")
	}
	q, err := scale.Parse(*qty)
	if err != nil {
		return cfg, fmt.Errorf("--qty: %w", err)
	}
	cfg.Qty = q

	if *price != "" {
		p, err := scale.Parse(*price)
		if err != nil {
			return cfg, fmt.Errorf("--price: %w", err)
		}
		cfg.Price = &p
	}

	return cfg, cfg.Validate()
}

// Validate checks the merged configuration
func (c Config) Validate() error {
	switch c.Side {
	case "buy", "sell":
	default:
		return fmt.Errorf("--side must be buy or sell, got %q", c.Side)
	}
	switch c.Type {
	case "market", "limit":
	default:
		return fmt.Errorf("--type must be market or limit, got %q", c.Type)
	}
	if !c.Qty.IsPositive() {
		return fmt.Errorf("--qty must be positive, got %s", c.Qty)
	}

	if c.MarketID == nil && strings.TrimSpace(c.Symbol) == "" {
		return ErrSelectorRequired
	}
	if c.MarketID != nil && *c.MarketID < 0 {
		return fmt.Errorf("--market-id must not be negative")
	}
	if c.Type == "limit" && c.Price == nil {
		return ErrPriceRequired
	}
	if c.Price != nil && !c.Price.IsPositive() {
		return fmt.Errorf("--price must be positive, got %s", c.Price)
	}
	if c.PriceExpHint < 0 || c.PriceExpHint > scale.MaxDecimals {
		return fmt.Errorf("--price-exp-hint must be in 0..%d, got %d", scale.MaxDecimals, c.PriceExpHint)
	}
	if c.BaseDecimals != nil && (*c.BaseDecimals < 0 || *c.BaseDecimals > scale.MaxDecimals) {
		return fmt.Errorf("--base-decimals must be in 0..%d, got %d", scale.MaxDecimals, *c.BaseDecimals)
	}

	if c.Credentials.APIKeyPrivateKey == "" {
		return ErrPrivateKeyRequired
	}
	if _, err := crypto.FromPrivateKeyHex(c.Credentials.APIKeyPrivateKey); err != nil {
		return fmt.Errorf("--api-key-private-key: %w", err)
	}
	if c.Credentials.EthPrivateKey != "" {
		if _, err := crypto.FromPrivateKeyHex(c.Credentials.EthPrivateKey); err != nil {
			return fmt.Errorf("--eth-private-key: %w", err)
		}
	}
	if c.Credentials.AccountIndex < 0 {
		return fmt.Errorf("--account-index must not be negative, got %d", c.Credentials.AccountIndex)
	}
	if c.Credentials.APIKeyIndex < 0 || c.Credentials.APIKeyIndex > MaxAPIKeyIndex {
		return fmt.Errorf("--api-key-index must be in 0..%d, got %d", MaxAPIKeyIndex, c.Credentials.APIKeyIndex)
	}
	if c.BaseURL == "" {
		return fmt.Errorf("--base-url must not be empty")
	}
	return nil
}

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
