package lighter

import "fmt"

// DefaultBaseURL is the mainnet REST endpoint
const DefaultBaseURL = "https://mainnet.zklighter.elliot.ai"

// Transaction types accepted by sendTx
const (
	TxTypeCreateOrder = 14
)

// Order types
const (
	OrderTypeLimit  uint8 = 0
	OrderTypeMarket uint8 = 1
)

// Time in force
const (
	TimeInForceImmediateOrCancel uint8 = 0
	TimeInForceGoodTillTime      uint8 = 1
	TimeInForcePostOnly          uint8 = 2
)

// Order expiry sentinels
const (
	DefaultOrderExpiry int64 = -1 // exchange default (28 days)
	NoOrderExpiry      int64 = 0  // required for IOC
)

const codeOK = 200

// OrderBook is one entry of GET /api/v1/orderBooks
type OrderBook struct {
	Symbol                 string `json:"symbol"`
	MarketID               int64  `json:"market_id"`
	Status                 string `json:"status"`
	SupportedSizeDecimals  int32  `json:"supported_size_decimals"`
	SupportedPriceDecimals int32  `json:"supported_price_decimals"`
}

type orderBooksResponse struct {
	Code       int         `json:"code"`
	Message    string      `json:"message,omitempty"`
	OrderBooks []OrderBook `json:"order_books"`
}

// OrderBookDetail is one entry of GET /api/v1/orderBookDetails.
// Decimals are pointers so a missing field can be told apart from zero.
type OrderBookDetail struct {
	Symbol        string `json:"symbol"`
	MarketID      int64  `json:"market_id"`
	SizeDecimals  *int32 `json:"size_decimals,omitempty"`
	PriceDecimals *int32 `json:"price_decimals,omitempty"`
}

type orderBookDetailsResponse struct {
	Code             int               `json:"code"`
	Message          string            `json:"message,omitempty"`
	OrderBookDetails []OrderBookDetail `json:"order_book_details"`
}

// NextNonce is the response of GET /api/v1/nextNonce
type NextNonce struct {
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
	Nonce   int64  `json:"nonce"`
}

// TxResult is the response of POST /api/v1/sendTx
type TxResult struct {
	Code                     int    `json:"code"`
	Message                  string `json:"message,omitempty"`
	TxHash                   string `json:"tx_hash"`
	PredictedExecutionTimeMs int64  `json:"predicted_execution_time_ms,omitempty"`
}

func (r *TxResult) String() string {
	if r == nil {
		return "<nil>"
	}
	s := fmt.Sprintf("code=%d tx_hash=%s", r.Code, r.TxHash)
	if r.Message != "" {
		s += fmt.Sprintf(" message=%q", r.Message)
	}
	return s
}

// APIError is returned for non-2xx responses and for bodies whose code is not 200
type APIError struct {
	StatusCode int
	Code       int
	Message    string
	Path       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("lighter %s: status=%d code=%d message=%s", e.Path, e.StatusCode, e.Code, e.Message)
}
