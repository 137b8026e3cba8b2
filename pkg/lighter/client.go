// Package lighter is a small client for the Lighter exchange: REST reads,
// nonce lookup, transaction submission and order signing.
package lighter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// APIClient talks to the exchange REST API. It never retries.
//
// Requests carry no client-side timeout; the caller's context bounds them.
// The limiter only paces bursts and waits on ctx, so a single run is never
// delayed by it.
type APIClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.SugaredLogger
}

func NewAPIClient(baseURL string, logger *zap.Logger) *APIClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(rate.Limit(10), 10),
		logger:     logger.Sugar(),
	}
}

func (c *APIClient) do(ctx context.Context, method, path string, query, form url.Values) ([]byte, int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, fmt.Errorf("rate limit wait: %w", err)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, 0, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	c.logger.Debugw("lighter_http",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"elapsed", time.Since(start))

	return respBody, resp.StatusCode, nil
}

// decode checks the HTTP status and the body's own code field, then fills out.
func decode(path string, body []byte, status int, out any) error {
	var envelope struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	// Error bodies are not always JSON.
	if err := json.Unmarshal(body, &envelope); err != nil && (status < 200 || status >= 300) {
		return &APIError{StatusCode: status, Message: strings.TrimSpace(string(body)), Path: path}
	}

	if status < 200 || status >= 300 || (envelope.Code != 0 && envelope.Code != codeOK) {
		return &APIError{StatusCode: status, Code: envelope.Code, Message: envelope.Message, Path: path}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshal %s: %w", path, err)
	}
	return nil
}

// OrderBooks lists every market on the exchange
func (c *APIClient) OrderBooks(ctx context.Context) ([]OrderBook, error) {
	const path = "/api/v1/orderBooks"
	body, status, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}

	var resp orderBooksResponse
	if err := decode(path, body, status, &resp); err != nil {
		return nil, err
	}
	return resp.OrderBooks, nil
}

// OrderBookDetails returns metadata for one market
func (c *APIClient) OrderBookDetails(ctx context.Context, marketID int64) (*OrderBookDetail, error) {
	const path = "/api/v1/orderBookDetails"
	q := url.Values{"market_id": {strconv.FormatInt(marketID, 10)}}
	body, status, err := c.do(ctx, http.MethodGet, path, q, nil)
	if err != nil {
		return nil, err
	}

	var resp orderBookDetailsResponse
	if err := decode(path, body, status, &resp); err != nil {
		return nil, err
	}
	for i := range resp.OrderBookDetails {
		if resp.OrderBookDetails[i].MarketID == marketID {
			return &resp.OrderBookDetails[i], nil
		}
	}
	return nil, &APIError{StatusCode: status, Code: codeOK, Message: fmt.Sprintf("no details for market %d", marketID), Path: path}
}

// NextNonce returns the next usable nonce for an API key
func (c *APIClient) NextNonce(ctx context.Context, accountIndex int64, apiKeyIndex uint8) (*NextNonce, error) {
	const path = "/api/v1/nextNonce"
	q := url.Values{
		"account_index": {strconv.FormatInt(accountIndex, 10)},
		"api_key_index": {strconv.Itoa(int(apiKeyIndex))},
	}
	body, status, err := c.do(ctx, http.MethodGet, path, q, nil)
	if err != nil {
		return nil, err
	}

	var resp NextNonce
	if err := decode(path, body, status, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SendTx submits a signed transaction
func (c *APIClient) SendTx(ctx context.Context, tx *SignedTx) (*TxResult, error) {
	const path = "/api/v1/sendTx"
	form := url.Values{
		"tx_type": {strconv.Itoa(tx.TxType)},
		"tx_info": {tx.TxInfo},
	}
	body, status, err := c.do(ctx, http.MethodPost, path, nil, form)
	if err != nil {
		return nil, err
	}

	var resp TxResult
	if err := decode(path, body, status, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
