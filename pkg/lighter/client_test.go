package lighter_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"

	lcrypto "github.com/Orzeszek091/lighter-trader/pkg/crypto"
	"github.com/Orzeszek091/lighter-trader/pkg/lighter"
	"github.com/Orzeszek091/lighter-trader/pkg/lighter/lightertest"
	"github.com/Orzeszek091/lighter-trader/pkg/util"
)

func int32p(v int32) *int32 { return &v }

func TestOrderBooks(t *testing.T) {
	fake := lightertest.NewServer(t)
	fake.Markets = []lighter.OrderBook{
		{Symbol: "ETH", MarketID: 0, SupportedSizeDecimals: 4, SupportedPriceDecimals: 2},
		{Symbol: "BTC", MarketID: 1, SupportedSizeDecimals: 5, SupportedPriceDecimals: 1},
	}

	api := lighter.NewAPIClient(fake.URL()+"/", nil)
	books, err := api.OrderBooks(context.Background())
	if err != nil {
		t.Fatalf("OrderBooks() error = %v", err)
	}
	if len(books) != 2 || books[1].Symbol != "BTC" || books[1].MarketID != 1 {
		t.Errorf("OrderBooks() = %+v", books)
	}
}

func TestOrderBookDetails(t *testing.T) {
	fake := lightertest.NewServer(t)
	fake.Details[3] = lighter.OrderBookDetail{Symbol: "SOL", MarketID: 3, SizeDecimals: int32p(3)}

	api := lighter.NewAPIClient(fake.URL(), nil)
	d, err := api.OrderBookDetails(context.Background(), 3)
	if err != nil {
		t.Fatalf("OrderBookDetails() error = %v", err)
	}
	if d.SizeDecimals == nil || *d.SizeDecimals != 3 {
		t.Errorf("SizeDecimals = %v, want 3", d.SizeDecimals)
	}
	if d.PriceDecimals != nil {
		t.Errorf("PriceDecimals = %v, want nil", *d.PriceDecimals)
	}

	_, err = api.OrderBookDetails(context.Background(), 99)
	var apiErr *lighter.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("unknown market: err = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest || apiErr.Code != 21100 {
		t.Errorf("APIError = %+v", apiErr)
	}
}

func TestNonJSONErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := lighter.NewAPIClient(srv.URL, nil).OrderBooks(context.Background())
	var apiErr *lighter.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusBadGateway || apiErr.Message != "bad gateway" {
		t.Errorf("APIError = %+v", apiErr)
	}
}

func newSigner(t *testing.T, api *lighter.APIClient) (*lighter.SignerClient, *lcrypto.Signer) {
	t.Helper()
	key, err := lcrypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	sc, err := lighter.NewSignerClient(api, lcrypto.MainnetDomain(), "0x"+key.PrivateKeyHex(), 7, 2)
	if err != nil {
		t.Fatalf("NewSignerClient() error = %v", err)
	}
	return sc, key
}

type txInfo struct {
	AccountIndex     int64
	ApiKeyIndex      uint8
	MarketIndex      int64
	ClientOrderIndex int64
	BaseAmount       int64
	Price            int64
	IsAsk            uint8
	Type             uint8
	TimeInForce      uint8
	ReduceOnly       uint8
	TriggerPrice     int64
	OrderExpiry      int64
	Nonce            int64
	Sig              string
}

func TestSignCreateOrderRecoversSigner(t *testing.T) {
	sc, key := newSigner(t, lighter.NewAPIClient("http://unused", nil))

	tx, err := sc.SignCreateOrder(lighter.CreateOrderParams{
		MarketIndex:      1,
		ClientOrderIndex: 5,
		BaseAmount:       1234560,
		Price:            100005000,
		IsAsk:            true,
		OrderType:        lighter.OrderTypeLimit,
		TimeInForce:      lighter.TimeInForcePostOnly,
		OrderExpiry:      lighter.DefaultOrderExpiry,
	}, 42)
	if err != nil {
		t.Fatalf("SignCreateOrder() error = %v", err)
	}
	if tx.TxType != lighter.TxTypeCreateOrder {
		t.Errorf("TxType = %d, want %d", tx.TxType, lighter.TxTypeCreateOrder)
	}

	var info txInfo
	if err := json.Unmarshal([]byte(tx.TxInfo), &info); err != nil {
		t.Fatalf("tx info: %v", err)
	}
	if info.AccountIndex != 7 || info.ApiKeyIndex != 2 || info.Nonce != 42 || info.IsAsk != 1 || info.TimeInForce != 2 {
		t.Errorf("tx info = %+v", info)
	}

	sig, err := hexutil.Decode(info.Sig)
	if err != nil {
		t.Fatalf("decode sig: %v", err)
	}
	recovered, err := lcrypto.NewOrderHasher(lcrypto.MainnetDomain()).RecoverCreateOrderSigner(&lcrypto.CreateOrderTx{
		AccountIndex:     info.AccountIndex,
		APIKeyIndex:      info.ApiKeyIndex,
		MarketIndex:      info.MarketIndex,
		ClientOrderIndex: info.ClientOrderIndex,
		BaseAmount:       info.BaseAmount,
		Price:            info.Price,
		IsAsk:            info.IsAsk,
		OrderType:        info.Type,
		TimeInForce:      info.TimeInForce,
		ReduceOnly:       info.ReduceOnly,
		TriggerPrice:     info.TriggerPrice,
		OrderExpiry:      info.OrderExpiry,
		Nonce:            info.Nonce,
	}, sig)
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	if recovered != key.Address() {
		t.Errorf("recovered = %s, want %s", recovered.Hex(), key.Address().Hex())
	}
}

func TestCreateMarketOrder(t *testing.T) {
	fake := lightertest.NewServer(t)
	fake.Nonce = 11

	sc, _ := newSigner(t, lighter.NewAPIClient(fake.URL(), nil))
	res, err := sc.CreateMarketOrder(context.Background(), 0, 9, 5000, 0, false)
	if err != nil {
		t.Fatalf("CreateMarketOrder() error = %v", err)
	}
	if res.Code != 200 || res.TxHash == "" {
		t.Errorf("result = %s", res)
	}

	if got := fake.Calls("/api/v1/nextNonce"); got != 1 {
		t.Errorf("nextNonce calls = %d, want 1", got)
	}
	sent := fake.Sent()
	if len(sent) != 1 {
		t.Fatalf("sent = %d txs, want 1", len(sent))
	}

	var info txInfo
	if err := json.Unmarshal([]byte(sent[0].TxInfo), &info); err != nil {
		t.Fatalf("tx info: %v", err)
	}
	if info.Type != lighter.OrderTypeMarket || info.TimeInForce != lighter.TimeInForceImmediateOrCancel {
		t.Errorf("type/tif = %d/%d, want market/IOC", info.Type, info.TimeInForce)
	}
	if info.Nonce != 11 || info.BaseAmount != 5000 || info.OrderExpiry != 0 {
		t.Errorf("tx info = %+v", info)
	}
}

func TestCreateOrderZeroNonceUsesClock(t *testing.T) {
	fake := lightertest.NewServer(t)
	fake.Nonce = 0

	sc, _ := newSigner(t, lighter.NewAPIClient(fake.URL(), nil))
	sc.Clock = util.FixedClock{T: time.Unix(1700000000, 0)}

	if _, err := sc.CreateOrder(context.Background(), lighter.CreateOrderParams{BaseAmount: 1, Price: 1}); err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}

	sent := fake.Sent()
	if len(sent) != 1 {
		t.Fatalf("sent = %d txs, want 1", len(sent))
	}
	var info txInfo
	if err := json.Unmarshal([]byte(sent[0].TxInfo), &info); err != nil {
		t.Fatalf("tx info: %v", err)
	}
	if info.Nonce != 1700000000 {
		t.Errorf("Nonce = %d, want 1700000000", info.Nonce)
	}
}

func TestRequestBoundByContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := lighter.NewAPIClient(srv.URL, nil).OrderBooks(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want context.DeadlineExceeded", err)
	}
}

func TestSendTxRejected(t *testing.T) {
	fake := lightertest.NewServer(t)
	fake.SendError = "invalid nonce"

	sc, _ := newSigner(t, lighter.NewAPIClient(fake.URL(), nil))
	_, err := sc.CreateOrder(context.Background(), lighter.CreateOrderParams{BaseAmount: 1, Price: 1})

	var apiErr *lighter.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.Code != 21120 || apiErr.Message != "invalid nonce" {
		t.Errorf("APIError = %+v", apiErr)
	}
}

func TestNewSignerClientValidation(t *testing.T) {
	api := lighter.NewAPIClient("http://unused", nil)
	key, _ := lcrypto.GenerateKey()

	tests := []struct {
		name    string
		key     string
		account int64
		apiKey  int
	}{
		{"empty key", "", 0, 2},
		{"negative account", key.PrivateKeyHex(), -1, 2},
		{"api key index too large", key.PrivateKeyHex(), 0, 255},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := lighter.NewSignerClient(api, lcrypto.MainnetDomain(), tt.key, tt.account, tt.apiKey); err == nil {
				t.Error("NewSignerClient() should fail")
			}
		})
	}
}

func TestDomainForURL(t *testing.T) {
	if got := lighter.DomainForURL("https://testnet.zklighter.elliot.ai").ChainID.Int64(); got != 300 {
		t.Errorf("testnet chain id = %d, want 300", got)
	}
	if got := lighter.DomainForURL(lighter.DefaultBaseURL).ChainID.Int64(); got != 304 {
		t.Errorf("mainnet chain id = %d, want 304", got)
	}
}
