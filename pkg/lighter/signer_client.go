package lighter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	lcrypto "github.com/Orzeszek091/lighter-trader/pkg/crypto"
	"github.com/Orzeszek091/lighter-trader/pkg/util"
)

// CreateOrderParams describes an order in integer base units
type CreateOrderParams struct {
	MarketIndex      int64
	ClientOrderIndex int64
	BaseAmount       int64
	Price            int64
	IsAsk            bool
	OrderType        uint8
	TimeInForce      uint8
	ReduceOnly       bool
	TriggerPrice     int64
	OrderExpiry      int64
}

// SignedTx is a transaction ready for SendTx
type SignedTx struct {
	TxType int
	TxInfo string // JSON body including the signature
	Hash   string // 0x-prefixed keccak of TxInfo
}

// createOrderInfo is the tx_info wire format
type createOrderInfo struct {
	AccountIndex     int64  `json:"AccountIndex"`
	ApiKeyIndex      uint8  `json:"ApiKeyIndex"`
	MarketIndex      int64  `json:"MarketIndex"`
	ClientOrderIndex int64  `json:"ClientOrderIndex"`
	BaseAmount       int64  `json:"BaseAmount"`
	Price            int64  `json:"Price"`
	IsAsk            uint8  `json:"IsAsk"`
	Type             uint8  `json:"Type"`
	TimeInForce      uint8  `json:"TimeInForce"`
	ReduceOnly       uint8  `json:"ReduceOnly"`
	TriggerPrice     int64  `json:"TriggerPrice"`
	OrderExpiry      int64  `json:"OrderExpiry"`
	Nonce            int64  `json:"Nonce"`
	Sig              string `json:"Sig"`
}

// DomainForURL picks the signing domain matching the network behind baseURL
func DomainForURL(baseURL string) lcrypto.Domain {
	if strings.Contains(strings.ToLower(baseURL), "testnet") {
		return lcrypto.TestnetDomain()
	}
	return lcrypto.MainnetDomain()
}

// SignerClient signs orders with an account's API key and submits them
// through an APIClient.
type SignerClient struct {
	api          *APIClient
	key          *lcrypto.Signer
	hasher       *lcrypto.OrderHasher
	accountIndex int64
	apiKeyIndex  uint8

	// Clock supplies the nonce when the exchange reports none
	Clock util.Clock
}

func NewSignerClient(api *APIClient, domain lcrypto.Domain, privateKeyHex string, accountIndex int64, apiKeyIndex int) (*SignerClient, error) {
	if accountIndex < 0 {
		return nil, fmt.Errorf("invalid account index %d", accountIndex)
	}
	if apiKeyIndex < 0 || apiKeyIndex > 254 {
		return nil, fmt.Errorf("invalid api key index %d (want 0..254)", apiKeyIndex)
	}

	key, err := lcrypto.FromPrivateKeyHex(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("api key: %w", err)
	}

	return &SignerClient{
		api:          api,
		key:          key,
		hasher:       lcrypto.NewOrderHasher(domain),
		accountIndex: accountIndex,
		apiKeyIndex:  uint8(apiKeyIndex),
		Clock:        util.RealClock{},
	}, nil
}

func (s *SignerClient) AccountIndex() int64 { return s.accountIndex }
func (s *SignerClient) APIKeyIndex() uint8  { return s.apiKeyIndex }

// SignCreateOrder signs p with an explicit nonce without sending it
func (s *SignerClient) SignCreateOrder(p CreateOrderParams, nonce int64) (*SignedTx, error) {
	tx := &lcrypto.CreateOrderTx{
		AccountIndex:     s.accountIndex,
		APIKeyIndex:      s.apiKeyIndex,
		MarketIndex:      p.MarketIndex,
		ClientOrderIndex: p.ClientOrderIndex,
		BaseAmount:       p.BaseAmount,
		Price:            p.Price,
		IsAsk:            flag(p.IsAsk),
		OrderType:        p.OrderType,
		TimeInForce:      p.TimeInForce,
		ReduceOnly:       flag(p.ReduceOnly),
		TriggerPrice:     p.TriggerPrice,
		OrderExpiry:      p.OrderExpiry,
		Nonce:            nonce,
	}

	sig, err := s.hasher.SignCreateOrder(s.key, tx)
	if err != nil {
		return nil, err
	}

	info, err := json.Marshal(createOrderInfo{
		AccountIndex:     tx.AccountIndex,
		ApiKeyIndex:      tx.APIKeyIndex,
		MarketIndex:      tx.MarketIndex,
		ClientOrderIndex: tx.ClientOrderIndex,
		BaseAmount:       tx.BaseAmount,
		Price:            tx.Price,
		IsAsk:            tx.IsAsk,
		Type:             tx.OrderType,
		TimeInForce:      tx.TimeInForce,
		ReduceOnly:       tx.ReduceOnly,
		TriggerPrice:     tx.TriggerPrice,
		OrderExpiry:      tx.OrderExpiry,
		Nonce:            tx.Nonce,
		Sig:              hexutil.Encode(sig),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal tx info: %w", err)
	}

	return &SignedTx{
		TxType: TxTypeCreateOrder,
		TxInfo: string(info),
		Hash:   crypto.Keccak256Hash(info).Hex(),
	}, nil
}

// CreateOrder fetches the next nonce, signs p and sends it. A zero nonce
// falls back to the current unix time.
func (s *SignerClient) CreateOrder(ctx context.Context, p CreateOrderParams) (*TxResult, error) {
	nonce, err := s.api.NextNonce(ctx, s.accountIndex, s.apiKeyIndex)
	if err != nil {
		return nil, fmt.Errorf("next nonce: %w", err)
	}

	n := nonce.Nonce
	if n == 0 {
		n = s.Clock.Now().Unix()
	}

	tx, err := s.SignCreateOrder(p, n)
	if err != nil {
		return nil, err
	}

	return s.api.SendTx(ctx, tx)
}

// CreateMarketOrder sends an immediate-or-cancel market order. worstPrice
// bounds slippage; zero leaves it to the exchange.
func (s *SignerClient) CreateMarketOrder(ctx context.Context, marketIndex, clientOrderIndex, baseAmount, worstPrice int64, isAsk bool) (*TxResult, error) {
	return s.CreateOrder(ctx, CreateOrderParams{
		MarketIndex:      marketIndex,
		ClientOrderIndex: clientOrderIndex,
		BaseAmount:       baseAmount,
		Price:            worstPrice,
		IsAsk:            isAsk,
		OrderType:        OrderTypeMarket,
		TimeInForce:      TimeInForceImmediateOrCancel,
		OrderExpiry:      NoOrderExpiry,
	})
}

func flag(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
