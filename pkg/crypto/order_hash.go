package crypto

import (
	"fmt"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// Domain separates signatures between networks
type Domain struct {
	Name              string
	Version           string
	ChainID           *big.Int
	VerifyingContract common.Address
}

// MainnetDomain is the signing domain for Lighter mainnet (chain 304)
func MainnetDomain() Domain {
	return Domain{
		Name:    "Lighter",
		Version: "1",
		ChainID: big.NewInt(304),
	}
}

// TestnetDomain is the signing domain for Lighter testnet (chain 300)
func TestnetDomain() Domain {
	d := MainnetDomain()
	d.ChainID = big.NewInt(300)
	return d
}

// CreateOrderTx is the signed body of a create-order transaction.
// All amounts are integer base units.
type CreateOrderTx struct {
	AccountIndex     int64
	APIKeyIndex      uint8
	MarketIndex      int64
	ClientOrderIndex int64
	BaseAmount       int64
	Price            int64
	IsAsk            uint8
	OrderType        uint8
	TimeInForce      uint8
	ReduceOnly       uint8
	TriggerPrice     int64
	OrderExpiry      int64 // -1 = exchange default, 0 = none (IOC)
	Nonce            int64
}

var createOrderTypes = apitypes.Types{
	"EIP712Domain": []apitypes.Type{
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
		{Name: "verifyingContract", Type: "address"},
	},
	"CreateOrder": []apitypes.Type{
		{Name: "accountIndex", Type: "uint64"},
		{Name: "apiKeyIndex", Type: "uint8"},
		{Name: "marketIndex", Type: "uint16"},
		{Name: "clientOrderIndex", Type: "uint64"},
		{Name: "baseAmount", Type: "uint64"},
		{Name: "price", Type: "uint64"},
		{Name: "isAsk", Type: "uint8"},
		{Name: "orderType", Type: "uint8"},
		{Name: "timeInForce", Type: "uint8"},
		{Name: "reduceOnly", Type: "uint8"},
		{Name: "triggerPrice", Type: "uint64"},
		{Name: "orderExpiry", Type: "int64"},
		{Name: "nonce", Type: "uint64"},
	},
}

// OrderHasher computes typed-data digests for create-order transactions
type OrderHasher struct {
	domain Domain
}

func NewOrderHasher(domain Domain) *OrderHasher {
	return &OrderHasher{domain: domain}
}

// HashCreateOrder returns keccak256("\x19\x01" || domainSeparator || structHash)
func (h *OrderHasher) HashCreateOrder(tx *CreateOrderTx) ([]byte, error) {
	for name, v := range map[string]int64{
		"account index":      tx.AccountIndex,
		"market index":       tx.MarketIndex,
		"client order index": tx.ClientOrderIndex,
		"base amount":        tx.BaseAmount,
		"price":              tx.Price,
		"trigger price":      tx.TriggerPrice,
		"nonce":              tx.Nonce,
	} {
		if v < 0 {
			return nil, fmt.Errorf("negative %s: %d", name, v)
		}
	}

	typedData := apitypes.TypedData{
		Types:       createOrderTypes,
		PrimaryType: "CreateOrder",
		Domain: apitypes.TypedDataDomain{
			Name:              h.domain.Name,
			Version:           h.domain.Version,
			ChainId:           (*math.HexOrDecimal256)(h.domain.ChainID),
			VerifyingContract: h.domain.VerifyingContract.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"accountIndex":     dec(tx.AccountIndex),
			"apiKeyIndex":      dec(int64(tx.APIKeyIndex)),
			"marketIndex":      dec(tx.MarketIndex),
			"clientOrderIndex": dec(tx.ClientOrderIndex),
			"baseAmount":       dec(tx.BaseAmount),
			"price":            dec(tx.Price),
			"isAsk":            dec(int64(tx.IsAsk)),
			"orderType":        dec(int64(tx.OrderType)),
			"timeInForce":      dec(int64(tx.TimeInForce)),
			"reduceOnly":       dec(int64(tx.ReduceOnly)),
			"triggerPrice":     dec(tx.TriggerPrice),
			"orderExpiry":      dec(tx.OrderExpiry),
			"nonce":            dec(tx.Nonce),
		},
	}

	domainSeparator, err := typedData.HashStruct("EIP712Domain", typedData.Domain.Map())
	if err != nil {
		return nil, fmt.Errorf("failed to hash domain: %w", err)
	}

	typedDataHash, err := typedData.HashStruct(typedData.PrimaryType, typedData.Message)
	if err != nil {
		return nil, fmt.Errorf("failed to hash message: %w", err)
	}

	rawData := []byte(fmt.Sprintf("\x19\x01%s%s", string(domainSeparator), string(typedDataHash)))
	return crypto.Keccak256Hash(rawData).Bytes(), nil
}

// SignCreateOrder hashes and signs a create-order transaction
func (h *OrderHasher) SignCreateOrder(signer *Signer, tx *CreateOrderTx) ([]byte, error) {
	hash, err := h.HashCreateOrder(tx)
	if err != nil {
		return nil, fmt.Errorf("failed to hash order: %w", err)
	}

	signature, err := signer.Sign(hash)
	if err != nil {
		return nil, fmt.Errorf("failed to sign order: %w", err)
	}
	if !VerifySignature(signer.Address(), hash, signature) {
		return nil, fmt.Errorf("order signature does not recover to %s", signer.Address().Hex())
	}

	return signature, nil
}

// RecoverCreateOrderSigner recovers the address that signed tx
func (h *OrderHasher) RecoverCreateOrderSigner(tx *CreateOrderTx, signature []byte) (common.Address, error) {
	hash, err := h.HashCreateOrder(tx)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to hash order: %w", err)
	}
	return RecoverAddress(hash, signature)
}

func dec(v int64) string { return strconv.FormatInt(v, 10) }
