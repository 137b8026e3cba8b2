package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Orzeszek091/lighter-trader/params"
	"github.com/Orzeszek091/lighter-trader/pkg/app/order"
	"github.com/Orzeszek091/lighter-trader/pkg/lighter"
)

// sign-order signs a create-order transaction offline and prints it, for
// inspecting the wire format or sending it by other means. Amounts are
// already in base units.
func main() {
	env, err := params.LoadFromEnv("")
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	baseURL := flag.String("base-url", env.BaseURL, "selects the signing domain (testnet or mainnet)")
	accountIndex := flag.Int64("account-index", env.Credentials.AccountIndex, "account index")
	apiKeyIndex := flag.Int("api-key-index", env.Credentials.APIKeyIndex, "API key index")
	marketID := flag.Int64("market-id", 0, "market id")
	sideStr := flag.String("side", "buy", "buy or sell")
	typeStr := flag.String("type", "limit", "market or limit")
	baseAmount := flag.Int64("base-amount", 0, "quantity in base units")
	price := flag.Int64("price", 0, "price in base units")
	nonce := flag.Int64("nonce", 0, "nonce to sign with")
	flag.Parse()

	if env.Credentials.APIKeyPrivateKey == "" {
		fmt.Println("Error: set LIGHTER_API_KEY_PRIVATE_KEY")
		os.Exit(1)
	}

	side, err := order.ParseSide(*sideStr)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	orderType, err := order.ParseType(*typeStr)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	tif := order.PostOnly
	if orderType == order.Market {
		tif = order.ImmediateOrCancel
	}
	req := order.Request{
		MarketID:    *marketID,
		Side:        side,
		BaseAmount:  *baseAmount,
		Type:        orderType,
		TimeInForce: tif,
		Price:       *price,
	}
	p, err := req.Params(time.Now().UnixMilli())
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	signer, err := lighter.NewSignerClient(nil, lighter.DomainForURL(*baseURL), env.Credentials.APIKeyPrivateKey, *accountIndex, *apiKeyIndex)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Order Details:")
	fmt.Printf("  Market: %d\n", req.MarketID)
	fmt.Printf("  Side: %s\n", req.Side)
	fmt.Printf("  Type: %s (%s)\n", req.Type, req.TimeInForce)
	fmt.Printf("  Base amount: %d\n", req.BaseAmount)
	fmt.Printf("  Price: %d\n", req.Price)
	fmt.Printf("  Nonce: %d\n\n", *nonce)

	tx, err := signer.SignCreateOrder(p, *nonce)
	if err != nil {
		fmt.Printf("Error signing: %v\n", err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(map[string]any{
		"tx_type": tx.TxType,
		"tx_info": json.RawMessage(tx.TxInfo),
		"hash":    tx.Hash,
	}, "", "  ")
	if err != nil {
		fmt.Printf("Error marshaling JSON: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Signed Transaction (JSON):")
	fmt.Println(string(out))
	fmt.Println()
	fmt.Println("To submit:")
	fmt.Printf("  POST %s/api/v1/sendTx\n", *baseURL)
	fmt.Println("  Content-Type: application/x-www-form-urlencoded")
	fmt.Printf("  tx_type=%d&tx_info=<tx_info above>\n", tx.TxType)
}
