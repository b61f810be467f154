package main

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/GoParadex/paragate/internal/account"
	"github.com/GoParadex/paragate/internal/config"
	"github.com/GoParadex/paragate/internal/service"
	"github.com/GoParadex/paragate/internal/signer"
)

// Prints the signing material and a sample signed payload for the
// configured account. Useful for checking a key setup against the
// exchange without starting the gateway.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	var sgn *signer.Signer
	if cfg.Account.PrivateKey != "" {
		sgn, err = signer.New(cfg.Account.Address, cfg.Account.PrivateKey, cfg.Paradex.ChainID)
	} else {
		var derived *account.Derived
		derived, err = account.DeriveStarkKey(cfg.Account.EthereumPrivateKey, cfg.Account.L1ChainID)
		if err == nil {
			fmt.Println("Ethereum address:", derived.EthereumAddress)
			sgn, err = signer.NewFromKey(cfg.Account.Address, derived.StarkPrivateKey, cfg.Paradex.ChainID)
		}
	}
	if err != nil {
		log.Fatalf("Failed to initialize signer: %v", err)
	}

	pub, err := sgn.PublicKey()
	if err != nil {
		log.Fatalf("Failed to derive public key: %v", err)
	}
	fmt.Println("--- Account ---")
	fmt.Println("Address:   ", sgn.Address())
	fmt.Println("Public key:", pub)
	fmt.Println("Chain ID:  ", cfg.Paradex.ChainID)

	composer := service.NewComposer(sgn)

	headers, err := composer.AuthHeaders()
	if err != nil {
		log.Fatalf("Failed to sign auth payload: %v", err)
	}
	fmt.Println("\n--- Auth Headers ---")
	for k, v := range headers {
		fmt.Printf("%s: %s\n", k, v)
	}

	req, err := composer.ComposeOrder(service.OrderDetails{
		Market: "ETH-USD-PERP",
		Side:   "BUY",
		Type:   "LIMIT",
		Size:   "0.1",
		Price:  "3100.5",
	})
	if err != nil {
		log.Fatalf("Failed to compose sample order: %v", err)
	}
	body, _ := json.MarshalIndent(req, "", "  ")
	fmt.Println("\n--- Sample Order ---")
	fmt.Println(string(body))
}
