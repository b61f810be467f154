package signer

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/dontpanicdao/caigo"
	ctypes "github.com/dontpanicdao/caigo/types"

	"github.com/GoParadex/paragate/internal/pkg/apperrors"
)

// Constants for the Paradex SNIP-12 domain
const (
	DomainName    = "Paradex"
	DomainVersion = "1"
)

// Side encoding inside signed order messages. The exchange verifies
// signatures against these exact values; they must never be inferred
// any other way.
const (
	SideBuy  = "1"
	SideSell = "2"
)

var starkNetDomainType = caigo.TypeDef{Definitions: []caigo.Definition{
	{Name: "name", Type: "felt"},
	{Name: "chainId", Type: "felt"},
	{Name: "version", Type: "felt"},
}}

func domain(chainID string) caigo.Domain {
	return caigo.Domain{
		Name:    DomainName,
		Version: DomainVersion,
		ChainId: chainID,
	}
}

// shortString packs an ASCII short string into a felt. Empty strings
// encode as zero (caigo returns nil for them).
func shortString(s string) *big.Int {
	if s == "" {
		return big.NewInt(0)
	}
	return ctypes.UTF8StrToBig(s)
}

// EncodeSide maps an order side to its signed felt value.
func EncodeSide(side string) (string, error) {
	switch strings.ToUpper(side) {
	case "BUY":
		return SideBuy, nil
	case "SELL":
		return SideSell, nil
	default:
		return "", apperrors.NewValidation(fmt.Sprintf("unknown order side %q", side))
	}
}

// AuthPayload is the "Request" message signed for the auth endpoint.
// Timestamp is unix seconds, Expiration its validity bound.
type AuthPayload struct {
	Method     string
	Path       string
	Body       string
	Timestamp  int64
	Expiration int64
}

func (p *AuthPayload) FmtDefinitionEncoding(field string) (fmtEnc []*big.Int) {
	switch field {
	case "method":
		fmtEnc = append(fmtEnc, shortString(p.Method))
	case "path":
		fmtEnc = append(fmtEnc, shortString(p.Path))
	case "body":
		fmtEnc = append(fmtEnc, shortString(p.Body))
	case "timestamp":
		fmtEnc = append(fmtEnc, big.NewInt(p.Timestamp))
	case "expiration":
		fmtEnc = append(fmtEnc, big.NewInt(p.Expiration))
	}
	return fmtEnc
}

// OrderPayload is the "Order" message signed for order placement.
// Timestamp is unix milliseconds and doubles as the signature nonce.
// Size and Price carry already-quantized integer strings; Side carries
// the encoded "1"/"2" value.
type OrderPayload struct {
	Timestamp int64
	Market    string
	Side      string
	OrderType string
	Size      string
	Price     string
}

func (p *OrderPayload) FmtDefinitionEncoding(field string) (fmtEnc []*big.Int) {
	switch field {
	case "timestamp":
		fmtEnc = append(fmtEnc, big.NewInt(p.Timestamp))
	case "market":
		fmtEnc = append(fmtEnc, shortString(p.Market))
	case "side":
		fmtEnc = append(fmtEnc, ctypes.StrToBig(p.Side))
	case "orderType":
		fmtEnc = append(fmtEnc, shortString(p.OrderType))
	case "size":
		fmtEnc = append(fmtEnc, ctypes.StrToBig(p.Size))
	case "price":
		fmtEnc = append(fmtEnc, ctypes.StrToBig(p.Price))
	}
	return fmtEnc
}

// OnboardingPayload is the "Constant" message signed during account
// onboarding.
type OnboardingPayload struct {
	Action string
}

func (p *OnboardingPayload) FmtDefinitionEncoding(field string) (fmtEnc []*big.Int) {
	if field == "action" {
		fmtEnc = append(fmtEnc, shortString(p.Action))
	}
	return fmtEnc
}

// BuildAuthTypedData assembles the typed-data envelope for auth requests.
// Field order matches the exchange's schema exactly; reordering changes
// the hash.
func BuildAuthTypedData(chainID string) (caigo.TypedData, error) {
	types := map[string]caigo.TypeDef{
		"StarkNetDomain": starkNetDomainType,
		"Request": {Definitions: []caigo.Definition{
			{Name: "method", Type: "felt"},
			{Name: "path", Type: "felt"},
			{Name: "body", Type: "felt"},
			{Name: "timestamp", Type: "felt"},
			{Name: "expiration", Type: "felt"},
		}},
	}
	return caigo.NewTypedData(types, "Request", domain(chainID))
}

// BuildOrderTypedData assembles the typed-data envelope for orders.
func BuildOrderTypedData(chainID string) (caigo.TypedData, error) {
	types := map[string]caigo.TypeDef{
		"StarkNetDomain": starkNetDomainType,
		"Order": {Definitions: []caigo.Definition{
			{Name: "timestamp", Type: "felt"},
			{Name: "market", Type: "felt"},
			{Name: "side", Type: "felt"},
			{Name: "orderType", Type: "felt"},
			{Name: "size", Type: "felt"},
			{Name: "price", Type: "felt"},
		}},
	}
	return caigo.NewTypedData(types, "Order", domain(chainID))
}

// BuildOnboardingTypedData assembles the typed-data envelope for onboarding.
func BuildOnboardingTypedData(chainID string) (caigo.TypedData, error) {
	types := map[string]caigo.TypeDef{
		"StarkNetDomain": starkNetDomainType,
		"Constant": {Definitions: []caigo.Definition{
			{Name: "action", Type: "felt"},
		}},
	}
	return caigo.NewTypedData(types, "Constant", domain(chainID))
}
