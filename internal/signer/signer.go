package signer

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/dontpanicdao/caigo"

	"github.com/GoParadex/paragate/internal/pkg/apperrors"
)

// Signer holds a StarkNet account's signing key and the pre-built
// typed-data envelopes for every message kind the exchange accepts.
// All methods are pure with respect to process state; signing is
// deterministic, so the same payload always yields the same signature.
type Signer struct {
	address      string
	accountBN    *big.Int
	privateKey   *big.Int
	authTD       caigo.TypedData
	orderTD      caigo.TypedData
	onboardingTD caigo.TypedData
}

// New creates a Signer from a hex account address, hex stark private key
// and the chain's short-string identifier.
func New(addressHex, privateKeyHex, chainID string) (*Signer, error) {
	account, err := parseHex(addressHex)
	if err != nil {
		return nil, apperrors.NewValidation(fmt.Sprintf("invalid account address %q", addressHex))
	}

	priv, err := parseHex(privateKeyHex)
	if err != nil {
		return nil, apperrors.NewCrypto("invalid private key encoding", err)
	}
	if err := validateScalar(priv); err != nil {
		return nil, err
	}

	authTD, err := BuildAuthTypedData(chainID)
	if err != nil {
		return nil, apperrors.NewCrypto("building auth typed data", err)
	}
	orderTD, err := BuildOrderTypedData(chainID)
	if err != nil {
		return nil, apperrors.NewCrypto("building order typed data", err)
	}
	onboardingTD, err := BuildOnboardingTypedData(chainID)
	if err != nil {
		return nil, apperrors.NewCrypto("building onboarding typed data", err)
	}

	return &Signer{
		address:      addressHex,
		accountBN:    account,
		privateKey:   priv,
		authTD:       authTD,
		orderTD:      orderTD,
		onboardingTD: onboardingTD,
	}, nil
}

// NewFromKey is New for callers that already hold the key as a big.Int
// (e.g. after deriving it from an Ethereum wallet signature).
func NewFromKey(addressHex string, privateKey *big.Int, chainID string) (*Signer, error) {
	if privateKey == nil {
		return nil, apperrors.NewCrypto("nil private key", nil)
	}
	return New(addressHex, "0x"+privateKey.Text(16), chainID)
}

// Address returns the account address as configured.
func (s *Signer) Address() string {
	return s.address
}

// PublicKey returns the stark public key (x coordinate) as hex.
func (s *Signer) PublicKey() (string, error) {
	x, _, err := caigo.Curve.PrivateToPoint(s.privateKey)
	if err != nil {
		return "", apperrors.NewCrypto("deriving public key", err)
	}
	return "0x" + x.Text(16), nil
}

// SignAuth signs an auth Request payload.
func (s *Signer) SignAuth(p *AuthPayload) (string, error) {
	return s.hashAndSign(s.authTD, p)
}

// SignOrder signs an Order payload.
func (s *Signer) SignOrder(p *OrderPayload) (string, error) {
	return s.hashAndSign(s.orderTD, p)
}

// SignOnboarding signs a Constant payload for the onboarding flow.
func (s *Signer) SignOnboarding(p *OnboardingPayload) (string, error) {
	return s.hashAndSign(s.onboardingTD, p)
}

func (s *Signer) hashAndSign(td caigo.TypedData, msg caigo.TypedMessage) (string, error) {
	hash, err := td.GetMessageHash(s.accountBN, msg, caigo.Curve)
	if err != nil {
		return "", apperrors.NewCrypto("typed-data hash failed", err)
	}
	r, sv, err := caigo.Curve.Sign(hash, s.privateKey)
	if err != nil {
		return "", apperrors.NewCrypto("stark signing failed", err)
	}
	return SerializeSignature(r, sv), nil
}

// SerializeSignature renders an (r, s) pair in the exchange's wire form:
// a JSON array of two base-10 strings.
func SerializeSignature(r, s *big.Int) string {
	out, _ := json.Marshal([]string{r.String(), s.String()})
	return string(out)
}

func validateScalar(k *big.Int) error {
	if k.Sign() <= 0 || k.Cmp(caigo.Curve.N) >= 0 {
		return apperrors.NewCrypto("private key is not a valid curve scalar", nil)
	}
	return nil
}

func parseHex(h string) (*big.Int, error) {
	cleaned := strings.TrimPrefix(strings.TrimSpace(h), "0x")
	v, ok := new(big.Int).SetString(cleaned, 16)
	if !ok {
		return nil, fmt.Errorf("not a hex integer: %q", h)
	}
	return v, nil
}
