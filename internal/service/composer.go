package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/GoParadex/paragate/internal/paradex"
	"github.com/GoParadex/paragate/internal/pkg/apperrors"
	"github.com/GoParadex/paragate/internal/pkg/metrics"
	"github.com/GoParadex/paragate/internal/signer"
)

// StarkSigner is what the composer needs from the signing layer.
type StarkSigner interface {
	SignAuth(*signer.AuthPayload) (string, error)
	SignOrder(*signer.OrderPayload) (string, error)
	SignOnboarding(*signer.OnboardingPayload) (string, error)
	Address() string
	PublicKey() (string, error)
}

// Auth header names the exchange expects, byte-for-byte.
const (
	HeaderAccount             = "PARADEX-STARKNET-ACCOUNT"
	HeaderSignature           = "PARADEX-STARKNET-SIGNATURE"
	HeaderTimestamp           = "PARADEX-TIMESTAMP"
	HeaderSignatureExpiration = "PARADEX-SIGNATURE-EXPIRATION"
	HeaderEthereumAccount     = "PARADEX-ETHEREUM-ACCOUNT"
)

const (
	authPath         = "/v1/auth"
	authExpiryWindow = 7 * 24 * time.Hour
	onboardingAction = "Onboarding"
)

// OrderDetails is the caller's view of an order before signing.
type OrderDetails struct {
	Market      string `json:"market" binding:"required"`
	Side        string `json:"side" binding:"required"`
	Type        string `json:"type" binding:"required"`
	Size        string `json:"size" binding:"required"`
	Price       string `json:"price,omitempty"`
	Instruction string `json:"instruction,omitempty"`
	ClientID    string `json:"client_id,omitempty"`
}

// Composer runs the quantize -> typed-data -> hash -> sign pipeline and
// packages the result into the exact header or body shape the exchange
// requires. It holds no mutable state; concurrent use is safe.
type Composer struct {
	signer StarkSigner
	now    func() time.Time
}

func NewComposer(s StarkSigner) *Composer {
	return &Composer{signer: s, now: time.Now}
}

// AuthHeaders produces the signed header set for POST /auth.
func (c *Composer) AuthHeaders() (map[string]string, error) {
	ts := c.now().Unix()
	exp := ts + int64(authExpiryWindow/time.Second)

	sig, err := c.signer.SignAuth(&signer.AuthPayload{
		Method:     "POST",
		Path:       authPath,
		Body:       "",
		Timestamp:  ts,
		Expiration: exp,
	})
	if err != nil {
		return nil, err
	}
	metrics.SignaturesTotal.WithLabelValues("auth").Inc()

	return map[string]string{
		HeaderAccount:             c.signer.Address(),
		HeaderSignature:           sig,
		HeaderTimestamp:           strconv.FormatInt(ts, 10),
		HeaderSignatureExpiration: strconv.FormatInt(exp, 10),
	}, nil
}

// OnboardingHeaders produces the signed header set for POST /onboarding.
func (c *Composer) OnboardingHeaders(ethereumAddress string) (map[string]string, error) {
	sig, err := c.signer.SignOnboarding(&signer.OnboardingPayload{Action: onboardingAction})
	if err != nil {
		return nil, err
	}
	metrics.SignaturesTotal.WithLabelValues("onboarding").Inc()

	headers := map[string]string{
		HeaderAccount:   c.signer.Address(),
		HeaderSignature: sig,
	}
	if ethereumAddress != "" {
		headers[HeaderEthereumAccount] = ethereumAddress
	}
	return headers, nil
}

// ComposeOrder validates, quantizes and signs an order. Validation runs
// before any signing work: a bad order never reaches the signer.
func (c *Composer) ComposeOrder(det OrderDetails) (*paradex.OrderRequest, error) {
	if err := validateOrder(det); err != nil {
		return nil, err
	}

	side, err := signer.EncodeSide(det.Side)
	if err != nil {
		return nil, err
	}

	price := det.Price
	if price == "" {
		price = "0" // market orders sign a zero price
	}
	sizeQ, err := signer.ToQuantums(det.Size, signer.QuantumPrecision)
	if err != nil {
		return nil, err
	}
	priceQ, err := signer.ToQuantums(price, signer.QuantumPrecision)
	if err != nil {
		return nil, err
	}

	ts := c.now().UnixMilli()
	sig, err := c.signer.SignOrder(&signer.OrderPayload{
		Timestamp: ts,
		Market:    det.Market,
		Side:      side,
		OrderType: strings.ToUpper(det.Type),
		Size:      sizeQ,
		Price:     priceQ,
	})
	if err != nil {
		return nil, err
	}
	metrics.SignaturesTotal.WithLabelValues("order").Inc()

	clientID := det.ClientID
	if clientID == "" {
		clientID = uuid.NewString()
	}

	return &paradex.OrderRequest{
		Market:             det.Market,
		Side:               strings.ToUpper(det.Side),
		Type:               strings.ToUpper(det.Type),
		Size:               det.Size,
		Price:              det.Price,
		Instruction:        det.Instruction,
		ClientID:           clientID,
		Signature:          sig,
		SignatureTimestamp: ts,
	}, nil
}

func validateOrder(det OrderDetails) error {
	if det.Market == "" {
		return reject("missing_market", "market is required")
	}

	switch strings.ToUpper(det.Type) {
	case "MARKET", "LIMIT":
	default:
		return reject("invalid_type", fmt.Sprintf("unsupported order type %q", det.Type))
	}

	size, err := decimal.NewFromString(det.Size)
	if err != nil {
		metrics.ValidationRejects.WithLabelValues("invalid_size").Inc()
		return apperrors.NewParse(fmt.Sprintf("invalid order size %q", det.Size), err)
	}
	if size.Sign() <= 0 {
		return reject("invalid_size", "size must be positive")
	}

	if strings.ToUpper(det.Type) == "LIMIT" && det.Price == "" {
		return reject("missing_price", "limit orders require a price")
	}
	if det.Price != "" {
		price, err := decimal.NewFromString(det.Price)
		if err != nil {
			metrics.ValidationRejects.WithLabelValues("invalid_price").Inc()
			return apperrors.NewParse(fmt.Sprintf("invalid order price %q", det.Price), err)
		}
		if price.Sign() <= 0 {
			return reject("invalid_price", fmt.Sprintf("price must be strictly positive, got %s", det.Price))
		}
	}
	return nil
}

func reject(reason, msg string) error {
	metrics.ValidationRejects.WithLabelValues(reason).Inc()
	return apperrors.NewValidation(msg)
}
