package service

import (
	"encoding/json"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoParadex/paragate/internal/pkg/apperrors"
	"github.com/GoParadex/paragate/internal/signer"
)

// countingSigner records invocations and the last payloads seen.
type countingSigner struct {
	authCalls       int
	orderCalls      int
	onboardingCalls int
	lastOrder       *signer.OrderPayload
	lastAuth        *signer.AuthPayload
}

func (c *countingSigner) SignAuth(p *signer.AuthPayload) (string, error) {
	c.authCalls++
	c.lastAuth = p
	return `["10","20"]`, nil
}

func (c *countingSigner) SignOrder(p *signer.OrderPayload) (string, error) {
	c.orderCalls++
	c.lastOrder = p
	return `["30","40"]`, nil
}

func (c *countingSigner) SignOnboarding(p *signer.OnboardingPayload) (string, error) {
	c.onboardingCalls++
	return `["50","60"]`, nil
}

func (c *countingSigner) Address() string { return "0xacc" }

func (c *countingSigner) PublicKey() (string, error) { return "0xpub", nil }

func fixedComposer(s StarkSigner, at time.Time) *Composer {
	c := NewComposer(s)
	c.now = func() time.Time { return at }
	return c
}

func TestAuthHeaders(t *testing.T) {
	fake := &countingSigner{}
	at := time.Unix(1716200000, 0)
	c := fixedComposer(fake, at)

	headers, err := c.AuthHeaders()
	require.NoError(t, err)

	assert.Equal(t, "0xacc", headers[HeaderAccount])
	assert.Equal(t, `["10","20"]`, headers[HeaderSignature])
	assert.Equal(t, "1716200000", headers[HeaderTimestamp])

	exp, err := strconv.ParseInt(headers[HeaderSignatureExpiration], 10, 64)
	require.NoError(t, err)
	assert.Equal(t, int64(1716200000+7*24*3600), exp)

	require.NotNil(t, fake.lastAuth)
	assert.Equal(t, "POST", fake.lastAuth.Method)
	assert.Equal(t, "/v1/auth", fake.lastAuth.Path)
	assert.Equal(t, "", fake.lastAuth.Body)
}

func TestComposeOrder_QuantizesAndSigns(t *testing.T) {
	fake := &countingSigner{}
	at := time.UnixMilli(1716200000123)
	c := fixedComposer(fake, at)

	req, err := c.ComposeOrder(OrderDetails{
		Market: "ETH-USD-PERP",
		Side:   "BUY",
		Type:   "LIMIT",
		Size:   "1.23456789",
		Price:  "3100.5",
	})
	require.NoError(t, err)
	require.Equal(t, 1, fake.orderCalls)

	// the signature covers the quantized values
	assert.Equal(t, "123456789", fake.lastOrder.Size)
	assert.Equal(t, "310050000000", fake.lastOrder.Price)
	assert.Equal(t, signer.SideBuy, fake.lastOrder.Side)
	assert.Equal(t, "LIMIT", fake.lastOrder.OrderType)
	assert.Equal(t, int64(1716200000123), fake.lastOrder.Timestamp)

	// the transmitted body keeps the human-readable values
	assert.Equal(t, "1.23456789", req.Size)
	assert.Equal(t, "3100.5", req.Price)
	assert.Equal(t, "BUY", req.Side)
	assert.Equal(t, `["30","40"]`, req.Signature)
	assert.Equal(t, int64(1716200000123), req.SignatureTimestamp)
	assert.NotEmpty(t, req.ClientID)
}

func TestComposeOrder_MarketOrderSignsZeroPrice(t *testing.T) {
	fake := &countingSigner{}
	c := fixedComposer(fake, time.Now())

	req, err := c.ComposeOrder(OrderDetails{
		Market: "BTC-USD-PERP",
		Side:   "SELL",
		Type:   "MARKET",
		Size:   "0.01",
	})
	require.NoError(t, err)
	assert.Equal(t, "0", fake.lastOrder.Price)
	assert.Equal(t, signer.SideSell, fake.lastOrder.Side)
	assert.Empty(t, req.Price)

	var parts []string
	require.NoError(t, json.Unmarshal([]byte(req.Signature), &parts))
	assert.Len(t, parts, 2)
}

func TestComposeOrder_RejectsBeforeSigning(t *testing.T) {
	cases := []struct {
		name    string
		details OrderDetails
		errType apperrors.ErrorType
	}{
		{"zero price", OrderDetails{Market: "ETH-USD-PERP", Side: "BUY", Type: "LIMIT", Size: "1", Price: "0"}, apperrors.ErrValidation},
		{"negative price", OrderDetails{Market: "ETH-USD-PERP", Side: "BUY", Type: "LIMIT", Size: "1", Price: "-5"}, apperrors.ErrValidation},
		{"malformed price", OrderDetails{Market: "ETH-USD-PERP", Side: "BUY", Type: "LIMIT", Size: "1", Price: "abc"}, apperrors.ErrParse},
		{"missing limit price", OrderDetails{Market: "ETH-USD-PERP", Side: "BUY", Type: "LIMIT", Size: "1"}, apperrors.ErrValidation},
		{"zero size", OrderDetails{Market: "ETH-USD-PERP", Side: "BUY", Type: "MARKET", Size: "0"}, apperrors.ErrValidation},
		{"malformed size", OrderDetails{Market: "ETH-USD-PERP", Side: "BUY", Type: "MARKET", Size: "x"}, apperrors.ErrParse},
		{"bad side", OrderDetails{Market: "ETH-USD-PERP", Side: "LONG", Type: "MARKET", Size: "1"}, apperrors.ErrValidation},
		{"bad type", OrderDetails{Market: "ETH-USD-PERP", Side: "BUY", Type: "STOP", Size: "1"}, apperrors.ErrValidation},
		{"missing market", OrderDetails{Side: "BUY", Type: "MARKET", Size: "1"}, apperrors.ErrValidation},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fake := &countingSigner{}
			c := fixedComposer(fake, time.Now())

			_, err := c.ComposeOrder(tc.details)
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, tc.errType), "got %v", err)
			// fail fast: the signer must never run for a rejected order
			assert.Equal(t, 0, fake.orderCalls)
		})
	}
}

func TestOnboardingHeaders(t *testing.T) {
	fake := &countingSigner{}
	c := fixedComposer(fake, time.Now())

	headers, err := c.OnboardingHeaders("0xEthAddr")
	require.NoError(t, err)
	assert.Equal(t, 1, fake.onboardingCalls)
	assert.Equal(t, "0xacc", headers[HeaderAccount])
	assert.Equal(t, `["50","60"]`, headers[HeaderSignature])
	assert.Equal(t, "0xEthAddr", headers[HeaderEthereumAccount])
}
