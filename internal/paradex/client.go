// Package paradex is the REST surface of the exchange. The client only
// shapes requests and decodes typed responses; it never retries and
// never interprets errors beyond surfacing them with their HTTP status.
package paradex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/GoParadex/paragate/internal/config"
	"github.com/GoParadex/paragate/internal/pkg/apperrors"
)

// TokenFunc supplies the current bearer token; empty means unauthenticated.
type TokenFunc func() string

type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	token      TokenFunc
}

func NewClient(cfg config.ParadexConfig, token TokenFunc) *Client {
	timeout := time.Duration(cfg.TimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	rps := cfg.RateLimit
	if rps <= 0 {
		rps = 10
	}
	if token == nil {
		token = func() string { return "" }
	}
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     90 * time.Second,
			},
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(rps), int(rps)+1),
		token:   token,
	}
}

// Auth exchanges signed headers for a JWT. Body is an empty JSON object.
func (c *Client) Auth(ctx context.Context, headers map[string]string) (*AuthResult, error) {
	var out AuthResult
	if err := c.do(ctx, http.MethodPost, "/auth", nil, headers, struct{}{}, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// Onboard registers a stark public key using signed onboarding headers.
func (c *Client) Onboard(ctx context.Context, headers map[string]string, publicKey string) error {
	body := OnboardingRequest{PublicKey: publicKey}
	return c.do(ctx, http.MethodPost, "/onboarding", nil, headers, body, nil, false)
}

func (c *Client) GetAccount(ctx context.Context) (*AccountInfo, error) {
	var out AccountInfo
	if err := c.do(ctx, http.MethodGet, "/account", nil, nil, nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListPositions(ctx context.Context) ([]Position, error) {
	var out PositionsResult
	if err := c.do(ctx, http.MethodGet, "/positions", nil, nil, nil, &out, true); err != nil {
		return nil, err
	}
	return out.Results, nil
}

func (c *Client) ListOrders(ctx context.Context) ([]Order, error) {
	var out OrdersResult
	if err := c.do(ctx, http.MethodGet, "/orders", nil, nil, nil, &out, true); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// ListMarkets returns all markets, or a single one when symbol is set.
func (c *Client) ListMarkets(ctx context.Context, symbol string) ([]Market, error) {
	var query url.Values
	if symbol != "" {
		query = url.Values{"market": {symbol}}
	}
	var out MarketsResult
	if err := c.do(ctx, http.MethodGet, "/markets", query, nil, nil, &out, false); err != nil {
		return nil, err
	}
	return out.Results, nil
}

func (c *Client) GetMarketSummary(ctx context.Context, symbol string) (*MarketSummary, error) {
	query := url.Values{"market": {symbol}}
	var out SummariesResult
	if err := c.do(ctx, http.MethodGet, "/markets/summary", query, nil, nil, &out, false); err != nil {
		return nil, err
	}
	if len(out.Results) == 0 {
		return nil, apperrors.New(apperrors.ErrNotFound, fmt.Sprintf("no summary for market %s", symbol), nil)
	}
	return &out.Results[0], nil
}

func (c *Client) PlaceOrder(ctx context.Context, req *OrderRequest) (*Order, error) {
	var out Order
	if err := c.do(ctx, http.MethodPost, "/orders", nil, nil, req, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CancelOrder(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/orders/"+url.PathEscape(id), nil, nil, nil, nil, true)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, headers map[string]string, body, out any, authed bool) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return apperrors.New(apperrors.ErrInternal, "rate limiter wait aborted", err)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return apperrors.New(apperrors.ErrInternal, "encoding request body", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return apperrors.New(apperrors.ErrInternal, "building request", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if authed {
		token := c.token()
		if token == "" {
			return apperrors.New(apperrors.ErrAuthFailed, "no active session token", nil)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.NewRemote(http.StatusBadGateway, fmt.Sprintf("%s %s: %v", method, path, err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.NewRemote(resp.StatusCode, fmt.Sprintf("reading response: %v", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp.StatusCode, raw)
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return apperrors.NewRemote(resp.StatusCode, fmt.Sprintf("decoding response: %v", err))
		}
	}
	return nil
}

func decodeError(status int, raw []byte) error {
	var apiErr APIError
	if err := json.Unmarshal(raw, &apiErr); err == nil && (apiErr.Code != "" || apiErr.Message != "") {
		return apperrors.NewRemote(status, apiErr.Error())
	}
	msg := strings.TrimSpace(string(raw))
	if msg == "" {
		msg = http.StatusText(status)
	}
	return apperrors.NewRemote(status, msg)
}
