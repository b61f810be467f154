package paradex

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// AuthResult is the response of a successful auth exchange.
type AuthResult struct {
	JwtToken string `json:"jwt_token"`
}

// APIError is the exchange's error envelope.
type APIError struct {
	Code    string `json:"error"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("code: %s, message: %s", e.Code, e.Message)
}

// OnboardingRequest registers a stark public key for a new account.
type OnboardingRequest struct {
	PublicKey string `json:"public_key"`
}

// AccountInfo is the single-object response of GET /account.
type AccountInfo struct {
	Account         string          `json:"account"`
	AccountValue    decimal.Decimal `json:"account_value"`
	FreeCollateral  decimal.Decimal `json:"free_collateral"`
	TotalCollateral decimal.Decimal `json:"total_collateral"`
	MarginCushion   decimal.Decimal `json:"margin_cushion"`
	SettlementAsset string          `json:"settlement_asset"`
	Status          string          `json:"status"`
	UpdatedAt       int64           `json:"updated_at"`
}

type PositionSide string

const (
	PositionSideLong  PositionSide = "LONG"
	PositionSideShort PositionSide = "SHORT"
)

type Position struct {
	ID                string          `json:"id"`
	Account           string          `json:"account"`
	Market            string          `json:"market"`
	Side              PositionSide    `json:"side"`
	Status            string          `json:"status"`
	Size              decimal.Decimal `json:"size"`
	AverageEntryPrice decimal.Decimal `json:"average_entry_price"`
	LiquidationPrice  string          `json:"liquidation_price"`
	Leverage          string          `json:"leverage"`
	UnrealizedPnl     decimal.Decimal `json:"unrealized_pnl"`
	LastUpdatedAt     int64           `json:"last_updated_at"`
}

type PositionsResult struct {
	Results []Position `json:"results"`
}

type OrderStatus string

const (
	OrderStatusNew    OrderStatus = "NEW"
	OrderStatusOpen   OrderStatus = "OPEN"
	OrderStatusClosed OrderStatus = "CLOSED"
)

// Order is the exchange's view of a placed order.
type Order struct {
	ID            string          `json:"id"`
	Account       string          `json:"account"`
	ClientID      string          `json:"client_id"`
	Market        string          `json:"market"`
	Side          string          `json:"side"`
	Type          string          `json:"type"`
	Size          decimal.Decimal `json:"size"`
	RemainingSize decimal.Decimal `json:"remaining_size"`
	Price         decimal.Decimal `json:"price"`
	AvgFillPrice  string          `json:"avg_fill_price"`
	Status        OrderStatus     `json:"status"`
	CancelReason  string          `json:"cancel_reason"`
	Instruction   string          `json:"instruction"`
	CreatedAt     int64           `json:"created_at"`
	Timestamp     int64           `json:"timestamp"`
}

type OrdersResult struct {
	Next    *string `json:"next"`
	Prev    *string `json:"prev"`
	Results []Order `json:"results"`
}

// OrderRequest is the signed body of POST /orders. Size and Price are
// human-readable decimal strings; the signature is computed over their
// quantized forms and must correspond under the quantum rule.
type OrderRequest struct {
	Market             string `json:"market"`
	Side               string `json:"side"`
	Type               string `json:"type"`
	Size               string `json:"size"`
	Price              string `json:"price,omitempty"`
	Instruction        string `json:"instruction,omitempty"`
	ClientID           string `json:"client_id,omitempty"`
	Signature          string `json:"signature"`
	SignatureTimestamp int64  `json:"signature_timestamp"`
}

type Market struct {
	Symbol             string          `json:"symbol"`
	BaseCurrency       string          `json:"base_currency"`
	QuoteCurrency      string          `json:"quote_currency"`
	SettlementCurrency string          `json:"settlement_currency"`
	OrderSizeIncrement decimal.Decimal `json:"order_size_increment"`
	PriceTickSize      decimal.Decimal `json:"price_tick_size"`
	AssetKind          string          `json:"asset_kind"`
}

type MarketsResult struct {
	Results []Market `json:"results"`
}

// MarketSummary is one row of GET /markets/summary.
type MarketSummary struct {
	Symbol             string          `json:"symbol"`
	MarkPrice          decimal.Decimal `json:"mark_price"`
	LastTradedPrice    decimal.Decimal `json:"last_traded_price"`
	UnderlyingPrice    decimal.Decimal `json:"underlying_price"`
	Bid                decimal.Decimal `json:"bid"`
	Ask                decimal.Decimal `json:"ask"`
	Volume24h          decimal.Decimal `json:"volume_24h"`
	TotalVolume        decimal.Decimal `json:"total_volume"`
	FundingRate        decimal.Decimal `json:"funding_rate"`
	PriceChangeRate24h decimal.Decimal `json:"price_change_rate_24h"`
	OpenInterest       decimal.Decimal `json:"open_interest"`
	CreatedAt          int64           `json:"created_at"`
}

type SummariesResult struct {
	Results []MarketSummary `json:"results"`
}
