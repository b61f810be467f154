package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoParadex/paragate/internal/config"
	"github.com/GoParadex/paragate/internal/history"
	"github.com/GoParadex/paragate/internal/market"
	"github.com/GoParadex/paragate/internal/paradex"
	"github.com/GoParadex/paragate/internal/pkg/apperrors"
)

func newTestGateway(t *testing.T, handler http.Handler) (*Gateway, *countingSigner, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := paradex.NewClient(config.ParadexConfig{
		BaseURL:   srv.URL,
		RateLimit: 1000,
		TimeoutMs: 2000,
	}, func() string { return "jwt-test" })

	fake := &countingSigner{}
	composer := fixedComposer(fake, time.UnixMilli(1716200000123))
	gw := NewGateway(composer, client, nil, history.NewStore(100), nil, nil)
	return gw, fake, srv
}

func orderEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req paradex.OrderRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(paradex.Order{
			ID:       "srv-" + req.ClientID,
			ClientID: req.ClientID,
			Market:   req.Market,
			Side:     req.Side,
			Status:   paradex.OrderStatusNew,
		})
	})
}

func TestPlaceOrder_RecordsHistory(t *testing.T) {
	gw, _, _ := newTestGateway(t, orderEcho())

	order, err := gw.PlaceOrder(context.Background(), OrderDetails{
		Market: "ETH-USD-PERP", Side: "BUY", Type: "MARKET", Size: "0.5",
	})
	require.NoError(t, err)
	assert.Equal(t, "ETH-USD-PERP", order.Market)

	entries := gw.History()
	require.Len(t, entries, 1)
	assert.Equal(t, "SUBMITTED", entries[0].Status)
	assert.Equal(t, order.ID, entries[0].OrderID)
}

func TestPlaceBatch_IsolatesFailures(t *testing.T) {
	gw, fake, _ := newTestGateway(t, orderEcho())

	orders := []OrderDetails{
		{Market: "ETH-USD-PERP", Side: "BUY", Type: "LIMIT", Size: "1", Price: "3100"},
		{Market: "ETH-USD-PERP", Side: "BUY", Type: "LIMIT", Size: "1", Price: "-5"},
		{Market: "BTC-USD-PERP", Side: "SELL", Type: "MARKET", Size: "0.01"},
	}

	results := gw.PlaceBatch(context.Background(), orders)
	require.Len(t, results, 3)

	assert.Equal(t, BatchOK, results[0].Status)
	require.NotNil(t, results[0].Order)

	assert.Equal(t, BatchFailed, results[1].Status)
	assert.Nil(t, results[1].Order)
	assert.NotEmpty(t, results[1].Error)

	assert.Equal(t, BatchOK, results[2].Status)
	require.NotNil(t, results[2].Order)

	// the invalid order never reached the signer
	assert.Equal(t, 2, fake.orderCalls)
}

func TestPlaceOrder_RemoteFailureRecorded(t *testing.T) {
	gw, _, _ := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(paradex.APIError{Code: "INSUFFICIENT_MARGIN", Message: "not enough collateral"})
	}))

	_, err := gw.PlaceOrder(context.Background(), OrderDetails{
		Market: "ETH-USD-PERP", Side: "BUY", Type: "MARKET", Size: "100",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INSUFFICIENT_MARGIN")

	entries := gw.History()
	require.Len(t, entries, 1)
	assert.Equal(t, "FAILED", entries[0].Status)
	assert.NotEmpty(t, entries[0].Error)
}

func TestAnalyze_UsesSummaryAndEquity(t *testing.T) {
	gw, _, _ := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/markets/summary":
			_, _ = w.Write([]byte(`{"results":[{"symbol":"ETH-USD-PERP","mark_price":"1010","underlying_price":"1000","last_traded_price":"1005","funding_rate":"0.0001","price_change_rate_24h":"0.03"}]}`))
		case "/account":
			_, _ = w.Write([]byte(`{"account":"0xacc","account_value":"10000","status":"ACTIVE"}`))
		default:
			http.NotFound(w, r)
		}
	}))

	analysis, err := gw.Analyze(context.Background(), "ETH-USD-PERP")
	require.NoError(t, err)

	assert.Equal(t, 10000.0, analysis.AccountValue)
	assert.InDelta(t, 0.01, analysis.Limits.Volatility, 1e-9)
	assert.Equal(t, "LOW", string(analysis.Limits.Band.Level))
	assert.InDelta(t, 19.0, analysis.Limits.MaxLeverage, 1e-9)
}

func TestAnalyze_DegradesWithoutEquity(t *testing.T) {
	var accountCalls atomic.Int32
	gw, _, _ := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/markets/summary":
			_, _ = w.Write([]byte(`{"results":[{"symbol":"ETH-USD-PERP","mark_price":"1010","underlying_price":"1000","last_traded_price":"1005"}]}`))
		case "/account":
			accountCalls.Add(1)
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(paradex.APIError{Code: "UNAUTHORIZED", Message: "token expired"})
		default:
			http.NotFound(w, r)
		}
	}))

	analysis, err := gw.Analyze(context.Background(), "ETH-USD-PERP")
	require.NoError(t, err)
	assert.Equal(t, int32(1), accountCalls.Load())
	assert.Equal(t, 0.0, analysis.AccountValue)
	assert.Equal(t, 0.0, analysis.Limits.MaxPositionValue)
}

// memAudit is an AuditSink backed by a plain slice.
type memAudit struct {
	entries []history.Entry
}

func (a *memAudit) Insert(ctx context.Context, entry history.Entry) error {
	a.entries = append([]history.Entry{entry}, a.entries...)
	return nil
}

func (a *memAudit) List(ctx context.Context, limit int) ([]history.Entry, error) {
	if limit > len(a.entries) {
		limit = len(a.entries)
	}
	return a.entries[:limit], nil
}

func TestAuditTrail_RecordsAndReadsBack(t *testing.T) {
	srv := httptest.NewServer(orderEcho())
	t.Cleanup(srv.Close)

	client := paradex.NewClient(config.ParadexConfig{
		BaseURL:   srv.URL,
		RateLimit: 1000,
		TimeoutMs: 2000,
	}, func() string { return "jwt-test" })

	audit := &memAudit{}
	composer := fixedComposer(&countingSigner{}, time.UnixMilli(1716200000123))
	gw := NewGateway(composer, client, nil, history.NewStore(100), audit, nil)

	_, err := gw.PlaceOrder(context.Background(), OrderDetails{
		Market: "ETH-USD-PERP", Side: "BUY", Type: "MARKET", Size: "0.5",
	})
	require.NoError(t, err)

	entries, err := gw.AuditTrail(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "ETH-USD-PERP", entries[0].Market)
	assert.Equal(t, "SUBMITTED", entries[0].Status)
}

func TestAuditTrail_NotConfigured(t *testing.T) {
	gw, _, _ := newTestGateway(t, orderEcho())

	_, err := gw.AuditTrail(context.Background(), 10)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrNotFound))
}

// staticCache is a MarketCache with fixed contents.
type staticCache struct {
	summaries map[string]market.Summary
}

func (c *staticCache) Get(symbol string) (market.Summary, bool) {
	sum, ok := c.summaries[symbol]
	return sum, ok
}

func (c *staticCache) Subscribe(symbols ...string) {}

func analyzeUpstream(summaryHits *atomic.Int32) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/markets/summary":
			summaryHits.Add(1)
			_, _ = w.Write([]byte(`{"results":[{"symbol":"ETH-USD-PERP","mark_price":"1030","underlying_price":"1000","last_traded_price":"1005"}]}`))
		case "/account":
			_, _ = w.Write([]byte(`{"account":"0xacc","account_value":"10000","status":"ACTIVE"}`))
		default:
			http.NotFound(w, r)
		}
	})
}

func newAnalyzeGateway(t *testing.T, cache MarketCache, upstream http.Handler) *Gateway {
	t.Helper()
	srv := httptest.NewServer(upstream)
	t.Cleanup(srv.Close)

	client := paradex.NewClient(config.ParadexConfig{
		BaseURL:   srv.URL,
		RateLimit: 1000,
		TimeoutMs: 2000,
	}, func() string { return "jwt-test" })

	composer := fixedComposer(&countingSigner{}, time.UnixMilli(1716200000123))
	return NewGateway(composer, client, nil, history.NewStore(10), nil, cache)
}

func TestAnalyze_FreshCacheSkipsRest(t *testing.T) {
	var summaryHits atomic.Int32
	cache := &staticCache{summaries: map[string]market.Summary{
		"ETH-USD-PERP": {
			Symbol:     "ETH-USD-PERP",
			MarkPrice:  1010,
			IndexPrice: 1000,
			LastPrice:  1005,
			UpdatedAt:  time.Now(),
		},
	}}
	gw := newAnalyzeGateway(t, cache, analyzeUpstream(&summaryHits))

	analysis, err := gw.Analyze(context.Background(), "ETH-USD-PERP")
	require.NoError(t, err)

	// cached volatility 1%, not the REST payload's 3%
	assert.InDelta(t, 0.01, analysis.Limits.Volatility, 1e-9)
	assert.Equal(t, int32(0), summaryHits.Load())
}

func TestAnalyze_StaleCacheFallsBackToRest(t *testing.T) {
	var summaryHits atomic.Int32
	cache := &staticCache{summaries: map[string]market.Summary{
		"ETH-USD-PERP": {
			Symbol:     "ETH-USD-PERP",
			MarkPrice:  1010,
			IndexPrice: 1000,
			LastPrice:  1005,
			UpdatedAt:  time.Now().Add(-time.Minute),
		},
	}}
	gw := newAnalyzeGateway(t, cache, analyzeUpstream(&summaryHits))

	analysis, err := gw.Analyze(context.Background(), "ETH-USD-PERP")
	require.NoError(t, err)

	// stale entry bypassed: the REST payload's 3% volatility wins
	assert.InDelta(t, 0.03, analysis.Limits.Volatility, 1e-9)
	assert.Equal(t, int32(1), summaryHits.Load())
}
