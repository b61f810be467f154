package service

import (
	"context"
	"sync"
	"time"

	"github.com/GoParadex/paragate/internal/history"
	"github.com/GoParadex/paragate/internal/market"
	"github.com/GoParadex/paragate/internal/paradex"
	"github.com/GoParadex/paragate/internal/pkg/apperrors"
	"github.com/GoParadex/paragate/internal/pkg/logger"
	"github.com/GoParadex/paragate/internal/pkg/metrics"
	"github.com/GoParadex/paragate/internal/risk"
	"github.com/GoParadex/paragate/internal/session"
)

// AuditSink keeps a durable order audit trail. Optional; nil disables it.
type AuditSink interface {
	Insert(ctx context.Context, entry history.Entry) error
	List(ctx context.Context, limit int) ([]history.Entry, error)
}

// MarketCache serves cached market summaries. Optional; without one,
// analysis always fetches over REST.
type MarketCache interface {
	Get(symbol string) (market.Summary, bool)
	Subscribe(symbols ...string)
}

// Gateway orchestrates the composer, the exchange client and the session
// manager behind the HTTP surface.
type Gateway struct {
	composer *Composer
	client   *paradex.Client
	sessions *session.Manager
	hist     *history.Store
	audit    AuditSink
	markets  MarketCache
}

func NewGateway(composer *Composer, client *paradex.Client, sessions *session.Manager, hist *history.Store, audit AuditSink, markets MarketCache) *Gateway {
	return &Gateway{
		composer: composer,
		client:   client,
		sessions: sessions,
		hist:     hist,
		audit:    audit,
		markets:  markets,
	}
}

// PlaceOrder signs and submits one order.
func (g *Gateway) PlaceOrder(ctx context.Context, det OrderDetails) (*paradex.Order, error) {
	req, err := g.composer.ComposeOrder(det)
	if err != nil {
		return nil, err
	}

	order, err := g.client.PlaceOrder(ctx, req)
	g.record(ctx, req, order, err)
	if err != nil {
		metrics.OrdersTotal.WithLabelValues("failed", req.Side).Inc()
		return nil, err
	}
	metrics.OrdersTotal.WithLabelValues("ok", req.Side).Inc()
	return order, nil
}

type BatchStatus string

const (
	BatchOK     BatchStatus = "OK"
	BatchFailed BatchStatus = "FAILED"
)

type BatchResult struct {
	Index  int            `json:"index"`
	Status BatchStatus    `json:"status"`
	Order  *paradex.Order `json:"order,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// PlaceBatch submits orders concurrently. Each order's outcome is
// reported in its own slot; one failure never aborts its siblings.
func (g *Gateway) PlaceBatch(ctx context.Context, orders []OrderDetails) []BatchResult {
	results := make([]BatchResult, len(orders))
	var wg sync.WaitGroup
	for i, det := range orders {
		wg.Add(1)
		go func(i int, det OrderDetails) {
			defer wg.Done()
			order, err := g.PlaceOrder(ctx, det)
			if err != nil {
				results[i] = BatchResult{Index: i, Status: BatchFailed, Error: err.Error()}
				return
			}
			results[i] = BatchResult{Index: i, Status: BatchOK, Order: order}
		}(i, det)
	}
	wg.Wait()
	return results
}

func (g *Gateway) CancelOrder(ctx context.Context, id string) error {
	return g.client.CancelOrder(ctx, id)
}

func (g *Gateway) Account(ctx context.Context) (*paradex.AccountInfo, error) {
	return g.client.GetAccount(ctx)
}

func (g *Gateway) Positions(ctx context.Context) ([]paradex.Position, error) {
	return g.client.ListPositions(ctx)
}

func (g *Gateway) OpenOrders(ctx context.Context) ([]paradex.Order, error) {
	return g.client.ListOrders(ctx)
}

func (g *Gateway) Markets(ctx context.Context, symbol string) ([]paradex.Market, error) {
	return g.client.ListMarkets(ctx, symbol)
}

func (g *Gateway) History() []history.Entry {
	if g.hist == nil {
		return nil
	}
	return g.hist.List()
}

// AuditTrail reads back the durable audit list, newest first.
func (g *Gateway) AuditTrail(ctx context.Context, limit int) ([]history.Entry, error) {
	if g.audit == nil {
		return nil, apperrors.New(apperrors.ErrNotFound, "audit trail is not configured", nil)
	}
	return g.audit.List(ctx, limit)
}

// Onboard registers the account's stark public key with the exchange.
func (g *Gateway) Onboard(ctx context.Context, ethereumAddress string) error {
	headers, err := g.composer.OnboardingHeaders(ethereumAddress)
	if err != nil {
		return err
	}
	pub, err := g.composer.signer.PublicKey()
	if err != nil {
		return err
	}
	return g.client.Onboard(ctx, headers, pub)
}

// RequestAuthRefresh asks the session manager for an out-of-cycle
// refresh, e.g. after an upstream 401.
func (g *Gateway) RequestAuthRefresh() {
	if g.sessions != nil {
		g.sessions.RequestRefresh()
	}
}

// Analysis combines sizing limits and a directional signal for one market.
type Analysis struct {
	Market       string              `json:"market"`
	AccountValue float64             `json:"account_value"`
	Snapshot     risk.Snapshot       `json:"snapshot"`
	Limits       risk.PositionLimits `json:"limits"`
	Signal       risk.Signal         `json:"signal"`
}

// Analyze computes position limits and a signal for a market. Account
// equity is fetched through the authenticated channel when available;
// without it, limits degrade to the zero-equity case.
func (g *Gateway) Analyze(ctx context.Context, symbol string) (*Analysis, error) {
	snapshot, err := g.snapshotFor(ctx, symbol)
	if err != nil {
		return nil, err
	}

	accountValue := 0.0
	if info, err := g.client.GetAccount(ctx); err == nil {
		accountValue = info.AccountValue.InexactFloat64()
	} else {
		logger.Warn("analysis without account equity", "market", symbol, "error", err)
	}

	return &Analysis{
		Market:       symbol,
		AccountValue: accountValue,
		Snapshot:     snapshot,
		Limits:       risk.ComputeLimits(snapshot, accountValue),
		Signal:       risk.Score(snapshot),
	}, nil
}

// summaryMaxAge bounds how old a cached market summary may be before
// analysis falls back to a fresh REST fetch.
const summaryMaxAge = 10 * time.Second

func (g *Gateway) snapshotFor(ctx context.Context, symbol string) (risk.Snapshot, error) {
	if g.markets != nil {
		g.markets.Subscribe(symbol)
		if sum, ok := g.markets.Get(symbol); ok && time.Since(sum.UpdatedAt) <= summaryMaxAge {
			return sum.Snapshot(), nil
		}
	}

	raw, err := g.client.GetMarketSummary(ctx, symbol)
	if err != nil {
		return risk.Snapshot{}, err
	}
	last := raw.LastTradedPrice.InexactFloat64()
	return risk.Snapshot{
		Symbol:         raw.Symbol,
		MarkPrice:      raw.MarkPrice.InexactFloat64(),
		IndexPrice:     raw.UnderlyingPrice.InexactFloat64(),
		LastPrice:      last,
		PriceChange24h: raw.PriceChangeRate24h.InexactFloat64() * last,
		FundingRate:    raw.FundingRate.InexactFloat64(),
	}, nil
}

func (g *Gateway) record(ctx context.Context, req *paradex.OrderRequest, order *paradex.Order, err error) {
	entry := history.Entry{
		Time:     time.Now(),
		ClientID: req.ClientID,
		Market:   req.Market,
		Side:     req.Side,
		Type:     req.Type,
		Size:     req.Size,
		Price:    req.Price,
		Status:   "SUBMITTED",
	}
	if err != nil {
		entry.Status = "FAILED"
		entry.Error = err.Error()
	} else if order != nil {
		entry.OrderID = order.ID
	}

	if g.hist != nil {
		g.hist.Add(entry)
	}
	if g.audit != nil {
		if auditErr := g.audit.Insert(ctx, entry); auditErr != nil {
			logger.Warn("order audit insert failed", "error", auditErr)
		}
	}
}
