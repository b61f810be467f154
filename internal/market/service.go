// Package market maintains a live cache of per-market telemetry used by
// the risk engine. Summaries arrive over the public websocket stream
// when available, with REST polling as both bootstrap and fallback.
package market

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/GoParadex/paragate/internal/config"
	"github.com/GoParadex/paragate/internal/paradex"
	"github.com/GoParadex/paragate/internal/pkg/logger"
	"github.com/GoParadex/paragate/internal/risk"
)

const (
	reconnBaseDelay = 1 * time.Second
	reconnMaxDelay  = 30 * time.Second
)

// Summary is the cached, float-normalized view of a market.
type Summary struct {
	Symbol         string
	MarkPrice      float64
	IndexPrice     float64
	LastPrice      float64
	FundingRate    float64
	PriceChange24h float64
	Volume24h      float64
	VolumeTrend    float64
	UpdatedAt      time.Time
}

// Snapshot converts a cached summary into the risk engine's input.
func (s Summary) Snapshot() risk.Snapshot {
	return risk.Snapshot{
		Symbol:         s.Symbol,
		MarkPrice:      s.MarkPrice,
		IndexPrice:     s.IndexPrice,
		LastPrice:      s.LastPrice,
		PriceChange24h: s.PriceChange24h,
		FundingRate:    s.FundingRate,
		VolumeTrend:    s.VolumeTrend,
	}
}

type Service struct {
	client   *paradex.Client
	wsURL    string
	symbols  []string
	interval time.Duration
	stream   bool

	mu        sync.RWMutex
	summaries map[string]Summary

	ctx    context.Context
	cancel context.CancelFunc
}

func NewService(client *paradex.Client, cfg config.MarketConfig, wsURL string) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	interval := time.Duration(cfg.PollIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Service{
		client:    client,
		wsURL:     wsURL,
		symbols:   append([]string(nil), cfg.Symbols...),
		interval:  interval,
		stream:    cfg.StreamEnabled,
		summaries: make(map[string]Summary),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start launches the poll loop (and the stream loop when enabled) in
// background goroutines.
func (s *Service) Start() {
	go s.pollLoop()
	if s.stream && s.wsURL != "" {
		go s.streamLoop()
	}
}

func (s *Service) Stop() {
	s.cancel()
}

// Get returns the cached summary for a symbol.
func (s *Service) Get(symbol string) (Summary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sum, ok := s.summaries[symbol]
	return sum, ok
}

// Subscribe adds symbols to the polled set.
func (s *Service) Subscribe(symbols ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sym := range symbols {
		found := false
		for _, existing := range s.symbols {
			if existing == sym {
				found = true
				break
			}
		}
		if !found {
			s.symbols = append(s.symbols, sym)
		}
	}
}

func (s *Service) pollLoop() {
	s.pollOnce()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.pollOnce()
		}
	}
}

func (s *Service) pollOnce() {
	s.mu.RLock()
	symbols := append([]string(nil), s.symbols...)
	s.mu.RUnlock()

	for _, sym := range symbols {
		sum, err := s.client.GetMarketSummary(s.ctx, sym)
		if err != nil {
			logger.Warn("market summary poll failed", "market", sym, "error", err)
			continue
		}
		s.update(*sum)
	}
}

func (s *Service) update(raw paradex.MarketSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := Summary{
		Symbol:         raw.Symbol,
		MarkPrice:      raw.MarkPrice.InexactFloat64(),
		IndexPrice:     raw.UnderlyingPrice.InexactFloat64(),
		LastPrice:      raw.LastTradedPrice.InexactFloat64(),
		FundingRate:    raw.FundingRate.InexactFloat64(),
		PriceChange24h: raw.PriceChangeRate24h.InexactFloat64() * raw.LastTradedPrice.InexactFloat64(),
		Volume24h:      raw.Volume24h.InexactFloat64(),
		UpdatedAt:      time.Now(),
	}
	if prev, ok := s.summaries[raw.Symbol]; ok && prev.Volume24h > 0 {
		next.VolumeTrend = (next.Volume24h - prev.Volume24h) / prev.Volume24h
	}
	s.summaries[raw.Symbol] = next
}

// subscribeMsg is the stream subscription request for the summary channel.
type subscribeMsg struct {
	JSONRPC string         `json:"jsonrpc"`
	Method  string         `json:"method"`
	Params  map[string]any `json:"params"`
	ID      int            `json:"id"`
}

type streamMsg struct {
	Params struct {
		Channel string                `json:"channel"`
		Data    paradex.MarketSummary `json:"data"`
	} `json:"params"`
}

func (s *Service) streamLoop() {
	delay := reconnBaseDelay
	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		connected, err := s.streamOnce()
		if connected {
			// a working connection resets the backoff
			delay = reconnBaseDelay
		}
		if err != nil {
			logger.Warn("summary stream disconnected", "error", err, "retry_in", delay.String())
		}

		select {
		case <-s.ctx.Done():
			return
		case <-time.After(delay):
		}
		delay *= 2
		if delay > reconnMaxDelay {
			delay = reconnMaxDelay
		}
	}
}

// streamOnce runs one websocket connection until it fails or the service
// stops. The bool reports whether the subscription was established.
func (s *Service) streamOnce() (bool, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(s.ctx, s.wsURL, nil)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	// the watcher is tied to this connection's lifetime, not the service's
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-s.ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	sub := subscribeMsg{
		JSONRPC: "2.0",
		Method:  "subscribe",
		Params:  map[string]any{"channel": "markets_summary"},
		ID:      1,
	}
	if err := conn.WriteJSON(sub); err != nil {
		return false, err
	}
	logger.Info("summary stream connected", "url", s.wsURL)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return true, err
		}
		var msg streamMsg
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		if msg.Params.Channel != "markets_summary" || msg.Params.Data.Symbol == "" {
			continue
		}
		s.update(msg.Params.Data)
	}
}
