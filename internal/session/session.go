// Package session owns the bearer-token lifecycle. Sessions are
// immutable values replaced wholesale on refresh and published to
// subscribers; nothing mutates a token in place.
package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/GoParadex/paragate/internal/pkg/logger"
	"github.com/GoParadex/paragate/internal/pkg/metrics"
)

// Session is one authenticated window against the exchange.
type Session struct {
	Token     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// RefreshFunc runs the full auth exchange and returns a fresh session.
type RefreshFunc func(ctx context.Context) (*Session, error)

// Manager refreshes the session on a fixed interval and coalesces manual
// refresh requests: triggers inside the settling window collapse into a
// single refresh, so bursts of order placement cannot stampede the auth
// endpoint.
type Manager struct {
	refresh  RefreshFunc
	interval time.Duration
	settle   time.Duration

	current atomic.Pointer[Session]
	trigger chan struct{}

	mu   sync.Mutex
	subs []chan *Session
}

func NewManager(refresh RefreshFunc, interval, settle time.Duration) *Manager {
	if interval <= 0 {
		interval = 3 * time.Minute
	}
	if settle <= 0 {
		settle = 250 * time.Millisecond
	}
	return &Manager{
		refresh:  refresh,
		interval: interval,
		settle:   settle,
		trigger:  make(chan struct{}, 1),
	}
}

// Current returns the latest session, or nil before the first refresh.
func (m *Manager) Current() *Session {
	return m.current.Load()
}

// Token returns the current bearer token, empty when unauthenticated.
func (m *Manager) Token() string {
	if s := m.current.Load(); s != nil {
		return s.Token
	}
	return ""
}

// RequestRefresh asks for an out-of-cycle refresh. Non-blocking; requests
// within one settling window coalesce.
func (m *Manager) RequestRefresh() {
	select {
	case m.trigger <- struct{}{}:
	default:
	}
}

// Subscribe returns a channel receiving every new session. Slow readers
// miss intermediate sessions rather than blocking the refresh loop.
func (m *Manager) Subscribe() <-chan *Session {
	ch := make(chan *Session, 1)
	m.mu.Lock()
	m.subs = append(m.subs, ch)
	m.mu.Unlock()
	return ch
}

// Run refreshes immediately, then on every interval tick or debounced
// trigger, until ctx is cancelled. Refreshes are serialized: at most one
// in flight at any time.
func (m *Manager) Run(ctx context.Context) error {
	m.doRefresh(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.doRefresh(ctx)
		case <-m.trigger:
			// settle: let rapid successive triggers collapse
			timer := time.NewTimer(m.settle)
		settling:
			for {
				select {
				case <-ctx.Done():
					timer.Stop()
					return ctx.Err()
				case <-m.trigger:
					// absorbed into the same window
				case <-timer.C:
					break settling
				}
			}
			m.doRefresh(ctx)
			ticker.Reset(m.interval)
		}
	}
}

func (m *Manager) doRefresh(ctx context.Context) {
	next, err := m.refresh(ctx)
	if err != nil {
		metrics.AuthRefreshes.WithLabelValues("error").Inc()
		logger.LogError(ctx, err, "session refresh failed")
		return
	}
	metrics.AuthRefreshes.WithLabelValues("ok").Inc()
	m.current.Store(next)
	m.publish(next)
	logger.Debug("session refreshed", "expires_at", next.ExpiresAt)
}

func (m *Manager) publish(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.subs {
		select {
		case ch <- s:
		default:
			// drop stale value so the latest session wins
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- s:
			default:
			}
		}
	}
}
