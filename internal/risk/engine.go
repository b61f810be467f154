// Package risk turns market telemetry into position-sizing limits and a
// directional signal. Everything here is a pure function of its inputs;
// callers fetch snapshots and equity through the authenticated channel.
package risk

import "math"

type BandLevel string

const (
	BandLow    BandLevel = "LOW"
	BandMedium BandLevel = "MEDIUM"
	BandHigh   BandLevel = "HIGH"
)

type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// Sizing constants. These are design constants, not fitted parameters.
const (
	maxLeverage        = 20.0
	volLeverageSlope   = 5.0  // leverage decays linearly, hitting 0 at 20% volatility
	recommendedFrac    = 0.25 // recommended size is a quarter of the leverage-implied cap
	lowVolThreshold    = 0.02
	mediumVolThreshold = 0.05

	momentumScale      = 5.0 // confidence = |momentum| * scale, capped below
	maxBaseConfidence  = 0.8
	momentumThreshold  = 0.01
	fundingThreshold   = 0.001
	volumeTrendBonus   = 0.1 // applied when volume trend > 0.1
	volatilityPenalty  = 0.2 // applied when volatility > 0.02
	highBandMultiplier = 0.8
)

// Snapshot is the per-market telemetry the engine consumes.
type Snapshot struct {
	Symbol         string  `json:"symbol"`
	MarkPrice      float64 `json:"mark_price"`
	IndexPrice     float64 `json:"index_price"`
	LastPrice      float64 `json:"last_price"`
	PriceChange24h float64 `json:"price_change_24h"`
	FundingRate    float64 `json:"funding_rate"`
	VolumeTrend    float64 `json:"volume_trend"`
}

// Volatility is the normalized mark/index divergence.
func (s Snapshot) Volatility() float64 {
	if s.IndexPrice == 0 {
		return 0
	}
	return math.Abs(s.MarkPrice-s.IndexPrice) / s.IndexPrice
}

// Momentum is the 24h price change relative to the last traded price.
func (s Snapshot) Momentum() float64 {
	if s.LastPrice == 0 {
		return 0
	}
	return s.PriceChange24h / s.LastPrice
}

type Band struct {
	Level           BandLevel `json:"level"`
	MaxPositionSize float64   `json:"max_position_size"`
	StopLossPercent float64   `json:"stop_loss_percent"`
}

type PositionLimits struct {
	Volatility       float64 `json:"volatility"`
	MaxLeverage      float64 `json:"max_leverage"`
	MaxPositionValue float64 `json:"max_position_value"`
	RecommendedSize  float64 `json:"recommended_size"`
	Band             Band    `json:"risk_band"`
}

type Signal struct {
	Action     Action  `json:"action"`
	Confidence float64 `json:"confidence"`
	Momentum   float64 `json:"momentum"`
}

// ComputeLimits maps a market snapshot and account equity to sizing
// limits. Leverage is clamped at zero for volatility beyond 20% rather
// than going negative.
func ComputeLimits(s Snapshot, accountValue float64) PositionLimits {
	vol := s.Volatility()

	leverage := math.Min(maxLeverage, maxLeverage*(1-vol*volLeverageSlope))
	if leverage < 0 {
		leverage = 0
	}

	maxPositionValue := accountValue * leverage
	band := bandFor(vol, accountValue)

	return PositionLimits{
		Volatility:       vol,
		MaxLeverage:      leverage,
		MaxPositionValue: maxPositionValue,
		RecommendedSize:  math.Min(band.MaxPositionSize, maxPositionValue*recommendedFrac),
		Band:             band,
	}
}

func bandFor(vol, accountValue float64) Band {
	switch {
	case vol < lowVolThreshold:
		return Band{Level: BandLow, MaxPositionSize: accountValue * 0.5, StopLossPercent: 0.02}
	case vol < mediumVolThreshold:
		return Band{Level: BandMedium, MaxPositionSize: accountValue * 0.3, StopLossPercent: 0.05}
	default:
		return Band{Level: BandHigh, MaxPositionSize: accountValue * 0.1, StopLossPercent: 0.10}
	}
}

// Score derives a directional recommendation and a confidence in [0, 1]
// from momentum and funding rate.
func Score(s Snapshot) Signal {
	momentum := s.Momentum()
	vol := s.Volatility()

	action := ActionHold
	switch {
	case momentum > momentumThreshold && s.FundingRate < fundingThreshold:
		action = ActionBuy
	case momentum < -momentumThreshold && s.FundingRate > -fundingThreshold:
		action = ActionSell
	}

	confidence := math.Min(maxBaseConfidence, math.Abs(momentum)*momentumScale)
	if action == ActionHold {
		confidence = 0
	}

	if s.VolumeTrend > 0.1 {
		confidence += volumeTrendBonus
	}
	if vol > lowVolThreshold {
		confidence -= volatilityPenalty
	}
	if bandFor(vol, 1).Level == BandHigh {
		confidence *= highBandMultiplier
	}

	confidence = math.Max(0, math.Min(1, confidence))

	return Signal{Action: action, Confidence: confidence, Momentum: momentum}
}
