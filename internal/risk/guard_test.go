package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/assist-by/leviathan/internal/domain"
)

func newTestGuard(cfg GuardConfig) *Guard {
	g := NewGuard(cfg)
	g.now = func() time.Time {
		return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	}
	return g
}

func defaultGuardConfig() GuardConfig {
	return GuardConfig{
		MinConfidence:    0.65,
		MaxNotionalUSD:   10000,
		MaxDailyTrades:   10,
		Cooldown:         10 * time.Minute,
		MaxOpenPositions: 1,
		MaxATRPercent:    5,
	}
}

func acceptableInput() GuardInput {
	return GuardInput{
		Symbol:      "BTCUSDT",
		Side:        domain.SideBuy,
		Confidence:  0.8,
		NotionalUSD: 5000,
		ATRPercent:  2.0,
	}
}

func TestGuardEvaluate(t *testing.T) {
	longPos := domain.Position{Symbol: "BTCUSDT", Side: domain.LongPosition, Size: 0.5}
	shortPos := domain.Position{Symbol: "BTCUSDT", Side: domain.ShortPosition, Size: 0.5}

	testCases := []struct {
		name       string
		modify     func(*GuardInput)
		setup      func(*Guard)
		wantOK     bool
		wantReason string
	}{
		{
			name:   "모든 검사 통과",
			wantOK: true,
		},
		{
			name:       "킬 스위치가 켜져 있으면 즉시 거부",
			setup:      func(g *Guard) { g.SetKillSwitch(true) },
			wantOK:     false,
			wantReason: ReasonKillSwitch,
		},
		{
			name:       "중립 제안 거부",
			modify:     func(in *GuardInput) { in.Side = domain.SideNeutral },
			wantOK:     false,
			wantReason: ReasonNeutral,
		},
		{
			name:       "신뢰도 미달 거부",
			modify:     func(in *GuardInput) { in.Confidence = 0.5 },
			wantOK:     false,
			wantReason: ReasonLowConfidence,
		},
		{
			name:       "명목 가치 상한 초과 거부",
			modify:     func(in *GuardInput) { in.NotionalUSD = 15000 },
			wantOK:     false,
			wantReason: ReasonNotionalCap,
		},
		{
			name: "일일 거래 한도 도달 거부",
			setup: func(g *Guard) {
				for i := 0; i < 10; i++ {
					g.MarkExecuted("ETHUSDT")
				}
			},
			modify:     func(in *GuardInput) { in.Symbol = "BTCUSDT" },
			wantOK:     false,
			wantReason: ReasonDailyCap,
		},
		{
			name:       "쿨다운 중 거부",
			setup:      func(g *Guard) { g.MarkExecuted("BTCUSDT") },
			wantOK:     false,
			wantReason: ReasonCooldown,
		},
		{
			name:       "동일 방향 포지션이 이미 있으면 거부",
			modify:     func(in *GuardInput) { in.Positions = []domain.Position{longPos} },
			wantOK:     false,
			wantReason: ReasonMaxPositions,
		},
		{
			name:       "반대 방향 포지션과 충돌하면 거부",
			modify:     func(in *GuardInput) { in.Positions = []domain.Position{shortPos} },
			wantOK:     false,
			wantReason: ReasonConflict,
		},
		{
			name:       "변동성 서킷 브레이커 발동",
			modify:     func(in *GuardInput) { in.ATRPercent = 7.5 },
			wantOK:     false,
			wantReason: ReasonHighVolatility,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g := newTestGuard(defaultGuardConfig())
			if tc.setup != nil {
				tc.setup(g)
			}

			in := acceptableInput()
			if tc.modify != nil {
				tc.modify(&in)
			}

			ok, reason := g.Evaluate(in)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.wantReason, reason)
		})
	}
}

// 여러 검사가 동시에 실패하면 항상 순서상 앞선 사유가 반환되어야 합니다
func TestGuardEvaluateReportsFirstFailure(t *testing.T) {
	g := newTestGuard(defaultGuardConfig())

	in := acceptableInput()
	in.Confidence = 0.1  // 검사 3 위반
	in.ATRPercent = 50.0 // 검사 9 위반

	ok, reason := g.Evaluate(in)
	assert.False(t, ok)
	assert.Equal(t, ReasonLowConfidence, reason, "앞선 검사의 사유가 반환되어야 합니다")

	// 같은 입력으로 다시 평가해도 같은 사유 (결정성)
	ok2, reason2 := g.Evaluate(in)
	assert.Equal(t, ok, ok2)
	assert.Equal(t, reason, reason2)
}

// 반대 방향 포지션이 있을 때는 동일 방향 포지션 수가 아니라 충돌 사유가 나와야 합니다
func TestGuardOppositePositionYieldsConflict(t *testing.T) {
	g := newTestGuard(defaultGuardConfig())

	in := acceptableInput()
	in.Side = domain.SideSell
	in.Positions = []domain.Position{
		{Symbol: "BTCUSDT", Side: domain.LongPosition, Size: 1.0},
	}

	ok, reason := g.Evaluate(in)
	assert.False(t, ok)
	assert.Equal(t, ReasonConflict, reason)
}

// 거부된 평가는 카운터와 쿨다운을 변경하지 않아야 합니다
func TestGuardRejectionDoesNotMutateState(t *testing.T) {
	g := newTestGuard(defaultGuardConfig())

	in := acceptableInput()
	in.Confidence = 0.1

	for i := 0; i < 5; i++ {
		ok, _ := g.Evaluate(in)
		assert.False(t, ok)
	}
	assert.Equal(t, 0, g.DailyCount(), "거부는 일일 카운터를 올리면 안 됩니다")

	// 거부 후에도 정상 입력은 쿨다운 없이 통과
	ok, reason := g.Evaluate(acceptableInput())
	assert.True(t, ok)
	assert.Empty(t, reason)
}

// UTC 자정이 지나면 일일 카운터가 리셋되어야 합니다
func TestGuardDailyWindowResetsAtUTCMidnight(t *testing.T) {
	cfg := defaultGuardConfig()
	cfg.MaxDailyTrades = 2
	cfg.Cooldown = 0

	current := time.Date(2026, 3, 10, 23, 50, 0, 0, time.UTC)
	g := NewGuard(cfg)
	g.now = func() time.Time { return current }

	g.MarkExecuted("BTCUSDT")
	g.MarkExecuted("BTCUSDT")

	ok, reason := g.Evaluate(acceptableInput())
	assert.False(t, ok)
	assert.Equal(t, ReasonDailyCap, reason)

	// 자정 경과
	current = time.Date(2026, 3, 11, 0, 10, 0, 0, time.UTC)

	ok, reason = g.Evaluate(acceptableInput())
	assert.True(t, ok, "UTC 날짜가 바뀌면 카운터가 리셋되어야 합니다")
	assert.Empty(t, reason)
	assert.Equal(t, 0, g.DailyCount())
}

// 쿨다운은 심볼별로 독립적이어야 합니다
func TestGuardCooldownIsPerSymbol(t *testing.T) {
	cfg := defaultGuardConfig()
	cfg.MaxDailyTrades = 100
	g := newTestGuard(cfg)

	g.MarkExecuted("BTCUSDT")

	btc := acceptableInput()
	ok, reason := g.Evaluate(btc)
	assert.False(t, ok)
	assert.Equal(t, ReasonCooldown, reason)

	eth := acceptableInput()
	eth.Symbol = "ETHUSDT"
	ok, reason = g.Evaluate(eth)
	assert.True(t, ok, "다른 심볼은 쿨다운 영향을 받지 않아야 합니다")
	assert.Empty(t, reason)
}
