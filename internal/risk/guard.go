// internal/risk/guard.go
package risk

import (
	"sync"
	"time"

	"github.com/assist-by/leviathan/internal/domain"
)

// 가드 거부 사유 문자열. 저널과 알림에 그대로 기록됩니다.
const (
	ReasonKillSwitch     = "Kill switch active"
	ReasonNeutral        = "Neutral signal"
	ReasonLowConfidence  = "Low confidence"
	ReasonNotionalCap    = "Notional cap exceeded"
	ReasonDailyCap       = "Daily trade cap reached"
	ReasonCooldown       = "Cooldown active"
	ReasonMaxPositions   = "Max open positions reached"
	ReasonConflict       = "Conflict with existing position"
	ReasonHighVolatility = "Volatility too high"
)

// GuardConfig는 실행 가드의 한도를 정의합니다
type GuardConfig struct {
	MinConfidence    float64       // 최소 신뢰도 (기본 0.65)
	MaxNotionalUSD   float64       // 주문 명목 가치 상한
	MaxDailyTrades   int           // 하루 최대 거래 횟수 (UTC 기준)
	Cooldown         time.Duration // 심볼별 재진입 대기 시간
	MaxOpenPositions int           // 심볼별 동일 방향 최대 포지션 수
	MaxATRPercent    float64       // 변동성 서킷 브레이커 (ATR/가격 ×100)
}

// GuardInput은 가드 평가에 필요한 입력을 정의합니다
type GuardInput struct {
	Symbol      string
	Side        domain.Side
	Confidence  float64
	NotionalUSD float64
	ATRPercent  float64
	Positions   []domain.Position // 해당 심볼의 현재 포지션 스냅샷
}

// Guard는 제안 실행 전 마지막 관문입니다.
// 일일 카운터와 쿨다운 맵은 이 구조체가 단독으로 소유하며 뮤텍스로 보호됩니다.
type Guard struct {
	cfg GuardConfig

	mu         sync.Mutex
	killSwitch bool
	dailyCount int
	resetDay   time.Time // 마지막 일일 리셋의 UTC 날짜
	lastTrade  map[string]time.Time

	now func() time.Time // 테스트에서 시계를 주입하기 위한 훅
}

// NewGuard는 새로운 실행 가드를 생성합니다
func NewGuard(cfg GuardConfig) *Guard {
	return &Guard{
		cfg:       cfg,
		lastTrade: make(map[string]time.Time),
		now:       time.Now,
	}
}

// SetKillSwitch는 킬 스위치 상태를 변경합니다
func (g *Guard) SetKillSwitch(on bool) {
	g.mu.Lock()
	g.killSwitch = on
	g.mu.Unlock()
}

// Evaluate는 고정된 순서로 검사를 수행하고 첫 실패에서 중단합니다.
// 검사 순서가 고정이므로 동일한 상태와 입력에 대해 항상 같은 사유를
// 반환합니다. 상태 변경은 수락 후 MarkExecuted에서만 일어납니다.
func (g *Guard) Evaluate(in GuardInput) (ok bool, reason string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now().UTC()
	g.rollDailyWindow(now)

	// 1. 킬 스위치
	if g.killSwitch {
		return false, ReasonKillSwitch
	}

	// 2. 중립 제안은 실행 대상이 아님
	if in.Side == domain.SideNeutral {
		return false, ReasonNeutral
	}

	// 3. 신뢰도
	if in.Confidence < g.cfg.MinConfidence {
		return false, ReasonLowConfidence
	}

	// 4. 명목 가치 상한
	if g.cfg.MaxNotionalUSD > 0 && in.NotionalUSD > g.cfg.MaxNotionalUSD {
		return false, ReasonNotionalCap
	}

	// 5. 일일 거래 횟수
	if g.dailyCount >= g.cfg.MaxDailyTrades {
		return false, ReasonDailyCap
	}

	// 6. 심볼별 쿨다운
	if last, exists := g.lastTrade[in.Symbol]; exists {
		if g.now().Sub(last) < g.cfg.Cooldown {
			return false, ReasonCooldown
		}
	}

	// 7. 동일 방향 포지션 수 / 8. 반대 방향 포지션 충돌
	target := in.Side.Position()
	sameSide, oppositeSide := 0, 0
	for _, pos := range in.Positions {
		if pos.Symbol != in.Symbol || pos.Size == 0 {
			continue
		}
		if pos.Side == target {
			sameSide++
		} else {
			oppositeSide++
		}
	}
	if sameSide >= g.cfg.MaxOpenPositions {
		return false, ReasonMaxPositions
	}
	if oppositeSide > 0 {
		return false, ReasonConflict
	}

	// 9. 변동성 서킷 브레이커
	if g.cfg.MaxATRPercent > 0 && in.ATRPercent > g.cfg.MaxATRPercent {
		return false, ReasonHighVolatility
	}

	return true, ""
}

// MarkExecuted는 수락된 제안의 실행을 기록합니다.
// 모든 검사를 통과한 제안에 대해서만, 제안당 한 번만 호출해야 합니다.
// 거부된 제안에서 호출하면 잘못된 쿨다운이 시작됩니다.
func (g *Guard) MarkExecuted(symbol string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.rollDailyWindow(g.now().UTC())
	g.dailyCount++
	g.lastTrade[symbol] = g.now()
}

// rollDailyWindow는 UTC 날짜가 바뀌었으면 일일 카운터를 리셋합니다.
// 호출자는 g.mu를 잡고 있어야 합니다.
func (g *Guard) rollDailyWindow(now time.Time) {
	day := now.Truncate(24 * time.Hour)
	if !day.Equal(g.resetDay) {
		g.resetDay = day
		g.dailyCount = 0
	}
}

// DailyCount는 현재 일일 거래 횟수를 반환합니다 (관측용)
func (g *Guard) DailyCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.dailyCount
}
