// internal/risk/volatility.go
package risk

import (
	"math"

	"github.com/assist-by/leviathan/internal/domain"
)

// 변동성 정보가 없을 때 적용하는 고정 거리 비율 (1%)
const fallbackDistancePct = 0.01

// StopConfig는 ATR 기반 손절/익절 파생 설정을 정의합니다
type StopConfig struct {
	SLMultiplier float64 // 손절 거리 = ATR × SLMultiplier (기본 1.5)
	TPMultiplier float64 // 익절 거리 = ATR × TPMultiplier (기본 2.5)
}

// DefaultStopConfig는 기본 배수를 반환합니다
func DefaultStopConfig() StopConfig {
	return StopConfig{SLMultiplier: 1.5, TPMultiplier: 2.5}
}

// DeriveStops는 제안에 빠진 손절/익절 가격을 ATR로 파생합니다.
// 제안에 명시된 값이 있으면 그대로 사용하고, ATR을 쓸 수 없으면 현재가의
// 1% 거리로 대체합니다. 이는 안전한 축소 동작이며 실패가 아닙니다.
func DeriveStops(side domain.Side, lastPrice, atr, providedSL float64, providedTP []float64, cfg StopConfig) (stopLoss, takeProfit float64, err error) {
	slDistance := cfg.SLMultiplier * atr
	tpDistance := cfg.TPMultiplier * atr
	if atr <= 0 || math.IsNaN(atr) {
		slDistance = lastPrice * fallbackDistancePct
		tpDistance = lastPrice * fallbackDistancePct
	}

	stopLoss = providedSL
	if stopLoss <= 0 {
		if side == domain.SideBuy {
			stopLoss = lastPrice - slDistance
		} else {
			stopLoss = lastPrice + slDistance
		}
	}

	if len(providedTP) > 0 {
		takeProfit = providedTP[0]
	} else {
		if side == domain.SideBuy {
			takeProfit = lastPrice + tpDistance
		} else {
			takeProfit = lastPrice - tpDistance
		}
	}

	// 손절가가 진입 방향의 반대편에 있으면 실행할 수 없는 제안입니다
	if side == domain.SideBuy && stopLoss >= lastPrice {
		return 0, 0, ErrInvalidStopGeometry
	}
	if side == domain.SideSell && stopLoss <= lastPrice {
		return 0, 0, ErrInvalidStopGeometry
	}

	return stopLoss, takeProfit, nil
}
