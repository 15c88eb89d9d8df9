// internal/market/atr.go
package market

import (
	"math"

	"github.com/assist-by/leviathan/internal/domain"
)

// DefaultATRPeriod는 기본 ATR 기간입니다
const DefaultATRPeriod = 14

// ATR은 와일더 평활 방식의 Average True Range를 계산합니다.
// 캔들이 period+1개 미만이면 NaN을 반환합니다. 호출자는 NaN을
// "변동성 알 수 없음"으로 취급하고 보수적인 대체 경로를 택해야 합니다.
func ATR(candles domain.CandleList, period int) float64 {
	if period <= 0 || len(candles) < period+1 {
		return math.NaN()
	}

	trs := make([]float64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		trs = append(trs, trueRange(candles[i], candles[i-1].Close))
	}

	// 첫 ATR은 단순 평균, 이후는 와일더 평활
	atr := 0.0
	for i := 0; i < period; i++ {
		atr += trs[i]
	}
	atr /= float64(period)

	for i := period; i < len(trs); i++ {
		atr = (atr*float64(period-1) + trs[i]) / float64(period)
	}
	return atr
}

// ATRPercent는 현재가 대비 ATR 비율(%)을 반환합니다
func ATRPercent(atr, lastPrice float64) float64 {
	if math.IsNaN(atr) || lastPrice <= 0 {
		return math.NaN()
	}
	return atr / lastPrice * 100
}

func trueRange(c domain.Candle, prevClose float64) float64 {
	hl := c.High - c.Low
	hc := math.Abs(c.High - prevClose)
	lc := math.Abs(c.Low - prevClose)
	return math.Max(hl, math.Max(hc, lc))
}
