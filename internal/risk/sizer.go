// internal/risk/sizer.go
package risk

import (
	"math"

	"github.com/assist-by/leviathan/internal/domain"
)

// Size는 리스크 예산과 손절 거리로 주문 수량을 계산합니다.
// 계산 순서:
//  1. 단위당 리스크 = |진입가 − 손절가|
//  2. 이론 수량 = 리스크 예산 ÷ 단위당 리스크
//  3. 수량 최소 단위로 내림 (올림은 허용 리스크 초과)
//  4. 최소 주문 수량 미달이면 0 반환 (해당 리스크 수준에서 거래 불가)
func Size(entry, stopLoss, riskUSD float64, spec *domain.InstrumentSpec) (float64, error) {
	riskPerUnit := math.Abs(entry - stopLoss)
	if riskPerUnit == 0 {
		return 0, ErrZeroRiskDistance
	}
	if riskUSD <= 0 {
		return 0, nil
	}

	rawQuantity := riskUSD / riskPerUnit
	quantity := domain.FloorToStep(rawQuantity, spec.QtyStep)

	if quantity < spec.MinQty {
		return 0, nil
	}
	return quantity, nil
}
