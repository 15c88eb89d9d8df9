package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// RiskBudget은 거래당 허용 리스크를 정의합니다
type RiskBudget struct {
	AccountEquity   float64 // 계정 총 자산 (USD)
	RiskPerTradePct float64 // 거래당 리스크 비율 (0.5 = 0.5%)
}

// RiskUSD는 거래당 허용 리스크 금액을 반환합니다
func (r RiskBudget) RiskUSD() float64 {
	return r.AccountEquity * r.RiskPerTradePct / 100
}

// SizedOrderPlan은 검증과 사이징을 마친 실행 계획을 표현합니다.
// 실행 시도마다 새로 생성되며 생성 이후 변경되지 않습니다.
type SizedOrderPlan struct {
	Symbol        string  `json:"symbol"`
	Side          Side    `json:"side"`
	EntryPrice    float64 `json:"entryPrice"`
	StopLoss      float64 `json:"stopLoss"`
	TakeProfit    float64 `json:"takeProfit"`
	Quantity      float64 `json:"quantity"`
	NotionalUSD   float64 `json:"notionalUSD"`
	ATRPercent    float64 `json:"atrPercent"`
	ClientOrderID string  `json:"clientOrderId"`
}

// NewClientOrderID는 계획 필드와 타임스탬프로 결정적인 주문 ID를 생성합니다.
// 동일 프로세스 내 재시도를 감사 로그에서 구분하기 위한 것으로, 거래소 측
// 중복 제거는 거래소가 orderLinkId를 dedup한다는 외부 계약에 의존합니다.
func NewClientOrderID(symbol string, side Side, entry, stopLoss, takeProfit, qty float64, ts time.Time) string {
	payload := fmt.Sprintf("%s|%s|%.8f|%.8f|%.8f|%.8f|%d",
		symbol, side, entry, stopLoss, takeProfit, qty, ts.UnixMilli())
	sum := sha256.Sum256([]byte(payload))
	return "lv-" + hex.EncodeToString(sum[:])[:24]
}
