package domain

// Side는 모델이 제안한 매매 방향을 정의합니다
type Side string

const (
	SideBuy     Side = "buy"
	SideSell    Side = "sell"
	SideNeutral Side = "neutral"
)

// IsValid는 알려진 방향인지 확인합니다
func (s Side) IsValid() bool {
	switch s {
	case SideBuy, SideSell, SideNeutral:
		return true
	default:
		return false
	}
}

// Position은 방향에 해당하는 포지션 사이드를 반환합니다 (neutral은 빈 값)
func (s Side) Position() PositionSide {
	switch s {
	case SideBuy:
		return LongPosition
	case SideSell:
		return ShortPosition
	default:
		return ""
	}
}

// PositionSide는 거래소 포지션 방향을 정의합니다 (바이비트 표기)
type PositionSide string

const (
	LongPosition  PositionSide = "Buy"
	ShortPosition PositionSide = "Sell"
)

// Opposite는 반대 방향의 포지션 사이드를 반환합니다
func (p PositionSide) Opposite() PositionSide {
	if p == LongPosition {
		return ShortPosition
	}
	return LongPosition
}

// OrderSide는 주문 방향을 정의합니다
type OrderSide string

const (
	Buy  OrderSide = "Buy"
	Sell OrderSide = "Sell"
)

// OrderType은 주문 유형을 정의합니다
type OrderType string

const (
	Market OrderType = "Market"
	Limit  OrderType = "Limit"
)

// 주문 유효 기간
const (
	GTC = "GTC" // 취소 전까지 유효
	IOC = "IOC" // 즉시 체결 또는 취소
)

// TradeMode는 실행 모드를 정의합니다
type TradeMode string

const (
	PaperMode TradeMode = "paper"
	LiveMode  TradeMode = "live"
)

// DecisionKind는 제안 처리의 최종 상태를 정의합니다
type DecisionKind string

const (
	DecisionBlocked DecisionKind = "blocked"
	DecisionPaper   DecisionKind = "paper"
	DecisionLive    DecisionKind = "live"
	DecisionFailed  DecisionKind = "failed"
)

// Horizon은 제안된 보유 기간을 정의합니다
type Horizon string

const (
	HorizonScalp    Horizon = "scalp"
	HorizonIntraday Horizon = "intraday"
	HorizonSwing    Horizon = "swing"
)

// EntryType은 진입 방식을 정의합니다
type EntryType string

const (
	EntryMarket EntryType = "market"
	EntryLimit  EntryType = "limit"
)
