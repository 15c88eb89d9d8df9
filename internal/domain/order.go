package domain

// OrderRequest는 주문 요청 정보를 표현합니다
type OrderRequest struct {
	Symbol        string    // 심볼 (예: BTCUSDT)
	Side          OrderSide // 매수/매도
	Type          OrderType // 주문 유형 (시장가, 지정가)
	Quantity      float64   // 수량
	Price         float64   // 지정가 (Limit 주문 시)
	TimeInForce   string    // 주문 유효 기간 (GTC, IOC)
	ClientOrderID string    // 클라이언트 측 주문 ID
	ReduceOnly    bool      // 청산 전용 여부
}

// OrderResponse는 주문 응답을 표현합니다
type OrderResponse struct {
	OrderID       string // 거래소 주문 ID
	ClientOrderID string // 클라이언트 측 주문 ID
}

// Position은 거래소에서 조회한 포지션 스냅샷을 표현합니다.
// 진실의 원천은 거래소이며, 이 값은 의사결정 사이클 동안만 유효합니다.
type Position struct {
	Symbol        string       // 심볼 (예: BTCUSDT)
	Side          PositionSide // 롱/숏 포지션
	Size          float64      // 포지션 수량
	EntryPrice    float64      // 평균 진입가
	UnrealizedPnL float64      // 미실현 손익
}

// InstrumentSpec은 심볼의 거래 단위 정보를 나타냅니다
type InstrumentSpec struct {
	Symbol    string  // 심볼 이름 (예: BTCUSDT)
	PriceTick float64 // 가격 최소 단위 (예: 0.1 USDT)
	QtyStep   float64 // 수량 최소 단위 (예: 0.001 BTC)
	MinQty    float64 // 최소 주문 수량
}

// WalletBalance는 계정 자산 정보를 표현합니다
type WalletBalance struct {
	TotalEquityUSD float64 // 총 자산 (USD)
	AvailableUSD   float64 // 사용 가능한 잔고 (USD)
}
