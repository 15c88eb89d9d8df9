package notification

import "github.com/assist-by/leviathan/internal/domain"

const (
	ColorSuccess = 0x00FF00 // 녹색
	ColorError   = 0xFF0000 // 빨간색
	ColorInfo    = 0x0000FF // 파란색
	ColorWarning = 0xFFA500 // 주황색
)

// Notifier는 알림 전송 인터페이스를 정의합니다
type Notifier interface {
	// SendDecision은 제안 처리 결과를 전송합니다
	SendDecision(info DecisionInfo) error

	// SendAlert는 즉시 운영자 개입이 필요한 고심각도 경보를 전송합니다.
	// 보호 주문 없는 포지션 같은 상태는 일반 에러와 같은 채널로 보내지 않습니다.
	SendAlert(message string) error

	// SendError는 에러 알림을 전송합니다
	SendError(err error) error

	// SendInfo는 일반 정보 알림을 전송합니다
	SendInfo(message string) error
}

// DecisionInfo는 제안 처리 결과 알림의 내용을 정의합니다
type DecisionInfo struct {
	Symbol      string              // 심볼 (예: BTCUSDT)
	Decision    domain.DecisionKind // blocked/paper/live/failed
	Side        domain.Side         // 제안 방향
	Reason      string              // 거부/실패 사유 (있는 경우)
	Quantity    float64             // 주문 수량
	EntryPrice  float64             // 진입가
	StopLoss    float64             // 손절가
	TakeProfit  float64             // 익절가
	NotionalUSD float64             // 명목 가치 (USD)
	OrderID     string              // 거래소 주문 ID (체결 시)
}

// GetColorForDecision은 결정 유형에 따른 색상을 반환합니다
func GetColorForDecision(kind domain.DecisionKind) int {
	switch kind {
	case domain.DecisionLive:
		return ColorSuccess
	case domain.DecisionPaper:
		return ColorInfo
	case domain.DecisionBlocked:
		return ColorWarning
	default:
		return ColorError
	}
}

// Nop은 아무것도 전송하지 않는 Notifier입니다 (테스트, 드라이런용)
type Nop struct{}

func (Nop) SendDecision(DecisionInfo) error { return nil }
func (Nop) SendAlert(string) error          { return nil }
func (Nop) SendError(error) error           { return nil }
func (Nop) SendInfo(string) error           { return nil }
