// internal/exchange/exchange.go
package exchange

import (
	"context"
	"fmt"

	"github.com/assist-by/leviathan/internal/domain"
)

// ErrUnavailable은 재시도 후에도 거래소 응답을 받지 못했음을 나타냅니다
var ErrUnavailable = fmt.Errorf("거래소 응답을 받을 수 없습니다")

// Exchange는 거래소와의 상호작용을 위한 인터페이스입니다.
// 읽기 전용 조회는 구현체가 내부적으로 재시도할 수 있지만, 주문 생성과
// TP/SL 설정은 중복 주문 위험 때문에 절대 자동 재시도하지 않습니다.
type Exchange interface {
	// 시장 데이터 조회
	GetInstrumentInfo(ctx context.Context, symbol string) (*domain.InstrumentSpec, error)
	GetLastPrice(ctx context.Context, symbol string) (float64, error)
	GetKlines(ctx context.Context, symbol, interval string, limit int) (domain.CandleList, error)

	// 계정 데이터 조회
	GetPositions(ctx context.Context, symbol string) ([]domain.Position, error)
	GetWalletBalance(ctx context.Context) (*domain.WalletBalance, error)

	// 거래 기능
	PlaceOrder(ctx context.Context, order domain.OrderRequest) (*domain.OrderResponse, error)
	SetTradingStop(ctx context.Context, symbol string, stopLoss, takeProfit float64) error

	// 시간 동기화
	SyncTime(ctx context.Context) error
}
