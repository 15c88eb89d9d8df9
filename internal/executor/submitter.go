// internal/executor/submitter.go
package executor

import (
	"context"
	"log"

	"github.com/assist-by/leviathan/internal/domain"
	"github.com/assist-by/leviathan/internal/exchange"
	"github.com/assist-by/leviathan/internal/metrics"
)

// Submitter는 계획된 주문을 거래소에 제출합니다.
// 기본 경로는 슬리피지 상한이 걸린 지정가 IOC 주문이며, 실패 시 정확히
// 한 번만 무제한 시장가로 대체합니다.
type Submitter struct {
	ex          exchange.Exchange
	slippageBps int
}

// OrderResult는 주문 제출 결과를 담습니다
type OrderResult struct {
	OrderID      string // 거래소 주문 ID
	Protected    bool   // 슬리피지 상한 경로로 체결되었는지
	FellBack     bool   // 시장가 대체가 일어났는지
	StopAttached bool   // TP/SL 설정 성공 여부
	AttachError  string // TP/SL 설정 실패 사유 (실패 시)
}

// NewSubmitter는 새로운 주문 제출기를 생성합니다
func NewSubmitter(ex exchange.Exchange, slippageBps int) *Submitter {
	return &Submitter{
		ex:          ex,
		slippageBps: slippageBps,
	}
}

// protectedPrice는 허용 가능한 최악의 체결가를 계산합니다.
// 매수는 위쪽으로, 매도는 아래쪽으로 slippageBps만큼 여유를 둡니다.
func (s *Submitter) protectedPrice(side domain.Side, entry, priceTick float64) float64 {
	bound := float64(s.slippageBps) / 10000
	var price float64
	if side == domain.SideBuy {
		price = entry * (1 + bound)
	} else {
		price = entry * (1 - bound)
	}
	return domain.FloorToStep(price, priceTick)
}

// Submit은 계획을 주문으로 제출하고 TP/SL을 설정합니다.
// 주문 제출은 멱등하지 않으므로 어느 경로에서도 재시도하지 않습니다.
func (s *Submitter) Submit(ctx context.Context, plan *domain.SizedOrderPlan, spec *domain.InstrumentSpec) (*OrderResult, error) {
	orderSide := domain.Buy
	if plan.Side == domain.SideSell {
		orderSide = domain.Sell
	}

	priceLimit := s.protectedPrice(plan.Side, plan.EntryPrice, spec.PriceTick)

	// 1차: 슬리피지 상한 지정가 IOC (즉시 체결되거나 취소됨, 호가창에 남지 않음)
	protected := domain.OrderRequest{
		Symbol:        plan.Symbol,
		Side:          orderSide,
		Type:          domain.Limit,
		Quantity:      plan.Quantity,
		Price:         priceLimit,
		TimeInForce:   domain.IOC,
		ClientOrderID: plan.ClientOrderID,
	}

	result := &OrderResult{Protected: true}

	resp, err := s.ex.PlaceOrder(ctx, protected)
	if err != nil {
		// 타임아웃은 체결 여부가 불명확하므로 대체 주문을 내면 중복 위험이 있습니다.
		// 판단은 호출자(Executor)가 포지션 재조회로 내립니다.
		if ctx.Err() != nil {
			return nil, NewExecError(plan.Symbol, "place_protected_order", err)
		}

		// 운영자가 체결 품질 저하를 볼 수 있도록 대체 실행은 별도로 기록합니다
		log.Printf("보호 주문 실패, 시장가로 대체 실행 [%s %s %.8f @ %.8f]: %v",
			plan.Symbol, plan.Side, plan.Quantity, priceLimit, err)
		metrics.CountOrderFallback()

		fallback := domain.OrderRequest{
			Symbol:        plan.Symbol,
			Side:          orderSide,
			Type:          domain.Market,
			Quantity:      plan.Quantity,
			ClientOrderID: plan.ClientOrderID + "-mkt",
		}

		resp, err = s.ex.PlaceOrder(ctx, fallback)
		if err != nil {
			return nil, NewExecError(plan.Symbol, "place_fallback_order", err)
		}
		result.Protected = false
		result.FellBack = true
	}

	result.OrderID = resp.OrderID

	// 진입 후 보호 주문 설정. 실패해도 진입은 이미 확정이므로 에러를 반환하지
	// 않고 결과에 표시합니다. 호출자가 고심각도 경보를 올려야 합니다.
	if err := s.ex.SetTradingStop(ctx, plan.Symbol, plan.StopLoss, plan.TakeProfit); err != nil {
		log.Printf("TP/SL 설정 실패, 보호 주문 없는 포지션 [%s]: %v", plan.Symbol, err)
		metrics.CountUnprotectedPosition()
		result.StopAttached = false
		result.AttachError = err.Error()
		return result, nil
	}

	result.StopAttached = true
	return result, nil
}
