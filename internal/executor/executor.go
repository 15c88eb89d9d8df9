// internal/executor/executor.go
package executor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/assist-by/leviathan/internal/domain"
	"github.com/assist-by/leviathan/internal/exchange"
	"github.com/assist-by/leviathan/internal/instrument"
	"github.com/assist-by/leviathan/internal/journal"
	"github.com/assist-by/leviathan/internal/metrics"
	"github.com/assist-by/leviathan/internal/notification"
	"github.com/assist-by/leviathan/internal/risk"
	"github.com/assist-by/leviathan/internal/state"
)

// 수량이 0으로 계산된 계획의 거부 사유
const reasonNotViable = "Not viable at this risk level"

// Config는 실행기 설정을 정의합니다
type Config struct {
	Mode            domain.TradeMode // paper 또는 live
	RiskPerTradePct float64          // 거래당 리스크 비율 (%)
	SlippageBps     int              // 허용 슬리피지 (bps)
	Stops           risk.StopConfig  // ATR 손절/익절 배수
	Deadline        time.Duration    // 제안당 전체 처리 시한
}

// Result는 제안 하나의 최종 처리 결과를 담습니다
type Result struct {
	Decision domain.DecisionKind
	Reason   string
	Plan     *domain.SizedOrderPlan
	OrderID  string
}

// Executor는 제안을 검증된 주문으로 바꾸는 파이프라인의 오케스트레이터입니다.
// 상태 파일의 유일한 기록자이며, 동일 심볼의 제안을 동시에 처리하지 않습니다.
type Executor struct {
	ex        exchange.Exchange
	rules     *instrument.Rules
	guard     *risk.Guard
	journal   *journal.Writer
	store     *state.Store
	notifier  notification.Notifier
	submitter *Submitter
	cfg       Config

	mu   sync.Mutex
	busy map[string]bool
}

// New는 새로운 실행기를 생성합니다
func New(ex exchange.Exchange, rules *instrument.Rules, guard *risk.Guard,
	jw *journal.Writer, store *state.Store, notifier notification.Notifier, cfg Config) *Executor {
	if cfg.Deadline <= 0 {
		cfg.Deadline = 45 * time.Second
	}
	return &Executor{
		ex:        ex,
		rules:     rules,
		guard:     guard,
		journal:   jw,
		store:     store,
		notifier:  notifier,
		submitter: NewSubmitter(ex, cfg.SlippageBps),
		cfg:       cfg,
		busy:      make(map[string]bool),
	}
}

// Execute는 제안 하나를 종단 상태까지 처리합니다.
// 종단 상태는 executed-live / executed-paper / blocked / failed이며,
// blocked와 실행 결과는 항상 저널에 기록됩니다.
func (e *Executor) Execute(ctx context.Context, proposal *domain.TradeProposal, lastPrice, atr float64) (*Result, error) {
	// 구조적으로 잘못된 제안은 계획이 형성되지 않았으므로 저널에 남기지 않습니다
	if err := proposal.Validate(); err != nil {
		return nil, NewExecError(proposal.Symbol, "validate_proposal", err)
	}

	// 동일 심볼 재진입 차단: 이전 사이클이 끝나지 않았으면 거부합니다
	if !e.acquire(proposal.Symbol) {
		return nil, NewExecError(proposal.Symbol, "acquire_symbol", ErrSymbolBusy)
	}
	defer e.release(proposal.Symbol)

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Deadline)
	defer cancel()

	// 중립 제안은 즉시 종료
	if proposal.Side == domain.SideNeutral {
		return e.block(proposal, nil, risk.ReasonNeutral), nil
	}

	if lastPrice <= 0 {
		return nil, NewExecError(proposal.Symbol, "check_price", fmt.Errorf("현재가가 올바르지 않습니다: %v", lastPrice))
	}

	// 1. 거래 단위 조회
	spec, err := e.rules.Get(ctx, proposal.Symbol)
	if err != nil {
		return nil, NewExecError(proposal.Symbol, "get_instrument_info", err)
	}

	// 2. 포지션 스냅샷 조회
	positions, err := e.ex.GetPositions(ctx, proposal.Symbol)
	if err != nil {
		return nil, NewExecError(proposal.Symbol, "get_positions", err)
	}

	// 3. 진입가 결정 (지정가 제안이면 그 가격, 아니면 현재가)
	entry := lastPrice
	if proposal.Entry != nil && proposal.Entry.Type == domain.EntryLimit && proposal.Entry.Price > 0 {
		entry = proposal.Entry.Price
	}
	entry = domain.FloorToStep(entry, spec.PriceTick)

	// 4. 손절/익절 파생
	stopLoss, takeProfit, err := risk.DeriveStops(
		proposal.Side, entry, atr, proposal.StopLoss, proposal.TakeProfit, e.cfg.Stops)
	if err != nil {
		if errors.Is(err, risk.ErrInvalidStopGeometry) {
			return e.block(proposal, nil, "Invalid stop geometry"), nil
		}
		return nil, NewExecError(proposal.Symbol, "derive_stops", err)
	}
	stopLoss = domain.FloorToStep(stopLoss, spec.PriceTick)
	takeProfit = domain.FloorToStep(takeProfit, spec.PriceTick)

	// 5. 리스크 예산 산출
	balance, err := e.ex.GetWalletBalance(ctx)
	if err != nil {
		return nil, NewExecError(proposal.Symbol, "get_balance", err)
	}
	metrics.SetEquity(balance.TotalEquityUSD)

	budget := domain.RiskBudget{
		AccountEquity:   balance.TotalEquityUSD,
		RiskPerTradePct: e.cfg.RiskPerTradePct,
	}

	// 6. 수량 계산
	quantity, err := risk.Size(entry, stopLoss, budget.RiskUSD(), spec)
	if err != nil {
		if errors.Is(err, risk.ErrZeroRiskDistance) {
			return e.block(proposal, nil, "Zero risk distance"), nil
		}
		return nil, NewExecError(proposal.Symbol, "size_position", err)
	}

	atrPercent := 0.0
	if atr > 0 {
		atrPercent = atr / lastPrice * 100
	}

	plan := &domain.SizedOrderPlan{
		Symbol:      proposal.Symbol,
		Side:        proposal.Side,
		EntryPrice:  entry,
		StopLoss:    stopLoss,
		TakeProfit:  takeProfit,
		Quantity:    quantity,
		NotionalUSD: quantity * entry,
		ATRPercent:  atrPercent,
		ClientOrderID: domain.NewClientOrderID(
			proposal.Symbol, proposal.Side, entry, stopLoss, takeProfit, quantity, time.Now()),
	}

	// 수량 0은 해당 리스크 수준에서 거래가 성립하지 않는다는 뜻입니다
	if quantity == 0 {
		return e.block(proposal, plan, reasonNotViable), nil
	}

	// 7. 실행 가드 평가
	ok, reason := e.guard.Evaluate(risk.GuardInput{
		Symbol:      plan.Symbol,
		Side:        plan.Side,
		Confidence:  proposal.Confidence,
		NotionalUSD: plan.NotionalUSD,
		ATRPercent:  plan.ATRPercent,
		Positions:   positions,
	})
	if !ok {
		metrics.CountGuardRejection(reason)
		return e.block(proposal, plan, reason), nil
	}

	// 8. 모드별 실행
	if e.cfg.Mode == domain.PaperMode {
		return e.executePaper(proposal, plan), nil
	}
	return e.executeLive(ctx, proposal, plan, spec)
}

// executePaper는 네트워크 호출 없이 체결을 가정한 미리보기 결과를 만듭니다.
// 쿨다운과 일일 한도가 라이브와 동일하게 동작하도록 가드에는 실행을 기록합니다.
func (e *Executor) executePaper(proposal *domain.TradeProposal, plan *domain.SizedOrderPlan) *Result {
	e.guard.MarkExecuted(plan.Symbol)

	orderID := "paper-" + plan.ClientOrderID
	e.append(journal.Entry{
		Decision: domain.DecisionPaper,
		Symbol:   plan.Symbol,
		Side:     plan.Side,
		Plan:     plan,
		OrderID:  orderID,
	})
	metrics.CountDecision(string(domain.DecisionPaper))
	e.notifyDecision(proposal, plan, domain.DecisionPaper, "", orderID)

	return &Result{Decision: domain.DecisionPaper, Plan: plan, OrderID: orderID}
}

// executeLive는 주문을 제출하고 확정된 결과만 상태 파일에 반영합니다
func (e *Executor) executeLive(ctx context.Context, proposal *domain.TradeProposal, plan *domain.SizedOrderPlan, spec *domain.InstrumentSpec) (*Result, error) {
	orderResult, err := e.submitter.Submit(ctx, plan, spec)
	if err != nil {
		// 시한 초과로 결과가 불명확하면 포지션 재조회로 판정합니다.
		// 그 외의 실패는 확정 실패이며 상태 파일은 건드리지 않습니다.
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			if confirmed := e.confirmPosition(plan); confirmed != nil {
				log.Printf("주문 결과 불명확 후 포지션 확인됨 [%s]: 진입 처리", plan.Symbol)
				return e.finishLive(proposal, plan, &OrderResult{
					OrderID:      "",
					StopAttached: false,
					AttachError:  "주문 시한 초과 후 포지션만 확인됨",
				}, confirmed.EntryPrice), nil
			}
		}

		e.append(journal.Entry{
			Decision: domain.DecisionFailed,
			Symbol:   plan.Symbol,
			Side:     plan.Side,
			Plan:     plan,
			Reason:   err.Error(),
		})
		metrics.CountDecision(string(domain.DecisionFailed))
		e.notifyDecision(proposal, plan, domain.DecisionFailed, err.Error(), "")
		return &Result{Decision: domain.DecisionFailed, Reason: err.Error(), Plan: plan}, err
	}

	return e.finishLive(proposal, plan, orderResult, plan.EntryPrice), nil
}

// finishLive는 확정된 진입을 기록합니다: 가드 표시, 상태 저장, 저널, 알림 순서입니다
func (e *Executor) finishLive(proposal *domain.TradeProposal, plan *domain.SizedOrderPlan, orderResult *OrderResult, entryPrice float64) *Result {
	e.guard.MarkExecuted(plan.Symbol)

	// 상태 파일은 확정된 주문 승인 이후에만, 레코드 전체 교체로 기록합니다
	side := plan.Side.Position()
	st := state.TradeState{
		InPosition:   true,
		PositionSide: &side,
		EntryPrice:   entryPrice,
		Quantity:     plan.Quantity,
	}
	if orderResult.OrderID != "" {
		st.OrderID = &orderResult.OrderID
	}
	if err := e.store.Save(st); err != nil {
		log.Printf("상태 파일 기록 실패 [%s]: %v", plan.Symbol, err)
		e.notifyError(fmt.Errorf("상태 파일 기록 실패 [%s]: %w", plan.Symbol, err))
	}

	e.append(journal.Entry{
		Decision: domain.DecisionLive,
		Symbol:   plan.Symbol,
		Side:     plan.Side,
		Plan:     plan,
		OrderID:  orderResult.OrderID,
	})
	metrics.CountDecision(string(domain.DecisionLive))
	e.notifyDecision(proposal, plan, domain.DecisionLive, "", orderResult.OrderID)

	// 보호 주문 실패는 이 시스템에서 가장 위험한 상태입니다.
	// 일반 에러 채널이 아니라 전용 경보 경로로 보냅니다.
	if !orderResult.StopAttached {
		alert := fmt.Sprintf("%s 포지션이 손절/익절 없이 열려 있습니다! 수량: %.8f, 진입가: %.4f (사유: %s)",
			plan.Symbol, plan.Quantity, entryPrice, orderResult.AttachError)
		if err := e.notifier.SendAlert(alert); err != nil {
			log.Printf("긴급 경보 전송 실패: %v", err)
		}
	}

	return &Result{Decision: domain.DecisionLive, Plan: plan, OrderID: orderResult.OrderID}
}

// confirmPosition은 불명확한 주문 결과를 포지션 재조회로 판정합니다.
// 외부 컨텍스트는 이미 만료되었을 수 있어 별도 시한을 사용합니다.
func (e *Executor) confirmPosition(plan *domain.SizedOrderPlan) *domain.Position {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	positions, err := e.ex.GetPositions(ctx, plan.Symbol)
	if err != nil {
		log.Printf("불명확한 주문 결과 판정용 포지션 조회 실패 [%s]: %v", plan.Symbol, err)
		return nil
	}

	target := plan.Side.Position()
	for _, pos := range positions {
		if pos.Symbol == plan.Symbol && pos.Side == target && pos.Size > 0 {
			return &pos
		}
	}
	return nil
}

// block은 가드 거부 및 파생 실패를 저널에 기록하고 종료합니다
func (e *Executor) block(proposal *domain.TradeProposal, plan *domain.SizedOrderPlan, reason string) *Result {
	e.append(journal.Entry{
		Decision: domain.DecisionBlocked,
		Symbol:   proposal.Symbol,
		Side:     proposal.Side,
		Plan:     plan,
		Reason:   reason,
	})
	metrics.CountDecision(string(domain.DecisionBlocked))
	e.notifyDecision(proposal, plan, domain.DecisionBlocked, reason, "")

	return &Result{Decision: domain.DecisionBlocked, Reason: reason, Plan: plan}
}

// append는 저널 기록 실패를 결정에 영향 주지 않고 보고만 합니다
func (e *Executor) append(entry journal.Entry) {
	if err := e.journal.Append(entry); err != nil {
		log.Printf("저널 기록 실패 [%s %s]: %v", entry.Symbol, entry.Decision, err)
		e.notifyError(fmt.Errorf("저널 기록 실패: %w", err))
	}
}

func (e *Executor) notifyDecision(proposal *domain.TradeProposal, plan *domain.SizedOrderPlan, kind domain.DecisionKind, reason, orderID string) {
	info := notification.DecisionInfo{
		Symbol:   proposal.Symbol,
		Decision: kind,
		Side:     proposal.Side,
		Reason:   reason,
		OrderID:  orderID,
	}
	if plan != nil {
		info.Quantity = plan.Quantity
		info.EntryPrice = plan.EntryPrice
		info.StopLoss = plan.StopLoss
		info.TakeProfit = plan.TakeProfit
		info.NotionalUSD = plan.NotionalUSD
	}
	if err := e.notifier.SendDecision(info); err != nil {
		log.Printf("결정 알림 전송 실패 [%s]: %v", proposal.Symbol, err)
	}
}

func (e *Executor) notifyError(err error) {
	if nErr := e.notifier.SendError(err); nErr != nil {
		log.Printf("에러 알림 전송 실패: %v", nErr)
	}
}

// acquire는 심볼 단위 실행 래치를 획득합니다
func (e *Executor) acquire(symbol string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.busy[symbol] {
		return false
	}
	e.busy[symbol] = true
	return true
}

func (e *Executor) release(symbol string) {
	e.mu.Lock()
	delete(e.busy, symbol)
	e.mu.Unlock()
}
