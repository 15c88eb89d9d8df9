// internal/signal/source.go
package signal

import (
	"context"

	"github.com/assist-by/leviathan/internal/domain"
)

// Snapshot은 제안 생성에 사용하는 시장 스냅샷입니다
type Snapshot struct {
	Symbol    string
	LastPrice float64
	ATR       float64
	Candles   domain.CandleList
}

// Source는 시장 스냅샷으로부터 거래 제안을 생성합니다.
// 구현체가 무엇이든 (외부 모델, 고정 규칙) 반환된 제안은
// 신뢰할 수 없는 입력으로 취급되어 실행기의 검증을 거칩니다.
type Source interface {
	Propose(ctx context.Context, snapshot Snapshot) (*domain.TradeProposal, error)
}

// Static은 항상 같은 제안을 반환하는 Source입니다 (테스트, 드라이런용)
type Static struct {
	Proposal *domain.TradeProposal
	Err      error
}

// Propose는 고정된 제안을 반환합니다
func (s *Static) Propose(_ context.Context, snapshot Snapshot) (*domain.TradeProposal, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	p := *s.Proposal
	if p.Symbol == "" {
		p.Symbol = snapshot.Symbol
	}
	return &p, nil
}
