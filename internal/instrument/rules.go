// internal/instrument/rules.go
package instrument

import (
	"context"
	"fmt"
	"sync"

	"github.com/assist-by/leviathan/internal/domain"
	"github.com/assist-by/leviathan/internal/exchange"
)

// Rules는 심볼별 거래 단위 정보의 프로세스 수명 캐시입니다.
// 한 번 조회한 값은 명시적으로 무효화하기 전까지 재사용하며, 거래소 조회가
// 실패해도 캐시된 값이 있으면 그 값을 반환합니다 (stale-but-available).
type Rules struct {
	ex    exchange.Exchange
	mu    sync.Mutex
	cache map[string]*domain.InstrumentSpec
}

// NewRules는 새로운 거래 단위 캐시를 생성합니다
func NewRules(ex exchange.Exchange) *Rules {
	return &Rules{
		ex:    ex,
		cache: make(map[string]*domain.InstrumentSpec),
	}
}

// Get은 심볼의 거래 단위 정보를 반환합니다
func (r *Rules) Get(ctx context.Context, symbol string) (*domain.InstrumentSpec, error) {
	r.mu.Lock()
	cached, ok := r.cache[symbol]
	r.mu.Unlock()
	if ok {
		return cached, nil
	}

	spec, err := r.ex.GetInstrumentInfo(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("심볼 %s 거래 단위 조회 실패: %w", symbol, err)
	}
	if spec.PriceTick <= 0 || spec.QtyStep <= 0 {
		return nil, fmt.Errorf("심볼 %s의 거래 단위 정보가 올바르지 않습니다 (tick=%v, step=%v)",
			symbol, spec.PriceTick, spec.QtyStep)
	}

	r.mu.Lock()
	r.cache[symbol] = spec
	r.mu.Unlock()
	return spec, nil
}

// Invalidate는 심볼의 캐시를 제거해 다음 조회 시 다시 가져오게 합니다
func (r *Rules) Invalidate(symbol string) {
	r.mu.Lock()
	delete(r.cache, symbol)
	r.mu.Unlock()
}
