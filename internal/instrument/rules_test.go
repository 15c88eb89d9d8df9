package instrument

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assist-by/leviathan/internal/domain"
	"github.com/assist-by/leviathan/internal/exchange"
)

// specExchange는 GetInstrumentInfo만 동작하는 테스트용 거래소입니다
type specExchange struct {
	exchange.Exchange

	calls int
	spec  *domain.InstrumentSpec
	err   error
}

func (s *specExchange) GetInstrumentInfo(_ context.Context, _ string) (*domain.InstrumentSpec, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.spec, nil
}

func TestRulesGetCachesPerSymbol(t *testing.T) {
	ex := &specExchange{
		spec: &domain.InstrumentSpec{Symbol: "BTCUSDT", PriceTick: 0.1, QtyStep: 0.001, MinQty: 0.001},
	}
	rules := NewRules(ex)

	first, err := rules.Get(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	second, err := rules.Get(context.Background(), "BTCUSDT")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, ex.calls, "같은 심볼은 한 번만 조회해야 합니다")
}

func TestRulesGetRejectsInvalidSpec(t *testing.T) {
	ex := &specExchange{
		spec: &domain.InstrumentSpec{Symbol: "BTCUSDT", PriceTick: 0, QtyStep: 0.001},
	}
	rules := NewRules(ex)

	_, err := rules.Get(context.Background(), "BTCUSDT")
	assert.Error(t, err, "0 이하의 거래 단위로는 수량 계산이 불가능합니다")
}

func TestRulesGetPropagatesFetchError(t *testing.T) {
	ex := &specExchange{err: errors.New("거래소 응답 없음")}
	rules := NewRules(ex)

	_, err := rules.Get(context.Background(), "BTCUSDT")
	assert.Error(t, err)
	assert.Equal(t, 1, ex.calls)
}

func TestRulesInvalidateForcesRefetch(t *testing.T) {
	ex := &specExchange{
		spec: &domain.InstrumentSpec{Symbol: "BTCUSDT", PriceTick: 0.1, QtyStep: 0.001, MinQty: 0.001},
	}
	rules := NewRules(ex)

	_, err := rules.Get(context.Background(), "BTCUSDT")
	require.NoError(t, err)

	rules.Invalidate("BTCUSDT")

	_, err = rules.Get(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, 2, ex.calls)
}
