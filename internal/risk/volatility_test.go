package risk

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assist-by/leviathan/internal/domain"
)

func TestDeriveStops(t *testing.T) {
	cfg := DefaultStopConfig() // SL ×1.5, TP ×2.5

	testCases := []struct {
		name       string
		side       domain.Side
		lastPrice  float64
		atr        float64
		providedSL float64
		providedTP []float64
		wantSL     float64
		wantTP     float64
		wantErr    error
	}{
		{
			name:      "매수: ATR로 손절/익절 파생",
			side:      domain.SideBuy,
			lastPrice: 45000,
			atr:       500,
			// SL = 45000 - 1.5×500 = 44250, TP = 45000 + 2.5×500 = 46250
			wantSL: 44250,
			wantTP: 46250,
		},
		{
			name:      "매도: ATR로 손절/익절 파생",
			side:      domain.SideSell,
			lastPrice: 45000,
			atr:       500,
			wantSL:    45750,
			wantTP:    43750,
		},
		{
			name:       "제안에 명시된 손절/익절은 그대로 사용",
			side:       domain.SideBuy,
			lastPrice:  45000,
			atr:        500,
			providedSL: 44000,
			providedTP: []float64{47000},
			wantSL:     44000,
			wantTP:     47000,
		},
		{
			name:      "ATR 0이면 1% 거리로 대체",
			side:      domain.SideBuy,
			lastPrice: 100,
			atr:       0,
			wantSL:    99,
			wantTP:    101,
		},
		{
			name:      "ATR NaN이면 1% 거리로 대체",
			side:      domain.SideSell,
			lastPrice: 100,
			atr:       math.NaN(),
			wantSL:    101,
			wantTP:    99,
		},
		{
			name:       "매수인데 손절가가 진입가 위면 에러",
			side:       domain.SideBuy,
			lastPrice:  45000,
			atr:        500,
			providedSL: 46000,
			wantErr:    ErrInvalidStopGeometry,
		},
		{
			name:       "매도인데 손절가가 진입가 아래면 에러",
			side:       domain.SideSell,
			lastPrice:  45000,
			atr:        500,
			providedSL: 44000,
			wantErr:    ErrInvalidStopGeometry,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sl, tp, err := DeriveStops(tc.side, tc.lastPrice, tc.atr, tc.providedSL, tc.providedTP, cfg)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tc.wantSL, sl, 1e-9)
			assert.InDelta(t, tc.wantTP, tp, 1e-9)
		})
	}
}

// 여러 익절가가 제안되면 첫 번째 값을 사용합니다
func TestDeriveStopsUsesFirstTakeProfit(t *testing.T) {
	_, tp, err := DeriveStops(domain.SideBuy, 45000, 500, 0, []float64{46000, 47000, 48000}, DefaultStopConfig())
	require.NoError(t, err)
	assert.Equal(t, 46000.0, tp)
}
