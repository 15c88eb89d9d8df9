package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validProposal() *TradeProposal {
	return &TradeProposal{
		Symbol:     "BTCUSDT",
		Side:       SideBuy,
		Confidence: 0.8,
		Entry:      &Entry{Type: EntryMarket},
		StopLoss:   44000,
		TakeProfit: []float64{47000},
		Horizon:    HorizonIntraday,
	}
}

func TestProposalValidate(t *testing.T) {
	testCases := []struct {
		name    string
		modify  func(*TradeProposal)
		wantErr bool
	}{
		{"정상 제안", nil, false},
		{"심볼 누락", func(p *TradeProposal) { p.Symbol = "" }, true},
		{"알 수 없는 방향", func(p *TradeProposal) { p.Side = "long" }, true},
		{"신뢰도 1 초과", func(p *TradeProposal) { p.Confidence = 1.5 }, true},
		{"신뢰도 음수", func(p *TradeProposal) { p.Confidence = -0.1 }, true},
		{"알 수 없는 진입 방식", func(p *TradeProposal) { p.Entry.Type = "stop" }, true},
		{"지정가 진입에 가격 누락", func(p *TradeProposal) { p.Entry = &Entry{Type: EntryLimit} }, true},
		{"손절가 음수", func(p *TradeProposal) { p.StopLoss = -1 }, true},
		{"익절가 0", func(p *TradeProposal) { p.TakeProfit = []float64{0} }, true},
		{"중립 제안도 구조적으로는 유효", func(p *TradeProposal) { p.Side = SideNeutral }, false},
		{"진입 방식 생략 가능", func(p *TradeProposal) { p.Entry = nil }, false},
		{"손절가 0은 파생 요청으로 허용", func(p *TradeProposal) { p.StopLoss = 0 }, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := validProposal()
			if tc.modify != nil {
				tc.modify(p)
			}
			err := p.Validate()
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidProposal)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseProposal(t *testing.T) {
	t.Run("순수 JSON 파싱", func(t *testing.T) {
		raw := []byte(`{"symbol":"BTCUSDT","side":"buy","confidence":0.72,"stopLoss":44000,"takeProfit":[47000]}`)
		p, err := ParseProposal(raw, "BTCUSDT")
		require.NoError(t, err)
		assert.Equal(t, SideBuy, p.Side)
		assert.Equal(t, 0.72, p.Confidence)
	})

	t.Run("코드 펜스로 감싼 JSON 파싱", func(t *testing.T) {
		raw := []byte("```json\n{\"side\":\"sell\",\"confidence\":0.9}\n```")
		p, err := ParseProposal(raw, "ETHUSDT")
		require.NoError(t, err)
		assert.Equal(t, SideSell, p.Side)
		assert.Equal(t, "ETHUSDT", p.Symbol, "심볼 생략 시 요청 심볼을 채워야 합니다")
	})

	t.Run("JSON이 아니면 에러", func(t *testing.T) {
		_, err := ParseProposal([]byte("I cannot provide trading advice."), "BTCUSDT")
		assert.ErrorIs(t, err, ErrInvalidProposal)
	})

	t.Run("구조는 JSON이지만 값이 잘못되면 에러", func(t *testing.T) {
		raw := []byte(`{"symbol":"BTCUSDT","side":"buy","confidence":3.0}`)
		_, err := ParseProposal(raw, "BTCUSDT")
		assert.ErrorIs(t, err, ErrInvalidProposal)
	})
}

func TestNewClientOrderID(t *testing.T) {
	ts := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	id1 := NewClientOrderID("BTCUSDT", SideBuy, 45000, 44250, 46250, 0.666, ts)
	id2 := NewClientOrderID("BTCUSDT", SideBuy, 45000, 44250, 46250, 0.666, ts)
	assert.Equal(t, id1, id2, "같은 입력은 같은 ID를 생성해야 합니다")
	assert.True(t, strings.HasPrefix(id1, "lv-"))
	assert.Len(t, id1, 27)

	id3 := NewClientOrderID("BTCUSDT", SideBuy, 45000, 44250, 46250, 0.666, ts.Add(time.Millisecond))
	assert.NotEqual(t, id1, id3, "타임스탬프가 다르면 ID도 달라야 합니다")
}
