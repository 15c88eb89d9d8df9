package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ErrInvalidProposal은 구조적으로 잘못된 제안을 나타냅니다
var ErrInvalidProposal = fmt.Errorf("잘못된 거래 제안")

// Entry는 제안된 진입 방식을 정의합니다
type Entry struct {
	Type  EntryType `json:"type"`
	Price float64   `json:"price,omitempty"`
	Range []float64 `json:"range,omitempty"`
}

// TradeProposal은 외부 모델이 생성한 거래 제안을 표현합니다.
// 신뢰할 수 없는 입력이므로 사용 전 반드시 Validate를 거쳐야 합니다.
type TradeProposal struct {
	Symbol     string    `json:"symbol"`
	Side       Side      `json:"side"`
	Confidence float64   `json:"confidence"`
	Entry      *Entry    `json:"entry,omitempty"`
	StopLoss   float64   `json:"stopLoss,omitempty"`
	TakeProfit []float64 `json:"takeProfit,omitempty"`
	Horizon    Horizon   `json:"horizon,omitempty"`
	Rationale  string    `json:"rationale,omitempty"`
}

// Validate는 제안의 구조적 유효성을 검사합니다
func (p *TradeProposal) Validate() error {
	if p.Symbol == "" {
		return fmt.Errorf("%w: 심볼이 비어 있습니다", ErrInvalidProposal)
	}
	if !p.Side.IsValid() {
		return fmt.Errorf("%w: 알 수 없는 방향 %q", ErrInvalidProposal, p.Side)
	}
	if p.Confidence < 0 || p.Confidence > 1 {
		return fmt.Errorf("%w: 신뢰도 %.4f가 [0,1] 범위를 벗어났습니다", ErrInvalidProposal, p.Confidence)
	}
	if p.Entry != nil {
		switch p.Entry.Type {
		case EntryMarket, EntryLimit:
		default:
			return fmt.Errorf("%w: 알 수 없는 진입 방식 %q", ErrInvalidProposal, p.Entry.Type)
		}
		if p.Entry.Type == EntryLimit && p.Entry.Price <= 0 {
			return fmt.Errorf("%w: 지정가 진입에 가격이 없습니다", ErrInvalidProposal)
		}
	}
	if p.StopLoss < 0 {
		return fmt.Errorf("%w: 손절가는 음수일 수 없습니다", ErrInvalidProposal)
	}
	for _, tp := range p.TakeProfit {
		if tp <= 0 {
			return fmt.Errorf("%w: 익절가 %.8f는 양수여야 합니다", ErrInvalidProposal, tp)
		}
	}
	return nil
}

// ParseProposal은 모델 응답 텍스트에서 거래 제안을 파싱합니다.
// 모델이 코드 펜스로 감싼 JSON을 반환하는 경우가 있어 이를 제거한 뒤 디코딩합니다.
func ParseProposal(raw []byte, symbol string) (*TradeProposal, error) {
	text := strings.TrimSpace(string(raw))
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	var p TradeProposal
	if err := json.Unmarshal([]byte(text), &p); err != nil {
		return nil, fmt.Errorf("%w: JSON 파싱 실패: %v", ErrInvalidProposal, err)
	}

	// 모델이 심볼을 생략하면 요청 심볼을 사용
	if p.Symbol == "" {
		p.Symbol = symbol
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}
