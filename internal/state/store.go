// internal/state/store.go
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/assist-by/leviathan/internal/domain"
)

// TradeState는 프로세스 재시작을 넘어 유지되는 포지션 기록입니다.
// 분석 사이클 사이에 "포지션에 들어가 있는가"를 판단하는 단일 기준이며,
// 항상 레코드 전체를 교체하는 방식으로만 기록합니다.
type TradeState struct {
	InPosition   bool                 `json:"inPosition"`
	PositionSide *domain.PositionSide `json:"positionSide"`
	EntryPrice   float64              `json:"entryPrice"`
	Quantity     float64              `json:"quantity"`
	OrderID      *string              `json:"orderId"`
}

// Flat은 포지션이 없는 기본 상태를 반환합니다
func Flat() TradeState {
	return TradeState{}
}

// Store는 거래 상태 파일의 단일 기록자입니다.
// TradeExecutor만 기록해야 하며, 쓰기는 임시 파일 + rename으로 원자적입니다.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore는 새로운 상태 저장소를 생성합니다
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load는 상태를 읽어옵니다. 파일이 없으면 기본(무포지션) 상태를 반환합니다.
func (s *Store) Load() (TradeState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Flat(), nil
		}
		return TradeState{}, fmt.Errorf("상태 파일 읽기 실패: %w", err)
	}

	var st TradeState
	if err := json.Unmarshal(raw, &st); err != nil {
		return TradeState{}, fmt.Errorf("상태 파일 파싱 실패: %w", err)
	}
	return st, nil
}

// Save는 상태 전체를 원자적으로 교체합니다
func (s *Store) Save(st TradeState) error {
	raw, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("상태 인코딩 실패: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := writeFileAtomic(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("상태 파일 기록 실패: %w", err)
	}
	return nil
}

// Clear는 무포지션 상태로 되돌립니다
func (s *Store) Clear() error {
	return s.Save(Flat())
}
