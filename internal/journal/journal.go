// internal/journal/journal.go
package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/assist-by/leviathan/internal/domain"
)

// Entry는 제안 하나의 최종 결정을 기록합니다.
// 기록 후에는 절대 수정하거나 삭제하지 않습니다.
type Entry struct {
	ID        string                 `json:"id"`
	Timestamp time.Time              `json:"timestamp"`
	Decision  domain.DecisionKind    `json:"decision"`
	Symbol    string                 `json:"symbol"`
	Side      domain.Side            `json:"side"`
	Plan      *domain.SizedOrderPlan `json:"plan,omitempty"`
	Reason    string                 `json:"reason,omitempty"`
	OrderID   string                 `json:"orderId,omitempty"`
}

// Writer는 결정 저널을 NDJSON으로 추가 기록합니다.
// 코어는 이 파일을 절대 다시 읽지 않습니다. 소비자는 운영자와 대시보드입니다.
type Writer struct {
	mu   sync.Mutex
	file *os.File
}

// NewWriter는 저널 파일을 열거나 생성합니다
func NewWriter(path string) (*Writer, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("저널 파일 열기 실패: %w", err)
	}
	return &Writer{file: file}, nil
}

// Append는 엔트리 한 줄을 기록합니다
func (w *Writer) Append(entry Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("저널 엔트리 인코딩 실패: %w", err)
	}
	line = append(line, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.file.Write(line); err != nil {
		return fmt.Errorf("저널 기록 실패: %w", err)
	}
	return w.file.Sync()
}

// Close는 저널 파일을 닫습니다
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}
