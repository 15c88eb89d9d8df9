package executor

import "fmt"

// ExecError는 실행 파이프라인의 에러에 심볼과 작업 컨텍스트를 붙입니다
type ExecError struct {
	Symbol string
	Op     string
	Err    error
}

// Error는 error 인터페이스를 구현합니다
func (e *ExecError) Error() string {
	if e.Symbol != "" {
		return fmt.Sprintf("실행 에러 [%s, 작업: %s]: %v", e.Symbol, e.Op, e.Err)
	}
	return fmt.Sprintf("실행 에러 [작업: %s]: %v", e.Op, e.Err)
}

// Unwrap은 내부 에러를 반환합니다 (errors.Is/As 지원을 위함)
func (e *ExecError) Unwrap() error {
	return e.Err
}

// NewExecError는 새로운 ExecError를 생성합니다
func NewExecError(symbol, op string, err error) *ExecError {
	return &ExecError{
		Symbol: symbol,
		Op:     op,
		Err:    err,
	}
}

// ErrSymbolBusy는 동일 심볼의 이전 사이클이 끝나지 않았음을 나타냅니다
var ErrSymbolBusy = fmt.Errorf("이전 분석 사이클이 아직 진행 중입니다")
