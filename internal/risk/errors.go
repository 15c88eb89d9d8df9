package risk

import "fmt"

// 파생 계산 단계의 논리적 실패를 정의합니다.
// 시스템 장애가 아니라 실행 불가능한 제안을 뜻하므로 blocked로 처리됩니다.
var (
	ErrZeroRiskDistance    = fmt.Errorf("진입가와 손절가의 거리가 0입니다")
	ErrInvalidStopGeometry = fmt.Errorf("손절가가 진입 방향의 반대편에 있습니다")
)
