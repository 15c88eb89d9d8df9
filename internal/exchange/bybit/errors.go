package bybit

import (
	"errors"
	"fmt"
	"net"
)

// 재시도 판단에 쓰이는 바이비트 에러 코드
const (
	codeRateLimit    = 10006 // 요청 한도 초과
	codeTimeout      = 10016 // 서버 내부 타임아웃
	codeServiceError = 10002 // 요청 처리 불가
)

// transportError는 HTTP 전송 단계의 실패를 나타냅니다
type transportError struct {
	err error
}

func (e *transportError) Error() string {
	return fmt.Sprintf("API 요청 실패: %v", e.err)
}

func (e *transportError) Unwrap() error { return e.err }

// httpError는 200이 아닌 HTTP 응답을 나타냅니다
type httpError struct {
	status int
	body   string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("HTTP 에러(%d): %s", e.status, e.body)
}

// apiError는 retCode가 0이 아닌 응답을 나타냅니다
type apiError struct {
	code    int
	message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("API 에러(코드: %d): %s", e.code, e.message)
}

// isRetryable은 일시적 오류 여부를 판단합니다.
// 읽기 전용 GET 호출에만 적용되며 주문류 호출은 이 판단을 거치지 않습니다.
func isRetryable(err error) bool {
	var tErr *transportError
	if errors.As(err, &tErr) {
		var netErr net.Error
		if errors.As(tErr.err, &netErr) {
			return netErr.Timeout()
		}
		return true
	}

	var hErr *httpError
	if errors.As(err, &hErr) {
		return hErr.status >= 500 || hErr.status == 429
	}

	var aErr *apiError
	if errors.As(err, &aErr) {
		switch aErr.code {
		case codeRateLimit, codeTimeout, codeServiceError:
			return true
		}
	}

	return false
}
