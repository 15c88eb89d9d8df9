package domain

import "github.com/shopspring/decimal"

// FloorToStep은 값을 step의 배수로 내림합니다.
// 올림은 허용 리스크 초과로 이어질 수 있어 항상 내림을 사용합니다.
// 부동소수점 스텝 연산의 오차를 피하기 위해 decimal로 계산합니다.
func FloorToStep(value, step float64) float64 {
	if step <= 0 || value <= 0 {
		return value
	}
	v := decimal.NewFromFloat(value)
	s := decimal.NewFromFloat(step)
	out, _ := v.Div(s).Floor().Mul(s).Float64()
	return out
}

// IsMultipleOfStep은 값이 step의 정확한 배수인지 확인합니다
func IsMultipleOfStep(value, step float64) bool {
	if step <= 0 {
		return false
	}
	v := decimal.NewFromFloat(value)
	s := decimal.NewFromFloat(step)
	return v.Mod(s).IsZero()
}
