package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFloorToStep(t *testing.T) {
	testCases := []struct {
		name  string
		value float64
		step  float64
		want  float64
	}{
		{"이미 배수인 값은 그대로", 0.666, 0.001, 0.666},
		{"내림", 0.6666666666, 0.001, 0.666},
		{"절대 올림하지 않음", 0.6669999999, 0.001, 0.666},
		{"가격 틱 내림", 45123.47, 0.1, 45123.4},
		{"큰 스텝", 7.9, 0.5, 7.5},
		{"이진 표현 오차가 있는 스텝", 0.3, 0.1, 0.3},
		{"스텝 0이면 원래 값", 1.2345, 0, 1.2345},
		{"값 0이면 0", 0, 0.001, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, FloorToStep(tc.value, tc.step), 1e-12)
		})
	}
}

func TestIsMultipleOfStep(t *testing.T) {
	assert.True(t, IsMultipleOfStep(0.666, 0.001))
	assert.True(t, IsMultipleOfStep(0.3, 0.1), "이진 표현 오차에 흔들리면 안 됩니다")
	assert.False(t, IsMultipleOfStep(0.6665, 0.001))
	assert.False(t, IsMultipleOfStep(1.0, 0))
}

// 내림한 결과는 항상 원래 값 이하이고 스텝의 배수여야 합니다
func TestFloorToStepInvariants(t *testing.T) {
	values := []float64{0.000123, 0.1, 1.7, 33.333, 45000.05, 123456.789}
	steps := []float64{0.001, 0.01, 0.1, 0.5}

	for _, v := range values {
		for _, s := range steps {
			got := FloorToStep(v, s)
			assert.LessOrEqual(t, got, v)
			assert.True(t, IsMultipleOfStep(got, s),
				"FloorToStep(%v, %v) = %v가 배수가 아닙니다", v, s, got)
		}
	}
}
