package domain

import "time"

// Candle은 캔들 하나의 OHLCV 데이터를 표현합니다
type Candle struct {
	OpenTime  time.Time // 캔들 시작 시간
	CloseTime time.Time // 캔들 종료 시간
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	Symbol    string
	Interval  string // 바이비트 v5 interval 표기 (예: "15", "60", "D")
}

// CandleList는 시간 오름차순으로 정렬된 캔들 목록입니다
type CandleList []Candle

// Last는 가장 최근 캔들을 반환합니다
func (cl CandleList) Last() *Candle {
	if len(cl) == 0 {
		return nil
	}
	return &cl[len(cl)-1]
}
