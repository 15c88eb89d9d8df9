// internal/metrics/metrics.go
// 봇이 운영 중 갱신하는 프로메테우스 지표:
//   - leviathan_decisions_total{decision}      – 최종 결정 수 (blocked|paper|live|failed)
//   - leviathan_guard_rejections_total{reason} – 가드 거부 수 (사유별)
//   - leviathan_order_fallbacks_total          – 보호 주문 실패 후 시장가 대체 횟수
//   - leviathan_unprotected_positions_total    – TP/SL 설정에 실패한 포지션 수
//   - leviathan_equity_usd                     – 최근 조회한 계정 자산 (게이지)
package metrics

import (
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	mtxDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leviathan_decisions_total",
			Help: "Proposal decisions by terminal state",
		},
		[]string{"decision"},
	)

	mtxGuardRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leviathan_guard_rejections_total",
			Help: "Execution guard rejections by reason",
		},
		[]string{"reason"},
	)

	mtxOrderFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "leviathan_order_fallbacks_total",
			Help: "Protected orders that fell back to plain market orders",
		},
	)

	mtxUnprotected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "leviathan_unprotected_positions_total",
			Help: "Positions entered without stop loss / take profit attached",
		},
	)

	mtxEquity = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "leviathan_equity_usd",
			Help: "Last observed account equity in USD",
		},
	)
)

func init() {
	prometheus.MustRegister(mtxDecisions, mtxGuardRejections, mtxOrderFallbacks, mtxUnprotected, mtxEquity)
}

// CountDecision은 최종 결정을 기록합니다
func CountDecision(decision string) {
	mtxDecisions.WithLabelValues(decision).Inc()
}

// CountGuardRejection은 가드 거부를 사유별로 기록합니다
func CountGuardRejection(reason string) {
	mtxGuardRejections.WithLabelValues(reason).Inc()
}

// CountOrderFallback은 시장가 대체 실행을 기록합니다
func CountOrderFallback() {
	mtxOrderFallbacks.Inc()
}

// CountUnprotectedPosition은 보호 주문 없는 포지션을 기록합니다
func CountUnprotectedPosition() {
	mtxUnprotected.Inc()
}

// SetEquity는 계정 자산 게이지를 갱신합니다
func SetEquity(usd float64) {
	mtxEquity.Set(usd)
}

// Serve는 /metrics 핸들러를 노출하는 HTTP 서버를 시작합니다
func Serve(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("메트릭 서버 종료: %v", err)
		}
	}()
}
