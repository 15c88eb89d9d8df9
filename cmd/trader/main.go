package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	osSignal "os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/assist-by/leviathan/internal/config"
	"github.com/assist-by/leviathan/internal/domain"
	"github.com/assist-by/leviathan/internal/exchange/bybit"
	"github.com/assist-by/leviathan/internal/executor"
	"github.com/assist-by/leviathan/internal/instrument"
	"github.com/assist-by/leviathan/internal/journal"
	"github.com/assist-by/leviathan/internal/market"
	"github.com/assist-by/leviathan/internal/metrics"
	"github.com/assist-by/leviathan/internal/notification"
	"github.com/assist-by/leviathan/internal/notification/discord"
	"github.com/assist-by/leviathan/internal/risk"
	"github.com/assist-by/leviathan/internal/scheduler"
	"github.com/assist-by/leviathan/internal/signal"
	"github.com/assist-by/leviathan/internal/state"
)

// TradeTask는 분석 사이클 하나를 정의합니다: 심볼별로 시장 데이터를
// 수집하고, 제안을 받아, 실행기에 넘깁니다.
type TradeTask struct {
	cfg      *config.Config
	exchange *bybit.Client
	prices   *market.PriceCache
	source   signal.Source
	executor *executor.Executor
	notifier notification.Notifier
}

// Execute는 모든 설정된 심볼에 대해 사이클을 한 번 돕니다.
// 심볼 간에는 병렬로 진행하며, 심볼 내 직렬화는 실행기의 래치가 보장합니다.
func (t *TradeTask) Execute(ctx context.Context) error {
	var wg sync.WaitGroup
	for _, symbol := range t.cfg.App.Symbols {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			if err := t.runSymbol(ctx, symbol); err != nil {
				log.Printf("사이클 실패 [%s]: %v", symbol, err)
				if nErr := t.notifier.SendError(fmt.Errorf("사이클 실패 [%s]: %w", symbol, err)); nErr != nil {
					log.Printf("에러 알림 전송 실패: %v", nErr)
				}
			}
		}(symbol)
	}
	wg.Wait()
	return nil
}

func (t *TradeTask) runSymbol(ctx context.Context, symbol string) error {
	candles, err := t.exchange.GetKlines(ctx, symbol, t.cfg.App.CandleInterval, t.cfg.App.CandleLimit)
	if err != nil {
		return fmt.Errorf("캔들 조회 실패: %w", err)
	}

	lastPrice, err := t.prices.Price(ctx, symbol)
	if err != nil {
		return err
	}

	atr := market.ATR(candles, market.DefaultATRPeriod)
	if math.IsNaN(atr) {
		log.Printf("ATR 계산 불가 [%s]: 캔들 %d개, 1%% 대체 거리로 진행", symbol, len(candles))
	}

	proposal, err := t.source.Propose(ctx, signal.Snapshot{
		Symbol:    symbol,
		LastPrice: lastPrice,
		ATR:       atr,
		Candles:   candles,
	})
	if err != nil {
		return fmt.Errorf("제안 생성 실패: %w", err)
	}

	result, err := t.executor.Execute(ctx, proposal, lastPrice, atr)
	if err != nil {
		if errors.Is(err, executor.ErrSymbolBusy) {
			log.Printf("이전 사이클 진행 중이라 건너뜀 [%s]", symbol)
			return nil
		}
		return err
	}

	log.Printf("사이클 완료 [%s]: %s (사유: %s, 주문: %s)",
		symbol, result.Decision, result.Reason, result.OrderID)
	return nil
}

func main() {
	// 명령줄 플래그 정의
	dryrunFlag := flag.Bool("dryrun", false, "paper 모드 강제 + 고정 제안으로 파이프라인 점검")
	onceFlag := flag.Bool("once", false, "사이클 한 번만 실행하고 종료")
	flag.Parse()

	// 컨텍스트 생성
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 로그 설정
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("트레이딩 봇 시작...")

	// 설정 로드
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("설정 로드 실패: %v", err)
	}

	mode := cfg.Mode()
	if *dryrunFlag {
		mode = domain.PaperMode
		log.Println("드라이런: paper 모드로 강제 전환")
	}

	// Discord 클라이언트 생성
	var notifier notification.Notifier = discord.NewClient(
		cfg.Discord.TradeWebhook,
		cfg.Discord.AlertWebhook,
		cfg.Discord.ErrorWebhook,
		cfg.Discord.InfoWebhook,
		discord.WithTimeout(10*time.Second),
	)
	if *dryrunFlag {
		notifier = notification.Nop{}
	}

	// 시작 알림 전송
	if err := notifier.SendInfo(fmt.Sprintf("🐋 트레이딩 봇이 시작되었습니다. (모드: %s)", mode)); err != nil {
		log.Printf("시작 알림 전송 실패: %v", err)
	}
	if mode == domain.LiveMode {
		if err := notifier.SendInfo("⚠️ 실거래 모드로 실행 중입니다. 실제 자산이 사용됩니다!"); err != nil {
			log.Printf("알림 전송 실패: %v", err)
		}
	}

	// 바이비트 클라이언트 생성
	bybitClient := bybit.NewClient(
		cfg.Bybit.APIKey,
		cfg.Bybit.SecretKey,
		bybit.WithTimeout(10*time.Second),
		bybit.WithTestnet(cfg.Bybit.UseTestnet),
	)

	// 바이비트 서버와 시간 동기화
	if err := bybitClient.SyncTime(ctx); err != nil {
		log.Printf("바이비트 서버 시간 동기화 실패: %v", err)
		if err := notifier.SendError(fmt.Errorf("바이비트 서버 시간 동기화 실패: %w", err)); err != nil {
			log.Printf("에러 알림 전송 실패: %v", err)
		}
		os.Exit(1)
	}

	// 가격 캐시 시작 (웹소켓 스트림 + REST 대체)
	var priceOpts []market.PriceCacheOption
	if cfg.Bybit.UseTestnet {
		priceOpts = append(priceOpts, market.WithTestnetStream())
	}
	prices := market.NewPriceCache(bybitClient, cfg.App.Symbols, priceOpts...)
	prices.Start(ctx)

	// 저널과 상태 저장소
	journalWriter, err := journal.NewWriter(cfg.App.JournalFile)
	if err != nil {
		log.Fatalf("저널 열기 실패: %v", err)
	}
	defer journalWriter.Close()

	stateStore := state.NewStore(cfg.App.StateFile)
	if st, err := stateStore.Load(); err != nil {
		log.Fatalf("상태 파일 로드 실패: %v", err)
	} else if st.InPosition {
		log.Printf("이전 포지션 복원: %s, 수량 %.8f, 진입가 %.4f",
			*st.PositionSide, st.Quantity, st.EntryPrice)
	}

	// 실행 가드
	guard := risk.NewGuard(risk.GuardConfig{
		MinConfidence:    cfg.Trading.MinConfidence,
		MaxNotionalUSD:   cfg.Trading.MaxNotionalUSD,
		MaxDailyTrades:   cfg.Trading.MaxDailyTrades,
		Cooldown:         time.Duration(cfg.Trading.CooldownMs) * time.Millisecond,
		MaxOpenPositions: cfg.Trading.MaxOpenPositionsPerSymbol,
		MaxATRPercent:    cfg.Trading.MaxATRPercent,
	})
	guard.SetKillSwitch(cfg.Trading.KillSwitch)

	// 실행기 조립
	exec := executor.New(
		bybitClient,
		instrument.NewRules(bybitClient),
		guard,
		journalWriter,
		stateStore,
		notifier,
		executor.Config{
			Mode:            mode,
			RiskPerTradePct: cfg.Trading.RiskPerTradePct,
			SlippageBps:     cfg.Trading.SlippageBps,
			Stops: risk.StopConfig{
				SLMultiplier: cfg.Trading.ATRSLMultiplier,
				TPMultiplier: cfg.Trading.ATRTPMultiplier,
			},
		},
	)

	// 제안 소스: 기본은 Gemini, 드라이런은 고정 제안으로 파이프라인만 점검
	var source signal.Source
	if *dryrunFlag {
		source = &signal.Static{
			Proposal: &domain.TradeProposal{
				Side:       domain.SideBuy,
				Confidence: 0.8,
				Entry:      &domain.Entry{Type: domain.EntryMarket},
				Rationale:  "드라이런 점검용 고정 제안",
			},
		}
	} else {
		if cfg.Gemini.APIKey == "" {
			log.Fatalf("GEMINI_API_KEY가 설정되지 않았습니다")
		}
		source = signal.NewGemini(cfg.Gemini.APIKey, signal.WithModel(cfg.Gemini.Model))
	}

	// 메트릭 서버 (주소가 설정된 경우에만)
	if cfg.App.MetricsAddr != "" {
		metrics.Serve(cfg.App.MetricsAddr)
		log.Printf("메트릭 서버 시작: %s", cfg.App.MetricsAddr)
	}

	task := &TradeTask{
		cfg:      cfg,
		exchange: bybitClient,
		prices:   prices,
		source:   source,
		executor: exec,
		notifier: notifier,
	}

	// 단발 실행 모드
	if *onceFlag {
		if err := task.Execute(ctx); err != nil {
			log.Fatalf("사이클 실행 실패: %v", err)
		}
		log.Println("단발 실행 완료, 프로그램을 종료합니다.")
		return
	}

	// 스케줄러 생성 (fetchInterval)
	sched := scheduler.NewScheduler(cfg.App.FetchInterval, task)

	// 시그널 처리
	sigChan := make(chan os.Signal, 1)
	osSignal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// 스케줄러 시작
	go func() {
		if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("스케줄러 실행 중 에러 발생: %v", err)
			if err := notifier.SendError(err); err != nil {
				log.Printf("에러 알림 전송 실패: %v", err)
			}
		}
	}()

	// 시그널 대기
	sig := <-sigChan
	log.Printf("시스템 종료 신호 수신: %v", sig)

	// 스케줄러 중지
	sched.Stop()
	cancel()

	// 종료 알림 전송
	if err := notifier.SendInfo("👋 트레이딩 봇이 정상적으로 종료되었습니다."); err != nil {
		log.Printf("종료 알림 전송 실패: %v", err)
	}

	log.Println("프로그램을 종료합니다.")
}
