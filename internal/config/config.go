package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/assist-by/leviathan/internal/domain"
)

type Config struct {
	// 바이비트 API 설정
	Bybit struct {
		APIKey     string `envconfig:"BYBIT_API_KEY"`
		SecretKey  string `envconfig:"BYBIT_SECRET_KEY"`
		UseTestnet bool   `envconfig:"USE_TESTNET" default:"false"`
	}

	// Gemini API 설정
	Gemini struct {
		APIKey string `envconfig:"GEMINI_API_KEY"`
		Model  string `envconfig:"GEMINI_MODEL" default:"gemini-2.5-flash"`
	}

	// 디스코드 웹훅 설정
	Discord struct {
		TradeWebhook string `envconfig:"DISCORD_TRADE_WEBHOOK"`
		AlertWebhook string `envconfig:"DISCORD_ALERT_WEBHOOK"`
		ErrorWebhook string `envconfig:"DISCORD_ERROR_WEBHOOK"`
		InfoWebhook  string `envconfig:"DISCORD_INFO_WEBHOOK"`
	}

	// 애플리케이션 설정
	App struct {
		Symbols        []string      `envconfig:"SYMBOLS" default:"BTCUSDT"`
		FetchInterval  time.Duration `envconfig:"FETCH_INTERVAL" default:"15m"`
		CandleInterval string        `envconfig:"CANDLE_INTERVAL" default:"15"`
		CandleLimit    int           `envconfig:"CANDLE_LIMIT" default:"100"`
		MetricsAddr    string        `envconfig:"METRICS_ADDR" default:""`
		StateFile      string        `envconfig:"STATE_FILE" default:"trade_state.json"`
		JournalFile    string        `envconfig:"JOURNAL_FILE" default:"trade_journal.ndjsonl"`
	}

	// 거래 설정
	Trading struct {
		Mode                      string  `envconfig:"MODE" default:"paper"`
		RiskPerTradePct           float64 `envconfig:"RISK_PER_TRADE_PCT" default:"0.5"`
		MinConfidence             float64 `envconfig:"MIN_CONFIDENCE" default:"0.65"`
		MaxNotionalUSD            float64 `envconfig:"MAX_NOTIONAL_USD" default:"10000"`
		MaxDailyTrades            int     `envconfig:"MAX_DAILY_TRADES" default:"10"`
		CooldownMs                int64   `envconfig:"COOLDOWN_MS" default:"600000"`
		MaxOpenPositionsPerSymbol int     `envconfig:"MAX_OPEN_POSITIONS_PER_SYMBOL" default:"1"`
		MaxATRPercent             float64 `envconfig:"MAX_ATR_PERCENT" default:"5"`
		SlippageBps               int     `envconfig:"SLIPPAGE_BPS" default:"10"`
		ATRSLMultiplier           float64 `envconfig:"ATR_SL_MULTIPLIER" default:"1.5"`
		ATRTPMultiplier           float64 `envconfig:"ATR_TP_MULTIPLIER" default:"2.5"`
		KillSwitch                bool    `envconfig:"KILL_SWITCH" default:"false"`
	}
}

// Mode는 거래 설정의 실행 모드를 반환합니다
func (c *Config) Mode() domain.TradeMode {
	return domain.TradeMode(strings.ToLower(c.Trading.Mode))
}

// ValidateConfig는 설정이 유효한지 확인합니다.
func ValidateConfig(cfg *Config) error {
	switch cfg.Mode() {
	case domain.PaperMode, domain.LiveMode:
	default:
		return fmt.Errorf("MODE는 paper 또는 live여야 합니다: %q", cfg.Trading.Mode)
	}

	// 실거래는 API 키와 운영자 채널 없이는 시작을 거부합니다
	if cfg.Mode() == domain.LiveMode {
		if cfg.Bybit.APIKey == "" || cfg.Bybit.SecretKey == "" {
			return fmt.Errorf("live 모드에는 BYBIT_API_KEY와 BYBIT_SECRET_KEY가 필요합니다")
		}
		if cfg.Discord.TradeWebhook == "" || cfg.Discord.AlertWebhook == "" {
			return fmt.Errorf("live 모드에는 DISCORD_TRADE_WEBHOOK과 DISCORD_ALERT_WEBHOOK이 필요합니다")
		}
	}

	if len(cfg.App.Symbols) == 0 {
		return fmt.Errorf("SYMBOLS에 심볼이 하나 이상 필요합니다")
	}

	if cfg.App.FetchInterval < 1*time.Minute {
		return fmt.Errorf("FETCH_INTERVAL은 1분 이상이어야 합니다")
	}

	if cfg.App.CandleLimit < 30 {
		return fmt.Errorf("CANDLE_LIMIT은 30 이상이어야 합니다")
	}

	if cfg.Trading.RiskPerTradePct <= 0 || cfg.Trading.RiskPerTradePct > 5 {
		return fmt.Errorf("RISK_PER_TRADE_PCT는 0 초과 5 이하이어야 합니다")
	}

	if cfg.Trading.MinConfidence < 0 || cfg.Trading.MinConfidence > 1 {
		return fmt.Errorf("MIN_CONFIDENCE는 0 이상 1 이하이어야 합니다")
	}

	if cfg.Trading.SlippageBps < 0 || cfg.Trading.SlippageBps > 500 {
		return fmt.Errorf("SLIPPAGE_BPS는 0 이상 500 이하이어야 합니다")
	}

	if cfg.Trading.ATRSLMultiplier <= 0 || cfg.Trading.ATRTPMultiplier <= 0 {
		return fmt.Errorf("ATR 배수는 0보다 커야 합니다")
	}

	return nil
}

// LoadConfig는 환경변수에서 설정을 로드합니다.
func LoadConfig() (*Config, error) {
	// .env 파일은 없어도 됩니다 (운영 환경은 실제 환경변수 사용)
	_ = godotenv.Load()

	var cfg Config
	// 환경변수를 구조체로 파싱
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("환경변수 처리 실패: %w", err)
	}

	// 설정값 검증
	if err := ValidateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("설정값 검증 실패: %w", err)
	}

	return &cfg, nil
}
