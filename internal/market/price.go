// internal/market/price.go
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/assist-by/leviathan/internal/exchange"
)

const (
	// 바이비트 v5 선물 공개 스트림
	mainnetStreamURL = "wss://stream.bybit.com/v5/public/linear"
	testnetStreamURL = "wss://stream-testnet.bybit.com/v5/public/linear"

	// 이 시간보다 오래된 캐시 가격은 신선하지 않은 것으로 간주합니다
	priceStaleAfter = 10 * time.Second

	// 바이비트는 20초마다 ping을 요구합니다
	pingInterval = 20 * time.Second

	maxReconnectDelay = 30 * time.Second
)

type cachedPrice struct {
	price float64
	at    time.Time
}

// PriceCache는 웹소켓 티커 스트림으로 심볼별 최신 가격을 유지합니다.
// 스트림이 끊기거나 가격이 오래되면 REST 조회로 대체합니다.
type PriceCache struct {
	ex        exchange.Exchange
	streamURL string
	symbols   []string

	mu     sync.RWMutex
	prices map[string]cachedPrice
}

// PriceCacheOption은 가격 캐시 옵션을 정의합니다
type PriceCacheOption func(*PriceCache)

// WithTestnetStream은 테스트넷 스트림을 사용합니다
func WithTestnetStream() PriceCacheOption {
	return func(p *PriceCache) {
		p.streamURL = testnetStreamURL
	}
}

// NewPriceCache는 새로운 가격 캐시를 생성합니다
func NewPriceCache(ex exchange.Exchange, symbols []string, opts ...PriceCacheOption) *PriceCache {
	p := &PriceCache{
		ex:        ex,
		streamURL: mainnetStreamURL,
		symbols:   symbols,
		prices:    make(map[string]cachedPrice),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start는 스트림 구독 루프를 시작합니다. 컨텍스트 취소 시 종료합니다.
func (p *PriceCache) Start(ctx context.Context) {
	go p.run(ctx)
}

// Price는 심볼의 최신 가격을 반환합니다.
// 캐시가 신선하면 캐시를, 아니면 REST 조회 결과를 돌려줍니다.
func (p *PriceCache) Price(ctx context.Context, symbol string) (float64, error) {
	p.mu.RLock()
	cached, ok := p.prices[symbol]
	p.mu.RUnlock()

	if ok && time.Since(cached.at) < priceStaleAfter {
		return cached.price, nil
	}

	price, err := p.ex.GetLastPrice(ctx, symbol)
	if err != nil {
		return 0, fmt.Errorf("현재가 조회 실패 (%s): %w", symbol, err)
	}
	p.set(symbol, price)
	return price, nil
}

func (p *PriceCache) set(symbol string, price float64) {
	p.mu.Lock()
	p.prices[symbol] = cachedPrice{price: price, at: time.Now()}
	p.mu.Unlock()
}

func (p *PriceCache) run(ctx context.Context) {
	delay := time.Second
	for {
		if ctx.Err() != nil {
			return
		}

		if err := p.streamOnce(ctx); err != nil && ctx.Err() == nil {
			log.Printf("티커 스트림 끊김, %v 후 재연결: %v", delay, err)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		delay *= 2
		if delay > maxReconnectDelay {
			delay = maxReconnectDelay
		}
	}
}

// 스트림 메시지 형식
type wsRequest struct {
	Op   string   `json:"op"`
	Args []string `json:"args,omitempty"`
}

type wsTickerMessage struct {
	Topic string `json:"topic"`
	Data  struct {
		Symbol    string `json:"symbol"`
		LastPrice string `json:"lastPrice"`
	} `json:"data"`
}

func (p *PriceCache) streamOnce(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, p.streamURL, nil)
	if err != nil {
		return fmt.Errorf("웹소켓 연결 실패: %w", err)
	}
	defer conn.Close()

	args := make([]string, 0, len(p.symbols))
	for _, symbol := range p.symbols {
		args = append(args, "tickers."+symbol)
	}
	if err := conn.WriteJSON(wsRequest{Op: "subscribe", Args: args}); err != nil {
		return fmt.Errorf("티커 구독 실패: %w", err)
	}
	log.Printf("티커 스트림 구독: %v", args)

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				conn.Close()
				return
			case <-ticker.C:
				if err := conn.WriteJSON(wsRequest{Op: "ping"}); err != nil {
					conn.Close()
					return
				}
			}
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("스트림 수신 실패: %w", err)
		}

		var msg wsTickerMessage
		if err := json.Unmarshal(raw, &msg); err != nil || msg.Data.LastPrice == "" {
			continue // 구독 확인, pong 등의 제어 메시지
		}

		price, err := strconv.ParseFloat(msg.Data.LastPrice, 64)
		if err != nil || price <= 0 {
			continue
		}
		p.set(msg.Data.Symbol, price)
	}
}
