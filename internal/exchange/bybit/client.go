// internal/exchange/bybit/client.go
package bybit

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/assist-by/leviathan/internal/domain"
	"github.com/assist-by/leviathan/internal/exchange"
)

const recvWindow = "5000"

// RetryConfig는 읽기 전용 호출의 재시도 설정을 정의합니다
type RetryConfig struct {
	MaxRetries int           // 최대 재시도 횟수
	BaseDelay  time.Duration // 기본 대기 시간
	Factor     float64       // 대기 시간 증가 계수
}

// Client는 바이비트 v5 API 클라이언트를 구현합니다
type Client struct {
	apiKey           string
	secretKey        string
	baseURL          string
	httpClient       *http.Client
	retry            RetryConfig
	serverTimeOffset int64 // 서버 시간과의 차이 (ms)
	mu               sync.RWMutex
}

// ClientOption은 클라이언트 생성 옵션을 정의합니다
type ClientOption func(*Client)

// WithTimeout은 HTTP 클라이언트의 타임아웃을 설정합니다
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithBaseURL은 기본 URL을 설정합니다
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithTestnet은 테스트넷 사용 여부를 설정합니다
func WithTestnet(useTestnet bool) ClientOption {
	return func(c *Client) {
		if useTestnet {
			c.baseURL = "https://api-testnet.bybit.com"
		} else {
			c.baseURL = "https://api.bybit.com"
		}
	}
}

// WithRetryConfig는 읽기 전용 호출의 재시도 설정을 지정합니다
func WithRetryConfig(retry RetryConfig) ClientOption {
	return func(c *Client) {
		c.retry = retry
	}
}

// NewClient는 새로운 바이비트 API 클라이언트를 생성합니다
func NewClient(apiKey, secretKey string, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:     apiKey,
		secretKey:  secretKey,
		baseURL:    "https://api.bybit.com",
		httpClient: &http.Client{Timeout: 10 * time.Second},
		retry: RetryConfig{
			MaxRetries: 3,
			BaseDelay:  1 * time.Second,
			Factor:     2.0,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// apiResponse는 바이비트 v5 공통 응답 형식입니다
type apiResponse struct {
	RetCode int             `json:"retCode"`
	RetMsg  string          `json:"retMsg"`
	Result  json.RawMessage `json:"result"`
}

// sign은 요청에 대한 HMAC-SHA256 서명을 생성합니다.
// v5 규칙: timestamp + apiKey + recvWindow + (쿼리스트링 또는 바디)
func (c *Client) sign(timestamp, payload string) string {
	h := hmac.New(sha256.New, []byte(c.secretKey))
	h.Write([]byte(timestamp + c.apiKey + recvWindow + payload))
	return hex.EncodeToString(h.Sum(nil))
}

// serverNow는 오프셋을 반영한 서버 시간을 반환합니다 (ms)
func (c *Client) serverNow() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Now().UnixMilli() + c.serverTimeOffset
}

// doGet은 GET 요청을 실행하고 result 필드를 반환합니다.
// 멱등한 조회이므로 일시적 오류에 대해 지수 백오프로 재시도합니다.
func (c *Client) doGet(ctx context.Context, endpoint string, params url.Values, needSign bool) (json.RawMessage, error) {
	var lastErr error
	delay := c.retry.BaseDelay

	for attempt := 0; attempt <= c.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * c.retry.Factor)
		}

		result, err := c.doRequest(ctx, http.MethodGet, endpoint, params, nil, needSign)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !isRetryable(err) {
			return nil, err
		}
		log.Printf("바이비트 조회 재시도 (%d/%d) [%s]: %v", attempt+1, c.retry.MaxRetries, endpoint, err)
	}

	return nil, fmt.Errorf("%w: %v", exchange.ErrUnavailable, lastErr)
}

// doPost는 POST 요청을 한 번만 실행합니다. 주문류 호출은 재시도하지 않습니다.
func (c *Client) doPost(ctx context.Context, endpoint string, body any) (json.RawMessage, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("요청 바디 인코딩 실패: %w", err)
	}
	return c.doRequest(ctx, http.MethodPost, endpoint, nil, encoded, true)
}

// doRequest는 HTTP 요청을 실행하고 result 필드를 반환합니다
func (c *Client) doRequest(ctx context.Context, method, endpoint string, params url.Values, body []byte, needSign bool) (json.RawMessage, error) {
	reqURL, err := url.Parse(c.baseURL + endpoint)
	if err != nil {
		return nil, fmt.Errorf("URL 파싱 실패: %w", err)
	}

	query := ""
	if params != nil {
		query = params.Encode()
		reqURL.RawQuery = query
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("요청 생성 실패: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if needSign {
		timestamp := strconv.FormatInt(c.serverNow(), 10)
		payload := query
		if body != nil {
			payload = string(body)
		}
		req.Header.Set("X-BAPI-API-KEY", c.apiKey)
		req.Header.Set("X-BAPI-TIMESTAMP", timestamp)
		req.Header.Set("X-BAPI-RECV-WINDOW", recvWindow)
		req.Header.Set("X-BAPI-SIGN", c.sign(timestamp, payload))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &transportError{err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &transportError{err: fmt.Errorf("응답 읽기 실패: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &httpError{status: resp.StatusCode, body: string(raw)}
	}

	var api apiResponse
	if err := json.Unmarshal(raw, &api); err != nil {
		return nil, fmt.Errorf("응답 파싱 실패: %w", err)
	}
	if api.RetCode != 0 {
		return nil, &apiError{code: api.RetCode, message: api.RetMsg}
	}

	return api.Result, nil
}

// GetInstrumentInfo는 심볼의 거래 단위 정보를 조회합니다
func (c *Client) GetInstrumentInfo(ctx context.Context, symbol string) (*domain.InstrumentSpec, error) {
	params := url.Values{}
	params.Add("category", "linear")
	params.Add("symbol", symbol)

	resp, err := c.doGet(ctx, "/v5/market/instruments-info", params, false)
	if err != nil {
		return nil, fmt.Errorf("심볼 정보 조회 실패: %w", err)
	}

	var result struct {
		List []struct {
			Symbol      string `json:"symbol"`
			PriceFilter struct {
				TickSize string `json:"tickSize"`
			} `json:"priceFilter"`
			LotSizeFilter struct {
				QtyStep     string `json:"qtyStep"`
				MinOrderQty string `json:"minOrderQty"`
			} `json:"lotSizeFilter"`
		} `json:"list"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("심볼 정보 파싱 실패: %w", err)
	}
	if len(result.List) == 0 {
		return nil, fmt.Errorf("심볼 정보를 찾을 수 없음: %s", symbol)
	}

	item := result.List[0]
	tickSize, _ := strconv.ParseFloat(item.PriceFilter.TickSize, 64)
	qtyStep, _ := strconv.ParseFloat(item.LotSizeFilter.QtyStep, 64)
	minQty, _ := strconv.ParseFloat(item.LotSizeFilter.MinOrderQty, 64)

	return &domain.InstrumentSpec{
		Symbol:    symbol,
		PriceTick: tickSize,
		QtyStep:   qtyStep,
		MinQty:    minQty,
	}, nil
}

// GetLastPrice는 심볼의 최근 체결가를 조회합니다
func (c *Client) GetLastPrice(ctx context.Context, symbol string) (float64, error) {
	params := url.Values{}
	params.Add("category", "linear")
	params.Add("symbol", symbol)

	resp, err := c.doGet(ctx, "/v5/market/tickers", params, false)
	if err != nil {
		return 0, fmt.Errorf("현재가 조회 실패: %w", err)
	}

	var result struct {
		List []struct {
			LastPrice string `json:"lastPrice"`
		} `json:"list"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return 0, fmt.Errorf("현재가 파싱 실패: %w", err)
	}
	if len(result.List) == 0 {
		return 0, fmt.Errorf("현재가 정보를 찾을 수 없음: %s", symbol)
	}

	price, err := strconv.ParseFloat(result.List[0].LastPrice, 64)
	if err != nil {
		return 0, fmt.Errorf("현재가 변환 실패: %w", err)
	}
	return price, nil
}

// GetKlines는 캔들 데이터를 조회합니다.
// 바이비트는 최신 캔들부터 내려주므로 시간 오름차순으로 뒤집어 반환합니다.
func (c *Client) GetKlines(ctx context.Context, symbol, interval string, limit int) (domain.CandleList, error) {
	params := url.Values{}
	params.Add("category", "linear")
	params.Add("symbol", symbol)
	params.Add("interval", interval)
	params.Add("limit", strconv.Itoa(limit))

	resp, err := c.doGet(ctx, "/v5/market/kline", params, false)
	if err != nil {
		return nil, fmt.Errorf("캔들 데이터 조회 실패: %w", err)
	}

	var result struct {
		List [][]string `json:"list"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("캔들 데이터 파싱 실패: %w", err)
	}

	candles := make(domain.CandleList, 0, len(result.List))
	for i := len(result.List) - 1; i >= 0; i-- {
		raw := result.List[i]
		if len(raw) < 6 {
			continue
		}
		startMs, _ := strconv.ParseInt(raw[0], 10, 64)
		open, _ := strconv.ParseFloat(raw[1], 64)
		high, _ := strconv.ParseFloat(raw[2], 64)
		low, _ := strconv.ParseFloat(raw[3], 64)
		closePrice, _ := strconv.ParseFloat(raw[4], 64)
		volume, _ := strconv.ParseFloat(raw[5], 64)

		candles = append(candles, domain.Candle{
			OpenTime: time.Unix(0, startMs*int64(time.Millisecond)),
			Open:     open,
			High:     high,
			Low:      low,
			Close:    closePrice,
			Volume:   volume,
			Symbol:   symbol,
			Interval: interval,
		})
	}

	return candles, nil
}

// GetPositions는 심볼의 열린 포지션을 조회합니다
func (c *Client) GetPositions(ctx context.Context, symbol string) ([]domain.Position, error) {
	params := url.Values{}
	params.Add("category", "linear")
	params.Add("symbol", symbol)

	resp, err := c.doGet(ctx, "/v5/position/list", params, true)
	if err != nil {
		return nil, fmt.Errorf("포지션 조회 실패: %w", err)
	}

	var result struct {
		List []struct {
			Symbol        string `json:"symbol"`
			Side          string `json:"side"`
			Size          string `json:"size"`
			AvgPrice      string `json:"avgPrice"`
			UnrealisedPnl string `json:"unrealisedPnl"`
		} `json:"list"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("포지션 데이터 파싱 실패: %w", err)
	}

	// 수량이 0이 아닌 포지션만 반환
	var positions []domain.Position
	for _, p := range result.List {
		size, _ := strconv.ParseFloat(p.Size, 64)
		if size == 0 || p.Side == "" {
			continue
		}
		entryPrice, _ := strconv.ParseFloat(p.AvgPrice, 64)
		pnl, _ := strconv.ParseFloat(p.UnrealisedPnl, 64)

		positions = append(positions, domain.Position{
			Symbol:        p.Symbol,
			Side:          domain.PositionSide(p.Side),
			Size:          size,
			EntryPrice:    entryPrice,
			UnrealizedPnL: pnl,
		})
	}

	return positions, nil
}

// GetWalletBalance는 통합 계정 잔고를 조회합니다
func (c *Client) GetWalletBalance(ctx context.Context) (*domain.WalletBalance, error) {
	params := url.Values{}
	params.Add("accountType", "UNIFIED")

	resp, err := c.doGet(ctx, "/v5/account/wallet-balance", params, true)
	if err != nil {
		return nil, fmt.Errorf("잔고 조회 실패: %w", err)
	}

	var result struct {
		List []struct {
			TotalEquity           string `json:"totalEquity"`
			TotalAvailableBalance string `json:"totalAvailableBalance"`
		} `json:"list"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("잔고 파싱 실패: %w", err)
	}
	if len(result.List) == 0 {
		return nil, fmt.Errorf("계정 잔고 정보가 없습니다")
	}

	equity, _ := strconv.ParseFloat(result.List[0].TotalEquity, 64)
	available, _ := strconv.ParseFloat(result.List[0].TotalAvailableBalance, 64)

	return &domain.WalletBalance{
		TotalEquityUSD: equity,
		AvailableUSD:   available,
	}, nil
}

// PlaceOrder는 새로운 주문을 생성합니다.
// 주문 생성은 멱등하지 않으므로 어떤 실패에도 자동 재시도하지 않습니다.
// 거래소 측 중복 제거는 orderLinkId에 의존합니다 (외부 계약).
func (c *Client) PlaceOrder(ctx context.Context, order domain.OrderRequest) (*domain.OrderResponse, error) {
	body := map[string]any{
		"category":  "linear",
		"symbol":    order.Symbol,
		"side":      string(order.Side),
		"orderType": string(order.Type),
		"qty":       strconv.FormatFloat(order.Quantity, 'f', -1, 64),
	}

	if order.Type == domain.Limit {
		body["price"] = strconv.FormatFloat(order.Price, 'f', -1, 64)
		if order.TimeInForce != "" {
			body["timeInForce"] = order.TimeInForce
		} else {
			body["timeInForce"] = domain.GTC
		}
	}
	if order.ClientOrderID != "" {
		body["orderLinkId"] = order.ClientOrderID
	}
	if order.ReduceOnly {
		body["reduceOnly"] = true
	}

	resp, err := c.doPost(ctx, "/v5/order/create", body)
	if err != nil {
		return nil, fmt.Errorf("주문 실행 실패 [심볼: %s, 타입: %s, 수량: %.8f]: %w",
			order.Symbol, order.Type, order.Quantity, err)
	}

	var result struct {
		OrderID     string `json:"orderId"`
		OrderLinkID string `json:"orderLinkId"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("주문 응답 파싱 실패: %w", err)
	}

	return &domain.OrderResponse{
		OrderID:       result.OrderID,
		ClientOrderID: result.OrderLinkID,
	}, nil
}

// SetTradingStop은 포지션에 손절/익절 가격을 설정합니다.
// 주문류 호출과 동일하게 자동 재시도하지 않습니다.
func (c *Client) SetTradingStop(ctx context.Context, symbol string, stopLoss, takeProfit float64) error {
	body := map[string]any{
		"category":    "linear",
		"symbol":      symbol,
		"positionIdx": 0,
	}
	if stopLoss > 0 {
		body["stopLoss"] = strconv.FormatFloat(stopLoss, 'f', -1, 64)
	}
	if takeProfit > 0 {
		body["takeProfit"] = strconv.FormatFloat(takeProfit, 'f', -1, 64)
	}

	if _, err := c.doPost(ctx, "/v5/position/trading-stop", body); err != nil {
		return fmt.Errorf("TP/SL 설정 실패 [심볼: %s]: %w", symbol, err)
	}
	return nil
}

// SyncTime은 바이비트 서버와 시간을 동기화합니다
func (c *Client) SyncTime(ctx context.Context) error {
	resp, err := c.doGet(ctx, "/v5/market/time", nil, false)
	if err != nil {
		return fmt.Errorf("서버 시간 조회 실패: %w", err)
	}

	var result struct {
		TimeNano string `json:"timeNano"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return fmt.Errorf("서버 시간 파싱 실패: %w", err)
	}

	nano, err := strconv.ParseInt(result.TimeNano, 10, 64)
	if err != nil {
		return fmt.Errorf("서버 시간 변환 실패: %w", err)
	}

	c.mu.Lock()
	c.serverTimeOffset = nano/int64(time.Millisecond) - time.Now().UnixMilli()
	c.mu.Unlock()
	return nil
}
