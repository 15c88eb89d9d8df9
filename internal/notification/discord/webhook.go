// internal/notification/discord/webhook.go
package discord

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client는 디스코드 웹훅 클라이언트를 구현합니다
type Client struct {
	tradeWebhook string // 거래 결정 알림
	alertWebhook string // 고심각도 경보
	errorWebhook string // 에러 알림
	infoWebhook  string // 일반 정보

	httpClient *http.Client
}

// ClientOption은 클라이언트 생성 옵션을 정의합니다
type ClientOption func(*Client)

// WithTimeout은 HTTP 클라이언트의 타임아웃을 설정합니다
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient는 새로운 디스코드 웹훅 클라이언트를 생성합니다
func NewClient(tradeWebhook, alertWebhook, errorWebhook, infoWebhook string, opts ...ClientOption) *Client {
	c := &Client{
		tradeWebhook: tradeWebhook,
		alertWebhook: alertWebhook,
		errorWebhook: errorWebhook,
		infoWebhook:  infoWebhook,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// sendToWebhook은 웹훅 URL로 메시지를 전송합니다
func (c *Client) sendToWebhook(webhookURL string, msg WebhookMessage) error {
	if webhookURL == "" {
		return nil
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("웹훅 메시지 인코딩 실패: %w", err)
	}

	resp, err := c.httpClient.Post(webhookURL, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("웹훅 전송 실패: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("웹훅 전송 실패 (HTTP %d)", resp.StatusCode)
	}
	return nil
}
