// internal/notification/discord/decision.go
package discord

import (
	"fmt"
	"time"

	"github.com/assist-by/leviathan/internal/domain"
	"github.com/assist-by/leviathan/internal/notification"
)

const footerText = "Leviathan Trading Bot 🐋"

// SendDecision은 제안 처리 결과를 전송합니다
func (c *Client) SendDecision(info notification.DecisionInfo) error {
	embed := NewEmbed().
		SetTitle(fmt.Sprintf("거래 결정: %s [%s]", info.Symbol, info.Decision)).
		SetColor(notification.GetColorForDecision(info.Decision)).
		SetFooter(footerText).
		SetTimestamp(time.Now())

	switch info.Decision {
	case domain.DecisionLive, domain.DecisionPaper:
		embed.SetDescription(fmt.Sprintf(
			"**방향**: %s\n**수량**: %.8f\n**진입가**: $%.2f\n**손절가**: $%.2f\n**익절가**: $%.2f\n**명목 가치**: $%.2f",
			info.Side, info.Quantity, info.EntryPrice, info.StopLoss, info.TakeProfit, info.NotionalUSD))
		if info.OrderID != "" {
			embed.AddField("주문 ID", info.OrderID, true)
		}
	default:
		embed.SetDescription(fmt.Sprintf("**방향**: %s\n**사유**: %s", info.Side, info.Reason))
	}

	msg := WebhookMessage{Embeds: []Embed{*embed}}
	return c.sendToWebhook(c.tradeWebhook, msg)
}

// SendAlert는 고심각도 경보를 전송합니다.
// 보호 주문 없는 포지션처럼 즉시 개입이 필요한 상태에만 사용합니다.
func (c *Client) SendAlert(message string) error {
	embed := NewEmbed().
		SetTitle("🚨 긴급 경보").
		SetDescription(message).
		SetColor(notification.ColorError).
		SetFooter(footerText).
		SetTimestamp(time.Now())

	msg := WebhookMessage{
		Content: "@here",
		Embeds:  []Embed{*embed},
	}
	return c.sendToWebhook(c.alertWebhook, msg)
}

// SendError는 에러 알림을 전송합니다
func (c *Client) SendError(err error) error {
	embed := NewEmbed().
		SetTitle("에러 발생").
		SetDescription(fmt.Sprintf("```%v```", err)).
		SetColor(notification.ColorError).
		SetFooter(footerText).
		SetTimestamp(time.Now())

	msg := WebhookMessage{Embeds: []Embed{*embed}}
	return c.sendToWebhook(c.errorWebhook, msg)
}

// SendInfo는 일반 정보 알림을 전송합니다
func (c *Client) SendInfo(message string) error {
	embed := NewEmbed().
		SetDescription(message).
		SetColor(notification.ColorInfo).
		SetFooter(footerText).
		SetTimestamp(time.Now())

	msg := WebhookMessage{Embeds: []Embed{*embed}}
	return c.sendToWebhook(c.infoWebhook, msg)
}
