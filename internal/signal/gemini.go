// internal/signal/gemini.go
package signal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/assist-by/leviathan/internal/domain"
)

const (
	geminiBaseURL      = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel = "gemini-2.5-flash"
)

// Gemini는 구글 Gemini 모델로부터 거래 제안을 받아오는 Source입니다
type Gemini struct {
	client *resty.Client
	apiKey string
	model  string
}

// GeminiOption은 Gemini 클라이언트 옵션을 정의합니다
type GeminiOption func(*Gemini)

// WithModel은 사용할 모델을 설정합니다
func WithModel(model string) GeminiOption {
	return func(g *Gemini) {
		if model != "" {
			g.model = model
		}
	}
}

// WithTimeout은 요청 타임아웃을 설정합니다
func WithTimeout(timeout time.Duration) GeminiOption {
	return func(g *Gemini) {
		g.client.SetTimeout(timeout)
	}
}

// NewGemini는 새로운 Gemini 제안 소스를 생성합니다
func NewGemini(apiKey string, opts ...GeminiOption) *Gemini {
	g := &Gemini{
		client: resty.New().
			SetBaseURL(geminiBaseURL).
			SetTimeout(30 * time.Second),
		apiKey: apiKey,
		model:  defaultGeminiModel,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Propose는 시장 스냅샷을 프롬프트로 만들어 모델에 제안을 요청합니다
func (g *Gemini) Propose(ctx context.Context, snapshot Snapshot) (*domain.TradeProposal, error) {
	req := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: buildPrompt(snapshot)}}},
		},
	}

	var result geminiResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParam("key", g.apiKey).
		SetBody(req).
		SetResult(&result).
		Post(fmt.Sprintf("/models/%s:generateContent", g.model))
	if err != nil {
		return nil, fmt.Errorf("제안 요청 실패: %w", err)
	}
	if resp.IsError() {
		if result.Error != nil {
			return nil, fmt.Errorf("모델 API 에러 (코드 %d): %s", result.Error.Code, result.Error.Message)
		}
		return nil, fmt.Errorf("모델 API 에러: HTTP %d", resp.StatusCode())
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("모델 응답에 후보가 없습니다")
	}

	text := result.Candidates[0].Content.Parts[0].Text
	return domain.ParseProposal([]byte(text), snapshot.Symbol)
}

// buildPrompt는 스냅샷을 모델 프롬프트로 변환합니다.
// 응답 스키마를 명시해 검증 단계에서 탈락하는 제안을 줄입니다.
func buildPrompt(snapshot Snapshot) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are a futures trading analyst. Analyse %s and propose one trade.\n\n", snapshot.Symbol)
	fmt.Fprintf(&sb, "Current price: %.4f\n", snapshot.LastPrice)
	fmt.Fprintf(&sb, "ATR(14): %.4f\n\n", snapshot.ATR)

	if len(snapshot.Candles) > 0 {
		sb.WriteString("Recent candles (time, open, high, low, close, volume):\n")
		start := 0
		if len(snapshot.Candles) > 30 {
			start = len(snapshot.Candles) - 30
		}
		for _, c := range snapshot.Candles[start:] {
			fmt.Fprintf(&sb, "%s, %.4f, %.4f, %.4f, %.4f, %.2f\n",
				c.OpenTime.UTC().Format("2006-01-02 15:04"), c.Open, c.High, c.Low, c.Close, c.Volume)
		}
		sb.WriteString("\n")
	}

	sb.WriteString(`Respond with JSON only, no prose, matching this schema:
{
  "symbol": "` + snapshot.Symbol + `",
  "side": "buy" | "sell" | "neutral",
  "confidence": 0.0-1.0,
  "entry": {"type": "market"} or {"type": "limit", "price": number},
  "stopLoss": number (0 to let the system derive it from ATR),
  "takeProfit": [number],
  "horizon": "scalp" | "intraday" | "swing",
  "rationale": "one sentence"
}
Use "neutral" with low confidence when no clear setup exists.`)
	return sb.String()
}
