package notifications

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/kjannette/trahn-journal/internal/models"
)

const defaultBotName = "TradeJournal"

// Sender posts one-line messages to a Slack or Discord webhook. Failed
// deliveries are retried with exponential backoff on network errors, 429 and
// 5xx.
type Sender struct {
	webhookURL string
	botName    string
	client     *resty.Client
	log        *zap.Logger
}

func NewSender(webhookURL, botName string, log *zap.Logger) *Sender {
	if botName == "" {
		botName = defaultBotName
	}
	client := resty.New().
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500
		})

	return &Sender{
		webhookURL: webhookURL,
		botName:    botName,
		client:     client,
		log:        log,
	}
}

func (s *Sender) Send(ctx context.Context, msg string) error {
	formatted := fmt.Sprintf("[%s] %s", s.botName, msg)
	s.log.Info("notification", zap.String("message", formatted))

	if s.webhookURL == "" {
		return nil
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(s.formatPayload(formatted)).
		Post(s.webhookURL)
	if err != nil {
		return fmt.Errorf("webhook post: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook post: HTTP %d: %s", resp.StatusCode(), truncate(resp.String(), 512))
	}
	return nil
}

// TradeRecorded announces a newly journaled trade.
func (s *Sender) TradeRecorded(ctx context.Context, t *models.Trade) error {
	return s.Send(ctx, TradeSummary(t))
}

// TradeSummary renders e.g. "BUY EUR/USD win 1.08500 -> 1.09000 P/L +50.00 (Breakout)".
func TradeSummary(t *models.Trade) string {
	var b strings.Builder
	b.WriteString(strings.ToUpper(t.Type))
	if t.CurrencyPair != nil {
		b.WriteString(" " + t.CurrencyPair.Symbol)
	}
	fmt.Fprintf(&b, " %s %.5f -> %.5f P/L %+.2f", t.Status, t.EntryPrice, t.ExitPrice, t.Profit)
	if t.Strategy != nil {
		fmt.Fprintf(&b, " (%s)", t.Strategy.Name)
	}
	return b.String()
}

func (s *Sender) formatPayload(msg string) map[string]string {
	if strings.Contains(s.webhookURL, "discord") {
		return map[string]string{
			"content":  msg,
			"username": s.botName,
		}
	}
	return map[string]string{
		"text":     fmt.Sprintf("`%s`", msg),
		"username": s.botName,
	}
}

func (s *Sender) Enabled() bool {
	return s.webhookURL != ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
