// Package notify delivers order notifications to the shop's Telegram chat.
package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"

	"storefront/internal/apperr"
	"storefront/internal/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DeliveryResult is the outcome of one delivery attempt. Failures are data, not errors.
type DeliveryResult struct {
	Success   bool
	MessageID int64
	Error     string
}

type Sink interface {
	Send(ctx context.Context, o models.Order) DeliveryResult
}

const DefaultTimeout = 10 * time.Second

type TelegramConfig struct {
	APIURL  string
	Token   string
	ChatID  string
	Timeout time.Duration
}

// Telegram posts to the Bot API sendMessage method.
type Telegram struct {
	client    *http.Client
	endpoint  string
	chatID    string
	timeout   time.Duration
	formatter Formatter
	log       zerolog.Logger
}

func NewTelegram(cfg TelegramConfig, f Formatter, log zerolog.Logger) *Telegram {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Telegram{
		client:    &http.Client{Timeout: timeout},
		endpoint:  fmt.Sprintf("%s/bot%s/sendMessage", cfg.APIURL, cfg.Token),
		chatID:    cfg.ChatID,
		timeout:   timeout,
		formatter: f,
		log:       log,
	}
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	ErrorCode   int    `json:"error_code"`
	Result      struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
}

func (t *Telegram) Send(ctx context.Context, o models.Order) DeliveryResult {
	id, err := t.send(ctx, o)
	if err != nil {
		t.log.Warn().Err(err).Stringer("kind", apperr.KindOf(err)).Int64("order_id", o.ID).Msg("telegram delivery failed")
		return DeliveryResult{Error: err.Error()}
	}
	t.log.Info().Int64("order_id", o.ID).Int64("message_id", id).Msg("telegram notification sent")
	return DeliveryResult{Success: true, MessageID: id}
}

func (t *Telegram) send(ctx context.Context, o models.Order) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	body, err := json.Marshal(sendMessageRequest{
		ChatID:    t.chatID,
		Text:      t.formatter.Format(o),
		ParseMode: "HTML",
	})
	if err != nil {
		return 0, fmt.Errorf("encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return 0, apperr.Downstream("telegram request", redact(err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, apperr.Downstream("read telegram response", err)
	}

	var out sendMessageResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return 0, apperr.Downstream(fmt.Sprintf("telegram returned status %d with unreadable body", resp.StatusCode), nil)
	}
	if !out.OK || resp.StatusCode >= 300 {
		if out.Description != "" {
			return 0, apperr.Downstream(fmt.Sprintf("telegram api error %d: %s", out.ErrorCode, out.Description), nil)
		}
		return 0, apperr.Downstream(fmt.Sprintf("telegram returned status %d", resp.StatusCode), nil)
	}
	return out.Result.MessageID, nil
}

// redact strips the request URL, which embeds the bot token.
func redact(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return uerr.Err
	}
	return err
}

// Disabled stands in when notifications are off or credentials are missing.
type Disabled struct {
	Reason string
	log    zerolog.Logger
}

func NewDisabled(reason string, log zerolog.Logger) *Disabled {
	return &Disabled{Reason: reason, log: log}
}

func (d *Disabled) Send(_ context.Context, o models.Order) DeliveryResult {
	d.log.Warn().Int64("order_id", o.ID).Str("reason", d.Reason).Msg("order notification skipped")
	return DeliveryResult{Error: d.Reason}
}
