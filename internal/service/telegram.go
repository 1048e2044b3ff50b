package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/emupost/backend/internal/config"
	"github.com/rs/zerolog"
)

// TelegramClient sends messages through the Telegram Bot API. It
// implements job.Sender so the delivery worker can use it directly.
type TelegramClient struct {
	baseURL string
	token   string
	http    *http.Client
	log     zerolog.Logger
}

func NewTelegramClient(cfg *config.Config, logger *zerolog.Logger) *TelegramClient {
	return &TelegramClient{
		baseURL: cfg.Bot.APIBaseURL,
		token:   cfg.Bot.Token,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
		log: logger.With().Str("component", "telegram").Logger(),
	}
}

type sendMessageRequest struct {
	ChatID    int64  `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

// SendMessage delivers one text message to a chat via the sendMessage
// endpoint. A non-OK API response is an error so delivery is retried.
func (t *TelegramClient) SendMessage(ctx context.Context, chatID int64, text string) error {
	body, err := json.Marshal(sendMessageRequest{
		ChatID:    chatID,
		Text:      text,
		ParseMode: "HTML",
	})
	if err != nil {
		return fmt.Errorf("failed to marshal sendMessage request: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build sendMessage request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.http.Do(req)
	if err != nil {
		return fmt.Errorf("sendMessage request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return fmt.Errorf("failed to read sendMessage response: %w", err)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return fmt.Errorf("failed to decode sendMessage response (status %d): %w", resp.StatusCode, err)
	}

	if !apiResp.OK {
		t.log.Warn().
			Int64("chat_id", chatID).
			Int("error_code", apiResp.ErrorCode).
			Str("description", apiResp.Description).
			Msg("telegram rejected message")
		return fmt.Errorf("telegram sendMessage failed: %d %s", apiResp.ErrorCode, apiResp.Description)
	}

	t.log.Debug().Int64("chat_id", chatID).Msg("message sent")
	return nil
}
