package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jwalitptl/opd-scheduler/internal/config"
	"github.com/jwalitptl/opd-scheduler/pkg/logger"
	"github.com/jwalitptl/opd-scheduler/pkg/metrics"
)

// Sender posts canned replies back through the bot API's sendMessage call.
// It satisfies the interpreter's Replier interface.
type Sender struct {
	cfg     config.BotConfig
	client  *http.Client
	log     *logger.Logger
	metrics *metrics.Metrics
}

func NewSender(cfg config.BotConfig, log *logger.Logger, m *metrics.Metrics) *Sender {
	return &Sender{
		cfg:     cfg,
		client:  &http.Client{Timeout: 15 * time.Second},
		log:     log,
		metrics: m,
	}
}

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

func (s *Sender) Reply(ctx context.Context, recipientID, text string) error {
	if s.cfg.Token == "" {
		return nil
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", s.cfg.APIBase, s.cfg.Token)

	body, err := json.Marshal(sendMessageRequest{ChatID: recipientID, Text: text})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send reply: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendMessage returned status %d", resp.StatusCode)
	}
	if s.metrics != nil {
		s.metrics.RepliesSent.Inc()
	}
	return nil
}
