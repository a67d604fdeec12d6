package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/jwalitptl/opd-scheduler/internal/config"
	"github.com/jwalitptl/opd-scheduler/pkg/logger"
	"github.com/jwalitptl/opd-scheduler/pkg/metrics"
)

// Interpreter consumes one inbound message.
type Interpreter interface {
	Interpret(ctx context.Context, text, senderID string) bool
}

// Poller long-polls the bot API's getUpdates endpoint and feeds each
// message through the interpreter. Errors back off instead of spinning.
type Poller struct {
	cfg         config.BotConfig
	interpreter Interpreter
	client      *http.Client
	log         *logger.Logger
	metrics     *metrics.Metrics

	mu         sync.Mutex
	offset     int64
	lastPoll   time.Time
	lastError  string
	msgsSeen   int64
	msgsActed  int64
	cyclesDone int64
}

func NewPoller(cfg config.BotConfig, interpreter Interpreter, log *logger.Logger, m *metrics.Metrics) *Poller {
	timeout := cfg.PollTimeout
	if timeout <= 0 {
		timeout = 25 * time.Second
	}
	return &Poller{
		cfg:         cfg,
		interpreter: interpreter,
		client:      &http.Client{Timeout: timeout + 10*time.Second},
		log:         log,
		metrics:     m,
	}
}

type update struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		From struct {
			ID int64 `json:"id"`
		} `json:"from"`
	} `json:"message"`
}

type getUpdatesResponse struct {
	OK     bool     `json:"ok"`
	Result []update `json:"result"`
}

// Start runs the dispatch loop until the context is cancelled.
func (p *Poller) Start(ctx context.Context) {
	if p.cfg.Token == "" {
		p.log.Warn("bot token not configured, dispatch loop disabled")
		return
	}
	backoff := p.cfg.ErrorBackoff
	if backoff <= 0 {
		backoff = 5 * time.Second
	}
	p.log.Info("dispatch loop started", "api_base", p.cfg.APIBase)

	for {
		select {
		case <-ctx.Done():
			p.log.Info("dispatch loop shutting down")
			return
		default:
		}

		if err := p.pollOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			p.noteError(err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
		}
	}
}

func (p *Poller) pollOnce(ctx context.Context) error {
	if p.metrics != nil {
		p.metrics.PollCycles.Inc()
	}
	p.mu.Lock()
	offset := p.offset
	p.lastPoll = time.Now().UTC()
	p.cyclesDone++
	p.mu.Unlock()

	q := url.Values{}
	q.Set("timeout", strconv.Itoa(int(p.pollTimeoutSeconds())))
	if offset > 0 {
		q.Set("offset", strconv.FormatInt(offset, 10))
	}
	reqURL := fmt.Sprintf("%s/bot%s/getUpdates?%s", p.cfg.APIBase, p.cfg.Token, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("getUpdates failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("getUpdates returned status %d", resp.StatusCode)
	}

	var decoded getUpdatesResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return fmt.Errorf("failed to decode updates: %w", err)
	}
	if !decoded.OK {
		return fmt.Errorf("getUpdates not ok")
	}

	for _, u := range decoded.Result {
		p.advance(u.UpdateID)
		if u.Message == nil || u.Message.Text == "" {
			continue
		}
		senderID := strconv.FormatInt(u.Message.Chat.ID, 10)

		p.mu.Lock()
		p.msgsSeen++
		p.mu.Unlock()

		if p.interpreter.Interpret(ctx, u.Message.Text, senderID) {
			p.mu.Lock()
			p.msgsActed++
			p.mu.Unlock()
		}
	}
	return nil
}

func (p *Poller) advance(updateID int64) {
	p.mu.Lock()
	if updateID >= p.offset {
		p.offset = updateID + 1
	}
	p.mu.Unlock()
}

func (p *Poller) noteError(err error) {
	if p.metrics != nil {
		p.metrics.PollErrors.Inc()
	}
	p.mu.Lock()
	p.lastError = err.Error()
	p.mu.Unlock()
	p.log.Error(err, "poll cycle failed")
}

func (p *Poller) pollTimeoutSeconds() int64 {
	t := p.cfg.PollTimeout
	if t <= 0 {
		t = 25 * time.Second
	}
	return int64(t / time.Second)
}

// Status reports loop health for the ops endpoint.
func (p *Poller) Status() map[string]interface{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return map[string]interface{}{
		"enabled":          p.cfg.Token != "",
		"last_poll":        p.lastPoll,
		"last_error":       p.lastError,
		"messages_seen":    p.msgsSeen,
		"messages_handled": p.msgsActed,
		"cycles":           p.cyclesDone,
		"offset":           p.offset,
	}
}
