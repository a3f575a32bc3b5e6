package telegram

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/ksander314/twmbot/bus"
	"github.com/ksander314/twmbot/config"
)

const sendAttempts = 3

type Channel struct {
	cfg     config.TelegramConfig
	bus     *bus.Bus
	workers int

	running atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	bot    *tgbot.Bot
}

func New(cfg config.TelegramConfig, b *bus.Bus) *Channel {
	return &Channel{
		cfg:     cfg,
		bus:     b,
		workers: clampTelegramWorkers(cfg.Workers),
	}
}

func (c *Channel) Name() string    { return "telegram" }
func (c *Channel) IsRunning() bool { return c.running.Load() }

func (c *Channel) Start(ctx context.Context) error {
	if strings.TrimSpace(c.cfg.Token) == "" {
		return fmt.Errorf("telegram token is empty")
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()
	defer func() {
		cancel()
		c.mu.Lock()
		c.cancel = nil
		c.mu.Unlock()
	}()

	jobs := make(chan *models.Update, 64)
	b, err := tgbot.New(strings.TrimSpace(c.cfg.Token),
		tgbot.WithDefaultHandler(func(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
			select {
			case jobs <- update:
			case <-ctx.Done():
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("telegram init: %w", err)
	}

	c.mu.Lock()
	c.bot = b
	c.mu.Unlock()

	var wg sync.WaitGroup
	for range c.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-runCtx.Done():
					return
				case up := <-jobs:
					c.handleUpdate(runCtx, up)
				}
			}
		}()
	}

	c.running.Store(true)
	defer c.running.Store(false)

	b.Start(runCtx)
	wg.Wait()
	return runCtx.Err()
}

func (c *Channel) Stop() error {
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return nil
}

func (c *Channel) handleUpdate(ctx context.Context, up *models.Update) {
	if up == nil || up.Message == nil {
		return
	}
	msg := up.Message
	if msg.From != nil && msg.From.IsBot {
		return
	}

	content := strings.TrimSpace(msg.Text)
	if content == "" {
		content = strings.TrimSpace(msg.Caption)
	}
	if content == "" {
		return
	}

	// Sender identity is the username only. Users without a username
	// come through anonymous and are denied downstream.
	_ = c.bus.PublishInbound(ctx, bus.InboundMessage{
		Channel:  "telegram",
		SenderID: telegramSenderID(msg.From),
		ChatID:   strconv.FormatInt(msg.Chat.ID, 10),
		Content:  content,
		ReplyTo:  strconv.Itoa(msg.ID),
	})
}

func (c *Channel) Send(ctx context.Context, msg bus.OutboundMessage) error {
	c.mu.Lock()
	b := c.bot
	c.mu.Unlock()
	if b == nil {
		return fmt.Errorf("telegram channel not started")
	}

	chatID, err := strconv.ParseInt(strings.TrimSpace(msg.ChatID), 10, 64)
	if err != nil {
		return fmt.Errorf("telegram chat_id %q: %w", msg.ChatID, err)
	}
	content := strings.TrimSpace(msg.Content)
	if content == "" {
		return nil
	}

	params := &tgbot.SendMessageParams{
		ChatID:    chatID,
		Text:      markdownToTelegramHTML(content),
		ParseMode: models.ParseModeHTML,
	}
	if replyTo, err := strconv.Atoi(strings.TrimSpace(msg.ReplyTo)); err == nil && replyTo > 0 {
		params.ReplyParameters = &models.ReplyParameters{
			MessageID: replyTo,
		}
	}

	var lastErr error
	for attempt := 1; attempt <= sendAttempts; attempt++ {
		_, err := b.SendMessage(ctx, params)
		if err == nil {
			return nil
		}
		lastErr = err
		if isTelegramParseError(err) {
			// HTML conversion upset the API; resend as plain text.
			params.Text = content
			params.ParseMode = ""
			continue
		}
		retry, wait := shouldRetryTelegramSend(err, attempt)
		if !retry {
			return err
		}
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
	return lastErr
}

func telegramSenderID(from *models.User) string {
	if from == nil {
		return ""
	}
	return strings.TrimPrefix(strings.TrimSpace(from.Username), "@")
}

func clampTelegramWorkers(v int) int {
	if v <= 0 {
		return 2
	}
	if v > 8 {
		return 8
	}
	return v
}

var telegram5xxRe = regexp.MustCompile(`,\s*5\d\d\b`)

// shouldRetryTelegramSend retries rate limiting (honoring the
// RetryAfter the API provides) and transient 5xx responses with
// exponential backoff. Cancellation is never retried.
func shouldRetryTelegramSend(err error, attempt int) (bool, time.Duration) {
	if err == nil {
		return false, 0
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false, 0
	}
	var tooMany *tgbot.TooManyRequestsError
	if errors.As(err, &tooMany) {
		wait := time.Duration(tooMany.RetryAfter) * time.Second
		if wait <= 0 {
			wait = time.Second
		}
		return true, wait
	}
	if telegram5xxRe.MatchString(err.Error()) {
		if attempt < 1 {
			attempt = 1
		}
		shift := min(attempt-1, 4)
		return true, 500 * time.Millisecond * time.Duration(1<<shift)
	}
	return false, 0
}

func isTelegramParseError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "400") && strings.Contains(s, "can't parse entities")
}
