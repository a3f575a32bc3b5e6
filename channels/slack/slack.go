package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"

	"github.com/ksander314/twmbot/bus"
	"github.com/ksander314/twmbot/config"
)

type Channel struct {
	cfg config.SlackConfig
	bus *bus.Bus

	running atomic.Bool

	mu     sync.Mutex
	runCtx context.Context

	api *slack.Client
	hc  *http.Client
}

func New(cfg config.SlackConfig, b *bus.Bus) *Channel {
	hc := &http.Client{Timeout: 20 * time.Second}
	return &Channel{
		cfg: cfg,
		bus: b,
		hc:  hc,
		api: slack.New(strings.TrimSpace(cfg.BotToken), slack.OptionHTTPClient(hc)),
	}
}

func (c *Channel) Name() string    { return "slack" }
func (c *Channel) IsRunning() bool { return c.running.Load() }

func (c *Channel) Start(ctx context.Context) error {
	// Inbound arrives via the Events API HTTP endpoint; this goroutine
	// tracks running state and lends its context to event handling so
	// in-flight events see gateway shutdown.
	c.mu.Lock()
	c.runCtx = ctx
	c.mu.Unlock()
	c.running.Store(true)

	<-ctx.Done()

	c.running.Store(false)
	c.mu.Lock()
	c.runCtx = nil
	c.mu.Unlock()
	return ctx.Err()
}

func (c *Channel) eventContext() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.runCtx != nil {
		return c.runCtx
	}
	return context.Background()
}

func (c *Channel) Stop() error { c.running.Store(false); return nil }

// EventsHandler returns the http.HandlerFunc for the Slack Events API
// endpoint. Requests are signature-verified, acked immediately, and
// processed in the background.
func (c *Channel) EventsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if strings.TrimSpace(c.cfg.SigningSecret) == "" {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("slack signingSecret not configured"))
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, 2<<20))
		_ = r.Body.Close()
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		verifier, err := slack.NewSecretsVerifier(r.Header, c.cfg.SigningSecret)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = verifier.Write(body)
		if err := verifier.Ensure(); err != nil {
			w.WriteHeader(http.StatusForbidden)
			return
		}

		ev, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		if ev.Type == slackevents.URLVerification {
			data, ok := ev.Data.(*slackevents.EventsAPIURLVerificationEvent)
			if !ok || data == nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			w.Header().Set("Content-Type", "text/plain")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(data.Challenge))
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))

		go c.handleEvent(c.eventContext(), ev)
	}
}

func (c *Channel) handleEvent(ctx context.Context, ev slackevents.EventsAPIEvent) {
	if ev.Type != slackevents.CallbackEvent {
		return
	}
	if ev.InnerEvent.Type != "message" {
		return
	}
	mev, ok := ev.InnerEvent.Data.(*slackevents.MessageEvent)
	if !ok || mev == nil {
		return
	}
	// Skip bot echoes and edits/deletes (message_changed etc.).
	if strings.TrimSpace(mev.BotID) != "" || strings.TrimSpace(mev.SubType) != "" {
		return
	}
	ch := strings.TrimSpace(mev.Channel)
	text := strings.TrimSpace(mev.Text)
	if ch == "" || text == "" {
		return
	}
	_ = c.bus.PublishInbound(ctx, bus.InboundMessage{
		Channel:  "slack",
		SenderID: strings.TrimSpace(mev.User),
		ChatID:   ch,
		Content:  text,
	})
}

func (c *Channel) Send(ctx context.Context, msg bus.OutboundMessage) error {
	if strings.TrimSpace(c.cfg.BotToken) == "" {
		return fmt.Errorf("slack botToken is empty")
	}
	ch := strings.TrimSpace(msg.ChatID)
	if ch == "" {
		return fmt.Errorf("chat_id is empty")
	}
	text := strings.TrimSpace(msg.Content)
	if text == "" {
		return nil
	}
	_, _, err := c.api.PostMessageContext(ctx, ch, slack.MsgOptionText(text, false))
	return err
}
