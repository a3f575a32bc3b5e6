package discord

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/bwmarrin/discordgo"

	"github.com/ksander314/twmbot/bus"
	"github.com/ksander314/twmbot/config"
)

type Channel struct {
	cfg config.DiscordConfig
	bus *bus.Bus

	running atomic.Bool

	mu      sync.Mutex
	session *discordgo.Session
}

func New(cfg config.DiscordConfig, b *bus.Bus) *Channel {
	return &Channel{cfg: cfg, bus: b}
}

func (c *Channel) Name() string    { return "discord" }
func (c *Channel) IsRunning() bool { return c.running.Load() }

func (c *Channel) Start(ctx context.Context) error {
	token := strings.TrimSpace(c.cfg.Token)
	if token == "" {
		return fmt.Errorf("discord token is empty")
	}

	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return fmt.Errorf("discord init: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	s.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		c.handleMessage(ctx, m)
	})

	if err := s.Open(); err != nil {
		return fmt.Errorf("discord open: %w", err)
	}
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()

	c.running.Store(true)
	<-ctx.Done()
	c.running.Store(false)

	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()
	_ = s.Close()
	return ctx.Err()
}

func (c *Channel) Stop() error {
	c.running.Store(false)
	return nil
}

func (c *Channel) handleMessage(ctx context.Context, m *discordgo.MessageCreate) {
	if m == nil || m.Author == nil || m.Author.Bot {
		return
	}
	content := strings.TrimSpace(m.Content)
	if content == "" {
		return
	}
	_ = c.bus.PublishInbound(ctx, bus.InboundMessage{
		Channel:  "discord",
		SenderID: strings.TrimSpace(m.Author.Username),
		ChatID:   m.ChannelID,
		Content:  content,
		ReplyTo:  m.ID,
	})
}

func (c *Channel) Send(ctx context.Context, msg bus.OutboundMessage) error {
	c.mu.Lock()
	s := c.session
	c.mu.Unlock()
	if s == nil {
		return fmt.Errorf("discord channel not started")
	}
	content := strings.TrimSpace(msg.Content)
	if content == "" {
		return nil
	}

	if replyTo := strings.TrimSpace(msg.ReplyTo); replyTo != "" {
		_, err := s.ChannelMessageSendReply(msg.ChatID, content, &discordgo.MessageReference{
			MessageID: replyTo,
			ChannelID: msg.ChatID,
		})
		return err
	}
	_, err := s.ChannelMessageSend(msg.ChatID, content)
	return err
}
