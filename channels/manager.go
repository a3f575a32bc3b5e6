package channels

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ksander314/twmbot/bus"
)

// Manager runs the configured channels and routes outbound messages
// back to the channel that received the conversation.
type Manager struct {
	bus *bus.Bus
	log *slog.Logger

	mu       sync.Mutex
	channels map[string]Channel
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

func NewManager(b *bus.Bus, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{bus: b, log: log, channels: map[string]Channel{}}
}

func (m *Manager) Add(ch Channel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.channels[ch.Name()] = ch
}

func (m *Manager) Get(name string) (Channel, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.channels[name]
	return ch, ok
}

// StartAll launches every channel plus the outbound pump. It returns
// immediately; channels run until ctx is canceled or StopAll is called.
func (m *Manager) StartAll(ctx context.Context) error {
	m.mu.Lock()
	if len(m.channels) == 0 {
		m.mu.Unlock()
		return fmt.Errorf("no channels configured")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	chs := make([]Channel, 0, len(m.channels))
	for _, ch := range m.channels {
		chs = append(chs, ch)
	}
	m.mu.Unlock()

	for _, ch := range chs {
		ch := ch
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			if err := ch.Start(runCtx); err != nil && !errors.Is(err, context.Canceled) {
				m.log.Error("channel stopped", "channel", ch.Name(), "error", err)
			}
		}()
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.pumpOutbound(runCtx)
	}()
	return nil
}

func (m *Manager) StopAll() {
	m.mu.Lock()
	cancel := m.cancel
	m.cancel = nil
	chs := make([]Channel, 0, len(m.channels))
	for _, ch := range m.channels {
		chs = append(chs, ch)
	}
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	for _, ch := range chs {
		_ = ch.Stop()
	}
	m.wg.Wait()
}

func (m *Manager) pumpOutbound(ctx context.Context) {
	for {
		msg, err := m.bus.ConsumeOutbound(ctx)
		if err != nil {
			return
		}
		ch, ok := m.Get(msg.Channel)
		if !ok {
			m.log.Warn("outbound for unknown channel", "channel", msg.Channel, "chat_id", msg.ChatID)
			continue
		}
		// A failed send must not stall replies to other chats. State
		// already committed by the dispatcher stays committed.
		if err := ch.Send(ctx, msg); err != nil {
			m.log.Error("send failed", "channel", msg.Channel, "chat_id", msg.ChatID, "error", err)
		}
	}
}
