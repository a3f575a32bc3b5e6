// Package dispatch orchestrates one inbound message at a time:
// classify, authorize, execute, reply. Every inbound message produces
// exactly one outbound reply, and no single message's failure can take
// down the loop.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ksander314/twmbot/allowlist"
	"github.com/ksander314/twmbot/auth"
	"github.com/ksander314/twmbot/bus"
	"github.com/ksander314/twmbot/command"
)

const (
	deniedReply         = "Access denied."
	completionFailReply = "Could not reach the assistant. Please try again later."
	storeFailReply      = "Could not update the allow list. Please try again."
	helpReply           = "Available commands:\n" +
		"/ask <text> - ask the assistant\n" +
		"/adduser <username> - allow a user (admin)\n" +
		"/removeuser <username> - disallow a user (admin)\n" +
		"/listusers - show allowed users (admin)\n" +
		"/help - show this help\n" +
		"Plain text without a command is treated as /ask."
)

// Completer is the single call made to the external model API.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type Options struct {
	Bus       *bus.Bus
	Store     *allowlist.Store
	Completer Completer
	Admin     string
	Logger    *slog.Logger
}

type Loop struct {
	bus       *bus.Bus
	store     *allowlist.Store
	completer Completer
	policy    auth.Policy
	log       *slog.Logger
}

func NewLoop(opts Options) (*Loop, error) {
	if opts.Bus == nil {
		return nil, fmt.Errorf("dispatch: bus is required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("dispatch: store is required")
	}
	if opts.Completer == nil {
		return nil, fmt.Errorf("dispatch: completer is required")
	}
	if strings.TrimSpace(opts.Admin) == "" {
		return nil, fmt.Errorf("dispatch: admin identity is required")
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Loop{
		bus:       opts.Bus,
		store:     opts.Store,
		completer: opts.Completer,
		policy:    auth.Policy{AdminIdentity: opts.Admin, List: opts.Store},
		log:       log,
	}, nil
}

// Run consumes inbound messages until ctx is canceled. Each message is
// handled on its own goroutine so a slow completion cannot block other
// senders.
func (l *Loop) Run(ctx context.Context) error {
	for {
		msg, err := l.bus.ConsumeInbound(ctx)
		if err != nil {
			return err
		}
		go l.handle(ctx, msg)
	}
}

func (l *Loop) handle(ctx context.Context, msg bus.InboundMessage) {
	reply := l.Process(ctx, msg)
	if err := l.bus.PublishOutbound(ctx, bus.OutboundMessage{
		Channel: msg.Channel,
		ChatID:  msg.ChatID,
		Content: reply,
		ReplyTo: msg.ReplyTo,
	}); err != nil {
		l.log.Warn("drop outbound reply", "channel", msg.Channel, "chat_id", msg.ChatID, "error", err)
	}
}

// Process runs one message through route → authorize → execute and
// returns the reply text.
func (l *Loop) Process(ctx context.Context, msg bus.InboundMessage) string {
	cmd := command.Parse(msg.Content)
	decision := l.policy.Decide(msg.SenderID, cmd)
	if decision == auth.Denied {
		l.log.Info("denied", "channel", msg.Channel, "sender", msg.SenderID, "command", cmd.Kind.String())
		return deniedReply
	}
	return l.execute(ctx, msg, cmd)
}

func (l *Loop) execute(ctx context.Context, msg bus.InboundMessage, cmd command.Command) string {
	switch cmd.Kind {
	case command.Help:
		return helpReply

	case command.ListUsers:
		users := l.store.List()
		if len(users) == 0 {
			return "The allow list is empty."
		}
		return "Allowed users:\n- " + strings.Join(users, "\n- ")

	case command.AddUser:
		id := strings.TrimSpace(cmd.Arg)
		if id == "" {
			return "Usage: /adduser <username>"
		}
		added, err := l.store.Add(id)
		if err != nil {
			l.log.Error("allowlist add failed", "identity", id, "error", err)
			return storeFailReply
		}
		if !added {
			return fmt.Sprintf("%s is already on the allow list.", id)
		}
		return fmt.Sprintf("Added %s to the allow list.", id)

	case command.RemoveUser:
		id := strings.TrimSpace(cmd.Arg)
		if id == "" {
			return "Usage: /removeuser <username>"
		}
		removed, err := l.store.Remove(id)
		if err != nil {
			l.log.Error("allowlist remove failed", "identity", id, "error", err)
			return storeFailReply
		}
		if !removed {
			return fmt.Sprintf("%s is not on the allow list.", id)
		}
		return fmt.Sprintf("Removed %s from the allow list.", id)

	default: // command.Ask
		prompt := strings.TrimSpace(cmd.Arg)
		if prompt == "" {
			return "Usage: /ask <question>"
		}
		answer, err := l.completer.Complete(ctx, prompt)
		if err != nil {
			// The cause stays in the logs; the chat gets one generic line.
			l.log.Error("completion failed", "channel", msg.Channel, "sender", msg.SenderID, "error", err)
			return completionFailReply
		}
		return answer
	}
}
