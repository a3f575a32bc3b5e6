// Package channels defines the transport-side contract. A channel
// turns platform events into bus inbound messages and delivers
// outbound replies. Authorization is not a channel concern: every
// sender reaches the dispatcher, which decides per message.
package channels

import (
	"context"

	"github.com/ksander314/twmbot/bus"
)

type Channel interface {
	Name() string
	Start(ctx context.Context) error
	Stop() error
	Send(ctx context.Context, msg bus.OutboundMessage) error
	IsRunning() bool
}
