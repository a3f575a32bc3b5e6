// Package auth decides, per message, whether a sender may run a
// command. The decision is recomputed from current allow-list state on
// every message, so a just-added user is allowed immediately.
package auth

import (
	"github.com/ksander314/twmbot/allowlist"
	"github.com/ksander314/twmbot/command"
)

type Decision int

const (
	Denied Decision = iota
	AllowedUser
	Admin
)

func (d Decision) String() string {
	switch d {
	case Admin:
		return "admin"
	case AllowedUser:
		return "allowed"
	default:
		return "denied"
	}
}

type Policy struct {
	AdminIdentity string
	List          *allowlist.Store
}

// Decide applies the rules in order: anonymous senders are denied; the
// administrator may do everything; help is answered for everyone, even
// senders who would otherwise be denied (kept as-is on purpose, see
// DESIGN.md); admin-only commands are denied to non-admins; asks
// require allow-list membership.
func (p Policy) Decide(sender string, cmd command.Command) Decision {
	if sender == "" {
		return Denied
	}
	if sender == p.AdminIdentity {
		return Admin
	}
	if cmd.Kind == command.Help {
		return AllowedUser
	}
	if cmd.Kind.AdminOnly() {
		return Denied
	}
	if p.List != nil && p.List.Contains(sender) {
		return AllowedUser
	}
	return Denied
}
