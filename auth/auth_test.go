package auth

import (
	"path/filepath"
	"testing"

	"github.com/ksander314/twmbot/allowlist"
	"github.com/ksander314/twmbot/command"
)

func testPolicy(t *testing.T, allowed ...string) Policy {
	t.Helper()
	store, err := allowlist.Load(filepath.Join(t.TempDir(), "allowlist.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for _, u := range allowed {
		if _, err := store.Add(u); err != nil {
			t.Fatalf("Add(%q): %v", u, err)
		}
	}
	return Policy{AdminIdentity: "alice", List: store}
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name   string
		sender string
		cmd    command.Command
		want   Decision
	}{
		{name: "anonymous ask", sender: "", cmd: command.Command{Kind: command.Ask}, want: Denied},
		{name: "anonymous help", sender: "", cmd: command.Command{Kind: command.Help}, want: Denied},
		{name: "anonymous adduser", sender: "", cmd: command.Command{Kind: command.AddUser}, want: Denied},
		{name: "admin ask", sender: "alice", cmd: command.Command{Kind: command.Ask}, want: Admin},
		{name: "admin adduser", sender: "alice", cmd: command.Command{Kind: command.AddUser}, want: Admin},
		{name: "admin listusers", sender: "alice", cmd: command.Command{Kind: command.ListUsers}, want: Admin},
		{name: "allowed user ask", sender: "bob", cmd: command.Command{Kind: command.Ask}, want: AllowedUser},
		{name: "allowed user adduser", sender: "bob", cmd: command.Command{Kind: command.AddUser}, want: Denied},
		{name: "allowed user removeuser", sender: "bob", cmd: command.Command{Kind: command.RemoveUser}, want: Denied},
		{name: "allowed user listusers", sender: "bob", cmd: command.Command{Kind: command.ListUsers}, want: Denied},
		{name: "stranger ask", sender: "mallory", cmd: command.Command{Kind: command.Ask}, want: Denied},
		{name: "stranger help", sender: "mallory", cmd: command.Command{Kind: command.Help}, want: AllowedUser},
		{name: "allowed user help", sender: "bob", cmd: command.Command{Kind: command.Help}, want: AllowedUser},
		{name: "admin name is case sensitive", sender: "Alice", cmd: command.Command{Kind: command.Ask}, want: Denied},
	}

	p := testPolicy(t, "bob")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Decide(tt.sender, tt.cmd); got != tt.want {
				t.Fatalf("Decide(%q, %s) = %s, want %s", tt.sender, tt.cmd.Kind, got, tt.want)
			}
		})
	}
}

func TestDecide_SeesStoreChangesImmediately(t *testing.T) {
	p := testPolicy(t)
	ask := command.Command{Kind: command.Ask}

	if got := p.Decide("bob", ask); got != Denied {
		t.Fatalf("before add: %s", got)
	}
	if _, err := p.List.Add("bob"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if got := p.Decide("bob", ask); got != AllowedUser {
		t.Fatalf("after add: %s", got)
	}
	if _, err := p.List.Remove("bob"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if got := p.Decide("bob", ask); got != Denied {
		t.Fatalf("after remove: %s", got)
	}
}
