// Package command classifies inbound chat text into the fixed command
// set understood by the bot. Anything that is not a recognized slash
// command is treated as a free-text question.
package command

import (
	"strings"
)

type Kind int

const (
	Ask Kind = iota
	AddUser
	RemoveUser
	ListUsers
	Help
)

func (k Kind) String() string {
	switch k {
	case Ask:
		return "ask"
	case AddUser:
		return "adduser"
	case RemoveUser:
		return "removeuser"
	case ListUsers:
		return "listusers"
	case Help:
		return "help"
	default:
		return "unknown"
	}
}

// AdminOnly reports whether only the administrator may run the command.
func (k Kind) AdminOnly() bool {
	switch k {
	case AddUser, RemoveUser, ListUsers:
		return true
	default:
		return false
	}
}

type Command struct {
	Kind Kind
	Arg  string
}

// Parse maps raw message text to exactly one Command. Recognized
// commands start with "/" followed by a case-insensitive keyword; an
// optional "@botname" suffix on the keyword is stripped (groups add
// it). The remainder, trimmed, is the single argument. Text with no
// sigil, and sigil text with an unknown keyword, both fall through to
// Ask carrying the full original text.
func Parse(text string) Command {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "/") {
		return Command{Kind: Ask, Arg: trimmed}
	}

	keyword, rest := splitCommand(trimmed)
	switch strings.ToLower(keyword) {
	case "ask":
		return Command{Kind: Ask, Arg: rest}
	case "adduser":
		return Command{Kind: AddUser, Arg: rest}
	case "removeuser":
		return Command{Kind: RemoveUser, Arg: rest}
	case "listusers":
		return Command{Kind: ListUsers}
	case "help":
		return Command{Kind: Help}
	default:
		return Command{Kind: Ask, Arg: trimmed}
	}
}

func splitCommand(text string) (keyword, rest string) {
	body := text[1:]
	if i := strings.IndexAny(body, " \t\n"); i >= 0 {
		keyword, rest = body[:i], strings.TrimSpace(body[i:])
	} else {
		keyword = body
	}
	if i := strings.Index(keyword, "@"); i >= 0 {
		keyword = keyword[:i]
	}
	return keyword, rest
}
