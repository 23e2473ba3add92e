// Package ai turns a character persona and a message history into one reply
// from an OpenAI-compatible chat-completion provider.
package ai

import "strings"

// UserSender is the sender label the web client uses for the human side.
// Any other sender is treated as the persona speaking.
const UserSender = "User"

// Provider roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Persona is the part of a character that shapes the reply
type Persona struct {
	Name        string
	Personality string
	Description string
}

// ChatMessage is one entry of the client-supplied history
type ChatMessage struct {
	Sender string
	Text   string
}

// Turn is a history entry already mapped to a provider role
type Turn struct {
	Role string
	Text string
}

// Prompt is everything the provider receives for one reply
type Prompt struct {
	Preamble string
	History  []Turn
	Message  string
	Stop     []string
}

// Preamble describes the persona to the model
func Preamble(p Persona) string {
	var b strings.Builder

	b.WriteString("You are ")
	if name := strings.TrimSpace(p.Name); name != "" {
		b.WriteString(name)
	} else {
		b.WriteString("a character")
	}
	if personality := strings.TrimSpace(p.Personality); personality != "" {
		b.WriteString(", ")
		b.WriteString(personality)
	}
	b.WriteString(".")
	if description := strings.TrimSpace(p.Description); description != "" {
		b.WriteString(" ")
		b.WriteString(description)
	}
	b.WriteString(" Stay in character and keep replies short.")

	return b.String()
}

// RoleFor maps a sender label onto the provider's two-party vocabulary
func RoleFor(sender string) string {
	if sender == UserSender {
		return RoleUser
	}
	return RoleAssistant
}

// BuildPrompt splits messages into history (all but last) and the current
// message (last text), and derives the preamble from the persona. An empty
// list yields an empty history and an empty current message.
func BuildPrompt(p Persona, messages []ChatMessage) Prompt {
	var current string
	history := make([]Turn, 0, len(messages))
	if n := len(messages); n > 0 {
		for _, m := range messages[:n-1] {
			history = append(history, Turn{Role: RoleFor(m.Sender), Text: m.Text})
		}
		current = messages[n-1].Text
	}

	stop := []string{UserSender + ":"}
	if name := strings.TrimSpace(p.Name); name != "" {
		stop = append(stop, name+":")
	}

	return Prompt{
		Preamble: Preamble(p),
		History:  history,
		Message:  current,
		Stop:     stop,
	}
}
