// Package transport implements the chat transport adapter (ChatTransport):
// sending rendered text to a Telegram chat, and classifying the errors
// Telegram reports back into the §7 taxonomy (BotBlocked vs
// TransportOther) so the delivery pipeline can react without knowing
// anything about the Telegram Bot API's own error shape.
package transport

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"feedrelay/internal/resilience/circuitbreaker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sony/gobreaker"
)

// botBlockedSubstrings is el_monitorro's TELEGRAM_ERRORS table: any
// Telegram API error whose description contains one of these verbatim
// means the bot can never deliver to that chat again, so the chat
// should be deleted rather than retried.
var botBlockedSubstrings = []string{
	"Bad Request: CHAT_WRITE_FORBIDDEN",
	"Bad Request: TOPIC_CLOSED",
	"Bad Request: chat not found",
	"Bad Request: group chat was upgraded to a supergroup chat",
	"Bad Request: group chat was upgraded to a supergroup chat, migrate to chat id",
	"Bad Request: have no rights to send a message",
	"Bad Request: not enough rights to send text messages to the chat",
	"Bad Request: need administrator rights in the channel chat",
	"Forbidden: bot is not a member of the channel chat",
	"Forbidden: bot is not a member of the supergroup chat",
	"Forbidden: bot was blocked by the user",
	"Forbidden: bot was kicked from the channel chat",
	"Forbidden: bot was kicked from the group chat",
	"Forbidden: bot was kicked from the supergroup chat",
	"Forbidden: the group chat was deleted",
	"Forbidden: user is deactivated",
}

// ErrorKind distinguishes the §7 transport error policies.
type ErrorKind int

const (
	// ErrorKindOther aborts the current subscription and leaves
	// has_updates set so the next cron tick re-drives it.
	ErrorKindOther ErrorKind = iota
	// ErrorKindBotBlocked means the chat itself is gone or unreachable;
	// the caller should delete it and treat the job as done.
	ErrorKindBotBlocked
)

// SendError wraps a failed send with its classified Kind.
type SendError struct {
	Kind    ErrorKind
	Message string
}

func (e *SendError) Error() string { return e.Message }

// IsBotBlocked reports whether err is a SendError classified BotBlocked.
func IsBotBlocked(err error) bool {
	var se *SendError
	return errors.As(err, &se) && se.Kind == ErrorKindBotBlocked
}

// sender is the subset of *tgbotapi.BotAPI the transport needs; kept as
// an interface so tests can substitute a fake instead of hitting the
// real Telegram API.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// ChatTransport is the Telegram-backed implementation of the delivery
// pipeline's send surface.
type ChatTransport struct {
	bot     sender
	breaker *circuitbreaker.CircuitBreaker
}

// New wraps an authenticated tgbotapi.BotAPI client with the transport
// circuit breaker (§9: one process-singleton HTTP client, tripped on
// sustained send failures, independent of the per-call BotBlocked
// classification below).
func New(bot *tgbotapi.BotAPI) *ChatTransport {
	return newWithSender(bot)
}

// NewForTest builds a ChatTransport around any value with a Send method
// matching *tgbotapi.BotAPI's, for other packages' tests to substitute a
// fake instead of an authenticated bot client.
func NewForTest(bot sender) *ChatTransport {
	return newWithSender(bot)
}

func newWithSender(bot sender) *ChatTransport {
	return &ChatTransport{
		bot:     bot,
		breaker: circuitbreaker.New(circuitbreaker.TransportConfig()),
	}
}

// Send transmits text to chatID, honoring previewEnabled and an optional
// message thread. It returns a *SendError classified per §7 on failure.
func (t *ChatTransport) Send(ctx context.Context, chatID int64, text string, previewEnabled bool, threadID *int64) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = !previewEnabled
	if threadID != nil {
		msg.MessageThreadID = int(*threadID)
	}

	_, err := t.breaker.Execute(func() (interface{}, error) {
		return t.bot.Send(msg)
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) {
		return &SendError{Kind: ErrorKindOther, Message: fmt.Sprintf("circuit open: %v", err)}
	}
	return classify(err)
}

// classify matches err's message against botBlockedSubstrings, matching
// el_monitorro's case-sensitive substring containment exactly.
func classify(err error) *SendError {
	msg := err.Error()
	for _, substr := range botBlockedSubstrings {
		if strings.Contains(msg, substr) {
			return &SendError{Kind: ErrorKindBotBlocked, Message: msg}
		}
	}
	return &SendError{Kind: ErrorKindOther, Message: msg}
}
