package transport

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type fakeSender struct {
	err error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	return tgbotapi.Message{}, f.err
}

func TestSend_Success(t *testing.T) {
	tr := newWithSender(&fakeSender{})
	if err := tr.Send(context.Background(), 1, "hello", true, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSend_BotBlockedClassification(t *testing.T) {
	tr := newWithSender(&fakeSender{err: errors.New("Forbidden: bot was blocked by the user")})
	err := tr.Send(context.Background(), 1, "hello", true, nil)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !IsBotBlocked(err) {
		t.Errorf("expected BotBlocked classification, got %v", err)
	}
}

func TestSend_OtherErrorClassification(t *testing.T) {
	tr := newWithSender(&fakeSender{err: errors.New("Bad Request: message is too long")})
	err := tr.Send(context.Background(), 1, "hello", true, nil)
	if err == nil {
		t.Fatal("expected an error")
	}
	if IsBotBlocked(err) {
		t.Errorf("expected non-BotBlocked classification, got %v", err)
	}
}

func TestClassify_MatchesEachBotBlockedSubstring(t *testing.T) {
	for _, substr := range botBlockedSubstrings {
		err := classify(errors.New(substr))
		if err.Kind != ErrorKindBotBlocked {
			t.Errorf("expected %q to classify as bot-blocked", substr)
		}
	}
}
