package main

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/go-cmp/cmp"
)

type fakeSender struct {
	mu         sync.Mutex
	sent       []tgbotapi.Chattable
	requests   []tgbotapi.Chattable
	failOn     int // 1-based Send call that fails; 0 never fails
	requestErr error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	if f.failOn == len(f.sent) {
		return tgbotapi.Message{}, errors.New("Bad Request: wrong file identifier")
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	if f.requestErr != nil {
		return nil, f.requestErr
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

// log renders every sent chattable as "kind:payload" for easy comparison.
func (f *fakeSender) log() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sent))
	for _, c := range f.sent {
		out = append(out, describe(c))
	}
	return out
}

func describe(c tgbotapi.Chattable) string {
	switch m := c.(type) {
	case tgbotapi.MessageConfig:
		return "text:" + m.Text
	case tgbotapi.PhotoConfig:
		return fmt.Sprintf("photo:%s|%s", m.File.(tgbotapi.FileID), m.Caption)
	case tgbotapi.VideoConfig:
		return fmt.Sprintf("video:%s|%s", m.File.(tgbotapi.FileID), m.Caption)
	case tgbotapi.AnimationConfig:
		return fmt.Sprintf("animation:%s|%s", m.File.(tgbotapi.FileID), m.Caption)
	case tgbotapi.DocumentConfig:
		return fmt.Sprintf("document:%s|%s", m.File.(tgbotapi.FileID), m.Caption)
	}
	return fmt.Sprintf("%T", c)
}

func TestSendMedia_TypedByKind(t *testing.T) {
	fs := &fakeSender{}
	bot := newBot(fs)

	items := []Media{
		{Kind: MediaPhoto, Ref: "p"},
		{Kind: MediaVideo, Ref: "v"},
		{Kind: MediaAnimation, Ref: "a"},
		{Kind: MediaDocument, Ref: "d"},
	}
	for i, m := range items {
		caption := ""
		if i == 0 {
			caption = "hello"
		}
		if err := bot.sendMedia(7, m, caption); err != nil {
			t.Fatalf("sendMedia(%v): %v", m, err)
		}
	}

	want := []string{"photo:p|hello", "video:v|", "animation:a|", "document:d|"}
	if diff := cmp.Diff(want, fs.log()); diff != "" {
		t.Errorf("sent mismatch (-want +got):\n%s", diff)
	}
}

func TestSendMedia_UnknownKind(t *testing.T) {
	fs := &fakeSender{}
	bot := newBot(fs)
	err := bot.sendMedia(7, Media{Kind: "sticker", Ref: "s"}, "")
	if !errors.Is(err, ErrMalformedMedia) {
		t.Fatalf("want ErrMalformedMedia, got %v", err)
	}
	if len(fs.sent) != 0 {
		t.Fatalf("nothing should be sent, got %v", fs.log())
	}
}

func TestAnswerCallbackQuery_StaleIsWrapped(t *testing.T) {
	fs := &fakeSender{requestErr: errors.New("Bad Request: query is too old and response timeout expired")}
	bot := newBot(fs)
	err := bot.answerCallbackQuery("q1")
	if !errors.Is(err, ErrStaleAcknowledgement) {
		t.Fatalf("want ErrStaleAcknowledgement, got %v", err)
	}
}

func TestReply_AttachesKeyboard(t *testing.T) {
	fs := &fakeSender{}
	bot := newBot(fs)
	if err := bot.reply(1, "hi", ReplyOptions{ReplyMarkup: openTodayKeyboard()}); err != nil {
		t.Fatal(err)
	}
	msg := fs.sent[0].(tgbotapi.MessageConfig)
	kb, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	if !ok {
		t.Fatalf("want inline keyboard, got %T", msg.ReplyMarkup)
	}
	if got := *kb.InlineKeyboard[0][0].CallbackData; got != unpackCallback {
		t.Errorf("callback data = %q, want %q", got, unpackCallback)
	}
}

func TestUserContext_ReturnsCopy(t *testing.T) {
	bot := newBot(&fakeSender{})
	if bot.getUserContext(1) != nil {
		t.Fatal("unknown user should have no context")
	}
	bot.withUserContext(1, func(ctx *UserContext) { ctx.LastFileID = "f" })
	got := bot.getUserContext(1)
	got.LastFileID = "changed"
	if bot.getUserContext(1).LastFileID != "f" {
		t.Error("getUserContext leaked internal state")
	}
}
