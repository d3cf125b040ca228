package main

import (
	"fmt"
	"log"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const unpackCallback = "UNPACK_TODAY"

// sender is the subset of *tgbotapi.BotAPI the bot talks through.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// UserContext is per-user scratch state that does not survive restarts.
type UserContext struct {
	LastMediaKind MediaKind
	LastFileID    string
}

type Bot struct {
	BotApi       sender
	UserContexts map[int64]*UserContext
	mu           sync.Mutex
}

type ReplyOptions struct {
	ReplyMarkup *tgbotapi.InlineKeyboardMarkup
}

func newBot(api sender) *Bot {
	return &Bot{
		BotApi:       api,
		UserContexts: make(map[int64]*UserContext),
	}
}

func (bot *Bot) setCommands() {
	commands := []tgbotapi.BotCommand{
		{Command: "start", Description: "Приветствие"},
		{Command: "today", Description: "Распаковать подарок на сегодня"},
		{Command: "help", Description: "Помощь"},
		{Command: "getid", Description: "file_id последнего фото или видео"},
	}
	if _, err := bot.BotApi.Request(tgbotapi.NewSetMyCommands(commands...)); err != nil {
		log.Printf("Failed to set bot commands: %v", err)
	}
}

func (bot *Bot) reply(chatID int64, text string, opts ...ReplyOptions) error {
	var opt ReplyOptions
	if len(opts) > 0 {
		opt = opts[0]
	}

	message := tgbotapi.NewMessage(chatID, text)
	if opt.ReplyMarkup != nil {
		message.ReplyMarkup = *opt.ReplyMarkup
	}
	if _, err := bot.BotApi.Send(message); err != nil {
		log.Printf("reply: chat=%d: %v", chatID, err)
		return err
	}
	return nil
}

// sendMedia sends one media item typed by its kind. An empty caption is omitted.
func (bot *Bot) sendMedia(chatID int64, m Media, caption string) error {
	file := tgbotapi.FileID(m.Ref)

	var c tgbotapi.Chattable
	switch m.Kind {
	case MediaPhoto:
		cfg := tgbotapi.NewPhoto(chatID, file)
		cfg.Caption = caption
		c = cfg
	case MediaVideo:
		cfg := tgbotapi.NewVideo(chatID, file)
		cfg.Caption = caption
		c = cfg
	case MediaAnimation:
		cfg := tgbotapi.NewAnimation(chatID, file)
		cfg.Caption = caption
		c = cfg
	case MediaDocument:
		cfg := tgbotapi.NewDocument(chatID, file)
		cfg.Caption = caption
		c = cfg
	default:
		return fmt.Errorf("%w: kind %q", ErrMalformedMedia, m.Kind)
	}

	if _, err := bot.BotApi.Send(c); err != nil {
		log.Printf("sendMedia: chat=%d kind=%s: %v", chatID, m.Kind, err)
		return err
	}
	return nil
}

// answerCallbackQuery stops the client's spinner. Telegram rejects answers to
// queries older than a few seconds, which happens after a cold start.
func (bot *Bot) answerCallbackQuery(callbackQueryID string) error {
	cbResponse := tgbotapi.NewCallback(callbackQueryID, "")
	if _, err := bot.BotApi.Request(cbResponse); err != nil {
		return fmt.Errorf("%w: %v", ErrStaleAcknowledgement, err)
	}
	return nil
}

func makeKeyboardMarkup(rows [][][]string) *tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range rows {
		var buttons []tgbotapi.InlineKeyboardButton
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b[0], b[1]))
		}
		keyboard = append(keyboard, buttons)
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(keyboard...)
	return &markup
}

func openTodayKeyboard() *tgbotapi.InlineKeyboardMarkup {
	return makeKeyboardMarkup([][][]string{{{"🎁 Распаковать подарок на сегодня", unpackCallback}}})
}

func (bot *Bot) withUserContext(userID int64, fn func(*UserContext)) {
	bot.mu.Lock()
	defer bot.mu.Unlock()
	if bot.UserContexts[userID] == nil {
		bot.UserContexts[userID] = &UserContext{}
	}
	fn(bot.UserContexts[userID])
}

func (bot *Bot) getUserContext(userID int64) *UserContext {
	bot.mu.Lock()
	defer bot.mu.Unlock()
	if ctx := bot.UserContexts[userID]; ctx != nil {
		c := *ctx
		return &c
	}
	return nil
}
