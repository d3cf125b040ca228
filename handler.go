package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Handler struct {
	Bot      *Bot
	DB       *sql.DB
	Config   *Config
	Content  *Content
	Resolver Resolver

	now   func() time.Time
	locks chatLocks
}

func newHandler(bot *Bot, db *sql.DB, cfg *Config, content *Content, resolver Resolver) *Handler {
	return &Handler{
		Bot:      bot,
		DB:       db,
		Config:   cfg,
		Content:  content,
		Resolver: resolver,
		now:      time.Now,
	}
}

func (handler *Handler) processUpdatesForever(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return
			}
			handler.handleUpdate(ctx, update)
		case <-ctx.Done():
			log.Println("processUpdatesForever: context cancelled, exiting")
			return
		}
	}
}

func (handler *Handler) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		handler.handleCallback(ctx, update.CallbackQuery)
		return
	}

	if update.Message == nil {
		log.Printf("handleUpdate: update %d has no message", update.UpdateID)
		return
	}

	msg := update.Message
	switch {
	case msg.IsCommand():
		handler.handleCommand(ctx, msg)
	case len(msg.Photo) > 0 || msg.Video != nil || msg.Animation != nil || msg.Document != nil:
		handler.captureMedia(msg)
	default:
		handler.Bot.reply(
			msg.Chat.ID, "Нажимай кнопку «🎁 Распаковать подарок на сегодня» 🤍",
			ReplyOptions{ReplyMarkup: openTodayKeyboard()},
		)
	}
}

func (handler *Handler) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	command := msg.Command()

	switch command {
	case "start":
		if err := ensureProgress(ctx, handler.DB, chatID); err != nil {
			log.Printf("handleCommand: ensureProgress chat=%d: %v", chatID, err)
		}
		startText := dedent(`
		Привет, любимый! 💌

		Этот бот каждый день дарит маленький подарок: текст, фото или видео.

		Нажимай кнопку «🎁 Распаковать подарок на сегодня».

		Всё, что мы уже распаковали, остаётся в чате, можно возвращаться и пересматривать 🤍
		`)
		handler.Bot.reply(chatID, startText, ReplyOptions{ReplyMarkup: openTodayKeyboard()})
	case "help":
		helpText := dedent(`
		Команды:

		/start - приветствие
		/today - распаковать подарок на сегодня
		/help - помощь
		/getid - file_id последнего фото или видео, которое ты прислал боту

		Как получить file_id:
		1) отправь фото или видео
		2) напиши /getid
		`)
		handler.Bot.reply(chatID, helpText, ReplyOptions{ReplyMarkup: openTodayKeyboard()})
	case "today":
		handler.reveal(ctx, chatID)
	case "getid":
		handler.handleGetIDCommand(msg)
	case "reset":
		handler.handleResetCommand(ctx, msg)
	default:
		handler.Bot.reply(chatID, fmt.Sprintf("Неизвестная команда: /%s. Список команд: /help", command))
	}
}

func (handler *Handler) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	// The answer may fail if the query went stale; the reveal still happens.
	if err := handler.Bot.answerCallbackQuery(cb.ID); err != nil {
		log.Printf("handleCallback: %v", err)
	}

	if cb.Message == nil {
		log.Printf("handleCallback: callback %s has no message", cb.ID)
		return
	}

	switch cb.Data {
	case unpackCallback:
		handler.reveal(ctx, cb.Message.Chat.ID)
	default:
		log.Printf("handleCallback: unknown callback data: %q", cb.Data)
	}
}

// MEDIA capture flow

func (handler *Handler) captureMedia(msg *tgbotapi.Message) {
	var kind MediaKind
	var fileID string
	switch {
	case len(msg.Photo) > 0:
		// Sizes are ordered small to large.
		kind, fileID = MediaPhoto, msg.Photo[len(msg.Photo)-1].FileID
	case msg.Video != nil:
		kind, fileID = MediaVideo, msg.Video.FileID
	case msg.Animation != nil:
		kind, fileID = MediaAnimation, msg.Animation.FileID
	case msg.Document != nil:
		kind, fileID = MediaDocument, msg.Document.FileID
	default:
		return
	}

	handler.Bot.withUserContext(senderID(msg), func(ctx *UserContext) {
		ctx.LastMediaKind = kind
		ctx.LastFileID = fileID
	})

	handler.Bot.reply(msg.Chat.ID, fmt.Sprintf("%s принято ✅\nТеперь напиши /getid, и я пришлю file_id.", mediaLabel(kind)))
}

func (handler *Handler) handleGetIDCommand(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	userCtx := handler.Bot.getUserContext(senderID(msg))
	if userCtx == nil || userCtx.LastFileID == "" {
		handler.Bot.reply(chatID, dedent(`
		Я пока не вижу последнего фото или видео.

		Сделай так:
		1) отправь мне фото или видео
		2) потом снова напиши /getid
		`))
		return
	}

	handler.Bot.reply(chatID, fmt.Sprintf(
		"Готово! ✨\n\nТип: %s\nfile_id:\n%s\n\nСкопируй его и вставь в файл контента в нужный день.",
		userCtx.LastMediaKind, userCtx.LastFileID,
	))
}

func mediaLabel(kind MediaKind) string {
	switch kind {
	case MediaPhoto:
		return "Фото"
	case MediaVideo:
		return "Видео"
	case MediaAnimation:
		return "Анимация"
	default:
		return "Файл"
	}
}

// RESET command flow

func (handler *Handler) handleResetCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	if handler.Config.AdminUserID == 0 || msg.From == nil || msg.From.ID != handler.Config.AdminUserID {
		handler.Bot.reply(chatID, "Эта команда недоступна.")
		return
	}

	target := chatID
	if arg := strings.TrimSpace(msg.CommandArguments()); arg != "" {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			handler.Bot.reply(chatID, "Использование: /reset [chat_id]")
			return
		}
		target = id
	}

	if err := handler.resetChat(ctx, target); err != nil {
		log.Printf("handleResetCommand: chat=%d: %v", target, err)
		handler.Bot.reply(chatID, "Не получилось сбросить прогресс, попробуй позже.")
		return
	}
	handler.Bot.reply(chatID, fmt.Sprintf("Прогресс чата %d сброшен.", target))
}

func (handler *Handler) resetChat(ctx context.Context, chatID int64) error {
	unlock := handler.locks.lock(chatID)
	defer unlock()
	return resetProgress(ctx, handler.DB, chatID)
}

// senderID identifies the user behind msg, falling back to the chat for
// anonymous channel posts.
func senderID(msg *tgbotapi.Message) int64 {
	if msg.From != nil {
		return msg.From.ID
	}
	return msg.Chat.ID
}
