package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
	"unicode/utf16"
)

// Telegram rejects captions longer than this many UTF-16 code units.
const captionLimit = 1024

const comeBackText = "Жду тебя здесь снова 🤍"

// chatLocks serializes reveals per chat; different chats never block each other.
type chatLocks struct {
	mu sync.Mutex
	m  map[int64]*chatLock
}

type chatLock struct {
	sync.Mutex
	refs int
}

func (l *chatLocks) lock(chatID int64) (unlock func()) {
	l.mu.Lock()
	if l.m == nil {
		l.m = make(map[int64]*chatLock)
	}
	cl := l.m[chatID]
	if cl == nil {
		cl = &chatLock{}
		l.m[chatID] = cl
	}
	cl.refs++
	l.mu.Unlock()

	cl.Lock()
	return func() {
		cl.Unlock()
		l.mu.Lock()
		cl.refs--
		if cl.refs == 0 {
			delete(l.m, chatID)
		}
		l.mu.Unlock()
	}
}

// reveal sends today's entry to chatID and records the open.
// Outcomes that are not failures of the bot itself (daily limit, window
// closed, content exhausted) are returned as *UserError after the
// recipient has been told about them.
func (handler *Handler) reveal(ctx context.Context, chatID int64) error {
	unlock := handler.locks.lock(chatID)
	defer unlock()

	today := civilDate(handler.now(), handler.Config.Location())

	if err := ensureProgress(ctx, handler.DB, chatID); err != nil {
		log.Printf("reveal: ensureProgress chat=%d: %v", chatID, err)
		handler.Bot.reply(chatID, getUserMessage(err))
		return err
	}
	progress, err := getProgress(ctx, handler.DB, chatID)
	if err != nil {
		log.Printf("reveal: getProgress chat=%d: %v", chatID, err)
		handler.Bot.reply(chatID, getUserMessage(err))
		return err
	}

	if handler.Resolver.DailyLimit() && progress.OpenedOn(today) {
		userErr := userErrorFor(ErrDailyLimitReached)
		handler.Bot.reply(chatID, getUserMessage(userErr))
		return userErr
	}

	idx, err := handler.Resolver.Resolve(today, progress)
	if err != nil {
		if handler.Resolver.RecordsMiss(err) {
			progress.LastOpenDate = today
			if err := upsertProgress(ctx, handler.DB, progress); err != nil {
				log.Printf("reveal: record miss chat=%d: %v", chatID, err)
			}
		}
		userErr := userErrorFor(err)
		handler.Bot.reply(chatID, getUserMessage(userErr))
		return userErr
	}

	day, ok := handler.Content.Day(idx)
	if !ok {
		err := fmt.Errorf("resolved index %d outside content of %d days", idx, handler.Content.Len())
		log.Printf("reveal: chat=%d: %v", chatID, err)
		return err
	}

	log.Printf("reveal: chat=%d date=%s day=#%d", chatID, formatDate(today), idx+1)
	if err := handler.sendDay(chatID, idx, day, handler.dayText(day, idx, today)); err != nil {
		log.Printf("reveal: aborted chat=%d day=#%d: %v", chatID, idx+1, err)
		return err
	}

	progress.LastOpenDate = today
	if handler.Resolver.Advances() {
		progress.UnlockedIndex = idx + 1
	}
	if err := upsertProgress(ctx, handler.DB, progress); err != nil {
		log.Printf("reveal: upsertProgress chat=%d: %v", chatID, err)
		return err
	}

	return handler.Bot.reply(chatID, comeBackText, ReplyOptions{ReplyMarkup: openTodayKeyboard()})
}

func (handler *Handler) dayText(day DayEntry, idx int, today time.Time) string {
	if !handler.Config.DayMarker {
		return day.Text
	}
	marker := fmt.Sprintf("(Сегодня %s, день #%d)", today.Format("02.01"), idx+1)
	if day.Text == "" {
		return marker
	}
	return day.Text + "\n\n" + marker
}

// sendDay emits the text and then every media item in order. In first-media
// caption mode the text rides on the first item instead, unless it is too long
// for a caption.
func (handler *Handler) sendDay(chatID int64, idx int, day DayEntry, text string) error {
	media := day.Media
	useCaption := handler.Config.CaptionMode == CaptionFirstMedia &&
		len(media) > 0 && captionLength(text) <= captionLimit

	if useCaption {
		if err := handler.Bot.sendMedia(chatID, media[0], text); err != nil {
			return err
		}
		media = media[1:]
	} else if strings.TrimSpace(text) != "" {
		if err := handler.Bot.reply(chatID, text); err != nil {
			return err
		}
	}

	for i, m := range media {
		if err := handler.Bot.sendMedia(chatID, m, ""); err != nil {
			if errors.Is(err, ErrMalformedMedia) {
				log.Printf("sendDay: day #%d item %d skipped: %v", idx+1, i+1, err)
				continue
			}
			return err
		}
	}
	return nil
}

// captionLength measures text the way Telegram does: emoji outside the
// basic plane count twice.
func captionLength(text string) int {
	return len(utf16.Encode([]rune(text)))
}
