package main

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"
)

// startNudges schedules the daily "your gift is waiting" message. Times in
// schedule are read in the configured zone.
func startNudges(ctx context.Context, handler *Handler, schedule string) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(handler.Config.Location()))
	_, err := c.AddFunc(schedule, func() {
		sent, err := handler.sendNudges(ctx)
		if err != nil {
			log.Printf("nudge: %v", err)
			return
		}
		log.Printf("nudge: %d chats reminded", sent)
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	log.Printf("nudge: scheduled %q in %s", schedule, handler.Config.Location())
	return c, nil
}

// sendNudges reminds every known chat that still has something to open today.
func (handler *Handler) sendNudges(ctx context.Context) (int, error) {
	records, err := listProgress(ctx, handler.DB)
	if err != nil {
		return 0, err
	}

	today := civilDate(handler.now(), handler.Config.Location())
	sent := 0
	for _, rec := range records {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}
		if rec.OpenedOn(today) {
			continue
		}
		if _, err := handler.Resolver.Resolve(today, rec); err != nil {
			continue
		}
		err := handler.Bot.reply(
			rec.ChatID, "Тебя ждёт подарок на сегодня 🎁",
			ReplyOptions{ReplyMarkup: openTodayKeyboard()},
		)
		if err != nil {
			log.Printf("sendNudges: chat=%d: %v", rec.ChatID, err)
			continue
		}
		sent++
	}
	return sent, nil
}
