package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "advent-bot",
	Short: "Telegram advent calendar bot",
	Long:  "Reveals one pre-written day of an advent calendar per button press, gated by date or by a daily limit.",
}

func init() {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the bot (webhook when WEBHOOK_URL is set, long polling otherwise)",
		Run:   runServe,
	}

	previewCmd := &cobra.Command{
		Use:   "preview",
		Short: "Show which day would be revealed, without sending anything",
		Run:   runPreview,
	}
	previewCmd.Flags().String("date", "", "Date to resolve, YYYY-MM-DD (default: today in TZ_NAME)")
	previewCmd.Flags().Int64("chat", 0, "Chat ID whose stored progress to use")

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Restore a chat's progress to defaults",
		Run:   runReset,
	}
	resetCmd.Flags().Int64("chat", 0, "Chat ID (required)")
	resetCmd.MarkFlagRequired("chat")

	progressCmd := &cobra.Command{
		Use:   "progress",
		Short: "List stored progress records",
		Run:   runProgress,
	}

	RootCmd.AddCommand(serveCmd, previewCmd, resetCmd, progressCmd)
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}

// loadCalendar builds everything the handler needs that does not touch Telegram.
func loadCalendar() (*Config, *Content, Resolver) {
	cfg, err := loadConfig()
	if err != nil {
		exitErr("config", err)
	}
	content, err := loadContent(cfg.ContentPath)
	if err != nil {
		exitErr("content", err)
	}
	resolver, err := newResolver(cfg, content.Len())
	if err != nil {
		exitErr("resolver", err)
	}
	return cfg, content, resolver
}

func runServe(cmd *cobra.Command, args []string) {
	cfg, content, resolver := loadCalendar()
	if cfg.TelegramToken == "" {
		exitErr("config", fmt.Errorf("TELEGRAM_TOKEN not set"))
	}

	db, err := openDB(cfg.DBPath)
	if err != nil {
		exitErr("open db", err)
	}
	defer db.Close()

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		exitErr("create bot", err)
	}
	log.Printf("Authorized on account %s", api.Self.UserName)
	log.Printf("policy=%s days=%d start=%s zone=%s", cfg.Policy, content.Len(), cfg.StartDate, cfg.Location())

	bot := newBot(api)
	bot.setCommands()
	handler := newHandler(bot, db, cfg, content, resolver)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.NudgeSchedule != "" {
		c, err := startNudges(ctx, handler, cfg.NudgeSchedule)
		if err != nil {
			exitErr("schedule nudge", err)
		}
		defer func() { <-c.Stop().Done() }()
	}

	if cfg.WebhookURL != "" {
		if err := registerWebhook(api, cfg); err != nil {
			exitErr("register webhook", err)
		}
		log.Printf("WEBHOOK_URL=%s", cfg.WebhookURL)
		if err := serveWebhook(ctx, handler, cfg); err != nil {
			exitErr("serve webhook", err)
		}
		return
	}

	if err := deleteWebhook(api); err != nil {
		log.Printf("runServe: %v", err)
	}
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 30
	updateConfig.AllowedUpdates = allowedUpdates
	updates := api.GetUpdatesChan(updateConfig)
	go func() {
		<-ctx.Done()
		api.StopReceivingUpdates()
	}()

	log.Println("runServe: long polling")
	handler.processUpdatesForever(ctx, updates)
}

func runPreview(cmd *cobra.Command, args []string) {
	dateStr, _ := cmd.Flags().GetString("date")
	chatID, _ := cmd.Flags().GetInt64("chat")

	cfg, content, resolver := loadCalendar()

	var db *sql.DB
	if chatID != 0 {
		var err error
		db, err = openDB(cfg.DBPath)
		if err != nil {
			exitErr("open db", err)
		}
		defer db.Close()
	}

	h := newHandler(nil, db, cfg, content, resolver)
	if dateStr != "" {
		d, err := parseDate(dateStr)
		if err != nil {
			exitErr("date", err)
		}
		// Noon keeps the civil date stable in any zone.
		h.now = func() time.Time {
			return time.Date(d.Year(), d.Month(), d.Day(), 12, 0, 0, 0, cfg.Location())
		}
	}

	if err := h.preview(cmd.Context(), cmd.OutOrStdout(), chatID); err != nil {
		exitErr("preview", err)
	}
}

// preview writes what a reveal for chatID would do right now, without side effects.
func (handler *Handler) preview(ctx context.Context, w io.Writer, chatID int64) error {
	today := civilDate(handler.now(), handler.Config.Location())
	fmt.Fprintf(w, "date:   %s (%s)\n", formatDate(today), handler.Config.Location())
	fmt.Fprintf(w, "policy: %s, %d days\n", handler.Config.Policy, handler.Content.Len())

	progress := ProgressRecord{ChatID: chatID}
	if handler.DB != nil && chatID != 0 {
		var err error
		if progress, err = getProgress(ctx, handler.DB, chatID); err != nil {
			return err
		}
		last := "never"
		if !progress.LastOpenDate.IsZero() {
			last = formatDate(progress.LastOpenDate)
		}
		fmt.Fprintf(w, "chat:   %d, unlocked index %d, last open %s\n", chatID, progress.UnlockedIndex, last)
	}

	if handler.Resolver.DailyLimit() && progress.OpenedOn(today) {
		fmt.Fprintf(w, "result: %v\n", ErrDailyLimitReached)
		return nil
	}
	idx, err := handler.Resolver.Resolve(today, progress)
	if err != nil {
		fmt.Fprintf(w, "result: %v\n", err)
		return nil
	}

	day, _ := handler.Content.Day(idx)
	fmt.Fprintf(w, "result: day #%d\n", idx+1)
	fmt.Fprintf(w, "text:   %s\n", trimString(firstLine(day.Text), 60))
	if len(day.Media) > 0 {
		kinds := make([]string, 0, len(day.Media))
		for _, m := range day.Media {
			kinds = append(kinds, string(m.Kind))
		}
		fmt.Fprintf(w, "media:  %s\n", strings.Join(kinds, ", "))
	}
	return nil
}

func runReset(cmd *cobra.Command, args []string) {
	chatID, _ := cmd.Flags().GetInt64("chat")

	cfg, err := loadConfig()
	if err != nil {
		exitErr("config", err)
	}
	db, err := openDB(cfg.DBPath)
	if err != nil {
		exitErr("open db", err)
	}
	defer db.Close()

	if err := resetProgress(cmd.Context(), db, chatID); err != nil {
		exitErr("reset", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "chat %d reset\n", chatID)
}

func runProgress(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		exitErr("config", err)
	}
	db, err := openDB(cfg.DBPath)
	if err != nil {
		exitErr("open db", err)
	}
	defer db.Close()

	records, err := listProgress(cmd.Context(), db)
	if err != nil {
		exitErr("list", err)
	}
	writeProgress(cmd.OutOrStdout(), records)
}

func writeProgress(w io.Writer, records []ProgressRecord) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CHAT\tUNLOCKED\tLAST OPEN")
	for _, rec := range records {
		last := "-"
		if !rec.LastOpenDate.IsZero() {
			last = formatDate(rec.LastOpenDate)
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\n", rec.ChatID, rec.UnlockedIndex, last)
	}
	tw.Flush()
}
