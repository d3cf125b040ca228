package main

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

var allowedUpdates = []string{"message", "callback_query"}

// Updates are a few kilobytes; anything larger is not from Telegram.
const maxUpdateBytes = 1 << 20

// recentUpdates remembers the last few update IDs so a delivery Telegram
// retries after a slow response is handled once.
type recentUpdates struct {
	mu   sync.Mutex
	ids  []int
	next int
	seen map[int]bool
}

func newRecentUpdates(size int) *recentUpdates {
	return &recentUpdates{ids: make([]int, 0, size), seen: make(map[int]bool, size)}
}

// add records id and reports whether it was new.
func (r *recentUpdates) add(id int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seen[id] {
		return false
	}
	if len(r.ids) < cap(r.ids) {
		r.ids = append(r.ids, id)
	} else {
		delete(r.seen, r.ids[r.next])
		r.ids[r.next] = id
		r.next = (r.next + 1) % len(r.ids)
	}
	r.seen[id] = true
	return true
}

// requester is the part of *tgbotapi.BotAPI needed to manage the webhook.
type requester interface {
	MakeRequest(endpoint string, params tgbotapi.Params) (*tgbotapi.APIResponse, error)
}

func registerWebhook(api requester, cfg *Config) error {
	params := tgbotapi.Params{}
	params["url"] = cfg.WebhookURL
	params.AddNonEmpty("secret_token", cfg.WebhookSecret)
	if err := params.AddInterface("allowed_updates", allowedUpdates); err != nil {
		return err
	}
	if _, err := api.MakeRequest("setWebhook", params); err != nil {
		return fmt.Errorf("setWebhook: %w", err)
	}
	return nil
}

// deleteWebhook switches the bot back to getUpdates delivery.
func deleteWebhook(api requester) error {
	if _, err := api.MakeRequest("deleteWebhook", tgbotapi.Params{}); err != nil {
		return fmt.Errorf("deleteWebhook: %w", err)
	}
	return nil
}

func webhookHandler(handler *Handler, secret string) http.HandlerFunc {
	recent := newRecentUpdates(256)
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if secret != "" {
			got := r.Header.Get(secretTokenHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				log.Printf("webhookHandler: rejected request from %s: bad secret token", r.RemoteAddr)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}

		var update tgbotapi.Update
		body := http.MaxBytesReader(w, r.Body, maxUpdateBytes)
		if err := json.NewDecoder(body).Decode(&update); err != nil {
			log.Printf("webhookHandler: decode update: %v", err)
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				http.Error(w, "update too large", http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, "bad update", http.StatusBadRequest)
			return
		}

		if !recent.add(update.UpdateID) {
			log.Printf("webhookHandler: update %d already handled, skipping", update.UpdateID)
			w.WriteHeader(http.StatusOK)
			return
		}

		// Telegram drops the connection after a while; finish the reveal anyway.
		handler.handleUpdate(context.WithoutCancel(r.Context()), update)
		w.WriteHeader(http.StatusOK)
	}
}

func serveWebhook(ctx context.Context, handler *Handler, cfg *Config) error {
	mux := http.NewServeMux()
	mux.Handle(cfg.WebhookPath, webhookHandler(handler, cfg.WebhookSecret))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintln(w, "ok")
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("serveWebhook: shutdown: %v", err)
		}
	}()

	log.Printf("serveWebhook: listening on %s%s", srv.Addr, cfg.WebhookPath)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
