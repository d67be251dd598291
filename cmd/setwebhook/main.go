package main

import (
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/club30ka/gatebot/internal/config"
)

// One-shot webhook registration. Run once after deploying to a new URL.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		log.Fatalf("Error creating telegram bot: %v", err)
	}

	wh, err := tgbotapi.NewWebhook(cfg.WebhookEndpoint())
	if err != nil {
		log.Fatalf("Error building webhook config: %v", err)
	}

	if _, err := botAPI.Request(wh); err != nil {
		log.Fatalf("Error setting webhook: %v", err)
	}

	info, err := botAPI.GetWebhookInfo()
	if err != nil {
		log.Fatalf("Error fetching webhook info: %v", err)
	}

	if info.LastErrorDate != 0 {
		log.Printf("Telegram reported a webhook error earlier: %s", info.LastErrorMessage)
	}

	log.Printf("Webhook set to %s", info.URL)
}
