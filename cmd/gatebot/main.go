package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/club30ka/gatebot/internal/bot"
	"github.com/club30ka/gatebot/internal/config"
	"github.com/club30ka/gatebot/internal/db"
	"github.com/club30ka/gatebot/internal/match"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Error creating logger: %v", err)
	}
	defer logger.Sync()

	database, err := db.New(cfg)
	if err != nil {
		logger.Fatal("cannot connect to database", zap.Error(err))
	}
	defer database.Close()

	if err := db.RunMigrations(database.Conn, "db_scripts/init.sql"); err != nil {
		logger.Fatal("cannot run migrations", zap.Error(err))
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		logger.Fatal("cannot create telegram bot", zap.Error(err))
	}

	alumniRepo := db.NewAlumniRepository(database.Conn, cfg.AlumniTable, logger)
	matcher := match.NewMatcher(alumniRepo, logger)
	sessions := bot.NewSessionStore(cfg.SessionTTL)
	dispatcher := bot.NewDispatcher(botAPI, alumniRepo, cfg.OperatorID, logger)
	screen := bot.NewScreen(cfg.ForbiddenWords)

	service := bot.New(botAPI, matcher, sessions, dispatcher, screen, cfg, logger)

	updates := botAPI.ListenForWebhook(cfg.WebhookPath())

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("webhook server listening", zap.String("addr", addr))
		if err := http.ListenAndServe(addr, nil); err != nil {
			logger.Fatal("webhook server stopped", zap.Error(err))
		}
	}()

	logger.Info("bot started", zap.String("username", botAPI.Self.UserName))

	service.Run(context.Background(), updates)
}
