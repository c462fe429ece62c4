package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/TraderBot/config"
	"github.com/Alias1177/TraderBot/internal/audit"
	"github.com/Alias1177/TraderBot/internal/bot"
	"github.com/Alias1177/TraderBot/internal/exchange"
	"github.com/Alias1177/TraderBot/internal/executor"
	"github.com/Alias1177/TraderBot/internal/notify"
	httpClient "github.com/Alias1177/TraderBot/internal/platform/http"
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Startup failed")
	}

	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl)

	sink, err := buildSink()
	if err != nil {
		log.Fatal().Err(err).Msg("Audit sink setup failed")
	}
	defer sink.Close()

	notifier := buildNotifier()

	client := httpClient.NewClient(httpClient.ClientOptions{
		APIKey:      cfg.APIKey,
		APISecret:   cfg.APISecret,
		Timeout:     time.Duration(cfg.RequestTimeout) * time.Second,
		MaxAttempts: cfg.MaxRetries,
	})
	exchangeClient := exchange.NewClient(cfg, client)
	orderExecutor := executor.New(cfg, exchangeClient)
	tradingBot := bot.New(cfg, exchangeClient, orderExecutor, sink, notifier)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := tradingBot.Run(ctx); err != nil {
		log.Error().Err(err).Msg("Bot halted on fatal error")
		os.Exit(1)
	}
}

func buildSink() (audit.Sink, error) {
	dir := os.Getenv("AUDIT_DIR")
	if dir == "" {
		dir = "."
	}
	csvSink, err := audit.NewCSVSink(dir)
	if err != nil {
		return nil, err
	}

	sinks := audit.MultiSink{csvSink}
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		pgSink, err := audit.NewPostgresSink(dsn)
		if err != nil {
			csvSink.Close()
			return nil, err
		}
		sinks = append(sinks, pgSink)
	}
	return sinks, nil
}

func buildNotifier() notify.Notifier {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	chatIDRaw := os.Getenv("TELEGRAM_CHAT_ID")
	if token == "" || chatIDRaw == "" {
		return notify.NopNotifier{}
	}

	chatID, err := strconv.ParseInt(chatIDRaw, 10, 64)
	if err != nil {
		log.Warn().Str("chat_id", chatIDRaw).Msg("Invalid TELEGRAM_CHAT_ID, notifications disabled")
		return notify.NopNotifier{}
	}

	tg, err := notify.NewTelegramNotifier(token, chatID)
	if err != nil {
		log.Warn().Err(err).Msg("Telegram notifier unavailable, notifications disabled")
		return notify.NopNotifier{}
	}
	return tg
}
