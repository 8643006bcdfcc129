package bot

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"ticker-sage/internal/domain"
	"ticker-sage/internal/service"

	tele "gopkg.in/telebot.v3"
)

// StartTelegramBot exposes spot-price lookups to operators over Telegram.
// Skipped entirely when TELEGRAM_BOT_TOKEN is not set.
func StartTelegramBot(quoteService *service.QuoteService) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.Fatalf("failed to create Telegram bot: %v", err)
	}

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	b.Handle("/price", func(c tele.Context) error {
		args := c.Args()
		if len(args) == 0 {
			return c.Send("Usage: /price BTC")
		}
		symbol := strings.ToUpper(args[0])
		quote, err := quoteService.GetQuote(context.Background(), domain.AssetCrypto, symbol)
		if err != nil {
			return c.Send(fmt.Sprintf("Error fetching price for %s: %v", symbol, err))
		}
		return c.Send(formatQuote(quote))
	})

	b.Handle("/quote", func(c tele.Context) error {
		args := c.Args()
		if len(args) == 0 {
			return c.Send("Usage: /quote AAPL")
		}
		symbol := strings.ToUpper(args[0])
		quote, err := quoteService.GetQuote(context.Background(), domain.AssetStock, symbol)
		if err != nil {
			return c.Send(fmt.Sprintf("Error fetching quote for %s: %v", symbol, err))
		}
		return c.Send(formatQuote(quote))
	})

	log.Println("Telegram bot started")
	go b.Start()
}

func formatQuote(q *domain.Quote) string {
	return fmt.Sprintf("%s (%s)\nPrice: %.2f %s\nSource: %s", q.Symbol, q.Asset, q.Price, q.Currency, q.Source)
}
