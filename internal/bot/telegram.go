package bot

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"market-fusion/internal/analytics"
	"market-fusion/internal/domain"
	"market-fusion/internal/service"

	tele "gopkg.in/telebot.v3"
)

// StartTelegramBot wires the read-only commands. Without a token the bot is
// skipped entirely, the HTTP API stays the primary surface.
func StartTelegramBot(priceService *service.PriceService, fusionService *service.FusionService, tracker *analytics.Tracker) {
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

	supported := strings.Join(domain.AllSymbols(), ", ")

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	b.Handle("/price", func(c tele.Context) error {
		args := c.Args()
		if len(args) == 0 {
			return c.Send(fmt.Sprintf("Usage: /price AAPL\nSupported: %s", supported))
		}
		symbol := strings.ToUpper(args[0])
		if _, ok := domain.MarketOf(symbol); !ok {
			return c.Send(fmt.Sprintf("Unknown symbol: %s\nSupported: %s", symbol, supported))
		}
		snapshot, err := priceService.GetPrice(context.Background(), symbol)
		if err != nil {
			return c.Send(fmt.Sprintf("Error fetching price for %s: %v", symbol, err))
		}
		msg := fmt.Sprintf(
			"%s\nPrice: $%.2f\nChange: %.2f%%\nVolume: $%.0f\nSource: %s",
			symbol, snapshot.Price, snapshot.ChangePct, snapshot.Volume, snapshot.Source,
		)
		return c.Send(msg)
	})

	b.Handle("/signal", func(c tele.Context) error {
		args := c.Args()
		if len(args) == 0 {
			return c.Send(fmt.Sprintf("Usage: /signal BTC\nSupported: %s", supported))
		}
		symbol := strings.ToUpper(args[0])
		if _, ok := domain.MarketOf(symbol); !ok {
			return c.Send(fmt.Sprintf("Unknown symbol: %s\nSupported: %s", symbol, supported))
		}
		signals := fusionService.Signals([]string{symbol})
		if len(signals) == 0 {
			return c.Send(fmt.Sprintf("No signal for %s yet, the next fusion cycle will produce one.", symbol))
		}
		sig := signals[0]
		msg := fmt.Sprintf("%s: %s (%.0f%% confidence)\n%s", sig.Symbol, sig.Action, sig.Confidence*100, sig.Rationale)
		if len(sig.Correlated) > 0 {
			var pivots []string
			for _, p := range sig.Correlated {
				pivots = append(pivots, fmt.Sprintf("%s (r=%.2f)", p.Symbol, p.Correlation))
			}
			msg += "\nCorrelated: " + strings.Join(pivots, ", ")
		}
		return c.Send(msg)
	})

	b.Handle("/performance", func(c tele.Context) error {
		period := analytics.Period30d
		if args := c.Args(); len(args) > 0 {
			period = args[0]
		}
		m := tracker.CalculateMetrics(period)
		if m.TotalTrades == 0 {
			return c.Send(fmt.Sprintf("No closed trades in the %s window.", m.Period))
		}
		msg := fmt.Sprintf(
			"Performance (%s)\nTrades: %d (W %d / L %d)\nWin rate: %.0f%%\nAvg return: %.2f%%\nMax drawdown: %.1f\nProfit factor: %.2f\nStyle: %s",
			m.Period, m.TotalTrades, m.Wins, m.Losses, m.WinRate*100,
			m.AvgReturnPct, m.MaxDrawdown, m.ProfitFactor, m.TradingStyle,
		)
		return c.Send(msg)
	})

	log.Println("Telegram bot started")
	go b.Start()
}
