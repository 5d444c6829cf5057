// internal/notify/telegram.go
package notify

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Notifier pushes trade events to a Telegram chat. It is optional: a nil
// *Notifier is safe to call and does nothing, so the trading path never
// branches on whether notifications are configured.
type Notifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
	logger *zap.Logger
}

// NewNotifier creates a Telegram notifier.
func NewNotifier(token string, chatID int64, logger *zap.Logger) (*Notifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &Notifier{
		api:    api,
		chatID: chatID,
		logger: logger.Named("notify"),
	}, nil
}

// Startup announces that the agent is live.
func (n *Notifier) Startup(wallet string) {
	n.send(fmt.Sprintf("🚀 Sniper started\nWallet: %s", wallet))
}

// Shutdown announces that the agent stopped.
func (n *Notifier) Shutdown() {
	n.send("🛑 Sniper stopped")
}

// BuyConfirmed announces a confirmed buy.
func (n *Notifier) BuyConfirmed(mint string, price float64, signature string) {
	n.send(fmt.Sprintf("✅ Buy confirmed\nMint: %s\nPrice: %.12f SOL\nTx: %s", mint, price, signature))
}

// SellConfirmed announces a confirmed sell slice.
func (n *Notifier) SellConfirmed(mint string, quantity uint64, gain float64, signature string) {
	n.send(fmt.Sprintf("💰 Sell confirmed\nMint: %s\nSold: %d\nGain: %.2f%%\nTx: %s", mint, quantity, gain*100, signature))
}

func (n *Notifier) send(text string) {
	if n == nil {
		return
	}
	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.api.Send(msg); err != nil {
		n.logger.Error("failed to send telegram message", zap.Error(err))
	}
}
