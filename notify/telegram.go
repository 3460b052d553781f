package notify

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Summary describes a finished run
type Summary struct {
	RunID   string
	Source  string
	Company string
	Range   string
	Pages   int
	Reviews int
	Skipped int
	Stop    string
	Output  string
	Err     error
}

// Sender is the part of the Telegram bot API the notifier uses
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram posts run summaries to a chat
type Telegram struct {
	bot    Sender
	chatID int64
}

// NewTelegram connects to the bot API with token and targets chatID
func NewTelegram(token, chatID string) (*Telegram, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(chatID), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid telegram chat id %q: %w", chatID, err)
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return NewTelegramWithSender(bot, id), nil
}

// NewTelegramWithSender builds a notifier around an existing sender
func NewTelegramWithSender(bot Sender, chatID int64) *Telegram {
	return &Telegram{bot: bot, chatID: chatID}
}

// Notify sends the summary
func (t *Telegram) Notify(s Summary) error {
	if _, err := t.bot.Send(tgbotapi.NewMessage(t.chatID, FormatSummary(s))); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}

// FormatSummary renders a summary as a plain text message
func FormatSummary(s Summary) string {
	var b strings.Builder

	if s.Err != nil {
		fmt.Fprintf(&b, "❌ Scraping failed for %q on %s\n\n", s.Company, s.Source)
	} else if s.Reviews == 0 {
		fmt.Fprintf(&b, "⚠️ No reviews found for %q on %s\n\n", s.Company, s.Source)
	} else {
		fmt.Fprintf(&b, "✅ Scraping complete for %q on %s\n\n", s.Company, s.Source)
	}

	fmt.Fprintf(&b, "📅 Range: %s\n", s.Range)
	fmt.Fprintf(&b, "📄 Pages: %d\n", s.Pages)
	fmt.Fprintf(&b, "⭐ Reviews: %d\n", s.Reviews)
	if s.Skipped > 0 {
		fmt.Fprintf(&b, "⏭ Skipped records: %d\n", s.Skipped)
	}
	if s.Stop != "" {
		fmt.Fprintf(&b, "🛑 Stopped: %s\n", s.Stop)
	}
	if s.Output != "" && s.Err == nil {
		fmt.Fprintf(&b, "💾 Output: %s\n", s.Output)
	}
	if s.Err != nil {
		fmt.Fprintf(&b, "Error: %v\n", s.Err)
	}
	if s.RunID != "" {
		fmt.Fprintf(&b, "\nRun: %s", s.RunID)
	}

	return strings.TrimRight(b.String(), "\n")
}
