package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/ratelimit"
	"go.uber.org/zap"

	"github.com/amezhanin/affilibot/internal/app/logger"
	"github.com/amezhanin/affilibot/internal/app/models"
)

// Notifier pushes engine events into Telegram chats. Every outbound send goes
// through the shared rate limiter to stay under the Bot API flood limits.
type Notifier struct {
	api     *tgbotapi.BotAPI
	limiter ratelimit.Limiter
	adminID int64
}

func NewNotifier(api *tgbotapi.BotAPI, limiter ratelimit.Limiter, adminID int64) *Notifier {
	return &Notifier{
		api:     api,
		limiter: limiter,
		adminID: adminID,
	}
}

// WithdrawalSubmitted prompts the admin with approve/reject buttons bound to
// the request id.
func (n *Notifier) WithdrawalSubmitted(withdrawal *models.Withdrawal) {
	text := fmt.Sprintf("New withdrawal request\n\nUser: %d\nAmount: %d\nDestination: %s",
		withdrawal.TelegramID, withdrawal.Amount, withdrawal.Destination)
	msg := tgbotapi.NewMessage(n.adminID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Approve", "wd:approve:"+withdrawal.UUID.String()),
			tgbotapi.NewInlineKeyboardButtonData("❌ Reject", "wd:reject:"+withdrawal.UUID.String()),
		),
	)
	n.send(msg)
}

func (n *Notifier) WithdrawalDecided(withdrawal *models.Withdrawal) {
	var text string
	switch withdrawal.Status {
	case models.WithdrawalApproved:
		text = fmt.Sprintf("✅ Your withdrawal of %d was approved", withdrawal.Amount)
	case models.WithdrawalRejected:
		text = fmt.Sprintf("❌ Your withdrawal of %d was rejected, funds returned to your wallet", withdrawal.Amount)
	default:
		return
	}
	n.send(tgbotapi.NewMessage(withdrawal.TelegramID, text))
}

func (n *Notifier) ConversionCredited(telegramID int64, campaign string, payout int64) {
	text := fmt.Sprintf("💰 You earned %d from campaign %s", payout, campaign)
	n.send(tgbotapi.NewMessage(telegramID, text))
}

func (n *Notifier) send(c tgbotapi.Chattable) {
	n.limiter.Take()
	if _, err := n.api.Send(c); err != nil {
		logger.Log.Error("telegram send failed", zap.Error(err))
	}
}
