package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/amezhanin/affilibot/internal/app/logger"
	"github.com/amezhanin/affilibot/internal/app/models"
	"github.com/amezhanin/affilibot/internal/app/service"
)

func mainMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("📊 Dashboard", "dashboard")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("📢 Campaigns", "campaigns")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("💰 Wallet", "wallet")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🏦 Withdraw", "withdraw")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("📜 Withdraw History", "history")),
	)
}

func (b *Bot) handleCommand(ctx context.Context, m *tgbotapi.Message) {
	switch m.Command() {
	case "start":
		b.handleStart(ctx, m)
	case "addcampaign", "pausecampaign", "resumecampaign", "editcampaign",
		"setdailycap", "setusercap", "listcampaigns":
		b.handleAdminCommand(ctx, m)
	}
}

func (b *Bot) handleStart(ctx context.Context, m *tgbotapi.Message) {
	if _, err := b.accountService.Register(ctx, m.From.ID); err != nil {
		logger.Log.Error("register account failed", zap.Error(err))
		b.reply(m.Chat.ID, "Something went wrong, try again later")
		return
	}
	msg := tgbotapi.NewMessage(m.Chat.ID, "Welcome to Affiliate Bot 👋")
	msg.ReplyMarkup = mainMenu()
	b.notifier.send(msg)
}

func (b *Bot) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) {
	// Always acknowledge, otherwise the client keeps the spinner.
	if _, err := b.api.Request(tgbotapi.NewCallback(q.ID, "")); err != nil {
		logger.Log.Error("answer callback failed", zap.Error(err))
	}

	if strings.HasPrefix(q.Data, "wd:") {
		b.handleDecisionCallback(ctx, q)
		return
	}

	chatID := q.Message.Chat.ID
	userID := q.From.ID

	switch q.Data {
	case "dashboard":
		dashboard, err := b.accountService.GetDashboard(ctx, userID)
		if err != nil {
			logger.Log.Error("get dashboard failed", zap.Error(err))
			b.reply(chatID, "Something went wrong, try again later")
			return
		}
		b.reply(chatID, fmt.Sprintf("📊 Dashboard\n\n💰 Wallet: %d\n🏆 Total Earned: %d",
			dashboard.Wallet, dashboard.TotalEarned))

	case "wallet":
		dashboard, err := b.accountService.GetDashboard(ctx, userID)
		if err != nil {
			logger.Log.Error("get wallet failed", zap.Error(err))
			b.reply(chatID, "Something went wrong, try again later")
			return
		}
		b.reply(chatID, fmt.Sprintf("💰 Wallet Balance\n\n%d", dashboard.Wallet))

	case "campaigns":
		b.showCampaigns(ctx, chatID, userID)

	case "withdraw":
		err := b.withdrawalService.Begin(ctx, userID)
		if errors.Is(err, service.ErrDailyLimitReached) {
			b.reply(chatID, "❌ Daily withdraw limit reached")
			return
		}
		if err != nil {
			logger.Log.Error("begin withdrawal failed", zap.Error(err))
			b.reply(chatID, "Something went wrong, try again later")
			return
		}
		b.reply(chatID, fmt.Sprintf("Enter withdraw amount (min %d):", b.minAmount))

	case "history":
		b.showHistory(ctx, chatID, userID)
	}
}

func (b *Bot) showCampaigns(ctx context.Context, chatID, userID int64) {
	campaigns, err := b.campaignService.ListActive(ctx)
	if err != nil {
		logger.Log.Error("list campaigns failed", zap.Error(err))
		b.reply(chatID, "Something went wrong, try again later")
		return
	}
	if len(campaigns) == 0 {
		b.reply(chatID, "❌ No campaigns available")
		return
	}

	var sb strings.Builder
	sb.WriteString("📣 Campaigns\n\n")
	for i := range campaigns {
		c := &campaigns[i]
		sb.WriteString(fmt.Sprintf("🔥 %s\n💰 %d (%s)\n👤 User limit: %s\n📆 Daily cap: %s\n👉 %s\n\n",
			c.Name, c.Payout, c.Type,
			capLabel(c.UserCap), capLabel(c.DailyCap),
			b.campaignService.TrackingLink(c, userID)))
	}

	msg := tgbotapi.NewMessage(chatID, sb.String())
	msg.DisableWebPagePreview = true
	b.notifier.send(msg)
}

func (b *Bot) showHistory(ctx context.Context, chatID, userID int64) {
	withdrawals, err := b.withdrawalService.History(ctx, userID)
	if err != nil {
		logger.Log.Error("withdrawal history failed", zap.Error(err))
		b.reply(chatID, "Something went wrong, try again later")
		return
	}
	if len(withdrawals) == 0 {
		b.reply(chatID, "No withdraw history")
		return
	}

	var sb strings.Builder
	sb.WriteString("📜 Withdraw History\n\n")
	for _, w := range withdrawals {
		sb.WriteString(fmt.Sprintf("%d – %s\n", w.Amount, strings.ToUpper(w.Status.String())))
	}
	b.reply(chatID, sb.String())
}

// handleText routes free text through the withdrawal dialog state machine.
// Text outside a dialog is ignored.
func (b *Bot) handleText(ctx context.Context, m *tgbotapi.Message) {
	userID := m.From.ID
	switch b.withdrawalService.Step(userID) {
	case service.StepAwaitingAmount:
		err := b.withdrawalService.SubmitAmount(ctx, userID, m.Text)
		switch {
		case err == nil:
			b.reply(m.Chat.ID, "Enter your payout destination (e.g. UPI ID):")
		case errors.Is(err, service.ErrInvalidAmount):
			b.reply(m.Chat.ID, "❌ Enter valid amount")
		case errors.Is(err, service.ErrBelowMinimum), errors.Is(err, service.ErrInsufficientBalance):
			b.reply(m.Chat.ID, "❌ Invalid or insufficient balance")
		case errors.Is(err, service.ErrNoActiveDialog):
			// expired between messages, drop silently
		default:
			logger.Log.Error("submit amount failed", zap.Error(err))
			b.reply(m.Chat.ID, "Something went wrong, try again later")
		}

	case service.StepAwaitingDestination:
		_, err := b.withdrawalService.SubmitDestination(ctx, userID, m.Text)
		switch {
		case err == nil:
			b.reply(m.Chat.ID, "Withdraw request submitted ⏳")
		case errors.Is(err, service.ErrEmptyDestination):
			b.reply(m.Chat.ID, "❌ Destination cannot be empty")
		case errors.Is(err, service.ErrInsufficientBalance):
			b.reply(m.Chat.ID, "❌ Invalid or insufficient balance")
		case errors.Is(err, service.ErrNoActiveDialog):
			// expired between messages, drop silently
		default:
			logger.Log.Error("submit destination failed", zap.Error(err))
			b.reply(m.Chat.ID, "Something went wrong, try again later")
		}
	}
}

func capLabel(cap int64) string {
	if cap == models.Unlimited {
		return "∞"
	}
	return fmt.Sprintf("%d", cap)
}
