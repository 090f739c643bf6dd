package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/amezhanin/affilibot/internal/app/logger"
	"github.com/amezhanin/affilibot/internal/app/models"
	"github.com/amezhanin/affilibot/internal/app/service"
)

// handleAdminCommand gates every management command behind the configured
// admin identity. Non-admin attempts are logged and answered with silence so
// the command set leaks nothing.
func (b *Bot) handleAdminCommand(ctx context.Context, m *tgbotapi.Message) {
	if m.From.ID != b.adminID {
		logger.Log.Warn("admin command from non-admin",
			zap.Int64("from", m.From.ID),
			zap.String("command", m.Command()))
		return
	}

	args := strings.Fields(m.CommandArguments())
	switch m.Command() {
	case "addcampaign":
		b.addCampaign(ctx, m.Chat.ID, args)
	case "pausecampaign":
		b.setCampaignStatus(ctx, m.Chat.ID, args, models.CampaignPaused)
	case "resumecampaign":
		b.setCampaignStatus(ctx, m.Chat.ID, args, models.CampaignActive)
	case "editcampaign":
		b.editCampaign(ctx, m.Chat.ID, args)
	case "setdailycap":
		b.setCap(ctx, m.Chat.ID, args, b.campaignService.SetDailyCap)
	case "setusercap":
		b.setCap(ctx, m.Chat.ID, args, b.campaignService.SetUserCap)
	case "listcampaigns":
		b.listCampaigns(ctx, m.Chat.ID)
	}
}

func (b *Bot) addCampaign(ctx context.Context, chatID int64, args []string) {
	if len(args) < 4 {
		b.reply(chatID, "Usage:\n/addcampaign <name> <CPI/CPA> <payout> <link> [daily_cap] [user_cap]")
		return
	}
	name := args[0]
	ctype := strings.ToUpper(args[1])
	payout, err := strconv.ParseInt(args[2], 10, 64)
	if err != nil || payout < 0 {
		b.reply(chatID, "❌ Payout must be a non-negative integer")
		return
	}
	link := args[3]

	dailyCap := models.Unlimited
	userCap := models.Unlimited
	if len(args) > 4 {
		if dailyCap, err = strconv.ParseInt(args[4], 10, 64); err != nil || dailyCap < 0 {
			b.reply(chatID, "❌ Daily cap must be a non-negative integer")
			return
		}
	}
	if len(args) > 5 {
		if userCap, err = strconv.ParseInt(args[5], 10, 64); err != nil || userCap < 0 {
			b.reply(chatID, "❌ User cap must be a non-negative integer")
			return
		}
	}

	_, err = b.campaignService.Create(ctx, name, ctype, payout, link, dailyCap, userCap)
	if errors.Is(err, service.ErrDuplicateCampaign) {
		b.reply(chatID, "❌ Campaign with this name already exists")
		return
	}
	if err != nil {
		logger.Log.Error("add campaign failed", zap.Error(err))
		b.reply(chatID, "Something went wrong, try again later")
		return
	}
	b.reply(chatID, "✅ Campaign added")
}

func (b *Bot) setCampaignStatus(ctx context.Context, chatID int64, args []string, status models.CampaignStatus) {
	if len(args) != 1 {
		b.reply(chatID, "Usage: /pausecampaign <name> or /resumecampaign <name>")
		return
	}
	err := b.campaignService.SetStatus(ctx, args[0], status)
	if errors.Is(err, service.ErrCampaignNotFound) {
		b.reply(chatID, "❌ Campaign not found")
		return
	}
	if err != nil {
		logger.Log.Error("set campaign status failed", zap.Error(err))
		b.reply(chatID, "Something went wrong, try again later")
		return
	}
	b.reply(chatID, fmt.Sprintf("✅ Campaign %s is now %s", args[0], status))
}

func (b *Bot) editCampaign(ctx context.Context, chatID int64, args []string) {
	if len(args) != 3 {
		b.reply(chatID, "Usage:\n/editcampaign <name> <payout|link> <value>")
		return
	}
	name, field, value := args[0], args[1], args[2]

	var err error
	switch field {
	case "payout":
		var payout int64
		if payout, err = strconv.ParseInt(value, 10, 64); err != nil || payout < 0 {
			b.reply(chatID, "❌ Payout must be a non-negative integer")
			return
		}
		err = b.campaignService.UpdatePayout(ctx, name, payout)
	case "link":
		err = b.campaignService.UpdateLink(ctx, name, value)
	default:
		b.reply(chatID, "❌ Editable fields: payout, link")
		return
	}

	if errors.Is(err, service.ErrCampaignNotFound) {
		b.reply(chatID, "❌ Campaign not found")
		return
	}
	if err != nil {
		logger.Log.Error("edit campaign failed", zap.Error(err))
		b.reply(chatID, "Something went wrong, try again later")
		return
	}
	b.reply(chatID, "✅ Campaign updated")
}

func (b *Bot) setCap(ctx context.Context, chatID int64, args []string, set func(context.Context, string, int64) error) {
	if len(args) != 2 {
		b.reply(chatID, "Usage: /setdailycap <name> <amount> or /setusercap <name> <amount> (0 = unlimited)")
		return
	}
	capValue, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil || capValue < 0 {
		b.reply(chatID, "❌ Cap must be a non-negative integer")
		return
	}
	err = set(ctx, args[0], capValue)
	if errors.Is(err, service.ErrCampaignNotFound) {
		b.reply(chatID, "❌ Campaign not found")
		return
	}
	if err != nil {
		logger.Log.Error("set cap failed", zap.Error(err))
		b.reply(chatID, "Something went wrong, try again later")
		return
	}
	b.reply(chatID, "✅ Cap updated")
}

func (b *Bot) listCampaigns(ctx context.Context, chatID int64) {
	campaigns, err := b.campaignService.List(ctx)
	if err != nil {
		logger.Log.Error("list campaigns failed", zap.Error(err))
		b.reply(chatID, "Something went wrong, try again later")
		return
	}
	if len(campaigns) == 0 {
		b.reply(chatID, "No campaigns yet")
		return
	}

	var sb strings.Builder
	sb.WriteString("Campaigns:\n\n")
	for _, c := range campaigns {
		sb.WriteString(fmt.Sprintf("%s [%s] payout=%d daily=%s user=%s\n%s\n\n",
			c.Name, c.Status, c.Payout, capLabel(c.DailyCap), capLabel(c.UserCap), c.Link))
	}
	b.reply(chatID, sb.String())
}

// handleDecisionCallback resolves an approve/reject button press on the admin
// notification. The engine itself re-checks the actor, so a forwarded button
// in another chat cannot decide anything.
func (b *Bot) handleDecisionCallback(ctx context.Context, q *tgbotapi.CallbackQuery) {
	parts := strings.Split(q.Data, ":")
	if len(parts) != 3 {
		return
	}
	requestID, err := uuid.Parse(parts[2])
	if err != nil {
		logger.Log.Warn("malformed decision callback", zap.String("data", q.Data))
		return
	}

	withdrawal, err := b.withdrawalService.Decide(ctx, requestID, service.Decision(parts[1]), q.From.ID)
	switch {
	case err == nil:
		b.reply(q.Message.Chat.ID, fmt.Sprintf("Request %s: %s", requestID, withdrawal.Status))
	case errors.Is(err, service.ErrUnauthorized):
		// silent no-op toward the caller, already logged by the engine
	case errors.Is(err, service.ErrAlreadyDecided):
		b.reply(q.Message.Chat.ID, "❌ Request already decided")
	case errors.Is(err, service.ErrRequestNotFound):
		b.reply(q.Message.Chat.ID, "❌ Request not found")
	default:
		logger.Log.Error("decide withdrawal failed", zap.Error(err))
		b.reply(q.Message.Chat.ID, "Something went wrong, try again later")
	}
}
