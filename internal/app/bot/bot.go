package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sethgrid/pester"
	"go.uber.org/zap"

	"github.com/amezhanin/affilibot/internal/app/config"
	"github.com/amezhanin/affilibot/internal/app/logger"
	"github.com/amezhanin/affilibot/internal/app/service"
)

type Bot struct {
	api       *tgbotapi.BotAPI
	notifier  *Notifier
	adminID   int64
	minAmount int64

	accountService    service.AccountService
	campaignService   service.CampaignService
	withdrawalService service.WithdrawalService
}

// NewBotAPI builds the Bot API client on top of a retrying pester client, so
// transient Telegram hiccups do not drop long-poll cycles or sends.
func NewBotAPI(cfg config.AppConfig) (*tgbotapi.BotAPI, error) {
	client := pester.New()
	client.MaxRetries = 3
	client.Backoff = pester.ExponentialBackoff
	return tgbotapi.NewBotAPIWithClient(cfg.BotToken, tgbotapi.APIEndpoint, client)
}

func New(
	api *tgbotapi.BotAPI,
	notifier *Notifier,
	adminID int64,
	minAmount int64,
	accountService service.AccountService,
	campaignService service.CampaignService,
	withdrawalService service.WithdrawalService,
) *Bot {
	return &Bot{
		api:               api,
		notifier:          notifier,
		adminID:           adminID,
		minAmount:         minAmount,
		accountService:    accountService,
		campaignService:   campaignService,
		withdrawalService: withdrawalService,
	}
}

// Run drives the long-poll loop until ctx is canceled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	logger.Log.Info("bot is running", zap.String("username", b.api.Self.UserName))
	for update := range updates {
		if update.CallbackQuery != nil {
			b.handleCallback(ctx, update.CallbackQuery)
			continue
		}
		if update.Message == nil {
			continue
		}
		if update.Message.IsCommand() {
			b.handleCommand(ctx, update.Message)
			continue
		}
		b.handleText(ctx, update.Message)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	b.notifier.send(tgbotapi.NewMessage(chatID, text))
}
