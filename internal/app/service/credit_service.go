package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"go.uber.org/zap"

	"github.com/amezhanin/affilibot/internal/app/logger"
	"github.com/amezhanin/affilibot/internal/app/models"
	"github.com/amezhanin/affilibot/internal/app/repository"
)

// CreditService turns an external conversion signal into an at-most-once,
// cap-respecting wallet credit.
type CreditService interface {
	Credit(ctx context.Context, telegramID int64, campaignName string, txid string) error
}

type CreditServiceImpl struct {
	accountRepo    repository.AccountRepository
	campaignRepo   repository.CampaignRepository
	conversionRepo repository.ConversionRepository
	notifier       Notifier
}

func NewCreditService(
	accountRepo repository.AccountRepository,
	campaignRepo repository.CampaignRepository,
	conversionRepo repository.ConversionRepository,
	notifier Notifier,
) *CreditServiceImpl {
	return &CreditServiceImpl{
		accountRepo:    accountRepo,
		campaignRepo:   campaignRepo,
		conversionRepo: conversionRepo,
		notifier:       notifier,
	}
}

// Credit applies campaign.Payout to the account's wallet and total_earned and
// records the conversion event, all inside one transaction. An empty txid
// means the caller supplied no idempotency token; retried deliveries are then
// only bounded by the per-user cap.
func (cs *CreditServiceImpl) Credit(ctx context.Context, telegramID int64, campaignName string, txid string) error {
	campaign, err := cs.campaignRepo.GetByName(ctx, campaignName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrCampaignNotFound
		}
		return err
	}
	if campaign.Status != models.CampaignActive {
		return ErrCampaignInactive
	}

	if _, err = cs.accountRepo.GetOrCreate(ctx, telegramID); err != nil {
		return err
	}

	now := time.Now()
	day := models.Day(now)

	tx, err := cs.accountRepo.GetDB().BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if txid != "" {
		exists, err := cs.conversionRepo.ExistsTxID(ctx, tx, txid)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateEvent
		}
	}

	if err = cs.checkCaps(ctx, tx, campaign, telegramID, day); err != nil {
		return err
	}

	conversion := &models.Conversion{
		Campaign:   campaign.Name,
		TelegramID: telegramID,
		Day:        day,
		CreatedAt:  now,
	}
	if txid != "" {
		conversion.TxID = &txid
	}
	inserted, err := cs.conversionRepo.Append(ctx, tx, conversion, campaign.DailyCap, campaign.UserCap)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateTxID) {
			return ErrDuplicateEvent
		}
		return err
	}
	if !inserted {
		// The insert guard rejected against rows committed after our counts.
		// Re-count to name the cap; when the counts still pass the competing
		// row is not yet visible here, so fall back to the only finite cap.
		if err = cs.checkCaps(ctx, tx, campaign, telegramID, day); err != nil {
			return err
		}
		if campaign.DailyCap == models.Unlimited {
			return ErrUserCapReached
		}
		return ErrDailyCapReached
	}

	if _, err = cs.accountRepo.Credit(ctx, tx, telegramID, campaign.Payout); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	logger.Log.Info("conversion credited",
		zap.Int64("telegram_id", telegramID),
		zap.String("campaign", campaign.Name),
		zap.Int64("payout", campaign.Payout),
		zap.String("txid", txid))
	cs.notifier.ConversionCredited(telegramID, campaign.Name, campaign.Payout)
	return nil
}

func (cs *CreditServiceImpl) checkCaps(ctx context.Context, tx *sqlx.Tx, campaign *models.Campaign, telegramID int64, day string) error {
	if campaign.DailyCap != models.Unlimited {
		dayCount, err := cs.conversionRepo.CountCampaignDay(ctx, tx, campaign.Name, day)
		if err != nil {
			return err
		}
		if dayCount >= campaign.DailyCap {
			return ErrDailyCapReached
		}
	}
	if campaign.UserCap != models.Unlimited {
		userCount, err := cs.conversionRepo.CountAccountCampaignDay(ctx, tx, campaign.Name, telegramID, day)
		if err != nil {
			return err
		}
		if userCount >= campaign.UserCap {
			return ErrUserCapReached
		}
	}
	return nil
}
