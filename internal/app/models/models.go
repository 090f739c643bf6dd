package models

import (
	"time"

	"github.com/google/uuid"
)

type (
	// Account is the single source of truth for a user's spendable balance.
	// Wallet and TotalEarned are kept in the smallest currency unit.
	Account struct {
		TelegramID       int64     `db:"telegram_id"`
		Wallet           int64     `db:"wallet"`
		TotalEarned      int64     `db:"total_earned"`
		LastWithdrawDate *string   `db:"last_withdraw_date"`
		CreatedAt        time.Time `db:"created_at"`
	}
	Campaign struct {
		Name      string         `db:"name"`
		Type      string         `db:"type"`
		Payout    int64          `db:"payout"`
		Link      string         `db:"link"`
		Status    CampaignStatus `db:"status"`
		DailyCap  int64          `db:"daily_cap"`
		UserCap   int64          `db:"user_cap"`
		CreatedAt time.Time      `db:"created_at"`
		UpdatedAt time.Time      `db:"updated_at"`
	}
	// Conversion is one successfully credited postback. The log is append-only
	// and drives both cap counting and txid duplicate suppression.
	Conversion struct {
		ID         int64     `db:"id"`
		Campaign   string    `db:"campaign_name"`
		TelegramID int64     `db:"telegram_id"`
		TxID       *string   `db:"txid"`
		Day        string    `db:"day"`
		CreatedAt  time.Time `db:"created_at"`
	}
	Withdrawal struct {
		UUID        uuid.UUID        `db:"uuid"`
		TelegramID  int64            `db:"telegram_id"`
		Amount      int64            `db:"amount"`
		Destination string           `db:"destination"`
		Status      WithdrawalStatus `db:"status"`
		CreatedAt   time.Time        `db:"created_at"`
		UpdatedAt   time.Time        `db:"updated_at"`
	}
)

type CampaignStatus string

func (s CampaignStatus) String() string {
	return string(s)
}

const (
	CampaignActive CampaignStatus = "active"
	CampaignPaused CampaignStatus = "paused"
)

type WithdrawalStatus string

func (s WithdrawalStatus) String() string {
	return string(s)
}

const (
	WithdrawalPending  WithdrawalStatus = "pending"
	WithdrawalApproved WithdrawalStatus = "approved"
	WithdrawalRejected WithdrawalStatus = "rejected"
)

// Day formats t as the ISO calendar date used for cap accounting and the
// one-withdrawal-per-day limit. All day arithmetic is done in UTC so the bot
// process and the HTTP process agree on when a day rolls over.
func Day(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Unlimited marks a cap column as having no limit.
const Unlimited int64 = 0
