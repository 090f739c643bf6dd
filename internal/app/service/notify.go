package service

import "github.com/amezhanin/affilibot/internal/app/models"

// Notifier is the outbound message sink the engines talk to. The Telegram
// front end implements it; tests plug in a mock. Implementations must not
// block the calling engine on delivery failures.
type Notifier interface {
	// WithdrawalSubmitted prompts the admin with a decision affordance for the
	// freshly created pending request.
	WithdrawalSubmitted(withdrawal *models.Withdrawal)
	// WithdrawalDecided informs the account owner about the decision outcome.
	WithdrawalDecided(withdrawal *models.Withdrawal)
	// ConversionCredited informs the account owner about a wallet credit.
	ConversionCredited(telegramID int64, campaign string, payout int64)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) WithdrawalSubmitted(*models.Withdrawal)  {}
func (NopNotifier) WithdrawalDecided(*models.Withdrawal)    {}
func (NopNotifier) ConversionCredited(int64, string, int64) {}
