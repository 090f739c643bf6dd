package service

import "errors"

// Business-rule failures surfaced by the crediting and withdrawal engines.
// Callers branch on these with errors.Is; the HTTP and chat layers translate
// them into their own response vocabulary.
var (
	ErrCampaignNotFound  = errors.New("campaign not found")
	ErrCampaignInactive  = errors.New("campaign is not active")
	ErrDuplicateCampaign = errors.New("campaign already exists")
	ErrDailyCapReached   = errors.New("campaign daily cap reached")
	ErrUserCapReached    = errors.New("campaign user cap reached")
	ErrDuplicateEvent    = errors.New("conversion already credited")

	ErrNoActiveDialog      = errors.New("no withdrawal dialog in progress")
	ErrInvalidAmount       = errors.New("amount is not a valid integer")
	ErrBelowMinimum        = errors.New("amount is below the withdrawal minimum")
	ErrInsufficientBalance = errors.New("insufficient wallet balance")
	ErrDailyLimitReached   = errors.New("withdrawal already submitted today")
	ErrEmptyDestination    = errors.New("payout destination is empty")

	ErrRequestNotFound = errors.New("withdrawal request not found")
	ErrAlreadyDecided  = errors.New("withdrawal request already decided")
	ErrUnauthorized    = errors.New("not authorized")
)
