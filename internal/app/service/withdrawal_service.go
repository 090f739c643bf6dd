package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/amezhanin/affilibot/internal/app/logger"
	"github.com/amezhanin/affilibot/internal/app/models"
	"github.com/amezhanin/affilibot/internal/app/repository"
)

// DialogStep is the withdrawal dialog position for one account. Idle is
// represented by the absence of a session entry.
type DialogStep int

const (
	StepIdle DialogStep = iota
	StepAwaitingAmount
	StepAwaitingDestination
)

type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

const (
	dialogTTL        = 15 * time.Minute
	historyPageSize  = 5
	dialogCleanupInt = 5 * time.Minute
)

type (
	dialogState struct {
		step   DialogStep
		amount int64
	}
	WithdrawalService interface {
		Begin(ctx context.Context, telegramID int64) error
		SubmitAmount(ctx context.Context, telegramID int64, rawText string) error
		SubmitDestination(ctx context.Context, telegramID int64, rawText string) (*models.Withdrawal, error)
		Decide(ctx context.Context, requestID uuid.UUID, decision Decision, actorID int64) (*models.Withdrawal, error)
		Step(telegramID int64) DialogStep
		History(ctx context.Context, telegramID int64) ([]models.Withdrawal, error)
		ListByStatus(ctx context.Context, status models.WithdrawalStatus) ([]models.Withdrawal, error)
	}
	WithdrawalServiceImpl struct {
		withdrawalRepo repository.WithdrawalRepository
		accountRepo    repository.AccountRepository
		notifier       Notifier
		dialogs        *cache.Cache
		adminID        int64
		minAmount      int64
	}
)

func NewWithdrawalService(
	withdrawalRepo repository.WithdrawalRepository,
	accountRepo repository.AccountRepository,
	notifier Notifier,
	adminID int64,
	minAmount int64,
) *WithdrawalServiceImpl {
	return &WithdrawalServiceImpl{
		withdrawalRepo: withdrawalRepo,
		accountRepo:    accountRepo,
		notifier:       notifier,
		dialogs:        cache.New(dialogTTL, dialogCleanupInt),
		adminID:        adminID,
		minAmount:      minAmount,
	}
}

// Begin opens the withdrawal dialog unless the account already submitted a
// request today.
func (ws *WithdrawalServiceImpl) Begin(ctx context.Context, telegramID int64) error {
	account, err := ws.accountRepo.GetOrCreate(ctx, telegramID)
	if err != nil {
		return err
	}
	today := models.Day(time.Now())
	if account.LastWithdrawDate != nil && *account.LastWithdrawDate == today {
		return ErrDailyLimitReached
	}
	ws.setStep(telegramID, dialogState{step: StepAwaitingAmount})
	return nil
}

// SubmitAmount validates the first dialog answer. Any violation abandons the
// dialog: the user starts over from the menu instead of retrying in place.
func (ws *WithdrawalServiceImpl) SubmitAmount(ctx context.Context, telegramID int64, rawText string) error {
	state, ok := ws.getState(telegramID)
	if !ok || state.step != StepAwaitingAmount {
		return ErrNoActiveDialog
	}

	amount, err := strconv.ParseInt(strings.TrimSpace(rawText), 10, 64)
	if err != nil || amount < 0 {
		ws.clear(telegramID)
		return ErrInvalidAmount
	}
	if amount < ws.minAmount {
		ws.clear(telegramID)
		return ErrBelowMinimum
	}
	account, err := ws.accountRepo.Get(ctx, telegramID)
	if err != nil {
		ws.clear(telegramID)
		return err
	}
	if amount > account.Wallet {
		ws.clear(telegramID)
		return ErrInsufficientBalance
	}

	ws.setStep(telegramID, dialogState{step: StepAwaitingDestination, amount: amount})
	return nil
}

// SubmitDestination completes the dialog: the stashed amount is reserved
// (debited) immediately and the request goes to the admin as pending. The
// debit and the request insert commit together.
func (ws *WithdrawalServiceImpl) SubmitDestination(ctx context.Context, telegramID int64, rawText string) (*models.Withdrawal, error) {
	state, ok := ws.getState(telegramID)
	if !ok || state.step != StepAwaitingDestination {
		return nil, ErrNoActiveDialog
	}
	defer ws.clear(telegramID)

	destination := strings.TrimSpace(rawText)
	if destination == "" {
		return nil, ErrEmptyDestination
	}

	now := time.Now()
	withdrawal := &models.Withdrawal{
		UUID:        uuid.New(),
		TelegramID:  telegramID,
		Amount:      state.amount,
		Destination: destination,
		Status:      models.WithdrawalPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	tx, err := ws.withdrawalRepo.GetDB().BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	debited, err := ws.accountRepo.DebitForWithdrawal(ctx, tx, telegramID, state.amount, models.Day(now))
	if err != nil {
		return nil, err
	}
	if !debited {
		return nil, ErrInsufficientBalance
	}
	if err = ws.withdrawalRepo.Create(ctx, tx, withdrawal); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	logger.Log.Info("withdrawal submitted",
		zap.String("uuid", withdrawal.UUID.String()),
		zap.Int64("telegram_id", telegramID),
		zap.Int64("amount", state.amount))
	ws.notifier.WithdrawalSubmitted(withdrawal)
	return withdrawal, nil
}

// Decide finalizes or reverses a pending request exactly once. A rejection
// refunds the reservation in the same transaction that flips the status, so
// a decided request and its wallet effect are never observed apart.
func (ws *WithdrawalServiceImpl) Decide(ctx context.Context, requestID uuid.UUID, decision Decision, actorID int64) (*models.Withdrawal, error) {
	if actorID != ws.adminID {
		logger.Log.Warn("withdrawal decision from non-admin",
			zap.Int64("actor", actorID),
			zap.String("uuid", requestID.String()))
		return nil, ErrUnauthorized
	}

	if decision != DecisionApprove && decision != DecisionReject {
		return nil, fmt.Errorf("unknown decision %q", decision)
	}

	withdrawal, err := ws.withdrawalRepo.GetByUUID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}

	status := models.WithdrawalApproved
	if decision == DecisionReject {
		status = models.WithdrawalRejected
	}

	tx, err := ws.withdrawalRepo.GetDB().BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	decided, err := ws.withdrawalRepo.Decide(ctx, tx, requestID, status)
	if err != nil {
		return nil, err
	}
	if !decided {
		return nil, ErrAlreadyDecided
	}
	if status == models.WithdrawalRejected {
		if _, err = ws.accountRepo.Refund(ctx, tx, withdrawal.TelegramID, withdrawal.Amount); err != nil {
			return nil, err
		}
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	withdrawal.Status = status
	logger.Log.Info("withdrawal decided",
		zap.String("uuid", requestID.String()),
		zap.String("status", status.String()),
		zap.Int64("actor", actorID))
	ws.notifier.WithdrawalDecided(withdrawal)
	return withdrawal, nil
}

func (ws *WithdrawalServiceImpl) Step(telegramID int64) DialogStep {
	state, ok := ws.getState(telegramID)
	if !ok {
		return StepIdle
	}
	return state.step
}

func (ws *WithdrawalServiceImpl) History(ctx context.Context, telegramID int64) ([]models.Withdrawal, error) {
	return ws.withdrawalRepo.ListByAccount(ctx, telegramID, historyPageSize)
}

func (ws *WithdrawalServiceImpl) ListByStatus(ctx context.Context, status models.WithdrawalStatus) ([]models.Withdrawal, error) {
	return ws.withdrawalRepo.ListByStatus(ctx, status)
}

func (ws *WithdrawalServiceImpl) setStep(telegramID int64, state dialogState) {
	ws.dialogs.Set(dialogKey(telegramID), state, cache.DefaultExpiration)
}

func (ws *WithdrawalServiceImpl) getState(telegramID int64) (dialogState, bool) {
	val, ok := ws.dialogs.Get(dialogKey(telegramID))
	if !ok {
		return dialogState{}, false
	}
	return val.(dialogState), true
}

func (ws *WithdrawalServiceImpl) clear(telegramID int64) {
	ws.dialogs.Delete(dialogKey(telegramID))
}

func dialogKey(telegramID int64) string {
	return strconv.FormatInt(telegramID, 10)
}
