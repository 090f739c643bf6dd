package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/amezhanin/affilibot/internal/app/models"
)

type AccountRepository interface {
	GetOrCreate(ctx context.Context, telegramID int64) (*models.Account, error)
	Get(ctx context.Context, telegramID int64) (*models.Account, error)
	Credit(ctx context.Context, tx *sqlx.Tx, telegramID int64, amount int64) (*models.Account, error)
	Refund(ctx context.Context, tx *sqlx.Tx, telegramID int64, amount int64) (*models.Account, error)
	DebitForWithdrawal(ctx context.Context, tx *sqlx.Tx, telegramID int64, amount int64, day string) (bool, error)
	GetDB() *sqlx.DB
}

type AccountRepositoryImpl struct {
	db *sqlx.DB
}

func NewAccountRepository(db *sqlx.DB) *AccountRepositoryImpl {
	return &AccountRepositoryImpl{db: db}
}

// GetOrCreate registers the account lazily on first contact. The insert is a
// no-op when the row already exists, so concurrent first contacts are safe.
func (ar *AccountRepositoryImpl) GetOrCreate(ctx context.Context, telegramID int64) (*models.Account, error) {
	query := `INSERT INTO accounts (telegram_id, wallet, total_earned, created_at)
			  VALUES ($1, 0, 0, $2) ON CONFLICT (telegram_id) DO NOTHING;`
	_, err := ar.db.ExecContext(ctx, query, telegramID, time.Now())
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	return ar.Get(ctx, telegramID)
}

func (ar *AccountRepositoryImpl) Get(ctx context.Context, telegramID int64) (*models.Account, error) {
	query := `SELECT * FROM accounts WHERE telegram_id = $1;`
	account := models.Account{}
	err := ar.db.GetContext(ctx, &account, query, telegramID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account %d not found: %w", telegramID, err)
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return &account, nil
}

// Credit applies a conversion payout as a single read-modify-write performed
// by the store. TotalEarned moves together with the wallet and never goes down.
func (ar *AccountRepositoryImpl) Credit(ctx context.Context, tx *sqlx.Tx, telegramID int64, amount int64) (*models.Account, error) {
	if amount < 0 {
		return nil, fmt.Errorf("credit amount must be non-negative, got %d", amount)
	}
	query := `UPDATE accounts SET wallet = wallet + $1, total_earned = total_earned + $2
			  WHERE telegram_id = $3 RETURNING *;`
	account := models.Account{}
	err := tx.GetContext(ctx, &account, query, amount, amount, telegramID)
	if err != nil {
		return nil, fmt.Errorf("credit: %w", err)
	}
	return &account, nil
}

// Refund returns a rejected withdrawal's reservation to the wallet. Unlike
// Credit it does not touch total_earned.
func (ar *AccountRepositoryImpl) Refund(ctx context.Context, tx *sqlx.Tx, telegramID int64, amount int64) (*models.Account, error) {
	if amount < 0 {
		return nil, fmt.Errorf("refund amount must be non-negative, got %d", amount)
	}
	query := `UPDATE accounts SET wallet = wallet + $1 WHERE telegram_id = $2 RETURNING *;`
	account := models.Account{}
	err := tx.GetContext(ctx, &account, query, amount, telegramID)
	if err != nil {
		return nil, fmt.Errorf("refund: %w", err)
	}
	return &account, nil
}

// DebitForWithdrawal reserves amount for a withdrawal request and stamps the
// daily submission limit in the same statement. The balance guard lives in
// the WHERE clause, so an insufficient wallet matches no row instead of going
// negative. Returns false when the guard rejected the debit.
func (ar *AccountRepositoryImpl) DebitForWithdrawal(ctx context.Context, tx *sqlx.Tx, telegramID int64, amount int64, day string) (bool, error) {
	if amount <= 0 {
		return false, fmt.Errorf("debit amount must be positive, got %d", amount)
	}
	query := `UPDATE accounts SET wallet = wallet - $1, last_withdraw_date = $2
			  WHERE telegram_id = $3 AND wallet >= $4;`
	res, err := tx.ExecContext(ctx, query, amount, day, telegramID, amount)
	if err != nil {
		return false, fmt.Errorf("debit: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("debit rows affected: %w", err)
	}
	return affected == 1, nil
}

func (ar *AccountRepositoryImpl) GetDB() *sqlx.DB {
	return ar.db
}
