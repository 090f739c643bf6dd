package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/amezhanin/affilibot/internal/app/models"
)

type WithdrawalRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, withdrawal *models.Withdrawal) error
	GetByUUID(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error)
	ListByAccount(ctx context.Context, telegramID int64, limit int) ([]models.Withdrawal, error)
	ListByStatus(ctx context.Context, status models.WithdrawalStatus) ([]models.Withdrawal, error)
	Decide(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status models.WithdrawalStatus) (bool, error)
	GetDB() *sqlx.DB
}

type WithdrawalRepositoryImpl struct {
	db *sqlx.DB
}

func NewWithdrawalRepository(db *sqlx.DB) *WithdrawalRepositoryImpl {
	return &WithdrawalRepositoryImpl{db: db}
}

func (wr *WithdrawalRepositoryImpl) Create(ctx context.Context, tx *sqlx.Tx, withdrawal *models.Withdrawal) error {
	query := `INSERT INTO withdrawals (uuid, telegram_id, amount, destination, status, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7);`
	_, err := tx.ExecContext(ctx, query,
		withdrawal.UUID, withdrawal.TelegramID, withdrawal.Amount, withdrawal.Destination,
		withdrawal.Status, withdrawal.CreatedAt, withdrawal.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create withdrawal: %w", err)
	}
	return nil
}

func (wr *WithdrawalRepositoryImpl) GetByUUID(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error) {
	query := `SELECT * FROM withdrawals WHERE uuid = $1;`
	withdrawal := models.Withdrawal{}
	err := wr.db.GetContext(ctx, &withdrawal, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get withdrawal: %w", err)
	}
	return &withdrawal, nil
}

func (wr *WithdrawalRepositoryImpl) ListByAccount(ctx context.Context, telegramID int64, limit int) ([]models.Withdrawal, error) {
	query := `SELECT * FROM withdrawals WHERE telegram_id = $1 ORDER BY created_at DESC LIMIT $2;`
	withdrawals := make([]models.Withdrawal, 0)
	if err := wr.db.SelectContext(ctx, &withdrawals, query, telegramID, limit); err != nil {
		return nil, fmt.Errorf("list withdrawals: %w", err)
	}
	return withdrawals, nil
}

func (wr *WithdrawalRepositoryImpl) ListByStatus(ctx context.Context, status models.WithdrawalStatus) ([]models.Withdrawal, error) {
	query := `SELECT * FROM withdrawals WHERE status = $1 ORDER BY created_at;`
	withdrawals := make([]models.Withdrawal, 0)
	if err := wr.db.SelectContext(ctx, &withdrawals, query, status); err != nil {
		return nil, fmt.Errorf("list withdrawals by status: %w", err)
	}
	return withdrawals, nil
}

// Decide flips a pending request to its terminal status. The pending guard in
// the WHERE clause serializes concurrent decision clicks on the same request:
// only one of them can match the row. Returns false when the request was
// already decided.
func (wr *WithdrawalRepositoryImpl) Decide(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status models.WithdrawalStatus) (bool, error) {
	query := `UPDATE withdrawals SET status = $1, updated_at = $2 WHERE uuid = $3 AND status = 'pending';`
	res, err := tx.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return false, fmt.Errorf("decide withdrawal: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("decide withdrawal rows affected: %w", err)
	}
	return affected == 1, nil
}

func (wr *WithdrawalRepositoryImpl) GetDB() *sqlx.DB {
	return wr.db
}
