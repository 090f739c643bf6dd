package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"github.com/amezhanin/affilibot/internal/app/models"
)

// ErrDuplicateTxID reports an append colliding with an already recorded
// idempotency token.
var ErrDuplicateTxID = errors.New("txid already recorded")

type ConversionRepository interface {
	ExistsTxID(ctx context.Context, tx *sqlx.Tx, txid string) (bool, error)
	CountCampaignDay(ctx context.Context, tx *sqlx.Tx, campaign string, day string) (int64, error)
	CountAccountCampaignDay(ctx context.Context, tx *sqlx.Tx, campaign string, telegramID int64, day string) (int64, error)
	Append(ctx context.Context, tx *sqlx.Tx, conversion *models.Conversion, dailyCap int64, userCap int64) (bool, error)
}

type ConversionRepositoryImpl struct {
	db *sqlx.DB
}

func NewConversionRepository(db *sqlx.DB) *ConversionRepositoryImpl {
	return &ConversionRepositoryImpl{db: db}
}

func (cr *ConversionRepositoryImpl) ExistsTxID(ctx context.Context, tx *sqlx.Tx, txid string) (bool, error) {
	query := `SELECT COUNT(*) FROM conversions WHERE txid = $1;`
	var count int64
	if err := tx.GetContext(ctx, &count, query, txid); err != nil {
		return false, fmt.Errorf("check txid: %w", err)
	}
	return count > 0, nil
}

func (cr *ConversionRepositoryImpl) CountCampaignDay(ctx context.Context, tx *sqlx.Tx, campaign string, day string) (int64, error) {
	query := `SELECT COUNT(*) FROM conversions WHERE campaign_name = $1 AND day = $2;`
	var count int64
	if err := tx.GetContext(ctx, &count, query, campaign, day); err != nil {
		return 0, fmt.Errorf("count campaign conversions: %w", err)
	}
	return count, nil
}

func (cr *ConversionRepositoryImpl) CountAccountCampaignDay(ctx context.Context, tx *sqlx.Tx, campaign string, telegramID int64, day string) (int64, error) {
	query := `SELECT COUNT(*) FROM conversions WHERE campaign_name = $1 AND telegram_id = $2 AND day = $3;`
	var count int64
	if err := tx.GetContext(ctx, &count, query, campaign, telegramID, day); err != nil {
		return 0, fmt.Errorf("count account conversions: %w", err)
	}
	return count, nil
}

// Append records one credited conversion. Both cap guards live in the insert
// statement itself, closing the read-then-write gap against rows committed
// between the caller's counts and the append. A cap of models.Unlimited
// disables its guard. Returns false when a cap guard rejected the row.
func (cr *ConversionRepositoryImpl) Append(ctx context.Context, tx *sqlx.Tx, conversion *models.Conversion, dailyCap int64, userCap int64) (bool, error) {
	query := `INSERT INTO conversions (campaign_name, telegram_id, txid, day, created_at)
			  SELECT $1, $2, $3, $4, $5
			  WHERE ($6 <= 0 OR (SELECT COUNT(*) FROM conversions WHERE campaign_name = $7 AND day = $8) < $9)
				AND ($10 <= 0 OR (SELECT COUNT(*) FROM conversions WHERE campaign_name = $11 AND telegram_id = $12 AND day = $13) < $14);`
	res, err := tx.ExecContext(ctx, query,
		conversion.Campaign, conversion.TelegramID, conversion.TxID, conversion.Day, conversion.CreatedAt,
		dailyCap, conversion.Campaign, conversion.Day, dailyCap,
		userCap, conversion.Campaign, conversion.TelegramID, conversion.Day, userCap)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return false, ErrDuplicateTxID
		}
		return false, fmt.Errorf("append conversion: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("append conversion rows affected: %w", err)
	}
	return affected == 1, nil
}
