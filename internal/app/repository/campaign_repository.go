package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"github.com/amezhanin/affilibot/internal/app/models"
)

// ErrDuplicateName reports a campaign create colliding with an existing name.
var ErrDuplicateName = errors.New("campaign name already exists")

type CampaignRepository interface {
	Create(ctx context.Context, campaign *models.Campaign) error
	GetByName(ctx context.Context, name string) (*models.Campaign, error)
	List(ctx context.Context) ([]models.Campaign, error)
	ListActive(ctx context.Context) ([]models.Campaign, error)
	SetStatus(ctx context.Context, name string, status models.CampaignStatus) (bool, error)
	UpdatePayout(ctx context.Context, name string, payout int64) (bool, error)
	UpdateLink(ctx context.Context, name string, link string) (bool, error)
	SetDailyCap(ctx context.Context, name string, cap int64) (bool, error)
	SetUserCap(ctx context.Context, name string, cap int64) (bool, error)
}

type CampaignRepositoryImpl struct {
	db *sqlx.DB
}

func NewCampaignRepository(db *sqlx.DB) *CampaignRepositoryImpl {
	return &CampaignRepositoryImpl{db: db}
}

func (cr *CampaignRepositoryImpl) Create(ctx context.Context, campaign *models.Campaign) error {
	query := `INSERT INTO campaigns (name, type, payout, link, status, daily_cap, user_cap, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);`
	_, err := cr.db.ExecContext(ctx, query,
		campaign.Name, campaign.Type, campaign.Payout, campaign.Link, campaign.Status,
		campaign.DailyCap, campaign.UserCap, campaign.CreatedAt, campaign.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrDuplicateName
		}
		return fmt.Errorf("create campaign: %w", err)
	}
	return nil
}

func (cr *CampaignRepositoryImpl) GetByName(ctx context.Context, name string) (*models.Campaign, error) {
	query := `SELECT * FROM campaigns WHERE name = $1;`
	campaign := models.Campaign{}
	err := cr.db.GetContext(ctx, &campaign, query, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get campaign: %w", err)
	}
	return &campaign, nil
}

func (cr *CampaignRepositoryImpl) List(ctx context.Context) ([]models.Campaign, error) {
	query := `SELECT * FROM campaigns ORDER BY created_at;`
	campaigns := make([]models.Campaign, 0)
	if err := cr.db.SelectContext(ctx, &campaigns, query); err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	return campaigns, nil
}

func (cr *CampaignRepositoryImpl) ListActive(ctx context.Context) ([]models.Campaign, error) {
	query := `SELECT * FROM campaigns WHERE status = 'active' ORDER BY created_at;`
	campaigns := make([]models.Campaign, 0)
	if err := cr.db.SelectContext(ctx, &campaigns, query); err != nil {
		return nil, fmt.Errorf("list active campaigns: %w", err)
	}
	return campaigns, nil
}

func (cr *CampaignRepositoryImpl) SetStatus(ctx context.Context, name string, status models.CampaignStatus) (bool, error) {
	return cr.updateField(ctx, `UPDATE campaigns SET status = $1, updated_at = $2 WHERE name = $3;`, status, name)
}

func (cr *CampaignRepositoryImpl) UpdatePayout(ctx context.Context, name string, payout int64) (bool, error) {
	return cr.updateField(ctx, `UPDATE campaigns SET payout = $1, updated_at = $2 WHERE name = $3;`, payout, name)
}

func (cr *CampaignRepositoryImpl) UpdateLink(ctx context.Context, name string, link string) (bool, error) {
	return cr.updateField(ctx, `UPDATE campaigns SET link = $1, updated_at = $2 WHERE name = $3;`, link, name)
}

func (cr *CampaignRepositoryImpl) SetDailyCap(ctx context.Context, name string, cap int64) (bool, error) {
	return cr.updateField(ctx, `UPDATE campaigns SET daily_cap = $1, updated_at = $2 WHERE name = $3;`, cap, name)
}

func (cr *CampaignRepositoryImpl) SetUserCap(ctx context.Context, name string, cap int64) (bool, error) {
	return cr.updateField(ctx, `UPDATE campaigns SET user_cap = $1, updated_at = $2 WHERE name = $3;`, cap, name)
}

func (cr *CampaignRepositoryImpl) updateField(ctx context.Context, query string, value interface{}, name string) (bool, error) {
	res, err := cr.db.ExecContext(ctx, query, value, time.Now(), name)
	if err != nil {
		return false, fmt.Errorf("update campaign: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update campaign rows affected: %w", err)
	}
	return affected == 1, nil
}
