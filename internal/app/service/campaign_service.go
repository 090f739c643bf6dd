package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/amezhanin/affilibot/internal/app/models"
	"github.com/amezhanin/affilibot/internal/app/repository"
)

type (
	CampaignService interface {
		Create(ctx context.Context, name, ctype string, payout int64, link string, dailyCap, userCap int64) (*models.Campaign, error)
		GetByName(ctx context.Context, name string) (*models.Campaign, error)
		List(ctx context.Context) ([]models.Campaign, error)
		ListActive(ctx context.Context) ([]models.Campaign, error)
		SetStatus(ctx context.Context, name string, status models.CampaignStatus) error
		UpdatePayout(ctx context.Context, name string, payout int64) error
		UpdateLink(ctx context.Context, name string, link string) error
		SetDailyCap(ctx context.Context, name string, cap int64) error
		SetUserCap(ctx context.Context, name string, cap int64) error
		TrackingLink(campaign *models.Campaign, telegramID int64) string
	}
	CampaignServiceImpl struct {
		campaignRepo repository.CampaignRepository
	}
)

func NewCampaignService(campaignRepo repository.CampaignRepository) *CampaignServiceImpl {
	return &CampaignServiceImpl{campaignRepo: campaignRepo}
}

func (cs *CampaignServiceImpl) Create(ctx context.Context, name, ctype string, payout int64, link string, dailyCap, userCap int64) (*models.Campaign, error) {
	now := time.Now()
	campaign := &models.Campaign{
		Name:      name,
		Type:      ctype,
		Payout:    payout,
		Link:      link,
		Status:    models.CampaignActive,
		DailyCap:  dailyCap,
		UserCap:   userCap,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := cs.campaignRepo.Create(ctx, campaign)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateName) {
			return nil, ErrDuplicateCampaign
		}
		return nil, fmt.Errorf("create campaign: %w", err)
	}
	return campaign, nil
}

func (cs *CampaignServiceImpl) GetByName(ctx context.Context, name string) (*models.Campaign, error) {
	campaign, err := cs.campaignRepo.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCampaignNotFound
		}
		return nil, err
	}
	return campaign, nil
}

func (cs *CampaignServiceImpl) List(ctx context.Context) ([]models.Campaign, error) {
	return cs.campaignRepo.List(ctx)
}

func (cs *CampaignServiceImpl) ListActive(ctx context.Context) ([]models.Campaign, error) {
	return cs.campaignRepo.ListActive(ctx)
}

func (cs *CampaignServiceImpl) SetStatus(ctx context.Context, name string, status models.CampaignStatus) error {
	return cs.applyUpdate(cs.campaignRepo.SetStatus(ctx, name, status))
}

func (cs *CampaignServiceImpl) UpdatePayout(ctx context.Context, name string, payout int64) error {
	return cs.applyUpdate(cs.campaignRepo.UpdatePayout(ctx, name, payout))
}

func (cs *CampaignServiceImpl) UpdateLink(ctx context.Context, name string, link string) error {
	return cs.applyUpdate(cs.campaignRepo.UpdateLink(ctx, name, link))
}

func (cs *CampaignServiceImpl) SetDailyCap(ctx context.Context, name string, cap int64) error {
	return cs.applyUpdate(cs.campaignRepo.SetDailyCap(ctx, name, cap))
}

func (cs *CampaignServiceImpl) SetUserCap(ctx context.Context, name string, cap int64) error {
	return cs.applyUpdate(cs.campaignRepo.SetUserCap(ctx, name, cap))
}

func (cs *CampaignServiceImpl) applyUpdate(updated bool, err error) error {
	if err != nil {
		return err
	}
	if !updated {
		return ErrCampaignNotFound
	}
	return nil
}

// TrackingLink personalizes the campaign's base URL with the account identity
// as the p1 query parameter. The identity goes through net/url so a base link
// without an existing query string still comes out well-formed.
func (cs *CampaignServiceImpl) TrackingLink(campaign *models.Campaign, telegramID int64) string {
	id := strconv.FormatInt(telegramID, 10)
	u, err := url.Parse(campaign.Link)
	if err != nil {
		return campaign.Link + "&p1=" + id
	}
	q := u.Query()
	q.Set("p1", id)
	u.RawQuery = q.Encode()
	return u.String()
}
