package service

import (
	"context"

	appErrors "github.com/amezhanin/affilibot/internal/app/errors"
	"github.com/amezhanin/affilibot/internal/app/models"
	"github.com/amezhanin/affilibot/internal/app/repository"
)

type (
	Dashboard struct {
		Wallet      int64
		TotalEarned int64
	}
	AccountService interface {
		Register(ctx context.Context, telegramID int64) (*models.Account, error)
		GetDashboard(ctx context.Context, telegramID int64) (*Dashboard, error)
	}
	AccountServiceImpl struct {
		accountRepo repository.AccountRepository
	}
)

func NewAccountService(accountRepo repository.AccountRepository) *AccountServiceImpl {
	return &AccountServiceImpl{accountRepo: accountRepo}
}

// Register creates the account lazily on first interaction; repeated calls
// return the existing row untouched.
func (as *AccountServiceImpl) Register(ctx context.Context, telegramID int64) (*models.Account, error) {
	account, err := as.accountRepo.GetOrCreate(ctx, telegramID)
	if err != nil {
		return nil, appErrors.New(err, "register account")
	}
	return account, nil
}

func (as *AccountServiceImpl) GetDashboard(ctx context.Context, telegramID int64) (*Dashboard, error) {
	account, err := as.accountRepo.GetOrCreate(ctx, telegramID)
	if err != nil {
		return nil, appErrors.New(err, "get dashboard")
	}
	return &Dashboard{
		Wallet:      account.Wallet,
		TotalEarned: account.TotalEarned,
	}, nil
}
