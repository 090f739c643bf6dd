package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amezhanin/affilibot/internal/app/models"
	"github.com/amezhanin/affilibot/internal/app/repository"
)

const initEngineDB = `
CREATE TABLE IF NOT EXISTS accounts
(
    telegram_id INTEGER PRIMARY KEY,
    wallet INTEGER NOT NULL DEFAULT 0,
    total_earned INTEGER NOT NULL DEFAULT 0,
    last_withdraw_date TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    CHECK (wallet >= 0),
    CHECK (total_earned >= 0)
);
CREATE TABLE IF NOT EXISTS campaigns
(
    name TEXT PRIMARY KEY,
    type TEXT NOT NULL,
    payout INTEGER NOT NULL,
    link TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'active',
    daily_cap INTEGER NOT NULL DEFAULT 0,
    user_cap INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS conversions
(
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    campaign_name TEXT NOT NULL,
    telegram_id INTEGER NOT NULL,
    txid TEXT,
    day TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE UNIQUE INDEX IF NOT EXISTS conversions_txid_idx ON conversions (txid) WHERE txid IS NOT NULL;
CREATE TABLE IF NOT EXISTS withdrawals
(
    uuid TEXT PRIMARY KEY,
    telegram_id INTEGER NOT NULL,
    amount INTEGER NOT NULL,
    destination TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'pending',
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// recordingNotifier captures engine notifications for assertions.
type recordingNotifier struct {
	credited  []string
	submitted []*models.Withdrawal
	decided   []*models.Withdrawal
}

func (rn *recordingNotifier) WithdrawalSubmitted(w *models.Withdrawal) {
	rn.submitted = append(rn.submitted, w)
}

func (rn *recordingNotifier) WithdrawalDecided(w *models.Withdrawal) {
	rn.decided = append(rn.decided, w)
}

func (rn *recordingNotifier) ConversionCredited(telegramID int64, campaign string, payout int64) {
	rn.credited = append(rn.credited, fmt.Sprintf("%d:%s:%d", telegramID, campaign, payout))
}

func setupEngineDB(t *testing.T, name string) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite3", "file:"+name+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("could not create in-memory db: %v", err)
	}
	if _, err = db.Exec(initEngineDB); err != nil {
		t.Fatalf("could not create schema: %v", err)
	}
	return db
}

func createEngineCampaign(t *testing.T, db *sqlx.DB, name string, payout, dailyCap, userCap int64, status models.CampaignStatus) {
	t.Helper()
	repo := repository.NewCampaignRepository(db)
	now := time.Now()
	err := repo.Create(context.Background(), &models.Campaign{
		Name:      name,
		Type:      "CPI",
		Payout:    payout,
		Link:      "https://tracker.example.com/click?offer=" + name,
		Status:    status,
		DailyCap:  dailyCap,
		UserCap:   userCap,
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.NoError(t, err)
}

func accountWallet(t *testing.T, db *sqlx.DB, telegramID int64) (wallet, totalEarned int64) {
	t.Helper()
	account := models.Account{}
	require.NoError(t, db.Get(&account, `SELECT * FROM accounts WHERE telegram_id = ?`, telegramID))
	return account.Wallet, account.TotalEarned
}

func newCreditEngine(db *sqlx.DB, notifier Notifier) *CreditServiceImpl {
	ar := repository.NewAccountRepository(db)
	cr := repository.NewCampaignRepository(db)
	cvr := repository.NewConversionRepository(db)
	return NewCreditService(ar, cr, cvr, notifier)
}

func TestCreditService_Credit_Success(t *testing.T) {
	db := setupEngineDB(t, "creditok")
	defer db.Close()

	createEngineCampaign(t, db, "install", 50, models.Unlimited, models.Unlimited, models.CampaignActive)
	notifier := &recordingNotifier{}
	engine := newCreditEngine(db, notifier)

	err := engine.Credit(context.Background(), 3001, "install", "tx-1")
	require.NoError(t, err)

	wallet, totalEarned := accountWallet(t, db, 3001)
	assert.Equal(t, int64(50), wallet)
	assert.Equal(t, int64(50), totalEarned)
	assert.Equal(t, []string{"3001:install:50"}, notifier.credited)
}

func TestCreditService_Credit_AtMostOncePerTxID(t *testing.T) {
	db := setupEngineDB(t, "creditdup")
	defer db.Close()

	createEngineCampaign(t, db, "install", 50, models.Unlimited, models.Unlimited, models.CampaignActive)
	engine := newCreditEngine(db, NopNotifier{})

	require.NoError(t, engine.Credit(context.Background(), 3002, "install", "tx-replay"))

	err := engine.Credit(context.Background(), 3002, "install", "tx-replay")
	assert.ErrorIs(t, err, ErrDuplicateEvent)

	wallet, _ := accountWallet(t, db, 3002)
	assert.Equal(t, int64(50), wallet, "replay must not credit twice")
}

func TestCreditService_Credit_UnknownAndInactiveCampaign(t *testing.T) {
	db := setupEngineDB(t, "creditmissing")
	defer db.Close()

	createEngineCampaign(t, db, "paused-offer", 50, models.Unlimited, models.Unlimited, models.CampaignPaused)
	engine := newCreditEngine(db, NopNotifier{})

	err := engine.Credit(context.Background(), 3003, "no-such-offer", "")
	assert.ErrorIs(t, err, ErrCampaignNotFound)

	err = engine.Credit(context.Background(), 3003, "paused-offer", "")
	assert.ErrorIs(t, err, ErrCampaignInactive)
}

func TestCreditService_Credit_DailyCap(t *testing.T) {
	db := setupEngineDB(t, "creditdaily")
	defer db.Close()

	createEngineCampaign(t, db, "capped", 10, 2, models.Unlimited, models.CampaignActive)
	engine := newCreditEngine(db, NopNotifier{})

	require.NoError(t, engine.Credit(context.Background(), 3004, "capped", "tx-a"))
	require.NoError(t, engine.Credit(context.Background(), 3005, "capped", "tx-b"))

	err := engine.Credit(context.Background(), 3006, "capped", "tx-c")
	assert.ErrorIs(t, err, ErrDailyCapReached, "third same-day credit must hit the daily cap")

	// the blocked account was registered but never credited
	wallet, _ := accountWallet(t, db, 3006)
	assert.Equal(t, int64(0), wallet)
}

func TestCreditService_Credit_UserCap(t *testing.T) {
	db := setupEngineDB(t, "credituser")
	defer db.Close()

	createEngineCampaign(t, db, "once-per-user", 50, models.Unlimited, 1, models.CampaignActive)
	engine := newCreditEngine(db, NopNotifier{})

	require.NoError(t, engine.Credit(context.Background(), 3007, "once-per-user", "tx-u1"))

	err := engine.Credit(context.Background(), 3007, "once-per-user", "tx-u2")
	assert.ErrorIs(t, err, ErrUserCapReached)

	wallet, _ := accountWallet(t, db, 3007)
	assert.Equal(t, int64(50), wallet, "wallet must stay unchanged after the cap block")

	// another account is still within its own allowance
	require.NoError(t, engine.Credit(context.Background(), 3008, "once-per-user", "tx-u3"))
}

// guardRejectingConversionRepo reports empty counts but refuses every append,
// the way the statement-level guard behaves when a competing append committed
// between the counts and the insert.
type guardRejectingConversionRepo struct{}

func (guardRejectingConversionRepo) ExistsTxID(context.Context, *sqlx.Tx, string) (bool, error) {
	return false, nil
}

func (guardRejectingConversionRepo) CountCampaignDay(context.Context, *sqlx.Tx, string, string) (int64, error) {
	return 0, nil
}

func (guardRejectingConversionRepo) CountAccountCampaignDay(context.Context, *sqlx.Tx, string, int64, string) (int64, error) {
	return 0, nil
}

func (guardRejectingConversionRepo) Append(context.Context, *sqlx.Tx, *models.Conversion, int64, int64) (bool, error) {
	return false, nil
}

func TestCreditService_Credit_GuardRejectionNamesCap(t *testing.T) {
	tests := []struct {
		name     string
		dailyCap int64
		userCap  int64
		wantErr  error
	}{
		{name: "Only User Cap Finite", dailyCap: models.Unlimited, userCap: 1, wantErr: ErrUserCapReached},
		{name: "Daily Cap Finite", dailyCap: 2, userCap: models.Unlimited, wantErr: ErrDailyCapReached},
		{name: "Both Finite", dailyCap: 2, userCap: 1, wantErr: ErrDailyCapReached},
	}
	db := setupEngineDB(t, "creditguard")
	defer db.Close()

	ar := repository.NewAccountRepository(db)
	cr := repository.NewCampaignRepository(db)
	engine := NewCreditService(ar, cr, guardRejectingConversionRepo{}, NopNotifier{})

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name := fmt.Sprintf("guarded-%d", i)
			createEngineCampaign(t, db, name, 50, tt.dailyCap, tt.userCap, models.CampaignActive)

			err := engine.Credit(context.Background(), 3100, name, "")
			assert.ErrorIs(t, err, tt.wantErr)

			wallet, _ := accountWallet(t, db, 3100)
			assert.Equal(t, int64(0), wallet, "a rejected append must not credit")
		})
	}
}

func TestCreditService_Credit_NoTxIDStillCapped(t *testing.T) {
	db := setupEngineDB(t, "creditnotx")
	defer db.Close()

	createEngineCampaign(t, db, "bare-offer", 30, models.Unlimited, 1, models.CampaignActive)
	engine := newCreditEngine(db, NopNotifier{})

	require.NoError(t, engine.Credit(context.Background(), 3009, "bare-offer", ""))

	// without a token the user cap is the effective duplicate bound
	err := engine.Credit(context.Background(), 3009, "bare-offer", "")
	assert.ErrorIs(t, err, ErrUserCapReached)
}
