package repository

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const initAccountDB = `
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
`

func setupInMemoryAccountDB(t *testing.T) *sqlx.DB {
	db, err := sqlx.Open("sqlite3", "file:accountmemdb?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("could not create in-memory db: %v", err)
	}
	_, err = db.Exec(initAccountDB)
	if err != nil {
		t.Fatalf("could not create accounts table: %v", err)
	}
	return db
}

func TestAccountRepositoryImpl_GetOrCreate(t *testing.T) {
	db := setupInMemoryAccountDB(t)
	defer db.Close()

	repo := NewAccountRepository(db)

	account, err := repo.GetOrCreate(context.Background(), 1001)
	require.NoError(t, err)
	assert.Equal(t, int64(1001), account.TelegramID)
	assert.Equal(t, int64(0), account.Wallet, "new account starts empty")
	assert.Equal(t, int64(0), account.TotalEarned)
	assert.Nil(t, account.LastWithdrawDate)

	// seed some balance and make sure a repeated call does not reset it
	_, err = db.Exec(`UPDATE accounts SET wallet = 500 WHERE telegram_id = ?`, 1001)
	require.NoError(t, err)

	account, err = repo.GetOrCreate(context.Background(), 1001)
	require.NoError(t, err)
	assert.Equal(t, int64(500), account.Wallet, "existing account must not be reset")
}

func TestAccountRepositoryImpl_Credit(t *testing.T) {
	db := setupInMemoryAccountDB(t)
	defer db.Close()

	repo := NewAccountRepository(db)

	_, err := repo.GetOrCreate(context.Background(), 1002)
	require.NoError(t, err)

	tests := []struct {
		name            string
		telegramID      int64
		amount          int64
		wantErr         bool
		wantWallet      int64
		wantTotalEarned int64
	}{
		{
			name:            "Successful Credit",
			telegramID:      1002,
			amount:          50,
			wantErr:         false,
			wantWallet:      50,
			wantTotalEarned: 50,
		},
		{
			name:            "Second Credit Accumulates",
			telegramID:      1002,
			amount:          25,
			wantErr:         false,
			wantWallet:      75,
			wantTotalEarned: 75,
		},
		{
			name:       "Unknown Account",
			telegramID: 9999,
			amount:     10,
			wantErr:    true,
		},
		{
			name:       "Negative Amount Rejected",
			telegramID: 1002,
			amount:     -10,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, err := db.Beginx()
			require.NoError(t, err)

			account, err := repo.Credit(context.Background(), tx, tt.telegramID, tt.amount)
			if tt.wantErr {
				assert.Error(t, err, "Credit should fail")
				assert.NoError(t, tx.Rollback(), "Rollback should succeed")
			} else {
				assert.NoError(t, err, "Credit should not fail")
				assert.NoError(t, tx.Commit(), "Commit should succeed")
				assert.Equal(t, tt.wantWallet, account.Wallet, "Wallet should match")
				assert.Equal(t, tt.wantTotalEarned, account.TotalEarned, "TotalEarned should match")
			}
		})
	}
}

func TestAccountRepositoryImpl_Refund(t *testing.T) {
	db := setupInMemoryAccountDB(t)
	defer db.Close()

	repo := NewAccountRepository(db)

	_, err := repo.GetOrCreate(context.Background(), 1003)
	require.NoError(t, err)
	_, err = db.Exec(`UPDATE accounts SET wallet = 100, total_earned = 300 WHERE telegram_id = ?`, 1003)
	require.NoError(t, err)

	tx, err := db.Beginx()
	require.NoError(t, err)

	account, err := repo.Refund(context.Background(), tx, 1003, 40)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	assert.Equal(t, int64(140), account.Wallet, "Refund should restore the wallet")
	assert.Equal(t, int64(300), account.TotalEarned, "Refund must not touch total_earned")
}

func TestAccountRepositoryImpl_DebitForWithdrawal(t *testing.T) {
	db := setupInMemoryAccountDB(t)
	defer db.Close()

	repo := NewAccountRepository(db)

	_, err := repo.GetOrCreate(context.Background(), 1004)
	require.NoError(t, err)
	_, err = db.Exec(`UPDATE accounts SET wallet = 200 WHERE telegram_id = ?`, 1004)
	require.NoError(t, err)

	tests := []struct {
		name        string
		telegramID  int64
		amount      int64
		wantErr     bool
		wantDebited bool
		wantWallet  int64
		wantDate    string
	}{
		{
			name:        "Successful Reservation",
			telegramID:  1004,
			amount:      150,
			wantDebited: true,
			wantWallet:  50,
			wantDate:    "2024-05-01",
		},
		{
			name:        "Insufficient Balance Matches No Row",
			telegramID:  1004,
			amount:      500,
			wantDebited: false,
			wantWallet:  50,
			wantDate:    "2024-05-01",
		},
		{
			name:       "Non-Positive Amount Rejected",
			telegramID: 1004,
			amount:     0,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, err := db.Beginx()
			require.NoError(t, err)

			debited, err := repo.DebitForWithdrawal(context.Background(), tx, tt.telegramID, tt.amount, "2024-05-01")
			if tt.wantErr {
				assert.Error(t, err, "DebitForWithdrawal should fail")
				assert.NoError(t, tx.Rollback(), "Rollback should succeed")
				return
			}
			assert.NoError(t, err, "DebitForWithdrawal should not fail")
			assert.NoError(t, tx.Commit(), "Commit should succeed")
			assert.Equal(t, tt.wantDebited, debited)

			account, err := repo.Get(context.Background(), tt.telegramID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantWallet, account.Wallet, "Wallet should match")
			if tt.wantDebited {
				require.NotNil(t, account.LastWithdrawDate)
				assert.Equal(t, tt.wantDate, *account.LastWithdrawDate)
			}
		})
	}
}
