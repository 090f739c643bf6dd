package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amezhanin/affilibot/internal/app/models"
)

const initConversionDB = `
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
`

func setupInMemoryConversionDB(t *testing.T) *sqlx.DB {
	db, err := sqlx.Open("sqlite3", "file:conversionmemdb?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("could not create in-memory db: %v", err)
	}
	_, err = db.Exec(initConversionDB)
	if err != nil {
		t.Fatalf("could not create conversions table: %v", err)
	}
	return db
}

func appendConversion(t *testing.T, repo *ConversionRepositoryImpl, db *sqlx.DB, campaign string, telegramID int64, txid, day string, dailyCap, userCap int64) bool {
	t.Helper()
	tx, err := db.Beginx()
	require.NoError(t, err)

	conversion := &models.Conversion{
		Campaign:   campaign,
		TelegramID: telegramID,
		Day:        day,
		CreatedAt:  time.Now(),
	}
	if txid != "" {
		conversion.TxID = &txid
	}
	inserted, err := repo.Append(context.Background(), tx, conversion, dailyCap, userCap)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	return inserted
}

func TestConversionRepositoryImpl_ExistsTxID(t *testing.T) {
	db := setupInMemoryConversionDB(t)
	defer db.Close()

	repo := NewConversionRepository(db)

	appendConversion(t, repo, db, "exists-camp", 1, "tx-100", "2024-05-01", models.Unlimited, models.Unlimited)

	tx, err := db.Beginx()
	require.NoError(t, err)
	defer tx.Rollback()

	exists, err := repo.ExistsTxID(context.Background(), tx, "tx-100")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsTxID(context.Background(), tx, "tx-unknown")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestConversionRepositoryImpl_Counts(t *testing.T) {
	db := setupInMemoryConversionDB(t)
	defer db.Close()

	repo := NewConversionRepository(db)

	appendConversion(t, repo, db, "count-camp", 10, "", "2024-05-01", models.Unlimited, models.Unlimited)
	appendConversion(t, repo, db, "count-camp", 10, "", "2024-05-01", models.Unlimited, models.Unlimited)
	appendConversion(t, repo, db, "count-camp", 11, "", "2024-05-01", models.Unlimited, models.Unlimited)
	appendConversion(t, repo, db, "count-camp", 10, "", "2024-05-02", models.Unlimited, models.Unlimited)

	tx, err := db.Beginx()
	require.NoError(t, err)
	defer tx.Rollback()

	dayCount, err := repo.CountCampaignDay(context.Background(), tx, "count-camp", "2024-05-01")
	require.NoError(t, err)
	assert.Equal(t, int64(3), dayCount, "counting is per campaign per day")

	userCount, err := repo.CountAccountCampaignDay(context.Background(), tx, "count-camp", 10, "2024-05-01")
	require.NoError(t, err)
	assert.Equal(t, int64(2), userCount, "counting is per account per campaign per day")
}

func TestConversionRepositoryImpl_Append_CapGuards(t *testing.T) {
	db := setupInMemoryConversionDB(t)
	defer db.Close()

	repo := NewConversionRepository(db)

	tests := []struct {
		name       string
		campaign   string
		seed       func()
		telegramID int64
		dailyCap   int64
		userCap    int64
		want       bool
	}{
		{
			name:       "Unlimited Caps Always Insert",
			campaign:   "guard-unlimited",
			seed:       func() {},
			telegramID: 1,
			dailyCap:   models.Unlimited,
			userCap:    models.Unlimited,
			want:       true,
		},
		{
			name:     "Daily Cap Blocks Third Insert",
			campaign: "guard-daily",
			seed: func() {
				appendConversion(t, repo, db, "guard-daily", 1, "", "2024-05-01", 2, models.Unlimited)
				appendConversion(t, repo, db, "guard-daily", 2, "", "2024-05-01", 2, models.Unlimited)
			},
			telegramID: 3,
			dailyCap:   2,
			userCap:    models.Unlimited,
			want:       false,
		},
		{
			name:     "User Cap Blocks Same Account",
			campaign: "guard-user",
			seed: func() {
				appendConversion(t, repo, db, "guard-user", 7, "", "2024-05-01", models.Unlimited, 1)
			},
			telegramID: 7,
			dailyCap:   models.Unlimited,
			userCap:    1,
			want:       false,
		},
		{
			name:     "User Cap Allows Another Account",
			campaign: "guard-user-other",
			seed: func() {
				appendConversion(t, repo, db, "guard-user-other", 7, "", "2024-05-01", models.Unlimited, 1)
			},
			telegramID: 8,
			dailyCap:   models.Unlimited,
			userCap:    1,
			want:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.seed()

			tx, err := db.Beginx()
			require.NoError(t, err)

			conversion := &models.Conversion{
				Campaign:   tt.campaign,
				TelegramID: tt.telegramID,
				Day:        "2024-05-01",
				CreatedAt:  time.Now(),
			}
			inserted, err := repo.Append(context.Background(), tx, conversion, tt.dailyCap, tt.userCap)
			require.NoError(t, err)
			require.NoError(t, tx.Commit())
			assert.Equal(t, tt.want, inserted)
		})
	}
}

func TestConversionRepositoryImpl_Append_DuplicateTxID(t *testing.T) {
	db := setupInMemoryConversionDB(t)
	defer db.Close()

	repo := NewConversionRepository(db)

	appendConversion(t, repo, db, "dup-camp", 1, "tx-dup", "2024-05-01", models.Unlimited, models.Unlimited)

	tx, err := db.Beginx()
	require.NoError(t, err)
	defer tx.Rollback()

	txid := "tx-dup"
	conversion := &models.Conversion{
		Campaign:   "dup-camp",
		TelegramID: 2,
		TxID:       &txid,
		Day:        "2024-05-01",
		CreatedAt:  time.Now(),
	}
	_, err = repo.Append(context.Background(), tx, conversion, models.Unlimited, models.Unlimited)
	assert.Error(t, err, "unique txid index must reject the replay")
}
