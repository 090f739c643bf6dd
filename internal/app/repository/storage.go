package repository

import (
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"github.com/amezhanin/affilibot/internal/app/config"
	"github.com/amezhanin/affilibot/migrations"
)

type DBStorage struct {
	DBConn *sqlx.DB
}

func NewDBStorage(cfg config.AppConfig) *DBStorage {
	db, err := sqlx.Open("postgres", cfg.DatabaseDSN)
	if err != nil {
		panic(err)
	}
	if err = db.Ping(); err != nil {
		panic(err)
	}

	// Migrate the database
	goose.SetBaseFS(migrations.FS)
	if err = goose.SetDialect("postgres"); err != nil {
		panic(err)
	}
	if err = goose.Up(db.DB, "."); err != nil {
		panic(err)
	}

	return &DBStorage{DBConn: db}
}
