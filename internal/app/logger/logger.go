package logger

import (
	"go.uber.org/zap"
)

// Log is the global application logger. It is a no-op until InitLogger is called.
var Log = zap.NewNop()

func InitLogger(level string) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		panic(err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	zl, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	Log = zl
}
