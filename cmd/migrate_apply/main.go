package main

import (
	"flag"
	"os"

	"stream_ledger/internal/logger"
	"stream_ledger/internal/migrations"
)

func main() {
	logger.Init(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_JSON") == "true")
	defer logger.Sync()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logger.Fatal("DATABASE_URL not set")
	}

	down := flag.Bool("down", false, "roll back every migration instead of applying")
	flag.Parse()

	if *down {
		if err := migrations.Down(dsn); err != nil {
			logger.Fatal("rollback failed", "error", err)
		}
		logger.Info("migrations rolled back")
		return
	}
	if err := migrations.Up(dsn); err != nil {
		logger.Fatal("migration failed", "error", err)
	}
}
