package main

import (
	"flag"
	"os"

	"github.com/WesleyKlop/journali-api/internal/config"
	"github.com/WesleyKlop/journali-api/internal/logger"
	"github.com/WesleyKlop/journali-api/journaliservice"
)

func main() {
	// Optional storage override (postgres | sqlite)
	dbDriver := flag.String("db-driver", "", "Override DB_DRIVER (postgres, sqlite)")
	flag.Parse()

	log := logger.New("journali-server")

	cfg, err := config.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *dbDriver != "" {
		cfg.DBDriver = *dbDriver
		if err := cfg.ResolveDefaults(); err != nil {
			log.Fatal().Err(err).Msg("Invalid db-driver override")
		}
	}
	log = logger.New("journali-server", logger.WithLevel(cfg.LogLevel))

	ctx, stop := journaliservice.NewServerContext()
	defer stop()

	if err := journaliservice.Run(ctx, cfg, log); err != nil {
		stop()
		os.Exit(1)
	}
}
