package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/agrostore-bff/pkg/config"
	"github.com/angelmondragon/agrostore-bff/pkg/db"
	"github.com/angelmondragon/agrostore-bff/pkg/logger"
	"github.com/angelmondragon/agrostore-bff/pkg/migrate"
)

// Commands forwarded to goose unchanged.
var gooseCommands = map[string]bool{
	"up":        true,
	"up-by-one": true,
	"down":      true,
	"redo":      true,
	"status":    true,
}

func main() {
	_ = godotenv.Load()

	cmd := flag.String("cmd", "up", "up|up-by-one|down|redo|status|version|create|validate")
	dir := flag.String("dir", migrate.DefaultDir, "migrations directory on disk")
	embedded := flag.Bool("embedded", false, "run the migrations compiled into the binary instead of -dir")
	name := flag.String("name", "", "migration name (create)")
	version := flag.String("version", "", "target version YYYYMMDDHHMMSS (version)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fail("load config", err)
	}

	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Env:         cfg.App.Env,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	sourceDir := *dir
	if *embedded {
		sourceDir = ""
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"cmd":      *cmd,
		"dir":      sourceDir,
		"embedded": *embedded,
		"driver":   cfg.DB.Driver,
	})

	// Offline commands operate on files only.
	switch *cmd {
	case "create":
		if *name == "" {
			fail("create", fmt.Errorf("-name is required"))
		}
		path, err := migrate.CreateSQLMigration(*dir, *name, time.Now())
		if err != nil {
			fail("create migration", err)
		}
		fmt.Println("created migration:", path)
		return
	case "validate":
		if err := migrate.ValidateDir(*dir); err != nil {
			fail("validate migrations", err)
		}
		fmt.Println("migrations ok")
		return
	}

	if !gooseCommands[*cmd] && *cmd != "version" {
		fail("parse flags", fmt.Errorf("unknown -cmd %q", *cmd))
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "migrate.db_unavailable", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		logg.Error(ctx, "migrate.db_unavailable", err)
		os.Exit(1)
	}

	logg.Info(ctx, "migrate.start")
	if *cmd == "version" {
		if *version == "" {
			err = fmt.Errorf("-version is required")
		} else {
			err = migrate.MigrateToVersion(ctx, sqlDB, dbClient.Driver(), sourceDir, *version)
		}
	} else {
		err = migrate.Run(ctx, sqlDB, dbClient.Driver(), sourceDir, *cmd)
	}
	if err != nil {
		logg.Error(ctx, "migrate.failed", err)
		dbClient.Close()
		os.Exit(1)
	}
	logg.Info(ctx, "migrate.done")
}

func fail(step string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", step, err)
	os.Exit(1)
}
