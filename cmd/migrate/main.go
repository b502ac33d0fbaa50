// Command migrate applies the schema. Production servers do not migrate on
// startup, so deployments run this first.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"confessional/internal/config"
	"confessional/internal/database"
	"confessional/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func usage() error {
	return fmt.Errorf("usage: go run ./cmd/migrate <up|status>")
}

func run() error {
	flag.Parse()
	if flag.NArg() < 1 {
		return usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := gorm.Open(postgres.Open(database.DSN(cfg)), &gorm.Config{
		Logger:         database.NewGormLogger(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	ctx := context.Background()
	switch strings.ToLower(strings.TrimSpace(flag.Arg(0))) {
	case "up":
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
		log.Println("schema migrated")
	case "status":
		for _, m := range database.PersistentModels() {
			log.Printf("%-24T present=%t", m, db.Migrator().HasTable(m))
		}
		var seq models.Sequence
		if err := db.WithContext(ctx).First(&seq, "name = ?", models.SequencePostNumber).Error; err != nil {
			log.Printf("post number sequence: missing (%v)", err)
		} else {
			log.Printf("post number sequence: %d", seq.Value)
		}
	default:
		return usage()
	}
	return nil
}
