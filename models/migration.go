package models

import (
	"context"
	"log"

	"github.com/FantasticalEmbrace/hmherbs-catalog/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Brand{}, &Category{},
		&Product{}, &ProductImage{},
		&ReconcileRun{},
	)
	if err != nil {
		log.Fatal(err)
	}

	// Sentinels must exist before any reconciliation pass runs.
	if _, err := EnsureSentinelBrand(context.Background()); err != nil {
		log.Fatal(err)
	}
	if _, err := EnsureSentinelCategory(context.Background()); err != nil {
		log.Fatal(err)
	}
}
