// image-backfill resolves a primary image for every catalog entry missing
// one, querying the configured provider chain in order and accepting the
// first valid result. Entries no provider can satisfy stay untouched and are
// listed for manual follow-up.
//
// Usage (dry-run, audit the chain without writing):
//
//	go run ./cmd/image-backfill -rules=config/reconcile.yaml -limit=50
//
// To persist resolved images:
//
//	go run ./cmd/image-backfill -rules=config/reconcile.yaml -dry-run=false
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/FantasticalEmbrace/hmherbs-catalog/config"
	"github.com/FantasticalEmbrace/hmherbs-catalog/images"
	"github.com/FantasticalEmbrace/hmherbs-catalog/models"
)

func main() {
	rulesPath := flag.String("rules", "", "Path to the reconciliation settings file (default: search for reconcile.yaml)")
	dryRun := flag.Bool("dry-run", true, "Walk the provider chain without persisting results")
	limit := flag.Int("limit", 0, "Max entries to process this run (0 = all)")
	workers := flag.Int("workers", 0, "Worker pool size override (0 = use settings)")
	flag.Parse()

	settings, err := config.LoadSettings(*rulesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load settings: %v\n", err)
		os.Exit(1)
	}

	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	models.MigrateTable()

	providers, err := images.BuildProviders(settings.Resolver)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build providers: %v\n", err)
		os.Exit(1)
	}

	resolver, err := images.NewResolver(providers, settings.Resolver, images.StoreSaver{}, config.GetLogger(), images.NewMetrics())
	if err != nil {
		fmt.Fprintf(os.Stderr, "build resolver: %v\n", err)
		os.Exit(1)
	}
	resolver.DryRun = *dryRun

	poolSize := settings.Resolver.Workers
	if *workers > 0 {
		poolSize = *workers
	}

	report, err := resolver.Backfill(context.Background(), poolSize, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "backfill failed: %v\n", err)
		os.Exit(1)
	}

	payload, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal report: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(payload))

	if *dryRun {
		fmt.Println("dry run: no images persisted; run with -dry-run=false to apply")
	}
}
