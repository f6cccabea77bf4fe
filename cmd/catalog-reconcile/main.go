// catalog-reconcile runs one full catalog reconciliation pass: reclassifies
// every product against the configured brand/category rule tables, collapses
// duplicate entries to one survivor per canonical name, and compacts the
// label tables.
//
// Usage (dry-run, list planned mutations only):
//
//	go run ./cmd/catalog-reconcile -rules=config/reconcile.yaml
//
// To apply:
//
//	go run ./cmd/catalog-reconcile -rules=config/reconcile.yaml \
//	  -dry-run=false -confirm=RECONCILE
//
// Re-running on an already-clean catalog reports zero mutations.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/FantasticalEmbrace/hmherbs-catalog/config"
	"github.com/FantasticalEmbrace/hmherbs-catalog/models"
	"github.com/FantasticalEmbrace/hmherbs-catalog/reconcile"
)

func main() {
	rulesPath := flag.String("rules", "", "Path to the reconciliation settings file (default: search for reconcile.yaml)")
	dryRun := flag.Bool("dry-run", true, "Compute and report mutations without applying them")
	confirm := flag.String("confirm", "", "Type RECONCILE to proceed when -dry-run=false")
	useRedis := flag.Bool("redis-lock", true, "Acquire the redis run lock (requires REDIS_ADDRESS)")
	lastReport := flag.Bool("last-report", false, "Print the cached report of the most recent run and exit")
	flag.Parse()

	if *lastReport {
		printLastReport()
		return
	}

	if !*dryRun && strings.TrimSpace(*confirm) != "RECONCILE" {
		fmt.Fprintln(os.Stderr, "set -confirm=RECONCILE to proceed when -dry-run=false")
		os.Exit(1)
	}

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

	if *useRedis && os.Getenv("REDIS_ADDRESS") != "" {
		config.ConnectRedisWithRetry()
	}

	reconciler := reconcile.NewReconciler(settings, config.GetLogger(), reconcile.NewMetrics())
	reconciler.DryRun = *dryRun

	report, err := reconciler.Run(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "reconciliation failed: %v\n", err)
		os.Exit(1)
	}

	payload, err := report.JSON()
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal report: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(payload))

	if *dryRun {
		fmt.Println("dry run: no mutations applied; run with -dry-run=false -confirm=RECONCILE to apply")
	}
}

func printLastReport() {
	config.ConnectRedisWithRetry()
	var report reconcile.ReconciliationReport
	found, err := config.GetRedisObject("reconcile:lastReport", &report)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fetch last report: %v\n", err)
		os.Exit(1)
	}
	if !found {
		fmt.Println("no cached report")
		return
	}
	payload, err := report.JSON()
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal report: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(payload))
}
