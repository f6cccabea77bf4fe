// seed-rules loads and validates a reconciliation settings file and prints
// the compiled rule tables, so an operator can check a policy change before
// pointing catalog-reconcile at it.
//
//	go run ./cmd/seed-rules -rules=config/reconcile.yaml
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/FantasticalEmbrace/hmherbs-catalog/config"
)

func main() {
	rulesPath := flag.String("rules", "", "Path to the reconciliation settings file (default: search for reconcile.yaml)")
	flag.Parse()

	settings, err := config.LoadSettings(*rulesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "settings invalid: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("brand rules (%d, first match wins):\n", len(settings.BrandRules))
	for i, rule := range settings.BrandRules {
		fmt.Printf("  %3d. %-30s %v\n", i+1, rule.Label, rule.Keywords)
	}
	fmt.Printf("category rules (%d, first match wins):\n", len(settings.CategoryRules))
	for i, rule := range settings.CategoryRules {
		fmt.Printf("  %3d. %-30s %v\n", i+1, rule.Label, rule.Keywords)
	}

	fmt.Printf("description length threshold: %d\n", settings.DescriptionLengthThreshold)
	fmt.Printf("placeholder price: %s\n", settings.PlaceholderPrice)
	fmt.Printf("label max name length: %d\n", settings.LabelMaxNameLength)
	fmt.Printf("label junk markers: %v\n", settings.LabelJunkMarkers)

	fmt.Printf("image providers (%d, tried in order):\n", len(settings.Resolver.Providers))
	for i, p := range settings.Resolver.Providers {
		fmt.Printf("  %3d. %-20s timeout=%ds base_url=%s\n", i+1, p.Name, p.TimeoutSeconds, p.BaseURL)
	}
	fmt.Printf("backfill workers: %d\n", settings.Resolver.Workers)
	fmt.Printf("url denylist: %v\n", settings.Resolver.URLDenylist)

	fmt.Println("settings OK")
}
