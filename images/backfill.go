package images

import (
	"context"
	"sync"

	"github.com/FantasticalEmbrace/hmherbs-catalog/models"
	"github.com/sirupsen/logrus"
)

// BackfillReport summarizes one backfill job for operator review.
type BackfillReport struct {
	Candidates int                  `json:"candidates"`
	Resolved   int                  `json:"resolved"`
	Unresolved int                  `json:"unresolved"`
	Attempts   []*ResolutionAttempt `json:"attempts"`
}

// Backfill resolves every catalog entry currently missing a primary image,
// fanning entries out over a bounded worker pool. Providers are slow and
// independent, so worker-level concurrency is safe; the per-entry provider
// chain stays strictly sequential (first success wins).
func (r *Resolver) Backfill(ctx context.Context, workers int, limit int) (*BackfillReport, error) {
	products, err := models.FetchProductsMissingPrimaryImage(ctx, limit)
	if err != nil {
		return nil, err
	}

	brandNames, err := brandNameIndex(ctx)
	if err != nil {
		return nil, err
	}

	if workers <= 0 {
		workers = 1
	}

	jobs := make(chan *models.Product)
	results := make(chan *ResolutionAttempt, len(products))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for product := range jobs {
				results <- r.Resolve(ctx, product, brandNames[product.BrandId])
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, product := range products {
			select {
			case jobs <- product:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	report := &BackfillReport{Candidates: len(products)}
	for attempt := range results {
		report.Attempts = append(report.Attempts, attempt)
		if attempt.Status == StatusResolved {
			report.Resolved++
		} else {
			report.Unresolved++
			r.log.WithFields(logrus.Fields{
				"product": attempt.ProductId,
				"reason":  attempt.Reason,
			}).Info("image unresolved")
		}
	}
	return report, nil
}

func brandNameIndex(ctx context.Context) (map[int]string, error) {
	brands, err := models.FetchAllBrands(ctx)
	if err != nil {
		return nil, err
	}
	index := make(map[int]string, len(brands))
	for _, brand := range brands {
		if brand.Name != models.BrandNameUnknown {
			index[brand.ID] = brand.Name
		}
	}
	return index, nil
}
