package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/FantasticalEmbrace/hmherbs-catalog/config"
	"github.com/FantasticalEmbrace/hmherbs-catalog/models"
	"github.com/FantasticalEmbrace/hmherbs-catalog/utils"
	"github.com/bsm/redislock"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const runLockKey = "reconcile:catalog"

// Reconciler is the catalog mutator: one parameterized pass replacing the
// old pile of per-threshold cleanup scripts. Each unit of work (one entry's
// relabel, one partition's deletion, one label merge) commits independently,
// so an interrupted run resumes idempotently.
type Reconciler struct {
	settings *config.Settings
	log      *logrus.Logger
	metrics  *Metrics

	// DryRun computes and reports every mutation without applying any.
	DryRun bool
}

func NewReconciler(settings *config.Settings, log *logrus.Logger, metrics *Metrics) *Reconciler {
	return &Reconciler{
		settings: settings,
		log:      log,
		metrics:  metrics,
	}
}

// Run executes one full reconciliation pass: classify every entry, apply
// label reassignments, delete duplicate losers per partition, compact the
// label tables. Per-entry and per-partition failures are logged and counted,
// never fatal. Running twice in succession yields a clean second report.
func (r *Reconciler) Run(ctx context.Context) (*ReconciliationReport, error) {
	report := &ReconciliationReport{
		RunId:     uuid.NewString(),
		DryRun:    r.DryRun,
		StartedAt: time.Now().UTC(),
	}

	// Only one reconciliation run per catalog at a time. Redis is optional;
	// without it the operator is trusted not to double-run.
	if locker := config.GetRedisLock(); locker != nil {
		lock, err := locker.Obtain(ctx, runLockKey, 30*time.Minute, nil)
		if errors.Is(err, redislock.ErrNotObtained) {
			return nil, utils.ErrorRunLockHeld
		}
		if err != nil {
			return nil, fmt.Errorf("obtain run lock: %w", err)
		}
		defer func() { _ = lock.Release(context.Background()) }()
	}

	brandCache, err := r.loadBrandCache(ctx)
	if err != nil {
		return nil, err
	}
	categoryCache, err := r.loadCategoryCache(ctx)
	if err != nil {
		return nil, err
	}

	if err := r.classifyAll(ctx, report, brandCache, categoryCache); err != nil {
		return nil, err
	}

	if err := r.deleteDuplicates(ctx, report); err != nil {
		return nil, err
	}

	for _, kind := range labelKinds() {
		if err := r.compactLabels(ctx, kind, report); err != nil {
			// compaction of one label table failing must not abort the other
			config.LogError(r.log, "reconcile", "Run", "compaction "+kind.kind, nil, err)
			r.metrics.IncFailure("compaction")
		}
	}

	report.FinishedAt = time.Now().UTC()
	r.persistAudit(ctx, report)
	return report, nil
}

/* classification phase */

// labelCache maps lower-cased label name to row id; 0 means "would be
// created" (dry-run placeholder).
type labelCache map[string]int

func (r *Reconciler) loadBrandCache(ctx context.Context) (labelCache, error) {
	brands, err := models.FetchAllBrands(ctx)
	if err != nil {
		return nil, err
	}
	cache := make(labelCache, len(brands))
	for _, b := range brands {
		cache[strings.ToLower(b.Name)] = b.ID
	}
	return cache, nil
}

func (r *Reconciler) loadCategoryCache(ctx context.Context) (labelCache, error) {
	categories, err := models.FetchAllCategories(ctx)
	if err != nil {
		return nil, err
	}
	cache := make(labelCache, len(categories))
	for _, c := range categories {
		cache[strings.ToLower(c.Name)] = c.ID
	}
	return cache, nil
}

// classifyAll runs both rule tables over every entry and applies the staged
// label reassignments. Entire phase completes before grouping starts so the
// grouper observes post-classification label state.
func (r *Reconciler) classifyAll(ctx context.Context, report *ReconciliationReport, brands, categories labelCache) error {
	products, err := models.FetchAllProducts(ctx)
	if err != nil {
		return err
	}
	report.ProductsScanned = len(products)

	for _, product := range products {
		brandName := Classify(product.Name, r.settings.BrandRules, models.BrandNameUnknown)
		categoryName := Classify(product.Name, r.settings.CategoryRules, models.CategoryNameGeneral)

		brandId, err := r.resolveBrandId(ctx, brandName, brands, report)
		if err != nil {
			r.recordEntryFailure(report, product, "resolve brand: "+err.Error())
			continue
		}
		categoryId, err := r.resolveCategoryId(ctx, categoryName, categories, report)
		if err != nil {
			r.recordEntryFailure(report, product, "resolve category: "+err.Error())
			continue
		}

		if product.BrandId == brandId && product.CategoryId == categoryId {
			continue
		}

		if !r.DryRun {
			if err := models.UpdateProductLabels(ctx, product.ID, brandId, categoryId); err != nil {
				r.recordEntryFailure(report, product, "update labels: "+err.Error())
				continue
			}
		}
		report.Reclassified++
		r.metrics.IncReclassified()
	}
	return nil
}

func (r *Reconciler) resolveBrandId(ctx context.Context, name string, cache labelCache, report *ReconciliationReport) (int, error) {
	key := strings.ToLower(name)
	if id, ok := cache[key]; ok {
		return id, nil
	}
	if r.DryRun {
		cache[key] = 0
		report.BrandsCreated++
		return 0, nil
	}
	brand, created, err := models.GetOrCreateBrand(ctx, name)
	if err != nil {
		return 0, err
	}
	cache[key] = brand.ID
	if created {
		report.BrandsCreated++
		r.metrics.IncLabelCreated("brand")
	}
	return brand.ID, nil
}

func (r *Reconciler) resolveCategoryId(ctx context.Context, name string, cache labelCache, report *ReconciliationReport) (int, error) {
	key := strings.ToLower(name)
	if id, ok := cache[key]; ok {
		return id, nil
	}
	if r.DryRun {
		cache[key] = 0
		report.CategoriesCreated++
		return 0, nil
	}
	category, created, err := models.GetOrCreateCategory(ctx, name)
	if err != nil {
		return 0, err
	}
	cache[key] = category.ID
	if created {
		report.CategoriesCreated++
		r.metrics.IncLabelCreated("category")
	}
	return category.ID, nil
}

func (r *Reconciler) recordEntryFailure(report *ReconciliationReport, product *models.Product, reason string) {
	report.ReclassifyFailures = append(report.ReclassifyFailures, EntryFailure{
		ProductId: product.ID,
		Name:      product.Name,
		Reason:    reason,
	})
	config.LogError(r.log, "reconcile", "classifyAll", reason, product.ID, errors.New(reason))
	r.metrics.IncFailure("classification")
}

/* duplicate deletion phase */

// deleteDuplicates re-loads the catalog (post-classification state), groups
// it, and deletes each partition's losers in one transaction: either the
// whole partition batch lands or the partition is reported and skipped.
func (r *Reconciler) deleteDuplicates(ctx context.Context, report *ReconciliationReport) error {
	products, err := models.FetchAllProducts(ctx)
	if err != nil {
		return err
	}

	placeholder, err := r.settings.PlaceholderPriceDecimal()
	if err != nil {
		return err
	}
	groups := GroupDuplicates(products, GroupOptions{
		PlaceholderPrice:           placeholder,
		DescriptionLengthThreshold: r.settings.DescriptionLengthThreshold,
	})
	report.DuplicateGroups = len(groups)

	db := config.GetDB()
	for _, group := range groups {
		loserIds := make([]int, 0, len(group.Losers))
		for _, loser := range group.Losers {
			loserIds = append(loserIds, loser.ID)
		}

		if r.DryRun {
			report.DuplicatesDeleted += len(loserIds)
			continue
		}

		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := models.DeleteImagesForProducts(tx, ctx, loserIds); err != nil {
				return err
			}
			return tx.Where("id IN ?", loserIds).Delete(&models.Product{}).Error
		})
		if err != nil {
			report.PartitionFailures = append(report.PartitionFailures, PartitionFailure{
				Key:    group.Key,
				Reason: err.Error(),
			})
			config.LogError(r.log, "reconcile", "deleteDuplicates", "partition "+group.Key, loserIds, err)
			r.metrics.IncFailure("deletion")
			continue
		}
		report.DuplicatesDeleted += len(loserIds)
		r.metrics.AddDeleted(len(loserIds))

		r.log.WithFields(logrus.Fields{
			"key":      group.Key,
			"survivor": group.Survivor.ID,
			"deleted":  len(loserIds),
		}).Info("duplicate partition collapsed")
	}
	return nil
}

/* label compaction phase */

// labelKind abstracts the two label tables so compaction runs identically
// over both, keyed by table and foreign-key column name.
type labelKind struct {
	kind     string
	table    string
	fkColumn string
	sentinel string
}

func labelKinds() []labelKind {
	return []labelKind{
		{kind: "brand", table: "brands", fkColumn: "brand_id", sentinel: models.BrandNameUnknown},
		{kind: "category", table: "categories", fkColumn: "category_id", sentinel: models.CategoryNameGeneral},
	}
}

type labelRow struct {
	ID   int
	Name string
}

// compactLabels merges junk labels into their canonical row and deletes
// labels no entry references anymore. The protected sentinel is never merged
// away or deleted, even when it momentarily has zero references.
func (r *Reconciler) compactLabels(ctx context.Context, kind labelKind, report *ReconciliationReport) error {
	db := config.GetDB()

	var rows []labelRow
	if err := db.WithContext(ctx).Table(kind.table).Order("id").Find(&rows).Error; err != nil {
		return err
	}

	sentinelId := 0
	for _, row := range rows {
		if strings.EqualFold(row.Name, kind.sentinel) {
			sentinelId = row.ID
			break
		}
	}
	if sentinelId == 0 {
		return fmt.Errorf("%s sentinel %q missing", kind.kind, kind.sentinel)
	}

	merged := make(map[int]bool)

	// Duplicate-by-normalized-name labels collapse into the lowest-id twin;
	// a group containing the sentinel collapses into the sentinel.
	byKey := make(map[string][]labelRow)
	for _, row := range rows {
		key := NormalizeName(row.Name)
		byKey[key] = append(byKey[key], row)
	}
	for _, twins := range byKey {
		if len(twins) < 2 {
			continue
		}
		canonical := twins[0]
		for _, twin := range twins {
			if twin.ID == sentinelId {
				canonical = twin
				break
			}
		}
		for _, twin := range twins {
			if twin.ID == canonical.ID || twin.ID == sentinelId {
				continue
			}
			if err := r.mergeLabel(ctx, kind, twin, canonical.ID, report); err != nil {
				config.LogError(r.log, "reconcile", "compactLabels", "merge duplicate "+twin.Name, twin.ID, err)
				r.metrics.IncFailure("compaction")
				continue
			}
			merged[twin.ID] = true
		}
	}

	// Junk-named labels (oversized or carrying a placeholder marker) fold
	// into the sentinel.
	for _, row := range rows {
		if row.ID == sentinelId || merged[row.ID] {
			continue
		}
		if !r.isJunkLabelName(row.Name) {
			continue
		}
		if err := r.mergeLabel(ctx, kind, row, sentinelId, report); err != nil {
			config.LogError(r.log, "reconcile", "compactLabels", "merge junk "+row.Name, row.ID, err)
			r.metrics.IncFailure("compaction")
			continue
		}
		merged[row.ID] = true
	}

	// Zero-reference labels are dropped.
	for _, row := range rows {
		if row.ID == sentinelId || merged[row.ID] {
			continue
		}
		count, err := models.CountProductsWhere(ctx, kind.fkColumn+" = ?", row.ID)
		if err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		if !r.DryRun {
			if err := db.WithContext(ctx).Exec("DELETE FROM "+kind.table+" WHERE id = ?", row.ID).Error; err != nil {
				config.LogError(r.log, "reconcile", "compactLabels", "delete empty "+row.Name, row.ID, err)
				r.metrics.IncFailure("compaction")
				continue
			}
		}
		report.LabelsDeleted++
		r.metrics.IncLabelCompacted(kind.kind, "deleted")
	}

	return nil
}

// mergeLabel reassigns every entry referencing the junk label to target and
// deletes the junk row, both in one transaction so no entry ever references
// a deleted label.
func (r *Reconciler) mergeLabel(ctx context.Context, kind labelKind, junk labelRow, targetId int, report *ReconciliationReport) error {
	if !r.DryRun {
		db := config.GetDB()
		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&models.Product{}).
				Where(kind.fkColumn+" = ?", junk.ID).
				Update(kind.fkColumn, targetId).Error; err != nil {
				return err
			}
			return tx.Exec("DELETE FROM "+kind.table+" WHERE id = ?", junk.ID).Error
		})
		if err != nil {
			return err
		}
	}
	report.LabelsMerged++
	r.metrics.IncLabelCompacted(kind.kind, "merged")
	r.log.WithFields(logrus.Fields{
		"kind":   kind.kind,
		"junk":   junk.Name,
		"target": targetId,
	}).Info("label merged")
	return nil
}

// isJunkLabelName flags labels a scrape should never have produced:
// oversized names and names carrying a configured placeholder marker.
func (r *Reconciler) isJunkLabelName(name string) bool {
	if len(name) > r.settings.LabelMaxNameLength {
		return true
	}
	lower := strings.ToLower(name)
	for _, marker := range r.settings.LabelJunkMarkers {
		if marker != "" && strings.Contains(lower, strings.ToLower(marker)) {
			return true
		}
	}
	return false
}

/* audit */

// persistAudit records the run in reconcile_runs and caches the latest
// report in redis for quick operator lookup. Audit failures are logged, not
// fatal; the pass itself already committed.
func (r *Reconciler) persistAudit(ctx context.Context, report *ReconciliationReport) {
	payload, err := report.JSON()
	if err != nil {
		config.LogError(r.log, "reconcile", "persistAudit", "marshal report", report.RunId, err)
		return
	}

	if !r.DryRun {
		dryRun := report.DryRun
		run := models.ReconcileRun{
			RunId:      report.RunId,
			DryRun:     &dryRun,
			StartedAt:  report.StartedAt,
			FinishedAt: report.FinishedAt,
			Report:     payload,
		}
		if err := models.InsertReconcileRun(ctx, &run); err != nil {
			config.LogError(r.log, "reconcile", "persistAudit", "insert run", report.RunId, err)
		}
	}

	if err := config.SetRedisObject("reconcile:lastReport", report, 0); err != nil {
		config.LogError(r.log, "reconcile", "persistAudit", "cache report", report.RunId, err)
	}
}
