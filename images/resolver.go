package images

import (
	"context"
	"errors"

	"github.com/FantasticalEmbrace/hmherbs-catalog/config"
	"github.com/FantasticalEmbrace/hmherbs-catalog/models"
	"github.com/FantasticalEmbrace/hmherbs-catalog/reconcile"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
)

type ResolutionStatus string

const (
	StatusResolved   ResolutionStatus = "resolved"
	StatusUnresolved ResolutionStatus = "unresolved"
)

// ProviderAttempt records one step of the fallback chain for audit logging.
type ProviderAttempt struct {
	Provider string `json:"provider"`
	Value    string `json:"value,omitempty"`
	Accepted bool   `json:"accepted"`
	Error    string `json:"error,omitempty"`
}

// ResolutionAttempt is the full audit record of resolving one entry.
type ResolutionAttempt struct {
	ProductId int               `json:"product_id"`
	Status    ResolutionStatus  `json:"status"`
	Attempts  []ProviderAttempt `json:"attempts"`
	ImageUrl  string            `json:"image_url,omitempty"`
	Provider  string            `json:"resolved_by,omitempty"`
	Reason    string            `json:"reason,omitempty"`
}

// ImageSaver persists a resolved primary image. Narrow on purpose so the
// chain is testable without a database.
type ImageSaver interface {
	SavePrimaryImage(ctx context.Context, productId int, url string, provider string) error
}

// StoreSaver writes through the models layer.
type StoreSaver struct{}

func (StoreSaver) SavePrimaryImage(ctx context.Context, productId int, url string, provider string) error {
	return models.UpsertPrimaryImage(ctx, productId, url, provider)
}

type cachedHit struct {
	url      string
	provider string
}

// Resolver walks the provider chain for entries missing a primary image.
type Resolver struct {
	providers []Provider
	denylist  []string
	saver     ImageSaver
	log       *logrus.Logger
	metrics   *Metrics

	// cache maps canonical product name to a previously accepted result, so
	// near-duplicate entries within one run skip repeat provider calls.
	cache *lru.Cache[string, cachedHit]

	// DryRun audits the chain without persisting anything.
	DryRun bool
}

func NewResolver(providers []Provider, settings config.ResolverSettings, saver ImageSaver, log *logrus.Logger, metrics *Metrics) (*Resolver, error) {
	cache, err := lru.New[string, cachedHit](settings.CacheSize)
	if err != nil {
		return nil, err
	}
	return &Resolver{
		providers: providers,
		denylist:  settings.URLDenylist,
		saver:     saver,
		log:       log,
		metrics:   metrics,
		cache:     cache,
	}, nil
}

// Resolve walks providers strictly in configured order and accepts the first
// non-empty candidate passing URL validation. A provider error or timeout is
// identical to "no result": the chain continues and never aborts. On
// exhaustion the entry is left untouched and the reason reported.
func (r *Resolver) Resolve(ctx context.Context, product *models.Product, brandName string) *ResolutionAttempt {
	attempt := &ResolutionAttempt{
		ProductId: product.ID,
		Status:    StatusUnresolved,
	}

	cacheKey := reconcile.NormalizeName(product.Name)
	if hit, ok := r.cache.Get(cacheKey); ok && cacheKey != "" {
		attempt.Attempts = append(attempt.Attempts, ProviderAttempt{
			Provider: "cache:" + hit.provider,
			Value:    hit.url,
			Accepted: true,
		})
		return r.accept(ctx, attempt, product, hit.url, hit.provider)
	}

	query := Query{Name: product.Name, Brand: brandName}
	for _, provider := range r.providers {
		r.metrics.IncAttempt(provider.Name())
		value, err := provider.Fetch(ctx, query)

		step := ProviderAttempt{Provider: provider.Name(), Value: value}
		if err != nil {
			step.Error = err.Error()
			attempt.Attempts = append(attempt.Attempts, step)
			r.metrics.IncMiss(provider.Name())
			if !errors.Is(err, ErrNoImage) {
				r.log.WithFields(logrus.Fields{
					"provider": provider.Name(),
					"product":  product.ID,
				}).Warn("provider failed: " + err.Error())
			}
			continue
		}
		if value == "" || !IsValidImageURL(value, r.denylist) {
			attempt.Attempts = append(attempt.Attempts, step)
			r.metrics.IncMiss(provider.Name())
			continue
		}

		step.Accepted = true
		attempt.Attempts = append(attempt.Attempts, step)
		r.metrics.IncSuccess(provider.Name())
		if cacheKey != "" {
			r.cache.Add(cacheKey, cachedHit{url: value, provider: provider.Name()})
		}
		return r.accept(ctx, attempt, product, value, provider.Name())
	}

	attempt.Reason = "no provider returned a valid image"
	return attempt
}

func (r *Resolver) accept(ctx context.Context, attempt *ResolutionAttempt, product *models.Product, url string, provider string) *ResolutionAttempt {
	if !r.DryRun {
		if err := r.saver.SavePrimaryImage(ctx, product.ID, url, provider); err != nil {
			attempt.Reason = "persist image: " + err.Error()
			config.LogError(r.log, "images", "Resolve", "persist image", product.ID, err)
			return attempt
		}
	}
	attempt.Status = StatusResolved
	attempt.ImageUrl = url
	attempt.Provider = provider
	return attempt
}
