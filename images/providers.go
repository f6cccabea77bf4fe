package images

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/FantasticalEmbrace/hmherbs-catalog/config"
)

const defaultOpenFoodFactsBaseURL = "https://world.openfoodfacts.org"

// openFoodFactsProvider queries the Open Food Facts product search API,
// a free catalog that covers most supplement brands.
type openFoodFactsProvider struct {
	baseURL string
	client  *http.Client
}

func (p *openFoodFactsProvider) Name() string { return "openfoodfacts" }

func (p *openFoodFactsProvider) Fetch(ctx context.Context, q Query) (string, error) {
	terms := strings.TrimSpace(q.Brand + " " + q.Name)
	endpoint := fmt.Sprintf(
		"%s/cgi/search.pl?search_terms=%s&search_simple=1&action=process&json=1&page_size=1",
		p.baseURL, url.QueryEscape(terms),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openfoodfacts: status %d", resp.StatusCode)
	}

	var payload struct {
		Products []struct {
			ImageUrl string `json:"image_url"`
		} `json:"products"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", err
	}
	if len(payload.Products) == 0 || payload.Products[0].ImageUrl == "" {
		return "", ErrNoImage
	}
	return payload.Products[0].ImageUrl, nil
}

// feedSearchProvider queries a supplier's JSON search feed. The endpoint is
// site-specific configuration; the response shape is the common
// {"items": [{"image_url": ...}]} feed format the scrapers already consume.
type feedSearchProvider struct {
	name    string
	baseURL string
	client  *http.Client
}

func (p *feedSearchProvider) Name() string { return p.name }

func (p *feedSearchProvider) Fetch(ctx context.Context, q Query) (string, error) {
	endpoint := fmt.Sprintf("%s?q=%s", p.baseURL, url.QueryEscape(strings.TrimSpace(q.Name)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s: status %d", p.name, resp.StatusCode)
	}

	var payload struct {
		Items []struct {
			ImageUrl string `json:"image_url"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", err
	}
	for _, item := range payload.Items {
		if item.ImageUrl != "" {
			return item.ImageUrl, nil
		}
	}
	return "", ErrNoImage
}

// BuildProviders constructs the chain in configured order. The order is pure
// configuration; the chain carries no inferred ranking.
func BuildProviders(settings config.ResolverSettings) ([]Provider, error) {
	providers := make([]Provider, 0, len(settings.Providers))
	for _, ps := range settings.Providers {
		client := &http.Client{Timeout: time.Duration(ps.TimeoutSeconds) * time.Second}
		switch ps.Name {
		case "openfoodfacts":
			base := ps.BaseURL
			if base == "" {
				base = defaultOpenFoodFactsBaseURL
			}
			providers = append(providers, &openFoodFactsProvider{baseURL: base, client: client})
		default:
			// any other name is a site feed and must say where it lives
			if ps.BaseURL == "" {
				return nil, fmt.Errorf("provider %q requires base_url", ps.Name)
			}
			providers = append(providers, &feedSearchProvider{name: ps.Name, baseURL: ps.BaseURL, client: client})
		}
	}
	return providers, nil
}
