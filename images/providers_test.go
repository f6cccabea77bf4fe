package images

import (
	"context"
	"testing"

	"github.com/FantasticalEmbrace/hmherbs-catalog/config"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenFoodFactsProviderParsesSearchResult(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", `=~^https://off\.test/cgi/search\.pl`,
		httpmock.NewStringResponder(200,
			`{"products": [{"image_url": "https://images.off.test/milk-thistle.jpg"}]}`))

	providers, err := BuildProviders(config.ResolverSettings{
		Providers: []config.ProviderSettings{
			{Name: "openfoodfacts", BaseURL: "https://off.test", TimeoutSeconds: 2},
		},
	})
	require.NoError(t, err)
	require.Len(t, providers, 1)

	url, err := providers[0].Fetch(context.Background(), Query{Name: "Milk Thistle", Brand: "Solgar"})
	require.NoError(t, err)
	assert.Equal(t, "https://images.off.test/milk-thistle.jpg", url)
}

func TestOpenFoodFactsProviderNoResult(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", `=~^https://off\.test/cgi/search\.pl`,
		httpmock.NewStringResponder(200, `{"products": []}`))

	providers, err := BuildProviders(config.ResolverSettings{
		Providers: []config.ProviderSettings{
			{Name: "openfoodfacts", BaseURL: "https://off.test", TimeoutSeconds: 2},
		},
	})
	require.NoError(t, err)

	_, err = providers[0].Fetch(context.Background(), Query{Name: "Nonexistent"})
	assert.ErrorIs(t, err, ErrNoImage)
}

func TestFeedProviderRejectsServerError(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", `=~^https://feed-one\.test/search`,
		httpmock.NewStringResponder(500, "boom"))

	providers, err := BuildProviders(config.ResolverSettings{
		Providers: []config.ProviderSettings{
			{Name: "feed-one", BaseURL: "https://feed-one.test/search", TimeoutSeconds: 2},
		},
	})
	require.NoError(t, err)

	_, err = providers[0].Fetch(context.Background(), Query{Name: "Hops"})
	assert.Error(t, err)
}
