package config

import (
	"fmt"

	"github.com/FantasticalEmbrace/hmherbs-catalog/utils"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// ClassificationRule maps a label name to the keywords that select it.
// Tables are ordered; the first rule whose keywords match wins.
type ClassificationRule struct {
	Label    string   `mapstructure:"label" validate:"required"`
	Keywords []string `mapstructure:"keywords" validate:"required,min=1,dive,required"`
}

// ProviderSettings configures one image source in the fallback chain.
type ProviderSettings struct {
	Name           string `mapstructure:"name" validate:"required"`
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" validate:"min=1"`
}

// ResolverSettings configures the image backfill job.
type ResolverSettings struct {
	Providers   []ProviderSettings `mapstructure:"providers" validate:"required,min=1,dive"`
	Workers     int                `mapstructure:"workers" validate:"min=1"`
	URLDenylist []string           `mapstructure:"url_denylist"`
	CacheSize   int                `mapstructure:"cache_size" validate:"min=1"`
}

// Settings is the reconciliation policy loaded once per run. Rule tables are
// read-only configuration; a run never mutates them.
type Settings struct {
	BrandRules    []ClassificationRule `mapstructure:"brand_rules" validate:"dive"`
	CategoryRules []ClassificationRule `mapstructure:"category_rules" validate:"dive"`

	// Duplicate ranking knobs.
	DescriptionLengthThreshold int    `mapstructure:"description_length_threshold" validate:"min=0"`
	PlaceholderPrice           string `mapstructure:"placeholder_price"`

	// Label compaction knobs.
	LabelMaxNameLength int      `mapstructure:"label_max_name_length" validate:"min=1"`
	LabelJunkMarkers   []string `mapstructure:"label_junk_markers"`

	Resolver ResolverSettings `mapstructure:"resolver"`
}

// PlaceholderPriceDecimal parses the configured placeholder price. The 25.00
// default marks rows injected by a faulty historical ingestion run; keep it
// configurable because it is a data artifact, not a business rule.
func (s *Settings) PlaceholderPriceDecimal() (decimal.Decimal, error) {
	return utils.ParseDecimal(s.PlaceholderPrice)
}

// LoadSettings reads the reconciliation settings file. An explicit path wins;
// otherwise viper searches for reconcile.yaml in the working directory and
// ./config. Env overrides use the HMHERBS_ prefix.
func LoadSettings(path string) (*Settings, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("reconcile")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("HMHERBS")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading settings file: %w", err)
		}
		// No file; defaults plus env only. Valid for jobs that only need
		// the resolver chain.
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("unable to decode settings: %w", err)
	}

	if err := validator.New().Struct(&settings); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	if _, err := settings.PlaceholderPriceDecimal(); err != nil {
		return nil, fmt.Errorf("invalid placeholder_price %q: %w", settings.PlaceholderPrice, err)
	}

	return &settings, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("description_length_threshold", 50)
	v.SetDefault("placeholder_price", "25.00")
	v.SetDefault("label_max_name_length", 64)
	v.SetDefault("label_junk_markers", []string{"&amp;", "??"})

	v.SetDefault("resolver.workers", 4)
	v.SetDefault("resolver.cache_size", 512)
	v.SetDefault("resolver.providers", []map[string]interface{}{
		{"name": "openfoodfacts", "timeout_seconds": 10},
	})
	v.SetDefault("resolver.url_denylist", []string{
		"1x1",
		"pixel",
		"spacer",
		"placeholder",
		"logo",
		"spinner",
		"loading",
		"blank.gif",
	})
}
