package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/FantasticalEmbrace/hmherbs-catalog/config"
	"github.com/FantasticalEmbrace/hmherbs-catalog/utils"
	"gorm.io/gorm"
)

// BrandNameUnknown is the protected brand sentinel: it always exists and is
// never deleted during compaction.
const BrandNameUnknown = "Unknown"

type Brand struct {
	ID          int       `gorm:"primary_key" json:"id"`
	Name        string    `gorm:"uniqueIndex;size:255;not null" json:"name"`
	Slug        string    `gorm:"uniqueIndex;size:255;not null" json:"slug"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func FetchAllBrands(ctx context.Context) ([]*Brand, error) {
	db := config.GetDB()
	var brands []*Brand
	err := db.WithContext(ctx).Order("id").Find(&brands).Error
	if err != nil {
		return nil, err
	}
	return brands, nil
}

// FindBrandByNameCI looks a brand up by case-insensitive name.
// (may return RecordNotFound)
func FindBrandByNameCI(ctx context.Context, name string) (*Brand, error) {
	db := config.GetDB()
	var brand Brand
	err := db.WithContext(ctx).Where("LOWER(name) = LOWER(?)", strings.TrimSpace(name)).First(&brand).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrorRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &brand, nil
}

// GetOrCreateBrand returns the existing brand row for name or creates one
// with a derived slug. A unique-name collision (concurrent insert) is
// recovered by re-querying for the now-existing row.
func GetOrCreateBrand(ctx context.Context, name string) (*Brand, bool, error) {
	brand, err := FindBrandByNameCI(ctx, name)
	if err == nil {
		return brand, false, nil
	}
	if !errors.Is(err, utils.ErrorRecordNotFound) {
		return nil, false, err
	}

	db := config.GetDB()
	created := Brand{
		Name: strings.TrimSpace(name),
		Slug: utils.Slugify(name),
	}
	if err := db.WithContext(ctx).Create(&created).Error; err != nil {
		// unique collision: someone else inserted the same name first
		existing, ferr := FindBrandByNameCI(ctx, name)
		if ferr == nil {
			return existing, false, nil
		}
		return nil, false, err
	}
	return &created, true, nil
}

// EnsureSentinelBrand makes sure the protected "Unknown" brand exists and
// returns it.
func EnsureSentinelBrand(ctx context.Context) (*Brand, error) {
	brand, _, err := GetOrCreateBrand(ctx, BrandNameUnknown)
	return brand, err
}

func DeleteBrand(tx *gorm.DB, ctx context.Context, id int) error {
	return tx.WithContext(ctx).Delete(&Brand{}, id).Error
}
