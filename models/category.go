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

// CategoryNameGeneral is the protected category sentinel.
const CategoryNameGeneral = "General"

type Category struct {
	ID          int       `gorm:"primary_key" json:"id"`
	Name        string    `gorm:"uniqueIndex;size:255;not null" json:"name"`
	Slug        string    `gorm:"uniqueIndex;size:255;not null" json:"slug"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func FetchAllCategories(ctx context.Context) ([]*Category, error) {
	db := config.GetDB()
	var categories []*Category
	err := db.WithContext(ctx).Order("id").Find(&categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

// FindCategoryByNameCI looks a category up by case-insensitive name.
// (may return RecordNotFound)
func FindCategoryByNameCI(ctx context.Context, name string) (*Category, error) {
	db := config.GetDB()
	var category Category
	err := db.WithContext(ctx).Where("LOWER(name) = LOWER(?)", strings.TrimSpace(name)).First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrorRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// GetOrCreateCategory mirrors GetOrCreateBrand for the category label table.
func GetOrCreateCategory(ctx context.Context, name string) (*Category, bool, error) {
	category, err := FindCategoryByNameCI(ctx, name)
	if err == nil {
		return category, false, nil
	}
	if !errors.Is(err, utils.ErrorRecordNotFound) {
		return nil, false, err
	}

	db := config.GetDB()
	created := Category{
		Name: strings.TrimSpace(name),
		Slug: utils.Slugify(name),
	}
	if err := db.WithContext(ctx).Create(&created).Error; err != nil {
		existing, ferr := FindCategoryByNameCI(ctx, name)
		if ferr == nil {
			return existing, false, nil
		}
		return nil, false, err
	}
	return &created, true, nil
}

// EnsureSentinelCategory makes sure the protected "General" category exists
// and returns it.
func EnsureSentinelCategory(ctx context.Context) (*Category, error) {
	category, _, err := GetOrCreateCategory(ctx, CategoryNameGeneral)
	return category, err
}

func DeleteCategory(tx *gorm.DB, ctx context.Context, id int) error {
	return tx.WithContext(ctx).Delete(&Category{}, id).Error
}
