package models

import (
	"context"
	"errors"
	"time"

	"github.com/FantasticalEmbrace/hmherbs-catalog/config"
	"gorm.io/gorm"
)

// ProductImage stores a product's image URL together with the provider that
// supplied it. At most one row per product carries IsPrimary.
type ProductImage struct {
	ID             int       `gorm:"primary_key" json:"id"`
	ProductId      int       `gorm:"index;not null" json:"product_id"`
	ImageUrl       string    `gorm:"size:2048;not null" json:"image_url"`
	SourceProvider string    `gorm:"size:100" json:"source_provider"`
	IsPrimary      *bool     `gorm:"not null;default:true" json:"is_primary"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// UpsertPrimaryImage records url as the product's primary image: updates the
// existing primary row when one exists, inserts otherwise.
func UpsertPrimaryImage(ctx context.Context, productId int, url string, provider string) error {
	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing ProductImage
		err := tx.Where("product_id = ? AND is_primary = 1", productId).First(&existing).Error
		if err == nil {
			return tx.Model(&existing).Updates(map[string]interface{}{
				"ImageUrl":       url,
				"SourceProvider": provider,
			}).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		isPrimary := true
		row := ProductImage{
			ProductId:      productId,
			ImageUrl:       url,
			SourceProvider: provider,
			IsPrimary:      &isPrimary,
		}
		return tx.Create(&row).Error
	})
}

// FetchProductsMissingPrimaryImage returns catalog entries with no primary
// image row, the input set of the image backfill job.
func FetchProductsMissingPrimaryImage(ctx context.Context, limit int) ([]*Product, error) {
	db := config.GetDB()
	var products []*Product
	dbCtx := db.WithContext(ctx).
		Where("id NOT IN (?)",
			db.Model(&ProductImage{}).Where("is_primary = 1").Select("product_id"),
		).
		Order("id")
	if limit > 0 {
		dbCtx = dbCtx.Limit(limit)
	}
	if err := dbCtx.Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// DeleteImagesForProducts removes all image rows belonging to the given
// products; runs inside the caller's transaction so loser deletion never
// leaves orphan image rows.
func DeleteImagesForProducts(tx *gorm.DB, ctx context.Context, productIds []int) error {
	if len(productIds) == 0 {
		return nil
	}
	return tx.WithContext(ctx).Where("product_id IN ?", productIds).Delete(&ProductImage{}).Error
}
