package models

import (
	"context"
	"time"

	"github.com/FantasticalEmbrace/hmherbs-catalog/config"
	"github.com/shopspring/decimal"
)

// Product is a catalog entry as persisted. A zero Price means "unset": the
// scrape did not carry one. BrandId/CategoryId of 0 resolve to the protected
// sentinels.
type Product struct {
	ID              int             `gorm:"primary_key" json:"id"`
	Name            string          `gorm:"size:255;not null" json:"name"`
	Sku             string          `gorm:"index;size:100" json:"sku"`
	Price           decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"price"`
	LongDescription string          `gorm:"type:text" json:"long_description"`
	BrandId         int             `gorm:"index;not null;default:0" json:"brand_id"`
	CategoryId      int             `gorm:"index;not null;default:0" json:"category_id"`
	Images          []*ProductImage `gorm:"foreignkey:ProductId" json:"-"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// FetchAllProducts loads the full catalog snapshot, ordered by id so batch
// runs walk it deterministically.
func FetchAllProducts(ctx context.Context) ([]*Product, error) {
	db := config.GetDB()
	var products []*Product
	err := db.WithContext(ctx).Order("id").Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// UpdateProductLabels rewrites the brand/category foreign keys of one entry.
func UpdateProductLabels(ctx context.Context, id int, brandId int, categoryId int) error {
	db := config.GetDB()
	return db.WithContext(ctx).Model(&Product{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"BrandId":    brandId,
			"CategoryId": categoryId,
		}).Error
}

// CountProductsWhere counts catalog entries matching a condition; used by
// label compaction to find zero-reference labels.
func CountProductsWhere(ctx context.Context, cond string, args ...interface{}) (int64, error) {
	db := config.GetDB()
	var count int64
	err := db.WithContext(ctx).Model(&Product{}).Where(cond, args...).Count(&count).Error
	return count, err
}
