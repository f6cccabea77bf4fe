package models

import (
	"context"
	"time"

	"github.com/FantasticalEmbrace/hmherbs-catalog/config"
)

// ReconcileRun is the persisted audit trail of one reconciliation pass.
// Report holds the marshaled ReconciliationReport JSON.
type ReconcileRun struct {
	ID         int       `gorm:"primary_key" json:"id"`
	RunId      string    `gorm:"index;size:36;not null" json:"run_id"`
	DryRun     *bool     `gorm:"not null;default:false" json:"dry_run"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Report     []byte    `gorm:"type:json" json:"report"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func InsertReconcileRun(ctx context.Context, run *ReconcileRun) error {
	db := config.GetDB()
	return db.WithContext(ctx).Create(run).Error
}
