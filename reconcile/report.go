package reconcile

import (
	"encoding/json"
	"time"
)

// EntryFailure records one entry the run could not reclassify; the run
// continues past it.
type EntryFailure struct {
	ProductId int    `json:"product_id"`
	Name      string `json:"name"`
	Reason    string `json:"reason"`
}

// PartitionFailure records one duplicate partition whose loser deletion
// failed as a batch; no row of that partition was deleted.
type PartitionFailure struct {
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

// ReconciliationReport summarizes one reconciliation pass for operator
// review. On an already-clean catalog every count is zero.
type ReconciliationReport struct {
	RunId      string    `json:"run_id"`
	DryRun     bool      `json:"dry_run"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	ProductsScanned   int `json:"products_scanned"`
	Reclassified      int `json:"reclassified"`
	DuplicateGroups   int `json:"duplicate_groups"`
	DuplicatesDeleted int `json:"duplicates_deleted"`
	BrandsCreated     int `json:"brands_created"`
	CategoriesCreated int `json:"categories_created"`
	LabelsDeleted     int `json:"labels_deleted"`
	LabelsMerged      int `json:"labels_merged"`

	ReclassifyFailures []EntryFailure     `json:"reclassify_failures,omitempty"`
	PartitionFailures  []PartitionFailure `json:"partition_failures,omitempty"`
}

// Clean reports whether the pass changed nothing, the expected outcome of
// re-running reconciliation on an already reconciled catalog.
func (r *ReconciliationReport) Clean() bool {
	return r.Reclassified == 0 &&
		r.DuplicatesDeleted == 0 &&
		r.BrandsCreated == 0 &&
		r.CategoriesCreated == 0 &&
		r.LabelsDeleted == 0 &&
		r.LabelsMerged == 0 &&
		len(r.ReclassifyFailures) == 0 &&
		len(r.PartitionFailures) == 0
}

func (r *ReconciliationReport) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
