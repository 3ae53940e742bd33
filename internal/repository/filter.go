package repository

import (
	"github.com/MailPilot/MP-Backend/internal/db"
	"gorm.io/gorm"
)

// Filter is a column -> value match used by every read/update/delete
// operation. Values are matched with equality; callers owning a Filter can
// reuse it freely because the repository never mutates it.
type Filter map[string]any

// HasStatus reports whether the caller constrained the status column itself,
// which disables the implicit soft-delete guard for that call.
func (f Filter) HasStatus() bool {
	_, ok := f["status"]
	return ok
}

// applyFilter attaches the filter conditions to tx and, unless the filter
// already constrains status, excludes soft-deleted rows. The guard is applied
// as a separate condition so the caller's Filter is left untouched.
func applyFilter(tx *gorm.DB, f Filter) *gorm.DB {
	if len(f) > 0 {
		tx = tx.Where(map[string]any(f))
	}
	if !f.HasStatus() {
		tx = tx.Where("status <> ?", db.StatusDeleted)
	}
	return tx
}

// applyRawFilter attaches only the filter conditions, with no soft-delete
// guard. Delete operations and id lookups use this, matching the visibility
// rules of the original delete/findById calls.
func applyRawFilter(tx *gorm.DB, f Filter) *gorm.DB {
	if len(f) > 0 {
		tx = tx.Where(map[string]any(f))
	}
	return tx
}
