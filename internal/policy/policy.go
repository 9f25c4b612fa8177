package policy

import (
	"expense_tracker/internal/domain" // Importing domain models

	"gorm.io/gorm" // GORM ORM library
)

// Authorize decides whether a requester may read, modify or delete a record.
// Allow if the requester owns the record or is staff, deny otherwise. The
// requester identity and staff flag are passed in explicitly; this predicate
// never reads ambient request state.
func Authorize(rec *domain.ExpenseIncome, requesterID uint, isStaff bool) bool {
	return rec.UserID == requesterID || isStaff
}

// Scope narrows a record query to what the requester may list: every record
// for staff, only owned records otherwise. A record outside the scope is
// silently absent from list results, never an error.
func Scope(db *gorm.DB, requesterID uint, isStaff bool) *gorm.DB {
	if isStaff {
		return db // Staff list is unfiltered
	}
	return db.Where("user_id = ?", requesterID) // Everyone else sees only their own
}
