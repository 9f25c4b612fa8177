package policy

import (
	"testing"

	"expense_tracker/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestAuthorize(t *testing.T) {
	rec := &domain.ExpenseIncome{ID: 1, UserID: 7}

	tests := []struct {
		name        string
		requesterID uint
		isStaff     bool
		want        bool
	}{
		{"owner allowed", 7, false, true},
		{"non-owner denied", 8, false, false},
		{"staff allowed on any record", 8, true, true},
		{"staff owner allowed", 7, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Authorize(rec, tt.requesterID, tt.isStaff))
		})
	}
}

func TestScope(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to open test database")
	require.NoError(t, db.AutoMigrate(&domain.ExpenseIncome{}))

	// Two records owned by user 1, one by user 2
	require.NoError(t, db.Create(&domain.ExpenseIncome{UserID: 1, Title: "a", TransactionType: domain.TypeExpense, Amount: 10}).Error)
	require.NoError(t, db.Create(&domain.ExpenseIncome{UserID: 1, Title: "b", TransactionType: domain.TypeIncome, Amount: 20}).Error)
	require.NoError(t, db.Create(&domain.ExpenseIncome{UserID: 2, Title: "c", TransactionType: domain.TypeExpense, Amount: 30}).Error)

	var mine []domain.ExpenseIncome
	require.NoError(t, Scope(db, 1, false).Find(&mine).Error)
	assert.Len(t, mine, 2, "non-staff sees only owned records")
	for _, rec := range mine {
		assert.Equal(t, uint(1), rec.UserID)
	}

	var all []domain.ExpenseIncome
	require.NoError(t, Scope(db, 1, true).Find(&all).Error)
	assert.Len(t, all, 3, "staff sees every record")

	var none []domain.ExpenseIncome
	require.NoError(t, Scope(db, 99, false).Find(&none).Error)
	assert.Empty(t, none, "user with no records sees nothing")
}
