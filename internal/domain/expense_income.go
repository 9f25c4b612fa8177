package domain

import "time"

// Transaction type values
const (
	TypeExpense = "expense" // Money going out
	TypeIncome  = "income"  // Money coming in
)

// ExpenseIncome Model
type ExpenseIncome struct {
	ID              uint      `gorm:"primaryKey" json:"id"`             // Primary key
	UserID          uint      `gorm:"index;not null" json:"user"`       // Foreign key to the owning User, set server-side on create
	Title           string    `gorm:"not null" json:"title"`            // Short description of the entry
	TransactionType string    `gorm:"not null" json:"transaction_type"` // Transaction type: expense or income
	Amount          float64   `gorm:"not null" json:"amount"`           // Amount before tax
	Tax             float64   `gorm:"default:0" json:"tax"`             // Tax value
	Category        string    `json:"category"`                         // Free-form category
	Note            string    `json:"note"`                             // Free-form note
	Date            time.Time `json:"date"`                             // Date the transaction occurred
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"` // Timestamp of creation, set by the persistence layer
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"` // Timestamp of last update, set by the persistence layer
}

// Total returns the derived total (amount + tax). It is computed on read,
// never persisted and never accepted from a client.
func (e *ExpenseIncome) Total() float64 {
	return e.Amount + e.Tax
}
