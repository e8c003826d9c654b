package gormstore

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category mirrors the categories table.
type Category struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"size:100;not null"`
	Type      string    `gorm:"size:16;not null"`
	Color     string    `gorm:"size:7;not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (Category) TableName() string { return "categories" }

func (category *Category) BeforeCreate(tx *gorm.DB) error {
	if category.ID == "" {
		category.ID = uuid.NewString()
	}
	return nil
}

// RecurringExpense mirrors the recurring_expenses table. Date holds the anchor date.
type RecurringExpense struct {
	ID          string    `gorm:"type:uuid;primaryKey"`
	CategoryID  string    `gorm:"type:uuid;not null;index"`
	Category    Category  `gorm:"constraint:OnDelete:CASCADE"`
	AmountCents int64     `gorm:"not null"`
	DayOfMonth  int       `gorm:"not null;index:idx_recurring_expenses_day_of_month"`
	Date        string    `gorm:"size:10;not null"`
	Description *string   `gorm:"size:255"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

func (RecurringExpense) TableName() string { return "recurring_expenses" }

func (expense *RecurringExpense) BeforeCreate(tx *gorm.DB) error {
	if expense.ID == "" {
		expense.ID = uuid.NewString()
	}
	return nil
}

// Transaction mirrors the transactions table. NULL idempotency keys never collide.
type Transaction struct {
	ID             string    `gorm:"type:uuid;primaryKey"`
	Source         string    `gorm:"size:16;not null;uniqueIndex:idx_transactions_source_idempotency_key,priority:1"`
	IdempotencyKey *string   `gorm:"size:255;uniqueIndex:idx_transactions_source_idempotency_key,priority:2"`
	CategoryID     string    `gorm:"type:uuid;not null;index"`
	Category       Category  `gorm:"constraint:OnDelete:CASCADE"`
	AmountCents    int64     `gorm:"not null"`
	Date           string    `gorm:"size:10;not null;index:idx_transactions_date"`
	Description    *string   `gorm:"size:255"`
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

func (Transaction) TableName() string { return "transactions" }

func (transaction *Transaction) BeforeCreate(tx *gorm.DB) error {
	if transaction.ID == "" {
		transaction.ID = uuid.NewString()
	}
	return nil
}

// RecurringProcessingState mirrors the singleton recurring_processing_state row.
type RecurringProcessingState struct {
	ID                int     `gorm:"primaryKey;autoIncrement:false"`
	LastProcessedDate *string `gorm:"size:10"`
	UpdatedAt         time.Time
}

func (RecurringProcessingState) TableName() string { return "recurring_processing_state" }

// Settings mirrors the singleton settings row.
type Settings struct {
	ID        int    `gorm:"primaryKey;autoIncrement:false"`
	UTCOffset string `gorm:"column:utc_offset;size:6;not null"`
	UpdatedAt time.Time
}

func (Settings) TableName() string { return "settings" }

// JobLock mirrors the job_locks table. LockedUntil is unix seconds.
type JobLock struct {
	Name        string `gorm:"primaryKey;size:100"`
	LockedUntil int64  `gorm:"not null"`
	LockedBy    string `gorm:"size:255;not null"`
}

func (JobLock) TableName() string { return "job_locks" }

// Models lists every table in migration order.
func Models() []any {
	return []any{
		&Category{},
		&RecurringExpense{},
		&Transaction{},
		&RecurringProcessingState{},
		&Settings{},
		&JobLock{},
	}
}
