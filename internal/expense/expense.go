package expense

import (
	"time"
)

// Lifecycle statuses. Payment fields only carry meaning once an expense is
// approved; rejection_reason only while it is rejected.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"

	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
)

// Expense is a reimbursement request. The joined owner, category and cost
// center names are filled by list/get reads; they are not persisted here.
type Expense struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	Amount          int64      `json:"amount"`
	Purpose         string     `json:"purpose"`
	CostCenterID    string     `json:"cost_center_id"`
	CategoryID      string     `json:"category_id"`
	PaymentDate     time.Time  `json:"payment_date"`
	Status          string     `json:"status"`
	PaymentStatus   *string    `json:"payment_status,omitempty"`
	PaidAt          *time.Time `json:"paid_at,omitempty"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`
	SubmittedDate   time.Time  `json:"submitted_date"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	UserName       string    `json:"user_name,omitempty"`
	UserEmail      string    `json:"user_email,omitempty"`
	CategoryName   string    `json:"category_name,omitempty"`
	CostCenterName string    `json:"cost_center_name,omitempty"`
	Receipts       []Receipt `json:"receipts"`
}

func (e *Expense) IsRejected() bool {
	return e.Status == StatusRejected
}

func (e *Expense) IsPaid() bool {
	return e.PaymentStatus != nil && *e.PaymentStatus == PaymentStatusPaid
}

// Receipt is the metadata row for one uploaded proof-of-expense file. The
// file itself lives in the receipts bucket under StoragePath.
type Receipt struct {
	ID          string    `json:"id"`
	ExpenseID   string    `json:"expense_id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	StoragePath string    `json:"storage_path"`
	CreatedAt   time.Time `json:"created_at"`
}
