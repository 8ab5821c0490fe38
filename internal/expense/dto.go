package expense

import (
	"errors"
	"io"
	"time"
)

// CreateExpenseDTO is the request payload for submitting an expense.
type CreateExpenseDTO struct {
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Amount       int64     `json:"amount"`
	Purpose      string    `json:"purpose"`
	CostCenterID string    `json:"cost_center_id"`
	CategoryID   string    `json:"category_id"`
	PaymentDate  time.Time `json:"payment_date"`
}

func (dto CreateExpenseDTO) Validate() error {
	if dto.Name == "" {
		return errors.New("name is required")
	}
	if dto.Amount <= 0 {
		return errors.New("amount must be greater than 0")
	}
	if dto.CategoryID == "" {
		return errors.New("category is required")
	}
	if dto.CostCenterID == "" {
		return errors.New("cost center is required")
	}
	if dto.PaymentDate.IsZero() {
		return errors.New("payment date is required")
	}
	return nil
}

// FileUpload is one attached receipt file as received from the client.
type FileUpload struct {
	FileName    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// Filter narrows an expense listing. All fields are optional and combine
// independently; zero values mean "no constraint". Date bounds are
// inclusive and apply to the submission date.
type Filter struct {
	Search       string
	Status       string
	CategoryID   string
	CostCenterID string
	DateFrom     *time.Time
	DateTo       *time.Time
}

// UpdateStatusDTO changes the lifecycle status. Reason is only meaningful
// with StatusRejected and is optional even then.
type UpdateStatusDTO struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

func (dto UpdateStatusDTO) Validate() error {
	switch dto.Status {
	case StatusPending, StatusApproved, StatusRejected:
		return nil
	default:
		return errors.New("status must be one of pending, approved, rejected")
	}
}

// UpdatePaymentStatusDTO marks an approved expense paid or unpaid.
type UpdatePaymentStatusDTO struct {
	IsPaid bool `json:"is_paid"`
}
