package postgres

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/frahmantamala/expense-portal/internal"
	"github.com/frahmantamala/expense-portal/internal/expense"
)

type ExpenseModel struct {
	ID              string     `gorm:"primaryKey"`
	UserID          string     `gorm:"column:user_id;not null"`
	Name            string     `gorm:"column:name;not null"`
	Description     string     `gorm:"column:description"`
	Amount          int64      `gorm:"column:amount;not null"`
	Purpose         string     `gorm:"column:purpose"`
	CostCenterID    string     `gorm:"column:cost_center_id"`
	CategoryID      string     `gorm:"column:category_id"`
	PaymentDate     time.Time  `gorm:"column:payment_date"`
	Status          string     `gorm:"column:status;default:pending"`
	PaymentStatus   *string    `gorm:"column:payment_status"`
	PaidAt          *time.Time `gorm:"column:paid_at"`
	RejectionReason *string    `gorm:"column:rejection_reason"`
	SubmittedDate   time.Time  `gorm:"column:submitted_date"`
	CreatedAt       time.Time  `gorm:"column:created_at;default:now()"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;default:now()"`
}

func (ExpenseModel) TableName() string {
	return "expenses"
}

type receiptModel struct {
	ID          string    `gorm:"primaryKey"`
	ExpenseID   string    `gorm:"column:expense_id;not null;index"`
	FileName    string    `gorm:"column:file_name;not null"`
	ContentType string    `gorm:"column:content_type"`
	SizeBytes   int64     `gorm:"column:size_bytes"`
	StoragePath string    `gorm:"column:storage_path;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;default:now()"`
}

func (receiptModel) TableName() string {
	return "receipts"
}

// expenseRow is the scan target for list/get reads with the owner,
// category and cost-center names joined in.
type expenseRow struct {
	ExpenseModel
	UserName       string `gorm:"column:user_name"`
	UserEmail      string `gorm:"column:user_email"`
	CategoryName   string `gorm:"column:category_name"`
	CostCenterName string `gorm:"column:cost_center_name"`
}

type ExpenseRepository struct {
	db *gorm.DB
}

func NewExpenseRepository(db *gorm.DB) expense.Repository {
	return &ExpenseRepository{db: db}
}

func (r *ExpenseRepository) joinedQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("expenses").
		Select("expenses.*, users.name AS user_name, users.email AS user_email, " +
			"categories.name AS category_name, cost_centers.name AS cost_center_name").
		Joins("LEFT JOIN users ON users.id = expenses.user_id").
		Joins("LEFT JOIN categories ON categories.id = expenses.category_id").
		Joins("LEFT JOIN cost_centers ON cost_centers.id = expenses.cost_center_id")
}

// List applies each filter independently and returns rows sorted by
// submission date, newest first. Date bounds are inclusive.
func (r *ExpenseRepository) List(ctx context.Context, f expense.Filter) ([]*expense.Expense, error) {
	q := r.joinedQuery(ctx)

	if f.Search != "" {
		like := "%" + strings.ToLower(f.Search) + "%"
		q = q.Where("LOWER(expenses.name) LIKE ? OR LOWER(expenses.description) LIKE ?", like, like)
	}
	if f.Status != "" {
		q = q.Where("expenses.status = ?", f.Status)
	}
	if f.CategoryID != "" {
		q = q.Where("expenses.category_id = ?", f.CategoryID)
	}
	if f.CostCenterID != "" {
		q = q.Where("expenses.cost_center_id = ?", f.CostCenterID)
	}
	if f.DateFrom != nil {
		q = q.Where("expenses.submitted_date >= ?", *f.DateFrom)
	}
	if f.DateTo != nil {
		q = q.Where("expenses.submitted_date <= ?", *f.DateTo)
	}

	var rows []expenseRow
	if err := q.Order("expenses.submitted_date DESC").Scan(&rows).Error; err != nil {
		return nil, internal.NewBackendError(internal.BackendCodeQueryFailed, "expense listing failed", err)
	}

	expenses := make([]*expense.Expense, len(rows))
	ids := make([]string, len(rows))
	byID := make(map[string]*expense.Expense, len(rows))
	for i, row := range rows {
		exp := rowToDomain(&row)
		expenses[i] = exp
		ids[i] = exp.ID
		byID[exp.ID] = exp
	}

	if len(ids) > 0 {
		var receipts []receiptModel
		err := r.db.WithContext(ctx).
			Where("expense_id IN ?", ids).
			Order("created_at ASC").
			Find(&receipts).Error
		if err != nil {
			return nil, internal.NewBackendError(internal.BackendCodeQueryFailed, "receipt listing failed", err)
		}
		for _, m := range receipts {
			if exp, ok := byID[m.ExpenseID]; ok {
				exp.Receipts = append(exp.Receipts, receiptToDomain(&m))
			}
		}
	}

	return expenses, nil
}

func (r *ExpenseRepository) GetByID(ctx context.Context, id string) (*expense.Expense, error) {
	var row expenseRow
	res := r.joinedQuery(ctx).Where("expenses.id = ?", id).Limit(1).Scan(&row)
	if res.Error != nil {
		return nil, internal.NewBackendError(internal.BackendCodeQueryFailed, "expense lookup failed", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, internal.NewBackendError(internal.BackendCodeRowNotFound, "expense not found", gorm.ErrRecordNotFound)
	}

	exp := rowToDomain(&row)

	var receipts []receiptModel
	err := r.db.WithContext(ctx).
		Where("expense_id = ?", id).
		Order("created_at ASC").
		Find(&receipts).Error
	if err != nil {
		return nil, internal.NewBackendError(internal.BackendCodeQueryFailed, "receipt listing failed", err)
	}
	for _, m := range receipts {
		exp.Receipts = append(exp.Receipts, receiptToDomain(&m))
	}

	return exp, nil
}

func (r *ExpenseRepository) Create(ctx context.Context, exp *expense.Expense) error {
	m := toModel(exp)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return internal.NewBackendError(internal.BackendCodeQueryFailed, "expense creation failed", err)
	}
	return nil
}

func (r *ExpenseRepository) CreateReceipts(ctx context.Context, receipts []*expense.Receipt) error {
	if len(receipts) == 0 {
		return nil
	}
	models := make([]receiptModel, len(receipts))
	for i, rec := range receipts {
		models[i] = receiptModel{
			ID:          rec.ID,
			ExpenseID:   rec.ExpenseID,
			FileName:    rec.FileName,
			ContentType: rec.ContentType,
			SizeBytes:   rec.SizeBytes,
			StoragePath: rec.StoragePath,
			CreatedAt:   rec.CreatedAt,
		}
	}
	if err := r.db.WithContext(ctx).Create(&models).Error; err != nil {
		return internal.NewBackendError(internal.BackendCodeQueryFailed, "receipt insertion failed", err)
	}
	return nil
}

func (r *ExpenseRepository) UpdateStatus(ctx context.Context, id, status string, reason *string) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	// the invariant is one-directional: a reason exists only on rejected rows
	if status == expense.StatusRejected && reason != nil {
		updates["rejection_reason"] = *reason
	} else {
		updates["rejection_reason"] = nil
	}

	err := r.db.WithContext(ctx).Model(&ExpenseModel{}).
		Where("id = ?", id).
		Updates(updates).Error
	if err != nil {
		return internal.NewBackendError(internal.BackendCodeQueryFailed, "status update failed", err)
	}
	return nil
}

func (r *ExpenseRepository) UpdatePaymentStatus(ctx context.Context, id, paymentStatus string, paidAt *time.Time) error {
	updates := map[string]interface{}{
		"payment_status": paymentStatus,
		"updated_at":     time.Now(),
	}
	if paidAt != nil {
		updates["paid_at"] = *paidAt
	} else {
		updates["paid_at"] = nil
	}

	err := r.db.WithContext(ctx).Model(&ExpenseModel{}).
		Where("id = ?", id).
		Updates(updates).Error
	if err != nil {
		return internal.NewBackendError(internal.BackendCodeQueryFailed, "payment status update failed", err)
	}
	return nil
}

func (r *ExpenseRepository) DeleteReceiptsByExpense(ctx context.Context, expenseID string) error {
	err := r.db.WithContext(ctx).
		Where("expense_id = ?", expenseID).
		Delete(&receiptModel{}).Error
	if err != nil {
		return internal.NewBackendError(internal.BackendCodeQueryFailed, "receipt deletion failed", err)
	}
	return nil
}

func (r *ExpenseRepository) Delete(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&ExpenseModel{}).Error
	if err != nil {
		return internal.NewBackendError(internal.BackendCodeQueryFailed, "expense deletion failed", err)
	}
	return nil
}

func toModel(e *expense.Expense) *ExpenseModel {
	return &ExpenseModel{
		ID:              e.ID,
		UserID:          e.UserID,
		Name:            e.Name,
		Description:     e.Description,
		Amount:          e.Amount,
		Purpose:         e.Purpose,
		CostCenterID:    e.CostCenterID,
		CategoryID:      e.CategoryID,
		PaymentDate:     e.PaymentDate,
		Status:          e.Status,
		PaymentStatus:   e.PaymentStatus,
		PaidAt:          e.PaidAt,
		RejectionReason: e.RejectionReason,
		SubmittedDate:   e.SubmittedDate,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

func rowToDomain(row *expenseRow) *expense.Expense {
	return &expense.Expense{
		ID:              row.ID,
		UserID:          row.UserID,
		Name:            row.Name,
		Description:     row.Description,
		Amount:          row.Amount,
		Purpose:         row.Purpose,
		CostCenterID:    row.CostCenterID,
		CategoryID:      row.CategoryID,
		PaymentDate:     row.PaymentDate,
		Status:          row.Status,
		PaymentStatus:   row.PaymentStatus,
		PaidAt:          row.PaidAt,
		RejectionReason: row.RejectionReason,
		SubmittedDate:   row.SubmittedDate,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
		UserName:        row.UserName,
		UserEmail:       row.UserEmail,
		CategoryName:    row.CategoryName,
		CostCenterName:  row.CostCenterName,
		Receipts:        []expense.Receipt{},
	}
}

func receiptToDomain(m *receiptModel) expense.Receipt {
	return expense.Receipt{
		ID:          m.ID,
		ExpenseID:   m.ExpenseID,
		FileName:    m.FileName,
		ContentType: m.ContentType,
		SizeBytes:   m.SizeBytes,
		StoragePath: m.StoragePath,
		CreatedAt:   m.CreatedAt,
	}
}
