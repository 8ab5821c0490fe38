package expense

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Repository defines the data access methods for expenses and their
// receipt rows.
type Repository interface {
	List(ctx context.Context, filter Filter) ([]*Expense, error)
	GetByID(ctx context.Context, id string) (*Expense, error)
	Create(ctx context.Context, exp *Expense) error
	CreateReceipts(ctx context.Context, receipts []*Receipt) error
	UpdateStatus(ctx context.Context, id, status string, reason *string) error
	UpdatePaymentStatus(ctx context.Context, id, paymentStatus string, paidAt *time.Time) error
	DeleteReceiptsByExpense(ctx context.Context, expenseID string) error
	Delete(ctx context.Context, id string) error
}

// ReceiptStorage is the slice of the object store the service needs.
type ReceiptStorage interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) error
	SignedURL(ctx context.Context, key string) (string, error)
}

type Service struct {
	repo    Repository
	storage ReceiptStorage
	logger  *slog.Logger
}

func NewService(repo Repository, storage ReceiptStorage, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		storage: storage,
		logger:  logger,
	}
}

// ListExpenses returns expenses matching the filter, newest submission
// first. A successful query with no matches is an empty slice, not an
// error; backend failures propagate.
func (s *Service) ListExpenses(ctx context.Context, filter Filter) ([]*Expense, error) {
	expenses, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list expenses", "error", err)
		return nil, err
	}
	if expenses == nil {
		expenses = []*Expense{}
	}
	return expenses, nil
}

func (s *Service) GetExpense(ctx context.Context, id string) (*Expense, error) {
	exp, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get expense", "error", err, "expense_id", id)
		return nil, err
	}
	return exp, nil
}

// CreateExpense inserts the expense row, uploads every attached file and
// records one receipt row per upload. Uploads fan out concurrently; the
// first failure fails the whole call and no receipt rows are written. The
// already-inserted expense row is deliberately left in place on upload
// failure (see DESIGN.md).
func (s *Service) CreateExpense(ctx context.Context, userID string, dto CreateExpenseDTO, files []FileUpload) (*Expense, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("expense validation failed", "error", err, "user_id", userID)
		return nil, err
	}

	now := time.Now()
	exp := &Expense{
		ID:            uuid.NewString(),
		UserID:        userID,
		Name:          dto.Name,
		Description:   dto.Description,
		Amount:        dto.Amount,
		Purpose:       dto.Purpose,
		CostCenterID:  dto.CostCenterID,
		CategoryID:    dto.CategoryID,
		PaymentDate:   dto.PaymentDate,
		Status:        StatusPending,
		SubmittedDate: now,
		CreatedAt:     now,
		UpdatedAt:     now,
		Receipts:      []Receipt{},
	}

	if err := s.repo.Create(ctx, exp); err != nil {
		s.logger.Error("failed to create expense", "error", err, "user_id", userID)
		return nil, err
	}

	if len(files) > 0 {
		receipts, err := s.uploadReceipts(ctx, exp.ID, files)
		if err != nil {
			s.logger.Error("receipt upload failed, expense row retained",
				"error", err, "expense_id", exp.ID)
			return nil, err
		}

		if err := s.repo.CreateReceipts(ctx, receipts); err != nil {
			s.logger.Error("failed to insert receipt rows", "error", err, "expense_id", exp.ID)
			return nil, err
		}

		for _, r := range receipts {
			exp.Receipts = append(exp.Receipts, *r)
		}
	}

	s.logger.Info("expense created",
		"expense_id", exp.ID,
		"user_id", userID,
		"amount", exp.Amount,
		"receipts", len(exp.Receipts))

	return exp, nil
}

// uploadReceipts pushes all files to the bucket concurrently. Keys embed
// the expense id, a shared timestamp and the positional index, so two
// same-named files in one submission never collide.
func (s *Service) uploadReceipts(ctx context.Context, expenseID string, files []FileUpload) ([]*Receipt, error) {
	stamp := time.Now().Unix()
	receipts := make([]*Receipt, len(files))

	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		key := fmt.Sprintf("%s/%d_%d%s", expenseID, stamp, i, filepath.Ext(f.FileName))
		receipts[i] = &Receipt{
			ID:          uuid.NewString(),
			ExpenseID:   expenseID,
			FileName:    f.FileName,
			ContentType: f.ContentType,
			SizeBytes:   f.Size,
			StoragePath: key,
			CreatedAt:   time.Now(),
		}

		g.Go(func() error {
			return s.storage.Upload(gctx, key, f.ContentType, f.Content)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return receipts, nil
}

// UpdateStatus sets the lifecycle status. The rejection reason is persisted
// only when the new status is rejected and a reason was supplied; any other
// transition clears it.
func (s *Service) UpdateStatus(ctx context.Context, id string, dto UpdateStatusDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}

	var reason *string
	if dto.Status == StatusRejected && dto.Reason != "" {
		reason = &dto.Reason
	}

	if err := s.repo.UpdateStatus(ctx, id, dto.Status, reason); err != nil {
		s.logger.Error("failed to update expense status", "error", err, "expense_id", id, "status", dto.Status)
		return err
	}

	s.logger.Info("expense status updated", "expense_id", id, "status", dto.Status)
	return nil
}

// UpdatePaymentStatus flips the payment state: paid sets paid_at to now,
// unpaid reverts to pending and clears it.
func (s *Service) UpdatePaymentStatus(ctx context.Context, id string, isPaid bool) error {
	status := PaymentStatusPending
	var paidAt *time.Time
	if isPaid {
		status = PaymentStatusPaid
		now := time.Now()
		paidAt = &now
	}

	if err := s.repo.UpdatePaymentStatus(ctx, id, status, paidAt); err != nil {
		s.logger.Error("failed to update payment status", "error", err, "expense_id", id)
		return err
	}

	s.logger.Info("payment status updated", "expense_id", id, "payment_status", status)
	return nil
}

// DeleteExpense removes the dependent receipt rows first and only then the
// expense itself. If receipt deletion fails the expense row stays, so a
// receipt is never orphaned.
func (s *Service) DeleteExpense(ctx context.Context, id string) error {
	if err := s.repo.DeleteReceiptsByExpense(ctx, id); err != nil {
		s.logger.Error("failed to delete receipts, expense retained", "error", err, "expense_id", id)
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete expense", "error", err, "expense_id", id)
		return err
	}

	s.logger.Info("expense deleted", "expense_id", id)
	return nil
}

// ReceiptURL returns a time-limited signed link for a stored receipt path.
func (s *Service) ReceiptURL(ctx context.Context, storagePath string) (string, error) {
	if storagePath == "" {
		return "", fmt.Errorf("storage path is required")
	}

	url, err := s.storage.SignedURL(ctx, storagePath)
	if err != nil {
		s.logger.Error("failed to sign receipt url", "error", err, "path", storagePath)
		return "", err
	}
	return url, nil
}
