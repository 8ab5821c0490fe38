package expense

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/expense-portal/internal/auth"
	"github.com/frahmantamala/expense-portal/internal/profile"
	"github.com/frahmantamala/expense-portal/internal/transport"
	"github.com/frahmantamala/expense-portal/pkg/logger"
)

type ServiceAPI interface {
	ListExpenses(ctx context.Context, filter Filter) ([]*Expense, error)
	GetExpense(ctx context.Context, id string) (*Expense, error)
	CreateExpense(ctx context.Context, userID string, dto CreateExpenseDTO, files []FileUpload) (*Expense, error)
	UpdateStatus(ctx context.Context, id string, dto UpdateStatusDTO) error
	UpdatePaymentStatus(ctx context.Context, id string, isPaid bool) error
	DeleteExpense(ctx context.Context, id string) error
	ReceiptURL(ctx context.Context, storagePath string) (string, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

// List handles GET /expenses with the optional filter query parameters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	expenses, err := h.Service.ListExpenses(r.Context(), filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, expenses)
}

func filterFromQuery(r *http.Request) (Filter, error) {
	q := r.URL.Query()
	filter := Filter{
		Search:       q.Get("search"),
		Status:       q.Get("status"),
		CategoryID:   q.Get("category_id"),
		CostCenterID: q.Get("cost_center_id"),
	}

	if v := q.Get("date_from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return Filter{}, err
		}
		filter.DateFrom = &t
	}
	if v := q.Get("date_to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return Filter{}, err
		}
		// upper bound is inclusive for the whole day
		t = t.Add(24*time.Hour - time.Nanosecond)
		filter.DateTo = &t
	}

	return filter, nil
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	exp, err := h.Service.GetExpense(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, exp)
}

// Create handles POST /expenses as multipart/form-data: an "expense" JSON
// part plus any number of "receipts" file parts.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if !user.HasRole(profile.RoleSubmitter) {
		h.WriteError(w, http.StatusForbidden, "submitter role required")
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	var dto CreateExpenseDTO
	if err := json.Unmarshal([]byte(r.FormValue("expense")), &dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid expense payload")
		return
	}

	var files []FileUpload
	if r.MultipartForm != nil {
		for _, fh := range r.MultipartForm.File["receipts"] {
			f, err := fh.Open()
			if err != nil {
				h.WriteError(w, http.StatusBadRequest, "unreadable receipt file")
				return
			}
			defer f.Close()

			files = append(files, FileUpload{
				FileName:    fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Size:        fh.Size,
				Content:     f,
			})
		}
	}

	exp, err := h.Service.CreateExpense(r.Context(), user.ID, dto, files)
	if err != nil {
		h.Logger.Error("create expense failed", "error", err, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, exp)
}

// UpdateStatus handles PATCH /expenses/{id}/status. Approving requires the
// approver role, rejecting the rejector role.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id := chi.URLParam(r, "id")

	var dto UpdateStatusDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	required := profile.RoleApprover
	if dto.Status == StatusRejected {
		required = profile.RoleRejector
	}
	if !user.HasRole(required) {
		h.WriteError(w, http.StatusForbidden, required+" role required")
		return
	}

	if err := h.Service.UpdateStatus(r.Context(), id, dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"status": dto.Status})
}

// UpdatePaymentStatus handles PATCH /expenses/{id}/payment.
func (h *Handler) UpdatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if !user.HasRole(profile.RoleApprover) {
		h.WriteError(w, http.StatusForbidden, "approver role required")
		return
	}

	id := chi.URLParam(r, "id")

	var dto UpdatePaymentStatusDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Service.UpdatePaymentStatus(r.Context(), id, dto.IsPaid); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]bool{"is_paid": dto.IsPaid})
}

// Delete handles DELETE /expenses/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if !user.HasRole(profile.RoleDeleter) {
		h.WriteError(w, http.StatusForbidden, "deleter role required")
		return
	}

	id := chi.URLParam(r, "id")

	if err := h.Service.DeleteExpense(r.Context(), id); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ReceiptURL handles GET /receipts/url?path=... and returns a signed link.
func (h *Handler) ReceiptURL(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		h.WriteError(w, http.StatusBadRequest, "path is required")
		return
	}

	url, err := h.Service.ReceiptURL(r.Context(), path)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"url": url})
}
