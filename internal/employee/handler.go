package employee

import (
	"context"
	"net/http"

	"github.com/frahmantamala/vendor-portal/internal"
	"github.com/frahmantamala/vendor-portal/internal/permission"
	"github.com/frahmantamala/vendor-portal/internal/transport"
)

type ServiceAPI interface {
	Create(ctx context.Context, p permission.Permissions, dto CreateEmployeeDTO) (*CreateResponse, error)
	List(ctx context.Context, p permission.Permissions, filter ListFilter) (*ListResponse, error)
	Get(ctx context.Context, p permission.Permissions, employeeID int64) (*Employee, error)
	Update(ctx context.Context, p permission.Permissions, employeeID int64, dto UpdateEmployeeDTO) (*MutationResponse, error)
	UpdateStatus(ctx context.Context, p permission.Permissions, employeeID int64, dto UpdateStatusDTO) (*MutationResponse, error)
	Delete(ctx context.Context, p permission.Permissions, employeeID int64) (*MutationResponse, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

func (h *Handler) permissions(w http.ResponseWriter, r *http.Request) (permission.Permissions, bool) {
	p, ok := permission.FromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, r, internal.NewInternalError("permissions not resolved", nil))
	}
	return p, ok
}

func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	p, ok := h.permissions(w, r)
	if !ok {
		return
	}

	var dto CreateEmployeeDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	resp, err := h.Service.Create(r.Context(), p, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, resp)
}

func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	p, ok := h.permissions(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	limit, offset := h.Pagination(r)
	filter := ListFilter{
		Search: q.Get("search"),
		Role:   q.Get("role_filter"),
		Status: q.Get("status_filter"),
		Limit:  limit,
		Offset: offset,
	}

	resp, err := h.Service.List(r.Context(), p, filter)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	p, ok := h.permissions(w, r)
	if !ok {
		return
	}

	id, err := h.IDParam(r, "employee_id")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	emp, err := h.Service.Get(r.Context(), p, id)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, emp)
}

func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	p, ok := h.permissions(w, r)
	if !ok {
		return
	}

	id, err := h.IDParam(r, "employee_id")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	var dto UpdateEmployeeDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	resp, err := h.Service.Update(r.Context(), p, id, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

// UpdateEmployeeStatus takes the status from the query string, or from a JSON body when absent.
func (h *Handler) UpdateEmployeeStatus(w http.ResponseWriter, r *http.Request) {
	p, ok := h.permissions(w, r)
	if !ok {
		return
	}

	id, err := h.IDParam(r, "employee_id")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	dto := UpdateStatusDTO{Status: r.URL.Query().Get("status")}
	if dto.Status == "" && r.ContentLength != 0 {
		if err := h.DecodeJSON(r, &dto); err != nil {
			h.HandleServiceError(w, r, err)
			return
		}
	}

	resp, err := h.Service.UpdateStatus(r.Context(), p, id, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	p, ok := h.permissions(w, r)
	if !ok {
		return
	}

	id, err := h.IDParam(r, "employee_id")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	resp, err := h.Service.Delete(r.Context(), p, id)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}
