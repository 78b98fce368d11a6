package patient

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/frahmantamala/vendor-portal/internal"
	"github.com/frahmantamala/vendor-portal/internal/permission"
	"github.com/frahmantamala/vendor-portal/internal/transport"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ServiceAPI interface {
	Create(ctx context.Context, p permission.Permissions, dto CreatePatientDTO) (*CreateResponse, error)
	List(ctx context.Context, p permission.Permissions, filter ListFilter) (*ListResponse, error)
	Get(ctx context.Context, p permission.Permissions, customerID int64) (*Patient, error)
	Update(ctx context.Context, p permission.Permissions, customerID int64, dto UpdatePatientDTO) (*Patient, error)
	Delete(ctx context.Context, p permission.Permissions, customerID int64) (*MutationResponse, error)
	Roster(ctx context.Context, p permission.Permissions) ([]*Patient, error)
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

func (h *Handler) CreatePatient(w http.ResponseWriter, r *http.Request) {
	p, ok := h.permissions(w, r)
	if !ok {
		return
	}

	var dto CreatePatientDTO
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

func (h *Handler) ListPatients(w http.ResponseWriter, r *http.Request) {
	p, ok := h.permissions(w, r)
	if !ok {
		return
	}

	limit, offset := h.Pagination(r)
	filter := ListFilter{
		Search: r.URL.Query().Get("search"),
		Status: r.URL.Query().Get("status_filter"),
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

func (h *Handler) GetPatient(w http.ResponseWriter, r *http.Request) {
	p, ok := h.permissions(w, r)
	if !ok {
		return
	}

	id, err := h.IDParam(r, "patient_id")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	patient, err := h.Service.Get(r.Context(), p, id)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, patient)
}

func (h *Handler) UpdatePatient(w http.ResponseWriter, r *http.Request) {
	p, ok := h.permissions(w, r)
	if !ok {
		return
	}

	id, err := h.IDParam(r, "patient_id")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	var dto UpdatePatientDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	patient, err := h.Service.Update(r.Context(), p, id, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, patient)
}

func (h *Handler) DeletePatient(w http.ResponseWriter, r *http.Request) {
	p, ok := h.permissions(w, r)
	if !ok {
		return
	}

	id, err := h.IDParam(r, "patient_id")
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

func (h *Handler) ExportPatients(w http.ResponseWriter, r *http.Request) {
	p, ok := h.permissions(w, r)
	if !ok {
		return
	}

	patients, err := h.Service.Roster(r.Context(), p)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	data, err := WriteRoster(patients)
	if err != nil {
		h.HandleServiceError(w, r, internal.NewInternalError("failed to build patient export", err))
		return
	}

	filename := fmt.Sprintf("patients-%s-%s.xlsx", p.VendorID, time.Now().Format("20060102"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.Logger.Error("failed to write patient export", "error", err)
	}
}
