package trial

import (
	"context"
	"errors"
	"net/http"

	"github.com/frahmantamala/vendor-portal/internal"
	"github.com/frahmantamala/vendor-portal/internal/permission"
	"github.com/frahmantamala/vendor-portal/internal/transport"
	"github.com/go-chi/chi"
)

// multipartMemory is how much of an upload is buffered in memory before spilling to disk.
const multipartMemory = 8 << 20

type ServiceAPI interface {
	Create(ctx context.Context, c Caller, dto CreateTrialDTO) (*Trial, error)
	List(ctx context.Context, c Caller, filter ListFilter) ([]*Trial, error)
	Get(ctx context.Context, c Caller, trialID int64) (*Trial, error)
	Update(ctx context.Context, c Caller, trialID int64, dto UpdateTrialDTO) (*Trial, error)
	UpdateIRBStatus(ctx context.Context, c Caller, trialID int64, dto IRBStatusUpdateDTO) (*IRBStatusResponse, error)
	IRBHistory(ctx context.Context, c Caller, trialID int64) (*IRBHistoryResponse, error)
	CreatePayment(ctx context.Context, c Caller, trialID int64, dto CreatePaymentDTO) (*Payment, error)
	ListPayments(ctx context.Context, c Caller, trialID int64) ([]*Payment, error)
	ListDocuments(ctx context.Context, c Caller, trialID int64) ([]*Document, error)
	UploadDocument(ctx context.Context, c Caller, trialID int64, dto UploadDocumentDTO) (*Document, error)
	DownloadDocument(ctx context.Context, c Caller, trialID, documentID int64) (*DownloadResponse, error)
	Stats(ctx context.Context, c Caller) (*Stats, error)
	// UploadLimit is the largest accepted document in bytes; zero means unlimited.
	UploadLimit() int64
}

// Handler serves both trial route trees. Vendor handlers read the caller's vendor from the
// permission middleware; admin handlers run unscoped.
type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI

	admin bool
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

func NewAdminHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
		admin:       true,
	}
}

// Routes registers the trial tree relative to r; both route trees share it.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/trials", func(tr chi.Router) {
		if !h.admin {
			tr.Post("/", h.CreateTrial)
		}
		tr.Get("/", h.ListTrials)
		tr.Route("/{trial_id}", func(one chi.Router) {
			one.Get("/", h.GetTrial)
			one.Put("/", h.UpdateTrial)
			one.Put("/irb-status", h.UpdateIRBStatus)
			one.Get("/irb-history", h.GetIRBHistory)
			one.Post("/payments", h.CreatePayment)
			one.Get("/payments", h.ListPayments)
			one.Get("/documents", h.ListDocuments)
			one.Post("/documents", h.UploadDocument)
			one.Get("/documents/{document_id}/download", h.DownloadDocument)
		})
	})
	if !h.admin {
		r.Get("/dashboard", h.Dashboard)
	}
}

func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (Caller, bool) {
	if h.admin {
		id, ok := h.Identity(w, r)
		return Caller{UserID: id.UserID}, ok
	}

	p, ok := permission.FromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, r, internal.NewInternalError("permissions not resolved", nil))
		return Caller{}, false
	}
	return Caller{UserID: p.UserID, VendorID: p.VendorID}, true
}

// trialRequest resolves the caller and the {trial_id} path parameter.
func (h *Handler) trialRequest(w http.ResponseWriter, r *http.Request) (Caller, int64, bool) {
	c, ok := h.caller(w, r)
	if !ok {
		return Caller{}, 0, false
	}
	trialID, err := h.IDParam(r, "trial_id")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return Caller{}, 0, false
	}
	return c, trialID, true
}

func (h *Handler) CreateTrial(w http.ResponseWriter, r *http.Request) {
	c, ok := h.caller(w, r)
	if !ok {
		return
	}

	var dto CreateTrialDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	t, err := h.Service.Create(r.Context(), c, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, t)
}

func (h *Handler) ListTrials(w http.ResponseWriter, r *http.Request) {
	c, ok := h.caller(w, r)
	if !ok {
		return
	}

	filter := ListFilter{
		TrialStatus: r.URL.Query().Get("trial_status"),
		IRBStatus:   r.URL.Query().Get("irb_status"),
	}
	trials, err := h.Service.List(r.Context(), c, filter)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, trials)
}

func (h *Handler) GetTrial(w http.ResponseWriter, r *http.Request) {
	c, trialID, ok := h.trialRequest(w, r)
	if !ok {
		return
	}

	t, err := h.Service.Get(r.Context(), c, trialID)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) UpdateTrial(w http.ResponseWriter, r *http.Request) {
	c, trialID, ok := h.trialRequest(w, r)
	if !ok {
		return
	}

	var dto UpdateTrialDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	t, err := h.Service.Update(r.Context(), c, trialID, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) UpdateIRBStatus(w http.ResponseWriter, r *http.Request) {
	c, trialID, ok := h.trialRequest(w, r)
	if !ok {
		return
	}

	var dto IRBStatusUpdateDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	resp, err := h.Service.UpdateIRBStatus(r.Context(), c, trialID, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetIRBHistory(w http.ResponseWriter, r *http.Request) {
	c, trialID, ok := h.trialRequest(w, r)
	if !ok {
		return
	}

	resp, err := h.Service.IRBHistory(r.Context(), c, trialID)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	c, trialID, ok := h.trialRequest(w, r)
	if !ok {
		return
	}

	var dto CreatePaymentDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	payment, err := h.Service.CreatePayment(r.Context(), c, trialID, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, payment)
}

func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	c, trialID, ok := h.trialRequest(w, r)
	if !ok {
		return
	}

	payments, err := h.Service.ListPayments(r.Context(), c, trialID)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, payments)
}

func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	c, trialID, ok := h.trialRequest(w, r)
	if !ok {
		return
	}

	docs, err := h.Service.ListDocuments(r.Context(), c, trialID)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, docs)
}

func (h *Handler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	c, trialID, ok := h.trialRequest(w, r)
	if !ok {
		return
	}

	if limit := h.Service.UploadLimit(); limit > 0 {
		// headroom for the other form fields and part headers
		r.Body = http.MaxBytesReader(w, r.Body, limit+multipartMemory)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.HandleServiceError(w, r, internal.ErrDocumentTooLarge)
			return
		}
		h.HandleServiceError(w, r, internal.NewValidationError("invalid multipart form: "+err.Error(), internal.ErrCodeInvalidDocument))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.HandleServiceError(w, r, internal.NewValidationFieldError("file", "file is required", internal.ErrCodeInvalidDocument))
		return
	}
	defer file.Close()

	dto := UploadDocumentDTO{
		DocumentType: r.FormValue("document_type"),
		DocumentName: r.FormValue("document_name"),
		Filename:     header.Filename,
		ContentType:  header.Header.Get("Content-Type"),
		Size:         header.Size,
		Body:         file,
	}
	if notes := r.FormValue("notes"); notes != "" {
		dto.Notes = &notes
	}

	doc, err := h.Service.UploadDocument(r.Context(), c, trialID, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, doc)
}

func (h *Handler) DownloadDocument(w http.ResponseWriter, r *http.Request) {
	c, trialID, ok := h.trialRequest(w, r)
	if !ok {
		return
	}
	documentID, err := h.IDParam(r, "document_id")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	resp, err := h.Service.DownloadDocument(r.Context(), c, trialID, documentID)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	c, ok := h.caller(w, r)
	if !ok {
		return
	}

	stats, err := h.Service.Stats(r.Context(), c)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, stats)
}
