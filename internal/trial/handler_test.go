package trial_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"time"

	"github.com/frahmantamala/vendor-portal/internal"
	"github.com/frahmantamala/vendor-portal/internal/account"
	"github.com/frahmantamala/vendor-portal/internal/core/datamodel/dbtest"
	"github.com/frahmantamala/vendor-portal/internal/core/events"
	"github.com/frahmantamala/vendor-portal/internal/permission"
	permissionPostgres "github.com/frahmantamala/vendor-portal/internal/permission/postgres"
	"github.com/frahmantamala/vendor-portal/internal/storage"
	"github.com/frahmantamala/vendor-portal/internal/transport"
	"github.com/frahmantamala/vendor-portal/internal/transport/middleware"
	"github.com/frahmantamala/vendor-portal/internal/trial"
	trialPostgres "github.com/frahmantamala/vendor-portal/internal/trial/postgres"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Trial Handler Integration", func() {
	var (
		router  *chi.Mux
		bus     *events.EventBus
		seen    []string
		vendorA internal.Identity
		vendorB internal.Identity
		manager internal.Identity
		admin   internal.Identity
	)

	BeforeEach(func() {
		slogger := slog.New(slog.NewTextHandler(io.Discard, nil))
		base := &transport.BaseHandler{Logger: slogger}

		db, err := dbtest.Open()
		Expect(err).NotTo(HaveOccurred())

		aID, vendorIDA, err := dbtest.SeedVendor(db, "trial_vendor_a")
		Expect(err).NotTo(HaveOccurred())
		bID, _, err := dbtest.SeedVendor(db, "trial_vendor_b")
		Expect(err).NotTo(HaveOccurred())
		mID, _, err := dbtest.SeedEmployee(db, vendorIDA, "trial_manager", "manager", "active")
		Expect(err).NotTo(HaveOccurred())
		adminID, err := dbtest.SeedAccount(db, "site_admin", "admin")
		Expect(err).NotTo(HaveOccurred())

		vendorA = internal.Identity{UserID: aID, Username: "trial_vendor_a", Role: "vendor"}
		vendorB = internal.Identity{UserID: bID, Username: "trial_vendor_b", Role: "vendor"}
		manager = internal.Identity{UserID: mID, Username: "trial_manager", Role: "employee"}
		admin = internal.Identity{UserID: adminID, Username: "site_admin", Role: "admin"}

		seen = nil
		bus = events.NewEventBus(slogger)
		bus.Subscribe(events.AllEvents, func(ctx context.Context, e events.Event) error {
			seen = append(seen, e.EventType())
			return nil
		})

		cfg := internal.StorageConfig{PresignTTL: time.Minute, MaxUploadBytes: 1 << 20}
		service := trial.NewService(trialPostgres.NewTrialRepository(db), storage.NewMemoryStore("memory://docs"), bus, cfg, slogger)
		permissionRepo := permissionPostgres.NewPermissionRepository(db)
		permHandler := permission.NewHandler(base, permission.NewResolver(permissionRepo, slogger))

		router = chi.NewRouter()
		router.Route("/api/vendor/clinical", func(r chi.Router) {
			r.Use(permHandler.RequireVendorAdmin)
			trial.NewHandler(base, service).Routes(r)
		})
		router.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(base, permissionRepo, internal.ErrAdminOnly, account.RoleAdmin))
			trial.NewAdminHandler(base, service).Routes(r)
		})
	})

	send := func(id internal.Identity, req *http.Request) *httptest.ResponseRecorder {
		req = req.WithContext(internal.ContextWithIdentity(req.Context(), id))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	call := func(id internal.Identity, method, path, body string) *httptest.ResponseRecorder {
		var reader io.Reader
		if body != "" {
			reader = strings.NewReader(body)
		}
		req := httptest.NewRequest(method, path, reader)
		req.Header.Set("Content-Type", "application/json")
		return send(id, req)
	}

	createTrial := func(id internal.Identity) trial.Trial {
		w := call(id, http.MethodPost, "/api/vendor/clinical/trials",
			`{"trial_name":"Phase 1 Safety","product_name":"DailyBiotic Pro","trial_start_date":"2026-01-15"}`)
		Expect(w.Code).To(Equal(http.StatusCreated), w.Body.String())
		var t trial.Trial
		Expect(json.NewDecoder(w.Body).Decode(&t)).To(Succeed())
		return t
	}

	trialPath := func(t trial.Trial, suffix string) string {
		return "/api/vendor/clinical/trials/" + strconv.FormatInt(t.TrialID, 10) + suffix
	}

	uploadRequest := func(path, docType, filename, content string) *http.Request {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		Expect(mw.WriteField("document_type", docType)).To(Succeed())
		part, err := mw.CreateFormFile("file", filename)
		Expect(err).NotTo(HaveOccurred())
		_, err = part.Write([]byte(content))
		Expect(err).NotTo(HaveOccurred())
		Expect(mw.Close()).To(Succeed())

		req := httptest.NewRequest(http.MethodPost, path, &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		return req
	}

	It("allows one trial per vendor", func() {
		t := createTrial(vendorA)
		Expect(t.TrialStatus).To(Equal(trial.StatusPreparing))
		Expect(*t.TrialStartDate).To(Equal("2026-01-15"))

		w := call(vendorA, http.MethodPost, "/api/vendor/clinical/trials", `{"trial_name":"x","product_name":"y"}`)
		Expect(w.Code).To(Equal(http.StatusBadRequest))

		var body internal.Response
		Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
		Expect(body.Error.Code).To(Equal(internal.ErrCodeTrialAlreadyExists))
	})

	It("keeps employees off the vendor trial paths", func() {
		w := call(manager, http.MethodGet, "/api/vendor/clinical/trials", "")
		Expect(w.Code).To(Equal(http.StatusForbidden))
	})

	It("returns 404 for another vendor's trial on every path", func() {
		t := createTrial(vendorA)
		Expect(call(vendorB, http.MethodGet, trialPath(t, ""), "").Code).To(Equal(http.StatusNotFound))
		Expect(call(vendorB, http.MethodPut, trialPath(t, ""), `{"trial_status":"active"}`).Code).To(Equal(http.StatusNotFound))
		Expect(call(vendorB, http.MethodPut, trialPath(t, "/irb-status"), `{"new_status":"submitted"}`).Code).To(Equal(http.StatusNotFound))
		Expect(call(vendorB, http.MethodGet, trialPath(t, "/irb-history"), "").Code).To(Equal(http.StatusNotFound))
		Expect(call(vendorB, http.MethodGet, trialPath(t, "/payments"), "").Code).To(Equal(http.StatusNotFound))
		Expect(call(vendorB, http.MethodGet, trialPath(t, "/documents"), "").Code).To(Equal(http.StatusNotFound))

		var listed []trial.Trial
		w := call(vendorB, http.MethodGet, "/api/vendor/clinical/trials", "")
		Expect(json.NewDecoder(w.Body).Decode(&listed)).To(Succeed())
		Expect(listed).To(BeEmpty())
	})

	It("walks the IRB workflow and reports history newest first", func() {
		t := createTrial(vendorA)
		for _, status := range []string{"submitted", "under_review"} {
			w := call(vendorA, http.MethodPut, trialPath(t, "/irb-status"), `{"new_status":"`+status+`","comments":"step"}`)
			Expect(w.Code).To(Equal(http.StatusOK), w.Body.String())
		}

		w := call(vendorA, http.MethodGet, trialPath(t, ""), "")
		var got trial.Trial
		Expect(json.NewDecoder(w.Body).Decode(&got)).To(Succeed())
		Expect(got.IRBStatus).To(Equal(trial.IRBUnderReview))
		Expect(got.IRBSubmissionDate).NotTo(BeNil())

		w = call(vendorA, http.MethodGet, trialPath(t, "/irb-history"), "")
		var history trial.IRBHistoryResponse
		Expect(json.NewDecoder(w.Body).Decode(&history)).To(Succeed())
		Expect(history.HistoryCount).To(Equal(2))
		Expect(history.History[0].NewStatus).To(Equal(trial.IRBUnderReview))
		Expect(*history.History[0].OldStatus).To(Equal(trial.IRBSubmitted))

		Expect(seen).To(Equal([]string{events.EventTypeIRBStatusChanged, events.EventTypeIRBStatusChanged}))
	})

	It("records payments as completed", func() {
		t := createTrial(vendorA)
		w := call(vendorA, http.MethodPost, trialPath(t, "/payments"),
			`{"installment_number":1,"amount":12500.75,"payment_method":"wire_transfer","due_date":"2026-02-01"}`)
		Expect(w.Code).To(Equal(http.StatusCreated), w.Body.String())

		w = call(vendorA, http.MethodGet, trialPath(t, "/payments"), "")
		var payments []trial.Payment
		Expect(json.NewDecoder(w.Body).Decode(&payments)).To(Succeed())
		Expect(payments).To(HaveLen(1))
		Expect(payments[0].PaymentStatus).To(Equal(trial.PaymentCompleted))
		Expect(payments[0].PaidDate).NotTo(BeNil())
	})

	It("uploads versioned documents and hands out download links", func() {
		t := createTrial(vendorA)

		for i := 1; i <= 2; i++ {
			w := send(vendorA, uploadRequest(trialPath(t, "/documents"), "protocol", "protocol.pdf", "%PDF-"+strconv.Itoa(i)))
			Expect(w.Code).To(Equal(http.StatusCreated), w.Body.String())
			var doc trial.Document
			Expect(json.NewDecoder(w.Body).Decode(&doc)).To(Succeed())
			Expect(doc.Version).To(Equal(i))
		}

		w := call(vendorA, http.MethodGet, trialPath(t, "/documents"), "")
		var docs []trial.Document
		Expect(json.NewDecoder(w.Body).Decode(&docs)).To(Succeed())
		Expect(docs).To(HaveLen(2))

		w = call(vendorA, http.MethodGet, trialPath(t, "/documents/"+strconv.FormatInt(docs[0].DocumentID, 10)+"/download"), "")
		Expect(w.Code).To(Equal(http.StatusOK))
		var link trial.DownloadResponse
		Expect(json.NewDecoder(w.Body).Decode(&link)).To(Succeed())
		Expect(link.URL).To(HavePrefix("memory://docs/trials/"))

		w = send(vendorA, uploadRequest(trialPath(t, "/documents"), "invoice", "x.pdf", "data"))
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("stops reading uploads far beyond the size limit", func() {
		t := createTrial(vendorA)

		w := send(vendorA, uploadRequest(trialPath(t, "/documents"), "protocol", "huge.pdf", strings.Repeat("x", 10<<20)))
		Expect(w.Code).To(Equal(http.StatusRequestEntityTooLarge), w.Body.String())
		var body internal.Response
		Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
		Expect(body.Error.Code).To(Equal(internal.ErrCodeDocumentTooLarge))

		w = call(vendorA, http.MethodGet, trialPath(t, "/documents"), "")
		var docs []trial.Document
		Expect(json.NewDecoder(w.Body).Decode(&docs)).To(Succeed())
		Expect(docs).To(BeEmpty())
	})

	It("serves the dashboard", func() {
		createTrial(vendorA)
		w := call(vendorA, http.MethodGet, "/api/vendor/clinical/dashboard", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		var stats trial.Stats
		Expect(json.NewDecoder(w.Body).Decode(&stats)).To(Succeed())
		Expect(stats.TotalTrials).To(Equal(int64(1)))
		Expect(stats.PendingIRB).To(Equal(int64(1)))
	})

	Describe("admin paths", func() {
		It("reach every vendor's trials for administrators", func() {
			t := createTrial(vendorA)
			path := "/admin/trials/" + strconv.FormatInt(t.TrialID, 10)

			Expect(call(admin, http.MethodGet, path, "").Code).To(Equal(http.StatusOK))
			w := call(admin, http.MethodPut, path+"/irb-status", `{"new_status":"approved"}`)
			Expect(w.Code).To(Equal(http.StatusOK), w.Body.String())

			w = call(vendorA, http.MethodGet, trialPath(t, ""), "")
			var got trial.Trial
			Expect(json.NewDecoder(w.Body).Decode(&got)).To(Succeed())
			Expect(got.IRBStatus).To(Equal(trial.IRBApproved))
			Expect(got.IRBApprovalDate).NotTo(BeNil())
		})

		It("reject vendors when admin access is restricted to administrators", func() {
			t := createTrial(vendorA)
			w := call(vendorB, http.MethodGet, "/admin/trials/"+strconv.FormatInt(t.TrialID, 10), "")
			Expect(w.Code).To(Equal(http.StatusForbidden))
		})
	})
})
