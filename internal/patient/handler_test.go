package patient_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/frahmantamala/vendor-portal/internal"
	accountDatamodel "github.com/frahmantamala/vendor-portal/internal/core/datamodel/account"
	"github.com/frahmantamala/vendor-portal/internal/core/datamodel/dbtest"
	"github.com/frahmantamala/vendor-portal/internal/patient"
	patientPostgres "github.com/frahmantamala/vendor-portal/internal/patient/postgres"
	"github.com/frahmantamala/vendor-portal/internal/permission"
	permissionPostgres "github.com/frahmantamala/vendor-portal/internal/permission/postgres"
	"github.com/frahmantamala/vendor-portal/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/xuri/excelize/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var _ = Describe("Patient Handler Integration", func() {
	var (
		db      *gorm.DB
		router  *chi.Mux
		vendorA internal.Identity
		vendorB internal.Identity
		viewerA internal.Identity
	)

	BeforeEach(func() {
		var err error
		slogger := slog.New(slog.NewTextHandler(io.Discard, nil))
		base := &transport.BaseHandler{Logger: slogger}

		db, err = dbtest.Open()
		Expect(err).NotTo(HaveOccurred())

		aID, vendorIDA, err := dbtest.SeedVendor(db, "vendor_a")
		Expect(err).NotTo(HaveOccurred())
		bID, _, err := dbtest.SeedVendor(db, "vendor_b")
		Expect(err).NotTo(HaveOccurred())
		vID, _, err := dbtest.SeedEmployee(db, vendorIDA, "viewer_a", "viewer", "active")
		Expect(err).NotTo(HaveOccurred())

		vendorA = internal.Identity{UserID: aID, Username: "vendor_a", Role: "vendor"}
		vendorB = internal.Identity{UserID: bID, Username: "vendor_b", Role: "vendor"}
		viewerA = internal.Identity{UserID: vID, Username: "viewer_a", Role: "employee"}

		permHandler := permission.NewHandler(base, permission.NewResolver(permissionPostgres.NewPermissionRepository(db), slogger))
		handler := patient.NewHandler(base, patient.NewService(patientPostgres.NewPatientRepository(db), bcrypt.MinCost, slogger))

		router = chi.NewRouter()
		router.Route("/api/vendor/patients", func(r chi.Router) {
			r.Use(permHandler.RequireVendorMember)
			r.Post("/", handler.CreatePatient)
			r.Get("/", handler.ListPatients)
			r.Get("/export", handler.ExportPatients)
			r.Get("/{patient_id}", handler.GetPatient)
			r.Put("/{patient_id}", handler.UpdatePatient)
			r.Delete("/{patient_id}", handler.DeletePatient)
		})
	})

	call := func(id internal.Identity, method, path, body string) *httptest.ResponseRecorder {
		var reader io.Reader
		if body != "" {
			reader = strings.NewReader(body)
		}
		req := httptest.NewRequest(method, path, reader)
		req.Header.Set("Content-Type", "application/json")
		req = req.WithContext(internal.ContextWithIdentity(req.Context(), id))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	createPatient := func(id internal.Identity, username string) patient.CreateResponse {
		body := `{"username":"` + username + `","email":"` + username + `@mail.com","password":"secret1",` +
			`"first_name":"Pat","last_name":"Ient","phone":"555-123-4567","date_of_birth":"1985-06-30","city":"Denver"}`
		w := call(id, http.MethodPost, "/api/vendor/patients", body)
		Expect(w.Code).To(Equal(http.StatusCreated), w.Body.String())
		var resp patient.CreateResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		return resp
	}

	It("round-trips a created patient", func() {
		created := createPatient(vendorA, "round_trip")

		w := call(vendorA, http.MethodGet, "/api/vendor/patients/"+itoa(created.CustomerID), "")
		Expect(w.Code).To(Equal(http.StatusOK))

		var got patient.Patient
		Expect(json.NewDecoder(w.Body).Decode(&got)).To(Succeed())
		Expect(got.CustomerID).To(Equal(created.CustomerID))
		Expect(got.Username).To(Equal("round_trip"))
		Expect(got.Email).To(Equal("round_trip@mail.com"))
		Expect(*got.DateOfBirth).To(Equal("1985-06-30"))
		Expect(*got.City).To(Equal("Denver"))
	})

	It("keeps vendors out of each other's patients", func() {
		created := createPatient(vendorA, "private_pat")
		path := "/api/vendor/patients/" + itoa(created.CustomerID)

		Expect(call(vendorB, http.MethodGet, path, "").Code).To(Equal(http.StatusNotFound))
		Expect(call(vendorB, http.MethodPut, path, `{"city":"Elsewhere"}`).Code).To(Equal(http.StatusNotFound))
		Expect(call(vendorB, http.MethodDelete, path, "").Code).To(Equal(http.StatusNotFound))

		w := call(vendorB, http.MethodGet, "/api/vendor/patients", "")
		var list patient.ListResponse
		Expect(json.NewDecoder(w.Body).Decode(&list)).To(Succeed())
		Expect(list.TotalCount).To(BeZero())
	})

	It("soft deletes by setting the account inactive", func() {
		created := createPatient(vendorA, "soft_pat")

		w := call(vendorA, http.MethodDelete, "/api/vendor/patients/"+itoa(created.CustomerID), "")
		Expect(w.Code).To(Equal(http.StatusOK))

		var acct accountDatamodel.UserAccount
		Expect(db.First(&acct, created.UserID).Error).To(Succeed())
		Expect(acct.Status).To(Equal("inactive"))

		w = call(vendorA, http.MethodGet, "/api/vendor/patients?status_filter=inactive", "")
		var list patient.ListResponse
		Expect(json.NewDecoder(w.Body).Decode(&list)).To(Succeed())
		Expect(list.TotalCount).To(Equal(int64(1)))
	})

	It("lets viewers read but not write", func() {
		createPatient(vendorA, "seen_pat")
		Expect(call(viewerA, http.MethodGet, "/api/vendor/patients", "").Code).To(Equal(http.StatusOK))

		w := call(viewerA, http.MethodPost, "/api/vendor/patients",
			`{"username":"nope_pat","email":"nope@mail.com","password":"secret1","first_name":"N","last_name":"P"}`)
		Expect(w.Code).To(Equal(http.StatusForbidden))
	})

	It("updates profile and account fields together", func() {
		created := createPatient(vendorA, "upd_pat")

		w := call(vendorA, http.MethodPut, "/api/vendor/patients/"+itoa(created.CustomerID), `{"first_name":"Renamed","country":"US"}`)
		Expect(w.Code).To(Equal(http.StatusOK))

		var got patient.Patient
		Expect(json.NewDecoder(w.Body).Decode(&got)).To(Succeed())
		Expect(got.FirstName).To(Equal("Renamed"))
		Expect(*got.Country).To(Equal("US"))
	})

	It("exports the roster as a workbook", func() {
		createPatient(vendorA, "export_one")
		createPatient(vendorA, "export_two")
		createPatient(vendorB, "export_other")

		w := call(vendorA, http.MethodGet, "/api/vendor/patients/export", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get("Content-Disposition")).To(ContainSubstring(".xlsx"))

		f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
		Expect(err).NotTo(HaveOccurred())
		defer f.Close()

		rows, err := f.GetRows("Patients")
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(HaveLen(3))
		Expect(rows[0][1]).To(Equal("Username"))
		Expect([]string{rows[1][1], rows[2][1]}).To(ConsistOf("export_one", "export_two"))
	})
})
