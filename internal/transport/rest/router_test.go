package rest_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/frahmantamala/vendor-portal/internal"
	"github.com/frahmantamala/vendor-portal/internal/account"
	"github.com/frahmantamala/vendor-portal/internal/auth"
	authPostgres "github.com/frahmantamala/vendor-portal/internal/auth/postgres"
	accountDatamodel "github.com/frahmantamala/vendor-portal/internal/core/datamodel/account"
	"github.com/frahmantamala/vendor-portal/internal/core/datamodel/dbtest"
	"github.com/frahmantamala/vendor-portal/internal/core/events"
	"github.com/frahmantamala/vendor-portal/internal/employee"
	employeePostgres "github.com/frahmantamala/vendor-portal/internal/employee/postgres"
	"github.com/frahmantamala/vendor-portal/internal/patient"
	patientPostgres "github.com/frahmantamala/vendor-portal/internal/patient/postgres"
	"github.com/frahmantamala/vendor-portal/internal/permission"
	permissionPostgres "github.com/frahmantamala/vendor-portal/internal/permission/postgres"
	"github.com/frahmantamala/vendor-portal/internal/storage"
	"github.com/frahmantamala/vendor-portal/internal/transport"
	"github.com/frahmantamala/vendor-portal/internal/transport/rest"
	"github.com/frahmantamala/vendor-portal/internal/trial"
	trialPostgres "github.com/frahmantamala/vendor-portal/internal/trial/postgres"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func TestRest(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "REST Suite")
}

var _ = Describe("Router", func() {
	var (
		db      *gorm.DB
		router  *chi.Mux
		slogger *slog.Logger
	)

	build := func(adminAccess string) *chi.Mux {
		base := transport.NewBaseHandler(slogger)
		bus := events.NewEventBus(slogger)

		authService := auth.NewService(authPostgres.NewAuthRepository(db),
			auth.NewJWTTokenGenerator("router-test-secret-at-least-32-characters", 30*time.Minute),
			bus, bcrypt.MinCost, slogger)
		permissionRepo := permissionPostgres.NewPermissionRepository(db)
		resolver := permission.NewResolver(permissionRepo, slogger)
		trialService := trial.NewService(trialPostgres.NewTrialRepository(db),
			storage.NewMemoryStore("http://objects.test"), bus, internal.StorageConfig{}, slogger)

		mux := chi.NewRouter()
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		rest.RegisterAllRoutes(mux, sqlDB, rest.Handlers{
			Auth:       auth.NewHandler(base, authService),
			Permission: permission.NewHandler(base, resolver),
			Employee:   employee.NewHandler(base, employee.NewService(employeePostgres.NewEmployeeRepository(db), bcrypt.MinCost, slogger)),
			Patient:    patient.NewHandler(base, patient.NewService(patientPostgres.NewPatientRepository(db), bcrypt.MinCost, slogger)),
			Trial:      trial.NewHandler(base, trialService),
			AdminTrial: trial.NewAdminHandler(base, trialService),
			Roles:      permissionRepo,
		}, rest.Options{
			AllowedOrigins: []string{"https://portal.example.com"},
			AdminAccess:    adminAccess,
			OpenAPI:        []byte("openapi: 3.0.3\n"),
		}, slogger)
		return mux
	}

	BeforeEach(func() {
		var err error
		slogger = slog.New(slog.NewTextHandler(io.Discard, nil))
		db, err = dbtest.Open()
		Expect(err).NotTo(HaveOccurred())
		router = build(internal.AdminAccessAdmin)
	})

	do := func(method, path, token, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		if body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	register := func(username, role string) *httptest.ResponseRecorder {
		return do(http.MethodPost, "/register", "", `{"username":"`+username+`","first_name":"Ada","last_name":"Lab","email":"`+username+`@lab.com","password":"secret1","role":"`+role+`"}`)
	}

	login := func(username, password string) string {
		form := url.Values{"username": {username}, "password": {password}}
		req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		Expect(w.Code).To(Equal(http.StatusOK))

		var tokens auth.TokenResponse
		Expect(json.NewDecoder(w.Body).Decode(&tokens)).To(Succeed())
		return tokens.AccessToken
	}

	signUp := func(username, role string) string {
		Expect(register(username, role).Code).To(Equal(http.StatusCreated))
		return login(username, "secret1")
	}

	// admins cannot self-register, so they are inserted directly
	seedAdmin := func(username string) (int64, string) {
		userID, err := dbtest.SeedAccount(db, username, string(account.RoleAdmin))
		Expect(err).NotTo(HaveOccurred())
		return userID, login(username, dbtest.Password)
	}

	Describe("operational endpoints", func() {
		It("answers liveness and readiness probes", func() {
			Expect(do(http.MethodGet, "/", "", "").Code).To(Equal(http.StatusOK))
			Expect(do(http.MethodGet, "/ping", "", "").Code).To(Equal(http.StatusOK))
			Expect(do(http.MethodGet, "/db-status", "", "").Code).To(Equal(http.StatusOK))

			w := do(http.MethodGet, "/health", "", "")
			Expect(w.Code).To(Equal(http.StatusOK))
			var resp rest.HealthResponse
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp.Status).To(Equal(rest.HealthHealthy))
			Expect(resp.Components).To(HaveKey("postgres"))
		})

		It("tags every response with a request id", func() {
			w := do(http.MethodGet, "/ping", "", "")
			Expect(w.Header().Get("X-Request-ID")).NotTo(BeEmpty())
		})

		It("serves the OpenAPI document", func() {
			w := do(http.MethodGet, "/openapi.yml", "", "")
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(ContainSubstring("openapi: 3.0.3"))
		})
	})

	It("rejects vendor routes without a bearer token", func() {
		Expect(do(http.MethodGet, "/api/vendor/patients", "", "").Code).To(Equal(http.StatusUnauthorized))
		Expect(do(http.MethodGet, "/api/vendor/clinical/trials", "", "").Code).To(Equal(http.StatusUnauthorized))
	})

	It("wires the vendor trees behind the permission resolver", func() {
		token := signUp("acme_owner", "vendor")

		Expect(do(http.MethodGet, "/api/vendor/employees/me/permissions", token, "").Code).To(Equal(http.StatusOK))
		Expect(do(http.MethodGet, "/api/vendor/patients", token, "").Code).To(Equal(http.StatusOK))
		Expect(do(http.MethodGet, "/api/vendor/patients/export", token, "").Code).To(Equal(http.StatusOK))
		Expect(do(http.MethodPost, "/api/vendor/clinical/trials", token, `{"trial_name":"Gut Flora","product_name":"DailyBiotic"}`).Code).
			To(Equal(http.StatusCreated))
		Expect(do(http.MethodGet, "/api/vendor/clinical/dashboard", token, "").Code).To(Equal(http.StatusOK))
	})

	Describe("admin trial paths", func() {
		It("require the admin role by default", func() {
			vendorToken := signUp("acme_owner", "vendor")
			Expect(do(http.MethodPost, "/api/vendor/clinical/trials", vendorToken, `{"trial_name":"Gut Flora","product_name":"DailyBiotic"}`).Code).
				To(Equal(http.StatusCreated))

			Expect(do(http.MethodGet, "/admin/trials", vendorToken, "").Code).To(Equal(http.StatusForbidden))

			_, adminToken := seedAdmin("site_admin")
			w := do(http.MethodGet, "/admin/trials", adminToken, "")
			Expect(w.Code).To(Equal(http.StatusOK))
			var trials []trial.Trial
			Expect(json.NewDecoder(w.Body).Decode(&trials)).To(Succeed())
			Expect(trials).To(HaveLen(1))
		})

		It("admit any vendor when configured for vendor access", func() {
			router = build(internal.AdminAccessVendor)
			vendorToken := signUp("acme_owner", "vendor")

			Expect(do(http.MethodGet, "/admin/trials", vendorToken, "").Code).To(Equal(http.StatusOK))

			_, adminToken := seedAdmin("site_admin")
			Expect(do(http.MethodGet, "/admin/trials", adminToken, "").Code).To(Equal(http.StatusForbidden))
		})

		It("cannot be reached by self-registering as admin", func() {
			vendorToken := signUp("acme_owner", "vendor")
			Expect(do(http.MethodPost, "/api/vendor/clinical/trials", vendorToken, `{"trial_name":"Secret","product_name":"DailyBiotic"}`).Code).
				To(Equal(http.StatusCreated))

			w := register("mallory", "admin")
			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(w.Body.String()).To(ContainSubstring(string(internal.ErrCodeInvalidRole)))

			var count int64
			Expect(db.Model(&accountDatamodel.UserAccount{}).Where("username = ?", "mallory").Count(&count).Error).To(Succeed())
			Expect(count).To(BeZero())
		})

		It("stop honouring an admin token once the account is deleted", func() {
			adminID, adminToken := seedAdmin("site_admin")
			Expect(do(http.MethodGet, "/admin/trials", adminToken, "").Code).To(Equal(http.StatusOK))

			Expect(db.Delete(&accountDatamodel.UserAccount{}, adminID).Error).To(Succeed())
			Expect(do(http.MethodGet, "/admin/trials", adminToken, "").Code).To(Equal(http.StatusUnauthorized))
		})
	})
})
