package employee_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"time"

	"github.com/frahmantamala/vendor-portal/internal/auth"
	authPostgres "github.com/frahmantamala/vendor-portal/internal/auth/postgres"
	accountDatamodel "github.com/frahmantamala/vendor-portal/internal/core/datamodel/account"
	"github.com/frahmantamala/vendor-portal/internal/core/datamodel/dbtest"
	employeeDatamodel "github.com/frahmantamala/vendor-portal/internal/core/datamodel/employee"
	"github.com/frahmantamala/vendor-portal/internal/core/events"
	"github.com/frahmantamala/vendor-portal/internal/employee"
	employeePostgres "github.com/frahmantamala/vendor-portal/internal/employee/postgres"
	"github.com/frahmantamala/vendor-portal/internal/permission"
	permissionPostgres "github.com/frahmantamala/vendor-portal/internal/permission/postgres"
	"github.com/frahmantamala/vendor-portal/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var _ = Describe("Employee Handler Integration", func() {
	var (
		db        *gorm.DB
		router    *chi.Mux
		vendorA   string
		vendorB   string
		employeeB int64
	)

	BeforeEach(func() {
		var err error
		slogger := slog.New(slog.NewTextHandler(io.Discard, nil))
		base := &transport.BaseHandler{Logger: slogger}

		db, err = dbtest.Open()
		Expect(err).NotTo(HaveOccurred())

		_, vendorA, err = dbtest.SeedVendor(db, "vendor_a")
		Expect(err).NotTo(HaveOccurred())
		_, vendorB, err = dbtest.SeedVendor(db, "vendor_b")
		Expect(err).NotTo(HaveOccurred())
		_, _, err = dbtest.SeedEmployee(db, vendorA, "mgr_a", "manager", "active")
		Expect(err).NotTo(HaveOccurred())
		_, _, err = dbtest.SeedEmployee(db, vendorA, "viewer_a", "viewer", "active")
		Expect(err).NotTo(HaveOccurred())
		_, employeeB, err = dbtest.SeedEmployee(db, vendorB, "editor_b", "editor", "active")
		Expect(err).NotTo(HaveOccurred())

		tokens := auth.NewJWTTokenGenerator("employee-test-secret-at-least-32-chars", 30*time.Minute)
		authHandler := auth.NewHandler(base, auth.NewService(authPostgres.NewAuthRepository(db), tokens,
			events.NewEventBus(slogger), bcrypt.MinCost, slogger))
		permHandler := permission.NewHandler(base, permission.NewResolver(permissionPostgres.NewPermissionRepository(db), slogger))
		empHandler := employee.NewHandler(base, employee.NewService(employeePostgres.NewEmployeeRepository(db), bcrypt.MinCost, slogger))

		router = chi.NewRouter()
		router.Post("/token", authHandler.Token)
		router.Route("/api/vendor/employees", func(r chi.Router) {
			r.Use(authHandler.AuthMiddleware)
			r.Use(permHandler.RequireVendorMember)
			r.Post("/", empHandler.CreateEmployee)
			r.Get("/", empHandler.ListEmployees)
			r.Get("/me/permissions", permHandler.MyPermissions)
			r.Get("/{employee_id}", empHandler.GetEmployee)
			r.Put("/{employee_id}", empHandler.UpdateEmployee)
			r.Put("/{employee_id}/status", empHandler.UpdateEmployeeStatus)
			r.Delete("/{employee_id}", empHandler.DeleteEmployee)
		})
	})

	login := func(username string) (int, string) {
		form := url.Values{"username": {username}, "password": {dbtest.Password}}
		req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		var tokens auth.TokenResponse
		_ = json.NewDecoder(w.Body).Decode(&tokens)
		return w.Code, tokens.AccessToken
	}

	call := func(method, path, token, body string) *httptest.ResponseRecorder {
		var req *http.Request
		if body != "" {
			req = httptest.NewRequest(method, path, strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
		} else {
			req = httptest.NewRequest(method, path, nil)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	as := func(username string) string {
		code, token := login(username)
		Expect(code).To(Equal(http.StatusOK))
		return token
	}

	newEmployee := `{"username":"new_hire","email":"new.hire@lab.com","password":"secret1","first_name":"New","last_name":"Hire","phone":"(555) 123-4567","employee_role":"editor","department":"Sales"}`

	It("creates an employee inside the caller's vendor", func() {
		w := call(http.MethodPost, "/api/vendor/employees", as("vendor_a"), newEmployee)
		Expect(w.Code).To(Equal(http.StatusCreated))

		var resp employee.CreateResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.VendorID).To(Equal(vendorA))

		w = call(http.MethodGet, "/api/vendor/employees/"+itoa(resp.EmployeeID), as("mgr_a"), "")
		Expect(w.Code).To(Equal(http.StatusOK))
		var emp employee.Employee
		Expect(json.NewDecoder(w.Body).Decode(&emp)).To(Succeed())
		Expect(emp.Username).To(Equal("new_hire"))
		Expect(*emp.Phone).To(Equal("5551234567"))
		Expect(*emp.CreatedByUsername).To(Equal("vendor_a"))
		Expect(emp.VendorCompanyName).To(Equal("vendor_a Labs"))
	})

	It("denies a viewer's create request with 403", func() {
		w := call(http.MethodPost, "/api/vendor/employees", as("viewer_a"), newEmployee)
		Expect(w.Code).To(Equal(http.StatusForbidden))
	})

	It("lists only the caller's employees and supports search", func() {
		w := call(http.MethodGet, "/api/vendor/employees?search=MGR", as("vendor_a"), "")
		Expect(w.Code).To(Equal(http.StatusOK))

		var list employee.ListResponse
		Expect(json.NewDecoder(w.Body).Decode(&list)).To(Succeed())
		Expect(list.TotalCount).To(Equal(int64(1)))
		Expect(list.Employees[0].Username).To(Equal("mgr_a"))

		w = call(http.MethodGet, "/api/vendor/employees", as("vendor_a"), "")
		Expect(json.NewDecoder(w.Body).Decode(&list)).To(Succeed())
		Expect(list.TotalCount).To(Equal(int64(2)))
		for _, e := range list.Employees {
			Expect(e.VendorID).To(Equal(vendorA))
		}
	})

	It("answers 404 for another vendor's employee on every verb", func() {
		token := as("vendor_a")
		path := "/api/vendor/employees/" + itoa(employeeB)

		Expect(call(http.MethodGet, path, token, "").Code).To(Equal(http.StatusNotFound))
		Expect(call(http.MethodPut, path, token, `{"first_name":"Hijacked"}`).Code).To(Equal(http.StatusNotFound))
		Expect(call(http.MethodPut, path+"/status?status=inactive", token, "").Code).To(Equal(http.StatusNotFound))
		Expect(call(http.MethodDelete, path, token, "").Code).To(Equal(http.StatusNotFound))

		var link employeeDatamodel.VendorEmployee
		Expect(db.First(&link, employeeB).Error).To(Succeed())
		Expect(link.Status).To(Equal("active"))
		Expect(link.VendorID).To(Equal(vendorB))
	})

	It("deactivates both rows, keeps login working and blocks the role-gated endpoints", func() {
		viewerToken := as("viewer_a")
		var acct accountDatamodel.UserAccount
		Expect(db.Where("username = ?", "viewer_a").First(&acct).Error).To(Succeed())
		var link employeeDatamodel.VendorEmployee
		Expect(db.Where("user_id = ?", acct.UserID).First(&link).Error).To(Succeed())

		w := call(http.MethodPut, "/api/vendor/employees/"+itoa(link.EmployeeID)+"/status", as("mgr_a"), `{"status":"inactive"}`)
		Expect(w.Code).To(Equal(http.StatusOK))

		Expect(db.First(&acct, link.UserID).Error).To(Succeed())
		Expect(acct.Status).To(Equal("inactive"))
		Expect(db.First(&link, link.EmployeeID).Error).To(Succeed())
		Expect(link.Status).To(Equal("inactive"))

		code, _ := login("viewer_a")
		Expect(code).To(Equal(http.StatusOK))

		Expect(call(http.MethodGet, "/api/vendor/employees", viewerToken, "").Code).To(Equal(http.StatusForbidden))
	})

	It("lets only the vendor admin hard delete", func() {
		w := call(http.MethodPost, "/api/vendor/employees", as("vendor_a"), newEmployee)
		Expect(w.Code).To(Equal(http.StatusCreated))
		var created employee.CreateResponse
		Expect(json.NewDecoder(w.Body).Decode(&created)).To(Succeed())
		path := "/api/vendor/employees/" + itoa(created.EmployeeID)

		Expect(call(http.MethodDelete, path, as("mgr_a"), "").Code).To(Equal(http.StatusForbidden))
		Expect(call(http.MethodDelete, path, as("vendor_a"), "").Code).To(Equal(http.StatusOK))

		var count int64
		db.Model(&accountDatamodel.UserAccount{}).Where("user_id = ?", created.UserID).Count(&count)
		Expect(count).To(BeZero())
	})

	It("returns 409 when an update reuses another account's email", func() {
		w := call(http.MethodPost, "/api/vendor/employees", as("vendor_a"), newEmployee)
		Expect(w.Code).To(Equal(http.StatusCreated))
		var created employee.CreateResponse
		Expect(json.NewDecoder(w.Body).Decode(&created)).To(Succeed())

		w = call(http.MethodPut, "/api/vendor/employees/"+itoa(created.EmployeeID), as("vendor_a"), `{"email":"mgr_a@example.com"}`)
		Expect(w.Code).To(Equal(http.StatusConflict))
	})

	It("serves the caller's permission flags", func() {
		w := call(http.MethodGet, "/api/vendor/employees/me/permissions", as("mgr_a"), "")
		Expect(w.Code).To(Equal(http.StatusOK))
		var view permission.View
		Expect(json.NewDecoder(w.Body).Decode(&view)).To(Succeed())
		Expect(view.UserType).To(Equal(permission.Manager))
		Expect(view.CanDeleteEmployees).To(BeFalse())
		Expect(view.CanDeactivateEmployees).To(BeTrue())
	})
})
