package permission_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/frahmantamala/vendor-portal/internal"
	accountDatamodel "github.com/frahmantamala/vendor-portal/internal/core/datamodel/account"
	"github.com/frahmantamala/vendor-portal/internal/core/datamodel/dbtest"
	employeeDatamodel "github.com/frahmantamala/vendor-portal/internal/core/datamodel/employee"
	vendorDatamodel "github.com/frahmantamala/vendor-portal/internal/core/datamodel/vendor"
	"github.com/frahmantamala/vendor-portal/internal/permission"
	permissionPostgres "github.com/frahmantamala/vendor-portal/internal/permission/postgres"
	"github.com/frahmantamala/vendor-portal/internal/transport"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

var _ = Describe("Permission Handler Integration", func() {
	var (
		db      *gorm.DB
		handler *permission.Handler
	)

	BeforeEach(func() {
		var err error
		slogger := slog.New(slog.NewTextHandler(io.Discard, nil))

		db, err = dbtest.Open()
		Expect(err).NotTo(HaveOccurred())

		Expect(db.Create(&accountDatamodel.UserAccount{UserID: 1, Username: "owner", Email: "owner@lab.com",
			PasswordHash: "x", Role: "vendor", Status: "active"}).Error).To(Succeed())
		Expect(db.Create(&vendorDatamodel.Vendor{VendorID: "VND000001", UserID: 1, CompanyName: "Lab"}).Error).To(Succeed())
		Expect(db.Create(&accountDatamodel.UserAccount{UserID: 2, Username: "eddie", Email: "eddie@lab.com",
			PasswordHash: "x", Role: "employee", Status: "active"}).Error).To(Succeed())
		Expect(db.Create(&employeeDatamodel.VendorEmployee{UserID: 2, VendorID: "VND000001",
			EmployeeRole: "editor", Status: "active"}).Error).To(Succeed())

		resolver := permission.NewResolver(permissionPostgres.NewPermissionRepository(db), slogger)
		handler = permission.NewHandler(&transport.BaseHandler{Logger: slogger}, resolver)
	})

	serve := func(mw func(http.Handler) http.Handler, id *internal.Identity) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/vendor/employees/me/permissions", nil)
		if id != nil {
			req = req.WithContext(internal.ContextWithIdentity(req.Context(), *id))
		}
		w := httptest.NewRecorder()
		mw(http.HandlerFunc(handler.MyPermissions)).ServeHTTP(w, req)
		return w
	}

	It("serves the resolved permissions of an editor", func() {
		w := serve(handler.RequireVendorMember, &internal.Identity{UserID: 2, Username: "eddie", Role: "employee"})
		Expect(w.Code).To(Equal(http.StatusOK))

		var view permission.View
		Expect(json.NewDecoder(w.Body).Decode(&view)).To(Succeed())
		Expect(view.UserType).To(Equal(permission.Editor))
		Expect(view.VendorID).To(Equal("VND000001"))
		Expect(view.CanCreatePatients).To(BeTrue())
		Expect(view.CanCreateEmployees).To(BeFalse())
	})

	It("keeps employees out of vendor admin routes", func() {
		w := serve(handler.RequireVendorAdmin, &internal.Identity{UserID: 2, Username: "eddie", Role: "employee"})
		Expect(w.Code).To(Equal(http.StatusForbidden))

		w = serve(handler.RequireVendorAdmin, &internal.Identity{UserID: 1, Username: "owner", Role: "vendor"})
		Expect(w.Code).To(Equal(http.StatusOK))
	})

	It("rejects a deactivated employee on the next request", func() {
		Expect(db.Model(&employeeDatamodel.VendorEmployee{}).Where("user_id = ?", 2).
			Update("status", "inactive").Error).To(Succeed())

		w := serve(handler.RequireVendorMember, &internal.Identity{UserID: 2, Username: "eddie", Role: "employee"})
		Expect(w.Code).To(Equal(http.StatusForbidden))
	})

	It("returns 401 without an identity", func() {
		w := serve(handler.RequireVendorMember, nil)
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})
})
