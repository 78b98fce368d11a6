package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/vendor-portal/internal"
	"github.com/frahmantamala/vendor-portal/internal/account"
	"github.com/frahmantamala/vendor-portal/internal/auth"
	"github.com/frahmantamala/vendor-portal/internal/employee"
	"github.com/frahmantamala/vendor-portal/internal/patient"
	"github.com/frahmantamala/vendor-portal/internal/permission"
	"github.com/frahmantamala/vendor-portal/internal/transport"
	"github.com/frahmantamala/vendor-portal/internal/transport/middleware"
	"github.com/frahmantamala/vendor-portal/internal/transport/swagger"
	"github.com/frahmantamala/vendor-portal/internal/trial"
	"github.com/go-chi/chi"
)

type Handlers struct {
	Auth       *auth.Handler
	Permission *permission.Handler
	Employee   *employee.Handler
	Patient    *patient.Handler
	Trial      *trial.Handler
	AdminTrial *trial.Handler
	// Roles backs the /admin guard with the account's stored role.
	Roles middleware.RoleLookup
}

type Options struct {
	AllowedOrigins []string
	// AdminAccess is internal.AdminAccessAdmin or internal.AdminAccessVendor.
	AdminAccess string
	// OpenAPI is the raw document served at /openapi.yml; nil disables the docs routes.
	OpenAPI []byte
}

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, h Handlers, opts Options, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)
	base := transport.NewBaseHandler(logger)

	// Apply global middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.CORS(opts.AllowedOrigins))
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	router.Get("/", healthHandler.rootHandler)
	router.Get("/health", healthHandler.healthCheckHandler)
	router.Get("/db-status", healthHandler.dbStatusHandler)
	router.Get("/ping", healthHandler.pingHandler)

	if opts.OpenAPI != nil {
		router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/yaml")
			_, _ = w.Write(opts.OpenAPI)
		})
		router.Handle("/swagger/*", swagger.Handler())
	}

	// Identity provider
	router.Post("/token", h.Auth.Token)
	router.Post("/register", h.Auth.Register)
	router.Post("/verify-identity", h.Auth.VerifyIdentity)
	router.Post("/reset-password", h.Auth.ResetPassword)

	router.Group(func(pr chi.Router) {
		pr.Use(h.Auth.AuthMiddleware)

		pr.Get("/users/me", h.Auth.Me)
		pr.Get("/validate-token", h.Auth.ValidateToken)

		pr.Route("/api/vendor/employees", func(er chi.Router) {
			er.Use(h.Permission.RequireVendorMember)
			er.Post("/", h.Employee.CreateEmployee)
			er.Get("/", h.Employee.ListEmployees)
			er.Get("/me/permissions", h.Permission.MyPermissions)
			er.Get("/{employee_id}", h.Employee.GetEmployee)
			er.Put("/{employee_id}", h.Employee.UpdateEmployee)
			er.Put("/{employee_id}/status", h.Employee.UpdateEmployeeStatus)
			er.Delete("/{employee_id}", h.Employee.DeleteEmployee)
		})

		pr.Route("/api/vendor/patients", func(ptr chi.Router) {
			ptr.Use(h.Permission.RequireVendorMember)
			ptr.Post("/", h.Patient.CreatePatient)
			ptr.Get("/", h.Patient.ListPatients)
			ptr.Get("/export", h.Patient.ExportPatients)
			ptr.Get("/{patient_id}", h.Patient.GetPatient)
			ptr.Put("/{patient_id}", h.Patient.UpdatePatient)
			ptr.Delete("/{patient_id}", h.Patient.DeletePatient)
		})

		pr.Route("/api/vendor/clinical", func(cr chi.Router) {
			cr.Use(h.Permission.RequireVendorAdmin)
			h.Trial.Routes(cr)
		})

		pr.Route("/admin", func(ar chi.Router) {
			ar.Use(adminGuard(base, h.Roles, opts.AdminAccess))
			h.AdminTrial.Routes(ar)
		})
	})
}

func adminGuard(base *transport.BaseHandler, roles middleware.RoleLookup, access string) func(http.Handler) http.Handler {
	if access == internal.AdminAccessVendor {
		return middleware.RequireRole(base, roles, internal.ErrVendorOnly, account.RoleVendor)
	}
	return middleware.RequireRole(base, roles, internal.ErrAdminOnly, account.RoleAdmin)
}
