package auth_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"time"

	"github.com/frahmantamala/vendor-portal/internal"
	"github.com/frahmantamala/vendor-portal/internal/account"
	"github.com/frahmantamala/vendor-portal/internal/auth"
	authPostgres "github.com/frahmantamala/vendor-portal/internal/auth/postgres"
	"github.com/frahmantamala/vendor-portal/internal/core/datamodel/dbtest"
	vendorDatamodel "github.com/frahmantamala/vendor-portal/internal/core/datamodel/vendor"
	"github.com/frahmantamala/vendor-portal/internal/core/events"
	"github.com/frahmantamala/vendor-portal/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var _ = Describe("Auth Handler Integration", func() {
	var (
		db     *gorm.DB
		router *chi.Mux
	)

	BeforeEach(func() {
		var err error
		slogger := slog.New(slog.NewTextHandler(io.Discard, nil))

		db, err = dbtest.Open()
		Expect(err).NotTo(HaveOccurred())

		repo := authPostgres.NewAuthRepository(db)
		tokens := auth.NewJWTTokenGenerator("handler-test-secret-at-least-32-characters", 30*time.Minute)
		service := auth.NewService(repo, tokens, events.NewEventBus(slogger), bcrypt.MinCost, slogger)
		handler := auth.NewHandler(&transport.BaseHandler{Logger: slogger}, service)

		router = chi.NewRouter()
		router.Post("/token", handler.Token)
		router.Post("/register", handler.Register)
		router.Post("/verify-identity", handler.VerifyIdentity)
		router.Post("/reset-password", handler.ResetPassword)
		router.Group(func(r chi.Router) {
			r.Use(handler.AuthMiddleware)
			r.Get("/users/me", handler.Me)
			r.Get("/validate-token", handler.ValidateToken)
		})
	})

	postJSON := func(path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	login := func(username, password string) *httptest.ResponseRecorder {
		form := url.Values{"username": {username}, "password": {password}, "grant_type": {"password"}}
		req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	register := func(username, email, role string) *httptest.ResponseRecorder {
		return postJSON("/register", `{"username":"`+username+`","first_name":"Ada","last_name":"Lab","email":"`+email+`","password":"secret1","role":"`+role+`"}`)
	}

	It("registers a vendor together with its vendor row", func() {
		w := register("ada_lab", "ada@lab.com", "vendor")
		Expect(w.Code).To(Equal(http.StatusCreated))

		var resp auth.RegisterResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Role).To(Equal("vendor"))
		Expect(resp.VendorID).To(Equal(authPostgres.VendorIDFor(resp.UserID)))

		var v vendorDatamodel.Vendor
		Expect(db.Where("user_id = ?", resp.UserID).First(&v).Error).To(Succeed())
		Expect(v.CompanyName).To(Equal("Ada Lab"))
	})

	It("returns 409 when the email is already registered", func() {
		Expect(register("first_user", "same@lab.com", "patient").Code).To(Equal(http.StatusCreated))

		w := register("second_user", "same@lab.com", "patient")
		Expect(w.Code).To(Equal(http.StatusConflict))

		var body struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
		Expect(body.Error.Code).To(Equal(string(internal.ErrCodeEmailTaken)))
	})

	It("issues a token that unlocks /users/me", func() {
		Expect(register("ada_lab", "ada@lab.com", "vendor").Code).To(Equal(http.StatusCreated))

		w := login("ada_lab", "secret1")
		Expect(w.Code).To(Equal(http.StatusOK))
		var tokens auth.TokenResponse
		Expect(json.NewDecoder(w.Body).Decode(&tokens)).To(Succeed())
		Expect(tokens.TokenType).To(Equal("bearer"))

		req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
		req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		var profile account.Profile
		Expect(json.NewDecoder(w.Body).Decode(&profile)).To(Succeed())
		Expect(profile.Username).To(Equal("ada_lab"))
		Expect(profile.Email).To(Equal("ada@lab.com"))
	})

	It("answers bad credentials with 401 and a bearer challenge", func() {
		Expect(register("ada_lab", "ada@lab.com", "vendor").Code).To(Equal(http.StatusCreated))

		w := login("ada_lab", "wrong")
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
		Expect(w.Header().Get("WWW-Authenticate")).To(Equal("Bearer"))
		Expect(w.Body.String()).To(ContainSubstring("Incorrect username or password"))
	})

	It("rejects protected routes without a token", func() {
		req := httptest.NewRequest(http.MethodGet, "/validate-token", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusUnauthorized))
		Expect(w.Body.String()).To(ContainSubstring("Could not validate credentials"))
	})

	It("resets the password after the identity is verified", func() {
		Expect(register("ada_lab", "ada@lab.com", "vendor").Code).To(Equal(http.StatusCreated))

		w := postJSON("/verify-identity", `{"username":"ada_lab","email":"ada@lab.com"}`)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring(`"verified":true`))

		w = postJSON("/reset-password", `{"username":"ada_lab","email":"ada@lab.com","new_password":"rotated1"}`)
		Expect(w.Code).To(Equal(http.StatusOK))

		Expect(login("ada_lab", "secret1").Code).To(Equal(http.StatusUnauthorized))
		Expect(login("ada_lab", "rotated1").Code).To(Equal(http.StatusOK))
	})

	It("returns 404 when username and email do not match", func() {
		Expect(register("ada_lab", "ada@lab.com", "vendor").Code).To(Equal(http.StatusCreated))

		w := postJSON("/verify-identity", `{"username":"ada_lab","email":"other@lab.com"}`)
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})
})
