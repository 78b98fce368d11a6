package auth

import (
	"context"
	"net/http"

	"github.com/frahmantamala/vendor-portal/internal"
	"github.com/frahmantamala/vendor-portal/internal/account"
	"github.com/frahmantamala/vendor-portal/internal/transport"
	"github.com/frahmantamala/vendor-portal/pkg/logger"
)

type ServiceAPI interface {
	Authenticate(ctx context.Context, dto LoginDTO) (TokenResponse, error)
	VerifyToken(tokenString string) (internal.Identity, error)
	Register(ctx context.Context, dto RegisterDTO) (*RegisterResponse, error)
	VerifyIdentity(ctx context.Context, dto VerifyIdentityDTO) error
	ResetPassword(ctx context.Context, dto ResetPasswordDTO) error
	CurrentUser(ctx context.Context, id internal.Identity) (account.Profile, error)
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

// Token implements the OAuth2 password grant over a form-encoded body.
func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid form body")
		return
	}
	if gt := r.PostForm.Get("grant_type"); gt != "" && gt != "password" {
		h.WriteError(w, http.StatusBadRequest, "unsupported grant_type")
		return
	}

	dto := LoginDTO{
		Username: r.PostForm.Get("username"),
		Password: r.PostForm.Get("password"),
	}

	tokens, err := h.Service.Authenticate(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, tokens)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var dto RegisterDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	resp, err := h.Service.Register(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, resp)
}

func (h *Handler) VerifyIdentity(w http.ResponseWriter, r *http.Request) {
	var dto VerifyIdentityDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	if err := h.Service.VerifyIdentity(r.Context(), dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, VerifyIdentityResponse{Verified: true, Message: "Identity verified successfully"})
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var dto ResetPasswordDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	if err := h.Service.ResetPassword(r.Context(), dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ResetPasswordResponse{Success: true, Message: "Password reset successfully"})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := h.Identity(w, r)
	if !ok {
		return
	}

	profile, err := h.Service.CurrentUser(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, profile)
}

func (h *Handler) ValidateToken(w http.ResponseWriter, r *http.Request) {
	id, ok := h.Identity(w, r)
	if !ok {
		return
	}

	h.WriteJSON(w, http.StatusOK, ValidateTokenResponse{
		Valid:    true,
		UserID:   id.UserID,
		Username: id.Username,
		Role:     id.Role,
	})
}

// AuthMiddleware verifies the bearer token and stores the identity in the request context.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.ExtractTokenFromHeader(r)
		if token == "" {
			h.HandleServiceError(w, r, internal.ErrInvalidToken)
			return
		}

		id, err := h.Service.VerifyToken(token)
		if err != nil {
			h.HandleServiceError(w, r, err)
			return
		}

		ctx := internal.ContextWithIdentity(r.Context(), id)
		ctx = logger.With(ctx, "user_id", id.UserID, "role", id.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
