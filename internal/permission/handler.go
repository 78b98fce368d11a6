package permission

import (
	"context"
	"net/http"

	"github.com/frahmantamala/vendor-portal/internal"
	"github.com/frahmantamala/vendor-portal/internal/transport"
	"github.com/frahmantamala/vendor-portal/pkg/logger"
)

type ResolverAPI interface {
	Resolve(ctx context.Context, id internal.Identity) (Permissions, error)
	ResolveVendorAdmin(ctx context.Context, id internal.Identity) (Permissions, error)
}

type Handler struct {
	*transport.BaseHandler
	Resolver ResolverAPI
}

func NewHandler(baseHandler *transport.BaseHandler, resolver ResolverAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Resolver:    resolver,
	}
}

// RequireVendorMember resolves the caller's permissions and stores them in the request context.
func (h *Handler) RequireVendorMember(next http.Handler) http.Handler {
	return h.require(next, h.Resolver.Resolve)
}

// RequireVendorAdmin is RequireVendorMember limited to vendor owners.
func (h *Handler) RequireVendorAdmin(next http.Handler) http.Handler {
	return h.require(next, h.Resolver.ResolveVendorAdmin)
}

func (h *Handler) require(next http.Handler, resolve func(context.Context, internal.Identity) (Permissions, error)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := h.Identity(w, r)
		if !ok {
			return
		}

		p, err := resolve(r.Context(), id)
		if err != nil {
			h.HandleServiceError(w, r, err)
			return
		}

		ctx := ContextWithPermissions(r.Context(), p)
		ctx = logger.With(ctx, "vendor_id", p.VendorID, "user_type", p.UserType)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) MyPermissions(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Permissions(w, r)
	if !ok {
		return
	}
	h.WriteJSON(w, http.StatusOK, p.View())
}

// Permissions returns what RequireVendorMember stored, writing a 500 if the middleware is missing.
func (h *Handler) Permissions(w http.ResponseWriter, r *http.Request) (Permissions, bool) {
	p, ok := FromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, r, internal.NewInternalError("permissions not resolved", nil))
	}
	return p, ok
}
