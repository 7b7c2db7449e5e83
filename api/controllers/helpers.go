package controllers

import (
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/shopfront-backend/api/middleware"
	"github.com/angelmondragon/shopfront-backend/api/validators"
	"github.com/angelmondragon/shopfront-backend/internal/cart"
	"github.com/angelmondragon/shopfront-backend/internal/catalog"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
)

const maxUserAgentLen = 512

func requireUser(r *http.Request) (uuid.UUID, error) {
	id, ok := middleware.UserUUIDFromContext(r.Context())
	if !ok {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return id, nil
}

func optionalUser(r *http.Request) *uuid.UUID {
	id, ok := middleware.UserUUIDFromContext(r.Context())
	if !ok {
		return nil
	}
	return &id
}

func actorRole(r *http.Request) enums.UserRole {
	return enums.UserRole(middleware.RoleFromContext(r.Context()))
}

func viewerFrom(r *http.Request) catalog.Viewer {
	return catalog.Viewer{
		UserID:    optionalUser(r),
		IsStaff:   actorRole(r).IsStaff(),
		IPAddress: clientIP(r),
		UserAgent: userAgent(r),
	}
}

// cartOwner resolves the signed-in user first, then the anonymous session.
func cartOwner(r *http.Request) (cart.Owner, error) {
	if id, ok := middleware.UserUUIDFromContext(r.Context()); ok {
		return cart.UserOwner(id), nil
	}
	if token := middleware.CartSessionFromContext(r.Context()); token != "" {
		return cart.SessionOwner(token), nil
	}
	return cart.Owner{}, pkgerrors.New(pkgerrors.CodeValidation, "cart session required")
}

func requestMeta(r *http.Request) cart.RequestMeta {
	return cart.RequestMeta{IPAddress: clientIP(r), UserAgent: userAgent(r)}
}

func userAgent(r *http.Request) string {
	return validators.SanitizeString(r.UserAgent(), maxUserAgentLen)
}

func clientIP(r *http.Request) string {
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

func serviceUnavailable(name string) error {
	return pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable")
}

// idsBody is the shared shape of every bulk endpoint.
type idsBody struct {
	IDs []uuid.UUID `json:"ids" validate:"required,min=1"`
}
