package collabkit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Authorizer loads an entity of a family and checks a capability for a user.
// *Service implements it.
type Authorizer interface {
	Authorize(ctx context.Context, family Family, entityID, userID string, capability Capability) (*Checker, error)
}

// Middleware provides HTTP middleware for capability checks on collaborative entities.
type Middleware struct {
	authorizer   Authorizer
	getUserID    func(*http.Request) string
	errorHandler func(http.ResponseWriter, *http.Request, error)
}

// MiddlewareOption configures the Middleware.
type MiddlewareOption func(*Middleware)

// NewMiddleware creates a new Middleware instance.
//
// Example:
//
//	mw := collabkit.NewMiddleware(service,
//	    collabkit.WithUserIDExtractor(func(r *http.Request) string {
//	        return auth.UserFromRequest(r)
//	    }),
//	)
func NewMiddleware(authorizer Authorizer, opts ...MiddlewareOption) *Middleware {
	m := &Middleware{
		authorizer:   authorizer,
		getUserID:    defaultGetUserID,
		errorHandler: DefaultErrorHandler,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// WithUserIDExtractor sets a custom function to extract user ID from request.
func WithUserIDExtractor(fn func(*http.Request) string) MiddlewareOption {
	return func(m *Middleware) {
		m.getUserID = fn
	}
}

// WithErrorHandler sets a custom error handler for middleware.
func WithErrorHandler(fn func(http.ResponseWriter, *http.Request, error)) MiddlewareOption {
	return func(m *Middleware) {
		m.errorHandler = fn
	}
}

func defaultGetUserID(r *http.Request) string {
	return GetUserID(r.Context())
}

// StatusCode maps a collabkit error to an HTTP status code.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNoUserID):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrCannotAssign), errors.Is(err, ErrOwnerImmutable):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyMember):
		return http.StatusConflict
	case errors.Is(err, ErrMemberLimit), errors.Is(err, ErrNotMember),
		errors.Is(err, ErrInvalidFamily), errors.Is(err, ErrInvalidRole),
		errors.Is(err, ErrInvalidCapability), errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrUnsupported):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// PublicMessage returns the message that may be shown to the caller for err.
// Internal failures are never described.
func PublicMessage(err error) string {
	status := StatusCode(err)
	if status == http.StatusInternalServerError {
		return http.StatusText(status)
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Reason()
	}
	return err.Error()
}

// DefaultErrorHandler writes {"error": "..."} with the status mapped by StatusCode.
func DefaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(StatusCode(err))
	_ = json.NewEncoder(w).Encode(map[string]string{"error": PublicMessage(err)})
}

// EntityExtractor extracts the ID of the target entity from an HTTP request.
type EntityExtractor func(*http.Request) (string, error)

// EntityFromParam reads the entity ID from a chi URL parameter, falling back to
// the standard library path value.
//
// Example:
//
//	// For route /documents/{id}
//	mw.RequireCapability(collabkit.FamilyDocument, collabkit.CanEdit, collabkit.EntityFromParam("id"))
func EntityFromParam(paramName string) EntityExtractor {
	return func(r *http.Request) (string, error) {
		id := chi.URLParam(r, paramName)
		if id == "" {
			id = r.PathValue(paramName)
		}
		if id == "" {
			return "", NewError(ErrNotFound, "entity ID not found in request")
		}
		return id, nil
	}
}

// EntityFromQuery reads the entity ID from a query parameter.
//
// Example:
//
//	// For route /api/audit?entity_id=...
//	mw.RequireCapability(collabkit.FamilyProject, collabkit.CanView, collabkit.EntityFromQuery("entity_id"))
func EntityFromQuery(queryParam string) EntityExtractor {
	return func(r *http.Request) (string, error) {
		id := r.URL.Query().Get(queryParam)
		if id == "" {
			return "", NewError(ErrNotFound, "entity ID not found in query")
		}
		return id, nil
	}
}

// EntityFromHeader reads the entity ID from a header.
func EntityFromHeader(headerName string) EntityExtractor {
	return func(r *http.Request) (string, error) {
		id := r.Header.Get(headerName)
		if id == "" {
			return "", NewError(ErrNotFound, "entity ID not found in header")
		}
		return id, nil
	}
}

// RequireCapability creates middleware that requires a capability on the entity
// selected by extractor. On success the user's Checker is stored in context.
//
// Example:
//
//	router.With(mw.RequireCapability(collabkit.FamilyWhiteboard, collabkit.CanEdit, collabkit.EntityFromParam("id"))).
//	    Put("/whiteboards/{id}/canvas", saveCanvasHandler)
func (m *Middleware) RequireCapability(family Family, capability Capability, extractor EntityExtractor) func(http.Handler) http.Handler {
	return m.RequireAnyCapability(family, []Capability{capability}, extractor)
}

// RequireAnyCapability creates middleware that requires any of the capabilities.
func (m *Middleware) RequireAnyCapability(family Family, capabilities []Capability, extractor EntityExtractor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			userID := m.getUserID(r)
			if userID == "" {
				m.errorHandler(w, r, ErrNoUserID)
				return
			}

			entityID, err := extractor(r)
			if err != nil {
				m.errorHandler(w, r, err)
				return
			}

			var lastErr error
			for _, capability := range capabilities {
				checker, err := m.authorizer.Authorize(ctx, family, entityID, userID, capability)
				if err == nil {
					next.ServeHTTP(w, r.WithContext(WithChecker(ctx, checker)))
					return
				}
				lastErr = err
				if !IsForbidden(err) {
					break
				}
			}
			if lastErr == nil {
				lastErr = NewError(ErrForbidden, "no capability requested").WithEntity(family, entityID).WithUser(userID)
			}
			m.errorHandler(w, r, lastErr)
		})
	}
}

// InjectAuditContext creates middleware that extracts audit information from the request
// and adds it to the context for use by membership operations.
//
// Example:
//
//	router.Use(mw.InjectAuditContext())
func (m *Middleware) InjectAuditContext() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			ip := r.Header.Get("X-Forwarded-For")
			if ip == "" {
				ip = r.Header.Get("X-Real-IP")
			}
			if ip == "" {
				ip = r.RemoteAddr
			}
			ctx = WithIPAddress(ctx, ip)
			ctx = WithUserAgent(ctx, r.UserAgent())

			// Usually set by an upstream request ID middleware
			if requestID := r.Header.Get("X-Request-ID"); requestID != "" {
				ctx = WithRequestID(ctx, requestID)
			}

			if userID := m.getUserID(r); userID != "" {
				ctx = WithActorID(ctx, userID)
				ctx = WithUserID(ctx, userID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
