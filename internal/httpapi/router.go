// Package httpapi exposes collabkit over a JSON HTTP API.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/fernandezvara/collabkit"
)

const requestTimeout = 30 * time.Second

// Backend is the part of *collabkit.Service the API uses beyond the
// per-family stores.
type Backend interface {
	collabkit.Authorizer
	collabkit.AuditReader
	Health(ctx context.Context) collabkit.HealthReport
	CreateProject(ctx context.Context, workspaceID, ownerID string, project *collabkit.Project) (*collabkit.Project, error)
	SaveCanvas(ctx context.Context, whiteboardID, userID string, elements []collabkit.CanvasElement) (*collabkit.Whiteboard, error)
}

// Deps are the dependencies of the router.
type Deps struct {
	Documents   collabkit.Store[collabkit.DocumentRole, collabkit.Document, *collabkit.Document]
	Whiteboards collabkit.Store[collabkit.DocumentRole, collabkit.Whiteboard, *collabkit.Whiteboard]
	Projects    collabkit.Store[collabkit.ProjectRole, collabkit.Project, *collabkit.Project]
	Workspaces  collabkit.Store[collabkit.WorkspaceRole, collabkit.Workspace, *collabkit.Workspace]
	Backend     Backend

	Auth           *Authenticator
	Logger         zerolog.Logger
	AllowedOrigins []string
}

// FromService fills Deps from a collabkit service.
func FromService(svc *collabkit.Service, auth *Authenticator, allowedOrigins []string) Deps {
	return Deps{
		Documents:      svc.Documents,
		Whiteboards:    svc.Whiteboards,
		Projects:       svc.Projects,
		Workspaces:     svc.Workspaces,
		Backend:        svc,
		Auth:           auth,
		Logger:         svc.Logger(),
		AllowedOrigins: allowedOrigins,
	}
}

// NewRouter builds the HTTP handler.
func NewRouter(d Deps) http.Handler {
	h := &handlers{backend: d.Backend, log: d.Logger}
	mw := collabkit.NewMiddleware(d.Backend, collabkit.WithErrorHandler(h.fail))

	origins := d.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(d.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", h.health)

	r.Route("/api", func(r chi.Router) {
		r.Use(d.Auth.Middleware)
		r.Use(propagateRequestID)
		r.Use(mw.InjectAuditContext())

		r.Route("/documents", func(r chi.Router) {
			(&resource[collabkit.DocumentRole, collabkit.Document, *collabkit.Document]{
				store:  d.Documents,
				log:    d.Logger,
				decode: decodeDocument,
				patch:  decodeDocumentPatch,
				extra:  h.extraRoutes(mw, collabkit.FamilyDocument),
			}).routes(r)
		})

		r.Route("/whiteboards", func(r chi.Router) {
			(&resource[collabkit.DocumentRole, collabkit.Whiteboard, *collabkit.Whiteboard]{
				store:  d.Whiteboards,
				log:    d.Logger,
				decode: decodeWhiteboard,
				patch:  decodeWhiteboardPatch,
				extra: func(r chi.Router) {
					h.extraRoutes(mw, collabkit.FamilyWhiteboard)(r)
					r.Put("/canvas", h.saveCanvas)
				},
			}).routes(r)
		})

		r.Route("/projects", func(r chi.Router) {
			(&resource[collabkit.ProjectRole, collabkit.Project, *collabkit.Project]{
				store:  d.Projects,
				log:    d.Logger,
				decode: decodeProject,
				patch:  decodeProjectPatch,
				create: func(ctx context.Context, ownerID string, p *collabkit.Project) (*collabkit.Project, error) {
					if p.WorkspaceID != "" {
						return d.Backend.CreateProject(ctx, p.WorkspaceID, ownerID, p)
					}
					return d.Projects.Create(ctx, ownerID, p)
				},
				extra: h.extraRoutes(mw, collabkit.FamilyProject),
			}).routes(r)
		})

		r.Route("/workspaces", func(r chi.Router) {
			(&resource[collabkit.WorkspaceRole, collabkit.Workspace, *collabkit.Workspace]{
				store:  d.Workspaces,
				log:    d.Logger,
				decode: decodeWorkspace,
				patch:  decodeWorkspacePatch,
				extra:  h.extraRoutes(mw, collabkit.FamilyWorkspace),
			}).routes(r)
		})

		r.Get("/audit", h.auditLog)
	})

	return r
}

// handlers serve the routes that are not per-family CRUD.
type handlers struct {
	backend Backend
	log     zerolog.Logger
}

func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, h.log, err)
}

// extraRoutes adds GET /{id}/access, guarded by the library middleware.
func (h *handlers) extraRoutes(mw *collabkit.Middleware, family collabkit.Family) func(chi.Router) {
	return func(r chi.Router) {
		r.With(mw.RequireCapability(family, collabkit.CanView, collabkit.EntityFromParam("id"))).
			Get("/access", func(w http.ResponseWriter, r *http.Request) {
				writeData(w, http.StatusOK, collabkit.FromContext(r.Context()).Access())
			})
	}
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	report := h.backend.Health(r.Context())
	if !report.Healthy {
		writeJSON(w, http.StatusServiceUnavailable, APIResponse{
			Data:  report,
			Error: &APIError{Code: errorCode(http.StatusServiceUnavailable), Message: "service unhealthy"},
		})
		return
	}
	writeData(w, http.StatusOK, report)
}

func (h *handlers) saveCanvas(w http.ResponseWriter, r *http.Request) {
	var in canvasInput
	if err := decodeJSON(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	wb, err := h.backend.SaveCanvas(r.Context(), chi.URLParam(r, "id"), collabkit.GetUserID(r.Context()), in.Elements)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, wb)
}

// auditLog serves GET /api/audit?family=&entity_id=. The caller needs
// canView on the entity.
func (h *handlers) auditLog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	family := collabkit.Family(q.Get("family"))
	entityID := q.Get("entity_id")
	if family == "" || entityID == "" {
		h.fail(w, r, badRequest("family and entity_id are required"))
		return
	}
	opts, err := listOptions(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ctx := r.Context()
	if _, err := h.backend.Authorize(ctx, family, entityID, collabkit.GetUserID(ctx), collabkit.CanView); err != nil {
		h.fail(w, r, err)
		return
	}

	filter := collabkit.NewAuditLogFilter().
		WithEntity(family, entityID).
		WithPagination(opts.Limit, opts.Offset)
	if action := q.Get("action"); action != "" {
		filter = filter.WithAction(collabkit.AuditAction(action))
	}
	if actor := q.Get("actor_id"); actor != "" {
		filter = filter.WithActor(actor)
	}

	logs, err := h.backend.GetAuditLog(ctx, filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if logs == nil {
		logs = []collabkit.MembershipAuditLog{}
	}
	total, err := h.backend.CountAuditLog(ctx, filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writePage(w, logs, Meta{Limit: opts.Limit, Offset: opts.Offset, Total: total})
}
