package collabkit

import (
	"context"
	"fmt"
	"time"

	"github.com/fernandezvara/dbkit"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Service stores collaborative entities and enforces the access model on every
// operation. It integrates with the database through dbkit.
//
// Error Handling:
// Access decisions surface as *Error values wrapping the sentinels in this
// package. Database failures wrap ErrDatabaseError together with the dbkit
// error, so both classifications work:
//
//	doc, err := service.Documents.Get(ctx, docID, userID)
//	switch {
//	case collabkit.IsForbidden(err):
//	    // 403
//	case collabkit.IsNotFound(err):
//	    // 404
//	case dbkit.IsDuplicate(err):
//	    // constraint violation
//	}
type Service struct {
	db        dbkit.IDB
	registry  *Registry
	txMonitor *transactionMonitor
	logger    zerolog.Logger
	now       func() time.Time
	newID     func() string
	retry     RetryPolicy

	Documents   *Collection[DocumentRole, Document, *Document]
	Whiteboards *Collection[DocumentRole, Whiteboard, *Whiteboard]
	Projects    *Collection[ProjectRole, Project, *Project]
	Workspaces  *Collection[WorkspaceRole, Workspace, *Workspace]
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the logger used for access denials and storage events.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithIDGenerator overrides how new entity IDs are generated.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		s.newID = fn
	}
}

// WithRetryPolicy sets how transient database failures are retried.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(s *Service) {
		s.retry = p
	}
}

// NewService creates a new collabkit service. The registry is sealed if it is
// not already, and must define all four families.
//
// Example:
//
//	registry := collabkit.DefaultRegistry(50)
//	db, _ := dbkit.New(dbkit.Config{URL: "postgres://..."})
//	service, err := collabkit.NewService(registry, db, collabkit.WithLogger(logger))
func NewService(registry *Registry, db dbkit.IDB, opts ...Option) (*Service, error) {
	if !registry.Sealed() {
		if err := registry.Seal(); err != nil {
			return nil, err
		}
	}

	s := &Service{
		db:        db,
		registry:  registry,
		txMonitor: newTransactionMonitor(),
		logger:    zerolog.Nop(),
		now:       func() time.Time { return time.Now().UTC() },
		newID:     func() string { return uuid.NewString() },
		retry:     DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(s)
	}

	var err error
	if s.Documents, err = newCollection[DocumentRole, Document](s, FamilyDocument); err != nil {
		return nil, err
	}
	if s.Whiteboards, err = newCollection[DocumentRole, Whiteboard](s, FamilyWhiteboard); err != nil {
		return nil, err
	}
	if s.Projects, err = newCollection[ProjectRole, Project](s, FamilyProject); err != nil {
		return nil, err
	}
	if s.Workspaces, err = newCollection[WorkspaceRole, Workspace](s, FamilyWorkspace); err != nil {
		return nil, err
	}
	return s, nil
}

// Registry returns the permission registry.
func (s *Service) Registry() *Registry {
	return s.registry
}

// Logger returns the service logger.
func (s *Service) Logger() zerolog.Logger {
	return s.logger
}

// Authorize loads the entity of family with entityID and checks that userID
// holds capability on it. It implements Authorizer for the HTTP middleware.
func (s *Service) Authorize(ctx context.Context, family Family, entityID, userID string, capability Capability) (*Checker, error) {
	switch family {
	case FamilyDocument:
		return s.Documents.Authorize(ctx, entityID, userID, capability)
	case FamilyWhiteboard:
		return s.Whiteboards.Authorize(ctx, entityID, userID, capability)
	case FamilyProject:
		return s.Projects.Authorize(ctx, entityID, userID, capability)
	case FamilyWorkspace:
		return s.Workspaces.Authorize(ctx, entityID, userID, capability)
	}
	return nil, fmt.Errorf("%w: family %q not defined", ErrInvalidFamily, family)
}

// CreateProject creates a project inside a workspace. The creator needs
// canCreateProjects on the workspace and becomes the project owner.
func (s *Service) CreateProject(ctx context.Context, workspaceID, ownerID string, project *Project) (*Project, error) {
	if _, err := s.Workspaces.Authorize(ctx, workspaceID, ownerID, CanCreateProjects); err != nil {
		return nil, err
	}
	if project == nil {
		project = &Project{}
	}
	project.WorkspaceID = workspaceID
	return s.Projects.Create(ctx, ownerID, project)
}

// SaveCanvas merges an auto-save batch into a whiteboard. Requires canEdit.
// Concurrent saves are not reconciled; the last one to commit wins.
func (s *Service) SaveCanvas(ctx context.Context, whiteboardID, userID string, elements []CanvasElement) (*Whiteboard, error) {
	return s.Whiteboards.Update(ctx, whiteboardID, userID, CanEdit, func(w *Whiteboard) error {
		w.Elements = MergeElements(w.Elements, elements, userID, s.now())
		return nil
	})
}

// ============================================================================
// AUDIT LOG
// ============================================================================

// GetAuditLog retrieves audit log entries with optional filters.
func (s *Service) GetAuditLog(ctx context.Context, filter AuditLogFilter) ([]MembershipAuditLog, error) {
	var logs []MembershipAuditLog
	q := filter.apply(s.db.NewSelect().Model(&logs))
	err := dbkit.WithErr1(q.Scan(ctx), "GetAuditLog").Err()
	if err != nil {
		return nil, dbError("GetAuditLog", err)
	}

	return logs, nil
}

// CountAuditLog returns how many entries match filter, ignoring pagination.
func (s *Service) CountAuditLog(ctx context.Context, filter AuditLogFilter) (int, error) {
	total, err := dbkit.Count[MembershipAuditLog](ctx, s.db, filter.where)
	if err != nil {
		return 0, dbError("CountAuditLog", err)
	}
	return total, nil
}

func (s *Service) logAudit(ctx context.Context, db dbkit.IDB, entry *AuditEntry) error {
	audit := GetAuditContext(ctx)
	entry.IPAddress = audit.IPAddress
	entry.UserAgent = audit.UserAgent
	entry.RequestID = audit.RequestID

	_, err := db.NewInsert().Model(entry.ToModel(s.now())).Exec(ctx)
	if err = dbkit.WithErr1(err, "LogAudit").Err(); err != nil {
		return dbError("LogAudit", err)
	}
	return nil
}

func dbError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrDatabaseError, op, err)
}
