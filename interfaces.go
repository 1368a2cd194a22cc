package collabkit

import (
	"context"

	"github.com/fernandezvara/dbkit"
)

// Store is the storage and collaboration surface of one family.
// *Collection implements it; HTTP handlers depend on this interface.
type Store[R Role, T any, PT any] interface {
	Family() Family
	Create(ctx context.Context, ownerID string, rec PT) (PT, error)
	Get(ctx context.Context, id, userID string) (PT, *Checker, error)
	List(ctx context.Context, userID string, opts ListOptions) ([]T, int, error)
	Update(ctx context.Context, id, userID string, capability Capability, mutate func(PT) error) (PT, error)
	UpdateWith(ctx context.Context, id, userID string, capabilities []Capability, mutate func(PT) error) (PT, error)
	SetVisibility(ctx context.Context, id, userID string, visibility Visibility) (PT, error)
	Delete(ctx context.Context, id, userID string) error
	AddMember(ctx context.Context, id, actorID, userID string, role R) (PT, error)
	RemoveMember(ctx context.Context, id, actorID, userID string) (PT, error)
	ChangeMemberRole(ctx context.Context, id, actorID, userID string, role R) (PT, error)
}

// TransactionManager defines the transaction management interface
type TransactionManager interface {
	Transaction(ctx context.Context, fn TxFunc) error
	TransactionWithOptions(ctx context.Context, opts dbkit.TxOptions, fn TxFunc) error
	ReadOnlyTransaction(ctx context.Context, fn TxFunc) error
}

// HealthMonitor defines the health monitoring interface
type HealthMonitor interface {
	Health(ctx context.Context) HealthReport
	IsHealthy(ctx context.Context) bool
	Ping(ctx context.Context) error
	GetPoolStats() dbkit.PoolStats
}

// AuditReader defines the audit log query interface
type AuditReader interface {
	GetAuditLog(ctx context.Context, filter AuditLogFilter) ([]MembershipAuditLog, error)
	CountAuditLog(ctx context.Context, filter AuditLogFilter) (int, error)
}

// TransactionMonitor defines the transaction monitoring interface
type TransactionMonitor interface {
	GetTransactionMetrics() TransactionMetrics
	ResetTransactionMetrics()
	IsTransactionHealthy() bool
}

var (
	_ Authorizer                                   = (*Service)(nil)
	_ TransactionManager                           = (*Service)(nil)
	_ HealthMonitor                                = (*Service)(nil)
	_ AuditReader                                  = (*Service)(nil)
	_ TransactionMonitor                           = (*Service)(nil)
	_ Store[DocumentRole, Document, *Document]     = (*Collection[DocumentRole, Document, *Document])(nil)
	_ Store[DocumentRole, Whiteboard, *Whiteboard] = (*Collection[DocumentRole, Whiteboard, *Whiteboard])(nil)
	_ Store[ProjectRole, Project, *Project]        = (*Collection[ProjectRole, Project, *Project])(nil)
	_ Store[WorkspaceRole, Workspace, *Workspace]  = (*Collection[WorkspaceRole, Workspace, *Workspace])(nil)
)
