package collabkit

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	defaultPageSize = 100
	maxPageSize     = 500
)

// AuditLogFilter provides options for filtering audit log queries.
type AuditLogFilter struct {
	// Filter by actor who performed the action
	ActorID string

	// Filter by target user of the action
	TargetUserID string

	// Filter by entity
	Family   Family
	EntityID string

	// Filter by action type
	Action string

	// Filter by granted or removed role
	Role string

	// Filter by time range
	Since time.Time
	Until time.Time

	// Pagination
	Limit  int
	Offset int
}

// NewAuditLogFilter creates a new AuditLogFilter with default values.
func NewAuditLogFilter() AuditLogFilter {
	return AuditLogFilter{
		Limit: defaultPageSize,
	}
}

// WithActor sets the actor ID filter.
func (f AuditLogFilter) WithActor(actorID string) AuditLogFilter {
	f.ActorID = actorID
	return f
}

// WithTargetUser sets the target user ID filter.
func (f AuditLogFilter) WithTargetUser(userID string) AuditLogFilter {
	f.TargetUserID = userID
	return f
}

// WithEntity restricts the log to one entity.
func (f AuditLogFilter) WithEntity(family Family, entityID string) AuditLogFilter {
	f.Family = family
	f.EntityID = entityID
	return f
}

// WithFamily restricts the log to one family.
func (f AuditLogFilter) WithFamily(family Family) AuditLogFilter {
	f.Family = family
	return f
}

// WithAction sets the action filter.
func (f AuditLogFilter) WithAction(action AuditAction) AuditLogFilter {
	f.Action = string(action)
	return f
}

// WithRole sets the role filter.
func (f AuditLogFilter) WithRole(role string) AuditLogFilter {
	f.Role = role
	return f
}

// WithTimeRange sets the time range filter.
func (f AuditLogFilter) WithTimeRange(since, until time.Time) AuditLogFilter {
	f.Since = since
	f.Until = until
	return f
}

// WithPagination sets both limit and offset.
func (f AuditLogFilter) WithPagination(limit, offset int) AuditLogFilter {
	f.Limit = limit
	f.Offset = offset
	return f
}

func (f AuditLogFilter) apply(q *bun.SelectQuery) *bun.SelectQuery {
	q = f.where(q).Limit(pageSize(f.Limit))
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	return q.Order("timestamp DESC")
}

// where adds the filter conditions only, for counting.
func (f AuditLogFilter) where(q *bun.SelectQuery) *bun.SelectQuery {
	if f.ActorID != "" {
		q = q.Where("actor_id = ?", f.ActorID)
	}
	if f.TargetUserID != "" {
		q = q.Where("target_user_id = ?", f.TargetUserID)
	}
	if f.Family != "" {
		q = q.Where("family = ?", string(f.Family))
	}
	if f.EntityID != "" {
		q = q.Where("entity_id = ?", f.EntityID)
	}
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}
	if !f.Since.IsZero() {
		q = q.Where("timestamp >= ?", f.Since)
	}
	if !f.Until.IsZero() {
		q = q.Where("timestamp <= ?", f.Until)
	}
	return q
}

// ListOptions paginates entity listings.
type ListOptions struct {
	Limit  int
	Offset int
}

func (o ListOptions) limit() int {
	return pageSize(o.Limit)
}

func pageSize(limit int) int {
	switch {
	case limit <= 0:
		return defaultPageSize
	case limit > maxPageSize:
		return maxPageSize
	}
	return limit
}
