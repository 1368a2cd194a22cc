package collabkit

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// Record holds the columns every collaborative entity shares: identity,
// ownership, timestamps and soft delete.
type Record struct {
	ID        string    `bun:"id,pk,type:uuid" json:"id"`
	Owner     string    `bun:"owner_id,notnull" json:"owner"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updatedAt"`

	// Soft delete; deleted rows stay in storage and are filtered by every read.
	IsDeleted bool       `bun:"is_deleted,notnull,default:false" json:"-"`
	DeletedAt *time.Time `bun:"deleted_at,nullzero" json:"-"`
	DeletedBy string     `bun:"deleted_by,nullzero" json:"-"`
}

// EntityID returns the record ID. A nil record has no ID.
func (r *Record) EntityID() string {
	if r == nil {
		return ""
	}
	return r.ID
}

// OwnerID returns the owner's user ID. A nil record has no owner.
func (r *Record) OwnerID() string {
	if r == nil {
		return ""
	}
	return r.Owner
}

// Deleted reports whether the record has been soft-deleted.
func (r *Record) Deleted() bool {
	return r != nil && r.IsDeleted
}

func (r *Record) base() *Record { return r }

func (r *Record) assign(id, ownerID string, at time.Time) {
	r.ID = id
	r.Owner = ownerID
	r.CreatedAt = at
	r.UpdatedAt = at
	r.IsDeleted = false
	r.DeletedAt = nil
	r.DeletedBy = ""
}

func (r *Record) touch(at time.Time) {
	r.UpdatedAt = at
}

func (r *Record) markDeleted(by string, at time.Time) {
	r.IsDeleted = true
	r.DeletedAt = &at
	r.DeletedBy = by
	r.UpdatedAt = at
}

// Document is a shareable text document.
type Document struct {
	bun.BaseModel `bun:"table:documents,alias:doc"`
	Record

	Title         string                 `bun:"title,notnull" json:"title"`
	Content       string                 `bun:"content,notnull,default:''" json:"content"`
	Visibility    Visibility             `bun:"visibility,notnull,default:'private'" json:"visibility"`
	Collaborators []Member[DocumentRole] `bun:"collaborators,type:jsonb,notnull" json:"collaborators"`
}

// EntityFamily returns FamilyDocument.
func (d *Document) EntityFamily() Family { return FamilyDocument }

// EntityID returns the document ID, or "" for a nil document.
func (d *Document) EntityID() string {
	if d == nil {
		return ""
	}
	return d.ID
}

// OwnerID returns the owner's user ID, or "" for a nil document.
func (d *Document) OwnerID() string {
	if d == nil {
		return ""
	}
	return d.Owner
}

// MemberList returns the collaborators. A nil document has none.
func (d *Document) MemberList() []Member[DocumentRole] {
	if d == nil {
		return nil
	}
	return d.Collaborators
}

// GetVisibility returns the document visibility.
func (d *Document) GetVisibility() Visibility {
	if d == nil {
		return VisibilityPrivate
	}
	return d.Visibility
}

func (d *Document) setMembers(m []Member[DocumentRole]) { d.Collaborators = m }
func (d *Document) setVisibility(v Visibility)          { d.Visibility = v }

// Whiteboard is a shared drawing canvas.
type Whiteboard struct {
	bun.BaseModel `bun:"table:whiteboards,alias:wb"`
	Record

	Name          string                 `bun:"name,notnull" json:"name"`
	Elements      []CanvasElement        `bun:"elements,type:jsonb,notnull" json:"elements"`
	Visibility    Visibility             `bun:"visibility,notnull,default:'private'" json:"visibility"`
	Collaborators []Member[DocumentRole] `bun:"collaborators,type:jsonb,notnull" json:"collaborators"`
}

// EntityFamily returns FamilyWhiteboard.
func (w *Whiteboard) EntityFamily() Family { return FamilyWhiteboard }

// EntityID returns the whiteboard ID, or "" for a nil whiteboard.
func (w *Whiteboard) EntityID() string {
	if w == nil {
		return ""
	}
	return w.ID
}

// OwnerID returns the owner's user ID, or "" for a nil whiteboard.
func (w *Whiteboard) OwnerID() string {
	if w == nil {
		return ""
	}
	return w.Owner
}

// MemberList returns the collaborators. A nil whiteboard has none.
func (w *Whiteboard) MemberList() []Member[DocumentRole] {
	if w == nil {
		return nil
	}
	return w.Collaborators
}

// GetVisibility returns the whiteboard visibility.
func (w *Whiteboard) GetVisibility() Visibility {
	if w == nil {
		return VisibilityPrivate
	}
	return w.Visibility
}

func (w *Whiteboard) setMembers(m []Member[DocumentRole]) { w.Collaborators = m }
func (w *Whiteboard) setVisibility(v Visibility)          { w.Visibility = v }

var _ bun.BeforeAppendModelHook = (*Whiteboard)(nil)

// BeforeAppendModel stores an empty canvas as [] rather than NULL.
func (w *Whiteboard) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if w.Elements == nil {
		w.Elements = []CanvasElement{}
	}
	return nil
}

// Project is a team effort that usually lives inside a workspace.
type Project struct {
	bun.BaseModel `bun:"table:projects,alias:prj"`
	Record

	WorkspaceID string                `bun:"workspace_id,type:uuid,nullzero" json:"workspaceId,omitempty"`
	Name        string                `bun:"name,notnull" json:"name"`
	Description string                `bun:"description,notnull,default:''" json:"description"`
	Settings    map[string]any        `bun:"settings,type:jsonb" json:"settings,omitempty"`
	Team        []Member[ProjectRole] `bun:"team,type:jsonb,notnull" json:"team"`
}

// EntityFamily returns FamilyProject.
func (p *Project) EntityFamily() Family { return FamilyProject }

// EntityID returns the project ID, or "" for a nil project.
func (p *Project) EntityID() string {
	if p == nil {
		return ""
	}
	return p.ID
}

// OwnerID returns the owner's user ID, or "" for a nil project.
func (p *Project) OwnerID() string {
	if p == nil {
		return ""
	}
	return p.Owner
}

// MemberList returns the team. A nil project has none.
func (p *Project) MemberList() []Member[ProjectRole] {
	if p == nil {
		return nil
	}
	return p.Team
}

func (p *Project) setMembers(m []Member[ProjectRole]) { p.Team = m }

// Workspace groups projects and the people working on them.
type Workspace struct {
	bun.BaseModel `bun:"table:workspaces,alias:ws"`
	Record

	Name        string                  `bun:"name,notnull" json:"name"`
	Description string                  `bun:"description,notnull,default:''" json:"description"`
	Settings    map[string]any          `bun:"settings,type:jsonb" json:"settings,omitempty"`
	Members     []Member[WorkspaceRole] `bun:"members,type:jsonb,notnull" json:"members"`
}

// EntityFamily returns FamilyWorkspace.
func (w *Workspace) EntityFamily() Family { return FamilyWorkspace }

// EntityID returns the workspace ID, or "" for a nil workspace.
func (w *Workspace) EntityID() string {
	if w == nil {
		return ""
	}
	return w.ID
}

// OwnerID returns the owner's user ID, or "" for a nil workspace.
func (w *Workspace) OwnerID() string {
	if w == nil {
		return ""
	}
	return w.Owner
}

// MemberList returns the members. A nil workspace has none.
func (w *Workspace) MemberList() []Member[WorkspaceRole] {
	if w == nil {
		return nil
	}
	return w.Members
}

func (w *Workspace) setMembers(m []Member[WorkspaceRole]) { w.Members = m }

// visible is implemented by the families that carry a visibility flag.
type visible interface {
	GetVisibility() Visibility
	setVisibility(Visibility)
}

// MembershipAuditLog records lifecycle and membership changes for compliance and debugging.
type MembershipAuditLog struct {
	bun.BaseModel `bun:"table:membership_audit_log,alias:mal"`

	ID        string    `bun:"id,pk,type:uuid,default:gen_random_uuid()" json:"id"`
	Timestamp time.Time `bun:"timestamp,notnull,default:current_timestamp" json:"timestamp"`

	// Who performed the action, and with which role
	ActorID   string `bun:"actor_id,notnull" json:"actorId"`
	ActorRole string `bun:"actor_role" json:"actorRole,omitempty"`

	Action   string `bun:"action,notnull" json:"action"`
	Family   string `bun:"family,notnull" json:"family"`
	EntityID string `bun:"entity_id,type:uuid,notnull" json:"entityId"`

	TargetUserID string `bun:"target_user_id" json:"targetUserId,omitempty"`
	Role         string `bun:"role" json:"role,omitempty"`
	PreviousRole string `bun:"previous_role" json:"previousRole,omitempty"`

	// Request metadata for forensics
	IPAddress string `bun:"ip_address" json:"ipAddress,omitempty"`
	UserAgent string `bun:"user_agent" json:"userAgent,omitempty"`
	RequestID string `bun:"request_id" json:"requestId,omitempty"`

	Metadata map[string]any `bun:"metadata,type:jsonb" json:"metadata,omitempty"`
}

// AuditAction represents the type of action in the audit log.
type AuditAction string

const (
	AuditActionCreated           AuditAction = "created"
	AuditActionDeleted           AuditAction = "deleted"
	AuditActionMemberAdded       AuditAction = "member_added"
	AuditActionMemberRemoved     AuditAction = "member_removed"
	AuditActionRoleChanged       AuditAction = "role_changed"
	AuditActionVisibilityChanged AuditAction = "visibility_changed"
)

// AuditEntry is used to create new audit log entries.
type AuditEntry struct {
	ActorID      string
	ActorRole    string
	Action       AuditAction
	Family       Family
	EntityID     string
	TargetUserID string
	Role         string
	PreviousRole string
	IPAddress    string
	UserAgent    string
	RequestID    string
	Metadata     map[string]any
}

// ToModel converts an AuditEntry to a MembershipAuditLog model.
func (e *AuditEntry) ToModel(at time.Time) *MembershipAuditLog {
	return &MembershipAuditLog{
		ActorID:      e.ActorID,
		ActorRole:    e.ActorRole,
		Action:       string(e.Action),
		Family:       string(e.Family),
		EntityID:     e.EntityID,
		TargetUserID: e.TargetUserID,
		Role:         e.Role,
		PreviousRole: e.PreviousRole,
		IPAddress:    e.IPAddress,
		UserAgent:    e.UserAgent,
		RequestID:    e.RequestID,
		Metadata:     e.Metadata,
		Timestamp:    at,
	}
}
