package collabkit

// Family identifies a kind of collaborative entity. Each family has its own
// role set, permission matrix and membership field name.
type Family string

const (
	FamilyDocument   Family = "document"
	FamilyWhiteboard Family = "whiteboard"
	FamilyProject    Family = "project"
	FamilyWorkspace  Family = "workspace"
)

// String returns the family name.
func (f Family) String() string {
	return string(f)
}

// Role is the constraint satisfied by every family's role type.
// Roles are plain strings underneath so that values read from storage which
// are not part of the known set still flow through unchanged.
type Role interface {
	~string
}

// RoleOwner is the role held by the creator of every entity, whatever its family.
const RoleOwner = "owner"

// DocumentRole is a role on a document or a whiteboard.
type DocumentRole string

const (
	DocumentOwner  DocumentRole = RoleOwner
	DocumentEditor DocumentRole = "editor"
	DocumentViewer DocumentRole = "viewer"
)

// ProjectRole is a role on a project team.
type ProjectRole string

const (
	ProjectOwner    ProjectRole = RoleOwner
	ProjectHR       ProjectRole = "hr"
	ProjectManager  ProjectRole = "mr"
	ProjectTeamRep  ProjectRole = "tr"
	ProjectEmployee ProjectRole = "employee"
)

// WorkspaceRole is a role on a workspace.
type WorkspaceRole string

const (
	WorkspaceOwner  WorkspaceRole = RoleOwner
	WorkspaceAdmin  WorkspaceRole = "admin"
	WorkspaceMember WorkspaceRole = "member"
)

// Visibility controls whether non-members can discover and preview an entity.
type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityShared  Visibility = "shared"
)

// Valid reports whether v is a known visibility.
func (v Visibility) Valid() bool {
	return v == VisibilityPrivate || v == VisibilityShared
}
