package collabkit

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry() *Registry {
	return DefaultRegistry(0)
}

func newTestDocument(owner string, members ...Member[DocumentRole]) *Document {
	return &Document{
		Record:        Record{ID: "doc-1", Owner: owner},
		Title:         "Roadmap",
		Collaborators: members,
	}
}

func TestNewResolverUnknownFamily(t *testing.T) {
	_, err := NewResolver[DocumentRole](testRegistry(), "spreadsheet")
	assert.ErrorIs(t, err, ErrInvalidFamily)

	assert.Panics(t, func() {
		MustResolver[DocumentRole](testRegistry(), "spreadsheet")
	})
}

// The owner resolves to owner and may delete.
func TestResolverOwnerCanDelete(t *testing.T) {
	r := MustResolver[DocumentRole](testRegistry(), FamilyDocument)
	doc := newTestDocument("u1")

	role := r.ResolveRole(doc, UserID("u1"))
	assert.Equal(t, DocumentOwner, role)
	assert.True(t, r.HasCapability(role, CanDelete))

	_, member := r.Lookup(doc, UserID("u1"))
	assert.True(t, member)
}

// A viewer may view but not edit.
func TestResolverViewerCannotEdit(t *testing.T) {
	r := MustResolver[DocumentRole](testRegistry(), FamilyDocument)
	doc := newTestDocument("u1", Member[DocumentRole]{UserID: "u2", Role: DocumentViewer})

	role, err := r.Authorize(doc, UserID("u2"), CanEdit)
	require.Error(t, err)
	assert.True(t, IsForbidden(err))
	assert.Equal(t, DocumentViewer, role)

	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, FamilyDocument, e.Family)
	assert.Equal(t, "doc-1", e.EntityID)
	assert.Equal(t, "viewer", e.Role)
	assert.Equal(t, CanEdit, e.Capability)
	assert.Equal(t, "u2", e.UserID)

	role, err = r.Authorize(doc, UserID("u2"), CanView)
	require.NoError(t, err)
	assert.Equal(t, DocumentViewer, role)
}

// Strangers on a workspace get the default member role, which
// cannot change settings.
func TestResolverWorkspaceStrangerGetsDefault(t *testing.T) {
	r := MustResolver[WorkspaceRole](testRegistry(), FamilyWorkspace)
	ws := &Workspace{
		Record:  Record{ID: "ws-1", Owner: "u1"},
		Members: []Member[WorkspaceRole]{{UserID: "u2", Role: WorkspaceAdmin}},
	}

	role := r.ResolveRole(ws, UserID("u3"))
	assert.Equal(t, WorkspaceMember, role)
	assert.False(t, r.HasCapability(role, CanChangeSettings))

	_, member := r.Lookup(ws, UserID("u3"))
	assert.False(t, member)
}

// A legacy role outside the matrix grants nothing and does not fail.
func TestResolverLegacyRoleGrantsNothing(t *testing.T) {
	r := MustResolver[ProjectRole](testRegistry(), FamilyProject)
	p := &Project{
		Record: Record{ID: "prj-1", Owner: "u1"},
		Team:   []Member[ProjectRole]{{UserID: "u4", Role: "contractor"}},
	}

	role := r.ResolveRole(p, UserID("u4"))
	assert.Equal(t, ProjectRole("contractor"), role)
	for _, c := range AllCapabilities() {
		assert.False(t, r.HasCapability(role, c), c)
	}
	assert.Empty(t, r.Capabilities(role))

	_, err := r.Authorize(p, UserID("u4"), CanView)
	assert.True(t, IsForbidden(err))
}

func TestResolverOwnerWinsOverMembership(t *testing.T) {
	r := MustResolver[DocumentRole](testRegistry(), FamilyDocument)
	doc := newTestDocument("u1", Member[DocumentRole]{UserID: "u1", Role: DocumentViewer})

	assert.Equal(t, DocumentOwner, r.ResolveRole(doc, UserID("u1")))
}

func TestResolverMembershipRoleVerbatim(t *testing.T) {
	r := MustResolver[DocumentRole](testRegistry(), FamilyDocument)
	doc := newTestDocument("u1",
		Member[DocumentRole]{UserID: "u2", Role: DocumentEditor},
		Member[DocumentRole]{UserID: "u3", Role: "Editor"},
	)

	assert.Equal(t, DocumentEditor, r.ResolveRole(doc, UserID("u2")))
	// Case is significant; this role is unknown and grants nothing.
	assert.Equal(t, DocumentRole("Editor"), r.ResolveRole(doc, UserID("u3")))
	assert.False(t, r.HasCapability("Editor", CanView))
}

func TestResolverMissingInputYieldsDefault(t *testing.T) {
	registry := testRegistry()
	docs := MustResolver[DocumentRole](registry, FamilyDocument)
	projects := MustResolver[ProjectRole](registry, FamilyProject)
	workspaces := MustResolver[WorkspaceRole](registry, FamilyWorkspace)
	doc := newTestDocument("u1")

	assert.Equal(t, DocumentViewer, docs.ResolveRole(nil, UserID("u1")))
	assert.Equal(t, DocumentViewer, docs.ResolveRole(doc, nil))
	assert.Equal(t, DocumentViewer, docs.ResolveRole(doc, UserID("")))
	assert.Equal(t, DocumentViewer, docs.ResolveRole(doc, (*User)(nil)))
	assert.Equal(t, ProjectEmployee, projects.ResolveRole(nil, UserID("u1")))
	assert.Equal(t, WorkspaceMember, workspaces.ResolveRole(nil, &User{ID: "u1"}))

	// An owner-less entity never makes an empty user its owner.
	orphan := newTestDocument("")
	assert.Equal(t, DocumentViewer, docs.ResolveRole(orphan, UserID("")))
}

func TestResolverTypedNilEntityYieldsDefault(t *testing.T) {
	registry := testRegistry()
	docs := MustResolver[DocumentRole](registry, FamilyDocument)
	boards := MustResolver[DocumentRole](registry, FamilyWhiteboard)
	projects := MustResolver[ProjectRole](registry, FamilyProject)
	workspaces := MustResolver[WorkspaceRole](registry, FamilyWorkspace)

	var (
		doc *Document
		wb  *Whiteboard
		prj *Project
		ws  *Workspace
	)

	assert.NotPanics(t, func() {
		assert.Equal(t, DocumentViewer, docs.ResolveRole(doc, UserID("u1")))
		assert.Equal(t, DocumentViewer, boards.ResolveRole(wb, UserID("u1")))
		assert.Equal(t, ProjectEmployee, projects.ResolveRole(prj, UserID("u1")))
		assert.Equal(t, WorkspaceMember, workspaces.ResolveRole(ws, UserID("u1")))
	})

	assert.NotPanics(t, func() {
		_, ok := docs.Lookup(doc, UserID("u1"))
		assert.False(t, ok)

		_, err := docs.Authorize(doc, UserID("u1"), CanDelete)
		assert.True(t, IsForbidden(err))
	})

	assert.Empty(t, doc.EntityID())
	assert.Empty(t, ws.OwnerID())
}

func TestResolverWhiteboardsShareDocumentMatrix(t *testing.T) {
	r := MustResolver[DocumentRole](testRegistry(), FamilyWhiteboard)
	wb := &Whiteboard{
		Record:        Record{ID: "wb-1", Owner: "u1"},
		Collaborators: []Member[DocumentRole]{{UserID: "u2", Role: DocumentEditor}},
	}

	role, err := r.Authorize(wb, UserID("u2"), CanEdit)
	require.NoError(t, err)
	assert.Equal(t, DocumentEditor, role)
	assert.Equal(t, FamilyWhiteboard, r.Family())
	assert.Equal(t, DocumentViewer, r.DefaultRole())
}

func TestHasCapabilityFailsClosed(t *testing.T) {
	r := MustResolver[ProjectRole](testRegistry(), FamilyProject)

	assert.False(t, r.HasCapability("", CanView))
	assert.False(t, r.HasCapability(ProjectOwner, ""))
	assert.False(t, r.HasCapability(ProjectOwner, "canFly"))
	assert.False(t, r.HasCapability("admin", CanView))

	// Pure: repeated calls agree.
	for range 3 {
		assert.True(t, r.HasCapability(ProjectManager, CanChangeSettings))
		assert.False(t, r.HasCapability(ProjectHR, CanEdit))
	}
}

func TestAuthorizeIsIdempotent(t *testing.T) {
	r := MustResolver[DocumentRole](testRegistry(), FamilyDocument)
	doc := newTestDocument("u1", Member[DocumentRole]{UserID: "u2", Role: DocumentEditor})

	for _, c := range AllCapabilities() {
		role1, err1 := r.Authorize(doc, UserID("u2"), c)
		role2, err2 := r.Authorize(doc, UserID("u2"), c)
		assert.Equal(t, role1, role2)
		assert.Equal(t, err1 == nil, err2 == nil, c)
	}
}

func TestResolverCapabilities(t *testing.T) {
	r := MustResolver[DocumentRole](testRegistry(), FamilyDocument)
	assert.Equal(t, []Capability{CanEdit, CanView}, r.Capabilities(DocumentEditor))
}

func TestResolverChecker(t *testing.T) {
	r := MustResolver[DocumentRole](testRegistry(), FamilyDocument)
	doc := newTestDocument("u1", Member[DocumentRole]{UserID: "u2", Role: DocumentEditor})

	c := r.Checker(doc, UserID("u2"))
	assert.Equal(t, "u2", c.UserID())
	assert.Equal(t, "doc-1", c.EntityID())
	assert.Equal(t, FamilyDocument, c.Family())
	assert.Equal(t, "editor", c.Role())
	assert.True(t, c.IsMember())
	assert.False(t, c.IsOwner())

	stranger := r.Checker(doc, UserID("u9"))
	assert.Equal(t, "viewer", stranger.Role())
	assert.False(t, stranger.IsMember())

	empty := r.Checker(nil, UserID("u9"))
	assert.Empty(t, empty.EntityID())
}

func TestResolverConcurrentUse(t *testing.T) {
	r := MustResolver[DocumentRole](testRegistry(), FamilyDocument)
	doc := newTestDocument("u1", Member[DocumentRole]{UserID: "u2", Role: DocumentViewer})

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if _, err := r.Authorize(doc, UserID("u2"), CanView); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()
}
