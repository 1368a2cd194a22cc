package httpapi

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fernandezvara/collabkit"
)

// memDocuments is an in-memory document store that applies the real resolver.
type memDocuments struct {
	mu       sync.Mutex
	seq      int
	docs     map[string]*collabkit.Document
	registry *collabkit.Registry
	resolver *collabkit.Resolver[collabkit.DocumentRole]
}

func newMemDocuments(registry *collabkit.Registry) *memDocuments {
	return &memDocuments{
		docs:     make(map[string]*collabkit.Document),
		registry: registry,
		resolver: collabkit.MustResolver[collabkit.DocumentRole](registry, collabkit.FamilyDocument),
	}
}

func (m *memDocuments) Family() collabkit.Family { return collabkit.FamilyDocument }

func (m *memDocuments) Create(_ context.Context, ownerID string, doc *collabkit.Document) (*collabkit.Document, error) {
	if ownerID == "" {
		return nil, collabkit.ErrNoUserID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	doc.ID = fmt.Sprintf("doc-%d", m.seq)
	doc.Owner = ownerID
	doc.Collaborators = []collabkit.Member[collabkit.DocumentRole]{{UserID: ownerID, Role: collabkit.DocumentOwner}}
	m.docs[doc.ID] = doc
	return doc, nil
}

func (m *memDocuments) find(id string) (*collabkit.Document, error) {
	doc, ok := m.docs[id]
	if !ok {
		return nil, collabkit.NewError(collabkit.ErrNotFound, "document not found").WithEntity(collabkit.FamilyDocument, id)
	}
	return doc, nil
}

func (m *memDocuments) check(doc *collabkit.Document, userID string, c collabkit.Capability) (*collabkit.Checker, error) {
	if _, err := m.resolver.Authorize(doc, collabkit.UserID(userID), c); err != nil {
		return nil, err
	}
	checker := m.resolver.Checker(doc, collabkit.UserID(userID))
	if !checker.IsMember() && doc.Visibility != collabkit.VisibilityShared {
		return nil, collabkit.NewError(collabkit.ErrForbidden, "you are not a member of this private document")
	}
	return checker, nil
}

func (m *memDocuments) authorize(id, userID string, c collabkit.Capability) (*collabkit.Document, *collabkit.Checker, error) {
	doc, err := m.find(id)
	if err != nil {
		return nil, nil, err
	}
	checker, err := m.check(doc, userID, c)
	if err != nil {
		return nil, nil, err
	}
	return doc, checker, nil
}

func (m *memDocuments) Get(_ context.Context, id, userID string) (*collabkit.Document, *collabkit.Checker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.authorize(id, userID, collabkit.CanView)
}

func (m *memDocuments) List(_ context.Context, userID string, _ collabkit.ListOptions) ([]collabkit.Document, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []collabkit.Document
	for _, doc := range m.docs {
		if _, ok := collabkit.FindMember(doc.Collaborators, userID); ok {
			out = append(out, *doc)
		}
	}
	return out, len(out), nil
}

func (m *memDocuments) Update(_ context.Context, id, userID string, c collabkit.Capability, mutate func(*collabkit.Document) error) (*collabkit.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, _, err := m.authorize(id, userID, c)
	if err != nil {
		return nil, err
	}
	return doc, mutate(doc)
}

func (m *memDocuments) UpdateWith(ctx context.Context, id, userID string, cs []collabkit.Capability, mutate func(*collabkit.Document) error) (*collabkit.Document, error) {
	m.mu.Lock()
	for _, c := range cs[1:] {
		if _, _, err := m.authorize(id, userID, c); err != nil {
			m.mu.Unlock()
			return nil, err
		}
	}
	m.mu.Unlock()
	return m.Update(ctx, id, userID, cs[0], mutate)
}

func (m *memDocuments) SetVisibility(_ context.Context, id, userID string, v collabkit.Visibility) (*collabkit.Document, error) {
	if !v.Valid() {
		return nil, collabkit.NewError(collabkit.ErrInvalidInput, "unknown visibility")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, _, err := m.authorize(id, userID, collabkit.CanShare)
	if err != nil {
		return nil, err
	}
	doc.Visibility = v
	return doc, nil
}

func (m *memDocuments) Delete(_ context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, _, err := m.authorize(id, userID, collabkit.CanDelete); err != nil {
		return err
	}
	delete(m.docs, id)
	return nil
}

func (m *memDocuments) AddMember(_ context.Context, id, actorID, userID string, role collabkit.DocumentRole) (*collabkit.Document, error) {
	if err := m.registry.ValidateRole(string(role), collabkit.FamilyDocument); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, checker, err := m.authorize(id, actorID, collabkit.CanManageCollaborators)
	if err != nil {
		return nil, err
	}
	if string(role) != collabkit.RoleOwner && !checker.CanAssignRole(string(role)) {
		return nil, collabkit.NewError(collabkit.ErrCannotAssign, "role cannot be assigned")
	}
	members, err := collabkit.AppendMember(doc.Collaborators, doc.Owner, userID, role, actorID, time.Now(), 50)
	if err != nil {
		return nil, err
	}
	doc.Collaborators = members
	return doc, nil
}

func (m *memDocuments) RemoveMember(_ context.Context, id, actorID, userID string) (*collabkit.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	capability := collabkit.CanManageCollaborators
	if actorID == userID {
		capability = collabkit.CanView
	}
	doc, _, err := m.authorize(id, actorID, capability)
	if err != nil {
		return nil, err
	}
	members, _, err := collabkit.WithoutMember(doc.Collaborators, doc.Owner, userID)
	if err != nil {
		return nil, err
	}
	doc.Collaborators = members
	return doc, nil
}

func (m *memDocuments) ChangeMemberRole(_ context.Context, id, actorID, userID string, role collabkit.DocumentRole) (*collabkit.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, _, err := m.authorize(id, actorID, collabkit.CanManageCollaborators)
	if err != nil {
		return nil, err
	}
	members, _, err := collabkit.WithMemberRole(doc.Collaborators, doc.Owner, userID, role)
	if err != nil {
		return nil, err
	}
	doc.Collaborators = members
	return doc, nil
}

// fakeBackend serves the non-CRUD routes.
type fakeBackend struct {
	docs    *memDocuments
	healthy bool

	auditFilter collabkit.AuditLogFilter
	audit       []collabkit.MembershipAuditLog
	auditTotal  int

	canvasSaves   [][]collabkit.CanvasElement
	projectParent string
}

func (b *fakeBackend) Authorize(_ context.Context, family collabkit.Family, id, userID string, c collabkit.Capability) (*collabkit.Checker, error) {
	if family != collabkit.FamilyDocument {
		return nil, collabkit.NewError(collabkit.ErrInvalidFamily, "family not served")
	}
	b.docs.mu.Lock()
	defer b.docs.mu.Unlock()
	_, checker, err := b.docs.authorize(id, userID, c)
	return checker, err
}

func (b *fakeBackend) GetAuditLog(_ context.Context, filter collabkit.AuditLogFilter) ([]collabkit.MembershipAuditLog, error) {
	b.auditFilter = filter
	return b.audit, nil
}

func (b *fakeBackend) CountAuditLog(_ context.Context, _ collabkit.AuditLogFilter) (int, error) {
	return b.auditTotal, nil
}

func (b *fakeBackend) Health(context.Context) collabkit.HealthReport {
	return collabkit.HealthReport{Healthy: b.healthy}
}

func (b *fakeBackend) CreateProject(_ context.Context, workspaceID, ownerID string, p *collabkit.Project) (*collabkit.Project, error) {
	b.projectParent = workspaceID
	p.ID = "prj-1"
	p.Owner = ownerID
	p.WorkspaceID = workspaceID
	return p, nil
}

func (b *fakeBackend) SaveCanvas(_ context.Context, id, userID string, elements []collabkit.CanvasElement) (*collabkit.Whiteboard, error) {
	b.canvasSaves = append(b.canvasSaves, elements)
	wb := &collabkit.Whiteboard{Name: "board"}
	wb.ID = id
	wb.Elements = collabkit.MergeElements(nil, elements, userID, time.Now())
	return wb, nil
}
