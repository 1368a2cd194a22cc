package collabkit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServiceSealsRegistry(t *testing.T) {
	registry := NewRegistry()
	DefineDefaultFamilies(registry, 5)
	require.False(t, registry.Sealed())

	s, err := NewService(registry, nil)
	require.NoError(t, err)
	assert.True(t, registry.Sealed())
	assert.Same(t, registry, s.Registry())

	assert.Equal(t, FamilyDocument, s.Documents.Family())
	assert.Equal(t, FamilyWhiteboard, s.Whiteboards.Family())
	assert.Equal(t, FamilyProject, s.Projects.Family())
	assert.Equal(t, FamilyWorkspace, s.Workspaces.Family())
	assert.Equal(t, ProjectEmployee, s.Projects.Resolver().DefaultRole())
}

func TestNewServiceRequiresAllFamilies(t *testing.T) {
	registry := NewRegistry()
	registry.DefineFamily(FamilyDocument).
		DefaultRole("viewer").
		Role(RoleOwner).Grants(CanView).
		Role("viewer").Grants(CanView)

	_, err := NewService(registry, nil)
	assert.ErrorIs(t, err, ErrInvalidFamily)
}

func TestNewServiceRejectsInvalidRegistry(t *testing.T) {
	registry := NewRegistry()
	registry.DefineFamily(FamilyDocument).DefaultRole("viewer").Role(RoleOwner).Grants(CanView)

	_, err := NewService(registry, nil)
	assert.ErrorIs(t, err, ErrInvalidRole)
}

// The checks below fail before any database access.

func TestServiceAuthorizeUnknownFamily(t *testing.T) {
	s := newOfflineService(t)
	_, err := s.Authorize(context.Background(), "spreadsheet", "x", "u1", CanView)
	assert.ErrorIs(t, err, ErrInvalidFamily)
}

func TestCollectionRejectsBadInputOffline(t *testing.T) {
	s := newOfflineService(t)
	ctx := context.Background()

	_, err := s.Documents.Create(ctx, "", &Document{Title: "x"})
	assert.ErrorIs(t, err, ErrNoUserID)

	_, _, err = s.Documents.List(ctx, "", ListOptions{})
	assert.ErrorIs(t, err, ErrNoUserID)

	_, err = s.Documents.Load(ctx, "not-a-uuid")
	assert.True(t, IsNotFound(err))

	_, err = s.Projects.SetVisibility(ctx, "00000000-0000-0000-0000-000000000001", "u1", VisibilityShared)
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = s.Documents.SetVisibility(ctx, "00000000-0000-0000-0000-000000000001", "u1", "public")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.Documents.AddMember(ctx, "00000000-0000-0000-0000-000000000001", "u1", "u2", "admin")
	assert.ErrorIs(t, err, ErrInvalidRole)

	_, err = s.Workspaces.AddMember(ctx, "00000000-0000-0000-0000-000000000001", "u1", "", WorkspaceAdmin)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.Projects.UpdateWith(ctx, "00000000-0000-0000-0000-000000000001", "u1", nil, func(*Project) error { return nil })
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestServiceWithoutDBKitInstance(t *testing.T) {
	s := newOfflineService(t)

	assert.ErrorIs(t, s.ConfigureConnectionPool(PoolConfig{}), ErrUnsupported)
	assert.Zero(t, s.GetPoolStats())
}

func TestPoolConfigDefaults(t *testing.T) {
	c := PoolConfig{MaxOpenConnections: 4, MaxIdleConnections: 8}.withDefaults()
	assert.Equal(t, 4, c.MaxOpenConnections)
	assert.Equal(t, 4, c.MaxIdleConnections)
	assert.Equal(t, DefaultPoolConfig().ConnectionMaxLifetime, c.ConnectionMaxLifetime)
	assert.Equal(t, DefaultPoolConfig().ConnectionMaxIdleTime, c.ConnectionMaxIdleTime)

	assert.Equal(t, DefaultPoolConfig(), PoolConfig{}.withDefaults())
}

func TestMigrationsAreOrderedAndUnique(t *testing.T) {
	migrations := Migrations()
	require.NotEmpty(t, migrations)

	seen := make(map[string]bool)
	for i, m := range migrations {
		assert.False(t, seen[m.ID], "duplicate migration %s", m.ID)
		seen[m.ID] = true
		if i > 0 {
			assert.Less(t, migrations[i-1].ID, m.ID)
		}
	}
}

func TestCheckLeaveAllowsAnyListedMember(t *testing.T) {
	s := newOfflineService(t)
	project := &Project{
		Record: Record{ID: "prj-1", Owner: "u1"},
		Team:   []Member[ProjectRole]{{UserID: "u4", Role: "contractor"}},
	}

	// The legacy role grants nothing, not even canView.
	_, err := s.Projects.check(project, "u4", CanView)
	require.True(t, IsForbidden(err))

	checker, err := s.Projects.checkLeave("u4")(project)
	require.NoError(t, err)
	assert.True(t, checker.IsMember())
	assert.Equal(t, "contractor", checker.Role())

	_, err = s.Projects.checkLeave("u9")(project)
	assert.True(t, IsForbidden(err), "strangers fall back to the view check")

	doc := newTestDocument("u1")
	_, err = s.Documents.checkLeave("u9")(doc)
	assert.True(t, IsForbidden(err))

	doc.Visibility = VisibilityShared
	checker, err = s.Documents.checkLeave("u9")(doc)
	require.NoError(t, err)
	assert.False(t, checker.IsMember())
}
