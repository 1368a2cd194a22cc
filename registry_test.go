package collabkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryNewRegistryBasic(t *testing.T) {
	r := NewRegistry()
	assert.NotNil(t, r)
	assert.Empty(t, r.GetFamilies())
	assert.False(t, r.Sealed())
}

func TestRegistryDefineFamily(t *testing.T) {
	r := NewRegistry()
	r.DefineFamily("note").
		MembershipField("editors").
		DefaultRole("reader").
		ManagedBy(CanShare).
		MaxMembers(3).
		WithVisibility().
		Role(RoleOwner).Grants(CanView, CanEdit, CanShare).CanAssign("reader").
		Role("reader").Grants(CanView)

	def := r.GetFamily("note")
	require.NotNil(t, def)
	assert.Equal(t, Family("note"), def.Name())
	assert.Equal(t, "editors", def.GetMembershipField())
	assert.Equal(t, "reader", def.GetDefaultRole())
	assert.Equal(t, CanShare, def.GetManageCapability())
	assert.Equal(t, 3, def.GetMaxMembers())
	assert.True(t, def.HasVisibility())
	assert.Equal(t, []string{"owner", "reader"}, def.GetRoles())

	owner := def.GetRole(RoleOwner)
	require.NotNil(t, owner)
	assert.Equal(t, Family("note"), owner.FamilyName())
	assert.Equal(t, []string{"reader"}, owner.GetCanAssign())
	assert.Equal(t, 3, owner.Capabilities().Len())
}

func TestRegistryFamilyDefaults(t *testing.T) {
	r := NewRegistry()
	def := r.DefineFamily("plain").MaxMembers(0)
	assert.Equal(t, "members", def.GetMembershipField())
	assert.Equal(t, CanManageMembers, def.GetManageCapability())
	assert.Equal(t, DefaultMaxMembers, def.GetMaxMembers())
	assert.False(t, def.HasVisibility())
}

func TestRegistryValidate(t *testing.T) {
	r := DefaultRegistry(0)

	assert.NoError(t, r.ValidateFamily(FamilyDocument))
	assert.ErrorIs(t, r.ValidateFamily("spreadsheet"), ErrInvalidFamily)

	assert.NoError(t, r.ValidateRole("editor", FamilyDocument))
	assert.ErrorIs(t, r.ValidateRole("editor", FamilyProject), ErrInvalidRole)
	assert.ErrorIs(t, r.ValidateRole("editor", "spreadsheet"), ErrInvalidFamily)
}

func TestRegistryCanRoleAssign(t *testing.T) {
	r := DefaultRegistry(0)

	assert.True(t, r.CanRoleAssign("owner", "editor", FamilyDocument))
	assert.True(t, r.CanRoleAssign("hr", "tr", FamilyProject))
	assert.False(t, r.CanRoleAssign("hr", "mr", FamilyProject))
	assert.False(t, r.CanRoleAssign("editor", "viewer", FamilyDocument))
	assert.False(t, r.CanRoleAssign("ghost", "viewer", FamilyDocument))
	assert.False(t, r.CanRoleAssign("admin", "owner", FamilyWorkspace))
}

func TestRegistrySealRejectsBrokenDefinitions(t *testing.T) {
	tests := []struct {
		name   string
		define func(*Registry)
		want   error
	}{
		{
			name: "no owner role",
			define: func(r *Registry) {
				r.DefineFamily("x").DefaultRole("viewer").Role("viewer").Grants(CanView)
			},
			want: ErrInvalidRole,
		},
		{
			name: "undefined default role",
			define: func(r *Registry) {
				r.DefineFamily("x").DefaultRole("guest").Role(RoleOwner).Grants(CanView)
			},
			want: ErrInvalidRole,
		},
		{
			name: "unknown capability",
			define: func(r *Registry) {
				r.DefineFamily("x").DefaultRole(RoleOwner).Role(RoleOwner).Grants("canFly")
			},
			want: ErrInvalidCapability,
		},
		{
			name: "assigns owner",
			define: func(r *Registry) {
				r.DefineFamily("x").DefaultRole(RoleOwner).Role(RoleOwner).Grants(CanView).CanAssign(RoleOwner)
			},
			want: ErrCannotAssign,
		},
		{
			name: "assigns unknown role",
			define: func(r *Registry) {
				r.DefineFamily("x").DefaultRole(RoleOwner).Role(RoleOwner).Grants(CanView).CanAssign("intern")
			},
			want: ErrInvalidRole,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			tt.define(r)
			assert.ErrorIs(t, r.Seal(), tt.want)
			assert.False(t, r.Sealed())
		})
	}
}

func TestRegistrySealedPanicsOnChange(t *testing.T) {
	r := DefaultRegistry(0)
	require.True(t, r.Sealed())

	assert.PanicsWithValue(t, ErrRegistrySealed, func() {
		r.DefineFamily("late")
	})
	assert.PanicsWithValue(t, ErrRegistrySealed, func() {
		r.GetFamily(FamilyDocument).DefaultRole("editor")
	})
	assert.PanicsWithValue(t, ErrRegistrySealed, func() {
		r.GetRole("viewer", FamilyDocument).Grants(CanDelete)
	})
	assert.False(t, r.HasCapability(FamilyDocument, "viewer", CanDelete))
}

func TestDefaultRegistryFamilies(t *testing.T) {
	r := DefaultRegistry(10)

	assert.Equal(t, []Family{FamilyDocument, FamilyProject, FamilyWhiteboard, FamilyWorkspace}, r.GetFamilies())

	defaults := map[Family]string{
		FamilyDocument:   "viewer",
		FamilyWhiteboard: "viewer",
		FamilyProject:    "employee",
		FamilyWorkspace:  "member",
	}
	fields := map[Family]string{
		FamilyDocument:   "collaborators",
		FamilyWhiteboard: "collaborators",
		FamilyProject:    "team",
		FamilyWorkspace:  "members",
	}
	for family, role := range defaults {
		def := r.GetFamily(family)
		require.NotNil(t, def, family)
		assert.Equal(t, role, def.GetDefaultRole(), family)
		assert.Equal(t, fields[family], def.GetMembershipField(), family)
		assert.Equal(t, 10, def.GetMaxMembers(), family)
	}

	assert.True(t, r.GetFamily(FamilyDocument).HasVisibility())
	assert.True(t, r.GetFamily(FamilyWhiteboard).HasVisibility())
	assert.False(t, r.GetFamily(FamilyProject).HasVisibility())
	assert.False(t, r.GetFamily(FamilyWorkspace).HasVisibility())
}

func TestDefaultPermissionMatrix(t *testing.T) {
	r := DefaultRegistry(0)

	tests := []struct {
		family Family
		role   string
		grants []Capability
	}{
		{FamilyDocument, "owner", []Capability{CanView, CanEdit, CanDelete, CanShare, CanManageCollaborators, CanChangeSettings}},
		{FamilyDocument, "editor", []Capability{CanView, CanEdit}},
		{FamilyDocument, "viewer", []Capability{CanView}},
		{FamilyWhiteboard, "editor", []Capability{CanView, CanEdit}},
		{FamilyProject, "owner", []Capability{CanView, CanEdit, CanDelete, CanShare, CanManageMembers, CanChangeSettings}},
		{FamilyProject, "hr", []Capability{CanView, CanManageMembers}},
		{FamilyProject, "mr", []Capability{CanView, CanEdit, CanManageMembers, CanChangeSettings}},
		{FamilyProject, "tr", []Capability{CanView, CanEdit}},
		{FamilyProject, "employee", []Capability{CanView}},
		{FamilyWorkspace, "owner", []Capability{CanView, CanEdit, CanDelete, CanShare, CanManageMembers, CanChangeSettings, CanCreateProjects}},
		{FamilyWorkspace, "admin", []Capability{CanView, CanEdit, CanManageMembers, CanCreateProjects}},
		{FamilyWorkspace, "member", []Capability{CanView, CanCreateProjects}},
	}

	for _, tt := range tests {
		t.Run(string(tt.family)+"/"+tt.role, func(t *testing.T) {
			granted := NewCapabilitySet(tt.grants...)
			for _, c := range AllCapabilities() {
				assert.Equal(t, granted.Has(c), r.HasCapability(tt.family, tt.role, c), c)
			}
		})
	}
}
