package collabkit

// DefineDefaultFamilies registers the four collaborative families with their
// standard permission matrices. maxMembers <= 0 keeps DefaultMaxMembers.
func DefineDefaultFamilies(registry *Registry, maxMembers int) {
	for _, family := range []Family{FamilyDocument, FamilyWhiteboard} {
		registry.DefineFamily(family).
			MembershipField("collaborators").
			DefaultRole(string(DocumentViewer)).
			ManagedBy(CanManageCollaborators).
			MaxMembers(maxMembers).
			WithVisibility().
			Role(string(DocumentOwner)).
			Grants(CanView, CanEdit, CanDelete, CanShare, CanManageCollaborators, CanChangeSettings).
			CanAssign(string(DocumentEditor), string(DocumentViewer)).
			Role(string(DocumentEditor)).
			Grants(CanView, CanEdit).
			Role(string(DocumentViewer)).
			Grants(CanView)
	}

	registry.DefineFamily(FamilyProject).
		MembershipField("team").
		DefaultRole(string(ProjectEmployee)).
		ManagedBy(CanManageMembers).
		MaxMembers(maxMembers).
		Role(string(ProjectOwner)).
		Grants(CanView, CanEdit, CanDelete, CanShare, CanManageMembers, CanChangeSettings).
		CanAssign(string(ProjectHR), string(ProjectManager), string(ProjectTeamRep), string(ProjectEmployee)).
		Role(string(ProjectHR)).
		Grants(CanView, CanManageMembers).
		CanAssign(string(ProjectTeamRep), string(ProjectEmployee)).
		Role(string(ProjectManager)).
		Grants(CanView, CanEdit, CanManageMembers, CanChangeSettings).
		CanAssign(string(ProjectTeamRep), string(ProjectEmployee)).
		Role(string(ProjectTeamRep)).
		Grants(CanView, CanEdit).
		Role(string(ProjectEmployee)).
		Grants(CanView)

	registry.DefineFamily(FamilyWorkspace).
		MembershipField("members").
		DefaultRole(string(WorkspaceMember)).
		ManagedBy(CanManageMembers).
		MaxMembers(maxMembers).
		Role(string(WorkspaceOwner)).
		Grants(CanView, CanEdit, CanDelete, CanShare, CanManageMembers, CanChangeSettings, CanCreateProjects).
		CanAssign(string(WorkspaceAdmin), string(WorkspaceMember)).
		Role(string(WorkspaceAdmin)).
		Grants(CanView, CanEdit, CanManageMembers, CanCreateProjects).
		CanAssign(string(WorkspaceMember)).
		Role(string(WorkspaceMember)).
		Grants(CanView, CanCreateProjects)
}

// DefaultRegistry returns a sealed registry holding the standard families.
func DefaultRegistry(maxMembers int) *Registry {
	registry := NewRegistry()
	DefineDefaultFamilies(registry, maxMembers)
	if err := registry.Seal(); err != nil {
		// The default tables are static; a failure here is a programming error.
		panic(err)
	}
	return registry
}
