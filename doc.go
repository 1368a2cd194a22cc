// Package collabkit provides role-based access control for collaborative
// entities: documents, whiteboards, projects and workspaces.
//
// Every entity has exactly one owner and a membership list of (user, role)
// entries. Which role strings exist, and which capabilities each grants, is
// decided per family by a sealed Registry.
//
// # Core Concepts
//
// Family: a kind of entity with its own roles, default role and membership
// field ("collaborators" for documents and whiteboards, "team" for projects,
// "members" for workspaces).
//
// Role: a string-typed enum per family (DocumentRole, ProjectRole,
// WorkspaceRole). Roles read from storage are never rejected; a role unknown
// to the registry simply grants nothing.
//
// Capability: an action such as CanView, CanEdit or CanManageMembers.
//
// # Resolution Rules
//
//  1. Missing entity or user: the family default role.
//  2. The owner always resolves to "owner", whatever the list says.
//  3. Otherwise the role of the user's membership entry, verbatim.
//  4. Otherwise the family default role.
//
// Capability checks are table lookups that fail closed: unknown roles and
// unknown capabilities are denied, never errors.
//
// # Basic Usage
//
//	// 1. Build the registry at startup
//	registry := collabkit.DefaultRegistry(50)
//
//	// 2. Resolve and check without storage
//	docs := collabkit.MustResolver[collabkit.DocumentRole](registry, collabkit.FamilyDocument)
//	role, err := docs.Authorize(doc, collabkit.UserID(userID), collabkit.CanEdit)
//	if collabkit.IsForbidden(err) {
//	    // 403 with err.(*collabkit.Error).Reason()
//	}
//
//	// 3. Or let the service load, check and save
//	db, _ := dbkit.New(dbkit.Config{URL: "postgres://..."})
//	service, _ := collabkit.NewService(registry, db)
//	service.RunMigrations(ctx)
//	doc, err := service.Documents.AddMember(ctx, docID, actorID, userID, collabkit.DocumentEditor)
//
// # HTTP Middleware
//
//	mw := collabkit.NewMiddleware(service)
//	r.With(mw.RequireCapability(collabkit.FamilyWhiteboard, collabkit.CanEdit, collabkit.EntityFromParam("id"))).
//	    Put("/whiteboards/{id}/canvas", saveCanvas)
//
// The middleware only needs a user ID in the request context, set with
// WithUserID by whatever authentication runs before it.
//
// # Default Roles And Private Entities
//
// Strangers resolve to the family default role, which usually grants CanView.
// The Service therefore refuses default roles on private entities: only
// documents and whiteboards switched to VisibilityShared can be previewed by
// non-members. Projects and workspaces are always private.
//
// # Concurrency
//
// The Registry and Resolver are safe for concurrent use. Service operations
// are load, check and save sequences without version checks; concurrent
// writes to the same entity resolve last-write-wins.
package collabkit
