package collabkit

import (
	"context"

	"github.com/fernandezvara/dbkit"
)

// Migrations returns all database migrations required by collabkit.
// Membership lists live in jsonb columns indexed with GIN so that listing
// "everything a user belongs to" can use containment queries.
func Migrations() []dbkit.Migration {
	return []dbkit.Migration{
		{
			ID:          "collabkit-001",
			Description: "Create documents table",
			SQL: `
                CREATE TABLE IF NOT EXISTS documents (
                    id UUID PRIMARY KEY,
                    owner_id TEXT NOT NULL,
                    title TEXT NOT NULL,
                    content TEXT NOT NULL DEFAULT '',
                    visibility TEXT NOT NULL DEFAULT 'private',
                    collaborators JSONB NOT NULL DEFAULT '[]',
                    is_deleted BOOLEAN NOT NULL DEFAULT false,
                    deleted_at TIMESTAMPTZ,
                    deleted_by TEXT,
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    updated_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp
                )`,
		},
		{
			ID:          "collabkit-002",
			Description: "Create whiteboards table",
			SQL: `
                CREATE TABLE IF NOT EXISTS whiteboards (
                    id UUID PRIMARY KEY,
                    owner_id TEXT NOT NULL,
                    name TEXT NOT NULL,
                    elements JSONB NOT NULL DEFAULT '[]',
                    visibility TEXT NOT NULL DEFAULT 'private',
                    collaborators JSONB NOT NULL DEFAULT '[]',
                    is_deleted BOOLEAN NOT NULL DEFAULT false,
                    deleted_at TIMESTAMPTZ,
                    deleted_by TEXT,
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    updated_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp
                )`,
		},
		{
			ID:          "collabkit-003",
			Description: "Create workspaces table",
			SQL: `
                CREATE TABLE IF NOT EXISTS workspaces (
                    id UUID PRIMARY KEY,
                    owner_id TEXT NOT NULL,
                    name TEXT NOT NULL,
                    description TEXT NOT NULL DEFAULT '',
                    settings JSONB,
                    members JSONB NOT NULL DEFAULT '[]',
                    is_deleted BOOLEAN NOT NULL DEFAULT false,
                    deleted_at TIMESTAMPTZ,
                    deleted_by TEXT,
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    updated_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp
                )`,
		},
		{
			ID:          "collabkit-004",
			Description: "Create projects table",
			SQL: `
                CREATE TABLE IF NOT EXISTS projects (
                    id UUID PRIMARY KEY,
                    owner_id TEXT NOT NULL,
                    workspace_id UUID REFERENCES workspaces (id),
                    name TEXT NOT NULL,
                    description TEXT NOT NULL DEFAULT '',
                    settings JSONB,
                    team JSONB NOT NULL DEFAULT '[]',
                    is_deleted BOOLEAN NOT NULL DEFAULT false,
                    deleted_at TIMESTAMPTZ,
                    deleted_by TEXT,
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    updated_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp
                )`,
		},
		{
			ID:          "collabkit-005",
			Description: "Create membership_audit_log table",
			SQL: `
                CREATE TABLE IF NOT EXISTS membership_audit_log (
                    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
                    timestamp TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    actor_id TEXT NOT NULL,
                    actor_role TEXT,
                    action TEXT NOT NULL,
                    family TEXT NOT NULL,
                    entity_id UUID NOT NULL,
                    target_user_id TEXT,
                    role TEXT,
                    previous_role TEXT,
                    ip_address TEXT,
                    user_agent TEXT,
                    request_id TEXT,
                    metadata JSONB
                )`,
		},
		{
			ID:          "collabkit-006",
			Description: "Create documents_owner_idx index",
			SQL:         `CREATE INDEX IF NOT EXISTS documents_owner_idx ON documents (owner_id) WHERE NOT is_deleted`,
		},
		{
			ID:          "collabkit-007",
			Description: "Create documents_collaborators_idx index",
			SQL:         `CREATE INDEX IF NOT EXISTS documents_collaborators_idx ON documents USING GIN (collaborators jsonb_path_ops)`,
		},
		{
			ID:          "collabkit-008",
			Description: "Create whiteboards_owner_idx index",
			SQL:         `CREATE INDEX IF NOT EXISTS whiteboards_owner_idx ON whiteboards (owner_id) WHERE NOT is_deleted`,
		},
		{
			ID:          "collabkit-009",
			Description: "Create whiteboards_collaborators_idx index",
			SQL:         `CREATE INDEX IF NOT EXISTS whiteboards_collaborators_idx ON whiteboards USING GIN (collaborators jsonb_path_ops)`,
		},
		{
			ID:          "collabkit-010",
			Description: "Create workspaces_owner_idx index",
			SQL:         `CREATE INDEX IF NOT EXISTS workspaces_owner_idx ON workspaces (owner_id) WHERE NOT is_deleted`,
		},
		{
			ID:          "collabkit-011",
			Description: "Create workspaces_members_idx index",
			SQL:         `CREATE INDEX IF NOT EXISTS workspaces_members_idx ON workspaces USING GIN (members jsonb_path_ops)`,
		},
		{
			ID:          "collabkit-012",
			Description: "Create projects_owner_idx index",
			SQL:         `CREATE INDEX IF NOT EXISTS projects_owner_idx ON projects (owner_id) WHERE NOT is_deleted`,
		},
		{
			ID:          "collabkit-013",
			Description: "Create projects_workspace_idx index",
			SQL:         `CREATE INDEX IF NOT EXISTS projects_workspace_idx ON projects (workspace_id) WHERE NOT is_deleted`,
		},
		{
			ID:          "collabkit-014",
			Description: "Create projects_team_idx index",
			SQL:         `CREATE INDEX IF NOT EXISTS projects_team_idx ON projects USING GIN (team jsonb_path_ops)`,
		},
		{
			ID:          "collabkit-015",
			Description: "Create membership_audit_log_entity_idx index",
			SQL:         `CREATE INDEX IF NOT EXISTS membership_audit_log_entity_idx ON membership_audit_log (family, entity_id, timestamp DESC)`,
		},
	}
}

// RunMigrations applies pending migrations and returns the IDs applied by this call.
func (s *Service) RunMigrations(ctx context.Context) ([]string, error) {
	db, ok := s.db.(*dbkit.DBKit)
	if !ok {
		return nil, NewError(ErrUnsupported, "migrations require a dbkit.DBKit instance")
	}

	result, err := db.Migrate(ctx, Migrations())
	if err != nil {
		return nil, dbError("Migrate", err)
	}

	applied := make([]string, 0, len(result.Applied))
	for _, m := range result.Applied {
		applied = append(applied, m.ID)
	}
	if len(applied) > 0 {
		s.logger.Info().Strs("migrations", applied).Msg("migrations applied")
	}
	return applied, nil
}
