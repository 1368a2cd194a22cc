package collabkit

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/fernandezvara/dbkit"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// recordPtr is satisfied by pointers to the stored entity models.
type recordPtr[R Role, T any] interface {
	*T
	Entity[R]
	base() *Record
	Deleted() bool
	setMembers([]Member[R])
}

// Collection stores one family of collaborative entities and guards every
// operation with the family's resolver.
//
// All operations follow the same load, authorize, mutate and save sequence.
// The sequence is not isolated: two concurrent saves of the same entity are
// both accepted and the last one to commit wins.
type Collection[R Role, T any, PT recordPtr[R, T]] struct {
	svc      *Service
	resolver *Resolver[R]
	def      *FamilyDefinition
}

func newCollection[R Role, T any, PT recordPtr[R, T]](svc *Service, family Family) (*Collection[R, T, PT], error) {
	resolver, err := NewResolver[R](svc.registry, family)
	if err != nil {
		return nil, err
	}
	return &Collection[R, T, PT]{
		svc:      svc,
		resolver: resolver,
		def:      svc.registry.GetFamily(family),
	}, nil
}

// Family returns the family stored by this collection.
func (c *Collection[R, T, PT]) Family() Family {
	return c.def.Name()
}

// Resolver returns the resolver guarding this collection.
func (c *Collection[R, T, PT]) Resolver() *Resolver[R] {
	return c.resolver
}

// Create stores rec with ownerID as owner. The owner is also the first entry
// of the membership list. ID, ownership and timestamps set on rec are replaced.
func (c *Collection[R, T, PT]) Create(ctx context.Context, ownerID string, rec PT) (PT, error) {
	if ownerID == "" {
		return nil, ErrNoUserID
	}
	if rec == nil {
		rec = PT(new(T))
	}

	now := c.svc.now()
	rec.base().assign(c.svc.newID(), ownerID, now)
	rec.setMembers([]Member[R]{{
		UserID:  ownerID,
		Role:    R(RoleOwner),
		AddedBy: ownerID,
		AddedAt: now,
	}})
	if v, ok := any(rec).(visible); ok && !v.GetVisibility().Valid() {
		v.setVisibility(VisibilityPrivate)
	}

	err := c.svc.withRetry(ctx, "Create", func() error {
		return c.svc.Transaction(ctx, func(ctx context.Context, db dbkit.IDB) error {
			result, err := db.NewInsert().Model(rec).Exec(ctx)
			if err = dbkit.WithErr(result, err, "Create"+c.label()).Err(); err != nil {
				return dbError("Create"+c.label(), err)
			}
			return c.svc.logAudit(ctx, db, &AuditEntry{
				ActorID:   ownerID,
				ActorRole: RoleOwner,
				Action:    AuditActionCreated,
				Family:    c.Family(),
				EntityID:  rec.EntityID(),
			})
		})
	})
	if err != nil {
		return nil, err
	}

	c.svc.logger.Info().
		Str("family", c.Family().String()).
		Str("entity_id", rec.EntityID()).
		Str("owner_id", ownerID).
		Msg("entity created")
	return rec, nil
}

// Load returns a non-deleted entity without any access check.
func (c *Collection[R, T, PT]) Load(ctx context.Context, id string) (PT, error) {
	return c.load(ctx, c.svc.db, id)
}

func (c *Collection[R, T, PT]) load(ctx context.Context, db dbkit.IDB, id string) (PT, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, c.notFound(id)
	}

	rec := PT(new(T))
	err := db.NewSelect().
		Model(rec).
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.is_deleted = ?", false).
		Limit(1).
		Scan(ctx)
	if err = dbkit.WithErr1(err, "Get"+c.label()).Err(); err != nil {
		if dbkit.IsNotFound(err) {
			return nil, c.notFound(id)
		}
		return nil, dbError("Get"+c.label(), err)
	}
	return rec, nil
}

// Get returns an entity the user may view.
// Private entities are only visible to their owner and members; shared ones
// are also previewed by anyone under the family default role.
func (c *Collection[R, T, PT]) Get(ctx context.Context, id, userID string) (PT, *Checker, error) {
	rec, err := c.Load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	checker, err := c.check(rec, userID, CanView)
	if err != nil {
		return nil, nil, err
	}
	return rec, checker, nil
}

// Authorize loads an entity and checks a capability for userID.
func (c *Collection[R, T, PT]) Authorize(ctx context.Context, id, userID string, capability Capability) (*Checker, error) {
	rec, err := c.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return c.check(rec, userID, capability)
}

// check applies the resolver and then refuses default roles on private entities.
func (c *Collection[R, T, PT]) check(rec PT, userID string, capability Capability) (*Checker, error) {
	user := UserID(userID)
	role, err := c.resolver.Authorize(rec, user, capability)
	if err != nil {
		c.logDenied(rec, userID, string(role), capability)
		return nil, err
	}

	checker := c.resolver.Checker(rec, user)
	if !checker.IsMember() && !isShared(rec) {
		c.logDenied(rec, userID, string(role), capability)
		return nil, NewError(ErrForbidden, "you are not a member of this private "+c.Family().String()).
			WithEntity(c.Family(), rec.EntityID()).
			WithCapability(capability).
			WithUser(userID)
	}
	return checker, nil
}

func isShared(rec any) bool {
	v, ok := rec.(visible)
	return ok && v.GetVisibility() == VisibilityShared
}

func (c *Collection[R, T, PT]) logDenied(rec PT, userID, role string, capability Capability) {
	c.svc.logger.Debug().
		Str("family", c.Family().String()).
		Str("entity_id", rec.EntityID()).
		Str("user_id", userID).
		Str("role", role).
		Str("capability", capability.String()).
		Msg("access denied")
}

// List returns the non-deleted entities userID owns or belongs to, most
// recently updated first, and the total number of matches.
func (c *Collection[R, T, PT]) List(ctx context.Context, userID string, opts ListOptions) ([]T, int, error) {
	if userID == "" {
		return nil, 0, ErrNoUserID
	}
	containment, err := json.Marshal([]map[string]string{{"user": userID}})
	if err != nil {
		return nil, 0, err
	}
	field := bun.Ident(c.def.GetMembershipField())
	filter := func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.
			Where("?TableAlias.is_deleted = ?", false).
			WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
				return q.
					Where("?TableAlias.owner_id = ?", userID).
					WhereOr("?TableAlias.? @> ?::jsonb", field, string(containment))
			})
	}

	var recs []T
	q := filter(c.svc.db.NewSelect().Model(&recs)).
		Order("updated_at DESC").
		Limit(opts.limit())
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	if err := dbkit.WithErr1(q.Scan(ctx), "List"+c.label()).Err(); err != nil {
		return nil, 0, dbError("List"+c.label(), err)
	}

	total, err := dbkit.Count[T](ctx, c.svc.db, filter)
	if err != nil {
		return nil, 0, dbError("Count"+c.label(), err)
	}
	return recs, total, nil
}

// Update applies mutate to an entity after checking capability (canEdit for
// content, canChangeSettings for settings). Ownership, membership and
// visibility are restored after mutate; use the dedicated operations for those.
func (c *Collection[R, T, PT]) Update(ctx context.Context, id, userID string, capability Capability, mutate func(PT) error) (PT, error) {
	return c.UpdateWith(ctx, id, userID, []Capability{capability}, mutate)
}

// UpdateWith is Update for changes that need every capability listed, such
// as a content edit combined with a settings change.
func (c *Collection[R, T, PT]) UpdateWith(ctx context.Context, id, userID string, capabilities []Capability, mutate func(PT) error) (PT, error) {
	if len(capabilities) == 0 {
		return nil, NewError(ErrInvalidInput, "no capability given for update").WithEntity(c.Family(), id)
	}
	authorize := func(rec PT) (checker *Checker, err error) {
		for _, capability := range capabilities {
			if checker, err = c.check(rec, userID, capability); err != nil {
				return nil, err
			}
		}
		return checker, nil
	}

	return c.mutateWith(ctx, id, userID, authorize, func(rec PT, _ *Checker) (*AuditEntry, error) {
		record := *rec.base()
		members := rec.MemberList()
		var visibility Visibility
		v, hasVisibility := any(rec).(visible)
		if hasVisibility {
			visibility = v.GetVisibility()
		}

		if err := mutate(rec); err != nil {
			return nil, err
		}

		*rec.base() = record
		rec.setMembers(members)
		if hasVisibility {
			v.setVisibility(visibility)
		}
		return nil, nil
	})
}

// SetVisibility switches an entity between private and shared. Requires canShare.
func (c *Collection[R, T, PT]) SetVisibility(ctx context.Context, id, userID string, visibility Visibility) (PT, error) {
	if !c.def.HasVisibility() {
		return nil, NewError(ErrUnsupported, c.Family().String()+" has no visibility setting").WithEntity(c.Family(), id)
	}
	if !visibility.Valid() {
		return nil, NewError(ErrInvalidInput, "unknown visibility "+string(visibility)).WithEntity(c.Family(), id)
	}
	return c.mutate(ctx, id, userID, CanShare, func(rec PT, checker *Checker) (*AuditEntry, error) {
		v, ok := any(rec).(visible)
		if !ok {
			return nil, NewError(ErrUnsupported, c.Family().String()+" has no visibility setting").WithEntity(c.Family(), id)
		}
		previous := v.GetVisibility()
		v.setVisibility(visibility)
		return &AuditEntry{
			ActorRole: checker.Role(),
			Action:    AuditActionVisibilityChanged,
			Metadata:  map[string]any{"from": previous, "to": visibility},
		}, nil
	})
}

// Delete soft-deletes an entity. Requires canDelete.
func (c *Collection[R, T, PT]) Delete(ctx context.Context, id, userID string) error {
	_, err := c.mutate(ctx, id, userID, CanDelete, func(rec PT, checker *Checker) (*AuditEntry, error) {
		rec.base().markDeleted(userID, c.svc.now())
		return &AuditEntry{
			ActorRole: checker.Role(),
			Action:    AuditActionDeleted,
		}, nil
	})
	return err
}

// AddMember grants role to userID. The actor needs the family's manage
// capability and a role allowed to hand out role.
func (c *Collection[R, T, PT]) AddMember(ctx context.Context, id, actorID, userID string, role R) (PT, error) {
	if err := c.svc.registry.ValidateRole(string(role), c.Family()); err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, NewError(ErrInvalidInput, "user ID is required").WithEntity(c.Family(), id)
	}

	return c.mutate(ctx, id, actorID, c.def.GetManageCapability(), func(rec PT, checker *Checker) (*AuditEntry, error) {
		if !checker.CanAssignRole(string(role)) {
			return nil, c.cannotAssign(rec, actorID, string(role))
		}
		members, err := AppendMember(rec.MemberList(), rec.OwnerID(), userID, role, actorID, c.svc.now(), c.def.GetMaxMembers())
		if err != nil {
			return nil, c.annotate(err, rec, actorID)
		}
		rec.setMembers(members)
		return &AuditEntry{
			ActorRole:    checker.Role(),
			Action:       AuditActionMemberAdded,
			TargetUserID: userID,
			Role:         string(role),
		}, nil
	})
}

// RemoveMember removes userID from the membership list. Members may always
// leave on their own, whatever their role; removing someone else needs the
// manage capability and a role allowed to hand out the member's role. The
// owner cannot be removed.
func (c *Collection[R, T, PT]) RemoveMember(ctx context.Context, id, actorID, userID string) (PT, error) {
	if actorID == "" {
		return nil, ErrNoUserID
	}

	leaving := actorID == userID
	authorize := func(rec PT) (*Checker, error) {
		return c.check(rec, actorID, c.def.GetManageCapability())
	}
	if leaving {
		authorize = c.checkLeave(actorID)
	}

	return c.mutateWith(ctx, id, actorID, authorize, func(rec PT, checker *Checker) (*AuditEntry, error) {
		if !leaving {
			if target, ok := FindMember(rec.MemberList(), userID); ok && !c.canReplace(checker, string(target.Role)) {
				return nil, c.cannotAssign(rec, actorID, string(target.Role))
			}
		}
		members, removed, err := WithoutMember(rec.MemberList(), rec.OwnerID(), userID)
		if err != nil {
			return nil, c.annotate(err, rec, actorID)
		}
		rec.setMembers(members)
		return &AuditEntry{
			ActorRole:    checker.Role(),
			Action:       AuditActionMemberRemoved,
			TargetUserID: userID,
			Role:         string(removed.Role),
		}, nil
	})
}

// ChangeMemberRole moves userID to role. The actor needs the manage capability
// and a role allowed to hand out both the current and the new role.
func (c *Collection[R, T, PT]) ChangeMemberRole(ctx context.Context, id, actorID, userID string, role R) (PT, error) {
	if err := c.svc.registry.ValidateRole(string(role), c.Family()); err != nil {
		return nil, err
	}

	return c.mutate(ctx, id, actorID, c.def.GetManageCapability(), func(rec PT, checker *Checker) (*AuditEntry, error) {
		if current, ok := FindMember(rec.MemberList(), userID); ok && userID != rec.OwnerID() && !c.canReplace(checker, string(current.Role)) {
			return nil, c.cannotAssign(rec, actorID, string(current.Role))
		}
		if string(role) != RoleOwner && !checker.CanAssignRole(string(role)) {
			return nil, c.cannotAssign(rec, actorID, string(role))
		}
		members, previous, err := WithMemberRole(rec.MemberList(), rec.OwnerID(), userID, role)
		if err != nil {
			return nil, c.annotate(err, rec, actorID)
		}
		rec.setMembers(members)
		return &AuditEntry{
			ActorRole:    checker.Role(),
			Action:       AuditActionRoleChanged,
			TargetUserID: userID,
			Role:         string(role),
			PreviousRole: string(previous),
		}, nil
	})
}

// mutate runs load, check, change and save inside one transaction, retrying
// transient failures. change may return an audit entry to record with the save.
func (c *Collection[R, T, PT]) mutate(ctx context.Context, id, userID string, capability Capability, change func(PT, *Checker) (*AuditEntry, error)) (PT, error) {
	return c.mutateWith(ctx, id, userID, func(rec PT) (*Checker, error) {
		return c.check(rec, userID, capability)
	}, change)
}

// checkLeave lets anyone listed on the entity remove themselves, even with a
// role that grants nothing. Everyone else goes through the usual view check.
func (c *Collection[R, T, PT]) checkLeave(userID string) func(PT) (*Checker, error) {
	return func(rec PT) (*Checker, error) {
		checker := c.resolver.Checker(rec, UserID(userID))
		if checker.IsMember() {
			return checker, nil
		}
		return c.check(rec, userID, CanView)
	}
}

func (c *Collection[R, T, PT]) mutateWith(ctx context.Context, id, userID string, authorize func(PT) (*Checker, error), change func(PT, *Checker) (*AuditEntry, error)) (PT, error) {
	if userID == "" {
		return nil, ErrNoUserID
	}

	var out PT
	err := c.svc.withRetry(ctx, "Update"+c.label(), func() error {
		return c.svc.Transaction(ctx, func(ctx context.Context, db dbkit.IDB) error {
			rec, err := c.load(ctx, db, id)
			if err != nil {
				return err
			}
			checker, err := authorize(rec)
			if err != nil {
				return err
			}

			entry, err := change(rec, checker)
			if err != nil {
				return err
			}
			rec.base().touch(c.svc.now())

			result, err := db.NewUpdate().Model(rec).WherePK().Exec(ctx)
			if err = dbkit.WithErr(result, err, "Update"+c.label()).Err(); err != nil {
				return dbError("Update"+c.label(), err)
			}

			if entry != nil {
				entry.ActorID = userID
				entry.Family = c.Family()
				entry.EntityID = rec.EntityID()
				if err := c.svc.logAudit(ctx, db, entry); err != nil {
					return err
				}
			}
			out = rec
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// canReplace reports whether the actor may take away a member's current role.
// The owner entry is left to the list operations, which refuse it, and roles
// unknown to the registry can be replaced by anyone holding the manage capability.
func (c *Collection[R, T, PT]) canReplace(checker *Checker, role string) bool {
	if role == RoleOwner || c.def.GetRole(role) == nil {
		return true
	}
	return checker.CanAssignRole(role)
}

func (c *Collection[R, T, PT]) label() string {
	switch c.Family() {
	case FamilyDocument:
		return "Document"
	case FamilyWhiteboard:
		return "Whiteboard"
	case FamilyProject:
		return "Project"
	case FamilyWorkspace:
		return "Workspace"
	}
	return "Entity"
}

func (c *Collection[R, T, PT]) notFound(id string) *Error {
	return NewError(ErrNotFound, c.Family().String()+" not found").WithEntity(c.Family(), id)
}

func (c *Collection[R, T, PT]) cannotAssign(rec PT, actorID, role string) *Error {
	return NewError(ErrCannotAssign, "role not assignable by actor").
		WithEntity(c.Family(), rec.EntityID()).
		WithRole(role).
		WithActor(actorID)
}

// annotate adds entity and actor details to membership list errors.
func (c *Collection[R, T, PT]) annotate(err error, rec PT, actorID string) error {
	var e *Error
	if errors.As(err, &e) {
		return e.WithEntity(c.Family(), rec.EntityID()).WithActor(actorID)
	}
	return err
}
