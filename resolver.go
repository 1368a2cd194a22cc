package collabkit

import "fmt"

// Resolver answers "which role does this user hold on this entity" and
// "does that role grant a capability" for one family.
//
// A Resolver holds no mutable state; it reads the sealed registry and the
// entity it is given, so it can be shared freely between requests.
type Resolver[R Role] struct {
	registry *Registry
	def      *FamilyDefinition
}

// NewResolver creates a resolver for a family defined in registry.
//
// Example:
//
//	docs, err := collabkit.NewResolver[collabkit.DocumentRole](registry, collabkit.FamilyDocument)
func NewResolver[R Role](registry *Registry, family Family) (*Resolver[R], error) {
	def := registry.GetFamily(family)
	if def == nil {
		return nil, fmt.Errorf("%w: family %q not defined", ErrInvalidFamily, family)
	}
	return &Resolver[R]{registry: registry, def: def}, nil
}

// MustResolver is like NewResolver but panics on an undefined family.
func MustResolver[R Role](registry *Registry, family Family) *Resolver[R] {
	r, err := NewResolver[R](registry, family)
	if err != nil {
		panic(err)
	}
	return r
}

// Family returns the family this resolver serves.
func (r *Resolver[R]) Family() Family {
	return r.def.name
}

// DefaultRole returns the role given to non-members and to missing input.
func (r *Resolver[R]) DefaultRole() R {
	return R(r.def.defaultRole)
}

// ResolveRole returns the effective role of user on entity.
//
// Missing entity or user yields the family default role. The owner check wins
// over the membership list. A membership role is returned verbatim even when
// it is not part of the permission matrix; such roles simply grant nothing.
func (r *Resolver[R]) ResolveRole(entity Entity[R], user Subject) R {
	role, _ := r.Lookup(entity, user)
	return role
}

// Lookup is ResolveRole plus whether the role comes from real membership
// (ownership or a list entry) rather than the default fallback.
func (r *Resolver[R]) Lookup(entity Entity[R], user Subject) (R, bool) {
	uid := subjectID(user)
	if entity == nil || uid == "" {
		return r.DefaultRole(), false
	}
	if entity.OwnerID() == uid {
		return R(RoleOwner), true
	}
	for _, m := range entity.MemberList() {
		if m.UserID == uid {
			return m.Role, true
		}
	}
	return r.DefaultRole(), false
}

// HasCapability reports whether role grants c. Unknown roles and capabilities yield false.
func (r *Resolver[R]) HasCapability(role R, c Capability) bool {
	return r.registry.HasCapability(r.def.name, string(role), c)
}

// Capabilities returns what role grants, in a stable order.
func (r *Resolver[R]) Capabilities(role R) []Capability {
	return r.registry.GetCapabilities(string(role), r.def.name).List()
}

// Authorize resolves the role of user on entity and checks c.
// On success it returns the resolved role; otherwise an *Error wrapping ErrForbidden.
func (r *Resolver[R]) Authorize(entity Entity[R], user Subject, c Capability) (R, error) {
	role := r.ResolveRole(entity, user)
	if r.HasCapability(role, c) {
		return role, nil
	}
	return role, r.forbidden(entity, user, role, c)
}

// Checker packages the resolution of user on entity for later checks and
// response shaping.
func (r *Resolver[R]) Checker(entity Entity[R], user Subject) *Checker {
	role, member := r.Lookup(entity, user)
	var entityID string
	if entity != nil {
		entityID = entity.EntityID()
	}
	return NewChecker(subjectID(user), r.def.name, entityID, string(role), member, r.registry)
}

func (r *Resolver[R]) forbidden(entity Entity[R], user Subject, role R, c Capability) *Error {
	var entityID string
	if entity != nil {
		entityID = entity.EntityID()
	}
	return NewError(ErrForbidden, "capability not granted").
		WithEntity(r.def.name, entityID).
		WithRole(string(role)).
		WithCapability(c).
		WithUser(subjectID(user))
}
