package collabkit

import (
	"fmt"
	"sort"
	"sync"
)

// DefaultMaxMembers bounds membership lists when a family does not set its own limit.
const DefaultMaxMembers = 50

// Registry holds the permission matrix of every entity family.
// It is built at startup and sealed; a sealed registry never changes, so
// lookups after Seal are safe from any number of goroutines.
type Registry struct {
	mu       sync.RWMutex
	families map[Family]*FamilyDefinition
	sealed   bool
}

// FamilyDefinition describes one entity family: where its membership list
// lives, which role strangers fall back to, and what each role grants.
type FamilyDefinition struct {
	name            Family
	membershipField string
	defaultRole     string
	manageCap       Capability
	maxMembers      int
	visibility      bool
	roles           map[string]*RoleDefinition
	registry        *Registry
}

// RoleDefinition defines a role within a family, its capabilities and the
// roles it may hand out to other users.
type RoleDefinition struct {
	name           string
	grants         []Capability
	set            CapabilitySet
	canAssignRoles []string
	family         *FamilyDefinition
}

// NewRegistry creates an empty, unsealed registry.
func NewRegistry() *Registry {
	return &Registry{
		families: make(map[Family]*FamilyDefinition),
	}
}

// DefineFamily starts defining a family.
// Returns a FamilyDefinition builder for fluent configuration.
//
// Example:
//
//	registry.DefineFamily(collabkit.FamilyDocument).
//	    MembershipField("collaborators").
//	    DefaultRole("viewer").
//	    Role("owner").Grants(collabkit.CanView, collabkit.CanEdit).CanAssign("editor", "viewer").
//	    Role("viewer").Grants(collabkit.CanView)
func (r *Registry) DefineFamily(name Family) *FamilyDefinition {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mustBeOpen()

	family := &FamilyDefinition{
		name:            name,
		membershipField: "members",
		manageCap:       CanManageMembers,
		maxMembers:      DefaultMaxMembers,
		roles:           make(map[string]*RoleDefinition),
		registry:        r,
	}
	r.families[name] = family
	return family
}

func (r *Registry) mustBeOpen() {
	if r.sealed {
		panic(ErrRegistrySealed)
	}
}

// Seal validates every family and freezes the registry.
// Any later attempt to define families or roles panics.
func (r *Registry) Seal() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, family := range r.families {
		if _, ok := family.roles[RoleOwner]; !ok {
			return fmt.Errorf("%w: family %q has no %q role", ErrInvalidRole, name, RoleOwner)
		}
		if _, ok := family.roles[family.defaultRole]; !ok {
			return fmt.Errorf("%w: default role %q not defined for family %q", ErrInvalidRole, family.defaultRole, name)
		}
		for _, role := range family.roles {
			for _, c := range role.grants {
				if !c.Valid() {
					return fmt.Errorf("%w: %q granted by %s/%s", ErrInvalidCapability, c, name, role.name)
				}
			}
			for _, target := range role.canAssignRoles {
				if target == RoleOwner {
					return fmt.Errorf("%w: %s/%s cannot hand out ownership", ErrCannotAssign, name, role.name)
				}
				if _, ok := family.roles[target]; !ok {
					return fmt.Errorf("%w: %s/%s assigns unknown role %q", ErrInvalidRole, name, role.name, target)
				}
			}
		}
	}
	r.sealed = true
	return nil
}

// Sealed reports whether the registry has been sealed.
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// GetFamily returns the definition of a family, or nil if it is not defined.
func (r *Registry) GetFamily(name Family) *FamilyDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.families[name]
}

// GetFamilies returns all defined family names in a stable order.
func (r *Registry) GetFamilies() []Family {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]Family, 0, len(r.families))
	for name := range r.families {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// ValidateFamily checks if a family is defined.
func (r *Registry) ValidateFamily(name Family) error {
	if r.GetFamily(name) == nil {
		return fmt.Errorf("%w: family %q not defined", ErrInvalidFamily, name)
	}
	return nil
}

// ValidateRole checks if a role is defined for a family.
func (r *Registry) ValidateRole(role string, family Family) error {
	def := r.GetFamily(family)
	if def == nil {
		return fmt.Errorf("%w: family %q not defined", ErrInvalidFamily, family)
	}
	if def.GetRole(role) == nil {
		return fmt.Errorf("%w: role %q not defined for family %q", ErrInvalidRole, role, family)
	}
	return nil
}

// GetRole returns the definition of a role in a family.
func (r *Registry) GetRole(role string, family Family) *RoleDefinition {
	def := r.GetFamily(family)
	if def == nil {
		return nil
	}
	return def.GetRole(role)
}

// HasCapability reports whether role grants c in family.
// Unknown families, roles and capabilities all yield false.
func (r *Registry) HasCapability(family Family, role string, c Capability) bool {
	roleDef := r.GetRole(role, family)
	if roleDef == nil {
		return false
	}
	return roleDef.set.Has(c)
}

// GetCapabilities returns the capability set of a role. Unknown roles get the empty set.
func (r *Registry) GetCapabilities(role string, family Family) CapabilitySet {
	roleDef := r.GetRole(role, family)
	if roleDef == nil {
		return CapabilitySet{}
	}
	return roleDef.set
}

// CanRoleAssign checks if a role can grant another role in the same family.
func (r *Registry) CanRoleAssign(assignerRole, targetRole string, family Family) bool {
	roleDef := r.GetRole(assignerRole, family)
	if roleDef == nil {
		return false
	}
	for _, allowed := range roleDef.canAssignRoles {
		if allowed == targetRole {
			return true
		}
	}
	return false
}

// MembershipField sets the name of the stored membership list
// ("collaborators", "team", "members").
func (f *FamilyDefinition) MembershipField(name string) *FamilyDefinition {
	f.registry.mustBeOpenLocked()
	f.membershipField = name
	return f
}

// DefaultRole sets the role returned for users without a membership entry
// and for missing entity or user input.
func (f *FamilyDefinition) DefaultRole(role string) *FamilyDefinition {
	f.registry.mustBeOpenLocked()
	f.defaultRole = role
	return f
}

// ManagedBy sets the capability required to change the membership list.
func (f *FamilyDefinition) ManagedBy(c Capability) *FamilyDefinition {
	f.registry.mustBeOpenLocked()
	f.manageCap = c
	return f
}

// MaxMembers bounds the size of the membership list.
func (f *FamilyDefinition) MaxMembers(n int) *FamilyDefinition {
	f.registry.mustBeOpenLocked()
	if n > 0 {
		f.maxMembers = n
	}
	return f
}

// WithVisibility marks the family as carrying a private/shared visibility flag.
func (f *FamilyDefinition) WithVisibility() *FamilyDefinition {
	f.registry.mustBeOpenLocked()
	f.visibility = true
	return f
}

// Role starts defining a role within this family.
func (f *FamilyDefinition) Role(name string) *RoleDefinition {
	f.registry.mustBeOpenLocked()
	role := &RoleDefinition{
		name:   name,
		family: f,
	}
	f.roles[name] = role
	return role
}

// Name returns the family name.
func (f *FamilyDefinition) Name() Family {
	return f.name
}

// GetMembershipField returns the name of the stored membership list.
func (f *FamilyDefinition) GetMembershipField() string {
	return f.membershipField
}

// GetDefaultRole returns the fallback role of the family.
func (f *FamilyDefinition) GetDefaultRole() string {
	return f.defaultRole
}

// GetManageCapability returns the capability guarding the membership list.
func (f *FamilyDefinition) GetManageCapability() Capability {
	return f.manageCap
}

// GetMaxMembers returns the membership list size limit.
func (f *FamilyDefinition) GetMaxMembers() int {
	return f.maxMembers
}

// HasVisibility reports whether entities of the family carry a visibility flag.
func (f *FamilyDefinition) HasVisibility() bool {
	return f.visibility
}

// GetRole returns a role definition by name within this family.
func (f *FamilyDefinition) GetRole(name string) *RoleDefinition {
	return f.roles[name]
}

// GetRoles returns all role names defined in this family in a stable order.
func (f *FamilyDefinition) GetRoles() []string {
	names := make([]string, 0, len(f.roles))
	for name := range f.roles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Grants adds capabilities to the role.
func (r *RoleDefinition) Grants(caps ...Capability) *RoleDefinition {
	r.family.registry.mustBeOpenLocked()
	r.grants = append(r.grants, caps...)
	r.set = NewCapabilitySet(r.grants...)
	return r
}

// CanAssign sets which roles this role can hand out to other users.
// The owner role can never be handed out.
func (r *RoleDefinition) CanAssign(roles ...string) *RoleDefinition {
	r.family.registry.mustBeOpenLocked()
	r.canAssignRoles = append(r.canAssignRoles, roles...)
	return r
}

// Role continues defining roles in the parent family (fluent API).
func (r *RoleDefinition) Role(name string) *RoleDefinition {
	return r.family.Role(name)
}

// DefineFamily continues defining families on the registry (fluent API).
func (r *RoleDefinition) DefineFamily(name Family) *FamilyDefinition {
	return r.family.registry.DefineFamily(name)
}

// Capabilities returns the capability set of this role.
func (r *RoleDefinition) Capabilities() CapabilitySet {
	return r.set
}

// GetCanAssign returns the roles this role can assign.
func (r *RoleDefinition) GetCanAssign() []string {
	return r.canAssignRoles
}

// Name returns the role name.
func (r *RoleDefinition) Name() string {
	return r.name
}

// FamilyName returns the family this role belongs to.
func (r *RoleDefinition) FamilyName() Family {
	return r.family.name
}

func (r *Registry) mustBeOpenLocked() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	r.mustBeOpen()
}
