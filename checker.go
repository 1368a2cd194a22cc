package collabkit

// Checker holds the resolved access of one user on one entity.
// It is created by a Resolver (or the Service) and stored in context by the
// middleware so that handlers can shape responses around what the user may do.
type Checker struct {
	userID   string
	family   Family
	entityID string
	role     string
	member   bool
	registry *Registry
}

// NewChecker creates a Checker from an already resolved role.
func NewChecker(userID string, family Family, entityID, role string, member bool, registry *Registry) *Checker {
	return &Checker{
		userID:   userID,
		family:   family,
		entityID: entityID,
		role:     role,
		member:   member,
		registry: registry,
	}
}

// UserID returns the user ID this checker is for.
func (c *Checker) UserID() string {
	return c.userID
}

// Family returns the family of the checked entity.
func (c *Checker) Family() Family {
	return c.family
}

// EntityID returns the ID of the checked entity.
func (c *Checker) EntityID() string {
	return c.entityID
}

// Role returns the resolved role.
func (c *Checker) Role() string {
	return c.role
}

// IsOwner reports whether the user owns the entity.
func (c *Checker) IsOwner() bool {
	return c.member && c.role == RoleOwner
}

// IsMember reports whether the role comes from ownership or a membership entry
// rather than the family default.
func (c *Checker) IsMember() bool {
	return c.member
}

// Can checks if the resolved role grants a capability.
//
// Example:
//
//	if checker.Can(collabkit.CanEdit) {
//	    // render the editor
//	}
func (c *Checker) Can(capability Capability) bool {
	return c.registry.HasCapability(c.family, c.role, capability)
}

// CanAny checks if the resolved role grants any of the capabilities.
func (c *Checker) CanAny(capabilities ...Capability) bool {
	for _, capability := range capabilities {
		if c.Can(capability) {
			return true
		}
	}
	return false
}

// CanAll checks if the resolved role grants all of the capabilities.
func (c *Checker) CanAll(capabilities ...Capability) bool {
	for _, capability := range capabilities {
		if !c.Can(capability) {
			return false
		}
	}
	return true
}

// Capabilities returns everything the resolved role grants.
func (c *Checker) Capabilities() []Capability {
	return c.registry.GetCapabilities(c.role, c.family).List()
}

// CanAssignRole checks if the user may hand out targetRole on this entity.
func (c *Checker) CanAssignRole(targetRole string) bool {
	if !c.member {
		return false
	}
	return c.registry.CanRoleAssign(c.role, targetRole, c.family)
}

// GetAssignableRoles returns the roles the user may hand out on this entity.
func (c *Checker) GetAssignableRoles() []string {
	if !c.member {
		return nil
	}
	roleDef := c.registry.GetRole(c.role, c.family)
	if roleDef == nil {
		return nil
	}
	out := make([]string, len(roleDef.GetCanAssign()))
	copy(out, roleDef.GetCanAssign())
	return out
}

// Access is the JSON-friendly summary of a Checker.
type Access struct {
	Role            string       `json:"role"`
	IsOwner         bool         `json:"isOwner"`
	IsMember        bool         `json:"isMember"`
	Capabilities    []Capability `json:"capabilities"`
	AssignableRoles []string     `json:"assignableRoles,omitempty"`
}

// Access summarizes the checker for API responses.
func (c *Checker) Access() Access {
	return Access{
		Role:            c.role,
		IsOwner:         c.IsOwner(),
		IsMember:        c.member,
		Capabilities:    c.Capabilities(),
		AssignableRoles: c.GetAssignableRoles(),
	}
}
