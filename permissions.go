package collabkit

import (
	"sort"
)

// Capability is a named boolean permission checked against a role through the
// permission matrix of a family.
type Capability string

const (
	CanView                Capability = "canView"
	CanEdit                Capability = "canEdit"
	CanDelete              Capability = "canDelete"
	CanShare               Capability = "canShare"
	CanManageCollaborators Capability = "canManageCollaborators"
	CanChangeSettings      Capability = "canChangeSettings"
	CanManageMembers       Capability = "canManageMembers"
	CanCreateProjects      Capability = "canCreateProjects"
)

var knownCapabilities = map[Capability]struct{}{
	CanView:                {},
	CanEdit:                {},
	CanDelete:              {},
	CanShare:               {},
	CanManageCollaborators: {},
	CanChangeSettings:      {},
	CanManageMembers:       {},
	CanCreateProjects:      {},
}

// AllCapabilities returns every known capability in a stable order.
func AllCapabilities() []Capability {
	caps := make([]Capability, 0, len(knownCapabilities))
	for c := range knownCapabilities {
		caps = append(caps, c)
	}
	sort.Slice(caps, func(i, j int) bool { return caps[i] < caps[j] })
	return caps
}

// Valid reports whether c is one of the known capabilities.
func (c Capability) Valid() bool {
	_, ok := knownCapabilities[c]
	return ok
}

// String returns the capability name.
func (c Capability) String() string {
	return string(c)
}

// ParseCapability converts a string into a known Capability.
func ParseCapability(s string) (Capability, error) {
	c := Capability(s)
	if s == "" {
		return "", NewError(ErrInvalidCapability, "capability cannot be empty")
	}
	if !c.Valid() {
		return "", NewError(ErrInvalidCapability, "unknown capability "+s).WithCapability(c)
	}
	return c, nil
}

// CapabilitySet is an immutable set of capabilities granted by a role.
// The zero value grants nothing.
type CapabilitySet struct {
	caps map[Capability]struct{}
}

// NewCapabilitySet builds a set from a list of capabilities.
func NewCapabilitySet(caps ...Capability) CapabilitySet {
	set := CapabilitySet{caps: make(map[Capability]struct{}, len(caps))}
	for _, c := range caps {
		set.caps[c] = struct{}{}
	}
	return set
}

// Has reports whether the set grants c. Unknown capabilities are never granted.
func (s CapabilitySet) Has(c Capability) bool {
	if s.caps == nil {
		return false
	}
	_, ok := s.caps[c]
	return ok
}

// Len returns the number of capabilities in the set.
func (s CapabilitySet) Len() int {
	return len(s.caps)
}

// List returns the capabilities in the set in a stable order.
func (s CapabilitySet) List() []Capability {
	out := make([]Capability, 0, len(s.caps))
	for c := range s.caps {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
