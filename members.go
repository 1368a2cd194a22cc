package collabkit

import (
	"time"

	"github.com/samber/lo"
)

// FindMember returns the membership entry of userID, if any.
func FindMember[R Role](members []Member[R], userID string) (Member[R], bool) {
	m, _, ok := lo.FindIndexOf(members, func(m Member[R]) bool { return m.UserID == userID })
	return m, ok
}

// AppendMember adds a new entry to a membership list.
// The list must not already contain userID, must stay within max entries and
// ownership cannot be granted this way.
func AppendMember[R Role](members []Member[R], ownerID, userID string, role R, addedBy string, at time.Time, max int) ([]Member[R], error) {
	if string(role) == RoleOwner {
		return nil, NewError(ErrCannotAssign, "ownership cannot be granted").WithRole(RoleOwner).WithUser(userID)
	}
	if userID == ownerID || lo.ContainsBy(members, func(m Member[R]) bool { return m.UserID == userID }) {
		return nil, NewError(ErrAlreadyMember, "user already has a membership entry").WithUser(userID)
	}
	if max > 0 && len(members) >= max {
		return nil, NewError(ErrMemberLimit, "membership list is full").WithUser(userID)
	}

	out := make([]Member[R], 0, len(members)+1)
	out = append(out, members...)
	out = append(out, Member[R]{
		UserID:  userID,
		Role:    role,
		AddedBy: addedBy,
		AddedAt: at,
	})
	return out, nil
}

// WithoutMember removes userID from a membership list and returns the removed entry.
// The owner entry cannot be removed.
func WithoutMember[R Role](members []Member[R], ownerID, userID string) ([]Member[R], Member[R], error) {
	var removed Member[R]
	if userID == ownerID {
		return nil, removed, NewError(ErrOwnerImmutable, "the owner cannot be removed").WithUser(userID)
	}
	removed, idx, ok := lo.FindIndexOf(members, func(m Member[R]) bool { return m.UserID == userID })
	if !ok {
		return nil, removed, NewError(ErrNotMember, "user has no membership entry").WithUser(userID)
	}
	if string(removed.Role) == RoleOwner {
		return nil, removed, NewError(ErrOwnerImmutable, "the owner cannot be removed").WithUser(userID)
	}

	out := lo.Filter(members, func(_ Member[R], i int) bool { return i != idx })
	return out, removed, nil
}

// WithMemberRole changes the role of userID and returns the previous role.
// The owner entry cannot be changed and nobody can be promoted to owner.
func WithMemberRole[R Role](members []Member[R], ownerID, userID string, role R) ([]Member[R], R, error) {
	var previous R
	if userID == ownerID {
		return nil, previous, NewError(ErrOwnerImmutable, "the owner role cannot be changed").WithUser(userID)
	}
	if string(role) == RoleOwner {
		return nil, previous, NewError(ErrCannotAssign, "ownership cannot be granted").WithRole(RoleOwner).WithUser(userID)
	}
	current, idx, ok := lo.FindIndexOf(members, func(m Member[R]) bool { return m.UserID == userID })
	if !ok {
		return nil, previous, NewError(ErrNotMember, "user has no membership entry").WithUser(userID)
	}
	if string(current.Role) == RoleOwner {
		return nil, previous, NewError(ErrOwnerImmutable, "the owner role cannot be changed").WithUser(userID)
	}

	out := make([]Member[R], len(members))
	copy(out, members)
	out[idx].Role = role
	return out, current.Role, nil
}
