package collabkit

import (
	"errors"
	"fmt"
)

// Sentinel errors for collabkit operations.
var (
	// ErrForbidden is returned when the resolved role does not grant the requested capability.
	ErrForbidden = errors.New("collabkit: forbidden")

	// ErrNotFound is returned when an entity does not exist or has been soft-deleted.
	ErrNotFound = errors.New("collabkit: not found")

	// ErrInvalidFamily is returned when a family is not defined in the registry.
	ErrInvalidFamily = errors.New("collabkit: invalid family")

	// ErrInvalidRole is returned when a role is not defined for a family.
	ErrInvalidRole = errors.New("collabkit: invalid role")

	// ErrInvalidCapability is returned when a capability name is unknown.
	ErrInvalidCapability = errors.New("collabkit: invalid capability")

	// ErrAlreadyMember is returned when adding a user who already has a membership entry.
	ErrAlreadyMember = errors.New("collabkit: already a member")

	// ErrNotMember is returned when changing or removing a user without a membership entry.
	ErrNotMember = errors.New("collabkit: not a member")

	// ErrOwnerImmutable is returned when an operation would remove or re-role the owner.
	ErrOwnerImmutable = errors.New("collabkit: owner membership is immutable")

	// ErrMemberLimit is returned when a membership list is full.
	ErrMemberLimit = errors.New("collabkit: member limit reached")

	// ErrCannotAssign is returned when the actor's role cannot grant the target role.
	ErrCannotAssign = errors.New("collabkit: cannot assign role")

	// ErrInvalidInput is returned when a request payload is malformed.
	ErrInvalidInput = errors.New("collabkit: invalid input")

	// ErrUnsupported is returned when an operation does not apply to a family.
	ErrUnsupported = errors.New("collabkit: unsupported operation")

	// ErrNoUserID is returned when user ID is not found in context.
	ErrNoUserID = errors.New("collabkit: no user ID in context")

	// ErrDatabaseError is returned when a database operation fails.
	ErrDatabaseError = errors.New("collabkit: database error")

	// ErrRegistrySealed is raised when a sealed registry is modified.
	ErrRegistrySealed = errors.New("collabkit: registry is sealed")
)

// Error wraps a sentinel error with additional context.
type Error struct {
	Err        error      // Underlying sentinel error
	Message    string     // Additional context
	Family     Family     // Entity family involved
	EntityID   string     // Entity involved
	Role       string     // Resolved or requested role (if applicable)
	Capability Capability // Capability checked (if applicable)
	UserID     string     // User involved (if applicable)
	ActorID    string     // Actor who triggered the error (if applicable)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is checks if the error matches a target error.
func (e *Error) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewError creates a new Error with context.
func NewError(err error, message string) *Error {
	return &Error{
		Err:     err,
		Message: message,
	}
}

// WithEntity adds entity information to the error.
func (e *Error) WithEntity(family Family, entityID string) *Error {
	e.Family = family
	e.EntityID = entityID
	return e
}

// WithRole adds role information to the error.
func (e *Error) WithRole(role string) *Error {
	e.Role = role
	return e
}

// WithCapability adds capability information to the error.
func (e *Error) WithCapability(c Capability) *Error {
	e.Capability = c
	return e
}

// WithUser adds user information to the error.
func (e *Error) WithUser(userID string) *Error {
	e.UserID = userID
	return e
}

// WithActor adds actor information to the error.
func (e *Error) WithActor(actorID string) *Error {
	e.ActorID = actorID
	return e
}

// Reason returns a human readable explanation suitable for an HTTP response body.
func (e *Error) Reason() string {
	switch {
	case errors.Is(e.Err, ErrForbidden) && e.Role != "" && e.Capability != "":
		return fmt.Sprintf("role %q on this %s does not grant %s", e.Role, familyLabel(e.Family), e.Capability)
	case errors.Is(e.Err, ErrCannotAssign) && e.Role != "":
		return fmt.Sprintf("your role cannot assign %q on this %s", e.Role, familyLabel(e.Family))
	case e.Message != "":
		return e.Message
	}
	return e.Err.Error()
}

func familyLabel(f Family) string {
	if f == "" {
		return "entity"
	}
	return string(f)
}

// IsForbidden checks if an error is an authorization denial.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsNotFound checks if an error reports a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidFamily checks if an error is due to an undefined family.
func IsInvalidFamily(err error) bool {
	return errors.Is(err, ErrInvalidFamily)
}

// IsInvalidRole checks if an error is due to an invalid role.
func IsInvalidRole(err error) bool {
	return errors.Is(err, ErrInvalidRole)
}

// IsCannotAssign checks if an error is due to lacking assignment permission.
func IsCannotAssign(err error) bool {
	return errors.Is(err, ErrCannotAssign)
}

// IsConflict checks if an error reports a duplicate membership.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyMember)
}
