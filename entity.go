package collabkit

import "time"

// Member is one entry of an entity's membership list.
type Member[R Role] struct {
	UserID  string    `json:"user"`
	Role    R         `json:"role"`
	AddedBy string    `json:"addedBy,omitempty"`
	AddedAt time.Time `json:"addedAt"`
}

// Entity is implemented by every collaborative record: a single owner plus a
// membership list whose roles belong to the family's role type R.
type Entity[R Role] interface {
	EntityFamily() Family
	EntityID() string
	OwnerID() string
	MemberList() []Member[R]
}

// Subject identifies the user an access decision is made for.
type Subject interface {
	SubjectID() string
}

// User is the authenticated caller as seen by the access model.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

// SubjectID returns the user ID. A nil user has no ID.
func (u *User) SubjectID() string {
	if u == nil {
		return ""
	}
	return u.ID
}

// UserID adapts a bare identifier to Subject.
type UserID string

// SubjectID returns the identifier itself.
func (id UserID) SubjectID() string {
	return string(id)
}

func subjectID(u Subject) string {
	if u == nil {
		return ""
	}
	return u.SubjectID()
}
