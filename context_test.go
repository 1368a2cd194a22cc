package collabkit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextUserID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetUserID(ctx))
	assert.Panics(t, func() { MustGetUserID(ctx) })
	assert.Equal(t, "", SubjectFromContext(ctx).SubjectID())

	ctx = WithUserID(ctx, "u1")
	assert.Equal(t, "u1", GetUserID(ctx))
	assert.Equal(t, "u1", MustGetUserID(ctx))
	assert.Equal(t, "u1", SubjectFromContext(ctx).SubjectID())
}

func TestContextActorFallsBackToUser(t *testing.T) {
	ctx := WithUserID(context.Background(), "u1")
	assert.Equal(t, "u1", GetActorID(ctx))

	ctx = WithActorID(ctx, "admin")
	assert.Equal(t, "admin", GetActorID(ctx))
	assert.Equal(t, "u1", GetUserID(ctx))
}

func TestContextChecker(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, GetChecker(ctx))

	c := NewChecker("u1", FamilyDocument, "doc-1", "owner", true, testRegistry())
	ctx = WithChecker(ctx, c)
	assert.Same(t, c, GetChecker(ctx))
	assert.Same(t, c, FromContext(ctx))
}

func TestAuditContextRoundTrip(t *testing.T) {
	ctx := WithAuditContext(context.Background(), AuditContext{
		ActorID:   "u1",
		IPAddress: "10.0.0.1",
		UserAgent: "test-agent",
		RequestID: "req-1",
	})

	ac := GetAuditContext(ctx)
	assert.Equal(t, "u1", ac.ActorID)
	assert.Equal(t, "10.0.0.1", ac.IPAddress)
	assert.Equal(t, "test-agent", ac.UserAgent)
	assert.Equal(t, "req-1", ac.RequestID)

	// Empty fields leave existing values alone.
	ctx = WithAuditContext(ctx, AuditContext{RequestID: "req-2"})
	assert.Equal(t, "10.0.0.1", GetIPAddress(ctx))
	assert.Equal(t, "req-2", GetRequestID(ctx))
}

func TestContextKeysDoNotCollide(t *testing.T) {
	ctx := context.WithValue(context.Background(), "collabkit:user_id", "intruder") //nolint:staticcheck
	assert.Empty(t, GetUserID(ctx))
}
