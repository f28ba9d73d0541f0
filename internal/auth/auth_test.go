package auth

import (
	"testing"
	"time"

	"dyscalc-screening-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour)
	user := domain.User{ID: "u1", Name: "Alice", Role: domain.RoleTeacher}

	token, err := m.Issue(user)
	require.NoError(t, err)

	identity, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", identity.UserID)
	assert.Equal(t, domain.RoleTeacher, identity.Role)
}

func TestVerifyRejectsBadToken(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour)

	_, err := m.Verify("not-a-token")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	other := NewTokenManager("other-secret", time.Hour)
	token, err := other.Issue(domain.User{ID: "u1", Role: domain.RoleStudent})
	require.NoError(t, err)
	_, err = m.Verify(token)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	m := NewTokenManager("test-secret", time.Minute)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Minute) }
	token, err := m.Issue(domain.User{ID: "u1", Role: domain.RoleStudent})
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Verify(token)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2hunter2", hash)
	assert.True(t, CheckPassword(hash, "hunter2hunter2"))
	assert.False(t, CheckPassword(hash, "wrong"))
}

func TestCanViewResults(t *testing.T) {
	child := domain.User{ID: "child", Role: domain.RoleStudent, GuardianID: "parent"}
	tests := []struct {
		name      string
		requester domain.Identity
		target    domain.User
		want      bool
	}{
		{"self", domain.Identity{UserID: "child", Role: domain.RoleStudent}, child, true},
		{"teacher any", domain.Identity{UserID: "t1", Role: domain.RoleTeacher}, child, true},
		{"admin any", domain.Identity{UserID: "a1", Role: domain.RoleAdmin}, child, true},
		{"linked parent", domain.Identity{UserID: "parent", Role: domain.RoleParent}, child, true},
		{"unlinked parent", domain.Identity{UserID: "other-parent", Role: domain.RoleParent}, child, false},
		{"parent of unlinked child", domain.Identity{UserID: "parent", Role: domain.RoleParent}, domain.User{ID: "c2", Role: domain.RoleStudent}, false},
		{"student other", domain.Identity{UserID: "s2", Role: domain.RoleStudent}, child, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanViewResults(tc.requester, tc.target))
		})
	}
}
