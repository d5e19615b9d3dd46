package service

import (
	"testing"

	"github.com/schoolflow/schoolflow-backend/internal/users/domain"
	"github.com/stretchr/testify/assert"
)

func TestUserInfo_FullName(t *testing.T) {
	u := &UserInfo{FirstName: "Ada", LastName: "Lovelace"}
	assert.Equal(t, "Ada Lovelace", u.FullName())
}

func TestGenerateSessionID_IsUnique(t *testing.T) {
	a := generateSessionID()
	b := generateSessionID()
	assert.NotEqual(t, a, b)
	assert.NotEmpty(t, a)
}

func TestAuthService_ToUserInfo(t *testing.T) {
	s := &AuthService{}
	user := &domain.User{ID: "u1", Email: "ada@example.com", FirstName: "Ada", LastName: "Lovelace"}

	info := s.toUserInfo(user, []string{"teacher"}, []string{"grade:view"}, "tenant-1", "acme")

	assert.Equal(t, "u1", info.ID)
	assert.Equal(t, "ada@example.com", info.Email)
	assert.Equal(t, []string{"teacher"}, info.Roles)
	assert.Equal(t, []string{"grade:view"}, info.Permissions)
	assert.Equal(t, "tenant-1", info.TenantID)
	assert.Equal(t, "acme", info.TenantSlug)
}
