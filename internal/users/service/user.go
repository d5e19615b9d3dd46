package service

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/schoolflow/schoolflow-backend/internal/users/domain"
	"github.com/schoolflow/schoolflow-backend/internal/users/repository"
	"github.com/schoolflow/schoolflow-backend/pkg/errors"
	"github.com/schoolflow/schoolflow-backend/pkg/logger"
	"github.com/schoolflow/schoolflow-backend/pkg/permissions"
)

// AuditRecorder records an audit trail entry. Satisfied by
// internal/audit.Publisher; kept as a narrow interface here so this
// package has no dependency on the messaging stack.
type AuditRecorder interface {
	PublishAction(ctx context.Context, action, targetType, targetID string, details map[string]interface{}) error
}

// UserService handles user account and role-grant business logic.
type UserService struct {
	users  *repository.UserRepository
	roles  *repository.RoleRepository
	cache  *permissions.Cache
	audit  AuditRecorder
	logger *logger.Logger
}

// NewUserService creates a new user service.
func NewUserService(users *repository.UserRepository, roles *repository.RoleRepository, cache *permissions.Cache, audit AuditRecorder, log *logger.Logger) *UserService {
	return &UserService{users: users, roles: roles, cache: cache, audit: audit, logger: log}
}

// CreateUserRequest is the payload for creating a new account and granting
// it an initial role within the tenant found in ctx.
type CreateUserRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	RoleName  string `json:"role" validate:"required"`
}

// Create creates a new user and grants them RoleName in the tenant found in
// ctx.
func (s *UserService) Create(ctx context.Context, req *CreateUserRequest) (*domain.User, error) {
	if existing, _ := s.users.GetByEmail(ctx, req.Email); existing != nil {
		return nil, errors.Conflict("email already in use")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Internal("failed to hash password")
	}

	user := &domain.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		IsActive:     true,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	if err := s.roles.AssignRole(ctx, user.ID, req.RoleName); err != nil {
		return nil, err
	}

	if s.audit != nil {
		_ = s.audit.PublishAction(ctx, "user.created", "user", user.ID, map[string]interface{}{
			"email": user.Email,
			"role":  req.RoleName,
		})
	}

	return user, nil
}

// GetByID returns a user by ID.
func (s *UserService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

// List returns a page of users holding a role in the tenant found in ctx.
func (s *UserService) List(ctx context.Context, page, perPage int) ([]*domain.User, int64, error) {
	return s.users.ListForTenant(ctx, page, perPage)
}

// UpdateUserRequest is the payload for editing a user's profile fields.
type UpdateUserRequest struct {
	Email     *string `json:"email" validate:"omitempty,email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	IsActive  *bool   `json:"is_active"`
	Version   int     `json:"version" validate:"required"`
}

// Update applies req to the user with the given ID.
func (s *UserService) Update(ctx context.Context, id string, req *UpdateUserRequest) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	user.Version = req.Version

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// ChangePassword replaces a user's password hash after verifying the
// caller-supplied current password.
func (s *UserService) ChangePassword(ctx context.Context, id, currentPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return errors.InvalidCredentials()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return errors.Internal("failed to hash password")
	}

	return s.users.UpdatePassword(ctx, id, string(hash))
}

// Delete soft-deletes a user and records an audit entry. It does not touch
// the permission cache: cached roles and permissions stay until their TTL
// runs out.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.users.SoftDelete(ctx, id); err != nil {
		return err
	}
	if s.audit != nil {
		_ = s.audit.PublishAction(ctx, "user.deleted", "user", id, nil)
	}
	return nil
}

// AssignRole grants a user a role within the tenant found in ctx and
// invalidates their cached roles/permissions so the grant takes effect on
// their next authorized request.
func (s *UserService) AssignRole(ctx context.Context, userID, tenantID, roleName string) error {
	if err := s.roles.AssignRole(ctx, userID, roleName); err != nil {
		return err
	}
	s.cache.Invalidate(userID, tenantID)
	if s.audit != nil {
		_ = s.audit.PublishAction(ctx, "user.role_assigned", "user", userID, map[string]interface{}{"role": roleName})
	}
	return nil
}

// RevokeRole removes a role grant and invalidates the cache.
func (s *UserService) RevokeRole(ctx context.Context, userID, tenantID, roleName string) error {
	if err := s.roles.RevokeRole(ctx, userID, roleName); err != nil {
		return err
	}
	s.cache.Invalidate(userID, tenantID)
	if s.audit != nil {
		_ = s.audit.PublishAction(ctx, "user.role_revoked", "user", userID, map[string]interface{}{"role": roleName})
	}
	return nil
}
