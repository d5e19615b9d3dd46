package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/schoolflow/schoolflow-backend/internal/auth/jwt"
	"github.com/schoolflow/schoolflow-backend/internal/auth/repository"
	"github.com/schoolflow/schoolflow-backend/internal/authz"
	usersdomain "github.com/schoolflow/schoolflow-backend/internal/users/domain"
	usersrepo "github.com/schoolflow/schoolflow-backend/internal/users/repository"
	"github.com/schoolflow/schoolflow-backend/pkg/errors"
	"github.com/schoolflow/schoolflow-backend/pkg/logger"
	"github.com/schoolflow/schoolflow-backend/pkg/mailer"
	"github.com/schoolflow/schoolflow-backend/pkg/permissions"
	"github.com/schoolflow/schoolflow-backend/pkg/tenant"
)

// Mailer sends outbound notification email. Satisfied by pkg/mailer.Mailer.
type Mailer interface {
	Send(to, subject, body string) error
}

// generateSessionID generates a unique session ID.
func generateSessionID() string {
	return uuid.New().String()
}

// AuditRecorder records an audit trail entry. Satisfied by
// internal/audit.Publisher.
type AuditRecorder interface {
	WithTenant(ctx context.Context, tenantID, action, targetType, targetID string, details map[string]interface{}) error
}

// TenantStore loads a tenant's current status. Satisfied by
// internal/platform/repository.TenantRepository.
type TenantStore interface {
	GetTenant(ctx context.Context, tenantID string) (authz.TenantRecord, error)
}

// AuthService handles authentication: resolving an identifier's tenant,
// verifying the password, and minting a token pair scoped to that tenant.
// It never calls out over the network — every step resolves in-process
// against this module's own repositories, unlike the gateway-delegated
// credential validation this package replaced.
type AuthService struct {
	sessions      *repository.SessionRepository
	lookup        *repository.UserTenantLookupRepository
	users         *usersrepo.UserRepository
	roles         *usersrepo.RoleRepository
	tenants       TenantStore
	cache         *permissions.Cache
	jwtManager    *jwt.Manager
	audit         AuditRecorder
	resets        *repository.PasswordResetRepository
	mailer        Mailer
	publicBaseURL string
	logger        *logger.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(
	sessions *repository.SessionRepository,
	lookup *repository.UserTenantLookupRepository,
	users *usersrepo.UserRepository,
	roles *usersrepo.RoleRepository,
	tenants TenantStore,
	cache *permissions.Cache,
	jwtManager *jwt.Manager,
	audit AuditRecorder,
	resets *repository.PasswordResetRepository,
	mailer Mailer,
	publicBaseURL string,
	log *logger.Logger,
) *AuthService {
	return &AuthService{
		sessions:      sessions,
		lookup:        lookup,
		users:         users,
		roles:         roles,
		tenants:       tenants,
		cache:         cache,
		jwtManager:    jwtManager,
		audit:         audit,
		resets:        resets,
		mailer:        mailer,
		publicBaseURL: publicBaseURL,
		logger:        log,
	}
}

// LoginRequest represents a login request. TenantSlug disambiguates an
// email that holds roles in more than one tenant; it is optional for a
// single-tenant account.
type LoginRequest struct {
	Email      string  `json:"email" validate:"required,email"`
	Password   string  `json:"password" validate:"required,min=6"`
	TenantSlug *string `json:"tenant_slug,omitempty"`
}

// LoginResponse represents a login response.
type LoginResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	TokenType    string    `json:"token_type"`
	User         *UserInfo `json:"user"`
}

// UserInfo represents the authenticated user's identity and, for the
// tenant the token was issued for, the roles and permissions resolved
// during login.
type UserInfo struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	FirstName   string   `json:"first_name"`
	LastName    string   `json:"last_name"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`

	TenantID   string `json:"tenant_id,omitempty"`
	TenantSlug string `json:"tenant_slug,omitempty"`
}

// FullName returns the user's full name.
func (u *UserInfo) FullName() string {
	return u.FirstName + " " + u.LastName
}

// Login authenticates a user and returns a token pair scoped to the
// resolved tenant. A failed lookup, an unknown or inactive user, a wrong
// password and a user with no role in the tenant each record an audit
// entry under the tenant resolved so far; a tenant lookup error, an
// inactive tenant, and role-load, token or session errors return without one.
func (s *AuthService) Login(ctx context.Context, req *LoginRequest, userAgent, ipAddress string) (*LoginResponse, error) {
	lookup, err := s.resolveLookup(ctx, req.Email, req.TenantSlug)
	if err != nil {
		s.recordFailure(ctx, "", req.Email, ipAddress)
		return nil, errors.InvalidCredentials()
	}

	user, err := s.users.GetByID(ctx, lookup.UserID)
	if err != nil {
		s.recordFailure(ctx, lookup.TenantID, req.Email, ipAddress)
		return nil, errors.InvalidCredentials()
	}
	if !user.IsActive {
		s.recordFailure(ctx, lookup.TenantID, req.Email, ipAddress)
		return nil, errors.InvalidCredentials()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.recordFailure(ctx, lookup.TenantID, req.Email, ipAddress)
		return nil, errors.InvalidCredentials()
	}

	record, err := s.tenants.GetTenant(ctx, lookup.TenantID)
	if err != nil {
		return nil, err
	}
	if !record.Active {
		return nil, errors.TenantInactive()
	}

	scopedCtx := tenant.WithTenantContext(ctx, record.ID, record.Slug)

	roles, permSet, err := s.loadRoleSet(scopedCtx, user.ID, record.ID)
	if err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		s.recordFailure(ctx, lookup.TenantID, req.Email, ipAddress)
		return nil, errors.NoTenantAccess()
	}

	info := s.toUserInfo(user, roles, permSet, record.ID, record.Slug)

	refreshExpiresAt := time.Now().Add(s.jwtManager.GetRefreshExpiry())

	tokens, sessionID, err := s.issueTokens(ctx, info)
	if err != nil {
		return nil, err
	}

	if _, err := s.sessions.CreateWithID(ctx, sessionID, user.ID, tokens.RefreshToken, refreshExpiresAt, userAgent, ipAddress); err != nil {
		s.logger.Error().Err(err).Msg("failed to create session")
		return nil, errors.Internal("failed to create session")
	}

	_ = s.audit.WithTenant(scopedCtx, record.ID, "auth.login_succeeded", "user", user.ID, nil)

	return &LoginResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    tokens.ExpiresAt,
		TokenType:    tokens.TokenType,
		User:         info,
	}, nil
}

// resolveLookup finds the user-tenant lookup row for email, disambiguating
// by tenantSlug when the caller supplied one.
func (s *AuthService) resolveLookup(ctx context.Context, email string, tenantSlug *string) (*repository.UserTenantLookup, error) {
	if tenantSlug != nil && *tenantSlug != "" {
		return s.lookup.GetByEmailAndSlug(ctx, email, *tenantSlug)
	}
	return s.lookup.GetByEmail(ctx, email)
}

// loadRoleSet mirrors internal/authz.Pipeline's loadRoles shortcut order:
// platform owner, then the tenant's principal wildcard role, then the
// stored role/permission grants.
func (s *AuthService) loadRoleSet(ctx context.Context, userID, tenantID string) ([]string, []string, error) {
	isOwner, err := s.roles.IsPlatformOwner(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if isOwner {
		return []string{permissions.RolePlatformOwner}, []string{"*"}, nil
	}

	roles, hit := s.cache.GetRoles(userID, tenantID)
	if !hit {
		roles, err = s.roles.RolesForUser(ctx, userID)
		if err != nil {
			return nil, nil, err
		}
		s.cache.SetRoles(userID, tenantID, roles)
	}
	if len(roles) == 0 {
		return nil, nil, nil
	}

	if permissions.IsPrincipal(roles) {
		perms := []string{"*"}
		s.cache.SetPermissions(userID, tenantID, perms)
		return roles, perms, nil
	}

	perms, hit := s.cache.GetPermissions(userID, tenantID)
	if !hit {
		perms, err = s.roles.PermissionsForRoles(ctx, roles)
		if err != nil {
			return nil, nil, err
		}
		s.cache.SetPermissions(userID, tenantID, perms)
	}
	return roles, perms, nil
}

func (s *AuthService) toUserInfo(user *usersdomain.User, roles, perms []string, tenantID, tenantSlug string) *UserInfo {
	return &UserInfo{
		ID:          user.ID,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Roles:       roles,
		Permissions: perms,
		TenantID:    tenantID,
		TenantSlug:  tenantSlug,
	}
}

func (s *AuthService) issueTokens(ctx context.Context, info *UserInfo) (*jwt.TokenPair, string, error) {
	sessionID := generateSessionID()
	tokenInfo := &jwt.UserInfo{
		ID:         info.ID,
		Email:      info.Email,
		Name:       info.FirstName + " " + info.LastName,
		Roles:      info.Roles,
		TenantID:   info.TenantID,
		TenantSlug: info.TenantSlug,
	}
	tokens, err := s.jwtManager.GenerateTokenPair(tokenInfo, sessionID)
	if err != nil {
		return nil, "", errors.Internal("failed to generate tokens")
	}
	return tokens, sessionID, nil
}

// recordFailure best-effort logs a failed login attempt. tenantID may be
// empty if the email couldn't even be resolved to a tenant.
func (s *AuthService) recordFailure(ctx context.Context, tenantID, email, ipAddress string) {
	details := map[string]interface{}{"email": email, "ip_address": ipAddress}
	if err := s.audit.WithTenant(ctx, tenantID, "auth.login_failed", "user", "", details); err != nil {
		s.logger.Warn().Err(err).Msg("failed to record login failure audit entry")
	}
}

// Logout invalidates a session.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if err := s.sessions.RevokeByRefreshToken(ctx, refreshToken); err != nil {
		s.logger.Warn().Err(err).Msg("failed to revoke session")
	}
	return nil
}

// Refresh refreshes the access token using a refresh token, rotating the
// stored refresh token hash.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*jwt.TokenPair, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, errors.Unauthorized("invalid session")
	}
	if session.RevokedAt != nil {
		return nil, errors.Unauthorized("session revoked")
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, errors.NotFound("user")
	}
	if !user.IsActive {
		return nil, errors.Unauthorized("account deactivated")
	}

	record, err := s.tenants.GetTenant(ctx, claims.TenantID)
	if err != nil {
		return nil, err
	}
	if !record.Active {
		return nil, errors.TenantInactive()
	}

	scopedCtx := tenant.WithTenantContext(ctx, record.ID, record.Slug)
	roles, perms, err := s.loadRoleSet(scopedCtx, user.ID, record.ID)
	if err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		return nil, errors.NoTenantAccess()
	}

	info := s.toUserInfo(user, roles, perms, record.ID, record.Slug)
	tokenInfo := &jwt.UserInfo{
		ID:         info.ID,
		Email:      info.Email,
		Name:       info.FirstName + " " + info.LastName,
		Roles:      info.Roles,
		TenantID:   info.TenantID,
		TenantSlug: info.TenantSlug,
	}

	tokens, err := s.jwtManager.GenerateTokenPair(tokenInfo, session.ID)
	if err != nil {
		return nil, errors.Internal("failed to generate tokens")
	}

	if err := s.sessions.UpdateRefreshTokenHash(ctx, session.ID, tokens.RefreshToken); err != nil {
		s.logger.Error().Err(err).Msg("failed to update refresh token hash")
		return nil, errors.Internal("failed to update session")
	}

	return tokens, nil
}

// GetCurrentUser resolves the full identity (roles and permissions
// included) for an already-authenticated caller, used by the /me endpoint.
func (s *AuthService) GetCurrentUser(ctx context.Context, userID, tenantID, tenantSlug string) (*UserInfo, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if tenantID == "" {
		isOwner, err := s.roles.IsPlatformOwner(ctx, userID)
		if err != nil {
			return nil, err
		}
		if isOwner {
			return s.toUserInfo(user, []string{permissions.RolePlatformOwner}, []string{"*"}, "", ""), nil
		}
		return s.toUserInfo(user, nil, nil, "", ""), nil
	}

	scopedCtx := tenant.WithTenantContext(ctx, tenantID, tenantSlug)
	roles, perms, err := s.loadRoleSet(scopedCtx, userID, tenantID)
	if err != nil {
		return nil, err
	}
	return s.toUserInfo(user, roles, perms, tenantID, tenantSlug), nil
}

// RequestPasswordReset emails a reset link for the account matching email,
// if one exists. It always returns nil on a successful lookup failure so
// callers can't use the response to enumerate registered addresses; token
// generation and delivery failures are logged, not surfaced.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		s.logger.Debug().Str("email", email).Msg("password reset requested for unknown email")
		return nil
	}
	if !user.IsActive {
		return nil
	}

	token, err := s.resets.GenerateToken(ctx, user.ID)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to generate password reset token")
		return nil
	}

	resetLink := fmt.Sprintf("%s/reset-password?token=%s", s.publicBaseURL, token)
	if err := s.mailer.Send(user.Email, "Reset your password", mailer.PasswordResetBody(resetLink)); err != nil {
		s.logger.Error().Err(err).Msg("failed to send password reset email")
	}
	return nil
}

// ResetPassword redeems a password-reset token, sets the account's new
// password, and revokes every existing session so a stolen credential
// doesn't survive the reset.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	rec, err := s.resets.Consume(ctx, token)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return errors.Internal("failed to hash password")
	}

	if err := s.users.UpdatePassword(ctx, rec.UserID, string(hash)); err != nil {
		s.logger.Error().Err(err).Msg("failed to update password after reset")
		return errors.Internal("failed to update password")
	}

	if err := s.sessions.RevokeAllForUser(ctx, rec.UserID); err != nil {
		s.logger.Warn().Err(err).Msg("failed to revoke sessions after password reset")
	}

	return nil
}
