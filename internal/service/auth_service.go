package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"go-gin-chat-moderation/internal/core/auth"
	"go-gin-chat-moderation/internal/domain"
	"go-gin-chat-moderation/internal/repo"
	"go-gin-chat-moderation/pkg/utils"
)

type RegisterInput struct {
	Username  string `json:"username"  validate:"required,min=3,max=80"`
	Email     string `json:"email"     validate:"required,email,max=120"`
	FirstName string `json:"firstName" validate:"required,max=80"`
	LastName  string `json:"lastName"  validate:"required,max=80"`
	Password  string `json:"password"  validate:"required,min=8,max=72"`
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword"     validate:"required,min=8,max=72"`
}

type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *domain.User `json:"user"`
}

// AuthService is the session gate: credentials, account state and the admin
// role check every admin operation goes through.
type AuthService struct {
	users    *repo.UserRepo
	jwt      *auth.JWTer
	validate *validator.Validate
	log      *zap.Logger
	Now      func() time.Time
}

func NewAuthService(users *repo.UserRepo, jwter *auth.JWTer, l *zap.Logger) *AuthService {
	return &AuthService{
		users:    users,
		jwt:      jwter,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      l.Named("auth"),
		Now:      time.Now,
	}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if err := s.validate.Struct(in); err != nil {
		return nil, validationErr(err)
	}

	if u, err := s.users.FindByUsername(ctx, in.Username); err != nil {
		return nil, domain.StoreErr("find user", err)
	} else if u != nil {
		return nil, domain.Invalid("username already taken")
	}
	if u, err := s.users.FindByEmail(ctx, in.Email); err != nil {
		return nil, domain.StoreErr("find user", err)
	} else if u != nil {
		return nil, domain.Invalid("email already registered")
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &domain.User{
		Username:     in.Username,
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: hash,
		Role:         domain.RoleUser,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, domain.StoreErr("create user", err)
	}
	s.log.Info("user registered", zap.Uint("user_id", u.ID), zap.String("username", u.Username))
	return u, nil
}

// Authenticate checks credentials and account state, then stamps last_login.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	u, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, domain.StoreErr("find user", err)
	}
	if u == nil || !utils.CheckPassword(password, u.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}
	now := s.Now().UTC()
	if err := checkActive(u, now); err != nil {
		return nil, err
	}
	if err := s.users.TouchLastLogin(ctx, u.ID, now); err != nil {
		return nil, domain.StoreErr("touch last login", err)
	}
	u.LastLogin = &now
	return u, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	u, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}
	tok, err := s.jwt.Issue(u.ID, u.Role)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &LoginResult{Token: tok, ExpiresAt: s.Now().Add(s.jwt.TTL).UTC(), User: u}, nil
}

// ChangePassword replaces the caller's password after re-checking the
// current one. Issued tokens stay valid until they expire.
func (s *AuthService) ChangePassword(ctx context.Context, userID uint, in ChangePasswordInput) error {
	if err := s.validate.Struct(in); err != nil {
		return validationErr(err)
	}
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return domain.StoreErr("find user", err)
	}
	if u == nil {
		return domain.ErrUnauthorized
	}
	if !utils.CheckPassword(in.CurrentPassword, u.PasswordHash) {
		return domain.ErrInvalidCredentials
	}
	if in.NewPassword == in.CurrentPassword {
		return domain.Invalid("newPassword must differ from the current password")
	}
	hash, err := utils.HashPassword(in.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.SetPassword(ctx, u.ID, hash); err != nil {
		return domain.StoreErr("set password", err)
	}
	s.log.Info("password changed", zap.Uint("user_id", u.ID))
	return nil
}

// AuthorizeAdmin denies by default: only a loaded user with role admin passes.
func (s *AuthService) AuthorizeAdmin(u *domain.User) bool {
	return u.IsAdmin()
}

// RequireAdmin re-reads the caller from the store so a revoked, banned or
// suspended admin holding an old token is refused.
func (s *AuthService) RequireAdmin(ctx context.Context, userID uint) (*domain.User, error) {
	if userID == 0 {
		return nil, domain.ErrUnauthorized
	}
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, domain.StoreErr("find admin", err)
	}
	if !s.AuthorizeAdmin(u) || checkActive(u, s.Now().UTC()) != nil {
		return nil, domain.ErrUnauthorized
	}
	return u, nil
}

// EnsureActive loads the token holder and rejects accounts banned or
// suspended after the token was issued.
func (s *AuthService) EnsureActive(ctx context.Context, userID uint) (*domain.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, domain.StoreErr("find user", err)
	}
	if u == nil {
		return nil, domain.ErrUnauthorized
	}
	if err := checkActive(u, s.Now().UTC()); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AuthService) ListUsers(ctx context.Context, adminID uint, q string, offset, limit int) ([]domain.User, int64, error) {
	if _, err := s.RequireAdmin(ctx, adminID); err != nil {
		return nil, 0, err
	}
	users, total, err := s.users.List(ctx, q, clampOffset(offset), clampLimit(limit, 20, 100))
	if err != nil {
		return nil, 0, domain.StoreErr("list users", err)
	}
	return nonNil(users), total, nil
}

func checkActive(u *domain.User, now time.Time) error {
	if u.IsBanned {
		return domain.ErrBanned
	}
	if u.SuspendedAt(now) {
		return fmt.Errorf("%w until %s", domain.ErrSuspended, u.SuspendedUntil.UTC().Format(time.RFC3339))
	}
	return nil
}

func validationErr(err error) error {
	var ves validator.ValidationErrors
	if errors.As(err, &ves) && len(ves) > 0 {
		fe := ves[0]
		field := strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]
		switch fe.Tag() {
		case "required":
			return domain.Invalid("%s is required", field)
		case "email":
			return domain.Invalid("%s is not a valid email", field)
		case "min":
			return domain.Invalid("%s must be at least %s characters", field, fe.Param())
		case "max":
			return domain.Invalid("%s must be at most %s characters", field, fe.Param())
		}
		return domain.Invalid("%s is invalid", field)
	}
	return domain.Invalid("%v", err)
}
