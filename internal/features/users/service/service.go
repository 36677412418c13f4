package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"freightdesk/internal/core/auth"
	"freightdesk/internal/core/logger"
	"freightdesk/internal/features/users/domain"
	"freightdesk/internal/features/users/ports"

	"go.uber.org/zap"
)

// UserServiceImpl implements ports.UserService.
type UserServiceImpl struct {
	repo   ports.UserRepository
	hasher ports.PasswordHasher
	tokens ports.TokenIssuer
	now    func() time.Time
}

// NewUserService creates a new UserServiceImpl.
func NewUserService(repo ports.UserRepository, hasher ports.PasswordHasher, tokens ports.TokenIssuer) *UserServiceImpl {
	return &UserServiceImpl{repo: repo, hasher: hasher, tokens: tokens, now: time.Now}
}

// Login checks the credentials and issues a token. Unknown emails and wrong
// passwords fail the same way.
func (s *UserServiceImpl) Login(ctx context.Context, email, password string) (*ports.Session, error) {
	normalized, err := domain.NormalizeEmail(email)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	u, err := s.repo.GetByEmail(ctx, normalized)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("service: failed to load user: %w", err)
	}

	ok, err := s.hasher.VerifyPassword(ctx, password, u.PasswordHash)
	if err != nil {
		logger.Get().Warn("Stored password hash is unreadable", zap.String("user_id", u.ID), zap.Error(err))
		return nil, domain.ErrInvalidCredentials
	}
	if !ok {
		return nil, domain.ErrInvalidCredentials
	}
	if u.Status == domain.StatusSuspended {
		return nil, domain.ErrAccountSuspended
	}

	return s.session(u)
}

// Register creates a customer account and signs it in.
func (s *UserServiceImpl) Register(ctx context.Context, in ports.RegisterInput) (*ports.Session, error) {
	if err := domain.CheckPassword(in.Password); err != nil {
		return nil, err
	}
	hash, err := s.hasher.HashPassword(ctx, in.Password)
	if err != nil {
		return nil, fmt.Errorf("service: failed to hash password: %w", err)
	}

	u, err := domain.NewUser(domain.NewUserInput{
		Name:    in.Name,
		Email:   in.Email,
		Phone:   in.Phone,
		Company: in.Company,
		Role:    domain.RoleCustomer,
	}, hash, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	logger.Get().Info("Account registered", zap.String("user_id", u.ID))
	return s.session(u)
}

// Me returns the caller's profile.
func (s *UserServiceImpl) Me(ctx context.Context, actor auth.Principal) (*domain.User, error) {
	u, err := s.repo.Get(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	profile := u.Profile()
	return &profile, nil
}

// UpdateMe applies a self-service profile edit.
func (s *UserServiceImpl) UpdateMe(ctx context.Context, actor auth.Principal, update domain.ProfileUpdate) (*domain.User, error) {
	u, err := s.repo.Get(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	update.Apply(u, s.now())
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("service: failed to update profile: %w", err)
	}
	profile := u.Profile()
	return &profile, nil
}

// ChangePassword replaces the caller's password after checking the current one.
func (s *UserServiceImpl) ChangePassword(ctx context.Context, actor auth.Principal, current, next string) error {
	if err := domain.CheckPassword(next); err != nil {
		return err
	}
	u, err := s.repo.Get(ctx, actor.UserID)
	if err != nil {
		return err
	}

	ok, err := s.hasher.VerifyPassword(ctx, current, u.PasswordHash)
	if err != nil || !ok {
		return domain.ErrWrongPassword
	}

	hash, err := s.hasher.HashPassword(ctx, next)
	if err != nil {
		return fmt.Errorf("service: failed to hash password: %w", err)
	}
	u.PasswordHash = hash
	u.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, u); err != nil {
		return fmt.Errorf("service: failed to store password: %w", err)
	}
	return nil
}

// ListUsers returns the accounts matching filter.
func (s *UserServiceImpl) ListUsers(ctx context.Context, filter domain.Filter) ([]domain.User, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list users: %w", err)
	}
	return filter.Apply(list), nil
}

// GetUser returns one account including admin notes.
func (s *UserServiceImpl) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.Get(ctx, id)
}

// UpdateUser applies a CRM edit.
func (s *UserServiceImpl) UpdateUser(ctx context.Context, id string, update domain.AdminUpdate) (*domain.User, error) {
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := update.Apply(u, s.now()); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("service: failed to update user: %w", err)
	}
	return u, nil
}

// EnsureAdmin creates the bootstrap admin account unless the email exists.
// It reports whether an account was created.
func (s *UserServiceImpl) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	normalized, err := domain.NormalizeEmail(email)
	if err != nil {
		return false, err
	}
	_, err = s.repo.GetByEmail(ctx, normalized)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return false, fmt.Errorf("service: failed to look up admin: %w", err)
	}

	if err := domain.CheckPassword(password); err != nil {
		return false, err
	}
	hash, err := s.hasher.HashPassword(ctx, password)
	if err != nil {
		return false, fmt.Errorf("service: failed to hash password: %w", err)
	}
	u, err := domain.NewUser(domain.NewUserInput{Name: "Administrator", Email: normalized, Role: domain.RoleAdmin}, hash, s.now())
	if err != nil {
		return false, err
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return false, nil
		}
		return false, err
	}
	logger.Get().Info("Bootstrap admin created", zap.String("email", normalized))
	return true, nil
}

func (s *UserServiceImpl) session(u *domain.User) (*ports.Session, error) {
	token, exp, err := s.tokens.Issue(u.Principal())
	if err != nil {
		return nil, fmt.Errorf("service: failed to issue token: %w", err)
	}
	profile := u.Profile()
	return &ports.Session{Token: token, ExpiresAt: exp, User: &profile}, nil
}
